package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/gdmtrack/monitoring-service/internal/adapters/handler"
	"github.com/gdmtrack/monitoring-service/internal/adapters/middleware"
	"github.com/gdmtrack/monitoring-service/internal/adapters/predictor"
	"github.com/gdmtrack/monitoring-service/internal/adapters/repository"
	"github.com/gdmtrack/monitoring-service/internal/config"
	"github.com/gdmtrack/monitoring-service/internal/core/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database with retry logic
	db, err := config.ConnectDatabase(cfg.DatabaseURL, 5, 2*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := config.InitDatabase(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Initialize RabbitMQ publisher for glucose alerts
	rabbitMQPublisher, err := repository.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.AlertsQueueName)
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ publisher: %v", err)
	}
	defer rabbitMQPublisher.Close()

	// Initialize repositories
	sqlRepo := repository.NewSQLRepository(db)
	inboxRepo := repository.NewInboxRepository(db)

	// Initialize model service client
	riskClient := predictor.NewRiskClient(cfg.ModelServiceURL)

	// Initialize services
	patientService := services.NewPatientService(sqlRepo)
	readingService := services.NewReadingService(sqlRepo, sqlRepo, sqlRepo, rabbitMQPublisher)
	alertService := services.NewAlertService(sqlRepo, sqlRepo, sqlRepo)
	inboxService := services.NewInboxService(inboxRepo, inboxRepo, sqlRepo)
	riskService := services.NewRiskService(sqlRepo, riskClient)

	// Initialize RabbitMQ consumer for patient creation
	// Processes signup events from the identity-service so patient records
	// exist before the patient's first login
	patientConsumer, err := repository.NewPatientConsumer(cfg.RabbitMQURL, cfg.PatientsQueueName, patientService)
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ patient consumer: %v", err)
	}
	defer patientConsumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	go func() {
		if err := patientConsumer.StartConsuming(consumerCtx); err != nil {
			log.Printf("Patient consumer error: %v", err)
		}
	}()
	log.Println("Patient consumer started in background, listening for signup events")

	// Initialize handlers
	patientHandler := handler.NewPatientHandler(patientService)
	readingHandler := handler.NewReadingHandler(readingService)
	alertHandler := handler.NewAlertHandler(alertService)
	inboxHandler := handler.NewInboxHandler(inboxService)
	riskHandler := handler.NewRiskHandler(riskService)
	healthHandler := handler.NewHealthHandler(db)

	// Initialize JWT middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey)
	defer authMiddleware.Stop()

	// Setup HTTP router
	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible, no auth required)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)

	// Patients
	mux.HandleFunc("GET /patients", authMiddleware.RequireAuth(patientHandler.ListPatients))
	mux.HandleFunc("GET /patients/{patient_id}", authMiddleware.RequireAuth(patientHandler.GetPatient))
	mux.HandleFunc("PUT /patients/{patient_id}/profile", authMiddleware.RequireAuth(patientHandler.UpdateProfile))

	// Glucose readings
	mux.HandleFunc("POST /patients/{patient_id}/readings", authMiddleware.RequireAuth(readingHandler.CreateReading))
	mux.HandleFunc("GET /patients/{patient_id}/readings", authMiddleware.RequireAuth(readingHandler.GetReadings))
	mux.HandleFunc("GET /readings/{reading_id}", authMiddleware.RequireAuth(readingHandler.GetReadingByID))
	mux.HandleFunc("DELETE /readings/{reading_id}", authMiddleware.RequireAuth(readingHandler.DeleteReading))

	// Alert reports and thresholds
	mux.HandleFunc("GET /patients/{patient_id}/alerts", authMiddleware.RequireAuth(alertHandler.GetAlertReport))
	mux.HandleFunc("GET /patients/{patient_id}/thresholds", authMiddleware.RequireAuth(alertHandler.GetThresholds))
	mux.HandleFunc("PUT /patients/{patient_id}/thresholds", authMiddleware.RequireRole("DOCTOR", alertHandler.UpdateThresholds))

	// GDM risk assessment (proxied to the model service)
	mux.HandleFunc("POST /patients/{patient_id}/risk", authMiddleware.RequireAuth(riskHandler.AssessRisk))

	// Messages and notifications
	mux.HandleFunc("POST /messages", authMiddleware.RequireAuth(inboxHandler.SendMessage))
	mux.HandleFunc("GET /messages", authMiddleware.RequireAuth(inboxHandler.ListConversation))
	mux.HandleFunc("POST /messages/{message_id}/read", authMiddleware.RequireAuth(inboxHandler.MarkMessageRead))
	mux.HandleFunc("GET /notifications", authMiddleware.RequireAuth(inboxHandler.ListNotifications))
	mux.HandleFunc("POST /notifications/{notification_id}/read", authMiddleware.RequireAuth(inboxHandler.MarkNotificationRead))

	// Wrap mux with metrics middleware to track all HTTP requests
	loggedRouter := middleware.MetricsMiddleware(mux)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      loggedRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting Monitoring Service on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancel consumer context first to stop processing new messages
	consumerCancel()
	log.Println("Patient consumer stopped")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
