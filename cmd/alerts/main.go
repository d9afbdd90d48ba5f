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
	"github.com/gdmtrack/monitoring-service/internal/adapters/repository"
	"github.com/gdmtrack/monitoring-service/internal/adapters/websocket"
	"github.com/gdmtrack/monitoring-service/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// The alerts worker consumes glucose alert events published by the API,
// persists a notification for the supervising doctor and pushes the event
// to connected doctors over WebSocket.
func main() {
	cfg := config.LoadAlertConsumerConfig()

	db, err := config.ConnectDatabase(cfg.DatabaseURL, 5, 2*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	handler.RegisterAlertConsumerMetrics()

	// WebSocket hub for the realtime doctor feed
	hub := websocket.NewHub()
	go hub.Run()

	inboxRepo := repository.NewInboxRepository(db)

	alertConsumer, err := repository.NewAlertConsumer(cfg.RabbitMQURL, cfg.QueueName, inboxRepo, hub)
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ alert consumer: %v", err)
	}
	defer alertConsumer.Close()

	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	go func() {
		if err := alertConsumer.StartConsuming(consumerCtx); err != nil {
			log.Printf("Alert consumer error: %v", err)
		}
	}()
	log.Println("Alert consumer started, listening for glucose alerts")

	// JWT middleware for WebSocket authentication
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey)
	defer authMiddleware.Stop()

	wsHandler := handler.NewWebSocketHandler(hub, authMiddleware)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)
	mux.HandleFunc("GET /ws/alerts", wsHandler.HandleWebSocket)

	server := &http.Server{
		Addr:        ":" + cfg.WebSocketPort,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("Starting alerts worker on :%s", cfg.WebSocketPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down alerts worker...")

	consumerCancel()
	log.Println("Alert consumer stopped")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Alerts worker exited")
}
