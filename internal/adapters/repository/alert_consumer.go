package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/adapters/handler"
	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// AlertBroadcaster pushes alert payloads to connected doctor clients
type AlertBroadcaster interface {
	BroadcastToDoctors(message []byte)
}

// AlertConsumer consumes glucose alert events from RabbitMQ, persists a
// notification for the supervising doctor and forwards the event to the
// realtime WebSocket feed. Runs in the alerts worker.
type AlertConsumer struct {
	conn             *amqp091.Connection
	channel          *amqp091.Channel
	queueName        string
	notificationRepo ports.NotificationRepository
	broadcaster      AlertBroadcaster
	connMutex        sync.RWMutex
	reconnectCh      chan bool
	stopReconnect    chan bool
	maxRetries       int
	retryDelay       time.Duration
	consumingCtx     context.Context
	consumingMutex   sync.Mutex
	isConsuming      bool
}

// NewAlertConsumer creates a new RabbitMQ consumer for glucose alerts
func NewAlertConsumer(rabbitMQURL string, queueName string, notificationRepo ports.NotificationRepository, broadcaster AlertBroadcaster) (*AlertConsumer, error) {
	if queueName == "" {
		queueName = "glucose_alerts"
	}

	consumer := &AlertConsumer{
		queueName:        queueName,
		notificationRepo: notificationRepo,
		broadcaster:      broadcaster,
		maxRetries:       3,
		retryDelay:       1 * time.Second,
		reconnectCh:      make(chan bool, 1),
		stopReconnect:    make(chan bool),
	}

	if err := consumer.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go consumer.handleReconnection(rabbitMQURL)

	return consumer, nil
}

// connect establishes connection to RabbitMQ
func (c *AlertConsumer) connect(rabbitMQURL string) error {
	var err error
	for i := 0; i < c.maxRetries; i++ {
		c.conn, err = amqp091.Dial(rabbitMQURL)
		if err == nil {
			break
		}
		log.Printf("Failed to connect to RabbitMQ (attempt %d/%d): %v", i+1, c.maxRetries, err)
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay)
		}
	}

	if err != nil {
		return err
	}

	c.channel, err = c.conn.Channel()
	if err != nil {
		c.conn.Close()
		return err
	}

	// Declare queue (idempotent)
	_, err = c.channel.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)

	if err != nil {
		c.channel.Close()
		c.conn.Close()
		return err
	}

	log.Println("Alert consumer connected to RabbitMQ successfully")
	return nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (c *AlertConsumer) handleReconnection(rabbitMQURL string) {
	for {
		select {
		case <-c.reconnectCh:
			log.Println("Attempting to reconnect to RabbitMQ...")
			c.connMutex.Lock()
			if c.conn != nil && !c.conn.IsClosed() {
				c.conn.Close()
			}
			if c.channel != nil && !c.channel.IsClosed() {
				c.channel.Close()
			}
			c.connMutex.Unlock()

			if err := c.connect(rabbitMQURL); err != nil {
				log.Printf("Reconnection failed: %v", err)
				time.Sleep(5 * time.Second)
				c.reconnectCh <- true
			} else {
				c.consumingMutex.Lock()
				if c.consumingCtx != nil && c.consumingCtx.Err() == nil {
					if !c.isConsuming {
						go c.StartConsuming(c.consumingCtx)
					}
				}
				c.consumingMutex.Unlock()
			}
		case <-c.stopReconnect:
			return
		}
	}
}

// StartConsuming starts consuming messages from the queue in a background
// goroutine
func (c *AlertConsumer) StartConsuming(ctx context.Context) error {
	c.consumingMutex.Lock()
	if c.isConsuming {
		c.consumingMutex.Unlock()
		log.Println("Alert consumer is already running in this pod, skipping duplicate start")
		return nil
	}
	c.isConsuming = true
	c.consumingCtx = ctx
	c.consumingMutex.Unlock()

	c.connMutex.RLock()
	channel := c.channel
	conn := c.conn
	c.connMutex.RUnlock()

	if channel == nil || channel.IsClosed() || conn == nil || conn.IsClosed() {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
		return fmt.Errorf("RabbitMQ connection is closed")
	}

	// One unacknowledged message at a time
	err := channel.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	consumerTag := fmt.Sprintf("alert-consumer-%d", time.Now().UnixNano())
	msgs, err := channel.Consume(
		c.queueName, // queue
		consumerTag, // consumer tag
		false,       // auto-ack (manual ack after notification is written)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		c.consumingMutex.Lock()
		c.isConsuming = false
		c.consumingMutex.Unlock()
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	log.Printf("Alert consumer started (tag: %s), waiting for messages on queue: %s", consumerTag, c.queueName)

	go func() {
		defer func() {
			c.consumingMutex.Lock()
			c.isConsuming = false
			c.consumingMutex.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				log.Println("Alert consumer context cancelled")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Alert consumer channel closed, attempting reconnection...")
					c.reconnectCh <- true
					return
				}

				c.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

// processMessage processes a single alert event.
// Acknowledged only after the doctor's notification has been persisted;
// transient failures nack with requeue.
func (c *AlertConsumer) processMessage(ctx context.Context, msg amqp091.Delivery) {
	start := time.Now()

	var event AlertEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("Failed to unmarshal alert event: %v", err)
		handler.AlertsConsumedTotal.WithLabelValues("invalid").Inc()
		msg.Nack(false, false)
		return
	}

	if event.DoctorUserID == uuid.Nil || event.Reading == nil {
		log.Printf("Invalid alert event: doctor_user_id and reading are required")
		handler.AlertsConsumedTotal.WithLabelValues("invalid").Inc()
		msg.Nack(false, false)
		return
	}

	notification := &domain.Notification{
		ID:              uuid.New(),
		RecipientUserID: event.DoctorUserID,
		Kind:            domain.NotificationKindAlert,
		Title:           notificationTitle(event),
		Body: fmt.Sprintf("Patient %s logged %.0f mg/dL (%s)",
			event.PatientID, event.Reading.Level, event.Reading.Type),
		CreatedAt: time.Now(),
	}

	if err := c.notificationRepo.CreateNotification(ctx, notification); err != nil {
		log.Printf("Failed to persist alert notification: %v", err)
		handler.AlertsConsumedTotal.WithLabelValues("error").Inc()
		msg.Nack(false, true)
		return
	}

	// Realtime push is best-effort: a missed broadcast is recoverable via
	// the notifications endpoint
	if c.broadcaster != nil {
		c.broadcaster.BroadcastToDoctors(msg.Body)
		handler.AlertsBroadcastTotal.WithLabelValues("doctors").Inc()
	}

	logEntry := map[string]interface{}{
		"event":      "alert_consumed",
		"patient_id": event.PatientID.String(),
		"alert_type": event.AlertType,
		"severity":   event.Severity,
		"timestamp":  time.Now().Format(time.RFC3339),
	}
	jsonBytes, _ := json.Marshal(logEntry)
	log.Printf("%s", string(jsonBytes))

	handler.AlertsConsumedTotal.WithLabelValues("success").Inc()
	handler.RabbitMQConsumeDuration.WithLabelValues("success").Observe(time.Since(start).Seconds())

	if err := msg.Ack(false); err != nil {
		log.Printf("Failed to acknowledge alert message: %v", err)
	}
}

// notificationTitle builds a short human-readable title for an alert event
func notificationTitle(event AlertEvent) string {
	switch event.AlertType {
	case "hypoglycemia_major":
		return "Critical low glucose"
	case "hyperglycemia_major":
		return "Critical high glucose"
	case "hypoglycemia_frequent":
		return "Repeated low glucose"
	case "hyperglycemia_frequent":
		return "Repeated high glucose"
	case "hypoglycemia":
		return "Low glucose"
	case "hyperglycemia":
		return "High glucose"
	default:
		return "Glucose alert"
	}
}

// Close closes the RabbitMQ connection and stops consuming
func (c *AlertConsumer) Close() error {
	close(c.stopReconnect)

	c.consumingMutex.Lock()
	c.isConsuming = false
	c.consumingMutex.Unlock()

	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.channel != nil && !c.channel.IsClosed() {
		if err := c.channel.Close(); err != nil {
			log.Printf("Error closing RabbitMQ channel: %v", err)
		}
	}

	if c.conn != nil && !c.conn.IsClosed() {
		if err := c.conn.Close(); err != nil {
			log.Printf("Error closing RabbitMQ connection: %v", err)
		}
	}

	log.Println("Alert consumer closed")
	return nil
}
