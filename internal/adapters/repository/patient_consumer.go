package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

// PatientCreationRequest represents a message from RabbitMQ for creating a
// patient record. This matches the message format sent by the identity-service
// on signup: { "user_id": "...", "first_name": "...", "last_name": "...",
// "doctor_user_id": "..." }
type PatientCreationRequest struct {
	UserID       string `json:"user_id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DoctorUserID string `json:"doctor_user_id"`
}

// PatientConsumer consumes messages from RabbitMQ for automatic patient
// record creation. Runs in background as a goroutine within the service pod.
// (For multi-replica deployments, RabbitMQ distributes messages across replicas)
type PatientConsumer struct {
	conn           *amqp091.Connection
	channel        *amqp091.Channel
	queueName      string
	patientService ports.PatientService
	connMutex      sync.RWMutex
	reconnectCh    chan bool
	stopReconnect  chan bool
	maxRetries     int
	retryDelay     time.Duration
	consumingCtx   context.Context
	consumingMutex sync.Mutex
	isConsuming    bool
}

// NewPatientConsumer creates a new RabbitMQ consumer for patient creation
func NewPatientConsumer(rabbitMQURL string, queueName string, patientService ports.PatientService) (*PatientConsumer, error) {
	if queueName == "" {
		queueName = "patient.creation.requests"
	}

	consumer := &PatientConsumer{
		queueName:      queueName,
		patientService: patientService,
		maxRetries:     3,
		retryDelay:     1 * time.Second,
		reconnectCh:    make(chan bool, 1),
		stopReconnect:  make(chan bool),
	}

	if err := consumer.connect(rabbitMQURL); err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	go consumer.handleReconnection(rabbitMQURL)

	return consumer, nil
}

// connect establishes connection to RabbitMQ
func (c *PatientConsumer) connect(rabbitMQURL string) error {
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

	log.Println("Patient consumer connected to RabbitMQ successfully")
	return nil
}

// handleReconnection handles automatic reconnection to RabbitMQ
func (c *PatientConsumer) handleReconnection(rabbitMQURL string) {
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
// goroutine. Only one consumer runs per pod instance.
func (c *PatientConsumer) StartConsuming(ctx context.Context) error {
	c.consumingMutex.Lock()
	if c.isConsuming {
		c.consumingMutex.Unlock()
		log.Println("Patient consumer is already running in this pod, skipping duplicate start")
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

	consumerTag := fmt.Sprintf("patient-consumer-%d", time.Now().UnixNano())
	msgs, err := channel.Consume(
		c.queueName, // queue
		consumerTag, // consumer tag
		false,       // auto-ack (manual ack after successful creation)
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

	log.Printf("Patient consumer started (tag: %s), waiting for messages on queue: %s", consumerTag, c.queueName)

	go func() {
		defer func() {
			c.consumingMutex.Lock()
			c.isConsuming = false
			c.consumingMutex.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				log.Println("Patient consumer context cancelled")
				return
			case msg, ok := <-msgs:
				if !ok {
					log.Println("Patient consumer channel closed, attempting reconnection...")
					c.reconnectCh <- true
					return
				}

				c.processMessage(ctx, msg)
			}
		}
	}()

	return nil
}

// processMessage processes a single message from RabbitMQ.
// The message is acknowledged ONLY after the patient record is created;
// transient failures nack with requeue.
func (c *PatientConsumer) processMessage(ctx context.Context, msg amqp091.Delivery) {
	var req PatientCreationRequest
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		log.Printf("Failed to unmarshal patient creation request: %v", err)
		msg.Nack(false, false)
		return
	}

	log.Printf("Received patient creation request: user_id=%s, last_name=%s", req.UserID, req.LastName)

	if req.UserID == "" {
		log.Printf("Invalid patient creation request: user_id is required")
		msg.Nack(false, false)
		return
	}
	if req.LastName == "" {
		log.Printf("Invalid patient creation request: last_name is required")
		msg.Nack(false, false)
		return
	}
	if req.DoctorUserID == "" {
		log.Printf("Invalid patient creation request: doctor_user_id is required")
		msg.Nack(false, false)
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		log.Printf("Invalid patient creation request: user_id is not a valid UUID: %v", err)
		msg.Nack(false, false)
		return
	}

	doctorUserID, err := uuid.Parse(req.DoctorUserID)
	if err != nil {
		log.Printf("Invalid patient creation request: doctor_user_id is not a valid UUID: %v", err)
		msg.Nack(false, false)
		return
	}

	patient, err := c.patientService.CreatePatient(ctx, userID, req.FirstName, req.LastName, doctorUserID)
	if err != nil {
		log.Printf("Failed to create patient from RabbitMQ message: %v", err)
		// Transient failure: requeue so the record is eventually created
		msg.Nack(false, true)
		return
	}

	log.Printf("Successfully created patient from RabbitMQ: id=%s, last_name=%s", patient.ID, patient.LastName)

	// Ack only after successful creation (at-least-once delivery)
	if err := msg.Ack(false); err != nil {
		log.Printf("Failed to acknowledge message after patient creation: %v", err)
	}
}

// Close closes the RabbitMQ connection and stops consuming
func (c *PatientConsumer) Close() error {
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

	log.Println("Patient consumer closed")
	return nil
}
