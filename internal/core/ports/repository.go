package ports

import (
	"context"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/google/uuid"
)

// PatientRepository defines the interface for patient data persistence
type PatientRepository interface {
	// CreatePatient creates a new patient record
	CreatePatient(ctx context.Context, patient *domain.Patient) error

	// GetPatientByID retrieves a patient by ID
	GetPatientByID(ctx context.Context, patientID uuid.UUID) (*domain.Patient, error)

	// GetPatientByUserID retrieves a patient by her identity-service user ID
	GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*domain.Patient, error)

	// ListPatients retrieves patients based on role:
	// DOCTOR: all patients, PATIENT: only her own record
	ListPatients(ctx context.Context, userID uuid.UUID, isDoctor bool) ([]*domain.Patient, error)

	// PatientExists checks if a patient exists
	PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error)

	// CheckPatientOwnership checks if a patient record belongs to a specific user
	CheckPatientOwnership(ctx context.Context, patientID uuid.UUID, userID uuid.UUID) (bool, error)

	// UpdateProfile updates the editable profile fields of a patient
	UpdateProfile(ctx context.Context, patientID uuid.UUID, firstName, lastName string, dueDate *time.Time, pregnancyWeek int, onboardingCompleted bool) error
}

// ReadingRepository defines the interface for glucose reading persistence
type ReadingRepository interface {
	// CreateReading persists a new glucose reading
	CreateReading(ctx context.Context, reading *domain.GlucoseReading) error

	// GetReadingsByPatientID retrieves readings for a patient, sorted
	// descending by timestamp. Optional filters: mealType, limit.
	GetReadingsByPatientID(ctx context.Context, patientID uuid.UUID, mealType *string, limit *int) ([]*domain.GlucoseReading, error)

	// GetReadingByID retrieves a specific reading
	GetReadingByID(ctx context.Context, readingID uuid.UUID) (*domain.GlucoseReading, error)

	// DeleteReading deletes a reading by ID after validating it belongs to
	// the given patient
	DeleteReading(ctx context.Context, readingID uuid.UUID, patientID uuid.UUID) error
}

// ThresholdRepository defines the interface for per-patient alert thresholds
type ThresholdRepository interface {
	// GetThresholds retrieves the threshold set for a patient.
	// Returns nil (no error) when the patient has no stored set; callers
	// substitute domain.DefaultThresholds().
	GetThresholds(ctx context.Context, patientID uuid.UUID) (*domain.ThresholdSet, error)

	// SaveThresholds upserts the threshold set for a patient
	SaveThresholds(ctx context.Context, patientID uuid.UUID, thresholds domain.ThresholdSet) error
}

// MessageRepository defines the interface for patient-doctor messages
type MessageRepository interface {
	// CreateMessage persists a new message
	CreateMessage(ctx context.Context, message *domain.Message) error

	// ListConversation retrieves messages exchanged between two users,
	// newest first, up to limit
	ListConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]*domain.Message, error)

	// MarkMessageRead marks a message read, validating the caller is the recipient
	MarkMessageRead(ctx context.Context, messageID uuid.UUID, recipientUserID uuid.UUID) error
}

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	// CreateNotification persists a new notification
	CreateNotification(ctx context.Context, notification *domain.Notification) error

	// ListNotifications retrieves notifications for a user, newest first
	ListNotifications(ctx context.Context, recipientUserID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error)

	// MarkNotificationRead marks a notification read, validating the caller
	// is the recipient
	MarkNotificationRead(ctx context.Context, notificationID uuid.UUID, recipientUserID uuid.UUID) error
}

// AlertPublisher defines the interface for publishing alert events to RabbitMQ
type AlertPublisher interface {
	// PublishAlert publishes an alert event for an abnormal reading together
	// with the rolling report computed at publish time
	PublishAlert(ctx context.Context, patient *domain.Patient, reading *domain.GlucoseReading, report domain.AlertReport) error
}

// RiskPredictor defines the interface to the external GDM risk model service
type RiskPredictor interface {
	// Predict submits a clinical profile and returns the model's assessment
	Predict(ctx context.Context, features domain.RiskFeatures) (*domain.RiskAssessment, error)
}
