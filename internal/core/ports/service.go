package ports

import (
	"context"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/google/uuid"
)

// PatientService defines the business logic interface for patient operations
type PatientService interface {
	// CreatePatient creates a new patient record (driven by identity-service
	// signup events, not by the HTTP API)
	CreatePatient(ctx context.Context, userID uuid.UUID, firstName, lastName string, doctorUserID uuid.UUID) (*domain.Patient, error)

	// GetPatient retrieves a patient by ID
	// Enforces ownership: DOCTOR can access any, PATIENT only her own record
	GetPatient(ctx context.Context, patientID uuid.UUID, userID uuid.UUID, isDoctor bool) (*domain.Patient, error)

	// ListPatients retrieves patients based on role
	// DOCTOR: all patients, PATIENT: only her own record
	ListPatients(ctx context.Context, userID uuid.UUID, isDoctor bool) ([]*domain.Patient, error)

	// UpdateProfile updates a patient's profile (PATIENT, own record only)
	UpdateProfile(ctx context.Context, patientID uuid.UUID, req UpdateProfileRequest, userID uuid.UUID, isDoctor bool) (*domain.Patient, error)
}

// UpdateProfileRequest represents the input for profile/onboarding updates
type UpdateProfileRequest struct {
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	PregnancyWeek       int        `json:"pregnancy_week"`
	OnboardingCompleted bool       `json:"onboarding_completed"`
}

// CreateReadingRequest represents the input for logging a glucose reading
type CreateReadingRequest struct {
	Level     float64   `json:"level"`     // mg/dL
	Type      string    `json:"type"`      // one of the six meal-relative types
	Note      string    `json:"note"`      // optional contextual metadata
	Timestamp time.Time `json:"timestamp"` // when the reading was taken
}

// ReadingService defines the business logic interface for glucose readings
type ReadingService interface {
	// CreateReading logs a new reading for a patient
	// Only PATIENT can log readings, and only for her own record
	// (DOCTOR has read-only access). Publishes alerts for abnormal readings.
	CreateReading(ctx context.Context, patientID uuid.UUID, req CreateReadingRequest, userID uuid.UUID, isDoctor bool) (*domain.GlucoseReading, error)

	// GetReadings retrieves readings for a patient, newest first
	// Enforces ownership: DOCTOR any, PATIENT own only
	// Optional filters: mealType, limit
	GetReadings(ctx context.Context, patientID uuid.UUID, userID uuid.UUID, isDoctor bool, mealType *string, limit *int) ([]*domain.GlucoseReading, error)

	// GetReadingByID retrieves a specific reading
	// Enforces ownership: DOCTOR any, PATIENT own only
	GetReadingByID(ctx context.Context, readingID uuid.UUID, userID uuid.UUID, isDoctor bool) (*domain.GlucoseReading, error)

	// DeleteReading deletes a reading
	// Only the patient who logged it can delete it (DOCTOR cannot)
	DeleteReading(ctx context.Context, readingID uuid.UUID, userID uuid.UUID, isDoctor bool) error
}

// AlertService defines the business logic interface for rolling alert reports
// and per-patient thresholds
type AlertService interface {
	// GetAlertReport computes the 7-day alert report for a patient on demand
	// Enforces ownership: DOCTOR any, PATIENT own only
	GetAlertReport(ctx context.Context, patientID uuid.UUID, userID uuid.UUID, isDoctor bool) (*domain.AlertReport, error)

	// GetThresholds returns the patient's threshold set (defaults when unset)
	// Enforces ownership: DOCTOR any, PATIENT own only
	GetThresholds(ctx context.Context, patientID uuid.UUID, userID uuid.UUID, isDoctor bool) (*domain.ThresholdSet, error)

	// UpdateThresholds replaces the patient's threshold set (DOCTOR only)
	UpdateThresholds(ctx context.Context, patientID uuid.UUID, thresholds domain.ThresholdSet, userID uuid.UUID, isDoctor bool) error
}

// SendMessageRequest represents the input for sending a message
type SendMessageRequest struct {
	RecipientUserID uuid.UUID `json:"recipient_user_id"`
	Body            string    `json:"body"`
}

// InboxService defines the business logic interface for messages and
// notifications
type InboxService interface {
	// SendMessage sends a message between a patient and her doctor and
	// creates a notification for the recipient
	SendMessage(ctx context.Context, req SendMessageRequest, senderUserID uuid.UUID, isDoctor bool) (*domain.Message, error)

	// ListConversation retrieves the caller's conversation with another user
	ListConversation(ctx context.Context, withUserID uuid.UUID, userID uuid.UUID, limit int) ([]*domain.Message, error)

	// MarkMessageRead marks a received message as read
	MarkMessageRead(ctx context.Context, messageID uuid.UUID, userID uuid.UUID) error

	// ListNotifications retrieves the caller's notifications, newest first
	ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error)

	// MarkNotificationRead marks a notification as read
	MarkNotificationRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error
}

// RiskService defines the business logic interface for GDM risk assessment
type RiskService interface {
	// AssessRisk submits a clinical profile for a patient to the external
	// model service. Enforces ownership: DOCTOR any, PATIENT own only.
	AssessRisk(ctx context.Context, patientID uuid.UUID, features domain.RiskFeatures, userID uuid.UUID, isDoctor bool) (*domain.RiskAssessment, error)
}
