package domain

import (
	"time"

	"github.com/google/uuid"
)

// Patient represents a monitored patient in the system
// UserID comes from the Identity Service JWT; DoctorUserID is the supervising
// doctor's identity
type Patient struct {
	ID                  uuid.UUID  `json:"id"`
	UserID              uuid.UUID  `json:"user_id"`
	FirstName           string     `json:"first_name"`
	LastName            string     `json:"last_name"`
	DoctorUserID        uuid.UUID  `json:"doctor_user_id"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	PregnancyWeek       int        `json:"pregnancy_week"`
	OnboardingCompleted bool       `json:"onboarding_completed"`
	CreatedAt           time.Time  `json:"created_at"`
}

// Message is a direct message between a patient and her doctor
type Message struct {
	ID              uuid.UUID `json:"id"`
	SenderUserID    uuid.UUID `json:"sender_user_id"`
	RecipientUserID uuid.UUID `json:"recipient_user_id"`
	Body            string    `json:"body"`
	Read            bool      `json:"read"`
	CreatedAt       time.Time `json:"created_at"`
}

// NotificationKind distinguishes what produced a notification
type NotificationKind string

const (
	NotificationKindAlert   NotificationKind = "alert"
	NotificationKindMessage NotificationKind = "message"
)

// Notification is a polled inbox entry for a user
type Notification struct {
	ID              uuid.UUID        `json:"id"`
	RecipientUserID uuid.UUID        `json:"recipient_user_id"`
	Kind            NotificationKind `json:"kind"`
	Title           string           `json:"title"`
	Body            string           `json:"body"`
	Read            bool             `json:"read"`
	CreatedAt       time.Time        `json:"created_at"`
}
