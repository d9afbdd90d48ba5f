package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
)

const maxMessageBodyLength = 4000

// defaultConversationLimit caps conversation pages when the caller passes 0
const defaultConversationLimit = 50

// InboxService implements business logic for patient-doctor messaging and
// polled notifications
type InboxService struct {
	messageRepo      ports.MessageRepository
	notificationRepo ports.NotificationRepository
	patientRepo      ports.PatientRepository
}

// NewInboxService creates a new inbox service
func NewInboxService(
	messageRepo ports.MessageRepository,
	notificationRepo ports.NotificationRepository,
	patientRepo ports.PatientRepository,
) *InboxService {
	return &InboxService{
		messageRepo:      messageRepo,
		notificationRepo: notificationRepo,
		patientRepo:      patientRepo,
	}
}

// SendMessage sends a message between a patient and her doctor.
// A PATIENT may only message her own doctor; a DOCTOR may only message
// patients under their care. The recipient also gets a notification.
func (s *InboxService) SendMessage(
	ctx context.Context,
	req ports.SendMessageRequest,
	senderUserID uuid.UUID,
	isDoctor bool,
) (*domain.Message, error) {
	if req.Body == "" {
		return nil, fmt.Errorf("message body cannot be empty")
	}
	if len(req.Body) > maxMessageBodyLength {
		return nil, fmt.Errorf("message body exceeds maximum length (%d)", maxMessageBodyLength)
	}
	if req.RecipientUserID == uuid.Nil {
		return nil, fmt.Errorf("recipient_user_id is required")
	}
	if req.RecipientUserID == senderUserID {
		return nil, fmt.Errorf("cannot send a message to yourself")
	}

	if err := s.checkMessagingPair(ctx, senderUserID, req.RecipientUserID, isDoctor); err != nil {
		return nil, err
	}

	message := &domain.Message{
		ID:              uuid.New(),
		SenderUserID:    senderUserID,
		RecipientUserID: req.RecipientUserID,
		Body:            req.Body,
		CreatedAt:       time.Now(),
	}

	if err := s.messageRepo.CreateMessage(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	notification := &domain.Notification{
		ID:              uuid.New(),
		RecipientUserID: req.RecipientUserID,
		Kind:            domain.NotificationKindMessage,
		Title:           "New message",
		Body:            truncate(req.Body, 120),
		CreatedAt:       time.Now(),
	}
	if err := s.notificationRepo.CreateNotification(ctx, notification); err != nil {
		// The message is already persisted; the recipient will still see it
		// in the conversation view.
		log.Printf("Message %s sent but notification failed: %v", message.ID, err)
	}

	return message, nil
}

// checkMessagingPair validates that sender and recipient form a patient-doctor
// pair. Failures use the generic "recipient not found" so patient-doctor
// assignments are not enumerable.
func (s *InboxService) checkMessagingPair(ctx context.Context, senderUserID, recipientUserID uuid.UUID, isDoctor bool) error {
	if isDoctor {
		// Recipient must be a patient under this doctor's care
		patient, err := s.patientRepo.GetPatientByUserID(ctx, recipientUserID)
		if err != nil || patient == nil || patient.DoctorUserID != senderUserID {
			return fmt.Errorf("recipient not found")
		}
		return nil
	}

	// Sender is a patient: recipient must be her assigned doctor
	patient, err := s.patientRepo.GetPatientByUserID(ctx, senderUserID)
	if err != nil || patient == nil {
		return fmt.Errorf("recipient not found")
	}
	if patient.DoctorUserID != recipientUserID {
		return fmt.Errorf("recipient not found")
	}
	return nil
}

// ListConversation retrieves the caller's conversation with another user,
// newest first
func (s *InboxService) ListConversation(
	ctx context.Context,
	withUserID uuid.UUID,
	userID uuid.UUID,
	limit int,
) ([]*domain.Message, error) {
	if withUserID == uuid.Nil {
		return nil, fmt.Errorf("with parameter is required")
	}
	if limit <= 0 {
		limit = defaultConversationLimit
	}

	messages, err := s.messageRepo.ListConversation(ctx, userID, withUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	return messages, nil
}

// MarkMessageRead marks a received message as read.
// The repository validates the caller is the recipient.
func (s *InboxService) MarkMessageRead(ctx context.Context, messageID uuid.UUID, userID uuid.UUID) error {
	if err := s.messageRepo.MarkMessageRead(ctx, messageID, userID); err != nil {
		if isNotFoundErr(err, "message not found") {
			return fmt.Errorf("message not found")
		}
		return fmt.Errorf("failed to mark message read: %w", err)
	}
	return nil
}

// ListNotifications retrieves the caller's notifications, newest first
func (s *InboxService) ListNotifications(
	ctx context.Context,
	userID uuid.UUID,
	unreadOnly bool,
) ([]*domain.Notification, error) {
	notifications, err := s.notificationRepo.ListNotifications(ctx, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkNotificationRead marks a notification as read.
// The repository validates the caller is the recipient.
func (s *InboxService) MarkNotificationRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	if err := s.notificationRepo.MarkNotificationRead(ctx, notificationID, userID); err != nil {
		if isNotFoundErr(err, "notification not found") {
			return fmt.Errorf("notification not found")
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// truncate shortens a string for notification previews
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
