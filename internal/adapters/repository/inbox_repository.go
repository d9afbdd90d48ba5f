package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// InboxRepository implements MessageRepository and NotificationRepository
// using PostgreSQL
type InboxRepository struct {
	db         *sql.DB
	cb         *gobreaker.CircuitBreaker
	maxRetries int
	retryDelay time.Duration
}

// NewInboxRepository creates a new inbox repository with a circuit breaker
func NewInboxRepository(db *sql.DB) *InboxRepository {
	settings := gobreaker.Settings{
		Name:        "inbox",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &InboxRepository{
		db:         db,
		cb:         gobreaker.NewCircuitBreaker(settings),
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}
}

func (r *InboxRepository) executeWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	for i := 0; i < r.maxRetries; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if i < r.maxRetries-1 {
			time.Sleep(r.retryDelay)
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", r.maxRetries, lastErr)
}

// MessageRepository implementation

func (r *InboxRepository) CreateMessage(ctx context.Context, message *domain.Message) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO messages (id, sender_user_id, recipient_user_id, body, read, created_at)
				VALUES ($1, $2, $3, $4, $5, $6)`
			_, err := r.db.ExecContext(ctx, query,
				message.ID, message.SenderUserID, message.RecipientUserID,
				message.Body, message.Read, message.CreatedAt)
			return err
		})
	})
	return err
}

func (r *InboxRepository) ListConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]*domain.Message, error) {
	result, err := r.cb.Execute(func() (interface{}, error) {
		var messages []*domain.Message
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, sender_user_id, recipient_user_id, body, read, created_at
				FROM messages
				WHERE (sender_user_id = $1 AND recipient_user_id = $2)
				   OR (sender_user_id = $2 AND recipient_user_id = $1)
				ORDER BY created_at DESC
				LIMIT $3`
			rows, queryErr := r.db.QueryContext(ctx, query, userA, userB, limit)
			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				var message domain.Message
				if err := rows.Scan(
					&message.ID, &message.SenderUserID, &message.RecipientUserID,
					&message.Body, &message.Read, &message.CreatedAt); err != nil {
					return err
				}
				messages = append(messages, &message)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return messages, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.Message), nil
}

func (r *InboxRepository) MarkMessageRead(ctx context.Context, messageID uuid.UUID, recipientUserID uuid.UUID) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `UPDATE messages SET read = true WHERE id = $1 AND recipient_user_id = $2`
			res, err := r.db.ExecContext(ctx, query, messageID, recipientUserID)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("message not found")
			}
			return nil
		})
	})
	return err
}

// NotificationRepository implementation

func (r *InboxRepository) CreateNotification(ctx context.Context, notification *domain.Notification) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO notifications (id, recipient_user_id, kind, title, body, read, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`
			_, err := r.db.ExecContext(ctx, query,
				notification.ID, notification.RecipientUserID, string(notification.Kind),
				notification.Title, notification.Body, notification.Read, notification.CreatedAt)
			return err
		})
	})
	return err
}

func (r *InboxRepository) ListNotifications(ctx context.Context, recipientUserID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	result, err := r.cb.Execute(func() (interface{}, error) {
		var notifications []*domain.Notification
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, recipient_user_id, kind, title, body, read, created_at
				FROM notifications WHERE recipient_user_id = $1`
			if unreadOnly {
				query += " AND read = false"
			}
			query += " ORDER BY created_at DESC"

			rows, queryErr := r.db.QueryContext(ctx, query, recipientUserID)
			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				var notification domain.Notification
				if err := rows.Scan(
					&notification.ID, &notification.RecipientUserID, &notification.Kind,
					&notification.Title, &notification.Body, &notification.Read,
					&notification.CreatedAt); err != nil {
					return err
				}
				notifications = append(notifications, &notification)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return notifications, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.Notification), nil
}

func (r *InboxRepository) MarkNotificationRead(ctx context.Context, notificationID uuid.UUID, recipientUserID uuid.UUID) error {
	_, err := r.cb.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `UPDATE notifications SET read = true WHERE id = $1 AND recipient_user_id = $2`
			res, err := r.db.ExecContext(ctx, query, notificationID, recipientUserID)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("notification not found")
			}
			return nil
		})
	})
	return err
}

// Interface assertions
var (
	_ ports.MessageRepository      = (*InboxRepository)(nil)
	_ ports.NotificationRepository = (*InboxRepository)(nil)
)
