package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/adapters/middleware"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
)

// InboxHandler handles HTTP requests for messages and notifications
type InboxHandler struct {
	inboxService ports.InboxService
}

// NewInboxHandler creates a new inbox handler
func NewInboxHandler(inboxService ports.InboxService) *InboxHandler {
	return &InboxHandler{
		inboxService: inboxService,
	}
}

// SendMessage handles POST /messages
// PATIENT can message her doctor; DOCTOR can message his patients
func (h *InboxHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		log.Printf("[%s] Failed to get user ID from context", requestID)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		log.Printf("[%s] Invalid user ID: %v", requestID, err)
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	isDoctor := middleware.IsDoctor(r.Context())

	var req ports.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	message, err := h.inboxService.SendMessage(r.Context(), req, userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to send message: user_id=%s, error=%v", requestID, userIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "recipient not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "POST", "/messages", http.StatusCreated, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(message); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// ListConversation handles GET /messages?with={user_id}&limit=
// Returns the caller's conversation with the given user, newest first
func (h *InboxHandler) ListConversation(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		log.Printf("[%s] Failed to get user ID from context", requestID)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		log.Printf("[%s] Invalid user ID: %v", requestID, err)
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	isDoctor := middleware.IsDoctor(r.Context())

	withParam := r.URL.Query().Get("with")
	if withParam == "" {
		http.Error(w, "missing 'with' query parameter", http.StatusBadRequest)
		return
	}
	withUserID, err := uuid.Parse(withParam)
	if err != nil {
		log.Printf("[%s] Invalid 'with' parameter: %v", requestID, err)
		http.Error(w, "invalid 'with' parameter", http.StatusBadRequest)
		return
	}

	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limitInt, err := strconv.Atoi(limitParam)
		if err != nil || limitInt <= 0 {
			log.Printf("[%s] Invalid limit parameter: %s", requestID, limitParam)
			http.Error(w, "invalid limit parameter (must be positive integer)", http.StatusBadRequest)
			return
		}
		limit = limitInt
	}

	messages, err := h.inboxService.ListConversation(r.Context(), withUserID, userID, limit)
	if err != nil {
		log.Printf("[%s] Failed to list conversation: user_id=%s, error=%v", requestID, userIDStr, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "GET", "/messages", http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(messages); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// MarkMessageRead handles POST /messages/{message_id}/read
// Only the recipient can mark a message read
func (h *InboxHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		log.Printf("[%s] Failed to get user ID from context", requestID)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		log.Printf("[%s] Invalid user ID: %v", requestID, err)
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	isDoctor := middleware.IsDoctor(r.Context())

	messageIDStr := r.PathValue("message_id")
	messageID, err := uuid.Parse(messageIDStr)
	if err != nil {
		log.Printf("[%s] Invalid message ID: %v", requestID, err)
		http.Error(w, "invalid message ID", http.StatusBadRequest)
		return
	}

	if err := h.inboxService.MarkMessageRead(r.Context(), messageID, userID); err != nil {
		log.Printf("[%s] Failed to mark message read: user_id=%s, message_id=%s, error=%v", requestID, userIDStr, messageIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "message not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "POST", "/messages/"+messageIDStr+"/read", http.StatusNoContent, time.Since(startTime))

	w.WriteHeader(http.StatusNoContent)
}

// ListNotifications handles GET /notifications?unread=true
// Returns the caller's notifications, newest first
func (h *InboxHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		log.Printf("[%s] Failed to get user ID from context", requestID)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		log.Printf("[%s] Invalid user ID: %v", requestID, err)
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	isDoctor := middleware.IsDoctor(r.Context())

	unreadOnly := r.URL.Query().Get("unread") == "true"

	notifications, err := h.inboxService.ListNotifications(r.Context(), userID, unreadOnly)
	if err != nil {
		log.Printf("[%s] Failed to list notifications: user_id=%s, error=%v", requestID, userIDStr, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "GET", "/notifications", http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(notifications); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// MarkNotificationRead handles POST /notifications/{notification_id}/read
// Only the recipient can mark a notification read
func (h *InboxHandler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := generateRequestID()

	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		log.Printf("[%s] Failed to get user ID from context", requestID)
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		log.Printf("[%s] Invalid user ID: %v", requestID, err)
		http.Error(w, "invalid user ID", http.StatusBadRequest)
		return
	}

	isDoctor := middleware.IsDoctor(r.Context())

	notificationIDStr := r.PathValue("notification_id")
	notificationID, err := uuid.Parse(notificationIDStr)
	if err != nil {
		log.Printf("[%s] Invalid notification ID: %v", requestID, err)
		http.Error(w, "invalid notification ID", http.StatusBadRequest)
		return
	}

	if err := h.inboxService.MarkNotificationRead(r.Context(), notificationID, userID); err != nil {
		log.Printf("[%s] Failed to mark notification read: user_id=%s, notification_id=%s, error=%v", requestID, userIDStr, notificationIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "notification not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "POST", "/notifications/"+notificationIDStr+"/read", http.StatusNoContent, time.Since(startTime))

	w.WriteHeader(http.StatusNoContent)
}
