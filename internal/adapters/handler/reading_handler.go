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

// ReadingHandler handles HTTP requests for glucose reading operations
type ReadingHandler struct {
	readingService ports.ReadingService
}

// NewReadingHandler creates a new reading handler
func NewReadingHandler(readingService ports.ReadingService) *ReadingHandler {
	return &ReadingHandler{
		readingService: readingService,
	}
}

// CreateReading handles POST /patients/{patient_id}/readings
// PATIENT: own record only (DOCTOR has read-only access)
func (h *ReadingHandler) CreateReading(w http.ResponseWriter, r *http.Request) {
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

	patientIDStr := r.PathValue("patient_id")
	patientID, err := uuid.Parse(patientIDStr)
	if err != nil {
		log.Printf("[%s] Invalid patient ID: %v", requestID, err)
		http.Error(w, "invalid patient ID", http.StatusBadRequest)
		return
	}

	var req ports.CreateReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Default timestamp to now
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now()
	}

	reading, err := h.readingService.CreateReading(r.Context(), patientID, req, userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to create reading: user_id=%s, patient_id=%s, error=%v", requestID, userIDStr, patientIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		if strings.Contains(err.Error(), "forbidden") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "POST", "/patients/"+patientIDStr+"/readings", http.StatusCreated, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(reading); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// GetReadings handles GET /patients/{patient_id}/readings
// DOCTOR: any patient, PATIENT: own record only
// Optional query parameters: type, limit
func (h *ReadingHandler) GetReadings(w http.ResponseWriter, r *http.Request) {
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

	patientIDStr := r.PathValue("patient_id")
	patientID, err := uuid.Parse(patientIDStr)
	if err != nil {
		log.Printf("[%s] Invalid patient ID: %v", requestID, err)
		http.Error(w, "invalid patient ID", http.StatusBadRequest)
		return
	}

	var mealType *string
	var limit *int

	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		mealType = &typeParam
	}

	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limitInt, err := strconv.Atoi(limitParam)
		if err != nil || limitInt <= 0 {
			log.Printf("[%s] Invalid limit parameter: %s", requestID, limitParam)
			http.Error(w, "invalid limit parameter (must be positive integer)", http.StatusBadRequest)
			return
		}
		limit = &limitInt
	}

	readings, err := h.readingService.GetReadings(r.Context(), patientID, userID, isDoctor, mealType, limit)
	if err != nil {
		log.Printf("[%s] Failed to get readings: user_id=%s, patient_id=%s, error=%v", requestID, userIDStr, patientIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "GET", "/patients/"+patientIDStr+"/readings", http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(readings); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// GetReadingByID handles GET /readings/{reading_id}
// DOCTOR: any reading, PATIENT: own readings only
func (h *ReadingHandler) GetReadingByID(w http.ResponseWriter, r *http.Request) {
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

	readingIDStr := r.PathValue("reading_id")
	readingID, err := uuid.Parse(readingIDStr)
	if err != nil {
		log.Printf("[%s] Invalid reading ID: %v", requestID, err)
		http.Error(w, "invalid reading ID", http.StatusBadRequest)
		return
	}

	reading, err := h.readingService.GetReadingByID(r.Context(), readingID, userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to get reading: user_id=%s, reading_id=%s, error=%v", requestID, userIDStr, readingIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "reading not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "GET", "/readings/"+readingIDStr, http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reading); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// DeleteReading handles DELETE /readings/{reading_id}
// PATIENT: only readings she logged (DOCTOR cannot delete readings)
func (h *ReadingHandler) DeleteReading(w http.ResponseWriter, r *http.Request) {
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

	readingIDStr := r.PathValue("reading_id")
	readingID, err := uuid.Parse(readingIDStr)
	if err != nil {
		log.Printf("[%s] Invalid reading ID: %v", requestID, err)
		http.Error(w, "invalid reading ID", http.StatusBadRequest)
		return
	}

	err = h.readingService.DeleteReading(r.Context(), readingID, userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to delete reading: user_id=%s, reading_id=%s, error=%v", requestID, userIDStr, readingIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "reading not found", http.StatusNotFound)
			return
		}
		if strings.Contains(err.Error(), "forbidden") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "DELETE", "/readings/"+readingIDStr, http.StatusNoContent, time.Since(startTime))

	w.WriteHeader(http.StatusNoContent)
}
