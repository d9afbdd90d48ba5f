package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/adapters/middleware"
	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
)

// AlertHandler handles HTTP requests for alert reports and thresholds
type AlertHandler struct {
	alertService ports.AlertService
}

// NewAlertHandler creates a new alert handler
func NewAlertHandler(alertService ports.AlertService) *AlertHandler {
	return &AlertHandler{
		alertService: alertService,
	}
}

// GetAlertReport handles GET /patients/{patient_id}/alerts
// Computes the 7-day alert report on demand
// DOCTOR: any patient, PATIENT: own record only
func (h *AlertHandler) GetAlertReport(w http.ResponseWriter, r *http.Request) {
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

	report, err := h.alertService.GetAlertReport(r.Context(), patientID, userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to get alert report: user_id=%s, patient_id=%s, error=%v", requestID, userIDStr, patientIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "GET", "/patients/"+patientIDStr+"/alerts", http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(report); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// GetThresholds handles GET /patients/{patient_id}/thresholds
// Returns the stored set, or the defaults when none is stored
// DOCTOR: any patient, PATIENT: own record only
func (h *AlertHandler) GetThresholds(w http.ResponseWriter, r *http.Request) {
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

	thresholds, err := h.alertService.GetThresholds(r.Context(), patientID, userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to get thresholds: user_id=%s, patient_id=%s, error=%v", requestID, userIDStr, patientIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "GET", "/patients/"+patientIDStr+"/thresholds", http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(thresholds); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// UpdateThresholds handles PUT /patients/{patient_id}/thresholds
// DOCTOR only
func (h *AlertHandler) UpdateThresholds(w http.ResponseWriter, r *http.Request) {
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

	var thresholds domain.ThresholdSet
	if err := json.NewDecoder(r.Body).Decode(&thresholds); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.alertService.UpdateThresholds(r.Context(), patientID, thresholds, userID, isDoctor); err != nil {
		log.Printf("[%s] Failed to update thresholds: user_id=%s, patient_id=%s, error=%v", requestID, userIDStr, patientIDStr, err)
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

	logStructured(requestID, userIDStr, isDoctor, "PUT", "/patients/"+patientIDStr+"/thresholds", http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(thresholds); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}
