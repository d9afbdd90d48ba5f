package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/adapters/middleware"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
)

// PatientHandler handles HTTP requests for patient operations
type PatientHandler struct {
	patientService ports.PatientService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientService ports.PatientService) *PatientHandler {
	return &PatientHandler{
		patientService: patientService,
	}
}

// ListPatients handles GET /patients
// DOCTOR: all patients, PATIENT: only her own record
func (h *PatientHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
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

	patients, err := h.patientService.ListPatients(r.Context(), userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to list patients: user_id=%s, error=%v", requestID, userIDStr, err)
		http.Error(w, "failed to list patients", http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "GET", "/patients", http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(patients); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// GetPatient handles GET /patients/{patient_id}
// DOCTOR: any patient, PATIENT: own record only
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
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

	patient, err := h.patientService.GetPatient(r.Context(), patientID, userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to get patient: user_id=%s, patient_id=%s, error=%v", requestID, userIDStr, patientIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "GET", "/patients/"+patientIDStr, http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(patient); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}

// UpdateProfile handles PUT /patients/{patient_id}/profile
// PATIENT: own record only (onboarding and profile updates)
func (h *PatientHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
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

	var req ports.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	patient, err := h.patientService.UpdateProfile(r.Context(), patientID, req, userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to update profile: user_id=%s, patient_id=%s, error=%v", requestID, userIDStr, patientIDStr, err)
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

	logStructured(requestID, userIDStr, isDoctor, "PUT", "/patients/"+patientIDStr+"/profile", http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(patient); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}
