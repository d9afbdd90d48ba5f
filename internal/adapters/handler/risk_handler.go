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

// RiskHandler handles HTTP requests for GDM risk assessment
type RiskHandler struct {
	riskService ports.RiskService
}

// NewRiskHandler creates a new risk handler
func NewRiskHandler(riskService ports.RiskService) *RiskHandler {
	return &RiskHandler{
		riskService: riskService,
	}
}

// AssessRisk handles POST /patients/{patient_id}/risk
// Proxies the clinical profile to the external model service.
// DOCTOR: any patient, PATIENT: own record only.
func (h *RiskHandler) AssessRisk(w http.ResponseWriter, r *http.Request) {
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

	var features domain.RiskFeatures
	if err := json.NewDecoder(r.Body).Decode(&features); err != nil {
		log.Printf("[%s] Failed to decode request: %v", requestID, err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	assessment, err := h.riskService.AssessRisk(r.Context(), patientID, features, userID, isDoctor)
	if err != nil {
		log.Printf("[%s] Failed to assess risk: user_id=%s, patient_id=%s, error=%v", requestID, userIDStr, patientIDStr, err)
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		if strings.Contains(err.Error(), "unavailable") {
			http.Error(w, "model service unavailable", http.StatusBadGateway)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	logStructured(requestID, userIDStr, isDoctor, "POST", "/patients/"+patientIDStr+"/risk", http.StatusOK, time.Since(startTime))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(assessment); err != nil {
		log.Printf("[%s] Failed to encode response: %v", requestID, err)
	}
}
