package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
)

// RiskService proxies GDM risk assessment requests to the external model
// service after enforcing patient access rules
type RiskService struct {
	patientRepo ports.PatientRepository
	predictor   ports.RiskPredictor
}

// NewRiskService creates a new risk service
func NewRiskService(patientRepo ports.PatientRepository, predictor ports.RiskPredictor) *RiskService {
	return &RiskService{
		patientRepo: patientRepo,
		predictor:   predictor,
	}
}

// AssessRisk submits a clinical profile to the model service.
// Enforces ownership: DOCTOR any patient, PATIENT only her own record.
func (s *RiskService) AssessRisk(
	ctx context.Context,
	patientID uuid.UUID,
	features domain.RiskFeatures,
	userID uuid.UUID,
	isDoctor bool,
) (*domain.RiskAssessment, error) {
	exists, err := s.patientRepo.PatientExists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("patient not found")
	}

	if !isDoctor {
		owned, err := s.patientRepo.CheckPatientOwnership(ctx, patientID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check ownership: %w", err)
		}
		if !owned {
			// Don't leak ownership info
			return nil, fmt.Errorf("patient not found")
		}
	}

	assessment, err := s.predictor.Predict(ctx, features)
	if err != nil {
		return nil, fmt.Errorf("risk prediction failed: %w", err)
	}

	logEntry := map[string]interface{}{
		"event":           "risk_assessed",
		"patient_id":      patientID.String(),
		"prediction":      assessment.Prediction,
		"confidence":      assessment.Confidence,
		"gdm_probability": assessment.GDMProbability,
		"model_version":   assessment.ModelVersion,
		"timestamp":       time.Now().Format(time.RFC3339),
	}
	if jsonBytes, err := json.Marshal(logEntry); err == nil {
		log.Printf("%s", string(jsonBytes))
	}

	return assessment, nil
}
