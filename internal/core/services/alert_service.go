package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
)

// AlertService computes rolling alert reports on demand and manages the
// per-patient threshold sets they are evaluated against
type AlertService struct {
	readingRepo   ports.ReadingRepository
	patientRepo   ports.PatientRepository
	thresholdRepo ports.ThresholdRepository
}

// NewAlertService creates a new alert service
func NewAlertService(
	readingRepo ports.ReadingRepository,
	patientRepo ports.PatientRepository,
	thresholdRepo ports.ThresholdRepository,
) *AlertService {
	return &AlertService{
		readingRepo:   readingRepo,
		patientRepo:   patientRepo,
		thresholdRepo: thresholdRepo,
	}
}

// checkAccess validates patient existence and caller access, returning a
// generic "patient not found" on ownership failures so existence never leaks
func (s *AlertService) checkAccess(ctx context.Context, patientID, userID uuid.UUID, isDoctor bool) error {
	exists, err := s.patientRepo.PatientExists(ctx, patientID)
	if err != nil {
		return fmt.Errorf("failed to check patient existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("patient not found")
	}

	if !isDoctor {
		owned, err := s.patientRepo.CheckPatientOwnership(ctx, patientID, userID)
		if err != nil {
			return fmt.Errorf("failed to check ownership: %w", err)
		}
		if !owned {
			// Don't leak ownership info
			return fmt.Errorf("patient not found")
		}
	}

	return nil
}

// GetAlertReport computes the 7-day alert report for a patient.
// The readings come back from the store sorted descending by timestamp, which
// is the order the analysis expects.
func (s *AlertService) GetAlertReport(
	ctx context.Context,
	patientID uuid.UUID,
	userID uuid.UUID,
	isDoctor bool,
) (*domain.AlertReport, error) {
	if err := s.checkAccess(ctx, patientID, userID, isDoctor); err != nil {
		return nil, err
	}

	readings, err := s.readingRepo.GetReadingsByPatientID(ctx, patientID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get readings: %w", err)
	}

	thresholds, err := s.effectiveThresholds(ctx, patientID)
	if err != nil {
		return nil, err
	}

	report := domain.AnalyzeGlucoseReadings(readings, thresholds, time.Now())
	return &report, nil
}

// GetThresholds returns the patient's threshold set, falling back to the
// documented defaults when no set has been stored
func (s *AlertService) GetThresholds(
	ctx context.Context,
	patientID uuid.UUID,
	userID uuid.UUID,
	isDoctor bool,
) (*domain.ThresholdSet, error) {
	if err := s.checkAccess(ctx, patientID, userID, isDoctor); err != nil {
		return nil, err
	}

	thresholds, err := s.effectiveThresholds(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &thresholds, nil
}

// UpdateThresholds replaces the patient's threshold set. DOCTOR only.
// Only positivity and a sane frequency count are enforced here; ordering
// between the hyper/hypo knobs is deliberately not validated, so a degenerate
// configuration degrades to always- or never-firing categories.
func (s *AlertService) UpdateThresholds(
	ctx context.Context,
	patientID uuid.UUID,
	thresholds domain.ThresholdSet,
	userID uuid.UUID,
	isDoctor bool,
) error {
	if !isDoctor {
		return fmt.Errorf("forbidden: only DOCTOR can update thresholds")
	}

	exists, err := s.patientRepo.PatientExists(ctx, patientID)
	if err != nil {
		return fmt.Errorf("failed to check patient existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("patient not found")
	}

	for name, v := range map[string]float64{
		"hyperglycemia_before_meal": thresholds.HyperglycemiaBeforeMeal,
		"hyperglycemia_after_meal":  thresholds.HyperglycemiaAfterMeal,
		"hyperglycemia_major":       thresholds.HyperglycemiaMajor,
		"hypoglycemia":              thresholds.Hypoglycemia,
		"hypoglycemia_major":        thresholds.HypoglycemiaMajor,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be greater than 0", name)
		}
	}
	if thresholds.FrequentThreshold < 1 {
		return fmt.Errorf("frequent_threshold must be at least 1")
	}

	if err := s.thresholdRepo.SaveThresholds(ctx, patientID, thresholds); err != nil {
		return fmt.Errorf("failed to save thresholds: %w", err)
	}

	return nil
}

func (s *AlertService) effectiveThresholds(ctx context.Context, patientID uuid.UUID) (domain.ThresholdSet, error) {
	stored, err := s.thresholdRepo.GetThresholds(ctx, patientID)
	if err != nil {
		return domain.ThresholdSet{}, fmt.Errorf("failed to get thresholds: %w", err)
	}
	if stored == nil {
		return domain.DefaultThresholds(), nil
	}
	return *stored, nil
}
