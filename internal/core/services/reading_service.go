package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
)

// ReadingService implements business logic for glucose reading operations.
// Enforces RBAC and ownership rules, stamps the display status on each
// reading, and publishes alerts for abnormal readings.
type ReadingService struct {
	readingRepo    ports.ReadingRepository
	patientRepo    ports.PatientRepository
	thresholdRepo  ports.ThresholdRepository
	alertPublisher ports.AlertPublisher
}

// NewReadingService creates a new reading service
func NewReadingService(
	readingRepo ports.ReadingRepository,
	patientRepo ports.PatientRepository,
	thresholdRepo ports.ThresholdRepository,
	alertPublisher ports.AlertPublisher,
) *ReadingService {
	return &ReadingService{
		readingRepo:    readingRepo,
		patientRepo:    patientRepo,
		thresholdRepo:  thresholdRepo,
		alertPublisher: alertPublisher,
	}
}

// CreateReading logs a new glucose reading for a patient.
// Only PATIENT can log readings, and only for her own record; DOCTOR has
// read-only access. HIGH readings and critical report recomputations trigger
// asynchronous alert publishing.
func (s *ReadingService) CreateReading(
	ctx context.Context,
	patientID uuid.UUID,
	req ports.CreateReadingRequest,
	userID uuid.UUID,
	isDoctor bool,
) (*domain.GlucoseReading, error) {
	// Input validation
	if !domain.IsValidMealType(domain.MealType(req.Type)) {
		return nil, fmt.Errorf("invalid reading type: %s", req.Type)
	}
	if req.Level <= 0 {
		return nil, fmt.Errorf("glucose level must be greater than 0 mg/dL")
	}
	if req.Level > domain.ReadingMaxLevel {
		return nil, fmt.Errorf("glucose level exceeds reasonable maximum (%.0f mg/dL)", domain.ReadingMaxLevel)
	}

	// Check if patient exists
	exists, err := s.patientRepo.PatientExists(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient existence: %w", err)
	}
	if !exists {
		// Don't leak ownership info
		return nil, fmt.Errorf("patient not found")
	}

	// RBAC enforcement: only PATIENT can log readings, and only her own.
	// DOCTOR has read-only access to readings.
	if isDoctor {
		return nil, fmt.Errorf("forbidden: only PATIENT can log readings")
	}

	owned, err := s.patientRepo.CheckPatientOwnership(ctx, patientID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		// Don't leak ownership info - return generic not found
		return nil, fmt.Errorf("patient not found")
	}

	// Stamp the single-reading display status
	mealType := domain.MealType(req.Type)
	status := domain.CalculateReadingStatus(req.Level, mealType)

	timestamp := req.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	reading := &domain.GlucoseReading{
		ID:        uuid.New(),
		PatientID: patientID,
		Level:     req.Level,
		Type:      mealType,
		Note:      req.Note,
		Status:    status,
		Timestamp: timestamp,
		CreatedAt: time.Now(),
	}

	if err := s.readingRepo.CreateReading(ctx, reading); err != nil {
		return nil, fmt.Errorf("failed to create reading: %w", err)
	}

	s.logReading(reading, "created")

	// The display status has no low band, so hypoglycemia only surfaces
	// through the rolling 7-day report. Recompute it here and publish when
	// the fresh reading is HIGH or the report reaches critical severity.
	report, err := s.recomputeReport(ctx, patientID)
	if err != nil {
		// The reading is already persisted; a missed alert here is
		// recoverable via the on-demand report endpoint.
		log.Printf("Failed to recompute alert report for reading %s: %v", reading.ID, err)
		return reading, nil
	}

	if reading.Status == domain.ReadingStatusHigh ||
		report.Summary.HighestSeverity == domain.SeverityCritical {
		go s.publishAlert(patientID, reading, report)
	}

	return reading, nil
}

// recomputeReport rebuilds the rolling alert report from the patient's stored
// readings and effective thresholds
func (s *ReadingService) recomputeReport(ctx context.Context, patientID uuid.UUID) (domain.AlertReport, error) {
	readings, err := s.readingRepo.GetReadingsByPatientID(ctx, patientID, nil, nil)
	if err != nil {
		return domain.AlertReport{}, fmt.Errorf("failed to load readings: %w", err)
	}

	thresholds, err := s.thresholdRepo.GetThresholds(ctx, patientID)
	if err != nil {
		return domain.AlertReport{}, fmt.Errorf("failed to load thresholds: %w", err)
	}
	effective := domain.DefaultThresholds()
	if thresholds != nil {
		effective = *thresholds
	}

	return domain.AnalyzeGlucoseReadings(readings, effective, time.Now()), nil
}

// publishAlert publishes the alert event in a background goroutine with a
// background context so the originating request's cancellation does not drop
// the alert.
func (s *ReadingService) publishAlert(patientID uuid.UUID, reading *domain.GlucoseReading, report domain.AlertReport) {
	bgCtx := context.Background()

	patient, err := s.patientRepo.GetPatientByID(bgCtx, patientID)
	if err != nil {
		log.Printf("Failed to load patient for alert publishing: %v", err)
		return
	}

	if err := s.alertPublisher.PublishAlert(bgCtx, patient, reading, report); err != nil {
		// Log error but don't fail the request
		log.Printf("Failed to publish alert for reading %s: %v", reading.ID, err)
		return
	}
	s.logReading(reading, "alert_published")
}

// logReading logs structured JSON for reading events
func (s *ReadingService) logReading(r *domain.GlucoseReading, event string) {
	logEntry := map[string]interface{}{
		"event":      event,
		"reading_id": r.ID.String(),
		"patient_id": r.PatientID.String(),
		"level":      r.Level,
		"type":       string(r.Type),
		"status":     string(r.Status),
		"timestamp":  r.Timestamp.Format(time.RFC3339),
		"created_at": r.CreatedAt.Format(time.RFC3339),
	}
	if r.Note != "" {
		logEntry["note"] = r.Note
	}

	jsonBytes, err := json.Marshal(logEntry)
	if err != nil {
		log.Printf("Failed to marshal reading log entry: %v", err)
		return
	}
	log.Printf("%s", string(jsonBytes))
}

// GetReadings retrieves readings for a patient, newest first.
// Enforces ownership: DOCTOR can access any, PATIENT only her own.
func (s *ReadingService) GetReadings(
	ctx context.Context,
	patientID uuid.UUID,
	userID uuid.UUID,
	isDoctor bool,
	mealType *string,
	limit *int,
) ([]*domain.GlucoseReading, error) {
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
			// Don't leak ownership info - return generic not found
			return nil, fmt.Errorf("patient not found")
		}
	}

	if mealType != nil && !domain.IsValidMealType(domain.MealType(*mealType)) {
		return nil, fmt.Errorf("invalid reading type filter: %s", *mealType)
	}
	if limit != nil && *limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	readings, err := s.readingRepo.GetReadingsByPatientID(ctx, patientID, mealType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get readings: %w", err)
	}

	return readings, nil
}

// GetReadingByID retrieves a specific reading.
// Enforces ownership: DOCTOR can access any, PATIENT only her own.
func (s *ReadingService) GetReadingByID(
	ctx context.Context,
	readingID uuid.UUID,
	userID uuid.UUID,
	isDoctor bool,
) (*domain.GlucoseReading, error) {
	reading, err := s.readingRepo.GetReadingByID(ctx, readingID)
	if err != nil {
		if isNotFoundErr(err, "reading not found") {
			return nil, fmt.Errorf("reading not found")
		}
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}
	if reading == nil {
		return nil, fmt.Errorf("reading not found")
	}

	if !isDoctor {
		owned, err := s.patientRepo.CheckPatientOwnership(ctx, reading.PatientID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to check ownership: %w", err)
		}
		if !owned {
			// Don't leak ownership info - return generic not found
			return nil, fmt.Errorf("reading not found")
		}
	}

	return reading, nil
}

// DeleteReading deletes a reading.
// Only the patient who logged it can delete it; DOCTOR cannot.
func (s *ReadingService) DeleteReading(
	ctx context.Context,
	readingID uuid.UUID,
	userID uuid.UUID,
	isDoctor bool,
) error {
	if isDoctor {
		return fmt.Errorf("forbidden: only PATIENT can delete readings")
	}

	reading, err := s.readingRepo.GetReadingByID(ctx, readingID)
	if err != nil {
		if isNotFoundErr(err, "reading not found") {
			return fmt.Errorf("reading not found")
		}
		return fmt.Errorf("failed to get reading: %w", err)
	}

	owned, err := s.patientRepo.CheckPatientOwnership(ctx, reading.PatientID, userID)
	if err != nil {
		return fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		// Don't leak ownership info - return generic not found
		return fmt.Errorf("reading not found")
	}

	if err := s.readingRepo.DeleteReading(ctx, readingID, reading.PatientID); err != nil {
		return fmt.Errorf("failed to delete reading: %w", err)
	}

	return nil
}

// isNotFoundErr matches sql.ErrNoRows and not-found errors wrapped by the
// repository retry layer ("operation failed after N retries: sql: no rows...")
func isNotFoundErr(err error, notFoundMsg string) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, notFoundMsg) || strings.Contains(errStr, "no rows")
}
