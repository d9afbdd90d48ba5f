package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
)

// PatientService implements business logic for patient operations
// Enforces RBAC and ownership rules
type PatientService struct {
	patientRepo ports.PatientRepository
}

// NewPatientService creates a new patient service
func NewPatientService(patientRepo ports.PatientRepository) *PatientService {
	return &PatientService{
		patientRepo: patientRepo,
	}
}

// CreatePatient creates a new patient record.
// Driven by identity-service signup events consumed from RabbitMQ, never by
// the HTTP API, so there is no RBAC check here.
func (s *PatientService) CreatePatient(
	ctx context.Context,
	userID uuid.UUID,
	firstName, lastName string,
	doctorUserID uuid.UUID,
) (*domain.Patient, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("patient user_id cannot be empty")
	}
	if lastName == "" {
		return nil, fmt.Errorf("patient last_name cannot be empty")
	}
	if doctorUserID == uuid.Nil {
		return nil, fmt.Errorf("patient doctor_user_id cannot be empty")
	}

	patient := &domain.Patient{
		ID:           uuid.New(),
		UserID:       userID,
		FirstName:    firstName,
		LastName:     lastName,
		DoctorUserID: doctorUserID,
		CreatedAt:    time.Now(),
	}

	if err := s.patientRepo.CreatePatient(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	return patient, nil
}

// GetPatient retrieves a patient by ID
// Enforces ownership: DOCTOR can access any, PATIENT only her own record
func (s *PatientService) GetPatient(
	ctx context.Context,
	patientID uuid.UUID,
	userID uuid.UUID,
	isDoctor bool,
) (*domain.Patient, error) {
	patient, err := s.patientRepo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("patient not found")
	}

	if !isDoctor && patient.UserID != userID {
		// Don't leak ownership info - return generic not found
		return nil, fmt.Errorf("patient not found")
	}

	return patient, nil
}

// ListPatients retrieves patients based on role
// DOCTOR: all patients, PATIENT: only her own record
func (s *PatientService) ListPatients(
	ctx context.Context,
	userID uuid.UUID,
	isDoctor bool,
) ([]*domain.Patient, error) {
	patients, err := s.patientRepo.ListPatients(ctx, userID, isDoctor)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// UpdateProfile updates a patient's profile and onboarding state
// Only the patient herself can edit her profile
func (s *PatientService) UpdateProfile(
	ctx context.Context,
	patientID uuid.UUID,
	req ports.UpdateProfileRequest,
	userID uuid.UUID,
	isDoctor bool,
) (*domain.Patient, error) {
	if isDoctor {
		return nil, fmt.Errorf("forbidden: only PATIENT can edit her profile")
	}

	owned, err := s.patientRepo.CheckPatientOwnership(ctx, patientID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check ownership: %w", err)
	}
	if !owned {
		// Don't leak ownership info - return generic not found
		return nil, fmt.Errorf("patient not found")
	}

	if req.LastName == "" {
		return nil, fmt.Errorf("patient last_name cannot be empty")
	}
	if req.PregnancyWeek < 0 || req.PregnancyWeek > 45 {
		return nil, fmt.Errorf("pregnancy_week must be between 0 and 45")
	}

	err = s.patientRepo.UpdateProfile(ctx, patientID, req.FirstName, req.LastName, req.DueDate, req.PregnancyWeek, req.OnboardingCompleted)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	patient, err := s.patientRepo.GetPatientByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload patient: %w", err)
	}

	return patient, nil
}
