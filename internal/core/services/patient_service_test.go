package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/gdmtrack/monitoring-service/internal/core/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPatientService_CreatePatient_Success(t *testing.T) {
	patientRepo := new(MockPatientRepository)
	svc := services.NewPatientService(patientRepo)

	userID := uuid.New()
	doctorUserID := uuid.New()

	patientRepo.On("CreatePatient", mock.Anything, mock.AnythingOfType("*domain.Patient")).Return(nil)

	patient, err := svc.CreatePatient(context.Background(), userID, "Amina", "Hassan", doctorUserID)

	require.NoError(t, err)
	require.NotNil(t, patient)
	assert.Equal(t, userID, patient.UserID)
	assert.Equal(t, doctorUserID, patient.DoctorUserID)
	assert.NotEqual(t, uuid.Nil, patient.ID)
	assert.False(t, patient.OnboardingCompleted)

	patientRepo.AssertExpectations(t)
}

func TestPatientService_CreatePatient_MissingFields(t *testing.T) {
	patientRepo := new(MockPatientRepository)
	svc := services.NewPatientService(patientRepo)

	_, err := svc.CreatePatient(context.Background(), uuid.Nil, "Amina", "Hassan", uuid.New())
	require.Error(t, err)

	_, err = svc.CreatePatient(context.Background(), uuid.New(), "Amina", "", uuid.New())
	require.Error(t, err)

	_, err = svc.CreatePatient(context.Background(), uuid.New(), "Amina", "Hassan", uuid.Nil)
	require.Error(t, err)

	patientRepo.AssertNotCalled(t, "CreatePatient", mock.Anything, mock.Anything)
}

func TestPatientService_GetPatient_OwnRecord(t *testing.T) {
	patientRepo := new(MockPatientRepository)
	svc := services.NewPatientService(patientRepo)

	userID := uuid.New()
	patient := &domain.Patient{ID: uuid.New(), UserID: userID, LastName: "Hassan"}

	patientRepo.On("GetPatientByID", mock.Anything, patient.ID).Return(patient, nil)

	got, err := svc.GetPatient(context.Background(), patient.ID, userID, false)

	require.NoError(t, err)
	assert.Equal(t, patient, got)
}

func TestPatientService_GetPatient_NotOwned(t *testing.T) {
	patientRepo := new(MockPatientRepository)
	svc := services.NewPatientService(patientRepo)

	patient := &domain.Patient{ID: uuid.New(), UserID: uuid.New()}

	patientRepo.On("GetPatientByID", mock.Anything, patient.ID).Return(patient, nil)

	got, err := svc.GetPatient(context.Background(), patient.ID, uuid.New(), false)

	require.Error(t, err)
	assert.Nil(t, got)
	// generic not-found, no ownership leak
	assert.Equal(t, "patient not found", err.Error())
}

func TestPatientService_GetPatient_DoctorAccessesAny(t *testing.T) {
	patientRepo := new(MockPatientRepository)
	svc := services.NewPatientService(patientRepo)

	patient := &domain.Patient{ID: uuid.New(), UserID: uuid.New()}

	patientRepo.On("GetPatientByID", mock.Anything, patient.ID).Return(patient, nil)

	got, err := svc.GetPatient(context.Background(), patient.ID, uuid.New(), true)

	require.NoError(t, err)
	assert.Equal(t, patient, got)
}

func TestPatientService_UpdateProfile_Success(t *testing.T) {
	patientRepo := new(MockPatientRepository)
	svc := services.NewPatientService(patientRepo)

	userID := uuid.New()
	patientID := uuid.New()
	updated := &domain.Patient{ID: patientID, UserID: userID, LastName: "Hassan", PregnancyWeek: 28, OnboardingCompleted: true}

	req := ports.UpdateProfileRequest{
		FirstName:           "Amina",
		LastName:            "Hassan",
		PregnancyWeek:       28,
		OnboardingCompleted: true,
	}

	patientRepo.On("CheckPatientOwnership", mock.Anything, patientID, userID).Return(true, nil)
	patientRepo.On("UpdateProfile", mock.Anything, patientID, "Amina", "Hassan", (*time.Time)(nil), 28, true).Return(nil)
	patientRepo.On("GetPatientByID", mock.Anything, patientID).Return(updated, nil)

	patient, err := svc.UpdateProfile(context.Background(), patientID, req, userID, false)

	require.NoError(t, err)
	assert.Equal(t, updated, patient)
	patientRepo.AssertExpectations(t)
}

func TestPatientService_UpdateProfile_DoctorForbidden(t *testing.T) {
	patientRepo := new(MockPatientRepository)
	svc := services.NewPatientService(patientRepo)

	req := ports.UpdateProfileRequest{LastName: "Hassan"}

	patient, err := svc.UpdateProfile(context.Background(), uuid.New(), req, uuid.New(), true)

	require.Error(t, err)
	assert.Nil(t, patient)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestPatientService_UpdateProfile_InvalidPregnancyWeek(t *testing.T) {
	patientRepo := new(MockPatientRepository)
	svc := services.NewPatientService(patientRepo)

	userID := uuid.New()
	patientID := uuid.New()
	patientRepo.On("CheckPatientOwnership", mock.Anything, patientID, userID).Return(true, nil)

	req := ports.UpdateProfileRequest{LastName: "Hassan", PregnancyWeek: 46}

	patient, err := svc.UpdateProfile(context.Background(), patientID, req, userID, false)

	require.Error(t, err)
	assert.Nil(t, patient)
	patientRepo.AssertNotCalled(t, "UpdateProfile",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
