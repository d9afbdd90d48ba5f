package handler_test

import (
	"context"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPatientService is a mock implementation of ports.PatientService
type MockPatientService struct {
	mock.Mock
}

func (m *MockPatientService) CreatePatient(ctx context.Context, userID uuid.UUID, firstName, lastName string, doctorUserID uuid.UUID) (*domain.Patient, error) {
	args := m.Called(ctx, userID, firstName, lastName, doctorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Patient), args.Error(1)
}

func (m *MockPatientService) GetPatient(ctx context.Context, patientID uuid.UUID, userID uuid.UUID, isDoctor bool) (*domain.Patient, error) {
	args := m.Called(ctx, patientID, userID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Patient), args.Error(1)
}

func (m *MockPatientService) ListPatients(ctx context.Context, userID uuid.UUID, isDoctor bool) ([]*domain.Patient, error) {
	args := m.Called(ctx, userID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Patient), args.Error(1)
}

func (m *MockPatientService) UpdateProfile(ctx context.Context, patientID uuid.UUID, req ports.UpdateProfileRequest, userID uuid.UUID, isDoctor bool) (*domain.Patient, error) {
	args := m.Called(ctx, patientID, req, userID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Patient), args.Error(1)
}

// MockReadingService is a mock implementation of ports.ReadingService
type MockReadingService struct {
	mock.Mock
}

func (m *MockReadingService) CreateReading(ctx context.Context, patientID uuid.UUID, req ports.CreateReadingRequest, userID uuid.UUID, isDoctor bool) (*domain.GlucoseReading, error) {
	args := m.Called(ctx, patientID, req, userID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GlucoseReading), args.Error(1)
}

func (m *MockReadingService) GetReadings(ctx context.Context, patientID uuid.UUID, userID uuid.UUID, isDoctor bool, mealType *string, limit *int) ([]*domain.GlucoseReading, error) {
	args := m.Called(ctx, patientID, userID, isDoctor, mealType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GlucoseReading), args.Error(1)
}

func (m *MockReadingService) GetReadingByID(ctx context.Context, readingID uuid.UUID, userID uuid.UUID, isDoctor bool) (*domain.GlucoseReading, error) {
	args := m.Called(ctx, readingID, userID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GlucoseReading), args.Error(1)
}

func (m *MockReadingService) DeleteReading(ctx context.Context, readingID uuid.UUID, userID uuid.UUID, isDoctor bool) error {
	args := m.Called(ctx, readingID, userID, isDoctor)
	return args.Error(0)
}

// MockAlertService is a mock implementation of ports.AlertService
type MockAlertService struct {
	mock.Mock
}

func (m *MockAlertService) GetAlertReport(ctx context.Context, patientID uuid.UUID, userID uuid.UUID, isDoctor bool) (*domain.AlertReport, error) {
	args := m.Called(ctx, patientID, userID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AlertReport), args.Error(1)
}

func (m *MockAlertService) GetThresholds(ctx context.Context, patientID uuid.UUID, userID uuid.UUID, isDoctor bool) (*domain.ThresholdSet, error) {
	args := m.Called(ctx, patientID, userID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ThresholdSet), args.Error(1)
}

func (m *MockAlertService) UpdateThresholds(ctx context.Context, patientID uuid.UUID, thresholds domain.ThresholdSet, userID uuid.UUID, isDoctor bool) error {
	args := m.Called(ctx, patientID, thresholds, userID, isDoctor)
	return args.Error(0)
}

// MockInboxService is a mock implementation of ports.InboxService
type MockInboxService struct {
	mock.Mock
}

func (m *MockInboxService) SendMessage(ctx context.Context, req ports.SendMessageRequest, senderUserID uuid.UUID, isDoctor bool) (*domain.Message, error) {
	args := m.Called(ctx, req, senderUserID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockInboxService) ListConversation(ctx context.Context, withUserID uuid.UUID, userID uuid.UUID, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, withUserID, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockInboxService) MarkMessageRead(ctx context.Context, messageID uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, messageID, userID)
	return args.Error(0)
}

func (m *MockInboxService) ListNotifications(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockInboxService) MarkNotificationRead(ctx context.Context, notificationID uuid.UUID, userID uuid.UUID) error {
	args := m.Called(ctx, notificationID, userID)
	return args.Error(0)
}

// MockRiskService is a mock implementation of ports.RiskService
type MockRiskService struct {
	mock.Mock
}

func (m *MockRiskService) AssessRisk(ctx context.Context, patientID uuid.UUID, features domain.RiskFeatures, userID uuid.UUID, isDoctor bool) (*domain.RiskAssessment, error) {
	args := m.Called(ctx, patientID, features, userID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RiskAssessment), args.Error(1)
}
