package services_test

import (
	"context"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockPatientRepository is a mock implementation of ports.PatientRepository
type MockPatientRepository struct {
	mock.Mock
}

func (m *MockPatientRepository) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	args := m.Called(ctx, patient)
	return args.Error(0)
}

func (m *MockPatientRepository) GetPatientByID(ctx context.Context, patientID uuid.UUID) (*domain.Patient, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Patient), args.Error(1)
}

func (m *MockPatientRepository) GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*domain.Patient, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Patient), args.Error(1)
}

func (m *MockPatientRepository) ListPatients(ctx context.Context, userID uuid.UUID, isDoctor bool) ([]*domain.Patient, error) {
	args := m.Called(ctx, userID, isDoctor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Patient), args.Error(1)
}

func (m *MockPatientRepository) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	args := m.Called(ctx, patientID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPatientRepository) CheckPatientOwnership(ctx context.Context, patientID uuid.UUID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, patientID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPatientRepository) UpdateProfile(ctx context.Context, patientID uuid.UUID, firstName, lastName string, dueDate *time.Time, pregnancyWeek int, onboardingCompleted bool) error {
	args := m.Called(ctx, patientID, firstName, lastName, dueDate, pregnancyWeek, onboardingCompleted)
	return args.Error(0)
}

// MockReadingRepository is a mock implementation of ports.ReadingRepository
type MockReadingRepository struct {
	mock.Mock
}

func (m *MockReadingRepository) CreateReading(ctx context.Context, reading *domain.GlucoseReading) error {
	args := m.Called(ctx, reading)
	return args.Error(0)
}

func (m *MockReadingRepository) GetReadingsByPatientID(ctx context.Context, patientID uuid.UUID, mealType *string, limit *int) ([]*domain.GlucoseReading, error) {
	args := m.Called(ctx, patientID, mealType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.GlucoseReading), args.Error(1)
}

func (m *MockReadingRepository) GetReadingByID(ctx context.Context, readingID uuid.UUID) (*domain.GlucoseReading, error) {
	args := m.Called(ctx, readingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.GlucoseReading), args.Error(1)
}

func (m *MockReadingRepository) DeleteReading(ctx context.Context, readingID uuid.UUID, patientID uuid.UUID) error {
	args := m.Called(ctx, readingID, patientID)
	return args.Error(0)
}

// MockThresholdRepository is a mock implementation of ports.ThresholdRepository
type MockThresholdRepository struct {
	mock.Mock
}

func (m *MockThresholdRepository) GetThresholds(ctx context.Context, patientID uuid.UUID) (*domain.ThresholdSet, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ThresholdSet), args.Error(1)
}

func (m *MockThresholdRepository) SaveThresholds(ctx context.Context, patientID uuid.UUID, thresholds domain.ThresholdSet) error {
	args := m.Called(ctx, patientID, thresholds)
	return args.Error(0)
}

// MockMessageRepository is a mock implementation of ports.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

func (m *MockMessageRepository) CreateMessage(ctx context.Context, message *domain.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockMessageRepository) ListConversation(ctx context.Context, userA, userB uuid.UUID, limit int) ([]*domain.Message, error) {
	args := m.Called(ctx, userA, userB, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Message), args.Error(1)
}

func (m *MockMessageRepository) MarkMessageRead(ctx context.Context, messageID uuid.UUID, recipientUserID uuid.UUID) error {
	args := m.Called(ctx, messageID, recipientUserID)
	return args.Error(0)
}

// MockNotificationRepository is a mock implementation of ports.NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) CreateNotification(ctx context.Context, notification *domain.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func (m *MockNotificationRepository) ListNotifications(ctx context.Context, recipientUserID uuid.UUID, unreadOnly bool) ([]*domain.Notification, error) {
	args := m.Called(ctx, recipientUserID, unreadOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkNotificationRead(ctx context.Context, notificationID uuid.UUID, recipientUserID uuid.UUID) error {
	args := m.Called(ctx, notificationID, recipientUserID)
	return args.Error(0)
}

// MockAlertPublisher is a mock implementation of ports.AlertPublisher
type MockAlertPublisher struct {
	mock.Mock
}

func (m *MockAlertPublisher) PublishAlert(ctx context.Context, patient *domain.Patient, reading *domain.GlucoseReading, report domain.AlertReport) error {
	args := m.Called(ctx, patient, reading, report)
	return args.Error(0)
}

// MockRiskPredictor is a mock implementation of ports.RiskPredictor
type MockRiskPredictor struct {
	mock.Mock
}

func (m *MockRiskPredictor) Predict(ctx context.Context, features domain.RiskFeatures) (*domain.RiskAssessment, error) {
	args := m.Called(ctx, features)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RiskAssessment), args.Error(1)
}
