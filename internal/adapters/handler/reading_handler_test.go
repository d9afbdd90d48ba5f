package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/adapters/handler"
	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReadingHandler_CreateReading_Success(t *testing.T) {
	mockService := new(MockReadingService)
	readingHandler := handler.NewReadingHandler(mockService)

	userID := uuid.New()
	patientID := uuid.New()

	expected := &domain.GlucoseReading{
		ID:        uuid.New(),
		PatientID: patientID,
		Level:     92,
		Type:      domain.MealBeforeBreakfast,
		Status:    domain.ReadingStatusNormal,
		Timestamp: time.Now(),
	}

	mockService.On("CreateReading", mock.Anything, patientID, mock.AnythingOfType("ports.CreateReadingRequest"), userID, false).
		Return(expected, nil)

	reqBody := ports.CreateReadingRequest{Level: 92, Type: string(domain.MealBeforeBreakfast)}
	body, _ := json.Marshal(reqBody)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /patients/{patient_id}/readings", readingHandler.CreateReading)

	req := httptest.NewRequest("POST", "/patients/"+patientID.String()+"/readings", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req = withAuth(req, userID, "PATIENT")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var result domain.GlucoseReading
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.Equal(t, expected.ID, result.ID)
	assert.Equal(t, domain.ReadingStatusNormal, result.Status)
	mockService.AssertExpectations(t)
}

func TestReadingHandler_CreateReading_DoctorForbidden(t *testing.T) {
	mockService := new(MockReadingService)
	readingHandler := handler.NewReadingHandler(mockService)

	doctorID := uuid.New()
	patientID := uuid.New()

	mockService.On("CreateReading", mock.Anything, patientID, mock.Anything, doctorID, true).
		Return(nil, errors.New("forbidden: only PATIENT can log readings"))

	body, _ := json.Marshal(ports.CreateReadingRequest{Level: 100, Type: string(domain.MealBeforeLunch)})

	mux := http.NewServeMux()
	mux.HandleFunc("POST /patients/{patient_id}/readings", readingHandler.CreateReading)

	req := httptest.NewRequest("POST", "/patients/"+patientID.String()+"/readings", bytes.NewBuffer(body))
	req = withAuth(req, doctorID, "DOCTOR")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestReadingHandler_CreateReading_InvalidBody(t *testing.T) {
	mockService := new(MockReadingService)
	readingHandler := handler.NewReadingHandler(mockService)

	patientID := uuid.New()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /patients/{patient_id}/readings", readingHandler.CreateReading)

	req := httptest.NewRequest("POST", "/patients/"+patientID.String()+"/readings", bytes.NewBufferString("{not json"))
	req = withAuth(req, uuid.New(), "PATIENT")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "CreateReading", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReadingHandler_GetReadings_WithFilters(t *testing.T) {
	mockService := new(MockReadingService)
	readingHandler := handler.NewReadingHandler(mockService)

	doctorID := uuid.New()
	patientID := uuid.New()
	mealType := string(domain.MealAfterDinner)
	limit := 10

	readings := []*domain.GlucoseReading{
		{ID: uuid.New(), PatientID: patientID, Level: 150, Type: domain.MealAfterDinner},
	}

	mockService.On("GetReadings", mock.Anything, patientID, doctorID, true, &mealType, &limit).
		Return(readings, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /patients/{patient_id}/readings", readingHandler.GetReadings)

	req := httptest.NewRequest("GET", "/patients/"+patientID.String()+"/readings?type=AFTER_DINNER&limit=10", nil)
	req = withAuth(req, doctorID, "DOCTOR")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestReadingHandler_GetReadings_InvalidLimit(t *testing.T) {
	mockService := new(MockReadingService)
	readingHandler := handler.NewReadingHandler(mockService)

	patientID := uuid.New()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /patients/{patient_id}/readings", readingHandler.GetReadings)

	req := httptest.NewRequest("GET", "/patients/"+patientID.String()+"/readings?limit=-3", nil)
	req = withAuth(req, uuid.New(), "PATIENT")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadingHandler_GetReadingByID_NotFound(t *testing.T) {
	mockService := new(MockReadingService)
	readingHandler := handler.NewReadingHandler(mockService)

	userID := uuid.New()
	readingID := uuid.New()

	mockService.On("GetReadingByID", mock.Anything, readingID, userID, false).
		Return(nil, errors.New("reading not found"))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /readings/{reading_id}", readingHandler.GetReadingByID)

	req := httptest.NewRequest("GET", "/readings/"+readingID.String(), nil)
	req = withAuth(req, userID, "PATIENT")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadingHandler_DeleteReading_Success(t *testing.T) {
	mockService := new(MockReadingService)
	readingHandler := handler.NewReadingHandler(mockService)

	userID := uuid.New()
	readingID := uuid.New()

	mockService.On("DeleteReading", mock.Anything, readingID, userID, false).Return(nil)

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /readings/{reading_id}", readingHandler.DeleteReading)

	req := httptest.NewRequest("DELETE", "/readings/"+readingID.String(), nil)
	req = withAuth(req, userID, "PATIENT")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestReadingHandler_DeleteReading_DoctorForbidden(t *testing.T) {
	mockService := new(MockReadingService)
	readingHandler := handler.NewReadingHandler(mockService)

	doctorID := uuid.New()
	readingID := uuid.New()

	mockService.On("DeleteReading", mock.Anything, readingID, doctorID, true).
		Return(errors.New("forbidden: only PATIENT can delete readings"))

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /readings/{reading_id}", readingHandler.DeleteReading)

	req := httptest.NewRequest("DELETE", "/readings/"+readingID.String(), nil)
	req = withAuth(req, doctorID, "DOCTOR")

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
