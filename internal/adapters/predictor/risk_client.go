package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/sony/gobreaker"
)

// RiskClient implements RiskPredictor against the external GDM risk model
// service (HTTP/JSON). Includes retry logic and a circuit breaker so a
// degraded model service cannot stall the API.
type RiskClient struct {
	baseURL    string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	maxRetries int
	retryDelay time.Duration
}

// predictRequest wraps the feature payload the model service expects
type predictRequest struct {
	PatientData domain.RiskFeatures `json:"patientData"`
}

// NewRiskClient creates a new model service client with circuit breaker
func NewRiskClient(baseURL string) *RiskClient {
	settings := gobreaker.Settings{
		Name:        "model-service",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &RiskClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cb:         gobreaker.NewCircuitBreaker(settings),
		maxRetries: 3,
		retryDelay: 1 * time.Second,
	}
}

// Predict submits a clinical profile and returns the model's assessment
func (c *RiskClient) Predict(ctx context.Context, features domain.RiskFeatures) (*domain.RiskAssessment, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.predictWithRetry(ctx, features)
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.RiskAssessment), nil
}

func (c *RiskClient) predictWithRetry(ctx context.Context, features domain.RiskFeatures) (*domain.RiskAssessment, error) {
	body, err := json.Marshal(predictRequest{PatientData: features})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		assessment, err := c.doPredict(ctx, body)
		if err == nil {
			return assessment, nil
		}
		lastErr = err
		log.Printf("Model service request failed (attempt %d/%d): %v", i+1, c.maxRetries, err)

		// Don't retry on context cancellation
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if i < c.maxRetries-1 {
			time.Sleep(c.retryDelay)
		}
	}

	return nil, fmt.Errorf("model service unavailable after %d retries: %w", c.maxRetries, lastErr)
}

func (c *RiskClient) doPredict(ctx context.Context, body []byte) (*domain.RiskAssessment, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("model service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var assessment domain.RiskAssessment
	if err := json.Unmarshal(respBody, &assessment); err != nil {
		return nil, fmt.Errorf("failed to decode model service response: %w", err)
	}

	if assessment.APIResponseTime == 0 {
		assessment.APIResponseTime = int(time.Since(start).Milliseconds())
	}

	return &assessment, nil
}

var _ ports.RiskPredictor = (*RiskClient)(nil)
