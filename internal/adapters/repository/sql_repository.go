package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gdmtrack/monitoring-service/internal/core/domain"
	"github.com/gdmtrack/monitoring-service/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
)

// SQLRepository implements PatientRepository, ReadingRepository and
// ThresholdRepository using PostgreSQL.
// Includes retry logic and circuit breakers for resilience.
type SQLRepository struct {
	db          *sql.DB
	patientCB   *gobreaker.CircuitBreaker
	readingCB   *gobreaker.CircuitBreaker
	thresholdCB *gobreaker.CircuitBreaker
	maxRetries  int
	retryDelay  time.Duration
}

// NewSQLRepository creates a new PostgreSQL repository with circuit breakers
func NewSQLRepository(db *sql.DB) *SQLRepository {
	settings := gobreaker.Settings{
		Name:        "database",
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	}

	return &SQLRepository{
		db:          db,
		patientCB:   gobreaker.NewCircuitBreaker(settings),
		readingCB:   gobreaker.NewCircuitBreaker(settings),
		thresholdCB: gobreaker.NewCircuitBreaker(settings),
		maxRetries:  3,
		retryDelay:  1 * time.Second,
	}
}

// executeWithRetry executes a database operation with retry logic
func (r *SQLRepository) executeWithRetry(ctx context.Context, operation func() error) error {
	var lastErr error
	for i := 0; i < r.maxRetries; i++ {
		err := operation()
		if err == nil {
			return nil
		}
		lastErr = err
		// sql.ErrNoRows is not transient, don't retry it
		if errors.Is(err, sql.ErrNoRows) ||
			strings.Contains(strings.ToLower(err.Error()), "no rows") {
			return err
		}
		if i < r.maxRetries-1 {
			time.Sleep(r.retryDelay)
		}
	}
	return fmt.Errorf("operation failed after %d retries: %w", r.maxRetries, lastErr)
}

// PatientRepository implementation

func (r *SQLRepository) CreatePatient(ctx context.Context, patient *domain.Patient) error {
	_, err := r.patientCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO patients (id, user_id, first_name, last_name, doctor_user_id, due_date, pregnancy_week, onboarding_completed, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
			_, err := r.db.ExecContext(ctx, query,
				patient.ID, patient.UserID, patient.FirstName, patient.LastName,
				patient.DoctorUserID, patient.DueDate, patient.PregnancyWeek,
				patient.OnboardingCompleted, patient.CreatedAt)
			return err
		})
	})
	return err
}

func (r *SQLRepository) GetPatientByID(ctx context.Context, patientID uuid.UUID) (*domain.Patient, error) {
	result, err := r.patientCB.Execute(func() (interface{}, error) {
		var patient domain.Patient
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, user_id, first_name, last_name, doctor_user_id, due_date, pregnancy_week, onboarding_completed, created_at
				FROM patients WHERE id = $1`
			row := r.db.QueryRowContext(ctx, query, patientID)
			return scanPatient(row, &patient)
		})
		if err != nil {
			return nil, err
		}
		return &patient, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient not found")
		}
		return nil, err
	}

	return result.(*domain.Patient), nil
}

func (r *SQLRepository) GetPatientByUserID(ctx context.Context, userID uuid.UUID) (*domain.Patient, error) {
	result, err := r.patientCB.Execute(func() (interface{}, error) {
		var patient domain.Patient
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, user_id, first_name, last_name, doctor_user_id, due_date, pregnancy_week, onboarding_completed, created_at
				FROM patients WHERE user_id = $1`
			row := r.db.QueryRowContext(ctx, query, userID)
			return scanPatient(row, &patient)
		})
		if err != nil {
			return nil, err
		}
		return &patient, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("patient not found")
		}
		return nil, err
	}

	return result.(*domain.Patient), nil
}

func (r *SQLRepository) ListPatients(ctx context.Context, userID uuid.UUID, isDoctor bool) ([]*domain.Patient, error) {
	result, err := r.patientCB.Execute(func() (interface{}, error) {
		var patients []*domain.Patient
		err := r.executeWithRetry(ctx, func() error {
			var rows *sql.Rows
			var queryErr error

			if isDoctor {
				// DOCTOR sees all patients
				rows, queryErr = r.db.QueryContext(ctx,
					`SELECT id, user_id, first_name, last_name, doctor_user_id, due_date, pregnancy_week, onboarding_completed, created_at
					FROM patients ORDER BY created_at DESC`)
			} else {
				// PATIENT sees only her own record
				rows, queryErr = r.db.QueryContext(ctx,
					`SELECT id, user_id, first_name, last_name, doctor_user_id, due_date, pregnancy_week, onboarding_completed, created_at
					FROM patients WHERE user_id = $1 ORDER BY created_at DESC`, userID)
			}

			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				var patient domain.Patient
				if err := scanPatient(rows, &patient); err != nil {
					return err
				}
				patients = append(patients, &patient)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return patients, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.Patient), nil
}

func (r *SQLRepository) PatientExists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	result, err := r.patientCB.Execute(func() (interface{}, error) {
		var exists bool
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1)`
			return r.db.QueryRowContext(ctx, query, patientID).Scan(&exists)
		})
		if err != nil {
			return false, err
		}
		return exists, nil
	})

	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (r *SQLRepository) CheckPatientOwnership(ctx context.Context, patientID uuid.UUID, userID uuid.UUID) (bool, error) {
	result, err := r.patientCB.Execute(func() (interface{}, error) {
		var owned bool
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT EXISTS(SELECT 1 FROM patients WHERE id = $1 AND user_id = $2)`
			return r.db.QueryRowContext(ctx, query, patientID, userID).Scan(&owned)
		})
		if err != nil {
			return false, err
		}
		return owned, nil
	})

	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

func (r *SQLRepository) UpdateProfile(ctx context.Context, patientID uuid.UUID, firstName, lastName string, dueDate *time.Time, pregnancyWeek int, onboardingCompleted bool) error {
	_, err := r.patientCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `UPDATE patients
				SET first_name = $2, last_name = $3, due_date = $4, pregnancy_week = $5, onboarding_completed = $6
				WHERE id = $1`
			res, err := r.db.ExecContext(ctx, query, patientID, firstName, lastName, dueDate, pregnancyWeek, onboardingCompleted)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("patient not found")
			}
			return nil
		})
	})
	return err
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row scanner, patient *domain.Patient) error {
	return row.Scan(
		&patient.ID, &patient.UserID, &patient.FirstName, &patient.LastName,
		&patient.DoctorUserID, &patient.DueDate, &patient.PregnancyWeek,
		&patient.OnboardingCompleted, &patient.CreatedAt)
}

// ReadingRepository implementation

func (r *SQLRepository) CreateReading(ctx context.Context, reading *domain.GlucoseReading) error {
	_, err := r.readingCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO glucose_readings (id, patient_id, level, type, note, status, timestamp, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
			_, err := r.db.ExecContext(ctx, query,
				reading.ID, reading.PatientID, reading.Level, string(reading.Type),
				reading.Note, string(reading.Status), reading.Timestamp, reading.CreatedAt)
			return err
		})
	})
	return err
}

func (r *SQLRepository) GetReadingsByPatientID(ctx context.Context, patientID uuid.UUID, mealType *string, limit *int) ([]*domain.GlucoseReading, error) {
	result, err := r.readingCB.Execute(func() (interface{}, error) {
		var readings []*domain.GlucoseReading
		err := r.executeWithRetry(ctx, func() error {
			// Descending by timestamp: the alert analysis depends on this order
			query := `SELECT id, patient_id, level, type, note, status, timestamp, created_at
				FROM glucose_readings WHERE patient_id = $1`
			args := []interface{}{patientID}

			if mealType != nil {
				args = append(args, *mealType)
				query += fmt.Sprintf(" AND type = $%d", len(args))
			}
			query += " ORDER BY timestamp DESC"
			if limit != nil {
				args = append(args, *limit)
				query += fmt.Sprintf(" LIMIT $%d", len(args))
			}

			rows, queryErr := r.db.QueryContext(ctx, query, args...)
			if queryErr != nil {
				return queryErr
			}
			defer rows.Close()

			for rows.Next() {
				var reading domain.GlucoseReading
				if err := rows.Scan(
					&reading.ID, &reading.PatientID, &reading.Level, &reading.Type,
					&reading.Note, &reading.Status, &reading.Timestamp, &reading.CreatedAt); err != nil {
					return err
				}
				readings = append(readings, &reading)
			}

			return rows.Err()
		})
		if err != nil {
			return nil, err
		}
		return readings, nil
	})

	if err != nil {
		return nil, err
	}

	return result.([]*domain.GlucoseReading), nil
}

func (r *SQLRepository) GetReadingByID(ctx context.Context, readingID uuid.UUID) (*domain.GlucoseReading, error) {
	result, err := r.readingCB.Execute(func() (interface{}, error) {
		var reading domain.GlucoseReading
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT id, patient_id, level, type, note, status, timestamp, created_at
				FROM glucose_readings WHERE id = $1`
			row := r.db.QueryRowContext(ctx, query, readingID)
			return row.Scan(
				&reading.ID, &reading.PatientID, &reading.Level, &reading.Type,
				&reading.Note, &reading.Status, &reading.Timestamp, &reading.CreatedAt)
		})
		if err != nil {
			return nil, err
		}
		return &reading, nil
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reading not found")
		}
		return nil, err
	}

	return result.(*domain.GlucoseReading), nil
}

func (r *SQLRepository) DeleteReading(ctx context.Context, readingID uuid.UUID, patientID uuid.UUID) error {
	_, err := r.readingCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `DELETE FROM glucose_readings WHERE id = $1 AND patient_id = $2`
			res, err := r.db.ExecContext(ctx, query, readingID, patientID)
			if err != nil {
				return err
			}
			affected, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if affected == 0 {
				return fmt.Errorf("reading not found")
			}
			return nil
		})
	})
	return err
}

// ThresholdRepository implementation

func (r *SQLRepository) GetThresholds(ctx context.Context, patientID uuid.UUID) (*domain.ThresholdSet, error) {
	result, err := r.thresholdCB.Execute(func() (interface{}, error) {
		var thresholds domain.ThresholdSet
		err := r.executeWithRetry(ctx, func() error {
			query := `SELECT hyperglycemia_before_meal, hyperglycemia_after_meal, hyperglycemia_major, hypoglycemia, hypoglycemia_major, frequent_threshold
				FROM alert_thresholds WHERE patient_id = $1`
			row := r.db.QueryRowContext(ctx, query, patientID)
			return row.Scan(
				&thresholds.HyperglycemiaBeforeMeal, &thresholds.HyperglycemiaAfterMeal,
				&thresholds.HyperglycemiaMajor, &thresholds.Hypoglycemia,
				&thresholds.HypoglycemiaMajor, &thresholds.FrequentThreshold)
		})
		if err != nil {
			return nil, err
		}
		return &thresholds, nil
	})

	if err != nil {
		// No stored set is not an error: callers substitute the defaults
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return result.(*domain.ThresholdSet), nil
}

func (r *SQLRepository) SaveThresholds(ctx context.Context, patientID uuid.UUID, thresholds domain.ThresholdSet) error {
	_, err := r.thresholdCB.Execute(func() (interface{}, error) {
		return nil, r.executeWithRetry(ctx, func() error {
			query := `INSERT INTO alert_thresholds (patient_id, hyperglycemia_before_meal, hyperglycemia_after_meal, hyperglycemia_major, hypoglycemia, hypoglycemia_major, frequent_threshold, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, now())
				ON CONFLICT (patient_id) DO UPDATE SET
					hyperglycemia_before_meal = EXCLUDED.hyperglycemia_before_meal,
					hyperglycemia_after_meal = EXCLUDED.hyperglycemia_after_meal,
					hyperglycemia_major = EXCLUDED.hyperglycemia_major,
					hypoglycemia = EXCLUDED.hypoglycemia,
					hypoglycemia_major = EXCLUDED.hypoglycemia_major,
					frequent_threshold = EXCLUDED.frequent_threshold,
					updated_at = now()`
			_, err := r.db.ExecContext(ctx, query, patientID,
				thresholds.HyperglycemiaBeforeMeal, thresholds.HyperglycemiaAfterMeal,
				thresholds.HyperglycemiaMajor, thresholds.Hypoglycemia,
				thresholds.HypoglycemiaMajor, thresholds.FrequentThreshold)
			return err
		})
	})
	return err
}

// Interface assertions
var (
	_ ports.PatientRepository   = (*SQLRepository)(nil)
	_ ports.ReadingRepository   = (*SQLRepository)(nil)
	_ ports.ThresholdRepository = (*SQLRepository)(nil)
)
