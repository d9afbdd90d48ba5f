package domain

import (
	"time"

	"github.com/google/uuid"
)

// MealType tags a glucose reading relative to one of the three main meals
type MealType string

const (
	MealBeforeBreakfast MealType = "BEFORE_BREAKFAST"
	MealAfterBreakfast  MealType = "AFTER_BREAKFAST"
	MealBeforeLunch     MealType = "BEFORE_LUNCH"
	MealAfterLunch      MealType = "AFTER_LUNCH"
	MealBeforeDinner    MealType = "BEFORE_DINNER"
	MealAfterDinner     MealType = "AFTER_DINNER"
)

// ReadingStatus represents the single-reading display status
type ReadingStatus string

const (
	ReadingStatusNormal   ReadingStatus = "NORMAL"   // Within target range
	ReadingStatusElevated ReadingStatus = "ELEVATED" // Slightly above target
	ReadingStatusHigh     ReadingStatus = "HIGH"     // Abnormal, flagged to the doctor
)

// GlucoseReading represents one logged glucose measurement for a patient
// Level is in mg/dL; Status is stamped at creation via CalculateReadingStatus
type GlucoseReading struct {
	ID        uuid.UUID     `json:"id"`
	PatientID uuid.UUID     `json:"patient_id"`
	Level     float64       `json:"level"`
	Type      MealType      `json:"type"`
	Note      string        `json:"note"`
	Status    ReadingStatus `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	CreatedAt time.Time     `json:"created_at"`
}

// ValidMealTypes returns a slice of valid meal-relative reading types
func ValidMealTypes() []MealType {
	return []MealType{
		MealBeforeBreakfast,
		MealAfterBreakfast,
		MealBeforeLunch,
		MealAfterLunch,
		MealBeforeDinner,
		MealAfterDinner,
	}
}

// IsValidMealType checks if a reading type is one of the six meal-relative categories
func IsValidMealType(mealType MealType) bool {
	for _, t := range ValidMealTypes() {
		if t == mealType {
			return true
		}
	}
	return false
}

// IsBeforeMeal reports whether the type is a pre-meal reading.
// Unknown types return false and fall through to the after-meal cutoffs.
func IsBeforeMeal(mealType MealType) bool {
	switch mealType {
	case MealBeforeBreakfast, MealBeforeLunch, MealBeforeDinner:
		return true
	}
	return false
}

// IsAfterMeal reports whether the type is a post-meal reading
func IsAfterMeal(mealType MealType) bool {
	switch mealType {
	case MealAfterBreakfast, MealAfterLunch, MealAfterDinner:
		return true
	}
	return false
}

// Fixed single-reading display cutoffs in mg/dL. These are independent of the
// per-patient ThresholdSet used by the rolling alert analysis.
const (
	BeforeMealNormalMax   = 95.0
	BeforeMealElevatedMax = 105.0
	AfterMealNormalMax    = 140.0
	AfterMealElevatedMax  = 160.0
)

// CalculateReadingStatus classifies a single reading for display purposes.
// Before-meal readings: <=95 NORMAL, <=105 ELEVATED, else HIGH.
// After-meal and any other type: <=140 NORMAL, <=160 ELEVATED, else HIGH.
func CalculateReadingStatus(level float64, mealType MealType) ReadingStatus {
	if IsBeforeMeal(mealType) {
		if level <= BeforeMealNormalMax {
			return ReadingStatusNormal
		}
		if level <= BeforeMealElevatedMax {
			return ReadingStatusElevated
		}
		return ReadingStatusHigh
	}

	if level <= AfterMealNormalMax {
		return ReadingStatusNormal
	}
	if level <= AfterMealElevatedMax {
		return ReadingStatusElevated
	}
	return ReadingStatusHigh
}

// ReadingMaxLevel is the upper bound accepted at entry (mg/dL).
// The alert analysis itself performs no validation.
const ReadingMaxLevel = 600.0

// IsAbnormalReading checks if a reading requires an alert (HIGH status)
func IsAbnormalReading(r *GlucoseReading) bool {
	return r.Status == ReadingStatusHigh
}
