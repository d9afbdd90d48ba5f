package domain

import (
	"sort"
	"time"
)

// Severity is the ordinal indicator of clinical urgency.
// Per-category values are none/warning/danger/critical; the report summary
// uses normal instead of none as its floor.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityDanger   Severity = "danger"
	SeverityCritical Severity = "critical"
)

// severityRank orders severities for aggregation: critical > danger > warning
var severityRank = map[Severity]int{
	SeverityNone:     0,
	SeverityNormal:   0,
	SeverityWarning:  1,
	SeverityDanger:   2,
	SeverityCritical: 3,
}

// AlertStatus is the per-category result of the rolling alert analysis
type AlertStatus struct {
	HasAlert       bool       `json:"has_alert"`
	Count          int        `json:"count"`
	LastOccurrence *time.Time `json:"last_occurrence,omitempty"`
	Severity       Severity   `json:"severity"`
}

// AlertSummary aggregates the six categories of an AlertReport
type AlertSummary struct {
	TotalAlerts     int      `json:"total_alerts"`
	HighestSeverity Severity `json:"highest_severity"`
}

// AlertReport is the full result of analyzing a patient's recent readings
// against a threshold set
type AlertReport struct {
	Hyperglycemia         AlertStatus  `json:"hyperglycemia"`
	HyperglycemiaFrequent AlertStatus  `json:"hyperglycemia_frequent"`
	HyperglycemiaMajor    AlertStatus  `json:"hyperglycemia_major"`
	Hypoglycemia          AlertStatus  `json:"hypoglycemia"`
	HypoglycemiaFrequent  AlertStatus  `json:"hypoglycemia_frequent"`
	HypoglycemiaMajor     AlertStatus  `json:"hypoglycemia_major"`
	Summary               AlertSummary `json:"summary"`
}

// AlertWindow is the trailing window the analysis considers.
// A reading exactly this old is still included.
const AlertWindow = 7 * 24 * time.Hour

// AnalyzeGlucoseReadings maps a patient's readings plus a threshold set into a
// structured alert report. Pure and deterministic: no I/O, no retained state,
// safe to call concurrently with distinct inputs. "now" is snapshotted once by
// the caller so repeated calls with identical inputs yield identical output.
//
// Categories are evaluated independently; a single reading may count toward
// several of them at once. Readings with an unknown meal type never match the
// meal-relative hyperglycemia band but still count toward the level-only
// categories.
//
// LastOccurrence is the date of the first matching reading in caller-supplied
// order for every category except hyperglycemia, which sorts its matches
// descending by date and reports the true most recent. Callers feeding this
// function from the reading store supply readings already sorted descending by
// timestamp, so in practice every category reports the most recent occurrence.
func AnalyzeGlucoseReadings(readings []*GlucoseReading, thresholds ThresholdSet, now time.Time) AlertReport {
	cutoff := now.Add(-AlertWindow)

	recent := make([]*GlucoseReading, 0, len(readings))
	for _, r := range readings {
		if !r.Timestamp.Before(cutoff) {
			recent = append(recent, r)
		}
	}

	report := AlertReport{
		Hyperglycemia:         AlertStatus{Severity: SeverityNone},
		HyperglycemiaFrequent: AlertStatus{Severity: SeverityNone},
		HyperglycemiaMajor:    AlertStatus{Severity: SeverityNone},
		Hypoglycemia:          AlertStatus{Severity: SeverityNone},
		HypoglycemiaFrequent:  AlertStatus{Severity: SeverityNone},
		HypoglycemiaMajor:     AlertStatus{Severity: SeverityNone},
		Summary:               AlertSummary{HighestSeverity: SeverityNormal},
	}

	// hyperglycemiaMajor: level at or above the major cutoff, meal-independent
	major := filterReadings(recent, func(r *GlucoseReading) bool {
		return r.Level >= thresholds.HyperglycemiaMajor
	})
	report.HyperglycemiaMajor = categoryStatus(major, SeverityCritical)

	// hyperglycemia: meal-relative warning band below the major cutoff
	hyper := filterReadings(recent, func(r *GlucoseReading) bool {
		if r.Level >= thresholds.HyperglycemiaMajor {
			return false
		}
		if IsBeforeMeal(r.Type) {
			return r.Level >= thresholds.HyperglycemiaBeforeMeal
		}
		if IsAfterMeal(r.Type) {
			return r.Level >= thresholds.HyperglycemiaAfterMeal
		}
		return false
	})
	// This category alone re-sorts its matches most-recent-first
	sort.SliceStable(hyper, func(i, j int) bool {
		return hyper[i].Timestamp.After(hyper[j].Timestamp)
	})
	report.Hyperglycemia = categoryStatus(hyper, SeverityWarning)

	// hyperglycemiaFrequent: union of elevated readings, fires on repetition
	frequentFloor := thresholds.HyperglycemiaBeforeMeal
	if thresholds.HyperglycemiaAfterMeal < frequentFloor {
		frequentFloor = thresholds.HyperglycemiaAfterMeal
	}
	hyperFrequent := filterReadings(recent, func(r *GlucoseReading) bool {
		return r.Level >= frequentFloor
	})
	if len(hyperFrequent) >= thresholds.FrequentThreshold {
		report.HyperglycemiaFrequent = categoryStatus(hyperFrequent, SeverityDanger)
	}

	// hypoglycemiaMajor: level at or below the major low cutoff
	lowMajor := filterReadings(recent, func(r *GlucoseReading) bool {
		return r.Level <= thresholds.HypoglycemiaMajor
	})
	report.HypoglycemiaMajor = categoryStatus(lowMajor, SeverityCritical)

	// hypoglycemia: warning band between the two low cutoffs
	low := filterReadings(recent, func(r *GlucoseReading) bool {
		return r.Level > thresholds.HypoglycemiaMajor && r.Level <= thresholds.Hypoglycemia
	})
	report.Hypoglycemia = categoryStatus(low, SeverityWarning)

	// hypoglycemiaFrequent: any low reading, fires on repetition
	lowFrequent := filterReadings(recent, func(r *GlucoseReading) bool {
		return r.Level <= thresholds.Hypoglycemia
	})
	if len(lowFrequent) >= thresholds.FrequentThreshold {
		report.HypoglycemiaFrequent = categoryStatus(lowFrequent, SeverityDanger)
	}

	report.Summary = summarize(report)
	return report
}

// filterReadings returns the readings matching the predicate, preserving order
func filterReadings(readings []*GlucoseReading, match func(*GlucoseReading) bool) []*GlucoseReading {
	var out []*GlucoseReading
	for _, r := range readings {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

// categoryStatus builds the status for a triggered category from its matches
func categoryStatus(matches []*GlucoseReading, severity Severity) AlertStatus {
	if len(matches) == 0 {
		return AlertStatus{Severity: SeverityNone}
	}
	last := matches[0].Timestamp
	return AlertStatus{
		HasAlert:       true,
		Count:          len(matches),
		LastOccurrence: &last,
		Severity:       severity,
	}
}

// summarize counts triggered categories and picks the highest severity present
func summarize(report AlertReport) AlertSummary {
	summary := AlertSummary{HighestSeverity: SeverityNormal}

	for _, status := range []AlertStatus{
		report.Hyperglycemia,
		report.HyperglycemiaFrequent,
		report.HyperglycemiaMajor,
		report.Hypoglycemia,
		report.HypoglycemiaFrequent,
		report.HypoglycemiaMajor,
	} {
		if !status.HasAlert {
			continue
		}
		summary.TotalAlerts++
		if severityRank[status.Severity] > severityRank[summary.HighestSeverity] {
			summary.HighestSeverity = status.Severity
		}
	}

	return summary
}
