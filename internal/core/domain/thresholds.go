package domain

// ThresholdSet holds the per-patient knobs for the rolling alert analysis.
// All glucose values are mg/dL; FrequentThreshold is an occurrence count.
// No ordering between the hyper/hypo pairs is enforced here: degenerate
// configurations simply produce always- or never-triggering categories, and
// validation belongs to the configuration entry layer.
type ThresholdSet struct {
	HyperglycemiaBeforeMeal float64 `json:"hyperglycemia_before_meal"`
	HyperglycemiaAfterMeal  float64 `json:"hyperglycemia_after_meal"`
	HyperglycemiaMajor      float64 `json:"hyperglycemia_major"`
	Hypoglycemia            float64 `json:"hypoglycemia"`
	HypoglycemiaMajor       float64 `json:"hypoglycemia_major"`
	FrequentThreshold       int     `json:"frequent_threshold"`
}

// DefaultThresholds returns the documented default threshold set.
// Callers get a fresh value each time; there is no shared mutable default.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		HyperglycemiaBeforeMeal: 95,
		HyperglycemiaAfterMeal:  140,
		HyperglycemiaMajor:      180,
		Hypoglycemia:            70,
		HypoglycemiaMajor:       54,
		FrequentThreshold:       3,
	}
}
