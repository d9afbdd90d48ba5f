package domain

// RiskFeatures is the clinical profile sent to the external GDM risk model
// service. Field names match the model service's expected feature columns.
type RiskFeatures struct {
	OneHourGlucose            float64 `json:"oneHourGlucose"`
	TwoHourGlucose            float64 `json:"twoHourGlucose"`
	FastingBloodGlucose       float64 `json:"fastingBloodGlucose"`
	BPSystolic                float64 `json:"bpSystolic"`
	BPDiastolic               float64 `json:"bpDiastolic"`
	BMIBaseline               float64 `json:"bmiBaseline"`
	WeightKg                  float64 `json:"weightKg"`
	Height                    float64 `json:"height"`
	WeightGainDuringPregnancy float64 `json:"weightGainDuringPregnancy"`
	PulseHeartRate            float64 `json:"pulseHeartRate"`
	AgeYears                  float64 `json:"ageYears"`
	HypertensiveDisorders     string  `json:"hypertensiveDisorders"`
	TypeOfTreatment           string  `json:"typeOfTreatment"`
	Nationality               string  `json:"nationality"`
}

// RiskAssessment is the model service's prediction result.
// Transient: returned to the caller, never persisted.
type RiskAssessment struct {
	Prediction      string   `json:"prediction"`
	Confidence      float64  `json:"confidence"`
	GDMProbability  float64  `json:"gdm_probability"`
	Factors         []string `json:"factors"`
	ModelVersion    string   `json:"model_version"`
	APIResponseTime int      `json:"apiResponseTime"`
}
