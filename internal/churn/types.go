// Package churn speaks to the remote churn-prediction service: it coerces
// form input into a CustomerRecord, issues the health, explain, and CSV batch
// calls, and normalizes loosely shaped responses into fully defaulted
// view-models.
package churn

import "strings"

// RiskLevel is the three-tier churn risk classification.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ParseRiskLevel accepts the English tiers and the backend's French batch
// labels (FAIBLE, MOYEN, ÉLEVÉ), case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW", "FAIBLE":
		return RiskLow, true
	case "MEDIUM", "MOYEN":
		return RiskMedium, true
	case "HIGH", "ÉLEVÉ", "ELEVE":
		return RiskHigh, true
	}
	return "", false
}

// Label returns a display label for the tier.
func (r RiskLevel) Label() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskHigh:
		return "High"
	default:
		return "Medium"
	}
}

// Direction states whether a driver pushes churn probability up or down.
type Direction string

const (
	Increases Direction = "increases"
	Decreases Direction = "decreases"
)

// Enumerated values accepted by the backend for the select fields.
var (
	Genders        = []string{"Female", "Male"}
	Contracts      = []string{"Month-to-month", "One year", "Two year"}
	PaymentMethods = []string{"Electronic check", "Mailed check", "Bank transfer", "Credit card"}
)

// CustomerRecord is the coerced request body for /explain.
type CustomerRecord struct {
	Age            int     `json:"Age"`
	Gender         string  `json:"Gender"`
	Tenure         int     `json:"Tenure"`
	MonthlyCharges float64 `json:"MonthlyCharges"`
	Contract       string  `json:"Contract"`
	PaymentMethod  string  `json:"PaymentMethod"`
	TotalCharges   float64 `json:"TotalCharges"`
}

// Driver is one feature's signed contribution to a prediction.
type Driver struct {
	Feature          string    `json:"feature"`
	Direction        Direction `json:"direction"`
	ShapValue        float64   `json:"shap_value"`
	HumanExplanation string    `json:"human_explanation"`
}

// PredictionResult is the normalized single-customer explanation.
type PredictionResult struct {
	Probability     float64   `json:"probability"`
	RiskLevel       RiskLevel `json:"risk_level"`
	Churn           bool      `json:"churn"`
	TopDrivers      []Driver  `json:"top_drivers"`
	Recommendations []string  `json:"recommendations"`
}

// SegmentStats is the count and share of rows in one risk tier.
type SegmentStats struct {
	Count int     `json:"count"`
	Rate  float64 `json:"rate"`
}

// Segments breaks a batch down by risk tier.
type Segments struct {
	High   SegmentStats `json:"high"`
	Medium SegmentStats `json:"medium"`
	Low    SegmentStats `json:"low"`
}

// Total sums the tier counts. It is displayed next to NRows and never
// reconciled against it.
func (s Segments) Total() int {
	return s.High.Count + s.Medium.Count + s.Low.Count
}

// BatchInsights summarizes one CSV batch as reported by the backend.
type BatchInsights struct {
	NRows            int       `json:"n_rows"`
	ProbabilityMean  float64   `json:"probability_mean"`
	HighRiskCount    int       `json:"high_risk_count"`
	HighRiskRate     float64   `json:"high_risk_rate"`
	RiskLevelGlobal  RiskLevel `json:"risk_level_global"`
	Segments         Segments  `json:"segments"`
	GlobalTopDrivers []Driver  `json:"global_top_drivers"`
	Recommendations  []string  `json:"recommendations"`
}

// BatchSummary is the backend's compact summary block.
type BatchSummary struct {
	AvgProbability float64 `json:"avg_probability"`
	HighRiskCount  int     `json:"high_risk_count"`
	HighRiskRate   float64 `json:"high_risk_rate"`
}

// Row is one predicted CSV row as returned by the backend.
type Row map[string]any

// BatchResult is the normalized response of a CSV batch prediction.
// Insights is nil when the backend did not report a numeric n_rows.
type BatchResult struct {
	Filename string         `json:"filename,omitempty"`
	RowCount int            `json:"row_count"`
	Columns  []string       `json:"columns"`
	Rows     []Row          `json:"rows"`
	Summary  *BatchSummary  `json:"summary,omitempty"`
	Insights *BatchInsights `json:"insights,omitempty"`
	Message  string         `json:"message"`
}

// CSVFile is a batch upload held in memory.
type CSVFile struct {
	Name string
	Data []byte
}
