package churn

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// DetailSeparator joins the messages of a validation-error detail list.
const DetailSeparator = "; "

// Preferred column order for batch rows; unknown columns follow alphabetically.
var rowColumnOrder = []string{
	"Customer ID",
	"churn_probability",
	"churn_risk_percent",
	"risk_level",
	"Contract",
	"Tenure",
	"MonthlyCharges",
	"PaymentMethod",
	"TotalCharges",
}

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// DecodeObject parses data as a JSON object. Anything else, including a
// valid non-object JSON value, is an error.
func DecodeObject(data []byte) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if body == nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrMalformedResponse)
	}
	return body, nil
}

// NormalizePrediction maps an /explain response body to a PredictionResult.
// It never fails: absent or malformed fields take their defaults.
func NormalizePrediction(body map[string]any) PredictionResult {
	level, ok := ParseRiskLevel(text(body["risk_level"]))
	if !ok {
		level = RiskMedium
	}

	return PredictionResult{
		Probability:     clamp01(number(body["probability"])),
		RiskLevel:       level,
		Churn:           truthy(body["churn"]),
		TopDrivers:      drivers(body["top_drivers"]),
		Recommendations: stringList(body["recommendations"]),
	}
}

// NormalizeBatch maps a /predict-csv response body to a BatchResult.
// Rows come from "rows", falling back to "predictions". Insights are built
// only when the body carries a numeric "n_rows".
func NormalizeBatch(body map[string]any) BatchResult {
	rows := rowList(body["rows"])
	if rows == nil {
		rows = rowList(body["predictions"])
	}
	if rows == nil {
		rows = []Row{}
	}

	result := BatchResult{
		Filename: text(body["filename"]),
		Rows:     rows,
		Columns:  columns(rows),
	}

	if isNumber(body["row_count"]) {
		result.RowCount = integer(body["row_count"])
	} else {
		result.RowCount = len(rows)
	}
	result.Message = fmt.Sprintf("Prediction done. %d rows predicted.", result.RowCount)

	if summary, ok := body["summary"].(map[string]any); ok {
		result.Summary = &BatchSummary{
			AvgProbability: number(summary["avg_probability"]),
			HighRiskCount:  integer(summary["high_risk_count"]),
			HighRiskRate:   number(summary["high_risk_rate"]),
		}
	}

	if isNumber(body["n_rows"]) {
		insights := normalizeInsights(body)
		result.Insights = &insights
	}

	return result
}

func normalizeInsights(body map[string]any) BatchInsights {
	level, ok := ParseRiskLevel(text(body["risk_level_global"]))
	if !ok {
		level = RiskLow
	}

	return BatchInsights{
		NRows:            integer(body["n_rows"]),
		ProbabilityMean:  number(body["probability_mean"]),
		HighRiskCount:    integer(body["high_risk_count"]),
		HighRiskRate:     number(body["high_risk_rate"]),
		RiskLevelGlobal:  level,
		Segments:         segments(body["segments"]),
		GlobalTopDrivers: drivers(body["global_top_drivers"]),
		Recommendations:  stringList(body["recommendations"]),
	}
}

// ErrorMessage extracts a display message from a failed-response body.
// A non-empty string detail is used verbatim; a detail list is flattened to
// each item's "msg" (or its JSON text) joined by DetailSeparator; otherwise
// fallback is returned.
func ErrorMessage(body map[string]any, fallback string) string {
	switch detail := body["detail"].(type) {
	case string:
		if strings.TrimSpace(detail) != "" {
			return detail
		}
	case []any:
		parts := make([]string, 0, len(detail))
		for _, item := range detail {
			if obj, ok := item.(map[string]any); ok {
				if msg, ok := obj["msg"].(string); ok {
					parts = append(parts, msg)
					continue
				}
			}
			parts = append(parts, stringify(item))
		}
		if len(parts) > 0 {
			return strings.Join(parts, DetailSeparator)
		}
	}
	return fallback
}

func drivers(v any) []Driver {
	items, ok := v.([]any)
	if !ok {
		return []Driver{}
	}

	out := make([]Driver, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}

		shap := number(obj["shap_value"])
		direction := Direction(strings.ToLower(text(obj["direction"])))
		if direction != Increases && direction != Decreases {
			direction = Increases
			if shap < 0 {
				direction = Decreases
			}
		}

		out = append(out, Driver{
			Feature:          sanitize(text(obj["feature"])),
			Direction:        direction,
			ShapValue:        shap,
			HumanExplanation: sanitize(text(obj["human_explanation"])),
		})
	}
	return out
}

func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			s = stringify(item)
		}
		if s = sanitize(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func segments(v any) Segments {
	obj, _ := v.(map[string]any)
	return Segments{
		High:   segment(obj["high"]),
		Medium: segment(obj["medium"]),
		Low:    segment(obj["low"]),
	}
}

func segment(v any) SegmentStats {
	obj, _ := v.(map[string]any)
	return SegmentStats{
		Count: integer(obj["count"]),
		Rate:  number(obj["rate"]),
	}
}

func rowList(v any) []Row {
	items, ok := v.([]any)
	if !ok {
		return nil
	}

	out := make([]Row, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, Row(obj))
		}
	}
	return out
}

func columns(rows []Row) []string {
	if len(rows) == 0 {
		return []string{}
	}

	first := rows[0]
	cols := make([]string, 0, len(first))
	for _, name := range rowColumnOrder {
		if _, ok := first[name]; ok {
			cols = append(cols, name)
		}
	}

	var rest []string
	for name := range first {
		if !slices.Contains(rowColumnOrder, name) {
			rest = append(rest, name)
		}
	}
	slices.Sort(rest)

	return append(cols, rest...)
}

// Cell renders a row value for display. Missing and null values are empty.
func (r Row) Cell(column string) string {
	v, ok := r[column]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return stringify(t)
	}
}

// number coerces v the way a loose numeric conversion would: numbers pass
// through, numeric strings parse, booleans map to 1/0, everything else and
// every non-finite result is 0.
func number(v any) float64 {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case json.Number:
		f, _ = t.Float64()
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if t {
			return 1
		}
		return 0
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func integer(v any) int {
	return int(math.Round(number(v)))
}

func isNumber(v any) bool {
	switch v.(type) {
	case float64, json.Number:
		return true
	}
	return false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}

func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return stringify(t)
	}
}

func stringify(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func clamp01(f float64) float64 {
	return math.Min(1, math.Max(0, f))
}

// sanitize strips markup from backend-provided text. The strict policy
// escapes entities, so the result is unescaped back to plain text and left
// for html/template to escape on output.
func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(policy().Sanitize(s)))
}

func policy() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
