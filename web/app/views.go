package app

import (
	"math"
	"strconv"

	"github.com/JaimeStill/churnstudio/internal/churn"
	"github.com/JaimeStill/churnstudio/internal/dashboard"
	"github.com/JaimeStill/churnstudio/internal/operation"
	"github.com/JaimeStill/churnstudio/pkg/formatting"
	"github.com/JaimeStill/churnstudio/pkg/pagination"
)

const (
	maxDrivers         = 5
	maxRecommendations = 6
)

type option struct {
	Value    string
	Selected bool
}

type fieldView struct {
	Name    string
	Label   string
	Value   string
	Step    string
	Options []option
	Invalid bool
}

type driverView struct {
	Feature     string
	Increases   bool
	Effect      string
	Impact      string
	Explanation string
}

type singleView struct {
	Percent         string
	Width           string
	Risk            string
	RiskLabel       string
	Advice          string
	Drivers         []driverView
	Recommendations []string
}

type kpiView struct {
	Label string
	Value string
	Note  string
}

type segmentView struct {
	Risk  string
	Label string
	Count int
	Rate  string
}

type batchView struct {
	Filename        string
	Message         string
	KPIs            []kpiView
	GlobalRisk      string
	GlobalRiskLabel string
	Segments        []segmentView
	SegmentTotal    int
	Drivers         []driverView
	Recommendations []string
	Columns         []string
	Rows            [][]string
	Page            pagination.PageResult[churn.Row]
	PrevPage        int
	NextPage        int
}

type probeView struct {
	Status  string
	Label   string
	Message string
}

type dashboardView struct {
	BaseURL       string
	SettingsError string
	UploadError   string
	Probe         probeView
	Fields        []fieldView
	FormError     string
	SingleLoading bool
	SingleError   string
	Single        *singleView
	BatchLoading  bool
	BatchError    string
	Batch         *batchView
}

var fieldLabels = map[string]string{
	churn.FieldAge:            "Age",
	churn.FieldGender:         "Gender",
	churn.FieldTenure:         "Tenure (months)",
	churn.FieldMonthlyCharges: "Monthly charges",
	churn.FieldContract:       "Contract",
	churn.FieldPaymentMethod:  "Payment method",
	churn.FieldTotalCharges:   "Total charges",
}

var fieldOptions = map[string][]string{
	churn.FieldGender:        churn.Genders,
	churn.FieldContract:      churn.Contracts,
	churn.FieldPaymentMethod: churn.PaymentMethods,
}

func newDashboardView(snap dashboard.Snapshot, rows pagination.PageRequest) dashboardView {
	v := dashboardView{
		BaseURL:   snap.BaseURL,
		Probe:     newProbeView(snap.Probe),
		Fields:    newFieldViews(snap.Form),
		FormError: snap.Form.Error,
	}

	switch snap.Single.Status {
	case operation.Loading:
		v.SingleLoading = true
	case operation.Failure:
		if snap.Form.Error == "" {
			v.SingleError = snap.Single.Error
		}
	case operation.Success:
		v.Single = newSingleView(*snap.Single.Payload)
	}

	switch snap.Batch.Status {
	case operation.Loading:
		v.BatchLoading = true
	case operation.Failure:
		v.BatchError = snap.Batch.Error
	case operation.Success:
		v.Batch = newBatchView(*snap.Batch.Payload, rows)
	}

	return v
}

func newProbeView(s operation.ProbeState) probeView {
	v := probeView{Status: string(s.Status), Message: s.Message}
	switch s.Status {
	case operation.ProbeTesting:
		v.Label = "Testing…"
	case operation.ProbeSuccess:
		v.Label = "Connected"
	case operation.ProbeError:
		v.Label = "Unreachable"
	default:
		v.Label = "Not checked"
	}
	return v
}

func newFieldViews(form dashboard.FormState) []fieldView {
	fields := make([]fieldView, 0, len(churn.FieldOrder))
	for _, name := range churn.FieldOrder {
		f := fieldView{
			Name:    name,
			Label:   fieldLabels[name],
			Value:   form.Value(name),
			Invalid: form.ErrorField == name,
		}

		switch name {
		case churn.FieldAge, churn.FieldTenure:
			f.Step = "1"
		case churn.FieldMonthlyCharges, churn.FieldTotalCharges:
			f.Step = "0.01"
		}

		for _, opt := range fieldOptions[name] {
			f.Options = append(f.Options, option{Value: opt, Selected: opt == f.Value})
		}
		fields = append(fields, f)
	}
	return fields
}

func newSingleView(r churn.PredictionResult) *singleView {
	return &singleView{
		Percent:         formatting.Percent(r.Probability, 1),
		Width:           formatting.Decimal(r.Probability*100, 1),
		Risk:            string(r.RiskLevel),
		RiskLabel:       r.RiskLevel.Label(),
		Advice:          advice(r.Probability),
		Drivers:         newDriverViews(r.TopDrivers),
		Recommendations: r.Recommendations,
	}
}

// advice returns the guidance line for a churn probability band.
func advice(p float64) string {
	switch {
	case p < 0.3:
		return "Low churn risk. Consolidate the relationship."
	case p < 0.7:
		return "This customer needs attention. Consider a proactive approach."
	default:
		return "High risk! Immediate intervention is recommended."
	}
}

func newDriverViews(drivers []churn.Driver) []driverView {
	drivers = drivers[:min(len(drivers), maxDrivers)]

	out := make([]driverView, 0, len(drivers))
	for _, d := range drivers {
		v := driverView{
			Feature:     d.Feature,
			Increases:   d.Direction == churn.Increases,
			Impact:      formatting.Decimal(math.Abs(d.ShapValue), 3),
			Explanation: d.HumanExplanation,
		}
		if v.Increases {
			v.Effect = "Increases risk"
		} else {
			v.Effect = "Reduces risk"
		}
		out = append(out, v)
	}
	return out
}

func newBatchView(r churn.BatchResult, rows pagination.PageRequest) *batchView {
	v := &batchView{
		Filename: r.Filename,
		Message:  r.Message,
		Columns:  r.Columns,
		Page:     pagination.Slice(r.Rows, rows),
	}
	v.PrevPage = v.Page.Page - 1
	v.NextPage = v.Page.Page + 1

	for _, row := range v.Page.Data {
		cells := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			cells[i] = row.Cell(col)
		}
		v.Rows = append(v.Rows, cells)
	}

	switch {
	case r.Insights != nil:
		in := r.Insights
		v.KPIs = []kpiView{
			{Label: "Customers analyzed", Value: strconv.Itoa(in.NRows)},
			{Label: "Average probability", Value: formatting.Percent(in.ProbabilityMean, 1)},
			{Label: "High-risk customers", Value: strconv.Itoa(in.HighRiskCount), Note: formatting.Percent(in.HighRiskRate, 1) + " of total"},
		}
		v.GlobalRisk = string(in.RiskLevelGlobal)
		v.GlobalRiskLabel = in.RiskLevelGlobal.Label()
		v.Segments = []segmentView{
			{Risk: string(churn.RiskHigh), Label: "High", Count: in.Segments.High.Count, Rate: formatting.Percent(in.Segments.High.Rate, 1)},
			{Risk: string(churn.RiskMedium), Label: "Medium", Count: in.Segments.Medium.Count, Rate: formatting.Percent(in.Segments.Medium.Rate, 1)},
			{Risk: string(churn.RiskLow), Label: "Low", Count: in.Segments.Low.Count, Rate: formatting.Percent(in.Segments.Low.Rate, 1)},
		}
		v.SegmentTotal = in.Segments.Total()
		v.Drivers = newDriverViews(in.GlobalTopDrivers)
		v.Recommendations = in.Recommendations[:min(len(in.Recommendations), maxRecommendations)]
	case r.Summary != nil:
		v.KPIs = []kpiView{
			{Label: "Rows predicted", Value: strconv.Itoa(r.RowCount)},
			{Label: "Average probability", Value: formatting.Percent(r.Summary.AvgProbability, 1)},
			{Label: "High-risk customers", Value: strconv.Itoa(r.Summary.HighRiskCount), Note: formatting.Percent(r.Summary.HighRiskRate, 1) + " of total"},
		}
	}

	return v
}
