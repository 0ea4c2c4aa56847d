package dashboard

import (
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/JaimeStill/churnstudio/internal/churn"
	"github.com/JaimeStill/churnstudio/internal/operation"
)

// DefaultFormValues returns the values a fresh or reset form starts with.
func DefaultFormValues() churn.FormValues {
	return churn.FormValues{
		churn.FieldAge:            "45",
		churn.FieldGender:         "Female",
		churn.FieldTenure:         "10",
		churn.FieldMonthlyCharges: "70.5",
		churn.FieldContract:       "Month-to-month",
		churn.FieldPaymentMethod:  "Electronic check",
		churn.FieldTotalCharges:   "705.0",
	}
}

// FormState is the single-prediction form as last submitted, including the
// field that failed validation, if any.
type FormState struct {
	Values     churn.FormValues `json:"values"`
	ErrorField string           `json:"error_field,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Value returns the raw value entered for field.
func (f FormState) Value(field string) string {
	return f.Values[field]
}

// Session is one browser's dashboard state. Nothing in a Session is shared
// with any other.
type Session struct {
	ID string

	Single operation.Slot[churn.PredictionResult]
	Batch  operation.Slot[churn.BatchResult]
	Probe  *operation.Probe

	mu       sync.Mutex
	baseURL  string
	form     FormState
	lastSeen time.Time
}

func newSession(id, baseURL string, statusWindow time.Duration) *Session {
	return &Session{
		ID:       id,
		Probe:    operation.NewProbe(statusWindow),
		baseURL:  baseURL,
		form:     FormState{Values: DefaultFormValues()},
		lastSeen: time.Now(),
	}
}

// BaseURL returns the backend address this session calls.
func (s *Session) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseURL
}

func (s *Session) setBaseURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseURL = url
}

// Form returns a copy of the form state.
func (s *Session) Form() FormState {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.form
	f.Values = maps.Clone(s.form.Values)
	return f
}

func (s *Session) setForm(values churn.FormValues, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.form = FormState{Values: maps.Clone(values)}

	var fieldErr *churn.FieldError
	if errors.As(err, &fieldErr) {
		s.form.ErrorField = fieldErr.Field
		s.form.Error = fieldErr.Error()
	}
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// close cancels every call the session has in flight.
func (s *Session) close() {
	s.Single.Reset()
	s.Batch.Reset()
	s.Probe.Stop()
}

// Snapshot is a read of all session state for rendering.
type Snapshot struct {
	SessionID string                                  `json:"session_id"`
	BaseURL   string                                  `json:"base_url"`
	Form      FormState                               `json:"form"`
	Probe     operation.ProbeState                    `json:"probe"`
	Single    operation.State[churn.PredictionResult] `json:"single"`
	Batch     operation.State[churn.BatchResult]      `json:"batch"`
}

// Busy reports whether any operation is still waiting on the backend or
// the connectivity indicator has yet to return to idle.
func (s Snapshot) Busy() bool {
	return s.Single.Busy() || s.Batch.Busy() || s.Probe.Busy()
}
