package churn

import (
	"errors"
	"fmt"
	"math"

	"github.com/JaimeStill/churnstudio/pkg/formatting"
)

// Field names, in form order.
const (
	FieldAge            = "Age"
	FieldGender         = "Gender"
	FieldTenure         = "Tenure"
	FieldMonthlyCharges = "MonthlyCharges"
	FieldContract       = "Contract"
	FieldPaymentMethod  = "PaymentMethod"
	FieldTotalCharges   = "TotalCharges"
)

// FieldOrder lists every CustomerRecord field in form order.
var FieldOrder = []string{
	FieldAge,
	FieldGender,
	FieldTenure,
	FieldMonthlyCharges,
	FieldContract,
	FieldPaymentMethod,
	FieldTotalCharges,
}

// Reasons a numeric field is rejected.
var (
	ErrFieldRequired   = errors.New("is required")
	ErrFieldNotNumber  = errors.New("must contain a valid number")
	ErrFieldNotInteger = errors.New("must be an integer")
	ErrFieldNegative   = errors.New("must not be negative")
	ErrFieldTooLarge   = errors.New("is too large")
)

// FieldError reports which form field failed coercion and why.
type FieldError struct {
	Field  string
	Reason error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("Field %q %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Reason
}

// FormValues is raw form input keyed by field name.
type FormValues map[string]string

// ParseCustomer coerces raw form input into a CustomerRecord. Numeric
// fields are checked in form order and the first failure is returned as a
// *FieldError. Select fields pass through unchanged; the backend decides
// whether they are acceptable.
func ParseCustomer(values FormValues) (CustomerRecord, error) {
	var rec CustomerRecord
	var err error

	if rec.Age, err = parseInt(values, FieldAge); err != nil {
		return CustomerRecord{}, err
	}
	rec.Gender = values[FieldGender]
	if rec.Tenure, err = parseInt(values, FieldTenure); err != nil {
		return CustomerRecord{}, err
	}
	if rec.MonthlyCharges, err = parseFloat(values, FieldMonthlyCharges); err != nil {
		return CustomerRecord{}, err
	}
	rec.Contract = values[FieldContract]
	rec.PaymentMethod = values[FieldPaymentMethod]
	if rec.TotalCharges, err = parseFloat(values, FieldTotalCharges); err != nil {
		return CustomerRecord{}, err
	}

	return rec, nil
}

func parseFloat(values FormValues, field string) (float64, error) {
	v, err := formatting.ParseDecimal(values[field])
	switch {
	case errors.Is(err, formatting.ErrEmptyNumber):
		return 0, &FieldError{Field: field, Reason: ErrFieldRequired}
	case err != nil:
		return 0, &FieldError{Field: field, Reason: ErrFieldNotNumber}
	case v < 0:
		return 0, &FieldError{Field: field, Reason: ErrFieldNegative}
	}
	return v, nil
}

func parseInt(values FormValues, field string) (int, error) {
	v, err := parseFloat(values, field)
	if err != nil {
		return 0, err
	}
	if !formatting.IsIntegral(v) {
		return 0, &FieldError{Field: field, Reason: ErrFieldNotInteger}
	}
	if v > math.MaxInt32 {
		return 0, &FieldError{Field: field, Reason: ErrFieldTooLarge}
	}
	return int(v), nil
}
