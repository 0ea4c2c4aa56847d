package formatting

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// Errors returned by ParseDecimal.
var (
	ErrEmptyNumber   = errors.New("empty number")
	ErrInvalidNumber = errors.New("invalid number")
)

// ParseDecimal parses user-entered decimal text. Surrounding whitespace is
// ignored and a comma is accepted as the decimal separator ("70,5" == 70.5).
// Non-finite values are rejected.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrEmptyNumber
	}

	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidNumber
	}
	return v, nil
}

// IsIntegral reports whether v has no fractional part.
func IsIntegral(v float64) bool {
	return v == math.Trunc(v)
}

// Percent formats a ratio in [0,1] as a percentage with the given precision,
// e.g. Percent(0.8234, 1) == "82.3%".
func Percent(ratio float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(ratio*100, 'f', precision, 64) + "%"
}

// Decimal formats v with a fixed precision.
func Decimal(v float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}
