package types

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber converts a spreadsheet cell to float64.
// Blank, non-numeric and NaN cells report ok=false.
func ParseNumber(cell string) (float64, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// NormalizeKey returns the comparable form of an identifier cell.
// Numeric identifiers compare by value, so "1001", "1001.0" and " 1001 " are equal.
func NormalizeKey(cell string) string {
	s := strings.TrimSpace(cell)
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return s
}

// Round rounds v to the given number of decimal places using the exact
// binary value of v, with ties going to the even digit.
func Round(v float64, places int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}

// FormatFloat renders v in its shortest round-trip form, always keeping a
// fractional part for plain decimals: 0 -> "0.0", 1.25 -> "1.25", 1e16 -> "1e+16".
func FormatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	abs := math.Abs(v)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
