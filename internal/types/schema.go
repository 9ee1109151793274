package types

import (
	"fmt"
	"strings"
)

// SchemaError lists every structural problem found in an input workbook:
// missing sheets, missing columns or blank mapping cells.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid workbook: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid workbook:\n  - %s", strings.Join(e.Problems, "\n  - "))
}

// Add records a problem unless the same text was already recorded.
func (e *SchemaError) Add(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	for _, p := range e.Problems {
		if p == msg {
			return
		}
	}
	e.Problems = append(e.Problems, msg)
}

// Err returns e when it holds problems, nil otherwise.
func (e *SchemaError) Err() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}
