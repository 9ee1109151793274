package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateReport()...)
	errors = append(errors, c.validateCompare()...)
	errors = append(errors, c.validateGauge()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateReport() ValidationErrors {
	var errors ValidationErrors

	validEncodings := map[string]bool{EncodingLatin1: true, EncodingUTF8: true, "": true}
	if !validEncodings[c.Report.Encoding] {
		errors = append(errors, ValidationError{
			Field:   "report.encoding",
			Message: "encoding must be 'latin1' or 'utf8'",
		})
	}

	if c.Report.SheetName == "" {
		errors = append(errors, ValidationError{
			Field:   "report.sheet_name",
			Message: "sheet_name is required",
		})
	}

	return errors
}

func (c *Config) validateCompare() ValidationErrors {
	var errors ValidationErrors

	sheets := []struct {
		field string
		name  string
	}{
		{"compare.perceptron_sheet", c.Compare.PerceptronSheet},
		{"compare.cmm_sheet", c.Compare.CMMSheet},
		{"compare.jsn_mapping_sheet", c.Compare.JSNMappingSheet},
		{"compare.axis_mapping_sheet", c.Compare.AxisMappingSheet},
		{"compare.summary_sheet", c.Compare.SummarySheet},
	}
	for _, s := range sheets {
		if s.name == "" {
			errors = append(errors, ValidationError{
				Field:   s.field,
				Message: "sheet name is required",
			})
		}
	}

	seen := make(map[string]bool)
	for _, name := range c.Compare.Sheets() {
		if name == "" {
			continue
		}
		if seen[name] {
			errors = append(errors, ValidationError{
				Field:   "compare",
				Message: fmt.Sprintf("sheet %q is used for more than one input table", name),
			})
		}
		seen[name] = true
	}

	validPolicies := map[string]bool{DuplicateFirst: true, DuplicateError: true, "": true}
	if !validPolicies[c.Compare.DuplicateJSN] {
		errors = append(errors, ValidationError{
			Field:   "compare.duplicate_jsn",
			Message: "duplicate_jsn must be 'first' or 'error'",
		})
	}

	return errors
}

func (c *Config) validateGauge() ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(c.Gauge.StationName) == "" {
		errors = append(errors, ValidationError{
			Field:   "gauge.station_name",
			Message: "station_name is required",
		})
	}

	if strings.TrimSpace(c.Gauge.ModelName) == "" {
		errors = append(errors, ValidationError{
			Field:   "gauge.model_name",
			Message: "model_name is required",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	if c.Logging.Output == "stdout" && c.Gauge.Output == StdoutPath {
		errors = append(errors, ValidationError{
			Field:   "logging.output",
			Message: "stdout carries the gauge document when gauge.output is '-'",
		})
	}

	return errors
}
