package domain

import (
	"fmt"
	"strings"
)

// Diagnostic codes for run report entries
const (
	ErrNormalization            = "NORMALIZATION_ERROR"
	ErrSchema                   = "SCHEMA_ERROR"
	ErrConfig                   = "CONFIG_ERROR"
	WarnClassificationAmbiguous = "CLASSIFICATION_AMBIGUOUS"
	WarnEmptyInput              = "EMPTY_INPUT"
)

// NormalizationError reports a source row whose participant id or visit date
// could not be coerced. The row is excluded from the run.
type NormalizationError struct {
	Table  string `json:"table"`
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Error implements the error interface
func (e *NormalizationError) Error() string {
	return fmt.Sprintf("%s: table %s row %d column %q value %q: %s",
		ErrNormalization, e.Table, e.Row, e.Column, e.Value, e.Reason)
}

// NewNormalizationError creates a new NormalizationError
func NewNormalizationError(table string, row int, column, value, reason string) *NormalizationError {
	return &NormalizationError{
		Table:  table,
		Row:    row,
		Column: column,
		Value:  value,
		Reason: reason,
	}
}

// SchemaError reports a schema that is inconsistent or does not match the
// header of the table it is bound to.
type SchemaError struct {
	Table   string `json:"table"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: table %s: %s", ErrSchema, e.Table, e.Message)
	}
	return fmt.Sprintf("%s: table %s column %q: %s", ErrSchema, e.Table, e.Column, e.Message)
}

// NewSchemaError creates a new SchemaError
func NewSchemaError(table, column, message string) *SchemaError {
	return &SchemaError{Table: table, Column: column, Message: message}
}

// ConfigError represents an invalid configuration value
type ConfigError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value"`
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: field '%s': %s", ErrConfig, e.Field, e.Message)
}

// NewConfigError creates a new ConfigError
func NewConfigError(field, message string, value interface{}) *ConfigError {
	return &ConfigError{Field: field, Message: message, Value: value}
}

// ClassificationAmbiguous records a visit whose markers did not satisfy any
// subtype rule. It is a diagnostic, not a failure.
type ClassificationAmbiguous struct {
	Visit VisitKey `json:"visit"`
	// Unresolved maps each marker that was missing or unmapped to its raw
	// value. Missing markers map to "".
	Unresolved map[string]string `json:"unresolved"`
}

// String describes which markers blocked classification.
func (c ClassificationAmbiguous) String() string {
	parts := make([]string, 0, len(c.Unresolved))
	for _, marker := range sortedKeys(c.Unresolved) {
		v := c.Unresolved[marker]
		if v == "" {
			parts = append(parts, marker+"=<missing>")
		} else {
			parts = append(parts, fmt.Sprintf("%s=%q", marker, v))
		}
	}
	detail := strings.Join(parts, ", ")
	if detail == "" {
		detail = "no rule matched the marker combination"
	}
	return fmt.Sprintf("%s: visit %s: not enough marker information to determine subtype (%s)",
		WarnClassificationAmbiguous, c.Visit, detail)
}

// EmptyInputWarning records a source table that produced no rows after
// filtering. An empty wide table is propagated in its place.
type EmptyInputWarning struct {
	Table string `json:"table"`
	Stage string `json:"stage"`
}

// String describes the empty input.
func (w EmptyInputWarning) String() string {
	return fmt.Sprintf("%s: table %s has no rows after %s", WarnEmptyInput, w.Table, w.Stage)
}
