// Package domain contains the record, table and configuration types shared by
// the reconciliation pipeline and its boundary packages.
//
// Tables move through the pipeline in three shapes: RawTable (strings as read
// from a source export), ObservationTable (long form, one row per reported
// measurement) and WideTable (one row per participant visit).
package domain

import (
	"fmt"
	"time"
)

// Canonical marker status values produced by vocabulary normalization.
const (
	StatusPositive = "Positive"
	StatusNegative = "Negative"
)

// Index column names used on every wide table.
const (
	ParticipantIDColumn = "Participant ID"
	VisitDateColumn     = "Date"
)

// DateLayout is the layout used when a visit date is rendered as text.
const DateLayout = "2006-01-02"

// VisitKey identifies one clinical visit of one participant. It is the join
// key across all tables.
type VisitKey struct {
	ParticipantID int64
	VisitDate     time.Time
}

// Less orders keys by participant, then visit date.
func (k VisitKey) Less(other VisitKey) bool {
	if k.ParticipantID != other.ParticipantID {
		return k.ParticipantID < other.ParticipantID
	}
	return k.VisitDate.Before(other.VisitDate)
}

// String renders the key as "<participant>/<yyyy-mm-dd>".
func (k VisitKey) String() string {
	return fmt.Sprintf("%d/%s", k.ParticipantID, k.VisitDate.Format(DateLayout))
}

// RawTable is a header-first table of strings as exported by the clinical
// data store.
type RawTable struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Observation is one reported measurement in long form.
type Observation struct {
	Visit  VisitKey
	Entity string
	// Values is aligned with Schema.AttributeColumns. An empty string is a
	// null value.
	Values []string
	// Discriminators is aligned with Schema.DiscriminatorColumns.
	Discriminators []string
	Reported       bool
	// Seq is the row number in the source table, starting at 1.
	Seq int
}

// ObservationTable is a long-form table bound to its schema.
type ObservationTable struct {
	Schema *Schema
	Rows   []Observation
}

// Len returns the number of observations.
func (t *ObservationTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// WithRows returns a table sharing the schema with a fresh row slice.
func (t *ObservationTable) WithRows(rows []Observation) *ObservationTable {
	return &ObservationTable{Schema: t.Schema, Rows: rows}
}
