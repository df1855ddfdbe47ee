package domain

import (
	"fmt"
	"strings"
)

// Schema describes the columns of one source table and the role each plays
// in the pipeline.
type Schema struct {
	Name              string
	ParticipantColumn string
	DateColumn        string
	EntityColumn      string
	AttributeColumns  []string
	// DiscriminatorColumns extend the dedup key beyond participant, visit and
	// entity.
	DiscriminatorColumns []string
	// StatusColumn names the attribute normalized with the marker vocabulary.
	// Empty when the table has no status attribute.
	StatusColumn string
	// ReportedColumn names the review flag column. Empty when the reported
	// filter is not applied to this table.
	ReportedColumn string
}

// Validate checks that the schema is internally consistent.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return NewSchemaError("", "", "schema name is required")
	}
	if s.ParticipantColumn == "" || s.DateColumn == "" || s.EntityColumn == "" {
		return NewSchemaError(s.Name, "", "participant, date and entity columns are required")
	}
	if len(s.AttributeColumns) == 0 {
		return NewSchemaError(s.Name, "", "at least one attribute column is required")
	}
	seen := make(map[string]bool)
	for _, col := range s.AttributeColumns {
		if seen[col] {
			return NewSchemaError(s.Name, col, "attribute column listed twice")
		}
		seen[col] = true
	}
	if s.StatusColumn != "" && !seen[s.StatusColumn] {
		return NewSchemaError(s.Name, s.StatusColumn, "status column must be one of the attribute columns")
	}
	return nil
}

// DedupKeyColumns returns the ordered logical key of the table.
func (s *Schema) DedupKeyColumns() []string {
	key := []string{s.ParticipantColumn, s.DateColumn, s.EntityColumn}
	return append(key, s.DiscriminatorColumns...)
}

// OutputColumn names the wide-table column for one entity and attribute.
// A single-attribute schema uses the entity name alone.
func (s *Schema) OutputColumn(entity, attribute string, entityFirst bool) string {
	if len(s.AttributeColumns) == 1 {
		return entity
	}
	if entityFirst {
		return strings.TrimSpace(entity + " " + attribute)
	}
	return strings.TrimSpace(attribute + " " + entity)
}

// Binding maps schema columns to positions in a raw header.
type Binding struct {
	Schema         *Schema
	Participant    int
	Date           int
	Entity         int
	Attributes     []int
	Discriminators []int
	// Status is an index into Attributes, or -1.
	Status int
	// Reported is a header position, or -1.
	Reported int
}

// Bind resolves every schema column against header. A missing column is a
// SchemaError.
func (s *Schema) Bind(header []string) (*Binding, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}
	lookup := func(col string) (int, error) {
		pos, ok := positions[col]
		if !ok {
			return -1, NewSchemaError(s.Name, col, "column not found in table header")
		}
		return pos, nil
	}

	b := &Binding{Schema: s, Status: -1, Reported: -1}
	var err error
	if b.Participant, err = lookup(s.ParticipantColumn); err != nil {
		return nil, err
	}
	if b.Date, err = lookup(s.DateColumn); err != nil {
		return nil, err
	}
	if b.Entity, err = lookup(s.EntityColumn); err != nil {
		return nil, err
	}
	for i, col := range s.AttributeColumns {
		pos, err := lookup(col)
		if err != nil {
			return nil, err
		}
		b.Attributes = append(b.Attributes, pos)
		if col == s.StatusColumn {
			b.Status = i
		}
	}
	for _, col := range s.DiscriminatorColumns {
		pos, err := lookup(col)
		if err != nil {
			return nil, err
		}
		b.Discriminators = append(b.Discriminators, pos)
	}
	if s.ReportedColumn != "" {
		if b.Reported, err = lookup(s.ReportedColumn); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// String renders the schema for log fields.
func (s *Schema) String() string {
	return fmt.Sprintf("%s(%s: %s)", s.Name, s.EntityColumn, strings.Join(s.AttributeColumns, ", "))
}
