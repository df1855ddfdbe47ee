package service

import "github.com/patient-summaries/internal/domain"

// Filter selects the observations a run considers.
type Filter struct {
	IDMin      int64
	IDMax      int64
	HasIDRange bool
	// RequireReported keeps only rows whose review flag is set.
	RequireReported bool
}

// NewFilter builds the filter for one table from run options.
func NewFilter(opts *Options, schema *domain.Schema) Filter {
	return Filter{
		IDMin:           opts.IDMin,
		IDMax:           opts.IDMax,
		HasIDRange:      opts.HasIDRange,
		RequireReported: schema.ReportedColumn != "",
	}
}

// Keep reports whether obs passes the filter.
func (f Filter) Keep(obs domain.Observation) bool {
	if f.HasIDRange && (obs.Visit.ParticipantID < f.IDMin || obs.Visit.ParticipantID >= f.IDMax) {
		return false
	}
	if f.RequireReported && !obs.Reported {
		return false
	}
	return true
}

// Apply returns a new table with the rows that pass the filter, in input
// order.
func (f Filter) Apply(t *domain.ObservationTable) *domain.ObservationTable {
	rows := make([]domain.Observation, 0, len(t.Rows))
	for _, obs := range t.Rows {
		if f.Keep(obs) {
			rows = append(rows, obs)
		}
	}
	return t.WithRows(rows)
}
