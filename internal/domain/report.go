package domain

import "sort"

// TableCounts tracks how many rows a table had at each pipeline stage.
type TableCounts struct {
	Raw          int `json:"raw"`
	Normalized   int `json:"normalized"`
	Filtered     int `json:"filtered"`
	Deduplicated int `json:"deduplicated"`
	Visits       int `json:"visits"`
}

// RunReport collects the diagnostics of one pipeline run.
type RunReport struct {
	RunID               string                    `json:"run_id"`
	Tables              map[string]*TableCounts   `json:"tables"`
	NormalizationErrors []*NormalizationError     `json:"normalization_errors,omitempty"`
	Ambiguous           []ClassificationAmbiguous `json:"ambiguous,omitempty"`
	EmptyInputs         []EmptyInputWarning       `json:"empty_inputs,omitempty"`
	Subtypes            map[string]int            `json:"subtypes"`
	SummaryRows         int                       `json:"summary_rows"`
}

// NewRunReport creates an empty report for runID.
func NewRunReport(runID string) *RunReport {
	return &RunReport{
		RunID:    runID,
		Tables:   make(map[string]*TableCounts),
		Subtypes: make(map[string]int),
	}
}

// Counts returns the counters for table, creating them on first use.
func (r *RunReport) Counts(table string) *TableCounts {
	c, ok := r.Tables[table]
	if !ok {
		c = &TableCounts{}
		r.Tables[table] = c
	}
	return c
}

// NormalizationErrorCount returns the number of rows excluded for table. An
// empty table name counts every table.
func (r *RunReport) NormalizationErrorCount(table string) int {
	n := 0
	for _, e := range r.NormalizationErrors {
		if table == "" || e.Table == table {
			n++
		}
	}
	return n
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
