package service

import (
	"sort"
	"strings"

	"github.com/patient-summaries/internal/domain"
)

// PivotOptions configures the long-to-wide transformation.
type PivotOptions struct {
	// Entities restricts the pivot to these entities. Empty keeps all.
	Entities      []string
	SortAscending bool
	// EntityFirst names multi-attribute columns "<entity> <attribute>"
	// instead of "<attribute> <entity>".
	EntityFirst bool
	// Aggregate combines repeated values per attribute column. Attributes
	// without an entry use LastNonEmpty.
	Aggregate map[string]AggregateFunc
}

// AggregateFunc folds the next value of a cell into the value held so far.
// prev is "" for the first value. An empty result leaves the cell null.
type AggregateFunc func(prev, next string) string

// LastNonEmpty keeps the latest non-empty value.
func LastNonEmpty(prev, next string) string {
	if next != "" {
		return next
	}
	return prev
}

// FirstNonEmpty keeps the earliest non-empty value.
func FirstNonEmpty(prev, next string) string {
	if prev != "" {
		return prev
	}
	return next
}

// JoinDistinct returns an AggregateFunc that joins distinct non-empty
// values with sep in the order they are first seen.
func JoinDistinct(sep string) AggregateFunc {
	return func(prev, next string) string {
		if next == "" {
			return prev
		}
		if prev == "" {
			return next
		}
		for _, v := range strings.Split(prev, sep) {
			if v == next {
				return prev
			}
		}
		return prev + sep + next
	}
}

// Pivot folds observations into one row per participant visit with one
// column per entity and attribute. Repeated values of a cell are folded in
// input order with the attribute's AggregateFunc. Every visit present in the restricted input appears
// exactly once, even when all its cells are empty.
func Pivot(t *domain.ObservationTable, opts PivotOptions) *domain.WideTable {
	schema := t.Schema
	aggregate := make([]AggregateFunc, len(schema.AttributeColumns))
	for i, attr := range schema.AttributeColumns {
		aggregate[i] = LastNonEmpty
		if f, ok := opts.Aggregate[attr]; ok && f != nil {
			aggregate[i] = f
		}
	}

	var interest map[string]bool
	if len(opts.Entities) > 0 {
		interest = make(map[string]bool, len(opts.Entities))
		for _, e := range opts.Entities {
			interest[e] = true
		}
	}

	cells := make(map[domain.VisitKey]map[string]string)
	columns := make(map[string]bool)
	seenEntity := make(map[string]bool)

	for _, obs := range t.Rows {
		if interest != nil && !interest[obs.Entity] {
			continue
		}
		row, ok := cells[obs.Visit]
		if !ok {
			row = make(map[string]string)
			cells[obs.Visit] = row
		}
		if !seenEntity[obs.Entity] {
			seenEntity[obs.Entity] = true
			for _, attr := range schema.AttributeColumns {
				columns[schema.OutputColumn(obs.Entity, attr, opts.EntityFirst)] = true
			}
		}
		for i, attr := range schema.AttributeColumns {
			col := schema.OutputColumn(obs.Entity, attr, opts.EntityFirst)
			if v := aggregate[i](row[col], obs.Values[i]); v != "" {
				row[col] = v
			}
		}
	}

	names := make([]string, 0, len(columns))
	for c := range columns {
		names = append(names, c)
	}
	if opts.SortAscending {
		sort.Strings(names)
	} else {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}

	out := domain.NewWideTable(schema.Name, names)
	for key, row := range cells {
		out.Rows = append(out.Rows, domain.WideRow{Visit: key, Cells: row})
	}
	domain.SortRows(out.Rows)
	return out
}
