package domain

import "sort"

// WideRow is one participant visit with one cell per wide column. Columns
// without an observation are absent from Cells.
type WideRow struct {
	Visit VisitKey
	Cells map[string]string
}

// Get returns the cell value and whether it is present.
func (r WideRow) Get(column string) (string, bool) {
	v, ok := r.Cells[column]
	return v, ok
}

// WideTable is a wide-form table indexed by VisitKey. Rows are unique per
// key and sorted ascending.
type WideTable struct {
	Name    string
	Columns []string
	Rows    []WideRow
}

// NewWideTable returns an empty table with the given columns.
func NewWideTable(name string, columns []string) *WideTable {
	return &WideTable{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    []WideRow{},
	}
}

// Len returns the number of rows.
func (t *WideTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// HasColumn reports whether column is part of the table schema.
func (t *WideTable) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Keys returns the row index in order.
func (t *WideTable) Keys() []VisitKey {
	keys := make([]VisitKey, len(t.Rows))
	for i, r := range t.Rows {
		keys[i] = r.Visit
	}
	return keys
}

// Row returns the row for key, if present.
func (t *WideTable) Row(key VisitKey) (WideRow, bool) {
	i := sort.Search(len(t.Rows), func(i int) bool { return !t.Rows[i].Visit.Less(key) })
	if i < len(t.Rows) && t.Rows[i].Visit == key {
		return t.Rows[i], true
	}
	return WideRow{}, false
}

// Filter returns a new table with only the rows whose participant is in ids.
// Row order is preserved.
func (t *WideTable) Filter(ids map[int64]bool) *WideTable {
	out := NewWideTable(t.Name, t.Columns)
	for _, r := range t.Rows {
		if ids[r.Visit.ParticipantID] {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// SortRows orders rows ascending by VisitKey.
func SortRows(rows []WideRow) {
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Visit.Less(rows[j].Visit) })
}
