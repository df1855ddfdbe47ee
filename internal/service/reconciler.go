package service

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/patient-summaries/internal/domain"
)

// SummaryTableName names the reconciled table.
const SummaryTableName = "patient_summaries"

// Reconciler full outer joins wide tables on participant visit.
type Reconciler struct {
	logger *logrus.Logger
}

// NewReconciler creates a reconciler.
func NewReconciler(logger *logrus.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// Reconcile joins tables so that every visit present in any input appears
// exactly once, with the columns of all inputs in argument order. Cells a
// source did not observe stay absent. A column name already taken by an
// earlier table is suffixed with "_<table name>", and with a further "_<n>"
// when that name is also in use by any input. Rows are sorted ascending
// by participant and visit date.
func (r *Reconciler) Reconcile(tables ...*domain.WideTable) *domain.WideTable {
	var columns []string
	taken := make(map[string]bool)
	renames := make([]map[string]string, len(tables))
	reserved := make(map[string]bool)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, col := range t.Columns {
			reserved[col] = true
		}
	}

	for i, t := range tables {
		if t == nil {
			continue
		}
		renames[i] = make(map[string]string, len(t.Columns))
		for _, col := range t.Columns {
			name := col
			if taken[name] {
				name = uniqueColumn(col+"_"+t.Name, taken, reserved)
				r.logger.WithFields(logrus.Fields{
					"table":   t.Name,
					"column":  col,
					"renamed": name,
				}).Warn("Column name collision while reconciling tables")
			}
			taken[name] = true
			renames[i][col] = name
			columns = append(columns, name)
		}
	}

	merged := make(map[domain.VisitKey]map[string]string)
	for i, t := range tables {
		if t == nil {
			continue
		}
		for _, row := range t.Rows {
			cells, ok := merged[row.Visit]
			if !ok {
				cells = make(map[string]string)
				merged[row.Visit] = cells
			}
			for col, v := range row.Cells {
				name, ok := renames[i][col]
				if !ok {
					name = col
				}
				cells[name] = v
			}
		}
	}

	out := domain.NewWideTable(SummaryTableName, columns)
	for key, cells := range merged {
		out.Rows = append(out.Rows, domain.WideRow{Visit: key, Cells: cells})
	}
	domain.SortRows(out.Rows)

	r.logger.WithFields(logrus.Fields{
		"tables":  len(tables),
		"columns": len(columns),
		"rows":    len(out.Rows),
	}).Debug("Reconciled wide tables")
	return out
}

func uniqueColumn(base string, taken, reserved map[string]bool) string {
	name := base
	for n := 2; taken[name] || reserved[name]; n++ {
		name = base + "_" + strconv.Itoa(n)
	}
	return name
}
