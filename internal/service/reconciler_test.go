package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patient-summaries/internal/domain"
)

func wide(name string, columns []string, rows ...domain.WideRow) *domain.WideTable {
	t := domain.NewWideTable(name, columns)
	t.Rows = append(t.Rows, rows...)
	domain.SortRows(t.Rows)
	return t
}

func TestReconciler_OuterJoinCompleteness(t *testing.T) {
	r := NewReconciler(newTestLogger())

	markers := wide(domain.TableMarkers, []string{"ER", "Subtype"},
		markerRow(1, day(2019, 1, 1), map[string]string{"ER": "Positive", "Subtype": "Undetermined"}),
		markerRow(2, day(2019, 1, 1), map[string]string{"ER": "Negative", "Subtype": "Undetermined"}),
	)
	copyNumber := wide(domain.TableCopyNumber, []string{"ERBB2"},
		markerRow(1, day(2019, 1, 1), map[string]string{"ERBB2": "amplification"}),
		markerRow(3, day(2018, 6, 1), map[string]string{"ERBB2": "loss"}),
	)
	sequence := wide(domain.TableSequenceVariants, []string{"Protein Change TP53"},
		markerRow(2, day(2019, 2, 1), map[string]string{"Protein Change TP53": "p.R175H"}),
		markerRow(1, day(2019, 1, 1), map[string]string{"Protein Change TP53": "p.R248Q"}),
	)

	out := r.Reconcile(markers, copyNumber, sequence)

	assert.Equal(t, SummaryTableName, out.Name)
	assert.Equal(t, []string{"ER", "Subtype", "ERBB2", "Protein Change TP53"}, out.Columns)
	assert.Equal(t, []domain.VisitKey{
		visit(1, day(2019, 1, 1)),
		visit(2, day(2019, 1, 1)),
		visit(2, day(2019, 2, 1)),
		visit(3, day(2018, 6, 1)),
	}, out.Keys())

	for _, source := range []*domain.WideTable{markers, copyNumber, sequence} {
		for _, row := range source.Rows {
			merged, ok := out.Row(row.Visit)
			require.True(t, ok, "visit %s missing from output", row.Visit)
			for col, v := range row.Cells {
				assert.Equal(t, v, merged.Cells[col])
			}
		}
	}

	only, _ := out.Row(visit(3, day(2018, 6, 1)))
	_, hasER := only.Get("ER")
	assert.False(t, hasER)
}

func TestReconciler_EmptyInputs(t *testing.T) {
	r := NewReconciler(newTestLogger())
	markers := wide(domain.TableMarkers, []string{"ER"},
		markerRow(1, day(2019, 1, 1), map[string]string{"ER": "Positive"}),
	)

	out := r.Reconcile(markers, domain.NewWideTable(domain.TableCopyNumber, nil), nil)

	assert.Equal(t, 1, out.Len())
	assert.Equal(t, []string{"ER"}, out.Columns)
}

func TestReconciler_ColumnCollision(t *testing.T) {
	r := NewReconciler(newTestLogger())
	copyNumber := wide(domain.TableCopyNumber, []string{"EGFR"},
		markerRow(1, day(2019, 1, 1), map[string]string{"EGFR": "amplification"}),
	)
	sequence := wide(domain.TableSequenceVariants, []string{"EGFR"},
		markerRow(1, day(2019, 1, 1), map[string]string{"EGFR": "p.L858R"}),
	)

	out := r.Reconcile(copyNumber, sequence)

	assert.Equal(t, []string{"EGFR", "EGFR_sequence_variants"}, out.Columns)
	assert.Equal(t, "amplification", out.Rows[0].Cells["EGFR"])
	assert.Equal(t, "p.L858R", out.Rows[0].Cells["EGFR_sequence_variants"])
}

func TestReconciler_RenamedColumnsStayUnique(t *testing.T) {
	tests := []struct {
		name     string
		tables   []*domain.WideTable
		expected []string
		cells    map[string]string
	}{
		{
			name: "suffix already used by earlier table",
			tables: []*domain.WideTable{
				wide("a", []string{"X"}, markerRow(1, day(2019, 1, 1), map[string]string{"X": "a1"})),
				wide("b", []string{"X_c", "Y"}, markerRow(1, day(2019, 1, 1), map[string]string{"X_c": "b1", "Y": "b2"})),
				wide("c", []string{"X"}, markerRow(1, day(2019, 1, 1), map[string]string{"X": "c1"})),
			},
			expected: []string{"X", "X_c", "Y", "X_c_2"},
			cells:    map[string]string{"X": "a1", "X_c": "b1", "Y": "b2", "X_c_2": "c1"},
		},
		{
			name: "suffix claimed by later table",
			tables: []*domain.WideTable{
				wide("a", []string{"X"}, markerRow(1, day(2019, 1, 1), map[string]string{"X": "a1"})),
				wide("b", []string{"X"}, markerRow(1, day(2019, 1, 1), map[string]string{"X": "b1"})),
				wide("c", []string{"X_b"}, markerRow(1, day(2019, 1, 1), map[string]string{"X_b": "c1"})),
			},
			expected: []string{"X", "X_b_2", "X_b"},
			cells:    map[string]string{"X": "a1", "X_b_2": "b1", "X_b": "c1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewReconciler(newTestLogger()).Reconcile(tt.tables...)

			assert.Equal(t, tt.expected, out.Columns)
			seen := make(map[string]bool)
			for _, col := range out.Columns {
				assert.False(t, seen[col], "duplicate column %q", col)
				seen[col] = true
			}
			require.Len(t, out.Rows, 1)
			assert.Equal(t, visit(1, day(2019, 1, 1)), out.Rows[0].Visit)
			assert.Equal(t, tt.cells, out.Rows[0].Cells)
		})
	}
}
