package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patient-summaries/internal/domain"
)

func TestPivot_SingleAttribute(t *testing.T) {
	table := observationTable(markerSchema(),
		markerObs(2, day(2019, 3, 1), "HER2", "Negative"),
		markerObs(1, day(2019, 1, 1), "ER", "Positive"),
		markerObs(1, day(2019, 1, 1), "PR", "Negative"),
		markerObs(1, day(2019, 1, 1), "KI67", "High"),
		markerObs(2, day(2019, 3, 1), "ER", "Negative"),
	)

	wide := Pivot(table, PivotOptions{Entities: []string{"ER", "PR", "HER2"}, SortAscending: true})

	assert.Equal(t, []string{"ER", "HER2", "PR"}, wide.Columns)
	require.Len(t, wide.Rows, 2)
	assert.Equal(t, visit(1, day(2019, 1, 1)), wide.Rows[0].Visit)
	assert.Equal(t, map[string]string{"ER": "Positive", "PR": "Negative"}, wide.Rows[0].Cells)
	assert.Equal(t, map[string]string{"ER": "Negative", "HER2": "Negative"}, wide.Rows[1].Cells)

	_, ok := wide.Rows[1].Get("PR")
	assert.False(t, ok, "unobserved entity must be absent, not zero-filled")
}

func TestPivot_MultiAttributeNaming(t *testing.T) {
	schema := sequenceSchema()
	table := observationTable(schema,
		domain.Observation{Visit: visit(5, day(2020, 1, 1)), Entity: "TP53", Values: []string{"p.R175H", "T"}},
		domain.Observation{Visit: visit(5, day(2020, 1, 1)), Entity: "PIK3CA", Values: []string{"p.H1047R", "G"}},
	)

	wide := Pivot(table, PivotOptions{SortAscending: true})
	assert.Equal(t, []string{
		"Protein Change PIK3CA", "Protein Change TP53", "Variant Base PIK3CA", "Variant Base TP53",
	}, wide.Columns)
	assert.Equal(t, "p.R175H", wide.Rows[0].Cells["Protein Change TP53"])

	wide = Pivot(table, PivotOptions{SortAscending: false, EntityFirst: true})
	assert.Equal(t, []string{
		"TP53 Variant Base", "TP53 Protein Change", "PIK3CA Variant Base", "PIK3CA Protein Change",
	}, wide.Columns)
}

func TestPivot_LastNonEmptyValueWins(t *testing.T) {
	schema := sequenceSchema()
	table := observationTable(schema,
		domain.Observation{Visit: visit(5, day(2020, 1, 1)), Entity: "TP53", Values: []string{"p.R175H", "T"}},
		domain.Observation{Visit: visit(5, day(2020, 1, 1)), Entity: "TP53", Values: []string{"p.R248Q", ""}},
	)

	wide := Pivot(table, PivotOptions{SortAscending: true})

	require.Len(t, wide.Rows, 1)
	assert.Equal(t, "p.R248Q", wide.Rows[0].Cells["Protein Change TP53"])
	assert.Equal(t, "T", wide.Rows[0].Cells["Variant Base TP53"])
}

func TestPivot_PreservesVisitIndex(t *testing.T) {
	table := observationTable(markerSchema(),
		markerObs(3, day(2019, 5, 1), "ER", ""),
		markerObs(1, day(2019, 1, 1), "PR", "Positive"),
		markerObs(1, day(2019, 2, 1), "ER", "Negative"),
		markerObs(4, day(2019, 2, 1), "EGFR", "Positive"),
	)
	entities := []string{"ER", "PR"}

	wide := Pivot(table, PivotOptions{Entities: entities, SortAscending: true})

	want := map[domain.VisitKey]bool{}
	for _, obs := range table.Rows {
		if obs.Entity == "ER" || obs.Entity == "PR" {
			want[obs.Visit] = true
		}
	}
	got := map[domain.VisitKey]bool{}
	for _, key := range wide.Keys() {
		got[key] = true
	}
	assert.Equal(t, want, got)
	assert.Equal(t, []domain.VisitKey{
		visit(1, day(2019, 1, 1)), visit(1, day(2019, 2, 1)), visit(3, day(2019, 5, 1)),
	}, wide.Keys())
	assert.Empty(t, wide.Rows[2].Cells)
}

func TestPivot_Empty(t *testing.T) {
	wide := Pivot(observationTable(markerSchema()), PivotOptions{SortAscending: true})
	assert.Equal(t, 0, wide.Len())
	assert.Empty(t, wide.Columns)
}

func TestPivot_AggregatePerAttribute(t *testing.T) {
	schema := sequenceSchema()
	table := observationTable(schema,
		domain.Observation{Visit: visit(5, day(2020, 1, 1)), Entity: "TP53", Values: []string{"", "T"}},
		domain.Observation{Visit: visit(5, day(2020, 1, 1)), Entity: "TP53", Values: []string{"p.R175H", "A"}},
		domain.Observation{Visit: visit(5, day(2020, 1, 1)), Entity: "TP53", Values: []string{"p.R248Q", ""}},
		domain.Observation{Visit: visit(5, day(2020, 1, 1)), Entity: "TP53", Values: []string{"p.R175H", ""}},
	)

	tests := []struct {
		name      string
		aggregate map[string]AggregateFunc
		protein   string
		variant   string
	}{
		{"default keeps last non-empty", nil, "p.R175H", "A"},
		{"first non-empty for one attribute", map[string]AggregateFunc{"Protein Change": FirstNonEmpty}, "p.R175H", "A"},
		{"first non-empty for both", map[string]AggregateFunc{
			"Protein Change": FirstNonEmpty, "Variant Base": FirstNonEmpty,
		}, "p.R175H", "T"},
		{"join distinct", map[string]AggregateFunc{"Protein Change": JoinDistinct(";")}, "p.R175H;p.R248Q", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wide := Pivot(table, PivotOptions{SortAscending: true, Aggregate: tt.aggregate})

			require.Len(t, wide.Rows, 1)
			assert.Equal(t, tt.protein, wide.Rows[0].Cells["Protein Change TP53"])
			assert.Equal(t, tt.variant, wide.Rows[0].Cells["Variant Base TP53"])
		})
	}
}

func TestAggregateFuncs_EmptyInputsStayNull(t *testing.T) {
	for name, f := range map[string]AggregateFunc{
		"last":  LastNonEmpty,
		"first": FirstNonEmpty,
		"join":  JoinDistinct(", "),
	} {
		assert.Equal(t, "", f("", ""), name)
		assert.Equal(t, "x", f("", "x"), name)
		assert.Equal(t, "x", f("x", ""), name)
	}
}
