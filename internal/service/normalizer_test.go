package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patient-summaries/internal/domain"
)

func TestParseParticipantID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"integer", "1042", 1042, false},
		{"integral float", "1042.0", 1042, false},
		{"fractional float", "1042.5", 0, true},
		{"empty", "", 0, true},
		{"text", "P-1042", 0, true},
		{"nan", "NaN", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParticipantID(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizer_DateFormats(t *testing.T) {
	n, err := NewNormalizer(newTestLogger(), nil, 16)
	require.NoError(t, err)

	inputs := []string{
		"2019-03-04",
		"2019/03/04",
		"2019-03-04 13:45:00",
		"2019/03/04 00:00:00",
		"2019-03-04T13:45:00",
		"2019-03-04T13:45:00-08:00",
		"2019/03/04 08:00:00.000",
		"03/04/2019",
		"2019-03-04 13:00",
		"2019/03/04 13:00",
		"3/4/2019",
		"3/04/2019 09:30",
		"3/4/2019 23:59:59",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			got, err := n.parseDate(in)
			require.NoError(t, err)
			assert.Equal(t, day(2019, 3, 4), got)
		})
	}

	_, err = n.parseDate("March 4th")
	assert.Error(t, err)
	_, err = n.parseDate("")
	assert.Error(t, err)
}

func TestNormalizer_Normalize(t *testing.T) {
	n, err := NewNormalizer(newTestLogger(), testVocabulary(t), 0)
	require.NoError(t, err)

	raw := markerRaw(
		[]string{"1001.0", "2019-01-05", "ER", "Pos"},
		[]string{"1001", "2019-01-05", "PR", " negative "},
		[]string{"1001", "2019-01-05", "HER2", "Equivocal"},
		[]string{"abc", "2019-01-05", "ER", "Pos"},
		[]string{"1002", "not a date", "ER", "Pos"},
		[]string{"1002", "2019-02-01", "ER", ""},
	)

	table, rowErrors, err := n.Normalize(raw, markerSchema())
	require.NoError(t, err)
	require.Len(t, table.Rows, 4)

	assert.Equal(t, visit(1001, day(2019, 1, 5)), table.Rows[0].Visit)
	assert.Equal(t, []string{"Positive"}, table.Rows[0].Values)
	assert.Equal(t, []string{"Negative"}, table.Rows[1].Values)
	assert.Equal(t, []string{"Equivocal"}, table.Rows[2].Values, "unmapped status must propagate unchanged")
	assert.Equal(t, []string{""}, table.Rows[3].Values)
	assert.Equal(t, 6, table.Rows[3].Seq)

	require.Len(t, rowErrors, 2)
	assert.Equal(t, 4, rowErrors[0].Row)
	assert.Equal(t, "Participant ID", rowErrors[0].Column)
	assert.Equal(t, "abc", rowErrors[0].Value)
	assert.Equal(t, 5, rowErrors[1].Row)
	assert.Equal(t, "Date", rowErrors[1].Column)
}

func TestNormalizer_MissingColumn(t *testing.T) {
	n, err := NewNormalizer(newTestLogger(), nil, 0)
	require.NoError(t, err)

	raw := &domain.RawTable{Header: []string{"Participant ID", "Date", "Marker"}}
	_, _, err = n.Normalize(raw, markerSchema())

	var schemaErr *domain.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "Status", schemaErr.Column)
}

func TestNormalizer_ReportedAndDiscriminators(t *testing.T) {
	n, err := NewNormalizer(newTestLogger(), nil, 0)
	require.NoError(t, err)

	schema := sequenceSchema()
	schema.ReportedColumn = "Reported"
	raw := sequenceRaw(
		[]string{"7", "2020-06-01", "TP53", "100", "101", "C", "T", "p.R175H", "true"},
		[]string{"7", "2020-06-01", "TP53", "200", "200", "G", "A", "p.R248Q", "False"},
	)

	table, rowErrors, err := n.Normalize(raw, schema)
	require.NoError(t, err)
	assert.Empty(t, rowErrors)
	require.Len(t, table.Rows, 2)
	assert.True(t, table.Rows[0].Reported)
	assert.False(t, table.Rows[1].Reported)
	assert.Equal(t, []string{"100", "101", "C", "T"}, table.Rows[0].Discriminators)
	assert.Equal(t, []string{"p.R175H", "T"}, table.Rows[0].Values)
}

func TestVocabulary(t *testing.T) {
	v := testVocabulary(t)
	assert.Equal(t, "Positive", v.Canonicalize("Pos"))
	assert.Equal(t, "Positive", v.Canonicalize("Positive"))
	assert.Equal(t, "Negative", v.Canonicalize("0"))
	assert.Equal(t, "Low", v.Canonicalize(" Low "))

	_, err := NewVocabulary([]string{"Pos"}, []string{"Pos"})
	var cfgErr *domain.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "marker_values", cfgErr.Field)
}
