package service

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/patient-summaries/internal/domain"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func visit(id int64, date time.Time) domain.VisitKey {
	return domain.VisitKey{ParticipantID: id, VisitDate: date}
}

func markerSchema() *domain.Schema {
	return &domain.Schema{
		Name:              domain.TableMarkers,
		ParticipantColumn: "Participant ID",
		DateColumn:        "Date",
		EntityColumn:      "Marker",
		AttributeColumns:  []string{"Status"},
		StatusColumn:      "Status",
	}
}

func copyNumberSchema() *domain.Schema {
	return &domain.Schema{
		Name:              domain.TableCopyNumber,
		ParticipantColumn: "Participant ID",
		DateColumn:        "Collection Date",
		EntityColumn:      "Gene",
		AttributeColumns:  []string{"Copy Number"},
	}
}

func sequenceSchema() *domain.Schema {
	return &domain.Schema{
		Name:                 domain.TableSequenceVariants,
		ParticipantColumn:    "Participant ID",
		DateColumn:           "Collection Date",
		EntityColumn:         "Gene",
		AttributeColumns:     []string{"Protein Change", "Variant Base"},
		DiscriminatorColumns: []string{"Position Start", "Position End", "Reference Base", "Variant Base"},
	}
}

func markerRaw(rows ...[]string) *domain.RawTable {
	return &domain.RawTable{
		Name:   domain.TableMarkers,
		Header: []string{"Participant ID", "Date", "Marker", "Status"},
		Rows:   rows,
	}
}

func copyNumberRaw(rows ...[]string) *domain.RawTable {
	return &domain.RawTable{
		Name:   domain.TableCopyNumber,
		Header: []string{"Participant ID", "Collection Date", "Gene", "Copy Number", "Reported"},
		Rows:   rows,
	}
}

func sequenceRaw(rows ...[]string) *domain.RawTable {
	return &domain.RawTable{
		Name: domain.TableSequenceVariants,
		Header: []string{"Participant ID", "Collection Date", "Gene", "Position Start", "Position End",
			"Reference Base", "Variant Base", "Protein Change", "Reported"},
		Rows: rows,
	}
}

func testVocabulary(t *testing.T) *Vocabulary {
	t.Helper()
	v, err := NewVocabulary([]string{"Pos", "positive", "3+"}, []string{"Neg", "negative", "0"})
	if err != nil {
		t.Fatalf("failed to build vocabulary: %v", err)
	}
	return v
}

func observationTable(schema *domain.Schema, rows ...domain.Observation) *domain.ObservationTable {
	for i := range rows {
		rows[i].Seq = i + 1
	}
	return &domain.ObservationTable{Schema: schema, Rows: rows}
}

func markerObs(id int64, date time.Time, marker, status string) domain.Observation {
	return domain.Observation{Visit: visit(id, date), Entity: marker, Values: []string{status}}
}

func markerRow(id int64, date time.Time, cells map[string]string) domain.WideRow {
	return domain.WideRow{Visit: visit(id, date), Cells: cells}
}
