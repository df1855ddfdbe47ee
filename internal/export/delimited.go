// Package export writes reconciled patient summaries to delimited files and
// relational databases.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/patient-summaries/internal/domain"
)

// Supported file formats
const (
	FormatTSV = "tsv"
	FormatCSV = "csv"
)

// Comma returns the field delimiter for format
func Comma(format string) rune {
	if strings.ToLower(format) == FormatCSV {
		return ','
	}
	return '\t'
}

// IndexColumns are written before the table columns.
var IndexColumns = []string{domain.ParticipantIDColumn, domain.VisitDateColumn}

// WriteDelimited writes t with a header row. Absent cells are written
// empty.
func WriteDelimited(w io.Writer, t *domain.WideTable, comma rune) error {
	cw := csv.NewWriter(w)
	cw.Comma = comma

	header := append(append([]string(nil), IndexColumns...), t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(header))
	for _, row := range t.Rows {
		record[0] = strconv.FormatInt(row.Visit.ParticipantID, 10)
		record[1] = row.Visit.VisitDate.Format(domain.DateLayout)
		for i, col := range t.Columns {
			record[i+2] = row.Cells[col]
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write visit %s: %w", row.Visit, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
