// Package source reads clinical data store exports into raw tables.
package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/patient-summaries/internal/domain"
)

// Delimiter returns ',' for .csv files and tab otherwise.
func Delimiter(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return ','
	}
	return '\t'
}

// ReadFile reads the header-first delimited file at path into a raw table
// named name.
func ReadFile(path, name string) (*domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s table: %w", name, err)
	}
	defer f.Close()

	t, err := Read(f, name, Delimiter(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses a header-first delimited stream. Every row must have as many
// fields as the header.
func Read(r io.Reader, name string, comma rune) (*domain.RawTable, error) {
	cr := csv.NewReader(stripUTF8BOM(bufio.NewReader(r)))
	cr.Comma = comma
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	// FieldsPerRecord 0 pins the count to the header.
	cr.FieldsPerRecord = 0

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return &domain.RawTable{Name: name}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	t := &domain.RawTable{Name: name, Header: header}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) && errors.Is(parseErr.Err, csv.ErrFieldCount) {
				return nil, fmt.Errorf("line %d has %d fields, header has %d", parseErr.Line, len(record), len(header))
			}
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
