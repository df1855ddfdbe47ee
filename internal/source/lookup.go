package source

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/patient-summaries/internal/domain"
)

// Lookup maps integer codes stored in an export column to their labels.
type Lookup map[string]string

// LoadLookup reads a JSON object of code to label.
func LoadLookup(path string) (Lookup, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup list: %w", err)
	}
	raw := make(map[string]string)
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse lookup list %s: %w", path, err)
	}
	l := make(Lookup, len(raw))
	for code, label := range raw {
		l[NormalizeCode(code)] = label
	}
	return l, nil
}

// NormalizeCode renders integral numeric codes such as "7.0" as "7". Other
// values are returned trimmed.
func NormalizeCode(value string) string {
	value = strings.TrimSpace(value)
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f != float64(int64(f)) {
		return value
	}
	return strconv.FormatInt(int64(f), 10)
}

// Label returns the label for code, or code itself when unmapped.
func (l Lookup) Label(code string) string {
	if label, ok := l[NormalizeCode(code)]; ok {
		return label
	}
	return code
}

// Apply replaces coded values in column of t. It returns the number of cells
// rewritten. A column absent from the header is a SchemaError.
func (l Lookup) Apply(t *domain.RawTable, column string) (int, error) {
	pos := -1
	for i, h := range t.Header {
		if h == column {
			pos = i
			break
		}
	}
	if pos < 0 {
		return 0, domain.NewSchemaError(t.Name, column, "lookup column not found in table header")
	}

	n := 0
	for _, row := range t.Rows {
		if pos >= len(row) {
			continue
		}
		if label := l.Label(row[pos]); label != row[pos] {
			row[pos] = label
			n++
		}
	}
	return n, nil
}
