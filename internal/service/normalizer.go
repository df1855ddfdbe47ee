package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/patient-summaries/internal/domain"
)

const defaultDateCacheSize = 4096

// dateLayouts are the visit date formats found in clinical data exports.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	// Month and day accept one or two digits.
	"1/2/2006",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// Normalizer coerces raw source rows into typed observations.
type Normalizer struct {
	logger     *logrus.Logger
	vocabulary *Vocabulary
	dates      *lru.Cache[string, time.Time]
}

// NewNormalizer creates a normalizer. The vocabulary is applied to the
// schema status column; a nil vocabulary leaves statuses untouched.
func NewNormalizer(logger *logrus.Logger, vocabulary *Vocabulary, cacheSize int) (*Normalizer, error) {
	if cacheSize <= 0 {
		cacheSize = defaultDateCacheSize
	}
	dates, err := lru.New[string, time.Time](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create date cache: %w", err)
	}
	return &Normalizer{
		logger:     logger,
		vocabulary: vocabulary,
		dates:      dates,
	}, nil
}

// Normalize binds raw to schema and converts every row. Rows with an
// unparsable participant id or visit date are excluded and returned as
// NormalizationErrors. A schema that does not match the header is returned
// as the error.
func (n *Normalizer) Normalize(raw *domain.RawTable, schema *domain.Schema) (*domain.ObservationTable, []*domain.NormalizationError, error) {
	binding, err := schema.Bind(raw.Header)
	if err != nil {
		return nil, nil, err
	}

	out := &domain.ObservationTable{
		Schema: schema,
		Rows:   make([]domain.Observation, 0, len(raw.Rows)),
	}
	var rowErrors []*domain.NormalizationError

	for i, record := range raw.Rows {
		seq := i + 1
		cell := func(pos int) string {
			if pos < 0 || pos >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[pos])
		}

		idValue := cell(binding.Participant)
		participantID, err := ParseParticipantID(idValue)
		if err != nil {
			rowErrors = append(rowErrors, domain.NewNormalizationError(schema.Name, seq, schema.ParticipantColumn, idValue, err.Error()))
			continue
		}

		dateValue := cell(binding.Date)
		visitDate, err := n.parseDate(dateValue)
		if err != nil {
			rowErrors = append(rowErrors, domain.NewNormalizationError(schema.Name, seq, schema.DateColumn, dateValue, err.Error()))
			continue
		}

		obs := domain.Observation{
			Visit:  domain.VisitKey{ParticipantID: participantID, VisitDate: visitDate},
			Entity: cell(binding.Entity),
			Values: make([]string, len(binding.Attributes)),
			Seq:    seq,
		}
		for j, pos := range binding.Attributes {
			obs.Values[j] = cell(pos)
		}
		if binding.Status >= 0 && n.vocabulary != nil && obs.Values[binding.Status] != "" {
			obs.Values[binding.Status] = n.vocabulary.Canonicalize(obs.Values[binding.Status])
		}
		if len(binding.Discriminators) > 0 {
			obs.Discriminators = make([]string, len(binding.Discriminators))
			for j, pos := range binding.Discriminators {
				obs.Discriminators[j] = cell(pos)
			}
		}
		if binding.Reported >= 0 {
			obs.Reported = parseReported(cell(binding.Reported))
		}
		out.Rows = append(out.Rows, obs)
	}

	n.logger.WithFields(logrus.Fields{
		"table":      schema.Name,
		"raw_rows":   len(raw.Rows),
		"normalized": len(out.Rows),
		"excluded":   len(rowErrors),
	}).Debug("Normalized source table")

	return out, rowErrors, nil
}

// ParseParticipantID converts an identifier cell to an integer. Integral
// floating point renderings such as "1234.0" are accepted.
func ParseParticipantID(value string) (int64, error) {
	if value == "" {
		return 0, fmt.Errorf("participant id is missing")
	}
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("participant id is not numeric")
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		return 0, fmt.Errorf("participant id is not an integer")
	}
	return int64(f), nil
}

// parseDate parses a visit date and truncates it to the calendar day in UTC.
func (n *Normalizer) parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("visit date is missing")
	}
	if t, ok := n.dates.Get(value); ok {
		return t, nil
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		n.dates.Add(value, day)
		return day, nil
	}
	return time.Time{}, fmt.Errorf("visit date is not a recognized date")
}

func parseReported(value string) bool {
	switch strings.ToLower(value) {
	case "yes", "y":
		return true
	}
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
