package service

import (
	"strconv"
	"strings"

	"github.com/patient-summaries/internal/domain"
)

// keySeparator cannot occur in exported cell text.
const keySeparator = "\x1f"

// DedupKey renders the logical key of obs: participant, visit, entity and
// any discriminator values.
func DedupKey(obs domain.Observation) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(obs.Visit.ParticipantID, 10))
	b.WriteString(keySeparator)
	b.WriteString(obs.Visit.VisitDate.Format(domain.DateLayout))
	b.WriteString(keySeparator)
	b.WriteString(obs.Entity)
	for _, d := range obs.Discriminators {
		b.WriteString(keySeparator)
		b.WriteString(d)
	}
	return b.String()
}

// Deduplicate keeps one observation per logical key: the last one in input
// order. Survivors keep their relative order.
func Deduplicate(t *domain.ObservationTable) *domain.ObservationTable {
	keys := make([]string, len(t.Rows))
	last := make(map[string]int, len(t.Rows))
	for i, obs := range t.Rows {
		keys[i] = DedupKey(obs)
		last[keys[i]] = i
	}

	rows := make([]domain.Observation, 0, len(last))
	for i, obs := range t.Rows {
		if last[keys[i]] == i {
			rows = append(rows, obs)
		}
	}
	return t.WithRows(rows)
}
