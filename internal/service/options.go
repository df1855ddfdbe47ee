package service

import (
	"fmt"
	"strings"

	"github.com/patient-summaries/internal/domain"
)

// Vocabulary maps raw marker status values to the canonical Positive and
// Negative labels.
type Vocabulary struct {
	positive map[string]bool
	negative map[string]bool
}

// NewVocabulary builds a vocabulary from the positive and negative value
// sets. A value listed in both sets is rejected.
func NewVocabulary(positive, negative []string) (*Vocabulary, error) {
	v := &Vocabulary{
		positive: make(map[string]bool, len(positive)+1),
		negative: make(map[string]bool, len(negative)+1),
	}
	for _, p := range positive {
		v.positive[strings.TrimSpace(p)] = true
	}
	for _, n := range negative {
		n = strings.TrimSpace(n)
		if v.positive[n] {
			return nil, domain.NewConfigError("marker_values", "value listed as both positive and negative", n)
		}
		v.negative[n] = true
	}
	if v.negative[domain.StatusPositive] || v.positive[domain.StatusNegative] {
		return nil, domain.NewConfigError("marker_values", "canonical status mapped to its opposite", nil)
	}
	v.positive[domain.StatusPositive] = true
	v.negative[domain.StatusNegative] = true
	return v, nil
}

// Canonicalize returns Positive or Negative for a covered value and the
// trimmed raw value otherwise.
func (v *Vocabulary) Canonicalize(raw string) string {
	value := strings.TrimSpace(raw)
	switch {
	case v.positive[value]:
		return domain.StatusPositive
	case v.negative[value]:
		return domain.StatusNegative
	default:
		return value
	}
}

// TableOptions configures the stages for one source table.
type TableOptions struct {
	Schema   *domain.Schema
	Entities []string
	// Aggregate overrides how repeated values of an attribute are combined
	// when pivoting.
	Aggregate map[string]AggregateFunc
}

// Options is the immutable configuration of one pipeline run.
type Options struct {
	Markers          TableOptions
	CopyNumber       TableOptions
	SequenceVariants TableOptions

	// IDMin and IDMax bound participant ids to [IDMin, IDMax) when
	// HasIDRange is set.
	IDMin      int64
	IDMax      int64
	HasIDRange bool

	Vocabulary    *Vocabulary
	Scheme        domain.ClassificationScheme
	SortAscending bool
	EntityFirst   bool
	DateCacheSize int
}

// NewOptions derives run options from the application configuration.
func NewOptions(cfg *domain.Config) (*Options, error) {
	vocabulary, err := NewVocabulary(cfg.MarkerValues.Positive, cfg.MarkerValues.Negative)
	if err != nil {
		return nil, err
	}

	sc := cfg.SummaryColumns
	markers, err := tableSchema(domain.TableMarkers, cfg.Tables.Markers, sc.IHCColumns, false)
	if err != nil {
		return nil, err
	}
	copyNumber, err := tableSchema(domain.TableCopyNumber, cfg.Tables.CopyNumber, sc.CNVColumns, cfg.Filters.CNVReportedFilter)
	if err != nil {
		return nil, err
	}
	sequence, err := tableSchema(domain.TableSequenceVariants, cfg.Tables.SequenceVariants, sc.MutationColumns, cfg.Filters.MutationReportedFilter)
	if err != nil {
		return nil, err
	}

	scheme := domain.ClassificationScheme(cfg.Classification.Scheme)
	if scheme == "" {
		scheme = domain.SchemeIntrinsic
	}
	if !scheme.IsValid() {
		return nil, domain.NewConfigError("classification.scheme", "unknown classification scheme", cfg.Classification.Scheme)
	}

	opts := &Options{
		Markers:          TableOptions{Schema: markers, Entities: sc.IHCMarkers},
		CopyNumber:       TableOptions{Schema: copyNumber, Entities: sc.CNVGenes},
		SequenceVariants: TableOptions{Schema: sequence, Entities: sc.MutationGenes},
		Vocabulary:       vocabulary,
		Scheme:           scheme,
		SortAscending:    sc.SortAscending,
		EntityFirst:      sc.EntityFirst,
		DateCacheSize:    defaultDateCacheSize,
	}
	if r := cfg.Filters.IDRange; len(r) > 0 {
		if len(r) != 2 || r[0] >= r[1] {
			return nil, domain.NewConfigError("filters.id_range", "expected [min, max) with min < max", r)
		}
		opts.IDMin, opts.IDMax, opts.HasIDRange = r[0], r[1], true
	}
	return opts, nil
}

func tableSchema(name string, tc domain.TableConfig, columns []string, requireReported bool) (*domain.Schema, error) {
	if len(columns) < 2 {
		return nil, domain.NewConfigError("summary_columns", fmt.Sprintf("%s needs an entity column and at least one attribute", name), columns)
	}
	s := &domain.Schema{
		Name:                 name,
		ParticipantColumn:    tc.ParticipantColumn,
		DateColumn:           tc.DateColumn,
		EntityColumn:         columns[0],
		AttributeColumns:     append([]string(nil), columns[1:]...),
		DiscriminatorColumns: append([]string(nil), tc.DiscriminatorColumns...),
		StatusColumn:         tc.StatusColumn,
	}
	if requireReported {
		s.ReportedColumn = tc.ReportedColumn
		if s.ReportedColumn == "" {
			return nil, domain.NewConfigError("tables."+name+".reported_column", "required when the reported filter is enabled", nil)
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
