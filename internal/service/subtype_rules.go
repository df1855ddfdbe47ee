package service

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/patient-summaries/internal/domain"
)

// MarkerColumn names the wide column that holds a marker's status.
type MarkerColumn func(marker string) string

// StatusColumns resolves marker status cells the way Pivot names them for
// schema. A schema without a status column reads its first attribute.
func StatusColumns(schema *domain.Schema, entityFirst bool) MarkerColumn {
	status := schema.StatusColumn
	if status == "" && len(schema.AttributeColumns) > 0 {
		status = schema.AttributeColumns[0]
	}
	return func(marker string) string {
		return schema.OutputColumn(marker, status, entityFirst)
	}
}

func markerName(marker string) string { return marker }

// MarkerPanel exposes the marker status cells of one wide marker row.
type MarkerPanel struct {
	row    domain.WideRow
	column MarkerColumn
}

// NewMarkerPanel wraps a row whose status columns are named after the
// markers themselves.
func NewMarkerPanel(row domain.WideRow) MarkerPanel {
	return MarkerPanel{row: row, column: markerName}
}

func (p MarkerPanel) get(marker string) (string, bool) {
	return p.row.Get(p.column(marker))
}

// Positive reports whether marker is Positive.
func (p MarkerPanel) Positive(marker string) bool {
	v, ok := p.get(marker)
	return ok && v == domain.StatusPositive
}

// Negative reports whether marker is Negative.
func (p MarkerPanel) Negative(marker string) bool {
	v, ok := p.get(marker)
	return ok && v == domain.StatusNegative
}

// HormonePositive reports whether ER or PR is Positive.
func (p MarkerPanel) HormonePositive() bool {
	return p.Positive(domain.MarkerER) || p.Positive(domain.MarkerPR)
}

// unresolved lists markers that are missing or hold a value other than
// Positive or Negative.
func (p MarkerPanel) unresolved(markers []string) map[string]string {
	out := make(map[string]string)
	for _, m := range markers {
		v, ok := p.get(m)
		if !ok || (v != domain.StatusPositive && v != domain.StatusNegative) {
			out[m] = v
		}
	}
	return out
}

// SubtypeRule assigns Label when Applies holds. Rules are evaluated in their
// declared order and the first match wins.
type SubtypeRule struct {
	Name    string
	Label   domain.Subtype
	Applies func(p MarkerPanel) bool
}

// IntrinsicRules returns the Luminal A / Luminal B / Triple Negative rule
// set. Hormone receptor positive visits with an unresolved HER2 status match
// no rule.
func IntrinsicRules() []SubtypeRule {
	return []SubtypeRule{
		{
			Name:  "luminal_a",
			Label: domain.LuminalA,
			Applies: func(p MarkerPanel) bool {
				return p.HormonePositive() && p.Negative(domain.MarkerHER2)
			},
		},
		{
			Name:  "luminal_b",
			Label: domain.LuminalB,
			Applies: func(p MarkerPanel) bool {
				return p.HormonePositive() && p.Positive(domain.MarkerHER2)
			},
		},
		{
			Name:  "triple_negative",
			Label: domain.TripleNegative,
			Applies: func(p MarkerPanel) bool {
				return !p.HormonePositive() &&
					p.Negative(domain.MarkerER) && p.Negative(domain.MarkerPR) && p.Negative(domain.MarkerHER2)
			},
		},
	}
}

// ReceptorGroupRules returns the HER2 / HR Positive / Triple Negative rule
// set.
func ReceptorGroupRules() []SubtypeRule {
	return []SubtypeRule{
		{
			Name:  "her2",
			Label: domain.HER2Enriched,
			Applies: func(p MarkerPanel) bool {
				return p.Positive(domain.MarkerHER2)
			},
		},
		{
			Name:  "hr_positive",
			Label: domain.HRPositive,
			Applies: func(p MarkerPanel) bool {
				return p.HormonePositive()
			},
		},
		{
			Name:  "triple_negative",
			Label: domain.TripleNegative,
			Applies: func(p MarkerPanel) bool {
				return p.Negative(domain.MarkerER) && p.Negative(domain.MarkerPR) && p.Negative(domain.MarkerHER2)
			},
		},
	}
}

// SubtypeClassifier labels marker rows with an ordered rule list.
type SubtypeClassifier struct {
	logger  *logrus.Logger
	scheme  domain.ClassificationScheme
	rules   []SubtypeRule
	markers []string
	column  MarkerColumn
}

// NewSubtypeClassifier creates a classifier for scheme.
func NewSubtypeClassifier(logger *logrus.Logger, scheme domain.ClassificationScheme) (*SubtypeClassifier, error) {
	var rules []SubtypeRule
	switch scheme {
	case domain.SchemeIntrinsic:
		rules = IntrinsicRules()
	case domain.SchemeReceptorGroup:
		rules = ReceptorGroupRules()
	default:
		return nil, fmt.Errorf("unknown classification scheme: %s", scheme)
	}
	return NewSubtypeClassifierWithRules(logger, scheme, rules), nil
}

// NewSubtypeClassifierWithRules creates a classifier over an explicit rule
// list.
func NewSubtypeClassifierWithRules(logger *logrus.Logger, scheme domain.ClassificationScheme, rules []SubtypeRule) *SubtypeClassifier {
	return &SubtypeClassifier{
		logger:  logger,
		scheme:  scheme,
		rules:   append([]SubtypeRule(nil), rules...),
		markers: []string{domain.MarkerER, domain.MarkerPR, domain.MarkerHER2},
		column:  markerName,
	}
}

// SetMarkerColumns changes how marker status cells are located. A nil
// resolver restores plain marker-named columns.
func (c *SubtypeClassifier) SetMarkerColumns(column MarkerColumn) {
	if column == nil {
		column = markerName
	}
	c.column = column
}

// Rules returns the rule names in evaluation order.
func (c *SubtypeClassifier) Rules() []string {
	names := make([]string, len(c.rules))
	for i, r := range c.rules {
		names[i] = r.Name
	}
	return names
}

// Classify returns the label of the first matching rule. When no rule
// matches it returns Undetermined with a diagnostic describing the markers
// that blocked classification.
func (c *SubtypeClassifier) Classify(row domain.WideRow) (domain.Subtype, *domain.ClassificationAmbiguous) {
	panel := MarkerPanel{row: row, column: c.column}
	for _, rule := range c.rules {
		if rule.Applies(panel) {
			return rule.Label, nil
		}
	}
	return domain.Undetermined, &domain.ClassificationAmbiguous{
		Visit:      row.Visit,
		Unresolved: panel.unresolved(c.markers),
	}
}

// Annotate returns a copy of markers with a Subtype column appended. Input
// rows are not modified.
func (c *SubtypeClassifier) Annotate(markers *domain.WideTable) (*domain.WideTable, []domain.ClassificationAmbiguous) {
	out := domain.NewWideTable(markers.Name, append(append([]string(nil), markers.Columns...), domain.SubtypeColumn))
	var ambiguous []domain.ClassificationAmbiguous

	for _, row := range markers.Rows {
		subtype, diag := c.Classify(row)
		if diag != nil {
			ambiguous = append(ambiguous, *diag)
			c.logger.WithFields(logrus.Fields{
				"participant_id": row.Visit.ParticipantID,
				"visit_date":     row.Visit.VisitDate.Format(domain.DateLayout),
				"scheme":         c.scheme,
				"unresolved":     diag.Unresolved,
			}).Warn("Not enough marker information to determine subtype")
		}

		cells := make(map[string]string, len(row.Cells)+1)
		for k, v := range row.Cells {
			cells[k] = v
		}
		cells[domain.SubtypeColumn] = subtype.String()
		out.Rows = append(out.Rows, domain.WideRow{Visit: row.Visit, Cells: cells})
	}
	return out, ambiguous
}
