package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/patient-summaries/internal/domain"
)

// Inputs holds the three raw source tables of one run. A nil table is
// treated as empty.
type Inputs struct {
	Markers          *domain.RawTable
	CopyNumber       *domain.RawTable
	SequenceVariants *domain.RawTable
}

// Result is the output of one pipeline run.
type Result struct {
	Summary          *domain.WideTable
	Markers          *domain.WideTable
	CopyNumber       *domain.WideTable
	SequenceVariants *domain.WideTable
	Report           *domain.RunReport
}

// PipelineService runs normalization, filtering, deduplication, pivot,
// classification and reconciliation over the source tables.
type PipelineService struct {
	logger     *logrus.Logger
	opts       *Options
	normalizer *Normalizer
	classifier *SubtypeClassifier
	reconciler *Reconciler
}

// NewPipelineService creates a pipeline for opts.
func NewPipelineService(logger *logrus.Logger, opts *Options) (*PipelineService, error) {
	normalizer, err := NewNormalizer(logger, opts.Vocabulary, opts.DateCacheSize)
	if err != nil {
		return nil, err
	}
	classifier, err := NewSubtypeClassifier(logger, opts.Scheme)
	if err != nil {
		return nil, err
	}
	classifier.SetMarkerColumns(StatusColumns(opts.Markers.Schema, opts.EntityFirst))
	return &PipelineService{
		logger:     logger,
		opts:       opts,
		normalizer: normalizer,
		classifier: classifier,
		reconciler: NewReconciler(logger),
	}, nil
}

// Run reconciles the inputs into one patient summary table. Row-level
// problems are recorded in the report; only schema mismatches fail the run.
func (p *PipelineService) Run(in Inputs) (*Result, error) {
	startTime := time.Now()
	report := domain.NewRunReport(uuid.NewString())
	log := p.logger.WithField("run_id", report.RunID)
	log.Info("Starting patient summary reconciliation")

	markers, err := p.wideTable(in.Markers, p.opts.Markers, report)
	if err != nil {
		return nil, fmt.Errorf("failed to process marker table: %w", err)
	}
	markers, ambiguous := p.classifier.Annotate(markers)
	report.Ambiguous = append(report.Ambiguous, ambiguous...)
	for _, row := range markers.Rows {
		report.Subtypes[row.Cells[domain.SubtypeColumn]]++
	}

	copyNumber, err := p.wideTable(in.CopyNumber, p.opts.CopyNumber, report)
	if err != nil {
		return nil, fmt.Errorf("failed to process copy number table: %w", err)
	}
	sequence, err := p.wideTable(in.SequenceVariants, p.opts.SequenceVariants, report)
	if err != nil {
		return nil, fmt.Errorf("failed to process sequence variant table: %w", err)
	}

	summary := p.reconciler.Reconcile(markers, copyNumber, sequence)
	report.SummaryRows = summary.Len()

	log.WithFields(logrus.Fields{
		"summary_rows":         summary.Len(),
		"summary_columns":      len(summary.Columns),
		"normalization_errors": len(report.NormalizationErrors),
		"ambiguous_subtypes":   len(report.Ambiguous),
		"empty_inputs":         len(report.EmptyInputs),
		"processing_time":      time.Since(startTime),
	}).Info("Patient summary reconciliation completed")

	return &Result{
		Summary:          summary,
		Markers:          markers,
		CopyNumber:       copyNumber,
		SequenceVariants: sequence,
		Report:           report,
	}, nil
}

// wideTable takes one raw source table through normalize, filter,
// deduplicate and pivot.
func (p *PipelineService) wideTable(raw *domain.RawTable, table TableOptions, report *domain.RunReport) (*domain.WideTable, error) {
	schema := table.Schema
	log := p.logger.WithFields(logrus.Fields{"run_id": report.RunID, "table": schema.Name})
	counts := report.Counts(schema.Name)

	if raw == nil {
		raw = &domain.RawTable{Name: schema.Name}
	}
	counts.Raw = len(raw.Rows)
	if len(raw.Rows) == 0 && len(raw.Header) == 0 {
		p.warnEmpty(report, schema.Name, "load")
		return domain.NewWideTable(schema.Name, nil), nil
	}

	observations, rowErrors, err := p.normalizer.Normalize(raw, schema)
	if err != nil {
		return nil, err
	}
	if len(rowErrors) > 0 {
		report.NormalizationErrors = append(report.NormalizationErrors, rowErrors...)
		for _, e := range rowErrors {
			log.WithFields(logrus.Fields{
				"row":    e.Row,
				"column": e.Column,
				"value":  e.Value,
			}).Debug(e.Reason)
		}
		log.WithField("excluded_rows", len(rowErrors)).Warn("Excluded rows that could not be normalized")
	}
	counts.Normalized = observations.Len()
	if observations.Len() == 0 {
		p.warnEmpty(report, schema.Name, "normalization")
		return domain.NewWideTable(schema.Name, nil), nil
	}

	filtered := NewFilter(p.opts, schema).Apply(observations)
	counts.Filtered = filtered.Len()
	if filtered.Len() == 0 {
		p.warnEmpty(report, schema.Name, "filtering")
		return domain.NewWideTable(schema.Name, nil), nil
	}

	deduplicated := Deduplicate(filtered)
	counts.Deduplicated = deduplicated.Len()

	wide := Pivot(deduplicated, PivotOptions{
		Entities:      table.Entities,
		SortAscending: p.opts.SortAscending,
		EntityFirst:   p.opts.EntityFirst,
		Aggregate:     table.Aggregate,
	})
	counts.Visits = wide.Len()
	if wide.Len() == 0 {
		p.warnEmpty(report, schema.Name, "entity selection")
	}

	log.WithFields(logrus.Fields{
		"raw":          counts.Raw,
		"normalized":   counts.Normalized,
		"filtered":     counts.Filtered,
		"deduplicated": counts.Deduplicated,
		"visits":       counts.Visits,
		"columns":      len(wide.Columns),
	}).Info("Processed source table")
	return wide, nil
}

func (p *PipelineService) warnEmpty(report *domain.RunReport, table, stage string) {
	w := domain.EmptyInputWarning{Table: table, Stage: stage}
	report.EmptyInputs = append(report.EmptyInputs, w)
	p.logger.WithFields(logrus.Fields{
		"run_id": report.RunID,
		"table":  table,
		"stage":  stage,
	}).Warn("Source table yielded no rows")
}
