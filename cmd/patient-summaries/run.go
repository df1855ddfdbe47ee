package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/patient-summaries/internal/config"
	"github.com/patient-summaries/internal/database"
	"github.com/patient-summaries/internal/domain"
	"github.com/patient-summaries/internal/export"
	"github.com/patient-summaries/internal/service"
	"github.com/patient-summaries/internal/source"
)

func run(ctx context.Context, configPath, outDir string) error {
	configManager, err := config.NewManager(configPath)
	if err != nil {
		return err
	}
	if outDir != "" {
		configManager.SetOutputDir(outDir)
	}
	if err := configManager.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	cfg := configManager.GetConfig()

	logger, closer, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.WithField("config", configManager.ConfigFileUsed()).Info("Loaded configuration")

	opts, err := service.NewOptions(cfg)
	if err != nil {
		return fmt.Errorf("invalid pipeline options: %w", err)
	}
	pipeline, err := service.NewPipelineService(logger, opts)
	if err != nil {
		return err
	}

	inputs, err := loadInputs(cfg, logger)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(inputs)
	if err != nil {
		return err
	}
	logReport(logger, result.Report)

	files := export.NewFileExporter(logger, cfg.Paths.Out, cfg.Output.Format)
	if _, err := files.Export(result.Summary, cfg.Reports); err != nil {
		return err
	}

	return exportDatabases(ctx, cfg.Output, result.Summary, logger)
}

// loadInputs reads the three source tables and applies lookup lists. A
// table without a configured path is passed on as nil.
func loadInputs(cfg *domain.Config, logger *logrus.Logger) (service.Inputs, error) {
	paths := map[string]string{
		domain.TableMarkers:          cfg.Paths.Markers,
		domain.TableCopyNumber:       cfg.Paths.CopyNumber,
		domain.TableSequenceVariants: cfg.Paths.SequenceVariants,
	}
	tables := make(map[string]*domain.RawTable, len(paths))
	for name, path := range paths {
		if path == "" {
			logger.WithField("table", name).Warn("No input path configured for table")
			continue
		}
		t, err := source.ReadFile(path, name)
		if err != nil {
			return service.Inputs{}, err
		}
		logger.WithFields(logrus.Fields{
			"table": name,
			"path":  path,
			"rows":  len(t.Rows),
		}).Info("Read source table")
		tables[name] = t
	}

	for _, l := range cfg.Lookups {
		t, ok := tables[l.Table]
		if !ok {
			return service.Inputs{}, domain.NewConfigError("lookups", "lookup references a table that was not loaded", l.Table)
		}
		lookup, err := source.LoadLookup(l.Path)
		if err != nil {
			return service.Inputs{}, err
		}
		n, err := lookup.Apply(t, l.Column)
		if err != nil {
			return service.Inputs{}, err
		}
		logger.WithFields(logrus.Fields{
			"table":  l.Table,
			"column": l.Column,
			"mapped": n,
		}).Debug("Applied lookup list")
	}

	return service.Inputs{
		Markers:          tables[domain.TableMarkers],
		CopyNumber:       tables[domain.TableCopyNumber],
		SequenceVariants: tables[domain.TableSequenceVariants],
	}, nil
}

func exportDatabases(ctx context.Context, out domain.OutputConfig, summary *domain.WideTable, logger *logrus.Logger) error {
	if out.SQLitePath != "" {
		db, err := database.NewSQLite(ctx, out.SQLitePath, logger)
		if err != nil {
			return err
		}
		err = export.NewSQLExporter(db.SQL, db.Dialect, logger).Export(ctx, out.TableName, summary)
		db.Close()
		if err != nil {
			return err
		}
	}
	if out.PostgresURL != "" {
		db, err := database.NewPostgres(ctx, database.DefaultConfig(out.PostgresURL), logger)
		if err != nil {
			return err
		}
		err = export.NewSQLExporter(db.SQL, db.Dialect, logger).Export(ctx, out.TableName, summary)
		db.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func logReport(logger *logrus.Logger, report *domain.RunReport) {
	for _, table := range []string{domain.TableMarkers, domain.TableCopyNumber, domain.TableSequenceVariants} {
		c := report.Counts(table)
		logger.WithFields(logrus.Fields{
			"run_id":               report.RunID,
			"table":                table,
			"raw":                  c.Raw,
			"visits":               c.Visits,
			"normalization_errors": report.NormalizationErrorCount(table),
		}).Info("Table summary")
	}
	for _, a := range report.Ambiguous {
		logger.WithField("run_id", report.RunID).Debug(a.String())
	}
	logger.WithFields(logrus.Fields{
		"run_id":       report.RunID,
		"summary_rows": report.SummaryRows,
		"subtypes":     report.Subtypes,
		"ambiguous":    len(report.Ambiguous),
		"empty_inputs": len(report.EmptyInputs),
	}).Info("Run report")
}
