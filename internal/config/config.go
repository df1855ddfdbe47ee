package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/patient-summaries/internal/domain"
)

// DefaultConfigPath is the configuration file read when none is given.
const DefaultConfigPath = "patient_summaries_config.json"

// EnvPrefix prefixes environment overrides, e.g.
// PATIENT_SUMMARIES_LOGGING_LEVEL=debug.
const EnvPrefix = "PATIENT_SUMMARIES"

// Manager loads the run configuration using Viper
type Manager struct {
	v      *viper.Viper
	path   string
	config *domain.Config
}

// NewManager creates a configuration manager for the file at path. An empty
// path searches the working directory for patient_summaries_config.json.
func NewManager(path string) (*Manager, error) {
	m := &Manager{v: viper.New(), path: path}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from the file, defaults and environment
func (m *Manager) loadConfig() error {
	v := m.v

	if m.path != "" {
		v.SetConfigFile(m.path)
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultConfigPath, ".json"))
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	m.setDefaults()

	// An explicit path must exist; the search path may come up empty.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.path != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
		if m.IsProduction() {
			config.Logging.Format = "json"
		}
	}
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	v := m.v

	v.SetDefault("environment", "development")
	v.SetDefault("paths.out", ".")

	// Source table columns
	for _, table := range []string{domain.TableMarkers, domain.TableCopyNumber, domain.TableSequenceVariants} {
		v.SetDefault("tables."+table+".participant_column", domain.ParticipantIDColumn)
		v.SetDefault("tables."+table+".date_column", "Collection Date")
		v.SetDefault("tables."+table+".reported_column", "Reported")
	}
	v.SetDefault("tables.markers.date_column", domain.VisitDateColumn)
	v.SetDefault("tables.markers.status_column", "Status")
	v.SetDefault("tables.sequence_variants.discriminator_columns",
		[]string{"Position Start", "Position End", "Reference Base", "Variant Base"})

	// Filters
	v.SetDefault("filters.cnv_reported_filter", false)
	v.SetDefault("filters.mutation_reported_filter", false)

	// Summary columns
	v.SetDefault("summary_columns.ihc_columns", []string{"Marker", "Status"})
	v.SetDefault("summary_columns.cnv_columns", []string{"Gene", "Copy Number"})
	v.SetDefault("summary_columns.mutation_columns", []string{"Gene", "Protein Change"})
	v.SetDefault("summary_columns.ihc_markers", []string{domain.MarkerER, domain.MarkerPR, domain.MarkerHER2})
	v.SetDefault("summary_columns.sort_ascending", true)
	v.SetDefault("summary_columns.entity_first", false)

	v.SetDefault("classification.scheme", string(domain.SchemeIntrinsic))

	// Output defaults
	v.SetDefault("output.format", "tsv")
	v.SetDefault("output.table_name", "patient_summaries")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.output", "stdout")
	// logging.format follows environment unless set; bind it so the env
	// override is still seen without a default.
	_ = v.BindEnv("logging.format")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// ConfigFileUsed returns the file the configuration was read from, or ""
// when only defaults and environment were used.
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// SetOutputDir overrides paths.out
func (m *Manager) SetOutputDir(dir string) {
	m.v.Set("paths.out", dir)
	m.config.Paths.Out = dir
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if r := config.Filters.IDRange; len(r) > 0 {
		if len(r) != 2 {
			return domain.NewConfigError("filters.id_range", "expected exactly two bounds [min, max)", r)
		}
		if r[0] >= r[1] {
			return domain.NewConfigError("filters.id_range", fmt.Sprintf("empty id range: min %d must be below max %d", r[0], r[1]), r)
		}
	}

	positive := make(map[string]bool, len(config.MarkerValues.Positive))
	for _, p := range config.MarkerValues.Positive {
		positive[strings.TrimSpace(p)] = true
	}
	for _, n := range config.MarkerValues.Negative {
		if positive[strings.TrimSpace(n)] {
			return domain.NewConfigError("marker_values", "value listed as both positive and negative", n)
		}
	}

	columns := map[string][]string{
		"summary_columns.ihc_columns":      config.SummaryColumns.IHCColumns,
		"summary_columns.cnv_columns":      config.SummaryColumns.CNVColumns,
		"summary_columns.mutation_columns": config.SummaryColumns.MutationColumns,
	}
	for _, field := range []string{"summary_columns.ihc_columns", "summary_columns.cnv_columns", "summary_columns.mutation_columns"} {
		if len(columns[field]) < 2 {
			return domain.NewConfigError(field, "needs an entity column and at least one attribute", columns[field])
		}
	}

	if !domain.ClassificationScheme(config.Classification.Scheme).IsValid() {
		return domain.NewConfigError("classification.scheme", "unknown classification scheme", config.Classification.Scheme)
	}

	switch strings.ToLower(config.Output.Format) {
	case "tsv", "csv":
	default:
		return domain.NewConfigError("output.format", "unsupported output format", config.Output.Format)
	}

	for i, l := range config.Lookups {
		if l.Table == "" || l.Column == "" || l.Path == "" {
			return domain.NewConfigError(fmt.Sprintf("lookups[%d]", i), "table, column and path are required", l)
		}
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return domain.NewConfigError("logging.level", "invalid log level", config.Logging.Level)
	}
	if config.Logging.Output == "file" && config.Logging.Filename == "" {
		return domain.NewConfigError("logging.filename", "required when logging.output is file", nil)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(m.config.Environment) == "production"
}
