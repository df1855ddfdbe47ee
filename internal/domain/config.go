package domain

// Config represents the main application configuration
type Config struct {
	Environment    string               `mapstructure:"environment"`
	Paths          PathsConfig          `mapstructure:"paths"`
	Tables         TablesConfig         `mapstructure:"tables"`
	Filters        FiltersConfig        `mapstructure:"filters"`
	Reports        ReportsConfig        `mapstructure:"reports"`
	SummaryColumns SummaryColumnsConfig `mapstructure:"summary_columns"`
	MarkerValues   MarkerValuesConfig   `mapstructure:"marker_values"`
	Classification ClassificationConfig `mapstructure:"classification"`
	Lookups        []LookupConfig       `mapstructure:"lookups"`
	Output         OutputConfig         `mapstructure:"output"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

// PathsConfig holds the input table exports and the output directory
type PathsConfig struct {
	Out              string `mapstructure:"out"`
	Markers          string `mapstructure:"markers"`
	CopyNumber       string `mapstructure:"copy_number"`
	SequenceVariants string `mapstructure:"sequence_variants"`
}

// TableConfig names the source columns of one table
type TableConfig struct {
	ParticipantColumn    string   `mapstructure:"participant_column"`
	DateColumn           string   `mapstructure:"date_column"`
	ReportedColumn       string   `mapstructure:"reported_column"`
	StatusColumn         string   `mapstructure:"status_column"`
	DiscriminatorColumns []string `mapstructure:"discriminator_columns"`
}

// TablesConfig holds per-table column configuration
type TablesConfig struct {
	Markers          TableConfig `mapstructure:"markers"`
	CopyNumber       TableConfig `mapstructure:"copy_number"`
	SequenceVariants TableConfig `mapstructure:"sequence_variants"`
}

// FiltersConfig restricts which source rows are considered
type FiltersConfig struct {
	// IDRange is [min, max): min inclusive, max exclusive.
	IDRange                []int64 `mapstructure:"id_range"`
	CNVReportedFilter      bool    `mapstructure:"cnv_reported_filter"`
	MutationReportedFilter bool    `mapstructure:"mutation_reported_filter"`
}

// ReportsConfig selects the per-study and single-patient outputs
type ReportsConfig struct {
	Studies map[string][]int64 `mapstructure:"studies"`
	Single  int64              `mapstructure:"single"`
}

// SummaryColumnsConfig lists the columns and entities summarized per table.
// The first element of each *Columns list is the entity column.
type SummaryColumnsConfig struct {
	IHCColumns      []string `mapstructure:"ihc_columns"`
	CNVColumns      []string `mapstructure:"cnv_columns"`
	MutationColumns []string `mapstructure:"mutation_columns"`
	IHCMarkers      []string `mapstructure:"ihc_markers"`
	CNVGenes        []string `mapstructure:"cnv_genes"`
	MutationGenes   []string `mapstructure:"mutation_genes"`
	SortAscending   bool     `mapstructure:"sort_ascending"`
	EntityFirst     bool     `mapstructure:"entity_first"`
}

// MarkerValuesConfig maps raw marker status vocabulary to Positive/Negative
type MarkerValuesConfig struct {
	Positive []string `mapstructure:"positive"`
	Negative []string `mapstructure:"negative"`
}

// ClassificationConfig selects the subtype rule set
type ClassificationConfig struct {
	Scheme string `mapstructure:"scheme"`
}

// LookupConfig maps integer codes in a source column to labels read from a
// JSON object file
type LookupConfig struct {
	Table  string `mapstructure:"table"`
	Column string `mapstructure:"column"`
	Path   string `mapstructure:"path"`
}

// OutputConfig represents export configuration
type OutputConfig struct {
	Format      string `mapstructure:"format"` // "tsv", "csv"
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresURL string `mapstructure:"postgres_url"`
	TableName   string `mapstructure:"table_name"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"` // "stdout", "stderr", "file"
	Filename string `mapstructure:"filename"`
}

// Table names used in schemas, lookups and reports.
const (
	TableMarkers          = "markers"
	TableCopyNumber       = "copy_number"
	TableSequenceVariants = "sequence_variants"
)
