// Package config provides configuration management for churnprep runs.
//
// A Config starts from NewConfig defaults, is overlaid by a JSON or YAML
// file, then by CHURNPREP_* environment variables (optionally seeded from a
// .env file), and is finally checked with Validate.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "CHURNPREP"

// Input sources.
const (
	SourceCSV   = "csv"
	SourceExcel = "excel"
	SourceSQL   = "sql"
)

// Default configuration values
const (
	DefaultReferenceYear     = 2020
	DefaultHorizon           = "2020-01-01"
	DefaultPolicy            = "one-month"
	DefaultParallelThreshold = 1000
	DefaultTarget            = "is_active"
	DefaultTestSize          = 0.2
	DefaultSeed              = 54321
	DefaultSQLTimeout        = 10 * time.Second
)

// Config represents the configuration of a churnprep run
type Config struct {
	Input    InputConfig    `json:"input" yaml:"input" split_words:"true"`
	Cleaning CleaningConfig `json:"cleaning" yaml:"cleaning" split_words:"true"`
	Prepare  PrepareConfig  `json:"prepare" yaml:"prepare" split_words:"true"`
	Output   OutputConfig   `json:"output" yaml:"output" split_words:"true"`
	Logging  LoggingConfig  `json:"logging" yaml:"logging" split_words:"true"`
	Metrics  MetricsConfig  `json:"metrics" yaml:"metrics" split_words:"true"`
}

// TableNames names the four raw tables in the source: file stems for CSV,
// sheet names for Excel, table names for SQL.
type TableNames struct {
	Contract string `json:"contract" yaml:"contract" split_words:"true" validate:"required"`
	Internet string `json:"internet" yaml:"internet" split_words:"true" validate:"required"`
	Personal string `json:"personal" yaml:"personal" split_words:"true" validate:"required"`
	Phone    string `json:"phone" yaml:"phone" split_words:"true" validate:"required"`
}

// InputConfig selects where the raw tables come from.
type InputConfig struct {
	Source   string     `json:"source" yaml:"source" split_words:"true" validate:"oneof=csv excel sql"`
	Dir      string     `json:"dir" yaml:"dir" split_words:"true" validate:"required_if=Source csv"`
	Workbook string     `json:"workbook" yaml:"workbook" split_words:"true" validate:"required_if=Source excel"`
	Tables   TableNames `json:"tables" yaml:"tables" split_words:"true"`
	SQL      SQLConfig  `json:"sql" yaml:"sql" split_words:"true"`
}

// SQLConfig configures the database source. For snowflake the DSN may be
// left empty and built from the account fields.
type SQLConfig struct {
	Driver    string        `json:"driver" yaml:"driver" split_words:"true" validate:"omitempty,oneof=postgres snowflake"`
	DSN       string        `json:"dsn" yaml:"dsn" split_words:"true"`
	Timeout   time.Duration `json:"timeout" yaml:"timeout" split_words:"true" validate:"gte=0"`
	Account   string        `json:"account" yaml:"account" split_words:"true"`
	User      string        `json:"user" yaml:"user" split_words:"true"`
	Password  string        `json:"-" yaml:"-" split_words:"true"`
	Database  string        `json:"database" yaml:"database" split_words:"true"`
	Schema    string        `json:"schema" yaml:"schema" split_words:"true"`
	Warehouse string        `json:"warehouse" yaml:"warehouse" split_words:"true"`
	Role      string        `json:"role" yaml:"role" split_words:"true"`
}

// CleaningConfig controls expiry resolution and the cleaning stage.
type CleaningConfig struct {
	ReferenceYear      int      `json:"reference_year" yaml:"reference_year" split_words:"true" validate:"gte=1900,lte=2100"`
	Horizon            string   `json:"horizon" yaml:"horizon" split_words:"true" validate:"datetime=2006-01-02"`
	MonthToMonthPolicy string   `json:"month_to_month_policy" yaml:"month_to_month_policy" split_words:"true" validate:"oneof=strict one-month"`
	DropColumns        []string `json:"drop_columns" yaml:"drop_columns" split_words:"true"`
	ParallelThreshold  int      `json:"parallel_threshold" yaml:"parallel_threshold" split_words:"true" validate:"gte=1"`
	Workers            int      `json:"workers" yaml:"workers" split_words:"true" validate:"gte=0"`
}

// PrepareConfig controls splitting, encoding and scaling.
type PrepareConfig struct {
	Target        string   `json:"target" yaml:"target" split_words:"true" validate:"required"`
	OneHotColumns []string `json:"one_hot_columns" yaml:"one_hot_columns" split_words:"true"`
	LabelColumns  []string `json:"label_columns" yaml:"label_columns" split_words:"true"`
	ScaleColumns  []string `json:"scale_columns" yaml:"scale_columns" split_words:"true"`
	TestSize      float64  `json:"test_size" yaml:"test_size" split_words:"true" validate:"gt=0,lt=1"`
	Seed          int64    `json:"seed" yaml:"seed" split_words:"true"`
	OverSample    bool     `json:"over_sample" yaml:"over_sample" split_words:"true"`
}

// OutputConfig names the destination of the feature table.
type OutputConfig struct {
	Path   string `json:"path" yaml:"path" split_words:"true"`
	Format string `json:"format" yaml:"format" split_words:"true" validate:"omitempty,oneof=csv parquet"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" split_words:"true" validate:"oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" split_words:"true" validate:"oneof=json console"`
}

// MetricsConfig configures stage metrics.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" split_words:"true"`
	File    string `json:"file" yaml:"file" split_words:"true"`
}

// NewConfig creates a new configuration with default values
func NewConfig() Config {
	return Config{
		Input: InputConfig{
			Source: SourceCSV,
			Dir:    "data",
			Tables: TableNames{
				Contract: "contract",
				Internet: "internet",
				Personal: "personal",
				Phone:    "phone",
			},
			SQL: SQLConfig{Timeout: DefaultSQLTimeout},
		},
		Cleaning: CleaningConfig{
			ReferenceYear:      DefaultReferenceYear,
			Horizon:            DefaultHorizon,
			MonthToMonthPolicy: DefaultPolicy,
			ParallelThreshold:  DefaultParallelThreshold,
		},
		Prepare: PrepareConfig{
			Target:        DefaultTarget,
			OneHotColumns: []string{"payment_method"},
			LabelColumns:  []string{"type"},
			ScaleColumns:  []string{"type", "monthly_charges", "total_charges", "active_days"},
			TestSize:      DefaultTestSize,
			Seed:          DefaultSeed,
			OverSample:    true,
		},
		Output: OutputConfig{
			Path: filepath.Join("out", "features.csv"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// HorizonDate parses the observation horizon.
func (c *Config) HorizonDate() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, c.Cleaning.Horizon)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing horizon %q: %w", c.Cleaning.Horizon, err)
	}
	return t, nil
}

var validate = validator.New()

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Input.Source == SourceSQL {
		if c.Input.SQL.Driver == "" {
			return fmt.Errorf("invalid configuration: input.sql.driver is required for the sql source")
		}
		if c.Input.SQL.DSN == "" && c.Input.SQL.Driver != "snowflake" {
			return fmt.Errorf("invalid configuration: input.sql.dsn is required for driver %s", c.Input.SQL.Driver)
		}
		if c.Input.SQL.DSN == "" && c.Input.SQL.Account == "" {
			return fmt.Errorf("invalid configuration: input.sql.dsn or input.sql.account is required")
		}
	}
	return nil
}

// LoadFromJSON loads configuration from JSON data on top of the defaults
func LoadFromJSON(data []byte) (Config, error) {
	config := NewConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing JSON configuration: %w", err)
	}
	return config, nil
}

// LoadFromFile loads configuration from a JSON or YAML file on top of the defaults
func LoadFromFile(filename string) (Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file %s: %w", filename, err)
	}

	config := NewConfig()
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".json":
		err = json.Unmarshal(data, &config)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &config)
	default:
		return Config{}, fmt.Errorf("unsupported config file format: %s", ext)
	}

	if err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", filename, err)
	}

	return config, nil
}

// LoadFromEnv overlays CHURNPREP_* environment variables onto config, e.g.
// CHURNPREP_CLEANING_MONTH_TO_MONTH_POLICY or CHURNPREP_INPUT_SQL_DSN.
func LoadFromEnv(config Config) (Config, error) {
	if err := envconfig.Process(EnvPrefix, &config); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	return config, nil
}

// LoadDotEnv loads variables from .env files into the process environment
// without overriding variables that are already set. Missing files are
// ignored.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if _, err := os.Stat(name); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			return fmt.Errorf("loading %s: %w", name, err)
		}
	}
	return nil
}

// Load builds the run configuration: defaults, then the file at path (when
// non-empty), then the environment. The result is validated.
func Load(path string) (Config, error) {
	config := NewConfig()
	if path != "" {
		var err error
		if config, err = LoadFromFile(path); err != nil {
			return Config{}, err
		}
	}

	config, err := LoadFromEnv(config)
	if err != nil {
		return Config{}, err
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}
