// =============================================================================
// Party Ledger Builder - Configuration Module
// =============================================================================
//
// This module loads the two layers of configuration:
//   1. Main Config (config.yaml): where sources live, where the workbook is
//      written, logging and run policy.
//   2. Organization Settings (org.env / org.yaml): the flat key-value map
//      naming the organization, its source sheets and their column names.
//      See org.go.
//
// Both layers are validated on load. A missing mandatory value is reported as
// apperrors.ErrConfiguration before anything is written.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// SourcesDir is where source workbooks and CSV exports are looked up when
	// a sheet id is not an absolute path.
	// Default: "./sources"
	SourcesDir string `yaml:"sources_dir" validate:"required"`

	// OutputWorkbook is the ledger workbook that is rebuilt on every refresh.
	// Default: "./output/ledgers.xlsx"
	OutputWorkbook string `yaml:"output_workbook" validate:"required,endswith=.xlsx"`

	// ArchiveDir receives a copy of the previous workbook before it is
	// overwritten. Empty disables archiving.
	// Default: "./output/archive"
	ArchiveDir string `yaml:"archive_dir"`

	// ArchiveRetention is how many archived workbooks are kept.
	// Default: 10
	ArchiveRetention int `yaml:"archive_retention" validate:"gte=1"`

	// OrgConfig is the organization settings file.
	// Default: "./org.env"
	OrgConfig string `yaml:"org_config" validate:"required"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects human readable ("console") or structured ("json") logs.
	// Default: "console"
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`

	// MetricsFile is a Prometheus textfile written after each run. Empty
	// disables it.
	MetricsFile string `yaml:"metrics_file"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// HeaderScanRows is how many rows of a source are searched for the header.
	// Default: 10, which is also the maximum.
	HeaderScanRows int `yaml:"header_scan_rows" validate:"gte=1,lte=10"`

	// ContinueOnRenderError skips a party whose sheet fails to render instead
	// of failing the whole run.
	// Default: false
	ContinueOnRenderError bool `yaml:"continue_on_render_error"`

	// CSVSettings apply to every CSV source.
	CSVSettings CSVSettings `yaml:"csv_settings"`
}

// CSVSettings contains settings for parsing CSV sources.
type CSVSettings struct {
	// Delimiter is the character used to separate fields.
	// Common values: "," (comma), "|" (pipe), "\t" (tab)
	// Default: ","
	Delimiter string `yaml:"delimiter"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// DefaultMainConfig returns the configuration used when no file is present.
func DefaultMainConfig() *MainConfig {
	cfg := &MainConfig{}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseMainConfig(data)
}

// ParseMainConfig parses, defaults and validates YAML configuration data.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var cfg MainConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&cfg)

	if err := validateMainConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(cfg *MainConfig) {
	if cfg.SourcesDir == "" {
		cfg.SourcesDir = "./sources"
	}
	if cfg.OutputWorkbook == "" {
		cfg.OutputWorkbook = "./output/ledgers.xlsx"
	}
	if cfg.ArchiveDir == "" {
		cfg.ArchiveDir = "./output/archive"
	}
	if cfg.ArchiveRetention == 0 {
		cfg.ArchiveRetention = 10
	}
	if cfg.OrgConfig == "" {
		cfg.OrgConfig = "./org.env"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	if cfg.LogFormat == "" {
		cfg.LogFormat = "console"
	}
	if cfg.HeaderScanRows == 0 {
		cfg.HeaderScanRows = 10
	}
	if cfg.CSVSettings.Delimiter == "" {
		cfg.CSVSettings.Delimiter = ","
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateMainConfig checks the struct tags and reports every failing field
// in one ConfigurationError.
func validateMainConfig(cfg *MainConfig) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Configurationf("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return apperrors.Configurationf("invalid main config: %s", strings.Join(msgs, "; "))
}
