// =============================================================================
// Party Ledger Builder - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// (refresh, fetch, validate, version) is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ledger)
//   ├── refreshCmd  (ledger refresh)
//   ├── fetchCmd    (ledger fetch)
//   ├── validateCmd (ledger validate)
//   └── versionCmd  (ledger version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --org, --verbose)
//   2. Loading an optional .env file into the process environment
//   3. Loading the main and organization configuration for subcommands
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/party-ledger/internal/config"
	"github.com/ginjaninja78/party-ledger/internal/logger"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
var cfgFile string

// orgFile overrides org_config from the main configuration.
var orgFile string

// envFile is loaded into the environment before configuration is read.
var envFile string

// verbose forces debug logging.
var verbose bool

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Party Ledger Builder - Turn purchase, sales and bank registers into party ledgers",
	Long: `Party Ledger Builder reads an organization's purchase register, sales register
and bank statement, classifies every transaction as supplier or customer
business, and rebuilds a workbook with one statement sheet per party plus an
index sheet linking to each of them.

Key Features:
  - Header rows are detected, not assumed to be on line 1
  - Column names are configurable per source
  - Indian and western amount formats, day-first dates and Excel serials
  - Contact directory enrichment of names, addresses and GST numbers
  - Previous workbook archived before every refresh

Example Usage:
  ledger refresh                     # Rebuild the ledger workbook
  ledger refresh --only bank         # Rebuild from the bank statement only
  ledger fetch                       # Show what each source yields
  ledger validate --org ./acme.env   # Check the configuration`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		return nil
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&orgFile,
		"org",
		"",
		"Path to the organization settings file (overrides org_config)",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env-file",
		".env",
		"Optional dotenv file loaded before the configuration",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// loadMainConfig reads --config. A missing default config.yaml falls back to
// the built-in defaults; an explicitly named missing file is an error.
func loadMainConfig(cmd *cobra.Command) (*config.MainConfig, error) {
	if _, err := os.Stat(cfgFile); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		return config.DefaultMainConfig(), nil
	}
	return config.LoadMainConfig(cfgFile)
}

// loadOrgSettings reads the organization settings named by --org or by
// org_config.
func loadOrgSettings(cfg *config.MainConfig) (*config.OrgSettings, error) {
	path := cfg.OrgConfig
	if orgFile != "" {
		path = orgFile
	}
	return config.LoadOrgSettings(path)
}

// newLogger builds the process logger from the main configuration.
func newLogger(cfg *config.MainConfig) zerolog.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logger.New(level, cfg.LogFormat, os.Stderr)
}
