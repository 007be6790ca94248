// =============================================================================
// Party Ledger Builder - Refresh Command
// =============================================================================
//
// This file defines the 'refresh' command, which rebuilds the ledger workbook
// of one organization from its current sources.
//
// COMMAND USAGE:
//   ledger refresh [flags]
//
// FLAGS:
//   --dry-run : Run the whole pipeline against an in-memory workbook
//   --only    : Restrict the fetched sources (purchase, sales, bank)
//
// PROCESSING PIPELINE:
//   1. Load the main configuration and the organization settings
//   2. Open the output workbook (or an in-memory one for --dry-run)
//   3. Run the converter: fetch, aggregate, render, index, run log
//   4. Save the workbook, archiving the previous version
//   5. Write the metrics textfile
//   6. Print a summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/party-ledger/internal/converter"
	"github.com/ginjaninja78/party-ledger/internal/metrics"
	"github.com/ginjaninja78/party-ledger/internal/render"
	"github.com/ginjaninja78/party-ledger/internal/sheet"
	"github.com/ginjaninja78/party-ledger/internal/source"
	"github.com/ginjaninja78/party-ledger/internal/types"
	"github.com/ginjaninja78/party-ledger/internal/xlsxwriter"
	"github.com/ginjaninja78/party-ledger/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

// dryRun keeps every write in memory.
var dryRun bool

// onlySources restricts the fetched source kinds.
var onlySources []string

// =============================================================================
// REFRESH COMMAND DEFINITION
// =============================================================================

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Rebuild the party ledger workbook",
	Long: `The refresh command fetches the purchase register, sales register and bank
statement, builds one ledger per party and category, and rewrites the output
workbook.

A source that cannot be read is reported and skipped; ledgers are still built
from the others. A configuration error aborts the run before anything is
written.

On success:
  - Every party has a "<SU|CU> <PARTY ID>" statement sheet
  - "Ledger Master" lists every ledger with a link to its sheet
  - "Transactions" holds the standardized dataset
  - "Run Log" gains one row
  - The previous workbook is copied to the archive directory`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runRefresh(cmd)
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().BoolVar(
		&dryRun,
		"dry-run",
		false,
		"Run the pipeline without writing the workbook",
	)

	refreshCmd.Flags().StringSliceVar(
		&onlySources,
		"only",
		nil,
		"Only fetch these sources (purchase, sales, bank)",
	)
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runRefresh(cmd *cobra.Command) error {
	cfg, err := loadMainConfig(cmd)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	org, err := loadOrgSettings(cfg)
	if err != nil {
		return err
	}
	only, err := parseOnly(onlySources)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: OPEN THE SINK
	// =========================================================================

	var sink sheet.Sink
	var wb *xlsxwriter.Workbook
	if dryRun {
		sink = sheet.NewMemory()
		log.Info().Msg("dry run, the workbook is not written")
	} else {
		var fm *utils.FileManager
		if cfg.ArchiveDir != "" {
			fm = utils.NewFileManager(cfg.ArchiveDir, cfg.ArchiveRetention)
		}
		wb, err = xlsxwriter.Open(cfg.OutputWorkbook, fm)
		if err != nil {
			return err
		}
		defer wb.Close()
		wb.Active = render.IndexSheet
		sink = wb
	}

	// =========================================================================
	// STEP 2: RUN
	// =========================================================================

	rec := metrics.NewRecorder()
	conv := converter.New(cfg, org, converter.Deps{
		Connector: source.NewFileConnector(cfg.SourcesDir, cfg.CSVSettings),
		Sink:      sink,
		Logger:    log,
		Metrics:   rec,
		Only:      only,
	})
	res := conv.Run()

	// =========================================================================
	// STEP 3: SAVE
	// =========================================================================

	if wb != nil && res.Wrote {
		if err := wb.Save(); err != nil {
			return fmt.Errorf("failed to save %s: %w", wb.Path(), err)
		}
		log.Info().Str("path", wb.Path()).Msg("workbook saved")
	}

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Warn().Err(err).Str("path", cfg.MetricsFile).Msg("metrics not written")
		}
	}

	printRunSummary(cmd.OutOrStdout(), res)
	if !res.Succeeded() {
		return fmt.Errorf("refresh failed: %s", res.Message)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// parseOnly converts --only values to source kinds.
func parseOnly(values []string) ([]types.DocType, error) {
	var kinds []types.DocType
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		kind, err := types.ParseDocType(v)
		if err != nil {
			return nil, fmt.Errorf("--only: %w", err)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func printRunSummary(out io.Writer, res converter.RunResult) {
	fmt.Fprintln(out, "=== Party Ledger Builder ===")
	printSources(out, res.Sources)

	gen := res.Generation
	fmt.Fprintln(out)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Run ID:\t%s\n", res.RunID)
	fmt.Fprintf(tw, "Status:\t%s\n", res.Status)
	fmt.Fprintf(tw, "Suppliers:\t%d\n", gen.Stats.Suppliers)
	fmt.Fprintf(tw, "Customers:\t%d\n", gen.Stats.Customers)
	fmt.Fprintf(tw, "Excluded transactions:\t%d\n", gen.Stats.Excluded)
	fmt.Fprintf(tw, "Without party id:\t%d\n", gen.Stats.NoPartyID)
	fmt.Fprintf(tw, "Ledgers written:\t%d\n", len(gen.Rendered))
	if len(gen.Failed) > 0 {
		fmt.Fprintf(tw, "Ledgers failed:\t%s\n", strings.Join(gen.Failed, ", "))
	}
	if gen.ContactsError != "" {
		fmt.Fprintf(tw, "Contact directory:\t%s\n", gen.ContactsError)
	}
	if len(gen.Pruned) > 0 {
		fmt.Fprintf(tw, "Stale sheets removed:\t%s\n", strings.Join(gen.Pruned, ", "))
	}
	fmt.Fprintf(tw, "Time elapsed:\t%s\n", res.Duration)
	fmt.Fprintf(tw, "Message:\t%s\n", res.Message)
	tw.Flush()
}
