package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/party-ledger/internal/converter"
	"github.com/ginjaninja78/party-ledger/internal/sheet"
	"github.com/ginjaninja78/party-ledger/internal/source"
)

// showDegradations lists every defaulted value.
var showDegradations bool

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and map the sources without writing anything",
	Long: `The fetch command reads every configured source, detects its header row and
maps its rows to transactions, then prints what each source yielded. Nothing
is written to the ledger workbook.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadMainConfig(cmd)
		if err != nil {
			return err
		}
		org, err := loadOrgSettings(cfg)
		if err != nil {
			return err
		}
		only, err := parseOnly(onlySources)
		if err != nil {
			return err
		}

		conv := converter.New(cfg, org, converter.Deps{
			Connector: source.NewFileConnector(cfg.SourcesDir, cfg.CSVSettings),
			Sink:      sheet.NewMemory(),
			Logger:    newLogger(cfg),
			Only:      only,
		})
		results := conv.FetchAll()

		out := cmd.OutOrStdout()
		printSources(out, results)
		if showDegradations {
			printDegradations(out, results)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringSliceVar(&onlySources, "only", nil, "Only fetch these sources (purchase, sales, bank)")
	fetchCmd.Flags().BoolVar(&showDegradations, "details", false, "List every value that fell back to its default")
}

func printSources(out io.Writer, results []converter.SourceResult) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tSTATUS\tHEADER ROW\tROWS\tDEFAULTED\tMESSAGE")
	for _, r := range results {
		header := "-"
		if r.HeaderRow >= 0 {
			header = fmt.Sprint(r.HeaderRow + 1)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n", r.Kind, r.Status, header, r.Rows(), len(r.Degradations), r.Message)
	}
	tw.Flush()
}

func printDegradations(out io.Writer, results []converter.SourceResult) {
	for _, r := range results {
		if len(r.Degradations) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n%s:\n", r.Kind)
		for _, d := range r.Degradations {
			fmt.Fprintf(out, "  %s\n", d)
		}
	}
}
