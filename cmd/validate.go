package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/party-ledger/internal/config"
	"github.com/ginjaninja78/party-ledger/internal/source"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without processing",
	Long: `The validate command checks the main configuration, the organization settings
and that every configured source file and tab can be found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		cfg, err := loadMainConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ main configuration")

		org, err := loadOrgSettings(cfg)
		if err != nil {
			return err
		}
		if err := org.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ organization %s (%s)\n", org.Company.ID, org.Company.Name)

		conn := source.NewFileConnector(cfg.SourcesDir, cfg.CSVSettings)
		missing := 0
		for _, kind := range types.AllDocTypes() {
			s := org.Source(kind)
			if !s.Configured() {
				fmt.Fprintf(out, "- %s not configured (%s)\n", kind, config.SheetIDKey(kind))
				continue
			}
			path, err := conn.Check(s.SheetID, s.TabName)
			if err != nil {
				missing++
				fmt.Fprintf(out, "✗ %s: %v\n", kind, err)
				continue
			}
			fmt.Fprintf(out, "✓ %s: %s\n", kind, path)
		}
		if org.ContactsSheetID != "" {
			if path, err := conn.Check(org.ContactsSheetID, org.ContactsTabName); err != nil {
				missing++
				fmt.Fprintf(out, "✗ CONTACTS: %v\n", err)
			} else {
				fmt.Fprintf(out, "✓ CONTACTS: %s\n", path)
			}
		}

		if missing > 0 {
			return fmt.Errorf("%d configured source(s) not found", missing)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
