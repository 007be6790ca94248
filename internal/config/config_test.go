package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/fieldmap"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

func TestParseMainConfig_Defaults(t *testing.T) {
	cfg, err := ParseMainConfig([]byte("sources_dir: ./books\n"))
	require.NoError(t, err)

	assert.Equal(t, "./books", cfg.SourcesDir)
	assert.Equal(t, "./output/ledgers.xlsx", cfg.OutputWorkbook)
	assert.Equal(t, 10, cfg.HeaderScanRows)
	assert.Equal(t, 10, cfg.ArchiveRetention)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ",", cfg.CSVSettings.Delimiter)
	assert.False(t, cfg.ContinueOnRenderError)
}

func TestParseMainConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad level", "log_level: verbose\n"},
		{"bad format", "log_format: xml\n"},
		{"not a workbook", "output_workbook: ledgers.csv\n"},
		{"scan window too large", "header_scan_rows: 500\n"},
		{"scan window one past the cap", "header_scan_rows: 11\n"},
		{"scan window negative", "header_scan_rows: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMainConfig([]byte(tt.yaml))
			assert.ErrorIs(t, err, apperrors.ErrConfiguration)
		})
	}

	_, err := ParseMainConfig([]byte("sources_dir: [unclosed"))
	assert.Error(t, err)
}

func TestLoadMainConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: DEBUG\ncontinue_on_render_error: true\n"), 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.ContinueOnRenderError)

	_, err = LoadMainConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "PUR_AMOUNT_COL", ColumnKey(types.DocPurchase, fieldmap.FieldAmount))
	assert.Equal(t, "BANK_DEBIT_COL", ColumnKey(types.DocBank, fieldmap.FieldDebit))
	assert.Equal(t, "SAL_SHEET_ID", SheetIDKey(types.DocSales))
	assert.Equal(t, "BANK_TAB_NAME", TabNameKey(types.DocBank))
}

func TestOrgSettingsFromMap(t *testing.T) {
	o := OrgSettingsFromMap(map[string]string{
		"org_code":       "cg-mas-0000",
		"ORG_NAME":       "CG Builders",
		"PUR_SHEET_ID":   "purchase.xlsx",
		"PUR_TAB_NAME":   "Purchase",
		"PUR_AMOUNT_COL": "Net Amount",
		"NOTIFY_EMAIL":   "accounts@cgbuilders.in",
	})

	require.NoError(t, o.Validate())
	assert.Equal(t, "CG-MAS-0000", o.Company.ID)

	pur := o.Source(types.DocPurchase)
	assert.True(t, pur.Configured())
	assert.Equal(t, "Purchase", pur.TabName)
	assert.Equal(t, "Net Amount", pur.Columns[fieldmap.FieldAmount])
	assert.Equal(t, "L/F", pur.Columns[fieldmap.FieldPartyID])

	assert.False(t, o.Source(types.DocBank).Configured())
	assert.Equal(t, "DEBIT", o.Source(types.DocBank).Columns[fieldmap.FieldDebit])
	assert.Equal(t, "accounts@cgbuilders.in", o.NotifyEmail)
}

func TestOrgSettings_Validate(t *testing.T) {
	err := OrgSettingsFromMap(map[string]string{"PUR_SHEET_ID": "x"}).Validate()
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Contains(t, err.Error(), "ORG_CODE")
	assert.Contains(t, err.Error(), "ORG_NAME")

	err = OrgSettingsFromMap(map[string]string{"ORG_CODE": "A", "ORG_NAME": "B"}).Validate()
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
	assert.Contains(t, err.Error(), "no source configured")
}

func TestLoadOrgSettings_EnvFileWithOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "org.env")
	content := "ORG_CODE=CG-MAS-0000\nORG_NAME=CG Builders\nBANK_SHEET_ID=bank.csv\nBANK_DEBIT_COL=Withdrawal\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("LEDGER_ORG_NAME", "CG Builders Pvt Ltd")

	o, err := LoadOrgSettings(path)
	require.NoError(t, err)

	assert.Equal(t, "CG Builders Pvt Ltd", o.Company.Name)
	assert.Equal(t, "bank.csv", o.Source(types.DocBank).SheetID)
	assert.Equal(t, "Withdrawal", o.Source(types.DocBank).Columns[fieldmap.FieldDebit])
	assert.NoError(t, o.Validate())
}

func TestLoadOrgSettings_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "org.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ORG_CODE: X\nORG_NAME: Y\nSAL_SHEET_ID: sales.xlsx\n"), 0o644))

	o, err := LoadOrgSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "sales.xlsx", o.Source(types.DocSales).SheetID)
}

func TestLoadOrgSettings_Missing(t *testing.T) {
	_, err := LoadOrgSettings(filepath.Join(t.TempDir(), "nope.env"))
	assert.ErrorIs(t, err, apperrors.ErrConfiguration)
}
