package converter

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/config"
	"github.com/ginjaninja78/party-ledger/internal/metrics"
	"github.com/ginjaninja78/party-ledger/internal/render"
	"github.com/ginjaninja78/party-ledger/internal/runlog"
	"github.com/ginjaninja78/party-ledger/internal/sheet"
	"github.com/ginjaninja78/party-ledger/internal/source"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

var clock = func() time.Time { return time.Date(2024, 4, 30, 18, 0, 0, 0, time.UTC) }

func purchaseTable() types.RawTable {
	return types.RawTable{
		{"CG Builders - Purchase Register FY 24-25"},
		{},
		{"DATE", "INVOICE NO", "SUPPLIER NAME", "L/F", "AMOUNT", "PARTICULARS"},
		{"01-04-2024", "PI-1", "Shree Traders", "CG-SUP-0001", "₹54,000.00", ""},
	}
}

func bankTable() types.RawTable {
	return types.RawTable{
		{"DATE", "PARTICULARS", "DEBIT", "CREDIT", "BALANCE", "L/F"},
		{"10-04-2024", "NEFT to Shree", 50000.0, nil, nil, "CG-SUP-0001"},
		{"12-04-2024", "Site labour", 1000.0, nil, nil, "CG-CON-0001"},
	}
}

func contactsTable() types.RawTable {
	return types.RawTable{
		{"ID", "NAME", "ADDRESS 1", "ADDRESS 2", "GST", "PHONE", "EMAIL"},
		{"CG-SUP-0001", "Shree Traders Pvt Ltd", "Shop 7, MG Road", "Nashik", "27ABCDE1234F1Z5", "98220 00000", "shree@example.in"},
		{"CG-MAS-0000", "CG Builders", "Plot 4, MIDC", "Pune", "27AAACC1234F1Z5", "020 2555 0000", "accounts@cgbuilders.in"},
	}
}

func orgSettings(overrides map[string]string) *config.OrgSettings {
	values := map[string]string{
		"ORG_CODE":          "CG-MAS-0000",
		"ORG_NAME":          "CG Builders Pvt Ltd",
		"PUR_SHEET_ID":      "purchase",
		"PUR_TAB_NAME":      "Register",
		"BANK_SHEET_ID":     "bank",
		"BANK_TAB_NAME":     "Statement",
		"CONTACTS_SHEET_ID": "contacts",
		"CONTACTS_TAB_NAME": "Contacts",
	}
	for k, v := range overrides {
		values[k] = v
	}
	return config.OrgSettingsFromMap(values)
}

func connector() *source.Memory {
	return source.NewMemory().
		Put("purchase", "Register", purchaseTable()).
		Put("bank", "Statement", bankTable()).
		Put("contacts", "Contacts", contactsTable())
}

type fixture struct {
	conv    *Converter
	sink    *sheet.Memory
	metrics *metrics.Recorder
}

func newFixture(cfg *config.MainConfig, org *config.OrgSettings, conn source.Connector) fixture {
	sink := sheet.NewMemory()
	rec := metrics.NewRecorder()
	conv := New(cfg, org, Deps{
		Connector: conn,
		Sink:      sink,
		Logger:    zerolog.Nop(),
		Metrics:   rec,
		Now:       clock,
	})
	return fixture{conv: conv, sink: sink, metrics: rec}
}

func assertAmount(t *testing.T, want int64, got any) {
	t.Helper()
	d, ok := got.(decimal.Decimal)
	require.True(t, ok, "expected decimal, got %T (%v)", got, got)
	assert.True(t, d.Equal(decimal.NewFromInt(want)), "got %s want %d", d, want)
}

func TestRun_PurchaseAndBankBuildOneSupplierLedger(t *testing.T) {
	f := newFixture(nil, orgSettings(nil), connector())

	res := f.conv.Run()

	require.Equal(t, StatusSuccess, res.Status, res.Message)
	assert.NotEmpty(t, res.RunID)
	assert.True(t, res.Wrote)
	require.Len(t, res.Sources, 3)
	assert.Equal(t, StatusSuccess, res.Sources[0].Status)
	assert.Equal(t, 2, res.Sources[0].HeaderRow)
	assert.Equal(t, StatusSkipped, res.Sources[1].Status)
	assert.Equal(t, "SAL_SHEET_ID is not configured", res.Sources[1].Message)
	assert.Equal(t, StatusSuccess, res.Sources[2].Status)
	assert.Equal(t, 2, res.Sources[2].Rows())

	gen := res.Generation
	require.Len(t, gen.Ledgers, 1)
	p := gen.Ledgers[0]
	assert.Equal(t, "CG-SUP-0001", p.ID)
	assert.Equal(t, types.CategorySupplier, p.Category)
	assert.True(t, p.TotalCredit.Equal(decimal.NewFromInt(54000)))
	assert.True(t, p.TotalDebit.Equal(decimal.NewFromInt(50000)))
	assert.True(t, p.Balance().Equal(decimal.NewFromInt(-4000)))
	assert.Equal(t, "Shree Traders Pvt Ltd", p.Name)
	assert.Equal(t, 1, gen.Stats.Excluded)

	name := "SU CG-SUP-0001"
	assert.Equal(t, "CG BUILDERS", f.sink.Value(name, render.RowCompanyName, 1))
	assertAmount(t, 4000, f.sink.Value(name, 27, render.ColCredit))
	assert.Equal(t, "CR", f.sink.Value(name, 27, render.ColFile))

	assert.Equal(t, "CG-SUP-0001", f.sink.Value(render.IndexSheet, 2, 1))
	assert.Equal(t, "'SU CG-SUP-0001'!A1", f.sink.LinkAt(render.IndexSheet, 2, 8))
	assert.Equal(t, 4, f.sink.MaxRow(render.TransactionsSheet))

	assert.Equal(t, runlog.Headers, f.sink.Row(runlog.SheetName, 1, len(runlog.Headers)))
	assert.Equal(t, res.RunID, f.sink.Value(runlog.SheetName, 2, 2))
	assert.Equal(t, "SUCCESS", f.sink.Value(runlog.SheetName, 2, 4))
	assert.Equal(t, "SKIPPED", f.sink.Value(runlog.SheetName, 2, 6))

	n, err := testutil.GatherAndCount(f.metrics.Registry(), "ledger_ledgers_rendered_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRun_FailedSourceDoesNotBlockOthers(t *testing.T) {
	org := orgSettings(map[string]string{"BANK_TAB_NAME": "Missing"})
	f := newFixture(nil, org, connector())

	res := f.conv.Run()

	require.Equal(t, StatusSuccess, res.Status)
	bank := res.Sources[2]
	assert.Equal(t, StatusError, bank.Status)
	assert.Contains(t, bank.Message, "open source BANK")
	assert.Contains(t, res.Message, "BANK:")

	require.Len(t, res.Generation.Ledgers, 1)
	assert.True(t, res.Generation.Ledgers[0].TotalDebit.IsZero())
	assert.Equal(t, "ERROR", f.sink.Value(runlog.SheetName, 2, 7))
}

func TestRun_ConfigurationErrorWritesNothing(t *testing.T) {
	org := orgSettings(map[string]string{"ORG_CODE": ""})
	f := newFixture(nil, org, connector())

	res := f.conv.Run()

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "configuration", res.ErrorKind)
	assert.Contains(t, res.Message, "ORG_CODE")
	assert.False(t, res.Wrote)
	assert.Empty(t, f.sink.Sheets())
}

func TestRun_AllSourcesFailed(t *testing.T) {
	f := newFixture(nil, orgSettings(nil), source.NewMemory())

	res := f.conv.Run()

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "source_access", res.ErrorKind)
	assert.Contains(t, res.Message, "no source could be fetched")
	assert.False(t, f.sink.Has(render.IndexSheet))
	assert.Equal(t, "ERROR", f.sink.Value(runlog.SheetName, 2, 4))
}

func TestRun_RenderErrorAbortsGeneration(t *testing.T) {
	f := newFixture(nil, orgSettings(nil), connector())
	f.sink.FailOn["SU CG-SUP-0001"] = errors.New("quota exceeded")

	res := f.conv.Run()

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, "render", res.ErrorKind)
	assert.Contains(t, res.Message, "quota exceeded")
	assert.False(t, f.sink.Has(render.IndexSheet))
	assert.True(t, f.sink.Has(runlog.SheetName))
}

func TestRun_ContinueOnRenderError(t *testing.T) {
	cfg := config.DefaultMainConfig()
	cfg.ContinueOnRenderError = true
	conn := connector().Put("purchase", "Register", types.RawTable{
		{"DATE", "INVOICE NO", "SUPPLIER NAME", "L/F", "AMOUNT"},
		{"01-04-2024", "PI-1", "Shree Traders", "CG-SUP-0001", 54000.0},
		{"02-04-2024", "PI-2", "Ganesh Steel", "CG-SUP-0002", 1200.0},
	})
	f := newFixture(cfg, orgSettings(nil), conn)
	f.sink.FailOn["SU CG-SUP-0001"] = errors.New("quota exceeded")

	res := f.conv.Run()

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, []string{"SU CG-SUP-0001"}, res.Generation.Failed)
	require.Len(t, res.Generation.Rendered, 1)
	assert.Equal(t, "CG-SUP-0002", f.sink.Value(render.IndexSheet, 2, 1))
	assert.Nil(t, f.sink.Value(render.IndexSheet, 3, 1))
	assert.Contains(t, res.Message, "1 ledgers failed")
}

func TestRun_SameSnapshotSameLedgers(t *testing.T) {
	first := newFixture(nil, orgSettings(nil), connector()).conv.Run()
	second := newFixture(nil, orgSettings(nil), connector()).conv.Run()

	require.Len(t, second.Generation.Ledgers, len(first.Generation.Ledgers))
	for i, p := range first.Generation.Ledgers {
		q := second.Generation.Ledgers[i]
		assert.Equal(t, p.Key(), q.Key())
		assert.True(t, p.TotalDebit.Equal(q.TotalDebit))
		assert.True(t, p.TotalCredit.Equal(q.TotalCredit))
		assert.Equal(t, p.Transactions, q.Transactions)
	}
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_LedgersSharingASheetNameGetTheirOwnSheets(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
	}{
		{"truncated ids", []string{"CG-SUP-ABCDEFGHIJKLMNOPQRSTUV-01", "CG-SUP-ABCDEFGHIJKLMNOPQRSTUV-02"}},
		{"forbidden characters", []string{"CG-SUP-A/B", "CG-SUP-AB"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := types.RawTable{{"DATE", "INVOICE NO", "SUPPLIER NAME", "L/F", "AMOUNT"}}
			for i, id := range tt.ids {
				table = append(table, []any{"01-04-2024", fmt.Sprintf("PI-%d", i+1), "Supplier", id, float64(100 * (i + 1))})
			}
			conn := connector().Put("purchase", "Register", table)
			f := newFixture(nil, orgSettings(map[string]string{"BANK_SHEET_ID": ""}), conn)

			res := f.conv.Run()

			require.Equal(t, StatusSuccess, res.Status, res.Message)
			require.Len(t, res.Generation.Rendered, len(tt.ids))
			sheets := make(map[string]bool)
			for _, p := range res.Generation.Rendered {
				require.NotEmpty(t, p.Sheet)
				assert.False(t, sheets[p.Sheet], "sheet %s written twice", p.Sheet)
				sheets[p.Sheet] = true
				assert.Equal(t, p.ID, f.sink.Value(p.Sheet, render.RowTitle, render.ColCredit))
			}
			assert.Empty(t, res.Generation.Pruned)
		})
	}
}

func TestFetchSource_HeaderNotFound(t *testing.T) {
	conn := connector().Put("bank", "Statement", types.RawTable{
		{"DATE", "DEBIT"},
		{"10-04-2024", 100.0},
	})
	f := newFixture(nil, orgSettings(nil), conn)

	res := f.conv.FetchSource(types.DocBank)

	assert.Equal(t, StatusError, res.Status)
	assert.Equal(t, -1, res.HeaderRow)
	assert.Contains(t, res.Message, "header row not found")
}

func TestFetchSource_PartialHeaderAboveRealHeader(t *testing.T) {
	header := []any{"DATE", "PARTICULARS", "DEBIT", "CREDIT", "BALANCE", "L/F"}
	row := []any{"10-04-2024", "Refund from Shree", nil, 2500.0, nil, "CG-SUP-0001"}

	tests := []struct {
		name  string
		above []any
	}{
		{"date ref debit", []any{"DATE", "REF", "DEBIT"}},
		{"optional bank columns", []any{"VOUCHER TYPE", "CHQ NO", "PARTY NAME"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := connector().Put("bank", "Statement", types.RawTable{tt.above, header, row})
			f := newFixture(nil, orgSettings(nil), conn)

			res := f.conv.FetchSource(types.DocBank)

			require.Equal(t, StatusSuccess, res.Status, res.Message)
			assert.Equal(t, 1, res.HeaderRow)
			require.Len(t, res.Transactions, 1)
			txn := res.Transactions[0]
			assert.Equal(t, "CG-SUP-0001", txn.PartyID)
			assert.True(t, txn.Credit.Equal(decimal.NewFromInt(2500)))
		})
	}
}

func TestFetchSource_DegradedValuesAreCounted(t *testing.T) {
	conn := connector().Put("purchase", "Register", types.RawTable{
		{"DATE", "INVOICE NO", "SUPPLIER NAME", "L/F", "AMOUNT"},
		{"sometime in april", "PI-1", "Shree Traders", "CG-SUP-0001", 500.0},
		{nil, nil, nil, nil, nil},
	})
	f := newFixture(nil, orgSettings(nil), conn)

	res := f.conv.FetchSource(types.DocPurchase)

	require.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, 1, res.Rows())
	assert.Equal(t, 1, res.BlankRows)
	require.Len(t, res.Degradations, 1)
	assert.Equal(t, "1 transactions, 1 values defaulted", res.Message)
	assert.False(t, res.Transactions[0].HasDate())
	assert.True(t, res.Transactions[0].Credit.Equal(decimal.NewFromInt(500)))
}

func TestFetchSource_ConfiguredColumnNames(t *testing.T) {
	org := orgSettings(map[string]string{
		"SAL_SHEET_ID":        "sales",
		"SAL_PARTY_ID_COL":    "Party Code",
		"SAL_AMOUNT_COL":      "Net Value",
		"SAL_PARTY_NAME_COL":  "Buyer",
		"SAL_PARTICULARS_COL": "Narration",
	})
	conn := connector().Put("sales", "", types.RawTable{
		{"Date", "Party Code", "Buyer", "Net Value", "Narration"},
		{"05-04-2024", "cg-cus-0009", "Mehta Homes", "1,500", "Flat 402 booking"},
	})
	f := newFixture(nil, org, conn)

	res := f.conv.FetchSource(types.DocSales)

	require.Equal(t, StatusSuccess, res.Status, res.Message)
	require.Len(t, res.Transactions, 1)
	txn := res.Transactions[0]
	assert.Equal(t, "CG-CUS-0009", txn.PartyID)
	assert.Equal(t, "Mehta Homes", txn.PartyName)
	assert.True(t, txn.Debit.Equal(decimal.NewFromInt(1500)))
}

func TestFetchAll_Only(t *testing.T) {
	sink := sheet.NewMemory()
	conv := New(nil, orgSettings(nil), Deps{
		Connector: connector(),
		Sink:      sink,
		Logger:    zerolog.Nop(),
		Only:      []types.DocType{types.DocBank},
	})

	res := conv.FetchAll()

	require.Len(t, res, 1)
	assert.Equal(t, types.DocBank, res[0].Kind)
}

func TestGenerate_ContactsUnavailable(t *testing.T) {
	org := orgSettings(map[string]string{"CONTACTS_TAB_NAME": "Gone"})
	f := newFixture(nil, org, connector())
	txns := f.conv.FetchSource(types.DocPurchase).Transactions

	gen, err := f.conv.Generate(txns)

	require.NoError(t, err)
	require.Len(t, gen.Ledgers, 1)
	assert.Equal(t, "Shree Traders", gen.Ledgers[0].Name)
	assert.Equal(t, "CG BUILDERS PVT LTD", f.sink.Value("SU CG-SUP-0001", render.RowCompanyName, 1))
	assert.Contains(t, gen.ContactsError, "CONTACTS")
}

func TestRun_ContactsFailureIsReported(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]string
		wantError bool
	}{
		{"missing tab", map[string]string{"CONTACTS_TAB_NAME": "Gone"}, true},
		{"missing workbook", map[string]string{"CONTACTS_SHEET_ID": "nowhere"}, true},
		{"not configured", map[string]string{"CONTACTS_SHEET_ID": ""}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(nil, orgSettings(tt.overrides), connector())

			res := f.conv.Run()

			require.Equal(t, StatusSuccess, res.Status, res.Message)
			logged, _ := f.sink.Value(runlog.SheetName, 2, 10).(string)
			if !tt.wantError {
				assert.Empty(t, res.Generation.ContactsError)
				assert.NotContains(t, res.Message, "contact directory")
				return
			}
			assert.NotEmpty(t, res.Generation.ContactsError)
			assert.Contains(t, res.Message, "contact directory unavailable")
			assert.Contains(t, logged, "contact directory unavailable")
		})
	}
}

func TestResolveCompany(t *testing.T) {
	company := types.Company{ID: "CG-MAS-0000", Name: "CG Builders Pvt Ltd", Phone: "111"}
	dir := types.ContactDirectory{"CG-MAS-0000": {ID: "CG-MAS-0000", Address1: "Plot 4", Phone: "  "}}

	got := resolveCompany(company, dir)

	assert.Equal(t, "CG Builders Pvt Ltd", got.Name)
	assert.Equal(t, "Plot 4", got.Address1)
	assert.Equal(t, "111", got.Phone)
	assert.Equal(t, company, resolveCompany(company, nil))
}

func TestRunResult_Errors(t *testing.T) {
	assert.Equal(t, "render", apperrors.Kind(apperrors.Render("SU X", errors.New("x"))))
	assert.False(t, RunResult{Status: StatusError}.Succeeded())
}
