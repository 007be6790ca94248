package aggregator

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/party-ledger/internal/types"
)

func day(d int) time.Time { return time.Date(2024, 4, d, 0, 0, 0, 0, time.UTC) }

func txn(date time.Time, party string, doc types.DocType, debit, credit int64, docNo string) types.Transaction {
	return types.NewTransaction(types.TransactionFields{
		Date:    date,
		PartyID: party,
		DocType: doc,
		DocNo:   docNo,
		Debit:   decimal.NewFromInt(debit),
		Credit:  decimal.NewFromInt(credit),
	})
}

func TestAggregate_PurchaseAndBankSameSupplier(t *testing.T) {
	txns := []types.Transaction{
		txn(day(1), "CG-SUP-0001", types.DocPurchase, 0, 54000, "PI-1"),
		txn(day(10), "CG-SUP-0001", types.DocBank, 50000, 0, "NEFT-1"),
	}

	ledgers, stats := Aggregate(txns, nil)

	require.Len(t, ledgers, 1)
	p := ledgers[0]
	assert.Equal(t, types.CategorySupplier, p.Category)
	assert.True(t, p.TotalCredit.Equal(decimal.NewFromInt(54000)))
	assert.True(t, p.TotalDebit.Equal(decimal.NewFromInt(50000)))
	assert.True(t, p.Balance().Equal(decimal.NewFromInt(-4000)))
	assert.Equal(t, day(10), p.LastTransaction)
	assert.Equal(t, 2, stats.Grouped)
	assert.Equal(t, 1, stats.Suppliers)
}

func TestAggregate_OnePartyTwoLedgers(t *testing.T) {
	txns := []types.Transaction{
		txn(day(1), "CG-MAS-0001", types.DocPurchase, 0, 100, "PI-1"),
		txn(day(2), "CG-MAS-0001", types.DocBank, 70, 0, "RCPT-1"),
	}

	ledgers, _ := Aggregate(txns, nil)

	require.Len(t, ledgers, 2)
	assert.Equal(t, types.LedgerKey{PartyID: "CG-MAS-0001", Category: types.CategorySupplier}, ledgers[0].Key())
	assert.Equal(t, types.LedgerKey{PartyID: "CG-MAS-0001", Category: types.CategoryCustomer}, ledgers[1].Key())
}

func TestAggregate_SkipsMissingPartyAndExcluded(t *testing.T) {
	txns := []types.Transaction{
		txn(day(1), "", types.DocSales, 10, 0, "S-1"),
		txn(day(1), "CG-CON-0001", types.DocBank, 0, 10, "B-1"),
		txn(day(1), "CG-CUS-0001", types.DocSales, 10, 0, "S-2"),
	}

	ledgers, stats := Aggregate(txns, nil)

	require.Len(t, ledgers, 1)
	assert.Equal(t, 1, stats.NoPartyID)
	assert.Equal(t, 1, stats.Excluded)
	assert.Equal(t, 3, stats.Input)
}

func TestAggregate_StableDateSort(t *testing.T) {
	txns := []types.Transaction{
		txn(day(5), "CG-CUS-0001", types.DocSales, 1, 0, "A"),
		txn(day(3), "CG-CUS-0001", types.DocSales, 1, 0, "B"),
		txn(time.Time{}, "CG-CUS-0001", types.DocSales, 1, 0, "C"),
		txn(day(3), "CG-CUS-0001", types.DocSales, 1, 0, "D"),
		txn(day(5), "CG-CUS-0001", types.DocSales, 1, 0, "E"),
	}

	ledgers, _ := Aggregate(txns, nil)

	require.Len(t, ledgers, 1)
	var order []string
	for _, tx := range ledgers[0].Transactions {
		order = append(order, tx.DocNo)
	}
	assert.Equal(t, []string{"C", "B", "D", "A", "E"}, order)
	assert.Equal(t, day(5), ledgers[0].LastTransaction)
}

func TestAggregate_LastTransactionIgnoresMissingDates(t *testing.T) {
	txns := []types.Transaction{
		txn(day(7), "CG-CUS-0001", types.DocSales, 1, 0, "A"),
		txn(time.Time{}, "CG-CUS-0001", types.DocSales, 1, 0, "B"),
	}

	ledgers, _ := Aggregate(txns, nil)
	assert.Equal(t, day(7), ledgers[0].LastTransaction)
}

func TestAggregate_DirectoryOverrides(t *testing.T) {
	sale := txn(day(1), "CG-CUS-0001", types.DocSales, 100, 0, "S-1")
	sale.PartyName = "metro infra (old)"
	dir := types.ContactDirectory{
		"CG-CUS-0001": {
			ID:       "CG-CUS-0001",
			Name:     "Metro Infra Pvt Ltd",
			Address1: "12 Ring Road",
			GST:      "27AAACM1234A1Z5",
		},
	}

	ledgers, stats := Aggregate([]types.Transaction{sale}, dir)

	require.Len(t, ledgers, 1)
	p := ledgers[0]
	assert.Equal(t, "Metro Infra Pvt Ltd", p.Name)
	assert.Equal(t, "12 Ring Road", p.Address1)
	assert.Equal(t, "27AAACM1234A1Z5", p.GST)
	assert.Equal(t, "", p.Phone)
	assert.Equal(t, 1, stats.Enriched)
}

func TestAggregate_Idempotent(t *testing.T) {
	txns := []types.Transaction{
		txn(day(2), "CG-SUP-0001", types.DocPurchase, 0, 10, "P-1"),
		txn(day(1), "CG-CUS-0001", types.DocSales, 20, 0, "S-1"),
		txn(day(3), "CG-MAS-0001", types.DocBank, 5, 0, "B-1"),
		txn(day(1), "CG-SUP-0001", types.DocBank, 10, 0, "B-2"),
	}
	snapshot := append([]types.Transaction(nil), txns...)

	first, _ := Aggregate(txns, nil)
	second, _ := Aggregate(txns, nil)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, txns)
}
