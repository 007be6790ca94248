// =============================================================================
// Party Ledger Builder - Party Aggregation
// =============================================================================
//
// This module groups standardized transactions into party ledgers.
//
// PROCESS:
//   1. Skip transactions without a party id.
//   2. Classify; excluded transactions are dropped.
//   3. Key by (party id, category) and accumulate totals and last date.
//   4. Enrich every ledger from the contact directory.
//   5. Sort each ledger's transactions by date, stable on ties.
//
// Ledgers are returned in the order their key was first seen, so two runs over
// the same input produce the same output.
//
// =============================================================================

package aggregator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/party-ledger/internal/classifier"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

// Stats counts what happened to the input transactions.
type Stats struct {
	Input     int
	NoPartyID int
	Excluded  int
	Grouped   int
	Suppliers int
	Customers int
	Enriched  int
}

// Aggregate builds the party ledgers of txns. dir may be nil.
func Aggregate(txns []types.Transaction, dir types.ContactDirectory) ([]*types.PartyLedger, Stats) {
	stats := Stats{Input: len(txns)}
	byKey := make(map[types.LedgerKey]*types.PartyLedger)
	var order []*types.PartyLedger

	for _, txn := range txns {
		if txn.PartyID == "" {
			stats.NoPartyID++
			continue
		}
		cat := classifier.ClassifyTransaction(txn)
		if !cat.Ledger() {
			stats.Excluded++
			continue
		}

		key := types.LedgerKey{PartyID: txn.PartyID, Category: cat}
		p, ok := byKey[key]
		if !ok {
			p = &types.PartyLedger{
				ID:          txn.PartyID,
				Category:    cat,
				TotalDebit:  decimal.Zero,
				TotalCredit: decimal.Zero,
			}
			byKey[key] = p
			order = append(order, p)
		}
		add(p, txn)
		stats.Grouped++
	}

	for _, p := range order {
		if enrich(p, dir) {
			stats.Enriched++
		}
		sortByDate(p.Transactions)
		switch p.Category {
		case types.CategorySupplier:
			stats.Suppliers++
		case types.CategoryCustomer:
			stats.Customers++
		}
	}

	return order, stats
}

func add(p *types.PartyLedger, txn types.Transaction) {
	p.Transactions = append(p.Transactions, txn)
	p.TotalDebit = p.TotalDebit.Add(txn.Debit)
	p.TotalCredit = p.TotalCredit.Add(txn.Credit)
	if txn.HasDate() && txn.Date.After(p.LastTransaction) {
		p.LastTransaction = txn.Date
	}
	if p.Name == "" {
		p.Name = txn.PartyName
	}
}

// enrich copies non-empty directory values over the ledger's own.
func enrich(p *types.PartyLedger, dir types.ContactDirectory) bool {
	rec, ok := dir.Lookup(p.ID)
	if !ok {
		return false
	}
	override(&p.Name, rec.Name)
	override(&p.Address1, rec.Address1)
	override(&p.Address2, rec.Address2)
	override(&p.GST, rec.GST)
	override(&p.Phone, rec.Phone)
	override(&p.Email, rec.Email)
	return true
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// sortByDate orders by date ascending. Unknown dates count as the Unix epoch.
func sortByDate(txns []types.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool {
		return sortKey(txns[i]).Before(sortKey(txns[j]))
	})
}

func sortKey(t types.Transaction) time.Time {
	if !t.HasDate() {
		return time.Unix(0, 0).UTC()
	}
	return t.Date
}
