// =============================================================================
// Party Ledger Builder - Ledger Layout
// =============================================================================
//
// This module holds the fixed coordinates of a party statement. Every party
// sheet has the same shape so that printed statements line up:
//
//   Row 1      ledger label (A-E merged), party id (F), company id (G)
//   Rows 2-5   company name, address lines, contact line (A-F merged)
//   Rows 7-10  party name, address lines, contact line (A-F merged)
//   Row 12     divider (A-G merged, top and bottom border)
//   Row 13     column legend
//   Row 14+    transactions, at least MinTransactionRows rows
//   +2         spacer rows
//   then       TOTAL, CLOSING BALANCE, GRAND TOTAL
//
// Column G carries ids only and is hidden once the sheet is written.
//
// =============================================================================

package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/party-ledger/internal/types"
)

// Columns of a party statement.
const (
	ColDate = iota + 1
	ColParticulars
	ColVoucherType
	ColRef
	ColDebit
	ColCredit
	ColFile

	LastCol = ColFile
)

// Fixed rows of a party statement.
const (
	RowTitle          = 1
	RowCompanyName    = 2
	RowCompanyAddr1   = 3
	RowCompanyAddr2   = 4
	RowCompanyContact = 5
	RowPartyName      = 7
	RowPartyAddr1     = 8
	RowPartyAddr2     = 9
	RowPartyContact   = 10
	RowDivider        = 12
	RowLegend         = 13
	RowFirstTxn       = 14

	// MinTransactionRows keeps short statements the same height as long ones.
	MinTransactionRows = 10

	// totalsGap is the number of blank rows between transactions and TOTAL.
	totalsGap = 2
)

// Sheet names.
const (
	IndexSheet        = "Ledger Master"
	TransactionsSheet = "Transactions"
)

// maxSheetName is the spreadsheet limit on sheet name length.
const maxSheetName = 31

// Layout is the row plan of one rendered party statement.
type Layout struct {
	Sheet         string
	FirstTxnRow   int
	LastTxnRow    int
	TotalRow      int
	ClosingRow    int
	GrandTotalRow int
}

// PlanLayout computes the variable rows for n transactions.
func PlanLayout(n int) Layout {
	rows := n
	if rows < MinTransactionRows {
		rows = MinTransactionRows
	}
	last := RowFirstTxn + rows - 1
	total := last + totalsGap + 1
	return Layout{
		FirstTxnRow:   RowFirstTxn,
		LastTxnRow:    last,
		TotalRow:      total,
		ClosingRow:    total + 1,
		GrandTotalRow: total + 2,
	}
}

// TransactionRows is the number of rendered transaction rows.
func (l Layout) TransactionRows() int { return l.LastTxnRow - l.FirstTxnRow + 1 }

// SheetName returns the sheet of a ledger, e.g. "SU CG-SUP-0001". An
// assigned name wins over the one derived from the ledger key.
func SheetName(p *types.PartyLedger) string {
	if p.Sheet != "" {
		return p.Sheet
	}
	return baseSheetName(p)
}

func baseSheetName(p *types.PartyLedger) string {
	return sanitize(p.Category.Code() + " " + p.ID)
}

// AssignSheetNames gives every ledger a sheet name that no other ledger
// shares. Spreadsheets compare sheet names without case, and sanitizing or
// truncating ids can map two ledgers onto one name. The first ledger keeps
// the plain name and later ones get a "~2", "~3" suffix within the length
// limit.
func AssignSheetNames(ledgers []*types.PartyLedger) {
	used := make(map[string]bool, len(ledgers))
	var clashes []*types.PartyLedger
	for _, p := range ledgers {
		name := baseSheetName(p)
		if key := strings.ToUpper(name); !used[key] {
			used[key] = true
			p.Sheet = name
			continue
		}
		clashes = append(clashes, p)
	}

	for _, p := range clashes {
		base := []rune(baseSheetName(p))
		for n := 2; ; n++ {
			suffix := fmt.Sprintf("~%d", n)
			keep := min(len(base), maxSheetName-len(suffix))
			name := strings.TrimSpace(string(base[:keep])) + suffix
			if key := strings.ToUpper(name); !used[key] {
				used[key] = true
				p.Sheet = name
				break
			}
		}
	}
}

// IsLedgerSheet reports whether name has the shape of a party statement
// sheet. Only sheets also claimed on the sink are treated as generated.
func IsLedgerSheet(name string) bool {
	return strings.HasPrefix(name, types.CategorySupplier.Code()+" ") ||
		strings.HasPrefix(name, types.CategoryCustomer.Code()+" ")
}

// sanitize drops characters spreadsheets reject in sheet names and enforces
// the length limit.
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\', '\'':
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

// Entries pairs each transaction of p with its running balance.
func Entries(p *types.PartyLedger) []types.LedgerEntry {
	out := make([]types.LedgerEntry, len(p.Transactions))
	running := decimal.Zero
	for i, t := range p.Transactions {
		running = running.Add(t.Debit).Sub(t.Credit)
		out[i] = types.LedgerEntry{Transaction: t, RunningBalance: running}
	}
	return out
}

// ClosingBalance returns the absolute closing balance and its side, "DR" when
// debits are at least credits and "CR" otherwise.
func ClosingBalance(p *types.PartyLedger) (decimal.Decimal, string) {
	bal := p.Balance()
	if bal.IsNegative() {
		return bal.Abs(), "CR"
	}
	return bal, "DR"
}

// GrandTotal is the larger of the two sides; after the closing balance is
// added to the smaller side both columns show it.
func GrandTotal(p *types.PartyLedger) decimal.Decimal {
	return decimal.Max(p.TotalDebit, p.TotalCredit)
}
