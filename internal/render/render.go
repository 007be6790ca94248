package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/sheet"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

var (
	titleStyle   = sheet.Style{Bold: true, Size: 14}
	nameStyle    = sheet.Style{Bold: true, Size: 12, Align: sheet.AlignCenter}
	centered     = sheet.Style{Align: sheet.AlignCenter}
	bold         = sheet.Style{Bold: true}
	rightAligned = sheet.Style{Align: sheet.AlignRight}
	headerStyle  = sheet.Style{Bold: true, Color: "#1F3864"}
)

var partyWidths = map[int]float64{
	ColDate:        12,
	ColParticulars: 42,
	ColVoucherType: 16,
	ColRef:         18,
	ColDebit:       15,
	ColCredit:      15,
	ColFile:        14,
}

// Renderer lays ledgers out on a sink.
type Renderer struct {
	sink sheet.Sink
}

// New creates a Renderer writing to sink.
func New(sink sheet.Sink) *Renderer {
	return &Renderer{sink: sink}
}

// =============================================================================
// PARTY STATEMENT
// =============================================================================

// Party writes the statement of p to its own sheet, replacing any previous
// content. Errors are wrapped with apperrors.ErrRender.
func (r *Renderer) Party(p *types.PartyLedger, company types.Company) (Layout, error) {
	layout := PlanLayout(len(p.Transactions))
	layout.Sheet = SheetName(p)

	if err := r.sink.ReplaceSheet(layout.Sheet); err != nil {
		return layout, apperrors.Render(layout.Sheet, err)
	}
	if err := r.sink.Claim(layout.Sheet); err != nil {
		return layout, apperrors.Render(layout.Sheet, err)
	}
	w := &pen{sink: r.sink, sheet: layout.Sheet}

	// Title row.
	w.write(RowTitle, ColDate, []any{p.Category.Label() + " LEDGER"})
	w.write(RowTitle, ColCredit, []any{p.ID, company.ID})
	w.merge(sheet.Span(RowTitle, ColDate, ColDebit))
	w.style(sheet.Span(RowTitle, ColDate, ColDebit), titleStyle)

	// Company and party blocks.
	w.block(RowCompanyName, company.Name, company.Address1, company.Address2,
		contactLine(company.GST, company.Phone, company.Email))
	w.block(RowPartyName, p.Name, p.Address1, p.Address2,
		contactLine(p.GST, p.Phone, p.Email))

	w.merge(sheet.Span(RowDivider, ColDate, LastCol))
	w.border(sheet.Span(RowDivider, ColDate, LastCol), sheet.EdgeTopBottom)

	// Legend.
	w.write(RowLegend, ColDate, []any{"DATE", "PARTICULARS", "VOUCHER TYPE", "REF", "DEBIT", "CREDIT", nil})
	w.style(sheet.Span(RowLegend, ColDate, LastCol), bold)
	w.border(sheet.Span(RowLegend, ColDate, LastCol), sheet.EdgeTopBottom)
	w.style(sheet.Span(RowLegend, ColDate, ColParticulars), sheet.Style{Align: sheet.AlignLeft})
	w.style(sheet.Span(RowLegend, ColVoucherType, ColRef), centered)
	w.style(sheet.Span(RowLegend, ColDebit, ColCredit), rightAligned)

	// Transactions. Padding rows stay empty.
	entries := Entries(p)
	if len(entries) > 0 {
		rows := make([][]any, len(entries))
		for i, e := range entries {
			rows[i] = transactionRow(e.Transaction)
		}
		w.write(layout.FirstTxnRow, ColDate, rows...)
	}
	txnRange := sheet.Block(layout.FirstTxnRow, ColDate, layout.LastTxnRow, LastCol)
	w.format(sheet.Block(txnRange.Row, ColDate, txnRange.LastRow, ColDate), sheet.FormatDate)
	w.format(sheet.Block(txnRange.Row, ColDebit, txnRange.LastRow, ColCredit), sheet.FormatAmount)
	w.style(sheet.Block(txnRange.Row, ColVoucherType, txnRange.LastRow, ColRef), centered)

	// Totals.
	closing, side := ClosingBalance(p)
	if len(entries) > 0 {
		closing = entries[len(entries)-1].RunningBalance.Abs()
	}
	grand := GrandTotal(p)

	w.write(layout.TotalRow, ColRef, []any{"TOTAL", p.TotalDebit, p.TotalCredit})
	w.style(sheet.Span(layout.TotalRow, ColDate, ColCredit), bold)
	w.border(sheet.Span(layout.TotalRow, ColDate, ColCredit), sheet.EdgeTop)

	closingRow := []any{"CLOSING BALANCE", nil, nil, nil}
	if side == "DR" {
		closingRow[1] = closing
	} else {
		closingRow[2] = closing
	}
	closingRow[3] = side
	w.write(layout.ClosingRow, ColRef, closingRow)

	w.write(layout.GrandTotalRow, ColRef, []any{"GRAND TOTAL", grand, grand})
	w.style(sheet.Span(layout.GrandTotalRow, ColDate, ColCredit), bold)
	w.border(sheet.Span(layout.GrandTotalRow, ColDate, ColCredit), sheet.EdgeTopBottom)

	w.style(sheet.Block(layout.TotalRow, ColRef, layout.GrandTotalRow, ColRef), rightAligned)
	w.format(sheet.Block(layout.TotalRow, ColDebit, layout.GrandTotalRow, ColCredit), sheet.FormatAmount)

	for col, width := range partyWidths {
		w.width(col, width)
	}
	w.hide(ColFile)
	w.truncate(layout.GrandTotalRow, LastCol)

	if w.err != nil {
		return layout, apperrors.Render(layout.Sheet, w.err)
	}
	return layout, nil
}

func transactionRow(t types.Transaction) []any {
	row := make([]any, LastCol)
	if t.HasDate() {
		row[ColDate-1] = t.Date
	}
	row[ColParticulars-1] = firstNonEmpty(t.Particulars, types.SynthesizeParticulars(t.DocType, t.DocNo))
	row[ColVoucherType-1] = firstNonEmpty(t.VoucherType, string(t.DocType))
	row[ColRef-1] = emptyNil(firstNonEmpty(t.Reference, t.DocNo))
	row[ColDebit-1] = amountCell(t.Debit)
	row[ColCredit-1] = amountCell(t.Credit)
	return row
}

// contactLine joins the non-empty values with " | ".
func contactLine(gst, phone, email string) string {
	var parts []string
	for _, v := range []string{gst, phone, email} {
		if v = strings.TrimSpace(v); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

func amountCell(d decimal.Decimal) any {
	if d.IsZero() {
		return nil
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func emptyNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// =============================================================================
// INDEX SHEET
// =============================================================================

var indexHeaders = []any{"PARTY ID", "NAME", "CATEGORY", "TOTAL DEBIT", "TOTAL CREDIT", "BALANCE", "LAST TRANSACTION", "LEDGER"}

// IndexPlaceholder is written when there are no ledgers.
const IndexPlaceholder = "No ledgers generated. Check the source configuration and run a refresh."

// Index writes the Ledger Master sheet, one row per ledger ordered by
// category code and then name.
func (r *Renderer) Index(ledgers []*types.PartyLedger) error {
	if err := r.sink.ReplaceSheet(IndexSheet); err != nil {
		return apperrors.Render(IndexSheet, err)
	}
	w := &pen{sink: r.sink, sheet: IndexSheet}

	if len(ledgers) == 0 {
		w.write(1, 1, []any{IndexPlaceholder})
		w.style(sheet.Cell(1, 1), bold)
		w.width(1, 80)
		return wrapRender(IndexSheet, w.err)
	}

	sorted := append([]*types.PartyLedger(nil), ledgers...)
	sort.SliceStable(sorted, func(i, j int) bool {
		ci, cj := sorted[i].Category.Code(), sorted[j].Category.Code()
		if ci != cj {
			return ci < cj
		}
		return sorted[i].Name < sorted[j].Name
	})

	w.write(1, 1, indexHeaders)
	w.style(sheet.Span(1, 1, len(indexHeaders)), headerStyle)
	w.border(sheet.Span(1, 1, len(indexHeaders)), sheet.EdgeBottom)

	rows := make([][]any, len(sorted))
	for i, p := range sorted {
		var last any
		if !p.LastTransaction.IsZero() {
			last = p.LastTransaction
		}
		rows[i] = []any{
			p.ID,
			p.Name,
			fmt.Sprintf("[%s]", p.Category.Code()),
			p.TotalDebit,
			p.TotalCredit,
			p.Balance(),
			last,
		}
	}
	w.write(2, 1, rows...)

	for i, p := range sorted {
		w.link(i+2, len(indexHeaders), LinkTarget(SheetName(p)), "Open")
	}

	lastRow := len(sorted) + 1
	w.format(sheet.Block(2, 4, lastRow, 6), sheet.FormatAmount)
	w.format(sheet.Block(2, 7, lastRow, 7), sheet.FormatDate)
	w.style(sheet.Block(2, 3, lastRow, 3), centered)
	for col, width := range []float64{16, 36, 11, 15, 15, 15, 17, 10} {
		w.width(col+1, width)
	}
	return wrapRender(IndexSheet, w.err)
}

// LinkTarget returns the in-workbook address of a sheet's first cell.
func LinkTarget(sheetName string) string {
	return "'" + strings.ReplaceAll(sheetName, "'", "''") + "'!A1"
}

// =============================================================================
// STAGING SHEET
// =============================================================================

var transactionHeaders = []any{"DATE", "PARTY ID", "PARTY NAME", "DOC TYPE", "DOC NO", "VOUCHER TYPE", "PARTICULARS", "DEBIT", "CREDIT", "REFERENCE"}

// Transactions writes every standardized transaction to the staging sheet in
// source order.
func (r *Renderer) Transactions(txns []types.Transaction) error {
	if err := r.sink.ReplaceSheet(TransactionsSheet); err != nil {
		return apperrors.Render(TransactionsSheet, err)
	}
	w := &pen{sink: r.sink, sheet: TransactionsSheet}

	w.write(1, 1, transactionHeaders)
	w.style(sheet.Span(1, 1, len(transactionHeaders)), bold)
	w.border(sheet.Span(1, 1, len(transactionHeaders)), sheet.EdgeBottom)

	if len(txns) > 0 {
		rows := make([][]any, len(txns))
		for i, t := range txns {
			var date any
			if t.HasDate() {
				date = t.Date
			}
			rows[i] = []any{
				date, emptyNil(t.PartyID), emptyNil(t.PartyName), string(t.DocType), emptyNil(t.DocNo),
				t.VoucherType, t.Particulars, t.Debit, t.Credit, emptyNil(t.Reference),
			}
		}
		w.write(2, 1, rows...)
		last := len(txns) + 1
		w.format(sheet.Block(2, 1, last, 1), sheet.FormatDate)
		w.format(sheet.Block(2, 8, last, 9), sheet.FormatAmount)
	}
	return wrapRender(TransactionsSheet, w.err)
}

// =============================================================================
// PRUNING
// =============================================================================

// Prune deletes generated ledger sheets that belong to none of the given
// ledgers and returns their names. Sheets the sink has not seen claimed are
// left alone, whatever their name.
func (r *Renderer) Prune(current []*types.PartyLedger) ([]string, error) {
	keep := make(map[string]bool, len(current))
	for _, p := range current {
		keep[SheetName(p)] = true
	}
	var removed []string
	for _, name := range r.sink.Sheets() {
		if !IsLedgerSheet(name) || !r.sink.Claimed(name) || keep[name] {
			continue
		}
		if err := r.sink.DeleteSheet(name); err != nil {
			return removed, apperrors.Render(name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func wrapRender(name string, err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Render(name, err)
}
