// =============================================================================
// Party Ledger Builder - Field Mapping
// =============================================================================
//
// This module turns the data rows of a source table into standardized
// transactions. Which column feeds which field is decided by configuration:
// each semantic Field is mapped to a literal header name, looked up once per
// table.
//
// AMOUNT ROUTING:
//   - PURCHASE: the AMOUNT column populates Credit (payable to the supplier).
//   - SALES:    the AMOUNT column populates Debit (receivable from the customer).
//   - BANK:     the DEBIT and CREDIT columns populate their fields directly.
//
// DEGRADATION:
//   A value that cannot be resolved or parsed becomes empty, zero or an
//   unknown date. The row is still emitted and the problem is recorded in
//   Result.Degradations. Rows with no content at all are skipped.
//
// =============================================================================

package fieldmap

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/party-ledger/internal/types"
	"github.com/ginjaninja78/party-ledger/internal/valueparser"
)

// =============================================================================
// FIELDS
// =============================================================================

// Field is a semantic transaction field. Its value is the FIELD part of the
// <PREFIX>_<FIELD>_COL configuration key.
type Field string

const (
	FieldDate        Field = "DATE"
	FieldPartyID     Field = "PARTY_ID"
	FieldPartyName   Field = "PARTY_NAME"
	FieldDocNo       Field = "DOC_NO"
	FieldVoucherType Field = "VOUCHER_TYPE"
	FieldParticulars Field = "PARTICULARS"
	FieldRef         Field = "REF"
	FieldAmount      Field = "AMOUNT"
	FieldDebit       Field = "DEBIT"
	FieldCredit      Field = "CREDIT"
)

// FieldsFor returns the fields a source kind can map.
func FieldsFor(kind types.DocType) []Field {
	common := []Field{FieldDate, FieldPartyID, FieldPartyName, FieldDocNo, FieldVoucherType, FieldParticulars, FieldRef}
	if kind == types.DocBank {
		return append(common, FieldDebit, FieldCredit)
	}
	return append(common, FieldAmount)
}

// Mapping assigns a literal header name to each field. A missing or blank
// entry leaves the field unmapped.
type Mapping map[Field]string

var defaultMappings = map[types.DocType]Mapping{
	types.DocPurchase: {
		FieldDate:        "DATE",
		FieldPartyID:     "L/F",
		FieldPartyName:   "SUPPLIER NAME",
		FieldDocNo:       "INVOICE NO",
		FieldVoucherType: "VOUCHER TYPE",
		FieldParticulars: "PARTICULARS",
		FieldRef:         "REF",
		FieldAmount:      "AMOUNT",
	},
	types.DocSales: {
		FieldDate:        "DATE",
		FieldPartyID:     "L/F",
		FieldPartyName:   "CUSTOMER NAME",
		FieldDocNo:       "INVOICE NO",
		FieldVoucherType: "VOUCHER TYPE",
		FieldParticulars: "PARTICULARS",
		FieldRef:         "REF",
		FieldAmount:      "AMOUNT",
	},
	types.DocBank: {
		FieldDate:        "DATE",
		FieldPartyID:     "L/F",
		FieldPartyName:   "PARTY NAME",
		FieldDocNo:       "CHQ NO",
		FieldVoucherType: "VOUCHER TYPE",
		FieldParticulars: "PARTICULARS",
		FieldRef:         "REF",
		FieldDebit:       "DEBIT",
		FieldCredit:      "CREDIT",
	},
}

// DefaultMapping returns the conventional header names of a source kind.
func DefaultMapping(kind types.DocType) Mapping {
	out := make(Mapping, len(defaultMappings[kind]))
	for f, col := range defaultMappings[kind] {
		out[f] = col
	}
	return out
}

// Merge returns a copy of m with every non-blank entry of override applied.
func (m Mapping) Merge(override Mapping) Mapping {
	out := make(Mapping, len(m)+len(override))
	for f, col := range m {
		out[f] = col
	}
	for f, col := range override {
		if strings.TrimSpace(col) != "" {
			out[f] = col
		}
	}
	return out
}

// Overrides returns the entries of m that name a different column than base.
// Names are compared the way headers are matched, ignoring case and
// surrounding space.
func (m Mapping) Overrides(base Mapping) Mapping {
	out := make(Mapping)
	for f, col := range m {
		col = strings.TrimSpace(col)
		if col != "" && !strings.EqualFold(col, strings.TrimSpace(base[f])) {
			out[f] = col
		}
	}
	return out
}

// Columns returns the mapped header names, in FieldsFor order.
func (m Mapping) Columns(kind types.DocType) []string {
	var cols []string
	for _, f := range FieldsFor(kind) {
		if col := strings.TrimSpace(m[f]); col != "" {
			cols = append(cols, col)
		}
	}
	return cols
}

// =============================================================================
// MAPPER
// =============================================================================

// Degradation records a value that was replaced by its default.
type Degradation struct {
	// Row is the 0-based row index in the source table.
	Row    int
	Field  Field
	Value  string
	Reason string
}

func (d Degradation) String() string {
	return fmt.Sprintf("row %d %s %q: %s", d.Row+1, d.Field, d.Value, d.Reason)
}

// Result is the outcome of mapping one source table.
type Result struct {
	Transactions []types.Transaction

	// Skipped counts blank data rows.
	Skipped int

	Degradations []Degradation

	// Unmatched lists mapped fields whose header name is absent.
	Unmatched []Field
}

// Mapper extracts transactions of a single source kind.
type Mapper struct {
	kind    types.DocType
	mapping Mapping
}

// New creates a Mapper. Fields absent from mapping are left unmapped.
func New(kind types.DocType, mapping Mapping) *Mapper {
	return &Mapper{kind: kind, mapping: mapping}
}

// MapTable maps every row below headerRow.
//
// PARAMETERS:
//   - table: The raw source table.
//   - headerRow: 0-based index of the header row, as found by headerdetect.
//
// RETURNS:
//   - The transactions, blank row count and per-value degradations.
func (m *Mapper) MapTable(table types.RawTable, headerRow int) Result {
	var res Result
	if headerRow < 0 || headerRow >= len(table) {
		return res
	}

	index, unmatched := m.resolve(table[headerRow])
	res.Unmatched = unmatched

	for i := headerRow + 1; i < len(table); i++ {
		row := table[i]
		if types.IsBlankRow(row) {
			res.Skipped++
			continue
		}
		txn, degr := m.mapRow(i, row, index)
		res.Transactions = append(res.Transactions, txn)
		res.Degradations = append(res.Degradations, degr...)
	}
	return res
}

// resolve locates each mapped field in the header with a case-insensitive
// exact match. The first matching column wins.
func (m *Mapper) resolve(header []any) (map[Field]int, []Field) {
	index := make(map[Field]int, len(m.mapping))
	var unmatched []Field
	for _, f := range FieldsFor(m.kind) {
		want := strings.TrimSpace(m.mapping[f])
		if want == "" {
			continue
		}
		found := false
		for col, cell := range header {
			if strings.EqualFold(types.CellString(cell), want) {
				index[f] = col
				found = true
				break
			}
		}
		if !found {
			unmatched = append(unmatched, f)
		}
	}
	return index, unmatched
}

func (m *Mapper) mapRow(rowIdx int, row []any, index map[Field]int) (types.Transaction, []Degradation) {
	var degr []Degradation

	cell := func(f Field) any {
		col, ok := index[f]
		if !ok || col >= len(row) {
			return nil
		}
		return row[col]
	}
	text := func(f Field) string { return types.CellString(cell(f)) }
	amount := func(f Field) decimal.Decimal {
		v, ok := valueparser.TryParseAmount(cell(f))
		if !ok {
			degr = append(degr, Degradation{Row: rowIdx, Field: f, Value: text(f), Reason: "amount not readable, using 0"})
		}
		return v
	}

	fields := types.TransactionFields{
		PartyID:     text(FieldPartyID),
		PartyName:   text(FieldPartyName),
		DocType:     m.kind,
		DocNo:       text(FieldDocNo),
		VoucherType: text(FieldVoucherType),
		Particulars: text(FieldParticulars),
		Reference:   text(FieldRef),
	}

	if raw := cell(FieldDate); types.CellString(raw) != "" {
		if d, ok := valueparser.ParseCalendarDate(raw); ok {
			fields.Date = d
		} else {
			degr = append(degr, Degradation{Row: rowIdx, Field: FieldDate, Value: types.CellString(raw), Reason: "date not readable"})
		}
	}

	switch m.kind {
	case types.DocPurchase:
		fields.Credit = amount(FieldAmount)
	case types.DocSales:
		fields.Debit = amount(FieldAmount)
	case types.DocBank:
		fields.Debit = amount(FieldDebit)
		fields.Credit = amount(FieldCredit)
	}

	if fields.PartyID == "" {
		degr = append(degr, Degradation{Row: rowIdx, Field: FieldPartyID, Reason: "party id missing, row kept out of ledgers"})
	}

	return types.NewTransaction(fields), degr
}
