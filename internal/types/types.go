// =============================================================================
// Party Ledger Builder - Shared Types
// =============================================================================
//
// This package contains the ledger data model shared by every stage of the
// pipeline. Types defined here are used by:
//   - fieldmap    (produces Transaction values)
//   - classifier  (reads DocType, returns Category)
//   - aggregator  (builds PartyLedger values)
//   - render      (lays PartyLedger values out on a sheet)
//
// Keeping them in one leaf package avoids import cycles between the stages.
//
// =============================================================================

package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SOURCE KINDS
// =============================================================================

// DocType identifies the kind of source a transaction was read from.
type DocType string

const (
	DocPurchase DocType = "PURCHASE"
	DocSales    DocType = "SALES"
	DocBank     DocType = "BANK"
)

// AllDocTypes returns the source kinds in the order they are fetched.
func AllDocTypes() []DocType {
	return []DocType{DocPurchase, DocSales, DocBank}
}

// ParseDocType accepts a source kind name in any case ("bank", "Purchase").
func ParseDocType(s string) (DocType, error) {
	switch DocType(strings.ToUpper(strings.TrimSpace(s))) {
	case DocPurchase:
		return DocPurchase, nil
	case DocSales:
		return DocSales, nil
	case DocBank:
		return DocBank, nil
	}
	return "", fmt.Errorf("unknown source kind %q", s)
}

// =============================================================================
// LEDGER CATEGORY
// =============================================================================

// Category is the ledger a transaction is routed to.
//
// The zero value means "not classified yet". CategoryExcluded is a deliberate
// decision to keep the transaction out of every ledger.
type Category int

const (
	CategoryUnknown Category = iota
	CategorySupplier
	CategoryCustomer
	CategoryExcluded
)

// Code returns the short ledger code ("SU", "CU").
func (c Category) Code() string {
	switch c {
	case CategorySupplier:
		return "SU"
	case CategoryCustomer:
		return "CU"
	case CategoryExcluded:
		return "EX"
	}
	return ""
}

// Label returns the informational party type ("SUPPLIER", "CUSTOMER").
func (c Category) Label() string {
	switch c {
	case CategorySupplier:
		return "SUPPLIER"
	case CategoryCustomer:
		return "CUSTOMER"
	case CategoryExcluded:
		return "EXCLUDED"
	}
	return "UNKNOWN"
}

func (c Category) String() string { return c.Label() }

// Ledger reports whether the category produces a party ledger.
func (c Category) Ledger() bool {
	return c == CategorySupplier || c == CategoryCustomer
}

// =============================================================================
// RAW TABLES
// =============================================================================

// RawTable is a source table as read from a connector. Cells hold string,
// float64, int, decimal.Decimal, time.Time or nil.
type RawTable [][]any

// CellString renders a raw cell as trimmed text.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	case decimal.Decimal:
		return t.String()
	case float64:
		return decimal.NewFromFloat(t).String()
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// IsBlankRow reports whether every cell of the row is empty.
func IsBlankRow(row []any) bool {
	for _, cell := range row {
		if CellString(cell) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// Transaction is the standardized record every source is normalized into.
//
// Date is the zero time when the source value could not be parsed. Debit and
// Credit are never negative and may both be non-zero.
type Transaction struct {
	Date        time.Time
	PartyID     string
	PartyName   string
	DocType     DocType
	DocNo       string
	VoucherType string
	Particulars string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Reference   string
}

// HasDate reports whether the source date was understood.
func (t Transaction) HasDate() bool { return !t.Date.IsZero() }

// TransactionFields carries already-parsed values into NewTransaction.
type TransactionFields struct {
	Date        time.Time
	PartyID     string
	PartyName   string
	DocType     DocType
	DocNo       string
	VoucherType string
	Particulars string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Reference   string
}

// NewTransaction is the single place where transaction defaults are applied:
//   - party id is trimmed and uppercased
//   - voucher type falls back to the doc type
//   - blank particulars are synthesized from the doc type and number
//   - a negative amount moves to the opposite column, so a bracketed purchase
//     return becomes a debit and both columns end up non-negative
func NewTransaction(f TransactionFields) Transaction {
	debit, credit := signedColumns(f.Debit, f.Credit)
	t := Transaction{
		Date:        f.Date,
		PartyID:     strings.ToUpper(strings.TrimSpace(f.PartyID)),
		PartyName:   strings.TrimSpace(f.PartyName),
		DocType:     f.DocType,
		DocNo:       strings.TrimSpace(f.DocNo),
		VoucherType: strings.TrimSpace(f.VoucherType),
		Particulars: strings.TrimSpace(f.Particulars),
		Debit:       debit,
		Credit:      credit,
		Reference:   strings.TrimSpace(f.Reference),
	}
	if t.VoucherType == "" {
		t.VoucherType = string(t.DocType)
	}
	if t.Particulars == "" {
		t.Particulars = SynthesizeParticulars(t.DocType, t.DocNo)
	}
	return t
}

// signedColumns nets the sign of each amount into the other column.
func signedColumns(debit, credit decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	dr, cr := decimal.Zero, decimal.Zero
	if debit.IsNegative() {
		cr = cr.Add(debit.Neg())
	} else {
		dr = dr.Add(debit)
	}
	if credit.IsNegative() {
		dr = dr.Add(credit.Neg())
	} else {
		cr = cr.Add(credit)
	}
	return dr, cr
}

// SynthesizeParticulars builds the narration used when a source row has none,
// e.g. "Purchase Invoice: PI-0042".
func SynthesizeParticulars(doc DocType, docNo string) string {
	var prefix string
	switch doc {
	case DocPurchase:
		prefix = "Purchase Invoice"
	case DocSales:
		prefix = "Sales Invoice"
	case DocBank:
		prefix = "Bank Transaction"
	default:
		prefix = "Transaction"
	}
	if docNo == "" {
		return prefix
	}
	return prefix + ": " + docNo
}

// LedgerEntry is a transaction with the running balance at that point of a
// party's statement. It is computed at render time and never stored.
type LedgerEntry struct {
	Transaction
	RunningBalance decimal.Decimal
}

// =============================================================================
// PARTY LEDGERS
// =============================================================================

// LedgerKey identifies a ledger. One party can own both an SU and a CU ledger.
type LedgerKey struct {
	PartyID  string
	Category Category
}

// PartyLedger aggregates all transactions of one (party, category) pair.
type PartyLedger struct {
	ID       string
	Name     string
	Category Category

	// Transactions are ordered by date, stable on ties.
	Transactions []Transaction

	TotalDebit      decimal.Decimal
	TotalCredit     decimal.Decimal
	LastTransaction time.Time

	Address1 string
	Address2 string
	GST      string
	Phone    string
	Email    string

	// Sheet is the statement sheet name once names have been assigned.
	Sheet string
}

// Key returns the ledger identity.
func (p *PartyLedger) Key() LedgerKey {
	return LedgerKey{PartyID: p.ID, Category: p.Category}
}

// Type returns the informational SUPPLIER/CUSTOMER label.
func (p *PartyLedger) Type() string { return p.Category.Label() }

// Balance is total debit minus total credit.
func (p *PartyLedger) Balance() decimal.Decimal {
	return p.TotalDebit.Sub(p.TotalCredit)
}

// Company is the organization issuing the statements.
type Company struct {
	ID       string
	Name     string
	Address1 string
	Address2 string
	GST      string
	Phone    string
	Email    string
}

// =============================================================================
// CONTACTS
// =============================================================================

// ContactType is the informational party taxonomy derived from the party id.
// It never decides the ledger category.
type ContactType string

const (
	ContactSupplier   ContactType = "SUPPLIER"
	ContactCustomer   ContactType = "CUSTOMER"
	ContactContractor ContactType = "CONTRACTOR"
	ContactDealer     ContactType = "DEALER"
	ContactRental     ContactType = "RENTAL"
	ContactMaster     ContactType = "MASTER"
	ContactOther      ContactType = "OTHER"
)

// ContactRecord is one row of the contact directory.
type ContactRecord struct {
	ID             string
	Name           string
	Address1       string
	Address2       string
	GST            string
	Phone          string
	Email          string
	RelatedCompany string
	ContactPerson  string
	InferredType   ContactType
}

// ContactDirectory maps uppercase party ids to their master data.
type ContactDirectory map[string]ContactRecord

// Lookup finds a record by party id, ignoring case and surrounding space.
func (d ContactDirectory) Lookup(id string) (ContactRecord, bool) {
	rec, ok := d[strings.ToUpper(strings.TrimSpace(id))]
	return rec, ok
}
