// =============================================================================
// Party Ledger Builder - Header Detection
// =============================================================================
//
// Source books are maintained by hand: title rows, merged banners and blank
// lines push the column header down by a varying number of rows. Detection is
// therefore driven by cell contents, never by position.
//
// MATCHING RULES:
//   - Only the first ScanRows rows are examined (default 10).
//   - Cells and expected names are compared after Normalize, so "INVOICE NO."
//     matches "Invoice No" and "L / F" matches "L/F".
//   - A row qualifies when it holds the anchor plus one other expected name,
//     or three expected names without the anchor.
//   - The first qualifying row wins. When none qualifies, the first row that
//     holds the anchor alone is used.
//
// =============================================================================

package headerdetect

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

// DefaultScanRows is how many rows are searched for the header.
const DefaultScanRows = 10

// AnchorColumn is the ledger folio column that carries the party id.
const AnchorColumn = "L/F"

// NotFound is returned as the row index when detection fails.
const NotFound = -1

// Spec describes the header being searched for.
type Spec struct {
	// Expected lists the column names that may appear in the header.
	Expected []string

	// Anchor is the mandatory column name. It must also appear in Expected.
	Anchor string

	// ScanRows bounds the search. Zero means DefaultScanRows.
	ScanRows int
}

var expectedColumns = map[types.DocType][]string{
	types.DocPurchase: {"DATE", "INVOICE NO", "SUPPLIER NAME", "L/F", "AMOUNT", "PARTICULARS"},
	types.DocSales:    {"DATE", "INVOICE NO", "CUSTOMER NAME", "L/F", "AMOUNT", "PARTICULARS"},
	types.DocBank:     {"DATE", "PARTICULARS", "DEBIT", "CREDIT", "BALANCE", "L/F"},
}

// ExpectedColumns returns the conventional header of a source kind.
func ExpectedColumns(kind types.DocType) []string {
	cols := expectedColumns[kind]
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// SpecFor returns the default Spec of a source kind.
func SpecFor(kind types.DocType) Spec {
	return Spec{
		Expected: ExpectedColumns(kind),
		Anchor:   AnchorColumn,
		ScanRows: DefaultScanRows,
	}
}

// With returns a copy of s that also accepts the given column names.
// Blank and duplicate names are ignored.
func (s Spec) With(names ...string) Spec {
	seen := make(map[string]bool, len(s.Expected)+len(names))
	out := make([]string, 0, len(s.Expected)+len(names))
	for _, n := range append(append([]string{}, s.Expected...), names...) {
		key := Normalize(n)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	s.Expected = out
	return s
}

// Detect locates the header row of a source of the given kind.
func Detect(rows types.RawTable, kind types.DocType) (int, error) {
	return DetectWith(rows, SpecFor(kind))
}

// DetectWith locates the 0-based header row described by spec. It returns
// NotFound and an error wrapping apperrors.ErrHeaderNotFound on failure.
func DetectWith(rows types.RawTable, spec Spec) (int, error) {
	limit := spec.ScanRows
	if limit <= 0 {
		limit = DefaultScanRows
	}
	if limit > len(rows) {
		limit = len(rows)
	}

	expected := make(map[string]bool, len(spec.Expected))
	for _, name := range spec.Expected {
		if key := Normalize(name); key != "" {
			expected[key] = true
		}
	}
	anchor := Normalize(spec.Anchor)

	for i := 0; i < limit; i++ {
		matches, hasAnchor := score(rows[i], expected, anchor)
		if (hasAnchor && matches >= 2) || matches >= 3 {
			return i, nil
		}
	}

	if anchor != "" {
		for i := 0; i < limit; i++ {
			for _, cell := range rows[i] {
				if Normalize(types.CellString(cell)) == anchor {
					return i, nil
				}
			}
		}
	}

	return NotFound, fmt.Errorf("%w: no row in the first %d matched %s", apperrors.ErrHeaderNotFound, limit, strings.Join(spec.Expected, ", "))
}

// score counts the distinct expected names present in row.
func score(row []any, expected map[string]bool, anchor string) (int, bool) {
	seen := make(map[string]bool, len(row))
	hasAnchor := false
	for _, cell := range row {
		key := Normalize(types.CellString(cell))
		if key == "" || !expected[key] || seen[key] {
			continue
		}
		seen[key] = true
		if key == anchor {
			hasAnchor = true
		}
	}
	return len(seen), hasAnchor
}

// Normalize uppercases s and drops everything but letters and digits.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
