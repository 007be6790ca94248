// =============================================================================
// Party Ledger Builder - Tabular Sink
// =============================================================================
//
// This module defines the narrow presentation port the renderers write to.
// A Sink stores cells and formatting; it never decides layout. Two
// implementations exist:
//   - Memory               (tests and --dry-run)
//   - xlsxwriter.Workbook  (the ledger workbook on disk)
//
// COORDINATES:
//   Rows and columns are 1-indexed, matching spreadsheet conventions.
//   Column 1 is A.
//
// =============================================================================

package sheet

import "fmt"

// Sink is the write target for rendered sheets.
type Sink interface {
	// Sheets lists the sheet names in workbook order.
	Sheets() []string

	// ReplaceSheet creates the named sheet, clearing it if it exists.
	ReplaceSheet(name string) error

	// DeleteSheet removes the named sheet. Missing sheets are not an error.
	DeleteSheet(name string) error

	// Claim marks an existing sheet as generated. The mark is stored with
	// the sheet and cleared when the sheet is replaced.
	Claim(name string) error

	// Claimed reports whether the named sheet carries the generated mark.
	Claimed(name string) bool

	// WriteBlock writes a rectangular block whose top-left cell is (row, col).
	WriteBlock(sheet string, row, col int, values [][]any) error

	SetStyle(sheet string, r Range, s Style) error
	Merge(sheet string, r Range) error
	SetBorder(sheet string, r Range, e Edges) error

	// SetFormat applies a number or date display format such as FormatAmount.
	SetFormat(sheet string, r Range, format string) error

	SetColumnWidth(sheet string, col int, width float64) error
	HideColumn(sheet string, col int) error

	// Truncate removes every row after lastRow and every column after lastCol.
	Truncate(sheet string, lastRow, lastCol int) error

	// Link turns (row, col) into a navigable link to the target sheet.
	Link(sheet string, row, col int, target, text string) error

	// AppendRow writes values below the last used row of the sheet, creating
	// the sheet if needed.
	AppendRow(sheet string, values []any) error
}

// Display formats.
const (
	FormatDate   = "dd-mm-yyyy"
	FormatAmount = "#,##0.00"
)

// Range is an inclusive cell rectangle.
type Range struct {
	Row, Col         int
	LastRow, LastCol int
}

// Cell returns the single-cell range at (row, col).
func Cell(row, col int) Range {
	return Range{Row: row, Col: col, LastRow: row, LastCol: col}
}

// Span returns the range of one row from col to lastCol.
func Span(row, col, lastCol int) Range {
	return Range{Row: row, Col: col, LastRow: row, LastCol: lastCol}
}

// Block returns the range from (row, col) to (lastRow, lastCol).
func Block(row, col, lastRow, lastCol int) Range {
	return Range{Row: row, Col: col, LastRow: lastRow, LastCol: lastCol}
}

// Valid reports whether r is non-empty and 1-indexed.
func (r Range) Valid() bool {
	return r.Row >= 1 && r.Col >= 1 && r.LastRow >= r.Row && r.LastCol >= r.Col
}

// Each calls fn for every cell of r, row by row.
func (r Range) Each(fn func(row, col int)) {
	for row := r.Row; row <= r.LastRow; row++ {
		for col := r.Col; col <= r.LastCol; col++ {
			fn(row, col)
		}
	}
}

func (r Range) String() string {
	return fmt.Sprintf("%s%d:%s%d", ColumnName(r.Col), r.Row, ColumnName(r.LastCol), r.LastRow)
}

// Alignment is a horizontal text alignment.
type Alignment string

const (
	AlignDefault Alignment = ""
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
)

// Style describes text styling. Zero fields leave the existing value alone,
// so styles applied one after another accumulate.
type Style struct {
	Bold  bool
	Size  float64
	Color string
	Align Alignment
}

// Merge returns s with the non-zero fields of other applied.
func (s Style) Merge(other Style) Style {
	if other.Bold {
		s.Bold = true
	}
	if other.Size != 0 {
		s.Size = other.Size
	}
	if other.Color != "" {
		s.Color = other.Color
	}
	if other.Align != AlignDefault {
		s.Align = other.Align
	}
	return s
}

// Edges is a set of cell borders. Borders set on a range apply to the outer
// edges of each cell in it and add to borders already present.
type Edges uint8

const (
	EdgeTop Edges = 1 << iota
	EdgeBottom
	EdgeLeft
	EdgeRight

	EdgeTopBottom = EdgeTop | EdgeBottom
	EdgeAll       = EdgeTop | EdgeBottom | EdgeLeft | EdgeRight
)

// Has reports whether every edge of other is set in e.
func (e Edges) Has(other Edges) bool { return e&other == other }

// ColumnName converts a 1-indexed column number to its letters (1 -> A).
func ColumnName(col int) string {
	if col < 1 {
		return ""
	}
	var out []byte
	for col > 0 {
		col--
		out = append([]byte{byte('A' + col%26)}, out...)
		col /= 26
	}
	return string(out)
}
