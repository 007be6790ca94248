package render

import (
	"strings"

	"github.com/ginjaninja78/party-ledger/internal/sheet"
)

// pen writes to one sheet and remembers the first error; later calls are
// no-ops once an error occurred.
type pen struct {
	sink  sheet.Sink
	sheet string
	err   error
}

func (w *pen) write(row, col int, rows ...[]any) {
	if w.err == nil {
		w.err = w.sink.WriteBlock(w.sheet, row, col, rows)
	}
}

func (w *pen) style(r sheet.Range, s sheet.Style) {
	if w.err == nil {
		w.err = w.sink.SetStyle(w.sheet, r, s)
	}
}

func (w *pen) merge(r sheet.Range) {
	if w.err == nil {
		w.err = w.sink.Merge(w.sheet, r)
	}
}

func (w *pen) border(r sheet.Range, e sheet.Edges) {
	if w.err == nil {
		w.err = w.sink.SetBorder(w.sheet, r, e)
	}
}

func (w *pen) format(r sheet.Range, f string) {
	if w.err == nil {
		w.err = w.sink.SetFormat(w.sheet, r, f)
	}
}

func (w *pen) width(col int, width float64) {
	if w.err == nil {
		w.err = w.sink.SetColumnWidth(w.sheet, col, width)
	}
}

func (w *pen) hide(col int) {
	if w.err == nil {
		w.err = w.sink.HideColumn(w.sheet, col)
	}
}

func (w *pen) truncate(lastRow, lastCol int) {
	if w.err == nil {
		w.err = w.sink.Truncate(w.sheet, lastRow, lastCol)
	}
}

func (w *pen) link(row, col int, target, text string) {
	if w.err == nil {
		w.err = w.sink.Link(w.sheet, row, col, target, text)
	}
}

// block writes a four-line identity block (name, two address lines, contact
// line) starting at row, each line merged across A-F and centered.
func (w *pen) block(row int, name, addr1, addr2, contact string) {
	lines := []string{strings.ToUpper(name), addr1, addr2, contact}
	for i, line := range lines {
		r := sheet.Span(row+i, ColDate, ColCredit)
		if line != "" {
			w.write(row+i, ColDate, []any{line})
		}
		w.merge(r)
		w.style(r, centered)
	}
	w.style(sheet.Span(row, ColDate, ColCredit), nameStyle)
}
