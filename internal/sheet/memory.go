package sheet

import (
	"fmt"
	"sort"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
)

type pos struct{ row, col int }

type memSheet struct {
	cells   map[pos]any
	styles  map[pos]Style
	borders map[pos]Edges
	formats map[pos]string
	links   map[pos]string
	merges  []Range
	widths  map[int]float64
	hidden  map[int]bool
	claimed bool
}

func newMemSheet() *memSheet {
	return &memSheet{
		cells:   make(map[pos]any),
		styles:  make(map[pos]Style),
		borders: make(map[pos]Edges),
		formats: make(map[pos]string),
		links:   make(map[pos]string),
		widths:  make(map[int]float64),
		hidden:  make(map[int]bool),
	}
}

// Memory is an in-memory Sink. The zero value is not usable; call NewMemory.
type Memory struct {
	order  []string
	sheets map[string]*memSheet

	// FailOn makes every write to the named sheet return the given error.
	FailOn map[string]error
}

// NewMemory returns an empty in-memory workbook.
func NewMemory() *Memory {
	return &Memory{sheets: make(map[string]*memSheet), FailOn: make(map[string]error)}
}

func (m *Memory) get(name string) (*memSheet, error) {
	if err, ok := m.FailOn[name]; ok {
		return nil, err
	}
	s, ok := m.sheets[name]
	if !ok {
		return nil, fmt.Errorf("sheet %q: %w", name, apperrors.ErrNotFound)
	}
	return s, nil
}

func (m *Memory) Sheets() []string {
	return append([]string(nil), m.order...)
}

func (m *Memory) ReplaceSheet(name string) error {
	if err, ok := m.FailOn[name]; ok {
		return err
	}
	if _, ok := m.sheets[name]; !ok {
		m.order = append(m.order, name)
	}
	m.sheets[name] = newMemSheet()
	return nil
}

func (m *Memory) DeleteSheet(name string) error {
	if _, ok := m.sheets[name]; !ok {
		return nil
	}
	delete(m.sheets, name)
	for i, n := range m.order {
		if n == name {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) Claim(name string) error {
	s, err := m.get(name)
	if err != nil {
		return err
	}
	s.claimed = true
	return nil
}

func (m *Memory) Claimed(name string) bool {
	s, ok := m.sheets[name]
	return ok && s.claimed
}

func (m *Memory) WriteBlock(name string, row, col int, values [][]any) error {
	s, err := m.get(name)
	if err != nil {
		return err
	}
	if row < 1 || col < 1 {
		return fmt.Errorf("write %s: invalid origin (%d, %d)", name, row, col)
	}
	for i, line := range values {
		for j, v := range line {
			p := pos{row + i, col + j}
			if v == nil {
				delete(s.cells, p)
				continue
			}
			s.cells[p] = v
		}
	}
	return nil
}

func (m *Memory) each(name string, r Range, fn func(s *memSheet, p pos)) error {
	s, err := m.get(name)
	if err != nil {
		return err
	}
	if !r.Valid() {
		return fmt.Errorf("%s: invalid range %+v", name, r)
	}
	r.Each(func(row, col int) { fn(s, pos{row, col}) })
	return nil
}

func (m *Memory) SetStyle(name string, r Range, st Style) error {
	return m.each(name, r, func(s *memSheet, p pos) { s.styles[p] = s.styles[p].Merge(st) })
}

func (m *Memory) Merge(name string, r Range) error {
	s, err := m.get(name)
	if err != nil {
		return err
	}
	if !r.Valid() {
		return fmt.Errorf("%s: invalid range %+v", name, r)
	}
	s.merges = append(s.merges, r)
	return nil
}

func (m *Memory) SetBorder(name string, r Range, e Edges) error {
	return m.each(name, r, func(s *memSheet, p pos) { s.borders[p] |= e })
}

func (m *Memory) SetFormat(name string, r Range, format string) error {
	return m.each(name, r, func(s *memSheet, p pos) { s.formats[p] = format })
}

func (m *Memory) SetColumnWidth(name string, col int, width float64) error {
	s, err := m.get(name)
	if err != nil {
		return err
	}
	s.widths[col] = width
	return nil
}

func (m *Memory) HideColumn(name string, col int) error {
	s, err := m.get(name)
	if err != nil {
		return err
	}
	s.hidden[col] = true
	return nil
}

func (m *Memory) Truncate(name string, lastRow, lastCol int) error {
	s, err := m.get(name)
	if err != nil {
		return err
	}
	outside := func(p pos) bool { return p.row > lastRow || p.col > lastCol }
	for p := range s.cells {
		if outside(p) {
			delete(s.cells, p)
		}
	}
	for p := range s.styles {
		if outside(p) {
			delete(s.styles, p)
		}
	}
	for p := range s.borders {
		if outside(p) {
			delete(s.borders, p)
		}
	}
	for p := range s.formats {
		if outside(p) {
			delete(s.formats, p)
		}
	}
	for p := range s.links {
		if outside(p) {
			delete(s.links, p)
		}
	}
	kept := s.merges[:0]
	for _, r := range s.merges {
		if r.LastRow <= lastRow && r.LastCol <= lastCol {
			kept = append(kept, r)
		}
	}
	s.merges = kept
	for col := range s.hidden {
		if col > lastCol {
			delete(s.hidden, col)
		}
	}
	for col := range s.widths {
		if col > lastCol {
			delete(s.widths, col)
		}
	}
	return nil
}

func (m *Memory) Link(name string, row, col int, target, text string) error {
	s, err := m.get(name)
	if err != nil {
		return err
	}
	s.cells[pos{row, col}] = text
	s.links[pos{row, col}] = target
	return nil
}

func (m *Memory) AppendRow(name string, values []any) error {
	if _, ok := m.sheets[name]; !ok {
		if err := m.ReplaceSheet(name); err != nil {
			return err
		}
	}
	return m.WriteBlock(name, m.MaxRow(name)+1, 1, [][]any{values})
}

// =============================================================================
// INSPECTION
// =============================================================================

// Has reports whether the sheet exists.
func (m *Memory) Has(name string) bool {
	_, ok := m.sheets[name]
	return ok
}

// Value returns the cell value at (row, col), or nil.
func (m *Memory) Value(name string, row, col int) any {
	if s, ok := m.sheets[name]; ok {
		return s.cells[pos{row, col}]
	}
	return nil
}

// Row returns the values of columns 1..width of a row.
func (m *Memory) Row(name string, row, width int) []any {
	out := make([]any, width)
	for col := 1; col <= width; col++ {
		out[col-1] = m.Value(name, row, col)
	}
	return out
}

// StyleAt returns the accumulated style of a cell.
func (m *Memory) StyleAt(name string, row, col int) Style {
	if s, ok := m.sheets[name]; ok {
		return s.styles[pos{row, col}]
	}
	return Style{}
}

// BorderAt returns the borders of a cell.
func (m *Memory) BorderAt(name string, row, col int) Edges {
	if s, ok := m.sheets[name]; ok {
		return s.borders[pos{row, col}]
	}
	return 0
}

// FormatAt returns the display format of a cell.
func (m *Memory) FormatAt(name string, row, col int) string {
	if s, ok := m.sheets[name]; ok {
		return s.formats[pos{row, col}]
	}
	return ""
}

// LinkAt returns the link target of a cell.
func (m *Memory) LinkAt(name string, row, col int) string {
	if s, ok := m.sheets[name]; ok {
		return s.links[pos{row, col}]
	}
	return ""
}

// Merges returns the merged ranges of a sheet.
func (m *Memory) Merges(name string) []Range {
	if s, ok := m.sheets[name]; ok {
		return append([]Range(nil), s.merges...)
	}
	return nil
}

// Hidden reports whether a column is hidden.
func (m *Memory) Hidden(name string, col int) bool {
	if s, ok := m.sheets[name]; ok {
		return s.hidden[col]
	}
	return false
}

// Width returns the width set on a column, or zero.
func (m *Memory) Width(name string, col int) float64 {
	if s, ok := m.sheets[name]; ok {
		return s.widths[col]
	}
	return 0
}

// MaxRow returns the last row holding a value.
func (m *Memory) MaxRow(name string) int {
	return m.max(name, func(p pos) int { return p.row })
}

// MaxCol returns the last column holding a value.
func (m *Memory) MaxCol(name string) int {
	return m.max(name, func(p pos) int { return p.col })
}

func (m *Memory) max(name string, pick func(pos) int) int {
	s, ok := m.sheets[name]
	if !ok {
		return 0
	}
	n := 0
	for p := range s.cells {
		if v := pick(p); v > n {
			n = v
		}
	}
	return n
}

// LinkedCells lists the cells of a sheet that carry links, top to bottom.
func (m *Memory) LinkedCells(name string) []Range {
	s, ok := m.sheets[name]
	if !ok {
		return nil
	}
	out := make([]Range, 0, len(s.links))
	for p := range s.links {
		out = append(out, Cell(p.row, p.col))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}
