// =============================================================================
// Party Ledger Builder - XLSX Workbook Sink
// =============================================================================
//
// This module implements sheet.Sink on top of an excelize workbook. The ledger
// workbook is opened once per run, every sheet is rebuilt in memory and the
// result is written back in a single Save.
//
// STYLES:
//   Excel stores one style per cell, while the renderers apply bold, borders
//   and number formats in separate calls. The workbook therefore keeps the
//   accumulated state of every styled cell and maps each distinct state to a
//   single excelize style id.
//
// SAVING:
//   1. The workbook is written to a temporary sibling file.
//   2. The previous workbook, if any, is copied to the archive directory.
//   3. The temporary file is renamed over the workbook.
//   4. Archives beyond the retention count are removed.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/sheet"
	"github.com/ginjaninja78/party-ledger/pkg/utils"
)

// placeholderSheet keeps the workbook non-empty while the only sheet is
// being replaced. It never survives a Save.
const placeholderSheet = "_ledger_tmp"

// defaultSheet is the sheet excelize creates in a new workbook.
const defaultSheet = "Sheet1"

type cellPos struct{ row, col int }

// cellState is the accumulated formatting of one cell.
type cellState struct {
	style  sheet.Style
	edges  sheet.Edges
	format string
}

type extent struct{ rows, cols int }

// Workbook is an excelize-backed sheet.Sink.
type Workbook struct {
	path string
	file *excelize.File
	fm   *utils.FileManager

	created bool
	touched map[string]bool

	styles map[cellState]int
	cells  map[string]map[cellPos]cellState
	extent map[string]*extent

	// Active is the sheet selected when the workbook is opened in Excel.
	Active string
}

// Open loads the workbook at path, or starts a new one when it does not
// exist. fm may be nil to disable archiving.
func Open(path string, fm *utils.FileManager) (*Workbook, error) {
	w := &Workbook{
		path:    path,
		fm:      fm,
		touched: make(map[string]bool),
		styles:  make(map[cellState]int),
		cells:   make(map[string]map[cellPos]cellState),
		extent:  make(map[string]*extent),
	}

	if utils.FileExists(path) {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
		}
		w.file = f
		return w, nil
	}

	w.file = excelize.NewFile()
	w.created = true
	return w, nil
}

// Path returns the workbook location.
func (w *Workbook) Path() string { return w.path }

// Close releases the workbook without saving.
func (w *Workbook) Close() error { return w.file.Close() }

// =============================================================================
// SHEET LIFECYCLE
// =============================================================================

func (w *Workbook) exists(name string) bool {
	idx, err := w.file.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (w *Workbook) Sheets() []string {
	var out []string
	for _, name := range w.file.GetSheetList() {
		if name != placeholderSheet {
			out = append(out, name)
		}
	}
	return out
}

func (w *Workbook) ReplaceSheet(name string) error {
	if err := w.DeleteSheet(name); err != nil {
		return err
	}
	if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	w.touched[name] = true
	return nil
}

func (w *Workbook) DeleteSheet(name string) error {
	if !w.exists(name) {
		return nil
	}
	// excelize refuses to remove the last sheet.
	if w.file.SheetCount == 1 {
		if _, err := w.file.NewSheet(placeholderSheet); err != nil {
			return fmt.Errorf("failed to create placeholder sheet: %w", err)
		}
	}
	if err := w.file.DeleteSheet(name); err != nil {
		return fmt.Errorf("failed to delete sheet %s: %w", name, err)
	}
	delete(w.cells, name)
	delete(w.extent, name)
	delete(w.touched, name)
	return nil
}

// ledgerCodeName prefixes the VBA code name of every generated sheet. The
// code name survives renames and is invisible in the tab strip, so a sheet a
// user creates with a ledger-like name is never mistaken for a generated one.
const ledgerCodeName = "PartyLedger_"

// Claim stores the generated mark as the sheet's code name. Code names must
// be unique, so each carries a digest of the sheet name.
func (w *Workbook) Claim(name string) error {
	if !w.exists(name) {
		return fmt.Errorf("claim %s: %w", name, apperrors.ErrNotFound)
	}
	digest := strings.ReplaceAll(uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String(), "-", "")
	code := ledgerCodeName + digest[:12]
	if err := w.file.SetSheetProps(name, &excelize.SheetPropsOptions{CodeName: &code}); err != nil {
		return fmt.Errorf("failed to mark sheet %s: %w", name, err)
	}
	return nil
}

func (w *Workbook) Claimed(name string) bool {
	if !w.exists(name) {
		return false
	}
	props, err := w.file.GetSheetProps(name)
	if err != nil || props.CodeName == nil {
		return false
	}
	return strings.HasPrefix(*props.CodeName, ledgerCodeName)
}

// =============================================================================
// CELL VALUES
// =============================================================================

// WriteBlock writes values row by row. Nil cells are skipped, which leaves
// them empty on a freshly replaced sheet.
func (w *Workbook) WriteBlock(name string, row, col int, values [][]any) error {
	if !w.exists(name) {
		return fmt.Errorf("write %s: %w", name, apperrors.ErrNotFound)
	}
	for i, line := range values {
		for j, v := range line {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+j, row+i)
			if err != nil {
				return err
			}
			if err := w.file.SetCellValue(name, cell, cellValue(v)); err != nil {
				return fmt.Errorf("write %s!%s: %w", name, cell, err)
			}
			w.grow(name, row+i, col+j)
		}
	}
	return nil
}

// cellValue converts values excelize does not know about.
func cellValue(v any) any {
	switch t := v.(type) {
	case decimal.Decimal:
		return t.InexactFloat64()
	case time.Time:
		if t.IsZero() {
			return nil
		}
		return t
	}
	return v
}

func (w *Workbook) AppendRow(name string, values []any) error {
	if !w.exists(name) {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}
	w.touched[name] = true
	rows, err := w.file.GetRows(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	next := len(rows) + 1
	converted := make([]any, len(values))
	for i, v := range values {
		converted[i] = cellValue(v)
	}
	cell, err := excelize.CoordinatesToCellName(1, next)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(name, cell, &converted); err != nil {
		return fmt.Errorf("append to %s: %w", name, err)
	}
	return nil
}

func (w *Workbook) Link(name string, row, col int, target, text string) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := w.file.SetCellValue(name, cell, text); err != nil {
		return err
	}
	if err := w.file.SetCellHyperLink(name, cell, target, "Location"); err != nil {
		return fmt.Errorf("link %s!%s: %w", name, cell, err)
	}
	w.grow(name, row, col)
	return nil
}

func (w *Workbook) grow(name string, row, col int) {
	e, ok := w.extent[name]
	if !ok {
		e = &extent{}
		w.extent[name] = e
	}
	if row > e.rows {
		e.rows = row
	}
	if col > e.cols {
		e.cols = col
	}
}

// =============================================================================
// FORMATTING
// =============================================================================

func (w *Workbook) SetStyle(name string, r sheet.Range, s sheet.Style) error {
	return w.restyle(name, r, func(c *cellState) { c.style = c.style.Merge(s) })
}

func (w *Workbook) SetBorder(name string, r sheet.Range, e sheet.Edges) error {
	return w.restyle(name, r, func(c *cellState) { c.edges |= e })
}

func (w *Workbook) SetFormat(name string, r sheet.Range, format string) error {
	return w.restyle(name, r, func(c *cellState) { c.format = format })
}

// restyle updates the state of every cell in r and applies the matching
// style id.
func (w *Workbook) restyle(name string, r sheet.Range, update func(*cellState)) error {
	if !r.Valid() {
		return fmt.Errorf("%s: invalid range %s", name, r)
	}
	states, ok := w.cells[name]
	if !ok {
		states = make(map[cellPos]cellState)
		w.cells[name] = states
	}

	var firstErr error
	r.Each(func(row, col int) {
		if firstErr != nil {
			return
		}
		p := cellPos{row, col}
		st := states[p]
		update(&st)
		states[p] = st

		id, err := w.styleID(st)
		if err != nil {
			firstErr = err
			return
		}
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			firstErr = err
			return
		}
		firstErr = w.file.SetCellStyle(name, cell, cell, id)
	})
	if firstErr != nil {
		return fmt.Errorf("style %s!%s: %w", name, r, firstErr)
	}
	w.grow(name, r.LastRow, r.LastCol)
	return nil
}

func (w *Workbook) styleID(st cellState) (int, error) {
	if id, ok := w.styles[st]; ok {
		return id, nil
	}
	id, err := w.file.NewStyle(toExcelStyle(st))
	if err != nil {
		return 0, err
	}
	w.styles[st] = id
	return id, nil
}

func toExcelStyle(st cellState) *excelize.Style {
	out := &excelize.Style{}
	if st.style.Bold || st.style.Size != 0 || st.style.Color != "" {
		out.Font = &excelize.Font{
			Bold:  st.style.Bold,
			Size:  st.style.Size,
			Color: strings.TrimPrefix(st.style.Color, "#"),
		}
	}
	if st.style.Align != sheet.AlignDefault {
		out.Alignment = &excelize.Alignment{Horizontal: string(st.style.Align), Vertical: "center"}
	}
	edges := []struct {
		edge sheet.Edges
		side string
	}{
		{sheet.EdgeTop, "top"},
		{sheet.EdgeBottom, "bottom"},
		{sheet.EdgeLeft, "left"},
		{sheet.EdgeRight, "right"},
	}
	for _, e := range edges {
		if st.edges.Has(e.edge) {
			out.Border = append(out.Border, excelize.Border{Type: e.side, Color: "000000", Style: 1})
		}
	}
	if st.format != "" {
		format := st.format
		out.CustomNumFmt = &format
	}
	return out
}

func (w *Workbook) Merge(name string, r sheet.Range) error {
	start, err := excelize.CoordinatesToCellName(r.Col, r.Row)
	if err != nil {
		return err
	}
	end, err := excelize.CoordinatesToCellName(r.LastCol, r.LastRow)
	if err != nil {
		return err
	}
	if err := w.file.MergeCell(name, start, end); err != nil {
		return fmt.Errorf("merge %s!%s: %w", name, r, err)
	}
	return nil
}

func (w *Workbook) SetColumnWidth(name string, col int, width float64) error {
	letter := sheet.ColumnName(col)
	return w.file.SetColWidth(name, letter, letter, width)
}

func (w *Workbook) HideColumn(name string, col int) error {
	return w.file.SetColVisible(name, sheet.ColumnName(col), false)
}

// Truncate removes rows and columns written beyond the bound during this
// session.
func (w *Workbook) Truncate(name string, lastRow, lastCol int) error {
	e, ok := w.extent[name]
	if !ok {
		return nil
	}
	for row := e.rows; row > lastRow; row-- {
		if err := w.file.RemoveRow(name, row); err != nil {
			return fmt.Errorf("truncate %s row %d: %w", name, row, err)
		}
	}
	for col := e.cols; col > lastCol; col-- {
		if err := w.file.RemoveCol(name, sheet.ColumnName(col)); err != nil {
			return fmt.Errorf("truncate %s column %s: %w", name, sheet.ColumnName(col), err)
		}
	}
	if e.rows > lastRow {
		e.rows = lastRow
	}
	if e.cols > lastCol {
		e.cols = lastCol
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the workbook to its path, archiving the previous version.
func (w *Workbook) Save() error {
	w.cleanupScaffolding()

	if w.Active != "" {
		if idx, err := w.file.GetSheetIndex(w.Active); err == nil && idx >= 0 {
			w.file.SetActiveSheet(idx)
		}
	}

	if err := utils.EnsureParentDir(w.path); err != nil {
		return err
	}
	tmp := utils.TempPath(w.path)
	if err := w.file.SaveAs(tmp); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	if w.fm != nil {
		if _, err := w.fm.ArchiveFile(w.path); err != nil {
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace workbook: %w", err)
	}
	if w.fm != nil {
		if _, err := w.fm.CleanOldArchives(filepath.Base(w.path)); err != nil {
			return err
		}
	}
	return nil
}

// cleanupScaffolding drops the placeholder sheet and the untouched default
// sheet of a new workbook, as long as another sheet remains.
func (w *Workbook) cleanupScaffolding() {
	drop := []string{placeholderSheet}
	if w.created && !w.touched[defaultSheet] {
		drop = append(drop, defaultSheet)
	}
	for _, name := range drop {
		if w.exists(name) && w.file.SheetCount > 1 {
			_ = w.file.DeleteSheet(name)
		}
	}
}
