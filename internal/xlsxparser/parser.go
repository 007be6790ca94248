// =============================================================================
// Party Ledger Builder - XLSX Source Reader
// =============================================================================
//
// This module reads one tab of an XLSX workbook into a raw table. Cells are
// returned as their raw stored values, not their display text: dates come
// back as Excel serial numbers and amounts without grouping, which keeps the
// value parser independent of each workbook's number formats.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

// ReadTable opens the workbook at path and reads the named tab. An empty tab
// name selects the first sheet.
//
// RETURNS:
//   - The rows of the tab, each cell a string.
//   - An error wrapping apperrors.ErrNotFound when the tab does not exist.
func ReadTable(path, tab string) (types.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	return readSheet(f, tab)
}

// SheetNames lists the tabs of the workbook at path.
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

func readSheet(f *excelize.File, tab string) (types.RawTable, error) {
	name, err := resolveSheet(f, tab)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", name, err)
	}

	table := make(types.RawTable, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		table[i] = cells
	}
	return table, nil
}

// resolveSheet matches tab against the sheet list, ignoring case and
// surrounding space.
func resolveSheet(f *excelize.File, tab string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets: %w", apperrors.ErrNotFound)
	}
	tab = strings.TrimSpace(tab)
	if tab == "" {
		return sheets[0], nil
	}
	for _, s := range sheets {
		if strings.EqualFold(strings.TrimSpace(s), tab) {
			return s, nil
		}
	}
	return "", fmt.Errorf("tab %q: %w", tab, apperrors.ErrNotFound)
}
