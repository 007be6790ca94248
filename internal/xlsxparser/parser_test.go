package xlsxparser

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/types"
	"github.com/ginjaninja78/party-ledger/internal/valueparser"
)

func writeWorkbook(t *testing.T) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	_, err := f.NewSheet("Purchase")
	require.NoError(t, err)

	require.NoError(t, f.SetSheetRow("Purchase", "A1", &[]any{"PURCHASE REGISTER"}))
	require.NoError(t, f.SetSheetRow("Purchase", "A3", &[]any{"DATE", "INVOICE NO", "SUPPLIER NAME", "L/F", "AMOUNT"}))
	require.NoError(t, f.SetSheetRow("Purchase", "A4", &[]any{
		time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), "PI-1", "Shree Traders", "CG-SUP-0001", 54000.5,
	}))
	return f
}

func TestReadTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "purchase.xlsx")
	f := writeWorkbook(t)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := ReadTable(path, " purchase ")
	require.NoError(t, err)

	require.Len(t, table, 4)
	assert.Equal(t, "PURCHASE REGISTER", types.CellString(table[0][0]))
	assert.True(t, types.IsBlankRow(table[1]))
	assert.Equal(t, "L/F", table[2][3])

	date, ok := valueparser.ParseCalendarDate(table[3][0])
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), date)
	assert.Equal(t, "54000.5", valueparser.ParseAmount(table[3][4]).String())
}

func TestReadTable_MissingTab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "purchase.xlsx")
	f := writeWorkbook(t)
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := ReadTable(path, "Sales")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Contains(t, names, "Purchase")
}
