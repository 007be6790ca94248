package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/party-ledger/internal/config"
)

func TestRead_RaggedWithBOM(t *testing.T) {
	input := "\xEF\xBB\xBFSALES REGISTER\n\nDATE,INVOICE NO,CUSTOMER NAME,L/F,AMOUNT\n01-04-2024,SI-1,\"Metro Infra, Pune\",CG-CUS-0001,\"2,00,000.00\"\n"

	table, err := Read(strings.NewReader(input), config.CSVSettings{})
	require.NoError(t, err)

	require.Len(t, table, 3)
	assert.Equal(t, []any{"SALES REGISTER"}, table[0])
	assert.Equal(t, "DATE", table[1][0])
	assert.Equal(t, "Metro Infra, Pune", table[2][2])
	assert.Equal(t, "2,00,000.00", table[2][4])
}

func TestRead_Delimiters(t *testing.T) {
	tests := []struct {
		delimiter string
		input     string
	}{
		{"pipe", "A|B\n"},
		{"tab", "A\tB\n"},
		{";", "A;B\n"},
		{",", "A,B\n"},
	}
	for _, tt := range tests {
		t.Run(tt.delimiter, func(t *testing.T) {
			table, err := Read(strings.NewReader(tt.input), config.CSVSettings{Delimiter: tt.delimiter})
			require.NoError(t, err)
			assert.Equal(t, []any{"A", "B"}, table[0])
		})
	}
}

func TestReadTable_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.csv")
	require.NoError(t, os.WriteFile(path, []byte("DATE,DEBIT\n01-04-2024,100\n"), 0o644))

	table, err := ReadTable(path, config.CSVSettings{})
	require.NoError(t, err)
	assert.Len(t, table, 2)

	_, err = ReadTable(filepath.Join(t.TempDir(), "missing.csv"), config.CSVSettings{})
	assert.Error(t, err)
}
