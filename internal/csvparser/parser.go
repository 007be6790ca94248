// =============================================================================
// Party Ledger Builder - CSV Source Reader
// =============================================================================
//
// This module reads CSV exports of the source books into raw tables. Exports
// from accounting packages vary, so the reader is lenient:
//   - Configurable delimiter (comma, pipe, tab, semicolon)
//   - Ragged rows (rows may have fewer or more fields than the header)
//   - Lazy quotes
//   - A leading UTF-8 byte order mark is dropped
//
// Header location is not decided here; the whole file is returned so that
// header detection can skip title rows.
//
// =============================================================================

package csvparser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/party-ledger/internal/config"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadTable reads the CSV file at filePath.
//
// PARAMETERS:
//   - filePath: The path to the CSV file.
//   - settings: Delimiter settings from the main configuration.
//
// RETURNS:
//   - Every record of the file as a raw table of strings.
//   - An error if the file cannot be opened or is not valid CSV.
func ReadTable(filePath string, settings config.CSVSettings) (types.RawTable, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	table, err := Read(file, settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return table, nil
}

// Read parses CSV records from r.
func Read(r io.Reader, settings config.CSVSettings) (types.RawTable, error) {
	reader := bufio.NewReader(r)
	if head, err := reader.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = reader.Discard(len(utf8BOM))
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	table := make(types.RawTable, len(records))
	for i, rec := range records {
		row := make([]any, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		table[i] = row
	}
	return table, nil
}

// configureReader applies the delimiter and leniency settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	switch settings.Delimiter {
	case "\\t", "\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}
