// =============================================================================
// Party Ledger Builder - Source Connectors
// =============================================================================
//
// A Connector opens a named tabular resource and returns its raw rows. The
// pipeline never cares where the rows came from:
//   - FileConnector  XLSX workbooks and CSV exports on disk
//   - Memory         fixed tables for tests and fixtures
//
// Every failure to locate a source or tab wraps apperrors.ErrNotFound so the
// caller can report it per source.
//
// =============================================================================

package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/config"
	"github.com/ginjaninja78/party-ledger/internal/csvparser"
	"github.com/ginjaninja78/party-ledger/internal/types"
	"github.com/ginjaninja78/party-ledger/internal/xlsxparser"
)

// Connector opens one tab of a source.
type Connector interface {
	Open(sourceID, tab string) (types.RawTable, error)
}

// extensions are tried, in order, when a source id has none.
var extensions = []string{".xlsx", ".xlsm", ".csv"}

// FileConnector reads sources from disk. Relative ids resolve against Dir.
type FileConnector struct {
	Dir string
	CSV config.CSVSettings
}

// NewFileConnector creates a FileConnector rooted at dir.
func NewFileConnector(dir string, csv config.CSVSettings) *FileConnector {
	return &FileConnector{Dir: dir, CSV: csv}
}

// Open reads the tab of the workbook or CSV file named by sourceID. CSV files
// have a single table and ignore tab.
func (c *FileConnector) Open(sourceID, tab string) (types.RawTable, error) {
	path, err := c.Resolve(sourceID)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return csvparser.ReadTable(path, c.CSV)
	default:
		return xlsxparser.ReadTable(path, tab)
	}
}

// Check resolves sourceID and, for workbooks, confirms the tab exists
// without reading its rows. It returns the resolved path.
func (c *FileConnector) Check(sourceID, tab string) (string, error) {
	path, err := c.Resolve(sourceID)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return path, nil
	}

	names, err := xlsxparser.SheetNames(path)
	if err != nil {
		return "", err
	}
	tab = strings.TrimSpace(tab)
	for _, name := range names {
		if tab == "" || strings.EqualFold(strings.TrimSpace(name), tab) {
			return path, nil
		}
	}
	return "", fmt.Errorf("%s has no tab %q: %w", filepath.Base(path), tab, apperrors.ErrNotFound)
}

// Resolve maps a source id to an existing file.
func (c *FileConnector) Resolve(sourceID string) (string, error) {
	sourceID = strings.TrimSpace(sourceID)
	if sourceID == "" {
		return "", fmt.Errorf("empty source id: %w", apperrors.ErrNotFound)
	}

	base := sourceID
	if !filepath.IsAbs(base) {
		base = filepath.Join(c.Dir, sourceID)
	}

	candidates := []string{base}
	if filepath.Ext(base) == "" {
		for _, ext := range extensions {
			candidates = append(candidates, base+ext)
		}
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("source %q: %w", sourceID, apperrors.ErrNotFound)
}

// Memory serves fixed tables keyed by source id and tab.
type Memory struct {
	tables map[string]types.RawTable
}

// NewMemory returns an empty Memory connector.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]types.RawTable)}
}

// Put registers a table.
func (m *Memory) Put(sourceID, tab string, table types.RawTable) *Memory {
	m.tables[memKey(sourceID, tab)] = table
	return m
}

func (m *Memory) Open(sourceID, tab string) (types.RawTable, error) {
	t, ok := m.tables[memKey(sourceID, tab)]
	if !ok {
		return nil, fmt.Errorf("source %q tab %q: %w", sourceID, tab, apperrors.ErrNotFound)
	}
	return t, nil
}

func memKey(sourceID, tab string) string {
	return strings.TrimSpace(sourceID) + "\x00" + strings.ToLower(strings.TrimSpace(tab))
}
