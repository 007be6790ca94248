// Package runlog keeps an append-only history of refreshes inside the ledger
// workbook itself.
package runlog

import (
	"slices"
	"time"

	"github.com/ginjaninja78/party-ledger/internal/apperrors"
	"github.com/ginjaninja78/party-ledger/internal/sheet"
	"github.com/ginjaninja78/party-ledger/internal/types"
)

// SheetName is the tab the history is written to.
const SheetName = "Run Log"

// TimestampFormat is how run times are written.
const TimestampFormat = "2006-01-02 15:04:05"

// Headers are written once, when the sheet is created.
var Headers = []any{"TIMESTAMP", "RUN ID", "ORG", "STATUS", "PURCHASE", "SALES", "BANK", "LEDGERS", "DURATION", "MESSAGE"}

// Entry is one refresh outcome.
type Entry struct {
	At       time.Time
	RunID    string
	Org      string
	Status   string
	Sources  map[types.DocType]string
	Ledgers  int
	Duration time.Duration
	Message  string
}

// Row renders the entry in column order.
func (e Entry) Row() []any {
	row := []any{e.At.Format(TimestampFormat), e.RunID, e.Org, e.Status}
	for _, kind := range types.AllDocTypes() {
		status := e.Sources[kind]
		if status == "" {
			status = "-"
		}
		row = append(row, status)
	}
	return append(row, e.Ledgers, e.Duration.Round(time.Millisecond).String(), e.Message)
}

// Log appends entries to a sink.
type Log struct {
	sink sheet.Sink
}

func New(sink sheet.Sink) *Log {
	return &Log{sink: sink}
}

// Append writes one entry, creating the sheet with its header row first when
// it does not exist yet.
func (l *Log) Append(e Entry) error {
	if !slices.Contains(l.sink.Sheets(), SheetName) {
		if err := l.sink.AppendRow(SheetName, Headers); err != nil {
			return apperrors.Wrap("write run log", SheetName, err)
		}
		if err := l.sink.SetStyle(SheetName, sheet.Span(1, 1, len(Headers)), sheet.Style{Bold: true}); err != nil {
			return apperrors.Wrap("write run log", SheetName, err)
		}
	}
	return apperrors.Wrap("write run log", SheetName, l.sink.AppendRow(SheetName, e.Row()))
}
