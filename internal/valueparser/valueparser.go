// Package valueparser normalizes loosely typed spreadsheet cells into amounts
// and calendar dates. Neither function fails: unreadable input yields zero or
// "no date" so a single bad cell never aborts a batch.
package valueparser

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// currencyTokens are removed before parsing. Longer tokens come first so that
// "RS." is stripped before "RS".
var currencyTokens = []string{"INR", "USD", "EUR", "GBP", "RS.", "RS", "₹", "$", "€", "£", "¥"}

// ParseAmount returns the numeric value of raw, or zero when raw is empty or
// cannot be read. Every grouping separator is removed, so Indian lakh grouping
// ("2,00,000.00") and western grouping ("200,000.00") read the same.
func ParseAmount(raw any) decimal.Decimal {
	d, _ := TryParseAmount(raw)
	return d
}

// TryParseAmount is ParseAmount with a flag that is false when raw held text
// that could not be read as a number. Empty input is not a failure.
func TryParseAmount(raw any) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case nil:
		return decimal.Zero, true
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case int32:
		return decimal.NewFromInt32(v), true
	case string:
		return parseAmountText(v)
	}
	return decimal.Zero, false
}

func parseAmountText(s string) (decimal.Decimal, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" || s == "-" {
		return decimal.Zero, true
	}
	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.Map(func(r rune) rune {
		if r == ',' || r == '\'' || r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return decimal.Zero, true
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

// dateLayouts are tried in order. Day-first layouts win over month-first ones
// because the source books are kept in dd/mm/yyyy.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"2-1-2006",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"02-Jan-06",
	"02 Jan 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006/01/02",
	"20060102",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	time.RFC3339,
}

// Excel serials outside this window are treated as plain numbers.
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// ParseCalendarDate reads raw as a date. Native time values are returned as
// they are, numbers are read as Excel serial dates, and text is tried against
// the known layouts. ok is false when nothing matched.
func ParseCalendarDate(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, !v.IsZero()
	case float64:
		return fromSerial(v)
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case decimal.Decimal:
		return fromSerial(v.InexactFloat64())
	case string:
		return parseDateText(v)
	}
	return time.Time{}, false
}

func parseDateText(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Unformatted cells sometimes surface the serial number as text.
	if f, err := strconv.ParseFloat(s, 64); err == nil && len(s) <= 8 && !strings.Contains(s, "-") {
		return fromSerial(f)
	}
	return time.Time{}, false
}

func fromSerial(f float64) (time.Time, bool) {
	if f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
}
