// Package clean converts raw spreadsheet cells into typed ledger values.
// Every function is stateless and treats already-typed input as pass-through.
package clean

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Day-first layouts tried in order. Single-digit day and month fields also accept two digits.
var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2006-01-02",
	"2006/01/02",
	"2/1/06",
	"2-1-06",
}

var (
	serialPattern = regexp.MustCompile(`^\d{5}(\.\d+)?$`)
	tokenPattern  = regexp.MustCompile(`-?\d[\d.,]*\d|-?\d`)
	numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// Currency markers removed from textual amounts.
var currencyMarkers = strings.NewReplacer(
	"EUR", "", "eur", "", "Eur", "",
	"USD", "", "usd", "", "Usd", "",
	"GBP", "", "gbp", "",
	"€", "", "$", "", "£", "",
	"\u00a0", "",
)

// Date parses a day-first date, discarding any time component after a "|",
// a space or an ISO "T". Excel serial day numbers are accepted. ok is false
// when the value cannot be read as a date.
func Date(v any) (time.Time, bool) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return dateOnly(x), true
	case float64:
		return fromSerial(x)
	case int:
		return fromSerial(float64(x))
	case string:
		return parseDate(x)
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	s, _, _ = strings.Cut(s, "|")
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return time.Time{}, false
	}
	s = fields[0]
	if len(s) > 10 && s[10] == 'T' {
		s = s[:10]
	}
	if serialPattern.MatchString(s) {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return fromSerial(f)
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func fromSerial(f float64) (time.Time, bool) {
	if math.IsNaN(f) || f < 1 {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return dateOnly(t), true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Amount parses a money amount. Text is stripped of currency symbols and
// codes, the Unicode minus becomes "-", and decimal commas become dots; the
// leftmost number in what remains is returned. The result is invalid when no
// number is found.
func Amount(v any) decimal.NullDecimal {
	switch x := v.(type) {
	case nil:
		return decimal.NullDecimal{}
	case decimal.NullDecimal:
		return x
	case decimal.Decimal:
		return decimal.NewNullDecimal(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromFloat(x))
	case int:
		return decimal.NewNullDecimal(decimal.NewFromInt(int64(x)))
	case int64:
		return decimal.NewNullDecimal(decimal.NewFromInt(x))
	case string:
		return parseAmount(x)
	}
	return decimal.NullDecimal{}
}

func parseAmount(s string) decimal.NullDecimal {
	s = currencyMarkers.Replace(s)
	s = strings.ReplaceAll(s, "−", "-")

	tok := tokenPattern.FindString(s)
	if tok == "" {
		return decimal.NullDecimal{}
	}
	tok = foldSeparators(tok)
	if d, err := decimal.NewFromString(tok); err == nil {
		return decimal.NewNullDecimal(d)
	}
	d, err := decimal.NewFromString(numberPattern.FindString(tok))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// foldSeparators rewrites a numeric token so "." is the decimal separator.
// When both "," and "." appear the later one is the decimal separator.
func foldSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		return strings.ReplaceAll(s, ",", ".")
	case comma >= 0 && dot >= 0:
		return strings.ReplaceAll(s, ",", "")
	default:
		return strings.ReplaceAll(s, ",", ".")
	}
}

// Description trims a description; null becomes the empty string.
func Description(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	}
	return strings.TrimSpace(fmt.Sprint(v))
}
