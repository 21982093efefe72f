// Package fx converts foreign-currency amounts into the base currency using a
// cached table of historical daily rates.
package fx

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/clean"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

// DefaultDateColumn is the date column of the rate cache.
const DefaultDateColumn = "Date"

// Rate is the number of foreign units per one base unit on a date.
type Rate struct {
	Date time.Time
	Rate decimal.Decimal
}

// RateTable is one currency's rates, ascending by date.
type RateTable struct {
	Currency string
	rates    []Rate
}

// NewRateTable sorts rates by date. For duplicate dates the last one wins.
func NewRateTable(currency string, rates []Rate) *RateTable {
	sorted := append([]Rate(nil), rates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	dedup := sorted[:0]
	for _, r := range sorted {
		if n := len(dedup); n > 0 && dedup[n-1].Date.Equal(r.Date) {
			dedup[n-1] = r
			continue
		}
		dedup = append(dedup, r)
	}
	return &RateTable{Currency: currency, rates: dedup}
}

// Len returns the number of distinct rate dates.
func (t *RateTable) Len() int { return len(t.rates) }

// AsOf returns the most recent rate dated on or before d. ok is false when d
// predates every rate.
func (t *RateTable) AsOf(d time.Time) (decimal.Decimal, bool) {
	i := sort.Search(len(t.rates), func(i int) bool { return t.rates[i].Date.After(d) })
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return t.rates[i-1].Rate, true
}

// ReadRates reads a delimited rate table with a header row. Rows whose date
// or rate does not parse are skipped.
func ReadRates(r io.Reader, currency, dateCol string) (*RateTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rate table: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("rate table is empty")
	}

	colDate, colRate := -1, -1
	for i, h := range records[0] {
		switch {
		case strings.EqualFold(strings.TrimSpace(h), dateCol):
			colDate = i
		case strings.EqualFold(strings.TrimSpace(h), currency):
			colRate = i
		}
	}
	if colDate < 0 {
		return nil, fmt.Errorf("rate table has no %q column", dateCol)
	}
	if colRate < 0 {
		return nil, fmt.Errorf("rate table has no %q column", currency)
	}

	var rates []Rate
	for _, rec := range records[1:] {
		if colDate >= len(rec) || colRate >= len(rec) {
			continue
		}
		d, ok := clean.Date(rec[colDate])
		if !ok {
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(rec[colRate]))
		if err != nil {
			continue
		}
		rates = append(rates, Rate{Date: d, Rate: rate})
	}
	return NewRateTable(strings.ToUpper(currency), rates), nil
}

// RateSource yields the rate table for a currency.
type RateSource interface {
	Table(currency string) (*RateTable, error)
}

// RateFile is the on-disk rate cache: one date column plus one column per
// currency code.
type RateFile struct {
	Path       string
	DateColumn string
}

// Table reads the column for currency. A missing file is reported as a
// *model.MissingRateTableError.
func (f RateFile) Table(currency string) (*RateTable, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &model.MissingRateTableError{Path: f.Path, Err: err}
		}
		return nil, fmt.Errorf("opening rate table: %w", err)
	}
	defer fh.Close()

	dateCol := f.DateColumn
	if dateCol == "" {
		dateCol = DefaultDateColumn
	}
	t, err := ReadRates(fh, currency, dateCol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	return t, nil
}

// StaticRates serves in-memory tables keyed by currency code.
type StaticRates map[string]*RateTable

// Table returns the table for currency or an error when none is held.
func (s StaticRates) Table(currency string) (*RateTable, error) {
	t, ok := s[strings.ToUpper(currency)]
	if !ok {
		return nil, fmt.Errorf("no rates for %s", currency)
	}
	return t, nil
}
