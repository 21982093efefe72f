// Package ledger persists and checks the canonical output ledger.
package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

// Header is the CSV header of the persisted ledger.
const Header = "record_id,date,description,amount,currency,source,balance,type,amount_signed," +
	"year,month,month_name,day,iso_week,quarter,day_of_week,year_month," +
	"cumulative_balance,auto_category,RAG_Text"

const (
	numFields     = 20
	dateFormat    = "2006-01-02"
	colRecordID   = 0
	colDate       = 1
	colDesc       = 2
	colAmount     = 3
	colCurrency   = 4
	colSource     = 5
	colBalance    = 6
	colType       = 7
	colSigned     = 8
	colYear       = 9
	colMonth      = 10
	colMonthName  = 11
	colDay        = 12
	colISOWeek    = 13
	colQuarter    = 14
	colDayOfWeek  = 15
	colYearMonth  = 16
	colCumulative = 17
	colCategory   = 18
	colRAGText    = 19
)

// Columns returns the header split into column names.
func Columns() []string { return strings.Split(Header, ",") }

// ReadRecords reads every record from a ledger CSV.
func ReadRecords(r io.Reader) ([]model.Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading ledger CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != Header {
		return nil, fmt.Errorf("unexpected ledger header %q", got)
	}

	var recs []model.Record
	for i, row := range records[1:] {
		rec, err := UnmarshalRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// WriteRecords writes recs, header first.
func WriteRecords(w io.Writer, recs []model.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, rec := range recs {
		if err := cw.Write(MarshalRecord(rec)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalRecord converts a Record to a CSV row. Calendar fields are derived
// from the date.
func MarshalRecord(rec model.Record) []string {
	cal := rec.Calendar()
	row := make([]string, numFields)
	row[colRecordID] = rec.RecordID
	row[colDate] = rec.Date.Format(dateFormat)
	row[colDesc] = rec.Description
	row[colAmount] = rec.Amount.String()
	row[colCurrency] = rec.Currency
	row[colSource] = rec.Source
	if rec.Balance.Valid {
		row[colBalance] = rec.Balance.Decimal.String()
	}
	row[colType] = string(rec.Type)
	row[colSigned] = rec.AmountSigned.String()
	row[colYear] = strconv.Itoa(cal.Year)
	row[colMonth] = strconv.Itoa(cal.Month)
	row[colMonthName] = cal.MonthName
	row[colDay] = strconv.Itoa(cal.Day)
	row[colISOWeek] = strconv.Itoa(cal.ISOWeek)
	row[colQuarter] = strconv.Itoa(cal.Quarter)
	row[colDayOfWeek] = cal.Weekday
	row[colYearMonth] = cal.YearMonth
	row[colCumulative] = rec.CumulativeBalance.String()
	row[colCategory] = rec.Category
	row[colRAGText] = rec.RAGText
	return row
}

// UnmarshalRecord converts a CSV row to a Record. Calendar cells must agree
// with the date.
func UnmarshalRecord(row []string) (model.Record, error) {
	if len(row) != numFields {
		return model.Record{}, fmt.Errorf("expected %d fields, got %d", numFields, len(row))
	}

	date, err := time.Parse(dateFormat, row[colDate])
	if err != nil {
		return model.Record{}, fmt.Errorf("parsing date %q: %w", row[colDate], err)
	}
	amount, err := parseDecimal("amount", row[colAmount])
	if err != nil {
		return model.Record{}, err
	}
	signed, err := parseDecimal("amount_signed", row[colSigned])
	if err != nil {
		return model.Record{}, err
	}
	cumulative, err := parseDecimal("cumulative_balance", row[colCumulative])
	if err != nil {
		return model.Record{}, err
	}

	var balance decimal.NullDecimal
	if row[colBalance] != "" {
		b, err := parseDecimal("balance", row[colBalance])
		if err != nil {
			return model.Record{}, err
		}
		balance = decimal.NewNullDecimal(b)
	}

	if want := MarshalRecord(model.Record{Date: date}); !calendarMatches(row, want) {
		return model.Record{}, fmt.Errorf("calendar fields do not match date %s", row[colDate])
	}

	return model.Record{
		RecordID:          row[colRecordID],
		Date:              date,
		Description:       row[colDesc],
		Amount:            amount,
		Currency:          row[colCurrency],
		Source:            row[colSource],
		Balance:           balance,
		Type:              model.TxType(row[colType]),
		AmountSigned:      signed,
		CumulativeBalance: cumulative,
		Category:          row[colCategory],
		RAGText:           row[colRAGText],
	}, nil
}

func parseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing %s %q: %w", field, s, err)
	}
	return d, nil
}

func calendarMatches(got, want []string) bool {
	for c := colYear; c <= colYearMonth; c++ {
		if got[c] != want[c] {
			return false
		}
	}
	return true
}

// ReadFrame reads any headed CSV into a frame of text cells. Empty cells are
// null.
func ReadFrame(r io.Reader) (*frame.Frame, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return frame.New(), nil
	}

	f := frame.New(records[0]...)
	width := len(f.Columns())
	for _, rec := range records[1:] {
		vals := make([]any, width)
		for j := 0; j < width && j < len(rec); j++ {
			if rec[j] != "" {
				vals[j] = rec[j]
			}
		}
		f.Append(vals...)
	}
	return f, nil
}
