package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TxType classifies a record by the polarity of its signed amount.
type TxType string

const (
	TypeIncome  TxType = "income"
	TypeExpense TxType = "expense"
)

// TypeOf returns the type implied by a signed amount. Zero counts as income.
func TypeOf(signed decimal.Decimal) TxType {
	if signed.IsNegative() {
		return TypeExpense
	}
	return TypeIncome
}

// ParseTxType folds case and spacing; ok is false for anything else.
func ParseTxType(s string) (TxType, bool) {
	switch TxType(normalizeLabel(s)) {
	case TypeIncome:
		return TypeIncome, true
	case TypeExpense:
		return TypeExpense, true
	}
	return "", false
}

// Record is one row of the persisted ledger.
type Record struct {
	RecordID          string
	Date              time.Time
	Description       string
	Amount            decimal.Decimal // as recorded by the source, after conversion
	Currency          string
	Source            string
	Balance           decimal.NullDecimal // running balance printed by the bank, when exported
	Type              TxType
	AmountSigned      decimal.Decimal // negative = outflow
	CumulativeBalance decimal.Decimal
	Category          string
	RAGText           string
}

// Calendar holds the date-derived fields of a record.
type Calendar struct {
	Year      int
	Month     int
	MonthName string
	Day       int
	ISOWeek   int
	Quarter   int
	Weekday   string
	YearMonth string
}

// CalendarOf derives every calendar field from d.
func CalendarOf(d time.Time) Calendar {
	_, week := d.ISOWeek()
	return Calendar{
		Year:      d.Year(),
		Month:     int(d.Month()),
		MonthName: d.Month().String(),
		Day:       d.Day(),
		ISOWeek:   week,
		Quarter:   (int(d.Month())-1)/3 + 1,
		Weekday:   d.Weekday().String(),
		YearMonth: d.Format("2006-01"),
	}
}

// Calendar returns the record's calendar fields.
func (r Record) Calendar() Calendar { return CalendarOf(r.Date) }
