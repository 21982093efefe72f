// Package normalize brings a combined ledger to the canonical schema: column
// names, typed cells, signed amounts, calendar fields and a running balance.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/clean"
	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

const stage = "normalize"

// Alias lists the header spellings accepted for a canonical column. Spellings
// are compared after Fold.
type Alias struct {
	Column    string
	Spellings []string
}

// Aliases is the accepted-alias table consulted once per Normalize call.
var Aliases = []Alias{
	{model.ColDate, []string{"date", "transaction date"}},
	{model.ColDescription, []string{"description", "transaction description"}},
	{model.ColAmount, []string{"amount"}},
	{model.ColCurrency, []string{"currency"}},
	{model.ColSource, []string{"source"}},
	{model.ColBalance, []string{"balance"}},
	{model.ColType, []string{"type"}},
}

// Fold lowercases a header, turns underscores into spaces and collapses runs
// of whitespace.
func Fold(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// CanonicalNames returns the renames that bring f's headers to canonical
// names. A canonical column already present under its exact name is left
// alone, and the first matching header wins.
func CanonicalNames(f *frame.Frame, aliases []Alias) map[string]string {
	lookup := make(map[string]string)
	for _, a := range aliases {
		for _, s := range a.Spellings {
			lookup[Fold(s)] = a.Column
		}
	}

	taken := make(map[string]bool)
	for _, c := range f.Columns() {
		taken[c] = true
	}

	renames := make(map[string]string)
	for _, c := range f.Columns() {
		canon, ok := lookup[Fold(c)]
		if !ok || c == canon || taken[canon] {
			continue
		}
		renames[c] = canon
		taken[canon] = true
	}
	return renames
}

// Normalize returns a normalized copy of f. It fails with a *model.SchemaError
// when no date or amount column can be found. Rows whose date or amount is
// unreadable are dropped.
//
// amount_signed copies amount, except that a valid explicit type column forces
// the sign (-|amount| for expense). type is then derived from amount_signed,
// with zero counting as income.
func Normalize(f *frame.Frame) (*frame.Frame, error) {
	out := f.Clone()
	out.Rename(CanonicalNames(out, Aliases))

	for _, col := range []string{model.ColDate, model.ColAmount} {
		if !out.Has(col) {
			return nil, &model.SchemaError{Stage: stage, Column: col, Available: out.Columns()}
		}
	}

	out.Derive(model.ColDate, func(r frame.Row) any {
		d, _ := clean.Date(r.Get(model.ColDate))
		return d
	})
	out.Derive(model.ColAmount, func(r frame.Row) any {
		return clean.Amount(r.Get(model.ColAmount))
	})
	if out.Has(model.ColBalance) {
		out.Derive(model.ColBalance, func(r frame.Row) any {
			return clean.Amount(r.Get(model.ColBalance))
		})
	}
	if out.Has(model.ColDescription) {
		out.Derive(model.ColDescription, func(r frame.Row) any {
			return clean.Description(r.Get(model.ColDescription))
		})
	}

	explicit := out.Has(model.ColType)
	out.Derive(model.ColAmountSigned, func(r frame.Row) any {
		return signed(r, explicit)
	})
	out.Derive(model.ColType, func(r frame.Row) any {
		s, ok := r.Decimal(model.ColAmountSigned)
		if !ok {
			return nil
		}
		return string(model.TypeOf(s))
	})

	out.Filter(func(r frame.Row) bool {
		_, okDate := r.Time(model.ColDate)
		_, okAmount := r.Decimal(model.ColAmountSigned)
		return okDate && okAmount
	})

	addCalendar(out)
	out.SortByDate(model.ColDate)
	addRunningBalance(out)
	return out, nil
}

func signed(r frame.Row, explicit bool) decimal.NullDecimal {
	amount, ok := r.Decimal(model.ColAmount)
	if !ok {
		return decimal.NullDecimal{}
	}
	if explicit {
		switch t, _ := model.ParseTxType(r.String(model.ColType)); t {
		case model.TypeExpense:
			return decimal.NewNullDecimal(amount.Abs().Neg())
		case model.TypeIncome:
			return decimal.NewNullDecimal(amount.Abs())
		}
	}
	return decimal.NewNullDecimal(amount)
}

func addCalendar(f *frame.Frame) {
	cal := func(r frame.Row) model.Calendar {
		d, _ := r.Time(model.ColDate)
		return model.CalendarOf(d)
	}
	f.Derive(model.ColYear, func(r frame.Row) any { return cal(r).Year })
	f.Derive(model.ColMonth, func(r frame.Row) any { return cal(r).Month })
	f.Derive(model.ColMonthName, func(r frame.Row) any { return cal(r).MonthName })
	f.Derive(model.ColDay, func(r frame.Row) any { return cal(r).Day })
	f.Derive(model.ColISOWeek, func(r frame.Row) any { return cal(r).ISOWeek })
	f.Derive(model.ColQuarter, func(r frame.Row) any { return cal(r).Quarter })
	f.Derive(model.ColDayOfWeek, func(r frame.Row) any { return cal(r).Weekday })
	f.Derive(model.ColYearMonth, func(r frame.Row) any { return cal(r).YearMonth })
}

// addRunningBalance must run on a date-sorted frame. Null amounts add zero.
func addRunningBalance(f *frame.Frame) {
	total := decimal.Zero
	balances := make([]decimal.Decimal, f.Len())
	for i := 0; i < f.Len(); i++ {
		if v, ok := f.Row(i).Decimal(model.ColAmountSigned); ok {
			total = total.Add(v)
		}
		balances[i] = total
	}
	f.Derive(model.ColCumulativeBalance, func(r frame.Row) any { return balances[r.Index()] })
}
