package importer

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/clean"
	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
	"github.com/cleared-dev/ledgerprep/internal/workbook"
)

const (
	FormatBG          = "bg"
	DefaultBGSource   = "BG"
	defaultBGHeader   = 7
	defaultBGCurrency = "USD"
)

var (
	bgDateTokens    = []string{"fecha", "date"}
	bgDescTokens    = []string{"descrip", "concepto", "detalle"}
	bgDebitTokens   = []string{"debito", "debit", "retiro"}
	bgCreditTokens  = []string{"credito", "credit", "deposito"}
	bgAmountTokens  = []string{"monto", "importe", "amount", "valor"}
	bgBalanceTokens = []string{"saldo", "balance"}
)

// BGLoader reads Institution A (Banco General) exports: a title block above
// the table, then Fecha | Descripción | Débito | Crédito | Saldo total, with
// reference columns in between.
//
// Sign convention: a debit cell becomes -|v| and a credit cell +|v|. Layouts
// with a single unsigned amount column are signed with Signs, unless the
// cell already carries a minus.
type BGLoader struct {
	SourceTag string
	Currency  string
	// HeaderRow is the 0-based header row. When that row does not look like
	// a header, or HeaderRow < 0, the header is searched for.
	HeaderRow int
	Signs     SignRules
}

// NewBGLoader returns a loader with the Banco General defaults.
func NewBGLoader() *BGLoader {
	return &BGLoader{
		SourceTag: DefaultBGSource,
		Currency:  defaultBGCurrency,
		HeaderRow: defaultBGHeader,
		Signs:     DefaultSignRules(),
	}
}

// Format returns the loader format.
func (l *BGLoader) Format() string { return FormatBG }

// Source returns the institution tag stamped on every row.
func (l *BGLoader) Source() string { return l.SourceTag }

// Load reads path and returns the canonical frame plus a balance column,
// and the number of data rows read before dropping.
func (l *BGLoader) Load(path string) (*frame.Frame, int, error) {
	sheet, err := workbook.Read(path)
	if err != nil {
		return nil, 0, err
	}
	return l.Parse(sheet)
}

type bgLayout struct {
	header  int
	date    int
	desc    int
	debit   int
	credit  int
	amount  int
	balance int
}

func (l *BGLoader) locate(s *workbook.Sheet) (bgLayout, error) {
	companions := append(append([]string{}, bgDescTokens...), bgBalanceTokens...)
	header := locateHeader(s, l.HeaderRow, bgDateTokens, companions)
	if header < 0 {
		return bgLayout{}, fmt.Errorf("could not find header row in %s export", l.SourceTag)
	}

	c := headerColumns(s, header)
	lay := bgLayout{
		header:  header,
		date:    c.find(bgDateTokens),
		desc:    c.find(bgDescTokens),
		debit:   c.find(bgDebitTokens),
		credit:  c.find(bgCreditTokens),
		amount:  c.find(bgAmountTokens),
		balance: c.find(bgBalanceTokens),
	}
	if lay.desc < 0 {
		return bgLayout{}, &model.SchemaError{Stage: "bg loader", Column: model.ColDescription, Available: c.names}
	}
	if lay.debit < 0 && lay.credit < 0 && lay.amount < 0 {
		return bgLayout{}, &model.SchemaError{Stage: "bg loader", Column: model.ColAmount, Available: c.names}
	}
	return lay, nil
}

// Parse converts an already-read sheet.
func (l *BGLoader) Parse(s *workbook.Sheet) (*frame.Frame, int, error) {
	lay, err := l.locate(s)
	if err != nil {
		return nil, 0, err
	}

	cols := append(append([]string{}, model.LoaderColumns...), model.ColBalance)
	f := frame.New(cols...)
	read := 0
	for i := lay.header + 1; i < len(s.Rows); i++ {
		if blankRow(s.Rows[i]) {
			continue
		}
		read++
		date, ok := clean.Date(s.Cell(i, lay.date))
		if !ok {
			continue
		}
		desc := clean.Description(s.Cell(i, lay.desc))
		var balance any
		if lay.balance >= 0 {
			balance = clean.Amount(s.Cell(i, lay.balance))
		}
		f.Append(date, desc, l.amount(s, i, lay, desc), l.Currency, l.SourceTag, balance)
	}
	return finish(f), read, nil
}

func (l *BGLoader) amount(s *workbook.Sheet, row int, lay bgLayout, desc string) decimal.NullDecimal {
	if lay.debit >= 0 || lay.credit >= 0 {
		debit := clean.Amount(s.Cell(row, lay.debit))
		credit := clean.Amount(s.Cell(row, lay.credit))
		switch {
		case debit.Valid && !debit.Decimal.IsZero():
			return decimal.NewNullDecimal(debit.Decimal.Abs().Neg())
		case credit.Valid:
			return decimal.NewNullDecimal(credit.Decimal.Abs())
		case debit.Valid:
			return debit
		}
		if lay.amount < 0 {
			return decimal.NullDecimal{}
		}
	}

	raw := s.Cell(row, lay.amount)
	a := clean.Amount(raw)
	if !a.Valid {
		return a
	}
	if a.Decimal.IsNegative() || strings.ContainsAny(raw, "-−") {
		return a
	}
	return decimal.NewNullDecimal(l.Signs.Apply(desc, a.Decimal))
}
