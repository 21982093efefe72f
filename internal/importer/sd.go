package importer

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/ledgerprep/internal/clean"
	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
	"github.com/cleared-dev/ledgerprep/internal/workbook"
)

const (
	FormatSD          = "sd"
	DefaultSDSource   = "SD"
	defaultSDHeader   = 6
	defaultSDCurrency = "EUR"
)

var (
	sdDateTokens      = []string{"fecha", "date"}
	sdCompanionTokens = []string{"concepto", "descrip", "importe", "amount"}
)

// SDLoader reads Institution B (Santander) exports: six title rows, then
// Fecha operación | Fecha valor | Concepto | Importe | Saldo | Divisa.
// Importe is already signed and may carry "EUR" and a Unicode minus. The
// value date and running balance are not carried over.
type SDLoader struct {
	SourceTag string
	// Currency is used when the Divisa column is absent or blank.
	Currency  string
	HeaderRow int
}

// NewSDLoader returns a loader with the Santander defaults.
func NewSDLoader() *SDLoader {
	return &SDLoader{
		SourceTag: DefaultSDSource,
		Currency:  defaultSDCurrency,
		HeaderRow: defaultSDHeader,
	}
}

// Format returns the loader format.
func (l *SDLoader) Format() string { return FormatSD }

// Source returns the institution tag stamped on every row.
func (l *SDLoader) Source() string { return l.SourceTag }

// Load reads path and returns the canonical frame and the number of data
// rows read before dropping.
func (l *SDLoader) Load(path string) (*frame.Frame, int, error) {
	sheet, err := workbook.Read(path)
	if err != nil {
		return nil, 0, err
	}
	return l.Parse(sheet)
}

// Parse converts an already-read sheet. When HeaderRow is not a header row,
// the first header row found is used instead.
func (l *SDLoader) Parse(s *workbook.Sheet) (*frame.Frame, int, error) {
	header := locateHeader(s, l.HeaderRow, sdDateTokens, sdCompanionTokens)
	if header < 0 {
		return nil, 0, fmt.Errorf("%s export has %d rows, header expected at row %d", l.SourceTag, len(s.Rows), l.HeaderRow+1)
	}
	c := headerColumns(s, header)

	date := c.find([]string{"fecha operacion", "fecha de operacion"})
	if date < 0 {
		date = c.find([]string{"fecha", "date"}, "valor")
	}
	desc := c.find([]string{"concepto", "descrip"})
	amount := c.find([]string{"importe", "amount"})
	currency := c.find([]string{"divisa", "moneda", "currency"})

	for _, req := range []struct {
		idx int
		col string
	}{{date, model.ColDate}, {desc, model.ColDescription}, {amount, model.ColAmount}} {
		if req.idx < 0 {
			return nil, 0, &model.SchemaError{Stage: "sd loader", Column: req.col, Available: c.names}
		}
	}

	f := frame.New(model.LoaderColumns...)
	read := 0
	for i := header + 1; i < len(s.Rows); i++ {
		if blankRow(s.Rows[i]) {
			continue
		}
		read++
		d, ok := clean.Date(s.Cell(i, date))
		if !ok {
			continue
		}
		cur := l.Currency
		if v := strings.ToUpper(s.Cell(i, currency)); v != "" {
			cur = v
		}
		f.Append(d, clean.Description(s.Cell(i, desc)), clean.Amount(s.Cell(i, amount)), cur, l.SourceTag)
	}
	return finish(f), read, nil
}
