// Package enrich adds the natural-language summary each ledger record carries
// for retrieval indexing.
package enrich

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/clean"
	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

// Required lists the columns Enrich reads.
var Required = []string{model.ColDate, model.ColDescription, model.ColAmountSigned, model.ColCategory}

// Fields is the input of Sentence.
type Fields struct {
	Date        string
	Signed      decimal.Decimal
	Currency    string
	Description string
	Category    string
}

// Sentence renders one record, e.g.
//
//	On 2024-01-05, an expense of 12.30 EUR at 'UBER TRIP' in category 'Transporte / Viajes'.
func Sentence(f Fields) string {
	return fmt.Sprintf("On %s, an %s of %s %s at '%s' in category '%s'.",
		f.Date, model.TypeOf(f.Signed), f.Signed.Abs().StringFixed(2), f.Currency, f.Description, f.Category)
}

// Enrich returns a copy of f with RAG_Text regenerated for every row. Missing
// descriptions become model.NoDescription, missing categories become fallback
// and an unreadable signed amount counts as zero. currency is the base
// currency named in the text.
func Enrich(f *frame.Frame, currency, fallback string) (*frame.Frame, error) {
	for _, col := range Required {
		if !f.Has(col) {
			return nil, &model.MissingColumnError{Stage: "enrich", Column: col}
		}
	}

	out := f.Clone()
	out.Derive(model.ColDate, func(r frame.Row) any {
		d, _ := clean.Date(r.Get(model.ColDate))
		return d
	})
	out.Derive(model.ColDescription, func(r frame.Row) any {
		if r.Get(model.ColDescription) == nil {
			return model.NoDescription
		}
		return clean.Description(r.Get(model.ColDescription))
	})
	out.Derive(model.ColCategory, func(r frame.Row) any {
		if c := clean.Description(r.Get(model.ColCategory)); c != "" {
			return c
		}
		return fallback
	})
	out.Derive(model.ColAmountSigned, func(r frame.Row) any {
		a := clean.Amount(r.Get(model.ColAmountSigned))
		if !a.Valid {
			return decimal.NewNullDecimal(decimal.Zero)
		}
		return a
	})

	out.Derive(model.ColRAGText, func(r frame.Row) any {
		signed, _ := r.Decimal(model.ColAmountSigned)
		return Sentence(Fields{
			Date:        r.String(model.ColDate),
			Signed:      signed,
			Currency:    currency,
			Description: r.String(model.ColDescription),
			Category:    r.String(model.ColCategory),
		})
	})
	return out, nil
}
