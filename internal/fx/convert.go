package fx

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

// Converter rewrites foreign amounts into Base. A row is foreign when its
// source is listed in Foreign, or when its own currency cell names another
// currency. A non-base currency cell wins over the source default.
type Converter struct {
	Base    string
	Foreign map[string]string // source tag -> currency the source records in
	Rates   RateSource
}

// Stats counts what a conversion did.
type Stats struct {
	Converted int // foreign rows given a base amount
	Missing   int // foreign rows left without an amount
}

// ConvertToBase returns a copy of f with every amount in the base currency
// and the currency column set to Base. A foreign row whose date precedes the
// rate table, or whose rate is zero, gets a null amount. Rates are only read
// when at least one row is foreign.
func (c *Converter) ConvertToBase(f *frame.Frame) (*frame.Frame, Stats, error) {
	out := f.Clone()
	base := strings.ToUpper(c.Base)

	need := make(map[int]string)
	for i := 0; i < out.Len(); i++ {
		if cur := c.foreignCurrency(out.Row(i), base); cur != "" {
			need[i] = cur
		}
	}

	var stats Stats
	tables := make(map[string]*RateTable)
	for i := 0; i < out.Len(); i++ {
		cur, ok := need[i]
		if !ok {
			continue
		}
		t, ok := tables[cur]
		if !ok {
			var err error
			t, err = c.Rates.Table(cur)
			if err != nil {
				return nil, Stats{}, err
			}
			tables[cur] = t
		}

		converted := convert(out.Row(i), t)
		out.Set(i, model.ColAmount, converted)
		if converted.Valid {
			stats.Converted++
		} else {
			stats.Missing++
		}
	}

	out.Derive(model.ColCurrency, func(frame.Row) any { return base })
	return out, stats, nil
}

func (c *Converter) foreignCurrency(r frame.Row, base string) string {
	if cur := strings.ToUpper(strings.TrimSpace(r.String(model.ColCurrency))); cur != "" && cur != base {
		return cur
	}
	if cur, ok := c.Foreign[strings.ToUpper(r.String(model.ColSource))]; ok && !strings.EqualFold(cur, base) {
		return strings.ToUpper(cur)
	}
	return ""
}

func convert(r frame.Row, t *RateTable) decimal.NullDecimal {
	amount, ok := r.Decimal(model.ColAmount)
	if !ok {
		return decimal.NullDecimal{}
	}
	d, ok := r.Time(model.ColDate)
	if !ok {
		return decimal.NullDecimal{}
	}
	rate, ok := t.AsOf(d)
	if !ok || rate.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(amount.Div(rate))
}
