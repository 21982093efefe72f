package ledger

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/model"
)

// Totals aggregates a group of records. Expense is a positive magnitude.
type Totals struct {
	Count   int
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net is income minus expense.
func (t Totals) Net() decimal.Decimal { return t.Income.Sub(t.Expense) }

func (t *Totals) add(rec model.Record) {
	t.Count++
	if model.TypeOf(rec.AmountSigned) == model.TypeExpense {
		t.Expense = t.Expense.Add(rec.AmountSigned.Abs())
		return
	}
	t.Income = t.Income.Add(rec.AmountSigned)
}

// Group is the totals of one month or one category.
type Group struct {
	Key string
	Totals
}

// Summary holds ledger totals overall, per month and per category.
type Summary struct {
	Overall    Totals
	Months     []Group // ascending by month
	Categories []Group // descending by expense, then by name
}

// Summarize aggregates recs.
func Summarize(recs []model.Record) Summary {
	var s Summary
	months := make(map[string]*Totals)
	cats := make(map[string]*Totals)
	for _, rec := range recs {
		s.Overall.add(rec)
		bucket(months, rec.Calendar().YearMonth).add(rec)
		bucket(cats, rec.Category).add(rec)
	}

	s.Months = groups(months)
	sort.Slice(s.Months, func(i, j int) bool { return s.Months[i].Key < s.Months[j].Key })

	s.Categories = groups(cats)
	sort.Slice(s.Categories, func(i, j int) bool {
		a, b := s.Categories[i], s.Categories[j]
		if c := a.Expense.Cmp(b.Expense); c != 0 {
			return c > 0
		}
		return a.Key < b.Key
	})
	return s
}

func bucket(m map[string]*Totals, key string) *Totals {
	t, ok := m[key]
	if !ok {
		t = &Totals{}
		m[key] = t
	}
	return t
}

func groups(m map[string]*Totals) []Group {
	out := make([]Group, 0, len(m))
	for k, t := range m {
		out = append(out, Group{Key: k, Totals: *t})
	}
	return out
}

// Write prints the summary as aligned text tables.
func (s Summary) Write(w io.Writer, currency string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	section := func(title string, gs []Group) {
		fmt.Fprintf(tw, "%s\tcount\tincome\texpense\tnet\t\n", title)
		for _, g := range gs {
			row(tw, g.Key, g.Totals)
		}
		fmt.Fprintln(tw, "\t\t\t\t\t")
	}
	section("month", s.Months)
	section("category", s.Categories)
	row(tw, "total "+currency, s.Overall)
	return tw.Flush()
}

func row(w io.Writer, key string, t Totals) {
	fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t\n",
		key, t.Count, t.Income.StringFixed(2), t.Expense.StringFixed(2), t.Net().StringFixed(2))
}
