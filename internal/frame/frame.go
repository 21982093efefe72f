// Package frame holds the in-memory ledger table passed between pipeline
// stages: an ordered set of named columns over rows of loosely typed cells.
//
// Cells carry time.Time for dates (zero means null), decimal.NullDecimal for
// amounts, string for text and int for calendar fields. A nil cell is null.
package frame

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Frame is a table of rows with named columns.
type Frame struct {
	cols  []string
	index map[string]int
	rows  [][]any
}

// New creates an empty frame with the given columns.
func New(cols ...string) *Frame {
	f := &Frame{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		f.addColumn(c)
	}
	return f
}

func (f *Frame) addColumn(col string) int {
	if i, ok := f.index[col]; ok {
		return i
	}
	f.cols = append(f.cols, col)
	f.index[col] = len(f.cols) - 1
	for i := range f.rows {
		f.rows[i] = append(f.rows[i], nil)
	}
	return len(f.cols) - 1
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.cols))
	copy(out, f.cols)
	return out
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Has reports whether col exists.
func (f *Frame) Has(col string) bool {
	_, ok := f.index[col]
	return ok
}

// Append adds a row. Values are matched to columns by position; missing
// trailing values are null. Panics when given more values than columns.
func (f *Frame) Append(vals ...any) {
	if len(vals) > len(f.cols) {
		panic(fmt.Sprintf("frame: %d values for %d columns", len(vals), len(f.cols)))
	}
	row := make([]any, len(f.cols))
	copy(row, vals)
	f.rows = append(f.rows, row)
}

// AppendMap adds a row from a column->value map, creating unknown columns.
func (f *Frame) AppendMap(vals map[string]any) {
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		f.addColumn(k)
	}
	row := make([]any, len(f.cols))
	for k, v := range vals {
		row[f.index[k]] = v
	}
	f.rows = append(f.rows, row)
}

// Value returns the cell at row i, column col, or nil when col is absent.
func (f *Frame) Value(i int, col string) any {
	j, ok := f.index[col]
	if !ok {
		return nil
	}
	return f.rows[i][j]
}

// Set writes a cell, creating the column when needed.
func (f *Frame) Set(i int, col string, v any) {
	j := f.addColumn(col)
	f.rows[i][j] = v
}

// Row returns a read-only view of row i.
func (f *Frame) Row(i int) Row { return Row{f: f, i: i} }

// Clone returns a copy that shares no row or column storage with f.
func (f *Frame) Clone() *Frame {
	out := New(f.cols...)
	out.rows = make([][]any, len(f.rows))
	for i, r := range f.rows {
		out.rows[i] = append([]any(nil), r...)
	}
	return out
}

// Rename renames columns per the mapping. Renaming onto an existing column
// replaces it.
func (f *Frame) Rename(mapping map[string]string) {
	for from, to := range mapping {
		if from == to {
			continue
		}
		j, ok := f.index[from]
		if !ok {
			continue
		}
		if _, clash := f.index[to]; clash {
			f.Drop(to)
			j = f.index[from]
		}
		delete(f.index, from)
		f.cols[j] = to
		f.index[to] = j
	}
}

// Drop removes columns; unknown names are ignored.
func (f *Frame) Drop(cols ...string) {
	for _, c := range cols {
		j, ok := f.index[c]
		if !ok {
			continue
		}
		f.cols = append(f.cols[:j], f.cols[j+1:]...)
		for i := range f.rows {
			f.rows[i] = append(f.rows[i][:j], f.rows[i][j+1:]...)
		}
		f.reindex()
	}
}

// Select returns a new frame holding only cols, in that order.
func (f *Frame) Select(cols ...string) (*Frame, error) {
	idx := make([]int, len(cols))
	for k, c := range cols {
		j, ok := f.index[c]
		if !ok {
			return nil, fmt.Errorf("frame: no column %q", c)
		}
		idx[k] = j
	}
	out := New(cols...)
	out.rows = make([][]any, len(f.rows))
	for i, r := range f.rows {
		row := make([]any, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		out.rows[i] = row
	}
	return out, nil
}

func (f *Frame) reindex() {
	f.index = make(map[string]int, len(f.cols))
	for j, c := range f.cols {
		f.index[c] = j
	}
}

// Derive sets col on every row to fn(row). Each call sees the row as it was
// before col was written for that row.
func (f *Frame) Derive(col string, fn func(Row) any) {
	vals := make([]any, len(f.rows))
	for i := range f.rows {
		vals[i] = fn(f.Row(i))
	}
	j := f.addColumn(col)
	for i, v := range vals {
		f.rows[i][j] = v
	}
}

// Filter keeps rows for which keep returns true and reports how many were
// removed.
func (f *Frame) Filter(keep func(Row) bool) int {
	kept := f.rows[:0:0]
	for i := range f.rows {
		if keep(f.Row(i)) {
			kept = append(kept, f.rows[i])
		}
	}
	dropped := len(f.rows) - len(kept)
	f.rows = kept
	return dropped
}

// SortStable orders rows by less, keeping the existing order of equal rows.
func (f *Frame) SortStable(less func(a, b Row) bool) {
	order := make([]int, len(f.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return less(f.Row(order[x]), f.Row(order[y]))
	})
	sorted := make([][]any, len(f.rows))
	for k, i := range order {
		sorted[k] = f.rows[i]
	}
	f.rows = sorted
}

// SortByDate sorts ascending on a date column. Null dates go last.
func (f *Frame) SortByDate(col string) {
	f.SortStable(func(a, b Row) bool {
		da, oka := a.Time(col)
		db, okb := b.Time(col)
		switch {
		case !oka:
			return false
		case !okb:
			return true
		}
		return da.Before(db)
	})
}

// Concat stacks frames vertically. The result has the union of all columns in
// first-seen order; cells of columns a frame lacks are null.
func Concat(frames ...*Frame) *Frame {
	out := New()
	for _, f := range frames {
		for _, c := range f.cols {
			out.addColumn(c)
		}
	}
	for _, f := range frames {
		for _, r := range f.rows {
			row := make([]any, len(out.cols))
			for j, c := range f.cols {
				row[out.index[c]] = r[j]
			}
			out.rows = append(out.rows, row)
		}
	}
	return out
}

// Row is a view of a single frame row.
type Row struct {
	f *Frame
	i int
}

// Index returns the row's position in its frame.
func (r Row) Index() int { return r.i }

// Get returns the raw cell for col.
func (r Row) Get(col string) any { return r.f.Value(r.i, col) }

// String returns the cell as text. Dates use ISO form and null cells are empty.
func (r Row) String(col string) string {
	switch v := r.Get(col).(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.IsZero() {
			return ""
		}
		return v.Format("2006-01-02")
	case decimal.NullDecimal:
		if !v.Valid {
			return ""
		}
		return v.Decimal.String()
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

// Time returns a date cell; ok is false for null or non-date cells.
func (r Row) Time(col string) (time.Time, bool) {
	t, ok := r.Get(col).(time.Time)
	if !ok || t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

// Decimal returns an amount cell; ok is false for null or non-amount cells.
func (r Row) Decimal(col string) (decimal.Decimal, bool) {
	switch v := r.Get(col).(type) {
	case decimal.NullDecimal:
		return v.Decimal, v.Valid
	case decimal.Decimal:
		return v, true
	}
	return decimal.Decimal{}, false
}
