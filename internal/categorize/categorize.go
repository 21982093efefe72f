package categorize

import (
	"github.com/cleared-dev/ledgerprep/internal/clean"
	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
	"github.com/cleared-dev/ledgerprep/internal/normalize"
)

// DescriptionAliases are the header spellings, after normalize.Fold, accepted
// as the description column.
var DescriptionAliases = []string{"description", "transaction description"}

// DescriptionColumn returns the exact description column, or the first column
// whose folded name is an alias.
func DescriptionColumn(f *frame.Frame) (string, bool) {
	if f.Has(model.ColDescription) {
		return model.ColDescription, true
	}
	for _, c := range f.Columns() {
		folded := normalize.Fold(c)
		for _, a := range DescriptionAliases {
			if folded == a {
				return c, true
			}
		}
	}
	return "", false
}

// Categorize returns a copy of f with auto_category set on every row. It
// fails with a *model.MissingColumnError when no description column exists.
func Categorize(f *frame.Frame, rs *Ruleset) (*frame.Frame, error) {
	col, ok := DescriptionColumn(f)
	if !ok {
		return nil, &model.MissingColumnError{Stage: "categorize", Column: model.ColDescription}
	}
	out := f.Clone()
	out.Derive(model.ColCategory, func(r frame.Row) any {
		return rs.Assign(clean.Description(r.Get(col)))
	})
	return out, nil
}
