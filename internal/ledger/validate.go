package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/id"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

// Ledger invariants checked by Validate.
const (
	InvDated    = 1 // every record has a date
	InvSign     = 2 // type agrees with the sign of amount_signed
	InvCategory = 3 // auto_category is in the vocabulary
	InvCurrency = 4 // currency is the base currency
	InvOrder    = 5 // ascending by date
	InvBalance  = 6 // cumulative_balance is the running sum of amount_signed
	InvRecordID = 7 // record ids are well formed and unique
	InvRAGText  = 8 // RAG_Text is present
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	RecordID    string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, e.RecordID, e.Description)
}

// Options configures Validate. An empty Vocabulary skips the category check.
type Options struct {
	BaseCurrency string
	Vocabulary   []string
}

// Validate checks recs in ledger order and returns every violation found.
func Validate(recs []model.Record, opts Options) []ValidationError {
	var errs []ValidationError
	add := func(inv int, rec model.Record, format string, args ...any) {
		errs = append(errs, ValidationError{Invariant: inv, RecordID: label(rec), Description: fmt.Sprintf(format, args...)})
	}

	vocab := make(map[string]bool, len(opts.Vocabulary))
	for _, c := range opts.Vocabulary {
		vocab[c] = true
	}
	ids := make(map[string]bool, len(recs))
	running := decimal.Zero

	for i, rec := range recs {
		if rec.Date.IsZero() {
			add(InvDated, rec, "missing date")
		}

		if want := model.TypeOf(rec.AmountSigned); rec.Type != want {
			add(InvSign, rec, "type %q but amount_signed %s", rec.Type, rec.AmountSigned)
		}

		if len(vocab) > 0 && !vocab[rec.Category] {
			add(InvCategory, rec, "unknown category %q", rec.Category)
		}

		if opts.BaseCurrency != "" && !strings.EqualFold(rec.Currency, opts.BaseCurrency) {
			add(InvCurrency, rec, "currency %s, want %s", rec.Currency, opts.BaseCurrency)
		}

		if i > 0 && rec.Date.Before(recs[i-1].Date) {
			add(InvOrder, rec, "date %s before previous %s",
				rec.Date.Format(dateFormat), recs[i-1].Date.Format(dateFormat))
		}

		running = running.Add(rec.AmountSigned)
		if !rec.CumulativeBalance.Equal(running) {
			add(InvBalance, rec, "cumulative_balance %s, want %s", rec.CumulativeBalance, running)
		}

		if rec.RecordID != "" {
			if _, _, _, err := id.ParseRecordID(rec.RecordID); err != nil {
				add(InvRecordID, rec, "invalid record id: %v", err)
			} else if ids[rec.RecordID] {
				add(InvRecordID, rec, "duplicate record id")
			}
			ids[rec.RecordID] = true
		}

		if rec.RAGText == "" {
			add(InvRAGText, rec, "empty RAG_Text")
		}
	}
	return errs
}

func label(rec model.Record) string {
	if rec.RecordID != "" {
		return rec.RecordID
	}
	return rec.Date.Format(dateFormat)
}
