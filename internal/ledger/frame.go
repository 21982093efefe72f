package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

// required are the columns FromFrame cannot default.
var required = []string{
	model.ColDate, model.ColDescription, model.ColAmount, model.ColCurrency, model.ColSource,
	model.ColType, model.ColAmountSigned, model.ColCumulativeBalance, model.ColCategory, model.ColRAGText,
}

// FromFrame converts a fully enriched frame to records. record_id and balance
// are optional. A row without a date or amount is an error.
func FromFrame(f *frame.Frame) ([]model.Record, error) {
	for _, col := range required {
		if !f.Has(col) {
			return nil, &model.MissingColumnError{Stage: "ledger", Column: col}
		}
	}

	recs := make([]model.Record, 0, f.Len())
	for i := 0; i < f.Len(); i++ {
		r := f.Row(i)
		date, ok := r.Time(model.ColDate)
		if !ok {
			return nil, fmt.Errorf("row %d: no date", i)
		}
		amount, err := decimalCell(r, model.ColAmount)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		signed, err := decimalCell(r, model.ColAmountSigned)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		cumulative, err := decimalCell(r, model.ColCumulativeBalance)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}

		var balance decimal.NullDecimal
		if b, ok := r.Decimal(model.ColBalance); ok {
			balance = decimal.NewNullDecimal(b)
		}

		recs = append(recs, model.Record{
			RecordID:          r.String(model.ColRecordID),
			Date:              date,
			Description:       r.String(model.ColDescription),
			Amount:            amount,
			Currency:          r.String(model.ColCurrency),
			Source:            r.String(model.ColSource),
			Balance:           balance,
			Type:              model.TxType(r.String(model.ColType)),
			AmountSigned:      signed,
			CumulativeBalance: cumulative,
			Category:          r.String(model.ColCategory),
			RAGText:           r.String(model.ColRAGText),
		})
	}
	return recs, nil
}

func decimalCell(r frame.Row, col string) (decimal.Decimal, error) {
	d, ok := r.Decimal(col)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no %s", col)
	}
	return d, nil
}
