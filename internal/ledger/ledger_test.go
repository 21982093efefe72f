package ledger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerprep/internal/categorize"
	"github.com/cleared-dev/ledgerprep/internal/enrich"
	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
	"github.com/cleared-dev/ledgerprep/internal/normalize"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func sampleRecords() []model.Record {
	return []model.Record{
		{
			RecordID:          "SD-20240102-001",
			Date:              date(2024, 1, 2),
			Description:       "Transferencia recibida NOMINA",
			Amount:            dec("2000"),
			Currency:          "EUR",
			Source:            "SD",
			Type:              model.TypeIncome,
			AmountSigned:      dec("2000"),
			CumulativeBalance: dec("2000"),
			Category:          "Transferencias",
			RAGText:           "On 2024-01-02, an income of 2000.00 EUR at 'Transferencia recibida NOMINA' in category 'Transferencias'.",
		},
		{
			RecordID:          "BG-20240105-001",
			Date:              date(2024, 1, 5),
			Description:       "COMPRA SUPER 99, ALBROOK",
			Amount:            dec("-41.3471"),
			Currency:          "EUR",
			Source:            "BG",
			Balance:           decimal.NewNullDecimal(dec("2454.70")),
			Type:              model.TypeExpense,
			AmountSigned:      dec("-41.3471"),
			CumulativeBalance: dec("1958.6529"),
			Category:          "Supermercado",
			RAGText:           "On 2024-01-05, an expense of 41.35 EUR at 'COMPRA SUPER 99, ALBROOK' in category 'Supermercado'.",
		},
	}
}

func TestRoundTrip(t *testing.T) {
	recs := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, recs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, Header, lines[0])
	assert.Contains(t, lines[2], ",2024,1,January,5,1,1,Friday,2024-01,")

	got, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for i := range recs {
		assert.True(t, recs[i].Amount.Equal(got[i].Amount))
		assert.True(t, recs[i].AmountSigned.Equal(got[i].AmountSigned))
		assert.True(t, recs[i].CumulativeBalance.Equal(got[i].CumulativeBalance))
		assert.Equal(t, recs[i].Balance.Valid, got[i].Balance.Valid)
		assert.Equal(t, recs[i].Date, got[i].Date)
		assert.Equal(t, recs[i].Description, got[i].Description)
		assert.Equal(t, recs[i].Type, got[i].Type)
		assert.Equal(t, recs[i].RAGText, got[i].RAGText)
	}
}

func TestReadRecords_Empty(t *testing.T) {
	got, err := ReadRecords(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReadRecords_BadHeader(t *testing.T) {
	header := strings.Replace(Header, "RAG_Text", "rag_text", 1)
	_, err := ReadRecords(strings.NewReader(header + "\n"))
	assert.ErrorContains(t, err, "unexpected ledger header")
}

func TestUnmarshalRecord_Errors(t *testing.T) {
	good := MarshalRecord(sampleRecords()[1])

	tests := []struct {
		name  string
		col   int
		value string
		want  string
	}{
		{"bad date", colDate, "05/01/2024", "parsing date"},
		{"bad amount", colAmount, "abc", "parsing amount"},
		{"bad signed", colSigned, "", "parsing amount_signed"},
		{"bad balance", colBalance, "x", "parsing balance"},
		{"calendar drift", colYearMonth, "2024-02", "calendar fields"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := append([]string(nil), good...)
			row[tt.col] = tt.value
			_, err := UnmarshalRecord(row)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	_, err := UnmarshalRecord(good[:3])
	assert.ErrorContains(t, err, "expected 20 fields")
}

func TestReadFrame(t *testing.T) {
	f, err := ReadFrame(strings.NewReader("a,b,c\n1,,3\n4\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, f.Columns())
	require.Equal(t, 2, f.Len())
	assert.Equal(t, "1", f.Value(0, "a"))
	assert.Nil(t, f.Value(0, "b"))
	assert.Nil(t, f.Value(1, "c"))
}

func enriched(t *testing.T) *frame.Frame {
	t.Helper()
	f := frame.New(model.ColRecordID, model.ColDate, model.ColDescription, model.ColAmount, model.ColCurrency, model.ColSource, model.ColBalance)
	f.Append("BG-20240105-001", date(2024, 1, 5), "UBER TRIP", decimal.NewNullDecimal(dec("-12.30")), "EUR", "BG", decimal.NewNullDecimal(dec("88")))
	f.Append("SD-20240102-001", date(2024, 1, 2), "Compra en MERCADONA 123", decimal.NewNullDecimal(dec("-23.45")), "EUR", "SD", nil)
	f.Append("SD-20240103-001", date(2024, 1, 3), "NOMINA", decimal.NewNullDecimal(dec("100")), "EUR", "SD", nil)

	n, err := normalize.Normalize(f)
	require.NoError(t, err)
	c, err := categorize.Categorize(n, categorize.DefaultRules())
	require.NoError(t, err)
	e, err := enrich.Enrich(c, "EUR", categorize.Fallback)
	require.NoError(t, err)
	return e
}

func TestFromFrame(t *testing.T) {
	recs, err := FromFrame(enriched(t))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "SD-20240102-001", recs[0].RecordID)
	assert.Equal(t, "Supermercado", recs[0].Category)
	assert.False(t, recs[0].Balance.Valid)
	assert.True(t, recs[2].Balance.Valid)
	assert.True(t, recs[2].CumulativeBalance.Equal(dec("64.25")))
	assert.Equal(t, model.TypeExpense, recs[2].Type)

	assert.Empty(t, Validate(recs, Options{BaseCurrency: "EUR", Vocabulary: categorize.DefaultRules().Vocabulary()}))
}

func TestFromFrame_MissingColumn(t *testing.T) {
	f := enriched(t)
	f.Drop(model.ColRAGText)

	_, err := FromFrame(f)
	var mce *model.MissingColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, model.ColRAGText, mce.Column)
}

func TestNormalizeIdempotentAcrossCSV(t *testing.T) {
	first := enriched(t)
	recs, err := FromFrame(first)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, recs))
	reread, err := ReadFrame(&buf)
	require.NoError(t, err)

	again, err := normalize.Normalize(reread)
	require.NoError(t, err)
	require.Equal(t, first.Len(), again.Len())

	for i := 0; i < first.Len(); i++ {
		for _, c := range []string{model.ColDate, model.ColType, model.ColYear, model.ColMonth, model.ColISOWeek, model.ColYearMonth, model.ColDayOfWeek} {
			assert.Equal(t, first.Row(i).String(c), again.Row(i).String(c), "row %d %s", i, c)
		}
		for _, c := range []string{model.ColAmount, model.ColAmountSigned, model.ColCumulativeBalance} {
			a, _ := first.Row(i).Decimal(c)
			b, _ := again.Row(i).Decimal(c)
			assert.True(t, a.Equal(b), "row %d %s: %s != %s", i, c, a, b)
		}
	}
}

func TestValidate(t *testing.T) {
	opts := Options{BaseCurrency: "EUR", Vocabulary: []string{"Supermercado", "Transferencias", "Otros"}}
	assert.Empty(t, Validate(sampleRecords(), opts))

	tests := []struct {
		name   string
		mutate func(recs []model.Record)
		want   int
	}{
		{"missing date", func(r []model.Record) { r[0].Date = time.Time{} }, InvDated},
		{"sign mismatch", func(r []model.Record) { r[1].Type = model.TypeIncome }, InvSign},
		{"unknown category", func(r []model.Record) { r[1].Category = "Food" }, InvCategory},
		{"foreign currency", func(r []model.Record) { r[1].Currency = "USD" }, InvCurrency},
		{"out of order", func(r []model.Record) { r[1].Date = date(2023, 12, 31) }, InvOrder},
		{"wrong balance", func(r []model.Record) { r[1].CumulativeBalance = dec("1") }, InvBalance},
		{"bad record id", func(r []model.Record) { r[1].RecordID = "nope" }, InvRecordID},
		{"duplicate record id", func(r []model.Record) { r[1].RecordID = r[0].RecordID }, InvRecordID},
		{"empty text", func(r []model.Record) { r[0].RAGText = "" }, InvRAGText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := sampleRecords()
			tt.mutate(recs)
			errs := Validate(recs, opts)
			require.NotEmpty(t, errs)
			var invariants []int
			for _, e := range errs {
				invariants = append(invariants, e.Invariant)
			}
			assert.Contains(t, invariants, tt.want)
		})
	}
}

func TestValidate_ZeroIsIncome(t *testing.T) {
	recs := []model.Record{{Date: date(2024, 1, 1), Type: model.TypeIncome, RAGText: "x", Currency: "EUR"}}
	assert.Empty(t, Validate(recs, Options{BaseCurrency: "EUR"}))

	recs[0].Type = model.TypeExpense
	errs := Validate(recs, Options{})
	require.Len(t, errs, 1)
	assert.Equal(t, "invariant 2 [2024-01-01]: type \"expense\" but amount_signed 0", errs[0].Error())
}

func TestSummarize(t *testing.T) {
	recs := sampleRecords()
	recs = append(recs, model.Record{
		Date:         date(2024, 2, 1),
		AmountSigned: dec("-10"),
		Category:     "Supermercado",
	})

	s := Summarize(recs)
	assert.Equal(t, 3, s.Overall.Count)
	assert.True(t, s.Overall.Income.Equal(dec("2000")))
	assert.True(t, s.Overall.Expense.Equal(dec("51.3471")))
	assert.True(t, s.Overall.Net().Equal(dec("1948.6529")))

	require.Len(t, s.Months, 2)
	assert.Equal(t, "2024-01", s.Months[0].Key)
	assert.Equal(t, 2, s.Months[0].Count)
	assert.Equal(t, "2024-02", s.Months[1].Key)

	require.Len(t, s.Categories, 2)
	assert.Equal(t, "Supermercado", s.Categories[0].Key)
	assert.True(t, s.Categories[0].Expense.Equal(dec("51.3471")))
	assert.Equal(t, "Transferencias", s.Categories[1].Key)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf, "EUR"))
	out := buf.String()
	assert.Contains(t, out, "2024-02")
	assert.Contains(t, out, "Supermercado")
	assert.Contains(t, out, "1948.65")
	assert.Contains(t, out, "total EUR")
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "ledger.csv")
	require.NoError(t, WriteFile(path, sampleRecords()))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	require.NoError(t, WriteFile(path, sampleRecords()[:1]))
	got, err = ReadFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	_, err = ReadFile(filepath.Join(t.TempDir(), "absent.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
