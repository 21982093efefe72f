package fx

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/ledgerprep/internal/frame"
	"github.com/cleared-dev/ledgerprep/internal/model"
)

func ymd(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func usdTable() *RateTable {
	return NewRateTable("USD", []Rate{
		{Date: ymd(2024, 1, 10), Rate: dec("1.08")},
		{Date: ymd(2024, 1, 1), Rate: dec("1.10")},
	})
}

func TestRateTable_AsOf(t *testing.T) {
	tbl := usdTable()
	assert.Equal(t, 2, tbl.Len())

	tests := []struct {
		name string
		date time.Time
		want string
		ok   bool
	}{
		{"between rates uses earlier", ymd(2024, 1, 5), "1.10", true},
		{"exact date", ymd(2024, 1, 10), "1.08", true},
		{"first date", ymd(2024, 1, 1), "1.10", true},
		{"after last rate", ymd(2024, 3, 1), "1.08", true},
		{"before first rate", ymd(2023, 12, 31), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tbl.AsOf(tt.date)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(dec(tt.want)), "got %s", got)
			}
		})
	}
}

func TestNewRateTable_DuplicateDateLastWins(t *testing.T) {
	tbl := NewRateTable("USD", []Rate{
		{Date: ymd(2024, 1, 1), Rate: dec("1.10")},
		{Date: ymd(2024, 1, 1), Rate: dec("1.11")},
	})
	assert.Equal(t, 1, tbl.Len())
	got, _ := tbl.AsOf(ymd(2024, 1, 2))
	assert.True(t, got.Equal(dec("1.11")))
}

func TestReadRates(t *testing.T) {
	input := "Date,USD\n2024-01-01,1.10\nbad,1.2\n2024-01-03,\n02/01/2024,1.09\n"
	tbl, err := ReadRates(strings.NewReader(input), "usd", "date")
	require.NoError(t, err)
	assert.Equal(t, "USD", tbl.Currency)
	assert.Equal(t, 2, tbl.Len())

	got, ok := tbl.AsOf(ymd(2024, 1, 3))
	require.True(t, ok)
	assert.True(t, got.Equal(dec("1.09")))
}

func TestReadRates_MissingColumns(t *testing.T) {
	_, err := ReadRates(strings.NewReader("Date,USD\n"), "GBP", "Date")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"GBP"`)

	_, err = ReadRates(strings.NewReader("Day,USD\n"), "USD", "Date")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Date"`)

	_, err = ReadRates(strings.NewReader(""), "USD", "Date")
	require.Error(t, err)
}

func TestRateFile_Table(t *testing.T) {
	f := RateFile{Path: "../../testdata/fx_rates.csv"}

	usd, err := f.Table("USD")
	require.NoError(t, err)
	assert.Equal(t, 4, usd.Len())
	got, ok := usd.AsOf(ymd(2024, 1, 5))
	require.True(t, ok)
	assert.True(t, got.Equal(dec("1.0956")))

	gbp, err := f.Table("GBP")
	require.NoError(t, err)
	got, ok = gbp.AsOf(ymd(2024, 1, 31))
	require.True(t, ok)
	assert.True(t, got.Equal(dec("0.8600")))
}

func TestRateFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rates.csv")
	_, err := RateFile{Path: path}.Table("USD")

	var missing *model.MissingRateTableError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, path, missing.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func sampleFrame() *frame.Frame {
	f := frame.New(model.ColDate, model.ColDescription, model.ColAmount, model.ColCurrency, model.ColSource)
	f.Append(ymd(2024, 1, 5), "SUPER 99", decimal.NewNullDecimal(dec("110")), "USD", "BG")
	f.Append(ymd(2024, 1, 6), "MERCADONA", decimal.NewNullDecimal(dec("-23.45")), "EUR", "SD")
	return f
}

func TestConvertToBase(t *testing.T) {
	in := sampleFrame()
	c := &Converter{Base: "EUR", Foreign: map[string]string{"BG": "USD"}, Rates: StaticRates{"USD": usdTable()}}

	out, stats, err := c.ConvertToBase(in)
	require.NoError(t, err)
	assert.Equal(t, Stats{Converted: 1}, stats)

	bg, ok := out.Row(0).Decimal(model.ColAmount)
	require.True(t, ok)
	assert.True(t, bg.Equal(dec("100")), "got %s", bg)

	sd, ok := out.Row(1).Decimal(model.ColAmount)
	require.True(t, ok)
	assert.True(t, sd.Equal(dec("-23.45")))

	for i := 0; i < out.Len(); i++ {
		assert.Equal(t, "EUR", out.Row(i).String(model.ColCurrency))
	}

	// input untouched
	assert.Equal(t, "USD", in.Row(0).String(model.ColCurrency))
	orig, _ := in.Row(0).Decimal(model.ColAmount)
	assert.True(t, orig.Equal(dec("110")))
}

func TestConvertToBase_NoRateOrZeroRate(t *testing.T) {
	f := frame.New(model.ColDate, model.ColAmount, model.ColCurrency, model.ColSource)
	f.Append(ymd(2023, 12, 1), decimal.NewNullDecimal(dec("10")), "USD", "BG")
	f.Append(ymd(2024, 2, 1), decimal.NewNullDecimal(dec("10")), "USD", "BG")
	f.Append(ymd(2024, 2, 1), decimal.NullDecimal{}, "USD", "BG")

	zero := NewRateTable("USD", []Rate{
		{Date: ymd(2024, 1, 1), Rate: dec("1.10")},
		{Date: ymd(2024, 1, 20), Rate: decimal.Zero},
	})
	c := &Converter{Base: "EUR", Foreign: map[string]string{"BG": "USD"}, Rates: StaticRates{"USD": zero}}

	out, stats, err := c.ConvertToBase(f)
	require.NoError(t, err)
	assert.Equal(t, Stats{Missing: 3}, stats)
	for i := 0; i < out.Len(); i++ {
		_, ok := out.Row(i).Decimal(model.ColAmount)
		assert.False(t, ok, "row %d", i)
	}
}

func TestConvertToBase_RatesReadLazily(t *testing.T) {
	missing := RateFile{Path: filepath.Join(t.TempDir(), "absent.csv")}

	f := frame.New(model.ColDate, model.ColAmount, model.ColCurrency, model.ColSource)
	f.Append(ymd(2024, 1, 6), decimal.NewNullDecimal(dec("5")), "EUR", "SD")

	c := &Converter{Base: "EUR", Foreign: map[string]string{"BG": "USD"}, Rates: missing}
	out, stats, err := c.ConvertToBase(f)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
	assert.Equal(t, 1, out.Len())

	f.Append(ymd(2024, 1, 7), decimal.NewNullDecimal(dec("5")), "USD", "BG")
	_, _, err = c.ConvertToBase(f)
	var mre *model.MissingRateTableError
	assert.ErrorAs(t, err, &mre)
}

func TestConvertToBase_RowCurrencyWins(t *testing.T) {
	f := frame.New(model.ColDate, model.ColAmount, model.ColCurrency, model.ColSource)
	f.Append(ymd(2024, 1, 9), decimal.NewNullDecimal(dec("-10.00")), "GBP", "SD")

	c := &Converter{Base: "EUR", Rates: RateFile{Path: "../../testdata/fx_rates.csv"}}
	out, stats, err := c.ConvertToBase(f)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Converted)

	got, ok := out.Row(0).Decimal(model.ColAmount)
	require.True(t, ok)
	assert.True(t, got.Equal(dec("-10.00").Div(dec("0.8598"))), "got %s", got)
	assert.Equal(t, "EUR", out.Row(0).String(model.ColCurrency))
}

func TestConvertToBase_NoSourceColumn(t *testing.T) {
	f := frame.New(model.ColDate, model.ColAmount)
	f.Append(ymd(2024, 1, 9), decimal.NewNullDecimal(dec("1")))

	c := &Converter{Base: "eur", Foreign: map[string]string{"BG": "USD"}}
	out, _, err := c.ConvertToBase(f)
	require.NoError(t, err)
	assert.Equal(t, "EUR", out.Row(0).String(model.ColCurrency))
}
