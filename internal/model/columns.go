package model

import "strings"

// Canonical column names shared by every pipeline stage.
const (
	ColRecordID          = "record_id"
	ColDate              = "date"
	ColDescription       = "description"
	ColAmount            = "amount"
	ColCurrency          = "currency"
	ColSource            = "source"
	ColBalance           = "balance"
	ColType              = "type"
	ColAmountSigned      = "amount_signed"
	ColYear              = "year"
	ColMonth             = "month"
	ColMonthName         = "month_name"
	ColDay               = "day"
	ColISOWeek           = "iso_week"
	ColQuarter           = "quarter"
	ColDayOfWeek         = "day_of_week"
	ColYearMonth         = "year_month"
	ColCumulativeBalance = "cumulative_balance"
	ColCategory          = "auto_category"
	ColRAGText           = "RAG_Text"
)

// LoaderColumns is the five-column shape every source loader produces.
var LoaderColumns = []string{ColDate, ColDescription, ColAmount, ColCurrency, ColSource}

// NoDescription replaces a missing description once a record is enriched.
const NoDescription = "No description"

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
