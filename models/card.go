// Package models defines data structures for the card price scraper.
package models

import "time"

// CardRecord holds the pricing information extracted from a single
// PriceCharting page. Absent prices are nil, not zero.
type CardRecord struct {
	CardName      string   `json:"card_name"`
	UngradedPrice *float64 `json:"ungraded_price"`
	PSA10Price    *float64 `json:"psa10_price"`
	SourceURL     string   `json:"url"`
}

// OutputRow is one line of the result table. Failed URLs still produce a
// row: Name carries the error marker and both price columns are empty.
type OutputRow struct {
	Link          string `csv:"link" json:"link"`
	Name          string `csv:"name" json:"name"`
	UngradedPrice string `csv:"ungraded_price" json:"ungraded_price"`
	PSA10Price    string `csv:"psa10_price" json:"psa10_price"`
}

// BatchSummary counts per-URL outcomes. Success + Failed == Total.
type BatchSummary struct {
	Total   int
	Success int
	Failed  int
}

// BatchResult holds the overall result of a batch run.
type BatchResult struct {
	Rows         []*OutputRow
	Summary      BatchSummary
	StartTime    time.Time
	EndTime      time.Time
	ErrorsByType map[string]int
}
