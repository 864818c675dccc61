package models

import "time"

// QuoteSource identifies which link of the resolution chain produced a price.
type QuoteSource string

const (
	QuoteSourceFeed      QuoteSource = "feed"
	QuoteSourceScrape    QuoteSource = "scrape"
	QuoteSourceMarketAPI QuoteSource = "market-api"
	QuoteSourceCache     QuoteSource = "cache"
	QuoteSourceDeclared  QuoteSource = "declared" // fixed-value "other" holdings
)

// PriceQuote is a single price observation for a ticker. Several quotes may
// exist transiently during resolution; exactly one is selected as
// authoritative per reconciliation pass.
type PriceQuote struct {
	Ticker    string      `json:"ticker"`
	Value     float64     `json:"value"`
	Source    QuoteSource `json:"source"`
	FetchedAt time.Time   `json:"fetched_at"`

	// Optional enrichment carried by the scrape source: the quote page also
	// publishes book value per unit and trailing yield for funds. Zero when
	// the source does not provide them.
	BookValuePerUnit float64 `json:"book_value_per_unit,omitempty"`
	TrailingYield    float64 `json:"trailing_yield,omitempty"`
}
