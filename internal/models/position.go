// Package models defines data structures for Carteira
package models

import (
	"regexp"
	"strings"
	"time"
)

// AssetClass categorizes a holding for pricing and metric purposes.
type AssetClass string

const (
	AssetClassFund   AssetClass = "fund"   // FII units (tradable, live-priced)
	AssetClassEquity AssetClass = "equity" // listed stock (tradable, live-priced)
	AssetClassOther  AssetClass = "other"  // fixed-value lump entry (not resolved)
)

// Tradable reports whether positions of this class are quantity × price
// holdings subject to live price resolution.
func (c AssetClass) Tradable() bool {
	return c == AssetClassFund || c == AssetClassEquity
}

// fundTickerPattern is the domain shape of a B3 real-estate fund ticker:
// four letters, the "11" unit suffix, and an optional trailing letter
// (e.g. HGLG11, KNRI11B).
var fundTickerPattern = regexp.MustCompile(`^[A-Z]{4}11[B]?$`)

// IsFundTicker reports whether raw matches the fund ticker shape.
// Input is upper-cased and trimmed before matching.
func IsFundTicker(raw string) bool {
	return fundTickerPattern.MatchString(strings.ToUpper(strings.TrimSpace(raw)))
}

// RawPositionRecord is one unvalidated row from a position feed. Records are
// created on each parse, consumed by reconciliation, and then discarded.
type RawPositionRecord struct {
	Ticker           string     `json:"ticker"`
	Class            AssetClass `json:"class"`
	Quantity         float64    `json:"quantity"`
	AvgCost          float64    `json:"avg_cost"`
	FeedPrice        float64    `json:"feed_price"`
	BookValuePerUnit float64    `json:"book_value_per_unit"`
	RawYield         float64    `json:"raw_yield"` // feed units, ambiguous scale
	Sector           string     `json:"sector,omitempty"`
	DetailLink       string     `json:"detail_link,omitempty"`
}

// PositionKey is the canonical deduplication key: at most one AssetPosition
// may exist per (ticker, class) pair.
type PositionKey struct {
	Ticker string
	Class  AssetClass
}

// Key returns the record's deduplication key.
func (r *RawPositionRecord) Key() PositionKey {
	return PositionKey{Ticker: r.Ticker, Class: r.Class}
}

// DerivedMetrics holds the computed valuation figures for a position.
// All ratios are zero-guarded: a zero or negative denominator yields 0.0,
// never NaN or Inf.
type DerivedMetrics struct {
	MarketValue     float64 `json:"market_value"`
	InvestedCapital float64 `json:"invested_capital"`
	UnrealizedGain  float64 `json:"unrealized_gain"`
	ValuationRatio  float64 `json:"valuation_ratio"` // price / book value per unit
	ReturnFraction  float64 `json:"return_fraction"` // market value / invested − 1
	PortfolioWeight float64 `json:"portfolio_weight"`
}

// AssetPosition is the canonical reconciled holding.
// Invariants: Quantity > 0 for tradable classes; class "other" has Quantity
// fixed at 1 and CurrentPrice equal to the declared lump value.
type AssetPosition struct {
	Ticker           string         `json:"ticker"`
	Class            AssetClass     `json:"class"`
	Quantity         float64        `json:"quantity"`
	AvgCost          float64        `json:"avg_cost"`
	CurrentPrice     float64        `json:"current_price"`
	BookValuePerUnit float64        `json:"book_value_per_unit"`
	TrailingYield    float64        `json:"trailing_yield"` // 0–1 fraction
	Sector           string         `json:"sector,omitempty"`
	DetailLink       string         `json:"detail_link,omitempty"`
	PriceSource      QuoteSource    `json:"price_source"`
	Metrics          DerivedMetrics `json:"metrics"`
}

// PortfolioSnapshot is the full reconciled view of the portfolio. It is
// rebuilt wholesale on every refresh cycle and never mutated incrementally.
type PortfolioSnapshot struct {
	Positions        []AssetPosition `json:"positions"`
	TotalMarketValue float64         `json:"total_market_value"`
	TotalInvested    float64         `json:"total_invested"`
	TotalGain        float64         `json:"total_gain"`
	MeanFundYield    float64         `json:"mean_fund_yield"` // simple mean over fund class
	GeneratedAt      time.Time       `json:"generated_at"`
}

// FundPositions returns the fund-class subset of the snapshot.
func (s *PortfolioSnapshot) FundPositions() []AssetPosition {
	var funds []AssetPosition
	for _, p := range s.Positions {
		if p.Class == AssetClassFund {
			funds = append(funds, p)
		}
	}
	return funds
}

// Position returns the position for a key, or nil.
func (s *PortfolioSnapshot) Position(key PositionKey) *AssetPosition {
	for i := range s.Positions {
		if s.Positions[i].Ticker == key.Ticker && s.Positions[i].Class == key.Class {
			return &s.Positions[i]
		}
	}
	return nil
}
