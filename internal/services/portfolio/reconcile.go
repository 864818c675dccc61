package portfolio

import (
	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/models"
)

// quoteLookup resolves a cached quote for a ticker without blocking.
type quoteLookup func(ticker string) (models.PriceQuote, bool)

// reconcile merges raw feed records into canonical positions. Duplicate
// (ticker, class) pairs keep the first-seen record. Tradable positions take
// the cached live price when positive, the feed price otherwise; class
// "other" bypasses resolution and keeps its declared value.
func reconcile(records []models.RawPositionRecord, lookup quoteLookup) []models.AssetPosition {
	positions := make([]models.AssetPosition, 0, len(records))
	seen := make(map[models.PositionKey]struct{}, len(records))

	for i := range records {
		rec := &records[i]
		key := rec.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		positions = append(positions, reconcileOne(rec, lookup))
	}

	return positions
}

func reconcileOne(rec *models.RawPositionRecord, lookup quoteLookup) models.AssetPosition {
	pos := models.AssetPosition{
		Ticker:           rec.Ticker,
		Class:            rec.Class,
		Quantity:         rec.Quantity,
		AvgCost:          rec.AvgCost,
		BookValuePerUnit: rec.BookValuePerUnit,
		TrailingYield:    common.NormalizeYield(rec.RawYield),
		Sector:           rec.Sector,
		DetailLink:       rec.DetailLink,
	}

	if !rec.Class.Tradable() {
		pos.Quantity = 1
		pos.CurrentPrice = rec.FeedPrice
		pos.PriceSource = models.QuoteSourceDeclared
		return pos
	}

	if quote, ok := lookup(rec.Ticker); ok && quote.Value > 0 {
		pos.CurrentPrice = quote.Value
		pos.PriceSource = quote.Source
		// scrape enrichment backfills indicators the feed left blank
		if pos.BookValuePerUnit <= 0 && quote.BookValuePerUnit > 0 {
			pos.BookValuePerUnit = quote.BookValuePerUnit
		}
		if pos.TrailingYield <= 0 && quote.TrailingYield > 0 {
			pos.TrailingYield = quote.TrailingYield
		}
		return pos
	}

	// no live quote: feed price, which may itself be zero
	pos.CurrentPrice = rec.FeedPrice
	pos.PriceSource = models.QuoteSourceFeed
	return pos
}

// computeMetrics fills the derived valuation figures for one position.
// Ratios with a non-positive denominator collapse to zero instead of
// producing NaN or Inf.
func computeMetrics(pos *models.AssetPosition) {
	m := models.DerivedMetrics{
		MarketValue: pos.Quantity * pos.CurrentPrice,
	}
	if pos.AvgCost > 0 {
		m.InvestedCapital = pos.Quantity * pos.AvgCost
	} else {
		// no recorded cost basis: carry market value so the gain reads zero
		m.InvestedCapital = m.MarketValue
	}
	m.UnrealizedGain = m.MarketValue - m.InvestedCapital

	if pos.BookValuePerUnit > 0 {
		m.ValuationRatio = common.SanitizeRatio(pos.CurrentPrice / pos.BookValuePerUnit)
	}
	if m.InvestedCapital > 0 {
		m.ReturnFraction = m.MarketValue/m.InvestedCapital - 1
	}

	pos.Metrics = m
}

// aggregate computes snapshot totals and per-position weights.
func aggregate(snapshot *models.PortfolioSnapshot) {
	var totalMV, totalInvested float64
	for i := range snapshot.Positions {
		totalMV += snapshot.Positions[i].Metrics.MarketValue
		totalInvested += snapshot.Positions[i].Metrics.InvestedCapital
	}

	snapshot.TotalMarketValue = totalMV
	snapshot.TotalInvested = totalInvested
	snapshot.TotalGain = totalMV - totalInvested

	for i := range snapshot.Positions {
		if totalMV > 0 {
			snapshot.Positions[i].Metrics.PortfolioWeight = snapshot.Positions[i].Metrics.MarketValue / totalMV
		}
	}

	var yieldSum float64
	var fundCount int
	for _, p := range snapshot.Positions {
		if p.Class == models.AssetClassFund {
			yieldSum += p.TrailingYield
			fundCount++
		}
	}
	if fundCount > 0 {
		snapshot.MeanFundYield = yieldSum / float64(fundCount)
	}
}
