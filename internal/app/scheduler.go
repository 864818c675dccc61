package app

import (
	"context"
	"time"

	"github.com/dpaiva/carteira/internal/cache"
	"github.com/dpaiva/carteira/internal/models"
)

// RefreshNow runs one refresh cycle synchronously. Used by the manual
// refresh endpoint; the scheduler and warm cache share the same path.
func (a *App) RefreshNow(ctx context.Context) {
	a.refreshCycle(ctx)
}

// refreshCycle re-reads the feeds, re-resolves every tradable ticker whose
// cache entry is missing or stale, then rebuilds the snapshot. Tickers are
// refreshed sequentially; the clients' rate limiters provide the pacing.
// One ticker's failure never aborts the rest.
func (a *App) refreshCycle(ctx context.Context) {
	start := time.Now()

	records := a.FeedService.LoadAll(ctx)
	if len(records) == 0 {
		a.Logger.Warn().Msg("refresh cycle: no feed records, nothing to refresh")
		return
	}

	var refreshed, failed, skipped int
	seen := make(map[string]struct{}, len(records))

	for _, rec := range records {
		if ctx.Err() != nil {
			a.Logger.Warn().Err(ctx.Err()).Msg("refresh cycle: interrupted")
			break
		}
		if !rec.Class.Tradable() {
			continue
		}
		if _, dup := seen[rec.Ticker]; dup {
			continue
		}
		seen[rec.Ticker] = struct{}{}

		if state, known := a.QuoteCache.StateOf(rec.Ticker); known && state == cache.StateFresh {
			skipped++
			continue
		}

		if a.refreshTicker(ctx, rec.Ticker, rec.Class) {
			refreshed++
		} else {
			failed++
		}
	}

	if _, err := a.PortfolioService.BuildSnapshot(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("refresh cycle: snapshot rebuild failed")
	}

	a.Logger.Info().
		Int("refreshed", refreshed).
		Int("failed", failed).
		Int("skipped", skipped).
		Dur("elapsed", time.Since(start)).
		Msg("refresh cycle complete")
}

// refreshTicker resolves one ticker and updates its cache entry. A failed
// resolution keeps the previous value served as stale.
func (a *App) refreshTicker(ctx context.Context, ticker string, class models.AssetClass) bool {
	began := a.QuoteCache.BeginRefresh(ticker)

	q, err := a.QuoteService.Resolve(ctx, ticker, class)
	if err != nil {
		if began {
			a.QuoteCache.FailRefresh(ticker)
		}
		a.Logger.Warn().Err(err).Str("ticker", ticker).Msg("quote refresh failed, keeping last value")
		return false
	}

	a.QuoteCache.Put(*q)
	return true
}
