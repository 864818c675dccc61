// Package quote resolves live prices with scrape-primary and market-data
// fallback.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/interfaces"
	"github.com/dpaiva/carteira/internal/models"
)

// ErrResolutionFailed is returned when every price source has been tried and
// none produced a usable quote. Callers fall back to the feed-declared price.
var ErrResolutionFailed = errors.New("price resolution failed")

// DefaultAttemptTimeout bounds each individual source attempt so one hung
// source cannot consume the whole resolution window.
const DefaultAttemptTimeout = 15 * time.Second

// Service implements QuoteService. It holds no mutable state and is safe
// for concurrent use.
type Service struct {
	scraper        interfaces.QuotePageClient
	marketData     interfaces.MarketDataClient
	logger         *common.Logger
	attemptTimeout time.Duration
}

// NewService creates a new quote service. marketData may be nil — the
// fallback tier is then skipped.
func NewService(scraper interfaces.QuotePageClient, marketData interfaces.MarketDataClient, logger *common.Logger) *Service {
	return &Service{
		scraper:        scraper,
		marketData:     marketData,
		logger:         logger,
		attemptTimeout: DefaultAttemptTimeout,
	}
}

// Resolve attempts the source chain in priority order: quote page scrape,
// then market-data last close. Each attempt runs under its own timeout.
// When every source fails the error wraps ErrResolutionFailed.
func (s *Service) Resolve(ctx context.Context, ticker string, class models.AssetClass) (*models.PriceQuote, error) {
	if !class.Tradable() {
		return nil, fmt.Errorf("%w: class %q is not live-priced", ErrResolutionFailed, class)
	}

	scrapeCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	quote, scrapeErr := s.scraper.FetchQuote(scrapeCtx, ticker, class)
	cancel()
	if scrapeErr == nil && quote != nil && quote.Value > 0 {
		return quote, nil
	}
	if scrapeErr != nil {
		s.logger.Warn().
			Err(scrapeErr).
			Str("ticker", ticker).
			Msg("scrape failed, trying market data fallback")
	}

	if s.marketData == nil {
		return nil, fmt.Errorf("%w: ticker %s: scrape: %v", ErrResolutionFailed, ticker, scrapeErr)
	}

	apiCtx, cancel := context.WithTimeout(ctx, s.attemptTimeout)
	quote, apiErr := s.marketData.GetLastClose(apiCtx, ticker)
	cancel()
	if apiErr == nil && quote != nil && quote.Value > 0 {
		return quote, nil
	}

	s.logger.Warn().
		Str("ticker", ticker).
		AnErr("scrape_error", scrapeErr).
		AnErr("market_data_error", apiErr).
		Msg("all price sources failed")

	return nil, fmt.Errorf("%w: ticker %s: scrape: %v, market data: %v", ErrResolutionFailed, ticker, scrapeErr, apiErr)
}

// Ensure Service implements QuoteService
var _ interfaces.QuoteService = (*Service)(nil)
