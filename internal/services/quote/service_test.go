package quote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/models"
)

type stubScraper struct {
	quote *models.PriceQuote
	err   error
	calls int
}

func (s *stubScraper) FetchQuote(ctx context.Context, ticker string, class models.AssetClass) (*models.PriceQuote, error) {
	s.calls++
	return s.quote, s.err
}

type stubMarketData struct {
	quote *models.PriceQuote
	err   error
	calls int
}

func (s *stubMarketData) GetLastClose(ctx context.Context, ticker string) (*models.PriceQuote, error) {
	s.calls++
	return s.quote, s.err
}

func scrapeQuote(value float64) *models.PriceQuote {
	return &models.PriceQuote{
		Ticker:    "HGLG11",
		Value:     value,
		Source:    models.QuoteSourceScrape,
		FetchedAt: time.Now(),
	}
}

func TestResolveScrapeSucceeds(t *testing.T) {
	scraper := &stubScraper{quote: scrapeQuote(160.50)}
	md := &stubMarketData{}
	svc := NewService(scraper, md, common.NewSilentLogger())

	q, err := svc.Resolve(context.Background(), "HGLG11", models.AssetClassFund)
	require.NoError(t, err)
	assert.Equal(t, 160.50, q.Value)
	assert.Equal(t, models.QuoteSourceScrape, q.Source)
	assert.Equal(t, 0, md.calls, "fallback must not run when scrape succeeds")
}

func TestResolveFallsBackToMarketData(t *testing.T) {
	scraper := &stubScraper{err: errors.New("status 500")}
	md := &stubMarketData{quote: &models.PriceQuote{
		Ticker: "HGLG11",
		Value:  159.80,
		Source: models.QuoteSourceMarketAPI,
	}}
	svc := NewService(scraper, md, common.NewSilentLogger())

	q, err := svc.Resolve(context.Background(), "HGLG11", models.AssetClassFund)
	require.NoError(t, err)
	assert.Equal(t, 159.80, q.Value)
	assert.Equal(t, models.QuoteSourceMarketAPI, q.Source)
	assert.Equal(t, 1, scraper.calls)
	assert.Equal(t, 1, md.calls)
}

func TestResolveZeroScrapePriceTriggersFallback(t *testing.T) {
	scraper := &stubScraper{quote: scrapeQuote(0)}
	md := &stubMarketData{quote: &models.PriceQuote{Ticker: "HGLG11", Value: 159.80, Source: models.QuoteSourceMarketAPI}}
	svc := NewService(scraper, md, common.NewSilentLogger())

	q, err := svc.Resolve(context.Background(), "HGLG11", models.AssetClassFund)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteSourceMarketAPI, q.Source)
}

func TestResolveAllSourcesFail(t *testing.T) {
	scraper := &stubScraper{err: errors.New("status 403")}
	md := &stubMarketData{err: errors.New("no price bars")}
	svc := NewService(scraper, md, common.NewSilentLogger())

	_, err := svc.Resolve(context.Background(), "HGLG11", models.AssetClassFund)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolutionFailed)
}

func TestResolveNoMarketDataClient(t *testing.T) {
	scraper := &stubScraper{err: errors.New("status 500")}
	svc := NewService(scraper, nil, common.NewSilentLogger())

	_, err := svc.Resolve(context.Background(), "HGLG11", models.AssetClassFund)
	assert.ErrorIs(t, err, ErrResolutionFailed)
}

func TestResolveNonTradableClass(t *testing.T) {
	scraper := &stubScraper{}
	svc := NewService(scraper, nil, common.NewSilentLogger())

	_, err := svc.Resolve(context.Background(), "CDB", models.AssetClassOther)
	assert.ErrorIs(t, err, ErrResolutionFailed)
	assert.Equal(t, 0, scraper.calls)
}
