package portfolio

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

type stubFeed struct {
	records []models.RawPositionRecord
}

func (s *stubFeed) LoadAll(ctx context.Context) []models.RawPositionRecord {
	return s.records
}

type stubCache struct {
	quotes map[string]models.PriceQuote
}

func (s *stubCache) Get(ticker string) (models.PriceQuote, bool) {
	q, ok := s.quotes[ticker]
	return q, ok
}

type stubStore struct {
	saved    *models.PortfolioSnapshot
	loaded   *models.PortfolioSnapshot
	saveErr  error
	loadErr  error
	saveHits int
}

func (s *stubStore) SaveSnapshot(ctx context.Context, snap *models.PortfolioSnapshot) error {
	s.saveHits++
	s.saved = snap
	return s.saveErr
}

func (s *stubStore) GetSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	return s.loaded, s.loadErr
}

func (s *stubStore) SaveMorningCall(ctx context.Context, r *models.MorningCallReport) error {
	return nil
}

func (s *stubStore) GetMorningCall(ctx context.Context) (*models.MorningCallReport, error) {
	return nil, errors.New("not found")
}

func (s *stubStore) Close() error { return nil }

func fundRecord(ticker string) models.RawPositionRecord {
	return models.RawPositionRecord{
		Ticker:           ticker,
		Class:            models.AssetClassFund,
		Quantity:         100,
		AvgCost:          10.0,
		FeedPrice:        12.0,
		BookValuePerUnit: 11.0,
		RawYield:         9.5,
	}
}

func TestBuildSnapshotDerivedMetrics(t *testing.T) {
	feed := &stubFeed{records: []models.RawPositionRecord{fundRecord("HGLG11")}}
	svc := NewService(feed, &stubCache{}, nil, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Positions, 1)

	p := snap.Positions[0]
	assert.Equal(t, 12.0, p.CurrentPrice)
	assert.Equal(t, models.QuoteSourceFeed, p.PriceSource)
	assert.Equal(t, 1200.0, p.Metrics.MarketValue)
	assert.Equal(t, 1000.0, p.Metrics.InvestedCapital)
	assert.Equal(t, 200.0, p.Metrics.UnrealizedGain)
	assert.InDelta(t, 1.0909, p.Metrics.ValuationRatio, 0.0001)
	assert.InDelta(t, 0.20, p.Metrics.ReturnFraction, 1e-9)
	assert.InDelta(t, 0.095, p.TrailingYield, 1e-9)
	assert.Equal(t, 1.0, p.Metrics.PortfolioWeight)

	assert.Equal(t, 1200.0, snap.TotalMarketValue)
	assert.Equal(t, 1000.0, snap.TotalInvested)
	assert.Equal(t, 200.0, snap.TotalGain)
	assert.InDelta(t, 0.095, snap.MeanFundYield, 1e-9)
}

func TestBuildSnapshotLivePricePriority(t *testing.T) {
	feed := &stubFeed{records: []models.RawPositionRecord{fundRecord("HGLG11")}}
	cache := &stubCache{quotes: map[string]models.PriceQuote{
		"HGLG11": {Ticker: "HGLG11", Value: 13.5, Source: models.QuoteSourceCache},
	}}
	svc := NewService(feed, cache, nil, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)

	p := snap.Positions[0]
	assert.Equal(t, 13.5, p.CurrentPrice, "live quote outranks feed price")
	assert.Equal(t, models.QuoteSourceCache, p.PriceSource)
}

func TestBuildSnapshotZeroLiveQuoteFallsBackToFeed(t *testing.T) {
	feed := &stubFeed{records: []models.RawPositionRecord{fundRecord("HGLG11")}}
	cache := &stubCache{quotes: map[string]models.PriceQuote{
		"HGLG11": {Ticker: "HGLG11", Value: 0},
	}}
	svc := NewService(feed, cache, nil, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.0, snap.Positions[0].CurrentPrice)
	assert.Equal(t, models.QuoteSourceFeed, snap.Positions[0].PriceSource)
}

func TestBuildSnapshotDedupFirstSeenWins(t *testing.T) {
	dup := fundRecord("HGLG11")
	dup.Quantity = 999
	feed := &stubFeed{records: []models.RawPositionRecord{fundRecord("HGLG11"), dup}}
	svc := NewService(feed, &stubCache{}, nil, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Positions, 1)
	assert.Equal(t, 100.0, snap.Positions[0].Quantity)
}

func TestBuildSnapshotSameTickerDifferentClass(t *testing.T) {
	equity := fundRecord("HGLG11")
	equity.Class = models.AssetClassEquity
	feed := &stubFeed{records: []models.RawPositionRecord{fundRecord("HGLG11"), equity}}
	svc := NewService(feed, &stubCache{}, nil, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Positions, 2, "(ticker, class) is the dedup key, not ticker alone")
}

func TestBuildSnapshotOtherClassBypassesResolution(t *testing.T) {
	feed := &stubFeed{records: []models.RawPositionRecord{{
		Ticker:    "TESOURO IPCA",
		Class:     models.AssetClassOther,
		Quantity:  1,
		AvgCost:   12500.0,
		FeedPrice: 12500.0,
	}}}
	cache := &stubCache{quotes: map[string]models.PriceQuote{
		"TESOURO IPCA": {Ticker: "TESOURO IPCA", Value: 1.0},
	}}
	svc := NewService(feed, cache, nil, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)

	p := snap.Positions[0]
	assert.Equal(t, 12500.0, p.CurrentPrice, "declared value must not be overwritten by a quote")
	assert.Equal(t, models.QuoteSourceDeclared, p.PriceSource)
	assert.Equal(t, 1.0, p.Quantity)
	assert.Zero(t, p.Metrics.ValuationRatio)
}

func TestBuildSnapshotEnrichmentBackfill(t *testing.T) {
	rec := fundRecord("HGLG11")
	rec.BookValuePerUnit = 0
	rec.RawYield = 0
	feed := &stubFeed{records: []models.RawPositionRecord{rec}}
	cache := &stubCache{quotes: map[string]models.PriceQuote{
		"HGLG11": {Ticker: "HGLG11", Value: 12.0, Source: models.QuoteSourceCache, BookValuePerUnit: 11.0, TrailingYield: 0.08},
	}}
	svc := NewService(feed, cache, nil, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)

	p := snap.Positions[0]
	assert.Equal(t, 11.0, p.BookValuePerUnit)
	assert.InDelta(t, 0.08, p.TrailingYield, 1e-9)
}

func TestBuildSnapshotMissingCostBasisShowsZeroGain(t *testing.T) {
	rec := fundRecord("HGLG11")
	rec.AvgCost = 0
	feed := &stubFeed{records: []models.RawPositionRecord{rec}}
	svc := NewService(feed, &stubCache{}, nil, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)

	m := snap.Positions[0].Metrics
	assert.Equal(t, 1200.0, m.MarketValue)
	assert.Equal(t, 1200.0, m.InvestedCapital, "missing cost basis carries market value")
	assert.Zero(t, m.UnrealizedGain)
	assert.Zero(t, m.ReturnFraction)
}

func TestBuildSnapshotZeroGuards(t *testing.T) {
	feed := &stubFeed{records: []models.RawPositionRecord{{
		Ticker:   "XPML11",
		Class:    models.AssetClassFund,
		Quantity: 10,
		// zero avg cost, price and book value
	}}}
	svc := NewService(feed, &stubCache{}, nil, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)

	m := snap.Positions[0].Metrics
	assert.Zero(t, m.MarketValue)
	assert.Zero(t, m.ValuationRatio)
	assert.Zero(t, m.ReturnFraction)
	assert.Zero(t, m.PortfolioWeight)
	assert.Zero(t, snap.TotalMarketValue)
}

func TestBuildSnapshotEmptyFeedKeepsPrevious(t *testing.T) {
	feed := &stubFeed{records: []models.RawPositionRecord{fundRecord("HGLG11")}}
	svc := NewService(feed, &stubCache{}, nil, common.NewSilentLogger())

	first, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)

	feed.records = nil
	_, err = svc.BuildSnapshot(context.Background())
	require.Error(t, err)

	latest, err := svc.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, latest)
}

func TestBuildSnapshotPersists(t *testing.T) {
	store := &stubStore{}
	feed := &stubFeed{records: []models.RawPositionRecord{fundRecord("HGLG11")}}
	svc := NewService(feed, &stubCache{}, store, common.NewSilentLogger())

	snap, err := svc.BuildSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap, store.saved)
	assert.Equal(t, 1, store.saveHits)
}

func TestLatestSnapshotFallsBackToStore(t *testing.T) {
	persisted := &models.PortfolioSnapshot{GeneratedAt: time.Date(2026, 1, 14, 7, 0, 0, 0, time.UTC)}
	store := &stubStore{loaded: persisted}
	svc := NewService(&stubFeed{}, &stubCache{}, store, common.NewSilentLogger())

	snap, err := svc.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, persisted, snap)
}

func TestLatestSnapshotNoneAvailable(t *testing.T) {
	store := &stubStore{loadErr: errors.New("not found")}
	svc := NewService(&stubFeed{}, &stubCache{}, store, common.NewSilentLogger())

	_, err := svc.LatestSnapshot(context.Background())
	assert.Error(t, err)
}
