// Package portfolio reconciles feed records and cached quotes into
// portfolio snapshots.
package portfolio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/interfaces"
	"github.com/dpaiva/carteira/internal/models"
)

// Service implements PortfolioService. The last successfully built snapshot
// is kept in memory and persisted so a partially failed cycle never leaves
// the dashboard empty.
type Service struct {
	feed   interfaces.FeedService
	quotes interfaces.QuoteCache
	store  interfaces.SnapshotStore
	logger *common.Logger

	mu     sync.RWMutex
	latest *models.PortfolioSnapshot

	now func() time.Time
}

// NewService creates a new portfolio service. store may be nil — snapshots
// are then held in memory only.
func NewService(feed interfaces.FeedService, quotes interfaces.QuoteCache, store interfaces.SnapshotStore, logger *common.Logger) *Service {
	return &Service{
		feed:   feed,
		quotes: quotes,
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// BuildSnapshot loads the feeds, reconciles against the quote cache and
// computes derived metrics. The result replaces the previous snapshot
// wholesale and is persisted as last-known-good.
func (s *Service) BuildSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	records := s.feed.LoadAll(ctx)
	if len(records) == 0 {
		return nil, fmt.Errorf("no feed records available, keeping previous snapshot")
	}

	snapshot := &models.PortfolioSnapshot{
		Positions:   reconcile(records, s.quotes.Get),
		GeneratedAt: s.now(),
	}
	for i := range snapshot.Positions {
		computeMetrics(&snapshot.Positions[i])
	}
	aggregate(snapshot)

	s.mu.Lock()
	s.latest = snapshot
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.SaveSnapshot(ctx, snapshot); err != nil {
			s.logger.Warn().Err(err).Msg("failed to persist snapshot")
		}
	}

	s.logger.Info().
		Int("positions", len(snapshot.Positions)).
		Float64("total_market_value", snapshot.TotalMarketValue).
		Msg("snapshot rebuilt")

	return snapshot, nil
}

// LatestSnapshot returns the most recent successfully built snapshot,
// falling back to the persisted copy after a restart.
func (s *Service) LatestSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	s.mu.RLock()
	latest := s.latest
	s.mu.RUnlock()

	if latest != nil {
		return latest, nil
	}

	if s.store != nil {
		snapshot, err := s.store.GetSnapshot(ctx)
		if err == nil && snapshot != nil {
			s.mu.Lock()
			s.latest = snapshot
			s.mu.Unlock()
			return snapshot, nil
		}
	}

	return nil, fmt.Errorf("no snapshot available yet")
}

// Ensure Service implements PortfolioService
var _ interfaces.PortfolioService = (*Service)(nil)
