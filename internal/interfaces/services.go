// Package interfaces defines service contracts for Carteira
package interfaces

import (
	"context"

	"github.com/dpaiva/carteira/internal/models"
)

// FeedService loads raw position records from the configured feeds.
type FeedService interface {
	// LoadAll fetches and parses both feed channels and returns the union of
	// their records. A failed or malformed channel degrades to an empty list
	// for that channel; the other channel is still processed. LoadAll never
	// aborts the pipeline.
	LoadAll(ctx context.Context) []models.RawPositionRecord
}

// QuoteService resolves a live price through the source priority chain.
type QuoteService interface {
	// Resolve attempts scrape then market-data fallback. It returns
	// ErrResolutionFailed (wrapped) when every source fails; the caller falls
	// back to the feed-declared price. Safe for concurrent use.
	Resolve(ctx context.Context, ticker string, class models.AssetClass) (*models.PriceQuote, error)
}

// QuoteCache is the read side of the price cache used on the request path.
// Get never blocks on network I/O.
type QuoteCache interface {
	// Get returns the cached quote for a ticker, if any, regardless of its
	// freshness state. The returned quote's Source is "cache".
	Get(ticker string) (models.PriceQuote, bool)
}

// PortfolioService builds and serves reconciled portfolio snapshots.
type PortfolioService interface {
	// BuildSnapshot loads the feeds, reconciles against cached quotes,
	// computes derived metrics and persists the result as last-known-good.
	BuildSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error)

	// LatestSnapshot returns the most recent successfully built snapshot,
	// falling back to the persisted copy after a restart.
	LatestSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error)
}

// RadarService classifies snapshot positions against threshold rules.
type RadarService interface {
	// Classify tags every position and produces the ranked shortlists.
	// It is deterministic and stateless.
	Classify(snapshot *models.PortfolioSnapshot) *models.RadarReport
}

// ReportService generates the narrative morning-call report and exports.
type ReportService interface {
	// GenerateMorningCall builds the report for a snapshot. On narrative
	// service failure it degrades to a canned fallback body; it never
	// returns a page-breaking error.
	GenerateMorningCall(ctx context.Context, snapshot *models.PortfolioSnapshot, radar *models.RadarReport) *models.MorningCallReport

	// ExportSnapshotCSV renders the flattened tabular dump of the snapshot
	// plus the two scalar totals for the downstream email job.
	ExportSnapshotCSV(snapshot *models.PortfolioSnapshot) []byte
}
