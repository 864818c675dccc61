// Package interfaces defines service contracts for Carteira
package interfaces

import (
	"context"

	"github.com/dpaiva/carteira/internal/models"
)

// SnapshotStore persists the last-known-good snapshot and generated reports
// so the dashboard stays renderable across partially failed cycles and
// process restarts.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error
	GetSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error)

	SaveMorningCall(ctx context.Context, report *models.MorningCallReport) error
	GetMorningCall(ctx context.Context) (*models.MorningCallReport, error)

	Close() error
}
