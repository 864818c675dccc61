// Package report generates the narrative morning-call report and the
// snapshot CSV export.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/interfaces"
	"github.com/dpaiva/carteira/internal/models"
)

const DefaultMaxRetries = 2

// Service implements ReportService
type Service struct {
	gemini     interfaces.GeminiClient
	store      interfaces.SnapshotStore
	logger     *common.Logger
	maxRetries int
	now        func() time.Time
}

// NewService creates a new report service. gemini may be nil — the canned
// fallback narrative is then always used. store may be nil — reports are
// not persisted.
func NewService(gemini interfaces.GeminiClient, store interfaces.SnapshotStore, maxRetries int, logger *common.Logger) *Service {
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Service{
		gemini:     gemini,
		store:      store,
		logger:     logger,
		maxRetries: maxRetries,
		now:        time.Now,
	}
}

// GenerateMorningCall builds the morning-call report for a snapshot. A
// failed narrative generation degrades to the canned fallback body; the
// report is always renderable and this method never returns an error.
func (s *Service) GenerateMorningCall(ctx context.Context, snapshot *models.PortfolioSnapshot, radar *models.RadarReport) *models.MorningCallReport {
	now := s.now()

	narrative, fallback := s.generateNarrative(ctx, snapshot, radar)

	report := &models.MorningCallReport{
		GeneratedAt: now,
		Subject:     fmt.Sprintf("Morning Call: %s", common.FormatBRL(snapshot.TotalMarketValue)),
		Narrative:   narrative,
		HTMLBody:    renderHTML(narrative, snapshot, now),
		Fallback:    fallback,
	}

	if s.store != nil {
		if err := s.store.SaveMorningCall(ctx, report); err != nil {
			s.logger.Warn().Err(err).Msg("failed to persist morning call")
		}
	}

	return report
}

// generateNarrative calls the generation service with a scripted retry and
// reports whether the fallback body was used.
func (s *Service) generateNarrative(ctx context.Context, snapshot *models.PortfolioSnapshot, radar *models.RadarReport) (string, bool) {
	if s.gemini == nil {
		return fallbackNarrative, true
	}

	prompt := buildPrompt(snapshot, radar)

	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		text, err := s.gemini.GenerateContent(ctx, prompt)
		if err == nil && text != "" {
			return cleanNarrative(text), false
		}
		lastErr = err
		s.logger.Warn().
			Err(err).
			Int("attempt", attempt+1).
			Msg("narrative generation failed")
	}

	s.logger.Error().Err(lastErr).Msg("narrative generation exhausted retries, using fallback")
	return fallbackNarrative, true
}

// ExportSnapshotCSV renders the flattened snapshot for the downstream email
// job: one row per position plus two scalar totals.
func (s *Service) ExportSnapshotCSV(snapshot *models.PortfolioSnapshot) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write([]string{
		"ticker", "class", "quantity", "avg_cost", "current_price",
		"book_value_per_unit", "trailing_yield", "market_value",
		"invested_capital", "unrealized_gain", "valuation_ratio",
		"portfolio_weight", "price_source",
	})

	for _, p := range snapshot.Positions {
		w.Write([]string{
			p.Ticker,
			string(p.Class),
			strconv.FormatFloat(p.Quantity, 'f', -1, 64),
			strconv.FormatFloat(p.AvgCost, 'f', 2, 64),
			strconv.FormatFloat(p.CurrentPrice, 'f', 2, 64),
			strconv.FormatFloat(p.BookValuePerUnit, 'f', 2, 64),
			strconv.FormatFloat(p.TrailingYield, 'f', 4, 64),
			strconv.FormatFloat(p.Metrics.MarketValue, 'f', 2, 64),
			strconv.FormatFloat(p.Metrics.InvestedCapital, 'f', 2, 64),
			strconv.FormatFloat(p.Metrics.UnrealizedGain, 'f', 2, 64),
			strconv.FormatFloat(p.Metrics.ValuationRatio, 'f', 4, 64),
			strconv.FormatFloat(p.Metrics.PortfolioWeight, 'f', 4, 64),
			string(p.PriceSource),
		})
	}

	w.Write([]string{"TOTAL_MARKET_VALUE", strconv.FormatFloat(snapshot.TotalMarketValue, 'f', 2, 64)})
	w.Write([]string{"TOTAL_INVESTED", strconv.FormatFloat(snapshot.TotalInvested, 'f', 2, 64)})
	w.Flush()

	return buf.Bytes()
}

// Ensure Service implements ReportService
var _ interfaces.ReportService = (*Service)(nil)
