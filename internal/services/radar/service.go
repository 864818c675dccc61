// Package radar classifies portfolio positions against threshold rules.
package radar

import (
	"sort"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/interfaces"
	"github.com/dpaiva/carteira/internal/models"
)

// Service implements RadarService. Classification is deterministic and
// stateless: thresholds come from config, aggregates from the snapshot.
type Service struct {
	cfg    common.RadarConfig
	logger *common.Logger
}

// NewService creates a new radar service
func NewService(cfg common.RadarConfig, logger *common.Logger) *Service {
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

// Classify tags every position and produces the ranked shortlists.
// Only fund-class positions are evaluated against the rules; equities and
// fixed-value holdings carry no valuation indicators and stay neutral.
func (s *Service) Classify(snapshot *models.PortfolioSnapshot) *models.RadarReport {
	report := &models.RadarReport{
		GeneratedAt:    snapshot.GeneratedAt,
		MeanFundYield:  snapshot.MeanFundYield,
		MeanFundWeight: meanFundWeight(snapshot),
	}

	for _, p := range snapshot.Positions {
		tag := models.ClassificationTag{
			Ticker:   p.Ticker,
			Class:    p.Class,
			Category: models.CategoryNeutral,
		}

		if p.Class == models.AssetClassFund {
			if reasons := s.alertReasons(&p, report.MeanFundYield); len(reasons) > 0 {
				tag.Category = models.CategoryAlert
				tag.Reasons = reasons
				report.Alerts = append(report.Alerts, models.Alert{
					Ticker:         p.Ticker,
					ValuationRatio: p.Metrics.ValuationRatio,
					TrailingYield:  p.TrailingYield,
					MarketValue:    p.Metrics.MarketValue,
					Reasons:        reasons,
				})
			} else if s.isOpportunity(&p, report.MeanFundWeight) {
				tag.Category = models.CategoryOpportunity
				report.Opportunities = append(report.Opportunities, models.Opportunity{
					Ticker:          p.Ticker,
					ValuationRatio:  p.Metrics.ValuationRatio,
					TrailingYield:   p.TrailingYield,
					PortfolioWeight: p.Metrics.PortfolioWeight,
					MarketValue:     p.Metrics.MarketValue,
					SuggestedTopUp:  suggestedTopUp(&p, snapshot.TotalMarketValue, report.MeanFundWeight),
				})
			}
		}

		report.Tags = append(report.Tags, tag)
	}

	// opportunities: cheapest first; alerts: largest exposure first
	sort.SliceStable(report.Opportunities, func(i, j int) bool {
		return report.Opportunities[i].ValuationRatio < report.Opportunities[j].ValuationRatio
	})
	sort.SliceStable(report.Alerts, func(i, j int) bool {
		return report.Alerts[i].MarketValue > report.Alerts[j].MarketValue
	})

	if size := s.cfg.ShortlistSize; size > 0 {
		if len(report.Opportunities) > size {
			report.Opportunities = report.Opportunities[:size]
		}
		if len(report.Alerts) > size {
			report.Alerts = report.Alerts[:size]
		}
	}

	s.logger.Debug().
		Int("opportunities", len(report.Opportunities)).
		Int("alerts", len(report.Alerts)).
		Msg("radar classification complete")

	return report
}

// isOpportunity: valuation ratio inside the discount band, yield above the
// floor, and under-allocated relative to the fund-class mean weight.
func (s *Service) isOpportunity(p *models.AssetPosition, meanWeight float64) bool {
	ratio := p.Metrics.ValuationRatio
	return ratio >= s.cfg.OpportunityRatioLow &&
		ratio <= s.cfg.OpportunityRatioHigh &&
		p.TrailingYield > s.cfg.OpportunityYieldMin &&
		p.Metrics.PortfolioWeight < meanWeight
}

// alertReasons accumulates every triggered alert rule, in rule order.
func (s *Service) alertReasons(p *models.AssetPosition, meanYield float64) []string {
	var reasons []string

	if p.Metrics.ValuationRatio > s.cfg.AlertRatioMax {
		reasons = append(reasons, models.ReasonExpensive)
	}
	if meanYield > 0 && p.TrailingYield < s.cfg.LowYieldFactor*meanYield {
		reasons = append(reasons, models.ReasonLowYield)
	}
	if r := p.Metrics.ValuationRatio; r > 0 && r < s.cfg.ValueTrapRatioMax && p.TrailingYield < s.cfg.ValueTrapYieldMax {
		reasons = append(reasons, models.ReasonValueTrap)
	}

	return reasons
}

// suggestedTopUp sizes an advisory contribution that would bring the
// position up to the mean fund weight. Never negative.
func suggestedTopUp(p *models.AssetPosition, totalValue, meanWeight float64) float64 {
	target := totalValue * meanWeight
	topUp := target - p.Metrics.MarketValue
	if topUp < 0 {
		return 0
	}
	return topUp
}

// meanFundWeight is the simple average portfolio weight across fund-class
// positions.
func meanFundWeight(snapshot *models.PortfolioSnapshot) float64 {
	var sum float64
	var count int
	for _, p := range snapshot.Positions {
		if p.Class == models.AssetClassFund {
			sum += p.Metrics.PortfolioWeight
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// Ensure Service implements RadarService
var _ interfaces.RadarService = (*Service)(nil)
