package report

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/models"
)

type stubGemini struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (s *stubGemini) GenerateContent(ctx context.Context, prompt string) (string, error) {
	i := s.calls
	s.calls++
	s.prompts = append(s.prompts, prompt)
	var text string
	var err error
	if i < len(s.responses) {
		text = s.responses[i]
	}
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return text, err
}

func testSnapshot() *models.PortfolioSnapshot {
	return &models.PortfolioSnapshot{
		Positions: []models.AssetPosition{
			{
				Ticker:        "HGLG11",
				Class:         models.AssetClassFund,
				Quantity:      100,
				AvgCost:       150.0,
				CurrentPrice:  160.50,
				TrailingYield: 0.095,
				PriceSource:   models.QuoteSourceCache,
				Metrics: models.DerivedMetrics{
					MarketValue:     16050.0,
					InvestedCapital: 15000.0,
					UnrealizedGain:  1050.0,
					ValuationRatio:  1.0341,
					PortfolioWeight: 1.0,
				},
			},
		},
		TotalMarketValue: 16050.0,
		TotalInvested:    15000.0,
		TotalGain:        1050.0,
		MeanFundYield:    0.095,
		GeneratedAt:      time.Date(2026, 1, 15, 7, 0, 0, 0, time.UTC),
	}
}

func TestGenerateMorningCall(t *testing.T) {
	gemini := &stubGemini{responses: []string{"<b>Diagnóstico:</b> carteira saudável."}}
	svc := NewService(gemini, nil, 2, common.NewSilentLogger())
	svc.now = func() time.Time { return time.Date(2026, 1, 15, 7, 0, 0, 0, time.UTC) }

	report := svc.GenerateMorningCall(context.Background(), testSnapshot(), nil)
	require.NotNil(t, report)

	assert.False(t, report.Fallback)
	assert.Equal(t, "Morning Call: R$ 16.050,00", report.Subject)
	assert.Equal(t, "<b>Diagnóstico:</b> carteira saudável.", report.Narrative)
	assert.Contains(t, report.HTMLBody, "carteira saudável")
	assert.Contains(t, report.HTMLBody, "R$ 16.050,00")
	assert.Contains(t, report.HTMLBody, "15/01/2026")

	// the prompt carries the compact summary and totals
	require.Len(t, gemini.prompts, 1)
	assert.Contains(t, gemini.prompts[0], "HGLG11")
	assert.Contains(t, gemini.prompts[0], "Patrimônio Total: R$ 16.050,00")
}

func TestGenerateMorningCallPromptCarriesShortlists(t *testing.T) {
	gemini := &stubGemini{responses: []string{"<b>ok</b>"}}
	svc := NewService(gemini, nil, 0, common.NewSilentLogger())

	radar := &models.RadarReport{
		Opportunities: []models.Opportunity{
			{Ticker: "XPML11", ValuationRatio: 0.85, TrailingYield: 0.12, SuggestedTopUp: 2000},
		},
		Alerts: []models.Alert{
			{Ticker: "KNRI11", ValuationRatio: 1.25, Reasons: []string{models.ReasonExpensive}},
		},
	}
	svc.GenerateMorningCall(context.Background(), testSnapshot(), radar)

	require.Len(t, gemini.prompts, 1)
	assert.Contains(t, gemini.prompts[0], "XPML11")
	assert.Contains(t, gemini.prompts[0], "R$ 2.000,00")
	assert.Contains(t, gemini.prompts[0], "KNRI11")
	assert.Contains(t, gemini.prompts[0], "expensive")
}

func TestGenerateMorningCallStripsCodeFences(t *testing.T) {
	gemini := &stubGemini{responses: []string{"```html\n<b>ok</b>\n```"}}
	svc := NewService(gemini, nil, 0, common.NewSilentLogger())

	report := svc.GenerateMorningCall(context.Background(), testSnapshot(), nil)
	assert.Equal(t, "<b>ok</b>", report.Narrative)
}

func TestGenerateMorningCallRetriesThenSucceeds(t *testing.T) {
	gemini := &stubGemini{
		responses: []string{"", "<b>ok</b>"},
		errs:      []error{errors.New("quota exceeded"), nil},
	}
	svc := NewService(gemini, nil, 2, common.NewSilentLogger())

	report := svc.GenerateMorningCall(context.Background(), testSnapshot(), nil)
	assert.False(t, report.Fallback)
	assert.Equal(t, 2, gemini.calls)
}

func TestGenerateMorningCallFallback(t *testing.T) {
	gemini := &stubGemini{errs: []error{
		errors.New("unavailable"), errors.New("unavailable"), errors.New("unavailable"),
	}}
	svc := NewService(gemini, nil, 2, common.NewSilentLogger())

	report := svc.GenerateMorningCall(context.Background(), testSnapshot(), nil)
	require.NotNil(t, report, "fallback must still produce a report")

	assert.True(t, report.Fallback)
	assert.Equal(t, 3, gemini.calls, "initial attempt plus two retries")
	assert.Contains(t, report.Narrative, "indisponível")
	assert.Contains(t, report.HTMLBody, "R$ 16.050,00", "totals render even without a narrative")
}

func TestGenerateMorningCallNoClient(t *testing.T) {
	svc := NewService(nil, nil, 2, common.NewSilentLogger())
	report := svc.GenerateMorningCall(context.Background(), testSnapshot(), nil)
	assert.True(t, report.Fallback)
}

func TestExportSnapshotCSV(t *testing.T) {
	svc := NewService(nil, nil, 0, common.NewSilentLogger())
	out := string(svc.ExportSnapshotCSV(testSnapshot()))

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4, "header, one position, two totals")

	assert.Contains(t, lines[0], "ticker,class,quantity")
	assert.Contains(t, lines[1], "HGLG11,fund,100,150.00,160.50")
	assert.Contains(t, lines[1], "cache")
	assert.Equal(t, "TOTAL_MARKET_VALUE,16050.00", lines[2])
	assert.Equal(t, "TOTAL_INVESTED,15000.00", lines[3])
}

func TestSummaryCSVOnlyFunds(t *testing.T) {
	snap := testSnapshot()
	snap.Positions = append(snap.Positions, models.AssetPosition{
		Ticker: "TESOURO IPCA",
		Class:  models.AssetClassOther,
	})

	out := summaryCSV(snap)
	assert.Contains(t, out, "HGLG11")
	assert.NotContains(t, out, "TESOURO", "prompt summary covers funds only")
}
