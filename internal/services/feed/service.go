// Package feed loads and parses the published position feeds
package feed

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"time"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/interfaces"
	"github.com/dpaiva/carteira/internal/models"
)

const DefaultTimeout = 20 * time.Second

// Service implements FeedService over two published CSV URLs: the tabular
// sheet channel and the free-form manual channel.
type Service struct {
	sheetURL   string
	manualURL  string
	columns    SheetColumns
	httpClient *http.Client
	logger     *common.Logger
}

// NewService creates a new feed service. manualURL may be empty — the manual
// channel is then skipped entirely.
func NewService(sheetURL, manualURL string, columns SheetColumns, timeout time.Duration, logger *common.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		sheetURL:  sheetURL,
		manualURL: manualURL,
		columns:   columns,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// LoadAll fetches and parses both channels and returns the union of their
// records. A failed channel degrades to an empty list with a warning; the
// other channel is still processed.
func (s *Service) LoadAll(ctx context.Context) []models.RawPositionRecord {
	var records []models.RawPositionRecord

	sheetRows, err := s.fetchCSV(ctx, s.sheetURL)
	if err != nil {
		s.logger.Warn().Err(err).Msg("sheet feed unavailable, continuing without it")
	} else {
		parsed := ParseSheetRows(sheetRows, s.columns)
		s.logger.Debug().Int("rows", len(sheetRows)).Int("records", len(parsed)).Msg("parsed sheet feed")
		records = append(records, parsed...)
	}

	if s.manualURL != "" {
		manualRows, err := s.fetchCSV(ctx, s.manualURL)
		if err != nil {
			s.logger.Warn().Err(err).Msg("manual feed unavailable, continuing without it")
		} else {
			parsed := ParseManualRows(manualRows)
			s.logger.Debug().Int("rows", len(manualRows)).Int("records", len(parsed)).Msg("parsed manual feed")
			records = append(records, parsed...)
		}
	}

	return records
}

// fetchCSV downloads and decodes one CSV document.
func (s *Service) fetchCSV(ctx context.Context, feedURL string) ([][]string, error) {
	if feedURL == "" {
		return nil, fmt.Errorf("feed URL not configured")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	reader := csv.NewReader(resp.Body)
	reader.FieldsPerRecord = -1 // sheet exports have ragged rows
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to decode feed CSV: %w", err)
	}

	return rows, nil
}

// Ensure Service implements FeedService
var _ interfaces.FeedService = (*Service)(nil)
