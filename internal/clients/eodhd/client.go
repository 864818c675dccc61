// Package eodhd provides a client for the EODHD API, used as the market
// data fallback when page scraping fails.
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/interfaces"
	"github.com/dpaiva/carteira/internal/models"
)

const (
	DefaultBaseURL        = "https://eodhd.com/api"
	DefaultTimeout        = 10 * time.Second
	DefaultRateLimit      = 10 // requests per second
	DefaultExchangeSuffix = "SA"
)

// Client implements the MarketDataClient interface
type Client struct {
	baseURL        string
	apiKey         string
	exchangeSuffix string
	httpClient     *http.Client
	logger         *common.Logger
	limiter        *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithExchangeSuffix sets the exchange suffix appended to tickers
func WithExchangeSuffix(suffix string) ClientOption {
	return func(c *Client) {
		c.exchangeSuffix = strings.TrimPrefix(suffix, ".")
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		apiKey:         apiKey,
		exchangeSuffix: DefaultExchangeSuffix,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string  `json:"date"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Close         float64 `json:"close"`
	AdjustedClose float64 `json:"adjusted_close"`
	Volume        int64   `json:"volume"`
}

// GetLastClose retrieves the most recent closing price for a ticker. The
// configured exchange suffix is appended before querying.
func (c *Client) GetLastClose(ctx context.Context, ticker string) (*models.PriceQuote, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	if c.exchangeSuffix != "" {
		symbol = symbol + "." + c.exchangeSuffix
	}

	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "d") // descending (most recent first)
	params.Set("from", time.Now().AddDate(0, 0, -7).Format("2006-01-02"))

	path := fmt.Sprintf("/eod/%s", symbol)

	var bars []eodBarResponse
	if err := c.get(ctx, path, params, &bars); err != nil {
		return nil, err
	}

	if len(bars) == 0 {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    "no price bars returned",
			Endpoint:   path,
		}
	}

	bar := bars[0]
	if bar.Close <= 0 {
		return nil, &APIError{
			StatusCode: http.StatusOK,
			Message:    "latest bar has no close price",
			Endpoint:   path,
		}
	}

	fetchedAt := time.Now()
	if date, err := time.Parse("2006-01-02", bar.Date); err == nil {
		fetchedAt = date
	}

	return &models.PriceQuote{
		Ticker:    strings.ToUpper(strings.TrimSpace(ticker)),
		Value:     bar.Close,
		Source:    models.QuoteSourceMarketAPI,
		FetchedAt: fetchedAt,
	}, nil
}

// Ensure Client implements MarketDataClient
var _ interfaces.MarketDataClient = (*Client)(nil)
