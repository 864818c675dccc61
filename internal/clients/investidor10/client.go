// Package investidor10 provides a scraping client for investidor10.com.br
// quote pages.
package investidor10

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/time/rate"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/interfaces"
	"github.com/dpaiva/carteira/internal/models"
)

const (
	DefaultBaseURL    = "https://investidor10.com.br"
	DefaultTimeout    = 15 * time.Second
	DefaultRateLimit  = 1 // requests per second
	DefaultMaxRetries = 3

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// retryBaseDelay is doubled on each failed attempt.
const retryBaseDelay = 500 * time.Millisecond

// cotacaoPattern is the last-resort extraction when the page markup has
// drifted from both known layouts.
var cotacaoPattern = regexp.MustCompile(`(?i)Cota[çc][ãa]o[^R]{0,80}R\$\s*([\d.,]+)`)

// Client implements the QuotePageClient interface against investidor10
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	maxRetries int
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
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
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithMaxRetries sets how many times a retryable status is re-attempted
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// NewClient creates a new investidor10 scraping client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		logger:     common.NewSilentLogger(),
		maxRetries: DefaultMaxRetries,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ScrapeError represents a failed page fetch or extraction
type ScrapeError struct {
	StatusCode int
	Ticker     string
	Message    string
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("investidor10 scrape error: %s (status: %d, ticker: %s)", e.Message, e.StatusCode, e.Ticker)
}

// pagePath returns the quote page path for a ticker. Funds and equities
// live under different sections of the site.
func pagePath(ticker string, class models.AssetClass) string {
	if class == models.AssetClassFund {
		return fmt.Sprintf("/fiis/%s/", strings.ToLower(ticker))
	}
	return fmt.Sprintf("/acoes/%s/", strings.ToLower(ticker))
}

// FetchQuote retrieves the current price for a ticker from its quote page,
// plus book value per unit and trailing yield when the page publishes them.
func (c *Client) FetchQuote(ctx context.Context, ticker string, class models.AssetClass) (*models.PriceQuote, error) {
	if !class.Tradable() {
		return nil, fmt.Errorf("asset class %q has no quote page", class)
	}

	body, err := c.getPage(ctx, ticker, pagePath(ticker, class))
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse quote page: %w", err)
	}

	price := extractPrice(doc, body)
	if price <= 0 {
		return nil, &ScrapeError{Ticker: ticker, Message: "price not found on page"}
	}

	quote := &models.PriceQuote{
		Ticker:    strings.ToUpper(strings.TrimSpace(ticker)),
		Value:     price,
		Source:    models.QuoteSourceScrape,
		FetchedAt: time.Now(),
	}

	if class == models.AssetClassFund {
		indicators := extractIndicators(doc)
		quote.BookValuePerUnit = indicators.bookValue
		quote.TrailingYield = common.NormalizeYield(indicators.dividendYield)
	}

	c.logger.Debug().
		Str("ticker", quote.Ticker).
		Float64("price", quote.Value).
		Msg("scraped quote")

	return quote, nil
}

// getPage performs a rate-limited GET with retries on transient statuses.
func (c *Client) getPage(ctx context.Context, ticker, path string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := retryBaseDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Language", "pt-BR,pt;q=0.9")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("failed to execute request: %w", err)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			if readErr != nil {
				lastErr = fmt.Errorf("failed to read response: %w", readErr)
				continue
			}
			return string(body), nil
		case retryableStatus(resp.StatusCode):
			lastErr = &ScrapeError{StatusCode: resp.StatusCode, Ticker: ticker, Message: "transient status"}
			c.logger.Warn().
				Str("ticker", ticker).
				Int("status", resp.StatusCode).
				Int("attempt", attempt+1).
				Msg("retrying quote page fetch")
			continue
		default:
			return "", &ScrapeError{StatusCode: resp.StatusCode, Ticker: ticker, Message: "unexpected status"}
		}
	}

	return "", fmt.Errorf("quote page fetch exhausted retries: %w", lastErr)
}

func retryableStatus(code int) bool {
	switch code {
	case http.StatusForbidden, http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusBadGateway:
		return true
	}
	return false
}

// extractPrice tries the known page layouts in order: the quote card, the
// indicators table, then a raw regex over the document.
func extractPrice(doc *html.Node, raw string) float64 {
	if card := findByClass(doc, "_card", "cotacao"); card != nil {
		if span := findByClass(card, "value"); span != nil {
			if v := common.ParseDecimal(textContent(span)); v > 0 {
				return v
			}
		}
	}

	if table := findByID(doc, "table-indicators"); table != nil {
		if cell := findByClass(table, "value"); cell != nil {
			if v := common.ParseDecimal(textContent(cell)); v > 0 {
				return v
			}
		}
	}

	if m := cotacaoPattern.FindStringSubmatch(raw); len(m) == 2 {
		return common.ParseDecimal(m[1])
	}

	return 0
}

type fundIndicators struct {
	bookValue     float64
	dividendYield float64
}

// extractIndicators pulls book value per unit and trailing yield from the
// indicators table. Labels follow the site's pt-BR wording.
func extractIndicators(doc *html.Node) fundIndicators {
	var out fundIndicators

	table := findByID(doc, "table-indicators")
	if table == nil {
		return out
	}

	cells := collectByClass(table, "cell")
	for _, cell := range cells {
		label := strings.ToUpper(textContent(cell))
		value := findByClass(cell, "value")
		if value == nil {
			continue
		}
		switch {
		case strings.Contains(label, "VAL. PATRIMONIAL P/ COTA"),
			strings.Contains(label, "VALOR PATRIMONIAL"):
			out.bookValue = common.ParseDecimal(textContent(value))
		case strings.Contains(label, "DY"):
			out.dividendYield = common.ParseDecimal(textContent(value))
		}
	}

	return out
}

// findByID walks the node tree for the element with the given id.
func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode {
		for _, a := range n.Attr {
			if a.Key == "id" && a.Val == id {
				return n
			}
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByID(child, id); found != nil {
			return found
		}
	}
	return nil
}

// findByClass returns the first element whose class attribute contains
// every given class token.
func findByClass(n *html.Node, classes ...string) *html.Node {
	if n.Type == html.ElementNode && hasClasses(n, classes) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByClass(child, classes...); found != nil {
			return found
		}
	}
	return nil
}

// collectByClass returns every element carrying all given class tokens.
func collectByClass(n *html.Node, classes ...string) []*html.Node {
	var out []*html.Node
	if n.Type == html.ElementNode && hasClasses(n, classes) {
		out = append(out, n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		out = append(out, collectByClass(child, classes...)...)
	}
	return out
}

func hasClasses(n *html.Node, classes []string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		tokens := strings.Fields(a.Val)
		for _, want := range classes {
			found := false
			for _, tok := range tokens {
				if tok == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	return false
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

// Ensure Client implements QuotePageClient
var _ interfaces.QuotePageClient = (*Client)(nil)
