// Package interfaces defines service contracts for Carteira
package interfaces

import (
	"context"

	"github.com/dpaiva/carteira/internal/models"
)

// QuotePageClient scrapes a public quote page for a current price.
// Implementations must be safe for concurrent use; each call is independent
// and stateless.
type QuotePageClient interface {
	// FetchQuote retrieves the current price (and, for funds, book value and
	// yield when the page publishes them) for a ticker.
	FetchQuote(ctx context.Context, ticker string, class models.AssetClass) (*models.PriceQuote, error)
}

// MarketDataClient queries a market-data time-series API.
type MarketDataClient interface {
	// GetLastClose retrieves the most recent closing price for a ticker.
	// The exchange suffix is appended by the implementation.
	GetLastClose(ctx context.Context, ticker string) (*models.PriceQuote, error)
}

// GeminiClient provides access to the text-generation API.
type GeminiClient interface {
	// GenerateContent generates AI content from a prompt
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
