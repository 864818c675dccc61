// Package app wires configuration, clients, services and background jobs
// into a single shared core.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dpaiva/carteira/internal/cache"
	"github.com/dpaiva/carteira/internal/clients/eodhd"
	"github.com/dpaiva/carteira/internal/clients/gemini"
	"github.com/dpaiva/carteira/internal/clients/investidor10"
	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/interfaces"
	"github.com/dpaiva/carteira/internal/services/feed"
	"github.com/dpaiva/carteira/internal/services/portfolio"
	"github.com/dpaiva/carteira/internal/services/quote"
	"github.com/dpaiva/carteira/internal/services/radar"
	"github.com/dpaiva/carteira/internal/services/report"
	"github.com/dpaiva/carteira/internal/storage"
)

// App holds all initialized services, clients and background jobs. It is
// the shared core used by cmd/carteira-server.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Store            interfaces.SnapshotStore
	QuoteCache       *cache.QuoteCache
	FeedService      interfaces.FeedService
	QuoteService     interfaces.QuoteService
	PortfolioService interfaces.PortfolioService
	RadarService     interfaces.RadarService
	ReportService    interfaces.ReportService
	StartupTime      time.Time

	cron            *cron.Cron
	warmCacheCancel context.CancelFunc
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, storage, clients and services.
// configPath may be empty, in which case the default resolution logic is used.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	// Load configuration - provided path, CARTEIRA_CONFIG, binary dir, then fallback
	if configPath == "" {
		configPath = os.Getenv("CARTEIRA_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "carteira.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/carteira.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// Resolve relative storage path to binary directory
	if config.Storage.Path != "" && !filepath.IsAbs(config.Storage.Path) {
		config.Storage.Path = filepath.Join(binDir, config.Storage.Path)
	}

	logger := common.NewLogger(config.Logging.Level)

	store, err := storage.NewFileStore(logger, config.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// Initialize API clients
	scraper := investidor10.NewClient(
		investidor10.WithBaseURL(config.Clients.Investidor10.BaseURL),
		investidor10.WithLogger(logger),
		investidor10.WithRateLimit(config.Clients.Investidor10.RateLimit),
		investidor10.WithTimeout(config.Clients.Investidor10.GetTimeout()),
		investidor10.WithMaxRetries(config.Clients.Investidor10.MaxRetries),
	)

	var marketData interfaces.MarketDataClient
	if config.Clients.EODHD.APIKey != "" {
		marketData = eodhd.NewClient(config.Clients.EODHD.APIKey,
			eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
			eodhd.WithExchangeSuffix(config.Clients.EODHD.ExchangeSuffix),
		)
	} else {
		logger.Warn().Msg("EODHD API key not configured - market data fallback will be unavailable")
	}

	var geminiClient interfaces.GeminiClient
	if config.Clients.Gemini.APIKey != "" {
		client, err := gemini.NewClient(context.Background(), config.Clients.Gemini.APIKey,
			gemini.WithLogger(logger),
			gemini.WithModel(config.Clients.Gemini.Model),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize Gemini client - reports will use the fallback body")
		} else {
			geminiClient = client
		}
	} else {
		logger.Warn().Msg("Gemini API key not configured - reports will use the fallback body")
	}

	// Initialize cache and services
	quoteCache := cache.NewQuoteCache(config.Cache.GetTTL())

	feedService := feed.NewService(
		config.Feeds.SheetURL,
		config.Feeds.ManualURL,
		feed.SheetColumns{
			Ticker:    config.Feeds.Columns.Ticker,
			Quantity:  config.Feeds.Columns.Quantity,
			Price:     config.Feeds.Columns.Price,
			AvgCost:   config.Feeds.Columns.AvgCost,
			BookValue: config.Feeds.Columns.BookValue,
			Yield:     config.Feeds.Columns.Yield,
		},
		config.Feeds.GetTimeout(),
		logger,
	)
	quoteService := quote.NewService(scraper, marketData, logger)
	portfolioService := portfolio.NewService(feedService, quoteCache, store, logger)
	radarService := radar.NewService(config.Radar, logger)
	reportService := report.NewService(geminiClient, store, config.Clients.Gemini.MaxRetries, logger)

	a := &App{
		Config:           config,
		Logger:           logger,
		Store:            store,
		QuoteCache:       quoteCache,
		FeedService:      feedService,
		QuoteService:     quoteService,
		PortfolioService: portfolioService,
		RadarService:     radarService,
		ReportService:    reportService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// Close releases all resources held by the App.
// Shutdown order: stop scheduler, cancel warm cache, close storage.
func (a *App) Close() {
	if a.cron != nil {
		a.cron.Stop()
		a.cron = nil
	}
	if a.warmCacheCancel != nil {
		a.warmCacheCancel()
		a.warmCacheCancel = nil
	}
	if a.Store != nil {
		a.Store.Close()
		a.Store = nil
	}
}

// StartWarmCache launches the background cache warming goroutine: an
// initial refresh cycle so the first page load already has live prices.
func (a *App) StartWarmCache() {
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 15*time.Minute)
	a.warmCacheCancel = warmCancel
	go func() {
		defer warmCancel()
		a.refreshCycle(warmCtx)
	}()
}

// StartRefreshScheduler launches the cron-driven background refresh.
func (a *App) StartRefreshScheduler() error {
	c := cron.New()
	_, err := c.AddFunc(a.Config.Cache.RefreshSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		a.refreshCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule refresh job: %w", err)
	}
	c.Start()
	a.cron = c

	a.Logger.Info().Str("schedule", a.Config.Cache.RefreshSchedule).Msg("refresh scheduler started")
	return nil
}
