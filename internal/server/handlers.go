package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/dpaiva/carteira/internal/common"
	"github.com/dpaiva/carteira/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
	})
}

// handleConfig handles GET /api/config. Secrets are masked.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	cfg := s.app.Config
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"environment": cfg.Environment,
		"feeds": map[string]interface{}{
			"sheet_url":  cfg.Feeds.SheetURL,
			"manual_url": cfg.Feeds.ManualURL,
		},
		"cache": map[string]interface{}{
			"ttl":              cfg.Cache.TTL,
			"refresh_schedule": cfg.Cache.RefreshSchedule,
		},
		"radar": cfg.Radar,
		"clients": map[string]interface{}{
			"eodhd_configured":  cfg.Clients.EODHD.APIKey != "",
			"gemini_configured": cfg.Clients.Gemini.APIKey != "",
		},
	})
}

// handleSnapshot handles GET /api/snapshot.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshot, err := s.app.PortfolioService.LatestSnapshot(r.Context())
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

// handleSnapshotRefresh handles POST /api/snapshot/refresh: a full
// synchronous refresh cycle (feeds, quotes, rebuild).
func (s *Server) handleSnapshotRefresh(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	s.app.RefreshNow(r.Context())

	snapshot, err := s.app.PortfolioService.LatestSnapshot(r.Context())
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

// handleSnapshotExport handles GET /api/snapshot/export (CSV download).
func (s *Server) handleSnapshotExport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshot, err := s.app.PortfolioService.LatestSnapshot(r.Context())
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	data := s.app.ReportService.ExportSnapshotCSV(snapshot)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="carteira-`+time.Now().Format("2006-01-02")+`.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleRadar handles GET /api/radar.
func (s *Server) handleRadar(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	snapshot, err := s.app.PortfolioService.LatestSnapshot(r.Context())
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, s.app.RadarService.Classify(snapshot))
}

// handleQuote handles GET /api/quotes/{ticker}. The cached quote is
// returned by default; ?live=true forces a resolution through the source
// chain and updates the cache.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	ticker := strings.ToUpper(PathParam(r, "/api/quotes/", ""))
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	class := models.AssetClassEquity
	if models.IsFundTicker(ticker) {
		class = models.AssetClassFund
	}

	if r.URL.Query().Get("live") == "true" {
		quote, err := s.app.QuoteService.Resolve(r.Context(), ticker, class)
		if err != nil {
			WriteError(w, http.StatusBadGateway, err.Error())
			return
		}
		s.app.QuoteCache.Put(*quote)
		WriteJSON(w, http.StatusOK, quote)
		return
	}

	quote, ok := s.app.QuoteCache.Get(ticker)
	if !ok {
		WriteError(w, http.StatusNotFound, "No cached quote for "+ticker)
		return
	}
	WriteJSON(w, http.StatusOK, quote)
}

// handleMorningCall handles GET/POST /api/reports/morning-call. Generation
// degrades to the canned fallback body; this endpoint only fails when no
// snapshot exists at all.
func (s *Server) handleMorningCall(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}

	snapshot, err := s.app.PortfolioService.LatestSnapshot(r.Context())
	if err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	radar := s.app.RadarService.Classify(snapshot)
	report := s.app.ReportService.GenerateMorningCall(r.Context(), snapshot, radar)
	WriteJSON(w, http.StatusOK, report)
}
