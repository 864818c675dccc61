package eodhd

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpaiva/carteira/internal/models"
)

func TestGetLastClose(t *testing.T) {
	var gotPath, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.URL.Query().Get("api_token")
		w.Write([]byte(`[
			{"date":"2026-01-15","open":159.0,"high":161.0,"low":158.5,"close":160.50,"adjusted_close":160.50,"volume":12345},
			{"date":"2026-01-14","open":158.0,"high":160.0,"low":157.0,"close":158.90,"adjusted_close":158.90,"volume":9876}
		]`))
	}))
	defer srv.Close()

	c := NewClient("demo-key", WithBaseURL(srv.URL), WithTimeout(2*time.Second))
	q, err := c.GetLastClose(context.Background(), "hglg11")
	require.NoError(t, err)

	assert.Equal(t, "/eod/HGLG11.SA", gotPath)
	assert.Equal(t, "demo-key", gotToken)
	assert.Equal(t, "HGLG11", q.Ticker)
	assert.Equal(t, 160.50, q.Value)
	assert.Equal(t, models.QuoteSourceMarketAPI, q.Source)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), q.FetchedAt)
}

func TestGetLastCloseCustomSuffix(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[{"date":"2026-01-15","close":42.0}]`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL), WithExchangeSuffix(".US"))
	_, err := c.GetLastClose(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "/eod/AAPL.US", gotPath)
}

func TestGetLastCloseEmptySeries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.GetLastClose(context.Background(), "HGLG11")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no price bars")
}

func TestGetLastCloseAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("Invalid API key"))
	}))
	defer srv.Close()

	c := NewClient("bad", WithBaseURL(srv.URL))
	_, err := c.GetLastClose(context.Background(), "HGLG11")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
