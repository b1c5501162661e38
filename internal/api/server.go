// Package api exposes the strategy lab over HTTP: strategy and
// screener management, token listings proxied from the subgraph,
// backtest runs and live session control, plus a websocket stream of
// live session events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"curve-strategy-lab/internal/backtest"
	"curve-strategy-lab/internal/executor"
	"curve-strategy-lab/internal/marketdata"
	"curve-strategy-lab/internal/observability"
	"curve-strategy-lab/internal/storage"
	"curve-strategy-lab/internal/venue"
)

// VenueFactory opens a trade venue for one bonding-curve market.
type VenueFactory func(ctx context.Context, curveID string) (venue.TradeVenue, error)

// Config wires the server's collaborators.
type Config struct {
	Strategies storage.StrategyStore
	Screeners  storage.ScreenerStore
	Runs       storage.BacktestRunStore
	Market     marketdata.CurveSource
	Trades     marketdata.TradeSource
	Runner     *backtest.Runner

	// OpenVenue is required for live endpoints; without it the live
	// routes respond 503.
	OpenVenue  VenueFactory
	ExecConfig executor.Config

	Logger *log.Logger
}

// liveSession tracks one started session and its owning executor.
type liveSession struct {
	session   *executor.Session
	curveID   string
	address   string
	startedAt time.Time
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	logger *log.Logger
	hub    *Hub

	mu       sync.Mutex
	sessions map[string]*liveSession

	startedAt time.Time
}

// NewServer creates the API server.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		cfg:       cfg,
		logger:    logger,
		hub:       NewHub(logger),
		sessions:  make(map[string]*liveSession),
		startedAt: time.Now(),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", observability.Handler())
	mux.HandleFunc("GET /status", s.handleStatus)

	mux.HandleFunc("GET /api/strategies", s.handleListStrategies)
	mux.HandleFunc("POST /api/strategies", s.handleCreateStrategy)
	mux.HandleFunc("GET /api/strategies/{id}", s.handleGetStrategy)
	mux.HandleFunc("PUT /api/strategies/{id}", s.handleUpdateStrategy)
	mux.HandleFunc("DELETE /api/strategies/{id}", s.handleDeleteStrategy)
	mux.HandleFunc("GET /api/strategies/{id}/runs/latest", s.handleLatestRun)

	mux.HandleFunc("GET /api/screeners", s.handleListScreeners)
	mux.HandleFunc("POST /api/screeners", s.handleCreateScreener)
	mux.HandleFunc("GET /api/screeners/{id}", s.handleGetScreener)
	mux.HandleFunc("PUT /api/screeners/{id}", s.handleUpdateScreener)
	mux.HandleFunc("DELETE /api/screeners/{id}", s.handleDeleteScreener)

	mux.HandleFunc("GET /api/tokens", s.handleListTokens)
	mux.HandleFunc("GET /api/tokens/{curveID}", s.handleGetToken)
	mux.HandleFunc("GET /api/tokens/{curveID}/trades", s.handleTokenTrades)

	mux.HandleFunc("POST /api/backtests", s.handleRunBacktest)
	mux.HandleFunc("GET /api/backtests/{runID}", s.handleGetRun)

	mux.HandleFunc("POST /api/live/sessions", s.handleStartLiveSession)
	mux.HandleFunc("GET /api/live/sessions/{id}", s.handleGetLiveSession)
	mux.HandleFunc("DELETE /api/live/sessions/{id}", s.handleCancelLiveSession)

	mux.HandleFunc("GET /ws", s.hub.handleUpgrade)

	return s.instrument(mux)
}

// instrument wraps the mux with request metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = r.URL.Path
		}
		observability.DefaultMetrics.HTTPRequests.
			WithLabelValues(r.Method, pattern, strconv.Itoa(sw.code)).Inc()
		observability.DefaultMetrics.HTTPDuration.
			WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	active := 0
	for _, ls := range s.sessions {
		select {
		case <-ls.session.Done():
		default:
			active++
		}
	}
	total := len(s.sessions)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"uptimeSeconds":  int64(time.Since(s.startedAt).Seconds()),
		"liveSessions":   total,
		"activeSessions": active,
		"wsClients":      s.hub.ClientCount(),
		"ethPriceUsd":    s.cfg.Market.EthPrice(r.Context()),
	})
}

// writeJSON encodes v and sets the status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

// writeError maps storage errors to status codes and emits a JSON body.
func writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateKey):
		code = http.StatusConflict
	case errors.Is(err, storage.ErrInvalidInput):
		code = http.StatusBadRequest
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}
