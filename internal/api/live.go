package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/executor"
	"curve-strategy-lab/internal/observability"
)

type liveSessionRequest struct {
	StrategyID string  `json:"strategyId"`
	FundingEth float64 `json:"fundingEth"`
	DurationMs int64   `json:"durationMs"`
	Address    string  `json:"address"`
}

type liveSessionResponse struct {
	SessionID string                     `json:"sessionId"`
	CurveID   string                     `json:"curveId"`
	Address   string                     `json:"address"`
	StartedAt int64                      `json:"startedAt"` // unix milliseconds
	Running   bool                       `json:"running"`
	Trades    []domain.LiveExecutedTrade `json:"trades"`
	Result    *domain.LiveStrategyResult `json:"result,omitempty"`
}

// handleStartLiveSession replays the strategy's latest backtest plan
// against the live venue. Each session gets its own executor, so
// independent strategies can run concurrently; re-entrancy is guarded
// per executor, not globally.
func (s *Server) handleStartLiveSession(w http.ResponseWriter, r *http.Request) {
	if s.cfg.OpenVenue == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "live execution is not configured"})
		return
	}

	var req liveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.StrategyID == "" || req.Address == "" {
		badRequest(w, "strategyId and address are required")
		return
	}
	if req.FundingEth <= 0 {
		badRequest(w, "fundingEth must be positive")
		return
	}
	if req.DurationMs <= 0 {
		badRequest(w, "durationMs must be positive")
		return
	}

	rec, err := s.cfg.Strategies.GetByID(r.Context(), req.StrategyID)
	if err != nil {
		writeError(w, err)
		return
	}
	run, err := s.cfg.Runs.LatestByStrategy(r.Context(), req.StrategyID)
	if err != nil {
		writeError(w, err)
		return
	}
	plan := run.Result.Trades
	if len(plan) == 0 {
		badRequest(w, "latest backtest produced no trades to execute")
		return
	}

	tradeVenue, err := s.cfg.OpenVenue(r.Context(), rec.CurveID)
	if err != nil {
		writeError(w, err)
		return
	}

	exec := executor.New(tradeVenue,
		executor.WithConfig(s.cfg.ExecConfig),
		executor.WithLogger(s.logger),
	)

	// The session outlives the HTTP request that started it.
	session, err := exec.Start(
		context.Background(),
		plan,
		req.FundingEth,
		time.Duration(req.DurationMs)*time.Millisecond,
		rec.CurveID,
		req.Address,
		s.sessionCallbacks(),
	)
	if err != nil {
		if errors.Is(err, executor.ErrSessionRunning) || errors.Is(err, executor.ErrEmptyPlan) {
			badRequest(w, err.Error())
			return
		}
		writeError(w, err)
		return
	}

	ls := &liveSession{
		session:   session,
		curveID:   rec.CurveID,
		address:   req.Address,
		startedAt: time.Now(),
	}
	s.mu.Lock()
	s.sessions[session.ID()] = ls
	s.mu.Unlock()

	observability.RecordLiveSessionStarted()
	s.logger.Printf("[api] live session %s started for strategy %s", session.ID(), req.StrategyID)

	writeJSON(w, http.StatusCreated, s.sessionView(ls))
}

func (s *Server) handleGetLiveSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ls, ok := s.sessions[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown session"})
		return
	}
	writeJSON(w, http.StatusOK, s.sessionView(ls))
}

// handleCancelLiveSession requests a best-effort stop. The session
// still unwinds any open position before it reports completion.
func (s *Server) handleCancelLiveSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ls, ok := s.sessions[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown session"})
		return
	}

	ls.session.Cancel()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
}

func (s *Server) sessionView(ls *liveSession) liveSessionResponse {
	resp := liveSessionResponse{
		SessionID: ls.session.ID(),
		CurveID:   ls.curveID,
		Address:   ls.address,
		StartedAt: ls.startedAt.UnixMilli(),
		Trades:    ls.session.Trades(),
		Running:   true,
	}
	select {
	case <-ls.session.Done():
		resp.Running = false
		result := ls.session.Result()
		resp.Result = &result
	default:
	}
	return resp
}

// sessionCallbacks bridges executor events onto the websocket stream
// and the metrics.
func (s *Server) sessionCallbacks() executor.Callbacks {
	return executor.Callbacks{
		OnTradeExecuted: func(t domain.LiveExecutedTrade) {
			observability.RecordLiveTrade(string(t.Side), string(t.Status))
			s.hub.Broadcast(Event{Type: EventTradeExecuted, Payload: t})
		},
		OnStrategyComplete: func(res domain.LiveStrategyResult) {
			observability.RecordLiveSessionPnl(res.TotalPnlEth)
			s.hub.Broadcast(Event{Type: EventStrategyComplete, Payload: res})
		},
		OnStatusUpdate: func(msg string) {
			s.hub.Broadcast(Event{Type: EventStatus, Payload: msg})
		},
		OnError: func(msg string) {
			s.hub.Broadcast(Event{Type: EventError, Payload: msg})
		},
	}
}
