package api

import (
	"encoding/json"
	"net/http"
	"time"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/idhash"
	"curve-strategy-lab/internal/marketdata"
	"curve-strategy-lab/internal/observability"
	"curve-strategy-lab/internal/strategy"
)

const (
	defaultTokenLimit = 100
	defaultTradeLimit = 1000
)

// --- strategies ---

type strategyRequest struct {
	Name         string                 `json:"name"`
	TokenAddress string                 `json:"tokenAddress"`
	TokenName    string                 `json:"tokenName"`
	CurveID      string                 `json:"curveId"`
	Params       *domain.StrategyParams `json:"params"`
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Strategies.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateStrategy(w http.ResponseWriter, r *http.Request) {
	var req strategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" || req.CurveID == "" {
		badRequest(w, "name and curveId are required")
		return
	}

	params := domain.DefaultParams(domain.EntryPriceDip)
	if req.Params != nil {
		params = *req.Params
	}
	if err := strategy.ValidateParams(params); err != nil {
		badRequest(w, err.Error())
		return
	}

	now := time.Now().Unix()
	rec := &domain.StrategyRecord{
		ID:           idhash.ComputeRecordID("strategy", req.Name+"|"+req.CurveID, time.Now().UnixMilli()),
		Name:         req.Name,
		TokenAddress: req.TokenAddress,
		TokenName:    req.TokenName,
		CurveID:      req.CurveID,
		Params:       params,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.cfg.Strategies.Create(r.Context(), rec); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleGetStrategy(w http.ResponseWriter, r *http.Request) {
	rec, err := s.cfg.Strategies.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleUpdateStrategy(w http.ResponseWriter, r *http.Request) {
	existing, err := s.cfg.Strategies.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req strategyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.TokenName != "" {
		existing.TokenName = req.TokenName
	}
	if req.Params != nil {
		if err := strategy.ValidateParams(*req.Params); err != nil {
			badRequest(w, err.Error())
			return
		}
		existing.Params = *req.Params
	}
	existing.UpdatedAt = time.Now().Unix()

	if err := s.cfg.Strategies.Update(r.Context(), existing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteStrategy(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Strategies.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.cfg.Runs.LatestByStrategy(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// --- screeners ---

type screenerRequest struct {
	Name          string `json:"name"`
	Filters       string `json:"filters"`
	SortField     string `json:"sortField"`
	SortDirection string `json:"sortDirection"`
}

func (s *Server) handleListScreeners(w http.ResponseWriter, r *http.Request) {
	list, err := s.cfg.Screeners.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateScreener(w http.ResponseWriter, r *http.Request) {
	var req screenerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		badRequest(w, "name is required")
		return
	}
	if req.Filters != "" && !json.Valid([]byte(req.Filters)) {
		badRequest(w, "filters must be a valid JSON document")
		return
	}

	now := time.Now().Unix()
	sc := &domain.Screener{
		ID:            idhash.ComputeRecordID("screener", req.Name, time.Now().UnixMilli()),
		Name:          req.Name,
		Filters:       req.Filters,
		SortField:     req.SortField,
		SortDirection: req.SortDirection,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.cfg.Screeners.Create(r.Context(), sc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sc)
}

func (s *Server) handleGetScreener(w http.ResponseWriter, r *http.Request) {
	sc, err := s.cfg.Screeners.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sc)
}

func (s *Server) handleUpdateScreener(w http.ResponseWriter, r *http.Request) {
	existing, err := s.cfg.Screeners.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var req screenerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}
	if req.Filters != "" && !json.Valid([]byte(req.Filters)) {
		badRequest(w, "filters must be a valid JSON document")
		return
	}
	if req.Name != "" {
		existing.Name = req.Name
	}
	if req.Filters != "" {
		existing.Filters = req.Filters
	}
	if req.SortField != "" {
		existing.SortField = req.SortField
	}
	if req.SortDirection != "" {
		existing.SortDirection = req.SortDirection
	}
	existing.UpdatedAt = time.Now().Unix()

	if err := s.cfg.Screeners.Update(r.Context(), existing); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, existing)
}

func (s *Server) handleDeleteScreener(w http.ResponseWriter, r *http.Request) {
	if err := s.cfg.Screeners.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- tokens ---

func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	curves, err := s.cfg.Market.ListCurves(r.Context(), defaultTokenLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, curves)
}

func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	curve, err := s.cfg.Market.GetCurve(r.Context(), r.PathValue("curveID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if curve == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown curve"})
		return
	}
	writeJSON(w, http.StatusOK, curve)
}

func (s *Server) handleTokenTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := s.cfg.Trades.FetchTrades(r.Context(), r.PathValue("curveID"), defaultTradeLimit, orderParam(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

// --- backtests ---

type backtestRequest struct {
	StrategyID string                 `json:"strategyId"`
	CurveID    string                 `json:"curveId"`
	Params     *domain.StrategyParams `json:"params"`
}

func (s *Server) handleRunBacktest(w http.ResponseWriter, r *http.Request) {
	var req backtestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body: "+err.Error())
		return
	}

	curveID := req.CurveID
	params := req.Params
	if req.StrategyID != "" {
		rec, err := s.cfg.Strategies.GetByID(r.Context(), req.StrategyID)
		if err != nil {
			writeError(w, err)
			return
		}
		curveID = rec.CurveID
		if params == nil {
			params = &rec.Params
		}
	}
	if curveID == "" {
		badRequest(w, "curveId or strategyId is required")
		return
	}
	if params == nil {
		badRequest(w, "params are required for ad-hoc backtests")
		return
	}
	if err := strategy.ValidateParams(*params); err != nil {
		badRequest(w, err.Error())
		return
	}

	start := time.Now()
	if req.StrategyID != "" {
		run, err := s.cfg.Runner.RunAndPersist(r.Context(), req.StrategyID, curveID, *params)
		if err != nil {
			observabilityRecord(start, nil, err)
			writeError(w, err)
			return
		}
		observabilityRecord(start, &run.Result, nil)
		writeJSON(w, http.StatusOK, run)
		return
	}

	result, err := s.cfg.Runner.RunBacktest(r.Context(), curveID, *params)
	if err != nil {
		observabilityRecord(start, nil, err)
		writeError(w, err)
		return
	}
	observabilityRecord(start, result, nil)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.cfg.Runs.GetByID(r.Context(), r.PathValue("runID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func orderParam(r *http.Request) marketdata.Order {
	if r.URL.Query().Get("order") == "desc" {
		return marketdata.OrderDesc
	}
	return marketdata.OrderAsc
}

// observabilityRecord reports one backtest request to the metrics.
func observabilityRecord(start time.Time, result *domain.BacktestResult, err error) {
	status := "ok"
	trades, points := 0, 0
	if err != nil {
		status = "error"
	} else if result != nil {
		trades = result.TotalTrades
		points = len(result.PriceHistory)
	}
	observability.RecordBacktest(status, time.Since(start).Seconds(), trades, points)
}
