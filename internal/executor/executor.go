// Package executor runs live trading sessions: it replays a simulated
// trade plan against a real venue, spreading a funding amount across
// the plan's cadence and unwinding every position it opens.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/idhash"
	"curve-strategy-lab/internal/venue"
)

// Session lifecycle errors.
var (
	ErrSessionRunning = errors.New("a live session is already running on this executor")
	ErrEmptyPlan      = errors.New("execution plan is empty")
)

// Config tunes the scheduler's timing and guard parameters.
type Config struct {
	// SlippageBps is the minimum-output guard tolerance in basis points.
	SlippageBps int64

	// DeadlineSeconds bounds how long a submitted trade stays valid.
	DeadlineSeconds int64

	// HoldFraction of each time slot is spent holding between buy and
	// sell; PauseFraction is spent pacing before the next trade.
	HoldFraction  float64
	PauseFraction float64

	// Floors for the hold and pacing waits.
	MinHoldDelay  time.Duration
	MinPauseDelay time.Duration
}

// DefaultConfig returns the production timing parameters.
func DefaultConfig() Config {
	return Config{
		SlippageBps:     200,
		DeadlineSeconds: 1200,
		HoldFraction:    0.6,
		PauseFraction:   0.3,
		MinHoldDelay:    5 * time.Second,
		MinPauseDelay:   2 * time.Second,
	}
}

// Callbacks receive session events. All callbacks are optional and are
// invoked synchronously from the session loop, in order.
type Callbacks struct {
	OnTradeExecuted    func(domain.LiveExecutedTrade)
	OnStrategyComplete func(domain.LiveStrategyResult)
	OnStatusUpdate     func(string)
	OnError            func(string)
}

func (cb Callbacks) status(format string, args ...interface{}) {
	if cb.OnStatusUpdate != nil {
		cb.OnStatusUpdate(fmt.Sprintf(format, args...))
	}
}

func (cb Callbacks) error(format string, args ...interface{}) {
	if cb.OnError != nil {
		cb.OnError(fmt.Sprintf(format, args...))
	}
}

// Executor schedules live sessions against one venue. At most one
// session runs per executor instance; independent executors do not
// share state.
type Executor struct {
	venue   venue.TradeVenue
	cfg     Config
	logger  *log.Logger
	running atomic.Bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithConfig overrides the timing configuration.
func WithConfig(cfg Config) Option {
	return func(e *Executor) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// New creates an executor bound to a venue.
func New(v venue.TradeVenue, opts ...Option) *Executor {
	e := &Executor{
		venue:  v,
		cfg:    DefaultConfig(),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session is a handle to one running or finished live session.
type Session struct {
	id        string
	cancel    chan struct{}
	cancelOne sync.Once
	done      chan struct{}

	mu     sync.Mutex
	trades []domain.LiveExecutedTrade
	result domain.LiveStrategyResult
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Cancel requests a best-effort stop: no new trade cycle starts and
// in-progress waits are shortened, but a confirmed buy is always
// unwound before the session ends.
func (s *Session) Cancel() {
	s.cancelOne.Do(func() { close(s.cancel) })
}

// Done is closed when the session loop has finished.
func (s *Session) Done() <-chan struct{} { return s.done }

// Result returns the aggregate outcome. Valid after Done is closed.
func (s *Session) Result() domain.LiveStrategyResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

// Trades returns a copy of the session ledger so far.
func (s *Session) Trades() []domain.LiveExecutedTrade {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LiveExecutedTrade, len(s.trades))
	copy(out, s.trades)
	return out
}

func (s *Session) record(trade domain.LiveExecutedTrade) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trades = append(s.trades, trade)
}

func (s *Session) cancelled() bool {
	select {
	case <-s.cancel:
		return true
	default:
		return false
	}
}

// Start launches a live session executing plan with the given funding
// and wall-clock duration on behalf of address. It fails immediately
// if a session is already running on this executor or the plan is
// empty; otherwise the loop runs in a background goroutine and the
// returned handle controls it.
func (e *Executor) Start(ctx context.Context, plan []domain.BacktestTrade, fundingEth float64, duration time.Duration, curveID, address string, cb Callbacks) (*Session, error) {
	if !e.running.CompareAndSwap(false, true) {
		return nil, ErrSessionRunning
	}
	if len(plan) == 0 {
		e.running.Store(false)
		return nil, ErrEmptyPlan
	}

	s := &Session{
		id:     idhash.ComputeSessionID(curveID, address, time.Now().UnixMilli()),
		cancel: make(chan struct{}),
		done:   make(chan struct{}),
	}

	go func() {
		defer e.running.Store(false)
		defer close(s.done)
		e.run(ctx, s, plan, fundingEth, duration, address, cb)
	}()

	return s, nil
}

// run is the session loop. Chain calls are never interrupted by
// cancellation; only waits and the start of new trade cycles are.
func (e *Executor) run(ctx context.Context, s *Session, plan []domain.BacktestTrade, fundingEth float64, duration time.Duration, address string, cb Callbacks) {
	n := len(plan)
	capitalPerTrade := fundingEth / float64(n)
	slot := duration / time.Duration(n)

	holdDelay := scaleDelay(slot, e.cfg.HoldFraction, e.cfg.MinHoldDelay)
	pauseDelay := scaleDelay(slot, e.cfg.PauseFraction, e.cfg.MinPauseDelay)

	// A caller-cancelled context must still not sever in-flight chain
	// calls; it is honored at the same points as Session.Cancel.
	chainCtx := context.WithoutCancel(ctx)

	cb.status("session %s: executing %d trades, %.6f ETH each", s.id, n, capitalPerTrade)
	e.logger.Printf("[executor] session %s started: trades=%d capital_per_trade=%.6f slot=%s", s.id, n, capitalPerTrade, slot)

	for i := 0; i < n; i++ {
		if s.cancelled() || ctx.Err() != nil {
			cb.status("session %s: cancelled before trade %d", s.id, i+1)
			break
		}

		cb.status("trade %d/%d: buying", i+1, n)
		boughtTokens, ok := e.executeBuy(chainCtx, s, capitalPerTrade, cb)
		if ok {
			// Open position: hold, then always unwind.
			e.wait(ctx, s, holdDelay)
			cb.status("trade %d/%d: selling", i+1, n)
			e.executeSell(chainCtx, s, boughtTokens, capitalPerTrade, address, cb)
		}

		if i < n-1 && !s.cancelled() && ctx.Err() == nil {
			e.wait(ctx, s, pauseDelay)
		}
	}

	result := aggregate(s.Trades(), fundingEth)
	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	e.logger.Printf("[executor] session %s finished: executed=%d buys=%d sells=%d pnl=%.6f",
		s.id, result.TradesExecuted, result.Buys, result.Sells, result.TotalPnlEth)
	if cb.OnStrategyComplete != nil {
		cb.OnStrategyComplete(result)
	}
}

// executeBuy runs the buy phase for one planned trade. It returns the
// token amount acquired and whether the buy confirmed.
func (e *Executor) executeBuy(ctx context.Context, s *Session, capitalEth float64, cb Callbacks) (*big.Int, bool) {
	capitalWei := domain.EthToWei(capitalEth)

	tokensOut, err := e.venue.SimulateBuy(ctx, capitalWei)
	if err != nil {
		e.recordFailure(s, domain.SideBuy, cb, "buy simulation failed: %v", err)
		return nil, false
	}
	if tokensOut.Sign() == 0 {
		e.recordFailure(s, domain.SideBuy, cb, "buy simulation returned zero tokens, market cannot fill")
		return nil, false
	}

	minOut := domain.ApplySlippage(tokensOut, e.cfg.SlippageBps)
	deadline := time.Now().Unix() + e.cfg.DeadlineSeconds

	tx, err := e.venue.Buy(ctx, capitalWei, minOut, deadline)
	if err != nil {
		e.recordFailure(s, domain.SideBuy, cb, "buy submission failed: %v", err)
		return nil, false
	}
	if _, err := e.venue.AwaitConfirmation(ctx, tx); err != nil {
		e.recordFailure(s, domain.SideBuy, cb, "buy confirmation failed: %v", err)
		return nil, false
	}

	tokensEth := domain.WeiToEth(tokensOut)
	trade := domain.LiveExecutedTrade{
		Side:        domain.SideBuy,
		EthAmount:   capitalEth,
		TokenAmount: tokensEth,
		Price:       impliedPrice(capitalEth, tokensEth),
		Timestamp:   time.Now().UnixMilli(),
		TxHash:      string(tx),
		Status:      domain.StatusConfirmed,
	}
	s.record(trade)
	e.logger.Printf("[executor] buy confirmed: tx=%s eth=%.6f tokens=%.6f", tx, capitalEth, tokensEth)
	if cb.OnTradeExecuted != nil {
		cb.OnTradeExecuted(trade)
	}
	return tokensOut, true
}

// executeSell unwinds a confirmed buy. A failed sell leaves the tokens
// in the wallet and is recorded, never dropped.
func (e *Executor) executeSell(ctx context.Context, s *Session, boughtTokens *big.Int, capitalEth float64, address string, cb Callbacks) {
	balance, err := e.venue.BalanceOf(ctx, address)
	if err != nil {
		e.recordFailure(s, domain.SideSell, cb, "balance lookup failed: %v", err)
		return
	}

	// External transfers may have drained part of the position.
	sellAmount := new(big.Int).Set(boughtTokens)
	if balance.Cmp(sellAmount) < 0 {
		sellAmount.Set(balance)
	}
	if sellAmount.Sign() == 0 {
		e.recordFailure(s, domain.SideSell, cb, "no tokens left to sell, wallet balance is zero")
		return
	}

	quote, err := e.venue.QuoteSell(ctx, sellAmount)
	if err != nil {
		e.recordFailure(s, domain.SideSell, cb, "sell quote failed: %v", err)
		return
	}

	if err := e.ensureAllowance(ctx, address, sellAmount); err != nil {
		e.recordFailure(s, domain.SideSell, cb, "approval failed: %v", err)
		return
	}

	minOut := domain.ApplySlippage(quote, e.cfg.SlippageBps)
	deadline := time.Now().Unix() + e.cfg.DeadlineSeconds

	tx, err := e.venue.Sell(ctx, sellAmount, minOut, deadline)
	if err != nil {
		e.recordFailure(s, domain.SideSell, cb, "sell submission failed: %v", err)
		return
	}
	if _, err := e.venue.AwaitConfirmation(ctx, tx); err != nil {
		e.recordFailure(s, domain.SideSell, cb, "sell confirmation failed: %v", err)
		return
	}

	ethReceived := domain.WeiToEth(quote)
	tokensSold := domain.WeiToEth(sellAmount)
	pnlEth := ethReceived - capitalEth
	pnlPercent := 0.0
	if capitalEth > 0 {
		pnlPercent = pnlEth / capitalEth * 100
	}

	trade := domain.LiveExecutedTrade{
		Side:        domain.SideSell,
		EthAmount:   ethReceived,
		TokenAmount: tokensSold,
		Price:       impliedPrice(ethReceived, tokensSold),
		Timestamp:   time.Now().UnixMilli(),
		TxHash:      string(tx),
		Status:      domain.StatusConfirmed,
		PnlPercent:  pnlPercent,
		PnlEth:      pnlEth,
	}
	s.record(trade)
	e.logger.Printf("[executor] sell confirmed: tx=%s eth=%.6f pnl=%.6f (%.2f%%)", tx, ethReceived, pnlEth, pnlPercent)
	if cb.OnTradeExecuted != nil {
		cb.OnTradeExecuted(trade)
	}
}

// ensureAllowance issues an approval when the current one is too low
// and waits for it to confirm before the sell proceeds.
func (e *Executor) ensureAllowance(ctx context.Context, address string, amount *big.Int) error {
	allowance, err := e.venue.Allowance(ctx, address)
	if err != nil {
		return fmt.Errorf("allowance lookup: %w", err)
	}
	if allowance.Cmp(amount) >= 0 {
		return nil
	}

	tx, err := e.venue.Approve(ctx, amount)
	if err != nil {
		return fmt.Errorf("approve submission: %w", err)
	}
	if _, err := e.venue.AwaitConfirmation(ctx, tx); err != nil {
		return fmt.Errorf("approve confirmation: %w", err)
	}
	return nil
}

// recordFailure appends a zero-amount failed trade and reports it.
func (e *Executor) recordFailure(s *Session, side domain.TradeSide, cb Callbacks, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	e.logger.Printf("[executor] %s failed: %s", side, msg)

	trade := domain.LiveExecutedTrade{
		Side:      side,
		Timestamp: time.Now().UnixMilli(),
		Status:    domain.StatusFailed,
	}
	s.record(trade)
	cb.error("%s", msg)
	if cb.OnTradeExecuted != nil {
		cb.OnTradeExecuted(trade)
	}
}

// wait sleeps for d, returning early on cancellation.
func (e *Executor) wait(ctx context.Context, s *Session, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-s.cancel:
	case <-ctx.Done():
	}
}

// scaleDelay applies a fraction of the slot with a floor.
func scaleDelay(slot time.Duration, fraction float64, floor time.Duration) time.Duration {
	d := time.Duration(float64(slot) * fraction)
	if d < floor {
		d = floor
	}
	return d
}

func impliedPrice(eth, tokens float64) float64 {
	if tokens <= 0 {
		return 0
	}
	return eth / tokens
}

// aggregate folds the session ledger into a LiveStrategyResult.
func aggregate(trades []domain.LiveExecutedTrade, fundingEth float64) domain.LiveStrategyResult {
	var result domain.LiveStrategyResult
	result.TradesExecuted = len(trades)

	for _, t := range trades {
		if t.Status != domain.StatusConfirmed {
			continue
		}
		result.TotalVolumeEth += t.EthAmount
		switch t.Side {
		case domain.SideBuy:
			result.Buys++
		case domain.SideSell:
			result.Sells++
			result.TotalPnlEth += t.PnlEth
			if t.PnlEth >= 0 {
				result.Wins++
			} else {
				result.Losses++
			}
		}
	}

	if fundingEth > 0 {
		result.TotalPnlPercent = result.TotalPnlEth / fundingEth * 100
	}
	return result
}
