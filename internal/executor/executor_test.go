package executor

import (
	"context"
	"errors"
	"io"
	"log"
	"math"
	"math/big"
	"sync"
	"testing"
	"time"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/venue"
	"curve-strategy-lab/internal/venue/stub"
)

const testOwner = "0x00000000000000000000000000000000000000aa"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinHoldDelay = time.Millisecond
	cfg.MinPauseDelay = time.Millisecond
	return cfg
}

func newTestVenue() *stub.Venue {
	// Deep reserves so per-trade price impact stays small.
	eth := new(big.Int).Mul(big.NewInt(1000), big.NewInt(1e18))
	tokens := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1e18))
	return stub.NewVenue(testOwner, eth, tokens)
}

func newTestExecutor(v venue.TradeVenue) *Executor {
	return New(v,
		WithConfig(testConfig()),
		WithLogger(log.New(io.Discard, "", 0)),
	)
}

func plan(n int) []domain.BacktestTrade {
	trades := make([]domain.BacktestTrade, n)
	for i := range trades {
		trades[i] = domain.BacktestTrade{EntryPrice: 1.0, ExitPrice: 1.1}
	}
	return trades
}

// ledgerRecorder collects trades from the callback in arrival order.
type ledgerRecorder struct {
	mu     sync.Mutex
	trades []domain.LiveExecutedTrade
	errors []string
}

func (r *ledgerRecorder) callbacks() Callbacks {
	return Callbacks{
		OnTradeExecuted: func(t domain.LiveExecutedTrade) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.trades = append(r.trades, t)
		},
		OnError: func(msg string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errors = append(r.errors, msg)
		},
	}
}

func (r *ledgerRecorder) all() []domain.LiveExecutedTrade {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.LiveExecutedTrade, len(r.trades))
	copy(out, r.trades)
	return out
}

func awaitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finish in time")
	}
}

func TestTwoTradePlanExecutesInOrder(t *testing.T) {
	v := newTestVenue()
	e := newTestExecutor(v)
	rec := &ledgerRecorder{}

	s, err := e.Start(context.Background(), plan(2), 1.0, 600*time.Millisecond, "curve-1", testOwner, rec.callbacks())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	awaitDone(t, s)

	trades := rec.all()
	if len(trades) != 4 {
		t.Fatalf("expected 4 trades (buy,sell,buy,sell), got %d", len(trades))
	}
	wantSides := []domain.TradeSide{domain.SideBuy, domain.SideSell, domain.SideBuy, domain.SideSell}
	for i, want := range wantSides {
		if trades[i].Side != want {
			t.Errorf("trade %d: side = %s, want %s", i, trades[i].Side, want)
		}
		if trades[i].Status != domain.StatusConfirmed {
			t.Errorf("trade %d: status = %s, want confirmed", i, trades[i].Status)
		}
	}

	// Capital is split evenly across the plan.
	for _, idx := range []int{0, 2} {
		if math.Abs(trades[idx].EthAmount-0.5) > 1e-9 {
			t.Errorf("buy %d: eth amount = %f, want 0.5", idx, trades[idx].EthAmount)
		}
	}

	result := s.Result()
	if result.Buys != 2 || result.Sells != 2 {
		t.Errorf("result buys=%d sells=%d, want 2/2", result.Buys, result.Sells)
	}
	if result.TradesExecuted != 4 {
		t.Errorf("trades executed = %d, want 4", result.TradesExecuted)
	}
}

func TestCancelAfterBuyStillSells(t *testing.T) {
	v := newTestVenue()
	cfg := testConfig()
	cfg.MinHoldDelay = 50 * time.Millisecond
	e := New(v, WithConfig(cfg), WithLogger(log.New(io.Discard, "", 0)))

	var (
		mu      sync.Mutex
		trades  []domain.LiveExecutedTrade
		session *Session
		started = make(chan struct{})
	)
	cb := Callbacks{
		OnTradeExecuted: func(tr domain.LiveExecutedTrade) {
			mu.Lock()
			defer mu.Unlock()
			trades = append(trades, tr)
			if tr.Side == domain.SideBuy && tr.Status == domain.StatusConfirmed && len(trades) == 1 {
				<-started
				session.Cancel()
			}
		},
	}

	s, err := e.Start(context.Background(), plan(3), 0.9, 600*time.Second, "curve-1", testOwner, cb)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	session = s
	close(started)
	awaitDone(t, s)

	mu.Lock()
	defer mu.Unlock()
	if len(trades) != 2 {
		t.Fatalf("expected buy+sell only, got %d trades", len(trades))
	}
	if trades[0].Side != domain.SideBuy || trades[1].Side != domain.SideSell {
		t.Errorf("trade order = %s,%s, want buy,sell", trades[0].Side, trades[1].Side)
	}
	if trades[1].Status != domain.StatusConfirmed {
		t.Errorf("unwind sell status = %s, want confirmed", trades[1].Status)
	}
}

func TestSingleActiveSession(t *testing.T) {
	v := newTestVenue()
	cfg := testConfig()
	cfg.MinHoldDelay = 200 * time.Millisecond
	e := New(v, WithConfig(cfg), WithLogger(log.New(io.Discard, "", 0)))

	first, err := e.Start(context.Background(), plan(1), 0.5, 10*time.Second, "curve-1", testOwner, Callbacks{})
	if err != nil {
		t.Fatalf("first Start failed: %v", err)
	}

	if _, err := e.Start(context.Background(), plan(1), 0.5, 10*time.Second, "curve-1", testOwner, Callbacks{}); !errors.Is(err, ErrSessionRunning) {
		t.Errorf("second Start error = %v, want ErrSessionRunning", err)
	}

	awaitDone(t, first)
	if got := first.Result(); got.Buys != 1 || got.Sells != 1 {
		t.Errorf("first session result buys=%d sells=%d, want 1/1", got.Buys, got.Sells)
	}

	// The executor is reusable once the session finishes.
	third, err := e.Start(context.Background(), plan(1), 0.5, 10*time.Second, "curve-1", testOwner, Callbacks{})
	if err != nil {
		t.Fatalf("Start after completion failed: %v", err)
	}
	awaitDone(t, third)
}

func TestEmptyPlanRejected(t *testing.T) {
	e := newTestExecutor(newTestVenue())

	if _, err := e.Start(context.Background(), nil, 1.0, time.Minute, "curve-1", testOwner, Callbacks{}); !errors.Is(err, ErrEmptyPlan) {
		t.Fatalf("error = %v, want ErrEmptyPlan", err)
	}

	// The rejection must not leave the running flag set.
	s, err := e.Start(context.Background(), plan(1), 1.0, time.Second, "curve-1", testOwner, Callbacks{})
	if err != nil {
		t.Fatalf("Start after empty-plan rejection failed: %v", err)
	}
	awaitDone(t, s)
}

func TestFailedBuySkipsSell(t *testing.T) {
	v := newTestVenue()
	v.FailBuys(true)
	e := newTestExecutor(v)
	rec := &ledgerRecorder{}

	s, err := e.Start(context.Background(), plan(2), 1.0, time.Minute, "curve-1", testOwner, rec.callbacks())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	awaitDone(t, s)

	trades := rec.all()
	if len(trades) != 2 {
		t.Fatalf("expected 2 failed buys, got %d trades", len(trades))
	}
	for i, tr := range trades {
		if tr.Side != domain.SideBuy || tr.Status != domain.StatusFailed {
			t.Errorf("trade %d: %s/%s, want buy/failed", i, tr.Side, tr.Status)
		}
	}
	if len(rec.errors) != 2 {
		t.Errorf("expected 2 error callbacks, got %d", len(rec.errors))
	}

	result := s.Result()
	if result.Buys != 0 || result.Sells != 0 || result.TradesExecuted != 2 {
		t.Errorf("result = %+v, want 0 confirmed and 2 executed", result)
	}
}

func TestZeroSimulationFailsTrade(t *testing.T) {
	v := newTestVenue()
	v.ZeroSimulate(true)
	e := newTestExecutor(v)
	rec := &ledgerRecorder{}

	s, err := e.Start(context.Background(), plan(1), 1.0, time.Minute, "curve-1", testOwner, rec.callbacks())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	awaitDone(t, s)

	trades := rec.all()
	if len(trades) != 1 || trades[0].Status != domain.StatusFailed {
		t.Fatalf("expected a single failed buy, got %+v", trades)
	}
}

func TestFailedSellIsRecorded(t *testing.T) {
	v := newTestVenue()
	v.FailSells(true)
	e := newTestExecutor(v)
	rec := &ledgerRecorder{}

	s, err := e.Start(context.Background(), plan(1), 1.0, time.Second, "curve-1", testOwner, rec.callbacks())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	awaitDone(t, s)

	trades := rec.all()
	if len(trades) != 2 {
		t.Fatalf("expected buy+failed sell, got %d trades", len(trades))
	}
	if trades[0].Side != domain.SideBuy || trades[0].Status != domain.StatusConfirmed {
		t.Errorf("buy = %s/%s, want buy/confirmed", trades[0].Side, trades[0].Status)
	}
	if trades[1].Side != domain.SideSell || trades[1].Status != domain.StatusFailed {
		t.Errorf("sell = %s/%s, want sell/failed", trades[1].Side, trades[1].Status)
	}

	// The tokens stay in the wallet.
	balance, err := v.BalanceOf(context.Background(), testOwner)
	if err != nil {
		t.Fatalf("BalanceOf: %v", err)
	}
	if balance.Sign() == 0 {
		t.Error("wallet balance is zero, expected unsold tokens")
	}
}

func TestSellCappedAtWalletBalance(t *testing.T) {
	v := newTestVenue()
	e := newTestExecutor(v)

	var (
		mu     sync.Mutex
		trades []domain.LiveExecutedTrade
	)
	cb := Callbacks{
		OnTradeExecuted: func(tr domain.LiveExecutedTrade) {
			mu.Lock()
			defer mu.Unlock()
			trades = append(trades, tr)
			if tr.Side == domain.SideBuy && tr.Status == domain.StatusConfirmed {
				// Model an external transfer removing half the position
				// between buy and sell.
				half := domain.EthToWei(tr.TokenAmount / 2)
				v.SetBalance(testOwner, half)
			}
		},
	}

	s, err := e.Start(context.Background(), plan(1), 1.0, time.Second, "curve-1", testOwner, cb)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	awaitDone(t, s)

	mu.Lock()
	defer mu.Unlock()
	if len(trades) != 2 {
		t.Fatalf("expected buy+sell, got %d trades", len(trades))
	}
	sell := trades[1]
	if sell.Status != domain.StatusConfirmed {
		t.Fatalf("sell status = %s, want confirmed", sell.Status)
	}
	if sell.TokenAmount >= trades[0].TokenAmount {
		t.Errorf("sell amount %f not capped below bought amount %f", sell.TokenAmount, trades[0].TokenAmount)
	}
}

// simulateErrVenue fails every buy simulation with a fixed error.
type simulateErrVenue struct {
	*stub.Venue
	err error
}

func (v *simulateErrVenue) SimulateBuy(ctx context.Context, ethIn *big.Int) (*big.Int, error) {
	return nil, v.err
}

func TestErrorCallbackKeepsMessageVerbatim(t *testing.T) {
	// RPC providers embed percent signs in throttle messages; the
	// callback must not mangle them through a second format pass.
	v := &simulateErrVenue{
		Venue: newTestVenue(),
		err:   errors.New("rate limited, 99% of quota used"),
	}
	e := newTestExecutor(v)
	rec := &ledgerRecorder{}

	s, err := e.Start(context.Background(), plan(1), 1.0, time.Minute, "curve-1", testOwner, rec.callbacks())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	awaitDone(t, s)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errors) != 1 {
		t.Fatalf("expected 1 error callback, got %d", len(rec.errors))
	}
	want := "buy simulation failed: rate limited, 99% of quota used"
	if rec.errors[0] != want {
		t.Errorf("error message = %q, want %q", rec.errors[0], want)
	}
}

func TestCompletionFiresEvenWhenEverythingFails(t *testing.T) {
	v := newTestVenue()
	v.FailBuys(true)
	e := newTestExecutor(v)

	var (
		mu     sync.Mutex
		result *domain.LiveStrategyResult
	)
	cb := Callbacks{
		OnStrategyComplete: func(r domain.LiveStrategyResult) {
			mu.Lock()
			defer mu.Unlock()
			result = &r
		},
	}

	s, err := e.Start(context.Background(), plan(2), 1.0, time.Minute, "curve-1", testOwner, cb)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	awaitDone(t, s)

	mu.Lock()
	defer mu.Unlock()
	if result == nil {
		t.Fatal("OnStrategyComplete never fired")
	}
	if result.Buys != 0 || result.TradesExecuted != 2 {
		t.Errorf("result = %+v, want zero confirmed with 2 recorded attempts", *result)
	}
}
