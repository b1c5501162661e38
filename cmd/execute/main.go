// Package main executes a strategy live against an on-chain bonding
// curve. It first backtests the curve's recent history to build the
// trade plan, then replays that plan with real funds spread over the
// requested duration.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"curve-strategy-lab/internal/backtest"
	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/executor"
	"curve-strategy-lab/internal/marketdata"
	"curve-strategy-lab/internal/strategy"
	"curve-strategy-lab/internal/venue/evm"
)

func main() {
	// Parse flags
	curveID := flag.String("curve-id", "", "Bonding curve contract address (required)")
	subgraphEndpoint := flag.String("subgraph-endpoint", os.Getenv("SUBGRAPH_ENDPOINT"), "Bonding curve subgraph GraphQL endpoint")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("EVM_RPC_ENDPOINT"), "EVM JSON-RPC endpoint")
	walletAddress := flag.String("wallet-address", os.Getenv("WALLET_ADDRESS"), "Unlocked node wallet address")

	// Execution parameters
	fundingEth := flag.Float64("funding-eth", 0, "Total capital to deploy in ETH (required)")
	duration := flag.Duration("duration", 10*time.Minute, "Session duration the trades are spread over")
	slippageBps := flag.Int64("slippage-bps", 200, "Slippage tolerance in basis points")

	// Strategy parameters for the planning backtest
	entryType := flag.String("entry-type", string(domain.EntryPriceDip), "Entry type: price_dip, momentum, mean_reversion, threshold")
	entryThreshold := flag.Float64("entry-threshold", 0, "Entry threshold percent (sign depends on entry type)")
	lookback := flag.Int("lookback", 20, "Lookback window in trades")
	takeProfit := flag.Float64("take-profit", 20, "Take profit percent")
	stopLoss := flag.Float64("stop-loss", 10, "Stop loss percent (loss magnitude)")
	positionSize := flag.Float64("position-size", 0.1, "Position size in ETH for the planning backtest")

	outputJSON := flag.Bool("json", false, "Output the final result as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[execute] ", log.LstdFlags)

	if *curveID == "" {
		logger.Fatal("--curve-id is required")
	}
	if *subgraphEndpoint == "" {
		logger.Fatal("--subgraph-endpoint is required")
	}
	if *rpcEndpoint == "" {
		logger.Fatal("--rpc-endpoint is required")
	}
	if *walletAddress == "" {
		logger.Fatal("--wallet-address is required")
	}
	if *fundingEth <= 0 {
		logger.Fatal("--funding-eth must be positive")
	}

	params := buildParams(*entryType, *entryThreshold, *lookback, *takeProfit, *stopLoss, *positionSize)
	if err := strategy.ValidateParams(params); err != nil {
		logger.Fatalf("Invalid parameters: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Build the plan from recent history.
	market := marketdata.NewClient(*subgraphEndpoint)
	runner := backtest.NewRunner(market, backtest.WithLogger(logger))
	result, err := runner.RunBacktest(ctx, *curveID, params)
	if err != nil {
		logger.Fatalf("Planning backtest failed: %v", err)
	}
	if len(result.Trades) == 0 {
		logger.Fatalf("Planning backtest produced no trades over %d price points; nothing to execute", len(result.PriceHistory))
	}
	logger.Printf("Plan: %d trades, backtested PnL %.2f%%", len(result.Trades), result.TotalPnlPercent)

	// Open the on-chain venue.
	client := evm.NewClient(*rpcEndpoint)
	wallet := evm.NewNodeWallet(client, *walletAddress)
	tradeVenue, err := evm.NewCurveVenue(ctx, client, wallet, *curveID)
	if err != nil {
		logger.Fatalf("Open venue for %s: %v", *curveID, err)
	}
	logger.Printf("Venue open: curve=%s token=%s wallet=%s", *curveID, tradeVenue.TokenAddress(), *walletAddress)

	cfg := executor.DefaultConfig()
	cfg.SlippageBps = *slippageBps
	exec := executor.New(tradeVenue,
		executor.WithConfig(cfg),
		executor.WithLogger(logger),
	)

	session, err := exec.Start(ctx, result.Trades, *fundingEth, *duration, *curveID, *walletAddress, executor.Callbacks{
		OnTradeExecuted: func(trade domain.LiveExecutedTrade) {
			logger.Printf("%s %s: %.6f ETH / %.4f tokens @ %.10f tx=%s",
				trade.Side, trade.Status, trade.EthAmount, trade.TokenAmount, trade.Price, trade.TxHash)
		},
		OnStatusUpdate: func(msg string) { logger.Println(msg) },
		OnError:        func(msg string) { logger.Printf("ERROR: %s", msg) },
	})
	if err != nil {
		logger.Fatalf("Start session: %v", err)
	}
	logger.Printf("Session %s started: %.4f ETH over %s", session.ID(), *fundingEth, *duration)

	// First signal cancels the session; open positions still unwind.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, cancelling session (open positions will be sold)...", sig)
		session.Cancel()

		sig = <-sigCh
		logger.Printf("Received second signal %v, forcing immediate shutdown", sig)
		os.Exit(1)
	}()

	<-session.Done()
	final := session.Result()

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(final); err != nil {
			logger.Fatalf("Encode result: %v", err)
		}
		return
	}

	fmt.Printf("Session %s complete\n", session.ID())
	fmt.Printf("  Trades executed: %d (%d buys, %d sells)\n", final.TradesExecuted, final.Buys, final.Sells)
	fmt.Printf("  Volume:          %.6f ETH\n", final.TotalVolumeEth)
	fmt.Printf("  PnL:             %+.6f ETH (%+.2f%%)\n", final.TotalPnlEth, final.TotalPnlPercent)
	fmt.Printf("  Wins/losses:     %d/%d\n", final.Wins, final.Losses)
}

// buildParams assembles strategy parameters from flag values. The stop
// loss flag takes a loss magnitude; it is stored as a negative percent.
func buildParams(entryType string, entryThreshold float64, lookback int, takeProfit, stopLoss, positionSize float64) domain.StrategyParams {
	params := domain.StrategyParams{
		EntryType:             domain.EntryType(strings.ToLower(entryType)),
		EntryThresholdPercent: entryThreshold,
		LookbackTrades:        lookback,
		TakeProfitPercent:     takeProfit,
		StopLossPercent:       -math.Abs(stopLoss),
		PositionSizeEth:       positionSize,
	}
	if entryThreshold == 0 {
		params.EntryThresholdPercent = domain.DefaultParams(params.EntryType).EntryThresholdPercent
	}
	return params
}
