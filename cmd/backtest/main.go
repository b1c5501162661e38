// Package main runs a single backtest against a bonding curve's trade
// history and prints the result.
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

	"curve-strategy-lab/internal/backtest"
	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/marketdata"
	"curve-strategy-lab/internal/storage/memory"
	"curve-strategy-lab/internal/strategy"
)

func main() {
	// Parse flags
	curveID := flag.String("curve-id", "", "Bonding curve contract address (required)")
	subgraphEndpoint := flag.String("subgraph-endpoint", os.Getenv("SUBGRAPH_ENDPOINT"), "Bonding curve subgraph GraphQL endpoint")

	// Strategy parameters
	entryType := flag.String("entry-type", string(domain.EntryPriceDip), "Entry type: price_dip, momentum, mean_reversion, threshold")
	entryThreshold := flag.Float64("entry-threshold", 0, "Entry threshold percent (sign depends on entry type)")
	lookback := flag.Int("lookback", 20, "Lookback window in trades")
	takeProfit := flag.Float64("take-profit", 20, "Take profit percent")
	stopLoss := flag.Float64("stop-loss", 10, "Stop loss percent (loss magnitude)")
	positionSize := flag.Float64("position-size", 0.1, "Position size in ETH")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *curveID == "" {
		logger.Fatal("--curve-id is required")
	}
	if *subgraphEndpoint == "" {
		logger.Fatal("--subgraph-endpoint is required")
	}

	params := buildParams(*entryType, *entryThreshold, *lookback, *takeProfit, *stopLoss, *positionSize)
	if err := strategy.ValidateParams(params); err != nil {
		logger.Fatalf("Invalid parameters: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	market := marketdata.NewClient(*subgraphEndpoint)
	runner := backtest.NewRunner(market,
		backtest.WithArchive(memory.NewPriceHistoryStore()),
		backtest.WithLogger(logger),
	)

	result, err := runner.RunBacktest(ctx, *curveID, params)
	if err != nil {
		logger.Fatalf("Backtest failed: %v", err)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			logger.Fatalf("Encode result: %v", err)
		}
		return
	}

	printSummary(*curveID, params, result)
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

// printSummary writes a human readable report to stdout.
func printSummary(curveID string, params domain.StrategyParams, result *domain.BacktestResult) {
	fmt.Printf("Backtest: %s\n", curveID)
	fmt.Printf("  Strategy:      %s (threshold %.2f%%, lookback %d)\n",
		params.EntryType, params.EntryThresholdPercent, params.LookbackTrades)
	fmt.Printf("  Exits:         TP %+.2f%% / SL %+.2f%%\n", params.TakeProfitPercent, params.StopLossPercent)
	fmt.Printf("  Position size: %.4f ETH\n", params.PositionSizeEth)
	fmt.Println()

	if result.TotalTrades == 0 {
		fmt.Printf("No trades over %d price points.\n", len(result.PriceHistory))
		return
	}

	fmt.Printf("  Trades:        %d (%d wins, %d losses, %.1f%% win rate)\n",
		result.TotalTrades, result.WinningTrades, result.LosingTrades, result.WinRate)
	fmt.Printf("  Total PnL:     %.6f ETH (%.2f%%)\n", result.TotalPnlEth, result.TotalPnlPercent)
	fmt.Printf("  Max drawdown:  %.2f%%\n", result.MaxDrawdownPercent)
	fmt.Printf("  Sharpe:        %.3f\n", result.SharpeRatio)
	fmt.Println()

	for i, trade := range result.Trades {
		fmt.Printf("  #%d %s: entry %.8f -> exit %.8f  %+.2f%% (%+.6f ETH)\n",
			i+1, trade.ExitReason, trade.EntryPrice, trade.ExitPrice, trade.PnlPercent, trade.PnlEth)
	}
}
