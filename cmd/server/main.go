// Package main runs the HTTP API for the curve strategy lab:
// strategy and screener management, subgraph-backed token browsing,
// backtests and live execution sessions with a WebSocket event feed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"curve-strategy-lab/internal/api"
	"curve-strategy-lab/internal/backtest"
	"curve-strategy-lab/internal/executor"
	"curve-strategy-lab/internal/marketdata"
	"curve-strategy-lab/internal/storage"
	chstore "curve-strategy-lab/internal/storage/clickhouse"
	"curve-strategy-lab/internal/storage/memory"
	"curve-strategy-lab/internal/storage/migrations"
	pgstore "curve-strategy-lab/internal/storage/postgres"
	"curve-strategy-lab/internal/venue"
	"curve-strategy-lab/internal/venue/evm"
)

// appStores holds every storage implementation the server uses.
type appStores struct {
	strategies storage.StrategyStore
	screeners  storage.ScreenerStore
	runs       storage.BacktestRunStore
	history    storage.PriceHistoryStore
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	subgraphEndpoint := flag.String("subgraph-endpoint", os.Getenv("SUBGRAPH_ENDPOINT"), "Bonding curve subgraph GraphQL endpoint")
	rpcEndpoint := flag.String("rpc-endpoint", os.Getenv("EVM_RPC_ENDPOINT"), "EVM JSON-RPC endpoint for live execution (optional)")
	walletAddress := flag.String("wallet-address", os.Getenv("WALLET_ADDRESS"), "Unlocked node wallet address for live execution")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL/ClickHouse")

	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if *subgraphEndpoint == "" {
		logger.Fatal("--subgraph-endpoint is required")
	}
	if !*useMemory && (*postgresDSN == "" || *clickhouseDSN == "") {
		logger.Fatal("--postgres-dsn and --clickhouse-dsn are required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stores, cleanup, err := createStores(ctx, *postgresDSN, *clickhouseDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	market := marketdata.NewClient(*subgraphEndpoint)
	runner := backtest.NewRunner(market,
		backtest.WithArchive(stores.history),
		backtest.WithRunStore(stores.runs),
		backtest.WithLogger(log.New(os.Stdout, "[backtest] ", log.LstdFlags)),
	)

	server := api.NewServer(api.Config{
		Strategies: stores.strategies,
		Screeners:  stores.screeners,
		Runs:       stores.runs,
		Market:     market,
		Trades:     market,
		Runner:     runner,
		OpenVenue:  venueFactory(*rpcEndpoint, *walletAddress, logger),
		ExecConfig: executor.DefaultConfig(),
		Logger:     logger,
	})

	httpServer := &http.Server{
		Addr:    *listenAddr,
		Handler: server.Handler(),
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	}()

	logger.Printf("Starting HTTP server on %s", *listenAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("HTTP server error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// venueFactory opens the on-chain venue for a curve. Returns nil when
// live execution is not configured, which disables the live endpoints.
func venueFactory(rpcEndpoint, walletAddress string, logger *log.Logger) api.VenueFactory {
	if rpcEndpoint == "" || walletAddress == "" {
		logger.Println("Live execution disabled: --rpc-endpoint and --wallet-address not set")
		return nil
	}

	client := evm.NewClient(rpcEndpoint)
	wallet := evm.NewNodeWallet(client, walletAddress)

	return func(ctx context.Context, curveID string) (venue.TradeVenue, error) {
		return evm.NewCurveVenue(ctx, client, wallet, curveID)
	}
}

// createStores creates all required stores and runs migrations.
func createStores(ctx context.Context, postgresDSN, clickhouseDSN string, useMemory bool) (*appStores, func(), error) {
	if useMemory {
		stores := &appStores{
			strategies: memory.NewStrategyStore(),
			screeners:  memory.NewScreenerStore(),
			runs:       memory.NewBacktestRunStore(),
			history:    memory.NewPriceHistoryStore(),
		}
		return stores, func() {}, nil
	}

	// PostgreSQL for strategies, screeners and runs
	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	// ClickHouse for the price history archive
	conn, err := chstore.NewConn(ctx, clickhouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}
	if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
		conn.Close()
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	stores := &appStores{
		strategies: pgstore.NewStrategyStore(pool),
		screeners:  pgstore.NewScreenerStore(pool),
		runs:       pgstore.NewBacktestRunStore(pool),
		history:    chstore.NewPriceHistoryStore(conn),
	}
	cleanup := func() {
		conn.Close()
		pool.Close()
	}
	return stores, cleanup, nil
}

// envOr returns the environment value or a default when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
