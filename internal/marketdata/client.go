package marketdata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"curve-strategy-lab/internal/domain"
	"curve-strategy-lab/internal/observability"
)

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
)

// curveFields is the shared GraphQL selection for curve entities.
const curveFields = `
	id
	token
	name
	symbol
	creator
	createdAt
	graduated
	lastPriceEth
	lastPriceUsd
	lastTradeAt
	totalVolumeEth
	ethCollected
	tradeCount
	athPriceEth
`

// tradeFields is the shared GraphQL selection for trade entities.
const tradeFields = `
	id
	curve { id }
	side
	amountEth
	amountToken
	priceEth
	trader
	timestamp
	txHash
`

// Client queries the Goldsky subgraph over HTTP with retries and
// exponential backoff.
type Client struct {
	endpoint    string
	client      *http.Client
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new subgraph client.
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:    endpoint,
		client:      &http.Client{Timeout: DefaultTimeout},
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface checks.
var (
	_ TradeSource = (*Client)(nil)
	_ CurveSource = (*Client)(nil)
)

// gqlRequest is the GraphQL-over-HTTP request envelope.
type gqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// gqlResponse is the GraphQL response envelope.
type gqlResponse struct {
	Data   json.RawMessage `json:"data,omitempty"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}

// query runs an instrumented GraphQL request named by operation.
func (c *Client) query(ctx context.Context, operation, query string, variables map[string]any, result any) error {
	start := time.Now()
	err := c.doQuery(ctx, query, variables, result)
	observability.RecordSubgraphQuery(operation, time.Since(start).Seconds(), err)
	return err
}

// doQuery performs a GraphQL request with retries and exponential
// backoff, decoding the data payload into result.
func (c *Client) doQuery(ctx context.Context, query string, variables map[string]any, result any) error {
	body, err := json.Marshal(gqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("subgraph request failed: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
			// Client errors won't improve on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return lastErr
			}
			continue
		}

		var gqlResp gqlResponse
		if err := json.Unmarshal(respBody, &gqlResp); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}

		if len(gqlResp.Errors) > 0 {
			return fmt.Errorf("subgraph error: %s", gqlResp.Errors[0].Message)
		}
		if gqlResp.Data == nil {
			return fmt.Errorf("no data returned from subgraph")
		}

		if err := json.Unmarshal(gqlResp.Data, result); err != nil {
			return fmt.Errorf("unmarshal data: %w", err)
		}
		return nil
	}

	return fmt.Errorf("subgraph query failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// FetchTrades returns up to limit trades for a curve, ordered by
// timestamp in the requested direction.
func (c *Client) FetchTrades(ctx context.Context, curveID string, limit int, order Order) ([]domain.CurveTrade, error) {
	q := fmt.Sprintf(`
		query($curve: String!, $limit: Int!) {
			trades(
				where: { curve: $curve }
				orderBy: timestamp
				orderDirection: %s
				first: $limit
			) {
				%s
			}
		}
	`, order, tradeFields)

	var data struct {
		Trades []rawTrade `json:"trades"`
	}
	err := c.query(ctx, "trades", q, map[string]any{
		"curve": strings.ToLower(curveID),
		"limit": limit,
	}, &data)
	if err != nil {
		return nil, fmt.Errorf("fetch trades for %s: %w", curveID, err)
	}

	trades := make([]domain.CurveTrade, len(data.Trades))
	for i, t := range data.Trades {
		trades[i] = t.toDomain()
	}
	return trades, nil
}

// GetCurve returns a single curve by contract address, or nil when the
// subgraph does not know it.
func (c *Client) GetCurve(ctx context.Context, curveID string) (*domain.CurveToken, error) {
	q := fmt.Sprintf(`
		query($id: ID!) {
			curve(id: $id) {
				%s
			}
		}
	`, curveFields)

	var data struct {
		Curve *rawCurve `json:"curve"`
	}
	err := c.query(ctx, "curve", q, map[string]any{"id": strings.ToLower(curveID)}, &data)
	if err != nil {
		return nil, fmt.Errorf("get curve %s: %w", curveID, err)
	}
	if data.Curve == nil {
		return nil, nil
	}

	curve := data.Curve.toDomain()
	return &curve, nil
}

// ListCurves returns curves ordered by total volume descending.
func (c *Client) ListCurves(ctx context.Context, limit int) ([]domain.CurveToken, error) {
	q := fmt.Sprintf(`
		query($limit: Int!) {
			curves(
				orderBy: totalVolumeEth
				orderDirection: desc
				first: $limit
			) {
				%s
			}
		}
	`, curveFields)

	var data struct {
		Curves []rawCurve `json:"curves"`
	}
	if err := c.query(ctx, "curves", q, map[string]any{"limit": limit}, &data); err != nil {
		return nil, fmt.Errorf("list curves: %w", err)
	}

	curves := make([]domain.CurveToken, len(data.Curves))
	for i, c := range data.Curves {
		curves[i] = c.toDomain()
	}
	return curves, nil
}

// EthPrice returns the current ETH/USD price from the subgraph bundle,
// falling back to a fixed price when the bundle is unavailable.
func (c *Client) EthPrice(ctx context.Context) float64 {
	const fallbackEthUsd = 2500

	var data struct {
		Bundles []struct {
			EthUsd string `json:"ethUsd"`
		} `json:"bundles"`
	}
	err := c.query(ctx, "bundles", `{ bundles(first: 1) { ethUsd } }`, nil, &data)
	if err != nil || len(data.Bundles) == 0 {
		return fallbackEthUsd
	}
	if p := parseFloat(data.Bundles[0].EthUsd); p > 0 {
		return p
	}
	return fallbackEthUsd
}
