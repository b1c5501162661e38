package evm

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"curve-strategy-lab/internal/observability"
)

const (
	testCurveAddr = "0x1111111111111111111111111111111111111111"
	testTokenAddr = "0x2222222222222222222222222222222222222222"
)

type stubWallet struct {
	sentTo   string
	sentData string
}

func (w *stubWallet) Address() string { return "0x3333333333333333333333333333333333333333" }

func (w *stubWallet) SendTransaction(ctx context.Context, to, data string, value *big.Int) (string, error) {
	w.sentTo = to
	w.sentData = data
	return "0xdeadbeef", nil
}

// fakeNode emulates an Ethereum node for eth_call: calldata whose
// selector has a registered handler gets its canned return data,
// anything else reverts, the way a contract with no matching function
// would.
func fakeNode(t *testing.T, returns map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %v", err)
			return
		}
		if req.Method != "eth_call" {
			writeRPCError(w, req.ID, "method not supported")
			return
		}
		var call struct {
			To   string `json:"to"`
			Data string `json:"data"`
		}
		if err := json.Unmarshal(req.Params[0], &call); err != nil {
			t.Errorf("decode call params: %v", err)
			return
		}
		sel := strings.TrimPrefix(call.Data, "0x")
		if len(sel) > 8 {
			sel = sel[:8]
		}
		result, ok := returns[sel]
		if !ok {
			writeRPCError(w, req.ID, "execution reverted")
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
}

func writeRPCError(w http.ResponseWriter, id uint64, msg string) {
	json.NewEncoder(w).Encode(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]interface{}{"code": 3, "message": msg},
	})
}

func selHex(sel []byte) string {
	return hex.EncodeToString(sel)
}

func words(ws ...[]byte) string {
	var b strings.Builder
	b.WriteString("0x")
	for _, w := range ws {
		b.WriteString(hex.EncodeToString(w))
	}
	return b.String()
}

func curveInfoReturn(t *testing.T) string {
	t.Helper()
	tokenWord, err := encodeAddress(testTokenAddr)
	if err != nil {
		t.Fatalf("encode token address: %v", err)
	}
	return words(tokenWord, encodeUint256(big.NewInt(0)))
}

func newTestVenue(t *testing.T, returns map[string]string) (*CurveVenue, *stubWallet) {
	t.Helper()
	returns[selHex(selGetCurveInfo)] = curveInfoReturn(t)
	server := fakeNode(t, returns)
	t.Cleanup(server.Close)

	client := NewClient(server.URL, WithMaxRetries(0), WithRetryDelay(time.Millisecond))
	wallet := &stubWallet{}
	v, err := NewCurveVenue(context.Background(), client, wallet, testCurveAddr)
	if err != nil {
		t.Fatalf("NewCurveVenue: %v", err)
	}
	return v, wallet
}

func TestNewCurveVenueResolvesToken(t *testing.T) {
	v, _ := newTestVenue(t, map[string]string{})
	if v.TokenAddress() != testTokenAddr {
		t.Errorf("token address = %s, want %s", v.TokenAddress(), testTokenAddr)
	}
}

// The sell quote must hit the contract's getEthForTokens(uint256) view;
// the node reverts any other selector, so a wrong signature fails here.
func TestQuoteSellUsesEthForTokensView(t *testing.T) {
	want := big.NewInt(987654321)
	v, _ := newTestVenue(t, map[string]string{
		selHex(selGetEthForTokens): words(encodeUint256(want)),
	})

	got, err := v.QuoteSell(context.Background(), big.NewInt(1_000_000))
	if err != nil {
		t.Fatalf("QuoteSell: %v", err)
	}
	if got.Cmp(want) != 0 {
		t.Errorf("QuoteSell = %s, want %s", got, want)
	}
}

// simulateBuy returns (ethToUse, tokensOut, refund, willGraduate);
// the quote is the second word.
func TestSimulateBuyDecodesTokensOut(t *testing.T) {
	tokensOut := big.NewInt(555_000)
	v, _ := newTestVenue(t, map[string]string{
		selHex(selSimulateBuy): words(
			encodeUint256(big.NewInt(100)),
			encodeUint256(tokensOut),
			encodeUint256(big.NewInt(0)),
			encodeUint256(big.NewInt(0)),
		),
	})

	got, err := v.SimulateBuy(context.Background(), big.NewInt(100))
	if err != nil {
		t.Fatalf("SimulateBuy: %v", err)
	}
	if got.Cmp(tokensOut) != 0 {
		t.Errorf("SimulateBuy = %s, want %s", got, tokensOut)
	}
}

func TestQuoteSellSurfacesRevert(t *testing.T) {
	v, _ := newTestVenue(t, map[string]string{})
	before := testutil.ToFloat64(observability.DefaultMetrics.VenueCallErrors.WithLabelValues("eth_call"))

	_, err := v.QuoteSell(context.Background(), big.NewInt(1))
	if err == nil {
		t.Fatal("QuoteSell against reverting contract: expected error")
	}
	if !strings.Contains(err.Error(), "execution reverted") {
		t.Errorf("error = %v, want node revert message", err)
	}

	after := testutil.ToFloat64(observability.DefaultMetrics.VenueCallErrors.WithLabelValues("eth_call"))
	if after != before+1 {
		t.Errorf("venue error counter moved by %v, want 1", after-before)
	}
}

func TestSellEncodesCalldata(t *testing.T) {
	v, wallet := newTestVenue(t, map[string]string{})

	_, err := v.Sell(context.Background(), big.NewInt(42), big.NewInt(7), 1700000000)
	if err != nil {
		t.Fatalf("Sell: %v", err)
	}
	if wallet.sentTo != testCurveAddr {
		t.Errorf("sell sent to %s, want curve %s", wallet.sentTo, testCurveAddr)
	}
	wantData := encodeCall(selSell,
		encodeUint256(big.NewInt(42)),
		encodeUint256(big.NewInt(7)),
		encodeUint256(big.NewInt(1700000000)),
	)
	if wallet.sentData != wantData {
		t.Errorf("sell calldata = %s, want %s", wallet.sentData, wantData)
	}
}
