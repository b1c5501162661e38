package marketdata

import (
	"strconv"
	"strings"

	"curve-strategy-lab/internal/domain"
)

// rawCurve mirrors the subgraph curve entity. All numeric fields are
// decimal strings on the wire.
type rawCurve struct {
	ID             string `json:"id"`
	Token          string `json:"token"`
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	Creator        string `json:"creator"`
	CreatedAt      string `json:"createdAt"`
	Graduated      bool   `json:"graduated"`
	LastPriceEth   string `json:"lastPriceEth"`
	LastPriceUsd   string `json:"lastPriceUsd"`
	LastTradeAt    string `json:"lastTradeAt"`
	TotalVolumeEth string `json:"totalVolumeEth"`
	EthCollected   string `json:"ethCollected"`
	TradeCount     string `json:"tradeCount"`
	AthPriceEth    string `json:"athPriceEth"`
}

// rawTrade mirrors the subgraph trade entity.
type rawTrade struct {
	ID          string `json:"id"`
	Curve       struct {
		ID string `json:"id"`
	} `json:"curve"`
	Side        string `json:"side"`
	AmountEth   string `json:"amountEth"`
	AmountToken string `json:"amountToken"`
	PriceEth    string `json:"priceEth"`
	Trader      string `json:"trader"`
	Timestamp   string `json:"timestamp"`
	TxHash      string `json:"txHash"`
}

// parseFloat converts a decimal string, returning 0 for unparsable
// values. Invalid prices are dropped later by the normalizer.
func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

// parseInt converts an integer string, returning 0 for unparsable values.
func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (r rawCurve) toDomain() domain.CurveToken {
	return domain.CurveToken{
		ID:             r.ID,
		Token:          r.Token,
		Name:           r.Name,
		Symbol:         r.Symbol,
		Creator:        r.Creator,
		CreatedAt:      parseInt(r.CreatedAt),
		Graduated:      r.Graduated,
		LastPriceEth:   parseFloat(r.LastPriceEth),
		LastPriceUsd:   parseFloat(r.LastPriceUsd),
		LastTradeAt:    parseInt(r.LastTradeAt),
		TotalVolumeEth: parseFloat(r.TotalVolumeEth),
		EthCollected:   parseFloat(r.EthCollected),
		TradeCount:     parseInt(r.TradeCount),
		AthPriceEth:    parseFloat(r.AthPriceEth),
	}
}

func (r rawTrade) toDomain() domain.CurveTrade {
	return domain.CurveTrade{
		ID:          r.ID,
		CurveID:     r.Curve.ID,
		Side:        r.Side,
		AmountEth:   parseFloat(r.AmountEth),
		AmountToken: parseFloat(r.AmountToken),
		PriceEth:    parseFloat(r.PriceEth),
		Trader:      r.Trader,
		Timestamp:   parseInt(r.Timestamp),
		TxHash:      r.TxHash,
	}
}
