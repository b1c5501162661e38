package domain

// StrategyRecord is a persisted strategy definition bound to one curve.
type StrategyRecord struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	TokenAddress string         `json:"tokenAddress"`
	TokenName    string         `json:"tokenName"`
	CurveID      string         `json:"curveId"`
	Params       StrategyParams `json:"params"`
	CreatedAt    int64          `json:"createdAt"` // unix seconds
	UpdatedAt    int64          `json:"updatedAt"`
}

// Screener is a persisted token filter definition. Filters are stored
// as an opaque JSON document; filter evaluation happens in the UI.
type Screener struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Filters       string `json:"filters"` // JSON array
	SortField     string `json:"sortField"`
	SortDirection string `json:"sortDirection"`
	CreatedAt     int64  `json:"createdAt"`
	UpdatedAt     int64  `json:"updatedAt"`
}
