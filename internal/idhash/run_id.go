// Package idhash computes deterministic identifiers for backtest runs
// and live sessions using SHA256.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"curve-strategy-lab/internal/domain"
)

// ComputeRunID computes a deterministic run identifier.
// Formula: SHA256(curve_id|entry_type|threshold|lookback|tp|sl|size|first_ts|last_ts)
// Returns hex-encoded hash (64 characters). Two runs over the same
// series with the same parameters share an ID.
func ComputeRunID(curveID string, params domain.StrategyParams, firstTs, lastTs int64) string {
	data := fmt.Sprintf("%s|%s|%g|%d|%g|%g|%g|%d|%d",
		curveID,
		params.EntryType,
		params.EntryThresholdPercent,
		params.LookbackTrades,
		params.TakeProfitPercent,
		params.StopLossPercent,
		params.PositionSizeEth,
		firstTs,
		lastTs,
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeSessionID computes a deterministic live-session identifier
// from the curve, the executing address and the session start time.
func ComputeSessionID(curveID, address string, startedAtMs int64) string {
	data := fmt.Sprintf("%s|%s|%d", curveID, address, startedAtMs)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeRecordID computes an identifier for a stored record from its
// kind, name and creation time.
func ComputeRecordID(kind, name string, createdAt int64) string {
	data := fmt.Sprintf("%s|%s|%d", kind, name, createdAt)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
