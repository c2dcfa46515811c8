package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComputeSignalID computes a deterministic signal ID using SHA256.
// Formula: SHA256(asset_id|kind|entry|stop|target|candle_index)
// Returns hex-encoded hash (64 characters).
func ComputeSignalID(assetID, kind string, entry, stop, target float64, candleIndex int) string {
	data := fmt.Sprintf("%s|%s|%.10f|%.10f|%.10f|%d",
		assetID, kind, entry, stop, target, candleIndex)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeTradeID computes a deterministic backtest trade ID.
// Formula: SHA256(run_id|asset_id|entry_index|direction)
func ComputeTradeID(runID, assetID string, entryIndex int, direction string) string {
	data := fmt.Sprintf("%s|%s|%d|%s", runID, assetID, entryIndex, direction)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ComputeRunID computes a deterministic backtest run ID.
// Formula: SHA256(asset_id|period_start_ms|period_end_ms|initial_capital|risk)
func ComputeRunID(assetID string, periodStartMs, periodEndMs int64, initialCapital, risk float64) string {
	data := fmt.Sprintf("%s|%d|%d|%.10f|%.10f",
		assetID, periodStartMs, periodEndMs, initialCapital, risk)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
