package domain

import "errors"

// Failure taxonomy. Component-local failures degrade to "no result";
// orchestration-level failures abort only the unit of work they affect.
var (
	// ErrInsufficientData means not enough history for a requested
	// computation. Callers treat this as "no signal", never as a crash.
	ErrInsufficientData = errors.New("insufficient data")

	// ErrInvalidAsset means the referenced asset is not configured.
	ErrInvalidAsset = errors.New("invalid asset")

	// ErrUpstreamData means the market-data provider could not supply
	// the required candles.
	ErrUpstreamData = errors.New("upstream data failure")

	// ErrInvalidSignalState means a pending signal references structural
	// context that can no longer be located. Recovered locally by
	// discarding the pending signal.
	ErrInvalidSignalState = errors.New("invalid signal state")
)
