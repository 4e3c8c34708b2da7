package strategy

import (
	"time"

	"github.com/riskcore/position-risk-engine/pkg/types"
)

// IndicatorSnapshot carries pre-computed indicator values for one symbol.
// Indicator computation belongs to an upstream collaborator; strategies
// only interpret the readings.
type IndicatorSnapshot struct {
	Price       float64
	EMAFast     float64
	EMASlow     float64
	RSI         float64
	MACD        float64
	MACDSignal  float64
	RecentHigh  float64 // highest close of the lookback window
	RecentLow   float64 // lowest close of the lookback window
	VolumeRatio float64 // current volume / average volume
	ATR         float64
}

// Strategy generates candidate position signals from indicator snapshots.
// The risk core consumes the resulting PositionSignal only; it never sees
// the strategy itself.
type Strategy interface {
	// GenerateSignal scores the market and returns a signal, or nil when
	// the score does not clear the strategy's minimum.
	GenerateSignal(symbol string, snap IndicatorSnapshot) *types.PositionSignal

	// Name returns the name of the strategy
	Name() string

	// Weight returns the strategy's weight in a multi-strategy ensemble
	Weight() float64
}

// strengthFromScore grades a 0-10 signal score.
func strengthFromScore(score float64) types.SignalStrength {
	switch {
	case score >= 8:
		return types.StrengthStrong
	case score >= 6:
		return types.StrengthMedium
	default:
		return types.StrengthWeak
	}
}

// stopPrice places the protective stop below the entry for a buy and above
// it for a sell.
func stopPrice(entryPrice float64, direction types.Direction, stopPct float64) float64 {
	if direction == types.DirectionBuy {
		return entryPrice * (1 - stopPct)
	}
	return entryPrice * (1 + stopPct)
}

// buildSignal assembles the standard signal envelope shared by every
// strategy.
func buildSignal(name, symbol string, direction types.Direction, score, entryPrice, stopPct float64, reason string) *types.PositionSignal {
	return &types.PositionSignal{
		Strategy:   name,
		Symbol:     symbol,
		Direction:  direction,
		EntryPrice: entryPrice,
		StopLoss:   stopPrice(entryPrice, direction, stopPct),
		Strength:   strengthFromScore(score),
		Score:      score,
		Reason:     reason,
		Timestamp:  time.Now(),
	}
}
