package strategy

import (
	"fmt"

	"github.com/riskcore/position-risk-engine/pkg/types"
)

// TrendFollowing scores EMA alignment, MACD, RSI, and volume to join an
// established trend. It is the default entry strategy and uses the normal
// stop width.
type TrendFollowing struct {
	weight   float64
	minScore float64
	stopPct  float64
}

// NewTrendFollowing creates the strategy with its standard parameters.
func NewTrendFollowing(weight float64) *TrendFollowing {
	return &TrendFollowing{
		weight:   weight,
		minScore: 5,
		stopPct:  0.02,
	}
}

func (s *TrendFollowing) Name() string    { return "TrendFollowing" }
func (s *TrendFollowing) Weight() float64 { return s.weight }

// GenerateSignal scores the snapshot out of 10: trend alignment (4), MACD
// agreement (3), RSI headroom (2), volume confirmation (1).
func (s *TrendFollowing) GenerateSignal(symbol string, snap IndicatorSnapshot) *types.PositionSignal {
	if snap.Price <= 0 || snap.EMAFast <= 0 || snap.EMASlow <= 0 {
		return nil
	}

	direction := types.DirectionBuy
	if snap.EMAFast < snap.EMASlow {
		direction = types.DirectionSell
	}

	score := 0.0

	// Trend alignment: price on the right side of both EMAs
	if direction == types.DirectionBuy {
		if snap.Price > snap.EMAFast {
			score += 2
		}
		if snap.EMAFast > snap.EMASlow {
			score += 2
		}
	} else {
		if snap.Price < snap.EMAFast {
			score += 2
		}
		if snap.EMAFast < snap.EMASlow {
			score += 2
		}
	}

	// MACD agreement with the trend
	if direction == types.DirectionBuy && snap.MACD > snap.MACDSignal {
		score += 3
	} else if direction == types.DirectionSell && snap.MACD < snap.MACDSignal {
		score += 3
	}

	// RSI headroom: avoid chasing an exhausted move
	if direction == types.DirectionBuy && snap.RSI < 70 {
		score += 2
	} else if direction == types.DirectionSell && snap.RSI > 30 {
		score += 2
	}

	// Volume confirmation
	if snap.VolumeRatio > 1.2 {
		score += 1
	}

	if score < s.minScore {
		return nil
	}

	reason := fmt.Sprintf("trend %s: score %.1f/10", direction, score)
	return buildSignal(s.Name(), symbol, direction, score, snap.Price, s.stopPct, reason)
}
