package strategy

import (
	"fmt"

	"github.com/riskcore/position-risk-engine/pkg/types"
)

// Breakout trades range escapes: a close beyond the recent high or low
// with volume behind it. Breakout entries carry a wider stop because a
// failed breakout retraces further than a failed trend entry.
type Breakout struct {
	weight   float64
	minScore float64
	stopPct  float64
}

// NewBreakout creates the strategy with its standard parameters.
func NewBreakout(weight float64) *Breakout {
	return &Breakout{
		weight:   weight,
		minScore: 5,
		stopPct:  0.03,
	}
}

func (s *Breakout) Name() string    { return "Breakout" }
func (s *Breakout) Weight() float64 { return s.weight }

// GenerateSignal scores the snapshot out of 10: breakout magnitude (4),
// volume confirmation (3), RSI momentum in the breakout direction (3).
func (s *Breakout) GenerateSignal(symbol string, snap IndicatorSnapshot) *types.PositionSignal {
	if snap.Price <= 0 || snap.RecentHigh <= 0 || snap.RecentLow <= 0 {
		return nil
	}

	var direction types.Direction
	var escape float64
	switch {
	case snap.Price > snap.RecentHigh:
		direction = types.DirectionBuy
		escape = (snap.Price - snap.RecentHigh) / snap.RecentHigh
	case snap.Price < snap.RecentLow:
		direction = types.DirectionSell
		escape = (snap.RecentLow - snap.Price) / snap.RecentLow
	default:
		return nil
	}

	score := 0.0

	// Breakout magnitude: a decisive escape scores more than a graze
	switch {
	case escape >= 0.01:
		score += 4
	case escape >= 0.005:
		score += 3
	default:
		score += 2
	}

	// Volume behind the break
	switch {
	case snap.VolumeRatio >= 2.0:
		score += 3
	case snap.VolumeRatio >= 1.5:
		score += 2
	case snap.VolumeRatio >= 1.2:
		score += 1
	}

	// RSI momentum agreeing with the break
	if direction == types.DirectionBuy && snap.RSI > 55 {
		score += 3
	} else if direction == types.DirectionSell && snap.RSI < 45 {
		score += 3
	}

	if score < s.minScore {
		return nil
	}

	reason := fmt.Sprintf("breakout %s by %.2f%%: score %.1f/10", direction, escape*100, score)
	return buildSignal(s.Name(), symbol, direction, score, snap.Price, s.stopPct, reason)
}
