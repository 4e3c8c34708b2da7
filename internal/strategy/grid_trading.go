package strategy

import (
	"fmt"

	"github.com/riskcore/position-risk-engine/pkg/types"
)

// GridTrading fades moves inside a quiet range: buy near the bottom of the
// recent band, sell near the top. It demands a higher minimum score than
// the trend strategies because a range call has no trend to lean on.
type GridTrading struct {
	weight   float64
	minScore float64
	stopPct  float64
}

// NewGridTrading creates the strategy with its standard parameters.
func NewGridTrading(weight float64) *GridTrading {
	return &GridTrading{
		weight:   weight,
		minScore: 6,
		stopPct:  0.02,
	}
}

func (s *GridTrading) Name() string    { return "GridTrading" }
func (s *GridTrading) Weight() float64 { return s.weight }

// GenerateSignal scores the snapshot out of 10: low volatility (4), band
// position (4), RSI neutrality (2). No signal while price sits mid-band.
func (s *GridTrading) GenerateSignal(symbol string, snap IndicatorSnapshot) *types.PositionSignal {
	if snap.Price <= 0 || snap.RecentHigh <= snap.RecentLow {
		return nil
	}

	bandWidth := (snap.RecentHigh - snap.RecentLow) / snap.Price
	position := (snap.Price - snap.RecentLow) / (snap.RecentHigh - snap.RecentLow)

	score := 0.0

	// Quiet market: grids only work when the band is narrow
	atrPct := 0.0
	if snap.Price > 0 {
		atrPct = snap.ATR / snap.Price
	}
	switch {
	case atrPct < 0.01 && bandWidth < 0.05:
		score += 4
	case atrPct < 0.02 && bandWidth < 0.08:
		score += 2
	default:
		return nil
	}

	// Band position: only the edges are tradable
	var direction types.Direction
	switch {
	case position <= 0.2:
		direction = types.DirectionBuy
		score += 4
	case position <= 0.35:
		direction = types.DirectionBuy
		score += 2
	case position >= 0.8:
		direction = types.DirectionSell
		score += 4
	case position >= 0.65:
		direction = types.DirectionSell
		score += 2
	default:
		return nil
	}

	// RSI neutrality: a pegged RSI means the range is breaking
	if snap.RSI > 35 && snap.RSI < 65 {
		score += 2
	}

	if score < s.minScore {
		return nil
	}

	reason := fmt.Sprintf("grid %s at band position %.0f%%: score %.1f/10", direction, position*100, score)
	return buildSignal(s.Name(), symbol, direction, score, snap.Price, s.stopPct, reason)
}
