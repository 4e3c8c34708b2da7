package strategy

import (
	"github.com/riskcore/position-risk-engine/pkg/types"
)

// Ensemble polls several strategies over the same snapshot and keeps the
// strongest candidate, ranked by score times strategy weight. Ties keep
// the earlier strategy, so registration order is a priority order.
type Ensemble struct {
	strategies []Strategy
}

// NewEnsemble creates an ensemble over the given strategies.
func NewEnsemble(strategies ...Strategy) *Ensemble {
	return &Ensemble{strategies: strategies}
}

// GenerateSignal returns the best-ranked signal across the ensemble, or
// nil when no strategy produces one.
func (e *Ensemble) GenerateSignal(symbol string, snap IndicatorSnapshot) *types.PositionSignal {
	var best *types.PositionSignal
	bestRank := 0.0

	for _, s := range e.strategies {
		signal := s.GenerateSignal(symbol, snap)
		if signal == nil {
			continue
		}
		rank := signal.Score * s.Weight()
		if best == nil || rank > bestRank {
			best = signal
			bestRank = rank
		}
	}
	return best
}
