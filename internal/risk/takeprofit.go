package risk

import (
	"fmt"
	"math"
	"sync"

	"github.com/riskcore/position-risk-engine/internal/config"
	"github.com/riskcore/position-risk-engine/internal/errors"
	"github.com/riskcore/position-risk-engine/internal/logger"
	"github.com/riskcore/position-risk-engine/pkg/types"
)

// defaultTakeProfitLevels is used when neither the caller nor the
// configuration supplies any usable level.
var defaultTakeProfitLevels = []float64{0.03, 0.05, 0.08}

// tpEntry is the tracked ladder for one symbol, with its own mutex so
// same-symbol updates serialize and different symbols proceed in parallel.
type tpEntry struct {
	mu    sync.Mutex
	state TakeProfitState
}

// TakeProfitTracker tracks an ordered ladder of partial-exit levels per
// open position and advances it strictly left to right as price crosses
// each target. Like the stop tracker, a trigger is advisory and state
// survives until Remove.
type TakeProfitTracker struct {
	defaultLevels []float64
	defaultRatios []float64

	mu      sync.RWMutex
	targets map[string]*tpEntry

	logger *logger.Logger
}

// NewTakeProfitTracker creates a tracker from a validated take-profit
// configuration. The configured levels and ratios become the defaults for
// positions initialized without explicit ones. The logger may be nil.
func NewTakeProfitTracker(cfg config.TakeProfitConfig, log *logger.Logger) *TakeProfitTracker {
	levels := sanitizeLevels(cfg.Levels)
	if len(levels) == 0 {
		levels = append([]float64(nil), defaultTakeProfitLevels...)
	}
	return &TakeProfitTracker{
		defaultLevels: levels,
		defaultRatios: matchLengthAndNormalize(sanitizeRatios(cfg.Ratios), len(levels)),
		targets:       make(map[string]*tpEntry),
		logger:        log,
	}
}

// Initialize builds the ladder for a newly opened position. Levels are
// sanitized to positive values (falling back to the tracker defaults when
// none survive) and ratios are stretched or truncated to the level count,
// then rescaled to sum to 1. Invalid inputs leave no partial state behind.
func (t *TakeProfitTracker) Initialize(symbol string, direction types.Direction,
	entryPrice, totalQty float64, levelsPct, ratios []float64) (TakeProfitState, error) {

	if entryPrice <= 0 {
		return TakeProfitState{}, errors.NewValidationError("takeprofit", "initialize",
			fmt.Sprintf("entry price must be positive, got %.4f", entryPrice))
	}
	if totalQty <= 0 {
		return TakeProfitState{}, errors.NewValidationError("takeprofit", "initialize",
			fmt.Sprintf("total quantity must be positive, got %.6f", totalQty))
	}

	levels := sanitizeLevels(levelsPct)
	if len(levels) == 0 {
		levels = append([]float64(nil), t.defaultLevels...)
	}

	ratioCandidates := sanitizeRatios(ratios)
	if len(ratioCandidates) == 0 {
		ratioCandidates = append([]float64(nil), t.defaultRatios...)
	}
	normalized := matchLengthAndNormalize(ratioCandidates, len(levels))

	ladder := make([]TakeProfitLevel, len(levels))
	for i, pct := range levels {
		price := entryPrice * (1 + pct)
		if direction == types.DirectionSell {
			price = entryPrice * (1 - pct)
		}
		ladder[i] = TakeProfitLevel{
			Index:     i,
			Pct:       pct,
			Price:     price,
			Ratio:     normalized[i],
			TargetQty: totalQty * normalized[i],
		}
	}

	state := TakeProfitState{
		Symbol:       symbol,
		Direction:    direction,
		EntryPrice:   entryPrice,
		TotalQty:     totalQty,
		RemainingQty: totalQty,
		Levels:       ladder,
		NextIndex:    0,
		Completed:    false,
	}

	t.mu.Lock()
	t.targets[symbol] = &tpEntry{state: state}
	t.mu.Unlock()

	t.logger.Info("initialized take profit for %s: entry=%.4f, %d levels", symbol, entryPrice, len(ladder))

	return cloneTakeProfitState(state), nil
}

// Update checks the ladder against one price observation. A large gap may
// cross several targets at once; each is filled in order until either the
// price no longer reaches the next target or the position is exhausted.
// An unknown symbol returns a benign empty result.
func (t *TakeProfitTracker) Update(symbol string, currentPrice float64) TakeProfitUpdateResult {
	t.mu.RLock()
	entry, ok := t.targets[symbol]
	t.mu.RUnlock()
	if !ok {
		return TakeProfitUpdateResult{TriggeredLevels: []TriggeredLevel{}}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := &entry.state

	triggered := []TriggeredLevel{}
	for s.NextIndex < len(s.Levels) {
		level := &s.Levels[s.NextIndex]
		if !levelHit(s.Direction, currentPrice, level.Price) {
			break
		}

		fill := math.Min(level.TargetQty, s.RemainingQty)
		level.FilledQty = fill
		level.Triggered = true
		s.RemainingQty = math.Max(s.RemainingQty-fill, 0)

		triggered = append(triggered, TriggeredLevel{
			Index: level.Index,
			Pct:   level.Pct,
			Price: level.Price,
			Ratio: level.Ratio,
			Qty:   fill,
		})
		t.logger.LogTakeProfitFill(symbol, level.Index, level.Price, fill, s.RemainingQty)

		s.NextIndex++
		if s.RemainingQty <= 0 {
			break
		}
	}

	s.Completed = s.NextIndex >= len(s.Levels) || s.RemainingQty <= 0

	var nextPrice *float64
	if !s.Completed && s.NextIndex < len(s.Levels) {
		p := s.Levels[s.NextIndex].Price
		nextPrice = &p
	}

	return TakeProfitUpdateResult{
		Tracked:         true,
		TriggeredLevels: triggered,
		RemainingQty:    s.RemainingQty,
		Completed:       s.Completed,
		NextLevelPrice:  nextPrice,
	}
}

// Remove drops ladder tracking for symbol after the caller has confirmed
// the position is closed. Removing an unknown symbol is a no-op.
func (t *TakeProfitTracker) Remove(symbol string) {
	t.mu.Lock()
	_, existed := t.targets[symbol]
	delete(t.targets, symbol)
	t.mu.Unlock()

	if existed {
		t.logger.Info("removed take profit tracking for %s", symbol)
	}
}

// Target returns a copy of the current ladder state for symbol.
func (t *TakeProfitTracker) Target(symbol string) (TakeProfitState, bool) {
	t.mu.RLock()
	entry, ok := t.targets[symbol]
	t.mu.RUnlock()
	if !ok {
		return TakeProfitState{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return cloneTakeProfitState(entry.state), true
}

// ActiveTargets returns a copy of every tracked ladder, keyed by symbol.
func (t *TakeProfitTracker) ActiveTargets() map[string]TakeProfitState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]TakeProfitState, len(t.targets))
	for symbol, entry := range t.targets {
		entry.mu.Lock()
		out[symbol] = cloneTakeProfitState(entry.state)
		entry.mu.Unlock()
	}
	return out
}

// Count returns the number of tracked symbols.
func (t *TakeProfitTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.targets)
}

func levelHit(direction types.Direction, currentPrice, targetPrice float64) bool {
	if direction == types.DirectionBuy {
		return currentPrice >= targetPrice
	}
	return currentPrice <= targetPrice
}

// sanitizeLevels keeps only positive percentages, preserving order.
func sanitizeLevels(levels []float64) []float64 {
	out := make([]float64, 0, len(levels))
	for _, lvl := range levels {
		if lvl > 0 {
			out = append(out, lvl)
		}
	}
	return out
}

// sanitizeRatios keeps only non-negative ratios, preserving order.
func sanitizeRatios(ratios []float64) []float64 {
	out := make([]float64, 0, len(ratios))
	for _, r := range ratios {
		if r >= 0 {
			out = append(out, r)
		}
	}
	return out
}

// matchLengthAndNormalize stretches or truncates ratios to length entries,
// padding with the last supplied value (equal weights when none), then
// rescales so the result sums to exactly 1.
func matchLengthAndNormalize(ratios []float64, length int) []float64 {
	if length <= 0 {
		return nil
	}

	normalized := append([]float64(nil), ratios...)
	switch {
	case len(normalized) == 0:
		normalized = make([]float64, length)
		for i := range normalized {
			normalized[i] = 1.0
		}
	case len(normalized) < length:
		pad := normalized[len(normalized)-1]
		for len(normalized) < length {
			normalized = append(normalized, pad)
		}
	case len(normalized) > length:
		normalized = normalized[:length]
	}

	total := 0.0
	for _, v := range normalized {
		total += v
	}
	if total == 0 {
		for i := range normalized {
			normalized[i] = 1.0 / float64(length)
		}
		return normalized
	}
	for i := range normalized {
		normalized[i] /= total
	}
	return normalized
}

// cloneTakeProfitState deep-copies the ladder so callers cannot mutate
// tracked state through the returned slice.
func cloneTakeProfitState(s TakeProfitState) TakeProfitState {
	out := s
	out.Levels = append([]TakeProfitLevel(nil), s.Levels...)
	return out
}
