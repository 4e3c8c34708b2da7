package risk

import (
	"fmt"
	"sync"

	"github.com/riskcore/position-risk-engine/internal/config"
	"github.com/riskcore/position-risk-engine/internal/errors"
	"github.com/riskcore/position-risk-engine/internal/logger"
	"github.com/riskcore/position-risk-engine/pkg/types"
)

// stopEntry is the tracked state for one symbol. Its mutex serializes
// updates for that symbol; updates to different symbols run in parallel.
type stopEntry struct {
	mu    sync.Mutex
	state StopState
}

// StopLossTracker tracks a fixed stop per open position and promotes it to
// a trailing stop once the trade moves far enough into profit. The
// promotion is one-way: an activated trailing stop never reverts and the
// extreme price only moves in the trade's favor.
//
// A trigger is advisory. The tracker keeps the symbol until Remove is
// called, because only the execution layer knows when the close fills.
type StopLossTracker struct {
	trailingEnabled    bool
	trailingActivation float64
	trailingDistance   float64

	mu    sync.RWMutex
	stops map[string]*stopEntry

	logger *logger.Logger
}

// NewStopLossTracker creates a tracker from a validated stop configuration.
// The logger may be nil.
func NewStopLossTracker(cfg config.StopConfig, log *logger.Logger) *StopLossTracker {
	return &StopLossTracker{
		trailingEnabled:    cfg.TrailingEnabled,
		trailingActivation: cfg.TrailingActivation,
		trailingDistance:   cfg.TrailingDistance,
		stops:              make(map[string]*stopEntry),
		logger:             log,
	}
}

// Initialize starts stop tracking for a newly opened position. The fixed
// stop sits stopPct below the entry for a buy and above it for a sell, and
// the trailing stop starts at the fixed stop. Invalid inputs leave no
// partial state behind.
func (t *StopLossTracker) Initialize(symbol string, side types.Direction, entryPrice, stopPct float64) (StopState, error) {
	if entryPrice <= 0 {
		return StopState{}, errors.NewValidationError("stoploss", "initialize",
			fmt.Sprintf("entry price must be positive, got %.4f", entryPrice))
	}
	if stopPct <= 0 || stopPct >= 1 {
		return StopState{}, errors.NewValidationError("stoploss", "initialize",
			fmt.Sprintf("stop percentage must be within (0, 1), got %.4f", stopPct))
	}

	fixedStop := entryPrice * (1 - stopPct)
	if side == types.DirectionSell {
		fixedStop = entryPrice * (1 + stopPct)
	}

	state := StopState{
		Symbol:       symbol,
		Side:         side,
		EntryPrice:   entryPrice,
		StopPct:      stopPct,
		FixedStop:    fixedStop,
		TrailingStop: fixedStop,
		Activated:    false,
		ExtremePrice: entryPrice,
	}

	t.mu.Lock()
	t.stops[symbol] = &stopEntry{state: state}
	t.mu.Unlock()

	t.logger.Info("initialized stop loss for %s: entry=%.4f, stop=%.4f (%.1f%%)",
		symbol, entryPrice, fixedStop, stopPct*100)

	return state, nil
}

// Update feeds one price observation to the stop for symbol. Calls for the
// same symbol are serialized; an unknown symbol returns a benign zero
// result rather than an error.
func (t *StopLossTracker) Update(symbol string, currentPrice float64) StopUpdateResult {
	t.mu.RLock()
	entry, ok := t.stops[symbol]
	t.mu.RUnlock()
	if !ok {
		return StopUpdateResult{}
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	s := &entry.state

	pnlPct := (currentPrice - s.EntryPrice) / s.EntryPrice
	if s.Side == types.DirectionSell {
		pnlPct = -pnlPct
	}

	// Arm the trailing stop once the activation profit is reached. The
	// flag never clears afterwards.
	if t.trailingEnabled && !s.Activated && pnlPct >= t.trailingActivation {
		s.Activated = true
		t.logger.Info("trailing stop activated for %s at %.4f (PnL %.2f%%)", symbol, currentPrice, pnlPct*100)
	}

	// Ratchet the extreme price and recompute the trailing stop from it.
	// The extreme only improves, so the stop only tightens.
	if s.Activated {
		if s.Side == types.DirectionBuy && currentPrice > s.ExtremePrice {
			s.ExtremePrice = currentPrice
			s.TrailingStop = s.ExtremePrice * (1 - t.trailingDistance)
		} else if s.Side == types.DirectionSell && currentPrice < s.ExtremePrice {
			s.ExtremePrice = currentPrice
			s.TrailingStop = s.ExtremePrice * (1 + t.trailingDistance)
		}
	}

	stopType := StopTypeFixed
	if s.Activated {
		stopType = StopTypeTrailing
	}
	activeStop := s.ActiveStop()

	triggered := false
	if s.Side == types.DirectionBuy {
		triggered = currentPrice <= activeStop
	} else {
		triggered = currentPrice >= activeStop
	}

	if triggered {
		t.logger.LogStopTrigger(symbol, string(stopType), activeStop, currentPrice, pnlPct)
	}

	return StopUpdateResult{
		Tracked:   true,
		Triggered: triggered,
		StopPrice: activeStop,
		StopType:  stopType,
		PnLPct:    pnlPct,
	}
}

// Remove drops stop tracking for symbol after the caller has confirmed the
// position is closed. Removing an unknown symbol is a no-op.
func (t *StopLossTracker) Remove(symbol string) {
	t.mu.Lock()
	_, existed := t.stops[symbol]
	delete(t.stops, symbol)
	t.mu.Unlock()

	if existed {
		t.logger.Info("removed stop loss tracking for %s", symbol)
	}
}

// Stop returns a copy of the current stop state for symbol.
func (t *StopLossTracker) Stop(symbol string) (StopState, bool) {
	t.mu.RLock()
	entry, ok := t.stops[symbol]
	t.mu.RUnlock()
	if !ok {
		return StopState{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.state, true
}

// ActiveStops returns a copy of every tracked stop, keyed by symbol.
func (t *StopLossTracker) ActiveStops() map[string]StopState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]StopState, len(t.stops))
	for symbol, entry := range t.stops {
		entry.mu.Lock()
		out[symbol] = entry.state
		entry.mu.Unlock()
	}
	return out
}

// Count returns the number of tracked symbols.
func (t *StopLossTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.stops)
}
