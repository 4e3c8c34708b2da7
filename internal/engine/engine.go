package engine

import (
	"github.com/riskcore/position-risk-engine/internal/config"
	"github.com/riskcore/position-risk-engine/internal/logger"
	"github.com/riskcore/position-risk-engine/internal/monitoring"
	"github.com/riskcore/position-risk-engine/internal/risk"
	"github.com/riskcore/position-risk-engine/pkg/types"
)

// Engine binds the signal gate, the position sizer, and the two exit
// trackers into the full pre-trade and in-trade control flow: evaluate →
// size → open → tick → close. It owns no I/O; the host feeds it account
// snapshots and price ticks and acts on the results.
type Engine struct {
	gate   *risk.SignalGate
	sizer  *risk.PositionSizer
	stops  *risk.StopLossTracker
	ladder *risk.TakeProfitTracker

	stopCfg config.StopConfig
	logger  *logger.Logger
	health  *monitoring.HealthChecker
}

// TickResult carries the outcome of fanning one price tick to both exit
// trackers.
type TickResult struct {
	Stop       risk.StopUpdateResult
	TakeProfit risk.TakeProfitUpdateResult
}

// New wires an engine from a validated configuration. The logger and the
// health checker may be nil.
func New(cfg *config.Config, log *logger.Logger, health *monitoring.HealthChecker) *Engine {
	return &Engine{
		gate:    risk.NewSignalGate(cfg, log),
		sizer:   risk.NewPositionSizer(cfg.Sizing),
		stops:   risk.NewStopLossTracker(cfg.Stop, log),
		ladder:  risk.NewTakeProfitTracker(cfg.TakeProfit, log),
		stopCfg: cfg.Stop,
		logger:  log,
		health:  health,
	}
}

// Evaluate runs the gate sequence for a candidate signal and records the
// outcome.
func (e *Engine) Evaluate(signal types.PositionSignal, account types.AccountSnapshot,
	positions []types.Position, sentiment *types.SentimentReading) risk.RiskDecision {

	decision := e.gate.Evaluate(signal, account, positions, sentiment)

	monitoring.RecordDecision(signal.Symbol, decision.Approved, decision.Multiplier)
	monitoring.UpdateMaxEquity(e.gate.MaxEquity())
	paused, _ := e.gate.IsPaused()
	monitoring.SetPaused(paused)
	e.health.RecordEvaluation()
	e.health.SetPaused(paused)

	return decision
}

// Size converts an approved decision into a concrete position size.
func (e *Engine) Size(accountEquity float64, signal types.PositionSignal,
	volatility types.Volatility, decision risk.RiskDecision) risk.SizingResult {
	return e.sizer.Size(accountEquity, signal, volatility, decision.Multiplier)
}

// ValidateSize checks a computed position value against the sizing bounds.
func (e *Engine) ValidateSize(positionValue, accountEquity float64) error {
	return e.sizer.Validate(positionValue, accountEquity)
}

// OpenPosition starts exit tracking for a filled position. Both trackers
// initialize or neither does: a take-profit failure rolls the stop back so
// no symbol is ever left half-tracked. The stop percentage follows the
// strategy that produced the signal.
func (e *Engine) OpenPosition(signal types.PositionSignal, quantity float64,
	levelsPct, ratios []float64) error {

	stopPct := e.stopCfg.PctForStrategy(signal.Strategy)

	if _, err := e.stops.Initialize(signal.Symbol, signal.Direction, signal.EntryPrice, stopPct); err != nil {
		return err
	}
	if _, err := e.ladder.Initialize(signal.Symbol, signal.Direction, signal.EntryPrice, quantity, levelsPct, ratios); err != nil {
		e.stops.Remove(signal.Symbol)
		return err
	}

	monitoring.SetTrackedPositions(e.stops.Count())
	e.logger.Trade("opened position %s %s: entry=%.4f, qty=%.6f", signal.Symbol, signal.Direction, signal.EntryPrice, quantity)
	return nil
}

// OnTick fans one price observation to both exit trackers. Triggers are
// advisory; the caller closes the position and then calls ClosePosition.
func (e *Engine) OnTick(tick types.PriceTick) TickResult {
	stop := e.stops.Update(tick.Symbol, tick.Price)
	tp := e.ladder.Update(tick.Symbol, tick.Price)
	e.health.RecordTick()

	if stop.Triggered {
		monitoring.RecordStopTrigger(tick.Symbol, string(stop.StopType))
	}
	for range tp.TriggeredLevels {
		monitoring.RecordTakeProfitFill(tick.Symbol)
	}

	return TickResult{Stop: stop, TakeProfit: tp}
}

// ClosePosition tears down both exit trackers for a confirmed-closed
// position. Unknown symbols are a no-op.
func (e *Engine) ClosePosition(symbol string) {
	e.stops.Remove(symbol)
	e.ladder.Remove(symbol)
	monitoring.SetTrackedPositions(e.stops.Count())
}

// Pause stops all signal approvals until Resume.
func (e *Engine) Pause(reason string) {
	e.gate.Pause(reason)
	monitoring.SetPaused(true)
	e.health.SetPaused(true)
}

// Resume lifts a pause.
func (e *Engine) Resume() {
	e.gate.Resume()
	monitoring.SetPaused(false)
	e.health.SetPaused(false)
}

// ResetMaxEquity rebases the drawdown high-water mark, e.g. on daily
// rollover.
func (e *Engine) ResetMaxEquity(equity float64) {
	e.gate.ResetMaxEquity(equity)
	monitoring.UpdateMaxEquity(equity)
}

// Snapshot is a point-in-time view of the engine for status reporting.
type Snapshot struct {
	Paused      bool
	PauseReason string
	MaxEquity   float64
	Stops       map[string]risk.StopState
	Targets     map[string]risk.TakeProfitState
}

// Snapshot captures the current engine state for display or diagnostics.
func (e *Engine) Snapshot() Snapshot {
	paused, reason := e.gate.IsPaused()
	return Snapshot{
		Paused:      paused,
		PauseReason: reason,
		MaxEquity:   e.gate.MaxEquity(),
		Stops:       e.stops.ActiveStops(),
		Targets:     e.ladder.ActiveTargets(),
	}
}
