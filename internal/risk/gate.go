package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/riskcore/position-risk-engine/internal/config"
	"github.com/riskcore/position-risk-engine/internal/logger"
	"github.com/riskcore/position-risk-engine/pkg/types"
)

// sentimentCacheTTL is how long a cached sentiment reading stays usable.
const sentimentCacheTTL = 5 * time.Minute

// riskRateReduction is the risk-rate level above which position size is
// halved even though the signal is approved.
const riskRateReduction = 0.10

// sentimentReduction is the sentiment score below which buy size is cut to
// 70%, between the veto threshold and neutral.
const sentimentReduction = -0.2

// SignalGate runs every candidate signal through a fixed sequence of risk
// checks and accumulates a position size multiplier along the way. The
// first failing gate rejects the signal with multiplier 0.
//
// The gate owns the only account-wide mutable state in the engine: the
// sticky pause flag and the equity high-water mark. Evaluate calls
// serialize on it.
type SignalGate struct {
	sentimentCfg   config.SentimentConfig
	liquidationCfg config.LiquidationConfig
	drawdownCfg    config.DrawdownConfig

	mu          sync.Mutex
	paused      bool
	pauseReason string
	maxEquity   float64

	cachedSentiment *types.SentimentReading
	sentimentAt     time.Time

	logger *logger.Logger
	now    func() time.Time
}

// NewSignalGate creates a gate from a validated configuration. The logger
// may be nil.
func NewSignalGate(cfg *config.Config, log *logger.Logger) *SignalGate {
	return &SignalGate{
		sentimentCfg:   cfg.Sentiment,
		liquidationCfg: cfg.Liquidation,
		drawdownCfg:    cfg.Drawdown,
		logger:         log,
		now:            time.Now,
	}
}

// Evaluate runs the gate sequence for one candidate signal. The account
// snapshot must be fresh; the gate never retains it. Sentiment is optional:
// nil falls back to the 5-minute cache, then to a neutral default.
func (g *SignalGate) Evaluate(signal types.PositionSignal, account types.AccountSnapshot,
	positions []types.Position, sentiment *types.SentimentReading) RiskDecision {

	g.mu.Lock()
	defer g.mu.Unlock()

	warnings := []string{}
	multiplier := 1.0

	// 1. Pause check
	if g.paused {
		return g.rejectLocked(signal.Symbol, fmt.Sprintf("Trading paused: %s", g.pauseReason), warnings)
	}

	// 2. Sentiment gate, buy side only
	if g.sentimentCfg.Enabled && signal.Direction == types.DirectionBuy {
		reading := g.resolveSentiment(sentiment)

		if reading.Score <= g.sentimentCfg.CriticalThreshold {
			return g.rejectLocked(signal.Symbol, fmt.Sprintf("Critical negative sentiment: %.2f", reading.Score),
				append(warnings, fmt.Sprintf("FUD ratio: %.1f%%", reading.FUDRatio*100)))
		}
		if reading.Score <= g.sentimentCfg.VetoThreshold {
			return g.rejectLocked(signal.Symbol, fmt.Sprintf("Negative sentiment veto: %.2f", reading.Score),
				append(warnings, fmt.Sprintf("FUD ratio: %.1f%%", reading.FUDRatio*100)))
		}
		if reading.Score < sentimentReduction {
			multiplier *= 0.7
			warnings = append(warnings, fmt.Sprintf("Sentiment negative (%.2f), reduce position to 70%%", reading.Score))
		}
		if reading.FUDRatio > 0.30 {
			warnings = append(warnings, fmt.Sprintf("High FUD ratio: %.1f%%", reading.FUDRatio*100))
		}
	}

	// 3. Liquidation-risk gate
	riskRate := 0.0
	if len(positions) > 0 && account.Total > 0 {
		riskRate = account.Used / account.Total
	}
	if riskRate >= g.liquidationCfg.CriticalThreshold {
		return g.rejectLocked(signal.Symbol, fmt.Sprintf("Critical liquidation risk: %.1f%%", riskRate*100),
			append(warnings, "Immediate action required"))
	}
	if riskRate >= g.liquidationCfg.WarningThreshold {
		warnings = append(warnings, fmt.Sprintf("Warning: risk rate %.1f%%", riskRate*100))
	}
	if riskRate > riskRateReduction {
		multiplier *= 0.5
		warnings = append(warnings, fmt.Sprintf("High risk rate (%.1f%%), reduce position to 50%%", riskRate*100))
	}

	// 4. Drawdown gate. The high-water mark moves before the drawdown is
	// measured so a new equity peak can never read as a drawdown.
	if account.Total > g.maxEquity {
		g.maxEquity = account.Total
	}
	drawdown := 0.0
	if g.maxEquity > 0 {
		drawdown = (g.maxEquity - account.Total) / g.maxEquity
	}
	if drawdown >= g.drawdownCfg.MaxDrawdown {
		g.paused = true
		g.pauseReason = fmt.Sprintf("Max drawdown reached: %.1f%%", drawdown*100)
		g.logger.LogPause(true, g.pauseReason)
		return g.rejectLocked(signal.Symbol, g.pauseReason, append(warnings, "Trading paused"))
	}
	if drawdown >= g.drawdownCfg.PauseThreshold {
		warnings = append(warnings, fmt.Sprintf("High drawdown: %.1f%%", drawdown*100))
	}

	// 5. Balance-sufficiency gate
	if account.Available < account.Total*0.10 {
		return g.rejectLocked(signal.Symbol, fmt.Sprintf("Insufficient available balance: %.2f", account.Available), warnings)
	}
	if account.Available < account.Total*0.20 {
		warnings = append(warnings, fmt.Sprintf("Low available balance: %.2f", account.Available))
	}

	decision := RiskDecision{
		Approved:   true,
		Reason:     "All risk checks passed",
		Multiplier: multiplier,
		Warnings:   warnings,
	}
	g.logger.LogDecision(signal.Symbol, true, decision.Reason, multiplier, warnings)
	return decision
}

// resolveSentiment picks the reading for the sentiment gate: a supplied
// reading refreshes the cache, a fresh cache entry is reused, and with
// neither the gate assumes neutral sentiment. Must hold g.mu.
func (g *SignalGate) resolveSentiment(supplied *types.SentimentReading) types.SentimentReading {
	if supplied != nil {
		copied := *supplied
		g.cachedSentiment = &copied
		g.sentimentAt = g.now()
		return copied
	}
	if g.cachedSentiment != nil && g.now().Sub(g.sentimentAt) < sentimentCacheTTL {
		return *g.cachedSentiment
	}
	g.logger.Warning("no sentiment data available, assuming neutral")
	return types.SentimentReading{}
}

// Pause stops all approvals until Resume is called. There is no automatic
// resume.
func (g *SignalGate) Pause(reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = true
	g.pauseReason = reason
	g.logger.LogPause(true, reason)
}

// Resume lifts a pause set manually or by the drawdown gate.
func (g *SignalGate) Resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paused = false
	g.pauseReason = ""
	g.logger.LogPause(false, "")
}

// IsPaused reports the current pause state and its reason.
func (g *SignalGate) IsPaused() (bool, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.paused, g.pauseReason
}

// ResetMaxEquity rebases the high-water mark, e.g. on a daily rollover so
// yesterday's peak stops counting against today's drawdown.
func (g *SignalGate) ResetMaxEquity(equity float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.maxEquity = equity
	g.logger.Info("max equity reset to %.2f", equity)
}

// MaxEquity returns the current high-water mark.
func (g *SignalGate) MaxEquity() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.maxEquity
}

// rejectLocked builds a rejection and logs it. Must hold g.mu.
func (g *SignalGate) rejectLocked(symbol, reason string, warnings []string) RiskDecision {
	g.logger.LogDecision(symbol, false, reason, 0, warnings)
	return RiskDecision{
		Approved:   false,
		Reason:     reason,
		Multiplier: 0,
		Warnings:   warnings,
	}
}
