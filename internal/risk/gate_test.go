package risk

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/riskcore/position-risk-engine/internal/config"
	"github.com/riskcore/position-risk-engine/pkg/types"
)

func newTestGate() *SignalGate {
	return NewSignalGate(config.Default(), nil)
}

func buySignal() types.PositionSignal {
	return types.PositionSignal{
		Strategy:   "TrendFollowing",
		Symbol:     "BTCUSDT",
		Direction:  types.DirectionBuy,
		EntryPrice: 100,
		StopLoss:   98,
		Strength:   types.StrengthMedium,
	}
}

func healthyAccount() types.AccountSnapshot {
	return types.AccountSnapshot{Total: 10000, Available: 8000, Used: 500}
}

// TestEvaluate_AllChecksPass tests that a healthy account and a neutral
// market approve at full size
func TestEvaluate_AllChecksPass(t *testing.T) {
	gate := newTestGate()

	decision := gate.Evaluate(buySignal(), healthyAccount(), nil, nil)

	assert.True(t, decision.Approved)
	assert.Equal(t, 1.0, decision.Multiplier)
	assert.Empty(t, decision.Warnings)
}

// TestEvaluate_PausedRejectsEverything tests that a manual pause rejects
// any signal until Resume
func TestEvaluate_PausedRejectsEverything(t *testing.T) {
	gate := newTestGate()
	gate.Pause("manual intervention")

	decision := gate.Evaluate(buySignal(), healthyAccount(), nil, nil)

	assert.False(t, decision.Approved)
	assert.Equal(t, 0.0, decision.Multiplier)
	assert.Contains(t, decision.Reason, "Trading paused")

	gate.Resume()
	decision = gate.Evaluate(buySignal(), healthyAccount(), nil, nil)
	assert.True(t, decision.Approved)
}

// TestEvaluate_SentimentVeto tests rejection of buys at the veto
// threshold
func TestEvaluate_SentimentVeto(t *testing.T) {
	gate := newTestGate()
	sentiment := &types.SentimentReading{Score: -0.5, FUDRatio: 0.2}

	decision := gate.Evaluate(buySignal(), healthyAccount(), nil, sentiment)

	assert.False(t, decision.Approved)
	assert.Contains(t, decision.Reason, "veto")
}

// TestEvaluate_SentimentCritical tests the harsher rejection below the
// critical threshold
func TestEvaluate_SentimentCritical(t *testing.T) {
	gate := newTestGate()
	sentiment := &types.SentimentReading{Score: -0.8, FUDRatio: 0.6}

	decision := gate.Evaluate(buySignal(), healthyAccount(), nil, sentiment)

	assert.False(t, decision.Approved)
	assert.Contains(t, decision.Reason, "Critical negative sentiment")
}

// TestEvaluate_SentimentReducesSize tests the 0.7 size reduction for
// mildly negative sentiment
func TestEvaluate_SentimentReducesSize(t *testing.T) {
	gate := newTestGate()
	sentiment := &types.SentimentReading{Score: -0.3, FUDRatio: 0.1}

	decision := gate.Evaluate(buySignal(), healthyAccount(), nil, sentiment)

	assert.True(t, decision.Approved)
	assert.InDelta(t, 0.7, decision.Multiplier, 1e-9)
	assert.NotEmpty(t, decision.Warnings)
}

// TestEvaluate_SentimentIgnoredForSells tests that the sentiment gate
// only applies to the buy side
func TestEvaluate_SentimentIgnoredForSells(t *testing.T) {
	gate := newTestGate()
	signal := buySignal()
	signal.Direction = types.DirectionSell
	sentiment := &types.SentimentReading{Score: -0.9, FUDRatio: 0.8}

	decision := gate.Evaluate(signal, healthyAccount(), nil, sentiment)

	assert.True(t, decision.Approved)
	assert.Equal(t, 1.0, decision.Multiplier)
}

// TestEvaluate_SentimentCacheReused tests that a supplied reading is
// cached and reused for subsequent evaluations within the TTL
func TestEvaluate_SentimentCacheReused(t *testing.T) {
	gate := newTestGate()
	sentiment := &types.SentimentReading{Score: -0.3, FUDRatio: 0.1}

	first := gate.Evaluate(buySignal(), healthyAccount(), nil, sentiment)
	assert.InDelta(t, 0.7, first.Multiplier, 1e-9)

	// No reading supplied: the cached one still applies
	second := gate.Evaluate(buySignal(), healthyAccount(), nil, nil)
	assert.InDelta(t, 0.7, second.Multiplier, 1e-9)
}

// TestEvaluate_SentimentCacheExpires tests the fall back to neutral once
// the cached reading goes stale
func TestEvaluate_SentimentCacheExpires(t *testing.T) {
	gate := newTestGate()
	current := time.Now()
	gate.now = func() time.Time { return current }

	sentiment := &types.SentimentReading{Score: -0.3, FUDRatio: 0.1}
	gate.Evaluate(buySignal(), healthyAccount(), nil, sentiment)

	current = current.Add(6 * time.Minute)
	decision := gate.Evaluate(buySignal(), healthyAccount(), nil, nil)

	assert.True(t, decision.Approved)
	assert.Equal(t, 1.0, decision.Multiplier)
}

// TestEvaluate_NoSentimentAssumesNeutral tests that missing sentiment
// data never blocks a trade
func TestEvaluate_NoSentimentAssumesNeutral(t *testing.T) {
	gate := newTestGate()

	decision := gate.Evaluate(buySignal(), healthyAccount(), nil, nil)

	assert.True(t, decision.Approved)
	assert.Equal(t, 1.0, decision.Multiplier)
}

// TestEvaluate_CriticalLiquidationRisk tests rejection when margin usage
// crosses the critical risk rate
func TestEvaluate_CriticalLiquidationRisk(t *testing.T) {
	gate := newTestGate()
	account := types.AccountSnapshot{Total: 10000, Available: 4000, Used: 5500}
	positions := []types.Position{{Symbol: "BTCUSDT", Side: types.DirectionBuy}}

	decision := gate.Evaluate(buySignal(), account, positions, nil)

	assert.False(t, decision.Approved)
	assert.Contains(t, decision.Reason, "Critical liquidation risk")
}

// TestEvaluate_ElevatedRiskRateHalvesSize tests the 0.5 multiplier above
// the 10% risk rate
func TestEvaluate_ElevatedRiskRateHalvesSize(t *testing.T) {
	gate := newTestGate()
	account := types.AccountSnapshot{Total: 10000, Available: 7000, Used: 2500}
	positions := []types.Position{{Symbol: "BTCUSDT", Side: types.DirectionBuy}}

	decision := gate.Evaluate(buySignal(), account, positions, nil)

	assert.True(t, decision.Approved)
	assert.InDelta(t, 0.5, decision.Multiplier, 1e-9)
	// 25% usage also crosses the warning threshold
	assert.NotEmpty(t, decision.Warnings)
}

// TestEvaluate_RiskRateIgnoredWithoutPositions tests that margin usage
// with no open positions does not count as liquidation risk
func TestEvaluate_RiskRateIgnoredWithoutPositions(t *testing.T) {
	gate := newTestGate()
	account := types.AccountSnapshot{Total: 10000, Available: 8000, Used: 5500}

	decision := gate.Evaluate(buySignal(), account, nil, nil)

	assert.True(t, decision.Approved)
	assert.Equal(t, 1.0, decision.Multiplier)
}

// TestEvaluate_MaxDrawdownPausesTrading tests the sticky pause when
// equity falls too far from its high-water mark
func TestEvaluate_MaxDrawdownPausesTrading(t *testing.T) {
	gate := newTestGate()

	// Establish the high-water mark at 10000
	first := gate.Evaluate(buySignal(), healthyAccount(), nil, nil)
	assert.True(t, first.Approved)

	// 16% drawdown breaches the 15% limit
	drawn := types.AccountSnapshot{Total: 8400, Available: 7000, Used: 500}
	second := gate.Evaluate(buySignal(), drawn, nil, nil)

	assert.False(t, second.Approved)
	assert.Contains(t, second.Reason, "Max drawdown")

	paused, reason := gate.IsPaused()
	assert.True(t, paused)
	assert.Contains(t, reason, "Max drawdown")

	// The pause sticks even after equity recovers
	third := gate.Evaluate(buySignal(), healthyAccount(), nil, nil)
	assert.False(t, third.Approved)
	assert.Contains(t, third.Reason, "Trading paused")

	gate.Resume()
	fourth := gate.Evaluate(buySignal(), healthyAccount(), nil, nil)
	assert.True(t, fourth.Approved)
}

// TestEvaluate_NewEquityPeakIsNotDrawdown tests that the high-water mark
// advances before the drawdown is measured
func TestEvaluate_NewEquityPeakIsNotDrawdown(t *testing.T) {
	gate := newTestGate()

	gate.Evaluate(buySignal(), healthyAccount(), nil, nil)

	grown := types.AccountSnapshot{Total: 12000, Available: 10000, Used: 500}
	decision := gate.Evaluate(buySignal(), grown, nil, nil)

	assert.True(t, decision.Approved)
	assert.Equal(t, 12000.0, gate.MaxEquity())
}

// TestEvaluate_ModerateDrawdownWarns tests the warning between the pause
// threshold and the hard limit
func TestEvaluate_ModerateDrawdownWarns(t *testing.T) {
	gate := newTestGate()

	gate.Evaluate(buySignal(), healthyAccount(), nil, nil)

	// 12% drawdown: warn but do not pause
	drawn := types.AccountSnapshot{Total: 8800, Available: 7000, Used: 500}
	decision := gate.Evaluate(buySignal(), drawn, nil, nil)

	assert.True(t, decision.Approved)
	assert.NotEmpty(t, decision.Warnings)

	paused, _ := gate.IsPaused()
	assert.False(t, paused)
}

// TestEvaluate_InsufficientBalance tests rejection when the free balance
// drops below 10% of equity
func TestEvaluate_InsufficientBalance(t *testing.T) {
	gate := newTestGate()
	account := types.AccountSnapshot{Total: 10000, Available: 500, Used: 500}

	decision := gate.Evaluate(buySignal(), account, nil, nil)

	assert.False(t, decision.Approved)
	assert.Contains(t, decision.Reason, "Insufficient available balance")
}

// TestEvaluate_LowBalanceWarns tests the warning between 10% and 20%
// available balance
func TestEvaluate_LowBalanceWarns(t *testing.T) {
	gate := newTestGate()
	account := types.AccountSnapshot{Total: 10000, Available: 1500, Used: 500}

	decision := gate.Evaluate(buySignal(), account, nil, nil)

	assert.True(t, decision.Approved)
	assert.NotEmpty(t, decision.Warnings)
}

// TestEvaluate_ConcurrentCallsTrackPeakEquity tests that parallel
// evaluations serialize on the gate and leave the high-water mark at the
// true maximum regardless of arrival order
func TestEvaluate_ConcurrentCallsTrackPeakEquity(t *testing.T) {
	gate := newTestGate()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				total := 10000 + float64((seed*50+i)%400)
				account := types.AccountSnapshot{Total: total, Available: total * 0.8}
				decision := gate.Evaluate(buySignal(), account, nil, nil)
				assert.True(t, decision.Approved)
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 10399.0, gate.MaxEquity())

	paused, _ := gate.IsPaused()
	assert.False(t, paused)
}

// TestResetMaxEquity tests rebasing the high-water mark
func TestResetMaxEquity(t *testing.T) {
	gate := newTestGate()

	gate.Evaluate(buySignal(), healthyAccount(), nil, nil)
	assert.Equal(t, 10000.0, gate.MaxEquity())

	gate.ResetMaxEquity(9000)
	assert.Equal(t, 9000.0, gate.MaxEquity())

	// A 6% drop from the rebased mark is no longer a 15% drawdown
	account := types.AccountSnapshot{Total: 8460, Available: 7000, Used: 500}
	decision := gate.Evaluate(buySignal(), account, nil, nil)
	assert.True(t, decision.Approved)
}
