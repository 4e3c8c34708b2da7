package risk

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskcore/position-risk-engine/internal/config"
	"github.com/riskcore/position-risk-engine/pkg/types"
)

func newTestTakeProfitTracker() *TakeProfitTracker {
	return NewTakeProfitTracker(config.Default().TakeProfit, nil)
}

// TestTakeProfitInitialize_BuildsLadder tests ladder construction from
// explicit levels and ratios
func TestTakeProfitInitialize_BuildsLadder(t *testing.T) {
	tracker := newTestTakeProfitTracker()

	state, err := tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{0.4, 0.4, 0.2})
	require.NoError(t, err)

	require.Len(t, state.Levels, 3)
	assert.InDelta(t, 103.0, state.Levels[0].Price, 1e-9)
	assert.InDelta(t, 105.0, state.Levels[1].Price, 1e-9)
	assert.InDelta(t, 108.0, state.Levels[2].Price, 1e-9)
	assert.InDelta(t, 4.0, state.Levels[0].TargetQty, 1e-9)
	assert.InDelta(t, 4.0, state.Levels[1].TargetQty, 1e-9)
	assert.InDelta(t, 2.0, state.Levels[2].TargetQty, 1e-9)
	assert.Equal(t, 10.0, state.RemainingQty)
}

// TestTakeProfitInitialize_SellSide tests that short targets sit below
// the entry
func TestTakeProfitInitialize_SellSide(t *testing.T) {
	tracker := newTestTakeProfitTracker()

	state, err := tracker.Initialize("BTCUSDT", types.DirectionSell, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{0.4, 0.4, 0.2})
	require.NoError(t, err)

	assert.InDelta(t, 97.0, state.Levels[0].Price, 1e-9)
	assert.InDelta(t, 95.0, state.Levels[1].Price, 1e-9)
	assert.InDelta(t, 92.0, state.Levels[2].Price, 1e-9)
}

// TestTakeProfitInitialize_RejectsBadInputs tests that invalid inputs
// leave no state behind
func TestTakeProfitInitialize_RejectsBadInputs(t *testing.T) {
	tracker := newTestTakeProfitTracker()

	_, err := tracker.Initialize("BTCUSDT", types.DirectionBuy, 0, 10, nil, nil)
	assert.Error(t, err)

	_, err = tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 0, nil, nil)
	assert.Error(t, err)

	assert.Equal(t, 0, tracker.Count())
}

// TestTakeProfitInitialize_DefaultsApply tests the fall back to the
// configured ladder when the caller supplies none
func TestTakeProfitInitialize_DefaultsApply(t *testing.T) {
	tracker := newTestTakeProfitTracker()

	state, err := tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10, nil, nil)
	require.NoError(t, err)

	require.Len(t, state.Levels, 3)
	assert.InDelta(t, 103.0, state.Levels[0].Price, 1e-9)
	assert.InDelta(t, 0.4, state.Levels[0].Ratio, 1e-9)
}

// TestTakeProfitInitialize_ShortRatiosPadded tests stretching a single
// ratio across three levels with normalization
func TestTakeProfitInitialize_ShortRatiosPadded(t *testing.T) {
	tracker := newTestTakeProfitTracker()

	state, err := tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 9,
		[]float64{0.03, 0.05, 0.08}, []float64{0.5})
	require.NoError(t, err)

	// [0.5] padded to [0.5, 0.5, 0.5] then rescaled to thirds
	for _, level := range state.Levels {
		assert.InDelta(t, 1.0/3.0, level.Ratio, 1e-9)
		assert.InDelta(t, 3.0, level.TargetQty, 1e-9)
	}
}

// TestTakeProfitInitialize_RatiosRescaled tests that ratios not summing
// to one are rescaled proportionally
func TestTakeProfitInitialize_RatiosRescaled(t *testing.T) {
	tracker := newTestTakeProfitTracker()

	state, err := tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{2, 1, 1})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, state.Levels[0].Ratio, 1e-9)
	assert.InDelta(t, 0.25, state.Levels[1].Ratio, 1e-9)
	assert.InDelta(t, 0.25, state.Levels[2].Ratio, 1e-9)
}

// TestTakeProfitUpdate_SingleLevel tests a tick crossing exactly one
// target
func TestTakeProfitUpdate_SingleLevel(t *testing.T) {
	tracker := newTestTakeProfitTracker()
	tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{0.4, 0.4, 0.2})

	result := tracker.Update("BTCUSDT", 103.5)

	assert.True(t, result.Tracked)
	require.Len(t, result.TriggeredLevels, 1)
	assert.Equal(t, 0, result.TriggeredLevels[0].Index)
	assert.InDelta(t, 4.0, result.TriggeredLevels[0].Qty, 1e-9)
	assert.InDelta(t, 6.0, result.RemainingQty, 1e-9)
	assert.False(t, result.Completed)
	require.NotNil(t, result.NextLevelPrice)
	assert.InDelta(t, 105.0, *result.NextLevelPrice, 1e-9)
}

// TestTakeProfitUpdate_GapFillsMultipleLevels tests a price gap crossing
// two targets in one tick
func TestTakeProfitUpdate_GapFillsMultipleLevels(t *testing.T) {
	tracker := newTestTakeProfitTracker()
	tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{0.4, 0.4, 0.2})

	result := tracker.Update("BTCUSDT", 106)

	require.Len(t, result.TriggeredLevels, 2)
	assert.Equal(t, 0, result.TriggeredLevels[0].Index)
	assert.Equal(t, 1, result.TriggeredLevels[1].Index)
	assert.InDelta(t, 2.0, result.RemainingQty, 1e-9)
	assert.False(t, result.Completed)
	require.NotNil(t, result.NextLevelPrice)
	assert.InDelta(t, 108.0, *result.NextLevelPrice, 1e-9)
}

// TestTakeProfitUpdate_CompletesLadder tests exhausting the final level
func TestTakeProfitUpdate_CompletesLadder(t *testing.T) {
	tracker := newTestTakeProfitTracker()
	tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{0.4, 0.4, 0.2})

	tracker.Update("BTCUSDT", 106)
	result := tracker.Update("BTCUSDT", 108.5)

	require.Len(t, result.TriggeredLevels, 1)
	assert.Equal(t, 2, result.TriggeredLevels[0].Index)
	assert.InDelta(t, 0.0, result.RemainingQty, 1e-9)
	assert.True(t, result.Completed)
	assert.Nil(t, result.NextLevelPrice)
}

// TestTakeProfitUpdate_LevelsFireOnce tests that a filled level never
// fires again on later ticks
func TestTakeProfitUpdate_LevelsFireOnce(t *testing.T) {
	tracker := newTestTakeProfitTracker()
	tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{0.4, 0.4, 0.2})

	first := tracker.Update("BTCUSDT", 103.5)
	require.Len(t, first.TriggeredLevels, 1)

	second := tracker.Update("BTCUSDT", 104)
	assert.Empty(t, second.TriggeredLevels)
	assert.InDelta(t, 6.0, second.RemainingQty, 1e-9)
}

// TestTakeProfitUpdate_StrictOrder tests that a pullback below an
// unfilled target fills nothing even after earlier levels filled
func TestTakeProfitUpdate_StrictOrder(t *testing.T) {
	tracker := newTestTakeProfitTracker()
	tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{0.4, 0.4, 0.2})

	tracker.Update("BTCUSDT", 103.5)
	result := tracker.Update("BTCUSDT", 102)

	assert.Empty(t, result.TriggeredLevels)
	assert.False(t, result.Completed)
}

// TestTakeProfitUpdate_SellSide tests ladder advancement for a short as
// price falls
func TestTakeProfitUpdate_SellSide(t *testing.T) {
	tracker := newTestTakeProfitTracker()
	tracker.Initialize("BTCUSDT", types.DirectionSell, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{0.4, 0.4, 0.2})

	result := tracker.Update("BTCUSDT", 94)

	require.Len(t, result.TriggeredLevels, 2)
	assert.InDelta(t, 2.0, result.RemainingQty, 1e-9)
}

// TestTakeProfitUpdate_UnknownSymbol tests the benign empty result for
// an untracked symbol
func TestTakeProfitUpdate_UnknownSymbol(t *testing.T) {
	tracker := newTestTakeProfitTracker()

	result := tracker.Update("ETHUSDT", 100)

	assert.False(t, result.Tracked)
	assert.Empty(t, result.TriggeredLevels)
}

// TestTakeProfitUpdate_ConcurrentTicks tests that each level fills
// exactly once no matter how many goroutines deliver the same price
func TestTakeProfitUpdate_ConcurrentTicks(t *testing.T) {
	tracker := newTestTakeProfitTracker()
	tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10,
		[]float64{0.03, 0.05, 0.08}, []float64{0.4, 0.4, 0.2})

	var wg sync.WaitGroup
	var mu sync.Mutex
	totalFilled := 0.0
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				result := tracker.Update("BTCUSDT", 106)
				mu.Lock()
				for _, lvl := range result.TriggeredLevels {
					totalFilled += lvl.Qty
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// Levels 0 and 1 fill once across all goroutines combined
	assert.InDelta(t, 8.0, totalFilled, 1e-9)

	state, ok := tracker.Target("BTCUSDT")
	require.True(t, ok)
	assert.Equal(t, 2, state.NextIndex)
	assert.InDelta(t, 2.0, state.RemainingQty, 1e-9)
	assert.False(t, state.Completed)
}

// TestTakeProfitRemove tests teardown and the no-op on unknown symbols
func TestTakeProfitRemove(t *testing.T) {
	tracker := newTestTakeProfitTracker()
	tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10, nil, nil)

	tracker.Remove("BTCUSDT")
	assert.Equal(t, 0, tracker.Count())

	tracker.Remove("BTCUSDT")
	assert.Equal(t, 0, tracker.Count())
}

// TestTakeProfitTarget_ReturnsCopy tests that mutating a returned state
// cannot corrupt the tracked ladder
func TestTakeProfitTarget_ReturnsCopy(t *testing.T) {
	tracker := newTestTakeProfitTracker()
	tracker.Initialize("BTCUSDT", types.DirectionBuy, 100, 10, nil, nil)

	state, ok := tracker.Target("BTCUSDT")
	require.True(t, ok)
	state.Levels[0].Triggered = true

	fresh, _ := tracker.Target("BTCUSDT")
	assert.False(t, fresh.Levels[0].Triggered)
}
