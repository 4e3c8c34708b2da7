package risk

import (
	"github.com/riskcore/position-risk-engine/pkg/types"
)

// RiskDecision is the outcome of a gate evaluation. A rejection is a
// normal business outcome, not an error.
type RiskDecision struct {
	Approved   bool     `json:"approved"`
	Reason     string   `json:"reason"`
	Multiplier float64  `json:"position_size_multiplier"` // in [0, 1], 0 on rejection
	Warnings   []string `json:"warnings"`
}

// LimitingFactor names the bound that capped the final position size.
type LimitingFactor string

const (
	LimitNone        LimitingFactor = "none"
	LimitRisk        LimitingFactor = "risk_limit"
	LimitMaxPosition LimitingFactor = "max_position_limit"
)

// SizingBreakdown records every intermediate of a sizing computation so a
// decision can be audited after the fact.
type SizingBreakdown struct {
	VolatilityMultiplier float64        `json:"volatility_multiplier"`
	SignalMultiplier     float64        `json:"signal_multiplier"`
	RiskMultiplier       float64        `json:"risk_multiplier"`
	CombinedMultiplier   float64        `json:"combined_multiplier"`
	StopDistancePct      float64        `json:"stop_distance_pct"`
	MaxRiskSize          float64        `json:"max_risk_size"`
	MaxPositionSize      float64        `json:"max_position_size"`
	LimitingFactor       LimitingFactor `json:"limiting_factor"`
}

// SizingResult is the concrete order size derived from an approved signal.
type SizingResult struct {
	PositionValue float64         `json:"position_value"` // quote currency
	Quantity      float64         `json:"quantity"`       // base currency
	BaseSize      float64         `json:"base_size"`
	AdjustedSize  float64         `json:"adjusted_size"`
	RiskAmount    float64         `json:"risk_amount"` // loss if the stop fills exactly
	Breakdown     SizingBreakdown `json:"breakdown"`
}

// StopType distinguishes the two stop-loss states.
type StopType string

const (
	StopTypeFixed    StopType = "fixed"
	StopTypeTrailing StopType = "trailing"
)

// StopState is a point-in-time copy of one symbol's stop tracking.
type StopState struct {
	Symbol       string          `json:"symbol"`
	Side         types.Direction `json:"side"`
	EntryPrice   float64         `json:"entry_price"`
	StopPct      float64         `json:"stop_pct"`
	FixedStop    float64         `json:"fixed_stop"`
	TrailingStop float64         `json:"trailing_stop"`
	Activated    bool            `json:"activated"`
	ExtremePrice float64         `json:"extreme_price"` // highest seen for buy, lowest for sell
}

// ActiveStop returns the stop price currently in force.
func (s StopState) ActiveStop() float64 {
	if s.Activated {
		return s.TrailingStop
	}
	return s.FixedStop
}

// StopUpdateResult reports the effect of one price tick on a stop. A
// trigger is advisory: the tracker keeps its state until the caller
// confirms closure and removes the symbol.
type StopUpdateResult struct {
	Tracked   bool     `json:"tracked"` // false when the symbol has no stop
	Triggered bool     `json:"triggered"`
	StopPrice float64  `json:"stop_price"`
	StopType  StopType `json:"stop_type"`
	PnLPct    float64  `json:"pnl_pct"` // directional, positive when in profit
}

// TakeProfitLevel is one rung of a take-profit ladder.
type TakeProfitLevel struct {
	Index     int     `json:"index"`
	Pct       float64 `json:"pct"`
	Price     float64 `json:"price"`
	Ratio     float64 `json:"ratio"`
	TargetQty float64 `json:"target_qty"`
	Triggered bool    `json:"triggered"`
	FilledQty float64 `json:"filled_qty"`
}

// TakeProfitState is a point-in-time copy of one symbol's ladder.
type TakeProfitState struct {
	Symbol       string            `json:"symbol"`
	Direction    types.Direction   `json:"direction"`
	EntryPrice   float64           `json:"entry_price"`
	TotalQty     float64           `json:"total_qty"`
	RemainingQty float64           `json:"remaining_qty"`
	Levels       []TakeProfitLevel `json:"levels"`
	NextIndex    int               `json:"next_index"`
	Completed    bool              `json:"completed"`
}

// TriggeredLevel describes one ladder rung filled by a price update.
type TriggeredLevel struct {
	Index int     `json:"index"`
	Pct   float64 `json:"pct"`
	Price float64 `json:"price"`
	Ratio float64 `json:"ratio"`
	Qty   float64 `json:"qty"`
}

// TakeProfitUpdateResult reports the rungs a single tick crossed. A price
// gap may trigger several levels at once.
type TakeProfitUpdateResult struct {
	Tracked         bool             `json:"tracked"`
	TriggeredLevels []TriggeredLevel `json:"triggered_levels"`
	RemainingQty    float64          `json:"remaining_qty"`
	Completed       bool             `json:"completed"`
	NextLevelPrice  *float64         `json:"next_level_price"` // nil once the ladder is exhausted
}

// Triggered reports whether this update filled at least one level.
func (r TakeProfitUpdateResult) Triggered() bool {
	return len(r.TriggeredLevels) > 0
}
