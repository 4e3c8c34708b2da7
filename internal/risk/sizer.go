package risk

import (
	"fmt"
	"math"

	"github.com/riskcore/position-risk-engine/internal/config"
	"github.com/riskcore/position-risk-engine/internal/errors"
	"github.com/riskcore/position-risk-engine/pkg/types"
)

// minPositionPct is the floor below which a position is not worth opening.
const minPositionPct = 0.01

// PositionSizer turns an approved signal into a concrete position size.
// It holds no mutable state; every call is a pure function of its inputs.
type PositionSizer struct {
	basePositionPct float64
	maxPositionPct  float64
	accountRiskPct  float64
}

// NewPositionSizer creates a sizer from a validated sizing configuration.
func NewPositionSizer(cfg config.SizingConfig) *PositionSizer {
	return &PositionSizer{
		basePositionPct: cfg.BasePositionPct,
		maxPositionPct:  cfg.MaxPositionPct,
		accountRiskPct:  cfg.AccountRiskPct,
	}
}

// Size computes the position value and quantity for a signal.
//
// The base size (a fixed fraction of equity) is scaled by three
// multipliers: volatility regime, signal strength, and the risk multiplier
// accumulated by the gate. The result is then capped by the stop-distance
// risk limit and the absolute position limit, whichever binds first.
// Degenerate inputs never fault: a zero stop distance leaves the risk cap
// unconstrained and a zero entry price yields zero quantity.
func (s *PositionSizer) Size(accountEquity float64, signal types.PositionSignal,
	volatility types.Volatility, riskMultiplier float64) SizingResult {

	baseSize := accountEquity * s.basePositionPct

	volMult := volatilityMultiplier(volatility.Normalized())
	signalMult := signalMultiplier(signal.Strength)

	adjustedSize := baseSize * volMult * signalMult * riskMultiplier

	stopDistance := 0.0
	if signal.EntryPrice > 0 {
		stopDistance = math.Abs(signal.EntryPrice-signal.StopLoss) / signal.EntryPrice
	}

	maxRiskSize := adjustedSize
	if stopDistance > 0 {
		maxRiskSize = (accountEquity * s.accountRiskPct) / stopDistance
	}

	maxPositionSize := accountEquity * s.maxPositionPct

	finalSize := math.Min(adjustedSize, math.Min(maxRiskSize, maxPositionSize))

	quantity := 0.0
	if signal.EntryPrice > 0 {
		quantity = finalSize / signal.EntryPrice
	}

	return SizingResult{
		PositionValue: finalSize,
		Quantity:      quantity,
		BaseSize:      baseSize,
		AdjustedSize:  adjustedSize,
		RiskAmount:    finalSize * stopDistance,
		Breakdown: SizingBreakdown{
			VolatilityMultiplier: volMult,
			SignalMultiplier:     signalMult,
			RiskMultiplier:       riskMultiplier,
			CombinedMultiplier:   volMult * signalMult * riskMultiplier,
			StopDistancePct:      stopDistance,
			MaxRiskSize:          maxRiskSize,
			MaxPositionSize:      maxPositionSize,
			LimitingFactor:       limitingFactor(adjustedSize, maxRiskSize, maxPositionSize, finalSize),
		},
	}
}

// Validate checks that a computed position value is sensible relative to
// equity: at least 1% and no more than the configured maximum.
func (s *PositionSizer) Validate(positionValue, accountEquity float64) error {
	positionPct := 0.0
	if accountEquity > 0 {
		positionPct = positionValue / accountEquity
	}

	if positionPct > s.maxPositionPct {
		return errors.NewValidationError("sizer", "validate",
			fmt.Sprintf("position size (%.1f%%) exceeds maximum (%.1f%%)", positionPct*100, s.maxPositionPct*100))
	}
	if positionPct < minPositionPct {
		return errors.NewValidationError("sizer", "validate",
			fmt.Sprintf("position size (%.1f%%) too small (minimum %.0f%%)", positionPct*100, minPositionPct*100))
	}
	return nil
}

// volatilityMultiplier scales size inversely with the volatility regime:
// calm markets take larger positions, turbulent ones smaller.
func volatilityMultiplier(atrNormalized float64) float64 {
	switch {
	case atrNormalized < 0.01:
		return 1.5
	case atrNormalized < 0.03:
		return 1.0
	default:
		return 0.5
	}
}

func signalMultiplier(strength types.SignalStrength) float64 {
	switch strength {
	case types.StrengthStrong:
		return 1.2
	case types.StrengthWeak:
		return 0.7
	default:
		return 1.0
	}
}

// limitingFactor names the bound that produced finalSize. Exact ties
// resolve in check order: a final size that equals adjustedSize reports
// none even when a cap matches it, and the risk cap wins over the
// position cap.
func limitingFactor(adjustedSize, maxRiskSize, maxPositionSize, finalSize float64) LimitingFactor {
	switch finalSize {
	case adjustedSize:
		return LimitNone
	case maxRiskSize:
		return LimitRisk
	case maxPositionSize:
		return LimitMaxPosition
	default:
		return LimitNone
	}
}
