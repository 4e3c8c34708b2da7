package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDirection_Opposite tests the closing side for each direction
func TestDirection_Opposite(t *testing.T) {
	assert.Equal(t, DirectionSell, DirectionBuy.Opposite())
	assert.Equal(t, DirectionBuy, DirectionSell.Opposite())
}

// TestVolatility_Normalized tests the ATR ratio and its zero-price guard
func TestVolatility_Normalized(t *testing.T) {
	assert.InDelta(t, 0.02, Volatility{ATR: 2, Price: 100}.Normalized(), 1e-9)
	assert.Equal(t, 0.0, Volatility{ATR: 2, Price: 0}.Normalized())
}
