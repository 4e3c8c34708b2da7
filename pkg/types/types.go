package types

import "time"

// Direction is the side of a position or signal.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Opposite returns the closing side for a position opened in this direction.
func (d Direction) Opposite() Direction {
	if d == DirectionBuy {
		return DirectionSell
	}
	return DirectionBuy
}

// SignalStrength grades how convicted a strategy is about a signal.
type SignalStrength string

const (
	StrengthStrong SignalStrength = "strong"
	StrengthMedium SignalStrength = "medium"
	StrengthWeak   SignalStrength = "weak"
)

// AccountSnapshot is the account state supplied by the exchange connector
// on every gate evaluation. All amounts are in quote currency. The engine
// never mutates or retains a snapshot.
type AccountSnapshot struct {
	Total         float64 `json:"total"`
	Available     float64 `json:"available"`
	Used          float64 `json:"used"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
}

// PositionSignal is a candidate trade produced by a strategy. The risk core
// consumes signals only; it never sees the strategy that produced them.
type PositionSignal struct {
	Strategy   string         `json:"strategy,omitempty"`
	Symbol     string         `json:"symbol,omitempty"`
	Direction  Direction      `json:"direction"`
	EntryPrice float64        `json:"entry_price"`
	StopLoss   float64        `json:"stop_loss"`
	Strength   SignalStrength `json:"strength"`
	Score      float64        `json:"score,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	Timestamp  time.Time      `json:"timestamp,omitempty"`
}

// SentimentReading is an optional market-sentiment sample from the
// sentiment collaborator. Score is in [-1, 1], FUDRatio in [0, 1].
type SentimentReading struct {
	Score    float64 `json:"score"`
	FUDRatio float64 `json:"fud_ratio"`
}

// Position is a minimal view of an open position, used by the gate to
// decide whether any margin is at risk.
type Position struct {
	Symbol     string    `json:"symbol"`
	Side       Direction `json:"side"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"quantity"`
}

// PriceTick is a single price observation for one symbol.
type PriceTick struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Volatility carries the ATR sample used for position sizing. Price is the
// reference price the ATR was computed against.
type Volatility struct {
	ATR   float64 `json:"atr"`
	Price float64 `json:"price"`
}

// Normalized returns ATR as a fraction of price, or 0 when price is not
// positive.
func (v Volatility) Normalized() float64 {
	if v.Price <= 0 {
		return 0
	}
	return v.ATR / v.Price
}
