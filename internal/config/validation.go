package config

import (
	"fmt"

	"github.com/riskcore/position-risk-engine/internal/errors"
)

// Validate checks every configuration section and fails fast on the first
// problem. A config that passes Validate cannot make any engine component
// divide by zero or construct partial state.
func (c *Config) Validate() error {
	if err := c.Sizing.validate(); err != nil {
		return err
	}
	if err := c.Sentiment.validate(); err != nil {
		return err
	}
	if err := c.Liquidation.validate(); err != nil {
		return err
	}
	if err := c.Drawdown.validate(); err != nil {
		return err
	}
	if err := c.Stop.validate(); err != nil {
		return err
	}
	if err := c.TakeProfit.validate(); err != nil {
		return err
	}
	return nil
}

func (s SizingConfig) validate() error {
	if s.BasePositionPct <= 0 || s.BasePositionPct > 1 {
		return configErr("sizing", fmt.Sprintf("base_position_size must be within (0, 1], got %.4f", s.BasePositionPct))
	}
	if s.MaxPositionPct <= 0 || s.MaxPositionPct > 1 {
		return configErr("sizing", fmt.Sprintf("max_position_size must be within (0, 1], got %.4f", s.MaxPositionPct))
	}
	if s.MaxPositionPct < s.BasePositionPct {
		return configErr("sizing", fmt.Sprintf("max_position_size %.4f is below base_position_size %.4f", s.MaxPositionPct, s.BasePositionPct))
	}
	if s.AccountRiskPct <= 0 || s.AccountRiskPct > 1 {
		return configErr("sizing", fmt.Sprintf("account_risk_pct must be within (0, 1], got %.4f", s.AccountRiskPct))
	}
	return nil
}

func (s SentimentConfig) validate() error {
	if s.VetoThreshold < -1 || s.VetoThreshold > 1 {
		return configErr("sentiment", fmt.Sprintf("veto_threshold must be within [-1, 1], got %.2f", s.VetoThreshold))
	}
	if s.CriticalThreshold < -1 || s.CriticalThreshold > 1 {
		return configErr("sentiment", fmt.Sprintf("critical_threshold must be within [-1, 1], got %.2f", s.CriticalThreshold))
	}
	if s.CriticalThreshold > s.VetoThreshold {
		return configErr("sentiment", fmt.Sprintf("critical_threshold %.2f must not exceed veto_threshold %.2f", s.CriticalThreshold, s.VetoThreshold))
	}
	return nil
}

func (l LiquidationConfig) validate() error {
	if l.WarningThreshold <= 0 || l.WarningThreshold >= 1 {
		return configErr("liquidation", fmt.Sprintf("warning_threshold must be within (0, 1), got %.2f", l.WarningThreshold))
	}
	if l.CriticalThreshold <= l.WarningThreshold || l.CriticalThreshold > 1 {
		return configErr("liquidation", fmt.Sprintf("critical_threshold must be within (warning_threshold, 1], got %.2f", l.CriticalThreshold))
	}
	return nil
}

func (d DrawdownConfig) validate() error {
	if d.MaxDrawdown <= 0 || d.MaxDrawdown > 1 {
		return configErr("drawdown", fmt.Sprintf("max_drawdown must be within (0, 1], got %.2f", d.MaxDrawdown))
	}
	if d.PauseThreshold <= 0 || d.PauseThreshold > d.MaxDrawdown {
		return configErr("drawdown", fmt.Sprintf("pause_threshold must be within (0, max_drawdown], got %.2f", d.PauseThreshold))
	}
	return nil
}

func (s StopConfig) validate() error {
	if s.DefaultPct <= 0 || s.DefaultPct >= 1 {
		return configErr("stop", fmt.Sprintf("default_pct must be within (0, 1), got %.4f", s.DefaultPct))
	}
	if s.BreakoutPct <= 0 || s.BreakoutPct >= 1 {
		return configErr("stop", fmt.Sprintf("breakout_pct must be within (0, 1), got %.4f", s.BreakoutPct))
	}
	if s.TrailingActivation <= 0 || s.TrailingActivation >= 1 {
		return configErr("stop", fmt.Sprintf("trailing_activation must be within (0, 1), got %.4f", s.TrailingActivation))
	}
	if s.TrailingDistance <= 0 || s.TrailingDistance >= 1 {
		return configErr("stop", fmt.Sprintf("trailing_distance must be within (0, 1), got %.4f", s.TrailingDistance))
	}
	return nil
}

func (t TakeProfitConfig) validate() error {
	for _, lvl := range t.Levels {
		if lvl <= 0 {
			return configErr("take_profit", fmt.Sprintf("levels must be positive, got %.4f", lvl))
		}
	}
	for _, r := range t.Ratios {
		if r < 0 {
			return configErr("take_profit", fmt.Sprintf("ratios must be non-negative, got %.4f", r))
		}
	}
	return nil
}

func configErr(section, message string) error {
	return errors.NewConfigurationError("config", section, message)
}
