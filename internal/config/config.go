package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config is the full engine configuration. Every option the engine
// recognizes is enumerated here with an explicit default; there are no
// dynamic lookups with silent fallbacks.
type Config struct {
	Environment string `yaml:"environment"`
	LogDir      string `yaml:"log_dir"`

	Sizing      SizingConfig      `yaml:"sizing"`
	Sentiment   SentimentConfig   `yaml:"sentiment"`
	Liquidation LiquidationConfig `yaml:"liquidation"`
	Drawdown    DrawdownConfig    `yaml:"drawdown"`
	Stop        StopConfig        `yaml:"stop"`
	TakeProfit  TakeProfitConfig  `yaml:"take_profit"`

	Monitoring MonitoringConfig `yaml:"monitoring"`
	Rollover   RolloverConfig   `yaml:"rollover"`
}

// SizingConfig controls the position sizer.
type SizingConfig struct {
	BasePositionPct float64 `yaml:"base_position_size"` // fraction of equity per trade
	MaxPositionPct  float64 `yaml:"max_position_size"`  // hard cap as fraction of equity
	AccountRiskPct  float64 `yaml:"account_risk_pct"`   // max loss (at stop) per trade
}

// SentimentConfig controls the buy-side sentiment gate.
type SentimentConfig struct {
	Enabled           bool    `yaml:"enabled"`
	VetoThreshold     float64 `yaml:"veto_threshold"`     // reject buys at or below
	CriticalThreshold float64 `yaml:"critical_threshold"` // severe negative, reject
}

// LiquidationConfig controls the margin risk-rate gate.
type LiquidationConfig struct {
	WarningThreshold  float64 `yaml:"warning_threshold"`
	CriticalThreshold float64 `yaml:"critical_threshold"`
}

// DrawdownConfig controls the equity high-water-mark gate.
type DrawdownConfig struct {
	MaxDrawdown    float64 `yaml:"max_drawdown"`    // sticky pause at or beyond
	PauseThreshold float64 `yaml:"pause_threshold"` // warn at or beyond
}

// StopConfig controls stop-loss tracking.
type StopConfig struct {
	DefaultPct         float64 `yaml:"default_pct"`
	BreakoutPct        float64 `yaml:"breakout_pct"` // wider stop for breakout entries
	TrailingEnabled    bool    `yaml:"trailing_enabled"`
	TrailingActivation float64 `yaml:"trailing_activation"` // profit needed to arm trailing
	TrailingDistance   float64 `yaml:"trailing_distance"`   // gap kept below/above the extreme
}

// PctForStrategy returns the stop percentage for entries produced by the
// named strategy. Breakout entries get the wider stop; everything else
// uses the default.
func (s StopConfig) PctForStrategy(strategy string) float64 {
	if strategy == "Breakout" {
		return s.BreakoutPct
	}
	return s.DefaultPct
}

// TakeProfitConfig controls the default take-profit ladder.
type TakeProfitConfig struct {
	Levels []float64 `yaml:"levels"` // profit percentages per rung
	Ratios []float64 `yaml:"ratios"` // position fraction closed per rung
}

// MonitoringConfig controls the observability endpoints.
type MonitoringConfig struct {
	PrometheusPort int `yaml:"prometheus_port"`
	HealthPort     int `yaml:"health_port"`
}

// RolloverConfig controls the periodic max-equity reset.
type RolloverConfig struct {
	Enabled bool   `yaml:"enabled"`
	Cron    string `yaml:"cron"` // robfig/cron spec, seconds field included
}

// Default returns the engine defaults, matching the documented behavior of
// each gate and tracker.
func Default() *Config {
	return &Config{
		Environment: "development",
		LogDir:      "logs",
		Sizing: SizingConfig{
			BasePositionPct: 0.10,
			MaxPositionPct:  0.30,
			AccountRiskPct:  0.02,
		},
		Sentiment: SentimentConfig{
			Enabled:           true,
			VetoThreshold:     -0.4,
			CriticalThreshold: -0.6,
		},
		Liquidation: LiquidationConfig{
			WarningThreshold:  0.20,
			CriticalThreshold: 0.50,
		},
		Drawdown: DrawdownConfig{
			MaxDrawdown:    0.15,
			PauseThreshold: 0.10,
		},
		Stop: StopConfig{
			DefaultPct:         0.02,
			BreakoutPct:        0.03,
			TrailingEnabled:    true,
			TrailingActivation: 0.01,
			TrailingDistance:   0.01,
		},
		TakeProfit: TakeProfitConfig{
			Levels: []float64{0.03, 0.05, 0.08},
			Ratios: []float64{0.40, 0.40, 0.20},
		},
		Monitoring: MonitoringConfig{
			PrometheusPort: 8080,
			HealthPort:     8081,
		},
		Rollover: RolloverConfig{
			Enabled: false,
			Cron:    "0 0 0 * * *",
		},
	}
}

// Load reads configuration from a YAML file on top of the defaults, then
// applies environment variable overrides. A missing file is not an error;
// the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RISK_ENV"); v != "" {
		cfg.Environment = v
	}
	if v := os.Getenv("RISK_LOG_DIR"); v != "" {
		cfg.LogDir = v
	}
	if v, ok := envFloat("RISK_BASE_POSITION_PCT"); ok {
		cfg.Sizing.BasePositionPct = v
	}
	if v, ok := envFloat("RISK_MAX_POSITION_PCT"); ok {
		cfg.Sizing.MaxPositionPct = v
	}
	if v, ok := envFloat("RISK_ACCOUNT_RISK_PCT"); ok {
		cfg.Sizing.AccountRiskPct = v
	}
	if v, ok := envFloat("RISK_MAX_DRAWDOWN"); ok {
		cfg.Drawdown.MaxDrawdown = v
	}
	if v, ok := envInt("PROMETHEUS_PORT"); ok {
		cfg.Monitoring.PrometheusPort = v
	}
	if v, ok := envInt("HEALTH_PORT"); ok {
		cfg.Monitoring.HealthPort = v
	}
	if v := os.Getenv("RISK_ROLLOVER_CRON"); v != "" {
		cfg.Rollover.Cron = v
		cfg.Rollover.Enabled = true
	}
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return i, true
}
