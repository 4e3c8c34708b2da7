package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/joho/godotenv"

	"github.com/riskcore/position-risk-engine/internal/config"
	"github.com/riskcore/position-risk-engine/internal/engine"
	"github.com/riskcore/position-risk-engine/internal/logger"
	"github.com/riskcore/position-risk-engine/internal/monitoring"
	"github.com/riskcore/position-risk-engine/internal/rollover"
	"github.com/riskcore/position-risk-engine/pkg/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML configuration file")
	account := flag.String("account", "main", "account label used in log file names")
	demo := flag.Bool("demo", false, "run a scripted evaluation and exit")
	flag.Parse()

	// Load .env if present; real config comes from the YAML file and env
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment variables from .env")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fileLogger, err := logger.NewLogger(cfg.LogDir, *account)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer fileLogger.Close()

	health := monitoring.NewHealthChecker()
	eng := engine.New(cfg, fileLogger, health)

	printConfiguration(cfg)

	if *demo {
		runDemo(eng, cfg)
		return
	}

	// Observability endpoints
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.PrometheusPort)
		http.Handle("/metrics", monitoring.NewMetricsHandler())
		log.Printf("Prometheus metrics on %s/metrics", addr)
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Printf("Metrics server stopped: %v", err)
		}
	}()
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Monitoring.HealthPort)
		mux := http.NewServeMux()
		mux.Handle("/health", health)
		log.Printf("Health endpoint on %s/health", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("Health server stopped: %v", err)
		}
	}()

	// Daily max-equity rollover
	var scheduler *rollover.Scheduler
	if cfg.Rollover.Enabled {
		scheduler = rollover.NewScheduler(eng, lastKnownEquity, fileLogger)
		if err := scheduler.Register(cfg.Rollover.Cron); err != nil {
			log.Fatalf("Failed to register rollover: %v", err)
		}
		scheduler.Start()
		log.Printf("Rollover scheduled: %s", cfg.Rollover.Cron)
	}

	log.Println("Risk engine ready; wire an exchange connector to feed it")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	if scheduler != nil {
		scheduler.Stop()
	}
}

// lastKnownEquity stands in for the exchange connector's equity feed when
// riskd runs standalone.
func lastKnownEquity() float64 {
	return 0
}

// printConfiguration prints the active risk limits
func printConfiguration(cfg *config.Config) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("RISK ENGINE CONFIGURATION")
	t.SetStyle(table.StyleRounded)

	t.AppendRows([]table.Row{
		{"Base position", fmt.Sprintf("%.0f%% of equity", cfg.Sizing.BasePositionPct*100)},
		{"Max position", fmt.Sprintf("%.0f%% of equity", cfg.Sizing.MaxPositionPct*100)},
		{"Account risk", fmt.Sprintf("%.1f%% per trade", cfg.Sizing.AccountRiskPct*100)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Max drawdown", fmt.Sprintf("%.0f%% (pause)", cfg.Drawdown.MaxDrawdown*100)},
		{"Liquidation warn", fmt.Sprintf("%.0f%% risk rate", cfg.Liquidation.WarningThreshold*100)},
		{"Liquidation stop", fmt.Sprintf("%.0f%% risk rate", cfg.Liquidation.CriticalThreshold*100)},
	})
	t.AppendSeparator()
	t.AppendRows([]table.Row{
		{"Default stop", fmt.Sprintf("%.1f%%", cfg.Stop.DefaultPct*100)},
		{"Trailing", fmt.Sprintf("arm at +%.1f%%, trail %.1f%%", cfg.Stop.TrailingActivation*100, cfg.Stop.TrailingDistance*100)},
		{"TP levels", fmt.Sprintf("%v", cfg.TakeProfit.Levels)},
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMin: 18, WidthMax: 18, Align: text.AlignLeft},
		{Number: 2, WidthMin: 25, WidthMax: 40, Align: text.AlignLeft},
	})

	t.Render()
	fmt.Println()
}

// runDemo pushes one scripted signal through the full control flow so the
// engine can be inspected without any exchange attached.
func runDemo(eng *engine.Engine, cfg *config.Config) {
	account := types.AccountSnapshot{Total: 10000, Available: 8000, Used: 500}
	signal := types.PositionSignal{
		Strategy:   "TrendFollowing",
		Symbol:     "BTCUSDT",
		Direction:  types.DirectionBuy,
		EntryPrice: 100,
		StopLoss:   98,
		Strength:   types.StrengthStrong,
	}
	volatility := types.Volatility{ATR: 0.5, Price: 100}

	decision := eng.Evaluate(signal, account, nil, nil)
	sizing := eng.Size(account.Total, signal, volatility, decision)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("DEMO EVALUATION")
	t.SetStyle(table.StyleRounded)
	t.AppendRows([]table.Row{
		{"Approved", decision.Approved},
		{"Reason", decision.Reason},
		{"Multiplier", fmt.Sprintf("%.2f", decision.Multiplier)},
		{"Position value", fmt.Sprintf("$%.2f", sizing.PositionValue)},
		{"Quantity", fmt.Sprintf("%.6f", sizing.Quantity)},
		{"Risk amount", fmt.Sprintf("$%.2f", sizing.RiskAmount)},
		{"Binding limit", string(sizing.Breakdown.LimitingFactor)},
	})
	t.Render()

	if !decision.Approved {
		return
	}

	if err := eng.OpenPosition(signal, sizing.Quantity, cfg.TakeProfit.Levels, cfg.TakeProfit.Ratios); err != nil {
		log.Fatalf("Failed to open position tracking: %v", err)
	}

	// Walk the price through activation, trailing, and a take-profit fill
	for _, price := range []float64{101, 102, 104, 106, 103.9} {
		result := eng.OnTick(types.PriceTick{Symbol: signal.Symbol, Price: price})
		fmt.Printf("tick %.2f: stop=%.4f (%s, triggered=%v), tp fills=%d, remaining=%.4f\n",
			price, result.Stop.StopPrice, result.Stop.StopType, result.Stop.Triggered,
			len(result.TakeProfit.TriggeredLevels), result.TakeProfit.RemainingQty)
		if result.Stop.Triggered {
			fmt.Printf("stop hit: submit %s close order for %.4f remaining\n",
				signal.Direction.Opposite(), result.TakeProfit.RemainingQty)
		}
	}

	eng.ClosePosition(signal.Symbol)
}
