package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Gate metrics
	decisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_decisions_total",
			Help: "Total number of gate evaluations by outcome",
		},
		[]string{"symbol", "outcome"},
	)

	decisionMultiplier = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "risk_engine_decision_multiplier",
			Help:    "Distribution of approved position size multipliers",
			Buckets: []float64{0.1, 0.25, 0.35, 0.5, 0.7, 0.85, 1.0},
		},
		[]string{"symbol"},
	)

	// Account state metrics
	maxEquity = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_max_equity",
			Help: "Equity high-water mark used by the drawdown gate",
		},
	)

	pausedState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_paused",
			Help: "1 when the gate is paused, 0 otherwise",
		},
	)

	// Exit tracker metrics
	stopTriggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_stop_triggers_total",
			Help: "Total number of stop-loss triggers by stop type",
		},
		[]string{"symbol", "type"},
	)

	takeProfitFillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_engine_take_profit_fills_total",
			Help: "Total number of take-profit level fills",
		},
		[]string{"symbol"},
	)

	trackedPositions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_engine_tracked_positions",
			Help: "Number of positions with active exit tracking",
		},
	)
)

func init() {
	// Register metrics
	prometheus.MustRegister(decisionsTotal)
	prometheus.MustRegister(decisionMultiplier)
	prometheus.MustRegister(maxEquity)
	prometheus.MustRegister(pausedState)
	prometheus.MustRegister(stopTriggersTotal)
	prometheus.MustRegister(takeProfitFillsTotal)
	prometheus.MustRegister(trackedPositions)
}

// MetricsHandler handles Prometheus metrics endpoint
type MetricsHandler struct{}

// NewMetricsHandler creates a new metrics handler
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{}
}

// ServeHTTP serves the Prometheus metrics endpoint
func (m *MetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// RecordDecision records one gate evaluation
func RecordDecision(symbol string, approved bool, multiplier float64) {
	outcome := "rejected"
	if approved {
		outcome = "approved"
		decisionMultiplier.WithLabelValues(symbol).Observe(multiplier)
	}
	decisionsTotal.WithLabelValues(symbol, outcome).Inc()
}

// UpdateMaxEquity updates the high-water-mark gauge
func UpdateMaxEquity(equity float64) {
	maxEquity.Set(equity)
}

// SetPaused updates the pause state gauge
func SetPaused(paused bool) {
	if paused {
		pausedState.Set(1)
	} else {
		pausedState.Set(0)
	}
}

// RecordStopTrigger records a stop-loss trigger
func RecordStopTrigger(symbol, stopType string) {
	stopTriggersTotal.WithLabelValues(symbol, stopType).Inc()
}

// RecordTakeProfitFill records one filled take-profit level
func RecordTakeProfitFill(symbol string) {
	takeProfitFillsTotal.WithLabelValues(symbol).Inc()
}

// SetTrackedPositions updates the tracked position count gauge
func SetTrackedPositions(count int) {
	trackedPositions.Set(float64(count))
}
