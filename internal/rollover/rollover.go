package rollover

import (
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/riskcore/position-risk-engine/internal/engine"
	"github.com/riskcore/position-risk-engine/internal/logger"
)

// EquityFunc supplies the current account equity at rollover time. It is
// provided by the host, typically backed by the exchange connector's most
// recent snapshot.
type EquityFunc func() float64

// Scheduler rebases the drawdown high-water mark on a cron schedule, so
// yesterday's equity peak does not pause today's trading.
type Scheduler struct {
	cron   *cron.Cron
	engine *engine.Engine
	equity EquityFunc
	logger *logger.Logger
}

// NewScheduler creates a rollover scheduler. The logger may be nil.
func NewScheduler(eng *engine.Engine, equity EquityFunc, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithSeconds()),
		engine: eng,
		equity: equity,
		logger: log,
	}
}

// Register adds the rollover task under the given cron spec (with seconds
// field, e.g. "0 0 0 * * *" for midnight daily).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.rollover); err != nil {
		return fmt.Errorf("register rollover task: %w", err)
	}
	return nil
}

// Start begins running scheduled tasks in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) rollover() {
	equity := s.equity()
	if equity <= 0 {
		s.logger.Warning("rollover skipped: no equity reading")
		return
	}
	s.engine.ResetMaxEquity(equity)
	s.logger.Info("daily rollover: max equity rebased to %.2f", equity)
}
