/*
scheduler.go - Automated month-end payroll runs

PURPOSE:
  Periodically checks whether the previous calendar month has been run and,
  if not, runs payroll for every employee for that month.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - The candidate period is the month before the current one (Clock)
  - A period with a recorded run (RunStore) is skipped
  - Failed employees are reported in the run record, not retried

USAGE:
  scheduler := payrun.NewScheduler(service, store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - service.go: the run itself
  - api/handlers.go: manual runs (POST /api/payroll/runs)
*/
package payrun

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/payroll-engine/payroll"
)

// Scheduler triggers month-end runs.
type Scheduler struct {
	Service       *Service
	Runs          payroll.RunStore
	CheckInterval time.Duration
	Enabled       bool
	Clock         func() time.Time

	logger zerolog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

func NewScheduler(service *Service, runs payroll.RunStore, logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Service:       service,
		Runs:          runs,
		CheckInterval: time.Hour,
		Enabled:       true,
		Clock:         time.Now,
		logger:        logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start begins the scheduler.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.Enabled {
		s.logger.Info().Msg("scheduler disabled, not starting")
		return
	}
	if s.ticker != nil {
		return
	}

	s.ticker = time.NewTicker(s.CheckInterval)
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go s.run()

	s.logger.Info().Dur("interval", s.CheckInterval).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a check in progress.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	close(s.stop)
	s.wg.Wait()
	s.ticker = nil
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) run() {
	defer s.wg.Done()

	ctx, cancel := context.WithCancel(s.logger.WithContext(context.Background()))
	defer cancel()
	go func() {
		<-s.stop
		cancel()
	}()

	s.RunNow(ctx)
	for {
		select {
		case <-s.ticker.C:
			s.RunNow(ctx)
		case <-s.stop:
			return
		}
	}
}

// DuePeriod is the month before the one containing now.
func DuePeriod(now time.Time) payroll.PayPeriod {
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -1, 0)
	return payroll.MonthPeriod(prev.Year(), prev.Month())
}

// RunNow checks once and runs the due period if it has no recorded run.
// It reports whether a run happened.
func (s *Scheduler) RunNow(ctx context.Context) bool {
	period := DuePeriod(s.Clock())

	runs, err := s.Runs.ListRuns(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list runs")
		return false
	}
	for _, r := range runs {
		if r.Period.String() == period.String() {
			return false
		}
	}

	summary, err := s.Service.Run(ctx, period, nil)
	if err != nil {
		s.logger.Error().Err(err).Str("period", period.String()).Msg("scheduled run failed")
		return false
	}
	s.logger.Info().
		Str("run_id", summary.RunID).
		Str("period", period.String()).
		Int("failed", summary.Failed()).
		Msg("scheduled run completed")
	return true
}
