package pipeline

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/aktagon/inbox-sorter/internal/logging"
)

// Runner is one pipeline invocation.
type Runner interface {
	Run(ctx context.Context) (Report, error)
}

// cronParser accepts standard 5-field expressions and descriptors like @every 5m.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether spec is a usable cron expression.
func ValidateSchedule(spec string) error {
	if _, err := cronParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return nil
}

// Scheduler runs the pipeline on a cron schedule, one record per tick.
// A tick that fires while the previous run is still going is skipped.
type Scheduler struct {
	spec   string
	cron   *cron.Cron
	runner Runner
	logger logging.Logger
}

// NewScheduler registers runner under spec.
func NewScheduler(spec string, runner Runner, logger logging.Logger) (*Scheduler, error) {
	if err := ValidateSchedule(spec); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)),
	)
	return &Scheduler{spec: spec, cron: c, runner: runner, logger: logger}, nil
}

// Start runs until ctx is cancelled, then waits for an in-flight run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("scheduling %q: %w", s.spec, err)
	}
	s.logger.Info("Scheduler started", logging.String("schedule", s.spec))
	s.cron.Start()

	<-ctx.Done()
	stopped := s.cron.Stop()
	<-stopped.Done()
	s.logger.Info("Scheduler stopped")
	return nil
}

// Tick performs one run and logs its outcome.
func (s *Scheduler) Tick(ctx context.Context) {
	report, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("✗ Run failed", logging.String("run_id", report.RunID), logging.Err(err))
		return
	}
	if report.State == StateSkipped {
		s.logger.Debug("No pending records", logging.String("run_id", report.RunID))
		return
	}
	s.logger.Info("✓ Run complete",
		logging.String("run_id", report.RunID),
		logging.String("record_id", report.RecordID),
		logging.String("label", report.Label.String()),
		logging.String("status", string(report.Status)),
	)
}
