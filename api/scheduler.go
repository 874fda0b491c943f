/*
scheduler.go - Scheduled exports and sales summaries

PURPOSE:
  Runs the shop's unattended jobs next to the HTTP server:
  - a dated workbook of every store, written into ExportDir
  - a one-line stock and sales summary in the log

  Both jobs only read: they take a snapshot through the engine and never
  stage changes.

CONFIGURATION:
  - ExportCron:  standard 5-field cron spec (default "0 23 * * *")
  - SummaryCron: standard 5-field cron spec (default "0 20 * * *")
  - ExportDir:   target directory for workbooks
  An empty spec disables that job.

USAGE:
  s := NewScheduler(engine, cfg, logger)
  if err := s.Start(); err != nil { ... }
  defer s.Stop()

SEE ALSO:
  - export/export.go: Workbook and summary
  - config/config.go: scheduler.* keys
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/warp/stock-engine/export"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

// SchedulerConfig selects when the jobs run and where exports go.
type SchedulerConfig struct {
	ExportCron  string
	SummaryCron string
	ExportDir   string
	Location    *time.Location
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron   *cron.Cron
	source export.Snapshotter
	cfg    SchedulerConfig
	logger *zap.Logger
	now    func() time.Time
}

// NewScheduler creates a scheduler reading from source.
func NewScheduler(source export.Snapshotter, cfg SchedulerConfig, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		source: source,
		cfg:    cfg,
		logger: logger,
		now:    func() time.Time { return time.Now().In(loc) },
	}
}

// Start registers the configured jobs and starts the cron loop. It fails
// if a cron spec does not parse.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("export_cron", s.cfg.ExportCron),
		zap.String("summary_cron", s.cfg.SummaryCron))

	if s.cfg.ExportCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.ExportCron, s.exportJob); err != nil {
			return fmt.Errorf("schedule export %q: %w", s.cfg.ExportCron, err)
		}
	}
	if s.cfg.SummaryCron != "" {
		if _, err := s.cron.AddFunc(s.cfg.SummaryCron, s.summaryJob); err != nil {
			return fmt.Errorf("schedule summary %q: %w", s.cfg.SummaryCron, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

// RunExport writes one workbook now and returns its path.
func (s *Scheduler) RunExport(ctx context.Context) (string, error) {
	return export.ToDir(ctx, s.source, s.cfg.ExportDir, s.now())
}

// RunSummary computes the current summary.
func (s *Scheduler) RunSummary(ctx context.Context) (export.Summary, error) {
	snap, err := s.source.Snapshot(ctx)
	if err != nil {
		return export.Summary{}, err
	}
	return export.Summarize(snap), nil
}

func (s *Scheduler) exportJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	path, err := s.RunExport(ctx)
	if err != nil {
		s.logger.Error("scheduled export failed", zap.Error(err))
		return
	}
	s.logger.Info("scheduled export written", zap.String("path", path))
}

func (s *Scheduler) summaryJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	sum, err := s.RunSummary(ctx)
	if err != nil {
		s.logger.Error("failed to build sales summary", zap.Error(err))
		return
	}
	s.logger.Info("daily summary",
		zap.Int("variants", sum.Variants),
		zap.Int("units_in_stock", sum.UnitsInStock),
		zap.Int("in_service", sum.InService),
		zap.Int("finished", sum.Finished),
		zap.Int("sold", sum.Sold),
		zap.String("total", sum.Total))
}
