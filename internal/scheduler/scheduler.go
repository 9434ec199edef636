package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pdf2text/internal/converter"
)

// Scheduler re-converts the source directory on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	converter DirConverter
	config    *Config
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// DirConverter converts every PDF in a directory
type DirConverter interface {
	ConvertDir(ctx context.Context) ([]*converter.Result, error)
}

// Config holds scheduler configuration
type Config struct {
	CronSchedule string
	// RunOnStart runs the job once as soon as the scheduler starts.
	RunOnStart bool
}

// NewScheduler creates a new scheduler
func NewScheduler(conv DirConverter, config *Config, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cronLog := logger.Named("cron")
	return &Scheduler{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(newCronLogger(cronLog, zapcore.DebugLevel)),
			cron.WithChain(cron.SkipIfStillRunning(newCronLogger(cronLog, zapcore.InfoLevel))),
		),
		converter: conv,
		config:    config,
		logger:    logger,
	}
}

// Start schedules the conversion job and starts the cron runner
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler", zap.String("schedule", s.config.CronSchedule))

	s.ctx, s.cancel = context.WithCancel(context.Background())

	entryID, err := s.cron.AddFunc(s.config.CronSchedule, s.runConversionJob)
	if err != nil {
		s.cancel()
		return eris.Wrapf(err, "schedule %q", s.config.CronSchedule)
	}

	s.logger.Info("Scheduled job", zap.Int("id", int(entryID)))
	s.cron.Start()

	if s.config.RunOnStart {
		// The wrapped job shares the skip-if-running guard with scheduled ticks.
		job := s.cron.Entry(entryID).WrappedJob
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			job.Run()
		}()
	}
	return nil
}

// Stop stops the scheduler and waits for a running job to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) runConversionJob() {
	start := time.Now()
	results, err := s.converter.ConvertDir(s.ctx)
	if err != nil {
		s.logger.Error("Scheduled conversion finished with errors",
			zap.Int("converted", len(results)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return
	}
	s.logger.Info("Scheduled conversion completed",
		zap.Int("converted", len(results)),
		zap.Duration("duration", time.Since(start)))
}

// ErrNotScheduled is returned by Status before Start has added the job.
var ErrNotScheduled = eris.New("no scheduled jobs found")

// Status describes the scheduled conversion job
type Status struct {
	Schedule string
	Next     time.Time
	Prev     time.Time
	Jobs     int
}

// Status returns the schedule and the next and previous run times
func (s *Scheduler) Status() (Status, error) {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return Status{}, ErrNotScheduled
	}

	entry := entries[0]
	return Status{
		Schedule: s.config.CronSchedule,
		Next:     entry.Next,
		Prev:     entry.Prev,
		Jobs:     len(entries),
	}, nil
}
