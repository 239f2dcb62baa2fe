package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job is one run of a scheduled task.
type Job func(ctx context.Context) error

// Scheduler runs background maintenance on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
	logger  logrus.FieldLogger
}

func NewScheduler(logger logrus.FieldLogger) *Scheduler {
	logger = logger.WithField("component", "jobs")
	cl := cronLogger{logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		timeout: 30 * time.Second,
		logger:  logger,
	}
}

// Add registers job under schedule, which accepts standard five-field cron
// expressions and descriptors such as "@every 5m".
func (s *Scheduler) Add(name, schedule string, job Job) error {
	if _, err := s.cron.AddFunc(schedule, s.wrap(name, job)); err != nil {
		return fmt.Errorf("schedule %s %q: %w", name, schedule, err)
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs or ctx, whichever ends first.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := job(ctx); err != nil {
			s.logger.WithError(err).WithField("job", name).Error("job failed")
		}
	}
}

// Sweeper removes expired sessions.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int64, error)
}

func SessionSweep(sweeper Sweeper) Job {
	return func(ctx context.Context) error {
		_, err := sweeper.SweepExpired(ctx)
		return err
	}
}

// Cleaner forgets rate limiter entries idle for longer than the given duration.
type Cleaner interface {
	Cleanup(idle time.Duration) int
}

func LimiterCleanup(c Cleaner, idle time.Duration) Job {
	return func(context.Context) error {
		c.Cleanup(idle)
		return nil
	}
}

// cronLogger adapts logrus to cron.Logger.
type cronLogger struct {
	logger logrus.FieldLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).Debug(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.WithFields(fields(keysAndValues)).WithError(err).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return f
}
