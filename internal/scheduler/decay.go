// Package scheduler runs the periodic server-side decay sweep.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/pocketpet/api/internal/logging"
	"github.com/pocketpet/api/internal/service"
)

const sweepTimeout = 30 * time.Second

// Decayer applies one decay tick to every pet
type Decayer interface {
	DecayAll(ctx context.Context) (service.DecayReport, error)
}

// DecayJob runs Decayer on a cron schedule. Overlapping sweeps are skipped.
type DecayJob struct {
	cron    *cron.Cron
	decayer Decayer
	log     logrus.FieldLogger
}

// NewDecayJob parses schedule (standard 5-field cron or descriptors such as
// "@every 10m") and registers the sweep.
func NewDecayJob(schedule string, decayer Decayer, log logrus.FieldLogger) (*DecayJob, error) {
	log = logging.Component(log, "scheduler")
	j := &DecayJob{
		decayer: decayer,
		log:     log,
	}

	cronLog := cron.PrintfLogger(log)
	j.cron = cron.New(cron.WithChain(
		cron.Recover(cronLog),
		cron.SkipIfStillRunning(cronLog),
	))

	if _, err := j.cron.AddJob(schedule, j); err != nil {
		return nil, fmt.Errorf("invalid decay schedule %q: %w", schedule, err)
	}
	return j, nil
}

// Run performs one sweep. It satisfies cron.Job.
func (j *DecayJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	report, err := j.decayer.DecayAll(ctx)
	if err != nil {
		j.log.WithError(err).Error("decay sweep failed")
		return
	}

	j.log.WithFields(logrus.Fields{
		"decayed":     report.Decayed,
		"distressed":  report.Distressed,
		"failed":      report.Failed,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("decay sweep finished")
}

// Start begins running the schedule in the background
func (j *DecayJob) Start() {
	j.cron.Start()
	j.log.Info("decay scheduler started")
}

// Stop halts the schedule and waits for a running sweep or ctx, whichever ends first
func (j *DecayJob) Stop(ctx context.Context) {
	done := j.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		j.log.Warn("decay sweep still running at shutdown")
	}
}
