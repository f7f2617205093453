// Package schedule re-syncs the tracked calendar message on a cron schedule,
// so a new month shows up even when nobody presses the button.
package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "eventcal/internal/log"
)

// SyncFunc performs one synchronization.
type SyncFunc func(ctx context.Context) error

// Runner owns the cron scheduler.
type Runner struct {
	cron    *cron.Cron
	entryID cron.EntryID
	loc     *time.Location
	timeout time.Duration
}

// New parses spec (standard five-field cron, evaluated in loc) and schedules
// sync. Each run gets its own timeout-bound context; failures are logged
// only.
func New(spec string, loc *time.Location, timeout time.Duration, sync SyncFunc) (*Runner, error) {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = time.Minute
	}

	r := &Runner{
		cron:    cron.New(cron.WithLocation(loc)),
		loc:     loc,
		timeout: timeout,
	}

	id, err := r.cron.AddFunc(spec, func() { r.run(sync) })
	if err != nil {
		return nil, fmt.Errorf("schedule: invalid refresh spec %q: %w", spec, err)
	}
	r.entryID = id
	return r, nil
}

func (r *Runner) run(sync SyncFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	if err := sync(ctx); err != nil {
		appLog.Error("scheduled calendar sync failed", err)
		return
	}
	appLog.Info("scheduled calendar sync done", "elapsed", time.Since(start).String())
}

// Start runs the scheduler in the background until ctx is done.
func (r *Runner) Start(ctx context.Context) {
	r.cron.Start()
	appLog.Info("refresh scheduler started", "next", r.Next().Format(time.RFC3339))
	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
		appLog.Info("refresh scheduler stopped")
	}()
}

// Next returns the next scheduled run, or the zero time before Start.
func (r *Runner) Next() time.Time {
	return r.cron.Entry(r.entryID).Next
}

// NextAfter returns the first run time strictly after t, in the
// scheduler's location.
func (r *Runner) NextAfter(t time.Time) time.Time {
	return r.cron.Entry(r.entryID).Schedule.Next(t.In(r.loc))
}
