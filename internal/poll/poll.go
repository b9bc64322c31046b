// Package poll drives asynchronous vendor jobs to completion. A caller
// submits work elsewhere, then hands the poller a check function; the
// poller ticks with capped exponential backoff until the job reaches a
// terminal state, the wall-clock budget runs out, or the context ends.
package poll

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a remote job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// Terminal reports whether no further polls can change the state.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed || s == StatusTimedOut
}

// ErrTimedOut is returned when a job is still running after Config.Timeout.
// It is distinct from a vendor-reported failure so callers can report the
// two differently.
var ErrTimedOut = errors.New("poll: job timed out")

// Func checks the remote job once. Returning a terminal Status stops the
// poller; StatusFailed should carry the vendor's reason in err. A non-nil
// err with a non-terminal status is treated as transient (the vendor may
// recover) and polling continues.
type Func func(ctx context.Context) (Status, error)

// Config tunes one poller.
type Config struct {
	Interval    time.Duration // first delay between checks
	MaxInterval time.Duration // backoff ceiling
	Multiplier  float64       // backoff factor per check
	Timeout     time.Duration // wall-clock budget from the first check
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = 3 * time.Second
	}
	if c.MaxInterval < c.Interval {
		c.MaxInterval = c.Interval
	}
	if c.Multiplier < 1 {
		c.Multiplier = 1.5
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Minute
	}
	return c
}

// Job tracks one remote job across polls.
type Job struct {
	ExternalID string
	Status     Status
	Attempts   int
	NextPoll   time.Time
}

// Poller awaits remote jobs. The zero value is not usable; construct with
// New.
type Poller struct {
	cfg Config
	now func() time.Time
	// sleep waits for d or ctx, returning ctx.Err() when interrupted.
	// Swappable so tests run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a Poller with cfg normalized to usable defaults.
func New(cfg Config) *Poller {
	return &Poller{cfg: cfg.withDefaults(), now: time.Now, sleep: sleepCtx}
}

// Await polls fn until the job is terminal. It checks immediately, then
// backs off Interval*Multiplier^n capped at MaxInterval. job is updated
// in place on every check; its final Status tells the caller which
// terminal state was reached. Await never retries a terminal answer and
// stops waiting the moment ctx ends.
func (p *Poller) Await(ctx context.Context, job *Job, fn Func) error {
	if job == nil {
		job = &Job{}
	}
	start := p.now()
	delay := p.cfg.Interval
	if job.Status == "" {
		job.Status = StatusQueued
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		job.Attempts++
		status, err := fn(ctx)
		if status != "" {
			job.Status = status
		}
		switch {
		case status == StatusSucceeded:
			return nil
		case status == StatusFailed:
			if err == nil {
				err = errors.New("job failed")
			}
			return err
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		}
		// Transient err or still running: keep going.

		if p.now().Sub(start) >= p.cfg.Timeout {
			job.Status = StatusTimedOut
			return ErrTimedOut
		}

		job.NextPoll = p.now().Add(delay)
		if err := p.sleep(ctx, delay); err != nil {
			return err
		}
		delay = time.Duration(float64(delay) * p.cfg.Multiplier)
		if delay > p.cfg.MaxInterval {
			delay = p.cfg.MaxInterval
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
