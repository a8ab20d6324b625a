package comfy

import (
	"context"
	"fmt"
	"time"
)

// historyPoller is the slice of Client the Waiter needs; narrowed to an
// interface so wait behavior is testable without HTTP.
type historyPoller interface {
	History(ctx context.Context, id string) (HistoryEntry, bool, error)
}

// Waiter polls the history endpoint for one job until it reaches a terminal
// status or the wall-clock timeout elapses.
type Waiter struct {
	Poller       historyPoller
	PollInterval time.Duration
	Timeout      time.Duration

	// Injectable clock for tests. Nil means real time.
	Now   func() time.Time
	Sleep func(time.Duration)
}

// NewWaiter builds a Waiter over a client with real time.
func NewWaiter(c *Client, interval, timeout time.Duration) *Waiter {
	return &Waiter{
		Poller:       c,
		PollInterval: interval,
		Timeout:      timeout,
	}
}

// Wait blocks until the job reaches a terminal state and returns it.
//
// The returned status is always terminal: Succeeded carries a nil error,
// Failed wraps ErrJobFailed, TimedOut wraps ErrTimeout, and a cancelled
// context surfaces as TimedOut with the context error. Poll errors are
// tolerated — a flaky history endpoint must not fail a job that is still
// running — but the most recent one is attached to a timeout for diagnosis.
func (w *Waiter) Wait(ctx context.Context, id string) (Status, error) {
	now := w.Now
	if now == nil {
		now = time.Now
	}
	sleep := w.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	start := now()
	var lastPollErr error

	for {
		if err := ctx.Err(); err != nil {
			return StatusTimedOut, fmt.Errorf("%w: wait cancelled: %v", ErrTimeout, err)
		}
		if elapsed := now().Sub(start); elapsed >= w.Timeout {
			if lastPollErr != nil {
				return StatusTimedOut, fmt.Errorf("%w after %s (last poll error: %v)", ErrTimeout, elapsed.Round(time.Second), lastPollErr)
			}
			return StatusTimedOut, fmt.Errorf("%w after %s", ErrTimeout, elapsed.Round(time.Second))
		}

		entry, found, err := w.Poller.History(ctx, id)
		if err != nil {
			lastPollErr = err
		} else {
			lastPollErr = nil
			switch st := classify(entry, found); st {
			case StatusSucceeded:
				return StatusSucceeded, nil
			case StatusFailed:
				if entry.Status.StatusStr != "" {
					return StatusFailed, fmt.Errorf("%w: service reported %q", ErrJobFailed, entry.Status.StatusStr)
				}
				return StatusFailed, ErrJobFailed
			}
		}

		sleep(w.PollInterval)
	}
}
