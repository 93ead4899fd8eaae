package session

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Reaper deletes retired session rows on a fixed interval so the table
// does not grow without bound. It runs outside the request-serving path;
// the validation gate never depends on it for correctness.
type Reaper struct {
	store     *SQLStore
	interval  time.Duration
	retention time.Duration
	log       *logrus.Logger
}

// NewReaper returns a Reaper that every interval deletes sessions whose
// expiration or logout happened more than retention ago.
func NewReaper(store *SQLStore, interval, retention time.Duration, log *logrus.Logger) *Reaper {
	if interval <= 0 {
		interval = time.Hour
	}
	if retention < 0 {
		retention = 0
	}
	return &Reaper{store: store, interval: interval, retention: retention, log: log}
}

// Run blocks until ctx is cancelled, sweeping once per interval. Sweep
// failures are logged and retried on the next tick. Cancellation is the
// normal way to stop the reaper and returns nil.
func (r *Reaper) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := r.Sweep(ctx); err != nil {
				r.log.WithError(err).Warn("session sweep failed")
			}
		}
	}
}

// Sweep performs a single reap pass.
func (r *Reaper) Sweep(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-r.retention)
	removed, err := r.store.DeleteRetired(ctx, cutoff)
	if err != nil {
		return err
	}
	if removed > 0 {
		r.log.WithField("removed", removed).Info("reaped retired sessions")
	}
	return nil
}
