package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stellarlink/stellar/internal/kv"
	"github.com/stellarlink/stellar/internal/logger"
	"github.com/stellarlink/stellar/internal/session"
)

// SessionReaper periodically deletes session records whose expires_at
// has passed. Redis evicts these on its own via the native TTL; the
// sweep is the backstop for backends without one and for records whose
// TTL drifted from expires_at.
type SessionReaper struct {
	kv       kv.Store
	logger   logger.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
}

// NewSessionReaper creates a reaper sweeping at the given interval.
func NewSessionReaper(store kv.Store, log logger.Logger, interval time.Duration) *SessionReaper {
	return &SessionReaper{
		kv:       store,
		logger:   log,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// SetClock overrides the time source. Test hook only.
func (sr *SessionReaper) SetClock(now func() time.Time) { sr.now = now }

// Start runs one sweep immediately, then sweeps on a ticker until Stop
// or context cancellation.
func (sr *SessionReaper) Start(ctx context.Context) error {
	if err := sr.Sweep(ctx); err != nil {
		sr.logger.Warn("initial session sweep failed", logger.Error(err))
	}

	ticker := time.NewTicker(sr.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := sr.Sweep(ctx); err != nil {
					sr.logger.Error("session sweep failed", logger.Error(err))
				}
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the periodic sweep.
func (sr *SessionReaper) Stop() {
	close(sr.stopCh)
}

// Sweep scans session keys and deletes expired records. Records that
// fail to decode are deleted too: they can never authenticate anyone.
func (sr *SessionReaper) Sweep(ctx context.Context) error {
	keys, err := sr.kv.Keys(ctx, kv.KeyPrefixSession)
	if err != nil {
		return err
	}

	now := sr.now()
	removed := 0

	for _, key := range keys {
		raw, ok, err := sr.kv.Get(ctx, key)
		if err != nil || !ok {
			continue
		}

		var rec session.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil || !rec.ExpiresAt.After(now) {
			if err := sr.kv.Delete(ctx, key); err != nil {
				sr.logger.Warn("failed to delete expired session",
					logger.String("key", key),
					logger.Error(err))
				continue
			}
			removed++
		}
	}

	if removed > 0 {
		sr.logger.Info("session sweep completed",
			logger.Int("scanned", len(keys)),
			logger.Int("removed", removed))
	}
	return nil
}
