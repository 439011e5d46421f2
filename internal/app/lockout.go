package app

import (
	"context"
	"time"

	"dashboard/internal/domain"
	"dashboard/internal/logging"
)

// Default lockout settings for the login form.
const (
	DefaultMaxAttempts   = 5
	DefaultLockoutWindow = 15 * time.Minute
)

// LockoutPolicy throttles repeated failures per identity. Counters live in
// the key-value store as a single JSON map.
type LockoutPolicy struct {
	store  domain.KVStore
	key    string
	max    int
	window time.Duration
	clock  domain.Clock
	log    logging.Logger
}

// NewLockoutPolicy creates a policy persisting its counters under key.
func NewLockoutPolicy(store domain.KVStore, key string, maxAttempts int, window time.Duration, clock domain.Clock, log logging.Logger) *LockoutPolicy {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultLockoutWindow
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &LockoutPolicy{store: store, key: key, max: maxAttempts, window: window, clock: clock, log: log}
}

func (p *LockoutPolicy) load(ctx context.Context) map[string]domain.LoginAttempt {
	attempts := map[string]domain.LoginAttempt{}
	if _, err := loadJSON(ctx, p.store, p.key, &attempts); err != nil {
		p.log.Warn(ctx, "resetting unreadable attempt counters", "key", p.key, "error", err)
		return map[string]domain.LoginAttempt{}
	}
	return attempts
}

// RecordFailure increments the counter for id and stamps it with now.
func (p *LockoutPolicy) RecordFailure(ctx context.Context, id string) error {
	attempts := p.load(ctx)
	a := attempts[id]
	a.Count++
	a.LastAttempt = p.clock.Now()
	attempts[id] = a
	return saveJSON(ctx, p.store, p.key, attempts)
}

// IsLocked reports whether id has reached the threshold within the window.
// A counter older than the window is removed.
func (p *LockoutPolicy) IsLocked(ctx context.Context, id string) bool {
	attempts := p.load(ctx)
	a, ok := attempts[id]
	if !ok {
		return false
	}
	elapsed := p.clock.Now().Sub(a.LastAttempt)
	if elapsed > p.window {
		delete(attempts, id)
		if err := saveJSON(ctx, p.store, p.key, attempts); err != nil {
			p.log.Warn(ctx, "failed to drop expired counter", "id", id, "error", err)
		}
		return false
	}
	return a.Count >= p.max && elapsed < p.window
}

// Clear removes the counter for id.
func (p *LockoutPolicy) Clear(ctx context.Context, id string) error {
	attempts := p.load(ctx)
	if _, ok := attempts[id]; !ok {
		return nil
	}
	delete(attempts, id)
	return saveJSON(ctx, p.store, p.key, attempts)
}

// Attempts returns the current failure count for id.
func (p *LockoutPolicy) Attempts(ctx context.Context, id string) int {
	return p.load(ctx)[id].Count
}
