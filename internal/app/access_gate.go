package app

import (
	"context"
	"strconv"
	"strings"
	"time"

	"dashboard/internal/domain"
	"dashboard/internal/logging"
)

// Access gate defaults.
const (
	AccessMaxAttempts = 3
	AccessLockout     = 5 * time.Minute
	AccessValidFor    = 24 * time.Hour
	accessAttemptID   = "access"
)

// AccessGate guards the demo behind a daily access code.
type AccessGate struct {
	store   domain.KVStore
	secret  string
	lockout *LockoutPolicy
	clock   domain.Clock
	log     logging.Logger
}

// NewAccessGate creates a gate whose codes derive from secret.
func NewAccessGate(store domain.KVStore, secret string, clock domain.Clock, log logging.Logger) *AccessGate {
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &AccessGate{
		store:   store,
		secret:  secret,
		lockout: NewLockoutPolicy(store, domain.KeyAccessAttempts, AccessMaxAttempts, AccessLockout, clock, log),
		clock:   clock,
		log:     log,
	}
}

// CodeFor returns the access code for the UTC day containing t.
func (g *AccessGate) CodeFor(t time.Time) string {
	h := int64(checksum(g.secret + t.UTC().Format("20060102")))
	if h < 0 {
		h = -h
	}
	code := strings.ToUpper(strconv.FormatInt(h, 36))
	if len(code) > 8 {
		code = code[:8]
	}
	return code
}

// Required reports whether the last grant is missing or older than a day.
func (g *AccessGate) Required(ctx context.Context) bool {
	var granted time.Time
	found, err := loadJSON(ctx, g.store, domain.KeyAccessGrantedAt, &granted)
	if err != nil {
		g.log.Warn(ctx, "access grant unreadable", "error", err)
		return true
	}
	return !found || g.clock.Now().Sub(granted) > AccessValidFor
}

// Validate checks code against today's code and records the grant.
func (g *AccessGate) Validate(ctx context.Context, code string) error {
	if g.lockout.IsLocked(ctx, accessAttemptID) {
		return domain.ErrAccountLocked
	}
	now := g.clock.Now()
	if !ConstantTimeCompare(strings.TrimSpace(code), g.CodeFor(now)) {
		if err := g.lockout.RecordFailure(ctx, accessAttemptID); err != nil {
			g.log.Warn(ctx, "failed to record access attempt", "error", err)
		}
		return domain.ErrAccessDenied
	}
	if err := saveJSON(ctx, g.store, domain.KeyAccessGrantedAt, now); err != nil {
		return err
	}
	return g.lockout.Clear(ctx, accessAttemptID)
}
