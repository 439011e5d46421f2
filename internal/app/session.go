package app

import (
	"context"
	"errors"
	"time"

	"dashboard/internal/domain"
	"dashboard/internal/logging"

	"github.com/google/uuid"
)

// SessionTTL is how long a stored session stays valid.
const SessionTTL = 24 * time.Hour

// SessionManager owns the single session slot.
type SessionManager struct {
	auth  Authenticator
	store domain.KVStore
	clock domain.Clock
	log   logging.Logger
	ttl   time.Duration
}

// NewSessionManager creates a session manager. A zero ttl means SessionTTL.
func NewSessionManager(auth Authenticator, store domain.KVStore, ttl time.Duration, clock domain.Clock, log logging.Logger) *SessionManager {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &SessionManager{auth: auth, store: store, clock: clock, log: log, ttl: ttl}
}

// Login authenticates and writes a new session into the slot.
func (m *SessionManager) Login(ctx context.Context, username, password string) (domain.UserView, error) {
	res, err := m.auth.Authenticate(ctx, username, password)
	if err != nil {
		return domain.UserView{}, err
	}

	s := domain.Session{
		ID:            uuid.NewString(),
		Username:      res.User.Username,
		User:          res.User,
		CreatedAt:     m.clock.Now(),
		Authenticated: true,
		Token:         res.Token,
	}
	if err := saveJSON(ctx, m.store, domain.KeySession, s); err != nil {
		return domain.UserView{}, err
	}
	return res.User, nil
}

// Logout clears the slot. Revocation errors are only logged.
func (m *SessionManager) Logout(ctx context.Context) {
	if s, err := m.read(ctx); err == nil {
		if err := m.auth.Revoke(ctx, *s); err != nil {
			m.log.Warn(ctx, "session revoke failed", "username", s.Username, "error", err)
		}
	}
	m.clear(ctx)
}

// VerifySession checks the slot and asks the authenticator to confirm it.
// Any failure clears the slot.
func (m *SessionManager) VerifySession(ctx context.Context) (domain.UserView, error) {
	s, err := m.Current(ctx)
	if err != nil {
		return domain.UserView{}, err
	}
	user, err := m.auth.Verify(ctx, *s)
	if err != nil {
		m.log.Info(ctx, "session verification failed", "username", s.Username, "error", err)
		m.clear(ctx)
		return domain.UserView{}, err
	}
	return user, nil
}

// Current returns the stored session if it is present and within its
// lifetime. An expired session is cleared.
func (m *SessionManager) Current(ctx context.Context) (*domain.Session, error) {
	s, err := m.read(ctx)
	if err != nil {
		return nil, err
	}
	if m.clock.Now().Sub(s.CreatedAt) > m.ttl {
		m.clear(ctx)
		return nil, domain.ErrSessionExpired
	}
	return s, nil
}

// IsAuthenticated reports whether a live session is stored. It does not
// contact the relay.
func (m *SessionManager) IsAuthenticated(ctx context.Context) bool {
	_, err := m.Current(ctx)
	return err == nil
}

// CurrentUser returns the user of the live session, or nil.
func (m *SessionManager) CurrentUser(ctx context.Context) *domain.UserView {
	s, err := m.Current(ctx)
	if err != nil {
		return nil
	}
	return &s.User
}

func (m *SessionManager) read(ctx context.Context) (*domain.Session, error) {
	var s domain.Session
	found, err := loadJSON(ctx, m.store, domain.KeySession, &s)
	if err != nil {
		m.log.Warn(ctx, "session slot unreadable", "error", err)
		if errors.Is(err, domain.ErrStorage) {
			m.clear(ctx)
		}
		return nil, domain.ErrNoSession
	}
	if !found || !s.Authenticated {
		return nil, domain.ErrNoSession
	}
	return &s, nil
}

func (m *SessionManager) clear(ctx context.Context) {
	if err := m.store.Delete(ctx, domain.KeySession); err != nil {
		m.log.Warn(ctx, "failed to clear session slot", "error", err)
	}
}
