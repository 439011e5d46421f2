// Package memory implements in-memory storage for development and testing.
package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"dashboard/internal/domain"
)

// DB implements an in-memory key-value store and session table.
type DB struct {
	mu       sync.Mutex
	values   map[string][]byte
	sessions map[string]domain.ServerSession
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		values:   make(map[string][]byte),
		sessions: make(map[string]domain.ServerSession),
	}
}

// Ensure interfaces are met.
var _ domain.KVStore = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// --- KVStore ---

// Get returns a copy of the value under key, or nil when absent.
func (db *DB) Get(ctx context.Context, key string) ([]byte, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	v, ok := db.values[key]
	if !ok {
		return nil, nil
	}
	return slices.Clone(v), nil
}

// Set stores a copy of value under key.
func (db *DB) Set(ctx context.Context, key string, value []byte) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.values[key] = slices.Clone(value)
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (db *DB) Delete(ctx context.Context, key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.values, key)
	return nil
}

// --- SessionRepository ---

// SessionRepo wraps DB to implement domain.SessionRepository.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo returns a SessionRepository backed by this DB.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a session row.
func (r *SessionRepo) Create(ctx context.Context, s domain.ServerSession) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sessions[s.ID] = s
	return nil
}

// GetByID returns the session, or nil when absent.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.ServerSession, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// Delete removes a session.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	delete(r.db.sessions, id)
	return nil
}

// DeleteExpired removes sessions that expired before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for id, s := range r.db.sessions {
		if now.After(s.ExpiresAt) {
			delete(r.db.sessions, id)
		}
	}
	return nil
}
