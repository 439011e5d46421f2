package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"dashboard/internal/domain"
)

// SessionRepo implements session repository operations on DB.
type SessionRepo struct {
	db *DB
}

var _ domain.SessionRepository = (*SessionRepo)(nil)

// NewSessionRepo wraps a DB as a SessionRepository.
func NewSessionRepo(db *DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.ServerSession) error {
	_, err := r.db.sql.ExecContext(ctx,
		"INSERT INTO sessions (id, username, expires_at, created_at) VALUES ($1, $2, $3, $4)",
		s.ID, s.Username, s.ExpiresAt, s.CreatedAt,
	)
	return err
}

// GetByID retrieves a session, or nil when absent.
func (r *SessionRepo) GetByID(ctx context.Context, id string) (*domain.ServerSession, error) {
	var s domain.ServerSession
	err := r.db.sql.QueryRowContext(ctx,
		"SELECT id, username, expires_at, created_at FROM sessions WHERE id = $1",
		id,
	).Scan(&s.ID, &s.Username, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Delete removes a session.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE id = $1", id)
	return err
}

// DeleteExpired removes sessions that expired before now.
func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) error {
	_, err := r.db.sql.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < $1", now)
	return err
}
