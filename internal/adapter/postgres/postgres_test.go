package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"dashboard/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return New(db), mock
}

func TestMigrate_RunsEveryStatement(t *testing.T) {
	d, mock := newMock(t)
	for _, stmt := range migrations {
		mock.ExpectExec(regexp.QuoteMeta(stmt)).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, d.Migrate(context.Background()))
}

func TestMigrate_WrapsError(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS kv").WillReturnError(errors.New("permission denied"))

	err := d.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate:")
}

func TestKV_Get(t *testing.T) {
	d, mock := newMock(t)
	q := regexp.QuoteMeta("SELECT value FROM kv WHERE key = $1")
	mock.ExpectQuery(q).WithArgs("users").WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte("[]")))
	mock.ExpectQuery(q).WithArgs("absent").WillReturnRows(sqlmock.NewRows([]string{"value"}))

	v, err := d.Get(context.Background(), "users")
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), v)

	v, err = d.Get(context.Background(), "absent")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestKV_SetAndDelete(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO kv (key, value, updated_at)")).
		WithArgs("session", []byte("{}")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM kv WHERE key = $1")).
		WithArgs("session").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, d.Set(context.Background(), "session", []byte("{}")))
	require.NoError(t, d.Delete(context.Background(), "session"))
}

func TestKV_SetError(t *testing.T) {
	d, mock := newMock(t)
	mock.ExpectExec("INSERT INTO kv").WillReturnError(errors.New("conn reset"))

	err := d.Set(context.Background(), "users", []byte("[]"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kv[users]")
}

func TestSessionRepo(t *testing.T) {
	d, mock := newMock(t)
	repo := NewSessionRepo(d)
	ctx := context.Background()
	now := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	s := domain.ServerSession{ID: "sid", Username: "admin", ExpiresAt: now.Add(24 * time.Hour), CreatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions (id, username, expires_at, created_at)")).
		WithArgs(s.ID, s.Username, s.ExpiresAt, s.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	sel := regexp.QuoteMeta("SELECT id, username, expires_at, created_at FROM sessions WHERE id = $1")
	mock.ExpectQuery(sel).WithArgs("sid").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "expires_at", "created_at"}).
			AddRow(s.ID, s.Username, s.ExpiresAt, s.CreatedAt))
	mock.ExpectQuery(sel).WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "expires_at", "created_at"}))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).WithArgs("sid").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE expires_at < $1")).WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetByID(ctx, "sid")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "admin", got.Username)
	assert.True(t, got.ExpiresAt.Equal(s.ExpiresAt))

	got, err = repo.GetByID(ctx, "gone")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, repo.Delete(ctx, "sid"))
	require.NoError(t, repo.DeleteExpired(ctx, now))
}
