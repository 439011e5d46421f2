package app

import (
	"context"
	"sync"
	"time"
)

type mockStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string][]byte{}}
}

func (m *mockStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *mockStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *mockStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)}
}

const (
	testAdminPassword = "Admin#2024x"
	testUserPassword  = "Demo#2024x"
)

// newTestAuth wires a local authenticator over an in-memory store. The
// checksum hasher keeps tests fast.
func newTestAuth(store *mockStore, clock *fakeClock) (*CredentialStore, *LockoutPolicy, *LocalMockAuth) {
	creds := NewCredentialStore(store, ChecksumHasher{}, SeedPasswords{Admin: testAdminPassword, User: testUserPassword}, clock, nil)
	lockout := NewLockoutPolicy(store, "login_attempts", DefaultMaxAttempts, DefaultLockoutWindow, clock, nil)
	return creds, lockout, NewLocalMockAuth(creds, lockout, clock, nil)
}
