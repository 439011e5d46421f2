package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dashboard/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

type mockSessionRepo struct {
	mu   sync.Mutex
	rows map[string]domain.ServerSession

	createFn func(ctx context.Context, s domain.ServerSession) error
}

func newMockSessionRepo() *mockSessionRepo {
	return &mockSessionRepo{rows: map[string]domain.ServerSession{}}
}

func (m *mockSessionRepo) Create(ctx context.Context, s domain.ServerSession) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[s.ID] = s
	return nil
}

func (m *mockSessionRepo) GetByID(_ context.Context, id string) (*domain.ServerSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *mockSessionRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

func (m *mockSessionRepo) DeleteExpired(_ context.Context, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.rows {
		if now.After(s.ExpiresAt) {
			delete(m.rows, id)
		}
	}
	return nil
}

var testSecret = []byte("relay-test-secret")

func newTestRelayAuth() (*RelayAuthService, *mockSessionRepo, *CredentialStore, *fakeClock) {
	clock := newFakeClock()
	creds, _, local := newTestAuth(newMockStore(), clock)
	repo := newMockSessionRepo()
	return NewRelayAuthService(local, creds, repo, testSecret, 0, clock, nil), repo, creds, clock
}

func TestRelayAuthService_LoginVerifyLogout(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, _ := newTestRelayAuth()

	token, user, err := svc.Login(ctx, "admin", testAdminPassword)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" || user.Username != "admin" {
		t.Fatalf("unexpected login result %q %+v", token, user)
	}
	if len(repo.rows) != 1 {
		t.Fatalf("expected one session row, got %d", len(repo.rows))
	}

	got, err := svc.Verify(ctx, token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got.Username != "admin" || got.Role != domain.RoleAdmin {
		t.Errorf("unexpected verified user: %+v", got)
	}

	if err := svc.Logout(ctx, token); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := svc.Verify(ctx, token); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired after logout, got %v", err)
	}
}

func TestRelayAuthService_LoginFailure(t *testing.T) {
	svc, repo, _, _ := newTestRelayAuth()

	if _, _, err := svc.Login(context.Background(), "admin", "nope"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatal("expected no session row")
	}
}

func TestRelayAuthService_TokenExpiry(t *testing.T) {
	ctx := context.Background()
	svc, repo, _, clock := newTestRelayAuth()
	token, _, _ := svc.Login(ctx, "demo", testUserPassword)

	clock.Advance(25 * time.Hour)
	if _, err := svc.Verify(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	if err := svc.PurgeExpired(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.rows) != 0 {
		t.Fatalf("expected expired row purged, got %d", len(repo.rows))
	}
}

func TestRelayAuthService_RejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestRelayAuth()

	forged, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{SessionID: "x"}).SignedString([]byte("other"))
	for _, tok := range []string{"", "not-a-jwt", forged} {
		if _, err := svc.Verify(ctx, tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestRelayAuthService_DeactivatedAccount(t *testing.T) {
	ctx := context.Background()
	svc, _, creds, _ := newTestRelayAuth()
	token, _, _ := svc.Login(ctx, "demo", testUserPassword)

	acct, _ := creds.FindByID(ctx, "demo")
	acct.Active = false
	_ = creds.Put(ctx, *acct)

	if _, err := svc.Verify(ctx, token); !errors.Is(err, domain.ErrSessionExpired) {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
}

func TestRelayAuthService_LoginWithUser(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestRelayAuth()

	if _, _, err := svc.LoginWithUser(ctx, "stranger"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	token, user, err := svc.LoginWithUser(ctx, "demo")
	if err != nil || user.Username != "demo" {
		t.Fatalf("expected demo, got %+v %v", user, err)
	}
	if _, err := svc.Verify(ctx, token); err != nil {
		t.Fatalf("expected SSO token to verify, got %v", err)
	}
}

func TestRelayAuthService_CreateSessionError(t *testing.T) {
	svc, repo, _, _ := newTestRelayAuth()
	repo.createFn = func(context.Context, domain.ServerSession) error { return errors.New("db down") }

	if _, _, err := svc.Login(context.Background(), "admin", testAdminPassword); err == nil {
		t.Fatal("expected error when the session row cannot be written")
	}
}
