package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"dashboard/internal/domain"
	"dashboard/internal/logging"
)

// AuthResult is the outcome of a successful credential check.
type AuthResult struct {
	User  domain.UserView
	Token string
}

// Authenticator checks credentials and re-verifies stored sessions.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (AuthResult, error)
	Verify(ctx context.Context, s domain.Session) (domain.UserView, error)
	Revoke(ctx context.Context, s domain.Session) error
}

// RelayClient is the port to the relay server.
type RelayClient interface {
	Login(ctx context.Context, username, password string) (token string, user domain.UserView, err error)
	Logout(ctx context.Context, token string) error
	Verify(ctx context.Context, token string) (domain.UserView, error)
	GenerateText(ctx context.Context, token, prompt string) (string, error)
	GenerateImage(ctx context.Context, token, prompt string) (string, error)
}

// NewAuthenticator selects the strategy named by mode.
func NewAuthenticator(mode string, local *LocalMockAuth, relay RelayClient) (Authenticator, error) {
	switch mode {
	case "", "mock":
		return local, nil
	case "remote":
		if relay == nil {
			return nil, errors.New("remote auth requires a relay client")
		}
		return NewRemoteAuth(relay), nil
	}
	return nil, fmt.Errorf("unknown auth mode %q", mode)
}

// LocalMockAuth checks credentials against the local credential store.
type LocalMockAuth struct {
	creds   *CredentialStore
	lockout *LockoutPolicy
	clock   domain.Clock
	log     logging.Logger
}

// NewLocalMockAuth creates the local authentication strategy.
func NewLocalMockAuth(creds *CredentialStore, lockout *LockoutPolicy, clock domain.Clock, log logging.Logger) *LocalMockAuth {
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &LocalMockAuth{creds: creds, lockout: lockout, clock: clock, log: log}
}

// Authenticate runs the lockout check before comparing credentials.
func (a *LocalMockAuth) Authenticate(ctx context.Context, username, password string) (AuthResult, error) {
	if a.lockout.IsLocked(ctx, username) {
		a.log.Warn(ctx, "login refused, account locked", "username", username)
		return AuthResult{}, domain.ErrAccountLocked
	}

	acct, err := a.creds.FindActive(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return AuthResult{}, a.fail(ctx, username)
	}
	if err != nil {
		return AuthResult{}, err
	}
	if !a.creds.Hasher().Verify(acct.PasswordHash, password) {
		return AuthResult{}, a.fail(ctx, username)
	}

	if err := a.lockout.Clear(ctx, username); err != nil {
		a.log.Warn(ctx, "failed to clear attempt counter", "username", username, "error", err)
	}
	now := a.clock.Now()
	acct.LastLogin = &now
	if err := a.creds.Put(ctx, *acct); err != nil {
		return AuthResult{}, err
	}
	a.log.Info(ctx, "login succeeded", "username", username)
	return AuthResult{User: acct.View()}, nil
}

func (a *LocalMockAuth) fail(ctx context.Context, username string) error {
	if err := a.lockout.RecordFailure(ctx, username); err != nil {
		a.log.Warn(ctx, "failed to record login failure", "username", username, "error", err)
	}
	a.log.Info(ctx, "login failed", "username", username)
	return domain.ErrInvalidCredentials
}

// Verify re-reads the account behind the session.
func (a *LocalMockAuth) Verify(ctx context.Context, s domain.Session) (domain.UserView, error) {
	acct, err := a.creds.FindByID(ctx, s.User.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.UserView{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return domain.UserView{}, err
	}
	if !acct.Active {
		return domain.UserView{}, domain.ErrInvalidCredentials
	}
	return acct.View(), nil
}

// Revoke is a no-op; the local session slot is the only state.
func (a *LocalMockAuth) Revoke(context.Context, domain.Session) error {
	return nil
}

// RemoteAuth delegates to the relay server.
type RemoteAuth struct {
	relay RelayClient
}

// NewRemoteAuth creates the relay-backed authentication strategy.
func NewRemoteAuth(relay RelayClient) *RemoteAuth {
	return &RemoteAuth{relay: relay}
}

func (r *RemoteAuth) Authenticate(ctx context.Context, username, password string) (AuthResult, error) {
	token, user, err := r.relay.Login(ctx, username, password)
	if err != nil {
		switch relayStatus(err) {
		case http.StatusUnauthorized:
			return AuthResult{}, domain.ErrInvalidCredentials
		case http.StatusLocked:
			return AuthResult{}, domain.ErrAccountLocked
		}
		return AuthResult{}, err
	}
	return AuthResult{User: user, Token: token}, nil
}

func (r *RemoteAuth) Verify(ctx context.Context, s domain.Session) (domain.UserView, error) {
	if s.Token == "" {
		return domain.UserView{}, domain.ErrNoSession
	}
	user, err := r.relay.Verify(ctx, s.Token)
	if err != nil {
		if relayStatus(err) == http.StatusUnauthorized {
			return domain.UserView{}, domain.ErrSessionExpired
		}
		return domain.UserView{}, err
	}
	return user, nil
}

func (r *RemoteAuth) Revoke(ctx context.Context, s domain.Session) error {
	if s.Token == "" {
		return nil
	}
	return r.relay.Logout(ctx, s.Token)
}

func relayStatus(err error) int {
	var se *domain.RelayStatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}
