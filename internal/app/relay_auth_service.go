package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dashboard/internal/domain"
	"dashboard/internal/logging"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken indicates a malformed, forged or expired bearer token.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the relay bearer token claims.
type Claims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// RelayAuthService issues and checks the bearer tokens of the relay server.
// Every token is bound to a session row so logout revokes it.
type RelayAuthService struct {
	auth     *LocalMockAuth
	creds    *CredentialStore
	sessions domain.SessionRepository
	secret   []byte
	ttl      time.Duration
	clock    domain.Clock
	log      logging.Logger
}

// NewRelayAuthService creates the relay authentication service.
func NewRelayAuthService(auth *LocalMockAuth, creds *CredentialStore, sessions domain.SessionRepository, secret []byte, ttl time.Duration, clock domain.Clock, log logging.Logger) *RelayAuthService {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &RelayAuthService{
		auth:     auth,
		creds:    creds,
		sessions: sessions,
		secret:   secret,
		ttl:      ttl,
		clock:    clock,
		log:      log,
	}
}

// Login checks credentials and returns a signed token.
func (s *RelayAuthService) Login(ctx context.Context, username, password string) (string, domain.UserView, error) {
	res, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		return "", domain.UserView{}, err
	}
	token, err := s.issue(ctx, res.User.Username)
	if err != nil {
		return "", domain.UserView{}, err
	}
	return token, res.User, nil
}

// LoginWithUser issues a token for an account already authenticated by
// the identity provider. The account must exist and be active.
func (s *RelayAuthService) LoginWithUser(ctx context.Context, username string) (string, domain.UserView, error) {
	acct, err := s.creds.FindActive(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return "", domain.UserView{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return "", domain.UserView{}, err
	}
	token, err := s.issue(ctx, acct.Username)
	if err != nil {
		return "", domain.UserView{}, err
	}
	return token, acct.View(), nil
}

func (s *RelayAuthService) issue(ctx context.Context, username string) (string, error) {
	now := s.clock.Now()
	sess := domain.ServerSession{
		ID:        uuid.NewString(),
		Username:  username,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
		SessionID: sess.ID,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify resolves a token to the current view of its account.
func (s *RelayAuthService) Verify(ctx context.Context, token string) (domain.UserView, error) {
	claims, err := s.parse(token)
	if err != nil {
		return domain.UserView{}, err
	}
	sess, err := s.sessions.GetByID(ctx, claims.SessionID)
	if err != nil {
		return domain.UserView{}, err
	}
	if sess == nil {
		return domain.UserView{}, domain.ErrSessionExpired
	}
	if s.clock.Now().After(sess.ExpiresAt) {
		_ = s.sessions.Delete(ctx, sess.ID)
		return domain.UserView{}, domain.ErrSessionExpired
	}
	acct, err := s.creds.FindActive(ctx, sess.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		_ = s.sessions.Delete(ctx, sess.ID)
		return domain.UserView{}, domain.ErrSessionExpired
	}
	if err != nil {
		return domain.UserView{}, err
	}
	return acct.View(), nil
}

// Logout revokes the session behind token.
func (s *RelayAuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil {
		return err
	}
	return s.sessions.Delete(ctx, claims.SessionID)
}

// PurgeExpired removes expired session rows.
func (s *RelayAuthService) PurgeExpired(ctx context.Context) error {
	return s.sessions.DeleteExpired(ctx, s.clock.Now())
}

func (s *RelayAuthService) parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil || !parsed.Valid || claims.SessionID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
