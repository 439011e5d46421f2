// Command relay serves the login, verification and generation API that the
// dashboard uses in remote mode.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/spf13/pflag"
	"golang.org/x/oauth2"

	adapthttp "dashboard/internal/adapter/http"
	"dashboard/internal/adapter/memory"
	"dashboard/internal/adapter/openai"
	"dashboard/internal/adapter/postgres"
	"dashboard/internal/adapter/sqlite"
	"dashboard/internal/app"
	"dashboard/internal/config"
	"dashboard/internal/domain"
	"dashboard/internal/logging"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "relay:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("relay", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	cfg, err := config.Load(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "Usage: relay [flags]")
		fs.PrintDefaults()
		return nil
	}
	if err != nil {
		return err
	}

	log, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, sessions, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore() //nolint:errcheck

	hasher, err := app.NewHasher(cfg.Auth.Hasher)
	if err != nil {
		return err
	}
	creds := app.NewCredentialStore(kv, hasher, app.SeedPasswords{
		Admin: cfg.Auth.AdminPassword,
		User:  cfg.Auth.UserPassword,
	}, nil, log)
	if _, err := creds.Load(ctx); err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	lockout := app.NewLockoutPolicy(kv, domain.KeyLoginAttempts, cfg.Auth.MaxAttempts, cfg.Auth.LockoutWindow, nil, log)
	local := app.NewLocalMockAuth(creds, lockout, nil, log)

	secret := []byte(cfg.Server.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return err
		}
		log.Warn(ctx, "server.jwt_secret not set; tokens will not survive a restart")
	}
	authSvc := app.NewRelayAuthService(local, creds, sessions, secret, cfg.Auth.SessionTTL, nil, log)

	upstream, err := newUpstream(cfg, log)
	if err != nil {
		return err
	}
	oidcCfg, err := newOIDC(ctx, cfg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: adapthttp.New(authSvc, upstream, adapthttp.Options{
			OIDC:         oidcCfg,
			MetricsRoute: cfg.Server.MetricsRoute,
			Log:          log.With("component", "http"),
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go purgeSessions(ctx, authSvc, cfg.Server.PurgeEvery, log)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info(ctx, "listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver, "sso", oidcCfg.Enabled)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openLogger(cfg *config.Config) (logging.Logger, func() error, error) {
	if cfg.Log.File != "" {
		l, c, err := logging.OpenFile(cfg.Log.File, cfg.Log.Level)
		if err != nil {
			return nil, nil, err
		}
		return l, c.Close, nil
	}
	l, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return l, func() error { return nil }, nil
}

// openStore returns the key-value store and the session repository for
// the configured driver. SQLite keeps sessions in memory.
func openStore(ctx context.Context, cfg *config.Config) (domain.KVStore, domain.SessionRepository, func() error, error) {
	switch cfg.Store.Driver {
	case "postgres":
		db, err := postgres.Open(cfg.Store.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("db open: %w", err)
		}
		return db, postgres.NewSessionRepo(db), db.Close, nil
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("db open: %w", err)
		}
		return st, memory.New().NewSessionRepo(), st.Close, nil
	default:
		db := memory.New()
		return db, db.NewSessionRepo(), func() error { return nil }, nil
	}
}

func newUpstream(cfg *config.Config, log logging.Logger) (app.Upstream, error) {
	if cfg.OpenAI.APIKey != "" {
		return openai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey, openai.Defaults{
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
			ImageSize:   cfg.OpenAI.ImageSize,
		}, cfg.Relay.Timeout), nil
	}
	catalog, err := app.LoadCatalog(cfg.Generation.Catalog)
	if err != nil {
		return nil, err
	}
	log.Info(context.Background(), "openai.api_key not set; serving demo responses")
	return app.NewDemoUpstream(app.NewSelector(catalog)), nil
}

func newOIDC(ctx context.Context, cfg *config.Config) (adapthttp.OIDCConfig, error) {
	if cfg.SSO.Issuer == "" {
		return adapthttp.OIDCConfig{}, nil
	}
	provider, err := oidc.NewProvider(ctx, cfg.SSO.Issuer)
	if err != nil {
		return adapthttp.OIDCConfig{}, fmt.Errorf("oidc provider: %w", err)
	}
	return adapthttp.OIDCConfig{
		Enabled:  true,
		Provider: provider,
		OAuth2Config: oauth2.Config{
			ClientID:     cfg.SSO.ClientID,
			ClientSecret: cfg.SSO.ClientSecret,
			RedirectURL:  cfg.SSO.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
	}, nil
}

func purgeSessions(ctx context.Context, svc *app.RelayAuthService, every time.Duration, log logging.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := svc.PurgeExpired(ctx); err != nil {
				log.Warn(ctx, "purge expired sessions", "error", err)
			}
		}
	}
}
