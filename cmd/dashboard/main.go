// Command dashboard is the terminal client: access gate, login, content
// generation, record browsing and user administration.
//
// Usage:
//
//	dashboard [flags]
//	dashboard passwd [flags] <username>
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"dashboard/internal/adapter/memory"
	"dashboard/internal/adapter/postgres"
	"dashboard/internal/adapter/relayclient"
	"dashboard/internal/adapter/sqlite"
	"dashboard/internal/adapter/tui"
	"dashboard/internal/app"
	"dashboard/internal/config"
	"dashboard/internal/domain"
	"dashboard/internal/logging"
)

// defaultLogFile receives client logs when log.file is unset. The terminal
// belongs to the UI.
const defaultLogFile = "dashboard.log"

func main() {
	args := os.Args[1:]
	var err error
	if len(args) > 0 && args[0] == "passwd" {
		err = runPasswd(args[1:])
	} else {
		err = run(args)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "dashboard:", err)
		os.Exit(1)
	}
}

func loadConfig(name string, args []string) (*config.Config, *pflag.FlagSet, error) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	config.RegisterFlags(fs)
	cfg, err := config.Load(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n", name)
		fs.PrintDefaults()
	}
	return cfg, fs, err
}

func run(args []string) error {
	cfg, _, err := loadConfig("dashboard", args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	env, err := wire(ctx, cfg)
	if err != nil {
		return err
	}
	defer env.close()

	if _, err := env.records.SeedDefaultsIfMissing(ctx); err != nil {
		env.log.Warn(ctx, "seed records", "error", err)
	}

	svc := services(cfg, env)
	env.log.Info(ctx, "dashboard starting", "store", cfg.Store.Driver, "auth", cfg.Auth.Mode)
	p := tea.NewProgram(tui.New(ctx, svc), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// services assembles what the UI may call for the configured mode.
func services(cfg *config.Config, env *environment) tui.Services {
	svc := tui.Services{
		Sessions:  env.sessions,
		Generator: env.generator,
		Records:   env.records,
		Log:       env.log.With("component", "tui"),
	}
	// Remote logins are checked by the relay, so local accounts are not
	// offered for administration.
	if cfg.Auth.Mode != "remote" {
		svc.Users = env.users
	}
	if cfg.Access.Enabled {
		svc.Gate = app.NewAccessGate(env.kv, cfg.Access.Secret, nil, env.log)
	}
	return svc
}

// environment holds the services of one dashboard process.
type environment struct {
	kv        domain.KVStore
	log       logging.Logger
	creds     *app.CredentialStore
	local     *app.LocalMockAuth
	sessions  *app.SessionManager
	records   *app.RecordStore
	generator *app.GenerationService
	users     *app.UserService
	closers   []func() error
}

func (e *environment) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		_ = e.closers[i]()
	}
}

func wire(ctx context.Context, cfg *config.Config) (*environment, error) {
	env := &environment{}

	logFile := cfg.Log.File
	if logFile == "" {
		logFile = defaultLogFile
	}
	log, logCloser, err := logging.OpenFile(logFile, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	env.log = log
	env.closers = append(env.closers, logCloser.Close)

	kv, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		env.close()
		return nil, err
	}
	env.kv = kv
	env.closers = append(env.closers, closeStore)

	hasher, err := app.NewHasher(cfg.Auth.Hasher)
	if err != nil {
		env.close()
		return nil, err
	}
	env.creds = app.NewCredentialStore(kv, hasher, app.SeedPasswords{
		Admin: cfg.Auth.AdminPassword,
		User:  cfg.Auth.UserPassword,
	}, nil, log)
	lockout := app.NewLockoutPolicy(kv, domain.KeyLoginAttempts, cfg.Auth.MaxAttempts, cfg.Auth.LockoutWindow, nil, log)
	env.local = app.NewLocalMockAuth(env.creds, lockout, nil, log)

	var relay app.RelayClient
	if cfg.Auth.Mode == "remote" {
		relay = relayclient.New(cfg.Relay.URL, cfg.Relay.Timeout)
	}
	auth, err := app.NewAuthenticator(cfg.Auth.Mode, env.local, relay)
	if err != nil {
		env.close()
		return nil, err
	}
	env.sessions = app.NewSessionManager(auth, kv, cfg.Auth.SessionTTL, nil, log)
	env.records = app.NewRecordStore(kv, cfg.Records.ReseedMissingTypes, nil, log)
	env.users = app.NewUserService(env.creds, nil, log)

	catalog, err := app.LoadCatalog(cfg.Generation.Catalog)
	if err != nil {
		env.close()
		return nil, err
	}
	env.generator = app.NewGenerationService(app.NewSelector(catalog), env.records, relay, env.sessions, cfg.Generation.Delay, nil, log)
	return env, nil
}

func openStore(ctx context.Context, cfg *config.Config) (domain.KVStore, func() error, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		st, err := sqlite.Open(ctx, cfg.Store.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		return st, st.Close, nil
	case "postgres":
		db, err := postgres.Open(cfg.Store.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}
		return db, db.Close, nil
	default:
		return memory.New(), func() error { return nil }, nil
	}
}
