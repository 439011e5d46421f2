package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"dashboard/internal/domain"
	"dashboard/internal/logging"
)

// SeedPasswords are the initial passwords of the default accounts. Empty
// values fall back to previously persisted ones, or are generated.
type SeedPasswords struct {
	Admin string
	User  string
}

// CredentialStore owns the persisted account collection.
type CredentialStore struct {
	store  domain.KVStore
	hasher PasswordHasher
	clock  domain.Clock
	log    logging.Logger
	seed   SeedPasswords
}

// NewCredentialStore creates a credential store.
func NewCredentialStore(store domain.KVStore, hasher PasswordHasher, seed SeedPasswords, clock domain.Clock, log logging.Logger) *CredentialStore {
	if hasher == nil {
		hasher = BcryptHasher{}
	}
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &CredentialStore{store: store, hasher: hasher, clock: clock, log: log, seed: seed}
}

// Hasher returns the configured password hasher.
func (c *CredentialStore) Hasher() PasswordHasher {
	return c.hasher
}

// Load returns the persisted accounts. On first use, or when the stored
// collection is unreadable, the default accounts are seeded and saved.
func (c *CredentialStore) Load(ctx context.Context) ([]domain.UserAccount, error) {
	var accounts []domain.UserAccount
	found, err := loadJSON(ctx, c.store, domain.KeyUsers, &accounts)
	switch {
	case errors.Is(err, domain.ErrStorage):
		c.log.Warn(ctx, "user collection unreadable, restoring defaults", "error", err)
	case err != nil:
		return nil, err
	case found:
		return accounts, nil
	}
	accounts, err = c.defaults(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.Save(ctx, accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save replaces the persisted collection.
func (c *CredentialStore) Save(ctx context.Context, accounts []domain.UserAccount) error {
	return saveJSON(ctx, c.store, domain.KeyUsers, accounts)
}

// FindActive returns the active account with the given username.
func (c *CredentialStore) FindActive(ctx context.Context, username string) (*domain.UserAccount, error) {
	accounts, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Active && accounts[i].Username == username {
			return &accounts[i], nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// FindByID returns the account with the given id, active or not.
func (c *CredentialStore) FindByID(ctx context.Context, id string) (*domain.UserAccount, error) {
	accounts, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].ID == id {
			return &accounts[i], nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// Put inserts acct or replaces the account with the same id.
func (c *CredentialStore) Put(ctx context.Context, acct domain.UserAccount) error {
	accounts, err := c.Load(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(accounts, func(a domain.UserAccount) bool { return a.ID == acct.ID })
	if i < 0 {
		accounts = append(accounts, acct)
	} else {
		accounts[i] = acct
	}
	return c.Save(ctx, accounts)
}

// Delete removes the account with the given id.
func (c *CredentialStore) Delete(ctx context.Context, id string) error {
	accounts, err := c.Load(ctx)
	if err != nil {
		return err
	}
	n := len(accounts)
	accounts = slices.DeleteFunc(accounts, func(a domain.UserAccount) bool { return a.ID == id })
	if len(accounts) == n {
		return domain.ErrUserNotFound
	}
	return c.Save(ctx, accounts)
}

func (c *CredentialStore) defaults(ctx context.Context) ([]domain.UserAccount, error) {
	adminPass, err := c.seedPassword(ctx, domain.KeyAdminPassword, c.seed.Admin, "admin")
	if err != nil {
		return nil, err
	}
	userPass, err := c.seedPassword(ctx, domain.KeyUserPassword, c.seed.User, "demo")
	if err != nil {
		return nil, err
	}
	adminHash, err := c.hasher.Hash(adminPass)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	userHash, err := c.hasher.Hash(userPass)
	if err != nil {
		return nil, fmt.Errorf("hash demo password: %w", err)
	}
	now := c.clock.Now()
	return []domain.UserAccount{
		{
			ID:           "admin",
			Username:     "admin",
			Email:        "admin@dolce.com",
			PasswordHash: adminHash,
			Role:         domain.RoleAdmin,
			Permissions:  slices.Clone(domain.AllPermissions),
			CreatedAt:    now,
			Active:       true,
		},
		{
			ID:           "demo",
			Username:     "demo",
			Email:        "demo@dolce.com",
			PasswordHash: userHash,
			Role:         domain.RoleUser,
			Permissions:  []domain.Permission{domain.PermRead, domain.PermWrite},
			CreatedAt:    now,
			Active:       true,
		},
	}, nil
}

// seedPassword resolves the initial password for one default account:
// configured value, then the persisted one, then a freshly generated one.
func (c *CredentialStore) seedPassword(ctx context.Context, key, configured, username string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	var stored string
	if found, err := loadJSON(ctx, c.store, key, &stored); err == nil && found && strings.TrimSpace(stored) != "" {
		return stored, nil
	}
	pw, err := GeneratePassword()
	if err != nil {
		return "", fmt.Errorf("generate %s password: %w", username, err)
	}
	if err := saveJSON(ctx, c.store, key, pw); err != nil {
		return "", err
	}
	c.log.Warn(ctx, "generated initial password", "username", username, "password", pw)
	return pw, nil
}
