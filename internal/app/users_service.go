package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"dashboard/internal/domain"
	"dashboard/internal/logging"

	"github.com/google/uuid"
)

// Required-field messages for account forms.
const (
	MsgUsernameRequired = "用戶名為必填項"
	MsgEmailRequired    = "電子郵件為必填項"
	MsgPasswordRequired = "密碼為必填項"
	MsgInvalidRole      = "無效的角色"
	MsgInvalidPerm      = "無效的權限"
)

// NewUser is the input to UserService.Create.
type NewUser struct {
	Username    string
	Email       string
	Password    string
	Role        domain.Role
	Permissions []domain.Permission
}

// UserUpdate holds the mutable account fields. Nil fields are left as is.
// The password is changed only through ChangePassword.
type UserUpdate struct {
	Email       *string
	Role        *domain.Role
	Permissions []domain.Permission
	Active      *bool
}

// UserService implements admin-only account management.
type UserService struct {
	creds *CredentialStore
	clock domain.Clock
	log   logging.Logger
}

// NewUserService creates a user administration service.
func NewUserService(creds *CredentialStore, clock domain.Clock, log logging.Logger) *UserService {
	if clock == nil {
		clock = domain.RealClock{}
	}
	if log == nil {
		log = logging.Nop{}
	}
	return &UserService{creds: creds, clock: clock, log: log}
}

func requireAdmin(actor *domain.UserView) error {
	if actor == nil || !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// List returns every account as a sanitized view.
func (s *UserService) List(ctx context.Context, actor *domain.UserView) ([]domain.UserView, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	accounts, err := s.creds.Load(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]domain.UserView, 0, len(accounts))
	for i := range accounts {
		views = append(views, accounts[i].View())
	}
	return views, nil
}

// Create adds a new active account.
func (s *UserService) Create(ctx context.Context, actor *domain.UserView, in NewUser) (domain.UserView, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.UserView{}, err
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	var problems []string
	if in.Username == "" {
		problems = append(problems, MsgUsernameRequired)
	}
	if in.Email == "" {
		problems = append(problems, MsgEmailRequired)
	}
	if in.Password == "" {
		problems = append(problems, MsgPasswordRequired)
	} else {
		var ve *domain.ValidationError
		if errors.As(ValidatePassword(in.Password), &ve) {
			problems = append(problems, ve.Problems...)
		}
	}
	if in.Role == "" {
		in.Role = domain.RoleUser
	}
	if !in.Role.Valid() {
		problems = append(problems, MsgInvalidRole)
	}
	if len(in.Permissions) == 0 {
		in.Permissions = []domain.Permission{domain.PermRead}
	}
	if !validPermissions(in.Permissions) {
		problems = append(problems, MsgInvalidPerm)
	}
	if len(problems) > 0 {
		return domain.UserView{}, domain.NewValidationError(problems...)
	}

	if _, err := s.creds.FindActive(ctx, in.Username); err == nil {
		return domain.UserView{}, domain.ErrUserExists
	}

	hash, err := s.creds.Hasher().Hash(in.Password)
	if err != nil {
		return domain.UserView{}, fmt.Errorf("hash password: %w", err)
	}
	acct := domain.UserAccount{
		ID:           "user_" + uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		Permissions:  slices.Clone(in.Permissions),
		CreatedAt:    s.clock.Now(),
		Active:       true,
	}
	if err := s.creds.Put(ctx, acct); err != nil {
		return domain.UserView{}, err
	}
	s.log.Info(ctx, "user created", "actor", actor.Username, "username", acct.Username)
	return acct.View(), nil
}

// Update applies upd to the account with the given id.
func (s *UserService) Update(ctx context.Context, actor *domain.UserView, id string, upd UserUpdate) (domain.UserView, error) {
	if err := requireAdmin(actor); err != nil {
		return domain.UserView{}, err
	}
	acct, err := s.creds.FindByID(ctx, id)
	if err != nil {
		return domain.UserView{}, err
	}

	var problems []string
	if upd.Email != nil {
		if strings.TrimSpace(*upd.Email) == "" {
			problems = append(problems, MsgEmailRequired)
		}
		acct.Email = strings.TrimSpace(*upd.Email)
	}
	if upd.Role != nil {
		if !upd.Role.Valid() {
			problems = append(problems, MsgInvalidRole)
		}
		acct.Role = *upd.Role
	}
	if upd.Permissions != nil {
		if !validPermissions(upd.Permissions) {
			problems = append(problems, MsgInvalidPerm)
		}
		acct.Permissions = slices.Clone(upd.Permissions)
	}
	if upd.Active != nil {
		if *upd.Active && !acct.Active {
			other, err := s.creds.FindActive(ctx, acct.Username)
			switch {
			case err == nil && other.ID != acct.ID:
				return domain.UserView{}, domain.ErrUserExists
			case err != nil && !errors.Is(err, domain.ErrUserNotFound):
				return domain.UserView{}, err
			}
		}
		acct.Active = *upd.Active
	}
	if len(problems) > 0 {
		return domain.UserView{}, domain.NewValidationError(problems...)
	}

	if err := s.creds.Put(ctx, *acct); err != nil {
		return domain.UserView{}, err
	}
	s.log.Info(ctx, "user updated", "actor", actor.Username, "id", id)
	return acct.View(), nil
}

// Delete removes the account with the given id.
func (s *UserService) Delete(ctx context.Context, actor *domain.UserView, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := s.creds.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info(ctx, "user deleted", "actor", actor.Username, "id", id)
	return nil
}

// ChangePassword replaces the password of the account with the given id.
func (s *UserService) ChangePassword(ctx context.Context, actor *domain.UserView, id, password string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	acct, err := s.creds.FindByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := s.creds.Hasher().Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	acct.PasswordHash = hash
	if err := s.creds.Put(ctx, *acct); err != nil {
		return err
	}
	s.log.Info(ctx, "password changed", "actor", actor.Username, "id", id)
	return nil
}

func validPermissions(perms []domain.Permission) bool {
	for _, p := range perms {
		if !slices.Contains(domain.AllPermissions, p) {
			return false
		}
	}
	return true
}
