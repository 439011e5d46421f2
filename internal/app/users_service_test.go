package app

import (
	"context"
	"errors"
	"testing"

	"dashboard/internal/domain"
)

var (
	adminActor = &domain.UserView{ID: "admin", Username: "admin", Role: domain.RoleAdmin}
	userActor  = &domain.UserView{ID: "demo", Username: "demo", Role: domain.RoleUser}
)

func newTestUsers() (*UserService, *CredentialStore) {
	creds, _, _ := newTestAuth(newMockStore(), newFakeClock())
	return NewUserService(creds, newFakeClock(), nil), creds
}

func TestUserService_RequiresAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUsers()

	if _, err := svc.List(ctx, userActor); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("List: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Create(ctx, userActor, NewUser{}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Create: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(ctx, nil, "demo", UserUpdate{}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Update: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(ctx, userActor, "demo"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Delete: expected ErrForbidden, got %v", err)
	}
	if err := svc.ChangePassword(ctx, userActor, "demo", "Newpass#1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("ChangePassword: expected ErrForbidden, got %v", err)
	}
}

func TestUserService_Create_Defaults(t *testing.T) {
	ctx := context.Background()
	svc, creds := newTestUsers()

	view, err := svc.Create(ctx, adminActor, NewUser{Username: " carol ", Email: "carol@dolce.com", Password: "Carol#123"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view.Username != "carol" || view.Role != domain.RoleUser {
		t.Errorf("unexpected view: %+v", view)
	}
	if len(view.Permissions) != 1 || view.Permissions[0] != domain.PermRead {
		t.Errorf("expected [read], got %v", view.Permissions)
	}
	acct, err := creds.FindActive(ctx, "carol")
	if err != nil {
		t.Fatalf("expected account persisted, got %v", err)
	}
	if !creds.Hasher().Verify(acct.PasswordHash, "Carol#123") {
		t.Error("expected password hashed with the store hasher")
	}
}

func TestUserService_Create_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUsers()

	_, err := svc.Create(ctx, adminActor, NewUser{Password: "weak"})
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(ve.Problems) < 3 {
		t.Fatalf("expected username, email and password problems, got %v", ve.Problems)
	}

	_, err = svc.Create(ctx, adminActor, NewUser{Username: "x", Email: "x@y", Password: "Valid#123", Role: "root"})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad role, got %v", err)
	}
}

func TestUserService_Create_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUsers()

	_, err := svc.Create(ctx, adminActor, NewUser{Username: "demo", Email: "d@d", Password: "Valid#123"})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_UpdateKeepsPassword(t *testing.T) {
	ctx := context.Background()
	svc, creds := newTestUsers()
	before, _ := creds.FindByID(ctx, "demo")

	email := "new@dolce.com"
	role := domain.RoleAdmin
	view, err := svc.Update(ctx, adminActor, "demo", UserUpdate{Email: &email, Role: &role})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if view.Email != email || view.Role != domain.RoleAdmin {
		t.Errorf("unexpected view: %+v", view)
	}
	after, _ := creds.FindByID(ctx, "demo")
	if after.PasswordHash != before.PasswordHash {
		t.Error("expected password hash unchanged")
	}

	if _, err := svc.Update(ctx, adminActor, "nobody", UserUpdate{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_ReactivateTakenUsername(t *testing.T) {
	ctx := context.Background()
	svc, creds := newTestUsers()

	off, on := false, true
	if _, err := svc.Update(ctx, adminActor, "demo", UserUpdate{Active: &off}); err != nil {
		t.Fatalf("deactivate: expected no error, got %v", err)
	}
	if _, err := svc.Create(ctx, adminActor, NewUser{Username: "demo", Email: "d@d", Password: "Valid#123"}); err != nil {
		t.Fatalf("create: expected no error, got %v", err)
	}

	_, err := svc.Update(ctx, adminActor, "demo", UserUpdate{Active: &on})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	accounts, _ := creds.Load(ctx)
	active := 0
	for _, a := range accounts {
		if a.Active && a.Username == "demo" {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("expected one active demo account, got %d", active)
	}

	if _, err := svc.Update(ctx, adminActor, "admin", UserUpdate{Active: &on}); err != nil {
		t.Fatalf("expected no error updating an already active account, got %v", err)
	}
}

func TestUserService_DeleteAndList(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestUsers()

	if err := svc.Delete(ctx, adminActor, "demo"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	views, err := svc.List(ctx, adminActor)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(views) != 1 || views[0].Username != "admin" {
		t.Fatalf("expected only admin left, got %+v", views)
	}
	if err := svc.Delete(ctx, adminActor, "demo"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	svc, creds := newTestUsers()

	if err := svc.ChangePassword(ctx, adminActor, "demo", "short"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := svc.ChangePassword(ctx, adminActor, "demo", "Changed#99"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	acct, _ := creds.FindByID(ctx, "demo")
	if !creds.Hasher().Verify(acct.PasswordHash, "Changed#99") {
		t.Fatal("expected new password to verify")
	}
}
