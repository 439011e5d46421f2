package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"dashboard/internal/domain"
)

func TestAccessGate_CodeFor(t *testing.T) {
	g := NewAccessGate(newMockStore(), "Dolce2024", newFakeClock(), nil)
	day := time.Date(2025, 2, 14, 23, 0, 0, 0, time.UTC)

	if got := g.CodeFor(day); got != "RNTALL" {
		t.Fatalf("expected RNTALL, got %s", got)
	}
	if g.CodeFor(day) == g.CodeFor(day.Add(2*time.Hour)) {
		t.Fatal("expected the code to change with the UTC date")
	}
}

func TestAccessGate_GrantLifecycle(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	g := NewAccessGate(newMockStore(), "Dolce2024", clock, nil)

	if !g.Required(ctx) {
		t.Fatal("expected code required before any grant")
	}
	if err := g.Validate(ctx, g.CodeFor(clock.Now())); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if g.Required(ctx) {
		t.Fatal("expected grant to hold")
	}
	clock.Advance(24*time.Hour + time.Minute)
	if !g.Required(ctx) {
		t.Fatal("expected grant to lapse after a day")
	}
}

func TestAccessGate_LocksAfterThreeFailures(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	g := NewAccessGate(newMockStore(), "Dolce2024", clock, nil)

	for i := 0; i < 3; i++ {
		if err := g.Validate(ctx, "WRONG"); !errors.Is(err, domain.ErrAccessDenied) {
			t.Fatalf("attempt %d: expected ErrAccessDenied, got %v", i+1, err)
		}
	}
	if err := g.Validate(ctx, g.CodeFor(clock.Now())); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
	clock.Advance(5*time.Minute + time.Second)
	if err := g.Validate(ctx, g.CodeFor(clock.Now())); err != nil {
		t.Fatalf("expected success after lockout, got %v", err)
	}
}
