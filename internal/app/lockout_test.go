package app

import (
	"context"
	"testing"
	"time"
)

func TestLockoutPolicy_LocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	p := NewLockoutPolicy(newMockStore(), "attempts", 5, 15*time.Minute, clock, nil)

	for i := 0; i < 4; i++ {
		if err := p.RecordFailure(ctx, "alice"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	if p.IsLocked(ctx, "alice") {
		t.Fatal("expected unlocked after 4 failures")
	}
	_ = p.RecordFailure(ctx, "alice")
	if !p.IsLocked(ctx, "alice") {
		t.Fatal("expected locked after 5 failures")
	}
	if p.IsLocked(ctx, "bob") {
		t.Fatal("expected other identities unaffected")
	}
}

func TestLockoutPolicy_LazyExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	p := NewLockoutPolicy(newMockStore(), "attempts", 5, 15*time.Minute, clock, nil)

	for i := 0; i < 5; i++ {
		_ = p.RecordFailure(ctx, "alice")
	}
	clock.Advance(14 * time.Minute)
	if !p.IsLocked(ctx, "alice") {
		t.Fatal("expected locked inside the window")
	}
	clock.Advance(2 * time.Minute)
	if p.IsLocked(ctx, "alice") {
		t.Fatal("expected unlocked after the window")
	}
	if got := p.Attempts(ctx, "alice"); got != 0 {
		t.Fatalf("expected expired counter removed, got count %d", got)
	}
}

func TestLockoutPolicy_Clear(t *testing.T) {
	ctx := context.Background()
	p := NewLockoutPolicy(newMockStore(), "attempts", 2, time.Minute, newFakeClock(), nil)

	_ = p.RecordFailure(ctx, "alice")
	_ = p.RecordFailure(ctx, "alice")
	if err := p.Clear(ctx, "alice"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if p.IsLocked(ctx, "alice") {
		t.Fatal("expected unlocked after clear")
	}
}

func TestLockoutPolicy_CorruptCountersReset(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.data["attempts"] = []byte("{not json")
	p := NewLockoutPolicy(store, "attempts", 1, time.Minute, newFakeClock(), nil)

	if p.IsLocked(ctx, "alice") {
		t.Fatal("expected unlocked with unreadable counters")
	}
	if err := p.RecordFailure(ctx, "alice"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !p.IsLocked(ctx, "alice") {
		t.Fatal("expected locked after a fresh failure")
	}
}
