package app

import (
	"context"
	"fmt"
	"testing"

	"dashboard/internal/domain"
)

func TestRecordStore_AppendCapsAtFifty(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore(newMockStore(), false, newFakeClock(), nil)

	for i := 1; i <= 51; i++ {
		rec := domain.GenerationRecord{Type: domain.RecordText, Prompt: fmt.Sprintf("p%d", i)}
		if err := s.Append(ctx, rec); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	records, _ := s.List(ctx)
	if len(records) != MaxRecords {
		t.Fatalf("expected %d records, got %d", MaxRecords, len(records))
	}
	if records[0].Prompt != "p51" {
		t.Errorf("expected newest first, got %s", records[0].Prompt)
	}
	for _, r := range records {
		if r.Prompt == "p1" {
			t.Fatal("expected oldest record dropped")
		}
	}
	if records[0].Timestamp.IsZero() {
		t.Error("expected missing timestamp stamped")
	}
}

func TestRecordStore_CorruptDataYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newMockStore()
	store.data[domain.KeyGenerationRecords] = []byte("{")
	s := NewRecordStore(store, false, newFakeClock(), nil)

	records, err := s.List(ctx)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty list, got %d", len(records))
	}
}

func TestRecordStore_SeedDefaultsIfMissing(t *testing.T) {
	ctx := context.Background()
	textOnly := domain.GenerationRecord{Type: domain.RecordText, Prompt: "mine"}

	tests := []struct {
		name       string
		reseed     bool
		existing   []domain.GenerationRecord
		wantSeeded bool
		wantLen    int
	}{
		{"empty always seeded", false, nil, true, 3},
		{"missing types kept when reseed off", false, []domain.GenerationRecord{textOnly}, false, 1},
		{"missing types replaced when reseed on", true, []domain.GenerationRecord{textOnly}, true, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewRecordStore(newMockStore(), tc.reseed, newFakeClock(), nil)
			for _, r := range tc.existing {
				_ = s.Append(ctx, r)
			}
			seeded, err := s.SeedDefaultsIfMissing(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if seeded != tc.wantSeeded {
				t.Fatalf("expected seeded=%v, got %v", tc.wantSeeded, seeded)
			}
			records, _ := s.List(ctx)
			if len(records) != tc.wantLen {
				t.Fatalf("expected %d records, got %d", tc.wantLen, len(records))
			}
		})
	}
}

func TestRecordStore_SamplesAreStable(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore(newMockStore(), true, newFakeClock(), nil)

	if seeded, _ := s.SeedDefaultsIfMissing(ctx); !seeded {
		t.Fatal("expected first call to seed")
	}
	if seeded, _ := s.SeedDefaultsIfMissing(ctx); seeded {
		t.Fatal("expected samples to cover every type")
	}
}

func TestRecordStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewRecordStore(newMockStore(), false, newFakeClock(), nil)
	_ = s.Append(ctx, domain.GenerationRecord{Type: domain.RecordText})

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if records, _ := s.List(ctx); len(records) != 0 {
		t.Fatalf("expected empty list, got %d", len(records))
	}
}
