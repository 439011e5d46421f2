package app

import (
	"fmt"
	"testing"
	"time"

	"dashboard/internal/domain"
)

func TestQuery_Search(t *testing.T) {
	now := newFakeClock().Now()
	records := []domain.GenerationRecord{
		{Type: domain.RecordText, Prompt: "幫我寫情人節文案", Timestamp: now},
		{Type: domain.RecordText, Prompt: "夏天", Result: "情人節 also in result", Timestamp: now},
		{Type: domain.RecordImage, Prompt: "聖誕節圖片", Timestamp: now},
		{Type: domain.RecordText, Prompt: "Loafers", Result: "LOAFER copy", Timestamp: now},
	}

	got := Query(records, Filter{Search: "情人節"}, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	got = Query(records, Filter{Search: "loafer"}, now)
	if len(got) != 1 || got[0].Prompt != "Loafers" {
		t.Fatalf("expected case-insensitive match, got %+v", got)
	}
}

func TestQuery_TypeAndDate(t *testing.T) {
	now := time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC)
	records := []domain.GenerationRecord{
		{Type: domain.RecordText, Timestamp: now.Add(-time.Hour)},
		{Type: domain.RecordImage, Timestamp: now.Add(-3 * 24 * time.Hour)},
		{Type: domain.RecordText, Timestamp: now.Add(-10 * 24 * time.Hour)},
		{Type: domain.RecordSampling, Timestamp: now.Add(-40 * 24 * time.Hour)},
	}

	tests := []struct {
		name string
		f    Filter
		want int
	}{
		{"no filter", Filter{}, 4},
		{"type text", Filter{Type: domain.RecordText}, 2},
		{"today", Filter{Date: DateToday}, 1},
		{"week", Filter{Date: DateWeek}, 2},
		{"month", Filter{Date: DateMonth}, 3},
		{"text this week", Filter{Type: domain.RecordText, Date: DateWeek}, 1},
		{"sampling today", Filter{Type: domain.RecordSampling, Date: DateToday}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Query(records, tc.f, now); len(got) != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, len(got))
			}
		})
	}
}

func makeRecords(n int) []domain.GenerationRecord {
	out := make([]domain.GenerationRecord, n)
	for i := range out {
		out[i] = domain.GenerationRecord{Prompt: fmt.Sprintf("item%d", i+1)}
	}
	return out
}

func TestPaginate(t *testing.T) {
	records := makeRecords(12)

	page3 := Paginate(records, 3, 5)
	if len(page3) != 2 || page3[0].Prompt != "item11" || page3[1].Prompt != "item12" {
		t.Fatalf("expected items 11-12, got %+v", page3)
	}
	if got := Paginate(records, 99, 5); len(got) != 0 {
		t.Fatalf("expected empty page, got %d", len(got))
	}
	if got := Paginate(records, 0, 5); len(got) != 0 {
		t.Fatalf("expected empty page for page 0, got %d", len(got))
	}
	if got := Paginate(records, 1, 0); len(got) != DefaultPageSize {
		t.Fatalf("expected default page size, got %d", len(got))
	}
}

func TestTotalPages(t *testing.T) {
	for _, tc := range []struct{ n, want int }{{0, 0}, {1, 1}, {5, 1}, {6, 2}, {12, 3}} {
		if got := TotalPages(tc.n, 5); got != tc.want {
			t.Errorf("TotalPages(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestPageWindow(t *testing.T) {
	render := func(items []PageItem) string {
		s := ""
		for _, it := range items {
			switch {
			case it.Ellipsis:
				s += "."
			case it.Current:
				s += fmt.Sprintf("[%d]", it.Page)
			default:
				s += fmt.Sprintf("%d", it.Page)
			}
		}
		return s
	}
	tests := []struct {
		current, total int
		want           string
	}{
		{1, 1, ""},
		{1, 3, "[1]23"},
		{1, 10, "[1]23.10"},
		{6, 10, "1.45[6]78.10"},
		{10, 10, "1.89[10]"},
		{4, 10, "123[4]56.10"},
	}
	for _, tc := range tests {
		if got := render(PageWindow(tc.current, tc.total)); got != tc.want {
			t.Errorf("PageWindow(%d, %d) = %q, want %q", tc.current, tc.total, got, tc.want)
		}
	}
}
