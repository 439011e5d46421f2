package app

import (
	"strings"
	"time"

	"dashboard/internal/domain"
)

// DefaultPageSize is the number of records per page.
const DefaultPageSize = 5

// DateBucket is a coarse relative-time filter.
type DateBucket string

const (
	DateAny   DateBucket = ""
	DateToday DateBucket = "today"
	DateWeek  DateBucket = "week"
	DateMonth DateBucket = "month"
)

// Filter narrows a record list. Zero fields match everything.
type Filter struct {
	Search string
	Type   domain.RecordType
	Date   DateBucket
}

// Query returns the records matching every set field of f, in order.
func Query(records []domain.GenerationRecord, f Filter, now time.Time) []domain.GenerationRecord {
	search := strings.ToLower(f.Search)
	out := make([]domain.GenerationRecord, 0, len(records))
	for _, r := range records {
		if search != "" &&
			!strings.Contains(strings.ToLower(r.Prompt), search) &&
			!strings.Contains(strings.ToLower(r.Result), search) {
			continue
		}
		if f.Type != "" && r.Type != f.Type {
			continue
		}
		if !inBucket(r.Timestamp, f.Date, now) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func inBucket(ts time.Time, b DateBucket, now time.Time) bool {
	ts = ts.In(now.Location())
	switch b {
	case DateToday:
		y1, m1, d1 := ts.Date()
		y2, m2, d2 := now.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	case DateWeek:
		return !ts.Before(now.Add(-7 * 24 * time.Hour))
	case DateMonth:
		return ts.Year() == now.Year() && ts.Month() == now.Month()
	}
	return true
}

// Paginate returns the 1-based page of records. Out-of-range pages are empty.
func Paginate(records []domain.GenerationRecord, page, size int) []domain.GenerationRecord {
	if size <= 0 {
		size = DefaultPageSize
	}
	start := (page - 1) * size
	if page < 1 || start >= len(records) {
		return []domain.GenerationRecord{}
	}
	end := min(start+size, len(records))
	return records[start:end]
}

// TotalPages returns how many pages n records span.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	return (n + size - 1) / size
}

// PageItem is one pagination control: a page number or an ellipsis.
type PageItem struct {
	Page     int
	Current  bool
	Ellipsis bool
}

// PageWindow lists the page controls: first, last, current±2, and an
// ellipsis at current±3. A single page needs no controls.
func PageWindow(current, total int) []PageItem {
	if total <= 1 {
		return nil
	}
	var items []PageItem
	for i := 1; i <= total; i++ {
		switch {
		case i == 1 || i == total || (i >= current-2 && i <= current+2):
			items = append(items, PageItem{Page: i, Current: i == current})
		case i == current-3 || i == current+3:
			items = append(items, PageItem{Page: i, Ellipsis: true})
		}
	}
	return items
}
