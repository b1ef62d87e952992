package auditlog

import (
	"testing"
	"time"
)

func TestDayStart(t *testing.T) {
	got, ok := DayStart("2026-08-15")
	if !ok {
		t.Fatal("expected a parsed day")
	}
	want := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DayStart = %v, want %v", got, want)
	}
}

func TestDayEnd(t *testing.T) {
	got, ok := DayEnd("2026-08-15")
	if !ok {
		t.Fatal("expected a parsed day")
	}
	want := time.Date(2026, 8, 15, 23, 59, 59, 999000000, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DayEnd = %v, want %v", got, want)
	}
}

func TestDayBoundsAcceptTimestamps(t *testing.T) {
	got, ok := DayStart("2026-08-15T18:30:00-03:00")
	if !ok {
		t.Fatal("expected a parsed timestamp")
	}
	// 18:30-03:00 is 21:30 UTC, still the 15th in UTC.
	want := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DayStart = %v, want %v", got, want)
	}
}

func TestDayBoundsRejectGarbage(t *testing.T) {
	for _, in := range []string{"", "soon", "15/08/2026", "2026-13-40"} {
		if _, ok := DayStart(in); ok {
			t.Errorf("DayStart(%q) should not parse", in)
		}
		if _, ok := DayEnd(in); ok {
			t.Errorf("DayEnd(%q) should not parse", in)
		}
	}
}

func TestSortColumnWhitelist(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"created_at", "created_at"},
		{"total_amount", "total_amount"},
		{"attempts", "attempts"},
		{"status", "status"},
		{"", "created_at"},
		{"error_message", "created_at"},
		{"id; DROP TABLE submission_log", "created_at"},
	}
	for _, tt := range tests {
		if got := sortColumn(tt.in); got != tt.want {
			t.Errorf("sortColumn(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSortDirection(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ASC", "ASC"},
		{"asc", "ASC"},
		{"DESC", "DESC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"sideways", "DESC"},
	}
	for _, tt := range tests {
		if got := sortDirection(tt.in); got != tt.want {
			t.Errorf("sortDirection(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizePagination(t *testing.T) {
	tests := []struct {
		page, pageSize int
		wantPage       int
		wantSize       int
	}{
		{0, 0, 1, 20},
		{-3, -1, 1, 20},
		{1, 50, 1, 50},
		{7, 200, 7, 200},
		{2, 500, 2, 200},
	}
	for _, tt := range tests {
		page, size := normalizePagination(tt.page, tt.pageSize)
		if page != tt.wantPage || size != tt.wantSize {
			t.Errorf("normalizePagination(%d, %d) = (%d, %d), want (%d, %d)",
				tt.page, tt.pageSize, page, size, tt.wantPage, tt.wantSize)
		}
	}
}

func TestComputeMeta(t *testing.T) {
	meta := computeMeta(2, 10, 25)

	if meta.TotalPages != 3 {
		t.Errorf("TotalPages = %d, want 3", meta.TotalPages)
	}
	if !meta.HasNext {
		t.Error("page 2 of 3 should have a next page")
	}
	if !meta.HasPrev {
		t.Error("page 2 should have a previous page")
	}
}

func TestComputeMetaEmptyResult(t *testing.T) {
	meta := computeMeta(1, 20, 0)

	if meta.TotalPages != 1 {
		t.Errorf("TotalPages = %d, want 1 even when empty", meta.TotalPages)
	}
	if meta.HasNext || meta.HasPrev {
		t.Error("an empty single page has no neighbors")
	}
}

func TestComputeMetaLastPage(t *testing.T) {
	meta := computeMeta(3, 10, 25)

	if meta.HasNext {
		t.Error("last page should not have a next page")
	}
	if !meta.HasPrev {
		t.Error("page 3 should have a previous page")
	}
}
