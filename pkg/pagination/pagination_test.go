package pagination_test

import (
	"math"
	"net/url"
	"testing"

	"github.com/JaimeStill/churnstudio/pkg/pagination"
)

var cfg = pagination.Config{DefaultPageSize: 25, MaxPageSize: 100}

func TestConfigFinalizeDefaults(t *testing.T) {
	var c pagination.Config
	if err := c.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if c.DefaultPageSize != 25 {
		t.Errorf("default page size: got %d, want 25", c.DefaultPageSize)
	}
	if c.MaxPageSize != 100 {
		t.Errorf("max page size: got %d, want 100", c.MaxPageSize)
	}
}

func TestConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_DEFAULT_PAGE_SIZE", "10")
	t.Setenv("TEST_MAX_PAGE_SIZE", "40")

	var c pagination.Config
	err := c.Finalize(&pagination.ConfigEnv{
		DefaultPageSize: "TEST_DEFAULT_PAGE_SIZE",
		MaxPageSize:     "TEST_MAX_PAGE_SIZE",
	})
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	if c.DefaultPageSize != 10 || c.MaxPageSize != 40 {
		t.Errorf("got %+v, want {10 40}", c)
	}
}

func TestConfigFinalizeRejectsBadEnv(t *testing.T) {
	t.Setenv("TEST_MAX_PAGE_SIZE", "lots")

	var c pagination.Config
	if err := c.Finalize(&pagination.ConfigEnv{MaxPageSize: "TEST_MAX_PAGE_SIZE"}); err == nil {
		t.Error("expected error for a non-integer override")
	}
}

func TestConfigClamp(t *testing.T) {
	tests := []struct {
		size, want int
	}{
		{0, 25},
		{-3, 25},
		{40, 40},
		{1000, 100},
	}
	for _, tt := range tests {
		if got := cfg.Clamp(tt.size); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestConfigFinalizeRejectsDefaultAboveMax(t *testing.T) {
	c := pagination.Config{DefaultPageSize: 50, MaxPageSize: 10}
	if err := c.Finalize(nil); err == nil {
		t.Error("expected error when default exceeds max")
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name         string
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"empty", "", 1, 25},
		{"explicit", "page=3&page_size=10", 3, 10},
		{"negative page", "page=-2", 1, 25},
		{"clamped size", "page_size=500", 1, 100},
		{"garbage", "page=abc&page_size=xyz", 1, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			req := pagination.PageRequestFromQuery(values, cfg)
			if req.Page != tt.wantPage {
				t.Errorf("page: got %d, want %d", req.Page, tt.wantPage)
			}
			if req.PageSize != tt.wantPageSize {
				t.Errorf("page size: got %d, want %d", req.PageSize, tt.wantPageSize)
			}
		})
	}
}

func TestNewPageResultTotalPages(t *testing.T) {
	tests := []struct {
		total, pageSize, want int
	}{
		{0, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 25, 4},
	}

	for _, tt := range tests {
		got := pagination.NewPageResult[int](nil, tt.total, 1, tt.pageSize)
		if got.TotalPages != tt.want {
			t.Errorf("total=%d size=%d: got %d pages, want %d", tt.total, tt.pageSize, got.TotalPages, tt.want)
		}
		if got.Data == nil {
			t.Error("Data should never be nil")
		}
	}
}

func TestSlice(t *testing.T) {
	items := make([]int, 55)
	for i := range items {
		items[i] = i
	}

	t.Run("first page", func(t *testing.T) {
		page := pagination.Slice(items, pagination.PageRequest{Page: 1, PageSize: 25})
		if len(page.Data) != 25 || page.Data[0] != 0 {
			t.Errorf("got %d items starting at %d", len(page.Data), page.Data[0])
		}
		if page.HasPrev() || !page.HasNext() {
			t.Errorf("nav: prev=%v next=%v", page.HasPrev(), page.HasNext())
		}
	})

	t.Run("last partial page", func(t *testing.T) {
		page := pagination.Slice(items, pagination.PageRequest{Page: 3, PageSize: 25})
		if len(page.Data) != 5 || page.Data[0] != 50 {
			t.Errorf("got %d items starting at %v", len(page.Data), page.Data)
		}
		if !page.HasPrev() || page.HasNext() {
			t.Errorf("nav: prev=%v next=%v", page.HasPrev(), page.HasNext())
		}
	})

	t.Run("past the end", func(t *testing.T) {
		page := pagination.Slice(items, pagination.PageRequest{Page: 9, PageSize: 25})
		if len(page.Data) != 0 {
			t.Errorf("got %d items, want 0", len(page.Data))
		}
		if page.Total != 55 || page.TotalPages != 3 {
			t.Errorf("totals: got %d/%d, want 55/3", page.Total, page.TotalPages)
		}
	})

	t.Run("page far past the end", func(t *testing.T) {
		req := pagination.PageRequestFromQuery(url.Values{"page": {"576460752303423489"}}, cfg)
		page := pagination.Slice(items, req)
		if len(page.Data) != 0 || page.Total != 55 {
			t.Errorf("got %d items of %d, want 0 of 55", len(page.Data), page.Total)
		}

		page = pagination.Slice(items, pagination.PageRequest{Page: math.MaxInt, PageSize: 7})
		if len(page.Data) != 0 {
			t.Errorf("got %d items, want 0", len(page.Data))
		}
	})

	t.Run("zero page size", func(t *testing.T) {
		page := pagination.Slice(items, pagination.PageRequest{})
		if len(page.Data) != 55 {
			t.Errorf("got %d items, want 55", len(page.Data))
		}
	})
}
