package pagination_test

import (
	"encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/callbook/pkg/pagination"
	"github.com/JaimeStill/callbook/pkg/query"
)

var limits = pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}

func TestConfigFinalize(t *testing.T) {
	tests := []struct {
		name        string
		cfg         pagination.Config
		env         map[string]string
		wantDefault int
		wantMax     int
		wantErr     string
	}{
		{name: "defaults", wantDefault: 20, wantMax: 100},
		{
			name:        "env overrides",
			env:         map[string]string{"TEST_PAGE_SIZE": "50", "TEST_MAX_PAGE": "200"},
			wantDefault: 50,
			wantMax:     200,
		},
		{
			name:        "unparseable env ignored",
			cfg:         pagination.Config{DefaultPageSize: 10, MaxPageSize: 40},
			env:         map[string]string{"TEST_PAGE_SIZE": "lots"},
			wantDefault: 10,
			wantMax:     40,
		},
		{
			name:    "default exceeds max",
			cfg:     pagination.Config{DefaultPageSize: 200, MaxPageSize: 100},
			wantErr: "default_page_size (200) exceeds max_page_size (100)",
		},
		{
			name:    "negative max",
			cfg:     pagination.Config{MaxPageSize: -1},
			wantErr: "max_page_size must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			env := &pagination.ConfigEnv{DefaultPageSize: "TEST_PAGE_SIZE", MaxPageSize: "TEST_MAX_PAGE"}

			cfg := tt.cfg
			err := cfg.Finalize(env)

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Finalize: %v", err)
			}
			if cfg.DefaultPageSize != tt.wantDefault || cfg.MaxPageSize != tt.wantMax {
				t.Errorf("got %d/%d, want %d/%d", cfg.DefaultPageSize, cfg.MaxPageSize, tt.wantDefault, tt.wantMax)
			}
		})
	}
}

func TestConfigMerge(t *testing.T) {
	base := limits
	base.Merge(&pagination.Config{DefaultPageSize: 50})

	if base.DefaultPageSize != 50 || base.MaxPageSize != 100 {
		t.Errorf("merged = %+v, want default 50 and max unchanged", base)
	}
}

func TestPageRequestNormalize(t *testing.T) {
	blank := "   "

	tests := []struct {
		name       string
		req        pagination.PageRequest
		wantPage   int
		wantSize   int
		wantSearch bool
	}{
		{"zero values", pagination.PageRequest{}, 1, 20, false},
		{"negative page", pagination.PageRequest{Page: -3, PageSize: 10}, 1, 10, false},
		{"size clamped", pagination.PageRequest{Page: 2, PageSize: 500}, 2, 100, false},
		{"blank search dropped", pagination.PageRequest{Page: 1, PageSize: 5, Search: &blank}, 1, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(limits)
			if tt.req.Page != tt.wantPage || tt.req.PageSize != tt.wantSize {
				t.Errorf("page/size = %d/%d, want %d/%d", tt.req.Page, tt.req.PageSize, tt.wantPage, tt.wantSize)
			}
			if (tt.req.Search != nil) != tt.wantSearch {
				t.Errorf("search = %v, want present %v", tt.req.Search, tt.wantSearch)
			}
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	req := pagination.PageRequest{Page: 3, PageSize: 25}
	if got := req.Offset(); got != 50 {
		t.Errorf("Offset() = %d, want 50", got)
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantPage   int
		wantSize   int
		wantSearch string
		wantSort   []query.SortField
	}{
		{name: "empty", raw: "", wantPage: 1, wantSize: 20},
		{
			name:       "all params",
			raw:        "page=2&page_size=10&search=refund&sort=-created_at,text",
			wantPage:   2,
			wantSize:   10,
			wantSearch: "refund",
			wantSort: []query.SortField{
				{Field: "created_at", Descending: true},
				{Field: "text"},
			},
		},
		{name: "q alias", raw: "q=delivery", wantPage: 1, wantSize: 20, wantSearch: "delivery"},
		{name: "search beats q", raw: "search=a&q=b", wantPage: 1, wantSize: 20, wantSearch: "a"},
		{name: "garbage numbers", raw: "page=x&page_size=-4", wantPage: 1, wantSize: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.raw)
			if err != nil {
				t.Fatal(err)
			}
			req := pagination.PageRequestFromQuery(values, limits)

			if req.Page != tt.wantPage || req.PageSize != tt.wantSize {
				t.Errorf("page/size = %d/%d, want %d/%d", req.Page, req.PageSize, tt.wantPage, tt.wantSize)
			}

			var search string
			if req.Search != nil {
				search = *req.Search
			}
			if search != tt.wantSearch {
				t.Errorf("search = %q, want %q", search, tt.wantSearch)
			}

			if len(req.Sort) != len(tt.wantSort) {
				t.Fatalf("sort = %v, want %v", req.Sort, tt.wantSort)
			}
			for i, f := range tt.wantSort {
				if req.Sort[i] != f {
					t.Errorf("sort[%d] = %+v, want %+v", i, req.Sort[i], f)
				}
			}
		})
	}
}

func TestNewPageResult(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		page      int
		size      int
		wantPages int
		wantNext  bool
	}{
		{"empty", 0, 1, 20, 1, false},
		{"exact fit", 40, 1, 20, 2, true},
		{"remainder", 41, 2, 20, 3, true},
		{"last page", 41, 3, 20, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pagination.NewPageResult([]int{1}, tt.total, tt.page, tt.size)
			if result.TotalPages != tt.wantPages {
				t.Errorf("TotalPages = %d, want %d", result.TotalPages, tt.wantPages)
			}
			if result.HasNext != tt.wantNext {
				t.Errorf("HasNext = %v, want %v", result.HasNext, tt.wantNext)
			}
		})
	}
}

func TestNewPageResultEncodesEmptyData(t *testing.T) {
	result := pagination.NewPageResult[string](nil, 0, 1, 20)

	b, err := json.Marshal(result)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"data":[]`) {
		t.Errorf("json = %s, want empty data array", b)
	}
}

func TestSortFieldsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []query.SortField
	}{
		{"string", `"-frequency,text"`, []query.SortField{{Field: "frequency", Descending: true}, {Field: "text"}}},
		{"array", `[{"Field":"created_at","Descending":true}]`, []query.SortField{{Field: "created_at", Descending: true}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s pagination.SortFields
			if err := json.Unmarshal([]byte(tt.raw), &s); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(s) != len(tt.want) {
				t.Fatalf("got %v, want %v", s, tt.want)
			}
			for i := range tt.want {
				if s[i] != tt.want[i] {
					t.Errorf("[%d] = %+v, want %+v", i, s[i], tt.want[i])
				}
			}
		})
	}

	var s pagination.SortFields
	if err := json.Unmarshal([]byte(`42`), &s); err == nil {
		t.Error("expected error for numeric sort")
	}
}
