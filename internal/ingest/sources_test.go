package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCKANCatalogUsesConfiguredQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		w.Write([]byte(`{"success": true, "result": {"results": []}}`))
	}))
	defer srv.Close()

	catalog := NewCKANCatalog(srv.URL, "ontario sunshine list")
	catalog.Fallback = map[int]string{2023: "mem://2023"}

	urls, err := catalog.Resolve(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotQuery != "ontario sunshine list" {
		t.Fatalf("expected the configured search query, got %q", gotQuery)
	}
	if urls[2023] != "mem://2023" {
		t.Fatalf("expected fallback to fill missing years, got %v", urls)
	}
}

func TestCKANCatalogDefaultQuery(t *testing.T) {
	catalog := NewCKANCatalog("http://localhost", "")
	if !strings.Contains(catalog.Query, "Salary Disclosure") {
		t.Fatalf("expected a default search query, got %q", catalog.Query)
	}
}

func TestCKANCatalogSelectsCompendiumResources(t *testing.T) {
	catalog := NewCKANCatalog("http://localhost", "")

	tests := []struct {
		name     string
		resource ckanResource
		wantYear int
		wantOK   bool
	}{
		{
			name:     "full english compendium",
			resource: ckanResource{Name: "en-2023-pssd-compendium", URL: "https://x/en-2023.csv", Format: "CSV"},
			wantYear: 2023,
			wantOK:   true,
		},
		{
			name:     "addendum excluded",
			resource: ckanResource{Name: "en-2023-pssd-compendium-addendum", URL: "https://x/en-2023.csv", Format: "CSV"},
			wantOK:   false,
		},
		{
			name:     "non-csv excluded",
			resource: ckanResource{Name: "en-2023-pssd-compendium", URL: "https://x/en-2023.xlsx", Format: "XLSX"},
			wantOK:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, ok := catalog.compendiumYear(tt.resource)
			if ok != tt.wantOK || year != tt.wantYear {
				t.Fatalf("compendiumYear(%q) = (%d, %v), want (%d, %v)",
					tt.resource.Name, year, ok, tt.wantYear, tt.wantOK)
			}
		})
	}
}
