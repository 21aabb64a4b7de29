package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthwatch/internal/analytics"
	"healthwatch/internal/core"
	"healthwatch/internal/storage/memory"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	engine := analytics.NewEngine(store, store)
	s := NewServer(":0", engine)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, store
}

func seed(t *testing.T, store *memory.Store) {
	t.Helper()
	err := store.ReplaceYearSalaries(context.Background(), 2023, []core.SalaryRecord{
		{Year: 2023, Sector: "Hospitals", Employer: "General Hospital", JobTitle: "Registered Nurse", Salary: 90000, Classification: core.Clinical},
		{Year: 2023, Sector: "Hospitals", Employer: "General Hospital", JobTitle: "Chief Financial Officer", Salary: 200000, Classification: core.Bureaucratic},
	}, 100)
	if err != nil {
		t.Fatalf("seed salaries: %v", err)
	}
	err = store.ReplaceYearBudget(context.Background(), 2023, []core.BudgetLineItem{
		{Year: 2023, Category: core.CategoryFrontline, Amount: 60.0, Description: "Spending on: Operation of Hospitals..."},
		{Year: 2023, Category: core.CategoryOther, Amount: 25.5, Description: "Everything else."},
	})
	if err != nil {
		t.Fatalf("seed budget: %v", err)
	}
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleAdminTax(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store)

	rec := doGet(t, s, "/api/admin-tax?year=2023")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var res analytics.AdminTaxResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Year != 2023 {
		t.Fatalf("expected year 2023, got %d", res.Year)
	}
	if res.AdminTaxPercentage != 68.97 {
		t.Fatalf("expected 68.97, got %v", res.AdminTaxPercentage)
	}
}

func TestHandleAdminTaxDefaultsToLatest(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store)

	rec := doGet(t, s, "/api/admin-tax")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res analytics.AdminTaxResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Year != 2023 {
		t.Fatalf("expected latest year 2023, got %d", res.Year)
	}
}

func TestHandleAdminTaxRejectsBadYear(t *testing.T) {
	s, _ := newTestServer(t)

	for _, q := range []string{"?year=abc", "?year=1999", "?year=-5"} {
		rec := doGet(t, s, "/api/admin-tax"+q)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestHandleAdminTaxEmptyYearIsNotAnError(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doGet(t, s, "/api/admin-tax?year=2019")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty year, got %d", rec.Code)
	}
	var res analytics.AdminTaxResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Note == "" {
		t.Fatal("expected an explanatory note on an empty year")
	}
}

func TestHandleBudgetBreakdown(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store)

	rec := doGet(t, s, "/api/budget/breakdown?year=2023")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res analytics.BudgetBreakdownResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.TotalBudgetBillions != 85.5 {
		t.Fatalf("expected total 85.5, got %v", res.TotalBudgetBillions)
	}

	if rec := doGet(t, s, "/api/budget/breakdown?year=2015"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unreconciled year, got %d", rec.Code)
	}
	if rec := doGet(t, s, "/api/budget/breakdown"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 when year is missing, got %d", rec.Code)
	}
}

func TestHandleTrends(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store)

	rec := doGet(t, s, "/api/trends/admin-tax")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var trends []analytics.TrendPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &trends); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(trends) != 1 || trends[0].Year != 2023 {
		t.Fatalf("unexpected trend payload: %+v", trends)
	}

	rec = doGet(t, s, "/api/trends/budget")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var budget []analytics.BudgetTrendPoint
	if err := json.Unmarshal(rec.Body.Bytes(), &budget); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(budget) != 1 || budget[0].TotalBudget != 85.5 {
		t.Fatalf("unexpected budget trend payload: %+v", budget)
	}
}

func TestCachedResponsesServeStaleUntilInvalidated(t *testing.T) {
	s, store := newTestServer(t)
	seed(t, store)

	first := doGet(t, s, "/api/admin-tax?year=2023")
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", first.Code)
	}

	// Mutate the underlying data; the cached payload must survive until an
	// explicit invalidation.
	if err := store.ReplaceYearSalaries(context.Background(), 2023, nil, 100); err != nil {
		t.Fatalf("clear salaries: %v", err)
	}

	second := doGet(t, s, "/api/admin-tax?year=2023")
	if second.Body.String() != first.Body.String() {
		t.Fatal("expected cached response before invalidation")
	}

	s.InvalidateCaches()
	third := doGet(t, s, "/api/admin-tax?year=2023")
	var res analytics.AdminTaxResult
	if err := json.Unmarshal(third.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if res.Note == "" {
		t.Fatal("expected fresh empty-year result after invalidation")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin-tax", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/api/health"} {
		if rec := doGet(t, s, path); rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestLRUCacheEviction(t *testing.T) {
	c := newLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)

	if _, ok := c.Get("a"); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("expected c=3 to survive, got %v %v", v, ok)
	}

	expired := newLRUCache[int](2, -time.Second)
	expired.Set("x", 1)
	if _, ok := expired.Get("x"); ok {
		t.Fatal("expired entries must not be served")
	}
}
