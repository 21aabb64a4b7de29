package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"healthwatch/internal/analytics"
	"healthwatch/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// yearParam parses an optional ?year= query parameter. A nil result means
// the caller should fall back to the latest year with data.
func yearParam(r *http.Request) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("year"))
	if raw == "" {
		return nil, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year < core.MinYear || year > 2100 {
		return nil, core.ErrInvalidYear
	}
	return &year, nil
}

func requireGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

func (s *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "healthwatch",
	})
}

func (s *Server) handleAdminTax(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	year, err := yearParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be a number no earlier than "+strconv.Itoa(core.MinYear))
		return
	}

	key := "latest"
	if year != nil {
		key = strconv.Itoa(*year)
	}
	if cached, ok := s.adminTaxCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	res, err := s.engine.AdminTax(r.Context(), year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin tax query failed", "error", err, "year", key)
		writeError(w, http.StatusInternalServerError, "admin tax computation failed")
		return
	}

	s.adminTaxCache.Set(key, res)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleAdminTaxTrends(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	if cached, ok := s.trendsCache.Get("admin-tax"); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	history, err := s.engine.HistoricalAdminTax(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Admin tax trends query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "trend computation failed")
		return
	}
	if history == nil {
		history = []analytics.TrendPoint{}
	}

	s.trendsCache.Set("admin-tax", history)
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleBudgetTrends(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	if cached, ok := s.budgetCache.Get("budget"); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	trends, err := s.engine.HistoricalBudgetTrends(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget trends query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "trend computation failed")
		return
	}

	s.budgetCache.Set("budget", trends)
	writeJSON(w, http.StatusOK, trends)
}

func (s *Server) handleBudgetBreakdown(w http.ResponseWriter, r *http.Request) {
	if !requireGet(w, r) {
		return
	}

	year, err := yearParam(r)
	if err != nil || year == nil {
		writeError(w, http.StatusBadRequest, "a valid year parameter is required")
		return
	}

	key := strconv.Itoa(*year)
	if cached, ok := s.breakdownCache.Get(key); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	res, err := s.engine.BudgetBreakdown(r.Context(), *year)
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget breakdown query failed", "error", err, "year", *year)
		writeError(w, http.StatusInternalServerError, "breakdown computation failed")
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "no reconciled budget for year "+key)
		return
	}

	s.breakdownCache.Set(key, res)
	writeJSON(w, http.StatusOK, res)
}
