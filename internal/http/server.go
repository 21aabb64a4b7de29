// Package http serves the analytics read API. All endpoints are JSON over
// GET; responses for the heavier aggregate queries are cached with a short
// TTL since the underlying data changes only on ingestion runs.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"healthwatch/internal/analytics"
)

type Server struct {
	http.Server
	engine      *analytics.Engine
	rateLimiter *rateLimiter
	metrics     *securityMetrics

	adminTaxCache  *lruCache[*analytics.AdminTaxResult]
	trendsCache    *lruCache[[]analytics.TrendPoint]
	budgetCache    *lruCache[[]analytics.BudgetTrendPoint]
	breakdownCache *lruCache[*analytics.BudgetBreakdownResult]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, engine *analytics.Engine) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		engine:           engine,
		rateLimiter:      newRateLimiter(),
		metrics:          &securityMetrics{},
		adminTaxCache:    newLRUCache[*analytics.AdminTaxResult](50, 5*time.Minute),
		trendsCache:      newLRUCache[[]analytics.TrendPoint](5, 5*time.Minute),
		budgetCache:      newLRUCache[[]analytics.BudgetTrendPoint](5, 5*time.Minute),
		breakdownCache:   newLRUCache[*analytics.BudgetBreakdownResult](50, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/health", s.withSecurityHeaders(s.handleAPIHealth))
	mux.HandleFunc("/api/admin-tax", s.withSecurityHeaders(s.handleAdminTax))
	mux.HandleFunc("/api/trends/admin-tax", s.withSecurityHeaders(s.handleAdminTaxTrends))
	mux.HandleFunc("/api/trends/budget", s.withSecurityHeaders(s.handleBudgetTrends))
	mux.HandleFunc("/api/budget/breakdown", s.withSecurityHeaders(s.handleBudgetBreakdown))

	return s
}

// InvalidateCaches drops all cached analytics responses. Called after an
// ingestion or reclassification run changes the underlying data.
func (s *Server) InvalidateCaches() {
	s.adminTaxCache.Purge()
	s.trendsCache.Purge()
	s.budgetCache.Purge()
	s.breakdownCache.Purge()
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleaned := s.adminTaxCache.CleanExpired() +
				s.trendsCache.CleanExpired() +
				s.budgetCache.CleanExpired() +
				s.breakdownCache.CleanExpired()
			if cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting and request
// logging to an endpoint.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
