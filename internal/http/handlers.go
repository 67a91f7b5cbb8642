package http

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	applog "finanse/internal/log"
)

type appMetrics struct {
	ledgerWrites int64
	cacheHits    int64
	cacheMisses  int64
	uptime       time.Time
}

func (m *appMetrics) recordRead(fromCache bool) {
	if fromCache {
		atomic.AddInt64(&m.cacheHits, 1)
	} else {
		atomic.AddInt64(&m.cacheMisses, 1)
	}
}

// ledgerWritten counts a successful write and leaves an audit line.
func (s *Server) ledgerWritten(r *http.Request, op, owner, collection, id string) {
	atomic.AddInt64(&s.appMetrics.ledgerWrites, 1)
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogLedgerWrite(r.Context(), op, owner, collection, id)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).Round(time.Second).String(),
	}).Write(w)
}

// handleReady checks that storage answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	switch {
	case s.deps.Storage == nil:
		checks["storage"] = "not_configured"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	default:
		if err := s.deps.Storage.Ping(ctx); err != nil {
			checks["storage"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["storage"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	NewJSONResponse().Status(httpStatus).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}

// handleMetrics writes counters in the Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	traceMetrics := s.traceMiddleware.GetMetrics()
	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	metrics := []struct {
		name, help, kind string
		value            int64
	}{
		{"http_requests_total", "Total number of HTTP requests", "counter", traceMetrics.TotalRequests},
		{"http_requests_failed_total", "HTTP requests answered with a 5xx status", "counter", traceMetrics.FailedRequests},
		{"http_request_duration_microseconds_avg", "Average request duration", "gauge", traceMetrics.AverageResponseTime},
		{"ledger_writes_total", "Successful ledger writes", "counter", atomic.LoadInt64(&s.appMetrics.ledgerWrites)},
		{"cache_hits_total", "Ledger reads served from cache", "counter", atomic.LoadInt64(&s.appMetrics.cacheHits)},
		{"cache_misses_total", "Ledger reads that went to storage", "counter", atomic.LoadInt64(&s.appMetrics.cacheMisses)},
		{"rate_limit_hits_total", "Requests rejected by the rate limiter", "counter", rateLimitMetrics.TotalHits},
		{"rate_limit_active_clients", "Clients tracked by the rate limiter", "gauge", rateLimitMetrics.ClientCount},
		{"suspicious_requests_total", "Requests flagged as suspicious", "counter", securityMetrics.SuspiciousRequests},
		{"blocked_requests_total", "Requests rejected by the security detector", "counter", securityMetrics.BlockedRequests},
		{"uptime_seconds", "Seconds since the server started", "gauge", int64(time.Since(s.appMetrics.uptime).Seconds())},
	}

	w.WriteHeader(http.StatusOK)
	for _, m := range metrics {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n\n", m.name, m.help, m.name, m.kind, m.name, m.value)
	}
}
