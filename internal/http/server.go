// Package http exposes the admin API: finance summaries, movements,
// imports and inventory views. Metric responses are computed fresh on
// every request.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"tanuki/internal/amqp"
	"tanuki/internal/cache"
	"tanuki/internal/core"
	"tanuki/internal/finance"
	"tanuki/internal/inventory"
	"tanuki/internal/money"
)

// MovementStore is the persistence surface the API needs for movements.
type MovementStore interface {
	InsertMovement(ctx context.Context, m core.Movement) error
	GetMovement(ctx context.Context, id uuid.UUID) (core.Movement, error)
	ListMovements(ctx context.Context, year, month int) ([]core.Movement, error)
}

// InventoryStore serves the stock endpoints.
type InventoryStore interface {
	ListStockRecords(ctx context.Context) ([]core.StockRecord, error)
	ListWarehouses(ctx context.Context) ([]core.Warehouse, error)
}

// Pinger reports storage reachability for the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EventPublisher pushes movement events to the worker. Nil disables
// publishing; movement creation still succeeds.
type EventPublisher interface {
	PublishMovementRecorded(ctx context.Context, msg *amqp.MovementRecordedMessage) error
}

type Server struct {
	http.Server

	movements MovementStore
	stock     InventoryStore
	pinger    Pinger
	events    EventPublisher

	eng        *money.Engine
	aggregator *finance.Aggregator
	stockSvc   *inventory.Service

	// warehouse catalog changes rarely; stock and valuation numbers are
	// always computed fresh
	warehouses *cache.LRU[[]core.Warehouse]
	cacheMgr   *cache.Manager

	rateLimiter  *rateLimiter
	metrics      *securityMetrics
	shutdownOnce sync.Once
}

// Deps bundles the server's collaborators. Events and Pinger may be nil.
type Deps struct {
	Movements MovementStore
	Stock     InventoryStore
	Pinger    Pinger
	Events    EventPublisher

	Engine     *money.Engine
	Aggregator *finance.Aggregator
	Inventory  *inventory.Service

	RateLimitPerMinute int
}

// NewServer wires routes and middleware.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		movements:   deps.Movements,
		stock:       deps.Stock,
		pinger:      deps.Pinger,
		events:      deps.Events,
		eng:         deps.Engine,
		aggregator:  deps.Aggregator,
		stockSvc:    deps.Inventory,
		warehouses:  cache.NewLRU[[]core.Warehouse](1, 30*time.Second),
		cacheMgr:    cache.NewManager(),
		rateLimiter: newRateLimiter(deps.RateLimitPerMinute),
		metrics:     &securityMetrics{},
	}

	s.cacheMgr.Register(s.warehouses)
	s.cacheMgr.Start(time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	mux.HandleFunc("/api/finance/summary", s.withSecurityHeaders(s.handleFinanceSummary))
	mux.HandleFunc("/api/finance/health", s.withSecurityHeaders(s.handleFinanceHealth))

	mux.HandleFunc("/api/movements", s.withSecurityHeaders(s.handleMovements))
	mux.HandleFunc("/api/movements/import", s.withSecurityHeaders(s.handleImportMovements))

	mux.HandleFunc("/api/inventory/stock", s.withSecurityHeaders(s.handleInventoryStock))
	mux.HandleFunc("/api/inventory/valuation", s.withSecurityHeaders(s.handleInventoryValuation))

	return s
}

// Shutdown stops the HTTP server and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheMgr != nil {
			s.cacheMgr.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting on POST, and
// request logging with a generated request id.
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
			"client_ip", clientIP,
			"user_agent", r.Header.Get("User-Agent"))

		if detectSuspiciousRequest(r, s.metrics) {
			slog.WarnContext(ctx, "Suspicious request", "client_ip", clientIP, "url", r.URL.String())
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
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

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			slog.ErrorContext(r.Context(), "Readiness check failed", "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
