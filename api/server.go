// Package api provides the HTTP JSON API.
//
// Routes:
//
//	GET  /                        → service banner
//	GET  /health                  → liveness probe
//	GET  /ready                   → readiness probe (database ping)
//	GET  /metrics                 → Prometheus metrics
//	GET  /api/search              → semantic course search with timings
//	GET  /api/ask                 → SSE course recommendation stream
//	GET  /api/courses             → paginated course listing
//	GET  /api/courses/{code}      → course detail with weekly topics
//	POST /api/regulations/chunk   → chunk a stored document
//	GET  /api/regulations/ask     → SSE grounded regulation answer
//	GET/POST /api/employees       → directory listing and creation
//	GET/PUT/DELETE /api/employees/{id}
//	GET  /api/departments, /api/positions
//
// File structure:
//   - server.go: server setup and lifecycle
//   - middleware.go: recovery, request ID, logging, CORS
//   - ratelimit.go: per-IP token bucket
//   - metrics.go: Prometheus instrumentation
//   - catalog.go, regulations.go, directory.go: route handlers
//   - response.go: JSON response helpers
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8100"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout bounds response writing. Streaming answers hold the
	// response open for the whole generation, so this is much longer
	// than a plain JSON API would use.
	WriteTimeout = 5 * time.Minute

	// IdleTimeout is the maximum time to wait for the next request on
	// keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// ServerConfig contains the dependencies and knobs for the API server.
type ServerConfig struct {
	Logger      *slog.Logger
	Pool        *pgxpool.Pool // used by the readiness probe
	Catalog     CourseService
	Regulation  RegulationService
	Directory   DirectoryService
	CORSOrigins []string
	RatePerSec  float64 // token refill rate per IP (0 = default 10)
	RateBurst   int     // bucket size per IP (0 = default 60)
	TrustProxy  bool    // trust X-Real-IP/X-Forwarded-For
}

// Server is the HTTP server for the JSON API.
type Server struct {
	handler http.Handler
	logger  *slog.Logger
}

// NewServer creates a server with all routes registered and the middleware
// chain applied.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("catalog service is required")
	}
	if cfg.Regulation == nil {
		return nil, errors.New("regulation service is required")
	}
	if cfg.Directory == nil {
		return nil, errors.New("directory service is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", banner)

	(&catalogHandler{svc: cfg.Catalog, logger: logger}).RegisterRoutes(mux)
	(&regulationHandler{svc: cfg.Regulation, logger: logger}).RegisterRoutes(mux)
	(&directoryHandler{svc: cfg.Directory, logger: logger}).RegisterRoutes(mux)

	refill := cfg.RatePerSec
	if refill <= 0 {
		refill = 10
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(refill, burst)

	// Middleware stack, outermost first:
	//   recovery → request ID → logging → CORS → rate limit → metrics → routes
	// Request ID precedes logging so request_id is available in log attributes.
	// CORS precedes the rate limiter so preflight OPTIONS always gets headers.
	var handler http.Handler = mux
	handler = metricsMiddleware(handler)
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Probes and metrics sit outside the middleware stack so monitoring
	// traffic is never rate limited or counted as API load.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health)
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("GET /metrics", promhttp.Handler())
	topMux.Handle("/", handler)

	return &Server{handler: topMux, logger: logger}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run starts the HTTP server and blocks until the context is cancelled,
// then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// banner answers the root path so load balancer default checks get a
// meaningful response. The ServeMux "GET /" pattern also catches unknown
// paths, which get a 404.
func banner(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "no such route")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Orbis course and regulation API. See /api/search, /api/ask, /api/employees.",
	})
}
