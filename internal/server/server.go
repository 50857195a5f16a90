//go:generate mockgen -source=server.go -destination=mocks/mock_backend.go -package=mocks

package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/agbru/bigtensor/internal/boundary"
	"github.com/agbru/bigtensor/internal/codec"
	"github.com/agbru/bigtensor/internal/logging"
)

const (
	// DefaultRequestTimeout bounds the computation of a single request.
	DefaultRequestTimeout = time.Minute
	// shutdownGrace is how long in-flight requests may run after shutdown starts.
	shutdownGrace = 10 * time.Second
)

// Backend performs the computations requested over HTTP. It is implemented by
// *boundary.Adapter.
type Backend interface {
	// Compute runs a complete request and returns the exported result.
	Compute(ctx context.Context, req boundary.Request) (boundary.RawArray, error)
	// Convert re-encodes an array in another element kind.
	Convert(ctx context.Context, raw boundary.RawArray, kind codec.Kind) (boundary.RawArray, error)
}

// Config holds the server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
	// RequestTimeout bounds each computation; zero selects DefaultRequestTimeout.
	RequestTimeout time.Duration
	// Security holds the header, CORS and size limits.
	Security SecurityConfig
}

// Server is the HTTP front end of the array engine.
type Server struct {
	backend    Backend
	config     Config
	logger     logging.Logger
	metrics    *Metrics
	mem        memory.Allocator
	httpServer *http.Server
}

// New creates a server. A nil metrics value creates a private recorder.
func New(backend Backend, cfg Config, logger logging.Logger, m *Metrics) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Security.MaxBodyBytes <= 0 {
		cfg.Security.MaxBodyBytes = DefaultSecurityConfig().MaxBodyBytes
	}
	if m == nil {
		m = NewMetrics()
	}
	s := &Server{
		backend: backend,
		config:  cfg,
		logger:  logger,
		metrics: m,
		mem:     memory.NewGoAllocator(),
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with the security and metrics
// middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(path string, h http.HandlerFunc) {
		mux.HandleFunc(path, SecurityMiddleware(s.config.Security, s.metricsMiddleware(h)))
	}
	route("/v1/compute", s.handleCompute)
	route("/v1/convert", s.handleConvert)
	route("/v1/arrow/compute", s.handleArrowCompute)
	route("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)
	return mux
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()
	s.logger.Info("server listening", logging.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	s.logger.Info("shutting down server")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

// Start listens on the configured address and serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}
