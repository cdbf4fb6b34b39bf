package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"mercator-hq/peersync/pkg/config"
	"mercator-hq/peersync/pkg/telemetry/health"
)

// Options supplies the handlers mounted by the server.
type Options struct {
	// Checker backs /health and /ready. Nil leaves both unmounted.
	Checker *health.Checker

	// Version is served on /version.
	Version health.VersionInfo

	// Metrics is mounted on MetricsPath when both are set.
	Metrics     http.Handler
	MetricsPath string

	Logger *slog.Logger
}

// Server is the telemetry HTTP server.
type Server struct {
	config     *config.ServerConfig
	logger     *slog.Logger
	handler    http.Handler
	httpServer *http.Server
	listener   net.Listener

	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a telemetry server. It does not listen until Listen or Start
// is called.
func New(cfg *config.ServerConfig, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "server")

	s := &Server{
		config: cfg,
		logger: logger,
	}
	s.handler = s.setupRoutes(opts)
	return s
}

// Enabled reports whether a listen address is configured.
func (s *Server) Enabled() bool {
	return s.config != nil && s.config.ListenAddress != ""
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	if !s.Enabled() {
		return errors.New("telemetry server has no listen address")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return errors.New("telemetry server is already listening")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return nil
}

// Addr returns the bound address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Start listens (unless Listen was already called) and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if s.Addr() == "" {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	return s.Serve(ctx)
}

// Serve serves on the bound listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	if s.listener == nil {
		s.mu.Unlock()
		return errors.New("telemetry server is not listening")
	}
	if s.isRunning {
		s.mu.Unlock()
		return errors.New("telemetry server is already running")
	}
	s.isRunning = true
	srv, ln := s.httpServer, s.listener
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting telemetry server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("telemetry server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

// Shutdown stops the server within the configured shutdown timeout. Only
// the first call has an effect.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		srv := s.httpServer
		s.mu.Unlock()
		if srv == nil {
			return
		}

		timeout := s.config.ShutdownTimeout
		if timeout <= 0 {
			timeout = config.DefaultServerShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		s.logger.Info("stopping telemetry server", "timeout", timeout.String())
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during telemetry server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
	})

	return shutdownErr
}

// IsRunning reports whether Serve is active.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Server) setupRoutes(opts Options) http.Handler {
	mux := http.NewServeMux()

	if opts.Checker != nil {
		health.Register(mux, opts.Checker, opts.Version)
	} else {
		mux.HandleFunc("/version", health.VersionHandler(opts.Version))
	}
	if opts.Metrics != nil && opts.MetricsPath != "" {
		mux.Handle(opts.MetricsPath, opts.Metrics)
	}

	var handler http.Handler = mux
	handler = loggingMiddleware(s.logger)(handler)
	handler = recoveryMiddleware(s.logger)(handler)
	return handler
}
