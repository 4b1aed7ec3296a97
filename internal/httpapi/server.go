// Package httpapi bridges HTTP requests onto miner API commands.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/minerbridge/internal/config"
	"github.com/rbright/minerbridge/internal/minerapi"
)

// MinerAPI is the command set the bridge forwards to.
type MinerAPI interface {
	Summary(ctx context.Context) (minerapi.SummaryResult, error)
	GPU(ctx context.Context, index int) (minerapi.GPUResult, error)
	GPUCount(ctx context.Context) (minerapi.CountResult, error)
	EnableGPU(ctx context.Context, index int) (minerapi.Status, error)
	DisableGPU(ctx context.Context, index int) (minerapi.Status, error)
}

var _ MinerAPI = (*minerapi.Client)(nil)

// Options configures the listener and middleware.
type Options struct {
	Listen            string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	RateLimit         config.RateLimitConfig
	Logger            *slog.Logger
}

// OptionsFromConfig maps the http config block onto Options.
func OptionsFromConfig(cfg config.HTTPConfig, logger *slog.Logger) Options {
	return Options{
		Listen:            cfg.Listen,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout(),
		ShutdownTimeout:   cfg.ShutdownTimeout(),
		RateLimit:         cfg.RateLimit,
		Logger:            logger,
	}
}

// Server is the HTTP bridge.
type Server struct {
	api             MinerAPI
	logger          *slog.Logger
	metrics         *metrics
	limiter         *clientLimiter
	httpServer      *http.Server
	shutdownTimeout time.Duration
	now             func() time.Time
}

// NewServer wires routes, metrics, and rate limiting around api.
func NewServer(api MinerAPI, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	readHeaderTimeout := opts.ReadHeaderTimeout
	if readHeaderTimeout <= 0 {
		readHeaderTimeout = 5 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 5 * time.Second
	}

	m := newMetrics()
	mux := http.NewServeMux()
	s := &Server{
		api:     instrumentedAPI{next: api, metrics: m},
		logger:  logger,
		metrics: m,
		limiter: newClientLimiter(opts.RateLimit),
		httpServer: &http.Server{
			Addr:              opts.Listen,
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		shutdownTimeout: shutdownTimeout,
		now:             time.Now,
	}

	s.handle(mux, "GET /summary", s.handleSummary)
	s.handle(mux, "GET /gpus", s.handleGPUList)
	s.handle(mux, "GET /gpus/count", s.handleGPUCount)
	s.handle(mux, "GET /gpus/{index}", s.handleGPU)
	s.handle(mux, "PUT /gpus/{index}/enable", s.handleEnableGPU)
	s.handle(mux, "PUT /gpus/{index}/disable", s.handleDisableGPU)
	s.handleOps(mux, "GET /healthz", s.handleHealth)
	s.handleOps(mux, "GET /metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP)
	return s
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled, then drains in-flight
// requests within the shutdown timeout.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.logger.Info("http bridge listening", "addr", listener.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := s.httpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		s.logger.Info("http bridge stopped")
		return nil
	})
	return g.Wait()
}
