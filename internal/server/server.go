// Package server exposes the question pipeline and the shop tables over
// HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/askdb/internal/executor"
	"github.com/leapstack-labs/askdb/internal/shop"
	"github.com/leapstack-labs/askdb/pkg/adapter"
	"github.com/leapstack-labs/askdb/pkg/nlsql"
)

// Defaults applied to a zero Config.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
)

// RateLimit bounds chat requests per client. A zero RequestsPerSecond
// disables limiting.
type RateLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// Config holds configuration for the API server.
type Config struct {
	Addr              string
	DB                adapter.Adapter
	Compiler          *nlsql.Compiler
	Examples          []string
	MaxRows           int
	CORSOrigins       []string
	RateLimit         RateLimit
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
	Logger            *slog.Logger
}

// Server is the HTTP API server.
type Server struct {
	cfg      Config
	db       adapter.Adapter
	exec     *executor.Executor
	store    *shop.Store
	compiler *nlsql.Compiler
	logger   *slog.Logger
	handler  http.Handler
}

// New creates a server over a connected database.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Compiler == nil {
		cfg.Compiler = nlsql.New(nlsql.WithLogger(cfg.Logger))
	}
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	s := &Server{
		cfg: cfg,
		db:  cfg.DB,
		exec: executor.New(cfg.DB,
			executor.WithLogger(cfg.Logger),
			executor.WithMaxRows(cfg.MaxRows),
		),
		store:    shop.NewStore(cfg.DB),
		compiler: cfg.Compiler,
		logger:   cfg.Logger,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Serve listens on the configured address and blocks until ctx is
// cancelled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener serves on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	s.logger.Info("starting API server", slog.String("addr", ln.Addr().String()))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler: s.handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
	}

	eg.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown
	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()

		s.logger.Debug("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	s.useMiddleware(r)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/schema", s.handleSchema)
	r.Post("/query", s.handleQuery)

	r.Route("/chat", func(r chi.Router) {
		r.Use(rateLimiter(s.cfg.RateLimit, time.Now))
		r.Post("/", s.handleChat)
		r.Post("/query", s.handleChatQuery)
		r.Get("/examples", s.handleExamples)
	})

	r.Route("/users", func(r chi.Router) {
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleCreateUser)
		r.Get("/{id}", s.handleGetUser)
	})
	r.Route("/products", func(r chi.Router) {
		r.Get("/", s.handleListProducts)
		r.Post("/", s.handleCreateProduct)
		r.Get("/{id}", s.handleGetProduct)
		r.Get("/category/{category}", s.handleProductsByCategory)
	})
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", s.handleListOrders)
		r.Post("/", s.handleCreateOrder)
		r.Get("/user/{id}", s.handleOrdersByUser)
		r.Get("/status/{status}", s.handleOrdersByStatus)
	})

	return r
}
