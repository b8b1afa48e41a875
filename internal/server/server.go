// Package server serves the book catalog over HTTP.
//
// Every book route runs behind the session middleware, reads or rewrites the
// whole book collection through the repository and answers with a rendered
// page, a redirect carrying a feedback message key, or a plain-text 404.
// Operational routes (health, metrics, live reload, static files) sit beside
// them without a session.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/knygynas/internal/config"
	apperrors "github.com/conneroisu/knygynas/internal/errors"
	"github.com/conneroisu/knygynas/internal/livereload"
	"github.com/conneroisu/knygynas/internal/logging"
	"github.com/conneroisu/knygynas/internal/messages"
	"github.com/conneroisu/knygynas/internal/monitoring"
	"github.com/conneroisu/knygynas/internal/renderer"
	"github.com/conneroisu/knygynas/internal/security"
	"github.com/conneroisu/knygynas/internal/session"
	"github.com/conneroisu/knygynas/internal/store"
	"github.com/conneroisu/knygynas/internal/version"
)

// Deps are the collaborators a Server is built from. Metrics, Health,
// Security and Hub are optional; the rest are required.
type Deps struct {
	Config   *config.Config
	Books    store.BookRepository
	Sessions store.SessionRepository
	Renderer *renderer.Renderer
	Messages *messages.Catalog
	Logger   logging.Logger
	Metrics  *monitoring.Metrics
	Health   *monitoring.HealthMonitor
	Security *security.SecurityConfig
	Hub      *livereload.Hub
}

// Server is the catalog HTTP server.
type Server struct {
	config   *config.Config
	books    store.BookRepository
	sessions *session.Resolver
	renderer *renderer.Renderer
	messages *messages.Catalog
	logger   logging.Logger
	errors   *apperrors.ErrorHandler
	metrics  *monitoring.Metrics
	health   *monitoring.HealthMonitor
	security *security.SecurityConfig
	hub      *livereload.Hub

	// domain prefixes redirect targets and template links.
	domain string
	newID  func() string

	handler    http.Handler
	httpServer *http.Server
	serverMu   sync.Mutex
}

// New wires the server and builds its router.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Config == nil:
		return nil, errors.New("server: config is required")
	case deps.Books == nil || deps.Sessions == nil:
		return nil, errors.New("server: book and session repositories are required")
	case deps.Renderer == nil:
		return nil, errors.New("server: renderer is required")
	case deps.Messages == nil:
		return nil, errors.New("server: message catalog is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}
	logger = logger.WithComponent("server")

	metrics := deps.Metrics
	if metrics == nil {
		metrics = monitoring.NewMetrics()
	}

	health := deps.Health
	if health == nil {
		health = monitoring.NewHealthMonitor(version.Get().Short(), logger)
		health.RegisterCheck(monitoring.StorageHealthChecker(deps.Books))
		health.RegisterCheck(monitoring.TemplatesHealthChecker(deps.Renderer.Dir(),
			deps.Config.Templates.Header, deps.Config.Templates.Footer))
		health.RegisterCheck(monitoring.GoroutineHealthChecker())
	}

	sec := deps.Security
	if sec == nil {
		sec = security.SecurityConfigFromAppConfig(deps.Config)
		sec.Logger = logger
	}

	resolver := session.NewResolver(deps.Sessions, deps.Config.Session, logger)
	resolver.OnCreate(metrics.SessionCreated)

	s := &Server{
		config:   deps.Config,
		books:    deps.Books,
		sessions: resolver,
		renderer: deps.Renderer,
		messages: deps.Messages,
		logger:   logger,
		errors:   apperrors.NewErrorHandler(logger),
		metrics:  metrics,
		health:   health,
		security: sec,
		hub:      deps.Hub,
		domain:   strings.TrimSuffix(deps.Config.Server.Domain, "/"),
		newID:    uuid.NewString,
	}
	s.handler = s.routes()

	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Start listens on the configured address and serves until ctx is done or
// the listener fails. Cancelling ctx shuts the server down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.serverMu.Lock()
	s.httpServer = srv
	s.serverMu.Unlock()

	port := s.config.Server.Port
	if addr, ok := ln.Addr().(*net.TCPAddr); ok {
		port = addr.Port
	}
	s.logger.Info(ctx, fmt.Sprintf("Knygynas darbui pasiruošęs ant %d porto", port),
		"addr", ln.Addr().String(),
		"version", version.Get().Short())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return apperrors.WrapInternal(err, "server error")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return nil
	}
}

// Shutdown stops accepting requests and disconnects live reload clients.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down server")

	var errs []error
	if s.hub != nil {
		errs = append(errs, s.hub.Shutdown(ctx))
	}

	s.serverMu.Lock()
	srv := s.httpServer
	s.serverMu.Unlock()
	if srv != nil {
		errs = append(errs, srv.Shutdown(ctx))
	}

	return apperrors.Combine(errs...)
}
