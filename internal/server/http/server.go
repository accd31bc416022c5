// Package http is the HTTP edge of the session server. It translates
// requests into service calls and sentinel errors into status codes; no
// session logic lives here.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kw-00/gossip/internal/logging"
	"github.com/kw-00/gossip/internal/server/config"
	"github.com/kw-00/gossip/internal/server/models"
	"github.com/kw-00/gossip/internal/server/services"
)

// SessionManager is the slice of SessionService the edge needs.
type SessionManager interface {
	Login(ctx context.Context, login, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshID string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshID string) error
}

// UserRegistrar is the slice of UserService the edge needs.
type UserRegistrar interface {
	Register(ctx context.Context, login, password string) (*models.User, error)
}

type HTTPServer struct {
	address    string
	sessions   SessionManager
	users      UserRegistrar
	logger     logging.Logger
	jwtSecret  []byte
	refreshTTL time.Duration
}

func NewHTTPServer(cfg *config.Config, l logging.Logger, sm SessionManager, ur UserRegistrar) *HTTPServer {
	return &HTTPServer{
		address:    cfg.EndpointAddrHTTP,
		sessions:   sm,
		users:      ur,
		logger:     l.With("module", "http_server"),
		jwtSecret:  []byte(cfg.SecretKey),
		refreshTTL: cfg.RefreshTokenValidityDuration,
	}
}

// Router assembles the route table. Split out from Run so tests can drive it
// with httptest.
func (s *HTTPServer) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/api/register", s.handleRegister)
	r.Post("/api/login", s.handleLogin)
	r.Post("/api/refresh", s.handleRefresh)
	r.Post("/api/logout", s.handleLogout)

	r.Group(func(r chi.Router) {
		r.Use(s.accessTokenMiddleware)
		r.Get("/api/me", s.handleMe)
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "error shutting down HTTP server", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
