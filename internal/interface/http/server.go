// Package http implements the HTTP surface of the progression service: the
// activity event intake webhook, the level view query, the warn command, and
// health checks. Presentation formatting stays out of the core; handlers
// translate domain errors to status codes.
package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/nebula-bot/nebula-hub/internal/application/command"
	"github.com/nebula-bot/nebula-hub/internal/application/query"
	"github.com/nebula-bot/nebula-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// AuthToken - shared token required on mutating endpoints (empty
	// disables authentication, for local development only).
	AuthToken string
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// Dependencies contains the application handlers the server routes to.
type Dependencies struct {
	Activity *command.HandleActivityHandler
	Warn     *command.WarnMemberHandler
	GetLevel *query.GetLevelHandler

	// Health check functions by name; all must pass for readiness.
	HealthChecks map[string]func(ctx context.Context) error

	Logger *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server is the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	logger     *logger.Logger
	startedAt  time.Time
}

// NewServer creates an HTTP server with routes registered.
func NewServer(config Config, deps Dependencies) *Server {
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}

	s := &Server{
		config: config,
		deps:   deps,
		logger: log.Named("http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /v1/activity", s.authenticated(s.handleActivity))
	mux.HandleFunc("POST /v1/communities/{community}/warnings", s.authenticated(s.handleWarn))
	mux.HandleFunc("GET /v1/communities/{community}/members/{user}/level", s.handleGetLevel)

	s.httpServer = &http.Server{
		Addr:         config.Address(),
		Handler:      s.recovered(mux),
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return s
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.startedAt = time.Now()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", logger.F("addr", s.config.Address()))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE
// ══════════════════════════════════════════════════════════════════════════════

// authenticated enforces the shared token on mutating endpoints with a
// constant-time comparison.
func (s *Server) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.AuthToken != "" {
			token := r.Header.Get("X-Nebula-Token")
			if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.AuthToken)) != 1 {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}
		}
		next(w, r)
	}
}

// recovered converts handler panics into 500 responses.
func (s *Server) recovered(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("handler panic",
					logger.F("path", r.URL.Path),
					logger.F("panic", fmt.Sprint(rec)),
					logger.F("stack", string(debug.Stack())),
				)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
