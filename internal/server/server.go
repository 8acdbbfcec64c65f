package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/marosten/authcore/internal/config"
	"github.com/marosten/authcore/internal/email"
	"github.com/marosten/authcore/internal/handler"
	"github.com/marosten/authcore/internal/hashing"
	"github.com/marosten/authcore/internal/middleware"
	"github.com/marosten/authcore/internal/store"
)

type Server struct {
	db           *sql.DB
	authH        *handler.AuthHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	hasher, err := hashing.New(cfg.HasherParams())
	if err != nil {
		return nil, err
	}

	accountStore := store.NewAccountStore(db, hasher, logger.With("component", "account_store"))
	sessionStore := store.NewSessionStore(db, logger.With("component", "session_store"))

	var emailClient *email.Client
	if cfg.EmailServerToken != "" {
		emailClient = email.NewClient(cfg.EmailServerToken, cfg.EmailFrom)
	}

	return &Server{
		db:           db,
		authH:        handler.NewAuthHandler(accountStore, sessionStore, emailClient, cfg.DefaultTTLHours, logger.With("component", "auth")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}, nil
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes. Login and register burn an argon2 derivation per call,
	// so they sit behind the per-IP limiter.
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	protectedMux.HandleFunc("POST /api/logout", s.authH.Logout)
	protectedMux.HandleFunc("GET /api/me", s.authH.Me)
	protectedMux.HandleFunc("PUT /api/password", s.authH.UpdatePassword)
	protectedMux.HandleFunc("GET /api/search", s.authH.Search)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/api/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}
