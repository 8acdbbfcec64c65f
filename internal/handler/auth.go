// Package handler contains the JSON glue between HTTP and the credential
// core. Nothing here owns design decisions: handlers decode, call the
// stores, and map the core's typed errors onto status codes. Validation and
// duplicate conditions come back as specific client errors; everything else
// is an opaque 500 with details in the log only.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/marosten/authcore/internal/auth"
	"github.com/marosten/authcore/internal/email"
	"github.com/marosten/authcore/internal/logging"
	"github.com/marosten/authcore/internal/middleware"
	"github.com/marosten/authcore/internal/model"
	"github.com/marosten/authcore/internal/store"
	"github.com/marosten/authcore/internal/validate"
)

const searchQueryMaxLen = 100

type AuthHandler struct {
	accounts *store.AccountStore
	sessions *store.SessionStore
	email    *email.Client
	ttlHours int
	logger   *slog.Logger
}

func NewAuthHandler(
	accounts *store.AccountStore,
	sessions *store.SessionStore,
	emailClient *email.Client,
	ttlHours int,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		email:    emailClient,
		ttlHours: ttlHours,
		logger:   logger,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates an account. A duplicate username or email answers 409 so
// the client can say "taken" rather than "server error".
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.Create(req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, store.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "username or email already taken")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.notify(func(ctx context.Context) error {
		return h.email.SendWelcome(ctx, account.Email, account.Username)
	})

	writeJSON(w, http.StatusCreated, account)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	Account   *model.Account `json:"account"`
}

// Login verifies credentials and issues a session token. Unknown usernames
// and wrong passwords produce an identical 401; the hash comparison itself
// is constant-time inside the hasher.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.GetByUsername(req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !h.accounts.CheckPassword(account, req.Password) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// The password just verified, so reuse it to upgrade stale hashes.
	if h.accounts.NeedsRehash(account) {
		if err := h.accounts.UpdatePassword(account, req.Password); err != nil {
			h.logger.Warn("opportunistic rehash failed", "account_id", account.ID)
		}
	}

	sess, err := h.sessions.Create(account.ID, h.ttlHours)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	logging.Activity(h.logger, account.ID, "login", map[string]any{
		"ip":         middleware.RealIP(r),
		"user_agent": sanitizedUserAgent(r),
	})

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Account:   account,
	})
}

// Logout revokes the presented session. Revoking an already-gone session is
// still a 204: the observable end state is the same.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if _, err := h.sessions.Revoke(&model.Session{ID: ac.SessionID, AccountID: ac.AccountID}); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	logging.Activity(h.logger, ac.AccountID, "logout", map[string]any{
		"ip": middleware.RealIP(r),
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me returns the authenticated account.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetByID(auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if account == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, account)
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// UpdatePassword re-authenticates with the current password, stores the new
// hash, and revokes every session for the account so stolen tokens die with
// the old credential.
func (h *AuthHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := h.accounts.GetByID(auth.AccountID(r.Context()))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !h.accounts.CheckPassword(account, req.CurrentPassword) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	err = h.accounts.UpdatePassword(account, req.NewPassword)
	switch {
	case errors.Is(err, store.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.sessions.RevokeByAccountID(account.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.notify(func(ctx context.Context) error {
		return h.email.SendPasswordChanged(ctx, account.Email, account.Username)
	})

	logging.Activity(h.logger, account.ID, "password_change", map[string]any{
		"ip": middleware.RealIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]string{"status": "password updated, please log in again"})
}

type searchResponse struct {
	Query   string           `json:"query"`
	Results []*model.Account `json:"results"`
}

// Search finds accounts by username fragment. The raw query is sanitized
// before use and truncation is logged, not failed.
func (h *AuthHandler) Search(w http.ResponseWriter, r *http.Request) {
	q, truncated := validate.Sanitize(r.URL.Query().Get("q"), searchQueryMaxLen)
	if truncated {
		h.logger.Info("search query truncated", "max_len", searchQueryMaxLen)
	}

	accounts, err := h.accounts.SearchByUsername(q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if accounts == nil {
		accounts = []*model.Account{}
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Results: accounts})
}

// notify runs an email send off the request path with its own deadline.
// Failures are logged and never affect the response.
func (h *AuthHandler) notify(send func(context.Context) error) {
	if h.email == nil || !h.email.Configured() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := send(ctx); err != nil {
			h.logger.Warn("notification send failed", "error", err)
		}
	}()
}

func sanitizedUserAgent(r *http.Request) string {
	ua, _ := validate.Sanitize(r.UserAgent(), 200)
	return ua
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
