package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/marosten/authcore/internal/model"
	"github.com/marosten/authcore/internal/token"
)

// DefaultTTLHours is the session lifetime used when no deployment policy
// overrides it.
const DefaultTTLHours = 24

// SessionStore owns persistence of sessions. Tokens are minted here and
// returned in clear exactly once, from Create; lookups treat expired rows as
// absent so a probing caller cannot tell "expired" from "never existed".
type SessionStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSessionStore(db *sql.DB, logger *slog.Logger) *SessionStore {
	return &SessionStore{db: db, logger: logger}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	err := scanner.Scan(&s.ID, &s.AccountID, &s.Token, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const sessionCols = `id, account_id, token, created_at, expires_at`

// Create mints a crypto-random token and persists a session expiring
// ttlHours from now. Non-positive account IDs fail with ErrInvalidAccount;
// negative TTLs with ErrValidation. A zero TTL is allowed and produces a
// session that is already expired.
func (s *SessionStore) Create(accountID int64, ttlHours int) (*model.Session, error) {
	if accountID <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAccount, accountID)
	}
	if ttlHours < 0 {
		return nil, fmt.Errorf("%w: negative session ttl", ErrValidation)
	}

	tok, err := token.Generate(token.DefaultBytes)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	expiresAt := now.Add(time.Duration(ttlHours) * time.Hour)

	result, err := s.db.Exec(
		`INSERT INTO sessions (account_id, token, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		accountID, tok, now, expiresAt,
	)
	if err != nil {
		s.logger.Error("insert session", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	s.logger.Info("session created", "account_id", accountID, "session_id", id, "ttl_hours", ttlHours)
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// GetByToken returns the live session for tok, or nil, nil when tok is
// empty, unknown, or expired. The expiry check runs on the scanned timestamp
// so the cutoff is exact regardless of how the driver collates text.
func (s *SessionStore) GetByToken(tok string) (*model.Session, error) {
	if tok == "" {
		return nil, nil
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM sessions WHERE token = ?`, tok)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("get session by token", "error", err)
		return nil, fmt.Errorf("get session by token: %w", err)
	}
	if !s.IsValid(sess) {
		return nil, nil
	}
	return sess, nil
}

// IsValid reports whether the session's expiry is still in the future.
func (s *SessionStore) IsValid(sess *model.Session) bool {
	return sess != nil && time.Now().UTC().Before(sess.ExpiresAt)
}

// Revoke deletes the session row and clears the session's ID so a repeat
// call reports false without touching storage. The returned bool is whether
// a revocation was applied.
func (s *SessionStore) Revoke(sess *model.Session) (bool, error) {
	if sess == nil || sess.ID <= 0 {
		return false, nil
	}
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, sess.ID); err != nil {
		s.logger.Error("revoke session", "session_id", sess.ID, "error", err)
		return false, fmt.Errorf("revoke session: %w", err)
	}
	s.logger.Info("session revoked", "session_id", sess.ID, "account_id", sess.AccountID)
	sess.ID = 0
	return true, nil
}

// RevokeByAccountID deletes every session belonging to an account, e.g.
// after a password change.
func (s *SessionStore) RevokeByAccountID(accountID int64) error {
	if _, err := s.db.Exec(`DELETE FROM sessions WHERE account_id = ?`, accountID); err != nil {
		s.logger.Error("revoke sessions by account", "account_id", accountID, "error", err)
		return fmt.Errorf("revoke sessions by account: %w", err)
	}
	return nil
}

// DeleteExpired reaps expired rows. The core never requires this; it exists
// for deployments that run a cleanup loop.
func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
