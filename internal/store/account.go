package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/marosten/authcore/internal/hashing"
	"github.com/marosten/authcore/internal/model"
	"github.com/marosten/authcore/internal/validate"
)

// AccountStore owns persistence of accounts. Passwords enter as plaintext
// exactly once, in Create and UpdatePassword, and are hashed before any SQL
// runs. Every query binds parameters; nothing is interpolated into query
// text.
type AccountStore struct {
	db     *sql.DB
	hasher *hashing.Hasher
	logger *slog.Logger
}

func NewAccountStore(db *sql.DB, hasher *hashing.Hasher, logger *slog.Logger) *AccountStore {
	return &AccountStore{db: db, hasher: hasher, logger: logger}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	err := scanner.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const accountCols = `id, username, email, password_hash, created_at`

// Create validates the field bounds, hashes the password, and inserts the
// account. A username or email collision comes back as ErrDuplicate so
// callers can answer "taken" instead of "server error"; bad input comes back
// as ErrValidation. The password and its hash never reach the logger.
func (s *AccountStore) Create(username, email, password string) (*model.Account, error) {
	switch {
	case !validate.Username(username):
		return nil, fmt.Errorf("%w: username must be 1-%d characters", ErrValidation, validate.MaxUsernameLen)
	case !validate.EmailField(email):
		return nil, fmt.Errorf("%w: email must be 1-%d characters", ErrValidation, validate.MaxEmailLen)
	case !validate.Email(email):
		return nil, fmt.Errorf("%w: malformed email address", ErrValidation)
	case !validate.Password(password):
		return nil, fmt.Errorf("%w: password must be %d-%d characters", ErrValidation, validate.MinPasswordLen, validate.MaxPasswordLen)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	result, err := s.db.Exec(
		`INSERT INTO accounts (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		username, email, hash, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			s.logger.Warn("duplicate account", "username", username)
			return nil, fmt.Errorf("%w: username or email taken", ErrDuplicate)
		}
		s.logger.Error("insert account", "username", username, "error", err)
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	s.logger.Info("account created", "account_id", id, "username", username)
	return s.GetByID(id)
}

// GetByUsername returns the account or nil, nil when absent. Malformed
// usernames short-circuit without touching storage.
func (s *AccountStore) GetByUsername(username string) (*model.Account, error) {
	if !validate.Username(username) {
		return nil, nil
	}
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE username = ?`, username)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("get account by username", "error", err)
		return nil, fmt.Errorf("get account by username: %w", err)
	}
	return a, nil
}

// GetByID returns the account or nil, nil when absent. Non-positive IDs
// short-circuit without touching storage.
func (s *AccountStore) GetByID(id int64) (*model.Account, error) {
	if id <= 0 {
		return nil, nil
	}
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		s.logger.Error("get account", "account_id", id, "error", err)
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// SearchByUsername returns accounts whose username contains q, bounded to 50
// rows. The query term is bound as a parameter; sanitizing it is the caller's
// defense-in-depth, not the injection defense.
func (s *AccountStore) SearchByUsername(q string) ([]*model.Account, error) {
	if q == "" || len(q) > validate.MaxUsernameLen {
		return nil, nil
	}
	rows, err := s.db.Query(
		`SELECT `+accountCols+` FROM accounts WHERE username LIKE ? ORDER BY username LIMIT 50`,
		"%"+q+"%",
	)
	if err != nil {
		s.logger.Error("search accounts", "error", err)
		return nil, fmt.Errorf("search accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search accounts: %w", err)
	}
	return accounts, nil
}

// NeedsRehash reports whether the account's stored hash was produced under
// parameters weaker than or different from the current configuration.
func (s *AccountStore) NeedsRehash(a *model.Account) bool {
	return a != nil && a.PasswordHash != "" && s.hasher.NeedsRehash(a.PasswordHash)
}

// UpdatePassword re-validates, re-hashes, and persists a new password for a
// persisted account. Accounts without an assigned ID and passwords outside
// the bounds yield ErrValidation.
func (s *AccountStore) UpdatePassword(a *model.Account, newPassword string) error {
	if a == nil || a.ID <= 0 {
		return fmt.Errorf("%w: account has no assigned id", ErrValidation)
	}
	if !validate.Password(newPassword) {
		return fmt.Errorf("%w: password must be %d-%d characters", ErrValidation, validate.MinPasswordLen, validate.MaxPasswordLen)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	if _, err := s.db.Exec(`UPDATE accounts SET password_hash = ? WHERE id = ?`, hash, a.ID); err != nil {
		s.logger.Error("update password", "account_id", a.ID, "error", err)
		return fmt.Errorf("update password: %w", err)
	}
	a.PasswordHash = hash

	s.logger.Info("password updated", "account_id", a.ID)
	return nil
}

// CheckPassword reports whether candidate matches the account's stored hash.
// It is false, never an error, for nil accounts and empty inputs. When the
// stored hash verifies but carries stale cost parameters, that is flagged
// out-of-band as a log event so callers may rehash opportunistically.
func (s *AccountStore) CheckPassword(a *model.Account, candidate string) bool {
	if a == nil || a.PasswordHash == "" || candidate == "" {
		return false
	}
	ok := s.hasher.Verify(a.PasswordHash, candidate)
	if ok && s.hasher.NeedsRehash(a.PasswordHash) {
		s.logger.Info("password hash parameters stale, rehash recommended", "account_id", a.ID)
	}
	return ok
}
