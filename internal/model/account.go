package model

import "time"

// Account is a registered user. PasswordHash is the PHC-encoded argon2id
// string produced by the hashing package; it is never the plaintext password
// and is never serialized or logged.
type Account struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
