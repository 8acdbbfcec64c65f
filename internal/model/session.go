package model

import "time"

// Session ties an opaque bearer token to an account until ExpiresAt.
// The token is only ever returned in clear by SessionStore.Create.
type Session struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Token     string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
