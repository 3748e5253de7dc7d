package types

import "time"

// Session is a browser login session backed by a database row.
// The token value is carried in an HttpOnly cookie.
type Session struct {
	Token     string    `json:"-" db:"token"`
	UserID    int       `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the session has passed its expiry time.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
