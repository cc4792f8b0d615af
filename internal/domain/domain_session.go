package domain

import "time"

// Session is an authenticated connection handle. Token is opaque; there is
// nothing to decode, validity means presence in the store.
type Session struct {
	ID        int64
	UID       int64
	Token     string
	ClientIP  string
	ExpiredAt time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the session has passed its expiry.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiredAt.IsZero() && s.ExpiredAt.Before(now)
}
