package domain

import "time"

// User owns documents and sessions. LoginKey is a server-generated uuid the
// client stores locally and presents to log in again.
type User struct {
	UID       int64
	Name      string
	LoginKey  string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
