package models

import "time"

// User owns todos and sessions. Password holds the argon2id hash, never
// the plain text. An inactive user keeps their data but is rejected by
// the auth middleware.
type User struct {
	ID        string
	Username  string
	Email     string
	FullName  string
	Password  string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
