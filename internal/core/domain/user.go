package domain

import "time"

// User mirrors the persisted representation in the auth.users table.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Sanitized returns a copy of the user safe for transport payloads.
func (u User) Sanitized() User {
	copied := u
	copied.PasswordHash = ""
	return copied
}
