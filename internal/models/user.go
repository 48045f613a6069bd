package models

import "time"

// User represents a user account in the system.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose this to the client
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}
