package model

import "time"

// User is an account that can own at most one gateway instance.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// APIKey authenticates requests on behalf of its owning user. Only the
// SHA-256 hash of the raw key is stored.
type APIKey struct {
	ID        string     `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Name      string     `json:"name" db:"name"`
	KeyPrefix string     `json:"key_prefix" db:"key_prefix"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
}
