// Package model defines the entities persisted by the store backends.
package model

import "time"

// Account is a registered school. The password is kept only as a hash.
// LegacySalt is set for accounts imported with a salted SHA-256 hash and
// cleared once the password is reset.
type Account struct {
	SchoolID     string    `json:"school_id"`
	PasswordHash string    `json:"-"`
	LegacySalt   string    `json:"-"`
	Email        string    `json:"email"`
	SchoolName   string    `json:"school_name"`
	LogoFile     string    `json:"logo_file,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Feedback is one free-text comment left by a user.
type Feedback struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
