package domain

import (
	"strings"
	"time"
)

type ID string

type User struct {
	ID           ID
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	JoinedAt     time.Time
}

// Summary is the public projection of a user; it never carries credentials.
type Summary struct {
	ID       ID
	Username string
	IsAdmin  bool
	JoinedAt time.Time
}

func (u User) Summary() Summary {
	return Summary{
		ID:       u.ID,
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
		JoinedAt: u.JoinedAt,
	}
}

// NormalizeUsername gives the canonical form used for storage and lookup.
// Usernames compare case-insensitively.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
