package domain

import (
	"time"

	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

type ID string

// Post is immutable once stored. Username is the author's, joined on read.
type Post struct {
	ID        ID
	UserID    userdomain.ID
	Username  string
	Content   string
	CreatedAt time.Time
}

// Less orders posts newest first; equal timestamps fall back to the id so the
// order is total.
func Less(a, b Post) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}
