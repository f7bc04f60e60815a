package domain

import (
	"time"

	userdomain "github.com/AlibekovAA/social-stream/backend/internal/user/domain"
)

// Relationship is a directed follow edge: From follows To.
type Relationship struct {
	From      userdomain.ID
	To        userdomain.ID
	CreatedAt time.Time
}

// Relation describes both directions between an actor and another user.
type Relation struct {
	Following  bool
	FollowedBy bool
}
