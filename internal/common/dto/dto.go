package dto

import "time"

type UserSummary struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
}

type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Relation struct {
	Following  bool `json:"following"`
	FollowedBy bool `json:"followed_by"`
}
