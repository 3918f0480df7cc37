package models

import "time"

const (
	Upvote   = 1
	Downvote = -1
)

// Vote tracks a single user's vote on a post. The composite primary key
// guarantees at most one row per (user, post) pair; absence of a row means
// the user has not voted.
type Vote struct {
	UserID int `gorm:"primaryKey" json:"user_id"`
	PostID int `gorm:"primaryKey" json:"post_id"`
	Value  int `gorm:"not null" json:"value"` // 1 or -1

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
