package models

import "time"

type Post struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	Title    string `gorm:"not null" json:"title"`
	Text     string `gorm:"type:text" json:"text"`
	AuthorID int    `gorm:"not null;index" json:"author_id"`

	// Denormalized sum of all vote values on this post. Adjusted inside the
	// vote transaction, never recomputed from the votes table at read time.
	Points int `gorm:"not null;default:0" json:"points"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const shortTextLen = 50

// ShortText returns the first 50 characters of the body, with an ellipsis
// when the body was truncated.
func (p Post) ShortText() string {
	runes := []rune(p.Text)
	if len(runes) <= shortTextLen {
		return p.Text
	}
	return string(runes[:shortTextLen]) + "..."
}

type CreatePostRequest struct {
	Title string `json:"title" binding:"required"`
	Text  string `json:"text"`
}

type UpdatePostRequest struct {
	Title *string `json:"title"`
	Text  *string `json:"text"`
}

type VoteRequest struct {
	Value int `json:"value"`
}
