package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/threadboard/backend/internal/models"
)

// MaxListLimit caps a single page regardless of what the caller asks for.
const MaxListLimit = 50

type PostStore struct {
	db *gorm.DB
}

func NewPostStore(db *gorm.DB) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) Create(ctx context.Context, post *models.Post) error {
	return translate(s.db.WithContext(ctx).Create(post).Error)
}

func (s *PostStore) Get(ctx context.Context, id int) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// List returns up to limit posts ordered newest first, plus a hasMore flag.
// When a cursor is present only posts created strictly before it are
// considered. One extra row is fetched to detect a next page without a
// separate count query.
func (s *PostStore) List(ctx context.Context, limit int, cursor *time.Time) ([]models.Post, bool, error) {
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if limit < 1 {
		limit = 1
	}

	q := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit + 1)
	if cursor != nil {
		q = q.Where("created_at < ?", *cursor)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, false, err
	}

	hasMore := len(posts) == limit+1
	if hasMore {
		posts = posts[:limit]
	}
	return posts, hasMore, nil
}

// Update applies the provided fields to the post, but only when the acting
// user is its author. Ownership lives in the UPDATE predicate itself so
// there is no window between an ownership check and the write.
func (s *PostStore) Update(ctx context.Context, id, authorID int, title, text *string) (*models.Post, error) {
	updates := map[string]interface{}{}
	if title != nil {
		updates["title"] = *title
	}
	if text != nil {
		updates["text"] = *text
	}
	if len(updates) == 0 {
		var post models.Post
		err := s.db.WithContext(ctx).
			Where("id = ? AND author_id = ?", id, authorID).
			First(&post).Error
		if err != nil {
			return nil, translate(err)
		}
		return &post, nil
	}

	res := s.db.WithContext(ctx).Model(&models.Post{}).
		Where("id = ? AND author_id = ?", id, authorID).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

// Delete removes the post when the acting user is its author. Returns false
// when no row matched, which covers both a missing post and an ownership
// mismatch.
func (s *PostStore) Delete(ctx context.Context, id, authorID int) (bool, error) {
	res := s.db.WithContext(ctx).
		Where("id = ? AND author_id = ?", id, authorID).
		Delete(&models.Post{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
