package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/threadboard/backend/internal/models"
)

// VoteKey is the composite identity of a vote.
type VoteKey struct {
	UserID int
	PostID int
}

type VoteStore struct {
	db *gorm.DB
}

func NewVoteStore(db *gorm.DB) *VoteStore {
	return &VoteStore{db: db}
}

// Get returns the user's vote on a post, or ErrNotFound when the user has
// not voted.
func (s *VoteStore) Get(ctx context.Context, userID, postID int) (*models.Vote, error) {
	var vote models.Vote
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&vote).Error
	if err != nil {
		return nil, translate(err)
	}
	return &vote, nil
}

// GetByKeys fetches all votes matching the given composite keys in one
// query, for the batched loader. Missing pairs are absent from the result.
func (s *VoteStore) GetByKeys(ctx context.Context, keys []VoteKey) ([]models.Vote, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	pairs := make([][]interface{}, len(keys))
	for i, k := range keys {
		pairs[i] = []interface{}{k.UserID, k.PostID}
	}
	var votes []models.Vote
	err := s.db.WithContext(ctx).
		Where("(user_id, post_id) IN ?", pairs).
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

// Vote applies a user's vote to a post. The value is a two-way signal:
// -1 means downvote, anything else upvote.
//
// State transitions for the (user, post) pair:
//
//	no row, up        -> insert +1, points +1
//	no row, down      -> insert -1, points -1
//	same direction    -> no-op
//	opposite direction-> update row, points +/-2 (old contribution removed,
//	                     new one added in a single swing)
//
// The whole read-decide-write runs in one transaction. The existing vote row
// is read under FOR UPDATE so concurrent votes on the same pair serialize,
// and the points adjustment is a SQL-side increment so it can never be
// computed from a stale counter. Concurrent first votes race on the insert
// instead; the composite primary key lets exactly one of them through and
// the loser surfaces ErrDuplicate.
func (s *VoteStore) Vote(ctx context.Context, userID, postID, value int) error {
	point := models.Upvote
	if value == models.Downvote {
		point = models.Downvote
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Select("id").First(&post, postID).Error; err != nil {
			return translate(err)
		}

		var delta int
		var existing models.Vote
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND post_id = ?", userID, postID).
			First(&existing).Error
		switch {
		case err == nil:
			if existing.Value == point {
				return nil
			}
			err := tx.Model(&models.Vote{}).
				Where("user_id = ? AND post_id = ?", userID, postID).
				Update("value", point).Error
			if err != nil {
				return err
			}
			delta = 2 * point
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{UserID: userID, PostID: postID, Value: point}
			if err := tx.Create(&vote).Error; err != nil {
				return translate(err)
			}
			delta = point
		default:
			return err
		}

		return tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("points", gorm.Expr("points + ?", delta)).Error
	})
}
