package handlers

import (
	"gorm.io/gorm"

	"github.com/threadboard/backend/internal/cache"
	"github.com/threadboard/backend/internal/mail"
	"github.com/threadboard/backend/internal/store"
)

// Handler combines all handler types.
type Handler struct {
	Auth *AuthHandler
	Post *PostHandler

	// Exposed so the server can wire the per-request loader middleware to
	// the same stores the handlers use.
	Users *store.UserStore
	Votes *store.VoteStore
}

// NewHandler creates a unified handler with all sub-handlers.
func NewHandler(db *gorm.DB, kv *cache.Cache, mailer *mail.Service) *Handler {
	users := store.NewUserStore(db)
	posts := store.NewPostStore(db)
	votes := store.NewVoteStore(db)

	return &Handler{
		Auth:  NewAuthHandler(users, kv, mailer),
		Post:  NewPostHandler(posts, votes),
		Users: users,
		Votes: votes,
	}
}
