package loader

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/threadboard/backend/internal/models"
	"github.com/threadboard/backend/internal/store"
)

const contextKey = "loaders"

// UserSource is the batched read the user loader amortizes over.
type UserSource interface {
	GetByIDs(ctx context.Context, ids []int) ([]models.User, error)
}

// VoteSource is the batched read the vote loader amortizes over.
type VoteSource interface {
	GetByKeys(ctx context.Context, keys []store.VoteKey) ([]models.Vote, error)
}

// Loaders batches lookups within a single request so that N field
// resolutions issued in one burst hit the store once. A fresh pair is built
// per request and dropped with it; nothing here survives the request or is
// shared across requests.
type Loaders struct {
	Users *dataloader.Loader[int, *models.User]
	Votes *dataloader.Loader[store.VoteKey, *models.Vote]
}

func New(users UserSource, votes VoteSource) *Loaders {
	return &Loaders{
		Users: dataloader.NewBatchedLoader(userBatch(users)),
		Votes: dataloader.NewBatchedLoader(voteBatch(votes)),
	}
}

// userBatch coalesces the ids collected in one scheduling window into a
// single IN query. An id with no row yields a nil user, not an error.
func userBatch(src UserSource) dataloader.BatchFunc[int, *models.User] {
	return func(ctx context.Context, ids []int) []*dataloader.Result[*models.User] {
		results := make([]*dataloader.Result[*models.User], len(ids))

		rows, err := src.GetByIDs(ctx, ids)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*models.User]{Error: err}
			}
			return results
		}

		byID := make(map[int]*models.User, len(rows))
		for i := range rows {
			byID[rows[i].ID] = &rows[i]
		}
		for i, id := range ids {
			results[i] = &dataloader.Result[*models.User]{Data: byID[id]}
		}
		return results
	}
}

// voteBatch does the same over composite (userID, postID) keys. The loader
// already deduplicates keys by value, so every key here is distinct; the
// result slice corresponds index-for-index with the input.
func voteBatch(src VoteSource) dataloader.BatchFunc[store.VoteKey, *models.Vote] {
	return func(ctx context.Context, keys []store.VoteKey) []*dataloader.Result[*models.Vote] {
		results := make([]*dataloader.Result[*models.Vote], len(keys))

		rows, err := src.GetByKeys(ctx, keys)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[*models.Vote]{Error: err}
			}
			return results
		}

		byKey := make(map[store.VoteKey]*models.Vote, len(rows))
		for i := range rows {
			byKey[store.VoteKey{UserID: rows[i].UserID, PostID: rows[i].PostID}] = &rows[i]
		}
		for i, k := range keys {
			results[i] = &dataloader.Result[*models.Vote]{Data: byKey[k]}
		}
		return results
	}
}

// Middleware attaches a fresh Loaders pair to every request.
func Middleware(users UserSource, votes VoteSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(contextKey, New(users, votes))
		c.Next()
	}
}

// For returns the request's loaders. Panics when the middleware is not
// installed, which is a wiring bug rather than a runtime condition.
func For(c *gin.Context) *Loaders {
	return c.MustGet(contextKey).(*Loaders)
}
