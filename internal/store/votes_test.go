package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadboard/backend/internal/models"
	"github.com/threadboard/backend/internal/store"
)

func TestVoteInsertAndIdempotence(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	votes := store.NewVoteStore(db)

	author := createUser(t, "author")
	voter := createUser(t, "voter")
	post := createPost(t, author.ID, "first post", time.Now().UTC())

	require.NoError(t, votes.Vote(ctx, voter.ID, post.ID, 1))
	assert.Equal(t, 1, postPoints(t, post.ID))
	assert.Equal(t, sumVotes(t, post.ID), postPoints(t, post.ID))

	// Same direction again is a no-op: points unchanged, still one row.
	require.NoError(t, votes.Vote(ctx, voter.ID, post.ID, 1))
	assert.Equal(t, 1, postPoints(t, post.ID))

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Where("post_id = ?", post.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVoteFlip(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	votes := store.NewVoteStore(db)

	author := createUser(t, "author")
	voter := createUser(t, "voter")
	post := createPost(t, author.ID, "flip me", time.Now().UTC())

	before := postPoints(t, post.ID)

	require.NoError(t, votes.Vote(ctx, voter.ID, post.ID, 1))
	require.NoError(t, votes.Vote(ctx, voter.ID, post.ID, -1))

	// Up then down nets out to -1 relative to the start, a swing of 2 from
	// the upvoted state, and exactly one row remains for the pair.
	assert.Equal(t, before-1, postPoints(t, post.ID))
	assert.Equal(t, sumVotes(t, post.ID), postPoints(t, post.ID))

	vote, err := votes.Get(ctx, voter.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Downvote, vote.Value)

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).
		Where("user_id = ? AND post_id = ?", voter.ID, post.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestVoteNonSentinelValueIsUpvote(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	votes := store.NewVoteStore(db)

	author := createUser(t, "author")
	voter := createUser(t, "voter")
	post := createPost(t, author.ID, "weird values", time.Now().UTC())

	// Anything other than -1 is an upvote; magnitude is ignored.
	require.NoError(t, votes.Vote(ctx, voter.ID, post.ID, 17))
	assert.Equal(t, 1, postPoints(t, post.ID))

	vote, err := votes.Get(ctx, voter.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Upvote, vote.Value)
}

func TestVoteMissingPost(t *testing.T) {
	resetTables(t)
	voter := createUser(t, "voter")

	err := store.NewVoteStore(db).Vote(context.Background(), voter.ID, 12345, 1)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVoteGetUnvoted(t *testing.T) {
	resetTables(t)
	author := createUser(t, "author")
	post := createPost(t, author.ID, "nobody voted", time.Now().UTC())

	_, err := store.NewVoteStore(db).Get(context.Background(), author.ID, post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestVoteGetByKeys(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	votes := store.NewVoteStore(db)

	author := createUser(t, "author")
	a := createUser(t, "alice")
	b := createUser(t, "bob")
	p1 := createPost(t, author.ID, "one", time.Now().UTC())
	p2 := createPost(t, author.ID, "two", time.Now().UTC())

	require.NoError(t, votes.Vote(ctx, a.ID, p1.ID, 1))
	require.NoError(t, votes.Vote(ctx, b.ID, p2.ID, -1))

	rows, err := votes.GetByKeys(ctx, []store.VoteKey{
		{UserID: a.ID, PostID: p1.ID},
		{UserID: b.ID, PostID: p2.ID},
		{UserID: a.ID, PostID: p2.ID}, // never voted
	})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

// Concurrent flips on the same pair must serialize on the row lock so the
// counter never drifts from the sum of the vote rows.
func TestVoteConcurrentFlipsKeepInvariant(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	votes := store.NewVoteStore(db)

	author := createUser(t, "author")
	post := createPost(t, author.ID, "contended", time.Now().UTC())

	voters := make([]*models.User, 4)
	for i := range voters {
		voters[i] = createUser(t, "voter"+string(rune('a'+i)))
		// Seed each voter's row first so the concurrent phase only flips.
		require.NoError(t, votes.Vote(ctx, voters[i].ID, post.ID, 1))
	}

	var wg sync.WaitGroup
	for i, voter := range voters {
		for j := 0; j < 10; j++ {
			wg.Add(1)
			value := 1
			if (i+j)%2 == 0 {
				value = -1
			}
			go func(userID, value int) {
				defer wg.Done()
				if err := votes.Vote(ctx, userID, post.ID, value); err != nil {
					t.Errorf("vote failed: %v", err)
				}
			}(voter.ID, value)
		}
	}
	wg.Wait()

	assert.Equal(t, sumVotes(t, post.ID), postPoints(t, post.ID))
}
