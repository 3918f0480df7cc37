package store_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threadboard/backend/internal/store"
)

func TestListPaginationFullPage(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	posts := store.NewPostStore(db)

	author := createUser(t, "author")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 51; i++ {
		createPost(t, author.ID, fmt.Sprintf("post %02d", i), base.Add(time.Duration(i)*time.Second))
	}

	page, hasMore, err := posts.List(ctx, 50, nil)
	require.NoError(t, err)
	assert.True(t, hasMore)
	assert.Len(t, page, 50)

	// Newest first: the overflow row dropped is the oldest one.
	assert.Equal(t, "post 50", page[0].Title)
	assert.Equal(t, "post 01", page[49].Title)

	// Second page starts strictly before the last returned timestamp.
	cursor := page[49].CreatedAt
	page2, hasMore2, err := posts.List(ctx, 50, &cursor)
	require.NoError(t, err)
	assert.False(t, hasMore2)
	require.Len(t, page2, 1)
	assert.Equal(t, "post 00", page2[0].Title)
}

func TestListPaginationPartialPage(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	posts := store.NewPostStore(db)

	author := createUser(t, "author")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		createPost(t, author.ID, fmt.Sprintf("post %02d", i), base.Add(time.Duration(i)*time.Second))
	}

	page, hasMore, err := posts.List(ctx, 50, nil)
	require.NoError(t, err)
	assert.False(t, hasMore)
	assert.Len(t, page, 10)
}

func TestListClampsLimit(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	posts := store.NewPostStore(db)

	author := createUser(t, "author")
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		createPost(t, author.ID, fmt.Sprintf("post %02d", i), base.Add(time.Duration(i)*time.Second))
	}

	page, hasMore, err := posts.List(ctx, 500, nil)
	require.NoError(t, err)
	assert.True(t, hasMore)
	assert.Len(t, page, store.MaxListLimit)
}

func TestGetMissingPost(t *testing.T) {
	resetTables(t)

	_, err := store.NewPostStore(db).Get(context.Background(), 999)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateRequiresOwnership(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	posts := store.NewPostStore(db)

	owner := createUser(t, "owner")
	intruder := createUser(t, "intruder")
	post := createPost(t, owner.ID, "original title", time.Now().UTC())

	title := "hijacked"
	_, err := posts.Update(ctx, post.ID, intruder.ID, &title, nil)
	assert.ErrorIs(t, err, store.ErrNotFound)

	unchanged, err := posts.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original title", unchanged.Title)

	text := "new body"
	updated, err := posts.Update(ctx, post.ID, owner.ID, &title, &text)
	require.NoError(t, err)
	assert.Equal(t, "hijacked", updated.Title)
	assert.Equal(t, "new body", updated.Text)
}

func TestDeleteRequiresOwnership(t *testing.T) {
	resetTables(t)
	ctx := context.Background()
	posts := store.NewPostStore(db)

	owner := createUser(t, "owner")
	intruder := createUser(t, "intruder")
	post := createPost(t, owner.ID, "keep me", time.Now().UTC())

	deleted, err := posts.Delete(ctx, post.ID, intruder.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	// The post is untouched by the failed delete.
	_, err = posts.Get(ctx, post.ID)
	require.NoError(t, err)

	deleted, err = posts.Delete(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = posts.Get(ctx, post.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
