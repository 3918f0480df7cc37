package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"

	"github.com/threadboard/backend/internal/loader"
	"github.com/threadboard/backend/internal/middleware"
	"github.com/threadboard/backend/internal/models"
	"github.com/threadboard/backend/internal/store"
)

const defaultListLimit = 20

type PostHandler struct {
	posts *store.PostStore
	votes *store.VoteStore
}

func NewPostHandler(posts *store.PostStore, votes *store.VoteStore) *PostHandler {
	return &PostHandler{posts: posts, votes: votes}
}

// parseCursor decodes the opaque pagination cursor: the decimal string of a
// millisecond unix timestamp. An empty cursor means "from the most recent".
func parseCursor(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, err
	}
	t := time.UnixMilli(ms).UTC()
	return &t, nil
}

// renderPosts shapes posts for the response, resolving authors and the
// viewer's vote status through the request's batched loaders. All loads are
// issued before any thunk is resolved, so a whole page costs one user query
// and one vote query no matter how many posts it holds.
func (h *PostHandler) renderPosts(c *gin.Context, posts []models.Post) []gin.H {
	l := loader.For(c)
	ctx := c.Request.Context()
	viewerID, authed := middleware.UserID(c)

	userThunks := make([]dataloader.Thunk[*models.User], len(posts))
	voteThunks := make([]dataloader.Thunk[*models.Vote], len(posts))
	for i, p := range posts {
		userThunks[i] = l.Users.Load(ctx, p.AuthorID)
		if authed {
			voteThunks[i] = l.Votes.Load(ctx, store.VoteKey{UserID: viewerID, PostID: p.ID})
		}
	}

	out := make([]gin.H, len(posts))
	for i, p := range posts {
		var author gin.H
		if u, err := userThunks[i](); err == nil && u != nil {
			author = gin.H{"id": u.ID, "username": u.Username}
		}

		// Null when anonymous or unvoted, never an error.
		var voteStatus interface{}
		if authed {
			if v, err := voteThunks[i](); err == nil && v != nil {
				voteStatus = v.Value
			}
		}

		out[i] = gin.H{
			"id":          p.ID,
			"title":       p.Title,
			"text":        p.Text,
			"short_text":  p.ShortText(),
			"points":      p.Points,
			"author_id":   p.AuthorID,
			"author":      author,
			"vote_status": voteStatus,
			"created_at":  p.CreatedAt,
			"updated_at":  p.UpdatedAt,
		}
	}
	return out
}

// GetPosts returns a cursor-paginated page of posts, newest first.
func (h *PostHandler) GetPosts(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	cursor, err := parseCursor(c.Query("cursor"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	posts, hasMore, err := h.posts.List(c.Request.Context(), limit, cursor)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}

	responses := h.renderPosts(c, posts)
	if responses == nil {
		responses = []gin.H{}
	}

	resp := gin.H{"posts": responses, "has_more": hasMore}
	if hasMore {
		resp["next_cursor"] = strconv.FormatInt(posts[len(posts)-1].CreatedAt.UnixMilli(), 10)
	}
	c.JSON(http.StatusOK, resp)
}

// GetPost returns a single post by ID.
func (h *PostHandler) GetPost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	post, err := h.posts.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}

	c.JSON(http.StatusOK, h.renderPosts(c, []models.Post{*post})[0])
}

// GetVoteStatus returns the viewer's vote on a post: 1, -1, or null when
// the viewer is anonymous or has not voted.
func (h *PostHandler) GetVoteStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	viewerID, authed := middleware.UserID(c)
	if !authed {
		c.JSON(http.StatusOK, gin.H{"vote_status": nil})
		return
	}

	vote, err := loader.For(c).Votes.Load(c.Request.Context(), store.VoteKey{UserID: viewerID, PostID: id})()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch vote"})
		return
	}

	var status interface{}
	if vote != nil {
		status = vote.Value
	}
	c.JSON(http.StatusOK, gin.H{"vote_status": status})
}

// CreatePost creates a new post (PROTECTED - requires authentication).
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
		return
	}

	userID, _ := middleware.UserID(c)

	post := models.Post{
		Title:    input.Title,
		Text:     input.Text,
		AuthorID: userID,
	}
	if err := h.posts.Create(c.Request.Context(), &post); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create post"})
		return
	}

	c.JSON(http.StatusCreated, h.renderPosts(c, []models.Post{post})[0])
}

// UpdatePost updates a post's title and/or text (PROTECTED - requires
// ownership; the store enforces it inside the UPDATE predicate).
func (h *PostHandler) UpdatePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	var input models.UpdatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.UserID(c)

	post, err := h.posts.Update(c.Request.Context(), id, userID, input.Title, input.Text)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found or not yours"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update post"})
		return
	}

	c.JSON(http.StatusOK, h.renderPosts(c, []models.Post{*post})[0])
}

// DeletePost deletes a post (PROTECTED - requires ownership).
func (h *PostHandler) DeletePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	userID, _ := middleware.UserID(c)

	deleted, err := h.posts.Delete(c.Request.Context(), id, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete post"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"deleted": false, "error": "Post not found or not yours"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// VotePost applies the viewer's vote to a post (PROTECTED). value == -1
// means downvote; any other value is an upvote.
func (h *PostHandler) VotePost(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post id"})
		return
	}

	var input models.VoteRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.UserID(c)

	if err := h.votes.Vote(c.Request.Context(), userID, id, input.Value); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, store.ErrDuplicate):
			// Lost a first-vote race to a concurrent request; nothing was
			// double-counted, the other writer simply got there first.
			c.JSON(http.StatusConflict, gin.H{"error": "Vote already in progress"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"voted": true})
}
