package store_test

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/threadboard/backend/internal/models"
	"github.com/threadboard/backend/internal/store"
)

var db *gorm.DB

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		fmt.Println("skipping store tests in short mode (requires docker)")
		os.Exit(0)
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("forum_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		log.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("failed to get connection string: %v", err)
	}

	db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Vote{}); err != nil {
		log.Fatalf("failed to migrate test database: %v", err)
	}

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func resetTables(t *testing.T) {
	t.Helper()
	err := db.Exec("TRUNCATE TABLE votes, posts, users RESTART IDENTITY CASCADE").Error
	require.NoError(t, err)
}

func createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
	}
	require.NoError(t, store.NewUserStore(db).Create(context.Background(), user))
	return user
}

func createPost(t *testing.T, authorID int, title string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:     title,
		Text:      "body of " + title,
		AuthorID:  authorID,
		CreatedAt: createdAt,
	}
	require.NoError(t, store.NewPostStore(db).Create(context.Background(), post))
	return post
}

// sumVotes recomputes the aggregate the points counter is supposed to
// mirror, straight from the votes table.
func sumVotes(t *testing.T, postID int) int {
	t.Helper()
	var sum int
	err := db.Model(&models.Vote{}).
		Where("post_id = ?", postID).
		Select("COALESCE(SUM(value), 0)").
		Scan(&sum).Error
	require.NoError(t, err)
	return sum
}

func postPoints(t *testing.T, postID int) int {
	t.Helper()
	post, err := store.NewPostStore(db).Get(context.Background(), postID)
	require.NoError(t, err)
	return post.Points
}
