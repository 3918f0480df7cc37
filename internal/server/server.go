package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/threadboard/backend/internal/cache"
	"github.com/threadboard/backend/internal/database"
	"github.com/threadboard/backend/internal/handlers"
	"github.com/threadboard/backend/internal/loader"
	"github.com/threadboard/backend/internal/logging"
	"github.com/threadboard/backend/internal/mail"
	"github.com/threadboard/backend/internal/middleware"
)

type Server struct {
	db      database.Service
	kv      *cache.Cache
	handler *handlers.Handler
}

// NewServer creates and configures a new server.
func NewServer() *http.Server {
	log := logging.WithComponent("server")

	db := database.New()
	kv := cache.New()
	mailer := mail.NewService()

	handler := handlers.NewHandler(db.GetDB(), kv, mailer)

	newServer := &Server{
		db:      db,
		kv:      kv,
		handler: handler,
	}

	router := newServer.RegisterRoutes()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // local dev fallback
	}

	server := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      router,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Info().Str("port", port).Msg("server starting")

	return server
}

// RegisterRoutes sets up all application routes.
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.Default()

	// CORS configuration
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"database": s.db.Health(),
			"cache":    s.kv.Health(c.Request.Context()),
		})
	})

	// API routes. Every request gets its identity resolved (or stays
	// anonymous) and a fresh pair of batched loaders.
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(s.kv))
	api.Use(loader.Middleware(s.handler.Users, s.handler.Votes))
	{
		// Account routes (public)
		api.POST("/register", s.handler.Auth.Register)
		api.POST("/login", s.handler.Auth.Login)
		api.POST("/forgot-password", s.handler.Auth.ForgotPassword)
		api.POST("/change-password", s.handler.Auth.ChangePassword)

		// me() is null for anonymous callers rather than a 401
		api.GET("/me", s.handler.Auth.GetMe)

		// Post routes (public reads)
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)
		api.GET("/posts/:id/vote", s.handler.Post.GetVoteStatus)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.RequireAuth())
		{
			protected.POST("/logout", s.handler.Auth.Logout)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.PUT("/posts/:id", s.handler.Post.UpdatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/vote", s.handler.Post.VotePost)
		}
	}

	return r
}
