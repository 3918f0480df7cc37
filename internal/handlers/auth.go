package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/threadboard/backend/internal/cache"
	"github.com/threadboard/backend/internal/mail"
	"github.com/threadboard/backend/internal/middleware"
	"github.com/threadboard/backend/internal/models"
	"github.com/threadboard/backend/internal/store"
	"github.com/threadboard/backend/internal/validation"
)

var jwtSecret = []byte(os.Getenv("JWT_SECRET"))

const tokenTTL = 72 * time.Hour

type AuthHandler struct {
	users  *store.UserStore
	kv     *cache.Cache
	mailer *mail.Service
}

func NewAuthHandler(users *store.UserStore, kv *cache.Cache, mailer *mail.Service) *AuthHandler {
	return &AuthHandler{users: users, kv: kv, mailer: mailer}
}

// signToken issues a bearer token for the user. The jti claim is what makes
// logout possible: revocation blacklists it until exp.
func signToken(user *models.User) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"jti":      uuid.NewString(),
		"exp":      time.Now().Add(tokenTTL).Unix(),
	})
	return token.SignedString(jwtSecret)
}

// Register handles user registration.
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := validation.Register(input.Username, input.Email, input.Password); errs != nil {
		c.JSON(http.StatusBadRequest, models.UserResponse{Errors: errs})
		return
	}

	if _, err := h.users.GetByUsername(c.Request.Context(), input.Username); err == nil {
		c.JSON(http.StatusBadRequest, models.UserResponse{Errors: []models.FieldError{
			{Field: "username", Message: "username already taken"},
		}})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	user := models.User{
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
	}
	if err := h.users.Create(c.Request.Context(), &user); err != nil {
		// The username was checked above, so a collision here is the email.
		if errors.Is(err, store.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, models.UserResponse{Errors: []models.FieldError{
				{Field: "email", Message: "email already registered"},
			}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	tokenString, err := signToken(&user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, models.UserResponse{User: &user, Token: tokenString})
}

// Login handles user login by username or email.
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user *models.User
	var err error
	if strings.Contains(input.UsernameOrEmail, "@") {
		user, err = h.users.GetByEmail(c.Request.Context(), input.UsernameOrEmail)
	} else {
		user, err = h.users.GetByUsername(c.Request.Context(), input.UsernameOrEmail)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, models.UserResponse{Errors: []models.FieldError{
				{Field: "username_or_email", Message: "that account doesn't exist"},
			}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, models.UserResponse{Errors: []models.FieldError{
			{Field: "password", Message: "incorrect password"},
		}})
		return
	}

	tokenString, err := signToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{User: user, Token: tokenString})
}

// Logout revokes the presented token until its natural expiry.
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp, ok := middleware.TokenID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"logged_out": false})
		return
	}
	if err := h.kv.RevokeToken(c.Request.Context(), jti, time.Until(exp)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"logged_out": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// GetMe returns the current user, or null when the request is anonymous.
func (h *AuthHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"user": nil})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ForgotPassword issues a single-use reset token and mails the reset link.
// Unknown addresses return an empty url so the endpoint cannot be used to
// probe which emails have accounts.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input struct {
		Email string `json:"email" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), input.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"url": ""})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	token := uuid.NewString()
	if err := h.kv.SetResetToken(c.Request.Context(), token, user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store reset token"})
		return
	}

	url := fmt.Sprintf("%s/change-password/%s", frontendURL(), token)
	h.mailer.SendPasswordReset(user.Email, url)

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// ChangePassword consumes a reset token and sets the new password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var input struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if errs := validation.NewPassword(input.NewPassword); errs != nil {
		c.JSON(http.StatusBadRequest, models.UserResponse{Errors: errs})
		return
	}

	userID, ok, err := h.kv.GetResetToken(c.Request.Context(), input.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cache error"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, models.UserResponse{Errors: []models.FieldError{
			{Field: "token", Message: "invalid token"},
		}})
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusBadRequest, models.UserResponse{Errors: []models.FieldError{
				{Field: "token", Message: "user no longer exists"},
			}})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	if err := h.users.UpdatePassword(c.Request.Context(), user.ID, string(hashed)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update password"})
		return
	}

	// Single use: a consumed token must not reset the password twice.
	if err := h.kv.DeleteResetToken(c.Request.Context(), input.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cache error"})
		return
	}

	tokenString, err := signToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, models.UserResponse{User: user, Token: tokenString})
}

func frontendURL() string {
	if url := os.Getenv("FRONTEND_URL"); url != "" {
		return url
	}
	return "http://localhost:3000"
}
