package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"planner/internal/auth"
	"planner/internal/models"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

// authResponse is the shape returned by every login-ish endpoint.
type authResponse struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Email       string             `json:"email"`
	Picture     string             `json:"picture,omitempty"`
	Token       string             `json:"token"`
	Preferences models.Preferences `json:"preferences"`
}

// handleRegister creates an account and returns a signed access token.
func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("please add all fields"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := s.store.CreateUser(c.Request.Context(), req.Name, req.Email, hash)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	s.seedStarterData(c.Request.Context(), user.ID)

	s.respondAuth(c, http.StatusCreated, user)
}

// handleLogin verifies credentials and returns a signed access token.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	user, err := s.store.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("invalid credentials"))
		return
	}

	s.respondAuth(c, http.StatusOK, user)
}

// handleGoogleLogin verifies a federated ID token against the issuer and
// finds or creates the local account.
func (s *Server) handleGoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("no token provided"))
		return
	}

	identity, err := s.google.Verify(c.Request.Context(), req.Token)
	if err != nil {
		s.respondError(c, http.StatusUnauthorized, fmt.Errorf("invalid google token"))
		return
	}

	user, created, err := s.store.UpsertGoogleUser(c.Request.Context(), identity.Name, identity.Email, identity.Subject, identity.Picture)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	if created {
		s.seedStarterData(c.Request.Context(), user.ID)
	}

	s.respondAuth(c, http.StatusOK, user)
}

// handleMe returns the authenticated user's profile and preferences.
func (s *Server) handleMe(c *gin.Context) {
	user := currentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"name":        user.Name,
		"email":       user.Email,
		"picture":     user.Picture,
		"preferences": user.Preferences,
	})
}

func (s *Server) respondAuth(c *gin.Context, status int, user models.User) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(status, authResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Picture:     user.Picture,
		Token:       token,
		Preferences: user.Preferences,
	})
}

// seedStarterData gives a fresh account a couple of rules and welcome tasks.
// Seeding failures are logged and never fail the signup.
func (s *Server) seedStarterData(ctx context.Context, userID string) {
	for _, text := range []string{"Drink 3L of water", "Read 10 pages"} {
		if _, err := s.store.CreateRule(ctx, userID, text); err != nil {
			s.logger.Warn("seed rule failed", slog.String("error", err.Error()))
			return
		}
	}

	today := time.Now().UTC().Format("2006-01-02")
	starters := []models.Task{
		{
			Title:    "Welcome to your planner!",
			Date:     today,
			Time:     "09:00",
			Priority: models.PriorityP1,
			Color:    "#3b82f6",
			Notes:    "This is your first todo. Click to see details or edit it.",
		},
		{
			Title:    "Explore themes and settings",
			Date:     today,
			Priority: models.PriorityP2,
			Color:    "#10b981",
			Notes:    "Pick a theme (calm, green, ocean, dark) or upload a custom background.",
		},
	}
	for _, t := range starters {
		if _, err := s.store.CreateTodo(ctx, userID, t); err != nil {
			s.logger.Warn("seed todo failed", slog.String("error", err.Error()))
			return
		}
	}
}
