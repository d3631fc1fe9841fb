package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"planner/internal/auth"
	"planner/internal/models"
	"planner/internal/storage/sqlite"
)

const userContextKey = "planner.user"

// Config carries the server's collaborators.
type Config struct {
	Store      *sqlite.Store
	Tokens     *auth.Tokens
	Google     auth.GoogleVerifier
	Logger     *slog.Logger
	StaticDir  string
	UploadsDir string
}

// Server provides the HTTP handlers for the task planner backend.
type Server struct {
	engine     *gin.Engine
	store      *sqlite.Store
	tokens     *auth.Tokens
	google     auth.GoogleVerifier
	logger     *slog.Logger
	staticDir  string
	uploadsDir string
}

// New constructs the HTTP server with routes and middleware configured.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/health"))

	srv := &Server{
		engine:     router,
		store:      cfg.Store,
		tokens:     cfg.Tokens,
		google:     cfg.Google,
		logger:     logger,
		staticDir:  cfg.StaticDir,
		uploadsDir: cfg.UploadsDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API and static handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", s.handleRegister)
			authGroup.POST("/login", s.handleLogin)
			authGroup.POST("/google", s.handleGoogleLogin)
			authGroup.GET("/me", s.requireAuth, s.handleMe)
		}

		todos := api.Group("/todos", s.requireAuth)
		{
			todos.GET("", s.handleListTodos)
			todos.POST("", s.handleCreateTodo)
			todos.PUT(":id", s.handleUpdateTodo)
			todos.DELETE(":id", s.handleDeleteTodo)
		}

		rules := api.Group("/rules", s.requireAuth)
		{
			rules.GET("", s.handleListRules)
			rules.POST("", s.handleCreateRule)
			rules.PUT(":id", s.handleUpdateRule)
			rules.DELETE(":id", s.handleDeleteRule)
		}

		users := api.Group("/users", s.requireAuth)
		{
			users.PUT("/preferences", s.handleUpdatePreferences)
			users.POST("/upload/background", s.handleUploadBackground)
		}
	}

	s.mountUploads()
	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// requireAuth verifies the bearer credential and stashes the caller in the
// request context.
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, no token"})
		return
	}

	userID, err := s.tokens.Verify(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authorized, token failed"})
		return
	}

	user, err := s.store.GetUser(c.Request.Context(), userID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	c.Set(userContextKey, user)
	c.Next()
}

// currentUser returns the authenticated user placed by requireAuth.
func currentUser(c *gin.Context) models.User {
	u, _ := c.MustGet(userContextKey).(models.User)
	return u
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondStoreError translates store sentinel errors into HTTP status codes.
// This is the single place the error taxonomy meets the wire.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sqlite.ErrNotFound):
		s.respondError(c, http.StatusNotFound, err)
	case errors.Is(err, sqlite.ErrNotOwned):
		s.respondError(c, http.StatusUnauthorized, err)
	case errors.Is(err, sqlite.ErrEmailTaken):
		s.respondError(c, http.StatusBadRequest, err)
	default:
		s.respondError(c, http.StatusInternalServerError, err)
	}
}
