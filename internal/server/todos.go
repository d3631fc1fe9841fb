package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"planner/internal/models"
	"planner/internal/storage/sqlite"
)

// handleListTodos fetches the caller's tasks with optional filters.
func (s *Server) handleListTodos(c *gin.Context) {
	user := currentUser(c)

	filter := sqlite.TodoFilter{
		Date:     c.Query("date"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
	}
	if raw := c.Query("completed"); raw != "" {
		completed := raw == "true"
		filter.Completed = &completed
	}

	todos, err := s.store.ListTodos(c.Request.Context(), user.ID, filter)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, todos)
}

type createTodoRequest struct {
	Title     string           `json:"title"`
	DayLabel  string           `json:"dayLabel"`
	Date      string           `json:"date"`
	Time      string           `json:"time"`
	Color     string           `json:"color"`
	TextColor string           `json:"textColor"`
	Priority  string           `json:"priority"`
	Notes     string           `json:"notes"`
	Links     []models.Link    `json:"links"`
	Subtasks  []models.Subtask `json:"subtasks"`
	Completed bool             `json:"completed"`
	GoalTime  int64            `json:"goalTime"`
	TimeSpent int64            `json:"timeSpent"`
}

// handleCreateTodo inserts a new task owned by the caller.
func (s *Server) handleCreateTodo(c *gin.Context) {
	user := currentUser(c)

	var req createTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Title == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("please add a title"))
		return
	}

	todo, err := s.store.CreateTodo(c.Request.Context(), user.ID, models.Task{
		Title:     req.Title,
		DayLabel:  req.DayLabel,
		Date:      req.Date,
		Time:      req.Time,
		Color:     req.Color,
		TextColor: req.TextColor,
		Priority:  req.Priority,
		Notes:     req.Notes,
		Links:     req.Links,
		Subtasks:  req.Subtasks,
		Completed: req.Completed,
		GoalTime:  req.GoalTime,
		TimeSpent: req.TimeSpent,
	})
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

// handleUpdateTodo merges the provided fields into an owned task.
func (s *Server) handleUpdateTodo(c *gin.Context) {
	user := currentUser(c)

	var patch sqlite.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	todo, err := s.store.UpdateTodo(c.Request.Context(), user.ID, c.Param("id"), patch)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// handleDeleteTodo removes an owned task and echoes its identity.
func (s *Server) handleDeleteTodo(c *gin.Context) {
	user := currentUser(c)

	id := c.Param("id")
	if err := s.store.DeleteTodo(c.Request.Context(), user.ID, id); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
