package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"planner/internal/storage/sqlite"
)

type createRuleRequest struct {
	Text string `json:"text"`
}

// handleListRules returns the caller's rules in display order.
func (s *Server) handleListRules(c *gin.Context) {
	user := currentUser(c)

	rules, err := s.store.ListRules(c.Request.Context(), user.ID)
	if err != nil {
		s.respondError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// handleCreateRule appends a rule to the caller's list.
func (s *Server) handleCreateRule(c *gin.Context) {
	user := currentUser(c)

	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Text == "" {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("please add text"))
		return
	}

	rule, err := s.store.CreateRule(c.Request.Context(), user.ID, req.Text)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// handleUpdateRule merges the provided fields into an owned rule.
func (s *Server) handleUpdateRule(c *gin.Context) {
	user := currentUser(c)

	var patch sqlite.RulePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	rule, err := s.store.UpdateRule(c.Request.Context(), user.ID, c.Param("id"), patch)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// handleDeleteRule removes an owned rule and echoes its identity.
func (s *Server) handleDeleteRule(c *gin.Context) {
	user := currentUser(c)

	id := c.Param("id")
	if err := s.store.DeleteRule(c.Request.Context(), user.ID, id); err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
