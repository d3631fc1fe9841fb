package server

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"planner/internal/storage/sqlite"
)

// maxUploadBytes caps background uploads at 5MB.
const maxUploadBytes = 5 << 20

var allowedImageExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// handleUpdatePreferences merges the provided preference fields into the
// caller's nested preferences document.
func (s *Server) handleUpdatePreferences(c *gin.Context) {
	user := currentUser(c)

	var patch sqlite.PreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	prefs, err := s.store.UpdatePreferences(c.Request.Context(), user.ID, patch)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// handleUploadBackground stores an uploaded image on local disk and records
// its URL in the caller's preferences.
func (s *Server) handleUploadBackground(c *gin.Context) {
	user := currentUser(c)

	if s.uploadsDir == "" {
		s.respondError(c, http.StatusInternalServerError, fmt.Errorf("uploads not configured"))
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("no file uploaded"))
		return
	}
	if file.Size > maxUploadBytes {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("file exceeds 5MB limit"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedImageExts[ext]; !ok {
		s.respondError(c, http.StatusBadRequest, fmt.Errorf("unsupported image type %q", ext))
		return
	}

	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(s.uploadsDir, name)); err != nil {
		s.respondError(c, http.StatusInternalServerError, fmt.Errorf("save upload: %w", err))
		return
	}

	url := "/uploads/" + name
	prefs, err := s.store.SetBackgroundUpload(c.Request.Context(), user.ID, url)
	if err != nil {
		s.respondStoreError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "preferences": prefs})
}
