package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountUploads serves stored background images from the uploads directory.
func (s *Server) mountUploads() {
	if s.uploadsDir == "" {
		return
	}
	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		s.logger.Warn("uploads directory unavailable", "path", s.uploadsDir, "error", err)
		return
	}
	s.engine.StaticFS("/uploads", gin.Dir(s.uploadsDir, false))
}

// Unknown paths under these prefixes answer JSON 404; everything else falls
// back to index.html so client-side routing keeps working on deep links.
var noFallbackPrefixes = []string{"/api/", "/uploads/"}

// mountStatic serves the compiled frontend from the configured directory.
func (s *Server) mountStatic() {
	if s.staticDir == "" {
		s.logger.Info("no static directory configured, serving API only")
		return
	}

	info, err := os.Stat(s.staticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory unavailable", "path", s.staticDir, "error", err)
		return
	}

	indexPath := filepath.Join(s.staticDir, "index.html")
	if _, err := os.Stat(indexPath); err != nil {
		s.logger.Warn("index.html missing, deep-link fallback disabled", "path", indexPath)
	} else {
		s.engine.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})
		s.engine.NoRoute(func(c *gin.Context) {
			for _, prefix := range noFallbackPrefixes {
				if strings.HasPrefix(c.Request.URL.Path, prefix) {
					c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
					return
				}
			}
			c.File(indexPath)
		})
	}

	if assetsDir := filepath.Join(s.staticDir, "assets"); dirExists(assetsDir) {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, true))
	}
	if favicon := filepath.Join(s.staticDir, "favicon.ico"); fileExists(favicon) {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
