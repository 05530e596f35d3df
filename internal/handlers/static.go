package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountStatic serves the built UI from webDir. Unknown non-API paths fall
// back to index.html so client-side routes resolve.
func (h *Handler) mountStatic(r *gin.Engine) {
	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") || h.webDir == "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
			return
		}
		rel := path.Clean("/" + c.Request.URL.Path)
		file := filepath.Join(h.webDir, filepath.FromSlash(rel))
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			c.File(file)
			return
		}
		if path.Ext(rel) != "" {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		if !h.serveIndex(c) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		}
	})
}

func (h *Handler) serveIndex(c *gin.Context) bool {
	if h.webDir == "" {
		return false
	}
	index := filepath.Join(h.webDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		return false
	}
	c.File(index)
	return true
}
