package handlers

import (
	"net/http"
	"path/filepath"
	"strings"
)

// HandleExports serves files written by the last export
func (h *Handler) HandleExports(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/exports/")

	// Prevent directory traversal attacks
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	if strings.HasSuffix(name, ".yaml") {
		w.Header().Set("Content-Type", "application/yaml")
	}
	http.ServeFile(w, r, filepath.Join(h.config.ExportDir, name))
}
