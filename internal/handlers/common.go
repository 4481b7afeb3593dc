package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lehigh-university-libraries/harding/internal/config"
	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/images"
	"github.com/lehigh-university-libraries/harding/internal/importer"
	"github.com/lehigh-university-libraries/harding/internal/models"
	"github.com/lehigh-university-libraries/harding/internal/registry"
	"github.com/lehigh-university-libraries/harding/internal/studio"
)

type Handler struct {
	config   *config.Config
	studio   *studio.Studio
	importer *importer.Importer
	fetcher  *images.Fetcher
}

func New(cfg *config.Config, st *studio.Studio, imp *importer.Importer, fetcher *images.Fetcher) *Handler {
	return &Handler{
		config:   cfg,
		studio:   st,
		importer: imp,
		fetcher:  fetcher,
	}
}

func (h *Handler) registry() *registry.Registry {
	return h.studio.Registry
}

// Routes registers every endpoint on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/upload", h.HandleUpload)
	mux.HandleFunc("/api/pending", h.HandlePending)
	mux.HandleFunc("/api/pending/", h.HandlePendingDetail)
	mux.HandleFunc("/api/projects", h.HandleProjects)
	mux.HandleFunc("/api/projects/", h.HandleProjectDetail)
	mux.HandleFunc("/api/active", h.HandleActive)
	mux.HandleFunc("/api/batch/", h.HandleBatch)
	mux.HandleFunc("/api/export", h.HandleExport)
	mux.HandleFunc("/api/generate", h.HandleGenerate)
	mux.HandleFunc("/api/journal", h.HandleJournal)
	mux.HandleFunc("/api/presets", h.HandlePresets)
	mux.HandleFunc("/api/tools", h.HandleTools)
	mux.HandleFunc("/exports/", h.HandleExports)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeAppError writes err as a JSON body with the status of its error code
func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	status := herrors.StatusOf(err)
	he := asHardingError(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "code", he.Code, "err", err)
	} else {
		slog.Warn("Request rejected", "code", he.Code, "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]any{"code": he.Code, "message": he.Message}
	if len(he.Details) > 0 {
		body["details"] = he.Details
	}
	if err := json.NewEncoder(w).Encode(map[string]any{"error": body}); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func asHardingError(err error) *herrors.HardingError {
	var he *herrors.HardingError
	if !errors.As(err, &he) {
		he = herrors.NewInternal(err)
	}
	return he
}

func codeOf(err error) herrors.ErrorCode {
	return asHardingError(err).Code
}

// decodeJSON reads an optional JSON body into v. An empty body is allowed.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) projectItem(s registry.Snapshot) models.ProjectItem {
	return models.NewProjectItem(s, s.Index == h.registry().ActiveIndex())
}

// pathParts splits the path after prefix into its segments
func pathParts(path, prefix string) []string {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}
