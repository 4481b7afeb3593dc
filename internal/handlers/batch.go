package handlers

import (
	"net/http"
	"strings"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/journal"
	"github.com/lehigh-university-libraries/harding/internal/models"
	"github.com/lehigh-university-libraries/harding/internal/registry"
	"github.com/lehigh-university-libraries/harding/internal/tools"
)

// HandleBatch serves /api/batch/preset and /api/batch/sync
func (h *Handler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		outcomes []registry.Outcome
		err      error
	)
	switch strings.TrimPrefix(r.URL.Path, "/api/batch/") {
	case "preset":
		var request struct {
			Preset string `json:"preset"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}
		outcomes, err = h.studio.ApplyPresetToAll(request.Preset)
	case "sync":
		outcomes, err = h.registry().SyncActiveToAll()
	default:
		h.writeError(w, "Batch operation not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.writeJSON(w, map[string]any{
		"results": models.NewBatchResults(outcomes),
		"failed":  registry.Failed(outcomes),
	})
}

// HandleExport bakes every project into the export directory
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.registry().Len() == 0 {
		h.writeAppError(w, herrors.NewInvalidRequest("nothing to export"))
		return
	}

	m, err := h.studio.ExportTo(r.Context(), h.config.ExportDir)
	if err != nil {
		h.writeAppError(w, herrors.NewInternal(err))
		return
	}
	h.writeJSON(w, m)
}

// HandleGenerate creates a new project from a text prompt
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var request struct {
		Prompt string `json:"prompt"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	s, err := h.studio.Generate(r.Context(), request.Prompt)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, h.projectItem(s))
}

// HandleJournal downloads every project's history as parquet
func (h *Handler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rows := journal.Rows(h.registry().List())
	w.Header().Set("Content-Type", "application/vnd.apache.parquet")
	w.Header().Set("Content-Disposition", `attachment; filename="harding-journal.parquet"`)
	if err := journal.Write(w, rows); err != nil {
		h.writeError(w, "Unable to write journal: "+err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) HandlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.writeJSON(w, filters.Presets)
}

// toolItem is a catalog entry for the API
type toolItem struct {
	Name         string   `json:"name"`
	Template     bool     `json:"template"`
	Prompt       string   `json:"prompt"`
	Placeholders []string `json:"placeholders,omitempty"`
}

func (h *Handler) HandleTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	type category struct {
		Name  string     `json:"name"`
		Tools []toolItem `json:"tools"`
	}
	out := make([]category, 0, len(tools.Catalog))
	for _, c := range tools.Catalog {
		cat := category{Name: c.Name}
		for _, t := range c.Tools {
			item := toolItem{Name: t.Name, Template: t.IsTemplate()}
			switch e := t.Edit.(type) {
			case tools.DirectEdit:
				item.Prompt = e.Prompt
			case tools.TemplateEdit:
				item.Prompt = e.Prompt
				item.Placeholders = e.Placeholders()
			}
			cat.Tools = append(cat.Tools, item)
		}
		out = append(out, cat)
	}
	h.writeJSON(w, out)
}
