package handlers

import (
	"encoding/base64"
	"net/http"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/history"
	"github.com/lehigh-university-libraries/harding/internal/models"
	"github.com/lehigh-university-libraries/harding/internal/raster"
	"github.com/lehigh-university-libraries/harding/internal/studio"
)

func (h *Handler) HandleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		snapshots := h.registry().List()
		active := h.registry().ActiveIndex()
		items := make([]models.ProjectItem, 0, len(snapshots))
		for _, s := range snapshots {
			items = append(items, models.NewProjectItem(s, s.Index == active))
		}
		h.writeJSON(w, map[string]any{
			"active":   active,
			"projects": items,
		})
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleActive(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		s, err := h.registry().Active()
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		h.writeJSON(w, h.projectItem(s))
	case "PUT":
		var request struct {
			Index *int   `json:"index"`
			ID    string `json:"id"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}
		var err error
		switch {
		case request.Index != nil:
			err = h.registry().SetActive(*request.Index)
		case request.ID != "":
			err = h.registry().SetActiveID(request.ID)
		default:
			err = herrors.NewInvalidRequest("index or id is required")
		}
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		s, err := h.registry().Active()
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		h.writeJSON(w, h.projectItem(s))
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleProjectDetail serves /api/projects/{id} and its actions
func (h *Handler) HandleProjectDetail(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/api/projects/")
	if len(parts) == 0 || len(parts) > 2 {
		h.writeError(w, "Project not found", http.StatusNotFound)
		return
	}
	id := parts[0]
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}

	switch {
	case action == "" && r.Method == "GET":
		h.respondProject(w, id)
	case action == "image" && r.Method == "GET":
		h.serveImage(w, r, id)
	case action == "preview" && r.Method == "PUT":
		h.handlePreview(w, r, id)
	case action == "preview" && r.Method == "DELETE":
		h.respondAfter(w, id, h.registry().DiscardPreview(id))
	case action == "commit" && r.Method == "POST":
		h.handleCommit(w, r, id)
	case action == "edit" && r.Method == "POST":
		h.handleEdit(w, r, id)
	case action == "rotate" && r.Method == "POST":
		_, _, err := h.studio.Rotate(id)
		h.respondAfter(w, id, err)
	case action == "reset" && r.Method == "POST":
		_, _, err := h.studio.Reset(id)
		h.respondAfter(w, id, err)
	case action == "preset" && r.Method == "POST":
		var request struct {
			Preset string `json:"preset"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}
		_, _, err := h.studio.ApplyPreset(id, request.Preset)
		h.respondAfter(w, id, err)
	case action == "undo" && r.Method == "POST":
		_, err := h.registry().Undo(id)
		h.respondAfter(w, id, err)
	case action == "redo" && r.Method == "POST":
		_, err := h.registry().Redo(id)
		h.respondAfter(w, id, err)
	case action == "restore" && r.Method == "POST":
		var request struct {
			Index *int `json:"index"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}
		if request.Index == nil {
			h.writeAppError(w, herrors.NewInvalidRequest("index is required"))
			return
		}
		h.respondAfter(w, id, h.registry().Restore(id, *request.Index))
	case action == "ai" && r.Method == "POST":
		h.handleAIEdit(w, r, id)
	case action == "auto" && r.Method == "POST":
		h.handleAuto(w, r, id)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) respondProject(w http.ResponseWriter, id string) {
	s, err := h.registry().Get(id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, h.projectItem(s))
}

// respondAfter writes err, or the project's new state when err is nil
func (h *Handler) respondAfter(w http.ResponseWriter, id string, err error) {
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.respondProject(w, id)
}

// serveImage writes the current raster, or the baked live state with ?baked=1
func (h *Handler) serveImage(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.registry().Get(id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	img := s.Current.Image
	if v := r.URL.Query().Get("baked"); v == "1" || v == "true" {
		img, err = h.studio.Bake(r.Context(), s)
		if err != nil {
			h.writeAppError(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", img.MimeType)
	w.Header().Set("Cache-Control", "no-store")
	if _, err := w.Write(img.Bytes()); err != nil {
		h.writeError(w, "Unable to write image: "+err.Error(), http.StatusInternalServerError)
	}
}

// filterRequest carries either a complete filter set or field overrides
// applied to the live filters
type filterRequest struct {
	Filters *filters.Set       `json:"filters"`
	Set     map[string]float64 `json:"set"`
}

func (h *Handler) resolveFilters(id string, req filterRequest) (*filters.Set, error) {
	if req.Filters == nil && len(req.Set) == 0 {
		return nil, nil
	}
	base := filters.Identity()
	if req.Filters != nil {
		base = *req.Filters
	} else {
		s, err := h.registry().Get(id)
		if err != nil {
			return nil, err
		}
		base = s.Current.Filters
	}
	if len(req.Set) == 0 {
		return &base, nil
	}
	out, err := filters.Merge(base, req.Set)
	if err != nil {
		return nil, herrors.NewInvalidRequest(err.Error())
	}
	return &out, nil
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request, id string) {
	var request filterRequest
	if !h.decodeJSON(w, r, &request) {
		return
	}
	f, err := h.resolveFilters(id, request)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	if f == nil {
		h.writeAppError(w, herrors.NewInvalidRequest("filters or set is required"))
		return
	}
	h.respondAfter(w, id, h.registry().Preview(id, *f))
}

func (h *Handler) handleCommit(w http.ResponseWriter, r *http.Request, id string) {
	var request struct {
		Description string `json:"description"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.Description == "" {
		request.Description = "Adjust Filters"
	}
	_, _, err := h.registry().Commit(id, request.Description)
	h.respondAfter(w, id, err)
}

func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request, id string) {
	var request struct {
		filterRequest
		Description string `json:"description"`
		Rotation    *int   `json:"rotation"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	if request.Description == "" {
		h.writeAppError(w, herrors.NewInvalidRequest("description is required"))
		return
	}
	f, err := h.resolveFilters(id, request.filterRequest)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	step, committed, err := h.registry().Apply(id, request.Description, history.Change{Filters: f, Rotation: request.Rotation})
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{
		"committed": committed,
		"step":      models.NewStepItem(step),
	})
}

func (h *Handler) handleAIEdit(w http.ResponseWriter, r *http.Request, id string) {
	var request struct {
		Prompt string            `json:"prompt"`
		Tool   string            `json:"tool"`
		Fill   map[string]string `json:"fill"`
		Action string            `json:"action"`
		// Style is a base64 encoded reference image
		Style string `json:"style"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	req := studio.EditRequest{
		ProjectID: id,
		Prompt:    request.Prompt,
		Tool:      request.Tool,
		Fill:      request.Fill,
		Action:    request.Action,
	}
	if request.Style != "" {
		data, err := base64.StdEncoding.DecodeString(request.Style)
		if err != nil {
			h.writeAppError(w, herrors.NewInvalidRequest("style must be base64 encoded: "+err.Error()))
			return
		}
		req.Style, err = raster.New(data, "")
		if err != nil {
			h.writeAppError(w, herrors.NewInvalidRequest("style is not a readable image: "+err.Error()))
			return
		}
	}

	step, err := h.studio.AIEdit(r.Context(), req)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{
		"committed": true,
		"step":      models.NewStepItem(step),
	})
}

func (h *Handler) handleAuto(w http.ResponseWriter, r *http.Request, id string) {
	var request struct {
		Mode string `json:"mode"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}
	mode, err := studio.ParseMode(request.Mode)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	step, committed, err := h.studio.AutoEnhance(r.Context(), id, mode)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{
		"committed": committed,
		"step":      models.NewStepItem(step),
	})
}
