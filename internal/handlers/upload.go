package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/models"
	"github.com/lehigh-university-libraries/harding/internal/registry"
)

// UploadResult reports one uploaded file
type UploadResult struct {
	Filename string              `json:"filename"`
	Project  *models.ProjectItem `json:"project,omitempty"`
	Pending  *PendingItem        `json:"pending,omitempty"`
	Error    string              `json:"error,omitempty"`
	Code     herrors.ErrorCode   `json:"code,omitempty"`
}

// PendingItem is a RAW upload waiting for a candidate to be chosen
type PendingItem struct {
	*models.PendingImport
	Candidates []models.CandidateItem `json:"candidates"`
}

func newPendingItem(p *models.PendingImport) *PendingItem {
	return &PendingItem{PendingImport: p, Candidates: p.Items()}
}

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if this is a JSON request with image URL
	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.handleURLUpload(w, r)
		return
	}

	h.handleFileUpload(w, r)
}

// maxURLRequestBytes caps the JSON body of a URL upload.
const maxURLRequestBytes = 1 << 16

func (h *Handler) handleURLUpload(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ImageURL string `json:"image_url"`
		Focus    bool   `json:"focus"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxURLRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	d, err := h.fetcher.Fetch(r.Context(), request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	result := h.importOne(d.Data, d.MimeType, d.Filename, registry.ImportOptions{Focus: request.Focus})
	h.writeUploadResults(w, []UploadResult{result})
}

func (h *Handler) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadBytes*4)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Failed to read upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		h.writeError(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	opts := registry.ImportOptions{Focus: r.FormValue("focus") == "true" || r.FormValue("focus") == "1"}
	results := make([]UploadResult, 0, len(headers))
	for _, header := range headers {
		data, err := h.readPart(header)
		if err != nil {
			results = append(results, UploadResult{Filename: header.Filename, Error: err.Error(), Code: herrors.ErrInvalidRequest})
			continue
		}
		results = append(results, h.importOne(data, header.Header.Get("Content-Type"), header.Filename, opts))
	}
	h.writeUploadResults(w, results)
}

func (h *Handler) readPart(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer file.Close()

	limit := h.config.MaxUploadBytes
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file too large (max %d bytes)", limit)
	}
	return data, nil
}

func (h *Handler) importOne(data []byte, mimeType, filename string, opts registry.ImportOptions) UploadResult {
	if mimeType == "application/octet-stream" {
		mimeType = ""
	}
	res, err := h.importer.Import(data, mimeType, filename, opts)
	if err != nil {
		return UploadResult{Filename: filename, Error: err.Error(), Code: codeOf(err)}
	}

	out := UploadResult{Filename: filename}
	if res.Project != nil {
		item := h.projectItem(*res.Project)
		out.Project = &item
	}
	if res.Pending != nil {
		out.Pending = newPendingItem(res.Pending)
	}
	return out
}

func (h *Handler) writeUploadResults(w http.ResponseWriter, results []UploadResult) {
	imported, pending, failed := 0, 0, 0
	for _, r := range results {
		switch {
		case r.Project != nil:
			imported++
		case r.Pending != nil:
			pending++
		default:
			failed++
		}
	}
	if imported == 0 && pending == 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results, "failed": failed})
		return
	}
	h.writeJSON(w, map[string]any{
		"message":  fmt.Sprintf("Imported %d, awaiting selection %d, failed %d", imported, pending, failed),
		"results":  results,
		"imported": imported,
		"pending":  pending,
		"failed":   failed,
	})
}

// HandlePending lists RAW uploads waiting for a candidate choice
func (h *Handler) HandlePending(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		pending := h.importer.Pending()
		items := make([]*PendingItem, 0, len(pending))
		for _, p := range pending {
			items = append(items, newPendingItem(p))
		}
		h.writeJSON(w, items)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandlePendingDetail serves /api/pending/{id}, its candidate previews and
// the select action
func (h *Handler) HandlePendingDetail(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, "/api/pending/")
	if len(parts) == 0 {
		h.writeError(w, "Pending import ID required", http.StatusBadRequest)
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1 && r.Method == "GET":
		p, err := h.importer.PendingImport(id)
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		h.writeJSON(w, newPendingItem(p))
	case len(parts) == 1 && r.Method == "DELETE":
		if err := h.importer.Cancel(id); err != nil {
			h.writeAppError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	case len(parts) == 2 && parts[1] == "select" && r.Method == "POST":
		var request struct {
			Candidate int  `json:"candidate"`
			Focus     bool `json:"focus"`
		}
		if !h.decodeJSON(w, r, &request) {
			return
		}
		s, err := h.importer.Select(id, request.Candidate, registry.ImportOptions{Focus: request.Focus})
		if err != nil {
			h.writeAppError(w, err)
			return
		}
		h.writeJSON(w, h.projectItem(s))
	case len(parts) == 3 && parts[1] == "candidates" && r.Method == "GET":
		h.serveCandidate(w, id, parts[2])
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) serveCandidate(w http.ResponseWriter, id, rawIndex string) {
	p, err := h.importer.PendingImport(id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	var index int
	if _, err := fmt.Sscanf(rawIndex, "%d", &index); err != nil {
		h.writeError(w, "Invalid candidate index", http.StatusBadRequest)
		return
	}
	if index < 0 || index >= len(p.Candidates) {
		h.writeAppError(w, herrors.NewOutOfRange("candidate", index, len(p.Candidates)))
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	if _, err := w.Write(p.Candidates[index].Payload); err != nil {
		h.writeError(w, "Unable to write candidate: "+err.Error(), http.StatusInternalServerError)
	}
}
