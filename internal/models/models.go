package models

import (
	"time"

	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/history"
	"github.com/lehigh-university-libraries/harding/internal/preview"
	"github.com/lehigh-university-libraries/harding/internal/registry"
)

// PendingImport is a RAW upload with several embedded previews, waiting for
// the user to choose one
type PendingImport struct {
	ID         string              `json:"id"`
	Filename   string              `json:"filename"`
	Candidates []preview.Candidate `json:"-"`
	CreatedAt  time.Time           `json:"created_at"`
}

// CandidateItem represents one selectable embedded preview
type CandidateItem struct {
	ID     string         `json:"id"`
	Index  int            `json:"index"`
	Label  string         `json:"label"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Size   int            `json:"size_bytes"`
	Start  int            `json:"start"`
	End    int            `json:"end"`
	Camera preview.Camera `json:"camera"`
}

// Items lists the pending candidates in rank order
func (p *PendingImport) Items() []CandidateItem {
	items := make([]CandidateItem, len(p.Candidates))
	for i, c := range p.Candidates {
		items[i] = CandidateItem{
			ID:     c.ID(p.Filename),
			Index:  i,
			Label:  c.Label(),
			Width:  c.Width,
			Height: c.Height,
			Size:   c.Size(),
			Start:  c.Start,
			End:    c.End,
			Camera: c.Camera,
		}
	}
	return items
}

// ProjectItem represents an open image project
type ProjectItem struct {
	ID         string      `json:"id"`
	Index      int         `json:"index"`
	Active     bool        `json:"active"`
	Name       string      `json:"name"`
	MimeType   string      `json:"mime_type"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Filters    filters.Set `json:"filters"`
	Rotation   int         `json:"rotation"`
	Previewing bool        `json:"previewing"`
	InFlight   string      `json:"in_flight,omitempty"`
	Cursor     int         `json:"history_cursor"`
	History    []StepItem  `json:"history"`
}

// StepItem represents one history step
type StepItem struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	ImageID     string      `json:"image_id"`
	Filters     filters.Set `json:"filters"`
	Rotation    int         `json:"rotation"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewProjectItem converts a registry snapshot for the API
func NewProjectItem(s registry.Snapshot, active bool) ProjectItem {
	item := ProjectItem{
		ID:         s.ID,
		Index:      s.Index,
		Active:     active,
		Name:       s.Name,
		MimeType:   s.MimeType,
		Filters:    s.Current.Filters,
		Rotation:   s.Current.Rotation,
		Previewing: s.Previewing,
		InFlight:   s.InFlight,
		Cursor:     s.Cursor,
		History:    make([]StepItem, len(s.Steps)),
	}
	if img := s.Current.Image; img != nil {
		item.Width, item.Height = img.Width, img.Height
	}
	for i, step := range s.Steps {
		item.History[i] = NewStepItem(step)
	}
	return item
}

// NewStepItem converts a history step for the API
func NewStepItem(step history.Step) StepItem {
	item := StepItem{
		ID:          step.ID,
		Description: step.Description,
		Filters:     step.Filters,
		Rotation:    step.Rotation,
		Timestamp:   step.Timestamp,
	}
	if step.Image != nil {
		item.ImageID = step.Image.ID
	}
	return item
}

// BatchResult reports one project of a batch operation
type BatchResult struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Committed bool   `json:"committed"`
	Filename  string `json:"filename,omitempty"`
	Error     string `json:"error,omitempty"`
}

// NewBatchResults converts batch edit outcomes for the API
func NewBatchResults(outcomes []registry.Outcome) []BatchResult {
	out := make([]BatchResult, len(outcomes))
	for i, o := range outcomes {
		out[i] = BatchResult{ProjectID: o.ProjectID, Name: o.Name, Committed: o.Committed}
		if o.Err != nil {
			out[i].Error = o.Err.Error()
		}
	}
	return out
}
