// Package registry owns the open image projects and the active selection.
//
// All mutation goes through Registry methods. Each project has its own lock,
// so edits to different projects proceed in parallel while edits to one
// project are serialized. A project with an operation in flight (see Begin)
// rejects other mutations with a BUSY error.
package registry

import (
	"log/slog"
	"sync"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/history"
	"github.com/lehigh-university-libraries/harding/internal/ids"
	"github.com/lehigh-university-libraries/harding/internal/raster"
)

// Project is one open image. Its fields are only reachable through Snapshot.
type Project struct {
	id       string
	name     string
	mimeType string
	original *raster.Raster

	mu       sync.Mutex
	history  *history.Store
	inFlight string
}

// Snapshot is a consistent read of one project.
type Snapshot struct {
	ID       string         `json:"id"`
	Index    int            `json:"index"`
	Name     string         `json:"name"`
	MimeType string         `json:"mime_type"`
	Original *raster.Raster `json:"-"`

	// Current is the live state, including any uncommitted preview.
	Current    history.State  `json:"-"`
	Previewing bool           `json:"previewing"`
	Steps      []history.Step `json:"-"`
	Cursor     int            `json:"cursor"`
	InFlight   string         `json:"in_flight,omitempty"`
}

// Head returns the step at the cursor.
func (s Snapshot) Head() history.Step {
	return s.Steps[s.Cursor]
}

func (p *Project) snapshot(index int) Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked(index)
}

func (p *Project) snapshotLocked(index int) Snapshot {
	return Snapshot{
		ID:         p.id,
		Index:      index,
		Name:       p.name,
		MimeType:   p.mimeType,
		Original:   p.original,
		Current:    p.history.Current(),
		Previewing: p.history.Previewing(),
		Steps:      p.history.Steps(),
		Cursor:     p.history.Cursor(),
		InFlight:   p.inFlight,
	}
}

// Registry is the ordered collection of open projects.
type Registry struct {
	mu       sync.RWMutex
	projects []*Project
	byID     map[string]int
	active   int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byID:   make(map[string]int),
		active: -1,
	}
}

// ImportOptions controls how a new project joins the registry.
type ImportOptions struct {
	// Focus makes the new project active. The first project is always active.
	Focus bool
	// Seed describes the first history step. Empty means "Original Import".
	Seed string
}

// Import creates a project seeded with an "Original Import" step (or
// opts.Seed) and appends it. The MIME type is taken from img.
func (r *Registry) Import(img *raster.Raster, name string, opts ImportOptions) (Snapshot, error) {
	if img == nil {
		return Snapshot{}, herrors.NewInvalidRequest("no image to import")
	}

	p := &Project{
		id:       ids.New(),
		name:     name,
		mimeType: img.MimeType,
		original: img,
		history:  history.NewSeeded(opts.Seed, img),
	}

	r.mu.Lock()
	r.projects = append(r.projects, p)
	index := len(r.projects) - 1
	r.byID[p.id] = index
	if opts.Focus || r.active < 0 {
		r.active = index
	}
	r.mu.Unlock()

	slog.Info("Imported project", "project", p.id, "name", name, "mime", img.MimeType, "width", img.Width, "height", img.Height)
	return p.snapshot(index), nil
}

// Len returns the number of open projects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.projects)
}

// ActiveIndex returns the active index, or -1 when the registry is empty.
func (r *Registry) ActiveIndex() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// SetActive selects the project at index.
func (r *Registry) SetActive(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if index < 0 || index >= len(r.projects) {
		return herrors.NewOutOfRange("project", index, len(r.projects))
	}
	r.active = index
	return nil
}

// SetActiveID selects the project with the given ID.
func (r *Registry) SetActiveID(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	index, ok := r.byID[id]
	if !ok {
		return herrors.NewNotFound("project", id)
	}
	r.active = index
	return nil
}

// Active returns the active project.
func (r *Registry) Active() (Snapshot, error) {
	p, index, err := r.activeProject()
	if err != nil {
		return Snapshot{}, err
	}
	return p.snapshot(index), nil
}

// Get returns the project with the given ID.
func (r *Registry) Get(id string) (Snapshot, error) {
	p, index, err := r.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	return p.snapshot(index), nil
}

// List returns every project in import order.
func (r *Registry) List() []Snapshot {
	projects := r.all()
	out := make([]Snapshot, len(projects))
	for i, p := range projects {
		out[i] = p.snapshot(i)
	}
	return out
}

func (r *Registry) all() []*Project {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Project, len(r.projects))
	copy(out, r.projects)
	return out
}

func (r *Registry) lookup(id string) (*Project, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	index, ok := r.byID[id]
	if !ok {
		return nil, -1, herrors.NewNotFound("project", id)
	}
	return r.projects[index], index, nil
}

func (r *Registry) activeProject() (*Project, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active < 0 {
		return nil, -1, herrors.NewNotFound("project", "active")
	}
	return r.projects[r.active], r.active, nil
}

func (r *Registry) indexOf(p *Project) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[p.id]
}
