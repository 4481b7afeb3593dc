package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/history"
	"github.com/lehigh-university-libraries/harding/internal/raster"
)

// BatchSyncDescription labels steps created by SyncActiveToAll.
const BatchSyncDescription = "Batch Sync"

// Outcome is the result of a batch edit on one project.
type Outcome struct {
	ProjectID string       `json:"project_id"`
	Name      string       `json:"name"`
	Step      history.Step `json:"-"`
	Committed bool         `json:"committed"`
	Err       error        `json:"-"`
}

// Failed counts outcomes with an error.
func Failed(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

// ApplyToAll pushes f onto every project's own history, keeping each
// project's image and rotation. Each push is all-or-nothing for its project;
// a failure on one project does not affect the others.
func (r *Registry) ApplyToAll(description string, f filters.Set) []Outcome {
	projects := r.all()
	outcomes := make([]Outcome, 0, len(projects))
	for _, p := range projects {
		step, ok, err := p.push(description, history.WithFilters(f))
		if err != nil {
			slog.Warn("Batch edit skipped project", "project", p.id, "description", description, "err", err)
		}
		outcomes = append(outcomes, Outcome{
			ProjectID: p.id,
			Name:      p.name,
			Step:      step,
			Committed: ok,
			Err:       err,
		})
	}
	slog.Info("Applied batch edit", "description", description, "projects", len(projects), "failed", Failed(outcomes))
	return outcomes
}

// ApplyPresetToAll applies a preset's filters to every project.
func (r *Registry) ApplyPresetToAll(p filters.Preset) []Outcome {
	return r.ApplyToAll(p.Description(), p.Filters)
}

// SyncActiveToAll copies the active project's live filters to every project.
func (r *Registry) SyncActiveToAll() ([]Outcome, error) {
	active, err := r.Active()
	if err != nil {
		return nil, err
	}
	return r.ApplyToAll(BatchSyncDescription, active.Current.Filters), nil
}

// BakeFunc renders one project's live state.
type BakeFunc func(ctx context.Context, s Snapshot) (*raster.Raster, error)

// ExportOptions controls ExportAll.
type ExportOptions struct {
	// Prefix is prepended to each project's name to form the file name.
	Prefix string
	// Delay is the pause between consecutive items.
	Delay time.Duration
}

// Export is the result of exporting one project.
type Export struct {
	ProjectID string         `json:"project_id"`
	Name      string         `json:"name"`
	Filename  string         `json:"filename"`
	Raster    *raster.Raster `json:"-"`
	Err       error          `json:"-"`

	// State is the live state that was baked; Head labels the step it came from.
	State history.State `json:"-"`
	Head  string        `json:"head"`
	Steps int           `json:"steps"`
}

// ExportName forms the file name for the project at index.
func ExportName(prefix, name string, index int) string {
	if name == "" {
		name = fmt.Sprintf("img-%d", index)
	}
	return prefix + name
}

// ExportAll bakes every project's live state, one at a time and in import
// order, pausing opts.Delay between items. A failed item is recorded and the
// rest still run. Cancelling ctx marks the remaining items with ctx.Err().
func (r *Registry) ExportAll(ctx context.Context, bake BakeFunc, opts ExportOptions) []Export {
	projects := r.all()
	exports := make([]Export, 0, len(projects))

	for i, p := range projects {
		s := p.snapshot(i)
		e := Export{
			ProjectID: s.ID,
			Name:      s.Name,
			Filename:  ExportName(opts.Prefix, s.Name, i),
			State:     s.Current,
			Head:      s.Head().Description,
			Steps:     len(s.Steps),
		}

		if i > 0 && opts.Delay > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(opts.Delay):
			}
		}
		if err := ctx.Err(); err != nil {
			e.Err = err
			exports = append(exports, e)
			continue
		}

		e.Raster, e.Err = safeBake(ctx, bake, s)
		if e.Err != nil {
			slog.Error("Export failed", "project", s.ID, "name", s.Name, "err", e.Err)
		} else {
			slog.Info("Exported project", "project", s.ID, "filename", e.Filename, "bytes", e.Raster.Size())
		}
		exports = append(exports, e)
	}
	return exports
}

func safeBake(ctx context.Context, bake BakeFunc, s Snapshot) (out *raster.Raster, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, herrors.NewInternal(fmt.Errorf("bake panicked: %v", rec))
		}
	}()
	out, err = bake(ctx, s)
	if err == nil && out == nil {
		err = herrors.NewCompositionFailure(fmt.Errorf("bake returned no image"))
	}
	return out, err
}
