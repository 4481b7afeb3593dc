// Package studio drives the editing operations that span several components:
// baking a project's live state, sending it to an AI service and committing
// the result, auto-enhancement, sample generation, and export.
package studio

import (
	"context"

	"github.com/lehigh-university-libraries/harding/internal/compositor"
	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/history"
	"github.com/lehigh-university-libraries/harding/internal/providers"
	"github.com/lehigh-university-libraries/harding/internal/raster"
	"github.com/lehigh-university-libraries/harding/internal/registry"
)

// History labels for the standard edits.
const (
	RotateDescription = "Rotate 90°"
	ResetDescription  = "Reset All"
)

// Studio wires a registry to a compositor and the AI providers.
// Editor and Enhancer may be nil; operations that need them fail with
// an ExternalServiceFailure.
type Studio struct {
	Registry   *registry.Registry
	Compositor compositor.Compositor

	// Provider names the service behind Editor and Enhancer in errors and logs.
	Provider      string
	Editor        providers.Editor
	Enhancer      providers.Enhancer
	EditConfig    providers.Config
	EnhanceConfig providers.Config

	Export registry.ExportOptions
}

// New returns a Studio over reg with no providers configured.
func New(reg *registry.Registry) *Studio {
	return &Studio{Registry: reg}
}

// Bake renders a snapshot's live state with every filter applied.
func (s *Studio) Bake(_ context.Context, snap registry.Snapshot) (*raster.Raster, error) {
	return s.Compositor.Bake(snap.Current.Image, snap.Current.Filters, snap.Current.Rotation, true)
}

// BakeProject renders the live state of the project with the given ID.
func (s *Studio) BakeProject(ctx context.Context, id string) (*raster.Raster, error) {
	snap, err := s.Registry.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Bake(ctx, snap)
}

// Rotate turns a project a further 90 degrees clockwise.
func (s *Studio) Rotate(id string) (history.Step, bool, error) {
	return s.Registry.Update(id, RotateDescription, func(cur history.State) history.Change {
		return history.WithRotation(cur.Rotation + 90)
	})
}

// Reset returns a project's filters to identity and its rotation to zero,
// keeping the current image.
func (s *Studio) Reset(id string) (history.Step, bool, error) {
	identity := filters.Identity()
	zero := 0
	return s.Registry.Apply(id, ResetDescription, history.Change{Filters: &identity, Rotation: &zero})
}

// ApplyPreset replaces a project's filters with a named preset.
func (s *Studio) ApplyPreset(id, name string) (history.Step, bool, error) {
	p, ok := filters.LookupPreset(name)
	if !ok {
		return history.Step{}, false, herrors.NewNotFound("preset", name)
	}
	return s.Registry.Apply(id, p.Description(), history.WithFilters(p.Filters))
}

// ApplyPresetToAll applies a named preset to every project.
func (s *Studio) ApplyPresetToAll(name string) ([]registry.Outcome, error) {
	p, ok := filters.LookupPreset(name)
	if !ok {
		return nil, herrors.NewNotFound("preset", name)
	}
	return s.Registry.ApplyPresetToAll(p), nil
}

func (s *Studio) provider() string {
	if s.Provider == "" {
		return "ai"
	}
	return s.Provider
}

func toImage(r *raster.Raster) providers.Image {
	return providers.Image{Data: r.Bytes(), MimeType: r.MimeType}
}
