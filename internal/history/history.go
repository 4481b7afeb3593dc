// Package history keeps the linear undo/redo timeline of one image.
//
// A Store holds the committed steps, a cursor into them, and an optional
// transient preview of filter values that has not been committed yet. The
// live state is the step at the cursor with the preview laid over it.
// Store is not safe for concurrent use; the registry serializes access.
package history

import (
	"time"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/ids"
	"github.com/lehigh-university-libraries/harding/internal/raster"
)

// OriginalImport describes the seed step of every timeline.
const OriginalImport = "Original Import"

// State is a fully specified visual state.
type State struct {
	Image    *raster.Raster
	Filters  filters.Set
	Rotation int
}

// Equal compares image identity, exact filter values and rotation.
func (s State) Equal(o State) bool {
	return s.Image == o.Image && s.Filters.Equal(o.Filters) && s.Rotation == o.Rotation
}

// Step is one committed, immutable state in the timeline.
type Step struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	State
}

// Change describes the next state relative to the live one. Nil fields keep
// the live value.
type Change struct {
	Image    *raster.Raster
	Filters  *filters.Set
	Rotation *int
}

// WithImage, WithFilters and WithRotation build single-field changes.
func WithImage(img *raster.Raster) Change { return Change{Image: img} }
func WithFilters(f filters.Set) Change    { return Change{Filters: &f} }
func WithRotation(deg int) Change         { return Change{Rotation: &deg} }

// Store is the timeline of one image.
type Store struct {
	steps   []Step
	cursor  int
	preview *filters.Set
}

// New seeds a timeline with the original image, identity filters and no rotation.
func New(original *raster.Raster) *Store {
	return NewSeeded(OriginalImport, original)
}

// NewSeeded is New with a custom description for the seed step.
func NewSeeded(description string, original *raster.Raster) *Store {
	if description == "" {
		description = OriginalImport
	}
	s := &Store{}
	s.steps = []Step{newStep(description, State{
		Image:    original,
		Filters:  filters.Identity(),
		Rotation: 0,
	})}
	return s
}

func newStep(description string, st State) Step {
	return Step{
		ID:          ids.New(),
		Description: description,
		Timestamp:   time.Now(),
		State:       st,
	}
}

// Push commits the live state with c applied as a new step. A state equal to
// the step at the cursor is not recorded and Push reports false. Otherwise
// any steps after the cursor are discarded, the new step becomes the head,
// and the preview is cleared.
func (s *Store) Push(description string, c Change) (Step, bool) {
	next := s.Current()
	if c.Image != nil {
		next.Image = c.Image
	}
	if c.Filters != nil {
		next.Filters = *c.Filters
	}
	if c.Rotation != nil {
		next.Rotation = normalizeRotation(*c.Rotation)
	}

	if next.Equal(s.steps[s.cursor].State) {
		s.preview = nil
		return s.steps[s.cursor], false
	}

	step := newStep(description, next)
	s.steps = append(s.steps[:s.cursor+1:s.cursor+1], step)
	s.cursor = len(s.steps) - 1
	s.preview = nil
	return step, true
}

// Preview replaces the transient filter values. It never touches the steps.
func (s *Store) Preview(f filters.Set) {
	s.preview = &f
}

// DiscardPreview drops any transient filter values.
func (s *Store) DiscardPreview() {
	s.preview = nil
}

// Previewing reports whether transient filter values are set.
func (s *Store) Previewing() bool {
	return s.preview != nil
}

// Undo moves the cursor back one step. It reports false at the first step.
func (s *Store) Undo() bool {
	if s.cursor == 0 {
		return false
	}
	s.moveTo(s.cursor - 1)
	return true
}

// Redo moves the cursor forward one step. It reports false at the head.
func (s *Store) Redo() bool {
	if s.cursor >= len(s.steps)-1 {
		return false
	}
	s.moveTo(s.cursor + 1)
	return true
}

// Restore moves the cursor to index.
func (s *Store) Restore(index int) error {
	if index < 0 || index >= len(s.steps) {
		return herrors.NewOutOfRange("history", index, len(s.steps))
	}
	s.moveTo(index)
	return nil
}

func (s *Store) moveTo(index int) {
	s.cursor = index
	s.preview = nil
}

// Current returns the live state.
func (s *Store) Current() State {
	st := s.steps[s.cursor].State
	if s.preview != nil {
		st.Filters = *s.preview
	}
	return st
}

// Head returns the step at the cursor.
func (s *Store) Head() Step {
	return s.steps[s.cursor]
}

// Cursor returns the index of the active step.
func (s *Store) Cursor() int {
	return s.cursor
}

// Len returns the number of steps.
func (s *Store) Len() int {
	return len(s.steps)
}

// Steps returns a copy of the timeline.
func (s *Store) Steps() []Step {
	out := make([]Step, len(s.steps))
	copy(out, s.steps)
	return out
}

// CanUndo and CanRedo report whether Undo or Redo would move the cursor.
func (s *Store) CanUndo() bool { return s.cursor > 0 }
func (s *Store) CanRedo() bool { return s.cursor < len(s.steps)-1 }

func normalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}
