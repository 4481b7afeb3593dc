package registry

import (
	"log/slog"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/history"
)

// mutate runs fn under the project lock, unless an operation is in flight.
func (p *Project) mutate(fn func(h *history.Store) error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight != "" {
		return herrors.NewBusy(p.id, p.inFlight)
	}
	return fn(p.history)
}

func (p *Project) push(description string, c history.Change) (history.Step, bool, error) {
	return p.update(description, func(history.State) history.Change { return c })
}

// update derives a change from the live state and pushes it under one lock.
func (p *Project) update(description string, fn func(history.State) history.Change) (history.Step, bool, error) {
	var (
		step history.Step
		ok   bool
	)
	err := p.mutate(func(h *history.Store) error {
		step, ok = h.Push(description, fn(h.Current()))
		return nil
	})
	if err != nil {
		return history.Step{}, false, err
	}
	if ok {
		slog.Debug("Committed step", "project", p.id, "step", step.ID, "description", description)
	}
	return step, ok, nil
}

// Preview sets transient filter values on a project. Previews are never
// recorded in history and each one replaces the last.
func (r *Registry) Preview(id string, f filters.Set) error {
	p, _, err := r.lookup(id)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history.Preview(f)
	return nil
}

// DiscardPreview drops a project's transient filter values.
func (r *Registry) DiscardPreview(id string) error {
	p, _, err := r.lookup(id)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.history.DiscardPreview()
	return nil
}

// Commit records the project's live state, preview included, as one step.
func (r *Registry) Commit(id, description string) (history.Step, bool, error) {
	return r.Apply(id, description, history.Change{})
}

// Apply pushes a change onto a project's history. The returned bool is false
// when the resulting state equals the current step and nothing was recorded.
func (r *Registry) Apply(id, description string, c history.Change) (history.Step, bool, error) {
	p, _, err := r.lookup(id)
	if err != nil {
		return history.Step{}, false, err
	}
	return p.push(description, c)
}

// Update pushes the change fn derives from a project's current state. The
// read and the push happen under one lock, so concurrent relative edits such
// as rotations are never lost.
func (r *Registry) Update(id, description string, fn func(history.State) history.Change) (history.Step, bool, error) {
	p, _, err := r.lookup(id)
	if err != nil {
		return history.Step{}, false, err
	}
	return p.update(description, fn)
}

// ApplyToActive pushes a change onto the active project's history.
func (r *Registry) ApplyToActive(description string, c history.Change) (history.Step, bool, error) {
	p, _, err := r.activeProject()
	if err != nil {
		return history.Step{}, false, err
	}
	return p.push(description, c)
}

// Undo moves a project back one step. It reports whether the cursor moved.
func (r *Registry) Undo(id string) (bool, error) {
	return r.move(id, (*history.Store).Undo)
}

// Redo moves a project forward one step. It reports whether the cursor moved.
func (r *Registry) Redo(id string) (bool, error) {
	return r.move(id, (*history.Store).Redo)
}

func (r *Registry) move(id string, fn func(*history.Store) bool) (bool, error) {
	p, _, err := r.lookup(id)
	if err != nil {
		return false, err
	}
	var moved bool
	err = p.mutate(func(h *history.Store) error {
		moved = fn(h)
		return nil
	})
	return moved, err
}

// Restore jumps a project to the step at index.
func (r *Registry) Restore(id string, index int) error {
	p, _, err := r.lookup(id)
	if err != nil {
		return err
	}
	return p.mutate(func(h *history.Store) error {
		return h.Restore(index)
	})
}

// Lease marks one project as having an operation in flight. Until it is
// committed or released, every other mutation of that project fails with
// BUSY, while other projects remain editable.
type Lease struct {
	p        *Project
	op       string
	snapshot Snapshot
	done     bool
}

// Begin takes the in-flight lease on a project for op.
func (r *Registry) Begin(id, op string) (*Lease, error) {
	p, index, err := r.lookup(id)
	if err != nil {
		return nil, err
	}
	return p.begin(index, op)
}

// BeginActive takes the in-flight lease on the active project.
func (r *Registry) BeginActive(op string) (*Lease, error) {
	p, index, err := r.activeProject()
	if err != nil {
		return nil, err
	}
	return p.begin(index, op)
}

func (p *Project) begin(index int, op string) (*Lease, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight != "" {
		return nil, herrors.NewBusy(p.id, p.inFlight)
	}
	p.inFlight = op
	l := &Lease{p: p, op: op}
	l.snapshot = p.snapshotLocked(index)
	return l, nil
}

// Snapshot is the project as it was when the lease was taken.
func (l *Lease) Snapshot() Snapshot {
	return l.snapshot
}

// Commit pushes c onto the project's current head and releases the lease.
func (l *Lease) Commit(description string, c history.Change) (history.Step, bool, error) {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	if l.done {
		return history.Step{}, false, herrors.NewInvalidRequest("lease for " + l.op + " already released")
	}
	l.done = true
	l.p.inFlight = ""

	step, ok := l.p.history.Push(description, c)
	if ok {
		slog.Debug("Committed step", "project", l.p.id, "step", step.ID, "description", description, "operation", l.op)
	}
	return step, ok, nil
}

// Release ends the lease without changing the project. It is safe to call
// after Commit.
func (l *Lease) Release() {
	l.p.mu.Lock()
	defer l.p.mu.Unlock()
	if l.done {
		return
	}
	l.done = true
	l.p.inFlight = ""
}
