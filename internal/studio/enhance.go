package studio

import (
	"context"
	"fmt"
	"log/slog"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/history"
	"github.com/lehigh-university-libraries/harding/internal/providers"
)

// Mode selects which suggested values an auto-enhancement keeps.
type Mode string

const (
	ModeLevels Mode = "levels"
	ModeColor  Mode = "color"
	ModeAll    Mode = "all"
)

// ParseMode accepts a mode name. Empty means ModeAll.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAll:
		return ModeAll, nil
	case ModeLevels, ModeColor:
		return Mode(s), nil
	}
	return "", herrors.NewInvalidRequest(fmt.Sprintf("unknown enhancement mode %q (want levels, color or all)", s))
}

// Description is the history label for the mode.
func (m Mode) Description() string {
	switch m {
	case ModeLevels:
		return "Auto Levels"
	case ModeColor:
		return "Auto Color"
	default:
		return "Auto Enhance"
	}
}

// overrides picks the suggested values the mode applies.
func (m Mode) overrides(a providers.Adjustments) map[string]float64 {
	switch m {
	case ModeLevels:
		return map[string]float64{"brightness": a.Brightness, "contrast": a.Contrast}
	case ModeColor:
		return map[string]float64{"saturation": a.Saturation}
	default:
		return map[string]float64{
			"brightness": a.Brightness,
			"contrast":   a.Contrast,
			"saturation": a.Saturation,
		}
	}
}

// AutoEnhance asks the enhancer for adjustments to the project's image with
// geometry applied but no filters, merges the values the mode selects into
// the live filters, and commits them as one step.
func (s *Studio) AutoEnhance(ctx context.Context, id string, mode Mode) (history.Step, bool, error) {
	if s.Enhancer == nil {
		return history.Step{}, false, herrors.NewExternalServiceFailure(s.provider(), fmt.Errorf("no enhancement provider configured"))
	}

	lease, err := s.Registry.Begin(id, "auto-enhance")
	if err != nil {
		return history.Step{}, false, err
	}
	defer lease.Release()

	snap := lease.Snapshot()
	plain, err := s.Compositor.Bake(snap.Current.Image, snap.Current.Filters, snap.Current.Rotation, false)
	if err != nil {
		return history.Step{}, false, err
	}

	adj, err := s.Enhancer.SuggestAdjustments(ctx, s.EnhanceConfig, toImage(plain))
	if err != nil {
		slog.Error("Auto enhancement failed", "project", id, "provider", s.provider(), "err", err)
		return history.Step{}, false, herrors.NewExternalServiceFailure(s.provider(), err)
	}

	merged, err := filters.Merge(snap.Current.Filters, mode.overrides(adj))
	if err != nil {
		return history.Step{}, false, herrors.NewInternal(err)
	}
	step, ok, err := lease.Commit(mode.Description(), history.WithFilters(merged))
	if err != nil {
		return history.Step{}, false, err
	}
	slog.Info("Applied auto enhancement", "project", id, "mode", mode, "brightness", adj.Brightness, "contrast", adj.Contrast, "saturation", adj.Saturation, "committed", ok)
	return step, ok, nil
}
