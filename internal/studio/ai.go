package studio

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/history"
	"github.com/lehigh-university-libraries/harding/internal/providers"
	"github.com/lehigh-university-libraries/harding/internal/raster"
	"github.com/lehigh-university-libraries/harding/internal/registry"
	"github.com/lehigh-university-libraries/harding/internal/tools"
)

const (
	// StyleTransferDescription labels edits made with a style reference.
	StyleTransferDescription = "Style Transfer"
	// GeneratedDescription seeds the history of generated samples.
	GeneratedDescription = "AI Generated"

	descriptionPromptLen = 20
)

// Actions are fixed AI edits that need no prompt.
const (
	ActionAutoEdit         = "auto"
	ActionRemoveBackground = "remove-background"
)

// EditRequest describes one AI edit. Exactly one of Prompt, Tool or Action
// selects the instruction; with only Style set the style-transfer
// instruction is used.
type EditRequest struct {
	ProjectID string
	Prompt    string
	Tool      string
	Fill      map[string]string
	Action    string
	Style     *raster.Raster
}

// prompt resolves the instruction text sent to the editing service.
func (r EditRequest) prompt() (string, error) {
	switch {
	case r.Tool != "":
		t, ok := tools.Find(r.Tool)
		if !ok {
			return "", herrors.NewNotFound("tool", r.Tool)
		}
		p, err := t.Prompt(r.Fill)
		if err != nil {
			return "", herrors.NewInvalidRequest(err.Error())
		}
		return p, nil
	case r.Action == ActionAutoEdit:
		return tools.AutoEditPrompt, nil
	case r.Action == ActionRemoveBackground:
		return tools.RemoveBackgroundPrompt, nil
	case r.Action != "":
		return "", herrors.NewInvalidRequest(fmt.Sprintf("unknown action %q", r.Action))
	case strings.TrimSpace(r.Prompt) != "":
		return strings.TrimSpace(r.Prompt), nil
	case r.Style != nil:
		return tools.StyleTransferPrompt, nil
	default:
		return "", herrors.NewInvalidRequest("an AI edit needs a prompt, tool, action or style reference")
	}
}

// EditDescription is the history label for an AI edit.
func EditDescription(prompt string, style bool) string {
	if style {
		return StyleTransferDescription
	}
	runes := []rune(prompt)
	if len(runes) > descriptionPromptLen {
		return "AI: " + string(runes[:descriptionPromptLen]) + "..."
	}
	return "AI: " + prompt
}

// AIEdit bakes the project's live state, sends it to the editor and commits
// the returned image with identity filters and no rotation, since both are
// already rendered into it. The project is BUSY until the call returns. On
// any failure the project is left unchanged.
func (s *Studio) AIEdit(ctx context.Context, req EditRequest) (history.Step, error) {
	prompt, err := req.prompt()
	if err != nil {
		return history.Step{}, err
	}
	if s.Editor == nil {
		return history.Step{}, herrors.NewExternalServiceFailure(s.provider(), fmt.Errorf("no image editing provider configured"))
	}

	lease, err := s.Registry.Begin(req.ProjectID, "ai-edit")
	if err != nil {
		return history.Step{}, err
	}
	defer lease.Release()

	snap := lease.Snapshot()
	baked, err := s.Bake(ctx, snap)
	if err != nil {
		return history.Step{}, err
	}

	var style *providers.Image
	if req.Style != nil {
		img := toImage(req.Style)
		style = &img
	}

	cfg := s.EditConfig
	cfg.Prompt = prompt
	start := time.Now()
	out, err := s.Editor.EditImage(ctx, cfg, toImage(baked), style)
	if err != nil {
		slog.Error("AI edit failed", "project", snap.ID, "provider", s.provider(), "err", err)
		return history.Step{}, herrors.NewExternalServiceFailure(s.provider(), err)
	}
	edited, err := raster.New(out.Data, out.MimeType)
	if err != nil {
		slog.Error("AI edit returned an unreadable image", "project", snap.ID, "provider", s.provider(), "err", err)
		return history.Step{}, herrors.NewExternalServiceFailure(s.provider(), err)
	}

	identity := filters.Identity()
	zero := 0
	step, _, err := lease.Commit(EditDescription(prompt, req.Style != nil), history.Change{
		Image:    edited,
		Filters:  &identity,
		Rotation: &zero,
	})
	if err != nil {
		return history.Step{}, err
	}
	slog.Info("Applied AI edit", "project", snap.ID, "step", step.ID, "description", step.Description, "duration", time.Since(start))
	return step, nil
}

// SampleName is the project name given to a generated sample.
func SampleName(t time.Time) string {
	return fmt.Sprintf("ai-sample-%d.png", t.Unix())
}

// Generate synthesizes an image from prompt, or from a random sample prompt
// when prompt is empty, and opens it as a new focused project.
func (s *Studio) Generate(ctx context.Context, prompt string) (registry.Snapshot, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		prompt = tools.SamplePrompts[rand.IntN(len(tools.SamplePrompts))]
	}
	if s.Editor == nil {
		return registry.Snapshot{}, herrors.NewExternalServiceFailure(s.provider(), fmt.Errorf("no image generation provider configured"))
	}

	cfg := s.EditConfig
	cfg.Prompt = prompt
	out, err := s.Editor.GenerateImage(ctx, cfg)
	if err != nil {
		slog.Error("Sample generation failed", "provider", s.provider(), "err", err)
		return registry.Snapshot{}, herrors.NewExternalServiceFailure(s.provider(), err)
	}
	img, err := raster.New(out.Data, "image/png")
	if err != nil {
		return registry.Snapshot{}, herrors.NewExternalServiceFailure(s.provider(), err)
	}

	return s.Registry.Import(img, SampleName(time.Now()), registry.ImportOptions{
		Focus: true,
		Seed:  GeneratedDescription,
	})
}
