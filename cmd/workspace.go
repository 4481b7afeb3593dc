package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/harding/internal/compositor"
	"github.com/lehigh-university-libraries/harding/internal/config"
	"github.com/lehigh-university-libraries/harding/internal/gemini"
	"github.com/lehigh-university-libraries/harding/internal/importer"
	"github.com/lehigh-university-libraries/harding/internal/ollama"
	"github.com/lehigh-university-libraries/harding/internal/openai"
	"github.com/lehigh-university-libraries/harding/internal/preview"
	"github.com/lehigh-university-libraries/harding/internal/providers"
	"github.com/lehigh-university-libraries/harding/internal/registry"
	"github.com/lehigh-university-libraries/harding/internal/storage"
	"github.com/lehigh-university-libraries/harding/internal/studio"
)

// newWorkspace builds an empty registry with a studio and importer configured from cfg
func newWorkspace(cfg *config.Config) (*studio.Studio, *importer.Importer, error) {
	reg := registry.New()
	st := studio.New(reg)
	st.Compositor = compositor.Compositor{JPEGQuality: cfg.JPEGQuality}
	st.Export = registry.ExportOptions{Prefix: cfg.ExportPrefix, Delay: cfg.ExportDelay}

	// Create provider based on configuration
	st.Provider = cfg.Provider
	switch cfg.Provider {
	case "gemini":
		g := gemini.New()
		st.Editor, st.Enhancer = g, g
	case "openai":
		o := openai.New()
		st.Editor, st.Enhancer = o, o
	case "ollama":
		// Ollama only suggests adjustments; AI edits stay unavailable.
		st.Enhancer = ollama.New()
	default:
		return nil, nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	st.EditConfig = providers.Config{Model: cfg.EditModelName(), Temperature: cfg.Temperature}
	st.EnhanceConfig = providers.Config{Model: cfg.EnhanceModelName(), Temperature: cfg.Temperature}

	imp := importer.New(reg, storage.New(), preview.Scanner{MinSize: cfg.MinPreviewBytes})
	return st, imp, nil
}
