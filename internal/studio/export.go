package studio

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/harding/internal/filters"
)

// ManifestName is the file written next to the exported images.
const ManifestName = "manifest.yaml"

// Manifest records the outcome of one export run.
type Manifest struct {
	Generated string         `yaml:"generated" json:"generated"`
	Directory string         `yaml:"directory" json:"directory"`
	Prefix    string         `yaml:"prefix" json:"prefix"`
	Exported  int            `yaml:"exported" json:"exported"`
	Failed    int            `yaml:"failed" json:"failed"`
	Items     []ManifestItem `yaml:"items" json:"items"`
}

// ManifestItem is one project's line in the manifest.
type ManifestItem struct {
	ProjectID string      `yaml:"project_id" json:"project_id"`
	Name      string      `yaml:"name" json:"name"`
	File      string      `yaml:"file,omitempty" json:"file,omitempty"`
	MimeType  string      `yaml:"mime_type,omitempty" json:"mime_type,omitempty"`
	Width     int         `yaml:"width,omitempty" json:"width,omitempty"`
	Height    int         `yaml:"height,omitempty" json:"height,omitempty"`
	Bytes     int         `yaml:"bytes,omitempty" json:"bytes,omitempty"`
	Head      string      `yaml:"head" json:"head"`
	Steps     int         `yaml:"steps" json:"steps"`
	Rotation  int         `yaml:"rotation" json:"rotation"`
	Filters   filters.Set `yaml:"filters" json:"filters"`
	Error     string      `yaml:"error,omitempty" json:"error,omitempty"`
}

// Extension returns the file extension for an encoded MIME type.
func Extension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

// exportFilename swaps the extension of name for the one matching mimeType.
func exportFilename(name, mimeType string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Base(base) + Extension(mimeType)
}

// uniqueFilename returns file, or file with a -N suffix before the extension
// when an earlier export already took that name.
func uniqueFilename(file string, used map[string]bool) string {
	ext := filepath.Ext(file)
	base := strings.TrimSuffix(file, ext)
	name := file
	for n := 1; used[name]; n++ {
		name = fmt.Sprintf("%s-%d%s", base, n, ext)
	}
	used[name] = true
	return name
}

// ExportTo bakes every project's live state into dir, one file per project
// in import order, and writes a manifest. Failed projects are listed in the
// manifest with their error; the returned error is for the directory and
// manifest only.
func (s *Studio) ExportTo(ctx context.Context, dir string) (Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Manifest{}, fmt.Errorf("failed to create export directory: %w", err)
	}

	exports := s.Registry.ExportAll(ctx, s.Bake, s.Export)
	m := Manifest{
		Generated: time.Now().Format(time.RFC3339),
		Directory: dir,
		Prefix:    s.Export.Prefix,
		Items:     make([]ManifestItem, 0, len(exports)),
	}
	used := make(map[string]bool, len(exports))

	for _, e := range exports {
		item := ManifestItem{
			ProjectID: e.ProjectID,
			Name:      e.Name,
			Head:      e.Head,
			Steps:     e.Steps,
			Rotation:  e.State.Rotation,
			Filters:   e.State.Filters,
		}
		if e.Err == nil {
			item.File = uniqueFilename(exportFilename(e.Filename, e.Raster.MimeType), used)
			if err := os.WriteFile(filepath.Join(dir, item.File), e.Raster.Bytes(), 0644); err != nil {
				e.Err = fmt.Errorf("failed to write %s: %w", item.File, err)
				item.File = ""
			}
		}
		if e.Err != nil {
			item.Error = e.Err.Error()
			m.Failed++
		} else {
			item.MimeType = e.Raster.MimeType
			item.Width = e.Raster.Width
			item.Height = e.Raster.Height
			item.Bytes = e.Raster.Size()
			m.Exported++
		}
		m.Items = append(m.Items, item)
	}

	if err := WriteManifest(filepath.Join(dir, ManifestName), m); err != nil {
		return m, err
	}
	slog.Info("Export finished", "directory", dir, "exported", m.Exported, "failed", m.Failed)
	return m, nil
}

// WriteManifest saves m as YAML.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return m, nil
}
