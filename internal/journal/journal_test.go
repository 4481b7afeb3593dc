package journal

import (
	"bytes"
	"image"
	"image/png"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/history"
	"github.com/lehigh-university-libraries/harding/internal/raster"
	"github.com/lehigh-university-libraries/harding/internal/registry"
)

func testRaster(t *testing.T, w, h int) *raster.Raster {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("Failed to encode png: %v", err)
	}
	r, err := raster.New(buf.Bytes(), "image/png")
	if err != nil {
		t.Fatalf("Failed to create raster: %v", err)
	}
	return r
}

func session(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	a, err := reg.Import(testRaster(t, 4, 3), "a.png", registry.ImportOptions{})
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if _, err := reg.Import(testRaster(t, 2, 2), "b.png", registry.ImportOptions{}); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	preset, _ := filters.LookupPreset("Warmth")
	if _, _, err := reg.Apply(a.ID, preset.Description(), history.WithFilters(preset.Filters)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, _, err := reg.Apply(a.ID, "Rotate 90°", history.WithRotation(90)); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := reg.Undo(a.ID); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	return reg
}

func TestRows(t *testing.T) {
	rows := Rows(session(t).List())
	if len(rows) != 4 {
		t.Fatalf("Expected 4 rows, got %d", len(rows))
	}

	tests := []struct {
		i           int
		name        string
		stepIndex   int
		description string
		current     bool
		rotation    int
	}{
		{0, "a.png", 0, history.OriginalImport, false, 0},
		{1, "a.png", 1, "Preset: Warmth", true, 0},
		{2, "a.png", 2, "Rotate 90°", false, 90},
		{3, "b.png", 0, history.OriginalImport, true, 0},
	}
	for _, tt := range tests {
		r := rows[tt.i]
		if r.ProjectName != tt.name || r.StepIndex != tt.stepIndex || r.Description != tt.description {
			t.Errorf("Row %d: expected %s/%d/%s, got %s/%d/%s", tt.i, tt.name, tt.stepIndex, tt.description, r.ProjectName, r.StepIndex, r.Description)
		}
		if r.Current != tt.current {
			t.Errorf("Row %d: expected current=%v, got %v", tt.i, tt.current, r.Current)
		}
		if r.Rotation != tt.rotation {
			t.Errorf("Row %d: expected rotation %d, got %d", tt.i, tt.rotation, r.Rotation)
		}
	}
	if rows[1].Filters.Temperature != 30 {
		t.Errorf("Expected warmth temperature 30, got %v", rows[1].Filters.Temperature)
	}
	if rows[0].Width != 4 || rows[0].Height != 3 || rows[0].MimeType != "image/png" {
		t.Errorf("Expected 4x3 image/png, got %dx%d %s", rows[0].Width, rows[0].Height, rows[0].MimeType)
	}
}

func TestWriteReadFile(t *testing.T) {
	rows := Rows(session(t).List())
	path := filepath.Join(t.TempDir(), "journal.parquet")

	if err := WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("Expected %d rows, got %d", len(rows), len(got))
	}
	for i := range rows {
		if got[i] != rows[i] {
			t.Errorf("Row %d: expected %+v, got %+v", i, rows[i], got[i])
		}
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.parquet")); err == nil {
		t.Error("Expected error for missing file")
	}
}
