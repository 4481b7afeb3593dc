package cmd

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/harding/internal/journal"
	"github.com/lehigh-university-libraries/harding/internal/studio"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HARDING_PROVIDER", "gemini")
	t.Setenv("HARDING_EXPORT_DELAY", "0s")

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--config", filepath.Join(t.TempDir(), "missing.yaml")))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func noiseJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(int64(w * h)))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func TestDevelop(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	b := filepath.Join(dir, "b.png")
	writePNG(t, a, 4, 2)
	writePNG(t, b, 4, 2)
	outDir := filepath.Join(dir, "out")
	journalPath := filepath.Join(dir, "history.parquet")

	out, err := execute(t, "develop", a, b,
		"--preset", "Vintage",
		"--set", "brightness=120",
		"--rotate", "90",
		"--out", outDir,
		"--journal", journalPath,
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Exported 2, failed 0")

	m, err := studio.ReadManifest(filepath.Join(outDir, studio.ManifestName))
	require.NoError(t, err)
	require.Len(t, m.Items, 2)
	assert.Equal(t, "harding-a.png", m.Items[0].File)
	assert.Equal(t, 2, m.Items[0].Width, "rotation swaps the exported dimensions")
	assert.Equal(t, 120.0, m.Items[0].Filters.Brightness)
	assert.Equal(t, 80.0, m.Items[0].Filters.Saturation)
	assert.Equal(t, 4, m.Items[0].Steps)

	rows, err := journal.ReadFile(journalPath)
	require.NoError(t, err)
	assert.Len(t, rows, 8)

	out, err = execute(t, "journal", journalPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Preset: Vintage")
	assert.Contains(t, out, "Rotate 90°")
}

func TestDevelopRejectsUnknownPreset(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.png")
	writePNG(t, a, 2, 2)

	_, err := execute(t, "develop", a, "--preset", "Sepia", "--out", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Sepia")
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	small := noiseJPEG(t, 160, 120)
	large := noiseJPEG(t, 320, 240)
	var container []byte
	container = append(container, []byte("II*\x00")...)
	container = append(container, small...)
	container = append(container, bytes.Repeat([]byte{0}, 64)...)
	container = append(container, large...)
	raw := filepath.Join(dir, "IMG_0001.CR2")
	require.NoError(t, os.WriteFile(raw, container, 0644))

	out, err := execute(t, "preview", raw)
	require.NoError(t, err)
	assert.Contains(t, out, "2 candidate(s)")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "[0] IMG_0001.CR2-")
	assert.Contains(t, lines[1], "320 x 240")

	target := filepath.Join(dir, "small.jpg")
	_, err = execute(t, "preview", raw, "--extract", "1", "-o", target)
	require.NoError(t, err)
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, small, got)

	_, err = execute(t, "preview", raw, "--extract", "2")
	assert.Error(t, err)
}
