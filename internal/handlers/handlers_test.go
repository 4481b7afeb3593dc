package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/harding/internal/config"
	"github.com/lehigh-university-libraries/harding/internal/images"
	"github.com/lehigh-university-libraries/harding/internal/importer"
	"github.com/lehigh-university-libraries/harding/internal/preview"
	"github.com/lehigh-university-libraries/harding/internal/providers"
	"github.com/lehigh-university-libraries/harding/internal/raster"
	"github.com/lehigh-university-libraries/harding/internal/registry"
	"github.com/lehigh-university-libraries/harding/internal/storage"
	"github.com/lehigh-university-libraries/harding/internal/studio"
)

type fakeProvider struct {
	out     providers.Image
	editErr error
	adj     providers.Adjustments
}

func (f *fakeProvider) EditImage(context.Context, providers.Config, providers.Image, *providers.Image) (providers.Image, error) {
	return f.out, f.editErr
}

func (f *fakeProvider) GenerateImage(context.Context, providers.Config) (providers.Image, error) {
	return f.out, f.editErr
}

func (f *fakeProvider) SuggestAdjustments(context.Context, providers.Config, providers.Image) (providers.Adjustments, error) {
	return f.adj, nil
}

type testServer struct {
	handler  *Handler
	mux      *http.ServeMux
	provider *fakeProvider
	reg      *registry.Registry
	cfg      *config.Config
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.ExportDir = t.TempDir()
	cfg.ExportDelay = 0

	reg := registry.New()
	provider := &fakeProvider{
		out: providers.Image{Data: pngBytes(t, 5, 5, color.White), MimeType: "image/png"},
		adj: providers.Adjustments{Brightness: 105, Contrast: 110, Saturation: 95},
	}
	st := studio.New(reg)
	st.Provider = "fake"
	st.Editor = provider
	st.Enhancer = provider
	st.Export = registry.ExportOptions{Prefix: cfg.ExportPrefix}

	imp := importer.New(reg, storage.New(), preview.Scanner{})
	h := New(cfg, st, imp, images.NewFetcher(cfg.MaxUploadBytes))
	mux := http.NewServeMux()
	h.Routes(mux)
	return &testServer{handler: h, mux: mux, provider: provider, reg: reg, cfg: cfg}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, files map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type projectResponse struct {
	ID         string `json:"id"`
	Index      int    `json:"index"`
	Active     bool   `json:"active"`
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	Rotation   int    `json:"rotation"`
	Previewing bool   `json:"previewing"`
	Cursor     int    `json:"history_cursor"`
	Filters    struct {
		Brightness float64 `json:"brightness"`
		Contrast   float64 `json:"contrast"`
		Saturation float64 `json:"saturation"`
	} `json:"filters"`
	History []struct {
		Description string `json:"description"`
	} `json:"history"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func noiseJPEG(t *testing.T, w, h int, seed int64) []byte {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = uint8(rng.Intn(256))
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}))
	return buf.Bytes()
}

func rawContainer(previews ...[]byte) []byte {
	out := []byte("II*\x00\x10\x00\x00\x00CR\x02\x00")
	pad := bytes.Repeat([]byte{0x11}, 128)
	for _, p := range previews {
		out = append(out, pad...)
		out = append(out, p...)
	}
	return append(out, pad...)
}

// importPNG uploads one PNG and returns its project ID.
func (s *testServer) importPNG(t *testing.T, name string, w, h int) string {
	t.Helper()
	rec := s.upload(t, map[string][]byte{name: pngBytes(t, w, h, color.NRGBA{R: 90, G: 120, B: 200, A: 255})})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[struct {
		Results []struct {
			Project projectResponse `json:"project"`
		} `json:"results"`
	}](t, rec)
	require.Len(t, resp.Results, 1)
	return resp.Results[0].Project.ID
}

func TestUploadFiles(t *testing.T) {
	s := newTestServer(t)
	rec := s.upload(t, map[string][]byte{
		"a.png":     pngBytes(t, 4, 3, color.Black),
		"notes.txt": []byte("hello there"),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[struct {
		Imported int `json:"imported"`
		Failed   int `json:"failed"`
		Results  []struct {
			Filename string           `json:"filename"`
			Project  *projectResponse `json:"project"`
			Code     string           `json:"code"`
		} `json:"results"`
	}](t, rec)
	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, 1, resp.Failed)
	for _, r := range resp.Results {
		switch r.Filename {
		case "a.png":
			require.NotNil(t, r.Project)
			assert.Equal(t, 4, r.Project.Width)
			assert.True(t, r.Project.Active)
		case "notes.txt":
			assert.Equal(t, "INVALID_REQUEST", r.Code)
		}
	}
}

func TestUploadRAWSelection(t *testing.T) {
	s := newTestServer(t)
	small := noiseJPEG(t, 160, 120, 1)
	large := noiseJPEG(t, 320, 240, 2)
	rec := s.upload(t, map[string][]byte{"IMG_0001.CR2": rawContainer(small, large)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[struct {
		Pending int `json:"pending"`
		Results []struct {
			Pending struct {
				ID         string `json:"id"`
				Candidates []struct {
					ID    string `json:"id"`
					Width int    `json:"width"`
				} `json:"candidates"`
			} `json:"pending"`
		} `json:"results"`
	}](t, rec)
	require.Equal(t, 1, resp.Pending)
	pending := resp.Results[0].Pending
	require.Len(t, pending.Candidates, 2)
	assert.Equal(t, 320, pending.Candidates[0].Width, "largest candidate first")

	rec = s.do(t, "GET", "/api/pending", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), pending.ID)

	rec = s.do(t, "GET", "/api/pending/"+pending.ID+"/candidates/1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, small, rec.Body.Bytes())

	rec = s.do(t, "GET", "/api/pending/"+pending.ID+"/candidates/7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "POST", "/api/pending/"+pending.ID+"/select", map[string]int{"candidate": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	project := decode[projectResponse](t, rec)
	assert.Equal(t, "IMG_0001.CR2", project.Name)
	assert.Equal(t, 160, project.Width)

	rec = s.do(t, "POST", "/api/pending/"+pending.ID+"/select", map[string]int{"candidate": 0})
	assert.Equal(t, http.StatusNotFound, rec.Code, "selection consumes the pending import")
}

func TestUploadRAWWithoutPreview(t *testing.T) {
	s := newTestServer(t)
	rec := s.upload(t, map[string][]byte{"broken.cr3": rawContainer()})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "NO_PREVIEW_FOUND")
	assert.Equal(t, 0, s.reg.Len())
}

func TestUploadFromURL(t *testing.T) {
	s := newTestServer(t)
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes(t, 6, 2, color.Black))
	}))
	defer remote.Close()

	rec := s.do(t, "POST", "/api/upload", map[string]any{"image_url": remote.URL + "/skyline.png"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"name":"skyline.png"`)

	rec = s.do(t, "POST", "/api/upload", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadFromURLRejectsOversizedBody(t *testing.T) {
	s := newTestServer(t)
	padding := strings.Repeat("a", maxURLRequestBytes)
	rec := s.do(t, "POST", "/api/upload", map[string]any{"image_url": "http://example.com/" + padding + ".png"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
	assert.Empty(t, s.reg.List(), "nothing is imported")
}

func TestProjectsAndActive(t *testing.T) {
	s := newTestServer(t)
	first := s.importPNG(t, "a.png", 2, 2)
	second := s.importPNG(t, "b.png", 2, 2)

	rec := s.do(t, "GET", "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Active   int               `json:"active"`
		Projects []projectResponse `json:"projects"`
	}](t, rec)
	assert.Equal(t, 0, list.Active)
	require.Len(t, list.Projects, 2)
	assert.Equal(t, first, list.Projects[0].ID)

	rec = s.do(t, "PUT", "/api/active", map[string]int{"index": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, second, decode[projectResponse](t, rec).ID)

	rec = s.do(t, "PUT", "/api/active", map[string]int{"index": 5})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "OUT_OF_RANGE", decode[errorResponse](t, rec).Error.Code)
	assert.Equal(t, 1, s.reg.ActiveIndex(), "failed selection keeps the active index")

	rec = s.do(t, "GET", "/api/projects/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decode[errorResponse](t, rec).Error.Code)
}

func TestPreviewCommitAndHistory(t *testing.T) {
	s := newTestServer(t)
	id := s.importPNG(t, "a.png", 4, 2)
	base := "/api/projects/" + id

	rec := s.do(t, "PUT", base+"/preview", map[string]any{"set": map[string]float64{"brightness": 150}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[projectResponse](t, rec)
	assert.True(t, p.Previewing)
	assert.Equal(t, 150.0, p.Filters.Brightness)
	assert.Len(t, p.History, 1, "previews are not recorded")

	rec = s.do(t, "PUT", base+"/preview", map[string]any{"set": map[string]float64{"contrast": 120}})
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[projectResponse](t, rec)
	assert.Equal(t, 150.0, p.Filters.Brightness, "set overrides apply to the live filters")

	rec = s.do(t, "POST", base+"/commit", map[string]string{"description": "Light"})
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[projectResponse](t, rec)
	assert.False(t, p.Previewing)
	require.Len(t, p.History, 2)
	assert.Equal(t, "Light", p.History[1].Description)

	rec = s.do(t, "POST", base+"/edit", map[string]any{"description": "Turn", "rotation": 90})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"committed":true`)

	rec = s.do(t, "GET", base+"/image?baked=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	baked, err := raster.New(rec.Body.Bytes(), rec.Header().Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, 2, baked.Width)
	assert.Equal(t, 4, baked.Height)

	rec = s.do(t, "GET", base+"/image", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	plain, err := raster.New(rec.Body.Bytes(), "")
	require.NoError(t, err)
	assert.Equal(t, 4, plain.Width)

	rec = s.do(t, "POST", base+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[projectResponse](t, rec).Cursor)

	rec = s.do(t, "POST", base+"/redo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, decode[projectResponse](t, rec).Rotation)

	rec = s.do(t, "POST", base+"/restore", map[string]int{"index": 0})
	require.Equal(t, http.StatusOK, rec.Code)
	p = decode[projectResponse](t, rec)
	assert.Equal(t, 0, p.Cursor)
	assert.Len(t, p.History, 3, "restore keeps later steps")

	rec = s.do(t, "POST", base+"/restore", map[string]int{"index": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "POST", base+"/edit", map[string]any{"rotation": 90})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "description is required")
}

func TestStandardEditsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	id := s.importPNG(t, "a.png", 2, 2)
	base := "/api/projects/" + id

	rec := s.do(t, "POST", base+"/rotate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 90, decode[projectResponse](t, rec).Rotation)

	rec = s.do(t, "POST", base+"/preset", map[string]string{"preset": "B&W Noir"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decode[projectResponse](t, rec).Filters.Saturation)

	rec = s.do(t, "POST", base+"/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[projectResponse](t, rec)
	assert.Equal(t, 0, p.Rotation)
	assert.Equal(t, 100.0, p.Filters.Saturation)
	assert.Equal(t, studio.ResetDescription, p.History[len(p.History)-1].Description)
}

func TestAIEditAndAuto(t *testing.T) {
	s := newTestServer(t)
	id := s.importPNG(t, "a.png", 2, 2)
	base := "/api/projects/" + id

	rec := s.do(t, "POST", base+"/ai", map[string]string{"tool": "Watercolor"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "AI: Convert this image i...")

	rec = s.do(t, "GET", base, nil)
	assert.Equal(t, 5, decode[projectResponse](t, rec).Width)

	rec = s.do(t, "POST", base+"/auto", map[string]string{"mode": "levels"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, "GET", base, nil)
	p := decode[projectResponse](t, rec)
	assert.Equal(t, 105.0, p.Filters.Brightness)
	assert.Equal(t, 110.0, p.Filters.Contrast)
	assert.Equal(t, 100.0, p.Filters.Saturation)

	rec = s.do(t, "POST", base+"/auto", map[string]string{"mode": "sepia"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.provider.editErr = errors.New("upstream down")
	rec = s.do(t, "POST", base+"/ai", map[string]string{"prompt": "add fog"})
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "EXTERNAL_SERVICE_FAILURE", decode[errorResponse](t, rec).Error.Code)

	rec = s.do(t, "POST", base+"/ai", map[string]string{"style": "!!not base64"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBatchOperations(t *testing.T) {
	s := newTestServer(t)
	s.importPNG(t, "a.png", 2, 2)
	s.importPNG(t, "b.png", 2, 2)

	rec := s.do(t, "POST", "/api/batch/preset", map[string]string{"preset": "Vintage"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[struct {
		Results []struct {
			Committed bool `json:"committed"`
		} `json:"results"`
		Failed int `json:"failed"`
	}](t, rec)
	require.Len(t, resp.Results, 2)
	assert.True(t, resp.Results[0].Committed)
	assert.Equal(t, 0, resp.Failed)

	rec = s.do(t, "POST", "/api/batch/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"committed":false`, "projects already matching record nothing")

	rec = s.do(t, "POST", "/api/batch/preset", map[string]string{"preset": "Sepia"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, "POST", "/api/batch/shuffle", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportGenerateAndJournal(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "POST", "/api/export", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "nothing to export")

	s.importPNG(t, "a.png", 3, 2)
	rec = s.do(t, "POST", "/api/generate", map[string]string{"prompt": "a red barn"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	generated := decode[projectResponse](t, rec)
	assert.True(t, generated.Active)
	assert.Equal(t, studio.GeneratedDescription, generated.History[0].Description)

	rec = s.do(t, "POST", "/api/export", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := decode[studio.Manifest](t, rec)
	assert.Equal(t, 2, m.Exported)
	require.Len(t, m.Items, 2)
	assert.Equal(t, "harding-a.png", m.Items[0].File)

	_, err := os.Stat(filepath.Join(s.cfg.ExportDir, "harding-a.png"))
	require.NoError(t, err)

	rec = s.do(t, "GET", "/exports/"+studio.ManifestName, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "harding-a.png")

	rec = s.do(t, "GET", "/exports/nested%2Fmanifest.yaml", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.HandleExports(rec, httptest.NewRequest("GET", "/exports/..", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, "GET", "/api/journal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PAR1"))
}

func TestCatalogs(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "GET", "/api/presets", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cyberpunk")

	rec = s.do(t, "GET", "/api/tools", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"placeholders":["[DESCRIBE BACKGROUND HERE]"]`)

	rec = s.do(t, "GET", "/healthcheck", nil)
	assert.Equal(t, "OK", rec.Body.String())
}
