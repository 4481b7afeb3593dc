package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lehigh-university-libraries/harding/internal/providers"
)

func TestSuggestAdjustments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected /api/generate, got %s", r.URL.Path)
		}
		var req struct {
			Model  string   `json:"model"`
			Images []string `json:"images"`
			Format string   `json:"format"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
			return
		}
		if req.Model != "llava" || len(req.Images) != 1 || req.Format != "json" {
			t.Errorf("Unexpected request: %+v", req)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"response": `{"brightness": 97, "contrast": 104, "saturation": 111}`,
		})
	}))
	defer srv.Close()

	o := &Ollama{BaseURL: srv.URL, HTTPClient: srv.Client()}
	got, err := o.SuggestAdjustments(context.Background(), providers.Config{Model: "llava"}, providers.Image{Data: []byte{1}, MimeType: "image/png"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := providers.Adjustments{Brightness: 97, Contrast: 104, Saturation: 111}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestSuggestAdjustmentsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	o := &Ollama{BaseURL: srv.URL, HTTPClient: srv.Client()}
	if _, err := o.SuggestAdjustments(context.Background(), providers.Config{Model: "missing"}, providers.Image{}); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestNewUsesEnv(t *testing.T) {
	t.Setenv("OLLAMA_URL", "http://gpu-box:11434/")
	if got := New().BaseURL; got != "http://gpu-box:11434" {
		t.Errorf("Expected http://gpu-box:11434, got %s", got)
	}
}
