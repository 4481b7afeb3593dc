package images

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/photos/IMG_0042.CR2":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("raw-bytes"))
		case "/cat.png":
			w.Header().Set("Content-Type", "image/png; charset=binary")
			_, _ = w.Write([]byte("png-bytes"))
		case "/big.jpg":
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := &Fetcher{HTTPClient: srv.Client(), MaxBytes: 32}

	d, err := f.Fetch(context.Background(), srv.URL+"/photos/IMG_0042.CR2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.Filename != "IMG_0042.CR2" || string(d.Data) != "raw-bytes" || d.MimeType != "" {
		t.Errorf("Expected IMG_0042.CR2 with no image type, got %s %q %s", d.Filename, d.Data, d.MimeType)
	}

	d, err = f.Fetch(context.Background(), srv.URL+"/cat.png")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.MimeType != "image/png" {
		t.Errorf("Expected image/png, got %s", d.MimeType)
	}

	if _, err := f.Fetch(context.Background(), srv.URL+"/big.jpg"); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("Expected size error, got %v", err)
	}
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.jpg"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected 404 error, got %v", err)
	}
	if _, err := f.Fetch(context.Background(), "ftp://example.com/a.jpg"); err == nil {
		t.Error("Expected error for non-http URL")
	}
}

func TestFilenameFromURL(t *testing.T) {
	tests := map[string]string{
		"https://example.com/a/b/photo.jpg?x=1": "photo.jpg",
		"https://example.com/":                  "image.jpg",
		"https://example.com":                   "image.jpg",
	}
	for raw, want := range tests {
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("Failed to parse %s: %v", raw, err)
		}
		if got := filenameFromURL(u); got != want {
			t.Errorf("Expected %s for %s, got %s", want, raw, got)
		}
	}
}

func TestIsURL(t *testing.T) {
	if !IsURL("https://example.com/x.jpg") || IsURL("./x.jpg") || IsURL("C:\\x.jpg") {
		t.Error("IsURL misclassified input")
	}
}
