// Package importer turns uploaded files into projects.
//
// Ordinary images become projects directly. Camera RAW files are scanned for
// embedded JPEG previews first: none is an error, one is used as-is, and
// several are parked as a pending import until the user picks one.
package importer

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/ids"
	"github.com/lehigh-university-libraries/harding/internal/models"
	"github.com/lehigh-university-libraries/harding/internal/preview"
	"github.com/lehigh-university-libraries/harding/internal/raster"
	"github.com/lehigh-university-libraries/harding/internal/registry"
	"github.com/lehigh-university-libraries/harding/internal/storage"
)

var rawExtension = regexp.MustCompile(`(?i)\.(cr2|cr3|crw)$`)

// IsRAW reports whether filename has a supported camera RAW extension.
func IsRAW(filename string) bool {
	return rawExtension.MatchString(filename)
}

// Importer routes uploads into a registry.
type Importer struct {
	registry *registry.Registry
	pending  *storage.PendingStore
	scanner  preview.Scanner
}

// New returns an importer. A nil store gets a fresh one.
func New(reg *registry.Registry, pending *storage.PendingStore, scanner preview.Scanner) *Importer {
	if pending == nil {
		pending = storage.New()
	}
	return &Importer{registry: reg, pending: pending, scanner: scanner}
}

// Result is either a new project or a pending selection, never both.
type Result struct {
	Project *registry.Snapshot
	Pending *models.PendingImport
}

// Import accepts one uploaded file. An empty mimeType is sniffed from data.
func (im *Importer) Import(data []byte, mimeType, filename string, opts registry.ImportOptions) (Result, error) {
	if len(data) == 0 {
		return Result{}, herrors.NewInvalidRequest(fmt.Sprintf("%s is empty", filename))
	}

	if IsRAW(filename) {
		return im.importRAW(data, filename, opts)
	}

	if mimeType == "" {
		mimeType = raster.SniffMimeType(data)
	}
	if !raster.IsImageMimeType(mimeType) {
		return Result{}, herrors.NewInvalidRequest(fmt.Sprintf("unsupported file type %s for %s", mimeType, filename))
	}

	img, err := raster.New(data, mimeType)
	if err != nil {
		return Result{}, herrors.NewInvalidRequest(fmt.Sprintf("could not read %s as an image: %v", filename, err))
	}
	s, err := im.registry.Import(img, filename, opts)
	if err != nil {
		return Result{}, err
	}
	return Result{Project: &s}, nil
}

func (im *Importer) importRAW(data []byte, filename string, opts registry.ImportOptions) (Result, error) {
	start := time.Now()
	candidates := im.scanner.Scan(data)
	slog.Info("Scanned RAW container", "filename", filename, "bytes", len(data), "candidates", len(candidates), "duration", time.Since(start))

	switch len(candidates) {
	case 0:
		return Result{}, herrors.NewNoPreviewFound(filename)
	case 1:
		s, err := im.importCandidate(candidates[0], filename, opts)
		if err != nil {
			return Result{}, err
		}
		return Result{Project: &s}, nil
	}

	p := &models.PendingImport{
		ID:         ids.New(),
		Filename:   filename,
		Candidates: candidates,
		CreatedAt:  time.Now(),
	}
	im.pending.Set(p.ID, p)
	return Result{Pending: p}, nil
}

func (im *Importer) importCandidate(c preview.Candidate, filename string, opts registry.ImportOptions) (registry.Snapshot, error) {
	img, err := raster.New(c.Payload, "image/jpeg")
	if err != nil {
		return registry.Snapshot{}, herrors.NewNoPreviewFound(filename)
	}
	return im.registry.Import(img, filename, opts)
}

// Select resolves a pending import with the candidate at index and creates
// the project. The pending import is consumed only on success.
func (im *Importer) Select(pendingID string, index int, opts registry.ImportOptions) (registry.Snapshot, error) {
	p, ok := im.pending.Take(pendingID)
	if !ok {
		return registry.Snapshot{}, herrors.NewNotFound("pending import", pendingID)
	}
	if index < 0 || index >= len(p.Candidates) {
		im.pending.Set(p.ID, p)
		return registry.Snapshot{}, herrors.NewOutOfRange("candidate", index, len(p.Candidates))
	}

	s, err := im.importCandidate(p.Candidates[index], p.Filename, opts)
	if err != nil {
		im.pending.Set(p.ID, p)
		return registry.Snapshot{}, err
	}
	return s, nil
}

// Pending lists unresolved RAW imports, oldest first.
func (im *Importer) Pending() []*models.PendingImport {
	return im.pending.GetAll()
}

// PendingImport returns one unresolved RAW import.
func (im *Importer) PendingImport(id string) (*models.PendingImport, error) {
	p, ok := im.pending.Get(id)
	if !ok {
		return nil, herrors.NewNotFound("pending import", id)
	}
	return p, nil
}

// Cancel drops a pending import without creating a project.
func (im *Importer) Cancel(id string) error {
	if _, ok := im.pending.Take(id); !ok {
		return herrors.NewNotFound("pending import", id)
	}
	return nil
}
