// Package raster holds encoded images as immutable, shareable values.
//
// A *Raster is never mutated after construction. History steps, projects and
// bake results share pointers freely; "same image" means the same pointer.
package raster

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/harding/internal/ids"
)

// DefaultJPEGQuality matches the browser canvas default of 0.92.
const DefaultJPEGQuality = 92

// Raster is an encoded image plus its decoded dimensions.
type Raster struct {
	ID       string
	MimeType string
	Width    int
	Height   int

	data []byte
}

// New validates data as a decodable image and wraps it. The slice is copied.
// An empty mimeType is sniffed from the content.
func New(data []byte, mimeType string) (*Raster, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}
	if mimeType == "" {
		mimeType = "image/" + format
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	return &Raster{
		ID:       ids.New(),
		MimeType: mimeType,
		Width:    cfg.Width,
		Height:   cfg.Height,
		data:     buf,
	}, nil
}

// Bytes returns a copy of the encoded bytes.
func (r *Raster) Bytes() []byte {
	out := make([]byte, len(r.data))
	copy(out, r.data)
	return out
}

// Size returns the encoded length in bytes.
func (r *Raster) Size() int {
	return len(r.data)
}

// Decode decodes the raster into pixels.
func (r *Raster) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(r.data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s raster %s: %w", r.MimeType, r.ID, err)
	}
	return img, nil
}

// Encode encodes img as mimeType. Types without an encoder fall back to PNG,
// as a canvas does for unsupported export types.
func Encode(img image.Image, mimeType string, jpegQuality int) (*Raster, error) {
	if jpegQuality <= 0 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}

	var buf bytes.Buffer
	var err error
	switch EncodableMimeType(mimeType) {
	case "image/jpeg":
		mimeType = "image/jpeg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality})
	case "image/gif":
		mimeType = "image/gif"
		err = gif.Encode(&buf, img, nil)
	default:
		mimeType = "image/png"
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", mimeType, err)
	}

	b := img.Bounds()
	return &Raster{
		ID:       ids.New(),
		MimeType: mimeType,
		Width:    b.Dx(),
		Height:   b.Dy(),
		data:     buf.Bytes(),
	}, nil
}

// EncodableMimeType maps a declared type to the type Encode will produce.
func EncodableMimeType(mimeType string) string {
	switch strings.ToLower(strings.TrimSpace(mimeType)) {
	case "image/jpeg", "image/jpg", "image/pjpeg":
		return "image/jpeg"
	case "image/gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

// SniffMimeType detects the content type of data.
func SniffMimeType(data []byte) string {
	return http.DetectContentType(data)
}

// IsImageMimeType reports whether mimeType names an image type.
func IsImageMimeType(mimeType string) bool {
	return strings.HasPrefix(strings.ToLower(mimeType), "image/")
}
