// Package compositor bakes parametric filters and rotation into pixels.
//
// The pipeline mirrors a browser canvas render: tone filters, blur, hue
// rotation, then rotation onto the output canvas, then colour-cast washes
// and the vignette on top.
package compositor

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	herrors "github.com/lehigh-university-libraries/harding/internal/errors"
	"github.com/lehigh-university-libraries/harding/internal/filters"
	"github.com/lehigh-university-libraries/harding/internal/raster"
)

// Compositor bakes rasters. The zero value is ready to use.
type Compositor struct {
	// JPEGQuality is used when the source is a JPEG. Zero means raster.DefaultJPEGQuality.
	JPEGQuality int
}

// Bake renders src with the zero-value Compositor.
func Bake(src *raster.Raster, f filters.Set, rotation int, applyVisual bool) (*raster.Raster, error) {
	return Compositor{}.Bake(src, f, rotation, applyVisual)
}

// Bake returns a new raster with rotation and, when applyVisual is set, the
// visual filters rendered into its pixels. The output keeps the source MIME
// type when an encoder exists for it and is PNG otherwise. src is untouched.
//
// Highlights, shadows, clarity and sharpness have no pixel effect.
func (c Compositor) Bake(src *raster.Raster, f filters.Set, rotation int, applyVisual bool) (*raster.Raster, error) {
	if src == nil {
		return nil, herrors.NewInvalidRequest("no image to bake")
	}

	decoded, err := src.Decode()
	if err != nil {
		return nil, herrors.NewCompositionFailure(err)
	}
	img := toNRGBA(decoded)

	if applyVisual {
		applyColorSteps(img, toneSteps(f))
		if f.Blur > 0 {
			img = imaging.Blur(img, f.Blur)
		}
		if f.Hue != 0 {
			applyColorSteps(img, []colorStep{hueRotateStep(f.Hue)})
		}
	}

	img = rotate(img, NormalizeRotation(rotation))

	if applyVisual {
		applyCasts(img, f)
		applyVignette(img, f.Vignette)
	}

	out, err := raster.Encode(img, src.MimeType, c.JPEGQuality)
	if err != nil {
		return nil, herrors.NewCompositionFailure(fmt.Errorf("failed to encode baked image: %w", err))
	}
	return out, nil
}

// toNRGBA copies img into a fresh NRGBA anchored at the origin.
func toNRGBA(img image.Image) *image.NRGBA {
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
