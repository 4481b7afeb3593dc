package compositor

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// NormalizeRotation maps any integer angle onto [0, 360).
func NormalizeRotation(deg int) int {
	return ((deg % 360) + 360) % 360
}

// canvasSize returns the output dimensions for an image rotated by deg.
// Any angle that is not a multiple of 180 swaps width and height.
func canvasSize(w, h, deg int) (int, int) {
	if deg%180 != 0 {
		return h, w
	}
	return w, h
}

// rotate turns src clockwise by deg, which must already be normalized.
// Quarter turns are exact pixel permutations. Other angles are resampled
// about the centre onto the swapped canvas, leaving corners transparent.
func rotate(src *image.NRGBA, deg int) *image.NRGBA {
	if deg == 0 {
		return src
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	cw, ch := canvasSize(w, h, deg)
	dst := image.NewNRGBA(image.Rect(0, 0, cw, ch))

	switch deg {
	case 90, 180, 270:
		for sy := 0; sy < h; sy++ {
			for sx := 0; sx < w; sx++ {
				var dx, dy int
				switch deg {
				case 90:
					dx, dy = h-1-sy, sx
				case 180:
					dx, dy = w-1-sx, h-1-sy
				case 270:
					dx, dy = sy, w-1-sx
				}
				si := src.PixOffset(b.Min.X+sx, b.Min.Y+sy)
				di := dst.PixOffset(dx, dy)
				copy(dst.Pix[di:di+4], src.Pix[si:si+4])
			}
		}
		return dst
	}

	rad := float64(deg) * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	hw, hh := float64(w)/2, float64(h)/2
	s2d := f64.Aff3{
		cos, -sin, float64(cw)/2 - (cos*hw - sin*hh),
		sin, cos, float64(ch)/2 - (sin*hw + cos*hh),
	}
	draw.BiLinear.Transform(dst, s2d, src, b, draw.Src, nil)
	return dst
}
