package compositor

import (
	"image"
	"image/color"
	"math"

	"github.com/lehigh-university-libraries/harding/internal/filters"
)

// Colour-cast washes for temperature and tint, laid over the whole canvas
// with overlay blending at |value|/200 opacity.
var (
	warmWash    = color.NRGBA{R: 255, G: 160, B: 20}
	coolWash    = color.NRGBA{R: 20, G: 100, B: 255}
	magentaWash = color.NRGBA{R: 255, G: 20, B: 255}
	greenWash   = color.NRGBA{R: 20, G: 255, B: 20}
)

const (
	vignetteRadiusScale = 0.8
	vignetteInnerRatio  = 0.3
	vignetteOpacityDiv  = 120.0
)

// washFor picks the wash colour and opacity for a signed cast value.
func washFor(v float64, positive, negative color.NRGBA) (color.NRGBA, float64) {
	if v > 0 {
		return positive, v / 200
	}
	return negative, -v / 200
}

// applyCasts lays the temperature wash, then the tint wash.
func applyCasts(img *image.NRGBA, f filters.Set) {
	if f.Temperature != 0 {
		c, a := washFor(f.Temperature, warmWash, coolWash)
		overlayFill(img, c, a)
	}
	if f.Tint != 0 {
		c, a := washFor(f.Tint, magentaWash, greenWash)
		overlayFill(img, c, a)
	}
}

// overlayFill composites a uniform colour at opacity alpha over img using
// the overlay blend mode.
func overlayFill(img *image.NRGBA, c color.NRGBA, alpha float64) {
	alpha = clamp01(alpha)
	if alpha == 0 {
		return
	}
	src := [3]float64{float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255}

	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			da := float64(row[i+3]) / 255
			outA := alpha + da*(1-alpha)
			if outA == 0 {
				continue
			}
			for ch := 0; ch < 3; ch++ {
				dc := float64(row[i+ch]) / 255
				// Separable blend, then source-over with the backdrop's coverage.
				blended := overlay(dc, src[ch])
				co := alpha*(1-da)*src[ch] + alpha*da*blended + (1-alpha)*da*dc
				row[i+ch] = to8(co / outA)
			}
			row[i+3] = to8(outA)
		}
	}
}

// overlay is the overlay blend of source s onto backdrop d.
func overlay(d, s float64) float64 {
	if d < 0.5 {
		return 2 * s * d
	}
	return 1 - 2*(1-s)*(1-d)
}

// applyVignette darkens towards the corners with a radial black gradient,
// transparent inside 30% of the radius and reaching amount/120 opacity at
// radius 0.8 * max(width, height).
func applyVignette(img *image.NRGBA, amount float64) {
	if amount <= 0 {
		return
	}
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	radius := math.Max(float64(w), float64(h)) * vignetteRadiusScale
	inner := radius * vignetteInnerRatio
	peak := clamp01(amount / vignetteOpacityDiv)
	cx, cy := float64(w)/2, float64(h)/2

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		for x := 0; x < w; x++ {
			d := math.Hypot(float64(x)+0.5-cx, float64(y)+0.5-cy)
			t := clamp01((d - inner) / (radius - inner))
			a := t * peak
			if a == 0 {
				continue
			}
			i := x * 4
			da := float64(row[i+3]) / 255
			outA := a + da*(1-a)
			for ch := 0; ch < 3; ch++ {
				dc := float64(row[i+ch]) / 255
				row[i+ch] = to8(dc * da * (1 - a) / outA)
			}
			row[i+3] = to8(outA)
		}
	}
}
