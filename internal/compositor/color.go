package compositor

import (
	"image"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/lehigh-university-libraries/harding/internal/filters"
)

// Rec. 709 luminance weights as used by the CSS filter effects matrices.
var (
	luminance = mat.NewDense(3, 3, []float64{
		0.213, 0.715, 0.072,
		0.213, 0.715, 0.072,
		0.213, 0.715, 0.072,
	})
	eye = mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	hueSine = mat.NewDense(3, 3, []float64{
		-0.213, -0.715, 0.928,
		0.143, 0.140, -0.283,
		-0.787, 0.715, 0.072,
	})
)

// colorStep is one affine RGB transform, out = M*rgb + offset, clamped to [0,1].
type colorStep struct {
	m      [3][3]float64
	offset [3]float64
}

func newColorStep(m mat.Matrix, offset [3]float64) colorStep {
	var s colorStep
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			s.m[i][j] = m.At(i, j)
		}
	}
	s.offset = offset
	return s
}

func (s colorStep) apply(r, g, b float64) (float64, float64, float64) {
	nr := s.m[0][0]*r + s.m[0][1]*g + s.m[0][2]*b + s.offset[0]
	ng := s.m[1][0]*r + s.m[1][1]*g + s.m[1][2]*b + s.offset[1]
	nb := s.m[2][0]*r + s.m[2][1]*g + s.m[2][2]*b + s.offset[2]
	return clamp01(nr), clamp01(ng), clamp01(nb)
}

func scaleStep(k, offset float64) colorStep {
	var m mat.Dense
	m.Scale(k, eye)
	return newColorStep(&m, [3]float64{offset, offset, offset})
}

// brightnessStep multiplies every channel by amount/100.
func brightnessStep(amount float64) colorStep {
	return scaleStep(amount/100, 0)
}

// contrastStep pivots every channel around mid grey by amount/100.
func contrastStep(amount float64) colorStep {
	k := amount / 100
	return scaleStep(k, 0.5-0.5*k)
}

// saturateStep interpolates between greyscale (0) and the input (100), and
// extrapolates beyond it.
func saturateStep(amount float64) colorStep {
	s := amount / 100
	var chroma, m mat.Dense
	chroma.Sub(eye, luminance)
	chroma.Scale(s, &chroma)
	m.Add(luminance, &chroma)
	return newColorStep(&m, [3]float64{})
}

// hueRotateStep rotates hue by deg degrees around the luminance axis.
func hueRotateStep(deg float64) colorStep {
	rad := deg * math.Pi / 180
	var cosPart, sinPart, m mat.Dense
	cosPart.Sub(eye, luminance)
	cosPart.Scale(math.Cos(rad), &cosPart)
	sinPart.Scale(math.Sin(rad), hueSine)
	m.Add(luminance, &cosPart)
	m.Add(&m, &sinPart)
	return newColorStep(&m, [3]float64{})
}

// toneSteps returns the steps that precede blur in the filter chain:
// brightness (with exposure), contrast, then saturation (with vibrance).
// Parameters at their neutral value are omitted.
func toneSteps(f filters.Set) []colorStep {
	var steps []colorStep
	if b := f.Brightness + f.Exposure; b != 100 {
		steps = append(steps, brightnessStep(b))
	}
	if f.Contrast != 100 {
		steps = append(steps, contrastStep(f.Contrast))
	}
	if s := f.Saturation + f.Vibrance; s != 100 {
		steps = append(steps, saturateStep(s))
	}
	return steps
}

func applyColorSteps(img *image.NRGBA, steps []colorStep) {
	if len(steps) == 0 {
		return
	}
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			r := float64(row[i]) / 255
			g := float64(row[i+1]) / 255
			bl := float64(row[i+2]) / 255
			for _, s := range steps {
				r, g, bl = s.apply(r, g, bl)
			}
			row[i] = to8(r)
			row[i+1] = to8(g)
			row[i+2] = to8(bl)
		}
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
