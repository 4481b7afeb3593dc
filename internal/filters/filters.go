package filters

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Set is one complete parametric adjustment state. It is a value type:
// copies are independent and two sets are equal only when every field is equal.
type Set struct {
	// Light
	Exposure   float64 `json:"exposure" yaml:"exposure" parquet:"exposure"`
	Brightness float64 `json:"brightness" yaml:"brightness" parquet:"brightness"`
	Contrast   float64 `json:"contrast" yaml:"contrast" parquet:"contrast"`
	Highlights float64 `json:"highlights" yaml:"highlights" parquet:"highlights"`
	Shadows    float64 `json:"shadows" yaml:"shadows" parquet:"shadows"`

	// Color
	Temperature float64 `json:"temperature" yaml:"temperature" parquet:"temperature"`
	Tint        float64 `json:"tint" yaml:"tint" parquet:"tint"`
	Saturation  float64 `json:"saturation" yaml:"saturation" parquet:"saturation"`
	Vibrance    float64 `json:"vibrance" yaml:"vibrance" parquet:"vibrance"`
	Hue         float64 `json:"hue" yaml:"hue" parquet:"hue"`

	// Detail & effects
	Clarity   float64 `json:"clarity" yaml:"clarity" parquet:"clarity"`
	Sharpness float64 `json:"sharpness" yaml:"sharpness" parquet:"sharpness"`
	Vignette  float64 `json:"vignette" yaml:"vignette" parquet:"vignette"`
	Blur      float64 `json:"blur" yaml:"blur" parquet:"blur"`
}

// Identity returns the no-op set: 100 for the multiplicative parameters
// (brightness, contrast, saturation) and 0 for everything else.
func Identity() Set {
	return Set{
		Brightness: 100,
		Contrast:   100,
		Saturation: 100,
	}
}

// IsIdentity reports whether s leaves pixels untouched.
func (s Set) IsIdentity() bool {
	return s == Identity()
}

// Equal is exact field-wise equality, with no tolerance.
func (s Set) Equal(o Set) bool {
	return s == o
}

// Range is the accepted slider range of one parameter.
type Range struct {
	Min float64
	Max float64
}

// fields maps the lowercase parameter name to its accessor and slider range.
var fields = map[string]struct {
	ptr   func(*Set) *float64
	rng   Range
	group string
}{
	"exposure":    {func(s *Set) *float64 { return &s.Exposure }, Range{-100, 100}, "Light"},
	"brightness":  {func(s *Set) *float64 { return &s.Brightness }, Range{0, 200}, "Light"},
	"contrast":    {func(s *Set) *float64 { return &s.Contrast }, Range{0, 200}, "Light"},
	"highlights":  {func(s *Set) *float64 { return &s.Highlights }, Range{-100, 100}, "Light"},
	"shadows":     {func(s *Set) *float64 { return &s.Shadows }, Range{-100, 100}, "Light"},
	"temperature": {func(s *Set) *float64 { return &s.Temperature }, Range{-100, 100}, "Color"},
	"tint":        {func(s *Set) *float64 { return &s.Tint }, Range{-100, 100}, "Color"},
	"saturation":  {func(s *Set) *float64 { return &s.Saturation }, Range{0, 200}, "Color"},
	"vibrance":    {func(s *Set) *float64 { return &s.Vibrance }, Range{0, 100}, "Color"},
	"hue":         {func(s *Set) *float64 { return &s.Hue }, Range{-180, 180}, "Color"},
	"clarity":     {func(s *Set) *float64 { return &s.Clarity }, Range{0, 100}, "Detail"},
	"sharpness":   {func(s *Set) *float64 { return &s.Sharpness }, Range{0, 100}, "Detail"},
	"vignette":    {func(s *Set) *float64 { return &s.Vignette }, Range{0, 100}, "Detail"},
	"blur":        {func(s *Set) *float64 { return &s.Blur }, Range{0, 20}, "Detail"},
}

// FieldNames returns every parameter name in sorted order.
func FieldNames() []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RangeOf returns the slider range for a parameter name.
func RangeOf(name string) (Range, bool) {
	f, ok := fields[strings.ToLower(name)]
	return f.rng, ok
}

// GroupOf returns the panel group ("Light", "Color", "Detail") of a parameter.
func GroupOf(name string) (string, bool) {
	f, ok := fields[strings.ToLower(name)]
	return f.group, ok
}

// Get returns the value of a named parameter.
func (s Set) Get(name string) (float64, error) {
	f, ok := fields[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown filter parameter %q", name)
	}
	return *f.ptr(&s), nil
}

// With returns a copy of s with one parameter replaced. Values outside the
// slider range are rejected.
func (s Set) With(name string, value float64) (Set, error) {
	f, ok := fields[strings.ToLower(name)]
	if !ok {
		return s, fmt.Errorf("unknown filter parameter %q", name)
	}
	if value < f.rng.Min || value > f.rng.Max {
		return s, fmt.Errorf("%s=%g outside range [%g, %g]", name, value, f.rng.Min, f.rng.Max)
	}
	*f.ptr(&s) = value
	return s, nil
}

// ParseAssignments applies "name=value" pairs to base, in order.
func ParseAssignments(base Set, assignments []string) (Set, error) {
	out := base
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		if !ok {
			return base, fmt.Errorf("invalid assignment %q (want name=value)", a)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return base, fmt.Errorf("invalid value in %q: %w", a, err)
		}
		out, err = out.With(strings.TrimSpace(name), v)
		if err != nil {
			return base, err
		}
	}
	return out, nil
}

// Merge returns base with every parameter named in overrides replaced.
func Merge(base Set, overrides map[string]float64) (Set, error) {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	out := base
	for _, name := range names {
		f, ok := fields[strings.ToLower(name)]
		if !ok {
			return base, fmt.Errorf("unknown filter parameter %q", name)
		}
		*f.ptr(&out) = clamp(overrides[name], f.rng)
	}
	return out, nil
}

func clamp(v float64, r Range) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}
