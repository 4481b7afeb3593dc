package filters

import "strings"

// Preset is a named, complete filter set.
type Preset struct {
	Name    string `json:"name" yaml:"name"`
	Filters Set    `json:"filters" yaml:"filters"`
}

// Presets is the built-in preset table. Every preset starts from Identity.
var Presets = []Preset{
	{Name: "B&W Noir", Filters: preset(func(s *Set) { s.Saturation = 0; s.Contrast = 120 })},
	{Name: "Warmth", Filters: preset(func(s *Set) { s.Temperature = 30; s.Tint = -10; s.Contrast = 110 })},
	{Name: "Cool & Vivid", Filters: preset(func(s *Set) { s.Temperature = -20; s.Saturation = 120; s.Contrast = 115 })},
	{Name: "Vintage", Filters: preset(func(s *Set) { s.Temperature = 20; s.Saturation = 80; s.Contrast = 90; s.Vignette = 40 })},
	{Name: "Cyberpunk", Filters: preset(func(s *Set) { s.Hue = 20; s.Saturation = 140; s.Contrast = 130; s.Tint = 40 })},
}

func preset(apply func(*Set)) Set {
	s := Identity()
	apply(&s)
	return s
}

// LookupPreset finds a preset by case-insensitive name.
func LookupPreset(name string) (Preset, bool) {
	for _, p := range Presets {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p, true
		}
	}
	return Preset{}, false
}

// Description is the history label used when a preset is applied.
func (p Preset) Description() string {
	return "Preset: " + p.Name
}
