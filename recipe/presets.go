package recipe

import (
	"errors"
	"fmt"
)

// ErrUnknownPreset reports an id outside the preset table
var ErrUnknownPreset = errors.New("unknown preset")

// PresetSound is one ambience of a preset at a volume fraction
type PresetSound struct {
	ID     string
	Volume float64
}

// Preset is a named mix of ambiences
type Preset struct {
	ID     string
	Name   string
	Sounds []PresetSound
}

var presets = []*Preset{
	{ID: "rainyCafe", Name: "Rainy Cafe", Sounds: []PresetSound{{"rain", 0.7}, {"cafe", 0.5}, {"thunder", 0.25}}},
	{ID: "cosyCabin", Name: "Cosy Cabin", Sounds: []PresetSound{{"fire", 0.8}, {"rain", 0.6}, {"wind", 0.3}}},
	{ID: "beachDay", Name: "Beach Day", Sounds: []PresetSound{{"waves", 0.8}, {"wind", 0.4}, {"forest", 0.2}}},
	{ID: "deepFocus", Name: "Deep Focus", Sounds: []PresetSound{{"rain", 0.7}, {"cafe", 0.4}}},
	{ID: "sleep", Name: "Sleep", Sounds: []PresetSound{{"rain", 0.5}, {"night", 0.6}, {"waves", 0.3}}},
}

// LookupPreset returns the preset for id
func LookupPreset(id string) (*Preset, error) {
	for _, p := range presets {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, id)
}

// Presets returns every preset in table order
func Presets() []*Preset {
	out := make([]*Preset, len(presets))
	copy(out, presets)
	return out
}

// Volumes returns the preset as an id to fraction map
func (p *Preset) Volumes() map[string]float64 {
	out := make(map[string]float64, len(p.Sounds))
	for _, s := range p.Sounds {
		out[s.ID] = s.Volume
	}
	return out
}

// IDs lists the preset sounds in mix order
func (p *Preset) IDs() []string {
	out := make([]string, len(p.Sounds))
	for i, s := range p.Sounds {
		out[i] = s.ID
	}
	return out
}
