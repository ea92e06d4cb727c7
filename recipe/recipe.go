// Package recipe holds the fixed synthesis recipes for each ambience
package recipe

import (
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/murmur/graph"
	"github.com/lixenwraith/murmur/noise"
)

// ErrUnknownSound reports an id outside the recipe vocabulary
var ErrUnknownSound = errors.New("unknown sound")

// Default quality factors where a recipe leaves Q unspecified
const (
	DefaultQ         = 0.7071
	DefaultBandpassQ = 1.0
)

// Sources hands out fresh noise loops to recipes
type Sources interface {
	Noise(kind noise.Kind) (*noise.Buffer, error)
}

// Recipe describes how to build one ambience
// Recipes are stateless and shared
type Recipe struct {
	ID         string
	Name       string
	Category   string
	BaseVolume float64 // master level at 100% user volume
	Build      func(g *graph.Graph, src Sources) error
}

var registry = map[string]*Recipe{}

// order keeps listing stable
var order []string

func register(r *Recipe) {
	registry[r.ID] = r
	order = append(order, r.ID)
}

// Lookup returns the recipe for id
func Lookup(id string) (*Recipe, error) {
	r, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSound, id)
	}
	return r, nil
}

// IDs lists every recipe id in catalogue order
func IDs() []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

// All returns every recipe in catalogue order
func All() []*Recipe {
	out := make([]*Recipe, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id])
	}
	return out
}

// GeneratorSources draws independent stereo loops from a noise generator
type GeneratorSources struct {
	Gen        *noise.Generator
	Loop       time.Duration
	SampleRate int
	Channels   int
}

func (s GeneratorSources) Noise(kind noise.Kind) (*noise.Buffer, error) {
	channels := s.Channels
	if channels == 0 {
		channels = 2
	}
	return s.Gen.Generate(kind, s.Loop, s.SampleRate, channels)
}

// builder wraps a graph with the first noise error seen
type builder struct {
	g   *graph.Graph
	src Sources
	err error
}

func newBuilder(g *graph.Graph, src Sources) *builder {
	return &builder{g: g, src: src}
}

func (b *builder) noise(kind noise.Kind) *graph.Source {
	buf, err := b.src.Noise(kind)
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("noise %s: %w", kind, err)
	}
	return b.g.Source(buf)
}

func (b *builder) lowpass(hz, q float64) *graph.Filter {
	return b.g.Filter(graph.Lowpass, hz, q)
}

func (b *builder) highpass(hz, q float64) *graph.Filter {
	return b.g.Filter(graph.Highpass, hz, q)
}

func (b *builder) bandpass(hz, q float64) *graph.Filter {
	return b.g.Filter(graph.Bandpass, hz, q)
}

// layer chains nodes into a gain at level feeding the master
func (b *builder) layer(level float64, nodes ...graph.Node) *graph.Gain {
	gain := b.g.Gain(level)
	b.g.Chain(append(nodes, gain, b.g.Master())...)
	return gain
}

// lfo adds an oscillator modulating every param by depth
func (b *builder) lfo(wave graph.Waveform, hz, depth float64, params ...*graph.Param) *graph.Oscillator {
	osc := b.g.Oscillator(wave, hz)
	for _, p := range params {
		b.g.Modulate(osc, p, depth, 0)
	}
	return osc
}

// gate adds an oscillator swinging every param between 0 and level
func (b *builder) gate(wave graph.Waveform, hz, level float64, params ...*graph.Param) *graph.Oscillator {
	osc := b.g.Oscillator(wave, hz)
	for _, p := range params {
		b.g.Modulate(osc, p, level/2, level/2)
	}
	return osc
}

func (b *builder) done() error {
	if b.err != nil {
		return b.err
	}
	return b.g.Err()
}
