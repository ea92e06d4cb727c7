// Package noise generates loopable white, pink and brown noise buffers.
package noise

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"

	"github.com/lixenwraith/murmur/constant"
)

// ErrInvalidParameter reports a malformed generation request
var ErrInvalidParameter = errors.New("invalid parameter")

// Kind identifies the noise colour
type Kind int

const (
	White Kind = iota
	Pink
	Brown
)

var kindNames = [...]string{"white", "pink", "brown"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps a name to its Kind
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown noise kind %q", ErrInvalidParameter, s)
}

// Buffer is an immutable multi-channel noise loop with samples in [-1, 1]
type Buffer struct {
	Kind       Kind
	SampleRate int
	Data       [][]float64 // [channel][frame]
}

// Channels returns the channel count
func (b *Buffer) Channels() int { return len(b.Data) }

// Frames returns samples per channel
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Duration returns the loop length
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Generator produces noise buffers from a seedable random source
// Safe for concurrent use
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand

	// Crossfade blended over the loop seam; zero disables it
	Seam time.Duration
}

// NewGenerator creates a generator; seed 0 draws a seed from the runtime
func NewGenerator(seed uint64) *Generator {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Generator{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		Seam: constant.NoiseSeamCrossfade,
	}
}

// Generate builds a buffer of the given kind
// Statistical character is deterministic for a seeded generator, content is not shared across calls
func (g *Generator) Generate(kind Kind, duration time.Duration, sampleRate, channels int) (*Buffer, error) {
	if kind < White || kind > Brown {
		return nil, fmt.Errorf("%w: unknown noise kind %d", ErrInvalidParameter, int(kind))
	}
	if duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be > 0: %v", ErrInvalidParameter, duration)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0: %d", ErrInvalidParameter, sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: channel count must be > 0: %d", ErrInvalidParameter, channels)
	}

	frames := int(math.Round(duration.Seconds() * float64(sampleRate)))
	if frames <= 0 {
		return nil, fmt.Errorf("%w: duration %v shorter than one sample at %d Hz", ErrInvalidParameter, duration, sampleRate)
	}

	// Seam crossfade is capped to a quarter of the loop
	fade := int(g.Seam.Seconds() * float64(sampleRate))
	if fade > frames/4 {
		fade = frames / 4
	}

	buf := &Buffer{
		Kind:       kind,
		SampleRate: sampleRate,
		Data:       make([][]float64, channels),
	}

	for ch := 0; ch < channels; ch++ {
		white, err := g.white(sampleRate, frames+fade)
		if err != nil {
			return nil, err
		}

		switch kind {
		case Brown:
			colourBrown(white)
		case Pink:
			colourPink(white)
		}

		buf.Data[ch] = closeLoop(white, frames, fade)
	}

	return buf, nil
}

// white draws uniform samples in [-1, 1] from an independently seeded source
func (g *Generator) white(sampleRate, samples int) ([]float64, error) {
	g.mu.Lock()
	seed := g.rng.Int64()
	g.mu.Unlock()

	gen := signal.NewGeneratorWithOptions(
		[]core.ProcessorOption{core.WithSampleRate(float64(sampleRate))},
		signal.WithSeed(seed),
	)
	out, err := gen.WhiteNoise(1, samples)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	return out, nil
}

// colourBrown integrates white noise in place with a leak
func colourBrown(buf []float64) {
	last := 0.0
	for i, w := range buf {
		last = (last + 0.02*w) / 1.02
		buf[i] = core.Clamp(last*3.5, -1, 1)
	}
}

// colourPink applies Paul Kellet's refined pink filter in place
func colourPink(buf []float64) {
	var b0, b1, b2, b3, b4, b5, b6 float64
	for i, w := range buf {
		b0 = 0.99886*b0 + w*0.0555179
		b1 = 0.99332*b1 + w*0.0750759
		b2 = 0.96900*b2 + w*0.1538520
		b3 = 0.86650*b3 + w*0.3104856
		b4 = 0.55000*b4 + w*0.5329522
		b5 = -0.7616*b5 - w*0.0168980
		out := (b0 + b1 + b2 + b3 + b4 + b5 + b6 + w*0.5362) * 0.11
		b6 = w * 0.115926
		buf[i] = core.Clamp(out, -1, 1)
	}
}

// closeLoop blends the tail past frames into the head so sample frames-1 flows into sample 0
func closeLoop(buf []float64, frames, fade int) []float64 {
	if fade <= 0 {
		return buf[:frames:frames]
	}
	for i := 0; i < fade; i++ {
		t := float64(i) / float64(fade)
		buf[i] = buf[i]*t + buf[frames+i]*(1-t)
	}
	return buf[:frames:frames]
}
