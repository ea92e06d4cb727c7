package graph

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/lixenwraith/murmur/constant"
	"github.com/lixenwraith/murmur/noise"
)

// Node is any vertex of a synthesis graph
type Node interface {
	node() *base
	render(frames int)
}

// base carries the wiring shared by every node variant
type base struct {
	g       *Graph
	id      int
	kind    Kind
	accepts bool // takes audio input

	inputs  []*base // summed audio inputs
	outputs []*base // audio and modulation dependents
	params  []*Param

	out [2][]float64 // rendered block per channel
}

func (b *base) node() *base { return b }

// sumInputs mixes all audio inputs into dst
func (b *base) sumInputs(dst [2][]float64, n int) {
	l, r := dst[0][:n], dst[1][:n]
	clear(l)
	clear(r)
	for _, in := range b.inputs {
		il, ir := in.out[0][:n], in.out[1][:n]
		for i := range l {
			l[i] += il[i]
			r[i] += ir[i]
		}
	}
}

// Waveform selects an oscillator shape
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

var waveNames = [...]string{"sine", "square", "sawtooth", "triangle"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveNames) {
		return fmt.Sprintf("Waveform(%d)", int(w))
	}
	return waveNames[w]
}

// FilterKind selects a biquad response
type FilterKind int

const (
	Lowpass FilterKind = iota
	Highpass
	Bandpass
)

var filterNames = [...]string{"lowpass", "highpass", "bandpass"}

func (k FilterKind) String() string {
	if k < 0 || int(k) >= len(filterNames) {
		return fmt.Sprintf("FilterKind(%d)", int(k))
	}
	return filterNames[k]
}

// Source loops a noise buffer
type Source struct {
	base
	buf *noise.Buffer
	pos int
}

func (s *Source) render(n int) {
	l, r := s.out[0][:n], s.out[1][:n]
	if s.buf == nil || s.buf.Frames() == 0 {
		clear(l)
		clear(r)
		return
	}

	left := s.buf.Data[0]
	right := s.buf.Data[1%s.buf.Channels()]
	frames := len(left)
	for i := 0; i < n; i++ {
		l[i] = left[s.pos]
		r[i] = right[s.pos]
		s.pos++
		if s.pos >= frames {
			s.pos = 0
		}
	}
}

// Oscillator is a band-unlimited periodic generator with mono output on both channels
type Oscillator struct {
	base
	wave  Waveform
	freq  *Param
	phase float64
	rate  float64
}

// Frequency returns the automatable frequency in Hz
func (o *Oscillator) Frequency() *Param { return o.freq }

// Wave returns the oscillator shape
func (o *Oscillator) Wave() Waveform { return o.wave }

func (o *Oscillator) render(n int) {
	freq := o.freq.fill(n)
	out := o.out[0][:n]

	for i := 0; i < n; i++ {
		switch o.wave {
		case Sine:
			out[i] = math.Sin(2 * math.Pi * o.phase)
		case Square:
			if o.phase < 0.5 {
				out[i] = 1.0
			} else {
				out[i] = -1.0
			}
		case Sawtooth:
			out[i] = 2.0 * (o.phase - 0.5)
		case Triangle:
			out[i] = 4.0*math.Abs(o.phase-0.5) - 1.0
		}

		o.phase += freq[i] / o.rate
		if o.phase >= 1.0 {
			o.phase -= math.Floor(o.phase)
		}
	}
}

// Filter is a stereo biquad whose coefficients follow frequency and Q params
type Filter struct {
	base
	kind FilterKind
	freq *Param
	q    *Param

	sections [2]*biquad.Section
	in       [2][]float64
	tick     int
	lastFreq float64
	lastQ    float64
}

// Frequency returns the automatable cutoff or centre frequency in Hz
func (f *Filter) Frequency() *Param { return f.freq }

// Q returns the automatable quality factor
func (f *Filter) Q() *Param { return f.q }

// Kind returns the filter response
func (f *Filter) Kind() FilterKind { return f.kind }

func (f *Filter) render(n int) {
	f.sumInputs(f.in, n)
	freq := f.freq.fill(n)
	q := f.q.fill(n)

	for i := 0; i < n; i++ {
		if f.tick%constant.FilterUpdateInterval == 0 {
			f.retune(freq[i], q[i])
		}
		f.tick++

		for ch := 0; ch < 2; ch++ {
			f.out[ch][i] = core.FlushDenormals(f.sections[ch].ProcessSample(f.in[ch][i]))
		}
	}
}

// retune redesigns coefficients in place, keeping filter state
func (f *Filter) retune(freq, q float64) {
	if freq == f.lastFreq && q == f.lastQ {
		return
	}
	f.lastFreq, f.lastQ = freq, q

	c := f.design(freq, q)
	f.sections[0].Coefficients = c
	f.sections[1].Coefficients = c
}

func (f *Filter) design(freq, q float64) biquad.Coefficients {
	rate := float64(f.g.opts.SampleRate)
	// Degenerate corner frequencies yield zero coefficients; keep them just inside the band
	freq = core.Clamp(freq, 1, rate/2*0.999)
	q = core.Clamp(q, QMin, QMax)

	switch f.kind {
	case Highpass:
		return design.Highpass(freq, q, rate)
	case Bandpass:
		c := design.Bandpass(freq, q, rate)
		// Constant-skirt design peaks at q; scale to 0 dB at centre
		c.B0 /= q
		c.B1 /= q
		c.B2 /= q
		return c
	default:
		return design.Lowpass(freq, q, rate)
	}
}

// Gain scales the sum of its inputs by an automatable level
type Gain struct {
	base
	level *Param
}

// Level returns the automatable gain
func (g *Gain) Level() *Param { return g.level }

func (g *Gain) render(n int) {
	g.sumInputs(g.out, n)
	level := g.level.fill(n)
	l, r := g.out[0][:n], g.out[1][:n]
	for i := range l {
		l[i] *= level[i]
		r[i] *= level[i]
	}
}
