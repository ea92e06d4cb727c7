// Package graph builds and renders acyclic synthesis graphs of sources, oscillators, filters and gains
package graph

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"

	"github.com/lixenwraith/murmur/constant"
	"github.com/lixenwraith/murmur/noise"
)

// ErrConstruction reports an invalid graph topology or node argument
var ErrConstruction = errors.New("graph construction error")

// Options configures a graph
type Options struct {
	SampleRate int     // Hz, defaults to constant.AudioSampleRate
	BlockSize  int     // frames per render block, defaults to constant.GraphBlockSize
	Tracker    Tracker // defaults to Default
}

// Graph owns a set of nodes converging on one master gain
// Construction methods are not safe for concurrent use; after Seal the graph
// belongs to whichever goroutine calls Stream
type Graph struct {
	opts   Options
	nodes  []Node
	master *Gain

	err      error
	sealed   bool
	order    []Node
	released atomic.Bool
}

// New creates an empty graph whose master gain starts at 0
func New(opts Options) *Graph {
	if opts.SampleRate == 0 {
		opts.SampleRate = constant.AudioSampleRate
	}
	if opts.BlockSize == 0 {
		opts.BlockSize = constant.GraphBlockSize
	}
	if opts.Tracker == nil {
		opts.Tracker = Default
	}

	g := &Graph{opts: opts}
	if opts.SampleRate < 0 || opts.BlockSize < 0 {
		g.fail("invalid options: sample rate %d, block size %d", opts.SampleRate, opts.BlockSize)
		g.opts.SampleRate = constant.AudioSampleRate
		g.opts.BlockSize = constant.GraphBlockSize
	}

	g.opts.Tracker.Acquire(KindGraph)
	g.master = g.Gain(0)
	return g
}

// SampleRate returns the render rate in Hz
func (g *Graph) SampleRate() int { return g.opts.SampleRate }

// Nyquist returns half the sample rate
func (g *Graph) Nyquist() float64 { return float64(g.opts.SampleRate) / 2 }

// Master returns the output gain every audible path converges on
func (g *Graph) Master() *Gain { return g.master }

// Len returns the node count including the master
func (g *Graph) Len() int { return len(g.nodes) }

// Err returns the first construction error
func (g *Graph) Err() error { return g.err }

// fail records the first construction error
func (g *Graph) fail(format string, args ...any) error {
	err := fmt.Errorf("%w: %s", ErrConstruction, fmt.Sprintf(format, args...))
	if g.err == nil {
		g.err = err
	}
	return err
}

func (g *Graph) newBase(kind Kind, accepts bool) base {
	if g.sealed {
		g.fail("add %s to sealed graph", kind)
	}
	b := base{
		g:       g,
		id:      len(g.nodes),
		kind:    kind,
		accepts: accepts,
	}
	b.out[0] = make([]float64, g.opts.BlockSize)
	b.out[1] = make([]float64, g.opts.BlockSize)
	return b
}

// register links a node into the graph and acquires its tracked slot
func (g *Graph) register(n Node) {
	g.nodes = append(g.nodes, n)
	g.opts.Tracker.Acquire(n.node().kind)
}

// Source adds a looping player for buf
func (g *Graph) Source(buf *noise.Buffer) *Source {
	s := &Source{base: g.newBase(KindSource, false), buf: buf}
	switch {
	case buf == nil || buf.Channels() == 0:
		g.fail("source without noise buffer")
		s.buf = nil
	case buf.SampleRate != g.opts.SampleRate:
		g.fail("source rate %d Hz does not match graph rate %d Hz", buf.SampleRate, g.opts.SampleRate)
	}
	g.register(s)
	return s
}

// Oscillator adds a periodic generator at hz
func (g *Graph) Oscillator(wave Waveform, hz float64) *Oscillator {
	o := &Oscillator{
		base: g.newBase(KindOscillator, false),
		wave: wave,
		rate: float64(g.opts.SampleRate),
	}
	o.out[1] = o.out[0]
	if wave < Sine || wave > Triangle {
		g.fail("unknown waveform %d", int(wave))
	}
	if math.IsNaN(hz) {
		g.fail("oscillator frequency is NaN")
		hz = 0
	}
	o.freq = newParam(&o.base, hz, 0, g.Nyquist())
	g.register(o)
	return o
}

// Filter adds a stereo biquad at hz with quality q
func (g *Graph) Filter(kind FilterKind, hz, q float64) *Filter {
	f := &Filter{
		base: g.newBase(KindFilter, true),
		kind: kind,
	}
	if kind < Lowpass || kind > Bandpass {
		g.fail("unknown filter kind %d", int(kind))
	}
	if math.IsNaN(hz) || math.IsNaN(q) {
		g.fail("filter frequency or Q is NaN")
		hz, q = 0, 1
	}
	f.freq = newParam(&f.base, hz, 0, g.Nyquist())
	f.q = newParam(&f.base, q, QMin, QMax)
	f.in[0] = make([]float64, g.opts.BlockSize)
	f.in[1] = make([]float64, g.opts.BlockSize)
	f.lastFreq = math.NaN()

	// Both channels share one design
	c := f.design(f.freq.Value(), f.q.Value())
	f.sections[0] = biquad.NewSection(c)
	f.sections[1] = biquad.NewSection(c)

	g.register(f)
	return f
}

// Gain adds a scalar stage at level
func (g *Graph) Gain(level float64) *Gain {
	n := &Gain{base: g.newBase(KindGain, true)}
	if math.IsNaN(level) {
		g.fail("gain level is NaN")
		level = 0
	}
	n.level = newParam(&n.base, level, GainMin, GainMax)
	g.register(n)
	return n
}

// Connect adds an audio edge; inputs into one node are summed
func (g *Graph) Connect(src, dst Node) error {
	if src == nil || dst == nil {
		return g.fail("connect nil node")
	}
	s, d := src.node(), dst.node()
	switch {
	case g.sealed:
		return g.fail("connect on sealed graph")
	case s.g != g || d.g != g:
		return g.fail("connect node from another graph")
	case s == &g.master.base:
		return g.fail("master gain has no outgoing edges")
	case !d.accepts:
		return g.fail("%s #%d does not accept audio input", d.kind, d.id)
	case s == d || g.reaches(d, s):
		return g.fail("edge %s #%d -> %s #%d creates a cycle", s.kind, s.id, d.kind, d.id)
	}

	for _, in := range d.inputs {
		if in == s {
			return nil
		}
	}
	d.inputs = append(d.inputs, s)
	s.outputs = append(s.outputs, d)
	return nil
}

// Chain connects each node to the next
func (g *Graph) Chain(nodes ...Node) error {
	for i := 1; i < len(nodes); i++ {
		if err := g.Connect(nodes[i-1], nodes[i]); err != nil {
			return err
		}
	}
	return nil
}

// Modulate routes channel 0 of src, scaled by depth and offset by bias, into p
func (g *Graph) Modulate(src Node, p *Param, depth, bias float64) error {
	if src == nil || p == nil {
		return g.fail("modulate with nil source or param")
	}
	s, owner := src.node(), p.owner
	switch {
	case g.sealed:
		return g.fail("modulate on sealed graph")
	case s.g != g || owner.g != g:
		return g.fail("modulate across graphs")
	case s == &g.master.base:
		return g.fail("master gain cannot modulate")
	case s == owner || g.reaches(owner, s):
		return g.fail("modulation %s #%d -> %s #%d creates a cycle", s.kind, s.id, owner.kind, owner.id)
	case math.IsNaN(depth) || math.IsNaN(bias):
		return g.fail("modulation depth or bias is NaN")
	}

	p.mods = append(p.mods, modRoute{src: s, depth: depth, bias: bias})
	s.outputs = append(s.outputs, owner)
	return nil
}

// Seal validates the topology and fixes the render order
func (g *Graph) Seal() error {
	if g.err != nil {
		return g.err
	}
	if g.sealed {
		return nil
	}

	order, err := g.topologicalSort()
	if err != nil {
		return g.fail("%v", err)
	}
	if dangling := g.dangling(); len(dangling) > 0 {
		b := dangling[0].node()
		return g.fail("%d node(s) do not reach the master, first %s #%d", len(dangling), b.kind, b.id)
	}

	g.order = order
	g.sealed = true
	return nil
}

// Sealed reports whether Seal succeeded
func (g *Graph) Sealed() bool { return g.sealed }

// Stream renders the master output; implements beep.Streamer
func (g *Graph) Stream(samples [][2]float64) (int, bool) {
	if !g.sealed || g.released.Load() {
		return 0, false
	}

	out := g.master.out
	for off := 0; off < len(samples); {
		n := min(g.opts.BlockSize, len(samples)-off)
		for _, node := range g.order {
			node.render(n)
		}
		for i := 0; i < n; i++ {
			samples[off+i][0] = out[0][i]
			samples[off+i][1] = out[1][i]
		}
		off += n
	}
	return len(samples), true
}

// Release returns every tracked resource; later calls are no-ops
func (g *Graph) Release() {
	if !g.released.CompareAndSwap(false, true) {
		return
	}
	for _, n := range g.nodes {
		g.opts.Tracker.Release(n.node().kind)
	}
	g.opts.Tracker.Release(KindGraph)
}

// Released reports whether Release ran
func (g *Graph) Released() bool { return g.released.Load() }
