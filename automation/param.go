// Package automation ramps scalar parameters between the control goroutines and the render goroutine
package automation

import (
	"math"
	"sync/atomic"
	"time"
)

// ramp is one published transition request
type ramp struct {
	target float64
	frames int
}

// Param is a scalar value ramped linearly in sample time
// RampTo and Value are safe from any goroutine; Fill, Settled and SetValue belong to the render side
type Param struct {
	rate    int
	pending atomic.Pointer[ramp]
	current atomic.Uint64 // math.Float64bits of the last rendered value

	// Render-side state
	value  float64
	start  float64
	target float64
	k, n   int
}

// New creates a parameter resting at initial
func New(initial float64, sampleRate int) *Param {
	p := &Param{rate: sampleRate}
	p.SetValue(initial)
	return p
}

// RampTo schedules a linear transition to target starting at the next Fill
// A newer request replaces one not yet picked up; d <= 0 jumps
func (p *Param) RampTo(target float64, d time.Duration) {
	frames := 0
	if d > 0 && p.rate > 0 {
		frames = int(math.Round(d.Seconds() * float64(p.rate)))
	}
	p.pending.Store(&ramp{target: target, frames: frames})
}

// SetValue jumps immediately, discarding pending and running ramps
func (p *Param) SetValue(v float64) {
	p.pending.Store(nil)
	p.value, p.start, p.target = v, v, v
	p.k, p.n = 0, 0
	p.current.Store(math.Float64bits(v))
}

// Value returns the last rendered value
func (p *Param) Value() float64 {
	return math.Float64frombits(p.current.Load())
}

// Fill writes the next len(dst) per-sample values
func (p *Param) Fill(dst []float64) {
	if r := p.pending.Swap(nil); r != nil {
		p.start = p.value
		p.target = r.target
		p.k, p.n = 0, r.frames
		if r.frames <= 0 {
			p.value = r.target
		}
	}

	if p.k >= p.n {
		for i := range dst {
			dst[i] = p.value
		}
		p.current.Store(math.Float64bits(p.value))
		return
	}

	span := p.target - p.start
	for i := range dst {
		if p.k < p.n {
			p.k++
			if p.k == p.n {
				p.value = p.target
			} else {
				p.value = p.start + span*float64(p.k)/float64(p.n)
			}
		}
		dst[i] = p.value
	}
	p.current.Store(math.Float64bits(p.value))
}

// Settled reports that no ramp is pending or running
func (p *Param) Settled() bool {
	return p.pending.Load() == nil && p.k >= p.n
}
