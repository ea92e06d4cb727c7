package graph

import (
	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/lixenwraith/murmur/automation"
)

// Parameter ranges
const (
	GainMin = -4.0
	GainMax = 4.0
	QMin    = 0.0001
	QMax    = 1000.0
)

// modRoute feeds channel 0 of src into a param
type modRoute struct {
	src   *base
	depth float64
	bias  float64
}

// Param is an automatable node parameter with optional modulation routes
// Rendered value per sample: clamp(automated + sum(src*depth + bias))
type Param struct {
	*automation.Param

	owner    *base
	min, max float64
	mods     []modRoute
	values   []float64
}

func newParam(owner *base, initial, lo, hi float64) *Param {
	p := &Param{
		Param:  automation.New(initial, owner.g.opts.SampleRate),
		owner:  owner,
		min:    lo,
		max:    hi,
		values: make([]float64, owner.g.opts.BlockSize),
	}
	owner.params = append(owner.params, p)
	return p
}

// Range returns the clamp bounds applied after modulation
func (p *Param) Range() (lo, hi float64) { return p.min, p.max }

// Modulated reports whether any route feeds this param
func (p *Param) Modulated() bool { return len(p.mods) > 0 }

// fill renders n per-sample values; modulation sources must already be rendered
func (p *Param) fill(n int) []float64 {
	v := p.values[:n]
	p.Param.Fill(v)
	for _, m := range p.mods {
		src := m.src.out[0][:n]
		for i := range v {
			v[i] += src[i]*m.depth + m.bias
		}
	}
	for i := range v {
		v[i] = core.Clamp(v[i], p.min, p.max)
	}
	return v
}
