package automation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rate = 1000

func render(p *Param, frames int) []float64 {
	out := make([]float64, frames)
	for off := 0; off < frames; off += 64 {
		end := min(off+64, frames)
		p.Fill(out[off:end])
	}
	return out
}

func TestParam_RampReachesTargetMonotonically(t *testing.T) {
	p := New(0, rate)
	p.RampTo(0.5, 800*time.Millisecond)

	out := render(p, 1000)

	for i := 1; i < len(out); i++ {
		require.GreaterOrEqual(t, out[i], out[i-1], "sample %d", i)
	}
	assert.Equal(t, 0.5, out[799], "ramp must land exactly on target")
	assert.Equal(t, 0.5, out[999])
	assert.Equal(t, 0.5, p.Value())
	assert.True(t, p.Settled())
	assert.InDelta(t, 0.25, out[399], 0.001)
}

func TestParam_DownwardRamp(t *testing.T) {
	p := New(0.5, rate)
	p.RampTo(0, 500*time.Millisecond)

	out := render(p, 600)
	for i := 1; i < len(out); i++ {
		require.LessOrEqual(t, out[i], out[i-1])
	}
	assert.Equal(t, 0.0, out[499])
}

func TestParam_NewerRampSupersedesPending(t *testing.T) {
	p := New(0, rate)
	p.RampTo(1, time.Second)
	p.RampTo(0.2, 100*time.Millisecond)

	out := render(p, 200)
	assert.Equal(t, 0.2, out[99])
	assert.Equal(t, 0.2, out[199])
}

func TestParam_RampFromMidTransition(t *testing.T) {
	p := New(0, rate)
	p.RampTo(1, time.Second)
	render(p, 500)
	mid := p.Value()
	assert.InDelta(t, 0.5, mid, 0.01)

	p.RampTo(0, 100*time.Millisecond)
	out := render(p, 100)
	assert.Less(t, out[0], mid, "new ramp starts from the current value")
	assert.Equal(t, 0.0, out[99])
}

func TestParam_ZeroDurationJumps(t *testing.T) {
	p := New(0.3, rate)
	assert.True(t, p.Settled())

	p.RampTo(0.9, 0)
	assert.False(t, p.Settled())
	assert.Equal(t, 0.3, p.Value(), "value changes only on the render side")

	out := render(p, 4)
	assert.Equal(t, []float64{0.9, 0.9, 0.9, 0.9}, out)
	assert.True(t, p.Settled())
}

func TestParam_SetValueCancelsRamp(t *testing.T) {
	p := New(0, rate)
	p.RampTo(1, time.Second)
	p.SetValue(0.4)
	out := render(p, 10)
	assert.Equal(t, 0.4, out[9])
	assert.True(t, p.Settled())
}

func TestParam_FillDoesNotAllocate(t *testing.T) {
	p := New(0, rate)
	buf := make([]float64, 128)
	allocs := testing.AllocsPerRun(100, func() {
		p.Fill(buf)
	})
	assert.Zero(t, allocs)
}

func TestParam_ConcurrentRampAndRender(t *testing.T) {
	p := New(0, 44100)
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			p.RampTo(float64(i%2), time.Millisecond)
			_ = p.Value()
		}
	}()
	go func() {
		defer wg.Done()
		buf := make([]float64, 128)
		for i := 0; i < 1000; i++ {
			p.Fill(buf)
		}
	}()
	wg.Wait()

	p.RampTo(0.75, 0)
	render(p, 1)
	assert.Equal(t, 0.75, p.Value())
}
