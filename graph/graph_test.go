package graph

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/murmur/noise"
)

const testRate = 44100

func newTestGraph(t *testing.T) (*Graph, *Counter) {
	t.Helper()
	c := &Counter{}
	return New(Options{SampleRate: testRate, Tracker: c}), c
}

// constantBuffer is a stereo loop holding v on every sample
func constantBuffer(v float64, rate, frames int) *noise.Buffer {
	data := make([][]float64, 2)
	for ch := range data {
		data[ch] = make([]float64, frames)
		for i := range data[ch] {
			data[ch][i] = v
		}
	}
	return &noise.Buffer{Kind: noise.White, SampleRate: rate, Data: data}
}

func stream(t *testing.T, g *Graph, frames int) [][2]float64 {
	t.Helper()
	out := make([][2]float64, frames)
	n, ok := g.Stream(out)
	require.True(t, ok)
	require.Equal(t, frames, n)
	return out
}

func peak(samples [][2]float64) float64 {
	m := 0.0
	for _, s := range samples {
		m = math.Max(m, math.Abs(s[0]))
	}
	return m
}

func TestNew_MasterStartsSilent(t *testing.T) {
	g, c := newTestGraph(t)

	require.NotNil(t, g.Master())
	assert.Equal(t, 0.0, g.Master().Level().Value())
	assert.Equal(t, 1, g.Len())
	assert.Equal(t, int64(1), c.Count(KindGraph))
	assert.Equal(t, int64(1), c.Count(KindGain))

	require.NoError(t, g.Seal())
	out := stream(t, g, 256)
	assert.Zero(t, peak(out))
}

func TestConnect_RejectsInvalidEdges(t *testing.T) {
	t.Run("into source", func(t *testing.T) {
		g, _ := newTestGraph(t)
		src := g.Source(constantBuffer(1, testRate, 64))
		gain := g.Gain(1)
		require.ErrorIs(t, g.Connect(gain, src), ErrConstruction)
		assert.ErrorIs(t, g.Seal(), ErrConstruction, "errors are sticky")
	})

	t.Run("into oscillator", func(t *testing.T) {
		g, _ := newTestGraph(t)
		osc := g.Oscillator(Sine, 440)
		require.ErrorIs(t, g.Connect(g.Gain(1), osc), ErrConstruction)
	})

	t.Run("out of master", func(t *testing.T) {
		g, _ := newTestGraph(t)
		require.ErrorIs(t, g.Connect(g.Master(), g.Gain(1)), ErrConstruction)
	})

	t.Run("across graphs", func(t *testing.T) {
		g, _ := newTestGraph(t)
		other, _ := newTestGraph(t)
		require.ErrorIs(t, g.Connect(other.Gain(1), g.Master()), ErrConstruction)
	})

	t.Run("after seal", func(t *testing.T) {
		g, _ := newTestGraph(t)
		require.NoError(t, g.Seal())
		require.ErrorIs(t, g.Connect(g.Gain(1), g.Master()), ErrConstruction)
	})
}

func TestConnect_RejectsCycles(t *testing.T) {
	g, _ := newTestGraph(t)
	a, b := g.Gain(1), g.Gain(1)

	require.NoError(t, g.Chain(a, b, g.Master()))
	require.ErrorIs(t, g.Connect(b, a), ErrConstruction)
	require.ErrorIs(t, g.Seal(), ErrConstruction)
}

func TestConnect_SelfLoop(t *testing.T) {
	g, _ := newTestGraph(t)
	a := g.Gain(1)
	require.ErrorIs(t, g.Connect(a, a), ErrConstruction)
}

func TestModulate_RejectsCycleThroughParam(t *testing.T) {
	g, _ := newTestGraph(t)
	osc := g.Oscillator(Sine, 5)
	gain := g.Gain(1)
	require.NoError(t, g.Chain(osc, gain, g.Master()))

	require.ErrorIs(t, g.Modulate(gain, osc.Frequency(), 10, 0), ErrConstruction)
}

func TestSeal_RejectsDanglingProducer(t *testing.T) {
	g, _ := newTestGraph(t)
	src := g.Source(constantBuffer(0.5, testRate, 64))
	lp := g.Filter(Lowpass, 1000, 0.7)
	require.NoError(t, g.Connect(src, lp))

	err := g.Seal()
	require.ErrorIs(t, err, ErrConstruction)
	assert.False(t, g.Sealed())
}

func TestSeal_AcceptsModulationOnlySource(t *testing.T) {
	g, _ := newTestGraph(t)
	src := g.Source(constantBuffer(1, testRate, 64))
	gain := g.Gain(0.5)
	lfo := g.Oscillator(Sine, 0.3)

	require.NoError(t, g.Chain(src, gain, g.Master()))
	require.NoError(t, g.Modulate(lfo, gain.Level(), 0.05, 0))
	require.NoError(t, g.Seal())
}

func TestSource_MismatchedRate(t *testing.T) {
	g, _ := newTestGraph(t)
	g.Source(constantBuffer(1, 22050, 64))
	require.ErrorIs(t, g.Err(), ErrConstruction)
}

func TestStream_SourceThroughMaster(t *testing.T) {
	g, _ := newTestGraph(t)
	buf := constantBuffer(0, testRate, 100)
	for i := range buf.Data[0] {
		buf.Data[0][i] = float64(i) / 100
		buf.Data[1][i] = -float64(i) / 100
	}

	require.NoError(t, g.Connect(g.Source(buf), g.Master()))
	require.NoError(t, g.Seal())
	g.Master().Level().SetValue(1)

	out := stream(t, g, 300)
	assert.Equal(t, 0.0, out[0][0])
	assert.Equal(t, 0.5, out[50][0])
	assert.Equal(t, -0.5, out[50][1])
	assert.Equal(t, 0.5, out[150][0], "source loops")
	assert.Equal(t, 0.99, out[299][0])
}

func TestStream_InputsAreSummed(t *testing.T) {
	g, _ := newTestGraph(t)
	a := g.Source(constantBuffer(0.25, testRate, 64))
	b := g.Source(constantBuffer(0.5, testRate, 64))
	require.NoError(t, g.Connect(a, g.Master()))
	require.NoError(t, g.Connect(b, g.Master()))
	require.NoError(t, g.Seal())
	g.Master().Level().SetValue(1)

	out := stream(t, g, 10)
	assert.InDelta(t, 0.75, out[9][0], 1e-12)
}

func TestModulate_SumsWithAutomatedValue(t *testing.T) {
	const rate = 1000
	c := &Counter{}
	g := New(Options{SampleRate: rate, BlockSize: 64, Tracker: c})

	src := g.Source(constantBuffer(1, rate, 64))
	gain := g.Gain(0.5)
	lfo := g.Oscillator(Square, 1)

	require.NoError(t, g.Chain(src, gain, g.Master()))
	require.NoError(t, g.Modulate(lfo, gain.Level(), 0.25, 0))
	require.NoError(t, g.Seal())
	g.Master().Level().SetValue(1)

	out := stream(t, g, 1000)
	assert.InDelta(t, 0.75, out[10][0], 1e-12, "first half of square is +1")
	assert.InDelta(t, 0.25, out[600][0], 1e-12, "second half of square is -1")
}

func TestModulate_ClampsToParamRange(t *testing.T) {
	g, _ := newTestGraph(t)
	src := g.Source(constantBuffer(1, testRate, 64))
	gain := g.Gain(1)
	lfo := g.Oscillator(Square, 1)

	require.NoError(t, g.Chain(src, gain, g.Master()))
	require.NoError(t, g.Modulate(lfo, gain.Level(), 100, 0))
	require.NoError(t, g.Seal())
	g.Master().Level().SetValue(1)

	out := stream(t, g, 16)
	assert.Equal(t, GainMax, out[0][0])
}

func TestFilter_BandpassPeakIsUnity(t *testing.T) {
	g, _ := newTestGraph(t)
	osc := g.Oscillator(Sine, 1000)
	bp := g.Filter(Bandpass, 1000, 2)
	require.NoError(t, g.Chain(osc, bp, g.Master()))
	require.NoError(t, g.Seal())
	g.Master().Level().SetValue(1)

	out := stream(t, g, testRate/2)
	assert.InDelta(t, 1.0, peak(out[testRate/4:]), 0.05)
}

func TestFilter_LowpassAttenuatesHighs(t *testing.T) {
	g, _ := newTestGraph(t)
	osc := g.Oscillator(Sine, 8000)
	lp := g.Filter(Lowpass, 500, 0.7071)
	require.NoError(t, g.Chain(osc, lp, g.Master()))
	require.NoError(t, g.Seal())
	g.Master().Level().SetValue(1)

	out := stream(t, g, testRate/4)
	assert.Less(t, peak(out[testRate/8:]), 0.02)
}

func TestFilter_FrequencyFollowsModulation(t *testing.T) {
	g, _ := newTestGraph(t)
	osc := g.Oscillator(Sine, 4000)
	lp := g.Filter(Lowpass, 400, 0.7071)
	sweep := g.Oscillator(Square, 0.5)

	require.NoError(t, g.Chain(osc, lp, g.Master()))
	// Square alternates cutoff between 400 and 8400 Hz
	require.NoError(t, g.Modulate(sweep, lp.Frequency(), 4000, 4000))
	require.NoError(t, g.Seal())
	g.Master().Level().SetValue(1)

	out := stream(t, g, testRate*2)
	open := peak(out[testRate/4 : testRate/2])
	closed := peak(out[testRate+testRate/4 : testRate+testRate/2])
	assert.Greater(t, open, 0.8)
	assert.Less(t, closed, 0.1)
}

func TestStream_NotSealedOrReleased(t *testing.T) {
	g, c := newTestGraph(t)
	buf := make([][2]float64, 8)

	n, ok := g.Stream(buf)
	assert.Zero(t, n)
	assert.False(t, ok)

	require.NoError(t, g.Seal())
	g.Release()
	n, ok = g.Stream(buf)
	assert.Zero(t, n)
	assert.False(t, ok)
	assert.Zero(t, c.Total())
}

func TestRelease_Idempotent(t *testing.T) {
	g, c := newTestGraph(t)
	src := g.Source(constantBuffer(1, testRate, 64))
	lp := g.Filter(Lowpass, 1000, 0.5)
	lfo := g.Oscillator(Sine, 0.3)
	gain := g.Gain(0.4)
	require.NoError(t, g.Chain(src, lp, gain, g.Master()))
	require.NoError(t, g.Modulate(lfo, gain.Level(), 0.05, 0))
	require.NoError(t, g.Seal())

	assert.Equal(t, int64(1), c.Count(KindSource))
	assert.Equal(t, int64(1), c.Count(KindFilter))
	assert.Equal(t, int64(1), c.Count(KindOscillator))
	assert.Equal(t, int64(2), c.Count(KindGain))
	assert.Equal(t, int64(6), c.Total())

	g.Release()
	g.Release()
	assert.True(t, g.Released())
	assert.Zero(t, c.Total())
}

func TestStream_DoesNotAllocate(t *testing.T) {
	g, _ := newTestGraph(t)
	src := g.Source(constantBuffer(0.5, testRate, 512))
	bp := g.Filter(Bandpass, 800, 1.5)
	lfo := g.Oscillator(Sine, 2.3)
	gain := g.Gain(0.1)
	require.NoError(t, g.Chain(src, bp, gain, g.Master()))
	require.NoError(t, g.Modulate(lfo, gain.Level(), 0.06, 0))
	require.NoError(t, g.Seal())

	buf := make([][2]float64, 512)
	allocs := testing.AllocsPerRun(50, func() {
		g.Stream(buf)
	})
	assert.Zero(t, allocs)
}

func TestKindStrings(t *testing.T) {
	assert.Equal(t, "filter", KindFilter.String())
	assert.Equal(t, "sawtooth", Sawtooth.String())
	assert.Equal(t, "bandpass", Bandpass.String())
	assert.Len(t, Kinds(), 5)
}
