package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/murmur/constant"
	"github.com/lixenwraith/murmur/graph"
	"github.com/lixenwraith/murmur/noise"
)

// dcVoice is a sealed graph playing a constant level through its master
func dcVoice(t *testing.T, id string, level float64) *voice {
	t.Helper()
	const rate = constant.AudioSampleRate

	data := make([][]float64, 2)
	for ch := range data {
		data[ch] = make([]float64, rate)
		for i := range data[ch] {
			data[ch][i] = level
		}
	}
	g := graph.New(graph.Options{SampleRate: rate, Tracker: &graph.Counter{}})
	src := g.Source(&noise.Buffer{Kind: noise.White, SampleRate: rate, Data: data})
	require.NoError(t, g.Connect(src, g.Master()))
	require.NoError(t, g.Seal())

	master := g.Master().Level()
	master.SetValue(1)
	return &voice{id: id, graph: g, master: master}
}

func TestMixer_SumsVoices(t *testing.T) {
	m := NewMixer(4, constant.AudioSampleRate)
	require.True(t, m.add(dcVoice(t, "a", 0.2)))
	require.True(t, m.add(dcVoice(t, "b", 0.3)))

	out := make([][2]float64, 5000)
	n, ok := m.Stream(out)
	require.True(t, ok)
	assert.Equal(t, len(out), n)
	for _, s := range out {
		require.InDelta(t, 0.5, s[0], 1e-9)
		require.InDelta(t, 0.5, s[1], 1e-9)
	}
	assert.Equal(t, int64(5000), m.Frames())
}

func TestMixer_EmptyIsSilent(t *testing.T) {
	m := NewMixer(1, constant.AudioSampleRate)
	out := make([][2]float64, 256)
	for i := range out {
		out[i] = [2]float64{1, 1}
	}
	n, ok := m.Stream(out)
	require.True(t, ok)
	assert.Equal(t, 256, n)
	for _, s := range out {
		require.Zero(t, s[0])
	}
}

func TestMixer_QueueFull(t *testing.T) {
	m := NewMixer(1, constant.AudioSampleRate)
	require.True(t, m.add(dcVoice(t, "a", 0.1)))
	assert.False(t, m.add(dcVoice(t, "b", 0.1)))
	assert.Equal(t, uint64(1), m.dropped.Load())
}

func TestMixer_RetiresSilentVoices(t *testing.T) {
	m := NewMixer(2, constant.AudioSampleRate)
	keep := dcVoice(t, "keep", 0.1)
	gone := dcVoice(t, "gone", 0.1)
	m.add(keep)
	m.add(gone)

	out := make([][2]float64, 512)
	m.Stream(out)

	gone.master.RampTo(0, 5*time.Millisecond)
	gone.retiring.Store(true)

	// Not yet silent after one short block
	m.Stream(out[:64])
	select {
	case <-m.Retired():
		t.Fatal("retired before fade completed")
	default:
	}

	m.Stream(out)
	select {
	case v := <-m.Retired():
		assert.Same(t, gone, v)
	default:
		t.Fatal("expected retired voice")
	}
	require.Len(t, m.active, 1)
	assert.Same(t, keep, m.active[0])

	// A silent voice that is not retiring stays in the mix
	keep.master.SetValue(0)
	m.Stream(out)
	assert.Len(t, m.active, 1)
}

func TestMixer_GlobalVolume(t *testing.T) {
	m := NewMixer(1, constant.AudioSampleRate)
	m.add(dcVoice(t, "a", 0.4))
	m.SetVolume(0.5, 0)

	out := make([][2]float64, 128)
	m.Stream(out)
	assert.InDelta(t, 0.2, out[127][0], 1e-9)
	assert.Equal(t, 0.5, m.Volume())
}

func TestMixer_StreamDoesNotAllocate(t *testing.T) {
	m := NewMixer(2, constant.AudioSampleRate)
	m.add(dcVoice(t, "a", 0.1))
	out := make([][2]float64, 1024)
	m.Stream(out)

	allocs := testing.AllocsPerRun(50, func() {
		m.Stream(out)
	})
	assert.Zero(t, allocs)
}

func TestSoftLimit(t *testing.T) {
	assert.Equal(t, 0.5, softLimit(0.5))
	assert.Equal(t, -0.8, softLimit(-0.8))

	prev := 0.8
	for _, v := range []float64{0.9, 1.0, 2.0, 10.0, 1e6} {
		got := softLimit(v)
		assert.Greater(t, got, prev)
		assert.LessOrEqual(t, got, 1.0)
		assert.Equal(t, -got, softLimit(-v))
		prev = got
	}
}
