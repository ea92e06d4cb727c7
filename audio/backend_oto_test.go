package audio

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gopxl/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/murmur/constant"
)

// readyOto wires s into an OtoBackend without opening a device
func readyOto(s beep.Streamer) *OtoBackend {
	b := NewOtoBackend(constant.AudioSampleRate)
	b.buf = make([][2]float64, otoChunkFrames)
	b.src.Store(&otoSource{s: s})
	return b
}

func TestOtoBackend_ReadLargerThanChunk(t *testing.T) {
	calls := 0
	b := readyOto(beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		calls++
		for i := range samples {
			samples[i] = [2]float64{0.25, -0.5}
		}
		return len(samples), true
	}))

	frames := 2*otoChunkFrames + 100
	p := make([]byte, frames*8)
	n, err := b.Read(p)
	require.NoError(t, err)
	assert.Equal(t, len(p), n)
	assert.Equal(t, 3, calls)
	assert.Len(t, b.buf, otoChunkFrames)

	for _, i := range []int{0, otoChunkFrames, frames - 1} {
		l := math.Float32frombits(binary.LittleEndian.Uint32(p[i*8:]))
		r := math.Float32frombits(binary.LittleEndian.Uint32(p[i*8+4:]))
		assert.Equal(t, float32(0.25), l, "frame %d", i)
		assert.Equal(t, float32(-0.5), r, "frame %d", i)
	}

	allocs := testing.AllocsPerRun(20, func() {
		b.Read(p)
	})
	assert.Zero(t, allocs)
}

func TestOtoBackend_ReadAfterStreamEnds(t *testing.T) {
	calls := 0
	b := readyOto(beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		calls++
		return 0, false
	}))

	p := make([]byte, (otoChunkFrames+10)*8)
	for i := range p {
		p[i] = 0xff
	}
	_, err := b.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "an ended stream is not pulled again within one read")
	for _, v := range p {
		require.Zero(t, v)
	}
}

func TestOtoBackend_ReadWithoutSource(t *testing.T) {
	b := NewOtoBackend(constant.AudioSampleRate)
	p := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	n, err := b.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Equal(t, make([]byte, 8), p)
}
