package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
	"github.com/gopxl/beep"
)

// otoChunkFrames bounds one Stream call from Read
const otoChunkFrames = 4096

// otoSource boxes the streamer for atomic swaps
type otoSource struct {
	s beep.Streamer
}

// OtoBackend plays float32 stereo through oto directly
// oto allows one context per process; the context outlives Close
type OtoBackend struct {
	rate int

	ctx    *oto.Context
	player *oto.Player
	src    atomic.Pointer[otoSource] // Atomic for lock-free Read()
	buf    [][2]float64              // Pre-allocated frame buffer

	mu      sync.Mutex // Only for setup/control operations
	started bool
}

// NewOtoBackend creates an oto backend at sampleRate
func NewOtoBackend(sampleRate int) *OtoBackend {
	return &OtoBackend{rate: sampleRate}
}

func (b *OtoBackend) Name() string { return BackendOto }

func (b *OtoBackend) Start(s beep.Streamer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return fmt.Errorf("oto already started")
	}

	if b.ctx == nil {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   b.rate,
			ChannelCount: 2,
			Format:       oto.FormatFloat32LE,
		})
		if err != nil {
			return fmt.Errorf("oto context: %w", err)
		}
		<-ready
		b.ctx = ctx
	}

	b.buf = make([][2]float64, otoChunkFrames)
	b.src.Store(&otoSource{s: s})
	b.player = b.ctx.NewPlayer(b)
	b.player.Play()
	b.started = true
	return nil
}

// Read implements io.Reader for the oto player
func (b *OtoBackend) Read(p []byte) (int, error) {
	src := b.src.Load()
	frames := len(p) / 8
	if src == nil || frames == 0 {
		clear(p)
		return len(p), nil
	}

	// Fill p in chunks of the fixed buffer; a finished stream leaves silence
	for off, live := 0, true; off < frames; {
		buf := b.buf[:min(len(b.buf), frames-off)]
		n := 0
		if live {
			n, live = src.s.Stream(buf)
			if !live {
				n = 0
			}
		}
		clear(buf[n:])

		out := p[off*8:]
		for i, f := range buf {
			binary.LittleEndian.PutUint32(out[i*8:], math.Float32bits(float32(f[0])))
			binary.LittleEndian.PutUint32(out[i*8+4:], math.Float32bits(float32(f[1])))
		}
		off += len(buf)
	}
	clear(p[frames*8:])
	return len(p), nil
}

func (b *OtoBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}
	b.src.Store(nil)
	err := b.player.Close()
	b.player = nil
	b.started = false
	return err
}
