package audio

import (
	"fmt"
	"io"
	"sync"

	"github.com/gopxl/beep"
)

// NullBackend renders in real time and discards the output
// Keeps fades and retirement moving on machines without a sound device
type NullBackend struct {
	rate int
	out  io.Writer

	mu   sync.Mutex
	loop *renderLoop
}

// NewNullBackend creates a discarding backend at sampleRate
func NewNullBackend(sampleRate int) *NullBackend {
	return &NullBackend{rate: sampleRate, out: io.Discard}
}

func (b *NullBackend) Name() string { return BackendNull }

func (b *NullBackend) Start(s beep.Streamer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loop != nil {
		return fmt.Errorf("null backend already started")
	}
	b.loop = newRenderLoop(b.out, s, b.rate)
	b.loop.start()
	return nil
}

func (b *NullBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loop == nil {
		return nil
	}
	b.loop.stop()
	b.loop = nil
	return nil
}
