package audio

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep"
)

// OfflineBackend has no render thread; the caller pulls frames
type OfflineBackend struct {
	mu     sync.Mutex
	src    beep.Streamer
	closed bool
}

// NewOfflineBackend creates a pull-driven backend
func NewOfflineBackend() *OfflineBackend {
	return &OfflineBackend{}
}

func (b *OfflineBackend) Name() string { return BackendOffline }

func (b *OfflineBackend) Start(s beep.Streamer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.src != nil {
		return fmt.Errorf("offline backend already started")
	}
	b.src = s
	return nil
}

func (b *OfflineBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Pull renders len(samples) frames
func (b *OfflineBackend) Pull(samples [][2]float64) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case b.closed:
		return 0, ErrClosed
	case b.src == nil:
		return 0, ErrNotStarted
	}
	n, _ := b.src.Stream(samples)
	return n, nil
}

// Stream implements beep.Streamer over Pull
func (b *OfflineBackend) Stream(samples [][2]float64) (int, bool) {
	n, err := b.Pull(samples)
	return n, err == nil && n > 0
}

// Err implements beep.Streamer
func (b *OfflineBackend) Err() error { return nil }

// Advance renders and discards frames, moving fades forward
func (b *OfflineBackend) Advance(frames int) error {
	buf := make([][2]float64, min(frames, 4096))
	for frames > 0 {
		n := min(frames, len(buf))
		if _, err := b.Pull(buf[:n]); err != nil {
			return err
		}
		frames -= n
	}
	return nil
}
