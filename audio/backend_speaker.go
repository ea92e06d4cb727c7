package audio

import (
	"fmt"
	"sync"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/murmur/constant"
)

// SpeakerBackend plays through beep/speaker
type SpeakerBackend struct {
	rate beep.SampleRate

	mu      sync.Mutex
	started bool
}

// NewSpeakerBackend creates a speaker backend at sampleRate
func NewSpeakerBackend(sampleRate int) *SpeakerBackend {
	return &SpeakerBackend{rate: beep.SampleRate(sampleRate)}
}

func (b *SpeakerBackend) Name() string { return BackendSpeaker }

func (b *SpeakerBackend) Start(s beep.Streamer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.started {
		return fmt.Errorf("speaker already started")
	}
	if err := speaker.Init(b.rate, b.rate.N(constant.AudioSpeakerBuffer)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	speaker.Play(s)
	b.started = true
	return nil
}

func (b *SpeakerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return nil
	}
	speaker.Close()
	b.started = false
	return nil
}
