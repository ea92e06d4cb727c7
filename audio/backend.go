package audio

import (
	"fmt"
	"log/slog"

	"github.com/gopxl/beep"
)

// Backend names accepted in configuration
const (
	BackendAuto    = "auto"
	BackendSpeaker = "speaker"
	BackendOto     = "oto"
	BackendPipe    = "pipe"
	BackendNull    = "null"
	BackendOffline = "offline"
)

// Backends lists every configurable backend name
func Backends() []string {
	return []string{BackendAuto, BackendSpeaker, BackendOto, BackendPipe, BackendNull, BackendOffline}
}

func validBackend(name string) bool {
	for _, b := range Backends() {
		if b == name {
			return true
		}
	}
	return false
}

// Backend drives a streamer from a render context
// Start may be called once; Close stops pulling from the streamer before returning
type Backend interface {
	Name() string
	Start(s beep.Streamer) error
	Close() error
}

// NewBackend constructs an unstarted backend by name
func NewBackend(name string, sampleRate int, logger *slog.Logger) (Backend, error) {
	if logger == nil {
		logger = discardLogger()
	}
	switch name {
	case BackendAuto, "":
		return &autoBackend{rate: sampleRate, logger: logger}, nil
	case BackendSpeaker:
		return NewSpeakerBackend(sampleRate), nil
	case BackendOto:
		return NewOtoBackend(sampleRate), nil
	case BackendPipe:
		return NewPipeBackend(sampleRate, logger), nil
	case BackendNull:
		return NewNullBackend(sampleRate), nil
	case BackendOffline:
		return NewOfflineBackend(), nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidParameter, name)
}

// autoBackend degrades speaker -> pipe -> null so playback never fails for lack of a device
type autoBackend struct {
	rate   int
	logger *slog.Logger
	active Backend
}

func (a *autoBackend) Name() string {
	if a.active != nil {
		return a.active.Name()
	}
	return BackendAuto
}

func (a *autoBackend) Start(s beep.Streamer) error {
	candidates := []Backend{
		NewSpeakerBackend(a.rate),
		NewPipeBackend(a.rate, a.logger),
		NewNullBackend(a.rate),
	}
	for _, b := range candidates {
		if err := b.Start(s); err != nil {
			a.logger.Debug("audio backend unavailable", "backend", b.Name(), "error", err)
			continue
		}
		a.active = b
		a.logger.Info("audio backend selected", "backend", b.Name())
		return nil
	}
	return ErrNoAudioBackend
}

func (a *autoBackend) Close() error {
	if a.active == nil {
		return nil
	}
	return a.active.Close()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
