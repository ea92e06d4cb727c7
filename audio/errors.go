package audio

import (
	"errors"

	"github.com/lixenwraith/murmur/noise"
	"github.com/lixenwraith/murmur/recipe"
)

// Sentinel errors
var (
	ErrInvalidParameter  = noise.ErrInvalidParameter
	ErrUnknownSound      = recipe.ErrUnknownSound
	ErrResourceExhausted = errors.New("audio resources exhausted")
	ErrNoAudioBackend    = errors.New("no compatible audio backend found")
	ErrPipeClosed        = errors.New("audio pipe closed")
	ErrClosed            = errors.New("audio manager closed")
	ErrNotStarted        = errors.New("audio backend not started")
)
