package constant

import "time"

// Audio Hardware Settings
const (
	AudioSampleRate    = 44100
	AudioChannels      = 2
	AudioBitDepth      = 16
	AudioBytesPerFrame = AudioChannels * (AudioBitDepth / 8) // 4 bytes
)

// Audio Engine Timing
const (
	// AudioBufferDuration is the tick of the pipe and null render loops
	AudioBufferDuration = 50 * time.Millisecond

	// AudioBufferSamples is frames per render tick at 44.1kHz
	AudioBufferSamples = (AudioSampleRate * 50) / 1000 // 2205

	// AudioSpeakerBuffer is the device buffer handed to beep/speaker
	AudioSpeakerBuffer = 100 * time.Millisecond

	// GraphBlockSize is the fixed render block inside a synthesis graph
	GraphBlockSize = 128

	// FilterUpdateInterval is how often (in samples) biquad coefficients follow their params
	FilterUpdateInterval = 32

	// ReapPollInterval bounds how often Close checks for drained instances
	ReapPollInterval = 10 * time.Millisecond
)

// Noise
const (
	NoiseLoopDuration    = 4 * time.Second
	NoiseMinLoopDuration = 2 * time.Second
	NoiseSeamCrossfade   = 50 * time.Millisecond
)

// Master gain transitions
const (
	PlayInDuration       = 800 * time.Millisecond
	ResumeDuration       = 800 * time.Millisecond
	PauseOutDuration     = 500 * time.Millisecond
	StopOutDuration      = 500 * time.Millisecond
	VolumeChangeDuration = 100 * time.Millisecond
)

// Instance limits
const (
	// MaxInstances bounds live plus draining instances in one mixer
	MaxInstances = 16

	// SilenceThreshold is the master level treated as silent when retiring
	SilenceThreshold = 1e-6
)
