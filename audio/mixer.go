package audio

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/murmur/automation"
	"github.com/lixenwraith/murmur/constant"
	"github.com/lixenwraith/murmur/graph"
)

// voice is one instance's graph as seen by the render path
type voice struct {
	id       string
	graph    *graph.Graph
	master   *graph.Param
	retiring atomic.Bool
}

// silent reports a retiring voice may leave the mix; render side only
func (v *voice) silent() bool {
	return v.master.Settled() && math.Abs(v.master.Value()) <= constant.SilenceThreshold
}

// Mixer sums active voices into one stereo stream; implements beep.Streamer
// Voices arrive and leave through buffered channels so Stream never locks
type Mixer struct {
	adds chan *voice
	done chan *voice

	volume *automation.Param

	// Accessed only by the render goroutine
	active  []*voice
	scratch [][2]float64
	gain    []float64

	// Stats
	frames  atomic.Int64
	dropped atomic.Uint64
}

// NewMixer creates a mixer holding up to capacity voices
func NewMixer(capacity, sampleRate int) *Mixer {
	return &Mixer{
		adds:    make(chan *voice, capacity),
		done:    make(chan *voice, capacity),
		volume:  automation.New(1.0, sampleRate),
		active:  make([]*voice, 0, capacity),
		scratch: make([][2]float64, constant.AudioBufferSamples),
		gain:    make([]float64, constant.AudioBufferSamples),
	}
}

// add queues a voice for the render path; false when the queue is full
func (m *Mixer) add(v *voice) bool {
	select {
	case m.adds <- v:
		return true
	default:
		m.dropped.Add(1)
		return false
	}
}

// Retired delivers voices that faded out after being marked retiring
func (m *Mixer) Retired() <-chan *voice {
	return m.done
}

// SetVolume ramps the global output level
func (m *Mixer) SetVolume(v float64, d time.Duration) {
	m.volume.RampTo(v, d)
}

// Volume returns the last rendered global level
func (m *Mixer) Volume() float64 {
	return m.volume.Value()
}

// Stream renders all active voices, applies the global level and soft limits the sum
func (m *Mixer) Stream(samples [][2]float64) (int, bool) {
	m.accept()

	for off := 0; off < len(samples); off += len(m.scratch) {
		chunk := samples[off:min(off+len(m.scratch), len(samples))]
		n := len(chunk)
		clear(chunk)

		scratch := m.scratch[:n]
		for _, v := range m.active {
			if _, ok := v.graph.Stream(scratch); !ok {
				continue
			}
			for i := range chunk {
				chunk[i][0] += scratch[i][0]
				chunk[i][1] += scratch[i][1]
			}
		}

		gain := m.gain[:n]
		m.volume.Fill(gain)
		for i := range chunk {
			chunk[i][0] = softLimit(chunk[i][0] * gain[i])
			chunk[i][1] = softLimit(chunk[i][1] * gain[i])
		}
	}

	m.retire()
	m.frames.Add(int64(len(samples)))
	return len(samples), true
}

// Err implements beep.Streamer
func (m *Mixer) Err() error { return nil }

// Frames returns the total frames rendered
func (m *Mixer) Frames() int64 { return m.frames.Load() }

// accept drains queued voices without blocking
func (m *Mixer) accept() {
	for {
		select {
		case v := <-m.adds:
			m.active = append(m.active, v)
		default:
			return
		}
	}
}

// retire hands silent retiring voices back, compacting the active list in place
func (m *Mixer) retire() {
	remaining := m.active[:0]
	for _, v := range m.active {
		if v.retiring.Load() && v.silent() {
			select {
			case m.done <- v:
				continue
			default:
				// Retry next block
			}
		}
		remaining = append(remaining, v)
	}
	clear(m.active[len(remaining):])
	m.active = remaining
}

// softLimit compresses peaks above 0.8 toward a hard ceiling of 1
func softLimit(v float64) float64 {
	if v > 0.8 {
		v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
	} else if v < -0.8 {
		v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
	}

	if v > 1.0 {
		v = 1.0
	} else if v < -1.0 {
		v = -1.0
	}
	return v
}
