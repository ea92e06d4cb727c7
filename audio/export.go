package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/murmur/constant"
)

// ExportOptions tunes an offline render
type ExportOptions struct {
	Seed   uint64
	Logger *slog.Logger
}

// Export renders ids mixed for duration into a 16-bit stereo WAV
// The render includes the play-in fade and, when long enough, the stop fade at the end
func Export(w io.WriteSeeker, cfg *Config, ids []string, volumes map[string]float64, duration time.Duration, opts ...ExportOptions) error {
	if duration <= 0 {
		return fmt.Errorf("%w: export duration must be > 0: %v", ErrInvalidParameter, duration)
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: nothing to export", ErrInvalidParameter)
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var o ExportOptions
	if len(opts) > 0 {
		o = opts[0]
	}

	offline := NewOfflineBackend()
	mopts := []Option{WithBackend(offline), WithSeed(o.Seed)}
	if o.Logger != nil {
		mopts = append(mopts, WithLogger(o.Logger))
	}
	m := NewManager(cfg, mopts...)
	if err := m.Start(); err != nil {
		return err
	}
	defer func() {
		// Nothing pulls after the render; release immediately
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m.Close(ctx)
	}()

	for _, id := range ids {
		if vol, ok := volumes[id]; ok {
			if err := m.SetVolume(id, vol); err != nil {
				return err
			}
		}
		if _, err := m.Play(id); err != nil {
			return err
		}
	}

	sr := beep.SampleRate(cfg.SampleRate)
	total := sr.N(duration)
	tail := 0
	if duration > 2*constant.StopOutDuration {
		tail = sr.N(constant.StopOutDuration)
	}

	s := &exportStreamer{
		src:    offline,
		remain: total,
		stopAt: total - tail,
		stop:   m.StopAll,
	}
	format := beep.Format{SampleRate: sr, NumChannels: 2, Precision: 2}
	if err := wav.Encode(w, s, format); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	return nil
}

// exportStreamer bounds an offline render and triggers the closing fade
type exportStreamer struct {
	src     beep.Streamer
	remain  int
	stopAt  int
	pos     int
	stop    func()
	stopped bool
}

func (e *exportStreamer) Stream(samples [][2]float64) (int, bool) {
	if e.remain <= 0 {
		return 0, false
	}
	n := min(len(samples), e.remain)
	if !e.stopped && e.pos+n > e.stopAt {
		n = max(e.stopAt-e.pos, 0)
		if n == 0 {
			e.stop()
			e.stopped = true
			n = min(len(samples), e.remain)
		}
	}

	got, ok := e.src.Stream(samples[:n])
	if !ok {
		return 0, false
	}
	e.pos += got
	e.remain -= got
	return got, true
}

func (e *exportStreamer) Err() error { return nil }
