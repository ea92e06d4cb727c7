package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/murmur/constant"
)

// renderLoop pulls a streamer on a ticker and writes s16le stereo frames
type renderLoop struct {
	out    io.Writer
	src    beep.Streamer
	frames int

	stopChan chan struct{}
	stopped  atomic.Bool
	wg       sync.WaitGroup

	// Error signaling
	errChan chan error
}

func newRenderLoop(out io.Writer, src beep.Streamer, sampleRate int) *renderLoop {
	frames := int(int64(sampleRate) * int64(constant.AudioBufferDuration) / int64(time.Second))
	return &renderLoop{
		out:      out,
		src:      src,
		frames:   frames,
		stopChan: make(chan struct{}),
		errChan:  make(chan error, 1),
	}
}

// start begins the render goroutine
func (l *renderLoop) start() {
	l.wg.Add(1)
	go l.loop()
}

// signal asks the loop to exit without waiting
func (l *renderLoop) signal() {
	if l.stopped.CompareAndSwap(false, true) {
		close(l.stopChan)
	}
}

// stop halts the loop and waits for the goroutine to exit
func (l *renderLoop) stop() {
	l.signal()
	l.wg.Wait()
}

// Errors returns channel for write errors
func (l *renderLoop) Errors() <-chan error {
	return l.errChan
}

func (l *renderLoop) loop() {
	defer l.wg.Done()

	ticker := time.NewTicker(constant.AudioBufferDuration)
	defer ticker.Stop()

	buf := make([][2]float64, l.frames)
	outBytes := make([]byte, l.frames*constant.AudioBytesPerFrame)

	for {
		select {
		case <-l.stopChan:
			return

		case <-ticker.C:
			n, ok := l.src.Stream(buf)
			if !ok {
				n = 0
			}
			// Write silence past the end to keep the pipe alive
			clear(buf[n:])
			framesToBytes(buf, outBytes)

			if _, err := l.out.Write(outBytes); err != nil {
				select {
				case l.errChan <- fmt.Errorf("%w: %v", ErrPipeClosed, err):
				default:
				}
				return
			}
		}
	}
}

// framesToBytes converts stereo float frames to interleaved int16 LE bytes with a hard clip
func framesToBytes(in [][2]float64, out []byte) {
	for i, f := range in {
		for ch := 0; ch < 2; ch++ {
			v := f[ch]
			if v > 1.0 {
				v = 1.0
			} else if v < -1.0 {
				v = -1.0
			}
			binary.LittleEndian.PutUint16(out[i*4+ch*2:], uint16(int16(v*32767)))
		}
	}
}
