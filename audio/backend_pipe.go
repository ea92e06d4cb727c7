package audio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/gopxl/beep"
)

// PipeBackend streams raw PCM to a detected CLI player or OSS device
type PipeBackend struct {
	rate   int
	logger *slog.Logger

	// Detect is swappable for tests
	Detect func(sampleRate int) (*PlayerConfig, error)

	player  *PlayerConfig
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ossFile *os.File // For direct OSS writes
	loop    *renderLoop

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewPipeBackend creates a pipe backend at sampleRate
func NewPipeBackend(sampleRate int, logger *slog.Logger) *PipeBackend {
	if logger == nil {
		logger = discardLogger()
	}
	return &PipeBackend{
		rate:   sampleRate,
		logger: logger,
		Detect: DetectPlayer,
	}
}

func (b *PipeBackend) Name() string {
	if b.player != nil {
		return BackendPipe + ":" + b.player.Name
	}
	return BackendPipe
}

// Start launches the player and the render loop
func (b *PipeBackend) Start(s beep.Streamer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loop != nil {
		return fmt.Errorf("pipe already started")
	}

	player, err := b.Detect(b.rate)
	if err != nil {
		return err
	}

	b.player = player

	var writer io.Writer
	if player.Type == PlayerOSS {
		// Direct file write for OSS
		f, err := os.OpenFile(player.Path, os.O_WRONLY, 0)
		if err != nil {
			return fmt.Errorf("open %s: %w", player.Path, err)
		}
		b.ossFile = f
		writer = f
	} else {
		// Exec-based player
		cmd := exec.Command(player.Path, player.Args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("%s stdin: %w", player.Name, err)
		}
		if err := cmd.Start(); err != nil {
			stdin.Close()
			return fmt.Errorf("start %s: %w", player.Name, err)
		}

		b.cmd = cmd
		b.stdin = stdin
		writer = stdin

		// Monitor process
		b.wg.Add(1)
		go b.monitorProcess()
	}

	b.loop = newRenderLoop(writer, s, b.rate)
	b.loop.start()

	// Monitor loop errors
	b.wg.Add(1)
	go b.monitorLoop(b.loop)

	return nil
}

// monitorProcess watches for subprocess exit
func (b *PipeBackend) monitorProcess() {
	defer b.wg.Done()

	if err := b.cmd.Wait(); err != nil {
		b.logger.Debug("audio player exited", "player", b.player.Name, "error", err)
	}
}

// monitorLoop watches for pipe errors
func (b *PipeBackend) monitorLoop(l *renderLoop) {
	defer b.wg.Done()

	select {
	case err := <-l.Errors():
		b.logger.Warn("audio pipe failed, output is silent", "error", err)
	case <-l.stopChan:
	}
}

// Close stops rendering and terminates the player
func (b *PipeBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.loop == nil {
		return nil
	}
	// Unblock a pending write before waiting on the loop
	b.loop.signal()

	if b.stdin != nil {
		b.stdin.Close()
	}
	if b.ossFile != nil {
		b.ossFile.Close()
	}
	if b.cmd != nil && b.cmd.Process != nil {
		b.cmd.Process.Kill()
	}

	b.loop.stop()
	b.wg.Wait()
	b.loop = nil
	return nil
}
