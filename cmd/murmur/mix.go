package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/lixenwraith/murmur/audio"
	"github.com/lixenwraith/murmur/recipe"
)

const (
	mixRefresh = 100 * time.Millisecond
	volumeStep = 0.05
	barWidth   = 20
)

var mixCmd = &cobra.Command{
	Use:   "mix",
	Short: "Interactive terminal mixer",
	Long: `Opens a full-screen mixer listing every sound with its volume.

  up/down, j/k     select
  space, enter     play / stop
  p                pause / resume
  P                pause / resume all
  1-5              apply preset
  left/right, h/l  volume
  -/+              master volume
  s                stop all
  q, esc           quit`,
	Args: cobra.NoArgs,
	RunE: runMix,
}

func init() {
	rootCmd.AddCommand(mixCmd)
}

// mixerUI draws the manager state and maps keys to controls
type mixerUI struct {
	screen        tcell.Screen
	width, height int

	m       *audio.Manager
	recipes []*recipe.Recipe
	presets []*recipe.Preset
	cursor  int
	master  float64
	status  string
}

func newMixerUI(screen tcell.Screen, m *audio.Manager, cfg *audio.Config) *mixerUI {
	ui := &mixerUI{
		screen:  screen,
		m:       m,
		recipes: recipe.All(),
		presets: recipe.Presets(),
		master:  cfg.MasterVolume,
	}
	ui.width, ui.height = screen.Size()

	// Seed sliders without building anything
	for _, r := range ui.recipes {
		if err := m.SetVolume(r.ID, cfg.DefaultVolume(r.ID)); err != nil {
			slog.Warn("default volume rejected", "id", r.ID, "error", err)
		}
	}
	return ui
}

func runMix(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("mix needs an interactive terminal; use play or render instead")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	m := audio.NewManager(cfg, audio.WithLogger(slog.Default()))
	if err := m.Start(); err != nil {
		return err
	}
	defer closeManager(m)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("opening terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}

	// Restore the terminal before reporting a crash
	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "\n\x1b[31mMURMUR CRASHED: %v\x1b[0m\n", r)
			fmt.Fprintf(os.Stderr, "Stack Trace:\n%s\n", debug.Stack())
			os.Exit(1)
		}
	}()
	defer screen.Fini()

	ui := newMixerUI(screen, m, cfg)
	ui.run()
	return nil
}

func (ui *mixerUI) run() {
	ticker := time.NewTicker(mixRefresh)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	quit := make(chan struct{})
	defer close(quit)
	go func() {
		for {
			ev := ui.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventChan <- ev:
			case <-quit:
				return
			}
		}
	}()

	ui.draw()
	for {
		select {
		case ev := <-eventChan:
			if !ui.handleEvent(ev) {
				return
			}
			ui.draw()
		case <-ticker.C:
			ui.draw()
		}
	}
}

func (ui *mixerUI) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return ui.handleKey(ev)
	case *tcell.EventResize:
		ui.width, ui.height = ui.screen.Size()
		ui.screen.Sync()
	}
	return true
}

// handleKey applies one key press; false quits
func (ui *mixerUI) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		ui.move(-1)
	case tcell.KeyDown:
		ui.move(1)
	case tcell.KeyLeft:
		ui.nudgeVolume(-volumeStep)
	case tcell.KeyRight:
		ui.nudgeVolume(volumeStep)
	case tcell.KeyEnter:
		ui.toggle()
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'k':
			ui.move(-1)
		case 'j':
			ui.move(1)
		case 'h':
			ui.nudgeVolume(-volumeStep)
		case 'l':
			ui.nudgeVolume(volumeStep)
		case ' ':
			ui.toggle()
		case 'p':
			ui.togglePause()
		case 'P':
			ui.togglePauseAll()
		case '1', '2', '3', '4', '5', '6', '7', '8', '9':
			ui.applyPreset(int(ev.Rune() - '1'))
		case '-':
			ui.nudgeMaster(-volumeStep)
		case '+', '=':
			ui.nudgeMaster(volumeStep)
		case 's':
			ui.m.StopAll()
			ui.status = "stopped all"
		}
	}
	return true
}

func (ui *mixerUI) selected() string {
	return ui.recipes[ui.cursor].ID
}

func (ui *mixerUI) move(delta int) {
	n := len(ui.recipes)
	ui.cursor = (ui.cursor + delta + n) % n
}

func (ui *mixerUI) toggle() {
	id := ui.selected()
	switch ui.m.State(id) {
	case audio.StatePlaying:
		ui.m.Stop(id)
		ui.status = "stopping " + id
	default:
		if _, err := ui.m.Play(id); err != nil {
			ui.status = err.Error()
			slog.Error("play failed", "id", id, "error", err)
			return
		}
		ui.status = "playing " + id
	}
}

func (ui *mixerUI) togglePause() {
	id := ui.selected()
	switch ui.m.State(id) {
	case audio.StatePlaying:
		ui.m.Pause(id)
		ui.status = "paused " + id
	case audio.StatePaused:
		ui.m.Resume(id)
		ui.status = "resumed " + id
	}
}

// togglePauseAll pauses everything playing, or resumes everything when nothing is
func (ui *mixerUI) togglePauseAll() {
	if n := ui.m.PauseAll(); n > 0 {
		ui.status = fmt.Sprintf("paused %d", n)
		return
	}
	if n := ui.m.ResumeAll(); n > 0 {
		ui.status = fmt.Sprintf("resumed %d", n)
	}
}

func (ui *mixerUI) applyPreset(i int) {
	if i < 0 || i >= len(ui.presets) {
		return
	}
	p := ui.presets[i]
	if err := ui.m.ApplyPreset(p); err != nil {
		ui.status = err.Error()
		slog.Error("preset failed", "preset", p.ID, "error", err)
		return
	}
	ui.status = "preset " + p.Name
}

func (ui *mixerUI) nudgeVolume(delta float64) {
	id := ui.selected()
	if err := ui.m.SetVolume(id, ui.m.Volume(id)+delta); err != nil {
		ui.status = err.Error()
	}
}

func (ui *mixerUI) nudgeMaster(delta float64) {
	ui.master = min(1, max(0, ui.master+delta))
	if err := ui.m.SetMasterVolume(ui.master); err != nil {
		ui.status = err.Error()
	}
}

func (ui *mixerUI) draw() {
	ui.screen.Clear()

	title := tcell.StyleDefault.Bold(true)
	dim := tcell.StyleDefault.Foreground(tcell.ColorGray)

	ui.drawText(1, 0, title, "murmur")
	ui.drawText(9, 0, dim, fmt.Sprintf("master %3.0f%%", ui.master*100))

	for i, r := range ui.recipes {
		y := i + 2
		state := ui.m.State(r.ID)
		vol := ui.m.Volume(r.ID)

		style := tcell.StyleDefault
		switch state {
		case audio.StatePlaying:
			style = style.Foreground(tcell.ColorGreen)
		case audio.StatePaused:
			style = style.Foreground(tcell.ColorYellow)
		}
		if i == ui.cursor {
			style = style.Reverse(true)
		}

		line := fmt.Sprintf(" %-14s %-8s %s %3.0f%% ", r.Name, state, volumeBar(vol), vol*100)
		ui.drawText(1, y, style, line)
	}

	s := ui.m.Stats()
	footer := fmt.Sprintf("backend %s  live %d  fading %d", s.Backend, s.Live, s.Draining)
	ui.drawText(1, len(ui.recipes)+3, dim, footer)
	ui.drawText(1, len(ui.recipes)+4, dim, "space play/stop  p/P pause one/all  h/l volume  -/+ master  s stop all  q quit")

	presets := make([]string, len(ui.presets))
	for i, p := range ui.presets {
		presets[i] = fmt.Sprintf("%d %s", i+1, p.Name)
	}
	ui.drawText(1, len(ui.recipes)+5, dim, "presets: "+strings.Join(presets, "  "))
	if ui.status != "" {
		ui.drawText(1, len(ui.recipes)+7, tcell.StyleDefault, ui.status)
	}

	ui.screen.Show()
}

func (ui *mixerUI) drawText(x, y int, style tcell.Style, text string) {
	if y >= ui.height {
		return
	}
	for _, r := range text {
		if x >= ui.width {
			return
		}
		ui.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// volumeBar renders a fraction as a fixed-width bar
func volumeBar(v float64) string {
	filled := int(v*barWidth + 0.5)
	filled = min(barWidth, max(0, filled))
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
