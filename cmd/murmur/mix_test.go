package main

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/murmur/audio"
)

func newTestMixer(t *testing.T) (*mixerUI, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	cfg := audio.DefaultConfig()
	cfg.LoopSeconds = 2
	m := audio.NewManager(cfg, audio.WithBackend(audio.NewOfflineBackend()), audio.WithSeed(1))
	require.NoError(t, m.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m.Close(ctx)
	})

	return newMixerUI(screen, m, cfg), screen
}

func key(k tcell.Key) *tcell.EventKey {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func char(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestMixer_SeedsVolumesWithoutBuilding(t *testing.T) {
	ui, _ := newTestMixer(t)

	assert.Equal(t, 0.7, ui.m.Volume("rain"))
	assert.Equal(t, 0.5, ui.m.Volume("cafe"))
	assert.Empty(t, ui.m.Live())
}

func TestMixer_Keys(t *testing.T) {
	ui, _ := newTestMixer(t)
	first := ui.recipes[0].ID
	second := ui.recipes[1].ID

	require.True(t, ui.handleKey(char(' ')))
	assert.Equal(t, audio.StatePlaying, ui.m.State(first))

	require.True(t, ui.handleKey(char('p')))
	assert.Equal(t, audio.StatePaused, ui.m.State(first))
	require.True(t, ui.handleKey(char('p')))
	assert.Equal(t, audio.StatePlaying, ui.m.State(first))

	require.True(t, ui.handleKey(key(tcell.KeyDown)))
	assert.Equal(t, second, ui.selected())
	before := ui.m.Volume(second)
	require.True(t, ui.handleKey(char('l')))
	assert.InDelta(t, before+volumeStep, ui.m.Volume(second), 1e-9)
	assert.Equal(t, []string{first}, ui.m.Live(), "volume changes never build")

	require.True(t, ui.handleKey(char('k')))
	require.True(t, ui.handleKey(key(tcell.KeyEnter)))
	assert.Equal(t, audio.StateNone, ui.m.State(first))

	require.True(t, ui.handleKey(char('k')))
	assert.Equal(t, ui.recipes[len(ui.recipes)-1].ID, ui.selected(), "cursor wraps")

	require.True(t, ui.handleKey(char('-')))
	assert.InDelta(t, 0.95, ui.master, 1e-9)
	require.True(t, ui.handleKey(char('+')))
	require.True(t, ui.handleKey(char('+')))
	assert.Equal(t, 1.0, ui.master)

	assert.False(t, ui.handleKey(char('q')))
	assert.False(t, ui.handleKey(key(tcell.KeyEscape)))
}

func TestMixer_Draw(t *testing.T) {
	ui, screen := newTestMixer(t)
	ui.handleKey(char(' '))
	ui.draw()

	cells, w, h := screen.GetContents()
	require.Equal(t, 80*24, w*h)

	var sb strings.Builder
	for _, c := range cells {
		if len(c.Runes) > 0 {
			sb.WriteRune(c.Runes[0])
		}
	}
	text := sb.String()
	assert.Contains(t, text, "murmur")
	assert.Contains(t, text, ui.recipes[0].Name)
	assert.Contains(t, text, "playing")
	assert.Contains(t, text, "backend offline")
	assert.Contains(t, text, "1 Rainy Cafe")
	assert.Contains(t, text, "5 Sleep")
}

func TestMixer_PauseAllKey(t *testing.T) {
	ui, _ := newTestMixer(t)
	first := ui.recipes[0].ID

	require.True(t, ui.handleKey(char(' ')))
	require.True(t, ui.handleKey(key(tcell.KeyDown)))
	require.True(t, ui.handleKey(char(' ')))
	second := ui.selected()

	require.True(t, ui.handleKey(char('P')))
	assert.Equal(t, audio.StatePaused, ui.m.State(first))
	assert.Equal(t, audio.StatePaused, ui.m.State(second))
	assert.Equal(t, "paused 2", ui.status)

	require.True(t, ui.handleKey(char('P')))
	assert.Equal(t, audio.StatePlaying, ui.m.State(first))
	assert.Equal(t, audio.StatePlaying, ui.m.State(second))
	assert.Equal(t, "resumed 2", ui.status)
}

func TestMixer_PresetKeys(t *testing.T) {
	ui, _ := newTestMixer(t)
	require.True(t, ui.handleKey(char(' ')))
	require.Equal(t, []string{ui.recipes[0].ID}, ui.m.Live())

	require.True(t, ui.handleKey(char('5')))
	assert.Equal(t, []string{"night", "rain", "waves"}, ui.m.Live())
	assert.Equal(t, 0.6, ui.m.Volume("night"))
	assert.Equal(t, "preset Sleep", ui.status)

	require.True(t, ui.handleKey(char('9')), "keys past the table are ignored")
	assert.Equal(t, "preset Sleep", ui.status)
}

func TestVolumeBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("░", barWidth), volumeBar(0))
	assert.Equal(t, strings.Repeat("█", barWidth), volumeBar(1))
	assert.Equal(t, strings.Repeat("█", 10)+strings.Repeat("░", 10), volumeBar(0.5))
	assert.Equal(t, strings.Repeat("█", barWidth), volumeBar(3))
}
