package audio

import (
	"fmt"

	"github.com/lixenwraith/murmur/graph"
	"github.com/lixenwraith/murmur/recipe"
)

// State is an instance lifecycle stage
type State int

const (
	StateNone State = iota // no live instance
	StateBuilt
	StatePlaying
	StatePaused
	StateStopped
)

var stateNames = [...]string{"none", "built", "playing", "paused", "stopped"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Instance is the control handle for one built ambience
// Fields after voice are guarded by the manager mutex
type Instance struct {
	m      *Manager
	recipe *recipe.Recipe
	voice  *voice

	state  State
	volume float64
}

// ID returns the sound identifier
func (i *Instance) ID() string { return i.recipe.ID }

// BaseVolume returns the recipe master level at full volume
func (i *Instance) BaseVolume() float64 { return i.recipe.BaseVolume }

// Graph returns the synthesis graph; callers must not modify it
func (i *Instance) Graph() *graph.Graph { return i.voice.graph }

// Gain returns the last rendered master level
func (i *Instance) Gain() float64 { return i.voice.master.Value() }

// State returns the lifecycle stage
func (i *Instance) State() State {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	return i.state
}

// Volume returns the requested volume fraction
func (i *Instance) Volume() float64 {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	return i.volume
}

// Play fades the instance in, or resumes it when paused
func (i *Instance) Play() {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	i.m.playLocked(i)
}

// Pause fades to silence keeping the graph running
func (i *Instance) Pause() {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	i.m.pauseLocked(i)
}

// Resume fades back to the requested volume
func (i *Instance) Resume() {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	i.m.resumeLocked(i)
}

// SetVolume sets the volume fraction, clamped to [0, 1]; no-op once stopped
func (i *Instance) SetVolume(fraction float64) error {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	if i.state == StateStopped {
		return nil
	}
	return i.m.setVolumeLocked(i.recipe.ID, fraction)
}

// Stop fades out and retires the instance; later calls are no-ops
func (i *Instance) Stop() {
	i.m.mu.Lock()
	defer i.m.mu.Unlock()
	i.m.stopLocked(i)
}

// target is the master level for the current volume
func (i *Instance) target() float64 {
	return i.recipe.BaseVolume * i.volume
}
