// Package audio runs ambience instances through a shared lock-free mixer and an output backend
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/lixenwraith/murmur/constant"
	"github.com/lixenwraith/murmur/graph"
	"github.com/lixenwraith/murmur/noise"
	"github.com/lixenwraith/murmur/recipe"
)

// Option configures a Manager
type Option func(*Manager)

// WithBackend overrides the configured backend
func WithBackend(b Backend) Option {
	return func(m *Manager) { m.backend = b }
}

// WithTracker accounts graph resources on t instead of a private counter
func WithTracker(t graph.Tracker) Option {
	return func(m *Manager) { m.tracker = t }
}

// WithLogger sets the structured logger; the default discards
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithSeed makes noise generation reproducible
func WithSeed(seed uint64) Option {
	return func(m *Manager) { m.seed = seed }
}

// Manager owns at most one live instance per sound id
// All methods are safe for concurrent use and never block on the render path
type Manager struct {
	cfg     *Config
	backend Backend
	mixer   *Mixer
	tracker graph.Tracker
	logger  *slog.Logger
	seed    uint64
	sources recipe.Sources

	mu        sync.Mutex
	instances map[string]*Instance // live, keyed by id
	draining  map[*voice]struct{}  // stopped, awaiting silence
	volumes   map[string]float64   // remembered fractions
	started   bool
	closed    bool

	stop chan struct{}
	wg   sync.WaitGroup
}

// NewManager creates a manager; a nil cfg uses DefaultConfig
func NewManager(cfg *Config, opts ...Option) *Manager {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	m := &Manager{
		cfg:       cfg,
		instances: make(map[string]*Instance),
		draining:  make(map[*voice]struct{}),
		volumes:   make(map[string]float64),
		stop:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.logger == nil {
		m.logger = discardLogger()
	}
	if m.tracker == nil {
		m.tracker = &graph.Counter{}
	}

	m.mixer = NewMixer(cfg.MaxInstances, cfg.SampleRate)
	m.mixer.SetVolume(cfg.MasterVolume, 0)
	m.sources = recipe.GeneratorSources{
		Gen:        noise.NewGenerator(m.seed),
		Loop:       cfg.LoopDuration(),
		SampleRate: cfg.SampleRate,
		Channels:   constant.AudioChannels,
	}
	return m
}

// Start opens the backend and begins reaping retired instances
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	if m.started {
		return fmt.Errorf("audio manager already started")
	}

	if m.backend == nil {
		name := m.cfg.Backend
		if !m.cfg.Enabled {
			name = BackendNull
		}
		b, err := NewBackend(name, m.cfg.SampleRate, m.logger)
		if err != nil {
			return err
		}
		m.backend = b
	}

	if err := m.backend.Start(m.mixer); err != nil {
		return fmt.Errorf("%w: backend %s: %v", ErrResourceExhausted, m.backend.Name(), err)
	}

	m.wg.Add(1)
	go m.reap()

	m.started = true
	m.logger.Info("audio started", "backend", m.backend.Name(), "sample_rate", m.cfg.SampleRate)
	return nil
}

// Backend returns the output backend
func (m *Manager) Backend() Backend {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backend
}

// Mixer returns the render-side streamer
func (m *Manager) Mixer() *Mixer { return m.mixer }

// Create builds the instance for id, or returns the live one
func (m *Manager) Create(id string) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createLocked(id)
}

// Play creates id if needed and fades it in
func (m *Manager) Play(id string) (*Instance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.createLocked(id)
	if err != nil {
		return nil, err
	}
	m.playLocked(inst)
	return inst, nil
}

// SetVolume remembers fraction for id and ramps a playing instance toward it
// Never creates an instance
func (m *Manager) SetVolume(id string, fraction float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setVolumeLocked(id, fraction)
}

// Pause fades id to silence; no-op unless playing
func (m *Manager) Pause(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.instances[id]; ok {
		m.pauseLocked(inst)
	}
}

// Resume fades id back in; no-op unless paused
func (m *Manager) Resume(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.instances[id]; ok {
		m.resumeLocked(inst)
	}
}

// Stop fades id out and releases it once silent; unknown or stopped ids are ignored
func (m *Manager) Stop(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.instances[id]; ok {
		m.stopLocked(inst)
	}
}

// StopAll stops every live instance
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inst := range m.instances {
		m.stopLocked(inst)
	}
}

// PauseAll fades every playing instance to silence and returns how many paused
func (m *Manager) PauseAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, inst := range m.instances {
		if inst.state == StatePlaying {
			m.pauseLocked(inst)
			n++
		}
	}
	return n
}

// ResumeAll fades every paused instance back in and returns how many resumed
func (m *Manager) ResumeAll() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, inst := range m.instances {
		if inst.state == StatePaused {
			m.resumeLocked(inst)
			n++
		}
	}
	return n
}

// ApplyPreset stops every live instance and plays the preset mix at its volumes
// Every sound is looked up before anything stops; listed volumes replace the remembered ones
func (m *Manager) ApplyPreset(p *recipe.Preset) error {
	if p == nil {
		return fmt.Errorf("%w: nil preset", ErrInvalidParameter)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	for _, s := range p.Sounds {
		if _, err := recipe.Lookup(s.ID); err != nil {
			return fmt.Errorf("preset %s: %w", p.ID, err)
		}
	}
	for _, inst := range m.instances {
		m.stopLocked(inst)
	}

	for _, s := range p.Sounds {
		if err := m.setVolumeLocked(s.ID, s.Volume); err != nil {
			return fmt.Errorf("preset %s: %w", p.ID, err)
		}
		inst, err := m.createLocked(s.ID)
		if err != nil {
			return fmt.Errorf("preset %s: %w", p.ID, err)
		}
		m.playLocked(inst)
	}
	m.logger.Info("preset applied", "preset", p.ID, "sounds", len(p.Sounds))
	return nil
}

// Close stops everything, waits for fades until ctx ends, closes the backend and releases what remains
// An OfflineBackend only renders when pulled, so Close does not wait for its fades
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	for _, inst := range m.instances {
		m.stopLocked(inst)
	}
	started := m.started
	m.mu.Unlock()

	if _, offline := m.backend.(*OfflineBackend); started && !offline {
		m.awaitDrain(ctx)
	}

	var err error
	if started {
		if err = m.backend.Close(); err != nil {
			m.logger.Error("audio backend close failed", "backend", m.backend.Name(), "error", err)
		}
	}
	close(m.stop)
	m.wg.Wait()

	m.mu.Lock()
	forced := len(m.draining)
	for v := range m.draining {
		m.releaseLocked(v)
	}
	m.mu.Unlock()

	m.logger.Info("audio closed", "forced_releases", forced)
	return err
}

// awaitDrain polls until every stopped instance is released or ctx ends
func (m *Manager) awaitDrain(ctx context.Context) {
	ticker := time.NewTicker(constant.ReapPollInterval)
	defer ticker.Stop()

	for {
		m.mu.Lock()
		n := len(m.draining)
		m.mu.Unlock()
		if n == 0 {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// SetMasterVolume ramps the global output level
func (m *Manager) SetMasterVolume(v float64) error {
	if math.IsNaN(v) {
		return fmt.Errorf("%w: master volume is NaN", ErrInvalidParameter)
	}
	m.mixer.SetVolume(clamp01(v), constant.VolumeChangeDuration)
	return nil
}

// Instance returns the live instance for id
func (m *Manager) Instance(id string) (*Instance, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	return inst, ok
}

// State returns the live state for id, StateNone when absent
func (m *Manager) State(id string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inst, ok := m.instances[id]; ok {
		return inst.state
	}
	return StateNone
}

// Volume returns the remembered fraction for id
func (m *Manager) Volume(id string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volumeLocked(id)
}

// Live returns live ids in sorted order
func (m *Manager) Live() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.instances))
	for id := range m.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats is a point-in-time view of the manager
type Stats struct {
	Backend   string
	Live      int
	Draining  int
	Frames    int64
	Dropped   uint64
	Resources map[string]int64 // set when the tracker is a *graph.Counter
}

// Stats returns current counts
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Live:     len(m.instances),
		Draining: len(m.draining),
		Frames:   m.mixer.Frames(),
		Dropped:  m.mixer.dropped.Load(),
	}
	if m.backend != nil {
		s.Backend = m.backend.Name()
	}
	if c, ok := m.tracker.(*graph.Counter); ok {
		s.Resources = c.Snapshot()
	}
	return s
}

func (m *Manager) createLocked(id string) (*Instance, error) {
	if m.closed {
		return nil, ErrClosed
	}
	if inst, ok := m.instances[id]; ok {
		return inst, nil
	}

	r, err := recipe.Lookup(id)
	if err != nil {
		return nil, err
	}
	if n := len(m.instances) + len(m.draining); n >= m.cfg.MaxInstances {
		return nil, fmt.Errorf("%w: %d instances live or draining", ErrResourceExhausted, n)
	}

	g := graph.New(graph.Options{
		SampleRate: m.cfg.SampleRate,
		BlockSize:  m.cfg.BlockSize,
		Tracker:    m.tracker,
	})
	if err := r.Build(g, m.sources); err != nil {
		g.Release()
		return nil, fmt.Errorf("build %s: %w", id, err)
	}
	if err := g.Seal(); err != nil {
		g.Release()
		return nil, fmt.Errorf("build %s: %w", id, err)
	}

	v := &voice{id: id, graph: g, master: g.Master().Level()}
	if !m.mixer.add(v) {
		g.Release()
		return nil, fmt.Errorf("%w: render queue full", ErrResourceExhausted)
	}

	inst := &Instance{
		m:      m,
		recipe: r,
		voice:  v,
		state:  StateBuilt,
		volume: m.volumeLocked(id),
	}
	m.instances[id] = inst
	m.logger.Debug("instance built", "id", id, "nodes", g.Len())
	return inst, nil
}

func (m *Manager) playLocked(inst *Instance) {
	switch inst.state {
	case StateBuilt:
		inst.voice.master.RampTo(inst.target(), constant.PlayInDuration)
	case StatePaused:
		inst.voice.master.RampTo(inst.target(), constant.ResumeDuration)
	case StatePlaying:
		inst.voice.master.RampTo(inst.target(), constant.VolumeChangeDuration)
	default:
		return
	}
	inst.state = StatePlaying
	m.logger.Debug("instance playing", "id", inst.ID(), "target", inst.target())
}

func (m *Manager) pauseLocked(inst *Instance) {
	if inst.state != StatePlaying {
		return
	}
	inst.voice.master.RampTo(0, constant.PauseOutDuration)
	inst.state = StatePaused
	m.logger.Debug("instance paused", "id", inst.ID())
}

func (m *Manager) resumeLocked(inst *Instance) {
	if inst.state != StatePaused {
		return
	}
	inst.voice.master.RampTo(inst.target(), constant.ResumeDuration)
	inst.state = StatePlaying
	m.logger.Debug("instance resumed", "id", inst.ID())
}

func (m *Manager) setVolumeLocked(id string, fraction float64) error {
	if _, err := recipe.Lookup(id); err != nil {
		return err
	}
	if math.IsNaN(fraction) {
		return fmt.Errorf("%w: volume for %s is NaN", ErrInvalidParameter, id)
	}
	fraction = clamp01(fraction)
	m.volumes[id] = fraction

	inst, ok := m.instances[id]
	if !ok {
		return nil
	}
	inst.volume = fraction
	if inst.state == StatePlaying {
		inst.voice.master.RampTo(inst.target(), constant.VolumeChangeDuration)
	}
	return nil
}

func (m *Manager) stopLocked(inst *Instance) {
	if inst.state == StateStopped {
		return
	}
	v := inst.voice
	v.master.RampTo(0, constant.StopOutDuration)
	// Ramp is published before the mixer may observe retiring
	v.retiring.Store(true)

	inst.state = StateStopped
	delete(m.instances, inst.ID())
	m.draining[v] = struct{}{}
	m.logger.Debug("instance stopping", "id", inst.ID())
}

// reap releases voices the mixer has retired
func (m *Manager) reap() {
	defer m.wg.Done()

	for {
		select {
		case v := <-m.mixer.Retired():
			m.mu.Lock()
			m.releaseLocked(v)
			m.mu.Unlock()
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) releaseLocked(v *voice) {
	if _, ok := m.draining[v]; !ok {
		return
	}
	delete(m.draining, v)
	v.graph.Release()
	m.logger.Debug("instance released", "id", v.id)
}

func (m *Manager) volumeLocked(id string) float64 {
	if v, ok := m.volumes[id]; ok {
		return v
	}
	return 1.0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
