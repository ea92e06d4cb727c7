package audio

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/lixenwraith/murmur/constant"
	"github.com/lixenwraith/murmur/recipe"
)

// EnvPrefix namespaces environment overrides, e.g. MURMUR_SAMPLE_RATE
const EnvPrefix = "MURMUR"

// Config holds engine settings
type Config struct {
	Enabled      bool               `mapstructure:"enabled"`
	Backend      string             `mapstructure:"backend"`
	SampleRate   int                `mapstructure:"sample_rate"`
	BlockSize    int                `mapstructure:"block_size"`
	LoopSeconds  float64            `mapstructure:"loop_seconds"`
	MaxInstances int                `mapstructure:"max_instances"`
	MasterVolume float64            `mapstructure:"master_volume"`
	Volumes      map[string]float64 `mapstructure:"volumes"` // default user volume per sound, 0-1
}

// defaultVolumes are the initial slider positions per sound
var defaultVolumes = map[string]float64{
	"rain":    0.7,
	"thunder": 0.5,
	"fire":    0.7,
	"forest":  0.6,
	"waves":   0.7,
	"cafe":    0.5,
	"wind":    0.5,
	"night":   0.6,
}

// DefaultConfig returns the built-in settings
func DefaultConfig() *Config {
	vols := make(map[string]float64, len(defaultVolumes))
	for id, v := range defaultVolumes {
		vols[id] = v
	}
	return &Config{
		Enabled:      true,
		Backend:      BackendAuto,
		SampleRate:   constant.AudioSampleRate,
		BlockSize:    constant.GraphBlockSize,
		LoopSeconds:  constant.NoiseLoopDuration.Seconds(),
		MaxInstances: constant.MaxInstances,
		MasterVolume: 1.0,
		Volumes:      vols,
	}
}

// SetDefaults registers DefaultConfig values on v
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("enabled", d.Enabled)
	v.SetDefault("backend", d.Backend)
	v.SetDefault("sample_rate", d.SampleRate)
	v.SetDefault("block_size", d.BlockSize)
	v.SetDefault("loop_seconds", d.LoopSeconds)
	v.SetDefault("max_instances", d.MaxInstances)
	v.SetDefault("master_volume", d.MasterVolume)
	for id, vol := range d.Volumes {
		v.SetDefault("volumes."+id, vol)
	}
}

// LoadConfig reads defaults, then the optional file at path, then MURMUR_* environment variables
func LoadConfig(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return ConfigFromViper(v)
}

// NewViper layers defaults, the optional file at path and the environment
// Callers may bind flags on the result before decoding it with ConfigFromViper
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	return v, nil
}

// ConfigFromViper decodes and validates settings held by v
func ConfigFromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	switch {
	case c.SampleRate < 8000 || c.SampleRate > 192000:
		return fmt.Errorf("%w: sample_rate %d outside [8000, 192000]", ErrInvalidParameter, c.SampleRate)
	case c.BlockSize < 1 || c.BlockSize > 8192:
		return fmt.Errorf("%w: block_size %d outside [1, 8192]", ErrInvalidParameter, c.BlockSize)
	case c.LoopSeconds < constant.NoiseMinLoopDuration.Seconds():
		return fmt.Errorf("%w: loop_seconds %.2f below minimum %.0f", ErrInvalidParameter, c.LoopSeconds, constant.NoiseMinLoopDuration.Seconds())
	case c.MaxInstances < 1:
		return fmt.Errorf("%w: max_instances must be >= 1: %d", ErrInvalidParameter, c.MaxInstances)
	case c.MasterVolume < 0 || c.MasterVolume > 1:
		return fmt.Errorf("%w: master_volume %.2f outside [0, 1]", ErrInvalidParameter, c.MasterVolume)
	}

	if !validBackend(c.Backend) {
		return fmt.Errorf("%w: unknown backend %q", ErrInvalidParameter, c.Backend)
	}

	for id, vol := range c.Volumes {
		if _, err := recipe.Lookup(id); err != nil {
			return fmt.Errorf("%w: volume for %w", ErrInvalidParameter, err)
		}
		if vol < 0 || vol > 1 {
			return fmt.Errorf("%w: volume for %s %.2f outside [0, 1]", ErrInvalidParameter, id, vol)
		}
	}
	return nil
}

// LoopDuration returns the noise loop length
func (c *Config) LoopDuration() time.Duration {
	return time.Duration(c.LoopSeconds * float64(time.Second))
}

// DefaultVolume returns the configured initial volume for id, 1 when unset
func (c *Config) DefaultVolume(id string) float64 {
	if v, ok := c.Volumes[id]; ok {
		return v
	}
	return 1.0
}
