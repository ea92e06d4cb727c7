package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/murmur/audio"
	"github.com/lixenwraith/murmur/constant"
	"github.com/lixenwraith/murmur/recipe"
)

var (
	cfgFile string
	debug   bool
	logFile *os.File
)

var rootCmd = &cobra.Command{
	Use:   "murmur",
	Short: "Procedural ambient soundscapes for the terminal",
	Long: `murmur synthesizes looping ambiences (rain, fire, waves and more) from
filtered noise and slow oscillators. Sounds can be played, mixed
interactively or rendered to a WAV file.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logFile = setupLogging(debug)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
			logFile = nil
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	flags.String("backend", audio.BackendAuto, "output backend: "+strings.Join(audio.Backends(), ", "))
	flags.Int("sample-rate", constant.AudioSampleRate, "output sample rate in Hz")
	flags.Float64("master", 1.0, "master volume 0-1")
	flags.BoolVar(&debug, "debug", false, "write debug logs to "+logDir+"/"+logFileName)
}

// flagKeys maps config keys to the persistent flags overriding them
var flagKeys = map[string]string{
	"backend":       "backend",
	"sample_rate":   "sample-rate",
	"master_volume": "master",
}

// loadConfig layers defaults, --config, MURMUR_* variables and flags
func loadConfig(cmd *cobra.Command) (*audio.Config, error) {
	v, err := audio.NewViper(cfgFile)
	if err != nil {
		return nil, err
	}
	for key, name := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("binding --%s: %w", name, err)
			}
		}
	}
	return audio.ConfigFromViper(v)
}

// parseVolumes converts id=fraction pairs
func parseVolumes(raw map[string]string) (map[string]float64, error) {
	vols := make(map[string]float64, len(raw))
	for id, s := range raw {
		if _, err := recipe.Lookup(id); err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: volume for %s: %q", audio.ErrInvalidParameter, id, s)
		}
		vols[id] = v
	}
	return vols, nil
}

// resolveVolumes fills every id missing from explicit with the configured default
func resolveVolumes(cfg *audio.Config, ids []string, explicit map[string]float64) map[string]float64 {
	vols := make(map[string]float64, len(ids))
	for _, id := range ids {
		if v, ok := explicit[id]; ok {
			vols[id] = v
			continue
		}
		vols[id] = cfg.DefaultVolume(id)
	}
	return vols
}

// validateIDs rejects unknown sound ids before any audio starts
func validateIDs(ids []string) error {
	for _, id := range ids {
		if _, err := recipe.Lookup(id); err != nil {
			return err
		}
	}
	return nil
}
