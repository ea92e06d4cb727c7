package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/murmur/audio"
	"github.com/lixenwraith/murmur/constant"
	"github.com/lixenwraith/murmur/recipe"
)

var (
	playVolumes  map[string]string
	playDuration time.Duration
	playPreset   string
)

var playCmd = &cobra.Command{
	Use:   "play [sound]...",
	Short: "Play sounds or a preset until interrupted",
	Long: `Fades the named sounds in and keeps them playing until ctrl-c or --duration elapses, then fades out.
With --preset the preset mix starts first and any named sounds are layered on top.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && playPreset == "" {
			return fmt.Errorf("name at least one sound or a --preset")
		}
		return nil
	},
	ValidArgs: recipe.IDs(),
	RunE:      runPlay,
}

func init() {
	playCmd.Flags().StringToStringVar(&playVolumes, "volume", nil, "per-sound volume, e.g. rain=0.4")
	playCmd.Flags().DurationVar(&playDuration, "duration", 0, "stop after this long (0 plays until interrupted)")
	playCmd.Flags().StringVar(&playPreset, "preset", "", "start a preset mix: "+strings.Join(presetIDs(), ", "))
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := validateIDs(args); err != nil {
		return err
	}
	var preset *recipe.Preset
	if playPreset != "" {
		if preset, err = recipe.LookupPreset(playPreset); err != nil {
			return err
		}
	}
	explicit, err := parseVolumes(playVolumes)
	if err != nil {
		return err
	}
	vols := resolveVolumes(cfg, args, explicit)

	m := audio.NewManager(cfg, audio.WithLogger(slog.Default()))
	if err := m.Start(); err != nil {
		return err
	}

	playing := args
	if preset != nil {
		if err := m.ApplyPreset(preset); err != nil {
			closeManager(m)
			return err
		}
		// --volume still overrides preset levels
		for _, id := range preset.IDs() {
			if v, ok := explicit[id]; ok {
				if err := m.SetVolume(id, v); err != nil {
					closeManager(m)
					return err
				}
			}
		}
		playing = append(preset.IDs(), args...)
	}

	for _, id := range args {
		if err := m.SetVolume(id, vols[id]); err != nil {
			closeManager(m)
			return err
		}
		if _, err := m.Play(id); err != nil {
			closeManager(m)
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Playing %s via %s (ctrl-c to stop)\n", strings.Join(playing, ", "), m.Stats().Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if playDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, playDuration)
		defer cancel()
	}
	<-ctx.Done()

	fmt.Fprintln(cmd.OutOrStdout(), "Fading out...")
	return closeManager(m)
}

// closeManager fades everything out, forcing release if the backend stalls
func closeManager(m *audio.Manager) error {
	ctx, cancel := context.WithTimeout(context.Background(), constant.StopOutDuration+time.Second)
	defer cancel()
	return m.Close(ctx)
}

func presetIDs() []string {
	var ids []string
	for _, p := range recipe.Presets() {
		ids = append(ids, p.ID)
	}
	return ids
}
