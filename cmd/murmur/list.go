package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/murmur/recipe"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available sounds",
	Long:  `Display every built-in ambience with its category, master level and configured default volume, followed by the preset mixes.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	recipes := recipe.All()

	// Find max name length for alignment
	maxLen := 0
	for _, r := range recipes {
		maxLen = max(maxLen, len(r.ID))
	}

	fmt.Fprintln(out, "Available sounds:")
	fmt.Fprintln(out)
	for _, r := range recipes {
		fmt.Fprintf(out, "  %-*s  %-14s %-10s level %.2f  volume %3.0f%%\n",
			maxLen, r.ID, r.Name, r.Category, r.BaseVolume, cfg.DefaultVolume(r.ID)*100)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Presets:")
	fmt.Fprintln(out)
	for _, p := range recipe.Presets() {
		mix := make([]string, 0, len(p.Sounds))
		for _, s := range p.Sounds {
			mix = append(mix, fmt.Sprintf("%s %.0f%%", s.ID, s.Volume*100))
		}
		fmt.Fprintf(out, "  %-10s  %-12s %s\n", p.ID, p.Name, strings.Join(mix, ", "))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Play one or more with:")
	fmt.Fprintln(out, "  murmur play rain thunder --volume thunder=0.3")
	fmt.Fprintln(out, "  murmur play --preset sleep")
	return nil
}
