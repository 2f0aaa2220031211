package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pixbatch/internal/transform"
)

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List built-in and configured presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			presets := cfg.AllPresets()
			if jsonOutput {
				return writeJSON(cmd, presets)
			}
			rows := make([][]string, 0, len(presets))
			for _, p := range presets {
				source := "built-in"
				if _, ok := cfg.Presets[p.Name]; ok {
					source = "config"
				}
				rows = append(rows, []string{p.Name, string(p.Format), presetSettings(p), source})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Preset", "Format", "Settings", "Source"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print presets as JSON")
	return cmd
}

func presetSettings(p transform.Preset) string {
	var parts []string
	if p.Quality != 0 {
		parts = append(parts, "quality "+strconv.Itoa(p.Quality))
	}
	if p.Width != 0 || p.Height != 0 {
		parts = append(parts, fmt.Sprintf("size %s×%s", sizeBound(p.Width), sizeBound(p.Height)))
	}
	if p.Grayscale {
		parts = append(parts, "grayscale")
	}
	if p.Sharpen {
		parts = append(parts, "sharpen")
	}
	if p.Blur != 0 {
		parts = append(parts, "blur "+strconv.FormatFloat(p.Blur, 'f', -1, 64))
	}
	if p.Sepia != 0 {
		parts = append(parts, "sepia "+strconv.Itoa(p.Sepia))
	}
	if p.WatermarkText != "" {
		parts = append(parts, fmt.Sprintf("watermark %q", p.WatermarkText))
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ", ")
}

func sizeBound(v int) string {
	if v == 0 {
		return "auto"
	}
	return strconv.Itoa(v)
}
