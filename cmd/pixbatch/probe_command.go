package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pixbatch/internal/handle"
	"pixbatch/internal/imaging"
	"pixbatch/internal/textutil"
)

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var (
		jsonOutput bool
		recursive  bool
	)

	cmd := &cobra.Command{
		Use:   "probe PATH...",
		Short: "Show media type and dimensions of image files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			sources, rejected, err := loadSources(cmd.Context(), args, recursive)
			if err != nil {
				return err
			}
			decoder := imaging.NewDecoder(handle.NewAllocator(), cfg.Preview.MaxPixels)

			type probeJSON struct {
				Name       string `json:"name"`
				MediaType  string `json:"media_type"`
				Bytes      int64  `json:"bytes"`
				Dimensions string `json:"dimensions,omitempty"`
				Error      string `json:"error,omitempty"`
			}
			results := make([]probeJSON, 0, len(sources))
			for _, src := range sources {
				res := probeJSON{Name: src.Name, MediaType: src.MediaType, Bytes: src.Size()}
				dims, err := decoder.Probe(cmd.Context(), src.Content)
				if err != nil {
					res.Error = err.Error()
				} else {
					res.Dimensions = dims.String()
				}
				results = append(results, res)
			}

			if jsonOutput {
				return writeJSON(cmd, map[string]any{"files": results, "rejected": rejected})
			}
			colorize := shouldColorize(cmd.OutOrStdout())
			rows := make([][]string, 0, len(results))
			for _, res := range results {
				dims := res.Dimensions
				if res.Error != "" {
					dims = textutil.Truncate(res.Error, errorColumnWidth)
				}
				rows = append(rows, []string{res.Name, res.MediaType, humanize.Bytes(uint64(res.Bytes)), dims})
			}
			out := cmd.OutOrStdout()
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Media type", "Size", "Dimensions"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
			}
			for _, rej := range rejected {
				fmt.Fprintln(out, renderStatusLine("Skipped", statusWarn, fmt.Sprintf("%s (%s)", rej.Path, rej.Reason), colorize))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories of directory arguments")
	return cmd
}
