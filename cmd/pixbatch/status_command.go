package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"pixbatch/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the output directory and conversion service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			path := ctx.configPath
			if path == "" {
				path = "(defaults)"
			}
			fmt.Fprintln(out, renderStatusLine("Config", statusInfo, path, colorize))
			fmt.Fprintln(out, renderStatusLine("Default format", statusInfo, string(cfg.DefaultFormat()), colorize))

			results := preflight.RunAll(cmd.Context(), cfg)
			for _, r := range results {
				kind := statusOK
				if !r.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return errors.New("one or more checks failed")
			}
			return nil
		},
	}
}
