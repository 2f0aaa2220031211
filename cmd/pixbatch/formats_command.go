package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pixbatch/internal/transform"
)

func newFormatsCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "formats",
		Short:       "List supported target formats",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog := transform.Catalog()
			if jsonOutput {
				type formatJSON struct {
					Format    string `json:"format"`
					Label     string `json:"label"`
					Hint      string `json:"hint"`
					MediaType string `json:"media_type"`
					Default   bool   `json:"default"`
				}
				out := make([]formatJSON, 0, len(catalog))
				for _, info := range catalog {
					out = append(out, formatJSON{
						Format:    string(info.Format),
						Label:     info.Label,
						Hint:      info.Hint,
						MediaType: info.MediaType,
						Default:   info.Format == transform.DefaultFormat,
					})
				}
				return writeJSON(cmd, out)
			}

			rows := make([][]string, 0, len(catalog))
			for _, info := range catalog {
				name := string(info.Format)
				if info.Format == transform.DefaultFormat {
					name += " *"
				}
				rows = append(rows, []string{name, info.Label, info.Hint, info.MediaType})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Format", "Label", "Hint", "Media type"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the catalog as JSON")
	return cmd
}
