package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pixbatch/internal/fileutil"
	"pixbatch/internal/textutil"
	"pixbatch/internal/transform"
)

// plannedOutput is one file a convert run would write.
type plannedOutput struct {
	Source      string `json:"source"`
	SourceBytes int64  `json:"source_bytes"`
	Output      string `json:"output"`
	Replaces    bool   `json:"replaces,omitempty"`
}

// conversionPlan is the dry-run counterpart of convertReport.
type conversionPlan struct {
	Format    transform.Format  `json:"format"`
	Options   transform.Options `json:"options"`
	OutputDir string            `json:"output_dir"`
	Outputs   []plannedOutput   `json:"outputs"`
	Rejected  []rejectedInput   `json:"rejected,omitempty"`
}

// planConversion resolves inputs and output names the way a real run would,
// without touching the output directory or the conversion service.
func planConversion(ctx context.Context, args []string, recursive bool, format transform.Format, opts transform.Options, outDir string, overwrite bool) (conversionPlan, error) {
	sources, rejected, err := loadSources(ctx, args, recursive)
	if err != nil {
		return conversionPlan{}, err
	}
	if len(sources) == 0 {
		return conversionPlan{}, fmt.Errorf("no image inputs among %d path(s)", len(args))
	}

	plan := conversionPlan{
		Format:    format,
		Options:   opts,
		OutputDir: outDir,
		Outputs:   make([]plannedOutput, 0, len(sources)),
		Rejected:  rejected,
	}
	reserved := make(map[string]bool)
	for _, src := range sources {
		name := transform.DownloadName(src.Name, format)
		target := filepath.Join(outDir, name)
		entry := plannedOutput{Source: src.Path, SourceBytes: src.Size()}
		if overwrite && !reserved[target] {
			_, statErr := os.Lstat(target)
			if statErr != nil && !errors.Is(statErr, fs.ErrNotExist) {
				return conversionPlan{}, fmt.Errorf("stat %s: %w", target, statErr)
			}
			entry.Output = target
			entry.Replaces = statErr == nil
		} else {
			path, err := fileutil.UniquePath(outDir, name, reserved)
			if err != nil {
				return conversionPlan{}, err
			}
			entry.Output = path
		}
		reserved[entry.Output] = true
		plan.Outputs = append(plan.Outputs, entry)
	}
	return plan, nil
}

func printPlan(cmd *cobra.Command, plan conversionPlan, colorize bool) {
	out := cmd.OutOrStdout()
	headers := []string{"#", "Source", "Size", "Output"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft}
	rows := make([][]string, 0, len(plan.Outputs))
	for i, entry := range plan.Outputs {
		output := entry.Output
		if entry.Replaces {
			output += " (replaces existing)"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			textutil.Truncate(entry.Source, errorColumnWidth),
			humanize.Bytes(uint64(entry.SourceBytes)),
			output,
		})
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	fmt.Fprintf(out, "%d file(s) would be converted to %s → %s\n", len(plan.Outputs), strings.ToUpper(string(plan.Format)), plan.OutputDir)
	for _, rej := range plan.Rejected {
		fmt.Fprintln(out, renderStatusLine("Skipped", statusWarn, fmt.Sprintf("%s (%s)", rej.Path, rej.Reason), colorize))
	}
}
