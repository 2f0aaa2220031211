package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pixbatch/internal/batch"
	"pixbatch/internal/fileutil"
	"pixbatch/internal/imaging"
	"pixbatch/internal/textutil"
	"pixbatch/internal/transform"
)

const errorColumnWidth = 48

// itemReport is the per-item row of a convert report.
type itemReport struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Title            string `json:"title"`
	Status           string `json:"status"`
	MediaType        string `json:"media_type"`
	SourceBytes      int64  `json:"source_bytes"`
	SourceDimensions string `json:"source_dimensions,omitempty"`
	ResultBytes      int64  `json:"result_bytes,omitempty"`
	ResultDimensions string `json:"result_dimensions,omitempty"`
	SizeChange       string `json:"size_change,omitempty"`
	Output           string `json:"output,omitempty"`
	Error            string `json:"error,omitempty"`
}

// convertReport summarizes a convert invocation.
type convertReport struct {
	Format    transform.Format   `json:"format"`
	Options   transform.Options  `json:"options"`
	OutputDir string             `json:"output_dir"`
	Items     []itemReport       `json:"items"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Rejected  []rejectedInput    `json:"rejected,omitempty"`
	Runs      []batch.RunSummary `json:"runs,omitempty"`
}

type dimensionProber interface {
	Probe(ctx context.Context, content []byte) (imaging.Dimensions, error)
}

// writeResults writes every Done item's result into outDir under its
// download name. Existing files get a numbered sibling unless overwrite is
// set; two items of one batch never share an output. Dimensions the preview
// subsystem has not filled in yet are probed directly.
func writeResults(ctx context.Context, b batch.Batch, outDir string, prober dimensionProber, overwrite bool) (convertReport, error) {
	report := convertReport{
		Format:    b.TargetFormat,
		Options:   b.Options,
		OutputDir: outDir,
		Items:     make([]itemReport, 0, len(b.Items)),
	}
	reserved := make(map[string]bool)

	for _, item := range b.Items {
		sourceDims := item.SourceDimensions
		if sourceDims.IsZero() && prober != nil {
			sourceDims, _ = prober.Probe(ctx, item.Source.Content)
		}
		row := itemReport{
			ID:               string(item.ID),
			Name:             item.Source.Name,
			Title:            textutil.DisplayTitle(item.Source.Name),
			Status:           string(item.Status),
			MediaType:        item.Source.MediaType,
			SourceBytes:      item.Source.Size(),
			SourceDimensions: dimensionLabel(sourceDims),
			Error:            item.ErrorMessage,
		}
		if item.Status != batch.StatusDone || item.Result == nil {
			if item.Status == batch.StatusError {
				report.Failed++
			}
			report.Items = append(report.Items, row)
			continue
		}

		data, err := item.Result.Bytes()
		if err != nil {
			return report, fmt.Errorf("read result for %s: %w", item.Source.Name, err)
		}
		path, err := writeOutput(outDir, transform.DownloadName(item.Source.Name, b.TargetFormat), data, reserved, overwrite)
		if err != nil {
			return report, err
		}
		reserved[path] = true

		dims := item.ResultDimensions
		if dims.IsZero() && prober != nil {
			dims, _ = prober.Probe(ctx, data)
		}
		row.ResultBytes = item.ResultSize
		row.ResultDimensions = dimensionLabel(dims)
		row.SizeChange = sizeChange(row.SourceBytes, row.ResultBytes)
		row.Output = path
		report.Succeeded++
		report.Items = append(report.Items, row)
	}
	return report, nil
}

func writeOutput(outDir, name string, data []byte, reserved map[string]bool, overwrite bool) (string, error) {
	target := filepath.Join(outDir, name)
	if overwrite && !reserved[target] {
		if err := fileutil.WriteFileAtomic(target, data, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", target, err)
		}
		return target, nil
	}
	path, err := fileutil.WriteFileUnique(outDir, name, data, 0o644, reserved)
	if err != nil {
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	return path, nil
}

// sizeChange describes the result size relative to the source.
func sizeChange(source, result int64) string {
	if source <= 0 || result <= 0 {
		return ""
	}
	pct := float64(source-result) / float64(source) * 100
	switch {
	case pct >= 0.5:
		return fmt.Sprintf("%.0f%% smaller", pct)
	case pct <= -0.5:
		return fmt.Sprintf("%.0f%% larger", -pct)
	default:
		return "same size"
	}
}

func dimensionLabel(d imaging.Dimensions) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func printReport(cmd *cobra.Command, report convertReport, colorize bool) {
	out := cmd.OutOrStdout()
	headers := []string{"#", "Title", "Status", "Source", "Result", "Change", "Dimensions", "Output / Error"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft}

	rows := make([][]string, 0, len(report.Items))
	for i, item := range report.Items {
		result := "-"
		if item.ResultBytes > 0 {
			result = humanize.Bytes(uint64(item.ResultBytes))
		}
		detail := item.Output
		if item.Error != "" {
			detail = textutil.Truncate(item.Error, errorColumnWidth)
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			item.Title,
			itemStatusLabel(batch.Status(item.Status), colorize),
			humanize.Bytes(uint64(item.SourceBytes)),
			result,
			valueOrDash(item.SizeChange),
			dimensionsCell(item),
			detail,
		})
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))

	summary := fmt.Sprintf("%d converted, %d failed → %s (%s)", report.Succeeded, report.Failed, report.OutputDir, strings.ToUpper(string(report.Format)))
	fmt.Fprintln(out, summary)
	for _, rej := range report.Rejected {
		fmt.Fprintln(out, renderStatusLine("Skipped", statusWarn, fmt.Sprintf("%s (%s)", rej.Path, rej.Reason), colorize))
	}
}

func dimensionsCell(item itemReport) string {
	src := item.SourceDimensions
	if src == "" {
		src = "?"
	}
	if item.ResultDimensions == "" {
		return src
	}
	return src + " → " + item.ResultDimensions
}

func valueOrDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
