package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"pixbatch/internal/batch"
	"pixbatch/internal/config"
	"pixbatch/internal/handle"
	"pixbatch/internal/imaging"
	"pixbatch/internal/logging"
	"pixbatch/internal/preflight"
	"pixbatch/internal/services/convertapi"
	"pixbatch/internal/transform"
)

const outputLockName = ".pixbatch.lock"

// errItemsFailed ends the process with a non-zero status after the report
// has already been printed.
var errItemsFailed = errors.New("one or more items failed to convert")

type convertFlags struct {
	format            string
	quality           int
	width             int
	height            int
	grayscale         bool
	sharpen           bool
	invert            bool
	blur              float64
	sepia             int
	brightness        int
	contrast          int
	watermark         string
	watermarkPosition string
	watermarkOpacity  int
	preset            string
	outDir            string
	retries           int
	recursive         bool
	dryRun            bool
	overwrite         bool
	jsonOutput        bool
}

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var flags convertFlags

	cmd := &cobra.Command{
		Use:   "convert PATH...",
		Short: "Convert image files through the conversion service",
		Long: `Convert image files through the conversion service.

Each PATH is an image file or a directory. Directories contribute the images
at their top level, or every image below them with --recursive. Hidden files
and directories are skipped.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			format, opts, err := flags.resolve(cmd, cfg)
			if err != nil {
				return err
			}
			outDir := strings.TrimSpace(flags.outDir)
			if outDir == "" {
				outDir = cfg.Paths.OutputDir
			}
			outDir, err = config.ExpandPath(outDir)
			if err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}

			if flags.dryRun {
				plan, err := planConversion(cmd.Context(), args, flags.recursive, format, opts, outDir, flags.overwrite)
				if err != nil {
					return err
				}
				if flags.jsonOutput {
					return writeJSON(cmd, plan)
				}
				printPlan(cmd, plan, shouldColorize(cmd.OutOrStdout()))
				return nil
			}

			run := convertRun{
				cfg:       cfg,
				format:    format,
				options:   opts,
				outDir:    outDir,
				retries:   flags.retries,
				recursive: flags.recursive,
				overwrite: flags.overwrite,
				client:    convertapi.NewFromConfig(cfg, convertapi.WithUserAgent("pixbatch/"+version)),
				progress:  newRunProgress(cmd.ErrOrStderr(), isTerminal(cmd.ErrOrStderr()) && !flags.jsonOutput),
			}
			report, err := run.execute(cmd.Context(), logger, args)
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printReport(cmd, report, shouldColorize(cmd.OutOrStdout()))
			}
			if report.Failed > 0 {
				return errItemsFailed
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.format, "format", "f", "", "Target format (defaults to the preset's, then conversion.default_format)")
	f.StringVarP(&flags.preset, "preset", "p", "", "Named preset: web, thumbnail, print, archive, or one from [presets]")
	f.IntVarP(&flags.quality, "quality", "q", transform.DefaultQuality, "Output quality (1-100)")
	f.IntVar(&flags.width, "width", 0, "Resize to this width in pixels (0 keeps the source width)")
	f.IntVar(&flags.height, "height", 0, "Resize to this height in pixels (0 keeps the source height)")
	f.BoolVar(&flags.grayscale, "grayscale", false, "Convert to grayscale")
	f.BoolVar(&flags.sharpen, "sharpen", false, "Sharpen the output")
	f.BoolVar(&flags.invert, "invert", false, "Invert colors")
	f.Float64Var(&flags.blur, "blur", 0, "Gaussian blur sigma (0-20)")
	f.IntVar(&flags.sepia, "sepia", 0, "Sepia strength (0-100)")
	f.IntVar(&flags.brightness, "brightness", 0, "Brightness adjustment (-100 to 100)")
	f.IntVar(&flags.contrast, "contrast", 0, "Contrast adjustment (-100 to 100)")
	f.StringVar(&flags.watermark, "watermark", "", "Watermark text")
	f.StringVar(&flags.watermarkPosition, "watermark-position", "", "Watermark anchor (top-left, top-right, bottom-left, bottom-right, center)")
	f.IntVar(&flags.watermarkOpacity, "watermark-opacity", transform.DefaultWatermarkOpacity, "Watermark opacity (0-100)")
	f.StringVarP(&flags.outDir, "out", "o", "", "Output directory (defaults to paths.output_dir)")
	f.IntVar(&flags.retries, "retries", 0, "Re-run failed items up to this many times")
	f.BoolVarP(&flags.recursive, "recursive", "r", false, "Descend into subdirectories of directory arguments")
	f.BoolVar(&flags.dryRun, "dry-run", false, "List the outputs that would be written without converting")
	f.BoolVar(&flags.overwrite, "overwrite", false, "Replace existing output files instead of adding a numbered suffix")
	f.BoolVar(&flags.jsonOutput, "json", false, "Print the report as JSON")

	return cmd
}

// resolve layers the configured defaults, the selected preset and the flags
// the user actually set, then validates the result.
func (f convertFlags) resolve(cmd *cobra.Command, cfg *config.Config) (transform.Format, transform.Options, error) {
	format := cfg.DefaultFormat()
	opts := cfg.Transform
	if strings.TrimSpace(f.preset) != "" {
		preset, err := cfg.Preset(f.preset)
		if err != nil {
			return "", transform.Options{}, err
		}
		format = preset.Format
		opts = preset.Apply(opts)
	}
	if strings.TrimSpace(f.format) != "" {
		parsed, err := transform.ParseFormat(f.format)
		if err != nil {
			return "", transform.Options{}, err
		}
		format = parsed
	}

	changed := cmd.Flags().Changed
	if changed("quality") {
		opts.Quality = f.quality
	}
	if changed("width") {
		opts.Width = f.width
	}
	if changed("height") {
		opts.Height = f.height
	}
	if changed("grayscale") {
		opts.Grayscale = f.grayscale
	}
	if changed("sharpen") {
		opts.Sharpen = f.sharpen
	}
	if changed("invert") {
		opts.Invert = f.invert
	}
	if changed("blur") {
		opts.Blur = f.blur
	}
	if changed("sepia") {
		opts.Sepia = f.sepia
	}
	if changed("brightness") {
		opts.Brightness = f.brightness
	}
	if changed("contrast") {
		opts.Contrast = f.contrast
	}
	if changed("watermark") {
		opts.WatermarkText = f.watermark
	}
	if changed("watermark-position") {
		opts.WatermarkPosition = transform.WatermarkPosition(f.watermarkPosition)
	}
	if changed("watermark-opacity") {
		opts.WatermarkOpacity = f.watermarkOpacity
	}
	if f.retries < 0 {
		return "", transform.Options{}, fmt.Errorf("--retries must be zero or positive")
	}

	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return "", transform.Options{}, err
	}
	return format, opts, nil
}

type convertRun struct {
	cfg       *config.Config
	format    transform.Format
	options   transform.Options
	outDir    string
	retries   int
	recursive bool
	overwrite bool
	client    batch.Converter
	progress  batch.Observer
}

func (r convertRun) execute(ctx context.Context, logger *slog.Logger, paths []string) (convertReport, error) {
	lock, err := lockOutputDir(r.outDir)
	if err != nil {
		return convertReport{}, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(logger, "failed to release output lock", "output_lock_release_failed",
				logging.String(logging.FieldErrorHint, "remove "+lock.Path()+" if no other run is active"),
				logging.Error(err),
			)
		}
	}()

	sources, rejected, err := loadSources(ctx, paths, r.recursive)
	if err != nil {
		return convertReport{}, err
	}
	for _, rej := range rejected {
		logger.Info("input skipped", logging.String("path", rej.Path), logging.String("reason", rej.Reason))
	}
	if len(sources) == 0 {
		return convertReport{}, fmt.Errorf("no image inputs among %d path(s)", len(paths))
	}

	alloc := handle.NewAllocator()
	decoder := imaging.NewDecoder(alloc, r.cfg.Preview.MaxPixels)
	ctrl := batch.NewFromConfig(r.cfg, r.client, decoder, logger,
		batch.WithAllocator(alloc),
		batch.WithObserver(r.progress),
	)
	defer func() {
		_ = ctrl.Close()
		if n := alloc.Outstanding(); n != 0 {
			logging.ErrorWithContext(logger, "display handles leaked", "handle_leak",
				logging.Int64("outstanding", n),
				logging.String(logging.FieldErrorHint, "report this as a bug"),
			)
		}
	}()

	if err := ctrl.SetFormat(ctx, r.format); err != nil {
		return convertReport{}, err
	}
	if err := ctrl.SetOptions(ctx, r.options); err != nil {
		return convertReport{}, err
	}
	if _, err := ctrl.AddItems(ctx, batchSources(sources)...); err != nil {
		return convertReport{}, err
	}

	var runs []batch.RunSummary
	for attempt := 0; attempt <= r.retries; attempt++ {
		summary, err := ctrl.Run(ctx)
		if summary.Total > 0 {
			runs = append(runs, summary)
		}
		if err != nil {
			return convertReport{}, err
		}
		if summary.Failed == 0 {
			break
		}
		if attempt < r.retries {
			logger.Info("retrying failed items",
				logging.Int("failed", summary.Failed),
				logging.Int("attempt", attempt+1),
				logging.Int("retries", r.retries),
			)
		}
	}

	snapshot, err := ctrl.Batch(ctx)
	if err != nil {
		return convertReport{}, err
	}
	report, err := writeResults(ctx, snapshot, r.outDir, decoder, r.overwrite)
	if err != nil {
		return convertReport{}, err
	}
	report.Rejected = rejected
	report.Runs = runs
	return report, nil
}

// lockOutputDir creates dir if needed, checks it is writable and takes the
// batch writer lock on it.
func lockOutputDir(dir string) (*flock.Flock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	if check := preflight.CheckDirectoryAccess("Output directory", dir); !check.Passed {
		return nil, fmt.Errorf("output directory unusable: %s", check.Detail)
	}
	lock := flock.New(filepath.Join(dir, outputLockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire output lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another pixbatch run is writing to %s", dir)
	}
	return lock, nil
}
