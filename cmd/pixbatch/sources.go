package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"pixbatch/internal/batch"
	"pixbatch/internal/config"
	"pixbatch/internal/imaging"
)

// rejectedInput is a path that was not added to the batch.
type rejectedInput struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// inputFile is one candidate file. Files found by walking a directory are
// dropped quietly when they are not images.
type inputFile struct {
	arg     string
	path    string
	fromDir bool
	reject  string
}

// loadedSource pairs a source with the file it was read from.
type loadedSource struct {
	batch.Source
	Path string
}

// expandInputs resolves command arguments into candidate files in argument
// order. Directories contribute their image files in lexical order, only the
// top level unless recursive is set. Hidden entries inside a directory are
// skipped.
func expandInputs(ctx context.Context, args []string, recursive bool) ([]inputFile, error) {
	var files []inputFile
	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, err := config.ExpandPath(arg)
		if err != nil {
			files = append(files, inputFile{arg: arg, reject: err.Error()})
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			files = append(files, inputFile{arg: arg, reject: fmt.Sprintf("stat: %v", err)})
			continue
		}
		if !info.IsDir() {
			files = append(files, inputFile{arg: arg, path: path})
			continue
		}
		found, err := walkDirectory(path, recursive)
		if err != nil {
			files = append(files, inputFile{arg: arg, reject: fmt.Sprintf("walk: %v", err)})
			continue
		}
		if len(found) == 0 {
			files = append(files, inputFile{arg: arg, reject: "directory has no files"})
			continue
		}
		files = append(files, found...)
	}
	return files, nil
}

func walkDirectory(root string, recursive bool) ([]inputFile, error) {
	var files []inputFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if path == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		files = append(files, inputFile{arg: path, path: path, fromDir: true})
		return nil
	})
	if err != nil && !errors.Is(err, filepath.SkipDir) {
		return nil, err
	}
	return files, nil
}

// loadSources reads the inputs concurrently and keeps, in order, the files
// whose content sniffs as an image. Unreadable paths and non-image content
// are reported as rejected rather than failing the whole command.
func loadSources(ctx context.Context, args []string, recursive bool) ([]loadedSource, []rejectedInput, error) {
	files, err := expandInputs(ctx, args, recursive)
	if err != nil {
		return nil, nil, err
	}

	type loaded struct {
		source  loadedSource
		reject  string
		skipped bool
	}
	results := make([]loaded, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, file := range files {
		if file.reject != "" {
			results[i].reject = file.reject
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := os.ReadFile(file.path)
			if err != nil {
				results[i].reject = fmt.Sprintf("read: %v", err)
				return nil
			}
			mediaType, ok := imaging.Sniff(content)
			if !ok {
				if file.fromDir {
					results[i].skipped = true
				} else {
					results[i].reject = "not an image"
				}
				return nil
			}
			results[i].source = loadedSource{
				Source: batch.Source{
					Name:      filepath.Base(file.path),
					MediaType: mediaType,
					Content:   content,
				},
				Path: file.path,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sources := make([]loadedSource, 0, len(files))
	var rejected []rejectedInput
	for i, r := range results {
		switch {
		case r.skipped:
		case r.reject != "":
			rejected = append(rejected, rejectedInput{Path: files[i].arg, Reason: r.reject})
		default:
			sources = append(sources, r.source)
		}
	}
	return sources, rejected, nil
}

func batchSources(loaded []loadedSource) []batch.Source {
	out := make([]batch.Source, len(loaded))
	for i, l := range loaded {
		out[i] = l.Source
	}
	return out
}
