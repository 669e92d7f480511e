package cataloging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/config"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/folderctx"
)

// Catalog maps an image key (path relative to the base path, or a bare
// filename) to its description
type Catalog map[string]string

// BatchAnalyzer describes one batch of images
type BatchAnalyzer interface {
	Analyze(ctx context.Context, paths []string, folderContext string) Outcome
}

// Options controls a single Catalog call
type Options struct {
	Recursive bool
	// BasePath is what keys are made relative to. Empty means bare filenames.
	BasePath string
}

// Walker visits folders one at a time and describes their images batch by batch
type Walker struct {
	Analyzer  BatchAnalyzer
	Deriver   *folderctx.Deriver
	BatchSize int
	Exclude   []string
	// Out receives progress lines; nil discards them.
	Out io.Writer
}

// NewWalker returns a Walker configured from cfg that reports progress to out
func NewWalker(analyzer BatchAnalyzer, cfg config.Config, out io.Writer) *Walker {
	return &Walker{
		Analyzer:  analyzer,
		Deriver:   cfg.Deriver(),
		BatchSize: cfg.BatchSize,
		Exclude:   cfg.Exclude,
		Out:       out,
	}
}

// Catalog describes every image under root and returns the merged result.
// It stops early only when ctx is cancelled.
func (w *Walker) Catalog(ctx context.Context, root string, opts Options) (Catalog, error) {
	folders, err := ListFolders(root, opts.Recursive, w.Exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}

	result := Catalog{}
	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := w.catalogFolder(ctx, root, folder, opts.BasePath, result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (w *Walker) catalogFolder(ctx context.Context, root, folder, basePath string, result Catalog) error {
	files, err := ListImages(folder)
	if err != nil {
		slog.Warn("Could not list folder", "path", folder, "error", err)
		return nil
	}
	files = w.withoutExcluded(root, files)
	if len(files) == 0 {
		return nil
	}

	folderContext := w.deriver().Derive(folder)
	out := w.out()
	fmt.Fprintf(out, "\n[%s] %d images\n", filepath.Base(folder), len(files))
	fmt.Fprintf(out, "  Context: %s\n", folderContext)

	batches := Partition(files, w.BatchSize)
	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "  Analyzing batch %d/%d...\n", i+1, len(batches))

		outcome := w.Analyzer.Analyze(ctx, batch, folderContext)
		if outcome.Err != nil {
			slog.Debug("Batch produced no descriptions", "folder", folder, "batch", i+1, "error", outcome.Err)
		}

		names := make([]string, 0, len(outcome.Descriptions))
		for name := range outcome.Descriptions {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			desc := outcome.Descriptions[name]
			result[relativeKey(basePath, folder, name)] = desc
			fmt.Fprintf(out, "    %s: %s\n", name, Preview(desc, 60))
		}
	}
	return nil
}

func (w *Walker) withoutExcluded(root string, files []string) []string {
	if len(w.Exclude) == 0 {
		return files
	}
	kept := make([]string, 0, len(files))
	for _, f := range files {
		if !isExcluded(root, f, w.Exclude) {
			kept = append(kept, f)
		}
	}
	return kept
}

func (w *Walker) deriver() *folderctx.Deriver {
	if w.Deriver == nil {
		return folderctx.DefaultDeriver()
	}
	return w.Deriver
}

func (w *Walker) out() io.Writer {
	if w.Out == nil {
		return io.Discard
	}
	return w.Out
}

// relativeKey turns a model's filename into the manifest key for the image.
func relativeKey(basePath, folder, filename string) string {
	if basePath == "" {
		return filename
	}
	base, err := filepath.Abs(basePath)
	if err != nil {
		return filename
	}
	target, err := filepath.Abs(filepath.Join(folder, filename))
	if err != nil {
		return filename
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filename
	}
	return filepath.ToSlash(rel)
}

// Preview shortens s to at most n runes, marking the cut with "..."
func Preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
