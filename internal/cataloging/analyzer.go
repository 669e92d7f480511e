package cataloging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/config"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/images"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/providers"
)

// ErrNoImages is reported when none of a batch's images could be read
var ErrNoImages = errors.New("no readable images in batch")

// Outcome is the result of describing one batch. Descriptions is never nil;
// when Err is set it is empty and Err says why.
type Outcome struct {
	Descriptions map[string]string
	// Requested holds the filenames that were sent to the model
	Requested []string
	Err       error
}

// Analyzer describes batches of images with a vision model
type Analyzer struct {
	Provider    providers.Provider
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewAnalyzer returns an Analyzer using the model settings from cfg
func NewAnalyzer(provider providers.Provider, cfg config.Config) *Analyzer {
	return &Analyzer{
		Provider:    provider,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     cfg.Timeout(),
	}
}

// Analyze sends the images at paths in a single request and returns the
// descriptions keyed by filename. Failures never propagate: unreadable images
// are dropped, and a failed request or unparsable answer yields an empty map.
func (a *Analyzer) Analyze(ctx context.Context, paths []string, folderContext string) Outcome {
	outcome := Outcome{Descriptions: map[string]string{}}

	encoded := make([]images.Inline, 0, len(paths))
	for _, path := range paths {
		img, err := images.Load(path)
		if err != nil {
			slog.Warn("Could not load image", "file", filepath.Base(path), "error", err)
			continue
		}
		encoded = append(encoded, img)
		outcome.Requested = append(outcome.Requested, img.Name)
	}

	if len(encoded) == 0 {
		outcome.Err = ErrNoImages
		return outcome
	}

	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	text, err := a.Provider.ExtractText(ctx, providers.Config{
		Model:       a.Model,
		Temperature: a.Temperature,
		MaxTokens:   a.MaxTokens,
		Prompt:      buildDescriptionPrompt(folderContext, outcome.Requested),
		Images:      encoded,
	})
	if err != nil {
		slog.Warn("API error", "files", len(encoded), "error", err)
		outcome.Err = fmt.Errorf("failed to describe batch: %w", err)
		return outcome
	}

	parsed, err := ParseDescriptions(text)
	if err != nil {
		slog.Warn("Could not parse JSON response", "error", err)
		slog.Debug("Unparsable response", "text", text)
		outcome.Err = err
		return outcome
	}

	requested := make(map[string]bool, len(outcome.Requested))
	for _, name := range outcome.Requested {
		requested[name] = true
	}
	for name, desc := range parsed {
		if !requested[name] {
			slog.Warn("Dropping description for a file not in the batch", "file", name)
			continue
		}
		outcome.Descriptions[name] = desc
	}

	slog.Debug("Batch described", "requested", len(outcome.Requested), "described", len(outcome.Descriptions))
	return outcome
}
