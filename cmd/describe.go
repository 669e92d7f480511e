package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/cataloging"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/config"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/manifest"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/results"
	"github.com/spf13/cobra"
)

type describeOptions struct {
	manifestPath string
	outputPath   string
	recursive    bool
	dryRun       bool
	provider     string
	model        string
	batchSize    int
	basePath     string
	configPath   string
	verbose      bool
}

func newDescribeCmd() *cobra.Command {
	var opts describeOptions

	cmd := &cobra.Command{
		Use:   "describe <folder>",
		Short: "Generate descriptions for the images in a folder",
		Long: `Walks a folder (optionally recursively), derives a context string for every
folder from its path, and asks the configured vision model to describe the
images in batches.

Results are keyed by the image path relative to --base (the folder by default).
They can be written to a catalog file (.json, .yaml or .parquet) and merged
into the "files" array of a JSON manifest.`,
		Example: `  # Describe one folder and print progress only
  cataloger describe ./M3org/m3tv/resources/Characters --dry-run

  # Walk everything below a folder and update the manifest
  cataloger describe ./M3org/m3tv/resources -r -m manifest.json

  # Use a local Ollama model and save a parquet catalog
  cataloger describe ./renders -r --provider ollama -o catalog.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifestPath, "manifest", "m", "", "JSON manifest to update with descriptions")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Catalog file to write (.json, .yaml or .parquet)")
	cmd.Flags().BoolVarP(&opts.recursive, "recursive", "r", false, "Process subfolders")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Describe images but do not write any file")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "LLM provider (openrouter, openai, ollama, or gemini)")
	cmd.Flags().StringVar(&opts.model, "model", "", "Model name (defaults to provider's default)")
	cmd.Flags().IntVar(&opts.batchSize, "batch-size", config.DefaultBatchSize, "Images per request")
	cmd.Flags().StringVar(&opts.basePath, "base", "", "Base path for catalog keys (defaults to the folder)")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "Config file (.yaml or .jsonc)")
	cmd.Flags().BoolVar(&opts.verbose, "verbose", false, "Verbose logging")

	return cmd
}

func runDescribe(cmd *cobra.Command, folder string, opts describeOptions) error {
	setupLogging(cmd.ErrOrStderr(), opts.verbose)

	cfg, err := config.Load(opts.configPath, getenv)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.UseProvider(opts.provider)
	}
	if flags.Changed("model") {
		cfg.Model = opts.model
	}
	if flags.Changed("batch-size") {
		cfg.BatchSize = opts.batchSize
	}
	cfg.Finalize(getenv)
	if err := cfg.Validate(); err != nil {
		return err
	}

	info, err := os.Stat(folder)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folder)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", folder)
	}

	basePath := opts.basePath
	if basePath == "" {
		basePath = folder
	}

	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	slog.Debug("Starting catalog run",
		"folder", folder,
		"provider", cfg.Provider,
		"model", cfg.Model,
		"batch_size", cfg.BatchSize,
		"recursive", opts.recursive,
		"dry_run", opts.dryRun)

	out := cmd.OutOrStdout()
	walker := cataloging.NewWalker(cataloging.NewAnalyzer(provider, cfg), cfg, out)
	catalog, err := walker.Catalog(cmd.Context(), folder, cataloging.Options{
		Recursive: opts.recursive,
		BasePath:  basePath,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\nTotal: %d images cataloged\n", len(catalog))

	if opts.outputPath != "" {
		if opts.dryRun {
			fmt.Fprintf(out, "Dry run: would save to %s\n", opts.outputPath)
		} else {
			if err := results.Save(opts.outputPath, catalog); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved to: %s\n", opts.outputPath)
		}
	}

	if opts.manifestPath != "" {
		return mergeIntoManifest(cmd, opts.manifestPath, catalog, opts.dryRun)
	}
	return nil
}

// mergeIntoManifest applies descriptions to the manifest, writing it back
// unless dryRun is set.
func mergeIntoManifest(cmd *cobra.Command, path string, descriptions map[string]string, dryRun bool) error {
	out := cmd.OutOrStdout()

	if dryRun {
		m, err := manifest.Load(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Dry run: would update %d entries in %s\n", m.Apply(descriptions), path)
		return nil
	}

	updated, err := manifest.Update(path, descriptions)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated %d entries in %s\n", updated, path)
	return nil
}
