package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/results"
	"github.com/spf13/cobra"
)

func newMergeCmd() *cobra.Command {
	var catalogPath string
	var manifestPath string
	var dryRun bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a saved catalog into a manifest",
		Long: `Reads a catalog written by "describe --output" and sets the description of
every manifest entry whose path or name appears in it. No model is called.`,
		Example: `  # Apply a parquet catalog to a manifest
  cataloger merge --catalog catalog.parquet --manifest manifest.json

  # See how many entries would change
  cataloger merge --catalog catalog.json --manifest manifest.json --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogging(cmd.ErrOrStderr(), verbose)

			catalog, err := results.Load(catalogPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d descriptions from %s\n", len(catalog), catalogPath)

			return mergeIntoManifest(cmd, manifestPath, catalog, dryRun)
		},
	}

	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog file (.json, .yaml or .parquet) (required)")
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "JSON manifest to update (required)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the number of entries that would change without writing")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	_ = cmd.MarkFlagRequired("catalog")
	_ = cmd.MarkFlagRequired("manifest")
	return cmd
}
