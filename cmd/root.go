package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/cataloging"
	"github.com/lehigh-university-libraries/asset-cataloger/internal/config"
	"github.com/spf13/cobra"
)

// newProvider and getenv are swapped out in tests
var (
	newProvider               = cataloging.NewProvider
	getenv      config.Getenv = os.Getenv
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cataloger",
		Short: "Image asset cataloging with LLM-generated descriptions",
		Long: `Cataloger describes folders of image assets with a vision-capable LLM.

Each folder's location is turned into a short context string, images are sent
to the model in small batches, and the resulting descriptions are written to
a catalog file and/or merged into an existing JSON asset manifest.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.AddCommand(newDescribeCmd())
	cmd.AddCommand(newMergeCmd())
	cmd.AddCommand(newContextCmd())

	return cmd
}

// setupLogging installs a text logger on w tagged with a fresh run id.
func setupLogging(w io.Writer, verbose bool) string {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	runID := uuid.NewString()
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger.With("run_id", runID))
	return runID
}
