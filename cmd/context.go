package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/asset-cataloger/internal/config"
	"github.com/spf13/cobra"
)

func newContextCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "context <path>...",
		Short: "Print the folder context derived for each path",
		Example: `  cataloger context ./M3org/m3tv/resources/Characters/Robots
  cataloger context --config cataloger.yaml ./renders/backgrounds`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, getenv)
			if err != nil {
				return err
			}
			deriver := cfg.Deriver()
			for _, path := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, deriver.Derive(path))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (.yaml or .jsonc)")
	return cmd
}
