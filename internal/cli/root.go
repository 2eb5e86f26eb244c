package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sidestack/internal/config"
	"sidestack/internal/logging"
	"sidestack/internal/paths"
)

// version is stamped by the release build; "dev" otherwise.
var version = "dev"

var (
	configPath string
	outputJSON bool
	verbose    bool
)

// Execute runs the root cobra command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sidestack",
		Short:   "Align video clips and render side-by-side comparisons",
		Version: version,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.Init(verbose)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newPlanCmd())
	cmd.AddCommand(newInspectCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

// configFilePath resolves the effective config file location.
func configFilePath() string {
	if configPath != "" {
		return paths.ExpandUser(configPath)
	}
	return paths.DefaultConfigFile()
}

func loadConfig() (config.Config, error) {
	return config.Load(configFilePath())
}
