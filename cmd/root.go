// Package cmd defines and implements the CLI commands for the harvester
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foiavault/harvester/internal/config"
	"github.com/foiavault/harvester/internal/logging"
)

var (
	cfgFile string
	devMode bool
)

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "harvester",
		Short: "Harvests a public FOIA document index into a local archive.",
		Long: `harvester is a three-stage pipeline for a public FOIA document index:
crawl the paginated listing site and persist document records, bulk-download
the referenced PDFs into a year-partitioned tree, and generate a static
browsable HTML index of the result.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is defaults + HARVESTER_* env)")
	cmd.PersistentFlags().BoolVar(&devMode, "dev", false, "enable development logging")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newDownloadCmd())
	cmd.AddCommand(newIndexCmd())

	return cmd
}

// buildEnv loads configuration and constructs the logger shared by all
// subcommands.
func buildEnv() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := logging.New(devMode || cfg.Logging.Development)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
