package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foiavault/harvester/internal/index"
)

// newIndexCmd creates the 'index' subcommand, which runs stage 3:
// render a static browsable HTML index of the downloaded PDF tree.
func newIndexCmd() *cobra.Command {
	var (
		root     string
		template string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Generates a static HTML index of the downloaded PDFs",
		Long: `Scans the download tree for PDF files, groups them by top-level
directory and by the year found in their path, and writes a
self-contained browsable HTML index based on the given template.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := buildEnv()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			flags := cmd.Flags()
			if flags.Changed("root") {
				cfg.Index.Root = root
			}
			if flags.Changed("template") {
				cfg.Index.Template = template
			}
			if flags.Changed("output") {
				cfg.Index.Output = output
			}

			gen := index.New(cfg.Index.Root, cfg.Index.Template, cfg.Index.Output, logger)
			count, err := gen.Run()
			if err != nil {
				return fmt.Errorf("generate index: %w", err)
			}
			logger.Info("Index generated",
				zap.Int("files", count),
				zap.String("output", cfg.Index.Output),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", ".", "directory tree to scan")
	cmd.Flags().StringVar(&template, "template", "templates.html", "HTML template with substitution markers")
	cmd.Flags().StringVar(&output, "output", "index_local.html", "output HTML file")

	return cmd
}
