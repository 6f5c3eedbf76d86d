package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foiavault/harvester/internal/download"
	"github.com/foiavault/harvester/internal/store"
)

// newDownloadCmd creates the 'download' subcommand, which runs stage 2:
// copy every record with a resolved PDF link into the year-partitioned
// output tree via the external fetch tool.
func newDownloadCmd() *cobra.Command {
	var (
		dbPath            string
		outDir            string
		force             bool
		includeDuplicates bool
	)

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Bulk-downloads the PDFs referenced by the record store",
		Long: `Reads every record with a direct PDF link from the store, sorted by
discovery year and insertion order, and downloads each into
{out}/{year}/ using aria2c. Files already present are skipped unless
--force is set; duplicates are excluded unless --include-duplicates.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := buildEnv()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			flags := cmd.Flags()
			if flags.Changed("db") {
				cfg.DB.Path = dbPath
			}
			if flags.Changed("out") {
				cfg.Download.OutDir = outDir
			}
			if flags.Changed("force") {
				cfg.Download.Force = force
			}
			if flags.Changed("include-duplicates") {
				cfg.Download.IncludeDuplicates = includeDuplicates
			}

			runner := download.Aria2Runner{}
			if err := runner.Check(); err != nil {
				return err
			}

			st, err := store.Open(cfg.DB.Path)
			if err != nil {
				return fmt.Errorf("open record store: %w", err)
			}
			defer st.Close()

			d := download.New(st, runner, download.Options{
				OutDir:            cfg.Download.OutDir,
				Force:             cfg.Download.Force,
				IncludeDuplicates: cfg.Download.IncludeDuplicates,
			}, logger)

			summary, err := d.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("run download: %w", err)
			}
			logger.Info("Downloads finished",
				zap.Int("total", summary.Total),
				zap.Int("downloaded", summary.Downloaded),
				zap.Int("skipped", summary.Skipped),
				zap.Int("failed", summary.Failed),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite record store")
	cmd.Flags().StringVar(&outDir, "out", "downloads", "output directory root")
	cmd.Flags().BoolVar(&force, "force", false, "re-download files that already exist")
	cmd.Flags().BoolVar(&includeDuplicates, "include-duplicates", false, "also download records flagged as duplicates")

	return cmd
}
