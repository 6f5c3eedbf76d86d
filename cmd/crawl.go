package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foiavault/harvester/internal/crawl"
	"github.com/foiavault/harvester/internal/store"
)

// newCrawlCmd creates and configures the 'crawl' subcommand, which runs
// stage 1: walk the year-filtered listing pages, resolve each document
// to its direct PDF link, and persist records to the store.
func newCrawlCmd() *cobra.Command {
	var (
		dbPath  string
		baseURL string
		delay   time.Duration
		timeout time.Duration
		years   []int
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawls the listing site and persists document records",
		Long: `Walks the paginated listing pages for every configured year, resolves
each document's detail page to a direct PDF link, and upserts one record
per detail-page URL into the SQLite store. Requests run sequentially with
a politeness delay; per-document and per-page failures never abort the run.`,
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
			if flags.Changed("base-url") {
				cfg.Crawl.BaseURL = baseURL
			}
			if flags.Changed("delay") {
				cfg.Crawl.PageDelay = delay
			}
			if flags.Changed("timeout") {
				cfg.Crawl.RequestTimeout = timeout
			}
			if flags.Changed("years") {
				cfg.Crawl.Years = years
			}

			st, err := store.Open(cfg.DB.Path)
			if err != nil {
				return fmt.Errorf("open record store: %w", err)
			}
			defer st.Close()

			engineCfg := crawl.Config{
				BaseURL:     cfg.Crawl.BaseURL,
				UserAgent:   cfg.Crawl.UserAgent,
				Years:       cfg.Crawl.Years,
				PageDelay:   cfg.Crawl.PageDelay,
				DetailDelay: cfg.Crawl.DetailDelay,
				Timeout:     cfg.Crawl.RequestTimeout,
			}
			fetcher := crawl.NewCollyFetcher(cfg.Crawl.UserAgent, cfg.Crawl.RequestTimeout, logger)
			engine, err := crawl.NewEngine(engineCfg, fetcher, st, logger)
			if err != nil {
				return fmt.Errorf("init crawl engine: %w", err)
			}

			total, err := engine.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("run crawl: %w", err)
			}
			logger.Info("Crawl finished",
				zap.Int("total_saved", total),
				zap.String("db", cfg.DB.Path),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "path to the SQLite record store")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "listing site base URL")
	cmd.Flags().DurationVar(&delay, "delay", 2*time.Second, "delay between listing pages")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Second, "per-request network timeout")
	cmd.Flags().IntSliceVar(&years, "years", nil, "year filters to crawl, in order")

	return cmd
}
