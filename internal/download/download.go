// Package download copies every resolved PDF into a year-partitioned
// directory tree. Transfer itself is delegated to an external
// point-to-point fetch tool; this package only plans destinations and
// drives the tool one file at a time.
package download

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/foiavault/harvester/internal/store"
)

// unknownYearDir receives files whose record has no discovery year.
const unknownYearDir = "unknown"

// Runner invokes the external transfer tool for a single file.
type Runner interface {
	Fetch(ctx context.Context, rawURL, destDir, filename string) error
}

// RowSource yields the records eligible for download.
type RowSource interface {
	Downloadable(ctx context.Context, includeDuplicates bool) ([]store.DownloadRow, error)
}

// Aria2Runner shells out to aria2c for the actual transfer.
type Aria2Runner struct{}

// Check verifies the tool is installed before any work starts.
func (Aria2Runner) Check() error {
	if _, err := exec.LookPath("aria2c"); err != nil {
		return fmt.Errorf("aria2c not found, install aria2 first: %w", err)
	}
	return nil
}

// Fetch downloads one URL into destDir/filename, resuming partial
// transfers and overwriting stale ones.
func (Aria2Runner) Fetch(ctx context.Context, rawURL, destDir, filename string) error {
	cmd := exec.CommandContext(ctx, "aria2c",
		"--quiet=true",
		"--continue=true",
		"--file-allocation=none",
		"--allow-overwrite=true",
		"--auto-file-renaming=false",
		"--dir", destDir,
		"--out", filename,
		rawURL,
	)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("aria2c %s: %w", rawURL, err)
	}
	return nil
}

// Options controls one download run.
type Options struct {
	OutDir            string
	Force             bool
	IncludeDuplicates bool
}

// Summary reports what a run did.
type Summary struct {
	Total      int
	Downloaded int
	Skipped    int
	Failed     int
}

// Downloader walks the record set and materializes each PDF on disk.
type Downloader struct {
	rows   RowSource
	runner Runner
	opts   Options
	logger *zap.Logger
}

// New constructs a Downloader.
func New(rows RowSource, runner Runner, opts Options, logger *zap.Logger) *Downloader {
	return &Downloader{rows: rows, runner: runner, opts: opts, logger: logger}
}

// Run downloads every eligible record. Existing destination files are
// skipped unless Force is set. Per-file failures are logged and
// counted, never fatal.
func (d *Downloader) Run(ctx context.Context) (Summary, error) {
	rows, err := d.rows.Downloadable(ctx, d.opts.IncludeDuplicates)
	if err != nil {
		return Summary{}, fmt.Errorf("load downloadable rows: %w", err)
	}
	summary := Summary{Total: len(rows)}
	if len(rows) == 0 {
		d.logger.Warn("No records with a direct PDF link found")
		return summary, nil
	}
	d.logger.Info("Preparing to download PDFs", zap.Int("count", len(rows)))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		destDir := filepath.Join(d.opts.OutDir, yearDir(row))
		if err := os.MkdirAll(destDir, 0o750); err != nil {
			return summary, fmt.Errorf("create year dir %s: %w", destDir, err)
		}

		filename := uniqueFilename(row.RowID, row.PDFURL)
		destPath := filepath.Join(destDir, filename)

		if !d.opts.Force {
			if _, err := os.Stat(destPath); err == nil {
				summary.Skipped++
				d.logger.Debug("Destination exists, skipping", zap.String("path", destPath))
				continue
			}
		}

		if err := d.runner.Fetch(ctx, row.PDFURL, destDir, filename); err != nil {
			summary.Failed++
			d.logger.Warn("Download failed",
				zap.String("url", row.PDFURL),
				zap.Error(err),
			)
			continue
		}
		summary.Downloaded++
		d.logger.Info("Downloaded",
			zap.Int("done", summary.Downloaded+summary.Skipped+summary.Failed),
			zap.Int("total", summary.Total),
			zap.String("path", destPath),
		)
	}
	return summary, nil
}

func yearDir(row store.DownloadRow) string {
	if !row.Year.Valid {
		return unknownYearDir
	}
	return strconv.FormatInt(row.Year.Int64, 10)
}
