package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// Engine drives the per-year crawl loop: fetch, parse, resolve each
// document's PDF, persist, paginate. Years run sequentially with one
// request in flight at a time; the fixed delays are the politeness
// throttle against the rate-limited remote site.
type Engine struct {
	cfg    Config
	base   *url.URL
	fetch  Fetcher
	detail *DetailResolver
	pager  *PaginationResolver
	store  RecordStore
	pauser pauseController
	logger *zap.Logger
}

// NewEngine constructs an engine from its collaborators. The base URL
// must parse; everything else is validated by the caller's config layer.
func NewEngine(cfg Config, fetcher Fetcher, store RecordStore, logger *zap.Logger) (*Engine, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", cfg.BaseURL, err)
	}
	return &Engine{
		cfg:    cfg,
		base:   base,
		fetch:  fetcher,
		detail: NewDetailResolver(fetcher, base, logger),
		pager:  NewPaginationResolver(base),
		store:  store,
		pauser: &timerPauseController{},
		logger: logger,
	}, nil
}

// Run crawls every configured year in order and returns the cumulative
// number of documents saved. Per-year and per-document failures are
// logged and absorbed; the run always completes the full year list.
func (e *Engine) Run(ctx context.Context) (int, error) {
	total := 0
	for _, year := range e.cfg.Years {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		summary := e.crawlYear(ctx, year)
		total += summary.Saved
		e.logger.Info("Year finished",
			zap.Int("year", summary.Year),
			zap.Int("pages", summary.Pages),
			zap.Int("saved", summary.Saved),
			zap.Int("cumulative", total),
		)
	}
	return total, nil
}

// crawlYear runs the page loop for one year until a terminal outcome.
func (e *Engine) crawlYear(ctx context.Context, year int) YearSummary {
	e.logger.Info("Scraping year", zap.Int("year", year))

	summary := YearSummary{Year: year}
	page := 1
	for {
		pageURL := listingURL(e.cfg.BaseURL, year, page)
		e.logger.Info("Listing page",
			zap.Int("year", year),
			zap.Int("page", page),
			zap.String("url", pageURL),
		)

		outcome := e.processPage(ctx, year, pageURL)
		summary.Pages++
		summary.Saved += outcome.Saved

		if outcome.Reason != ReasonAdvanced {
			e.logger.Info("End of year",
				zap.Int("year", year),
				zap.String("reason", string(outcome.Reason)),
			)
			return summary
		}
		page++
		e.pauser.Pause(ctx, e.cfg.PageDelay)
		if ctx.Err() != nil {
			return summary
		}
	}
}

// processPage handles a single listing page end to end and tags the
// result so the caller's loop condition stays trivial.
func (e *Engine) processPage(ctx context.Context, year int, pageURL string) PageOutcome {
	fetched, err := e.fetch.Fetch(ctx, pageURL)
	if err != nil {
		e.logger.Warn("Listing page fetch failed",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return PageOutcome{Reason: ReasonFetchFailed}
	}

	doc, err := NewDocument(fetched)
	if err != nil {
		e.logger.Warn("Listing page parse failed",
			zap.String("url", pageURL),
			zap.Error(err),
		)
		return PageOutcome{Reason: ReasonFetchFailed}
	}

	entries := ParseListing(doc, e.base)
	if len(entries) == 0 {
		return PageOutcome{Reason: ReasonEmptyPage}
	}
	e.logger.Info("Found documents", zap.Int("count", len(entries)))

	saved := 0
	for _, entry := range entries {
		e.logger.Info("Document",
			zap.Int("year", year),
			zap.String("date", entry.DocDate),
			zap.String("title", truncate(entry.Title, 85)),
		)

		pdfURL, ok := e.detail.Resolve(ctx, entry.DetailURL)
		if !ok {
			e.logger.Info("No PDF available, likely redacted or withheld",
				zap.String("url", entry.DetailURL),
			)
		} else {
			duplicate, err := e.store.Upsert(ctx, entry.DetailURL, entry.DocDate, pdfURL, year)
			if err != nil {
				e.logger.Error("Record persist failed",
					zap.String("url", entry.DetailURL),
					zap.Error(err),
				)
			} else {
				saved++
				e.logger.Info("Record saved",
					zap.Int("year", year),
					zap.Bool("duplicate", duplicate),
				)
			}
		}
		e.pauser.Pause(ctx, e.cfg.DetailDelay)
		if ctx.Err() != nil {
			return PageOutcome{Reason: ReasonNoNextLink, Saved: saved}
		}
	}

	if _, ok := e.pager.Next(doc, pageURL); !ok {
		return PageOutcome{Reason: ReasonNoNextLink, Saved: saved}
	}
	return PageOutcome{Reason: ReasonAdvanced, Saved: saved}
}

// listingURL embeds the year as a query filter and the page number as a
// path segment, the shape the listing site expects.
func listingURL(baseURL string, year, page int) string {
	return fmt.Sprintf("%s/page/%d?document_date=%d#listings",
		strings.TrimRight(baseURL, "/"), page, year)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
