package crawl

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

// downloadPhrase is the visible anchor text the fallback heuristic
// looks for when no anchor is explicitly marked as a download.
const downloadPhrase = "Download document"

// downloadAnchorStrategy locates the download anchor on a detail page.
// Strategies are tried in fixed order.
type downloadAnchorStrategy interface {
	FindAnchor(doc *goquery.Document) (href string, ok bool)
}

// downloadAttrStrategy matches anchors explicitly marked as file
// downloads via the download attribute.
type downloadAttrStrategy struct{}

func (downloadAttrStrategy) FindAnchor(doc *goquery.Document) (string, bool) {
	href, ok := doc.Find("a[download]").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	return href, true
}

// anchorTextStrategy falls back to scanning anchor text for the known
// download phrase.
type anchorTextStrategy struct{}

func (anchorTextStrategy) FindAnchor(doc *goquery.Document) (string, bool) {
	href := ""
	doc.Find("a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), downloadPhrase) {
			return true
		}
		if h, ok := s.Attr("href"); ok && strings.TrimSpace(h) != "" {
			href = h
			return false
		}
		return true
	})
	return href, href != ""
}

// DetailResolver fetches a document's detail page and extracts the
// direct PDF URL. Resolution is total: every failure mode collapses to
// "no PDF available", logged but never propagated, so one bad document
// cannot abort a year's crawl.
type DetailResolver struct {
	fetcher    Fetcher
	base       *url.URL
	strategies []downloadAnchorStrategy
	logger     *zap.Logger
}

// NewDetailResolver constructs a resolver using the shared fetcher.
func NewDetailResolver(fetcher Fetcher, base *url.URL, logger *zap.Logger) *DetailResolver {
	return &DetailResolver{
		fetcher: fetcher,
		base:    base,
		strategies: []downloadAnchorStrategy{
			downloadAttrStrategy{},
			anchorTextStrategy{},
		},
		logger: logger,
	}
}

// Resolve returns the absolute PDF URL for a detail page, or false when
// the document has no retrievable PDF (withheld, redacted, or the page
// could not be fetched).
func (r *DetailResolver) Resolve(ctx context.Context, detailURL string) (string, bool) {
	page, err := r.fetcher.Fetch(ctx, detailURL)
	if err != nil {
		r.logger.Warn("Detail page fetch failed",
			zap.String("url", detailURL),
			zap.Error(err),
		)
		return "", false
	}

	doc, err := NewDocument(page)
	if err != nil {
		r.logger.Warn("Detail page parse failed",
			zap.String("url", detailURL),
			zap.Error(err),
		)
		return "", false
	}

	for _, s := range r.strategies {
		if href, ok := s.FindAnchor(doc); ok {
			return resolveRef(r.base, href), true
		}
	}
	return "", false
}
