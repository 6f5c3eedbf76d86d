// Package crawl implements the listing crawler: fetching paginated
// search results, resolving each document to its direct PDF link, and
// persisting records through a RecordStore.
package crawl

import (
	"context"
	"fmt"
	"time"
)

// Page is the raw result of fetching a single URL.
type Page struct {
	URL         string
	FinalURL    string
	StatusCode  int
	ContentType string
	Body        []byte
}

// ListingEntry is one document card extracted from a listing page,
// in page order.
type ListingEntry struct {
	DetailURL string
	Title     string
	DocDate   string
}

// TerminationReason tags the outcome of processing one listing page.
// The year loop's continue/stop decision is a pure function of this tag.
type TerminationReason string

const (
	// ReasonAdvanced means a next page exists; the loop continues.
	ReasonAdvanced TerminationReason = "advanced"
	// ReasonFetchFailed means the listing page could not be fetched.
	ReasonFetchFailed TerminationReason = "fetch_failed"
	// ReasonEmptyPage means the page parsed to zero document cards.
	ReasonEmptyPage TerminationReason = "empty_page"
	// ReasonNoNextLink means pagination yielded no valid next page URL.
	ReasonNoNextLink TerminationReason = "no_next_link"
)

// PageOutcome is the tagged result of one PAGE_FETCH/PARSE/RESOLVE/PERSIST
// pass over a single listing page.
type PageOutcome struct {
	Reason TerminationReason
	Saved  int
}

// YearSummary reports what a single year's crawl produced.
type YearSummary struct {
	Year  int
	Pages int
	Saved int
}

// FetchError reports a transport or HTTP status failure for one page.
// Callers treat it as "stop paginating this year", never as fatal.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves a single page. Implementations must return a
// *FetchError for non-2xx statuses and transport failures.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// RecordStore persists one resolved document per call. It reports
// whether the page URL had already been recorded.
type RecordStore interface {
	Upsert(ctx context.Context, pageURL, documentDate, pdfURL string, year int) (duplicate bool, err error)
}

// Config holds the settings for a crawl run. It is decoupled from Viper
// so the engine can be constructed and tested independently.
type Config struct {
	BaseURL     string
	UserAgent   string
	Years       []int
	PageDelay   time.Duration
	DetailDelay time.Duration
	Timeout     time.Duration
}
