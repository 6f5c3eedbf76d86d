package crawl

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestParseListingExtractsCardsInOrder(t *testing.T) {
	doc := mustDoc(t, `
		<html><body>
		<a class="document-listing-card" href="/documents/alpha">
			<div class="is-size-4">Alpha Memo</div>
			<span>Document Date: January 5, 2013</span>
		</a>
		<a class="document-listing-card" href="https://example.org/documents/beta">
			<div class="is-size-4">Beta Report</div>
			<span>Document Date: March 9, 2013</span>
		</a>
		</body></html>`)

	entries := ParseListing(doc, mustURL(t, "https://example.org"))
	require.Len(t, entries, 2)

	require.Equal(t, "https://example.org/documents/alpha", entries[0].DetailURL)
	require.Equal(t, "Alpha Memo", entries[0].Title)
	require.Equal(t, "January 5, 2013", entries[0].DocDate)

	require.Equal(t, "https://example.org/documents/beta", entries[1].DetailURL)
	require.Equal(t, "Beta Report", entries[1].Title)
	require.Equal(t, "March 9, 2013", entries[1].DocDate)
}

func TestParseListingFallbackSentinels(t *testing.T) {
	doc := mustDoc(t, `
		<a class="document-listing-card" href="/documents/bare"></a>`)

	entries := ParseListing(doc, mustURL(t, "https://example.org"))
	require.Len(t, entries, 1)
	require.Equal(t, UnknownTitle, entries[0].Title)
	require.Equal(t, UnknownDate, entries[0].DocDate)
}

func TestParseListingSkipsCardsWithoutHref(t *testing.T) {
	doc := mustDoc(t, `
		<a class="document-listing-card"><div class="is-size-4">No Link</div></a>
		<a class="document-listing-card" href=""><div class="is-size-4">Empty Link</div></a>`)

	require.Empty(t, ParseListing(doc, mustURL(t, "https://example.org")))
}

func TestParseListingEmptyPage(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>No results.</p></body></html>`)
	require.Empty(t, ParseListing(doc, mustURL(t, "https://example.org")))
}

func TestCardDatePrefersDeepestLabeledElement(t *testing.T) {
	doc := mustDoc(t, `
		<a class="document-listing-card" href="/d">
			<div class="meta">
				<span>Document Date: June 1, 2014</span>
			</div>
		</a>`)

	entries := ParseListing(doc, mustURL(t, "https://example.org"))
	require.Len(t, entries, 1)
	require.Equal(t, "June 1, 2014", entries[0].DocDate)
}
