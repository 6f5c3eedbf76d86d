package crawl

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// Sentinels used when a listing card is missing the expected markup.
const (
	UnknownTitle = "Unknown Title"
	UnknownDate  = "Unknown Date"

	dateLabel = "Document Date:"
)

// NewDocument builds a goquery document from a fetched page, decoding
// the body to UTF-8 based on the response content type when possible.
func NewDocument(page Page) (*goquery.Document, error) {
	reader, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return goquery.NewDocumentFromReader(bytes.NewReader(page.Body))
	}
	return goquery.NewDocumentFromReader(reader)
}

// ParseListing extracts every document card from a listing page,
// preserving page order. An empty result means the page holds no
// documents, which is one of the two end-of-year conditions.
func ParseListing(doc *goquery.Document, base *url.URL) []ListingEntry {
	var entries []ListingEntry
	doc.Find("a.document-listing-card").Each(func(_ int, card *goquery.Selection) {
		href, ok := card.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		entries = append(entries, ListingEntry{
			DetailURL: resolveRef(base, href),
			Title:     cardTitle(card),
			DocDate:   cardDate(card),
		})
	})
	return entries
}

func cardTitle(card *goquery.Selection) string {
	title := strings.TrimSpace(card.Find("div.is-size-4").First().Text())
	if title == "" {
		return UnknownTitle
	}
	return title
}

// cardDate locates the innermost element carrying the date label and
// strips the label from its text. Document-order traversal means nested
// matches overwrite their ancestors, so the deepest match wins.
func cardDate(card *goquery.Selection) string {
	raw := ""
	card.Find("*").Each(func(_ int, s *goquery.Selection) {
		if strings.Contains(s.Text(), dateLabel) {
			raw = s.Text()
		}
	})
	if raw == "" && strings.Contains(card.Text(), dateLabel) {
		raw = card.Text()
	}
	if raw == "" {
		return UnknownDate
	}
	return strings.TrimSpace(strings.ReplaceAll(raw, dateLabel, ""))
}

// resolveRef resolves href against base, mirroring how a browser would
// follow the link. Unparseable hrefs are returned as-is.
func resolveRef(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
