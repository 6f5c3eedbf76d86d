package crawl

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// pageMarker must appear in any candidate next-page URL; a candidate
// without it terminates the year.
const pageMarker = "page/"

var trailingPageSegment = regexp.MustCompile(`/page/\d+$`)

// nextPageStrategy proposes the URL of the following listing page.
// Strategies are tried in fixed order; the first hit wins.
type nextPageStrategy interface {
	NextPage(doc *goquery.Document, currentURL string) (string, bool)
}

// PaginationResolver determines the next listing page URL, or signals
// end-of-year. The site's pagination control is not always present and
// its markup for the active page is inconsistent, hence the two-tier
// strategy.
type PaginationResolver struct {
	strategies []nextPageStrategy
}

// NewPaginationResolver builds a resolver that prefers the explicit
// "next" navigation link and falls back to synthesizing a URL from the
// active page number.
func NewPaginationResolver(base *url.URL) *PaginationResolver {
	return &PaginationResolver{
		strategies: []nextPageStrategy{
			&navLinkStrategy{base: base},
			&synthesizeStrategy{},
		},
	}
}

// Next returns the next page URL when one exists. A candidate missing
// the page-path marker is rejected, which ends the year.
func (r *PaginationResolver) Next(doc *goquery.Document, currentURL string) (string, bool) {
	for _, s := range r.strategies {
		if next, ok := s.NextPage(doc, currentURL); ok {
			if !strings.Contains(next, pageMarker) {
				return "", false
			}
			return next, true
		}
	}
	return "", false
}

// navLinkStrategy reads the explicit next link out of the page-number
// navigation region.
type navLinkStrategy struct {
	base *url.URL
}

func (s *navLinkStrategy) NextPage(doc *goquery.Document, _ string) (string, bool) {
	nav := doc.Find("nav.page-numbers").First()
	if nav.Length() == 0 {
		return "", false
	}
	href, ok := nav.Find("a.next").First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	return resolveRef(s.base, href), true
}

// synthesizeStrategy scans the page-number elements for the active page
// and rewrites the current URL path to point at the following page,
// keeping query parameters and fragment verbatim.
type synthesizeStrategy struct{}

func (s *synthesizeStrategy) NextPage(doc *goquery.Document, currentURL string) (string, bool) {
	current, found := activePageNumber(doc)
	if !found {
		return "", false
	}
	u, err := url.Parse(currentURL)
	if err != nil {
		return "", false
	}

	path := strings.TrimRight(u.Path, "/")
	path = trailingPageSegment.ReplaceAllString(path, "")

	var b strings.Builder
	b.WriteString(u.Scheme)
	b.WriteString("://")
	b.WriteString(u.Host)
	b.WriteString(path)
	b.WriteString("/page/")
	b.WriteString(strconv.Itoa(current + 1))
	if u.RawQuery != "" {
		b.WriteString("?")
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteString("#")
		b.WriteString(u.Fragment)
	}
	return b.String(), true
}

// activePageNumber finds the currently selected page number. Anchors
// carrying a "current" class and bare spans both mark the active page,
// depending on which variant of the markup the site serves.
func activePageNumber(doc *goquery.Document) (int, bool) {
	current := 0
	found := false
	doc.Find("a.page-numbers, span.page-numbers").Each(func(_ int, s *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(s.Text()))
		if err != nil {
			return
		}
		class, _ := s.Attr("class")
		if s.Is("span") || hasClass(class, "current") {
			current = n
			found = true
		}
	})
	return current, found
}

func hasClass(classAttr, name string) bool {
	for _, c := range strings.Fields(classAttr) {
		if c == name {
			return true
		}
	}
	return false
}
