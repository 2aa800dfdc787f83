package discovery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/clipcast-hq/clipcast-archiver/internal/domain"
	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
)

// Package discovery extracts episode (title, URL) pairs from the rendered
// listing page.

const defaultEpisodeTitle = "Untitled episode"

// cardSelector matches the structured containers episode teasers live in.
const cardSelector = "article, .card, .post, li.entry"

// articlePathRe is the site's date-stamped article path shape.
var articlePathRe = regexp.MustCompile(`^/\d{4}/\d{2}/\d{2}/[a-z0-9][a-z0-9-]*/?$`)

// nonArticlePrefixes are path prefixes sharing the host but never episodes.
var nonArticlePrefixes = []string{"/tag/", "/category/", "/author/", "/page/"}

// Discoverer scans rendered listing HTML for episode references.
type Discoverer struct {
	log logger.Logger
}

// New builds a discoverer.
func New(log logger.Logger) *Discoverer {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Discoverer{log: log}
}

// Discover returns distinct episode refs in first-seen document order,
// de-duplicated by normalized URL. The card-scoped scan runs first; the
// page-wide anchor scan only kicks in when it finds nothing, guarding
// against listing-markup drift.
func (d *Discoverer) Discover(renderedHTML, listingURL string) []domain.EpisodeRef {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(renderedHTML))
	if err != nil {
		d.log.WarnObj("listing parse failed", "discovery_error", map[string]any{
			"listing_url": listingURL,
			"error":       err.Error(),
		})
		return nil
	}

	base, err := url.Parse(listingURL)
	if err != nil {
		base = nil
	}
	listingKey := normalizeURL(listingURL)

	refs := d.scanCards(doc, base, listingKey)
	if len(refs) == 0 {
		d.log.WarnObj("card scan found no episodes, falling back to page-wide anchors", "discovery_fallback", listingURL)
		refs = d.scanAllAnchors(doc, base, listingKey)
	}
	return refs
}

func (d *Discoverer) scanCards(doc *goquery.Document, base *url.URL, listingKey string) []domain.EpisodeRef {
	var refs []domain.EpisodeRef
	seen := make(map[string]struct{})

	doc.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		anchor := card.Find("a[href]").First()
		if anchor.Length() == 0 {
			return
		}
		href, _ := anchor.Attr("href")
		pageURL, ok := validateEpisodeHref(href, base, listingKey)
		if !ok {
			return
		}
		key := normalizeURL(pageURL)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		title := strings.TrimSpace(card.Find("h1, h2, h3, h4").First().Text())
		if title == "" {
			title = strings.TrimSpace(anchor.Text())
		}
		if title == "" {
			title = defaultEpisodeTitle
		}

		refs = append(refs, domain.EpisodeRef{Title: title, PageURL: pageURL})
	})
	return refs
}

func (d *Discoverer) scanAllAnchors(doc *goquery.Document, base *url.URL, listingKey string) []domain.EpisodeRef {
	var refs []domain.EpisodeRef
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		pageURL, ok := validateEpisodeHref(href, base, listingKey)
		if !ok {
			return
		}
		key := normalizeURL(pageURL)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}

		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			title = defaultEpisodeTitle
		}
		refs = append(refs, domain.EpisodeRef{Title: title, PageURL: pageURL})
	})
	return refs
}

// validateEpisodeHref resolves the href and checks it against the article
// path shape and the exclusion rules.
func validateEpisodeHref(href string, base *url.URL, listingKey string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if !abs.IsAbs() || (abs.Scheme != "http" && abs.Scheme != "https") {
		return "", false
	}

	path := abs.Path
	for _, prefix := range nonArticlePrefixes {
		if strings.HasPrefix(path, prefix) {
			return "", false
		}
	}
	if !articlePathRe.MatchString(path) {
		return "", false
	}

	pageURL := abs.String()
	if normalizeURL(pageURL) == listingKey {
		return "", false
	}
	return pageURL, true
}

// normalizeURL produces the comparison key for URL identity: lowercase
// scheme/host, no fragment, trailing slash insensitive.
func normalizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimSuffix(u.Path, "/")
	return u.String()
}
