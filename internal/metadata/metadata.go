package metadata

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/clipcast-hq/clipcast-archiver/internal/domain"
	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
	"github.com/clipcast-hq/clipcast-archiver/pkg/httpclient"
)

const maxHTMLBodyBytes = 1 << 20 // 1 MiB

// dateLayouts are tried in order against scraped date strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Fetcher retrieves per-episode descriptive metadata from the episode page.
type Fetcher struct {
	client httpclient.Client
	log    logger.Logger
}

// NewFetcher constructs a metadata fetcher.
func NewFetcher(client httpclient.Client, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Fetcher{client: client, log: log}
}

// Fetch returns whatever metadata the page yields. It never fails: any
// error degrades to an empty ArticleMeta logged as a warning, and the
// pipeline continues with defaults.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) domain.ArticleMeta {
	meta, err := f.fetchAndParse(ctx, pageURL)
	if err != nil {
		f.log.WarnObj("episode metadata fetch failed", "metadata_error", map[string]any{
			"page_url": pageURL,
			"error":    err.Error(),
		})
		return domain.ArticleMeta{}
	}
	return meta
}

func (f *Fetcher) fetchAndParse(ctx context.Context, pageURL string) (domain.ArticleMeta, error) {
	resp, err := f.client.Get(ctx, pageURL, nil)
	if err != nil {
		return domain.ArticleMeta{}, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return domain.ArticleMeta{}, fmt.Errorf("status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	return parseMeta(body)
}

func parseMeta(body []byte) (domain.ArticleMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return domain.ArticleMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	meta := domain.ArticleMeta{}
	meta.Title = firstNonEmpty(
		extract(`meta[property="og:title"]`),
		strings.TrimSpace(doc.Find("title").First().Text()),
	)
	meta.Description = firstNonEmpty(
		extract(`meta[property="og:description"]`),
		extract(`meta[name="description"]`),
	)

	raw := firstNonEmpty(
		extract(`meta[property="article:published_time"]`),
		strings.TrimSpace(doc.Find("time[datetime]").First().AttrOr("datetime", "")),
	)
	if raw != "" {
		if ts, ok := parseDate(raw); ok {
			meta.PublishedAt = ts
		}
	}

	return meta, nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
