package resolver

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
	"github.com/clipcast-hq/clipcast-archiver/internal/renderer"
)

// Resolver turns an episode page into a direct media URL through an
// ordered strategy cascade. Cheap static parses run first; the rendered
// fallback spins up a browser and is reached only when everything else
// misses. Resolve never fails: a total miss is an empty string and the
// caller skips the episode.
type Resolver struct {
	renderer renderer.Renderer
	log      logger.Logger
}

// New builds a resolver. renderer may be nil, which disables the rendered
// fallback (used in tests and render-less deployments).
func New(r renderer.Renderer, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Resolver{renderer: r, log: log}
}

// Resolve runs the cascade over the already fetched page HTML. The first
// strategy to produce a URL wins.
func (r *Resolver) Resolve(ctx context.Context, pageHTML, pageURL string) string {
	p := newPageView(pageHTML, pageURL)
	if p == nil {
		return r.renderedFallback(ctx, pageURL)
	}

	for _, s := range staticStrategies {
		if mediaURL := s.fn(p); mediaURL != "" {
			r.log.DebugObj("media url resolved", "resolution", map[string]any{
				"page_url": pageURL,
				"strategy": s.name,
			})
			return mediaURL
		}
	}

	return r.renderedFallback(ctx, pageURL)
}

// renderedFallback renders the page while observing network traffic. A
// DOM-derived source wins over the first captured media response.
func (r *Resolver) renderedFallback(ctx context.Context, pageURL string) string {
	if r.renderer == nil {
		return ""
	}

	rendered, err := r.renderer.Render(ctx, pageURL, "video")
	if err != nil {
		r.log.WarnObj("rendered fallback failed", "resolution_error", map[string]any{
			"page_url": pageURL,
			"error":    err.Error(),
		})
		return ""
	}

	if domURL := fromRenderedDOM(rendered.HTML, pageURL); domURL != "" {
		r.log.DebugObj("media url resolved", "resolution", map[string]any{
			"page_url": pageURL,
			"strategy": "rendered_dom",
		})
		return domURL
	}

	for _, resp := range rendered.Responses {
		if resp.Status >= 200 && resp.Status < 300 && hasMediaExtension(resp.URL) {
			r.log.DebugObj("media url resolved", "resolution", map[string]any{
				"page_url": pageURL,
				"strategy": "rendered_network",
			})
			return resp.URL
		}
	}

	return ""
}

// fromRenderedDOM inspects the live DOM for a video/source element or a
// same-origin iframe pointing at media.
func fromRenderedDOM(html, pageURL string) string {
	p := newPageView(html, pageURL)
	if p == nil {
		return ""
	}

	if src := fromVideoMarkup(p); src != "" {
		return src
	}

	var found string
	p.doc.Find("iframe[src]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if !hasMediaExtension(src) {
			return true
		}
		abs := p.absolute(src)
		if u, err := url.Parse(abs); err == nil && p.base != nil && strings.EqualFold(u.Host, p.base.Host) {
			found = abs
			return false
		}
		return true
	})
	return found
}

func newPageView(pageHTML, pageURL string) *pageView {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}
	return &pageView{doc: doc, base: base}
}
