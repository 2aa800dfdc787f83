package resolver

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// mediaExtensions are the file/manifest suffixes accepted as direct media.
var mediaExtensions = []string{".mp4", ".m4v", ".mov", ".m3u8"}

// dataAttributes is the fixed probe order for strategy 4.
var dataAttributes = []string{"data-video-src", "data-stream-url", "data-mp4", "data-src"}

const contentVarName = "__INITIAL_CONTENT__"

var (
	contentBlobRe = regexp.MustCompile(`(?s)window\.` + contentVarName + `\s*=\s*(\{.*?\})\s*;`)
	absoluteRe    = regexp.MustCompile(`https?://[^\s"'<>\\]+\.(?:mp4|m4v|mov|m3u8)(?:\?[^\s"'<>\\]*)?`)
	keyedURLRe    = regexp.MustCompile(`"url"\s*:\s*"([^"]+\.(?:mp4|m4v|mov|m3u8)(?:\?[^"]*)?)"`)
)

// pageView is the parsed representation every strategy works against.
type pageView struct {
	doc  *goquery.Document
	base *url.URL
}

// strategy inspects the page and returns a media URL or "" for a miss.
type strategy struct {
	name string
	fn   func(p *pageView) string
}

var staticStrategies = []strategy{
	{name: "content_blob", fn: fromContentBlob},
	{name: "video_markup", fn: fromVideoMarkup},
	{name: "inline_scripts", fn: fromInlineScripts},
	{name: "data_attributes", fn: fromDataAttributes},
}

// contentPayload mirrors the site's inlined player metadata blob.
type contentPayload struct {
	Streams []contentStream `json:"streams"`
}

type contentStream struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// fromContentBlob parses the JSON assigned to the global content variable
// and picks a progressive stream, falling back to a segmented one.
// Malformed JSON is a miss, never an error.
func fromContentBlob(p *pageView) string {
	var found string
	p.doc.Find("script").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		m := contentBlobRe.FindStringSubmatch(s.Text())
		if m == nil {
			return true
		}
		var payload contentPayload
		if err := json.Unmarshal([]byte(m[1]), &payload); err != nil {
			return true
		}
		if u := pickStream(payload.Streams); u != "" {
			found = p.absolute(u)
			return false
		}
		return true
	})
	return found
}

func pickStream(streams []contentStream) string {
	var segmented string
	for _, s := range streams {
		if strings.TrimSpace(s.URL) == "" {
			continue
		}
		typ := strings.ToLower(s.Type)
		switch {
		case strings.Contains(typ, "mp4"):
			return s.URL
		case segmented == "" && (strings.Contains(typ, "mpegurl") || strings.Contains(typ, "hls")):
			segmented = s.URL
		}
	}
	return segmented
}

// fromVideoMarkup reads a <video> element's direct or nested <source> address.
func fromVideoMarkup(p *pageView) string {
	if src, ok := p.doc.Find("video[src]").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		return p.absolute(src)
	}
	if src, ok := p.doc.Find("video source[src]").First().Attr("src"); ok && strings.TrimSpace(src) != "" {
		return p.absolute(src)
	}
	return ""
}

// fromInlineScripts regex-scans concatenated inline script text for media URLs.
func fromInlineScripts(p *pageView) string {
	var sb strings.Builder
	p.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		sb.WriteString(s.Text())
		sb.WriteString("\n")
	})
	text := sb.String()

	if m := absoluteRe.FindString(text); m != "" {
		return m
	}
	if m := keyedURLRe.FindStringSubmatch(text); m != nil {
		return p.absolute(m[1])
	}
	return ""
}

// fromDataAttributes probes the fixed data-attribute list on any element.
func fromDataAttributes(p *pageView) string {
	for _, attr := range dataAttributes {
		var found string
		p.doc.Find("[" + attr + "]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if v, ok := s.Attr(attr); ok && hasMediaExtension(v) {
				found = p.absolute(v)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

// absolute resolves a possibly relative candidate against the page URL.
func (p *pageView) absolute(candidate string) string {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || p.base == nil {
		return candidate
	}
	ref, err := url.Parse(candidate)
	if err != nil {
		return candidate
	}
	return p.base.ResolveReference(ref).String()
}

// hasMediaExtension reports whether the URL path ends in a known media suffix.
func hasMediaExtension(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	path := raw
	if u, err := url.Parse(raw); err == nil && u.Path != "" {
		path = u.Path
	} else {
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
	}
	path = strings.ToLower(path)
	for _, ext := range mediaExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}
