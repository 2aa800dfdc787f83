package catalog

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
	"time"
)

// FeedMeta carries configured feed-level overrides; empty fields fall
// back to the catalog document's own metadata.
type FeedMeta struct {
	Title       string
	Author      string
	Description string
	Language    string
	Copyright   string
	ImageURL    string
}

// FeedWriter renders the catalog into an RSS 2.0 syndication document.
type FeedWriter struct {
	// BaseURL prefixes enclosure links; when empty, enclosures stay
	// relative.
	BaseURL string
	// AudioDirName is the artifact subdirectory within the data dir,
	// mirrored in enclosure paths.
	AudioDirName string
	Meta         FeedMeta
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link,omitempty"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Copyright   string    `xml:"copyright,omitempty"`
	Author      string    `xml:"author,omitempty"`
	Image       *rssImage `xml:"image,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssImage struct {
	URL   string `xml:"url"`
	Title string `xml:"title,omitempty"`
	Link  string `xml:"link,omitempty"`
}

type rssItem struct {
	Title       string       `xml:"title"`
	Description string       `xml:"description,omitempty"`
	GUID        string       `xml:"guid"`
	PubDate     string       `xml:"pubDate,omitempty"`
	Enclosure   rssEnclosure `xml:"enclosure"`
}

type rssEnclosure struct {
	URL  string `xml:"url,attr"`
	Type string `xml:"type,attr"`
}

// Write renders the document's episodes into an RSS file at path.
func (w *FeedWriter) Write(doc *Document, path string) error {
	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       firstNonEmptyString(w.Meta.Title, doc.Title),
			Link:        doc.Link,
			Description: firstNonEmptyString(w.Meta.Description, doc.Description),
			Language:    firstNonEmptyString(w.Meta.Language, doc.Language),
			Copyright:   firstNonEmptyString(w.Meta.Copyright, doc.Copyright),
			Author:      firstNonEmptyString(w.Meta.Author, doc.Author),
		},
	}
	if img := firstNonEmptyString(w.Meta.ImageURL, doc.ImageURL); img != "" {
		feed.Channel.Image = &rssImage{URL: img, Title: feed.Channel.Title, Link: doc.Link}
	}

	for _, e := range doc.Episodes {
		item := rssItem{
			Title:       e.Title,
			Description: e.Description,
			GUID:        e.File,
			Enclosure: rssEnclosure{
				URL:  w.enclosureURL(e.File),
				Type: "audio/mpeg",
			},
		}
		if !e.PublishedAt.IsZero() {
			item.PubDate = e.PublishedAt.Format(time.RFC1123Z)
		}
		feed.Channel.Items = append(feed.Channel.Items, item)
	}

	raw, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	out := append([]byte(xml.Header), raw...)
	out = append(out, '\n')
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}

// enclosureURL joins the configured base URL with the artifact's relative
// path. Without a base URL the enclosure stays relative.
func (w *FeedWriter) enclosureURL(file string) string {
	rel := file
	if w.AudioDirName != "" {
		rel = w.AudioDirName + "/" + file
	}
	base := strings.TrimSuffix(w.BaseURL, "/")
	if base == "" {
		return rel
	}
	return base + "/" + rel
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
