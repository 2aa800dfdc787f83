package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clipcast-hq/clipcast-archiver/internal/acquire"
	"github.com/clipcast-hq/clipcast-archiver/internal/catalog"
	"github.com/clipcast-hq/clipcast-archiver/internal/domain"
	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
	"github.com/clipcast-hq/clipcast-archiver/internal/renderer"
	"github.com/clipcast-hq/clipcast-archiver/internal/storage"
	"github.com/clipcast-hq/clipcast-archiver/pkg/httpclient"
	"github.com/clipcast-hq/clipcast-archiver/pkg/publishers"
)

// Pipeline runs one archive pass: render the listing, discover episodes,
// acquire the ones whose artifacts are missing, then publish the catalog,
// the feed, and downstream events.
type Pipeline struct {
	ListingURL   string
	WaitSelector string
	WorkDir      string
	AudioDir     string
	FeedPath     string

	Renderer   renderer.Renderer
	Discoverer EpisodeDiscoverer
	Fetcher    httpclient.Client
	Resolver   MediaResolver
	Store      storage.Store
	Acquirer   EpisodeAcquirer
	Meta       MetaFetcher
	Tagger     AudioTagger
	Catalog    *catalog.Publisher
	Feed       *catalog.FeedWriter
	Events     EventPublisher

	Log logger.Logger
}

// RunStats summarizes one archive pass.
type RunStats struct {
	Discovered int
	Skipped    int
	Acquired   int
	Failed     int
	Published  int
}

type episodeResult struct {
	entry    domain.CatalogEntry
	pageURL  string
	mediaURL string
}

// Run executes a single archive pass. Per-episode failures are logged and
// counted but do not abort the pass; only listing-level failures do.
func (p *Pipeline) Run(ctx context.Context) (RunStats, error) {
	var stats RunStats

	rendered, err := p.Renderer.Render(ctx, p.ListingURL, p.WaitSelector)
	if err != nil {
		return stats, fmt.Errorf("render listing %s: %w", p.ListingURL, err)
	}

	refs := p.Discoverer.Discover(rendered.HTML, p.ListingURL)
	stats.Discovered = len(refs)
	if len(refs) == 0 {
		p.log().WarnObj("no episodes discovered on listing", "listing_url", p.ListingURL)
		return stats, nil
	}

	// Creation failure is survivable: each episode fails on its own when
	// it tries to write, and the rest of the pass still runs.
	if err := os.MkdirAll(p.AudioDir, 0o755); err != nil {
		p.log().WarnObj("audio dir creation failed", "data_dir_error", err.Error())
	}

	var results []episodeResult
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		res, err := p.processEpisode(ctx, ref, &stats)
		if err != nil {
			stats.Failed++
			p.log().ErrorObj("episode acquisition failed", "episode_error", map[string]any{
				"page_url": ref.PageURL,
				"error":    err.Error(),
			})
			continue
		}
		if res != nil {
			stats.Acquired++
			results = append(results, *res)
		}
	}

	published, err := p.publish(ctx, results)
	if err != nil {
		return stats, err
	}
	stats.Published = published

	p.log().InfoObj("archive pass completed", "run_stats", stats)
	return stats, nil
}

// processEpisode runs the acquisition state machine for one episode. It
// returns nil when the episode is already fully archived.
func (p *Pipeline) processEpisode(ctx context.Context, ref domain.EpisodeRef, stats *RunStats) (*episodeResult, error) {
	base := acquire.BaseName(ref.PageURL)
	videoPath := filepath.Join(p.WorkDir, base+".mp4")
	audioPath := filepath.Join(p.AudioDir, base+".mp3")

	if acquire.Plan(videoPath, audioPath) == acquire.StepSkip {
		stats.Skipped++
		p.log().DebugObj("episode already archived", "episode_file", base+".mp3")
		return nil, nil
	}

	mediaURL, err := p.resolveMedia(ctx, ref.PageURL)
	if err != nil {
		return nil, err
	}
	if mediaURL == "" {
		return nil, fmt.Errorf("no playable media found for %s", ref.PageURL)
	}

	if _, err := p.Acquirer.Acquire(ctx, mediaURL, videoPath, audioPath); err != nil {
		return nil, err
	}

	meta := p.Meta.Fetch(ctx, ref.PageURL)
	if meta.Title == "" {
		meta.Title = ref.Title
	}
	p.Tagger.Tag(audioPath, meta)

	// The catalog needs a date for ordering; the tag frames stay dateless.
	publishedAt := meta.PublishedAt
	if !meta.HasPublishDate() {
		publishedAt = time.Now().UTC()
	}

	return &episodeResult{
		entry: domain.CatalogEntry{
			File:        base + ".mp3",
			Title:       meta.Title,
			Description: meta.Description,
			PublishedAt: publishedAt,
		},
		pageURL:  ref.PageURL,
		mediaURL: mediaURL,
	}, nil
}

// resolveMedia finds the media URL for an episode page, consulting the
// resolution cache before running the strategy cascade.
func (p *Pipeline) resolveMedia(ctx context.Context, pageURL string) (string, error) {
	if cached, ok, err := p.Store.ResolvedURL(pageURL); err != nil {
		p.log().WarnObj("resolution cache read failed", "cache_error", err.Error())
	} else if ok {
		p.log().DebugObj("resolution cache hit", "page_url", pageURL)
		return cached, nil
	}

	pageHTML := p.fetchPage(ctx, pageURL)
	mediaURL := p.Resolver.Resolve(ctx, pageHTML, pageURL)
	if mediaURL == "" {
		return "", nil
	}

	if err := p.Store.MarkResolved(pageURL, mediaURL); err != nil {
		p.log().WarnObj("resolution cache write failed", "cache_error", err.Error())
	}
	return mediaURL, nil
}

// fetchPage grabs the static HTML of an episode page. Fetch failures are
// tolerated: the resolver falls back to rendering an empty document.
func (p *Pipeline) fetchPage(ctx context.Context, pageURL string) string {
	resp, err := p.Fetcher.Get(ctx, pageURL, nil)
	if err != nil {
		p.log().WarnObj("episode page fetch failed", "fetch_error", map[string]any{
			"page_url": pageURL,
			"error":    err.Error(),
		})
		return ""
	}
	if resp.StatusCode() != 200 {
		p.log().WarnObj("episode page fetch returned non-200", "fetch_error", map[string]any{
			"page_url": pageURL,
			"status":   resp.StatusCode(),
		})
		return ""
	}
	return string(resp.Body())
}

// publish merges fresh entries into the catalog, rewrites the feed, and
// fans out an event per newly cataloged episode.
func (p *Pipeline) publish(ctx context.Context, results []episodeResult) (int, error) {
	doc, err := p.Catalog.Load()
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	entries := make([]domain.CatalogEntry, 0, len(results))
	byFile := make(map[string]episodeResult, len(results))
	for _, res := range results {
		entries = append(entries, res.entry)
		byFile[res.entry.File] = res
	}

	added := catalog.Merge(doc, entries)
	if err := p.Catalog.Save(doc); err != nil {
		return 0, fmt.Errorf("save catalog: %w", err)
	}

	if err := p.Feed.Write(doc, p.FeedPath); err != nil {
		return 0, fmt.Errorf("write feed: %w", err)
	}

	if p.Events == nil {
		return 0, nil
	}
	published := 0
	for _, entry := range added {
		res := byFile[entry.File]
		evt := publishers.NewEvent(entry, res.pageURL, res.mediaURL)
		n, err := p.Events.Publish(ctx, evt)
		if err != nil {
			p.log().ErrorObj("event publish failed", "publish_error", map[string]any{
				"episode_file": entry.File,
				"error":        err.Error(),
			})
		}
		if n > 0 {
			published++
		}
	}
	return published, nil
}

func (p *Pipeline) log() logger.Logger {
	if p.Log == nil {
		return logger.NopLogger{}
	}
	return p.Log
}
