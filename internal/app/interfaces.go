package app

import (
	"context"

	"github.com/clipcast-hq/clipcast-archiver/internal/acquire"
	"github.com/clipcast-hq/clipcast-archiver/internal/domain"
	"github.com/clipcast-hq/clipcast-archiver/pkg/publishers"
)

// EpisodeDiscoverer extracts episode references from a rendered listing page.
type EpisodeDiscoverer interface {
	Discover(renderedHTML, listingURL string) []domain.EpisodeRef
}

// MediaResolver locates the playable media URL behind an episode page.
// An empty result means no playable media was found.
type MediaResolver interface {
	Resolve(ctx context.Context, pageHTML, pageURL string) string
}

// EpisodeAcquirer drives the download-and-transcode steps for one episode.
type EpisodeAcquirer interface {
	Acquire(ctx context.Context, mediaURL, videoPath, audioPath string) (acquire.Step, error)
}

// MetaFetcher collects descriptive metadata from an episode page.
type MetaFetcher interface {
	Fetch(ctx context.Context, pageURL string) domain.ArticleMeta
}

// AudioTagger stamps metadata frames onto a finished audio artifact.
type AudioTagger interface {
	Tag(audioPath string, meta domain.ArticleMeta) bool
}

// EventPublisher announces acquired episodes downstream.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}
