package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/clipcast-hq/clipcast-archiver/internal/acquire"
	"github.com/clipcast-hq/clipcast-archiver/internal/catalog"
	"github.com/clipcast-hq/clipcast-archiver/internal/discovery"
	"github.com/clipcast-hq/clipcast-archiver/internal/domain"
	"github.com/clipcast-hq/clipcast-archiver/internal/renderer"
	"github.com/clipcast-hq/clipcast-archiver/pkg/httpclient"
	"github.com/clipcast-hq/clipcast-archiver/pkg/publishers"
)

const listingHTML = `<html><body>
<article><h2><a href="/2024/05/03/season-opener/">Season Opener</a></h2></article>
<article><h2><a href="/2024/05/10/deep-dive/">Deep Dive</a></h2></article>
</body></html>`

type fakeListingRenderer struct {
	html  string
	err   error
	calls int
}

func (f *fakeListingRenderer) Render(_ context.Context, _, _ string) (*renderer.RenderedPage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &renderer.RenderedPage{HTML: f.html}, nil
}

type stubResponse struct {
	body []byte
	code int
}

func (s stubResponse) Body() []byte    { return s.body }
func (s stubResponse) StatusCode() int { return s.code }

type fakePageClient struct{}

func (fakePageClient) Get(context.Context, string, map[string]string) (httpclient.Response, error) {
	return stubResponse{body: []byte("<html></html>"), code: 200}, nil
}

type fakeMediaResolver struct {
	urls  map[string]string
	calls int
}

func (f *fakeMediaResolver) Resolve(_ context.Context, _, pageURL string) string {
	f.calls++
	return f.urls[pageURL]
}

type memStore struct {
	resolved map[string]string
}

func newMemStore() *memStore { return &memStore{resolved: make(map[string]string)} }

func (m *memStore) Close() error { return nil }

func (m *memStore) ResolvedURL(pageURL string) (string, bool, error) {
	url, ok := m.resolved[pageURL]
	return url, ok, nil
}

func (m *memStore) MarkResolved(pageURL, mediaURL string) error {
	m.resolved[pageURL] = mediaURL
	return nil
}

// fakeAcquirer materializes the audio artifact so a later pass sees the
// episode as archived.
type fakeAcquirer struct {
	calls int
	err   error
}

func (f *fakeAcquirer) Acquire(_ context.Context, _, _, audioPath string) (acquire.Step, error) {
	f.calls++
	if f.err != nil {
		return acquire.StepDownload, f.err
	}
	if err := os.WriteFile(audioPath, []byte("mp3"), 0o644); err != nil {
		return acquire.StepDownload, err
	}
	return acquire.StepDownload, nil
}

type fakeMetaFetcher struct {
	byURL map[string]domain.ArticleMeta
}

func (f *fakeMetaFetcher) Fetch(_ context.Context, pageURL string) domain.ArticleMeta {
	return f.byURL[pageURL]
}

type fakeTagger struct {
	tagged []string
}

func (f *fakeTagger) Tag(audioPath string, _ domain.ArticleMeta) bool {
	f.tagged = append(f.tagged, audioPath)
	return true
}

type fakeEvents struct {
	events []publishers.Event
}

func (f *fakeEvents) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.events = append(f.events, evt)
	return 1, nil
}

func newTestPipeline(t *testing.T, dir string) (*Pipeline, *fakeAcquirer, *fakeMediaResolver, *fakeEvents) {
	t.Helper()

	resolver := &fakeMediaResolver{urls: map[string]string{
		"https://shows.example.com/2024/05/03/season-opener/": "https://cdn.example.com/opener.mp4",
		"https://shows.example.com/2024/05/10/deep-dive/":     "https://cdn.example.com/dive.mp4",
	}}
	acquirer := &fakeAcquirer{}
	events := &fakeEvents{}

	meta := &fakeMetaFetcher{byURL: map[string]domain.ArticleMeta{
		"https://shows.example.com/2024/05/03/season-opener/": {
			Title:       "Season Opener",
			Description: "The season begins.",
			PublishedAt: time.Date(2024, 5, 3, 9, 0, 0, 0, time.UTC),
		},
		"https://shows.example.com/2024/05/10/deep-dive/": {
			Title:       "Deep Dive",
			Description: "A closer look.",
			PublishedAt: time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC),
		},
	}}

	p := &Pipeline{
		ListingURL:   "https://shows.example.com/",
		WaitSelector: "article a",
		WorkDir:      dir,
		AudioDir:     filepath.Join(dir, "audio"),
		FeedPath:     filepath.Join(dir, "feed.xml"),

		Renderer:   &fakeListingRenderer{html: listingHTML},
		Discoverer: discovery.New(nil),
		Fetcher:    fakePageClient{},
		Resolver:   resolver,
		Store:      newMemStore(),
		Acquirer:   acquirer,
		Meta:       meta,
		Tagger:     &fakeTagger{},
		Catalog:    catalog.NewPublisher(filepath.Join(dir, "catalog.yaml"), "", nil),
		Feed:       &catalog.FeedWriter{AudioDirName: "audio"},
		Events:     events,
	}
	return p, acquirer, resolver, events
}

func TestPipelineRunArchivesDiscoveredEpisodes(t *testing.T) {
	dir := t.TempDir()
	p, acquirer, _, events := newTestPipeline(t, dir)

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Discovered != 2 || stats.Acquired != 2 || stats.Failed != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if acquirer.calls != 2 {
		t.Fatalf("acquirer calls = %d", acquirer.calls)
	}
	if len(events.events) != 2 {
		t.Fatalf("published events = %d", len(events.events))
	}

	doc, err := p.Catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(doc.Episodes) != 2 {
		t.Fatalf("catalog episodes = %d", len(doc.Episodes))
	}
	if doc.Episodes[0].Ordinal != 1 || doc.Episodes[1].Ordinal != 2 {
		t.Fatalf("ordinals = %d, %d", doc.Episodes[0].Ordinal, doc.Episodes[1].Ordinal)
	}
	if doc.Episodes[0].File != "2024-05-03-season-opener.mp3" {
		t.Fatalf("first episode file = %s", doc.Episodes[0].File)
	}

	if _, err := os.Stat(filepath.Join(dir, "feed.xml")); err != nil {
		t.Fatalf("feed not written: %v", err)
	}
}

func TestPipelineSecondRunIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	p, acquirer, resolver, events := newTestPipeline(t, dir)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	firstResolves := resolver.calls

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Skipped != 2 || stats.Acquired != 0 {
		t.Fatalf("second run stats = %+v", stats)
	}
	if acquirer.calls != 2 {
		t.Fatalf("acquirer re-ran: calls = %d", acquirer.calls)
	}
	if resolver.calls != firstResolves {
		t.Fatalf("resolver re-ran for archived episodes")
	}
	if len(events.events) != 2 {
		t.Fatalf("duplicate events published: %d", len(events.events))
	}

	doc, err := p.Catalog.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	if len(doc.Episodes) != 2 {
		t.Fatalf("catalog grew on second run: %d episodes", len(doc.Episodes))
	}
}

func TestPipelineCountsResolutionMissAsFailure(t *testing.T) {
	dir := t.TempDir()
	p, acquirer, resolver, _ := newTestPipeline(t, dir)
	delete(resolver.urls, "https://shows.example.com/2024/05/10/deep-dive/")

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Acquired != 1 || stats.Failed != 1 {
		t.Fatalf("stats = %+v", stats)
	}
	if acquirer.calls != 1 {
		t.Fatalf("acquirer calls = %d", acquirer.calls)
	}
}

func TestPipelineResumesFailedEpisodeNextRun(t *testing.T) {
	dir := t.TempDir()
	p, acquirer, _, _ := newTestPipeline(t, dir)
	acquirer.err = errors.New("network dropped")

	stats, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if stats.Failed != 2 {
		t.Fatalf("first run stats = %+v", stats)
	}

	acquirer.err = nil
	stats, err = p.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if stats.Acquired != 2 || stats.Failed != 0 {
		t.Fatalf("second run stats = %+v", stats)
	}
}

func TestPipelineRenderFailureAbortsPass(t *testing.T) {
	dir := t.TempDir()
	p, _, _, _ := newTestPipeline(t, dir)
	p.Renderer = &fakeListingRenderer{err: errors.New("browser crashed")}

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatalf("expected error when listing render fails")
	}
}

func TestPipelineUsesResolutionCache(t *testing.T) {
	dir := t.TempDir()
	p, _, resolver, _ := newTestPipeline(t, dir)
	store := newMemStore()
	store.resolved["https://shows.example.com/2024/05/03/season-opener/"] = "https://cdn.example.com/cached.mp4"
	p.Store = store

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Only the uncached episode hits the strategy cascade.
	if resolver.calls != 1 {
		t.Fatalf("resolver calls = %d", resolver.calls)
	}
	if _, ok := store.resolved["https://shows.example.com/2024/05/10/deep-dive/"]; !ok {
		t.Fatalf("fresh resolution was not cached")
	}
}
