package resolver

import (
	"context"
	"testing"

	"github.com/clipcast-hq/clipcast-archiver/internal/renderer"
)

const pageURL = "https://studio.example.tv/2026/03/14/weekly-reel-12/"

// fakeRenderer returns canned HTML and responses.
type fakeRenderer struct {
	page  *renderer.RenderedPage
	err   error
	calls int
}

func (f *fakeRenderer) Render(_ context.Context, _, _ string) (*renderer.RenderedPage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func TestContentBlobWinsOverMarkup(t *testing.T) {
	html := `
<html><head>
<script>
window.__INITIAL_CONTENT__ = {"streams":[
  {"type":"application/x-mpegURL","url":"https://cdn.example.tv/reel-12/master.m3u8"},
  {"type":"video/mp4","url":"https://cdn.example.tv/reel-12/progressive.mp4"}
]};
</script>
</head><body>
<video src="https://cdn.example.tv/markup-fallback.mp4"></video>
</body></html>`

	r := New(nil, nil)
	got := r.Resolve(context.Background(), html, pageURL)
	if got != "https://cdn.example.tv/reel-12/progressive.mp4" {
		t.Fatalf("expected content-blob progressive stream, got %q", got)
	}
}

func TestContentBlobAcceptsSegmentedWhenNoProgressive(t *testing.T) {
	html := `
<script>
window.__INITIAL_CONTENT__ = {"streams":[
  {"type":"application/x-mpegURL","url":"https://cdn.example.tv/reel/master.m3u8"}
]};
</script>`

	r := New(nil, nil)
	got := r.Resolve(context.Background(), html, pageURL)
	if got != "https://cdn.example.tv/reel/master.m3u8" {
		t.Fatalf("expected segmented stream, got %q", got)
	}
}

func TestMalformedContentBlobFallsThroughToMarkup(t *testing.T) {
	html := `
<script>window.__INITIAL_CONTENT__ = {"streams": [ {{ broken ;</script>
<video><source src="/media/reel-12.mp4" type="video/mp4"></video>`

	r := New(nil, nil)
	got := r.Resolve(context.Background(), html, pageURL)
	if got != "https://studio.example.tv/media/reel-12.mp4" {
		t.Fatalf("expected markup source resolved absolute, got %q", got)
	}
}

func TestInlineScriptScan(t *testing.T) {
	html := `
<script>var player = init("https://media.example.tv/clips/ep.m4v?sig=abc");</script>`

	r := New(nil, nil)
	got := r.Resolve(context.Background(), html, pageURL)
	if got != "https://media.example.tv/clips/ep.m4v?sig=abc" {
		t.Fatalf("script scan got %q", got)
	}
}

func TestInlineScriptKeyedURL(t *testing.T) {
	html := `
<script>var cfg = {"player": {"url": "/streams/ep-12.m3u8"}};</script>`

	r := New(nil, nil)
	got := r.Resolve(context.Background(), html, pageURL)
	if got != "https://studio.example.tv/streams/ep-12.m3u8" {
		t.Fatalf("keyed url scan got %q", got)
	}
}

func TestDataAttributeProbeHonorsOrder(t *testing.T) {
	html := `
<div data-src="https://cdn.example.tv/later.mp4"></div>
<div data-video-src="https://cdn.example.tv/first.mp4"></div>`

	r := New(nil, nil)
	got := r.Resolve(context.Background(), html, pageURL)
	if got != "https://cdn.example.tv/first.mp4" {
		t.Fatalf("expected data-video-src to win, got %q", got)
	}
}

func TestDataAttributeIgnoresNonMediaValues(t *testing.T) {
	html := `<img data-src="/images/thumb.jpg">`

	r := New(nil, nil)
	if got := r.Resolve(context.Background(), html, pageURL); got != "" {
		t.Fatalf("expected miss for non-media data attribute, got %q", got)
	}
}

func TestRenderedFallbackPrefersDOMOverNetwork(t *testing.T) {
	fake := &fakeRenderer{page: &renderer.RenderedPage{
		HTML: `<video src="https://cdn.example.tv/dom-derived.mp4"></video>`,
		Responses: []renderer.CapturedResponse{
			{URL: "https://cdn.example.tv/captured-first.mp4", Status: 200},
		},
	}}

	r := New(fake, nil)
	got := r.Resolve(context.Background(), "<html><body>nothing here</body></html>", pageURL)
	if got != "https://cdn.example.tv/dom-derived.mp4" {
		t.Fatalf("expected DOM result preferred, got %q", got)
	}
	if fake.calls != 1 {
		t.Fatalf("renderer calls = %d", fake.calls)
	}
}

func TestRenderedFallbackFirstNetworkMatchWins(t *testing.T) {
	fake := &fakeRenderer{page: &renderer.RenderedPage{
		HTML: `<div>no player markup</div>`,
		Responses: []renderer.CapturedResponse{
			{URL: "https://cdn.example.tv/analytics.js", Status: 200},
			{URL: "https://cdn.example.tv/broken.mp4", Status: 404},
			{URL: "https://cdn.example.tv/stream-a.m3u8", Status: 200},
			{URL: "https://cdn.example.tv/stream-b.m3u8", Status: 200},
		},
	}}

	r := New(fake, nil)
	got := r.Resolve(context.Background(), "<html></html>", pageURL)
	if got != "https://cdn.example.tv/stream-a.m3u8" {
		t.Fatalf("expected first successful captured match, got %q", got)
	}
}

func TestRenderedFallbackSameOriginIframe(t *testing.T) {
	fake := &fakeRenderer{page: &renderer.RenderedPage{
		HTML: `
<iframe src="https://evil.example.org/embed.mp4"></iframe>
<iframe src="/players/ep.mp4"></iframe>`,
	}}

	r := New(fake, nil)
	got := r.Resolve(context.Background(), "<html></html>", pageURL)
	if got != "https://studio.example.tv/players/ep.mp4" {
		t.Fatalf("expected same-origin iframe source, got %q", got)
	}
}

func TestTotalMissReturnsEmpty(t *testing.T) {
	fake := &fakeRenderer{page: &renderer.RenderedPage{HTML: "<p>empty</p>"}}

	r := New(fake, nil)
	if got := r.Resolve(context.Background(), "<p>static empty</p>", pageURL); got != "" {
		t.Fatalf("expected empty result on total miss, got %q", got)
	}
}

func TestRenderFailureDegradesToMiss(t *testing.T) {
	fake := &fakeRenderer{err: context.DeadlineExceeded}

	r := New(fake, nil)
	if got := r.Resolve(context.Background(), "<p></p>", pageURL); got != "" {
		t.Fatalf("expected miss when render fails, got %q", got)
	}
}

func TestStaticStrategiesSkipRendererWhenMatched(t *testing.T) {
	fake := &fakeRenderer{page: &renderer.RenderedPage{HTML: ""}}
	html := `<video src="/ep.mp4"></video>`

	r := New(fake, nil)
	if got := r.Resolve(context.Background(), html, pageURL); got == "" {
		t.Fatal("expected markup hit")
	}
	if fake.calls != 0 {
		t.Fatalf("renderer should not be consulted on static hit, calls = %d", fake.calls)
	}
}

func TestHasMediaExtension(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://cdn.example.tv/a.mp4", true},
		{"https://cdn.example.tv/a.MP4?sig=x", true},
		{"/relative/path/ep.m3u8", true},
		{"https://cdn.example.tv/a.jpg", false},
		{"", false},
	}
	for _, c := range cases {
		if got := hasMediaExtension(c.in); got != c.want {
			t.Fatalf("hasMediaExtension(%q) = %v", c.in, got)
		}
	}
}
