package discovery

import (
	"testing"
)

const listingURL = "https://studio.example.tv/shows/weekly-reel/"

func TestDiscoverCardScan(t *testing.T) {
	html := `
<main>
  <article>
    <h2>Reel 12: The Long Take</h2>
    <a href="/2026/03/14/weekly-reel-12/">Watch</a>
  </article>
  <article>
    <a href="/2026/03/07/weekly-reel-11/">Reel 11 teaser</a>
  </article>
  <div class="promo">
    <a href="/2026/03/14/weekly-reel-12/">Repeated promo link outside cards</a>
  </div>
</main>`

	refs := New(nil).Discover(html, listingURL)
	if len(refs) != 2 {
		t.Fatalf("expected 2 refs, got %d: %#v", len(refs), refs)
	}
	if refs[0].Title != "Reel 12: The Long Take" {
		t.Fatalf("heading title not used: %q", refs[0].Title)
	}
	if refs[0].PageURL != "https://studio.example.tv/2026/03/14/weekly-reel-12/" {
		t.Fatalf("first url = %q", refs[0].PageURL)
	}
	if refs[1].Title != "Reel 11 teaser" {
		t.Fatalf("anchor-text fallback title not used: %q", refs[1].Title)
	}
}

func TestDiscoverDeduplicatesByNormalizedURL(t *testing.T) {
	html := `
<article><a href="https://studio.example.tv/2026/03/14/weekly-reel-12/">A</a></article>
<article><a href="/2026/03/14/weekly-reel-12">B (no trailing slash)</a></article>`

	refs := New(nil).Discover(html, listingURL)
	if len(refs) != 1 {
		t.Fatalf("expected dedupe to 1 ref, got %d", len(refs))
	}
	if refs[0].Title != "A" {
		t.Fatalf("first-seen ref should win, got %q", refs[0].Title)
	}
}

func TestDiscoverExcludesNonArticlePaths(t *testing.T) {
	html := `
<article><a href="/tag/2026/03/14/not-an-episode/">Tag page</a></article>
<article><a href="/shows/weekly-reel/">The listing itself</a></article>
<article><a href="/about">About</a></article>
<article><a href="/2026/03/14/real-episode/">Real</a></article>`

	refs := New(nil).Discover(html, listingURL)
	if len(refs) != 1 || refs[0].PageURL != "https://studio.example.tv/2026/03/14/real-episode/" {
		t.Fatalf("expected only the real episode, got %#v", refs)
	}
}

func TestDiscoverFallbackActivatesOnlyOnZeroPrimary(t *testing.T) {
	html := `
<nav>
  <a href="/2026/03/14/weekly-reel-12/">Reel 12</a>
  <a href="/2026/03/07/weekly-reel-11/">Reel 11</a>
</nav>`

	refs := New(nil).Discover(html, listingURL)
	if len(refs) != 2 {
		t.Fatalf("page-wide fallback should find 2 refs, got %d", len(refs))
	}
}

func TestDiscoverDefaultTitle(t *testing.T) {
	html := `<article><a href="/2026/03/14/weekly-reel-12/"><img src="x.jpg"></a></article>`

	refs := New(nil).Discover(html, listingURL)
	if len(refs) != 1 || refs[0].Title != defaultEpisodeTitle {
		t.Fatalf("expected default title, got %#v", refs)
	}
}

func TestNormalizeURLTrailingSlashInsensitive(t *testing.T) {
	a := normalizeURL("https://Studio.Example.tv/2026/03/14/ep/")
	b := normalizeURL("https://studio.example.tv/2026/03/14/ep")
	if a != b {
		t.Fatalf("normalize mismatch: %q vs %q", a, b)
	}
}
