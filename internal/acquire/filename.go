package acquire

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic filename derivation
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

// artifactPathRe captures the date segments and slug of an episode page path.
var artifactPathRe = regexp.MustCompile(`^/(\d{4})/(\d{2})/(\d{2})/([a-z0-9][a-z0-9-]*)/?$`)

// BaseName derives the artifact basename (no extension) for an episode.
// It is a pure function of the episode page URL so existence checks line
// up across runs: date-stamped paths yield "YYYY-MM-DD-slug", anything
// else a short URL hash.
func BaseName(pageURL string) string {
	u, err := url.Parse(strings.TrimSpace(pageURL))
	if err == nil {
		if m := artifactPathRe.FindStringSubmatch(u.Path); m != nil {
			return m[1] + "-" + m[2] + "-" + m[3] + "-" + m[4]
		}
	}
	sum := sha1.Sum([]byte(strings.TrimSpace(pageURL)))
	return "episode-" + hex.EncodeToString(sum[:])[:12]
}
