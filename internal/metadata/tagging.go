package metadata

import (
	"fmt"
	"os"

	"github.com/bogem/id3v2"

	"github.com/clipcast-hq/clipcast-archiver/internal/domain"
	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
)

const (
	// Fixed tag constants for every archived episode.
	TagArtist = "Weekly Reel"
	TagAlbum  = "Weekly Reel Archive"

	defaultTagTitle = "Untitled episode"
)

// Tagger writes episode metadata into the audio artifact's ID3 block and
// mirrors the publish date onto the file's modification time.
type Tagger struct {
	log logger.Logger
}

// NewTagger builds a tagger.
func NewTagger(log logger.Logger) *Tagger {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Tagger{log: log}
}

// Tag writes the tag block and returns whether it succeeded. A missing or
// unparsable publish date simply omits the date frames. The mtime update
// afterwards is best effort: a failure is logged, never fatal.
func (t *Tagger) Tag(audioPath string, meta domain.ArticleMeta) bool {
	if err := writeTags(audioPath, meta); err != nil {
		t.log.WarnObj("tag write failed", "tagging_error", map[string]any{
			"audio_path": audioPath,
			"error":      err.Error(),
		})
		return false
	}

	if meta.HasPublishDate() {
		if err := os.Chtimes(audioPath, meta.PublishedAt, meta.PublishedAt); err != nil {
			t.log.WarnObj("artifact mtime update failed", "tagging_mtime", map[string]any{
				"audio_path": audioPath,
				"error":      err.Error(),
			})
		}
	}
	return true
}

func writeTags(audioPath string, meta domain.ArticleMeta) error {
	tag, err := id3v2.Open(audioPath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tag: %w", err)
	}
	defer tag.Close()

	title := meta.Title
	if title == "" {
		title = defaultTagTitle
	}
	tag.SetTitle(title)
	tag.SetArtist(TagArtist)
	tag.SetAlbum(TagAlbum)

	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding:    id3v2.EncodingUTF8,
		Language:    "eng",
		Description: "",
		Text:        meta.Description,
	})

	if meta.HasPublishDate() {
		ts := meta.PublishedAt
		tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, ts.Format("2006-01-02"))
		tag.AddTextFrame("TYER", id3v2.EncodingUTF8, ts.Format("2006"))
		// Legacy v2.3 day/month frame for older readers.
		tag.AddTextFrame("TDAT", id3v2.EncodingUTF8, ts.Format("0201"))
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}
