package publishers

import (
	"time"

	"github.com/clipcast-hq/clipcast-archiver/internal/domain"
)

// Event is the payload announced downstream when an episode has been
// acquired, tagged, and cataloged.
type Event struct {
	File        string    `json:"file"`
	Title       string    `json:"title"`
	PageURL     string    `json:"page_url"`
	MediaURL    string    `json:"media_url,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Ordinal     int       `json:"ordinal"`
	AcquiredAt  time.Time `json:"acquired_at"`
}

// NewEvent constructs an Event from a freshly merged catalog entry.
func NewEvent(entry domain.CatalogEntry, pageURL, mediaURL string) Event {
	return Event{
		File:        entry.File,
		Title:       entry.Title,
		PageURL:     pageURL,
		MediaURL:    mediaURL,
		PublishedAt: entry.PublishedAt,
		Ordinal:     entry.Ordinal,
		AcquiredAt:  time.Now().UTC(),
	}
}
