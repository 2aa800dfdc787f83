package domain

import "time"

// Domain contains the core models passed between pipeline stages.

// EpisodeRef identifies one episode page discovered on the listing.
// Identity is the normalized page URL; refs live only for the run that
// produced them.
type EpisodeRef struct {
	Title   string
	PageURL string
}

// ArticleMeta carries per-episode descriptive metadata scraped from the
// episode page. Every field is optional; zero values mean "not found".
type ArticleMeta struct {
	Title       string
	Description string
	PublishedAt time.Time
}

// HasPublishDate reports whether a usable publish date was found.
func (m ArticleMeta) HasPublishDate() bool {
	return !m.PublishedAt.IsZero()
}

// CatalogEntry is one acquired episode as recorded in the persisted
// catalog. Identity is the artifact filename.
type CatalogEntry struct {
	File        string    `yaml:"file" json:"file"`
	Title       string    `yaml:"title" json:"title"`
	Description string    `yaml:"description,omitempty" json:"description,omitempty"`
	PublishedAt time.Time `yaml:"published_at" json:"published_at"`
	Ordinal     int       `yaml:"ordinal" json:"ordinal"`
	Season      int       `yaml:"season,omitempty" json:"season,omitempty"`
	EpisodeType string    `yaml:"episode_type,omitempty" json:"episode_type,omitempty"`
}
