package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/clipcast-hq/clipcast-archiver/internal/domain"
	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
)

// Document is the persisted catalog: show-level metadata plus the
// cumulative episode list, serialized as human-editable YAML.
type Document struct {
	Title       string                `yaml:"title,omitempty"`
	Link        string                `yaml:"link,omitempty"`
	Author      string                `yaml:"author,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Language    string                `yaml:"language,omitempty"`
	Copyright   string                `yaml:"copyright,omitempty"`
	ImageURL    string                `yaml:"image_url,omitempty"`
	Episodes    []domain.CatalogEntry `yaml:"episodes"`
}

const (
	defaultSeason      = 1
	defaultEpisodeType = "full"
)

// Publisher owns the catalog document: load, merge, persist.
type Publisher struct {
	path         string
	templatePath string
	log          logger.Logger
}

// NewPublisher builds a catalog publisher for the given document path and
// optional template path.
func NewPublisher(path, templatePath string, log logger.Logger) *Publisher {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Publisher{path: path, templatePath: templatePath, log: log}
}

// Load returns the existing catalog, else a copy of the template, else a
// synthesized minimal document. Only a malformed existing catalog is an
// error; missing files fall through the chain.
func (p *Publisher) Load() (*Document, error) {
	doc, err := readDocument(p.path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if doc != nil {
		return doc, nil
	}

	if p.templatePath != "" {
		doc, err = readDocument(p.templatePath)
		if err != nil {
			return nil, fmt.Errorf("load catalog template: %w", err)
		}
		if doc != nil {
			doc.Episodes = nil
			p.log.InfoObj("catalog seeded from template", "catalog_template", p.templatePath)
			return doc, nil
		}
	}

	return &Document{}, nil
}

func readDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &doc, nil
}

// Merge appends the new entries that are not already cataloged, assigning
// ordinals that continue the existing dense sequence. Survivors are
// numbered in ascending publish-date order so a batch of new episodes
// gets deterministic ordinals; the episode list is persisted sorted by
// ordinal. Returns the entries actually added.
func Merge(doc *Document, entries []domain.CatalogEntry) []domain.CatalogEntry {
	existing := make(map[string]struct{}, len(doc.Episodes))
	maxOrdinal := 0
	for _, e := range doc.Episodes {
		existing[e.File] = struct{}{}
		if e.Ordinal > maxOrdinal {
			maxOrdinal = e.Ordinal
		}
	}

	var fresh []domain.CatalogEntry
	for _, e := range entries {
		if _, dup := existing[e.File]; dup {
			continue
		}
		existing[e.File] = struct{}{}
		fresh = append(fresh, e)
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].PublishedAt.Before(fresh[j].PublishedAt)
	})

	for i := range fresh {
		maxOrdinal++
		fresh[i].Ordinal = maxOrdinal
		if fresh[i].Season == 0 {
			fresh[i].Season = defaultSeason
		}
		if fresh[i].EpisodeType == "" {
			fresh[i].EpisodeType = defaultEpisodeType
		}
	}

	doc.Episodes = append(doc.Episodes, fresh...)
	sort.SliceStable(doc.Episodes, func(i, j int) bool {
		return doc.Episodes[i].Ordinal < doc.Episodes[j].Ordinal
	})

	return fresh
}

// Save persists the document to the publisher's catalog path.
func (p *Publisher) Save(doc *Document) error {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	if err := os.WriteFile(p.path, raw, 0o644); err != nil {
		return fmt.Errorf("write catalog: %w", err)
	}
	return nil
}
