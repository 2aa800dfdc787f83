package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage provides the resolution cache: a local DB remembering
// which media URL an episode page resolved to, so unchanged pages skip the
// strategy cascade on later runs.

// Store caches pageURL -> mediaURL resolutions with expiry.
type Store interface {
	Close() error
	ResolvedURL(pageURL string) (string, bool, error)
	MarkResolved(pageURL, mediaURL string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ResolutionTTL   time.Duration
	CleanupInterval time.Duration
}

const (
	defaultResolutionTTL   = 30 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ResolutionTTL <= 0 {
		opts.ResolutionTTL = defaultResolutionTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                           { return nil }
func (noopStore) ResolvedURL(string) (string, bool, error) { return "", false, nil }
func (noopStore) MarkResolved(string, string) error      { return nil }
