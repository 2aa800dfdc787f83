package app

import (
	"context"
	"fmt"
	"time"

	"github.com/clipcast-hq/clipcast-archiver/internal/acquire"
	"github.com/clipcast-hq/clipcast-archiver/internal/catalog"
	"github.com/clipcast-hq/clipcast-archiver/internal/config"
	"github.com/clipcast-hq/clipcast-archiver/internal/discovery"
	"github.com/clipcast-hq/clipcast-archiver/internal/logger"
	"github.com/clipcast-hq/clipcast-archiver/internal/metadata"
	"github.com/clipcast-hq/clipcast-archiver/internal/renderer"
	"github.com/clipcast-hq/clipcast-archiver/internal/resolver"
	"github.com/clipcast-hq/clipcast-archiver/internal/storage"
	"github.com/clipcast-hq/clipcast-archiver/internal/transcode"
	"github.com/clipcast-hq/clipcast-archiver/pkg/httpclient"
	"github.com/clipcast-hq/clipcast-archiver/pkg/publishers"
)

// Archiver is the archive runtime. It wires the discovery, resolution,
// acquisition, and publishing services from configuration and runs a
// single archive pass per invocation; idempotence comes from the
// filesystem state, so scheduling is left to cron or a systemd timer.
type Archiver struct {
	cfg      *config.Config
	pipeline *Pipeline
	store    storage.Store
	log      logger.Logger
}

// NewArchiver builds the archive runtime from config.
func NewArchiver(ctx context.Context, cfg *config.Config, log logger.Logger) (*Archiver, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewStore(cfg.CacheType, cfg.CachePath, storage.Options{
		ResolutionTTL:   cfg.CacheTTL,
		CleanupInterval: cfg.CacheCleanup,
	})
	if err != nil {
		return nil, fmt.Errorf("init resolution cache: %w", err)
	}
	log.InfoObj("resolution cache initialized", "cache_config", map[string]any{
		"type":        cfg.CacheType,
		"path":        cfg.CachePath,
		"ttl_seconds": int(cfg.CacheTTL.Seconds()),
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	rod := renderer.NewRodRenderer(cfg.RenderTimeout, cfg.SelectorTimeout, log)
	fetchClient := httpclient.NewRestyClient(cfg.FetchTimeout, cfg.UserAgent)
	downloadClient := httpclient.NewRestyClient(cfg.DownloadTimeout, cfg.UserAgent)

	pipeline := &Pipeline{
		ListingURL:   cfg.ListingURL,
		WaitSelector: cfg.WaitSelector,
		WorkDir:      cfg.DataDir,
		AudioDir:     cfg.AudioDir(),
		FeedPath:     cfg.FeedPath(),

		Renderer:   rod,
		Discoverer: discovery.New(log),
		Fetcher:    fetchClient,
		Resolver:   resolver.New(rod, log),
		Store:      store,
		Acquirer:   acquire.New(downloadClient, transcode.NewFFmpeg(cfg.FFmpegPath), log),
		Meta:       metadata.NewFetcher(fetchClient, log),
		Tagger:     metadata.NewTagger(log),
		Catalog:    catalog.NewPublisher(cfg.CatalogPath(), cfg.CatalogTemplate, log),
		Feed: &catalog.FeedWriter{
			BaseURL:      cfg.BaseURL,
			AudioDirName: cfg.AudioDirName,
			Meta: catalog.FeedMeta{
				Title:       cfg.FeedTitle,
				Author:      cfg.FeedAuthor,
				Description: cfg.FeedDescription,
				Language:    cfg.FeedLanguage,
				Copyright:   cfg.FeedCopyright,
				ImageURL:    cfg.FeedImageURL,
			},
		},
		Events: fanout,

		Log: log,
	}

	return &Archiver{
		cfg:      cfg,
		pipeline: pipeline,
		store:    store,
		log:      log,
	}, nil
}

// buildFanout loads the publisher registry and instantiates every enabled
// publisher. Without a registry file, events go to the structured log.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	var enabled []publishers.PublisherConfig
	if cfg.PublishersFile != "" {
		reg, err := publishers.LoadRegistry(cfg.PublishersFile)
		if err != nil {
			return nil, fmt.Errorf("load publishers registry: %w", err)
		}
		enabled = reg.Enabled()
	}
	if len(enabled) == 0 {
		enabled = []publishers.PublisherConfig{{ID: "default-log", Type: publishers.TypeLog}}
	}

	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})

	return publishers.NewFanout(pubs), nil
}

// Run executes one archive pass and releases held resources.
func (a *Archiver) Run(ctx context.Context) error {
	if a == nil || a.pipeline == nil {
		return fmt.Errorf("archiver is not initialized")
	}
	defer a.closeStore()

	start := time.Now()
	a.log.InfoObj("archive pass starting", "run_meta", map[string]any{
		"listing_url": a.cfg.ListingURL,
		"data_dir":    a.cfg.DataDir,
		"started_at":  start.UTC(),
	})

	stats, err := a.pipeline.Run(ctx)
	if err != nil {
		return err
	}

	a.log.InfoObj("archive pass finished", "run_meta", map[string]any{
		"discovered": stats.Discovered,
		"skipped":    stats.Skipped,
		"acquired":   stats.Acquired,
		"failed":     stats.Failed,
		"published":  stats.Published,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (a *Archiver) closeStore() {
	if a == nil || a.store == nil {
		return
	}
	if err := a.store.Close(); err != nil {
		a.log.ErrorObj("resolution cache close failed", "error", err)
	}
}
