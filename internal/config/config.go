package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	ListingURL   string `mapstructure:"listing_url"`
	WaitSelector string `mapstructure:"wait_selector"`
	UserAgent    string `mapstructure:"user_agent"`

	DataDir         string `mapstructure:"data_dir"`
	AudioDirName    string `mapstructure:"audio_dir_name"`
	CatalogFile     string `mapstructure:"catalog_file"`
	CatalogTemplate string `mapstructure:"catalog_template"`
	FeedFile        string `mapstructure:"feed_file"`
	BaseURL         string `mapstructure:"base_url"`

	FeedTitle       string `mapstructure:"feed_title"`
	FeedAuthor      string `mapstructure:"feed_author"`
	FeedDescription string `mapstructure:"feed_description"`
	FeedLanguage    string `mapstructure:"feed_language"`
	FeedCopyright   string `mapstructure:"feed_copyright"`
	FeedImageURL    string `mapstructure:"feed_image_url"`

	FFmpegPath     string `mapstructure:"ffmpeg_path"`
	PublishersFile string `mapstructure:"publishers_file"`

	FetchTimeoutSeconds    int64 `mapstructure:"fetch_timeout_seconds"`
	RenderTimeoutSeconds   int64 `mapstructure:"render_timeout_seconds"`
	SelectorTimeoutSeconds int64 `mapstructure:"selector_timeout_seconds"`
	DownloadTimeoutSeconds int64 `mapstructure:"download_timeout_seconds"`

	CacheType            string `mapstructure:"cache_type"`
	CachePath            string `mapstructure:"cache_path"`
	CacheTTLSeconds      int64  `mapstructure:"cache_ttl_seconds"`
	CacheCleanupSeconds  int64  `mapstructure:"cache_cleanup_interval_seconds"`

	FetchTimeout    time.Duration `mapstructure:"-"`
	RenderTimeout   time.Duration `mapstructure:"-"`
	SelectorTimeout time.Duration `mapstructure:"-"`
	DownloadTimeout time.Duration `mapstructure:"-"`
	CacheTTL        time.Duration `mapstructure:"-"`
	CacheCleanup    time.Duration `mapstructure:"-"`
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "clipcast-archiver")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")

	v.SetDefault("listing_url", "")
	v.SetDefault("wait_selector", "article a")
	v.SetDefault("user_agent", defaultUserAgent)

	v.SetDefault("data_dir", "./data")
	v.SetDefault("audio_dir_name", "audio")
	v.SetDefault("catalog_file", "catalog.yaml")
	v.SetDefault("catalog_template", "")
	v.SetDefault("feed_file", "feed.xml")
	v.SetDefault("base_url", "")

	v.SetDefault("feed_title", "")
	v.SetDefault("feed_author", "")
	v.SetDefault("feed_description", "")
	v.SetDefault("feed_language", "")
	v.SetDefault("feed_copyright", "")
	v.SetDefault("feed_image_url", "")

	v.SetDefault("ffmpeg_path", "ffmpeg")
	v.SetDefault("publishers_file", "")

	v.SetDefault("fetch_timeout_seconds", 15)
	v.SetDefault("render_timeout_seconds", 45)
	v.SetDefault("selector_timeout_seconds", 10)
	v.SetDefault("download_timeout_seconds", 600)

	v.SetDefault("cache_type", "bbolt")
	v.SetDefault("cache_path", "")
	v.SetDefault("cache_ttl_seconds", int64((30*24*time.Hour)/time.Second))
	v.SetDefault("cache_cleanup_interval_seconds", int64((12*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ListingURL == "" {
		return nil, fmt.Errorf("listing_url is required")
	}

	for _, d := range []struct {
		name    string
		seconds int64
		out     *time.Duration
	}{
		{"fetch_timeout_seconds", cfg.FetchTimeoutSeconds, &cfg.FetchTimeout},
		{"render_timeout_seconds", cfg.RenderTimeoutSeconds, &cfg.RenderTimeout},
		{"selector_timeout_seconds", cfg.SelectorTimeoutSeconds, &cfg.SelectorTimeout},
		{"download_timeout_seconds", cfg.DownloadTimeoutSeconds, &cfg.DownloadTimeout},
		{"cache_ttl_seconds", cfg.CacheTTLSeconds, &cfg.CacheTTL},
		{"cache_cleanup_interval_seconds", cfg.CacheCleanupSeconds, &cfg.CacheCleanup},
	} {
		if d.seconds <= 0 {
			return nil, fmt.Errorf("invalid %s (must be positive seconds)", d.name)
		}
		*d.out = time.Duration(d.seconds) * time.Second
	}

	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(cfg.DataDir, "resolve-cache.db")
	}

	return &cfg, nil
}

// AudioDir returns the directory that holds transcoded audio artifacts.
func (c *Config) AudioDir() string {
	return filepath.Join(c.DataDir, c.AudioDirName)
}

// CatalogPath returns the absolute location of the persisted catalog document.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.DataDir, c.CatalogFile)
}

// FeedPath returns the location of the rendered syndication feed.
func (c *Config) FeedPath() string {
	return filepath.Join(c.DataDir, c.FeedFile)
}
