package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Postgres  PostgresConfig
	Archive   ArchiveConfig
	Scheduler SchedulerConfig
	Scraper   ScraperConfig
	Viewer    ViewerConfig
	Proxy     ProxyConfig
	DBPath    string
	LogLevel  string
}

// ProxyConfig routes listing-page fetches through a forward proxy when set.
// Browser navigation is not proxied.
type ProxyConfig struct {
	URL string
}

type PostgresConfig struct {
	URL string
	// UpdateExisting switches the duplicate policy from skip-if-known to
	// update-in-place, so re-scrapes track price changes.
	UpdateExisting bool
}

type ArchiveConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

func (c ArchiveConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != ""
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

// ScraperConfig drives the navigator and per-listing pacing. The source
// section is file-based (yaml) so target tweaks don't need a rebuild.
type ScraperConfig struct {
	StartURL       string `yaml:"start_url"`
	NumPages       int    `yaml:"num_pages"`
	Headless       bool   `yaml:"-"`
	PageDelayMS    int    `yaml:"page_delay_ms"`
	ListingDelayMS int    `yaml:"listing_delay_ms"`
	// StopAfterKnown stops a run once this many consecutive known listings
	// are seen (listings are sorted newest first). 0 disables.
	StopAfterKnown int `yaml:"stop_after_known"`
}

type ViewerConfig struct {
	Addr string
}

const defaultStartURL = "https://www.centris.ca/fr/plex~a-vendre~montreal?view=Thumbnail"

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Postgres: PostgresConfig{
			URL:            os.Getenv("POSTGRES_URL"),
			UpdateExisting: os.Getenv("STORE_UPDATE_EXISTING") == "true",
		},
		Archive: ArchiveConfig{
			Bucket:          os.Getenv("ARCHIVE_BUCKET"),
			Region:          getEnv("ARCHIVE_REGION", "us-east-1"),
			Endpoint:        os.Getenv("ARCHIVE_ENDPOINT"),
			AccessKeyID:     os.Getenv("ARCHIVE_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("ARCHIVE_SECRET_ACCESS_KEY"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		Scraper: ScraperConfig{
			StartURL:       defaultStartURL,
			NumPages:       getEnvInt("SCRAPE_NUM_PAGES", 5),
			Headless:       getEnv("SCRAPE_HEADLESS", "true") == "true",
			PageDelayMS:    1000,
			ListingDelayMS: getEnvInt("SCRAPE_DELAY_MS", 500),
		},
		Viewer: ViewerConfig{
			Addr: getEnv("VIEWER_ADDR", ":8080"),
		},
		Proxy: ProxyConfig{
			URL: os.Getenv("PROXY_URL"),
		},
		DBPath:   getEnv("DB_PATH", "harvester.db"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadSourceConfig(getEnv("SOURCE_CONFIG", "config/sources/centris.yaml")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSourceConfig overlays the yaml source file onto the scraper section.
// A missing file is fine: env and defaults apply.
func (c *Config) loadSourceConfig(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var source ScraperConfig
	if err := yaml.Unmarshal(data, &source); err != nil {
		return err
	}

	if source.StartURL != "" {
		c.Scraper.StartURL = source.StartURL
	}
	if source.NumPages > 0 {
		c.Scraper.NumPages = source.NumPages
	}
	if source.PageDelayMS > 0 {
		c.Scraper.PageDelayMS = source.PageDelayMS
	}
	if source.ListingDelayMS > 0 {
		c.Scraper.ListingDelayMS = source.ListingDelayMS
	}
	if source.StopAfterKnown > 0 {
		c.Scraper.StopAfterKnown = source.StopAfterKnown
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
