package cfg

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	if Version != "" {
		return Version
	}
	return "unknown"
}

type rawCfg struct {
	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./podkeep.db" description:"Path to the SQLite database file"`

	// Application configuration
	FeedsFile       string `long:"feeds-file" env:"FEEDS_FILE" default:"./feeds.yml" description:"Subscriptions file with feeds and host quirks"`
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	RefreshInterval int    `long:"refresh-interval" env:"REFRESH_INTERVAL" default:"300" description:"Background refresh interval in seconds"`
	APIAccessKey    string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Refresh engine configuration
	MaxConcurrentRefreshes int    `long:"max-concurrent-refreshes" env:"MAX_CONCURRENT_REFRESHES" default:"10" description:"Global cap on feeds fetched in parallel"`
	PerHostMaxConnections  int    `long:"per-host-max-connections" env:"PER_HOST_MAX_CONNECTIONS" default:"4" description:"Cap on concurrent connections per host"`
	FeedTimeoutSeconds     int    `long:"feed-timeout" env:"FEED_TIMEOUT_SECONDS" default:"15" description:"Per-feed fetch timeout in seconds"`
	FeedRetryAttempts      int    `long:"feed-retries" env:"FEED_RETRY_ATTEMPTS" default:"5" description:"Retry attempts for transient fetch failures"`
	ArticleRetention       string `long:"article-retention" env:"ARTICLE_RETENTION" default:"90d" description:"Retention window for read articles (e.g. 30d, 12w, forever)"`
	KeepFavorites          bool   `long:"keep-favorites" env:"KEEP_FAVORITES" description:"Never delete favorited articles during cleanup"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"PodKeep/1.0" description:"User agent string for HTTP requests"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	retentionDays, err := ParseRetentionDays(raw.ArticleRetention)
	if err != nil {
		return nil, fmt.Errorf("invalid article retention %q: %w", raw.ArticleRetention, err)
	}

	cfg := &Cfg{
		DBPath:                 raw.DBPath,
		FeedsFile:              raw.FeedsFile,
		Port:                   raw.Port,
		RefreshInterval:        raw.RefreshInterval,
		APIAccessKey:           raw.APIAccessKey,
		MaxConcurrentRefreshes: raw.MaxConcurrentRefreshes,
		PerHostMaxConnections:  raw.PerHostMaxConnections,
		FeedTimeout:            time.Duration(raw.FeedTimeoutSeconds) * time.Second,
		FeedRetryAttempts:      raw.FeedRetryAttempts,
		ArticleRetentionDays:   retentionDays,
		KeepFavorites:          raw.KeepFavorites,
		UserAgent:              raw.UserAgent,
		Debug:                  raw.Debug,
		Version:                GetVersion(),
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set installs a configuration directly, bypassing flag parsing. Intended for
// tests that need distinct configurations per store handle.
func Set(c *Cfg) {
	globalCfg = c
}

// ParseRetentionDays converts a retention string ("30d", "12w", "6m", "1y",
// "forever", "unlimited", or a bare day count) into a day count. A negative
// result disables cleanup entirely.
func ParseRetentionDays(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "forever" || s == "unlimited" {
		return -1, nil
	}

	unit := s[len(s)-1]
	numPart := s[:len(s)-1]
	if unit >= '0' && unit <= '9' {
		unit = 'd'
		numPart = s
	}

	n, err := strconv.Atoi(numPart)
	if err != nil {
		return 0, fmt.Errorf("unparseable number %q", numPart)
	}
	if n < 0 {
		return 0, fmt.Errorf("retention must be non-negative")
	}

	switch unit {
	case 'd':
		return n, nil
	case 'w':
		return n * 7, nil
	case 'm':
		return n * 30, nil
	case 'y':
		return n * 365, nil
	default:
		return 0, fmt.Errorf("unknown unit %q", string(unit))
	}
}
