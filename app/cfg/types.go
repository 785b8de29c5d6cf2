package cfg

import "time"

type Cfg struct {
	// Storage configuration
	DBPath string

	// Application configuration
	FeedsFile       string
	Port            string
	RefreshInterval int // seconds
	APIAccessKey    string

	// Refresh engine configuration
	MaxConcurrentRefreshes int
	PerHostMaxConnections  int
	FeedTimeout            time.Duration
	FeedRetryAttempts      int
	ArticleRetentionDays   int // negative disables cleanup
	KeepFavorites          bool

	// Application metadata
	UserAgent string
	Debug     bool
	Version   string
}
