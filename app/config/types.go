package config

// Subscriptions is the on-disk shape of the feeds.yml file.
type Subscriptions struct {
	Feeds  []FeedInfo  `yaml:"feeds"`
	Quirks []HostQuirk `yaml:"quirks"`
}

// FeedInfo describes one subscribed feed.
type FeedInfo struct {
	ID       string `yaml:"id"`
	URL      string `yaml:"url"`
	Title    string `yaml:"title"`
	Category string `yaml:"category"`

	// ExtractContent enables readability extraction for articles whose
	// feed entries carry no usable body.
	ExtractContent bool `yaml:"extract_content"`
}

// HostQuirk declares fetch-behavior overrides for hosts that mishandle
// HTTP conditional requests. Host matches exactly or as a dot-suffix
// ("npr.org" matches "www.npr.org").
type HostQuirk struct {
	Host string `yaml:"host"`

	// SkipConditional omits If-None-Match/If-Modified-Since for this host.
	SkipConditional bool `yaml:"skip_conditional"`

	// ForceNoCache adds Cache-Control/Pragma no-cache directives so
	// intermediary caches revalidate against the origin.
	ForceNoCache bool `yaml:"force_no_cache"`
}
