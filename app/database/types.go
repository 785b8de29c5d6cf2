package database

// Feed represents a subscribed feed record
type Feed struct {
	ID           string // Stable opaque identifier (UUID when created via subscribe)
	URL          string
	Title        string
	Category     string
	IconURL      string
	ETag         string // Cache validator; empty when unknown
	LastModified string // Cache validator; empty when unknown

	// ExtractContent enables readability extraction for this feed's articles
	ExtractContent bool
}

// Article represents one normalized feed entry. Identity is the pair
// (ID, FeedID); ID is only unique within its owning feed.
type Article struct {
	ID         string
	FeedID     string
	Title      string
	URL        string
	Content    string
	Date       string // UTC, "2006-01-02 15:04:05"
	Author     string
	IsRead     bool
	IsFavorite bool
	MediaURL   string
	MediaType  string
}

// Category groups feeds for presentation
type Category struct {
	ID    string
	Title string
}

// Chapter is a named timestamp offset within a media file. ArticleID is a
// soft reference: the owning article row may already be gone.
type Chapter struct {
	ID        string
	ArticleID string
	Start     float64 // seconds
	Title     string
	Href      string
}

// PlaybackState holds per-episode resume position and completion metadata.
// Optional fields are pointers so a merge upsert can tell "omitted" from
// "zero".
type PlaybackState struct {
	ID            string
	PositionMs    int64
	DurationMs    *int64
	UpdatedAt     int64 // epoch seconds
	Completed     bool
	SeekSupported *bool
	Title         *string
}
