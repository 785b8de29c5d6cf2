package feed

// Metadata is feed-level information extracted during a parse
type Metadata struct {
	Title   string
	Link    string
	IconURL string
}

// Item is one normalized feed entry. Parsed documents are reduced to this
// fixed shape immediately; nothing downstream reads parser-specific fields.
// ID is a dedup key that is only meaningful paired with the owning feed.
type Item struct {
	ID          string
	Title       string
	URL         string
	Content     string
	Date        string // UTC, "2006-01-02 15:04:05"
	Author      string
	MediaURL    string
	MediaType   string
	ChaptersURL string // chapter manifest declared by the entry, if any
}
