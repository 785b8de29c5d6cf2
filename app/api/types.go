package api

// AddFeedRequest subscribes to a new feed
type AddFeedRequest struct {
	URL      string `json:"url" binding:"required"`
	Category string `json:"category"`
}

// MarkReadRequest toggles an article's read flag; omitting read means true
type MarkReadRequest struct {
	Read *bool `json:"read"`
}

// MarkFavoriteRequest toggles an article's favorite flag
type MarkFavoriteRequest struct {
	Favorite *bool `json:"favorite"`
}

// CategoryRequest creates or renames a category
type CategoryRequest struct {
	Title string `json:"title" binding:"required"`
}

// RefreshRequest triggers a refresh cycle
type RefreshRequest struct {
	Force bool `json:"force"`
}

// PlaybackRequest carries a merge-on-write playback update. Omitted optional
// fields keep their stored values.
type PlaybackRequest struct {
	PositionMs    int64   `json:"position_ms"`
	DurationMs    *int64  `json:"duration_ms"`
	Title         *string `json:"title"`
	Completed     bool    `json:"completed"`
	SeekSupported *bool   `json:"seek_supported"`
	UpdatedAt     int64   `json:"updated_at"`
}

// SeekSupportedRequest updates only the seek capability flag
type SeekSupportedRequest struct {
	Supported *bool `json:"supported" binding:"required"`
}

// FeedResponse is the wire shape of one feed
type FeedResponse struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Category    string `json:"category"`
	IconURL     string `json:"icon_url,omitempty"`
	UnreadCount int    `json:"unread_count"`
}

// ArticleResponse is the wire shape of one article
type ArticleResponse struct {
	ID         string `json:"id"`
	FeedID     string `json:"feed_id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Content    string `json:"content"`
	Date       string `json:"date"`
	Author     string `json:"author"`
	IsRead     bool   `json:"is_read"`
	IsFavorite bool   `json:"is_favorite"`
	MediaURL   string `json:"media_url,omitempty"`
	MediaType  string `json:"media_type,omitempty"`
}

// CategoryResponse is the wire shape of one category
type CategoryResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ChapterResponse is the wire shape of one chapter marker
type ChapterResponse struct {
	Start float64 `json:"start"`
	Title string  `json:"title"`
	Href  string  `json:"href,omitempty"`
}

// PlaybackResponse is the wire shape of stored playback state
type PlaybackResponse struct {
	ID            string  `json:"id"`
	PositionMs    int64   `json:"position_ms"`
	DurationMs    *int64  `json:"duration_ms"`
	UpdatedAt     int64   `json:"updated_at"`
	Completed     bool    `json:"completed"`
	SeekSupported *bool   `json:"seek_supported"`
	Title         *string `json:"title"`
}

// RefreshReport is one feed's outcome within a refresh cycle
type RefreshReport struct {
	FeedID      string `json:"id"`
	Status      string `json:"status"`
	NewArticles int    `json:"new_articles"`
}
