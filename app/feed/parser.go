package feed

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

const (
	dateLayout   = "2006-01-02 15:04:05"
	dateSentinel = "0001-01-01 00:00:00"

	titleSentinel  = "No Title"
	authorSentinel = "Unknown"

	titleMaxLen = 80
)

// Parser handles parsing of RSS/Atom/JSON feeds into normalized items
type Parser struct {
	gofeedParser *gofeed.Parser
}

// NewParser creates a new feed parser
func NewParser() *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
	}
}

// Parse parses feed data and returns feed metadata plus normalized items
func (p *Parser) Parse(data []byte) (*Metadata, []Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	metadata := &Metadata{
		Title: parsed.Title,
		Link:  parsed.Link,
	}
	if parsed.Image != nil {
		metadata.IconURL = parsed.Image.URL
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		items = append(items, p.normalizeEntry(entry, parsed.Title))
	}
	return metadata, items, nil
}

// normalizeEntry converts a gofeed item into an Item, resolving missing
// titles and authors through feed-level fallbacks.
func (p *Parser) normalizeEntry(entry *gofeed.Item, feedTitle string) Item {
	item := Item{
		ID:      entry.GUID,
		Title:   entry.Title,
		URL:     entry.Link,
		Content: coalesce(entry.Content, entry.Description),
		Date:    normalizeDate(entry),
		Author:  entryAuthor(entry),
	}

	if item.ID == "" {
		item.ID = hashKey(entry.Link, entry.Title)
	}
	if strings.TrimSpace(item.Title) == "" || item.Title == titleSentinel {
		item.Title = titleFromDescription(entry.Description)
	}
	if item.Author == "" {
		item.Author = authorFromFeedTitle(feedTitle)
	}

	if enc := mediaEnclosure(entry); enc != nil {
		item.MediaURL = enc.URL
		item.MediaType = enc.Type
	}
	item.ChaptersURL = chaptersURL(entry)

	return item
}

// hashKey builds a stable dedup key for entries without a guid. The key is
// only unique within the owning feed, never globally.
func hashKey(link, title string) string {
	sum := sha256.Sum256([]byte(link + "|" + title))
	return hex.EncodeToString(sum[:])
}

// normalizeDate renders the entry timestamp as a UTC string. Unparseable or
// absent dates collapse to the zero-date sentinel so ordering and retention
// comparisons stay purely lexicographic.
func normalizeDate(entry *gofeed.Item) string {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed.UTC().Format(dateLayout)
	}
	if entry.UpdatedParsed != nil {
		return entry.UpdatedParsed.UTC().Format(dateLayout)
	}
	if raw := coalesce(entry.Published, entry.Updated); raw != "" {
		if ts, err := dateparse.ParseAny(raw); err == nil {
			return ts.UTC().Format(dateLayout)
		}
	}
	return dateSentinel
}

func entryAuthor(entry *gofeed.Item) string {
	if entry.Author != nil && entry.Author.Name != "" {
		return entry.Author.Name
	}
	for _, a := range entry.Authors {
		if a != nil && a.Name != "" {
			return a.Name
		}
	}
	return ""
}

// titleFromDescription synthesizes a title from the entry body: markup is
// stripped and the text truncated. Microblog-style feeds routinely publish
// untitled entries.
func titleFromDescription(description string) string {
	text := strings.TrimSpace(stripMarkup(description))
	if text == "" {
		return titleSentinel
	}
	runes := []rune(text)
	if len(runes) > titleMaxLen {
		return string(runes[:titleMaxLen]) + "..."
	}
	return text
}

// authorFromFeedTitle derives an author from the feed-level title. Handle
// feeds title themselves "@user.example.com - Service"; the leading token is
// the handle.
func authorFromFeedTitle(feedTitle string) string {
	feedTitle = strings.TrimSpace(feedTitle)
	if feedTitle == "" {
		return authorSentinel
	}
	if strings.HasPrefix(feedTitle, "@") {
		return strings.Fields(feedTitle)[0]
	}
	return feedTitle
}

// stripMarkup returns the text content of an HTML fragment
func stripMarkup(fragment string) string {
	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.TextToken:
			sb.Write(tokenizer.Text())
		}
	}
}

// mediaEnclosure returns the first playable enclosure of an entry. Some
// feeds omit the MIME type, so a recognizable audio extension counts too.
func mediaEnclosure(entry *gofeed.Item) *gofeed.Enclosure {
	for _, enc := range entry.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "audio/") || strings.HasPrefix(enc.Type, "video/") {
			return enc
		}
		if enc.Type == "" && hasAudioExtension(enc.URL) {
			return enc
		}
	}
	return nil
}

func hasAudioExtension(rawURL string) bool {
	u := strings.ToLower(rawURL)
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	for _, ext := range []string{".mp3", ".m4a", ".ogg", ".opus", ".aac", ".flac", ".wav"} {
		if strings.HasSuffix(u, ext) {
			return true
		}
	}
	return false
}

// chaptersURL extracts the chapter manifest URL from the entry's podcast
// namespace extension, if declared.
func chaptersURL(entry *gofeed.Item) string {
	ext, ok := entry.Extensions["podcast"]
	if !ok {
		return ""
	}
	for _, chapters := range ext["chapters"] {
		if url := chapters.Attrs["url"]; url != "" {
			return url
		}
	}
	return ""
}

// coalesce returns the first non-empty string from the provided values
func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
