package chapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	id3v2 "github.com/bogem/id3v2/v2"

	"podkeep/app/database"
)

// Resolver extracts chapter markers for podcast episodes, preferring an
// explicit chapter manifest and falling back to embedded ID3 chapter frames.
type Resolver struct {
	client    *http.Client
	store     *database.ChapterRepository
	userAgent string
	timeout   time.Duration
}

// NewResolver creates a new chapter resolver
func NewResolver(client *http.Client, store *database.ChapterRepository, userAgent string, timeout time.Duration) *Resolver {
	return &Resolver{
		client:    client,
		store:     store,
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Resolve fetches chapters for an article's media item and persists them.
// The computed chapters are returned even when persistence is refused
// because the owning article row is gone; that race is expected and not an
// error. manifestURL may be empty, in which case only the ID3 path runs.
func (r *Resolver) Resolve(ctx context.Context, articleID, manifestURL, mediaURL string) ([]database.Chapter, error) {
	var chapters []database.Chapter

	if manifestURL != "" {
		var err error
		chapters, err = r.fromManifest(ctx, manifestURL)
		if err != nil {
			slog.Debug("Chapter manifest unusable, trying ID3", "url", manifestURL, "error", err)
		}
	}
	if len(chapters) == 0 && mediaURL != "" {
		var err error
		chapters, err = r.fromID3(ctx, mediaURL)
		if err != nil {
			return nil, fmt.Errorf("failed to extract chapters: %w", err)
		}
	}
	if len(chapters) == 0 {
		return nil, nil
	}

	sort.Slice(chapters, func(i, j int) bool { return chapters[i].Start < chapters[j].Start })
	for i := range chapters {
		chapters[i].ArticleID = articleID
	}

	if err := r.store.ReplaceChapters(articleID, chapters); err != nil {
		if errors.Is(err, database.ErrArticleMissing) {
			slog.Debug("Owning article gone, chapters not persisted", "article_id", articleID)
			return chapters, nil
		}
		return chapters, fmt.Errorf("failed to store chapters: %w", err)
	}
	return chapters, nil
}

// chapterManifest is the wire shape of an external chapter file
// (Podcasting 2.0 style: {"chapters":[{"startTime":0,"title":"Intro"}]}).
type chapterManifest struct {
	Chapters []struct {
		StartTime float64 `json:"startTime"`
		Title     string  `json:"title"`
		URL       string  `json:"url"`
	} `json:"chapters"`
}

func (r *Resolver) fromManifest(ctx context.Context, manifestURL string) ([]database.Chapter, error) {
	body, err := r.get(ctx, manifestURL, "")
	if err != nil {
		return nil, err
	}

	var manifest chapterManifest
	if err := json.Unmarshal(body, &manifest); err != nil {
		return nil, fmt.Errorf("malformed chapter manifest: %w", err)
	}

	chapters := make([]database.Chapter, 0, len(manifest.Chapters))
	for _, c := range manifest.Chapters {
		chapters = append(chapters, database.Chapter{
			Start: c.StartTime,
			Title: c.Title,
			Href:  c.URL,
		})
	}
	return chapters, nil
}

// fromID3 range-reads the media file's leading ID3v2 tag and extracts CHAP
// frames. Two requests: ten bytes for the header and declared tag size, then
// the full tag region. The media body itself is never downloaded.
func (r *Resolver) fromID3(ctx context.Context, mediaURL string) ([]database.Chapter, error) {
	header, err := r.get(ctx, mediaURL, "bytes=0-9")
	if err != nil {
		return nil, err
	}
	if len(header) < 10 || string(header[:3]) != "ID3" {
		return nil, fmt.Errorf("no ID3v2 tag at %s", mediaURL)
	}

	// Tag size is a 28-bit syncsafe integer, exclusive of the 10-byte header.
	size := int(header[6])<<21 | int(header[7])<<14 | int(header[8])<<7 | int(header[9])
	tagRegion, err := r.get(ctx, mediaURL, fmt.Sprintf("bytes=0-%d", 10+size-1))
	if err != nil {
		return nil, err
	}

	tag, err := id3v2.ParseReader(bytes.NewReader(tagRegion), id3v2.Options{Parse: true})
	if err != nil {
		return nil, fmt.Errorf("failed to parse ID3 tag: %w", err)
	}

	var chapters []database.Chapter
	for _, frame := range tag.GetFrames("CHAP") {
		chap, ok := frame.(id3v2.ChapterFrame)
		if !ok {
			continue
		}
		title := ""
		if chap.Title != nil {
			title = chap.Title.Text
		}
		chapters = append(chapters, database.Chapter{
			Start: chap.StartTime.Seconds(),
			Title: title,
		})
	}
	return chapters, nil
}

// get fetches a URL, optionally with a Range header. Servers without range
// support reply 200 with the full body; both are accepted.
func (r *Resolver) get(ctx context.Context, url, rangeHeader string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
