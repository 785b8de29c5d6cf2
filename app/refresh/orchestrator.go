package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"podkeep/app/chapters"
	"podkeep/app/config"
	"podkeep/app/database"
	"podkeep/app/feed"
)

// Status is the terminal outcome of one feed's refresh
type Status string

const (
	StatusOK        Status = "ok"
	StatusUnchanged Status = "unchanged"
	StatusError     Status = "error"
)

// Progress reports one feed's terminal refresh state. Reports arrive in
// completion order, not submission order.
type Progress struct {
	FeedID      string
	Status      Status
	NewArticles int
}

// ProgressFunc receives per-feed progress reports
type ProgressFunc func(Progress)

// Options bounds the refresh cycle
type Options struct {
	MaxConcurrent int
	PerHostMax    int
	RetentionDays int
	KeepFavorites bool
}

// Orchestrator drives refresh cycles: retention cleanup first, then one
// fetch task per feed under a global worker pool and a per-host cap.
type Orchestrator struct {
	store     *database.Store
	fetcher   *feed.Fetcher
	parser    *feed.Parser
	resolver  *chapters.Resolver
	extractor *feed.ContentExtractor
	opts      Options

	hosts *hostGate

	mu sync.Mutex // serializes progress callbacks
}

// NewOrchestrator creates a refresh orchestrator
func NewOrchestrator(store *database.Store, fetcher *feed.Fetcher, parser *feed.Parser, resolver *chapters.Resolver, extractor *feed.ContentExtractor, opts Options) *Orchestrator {
	if opts.MaxConcurrent < 1 {
		opts.MaxConcurrent = 1
	}
	if opts.PerHostMax < 1 {
		opts.PerHostMax = 1
	}
	return &Orchestrator{
		store:     store,
		fetcher:   fetcher,
		parser:    parser,
		resolver:  resolver,
		extractor: extractor,
		opts:      opts,
		hosts:     newHostGate(opts.PerHostMax),
	}
}

// Refresh runs one full refresh cycle. Retention cleanup runs to completion
// before any fetch starts: deleting read articles while fetches repopulate
// the table would resurrect them as unread. progress may be nil. force
// bypasses cache validators for every feed.
func (o *Orchestrator) Refresh(ctx context.Context, progress ProgressFunc, force bool) error {
	deleted, err := o.store.Articles.Cleanup(o.opts.RetentionDays, o.opts.KeepFavorites)
	if err != nil {
		slog.Warn("Retention cleanup failed, continuing with refresh", "error", err)
	} else if deleted > 0 {
		slog.Info("Retention cleanup done", "deleted", deleted)
	}

	feeds, err := o.store.Feeds.GetAllFeeds()
	if err != nil {
		return fmt.Errorf("failed to enumerate feeds: %w", err)
	}
	if len(feeds) == 0 {
		return nil
	}

	jobs := make(chan database.Feed)
	var wg sync.WaitGroup
	for i := 0; i < o.opts.MaxConcurrent; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for f := range jobs {
				report := o.refreshFeed(ctx, f, force)
				o.report(progress, report)
			}
		}()
	}

	for _, f := range feeds {
		select {
		case jobs <- f:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()
	return nil
}

func (o *Orchestrator) report(progress ProgressFunc, p Progress) {
	if progress == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	progress(p)
}

// refreshFeed runs the fetch -> parse -> upsert pipeline for one feed. The
// feed's failure is scoped to its own progress report; it never propagates.
func (o *Orchestrator) refreshFeed(ctx context.Context, f database.Feed, force bool) Progress {
	slog.Debug("Refreshing feed", "feed", f.ID, "url", f.URL)

	host := ""
	if u, err := url.Parse(f.URL); err == nil {
		host = u.Hostname()
	}
	release := o.hosts.acquire(host)
	defer release()

	result, err := o.fetcher.Fetch(ctx, f.URL, f.ETag, f.LastModified, force)
	if err != nil {
		slog.Warn("Feed fetch failed", "feed", f.ID, "error", err)
		return Progress{FeedID: f.ID, Status: StatusError}
	}
	if result.NotModified {
		slog.Debug("Feed unchanged", "feed", f.ID)
		return Progress{FeedID: f.ID, Status: StatusUnchanged}
	}

	metadata, items, err := o.parser.Parse(result.Body)
	if err != nil {
		slog.Warn("Feed parse failed", "feed", f.ID, "error", err)
		return Progress{FeedID: f.ID, Status: StatusError}
	}

	// A 200 always moves the stored validators, changed content or not.
	if err := o.store.Feeds.UpdateValidators(f.ID, result.ETag, result.LastModified); err != nil {
		slog.Warn("Failed to store feed validators", "feed", f.ID, "error", err)
	}
	title := f.Title
	if metadata.Title != "" {
		title = metadata.Title
	}
	if err := o.store.Feeds.UpdateMetadata(f.ID, title, metadata.IconURL); err != nil {
		slog.Warn("Failed to store feed metadata", "feed", f.ID, "error", err)
	}

	newCount := 0
	for _, item := range items {
		created, err := o.storeItem(ctx, f, item)
		if err != nil {
			slog.Warn("Failed to store article", "feed", f.ID, "article", item.ID, "error", err)
			continue
		}
		if created {
			newCount++
			o.resolveChapters(ctx, item)
		}
	}

	slog.Info("Feed refreshed", "feed", f.ID, "total", len(items), "new", newCount)
	return Progress{FeedID: f.ID, Status: StatusOK, NewArticles: newCount}
}

func (o *Orchestrator) storeItem(ctx context.Context, f database.Feed, item feed.Item) (bool, error) {
	article := database.Article{
		ID:        item.ID,
		FeedID:    f.ID,
		Title:     item.Title,
		URL:       item.URL,
		Content:   item.Content,
		Date:      item.Date,
		Author:    item.Author,
		MediaURL:  item.MediaURL,
		MediaType: item.MediaType,
	}

	created, err := o.store.Articles.UpsertArticle(article)
	if err != nil {
		return false, err
	}

	// Readability extraction only on first sighting; teaser-only feeds do
	// not change an article's body afterwards.
	if created && f.ExtractContent && o.extractor != nil && item.URL != "" {
		content, err := o.extractor.Extract(ctx, item.URL)
		if err != nil {
			slog.Debug("Content extraction failed", "article", item.ID, "error", err)
		} else {
			article.Content = content
			if _, err := o.store.Articles.UpsertArticle(article); err != nil {
				return created, err
			}
		}
	}
	return created, nil
}

// resolveChapters runs chapter extraction for a newly created media article.
// Failures are logged and swallowed; chapters are best-effort decoration.
func (o *Orchestrator) resolveChapters(ctx context.Context, item feed.Item) {
	if o.resolver == nil || (item.MediaURL == "" && item.ChaptersURL == "") {
		return
	}
	if _, err := o.resolver.Resolve(ctx, item.ID, item.ChaptersURL, item.MediaURL); err != nil {
		slog.Debug("Chapter resolution failed", "article", item.ID, "error", err)
	}
}

// AddFeed subscribes to a new feed: the document is fetched and parsed up
// front so a bad URL is rejected immediately, then the feed row and its
// first batch of articles are stored.
func (o *Orchestrator) AddFeed(ctx context.Context, feedURL, category string) (*database.Feed, error) {
	existing, err := o.store.Feeds.GetFeedByURL(feedURL)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("feed already subscribed: %s", feedURL)
	}

	result, err := o.fetcher.Fetch(ctx, feedURL, "", "", true)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	metadata, items, err := o.parser.Parse(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	if _, err := o.store.Categories.EnsureCategory(category); err != nil {
		return nil, err
	}

	f := database.Feed{
		ID:           uuid.NewString(),
		URL:          feedURL,
		Title:        metadata.Title,
		Category:     category,
		IconURL:      metadata.IconURL,
		ETag:         result.ETag,
		LastModified: result.LastModified,
	}
	if f.Title == "" {
		f.Title = feedURL
	}
	if f.Category == "" {
		f.Category = "Uncategorized"
	}
	if err := o.store.Feeds.CreateFeed(f); err != nil {
		return nil, err
	}

	for _, item := range items {
		created, err := o.storeItem(ctx, f, item)
		if err != nil {
			slog.Warn("Failed to store article", "feed", f.ID, "article", item.ID, "error", err)
			continue
		}
		if created {
			o.resolveChapters(ctx, item)
		}
	}

	slog.Info("Feed added", "feed", f.ID, "url", feedURL, "articles", len(items))
	return &f, nil
}

// RemoveFeed unsubscribes a feed and drops its articles and chapters
func (o *Orchestrator) RemoveFeed(feedID string) error {
	return o.store.Feeds.DeleteFeed(feedID)
}

// SyncSubscriptions registers feeds from the subscriptions file that are not
// in the store yet. Already-known URLs keep their stored state.
func (o *Orchestrator) SyncSubscriptions(subs []config.FeedInfo) error {
	for _, sub := range subs {
		existing, err := o.store.Feeds.GetFeedByURL(sub.URL)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}

		id := sub.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := o.store.Categories.EnsureCategory(sub.Category); err != nil {
			return err
		}
		f := database.Feed{
			ID:             id,
			URL:            sub.URL,
			Title:          sub.Title,
			Category:       sub.Category,
			ExtractContent: sub.ExtractContent,
		}
		if f.Title == "" {
			f.Title = sub.URL
		}
		if err := o.store.Feeds.CreateFeed(f); err != nil {
			return fmt.Errorf("failed to register feed %s: %w", sub.URL, err)
		}
		slog.Info("Feed registered from subscriptions", "feed", id, "url", sub.URL)
	}
	return nil
}
