package database

import (
	"database/sql"
	"fmt"
)

// FeedRepository handles database operations for feeds
type FeedRepository struct {
	db *DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *DB) *FeedRepository {
	return &FeedRepository{db: db}
}

const feedColumns = `id, url, title, category, icon_url, etag, last_modified, extract_content`

func scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	err := row.Scan(
		&feed.ID, &feed.URL, &feed.Title, &feed.Category, &feed.IconURL,
		&feed.ETag, &feed.LastModified, &feed.ExtractContent,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

// CreateFeed inserts a new feed row
func (r *FeedRepository) CreateFeed(feed Feed) error {
	if feed.Category == "" {
		feed.Category = "Uncategorized"
	}
	_, err := r.db.Exec(`
		INSERT INTO feeds (id, url, title, category, icon_url, etag, last_modified, extract_content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, feed.ID, feed.URL, feed.Title, feed.Category, feed.IconURL, feed.ETag, feed.LastModified, feed.ExtractContent)
	if err != nil {
		return fmt.Errorf("failed to create feed: %w", err)
	}
	return nil
}

// GetFeed retrieves a feed by its ID
func (r *FeedRepository) GetFeed(feedID string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(
		`SELECT `+feedColumns+` FROM feeds WHERE id = ?`, feedID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by ID: %w", err)
	}
	return feed, nil
}

// GetFeedByURL retrieves a feed by its URL
func (r *FeedRepository) GetFeedByURL(feedURL string) (*Feed, error) {
	feed, err := scanFeed(r.db.QueryRow(
		`SELECT `+feedColumns+` FROM feeds WHERE url = ?`, feedURL,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by URL: %w", err)
	}
	return feed, nil
}

// GetAllFeeds returns all subscribed feeds ordered by title
func (r *FeedRepository) GetAllFeeds() ([]Feed, error) {
	rows, err := r.db.Query(`SELECT ` + feedColumns + ` FROM feeds ORDER BY title, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	var feeds []Feed
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}
	return feeds, nil
}

// UpdateValidators stores the cache validators returned by the last fetch
func (r *FeedRepository) UpdateValidators(feedID, etag, lastModified string) error {
	_, err := r.db.Exec(`
		UPDATE feeds SET etag = ?, last_modified = ? WHERE id = ?
	`, etag, lastModified, feedID)
	if err != nil {
		return fmt.Errorf("failed to update feed validators: %w", err)
	}
	return nil
}

// UpdateMetadata refreshes the feed-level title and icon after a successful parse
func (r *FeedRepository) UpdateMetadata(feedID, title, iconURL string) error {
	_, err := r.db.Exec(`
		UPDATE feeds SET title = ?, icon_url = ? WHERE id = ?
	`, title, iconURL, feedID)
	if err != nil {
		return fmt.Errorf("failed to update feed metadata: %w", err)
	}
	return nil
}

// DeleteFeed removes a feed along with its articles and their chapters
func (r *FeedRepository) DeleteFeed(feedID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		DELETE FROM chapters WHERE article_id IN (SELECT id FROM articles WHERE feed_id = ?)
	`, feedID); err != nil {
		return fmt.Errorf("failed to delete feed chapters: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM articles WHERE feed_id = ?`, feedID); err != nil {
		return fmt.Errorf("failed to delete feed articles: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM feeds WHERE id = ?`, feedID); err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feed deletion: %w", err)
	}
	return nil
}
