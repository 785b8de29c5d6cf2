package database

import (
	"database/sql"
	"fmt"
	"time"
)

// ArticleRepository handles database operations for articles
type ArticleRepository struct {
	db *DB
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

const articleColumns = `id, feed_id, title, url, content, date, author, is_read, is_favorite, media_url, media_type`

func scanArticle(row interface{ Scan(...any) error }) (*Article, error) {
	var a Article
	err := row.Scan(
		&a.ID, &a.FeedID, &a.Title, &a.URL, &a.Content, &a.Date, &a.Author,
		&a.IsRead, &a.IsFavorite, &a.MediaURL, &a.MediaType,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpsertArticle inserts the article if its (id, feed_id) pair is new, or
// updates only the drift fields (title, url, content, date, author, media)
// of the existing row. Read and favorite flags are never touched here.
// Returns whether a new row was created.
func (r *ArticleRepository) UpsertArticle(a Article) (bool, error) {
	// A feed's articles are only ever written by its own refresh worker,
	// so check-then-write is safe here.
	existing, err := r.GetArticle(a.FeedID, a.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check existing article: %w", err)
	}

	if existing != nil {
		_, err = r.db.Exec(`
			UPDATE articles
			SET title = ?, url = ?, content = ?, date = ?, author = ?, media_url = ?, media_type = ?
			WHERE id = ? AND feed_id = ?
		`, a.Title, a.URL, a.Content, a.Date, a.Author, a.MediaURL, a.MediaType, a.ID, a.FeedID)
		if err != nil {
			return false, fmt.Errorf("failed to update article: %w", err)
		}
		return false, nil
	}

	_, err = r.db.Exec(`
		INSERT INTO articles (id, feed_id, title, url, content, date, author, is_read, is_favorite, media_url, media_type)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)
	`, a.ID, a.FeedID, a.Title, a.URL, a.Content, a.Date, a.Author, a.MediaURL, a.MediaType)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}
	return true, nil
}

// GetArticle retrieves one article by its composite key
func (r *ArticleRepository) GetArticle(feedID, articleID string) (*Article, error) {
	a, err := scanArticle(r.db.QueryRow(
		`SELECT `+articleColumns+` FROM articles WHERE id = ? AND feed_id = ?`,
		articleID, feedID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return a, nil
}

// GetArticles returns a feed's articles, newest first
func (r *ArticleRepository) GetArticles(feedID string) ([]Article, error) {
	rows, err := r.db.Query(
		`SELECT `+articleColumns+` FROM articles WHERE feed_id = ? ORDER BY date DESC, id`,
		feedID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}
	return articles, nil
}

// MarkRead marks one article read or unread
func (r *ArticleRepository) MarkRead(feedID, articleID string, read bool) error {
	_, err := r.db.Exec(
		`UPDATE articles SET is_read = ? WHERE id = ? AND feed_id = ?`,
		read, articleID, feedID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark article read: %w", err)
	}
	return nil
}

// MarkAllRead marks every article of a feed as read
func (r *ArticleRepository) MarkAllRead(feedID string) error {
	_, err := r.db.Exec(`UPDATE articles SET is_read = 1 WHERE feed_id = ?`, feedID)
	if err != nil {
		return fmt.Errorf("failed to mark all articles read: %w", err)
	}
	return nil
}

// MarkFavorite sets the favorite flag of one article
func (r *ArticleRepository) MarkFavorite(feedID, articleID string, favorite bool) error {
	_, err := r.db.Exec(
		`UPDATE articles SET is_favorite = ? WHERE id = ? AND feed_id = ?`,
		favorite, articleID, feedID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark article favorite: %w", err)
	}
	return nil
}

// UnreadCount returns the number of unread articles for a feed
func (r *ArticleRepository) UnreadCount(feedID string) (int, error) {
	var count int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM articles WHERE feed_id = ? AND is_read = 0`, feedID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread articles: %w", err)
	}
	return count, nil
}

// Cleanup deletes read articles older than retentionDays. Favorites survive
// when keepFavorites is set. Chapters of doomed articles are removed first so
// no dangling chapter rows remain. A negative retention disables cleanup.
// Returns the number of deleted articles.
func (r *ArticleRepository) Cleanup(retentionDays int, keepFavorites bool) (int64, error) {
	if retentionDays < 0 {
		return 0, nil
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Format("2006-01-02 15:04:05")

	doomed := `SELECT id FROM articles WHERE is_read = 1 AND date < ?`
	where := `is_read = 1 AND date < ?`
	if keepFavorites {
		doomed += ` AND is_favorite = 0`
		where += ` AND is_favorite = 0`
	}

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin cleanup transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM chapters WHERE article_id IN (`+doomed+`)`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to delete expired chapters: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM articles WHERE `+where, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired articles: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted articles: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cleanup: %w", err)
	}
	return deleted, nil
}
