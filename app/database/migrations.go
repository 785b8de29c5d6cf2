package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migrationStep is one forward-only schema change. Each step probes the
// current schema shape and applies itself only when needed, so InitSchema is
// safe to run on every startup against any previously shipped layout.
type migrationStep struct {
	name  string
	apply func(tx *sql.Tx) error
}

// InitSchema creates missing tables and applies forward-only migrations. The
// whole sequence runs in a single transaction so fetch workers never observe
// a half-migrated schema.
func InitSchema(db *DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	steps := []migrationStep{
		{"create base tables", createBaseTables},
		{"add article media columns", addArticleMediaColumns},
		{"add feed cache validator columns", addFeedColumns},
		{"drop chapters foreign key", dropChaptersForeignKey},
		{"rebuild articles with composite primary key", rebuildArticlesCompositePK},
		{"seed categories", seedCategories},
	}

	for _, step := range steps {
		if err := step.apply(tx); err != nil {
			return fmt.Errorf("migration %q failed: %w", step.name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migrations: %w", err)
	}

	slog.Debug("Database schema initialized")
	return nil
}

func createBaseTables(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS feeds (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'Uncategorized',
			icon_url TEXT NOT NULL DEFAULT '',
			etag TEXT NOT NULL DEFAULT '',
			last_modified TEXT NOT NULL DEFAULT '',
			extract_content INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS articles (
			id TEXT NOT NULL,
			feed_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '0001-01-01 00:00:00',
			author TEXT NOT NULL DEFAULT '',
			is_read INTEGER NOT NULL DEFAULT 0,
			is_favorite INTEGER NOT NULL DEFAULT 0,
			media_url TEXT NOT NULL DEFAULT '',
			media_type TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (id, feed_id)
		);
		CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL UNIQUE
		);
		CREATE TABLE IF NOT EXISTS chapters (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL,
			start REAL NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			href TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS playback_state (
			id TEXT PRIMARY KEY,
			position_ms INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER,
			updated_at INTEGER NOT NULL DEFAULT 0,
			completed INTEGER NOT NULL DEFAULT 0,
			seek_supported INTEGER,
			title TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_articles_feed_id ON articles(feed_id);
		CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(date);
		CREATE INDEX IF NOT EXISTS idx_chapters_article_id ON chapters(article_id);
	`)
	return err
}

func addArticleMediaColumns(tx *sql.Tx) error {
	for _, col := range []struct{ name, ddl string }{
		{"media_url", "ALTER TABLE articles ADD COLUMN media_url TEXT NOT NULL DEFAULT ''"},
		{"media_type", "ALTER TABLE articles ADD COLUMN media_type TEXT NOT NULL DEFAULT ''"},
		{"is_favorite", "ALTER TABLE articles ADD COLUMN is_favorite INTEGER NOT NULL DEFAULT 0"},
	} {
		ok, err := columnExists(tx, "articles", col.name)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := tx.Exec(col.ddl); err != nil {
			return fmt.Errorf("failed to add articles.%s: %w", col.name, err)
		}
		slog.Info("Added column", "table", "articles", "column", col.name)
	}
	return nil
}

func addFeedColumns(tx *sql.Tx) error {
	for _, col := range []struct{ name, ddl string }{
		{"etag", "ALTER TABLE feeds ADD COLUMN etag TEXT NOT NULL DEFAULT ''"},
		{"last_modified", "ALTER TABLE feeds ADD COLUMN last_modified TEXT NOT NULL DEFAULT ''"},
		{"icon_url", "ALTER TABLE feeds ADD COLUMN icon_url TEXT NOT NULL DEFAULT ''"},
		{"extract_content", "ALTER TABLE feeds ADD COLUMN extract_content INTEGER NOT NULL DEFAULT 0"},
	} {
		ok, err := columnExists(tx, "feeds", col.name)
		if err != nil {
			return err
		}
		if ok {
			continue
		}
		if _, err := tx.Exec(col.ddl); err != nil {
			return fmt.Errorf("failed to add feeds.%s: %w", col.name, err)
		}
		slog.Info("Added column", "table", "feeds", "column", col.name)
	}
	return nil
}

// dropChaptersForeignKey rebuilds the chapters table without its foreign key
// to articles(id). The constraint assumed globally unique article ids, which
// no longer holds once articles use the composite (id, feed_id) key; chapter
// ownership becomes a soft reference checked at insert time instead.
func dropChaptersForeignKey(tx *sql.Tx) error {
	var fkCount int
	err := tx.QueryRow(`SELECT COUNT(*) FROM pragma_foreign_key_list('chapters')`).Scan(&fkCount)
	if err != nil {
		return fmt.Errorf("failed to inspect chapters foreign keys: %w", err)
	}
	if fkCount == 0 {
		return nil
	}

	slog.Info("Rebuilding chapters table without foreign key constraint")
	_, err = tx.Exec(`
		CREATE TABLE chapters_new (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL,
			start REAL NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			href TEXT NOT NULL DEFAULT ''
		);
		INSERT INTO chapters_new (id, article_id, start, title, href)
			SELECT id, article_id, start, title, href FROM chapters;
		DROP TABLE chapters;
		ALTER TABLE chapters_new RENAME TO chapters;
		CREATE INDEX IF NOT EXISTS idx_chapters_article_id ON chapters(article_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to rebuild chapters table: %w", err)
	}
	return nil
}

// rebuildArticlesCompositePK migrates a legacy articles table keyed on id
// alone to the composite (id, feed_id) key. All rows are copied; afterwards
// every feed's cache validators are cleared so the next refresh repopulates
// rows that depended on the old shape.
func rebuildArticlesCompositePK(tx *sql.Tx) error {
	var feedIDPK int
	err := tx.QueryRow(`SELECT pk FROM pragma_table_info('articles') WHERE name = 'feed_id'`).Scan(&feedIDPK)
	if err == sql.ErrNoRows {
		return fmt.Errorf("articles table has no feed_id column")
	}
	if err != nil {
		return fmt.Errorf("failed to inspect articles primary key: %w", err)
	}
	if feedIDPK > 0 {
		return nil
	}

	slog.Info("Rebuilding articles table with composite primary key")
	_, err = tx.Exec(`
		CREATE TABLE articles_new (
			id TEXT NOT NULL,
			feed_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '0001-01-01 00:00:00',
			author TEXT NOT NULL DEFAULT '',
			is_read INTEGER NOT NULL DEFAULT 0,
			is_favorite INTEGER NOT NULL DEFAULT 0,
			media_url TEXT NOT NULL DEFAULT '',
			media_type TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (id, feed_id)
		);
		INSERT OR IGNORE INTO articles_new
			(id, feed_id, title, url, content, date, author, is_read, is_favorite, media_url, media_type)
			SELECT id, feed_id, title, url, content, date, author, is_read, is_favorite, media_url, media_type
			FROM articles;
		DROP TABLE articles;
		ALTER TABLE articles_new RENAME TO articles;
		CREATE INDEX IF NOT EXISTS idx_articles_feed_id ON articles(feed_id);
		CREATE INDEX IF NOT EXISTS idx_articles_date ON articles(date);
	`)
	if err != nil {
		return fmt.Errorf("failed to rebuild articles table: %w", err)
	}

	// Invalidate validators so the next refresh gets full bodies.
	if _, err := tx.Exec(`UPDATE feeds SET etag = '', last_modified = ''`); err != nil {
		return fmt.Errorf("failed to clear feed cache validators: %w", err)
	}
	return nil
}

// seedCategories backfills the categories table from existing feed category
// strings and guarantees the Uncategorized sentinel exists.
func seedCategories(tx *sql.Tx) error {
	_, err := tx.Exec(`
		INSERT OR IGNORE INTO categories (id, title)
			SELECT DISTINCT lower(hex(randomblob(16))), category FROM feeds
			WHERE category != '' AND category NOT IN (SELECT title FROM categories);
		INSERT OR IGNORE INTO categories (id, title)
			SELECT lower(hex(randomblob(16))), 'Uncategorized'
			WHERE NOT EXISTS (SELECT 1 FROM categories WHERE title = 'Uncategorized');
	`)
	if err != nil {
		return fmt.Errorf("failed to seed categories: %w", err)
	}
	return nil
}

func columnExists(tx *sql.Tx, table, column string) (bool, error) {
	var count int
	err := tx.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to inspect %s.%s: %w", table, column, err)
	}
	return count > 0, nil
}
