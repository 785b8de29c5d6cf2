package database

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInitSchemaFreshDatabase(t *testing.T) {
	store := newTestStore(t)

	for _, table := range []string{"feeds", "articles", "categories", "chapters", "playback_state"} {
		var name string
		err := store.DB.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
		).Scan(&name)
		if err != nil {
			t.Errorf("Expected table %s to exist: %v", table, err)
		}
	}

	// The Uncategorized sentinel is seeded even on a fresh database.
	var count int
	if err := store.DB.QueryRow(
		`SELECT COUNT(*) FROM categories WHERE title = 'Uncategorized'`,
	).Scan(&count); err != nil || count != 1 {
		t.Errorf("Expected Uncategorized category, count=%d err=%v", count, err)
	}
}

func TestInitSchemaIdempotent(t *testing.T) {
	store := newTestStore(t)

	if err := InitSchema(store.DB); err != nil {
		t.Fatalf("Second InitSchema run failed: %v", err)
	}
	if err := InitSchema(store.DB); err != nil {
		t.Fatalf("Third InitSchema run failed: %v", err)
	}
}

// openLegacyDatabase creates a database in the pre-composite-key layout:
// articles keyed on id alone, no media columns, and chapters carrying a
// foreign key that assumes globally unique article ids.
func openLegacyDatabase(t *testing.T) (string, *sql.DB) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "legacy.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open legacy database: %v", err)
	}

	_, err = db.Exec(`
		CREATE TABLE feeds (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT 'Uncategorized',
			etag TEXT NOT NULL DEFAULT '',
			last_modified TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE articles (
			id TEXT PRIMARY KEY,
			feed_id TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '0001-01-01 00:00:00',
			author TEXT NOT NULL DEFAULT '',
			is_read INTEGER NOT NULL DEFAULT 0,
			is_favorite INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE chapters (
			id TEXT PRIMARY KEY,
			article_id TEXT NOT NULL REFERENCES articles(id),
			start REAL NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			href TEXT NOT NULL DEFAULT ''
		);
		INSERT INTO feeds (id, url, etag, last_modified)
			VALUES ('f1', 'https://a.example.com/rss', '"v1"', 'Mon, 01 Jan 2024 00:00:00 GMT');
		INSERT INTO feeds (id, url) VALUES ('f2', 'https://b.example.com/rss');
		INSERT INTO articles (id, feed_id, title, is_read) VALUES ('item-1', 'f1', 'First', 1);
		INSERT INTO chapters (id, article_id, start, title) VALUES ('c1', 'item-1', 0, 'Intro');
	`)
	if err != nil {
		t.Fatalf("Failed to populate legacy database: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Failed to close legacy database: %v", err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("Migration of legacy database failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return path, store.DB.DB
}

func TestMigrateLegacySinglePKArticles(t *testing.T) {
	_, db := openLegacyDatabase(t)

	// feed_id must now be part of the primary key.
	var pk int
	if err := db.QueryRow(
		`SELECT pk FROM pragma_table_info('articles') WHERE name = 'feed_id'`,
	).Scan(&pk); err != nil || pk == 0 {
		t.Errorf("Expected feed_id in primary key, pk=%d err=%v", pk, err)
	}

	// Existing rows survive the rebuild with their flags intact.
	var isRead bool
	if err := db.QueryRow(
		`SELECT is_read FROM articles WHERE id = 'item-1' AND feed_id = 'f1'`,
	).Scan(&isRead); err != nil || !isRead {
		t.Errorf("Expected migrated article to stay read, got %v err=%v", isRead, err)
	}

	// Duplicate ids across feeds are now legal.
	if _, err := db.Exec(
		`INSERT INTO articles (id, feed_id) VALUES ('item-1', 'f2')`,
	); err != nil {
		t.Errorf("Expected duplicate id across feeds to insert, got: %v", err)
	}

	// The chapters foreign key is gone and the chapter row survived.
	var fkCount int
	if err := db.QueryRow(
		`SELECT COUNT(*) FROM pragma_foreign_key_list('chapters')`,
	).Scan(&fkCount); err != nil || fkCount != 0 {
		t.Errorf("Expected no chapters foreign keys, count=%d err=%v", fkCount, err)
	}
	var chapterCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM chapters`).Scan(&chapterCount); err != nil || chapterCount != 1 {
		t.Errorf("Expected 1 surviving chapter, count=%d err=%v", chapterCount, err)
	}

	// Cache validators are invalidated so the next refresh repopulates.
	var etag, lastModified string
	if err := db.QueryRow(
		`SELECT etag, last_modified FROM feeds WHERE id = 'f1'`,
	).Scan(&etag, &lastModified); err != nil {
		t.Fatalf("Failed to read feed validators: %v", err)
	}
	if etag != "" || lastModified != "" {
		t.Errorf("Expected cleared validators, got etag=%q last_modified=%q", etag, lastModified)
	}

	// Media columns were added along the way.
	if _, err := db.Exec(
		`UPDATE articles SET media_url = 'https://a.example.com/ep.mp3' WHERE id = 'item-1' AND feed_id = 'f1'`,
	); err != nil {
		t.Errorf("Expected media_url column to exist: %v", err)
	}
}

func TestMigrateLegacyIsIdempotent(t *testing.T) {
	path, db := openLegacyDatabase(t)

	wrapped := &DB{DB: db}
	if err := InitSchema(wrapped); err != nil {
		t.Fatalf("Re-running migrations on migrated database failed: %v", err)
	}

	store, err := NewStore(path)
	if err != nil {
		t.Fatalf("Reopening migrated database failed: %v", err)
	}
	store.Close()
}
