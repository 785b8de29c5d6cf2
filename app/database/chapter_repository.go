package database

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrArticleMissing reports that a chapter write was skipped because the
// owning article row does not exist. Callers are expected to keep the
// computed chapters and move on.
var ErrArticleMissing = errors.New("owning article does not exist")

// ChapterRepository handles database operations for chapters
type ChapterRepository struct {
	db *DB
}

// NewChapterRepository creates a new chapter repository
func NewChapterRepository(db *DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

// ReplaceChapters atomically replaces the stored chapters for an article.
// If no article row with that id exists the write is refused with
// ErrArticleMissing and the table is left untouched.
func (r *ChapterRepository) ReplaceChapters(articleID string, chapters []Chapter) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin chapter transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM articles WHERE id = ?)`, articleID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check owning article: %w", err)
	}
	if !exists {
		return ErrArticleMissing
	}

	if _, err := tx.Exec(`DELETE FROM chapters WHERE article_id = ?`, articleID); err != nil {
		return fmt.Errorf("failed to delete old chapters: %w", err)
	}

	for _, ch := range chapters {
		id := ch.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.Exec(`
			INSERT INTO chapters (id, article_id, start, title, href)
			VALUES (?, ?, ?, ?, ?)
		`, id, articleID, ch.Start, ch.Title, ch.Href)
		if err != nil {
			if isForeignKeyViolation(err) {
				return ErrArticleMissing
			}
			return fmt.Errorf("failed to insert chapter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chapters: %w", err)
	}
	return nil
}

// GetChapters returns an article's chapters ordered by start offset
func (r *ChapterRepository) GetChapters(articleID string) ([]Chapter, error) {
	rows, err := r.db.Query(`
		SELECT id, article_id, start, title, href
		FROM chapters WHERE article_id = ? ORDER BY start
	`, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chapters: %w", err)
	}
	defer rows.Close()

	var chapters []Chapter
	for rows.Next() {
		var ch Chapter
		if err := rows.Scan(&ch.ID, &ch.ArticleID, &ch.Start, &ch.Title, &ch.Href); err != nil {
			return nil, fmt.Errorf("failed to scan chapter row: %w", err)
		}
		chapters = append(chapters, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chapter rows: %w", err)
	}
	return chapters, nil
}

// isForeignKeyViolation matches SQLite constraint errors raised by a foreign
// key check. Schemas migrated from older layouts may still carry the
// chapters->articles constraint until their first InitSchema run.
func isForeignKeyViolation(err error) bool {
	var coded interface{ Code() int }
	if !errors.As(err, &coded) {
		return false
	}
	// 787 = SQLITE_CONSTRAINT_FOREIGNKEY, 19 = SQLITE_CONSTRAINT.
	return coded.Code() == 787 || coded.Code() == 19
}
