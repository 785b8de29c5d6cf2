package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// CategoryRepository handles database operations for categories
type CategoryRepository struct {
	db *DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// EnsureCategory returns the category with the given title, creating it if
// absent. An empty title maps to the Uncategorized sentinel.
func (r *CategoryRepository) EnsureCategory(title string) (*Category, error) {
	if title == "" {
		title = "Uncategorized"
	}

	var cat Category
	err := r.db.QueryRow(
		`SELECT id, title FROM categories WHERE title = ?`, title,
	).Scan(&cat.ID, &cat.Title)
	if err == nil {
		return &cat, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}

	cat = Category{ID: uuid.NewString(), Title: title}
	if _, err := r.db.Exec(
		`INSERT OR IGNORE INTO categories (id, title) VALUES (?, ?)`, cat.ID, cat.Title,
	); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	// Re-read in case a concurrent insert won the race.
	err = r.db.QueryRow(
		`SELECT id, title FROM categories WHERE title = ?`, title,
	).Scan(&cat.ID, &cat.Title)
	if err != nil {
		return nil, fmt.Errorf("failed to get category after insert: %w", err)
	}
	return &cat, nil
}

// RenameCategory changes a category's title and moves its feeds along
func (r *CategoryRepository) RenameCategory(id, newTitle string) error {
	if newTitle == "" {
		return fmt.Errorf("category title must not be empty")
	}

	old, err := r.getByID(id)
	if err != nil {
		return err
	}
	if old == nil {
		return fmt.Errorf("category %s not found", id)
	}
	if old.Title == "Uncategorized" {
		return fmt.Errorf("the Uncategorized category cannot be renamed")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE categories SET title = ? WHERE id = ?`, newTitle, id); err != nil {
		return fmt.Errorf("failed to rename category: %w", err)
	}
	if _, err := tx.Exec(`UPDATE feeds SET category = ? WHERE category = ?`, newTitle, old.Title); err != nil {
		return fmt.Errorf("failed to move feeds to renamed category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category rename: %w", err)
	}
	return nil
}

// DeleteCategory removes a category and moves its feeds to Uncategorized.
// The Uncategorized sentinel itself cannot be deleted.
func (r *CategoryRepository) DeleteCategory(id string) error {
	old, err := r.getByID(id)
	if err != nil {
		return err
	}
	if old == nil {
		return nil
	}
	if old.Title == "Uncategorized" {
		return fmt.Errorf("the Uncategorized category cannot be deleted")
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE feeds SET category = 'Uncategorized' WHERE category = ?`, old.Title); err != nil {
		return fmt.Errorf("failed to move feeds to Uncategorized: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category deletion: %w", err)
	}
	return nil
}

func (r *CategoryRepository) getByID(id string) (*Category, error) {
	var cat Category
	err := r.db.QueryRow(`SELECT id, title FROM categories WHERE id = ?`, id).Scan(&cat.ID, &cat.Title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &cat, nil
}

// GetAllCategories returns all categories ordered by title
func (r *CategoryRepository) GetAllCategories() ([]Category, error) {
	rows, err := r.db.Query(`SELECT id, title FROM categories ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.ID, &cat.Title); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, cat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating category rows: %w", err)
	}
	return categories, nil
}
