package database

import (
	"testing"
)

func TestEnsureCategory(t *testing.T) {
	store := newTestStore(t)

	cat, err := store.Categories.EnsureCategory("News")
	if err != nil {
		t.Fatalf("EnsureCategory failed: %v", err)
	}
	if cat.Title != "News" || cat.ID == "" {
		t.Errorf("Unexpected category: %+v", cat)
	}

	again, err := store.Categories.EnsureCategory("News")
	if err != nil {
		t.Fatalf("Repeated EnsureCategory failed: %v", err)
	}
	if again.ID != cat.ID {
		t.Errorf("Expected stable category id, got %s and %s", cat.ID, again.ID)
	}

	// Empty title maps to the sentinel.
	sentinel, err := store.Categories.EnsureCategory("")
	if err != nil {
		t.Fatalf("EnsureCategory failed: %v", err)
	}
	if sentinel.Title != "Uncategorized" {
		t.Errorf("Expected Uncategorized for empty title, got '%s'", sentinel.Title)
	}
}

func TestRenameCategoryMovesFeeds(t *testing.T) {
	store := newTestStore(t)

	cat, err := store.Categories.EnsureCategory("News")
	if err != nil {
		t.Fatalf("EnsureCategory failed: %v", err)
	}
	if err := store.Feeds.CreateFeed(Feed{ID: "f1", URL: "https://a.example.com/rss", Category: "News"}); err != nil {
		t.Fatalf("CreateFeed failed: %v", err)
	}

	if err := store.Categories.RenameCategory(cat.ID, "World News"); err != nil {
		t.Fatalf("RenameCategory failed: %v", err)
	}

	f, err := store.Feeds.GetFeed("f1")
	if err != nil || f == nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if f.Category != "World News" {
		t.Errorf("Expected feed moved to renamed category, got '%s'", f.Category)
	}
}

func TestDeleteCategoryMovesFeedsToSentinel(t *testing.T) {
	store := newTestStore(t)

	cat, err := store.Categories.EnsureCategory("News")
	if err != nil {
		t.Fatalf("EnsureCategory failed: %v", err)
	}
	if err := store.Feeds.CreateFeed(Feed{ID: "f1", URL: "https://a.example.com/rss", Category: "News"}); err != nil {
		t.Fatalf("CreateFeed failed: %v", err)
	}

	if err := store.Categories.DeleteCategory(cat.ID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	f, err := store.Feeds.GetFeed("f1")
	if err != nil || f == nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if f.Category != "Uncategorized" {
		t.Errorf("Expected feed moved to Uncategorized, got '%s'", f.Category)
	}

	// Deleting a missing category is a no-op.
	if err := store.Categories.DeleteCategory("nope"); err != nil {
		t.Errorf("Expected no-op delete, got: %v", err)
	}
}

func TestSentinelCategoryIsProtected(t *testing.T) {
	store := newTestStore(t)

	sentinel, err := store.Categories.EnsureCategory("Uncategorized")
	if err != nil {
		t.Fatalf("EnsureCategory failed: %v", err)
	}
	if err := store.Categories.DeleteCategory(sentinel.ID); err == nil {
		t.Error("Expected error deleting the Uncategorized sentinel")
	}
	if err := store.Categories.RenameCategory(sentinel.ID, "Other"); err == nil {
		t.Error("Expected error renaming the Uncategorized sentinel")
	}
}
