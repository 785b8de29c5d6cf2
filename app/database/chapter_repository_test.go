package database

import (
	"errors"
	"testing"
)

func TestReplaceChaptersRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedFeed(t, store, "f1", "https://a.example.com/rss")
	if _, err := store.Articles.UpsertArticle(Article{ID: "item-1", FeedID: "f1"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	chapters := []Chapter{
		{Start: 65, Title: "Segment 1"},
		{Start: 0, Title: "Intro"},
	}
	if err := store.Chapters.ReplaceChapters("item-1", chapters); err != nil {
		t.Fatalf("ReplaceChapters failed: %v", err)
	}

	got, err := store.Chapters.GetChapters("item-1")
	if err != nil {
		t.Fatalf("GetChapters failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 chapters, got %d", len(got))
	}
	// Ordered by start offset regardless of insert order.
	if got[0].Title != "Intro" || got[1].Title != "Segment 1" {
		t.Errorf("Expected [Intro, Segment 1], got [%s, %s]", got[0].Title, got[1].Title)
	}

	// Replacement removes the old set.
	if err := store.Chapters.ReplaceChapters("item-1", []Chapter{{Start: 10, Title: "Only"}}); err != nil {
		t.Fatalf("Second ReplaceChapters failed: %v", err)
	}
	got, err = store.Chapters.GetChapters("item-1")
	if err != nil {
		t.Fatalf("GetChapters failed: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Only" {
		t.Errorf("Expected single replaced chapter, got %+v", got)
	}
}

func TestReplaceChaptersMissingArticle(t *testing.T) {
	store := newTestStore(t)

	err := store.Chapters.ReplaceChapters("ghost", []Chapter{{Start: 0, Title: "Intro"}})
	if !errors.Is(err, ErrArticleMissing) {
		t.Fatalf("Expected ErrArticleMissing, got: %v", err)
	}

	var count int
	if err := store.DB.QueryRow(
		`SELECT COUNT(*) FROM chapters WHERE article_id = 'ghost'`,
	).Scan(&count); err != nil || count != 0 {
		t.Errorf("Expected zero persisted chapters, count=%d err=%v", count, err)
	}
}
