package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSubscriptions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "feeds.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write subscriptions file: %v", err)
	}
	return path
}

func TestLoadSubscriptions(t *testing.T) {
	path := writeSubscriptions(t, `
feeds:
  - id: daily-news
    url: https://example.com/rss
    title: Daily News
    category: News
  - url: https://example.org/podcast.xml
    extract_content: true
quirks:
  - host: npr.org
    skip_conditional: true
    force_no_cache: true
`)

	subs, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(subs.Feeds) != 2 {
		t.Fatalf("Expected 2 feeds, got %d", len(subs.Feeds))
	}
	if subs.Feeds[0].ID != "daily-news" {
		t.Errorf("Expected feed id 'daily-news', got '%s'", subs.Feeds[0].ID)
	}
	if subs.Feeds[0].Category != "News" {
		t.Errorf("Expected category 'News', got '%s'", subs.Feeds[0].Category)
	}
	if subs.Feeds[1].Category != "Uncategorized" {
		t.Errorf("Expected default category 'Uncategorized', got '%s'", subs.Feeds[1].Category)
	}
	if !subs.Feeds[1].ExtractContent {
		t.Error("Expected extract_content to be enabled for second feed")
	}

	if len(subs.Quirks) != 1 {
		t.Fatalf("Expected 1 quirk, got %d", len(subs.Quirks))
	}
	if subs.Quirks[0].Host != "npr.org" || !subs.Quirks[0].SkipConditional {
		t.Errorf("Unexpected quirk: %+v", subs.Quirks[0])
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	subs, err := NewLoader(filepath.Join(t.TempDir(), "nope.yml")).Load()
	if err != nil {
		t.Fatalf("Expected no error for missing file, got: %v", err)
	}
	if len(subs.Feeds) != 0 || len(subs.Quirks) != 0 {
		t.Errorf("Expected empty subscriptions, got %+v", subs)
	}
}

func TestLoadRejectsFeedWithoutURL(t *testing.T) {
	path := writeSubscriptions(t, "feeds:\n  - id: broken\n")
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Expected error for feed without URL")
	}
}

func TestLoadRejectsDuplicateIDs(t *testing.T) {
	path := writeSubscriptions(t, `
feeds:
  - id: dup
    url: https://a.example.com/rss
  - id: dup
    url: https://b.example.com/rss
`)
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Expected error for duplicate feed ids")
	}
}

func TestLoadRejectsNoopQuirk(t *testing.T) {
	path := writeSubscriptions(t, "quirks:\n  - host: example.com\n")
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("Expected error for quirk that enables no behavior")
	}
}
