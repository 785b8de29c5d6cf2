package database

import (
	"testing"
)

func int64Ptr(v int64) *int64 { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestPlaybackUpsertMergePreservesOmittedFields(t *testing.T) {
	store := newTestStore(t)

	err := store.Playback.Upsert(PlaybackState{
		ID:         "ep-1",
		PositionMs: 1000,
		DurationMs: int64Ptr(60000),
		Title:      strPtr("Episode 1"),
	})
	if err != nil {
		t.Fatalf("Initial upsert failed: %v", err)
	}

	// Position-only update: duration and title omitted.
	if err := store.Playback.Upsert(PlaybackState{ID: "ep-1", PositionMs: 5000}); err != nil {
		t.Fatalf("Position-only upsert failed: %v", err)
	}

	st, err := store.Playback.Get("ep-1")
	if err != nil || st == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st.PositionMs != 5000 {
		t.Errorf("Expected position 5000, got %d", st.PositionMs)
	}
	if st.DurationMs == nil || *st.DurationMs != 60000 {
		t.Errorf("Expected duration 60000 preserved, got %v", st.DurationMs)
	}
	if st.Title == nil || *st.Title != "Episode 1" {
		t.Errorf("Expected title preserved, got %v", st.Title)
	}
}

func TestPlaybackUpsertClampsAndNormalizes(t *testing.T) {
	store := newTestStore(t)

	err := store.Playback.Upsert(PlaybackState{
		ID:         "ep-1",
		PositionMs: -500,
		DurationMs: int64Ptr(0),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	st, err := store.Playback.Get("ep-1")
	if err != nil || st == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st.PositionMs != 0 {
		t.Errorf("Expected position clamped to 0, got %d", st.PositionMs)
	}
	if st.DurationMs != nil {
		t.Errorf("Expected non-positive duration stored as null, got %v", *st.DurationMs)
	}
	if st.UpdatedAt == 0 {
		t.Error("Expected updated_at to be defaulted")
	}
}

func TestPlaybackSetSeekSupported(t *testing.T) {
	store := newTestStore(t)

	err := store.Playback.Upsert(PlaybackState{
		ID:         "ep-1",
		PositionMs: 1234,
		Title:      strPtr("Episode 1"),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if err := store.Playback.SetSeekSupported("ep-1", true); err != nil {
		t.Fatalf("SetSeekSupported failed: %v", err)
	}

	st, err := store.Playback.Get("ep-1")
	if err != nil || st == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st.SeekSupported == nil || !*st.SeekSupported {
		t.Errorf("Expected seek_supported true, got %v", st.SeekSupported)
	}
	if st.PositionMs != 1234 {
		t.Errorf("Expected position untouched, got %d", st.PositionMs)
	}
	if st.Title == nil || *st.Title != "Episode 1" {
		t.Errorf("Expected title untouched, got %v", st.Title)
	}
}

func TestPlaybackSeekSupportedExplicitFalse(t *testing.T) {
	store := newTestStore(t)

	err := store.Playback.Upsert(PlaybackState{
		ID:            "ep-1",
		PositionMs:    0,
		SeekSupported: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Playback.SetSeekSupported("ep-1", false); err != nil {
		t.Fatalf("SetSeekSupported failed: %v", err)
	}

	st, err := store.Playback.Get("ep-1")
	if err != nil || st == nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st.SeekSupported == nil || *st.SeekSupported {
		t.Errorf("Expected seek_supported false, got %v", st.SeekSupported)
	}
}

func TestPlaybackGetMissing(t *testing.T) {
	store := newTestStore(t)

	st, err := store.Playback.Get("nope")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if st != nil {
		t.Errorf("Expected nil for missing state, got %+v", st)
	}
}

func TestPlaybackDeleteIdempotent(t *testing.T) {
	store := newTestStore(t)

	if err := store.Playback.Upsert(PlaybackState{ID: "ep-1", PositionMs: 10}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if err := store.Playback.Delete("ep-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Playback.Delete("ep-1"); err != nil {
		t.Fatalf("Repeated delete failed: %v", err)
	}
	if st, _ := store.Playback.Get("ep-1"); st != nil {
		t.Error("Expected state to be gone after delete")
	}
}
