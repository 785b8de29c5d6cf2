package database

import (
	"database/sql"
	"fmt"
	"time"
)

// PlaybackRepository handles database operations for playback state
type PlaybackRepository struct {
	db *DB
}

// NewPlaybackRepository creates a new playback state repository
func NewPlaybackRepository(db *DB) *PlaybackRepository {
	return &PlaybackRepository{db: db}
}

// Get retrieves the playback state for a key, or nil if none is stored
func (r *PlaybackRepository) Get(id string) (*PlaybackState, error) {
	var st PlaybackState
	err := r.db.QueryRow(`
		SELECT id, position_ms, duration_ms, updated_at, completed, seek_supported, title
		FROM playback_state WHERE id = ?
	`, id).Scan(&st.ID, &st.PositionMs, &st.DurationMs, &st.UpdatedAt, &st.Completed, &st.SeekSupported, &st.Title)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get playback state: %w", err)
	}
	return &st, nil
}

// Upsert writes playback state with merge semantics: position, completed and
// updated_at always overwrite; duration, seek_supported and title only
// overwrite when provided, otherwise the stored values survive. Position is
// clamped to zero and a non-positive duration is treated as absent.
func (r *PlaybackRepository) Upsert(st PlaybackState) error {
	if st.PositionMs < 0 {
		st.PositionMs = 0
	}
	if st.DurationMs != nil && *st.DurationMs <= 0 {
		st.DurationMs = nil
	}
	if st.UpdatedAt == 0 {
		st.UpdatedAt = time.Now().Unix()
	}

	_, err := r.db.Exec(`
		INSERT INTO playback_state (id, position_ms, duration_ms, updated_at, completed, seek_supported, title)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position_ms = excluded.position_ms,
			updated_at = excluded.updated_at,
			completed = excluded.completed,
			duration_ms = CASE WHEN excluded.duration_ms IS NOT NULL THEN excluded.duration_ms ELSE playback_state.duration_ms END,
			seek_supported = CASE WHEN excluded.seek_supported IS NOT NULL THEN excluded.seek_supported ELSE playback_state.seek_supported END,
			title = CASE WHEN excluded.title IS NOT NULL THEN excluded.title ELSE playback_state.title END
	`, st.ID, st.PositionMs, st.DurationMs, st.UpdatedAt, st.Completed, st.SeekSupported, st.Title)
	if err != nil {
		return fmt.Errorf("failed to upsert playback state: %w", err)
	}
	return nil
}

// SetSeekSupported updates only the seek capability flag and the timestamp
func (r *PlaybackRepository) SetSeekSupported(id string, supported bool) error {
	_, err := r.db.Exec(`
		INSERT INTO playback_state (id, position_ms, updated_at, completed, seek_supported)
		VALUES (?, 0, ?, 0, ?)
		ON CONFLICT(id) DO UPDATE SET
			seek_supported = excluded.seek_supported,
			updated_at = excluded.updated_at
	`, id, time.Now().Unix(), supported)
	if err != nil {
		return fmt.Errorf("failed to set seek supported: %w", err)
	}
	return nil
}

// Delete removes the playback state for a key; deleting a missing key is a no-op
func (r *PlaybackRepository) Delete(id string) error {
	_, err := r.db.Exec(`DELETE FROM playback_state WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playback state: %w", err)
	}
	return nil
}
