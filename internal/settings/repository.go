package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// Change sources recorded in the history table.
const (
	SourceDefaults = "defaults"
	SourceMQTT     = "mqtt"
)

// HistoryEntry is one accepted change.
type HistoryEntry struct {
	ID        int64
	Settings  vtx.Settings
	Source    string
	ChangedAt time.Time
}

// Repository defines persistence for desired settings.
type Repository interface {
	// Load returns the stored settings, or ErrNotFound.
	Load(ctx context.Context) (vtx.Settings, error)

	// Save replaces the stored settings and appends a history entry.
	Save(ctx context.Context, s vtx.Settings, source string) error

	// History returns up to limit entries, newest first.
	History(ctx context.Context, limit int) ([]HistoryEntry, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository over an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Load returns the stored settings.
func (r *SQLiteRepository) Load(ctx context.Context) (vtx.Settings, error) {
	var s vtx.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT band, channel, freq_mhz, lo_power, hi_power
		FROM vtx_settings
		WHERE id = 1`,
	).Scan(&s.Band, &s.Channel, &s.FrequencyMHz, &s.LoPower, &s.HiPower)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vtx.Settings{}, ErrNotFound
		}
		return vtx.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	return s, nil
}

// Save upserts the current record and appends to the history in one
// transaction.
func (r *SQLiteRepository) Save(ctx context.Context, s vtx.Settings, source string) error {
	ts := r.now().UTC().Format(time.RFC3339Nano)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO vtx_settings (id, band, channel, freq_mhz, lo_power, hi_power, updated_at)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			band = excluded.band,
			channel = excluded.channel,
			freq_mhz = excluded.freq_mhz,
			lo_power = excluded.lo_power,
			hi_power = excluded.hi_power,
			updated_at = excluded.updated_at`,
		s.Band, s.Channel, s.FrequencyMHz, s.LoPower, s.HiPower, ts,
	); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO vtx_settings_history (band, channel, freq_mhz, lo_power, hi_power, source, changed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.Band, s.Channel, s.FrequencyMHz, s.LoPower, s.HiPower, source, ts,
	); err != nil {
		return fmt.Errorf("recording settings history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}
	return nil
}

// History returns up to limit entries, newest first.
func (r *SQLiteRepository) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, band, channel, freq_mhz, lo_power, hi_power, source, changed_at
		FROM vtx_settings_history
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying settings history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var changedAt string
		if err := rows.Scan(&e.ID, &e.Settings.Band, &e.Settings.Channel, &e.Settings.FrequencyMHz,
			&e.Settings.LoPower, &e.Settings.HiPower, &e.Source, &changedAt); err != nil {
			return nil, fmt.Errorf("scanning settings history: %w", err)
		}
		e.ChangedAt, _ = time.Parse(time.RFC3339Nano, changedAt) //nolint:errcheck // Format is controlled
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating settings history: %w", err)
	}
	return entries, nil
}
