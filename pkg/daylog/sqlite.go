package daylog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore is the durable Store backing the CLI. It keeps a rolling
// window of RetentionDays; older rows are pruned after every append.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewSQLiteStore opens (or creates) the day-log database under dir.
func NewSQLiteStore(dir string, logger *slog.Logger) (*SQLiteStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dir, "daylog.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	logger.Debug("day-log store opened", "path", dbPath)
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		food TEXT NOT NULL DEFAULT '',
		sleep TEXT NOT NULL DEFAULT '',
		workout TEXT NOT NULL DEFAULT '',
		steps INTEGER NOT NULL DEFAULT 0,
		latitude REAL,
		longitude REAL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_created_at ON entries(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records an entry and prunes rows older than the retention window.
func (s *SQLiteStore) Append(ctx context.Context, entry DayEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now()
	}

	var lat, lon any
	if entry.Location != nil {
		lat, lon = entry.Location.Latitude, entry.Location.Longitude
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (created_at, food, sleep, workout, steps, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.CreatedAt.UTC(), entry.Food, entry.Sleep, entry.Workout, entry.Steps, lat, lon)
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}

	cutoff := s.now().AddDate(0, 0, -RetentionDays).UTC()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE created_at < ?`, cutoff); err != nil {
		// Pruning is housekeeping; the entry itself is already stored.
		s.logger.Warn("pruning old entries failed", "error", err)
	}
	return nil
}

// TodayEntries returns the current calendar day's entries, oldest first.
func (s *SQLiteStore) TodayEntries(ctx context.Context) ([]DayEntry, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return s.EntriesSince(ctx, start)
}

// EntriesSince returns entries at or after the given instant, oldest first.
func (s *SQLiteStore) EntriesSince(ctx context.Context, since time.Time) ([]DayEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at, food, sleep, workout, steps, latitude, longitude
		 FROM entries WHERE created_at >= ? ORDER BY created_at, id`,
		since.UTC())
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var out []DayEntry
	for rows.Next() {
		var e DayEntry
		var lat, lon sql.NullFloat64
		if err := rows.Scan(&e.CreatedAt, &e.Food, &e.Sleep, &e.Workout, &e.Steps, &lat, &lon); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		e.CreatedAt = e.CreatedAt.Local()
		if lat.Valid && lon.Valid {
			e.Location = &Location{Latitude: lat.Float64, Longitude: lon.Float64}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
