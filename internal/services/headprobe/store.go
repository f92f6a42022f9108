package headprobe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pod2aria/internal/naming"
)

// timestampLayout is fixed width so checked_at sorts lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// Store persists probe outcomes in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Stats summarizes the cache contents.
type Stats struct {
	Path    string
	Entries int
	Named   int
	Oldest  time.Time
	Newest  time.Time
}

// Open initializes or connects to the probe cache at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("probe cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create probe cache directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Lookup returns the cached outcome for rawURL if it was recorded within ttl.
// A non-positive ttl accepts any age.
func (s *Store) Lookup(ctx context.Context, rawURL string, ttl time.Duration) (*naming.ProbeResult, bool, error) {
	var (
		named     bool
		filename  sql.NullString
		checkedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT has_named_attachment, filename, checked_at FROM probe_results WHERE url = ?`,
		rawURL,
	).Scan(&named, &filename, &checkedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("lookup probe result: %w", err)
	}

	checked, err := time.Parse(timestampLayout, checkedAt)
	if err != nil {
		return nil, false, fmt.Errorf("parse checked_at %q: %w", checkedAt, err)
	}
	if ttl > 0 && s.now().Sub(checked) > ttl {
		return nil, false, nil
	}
	return &naming.ProbeResult{HasNamedAttachment: named, Filename: filename.String}, true, nil
}

// Save records a successful probe outcome.
func (s *Store) Save(ctx context.Context, rawURL string, result *naming.ProbeResult) error {
	if result == nil {
		return errors.New("nil probe result")
	}
	timestamp := s.now().UTC().Format(timestampLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO probe_results (url, has_named_attachment, filename, checked_at)
         VALUES (?, ?, ?, ?)
         ON CONFLICT(url) DO UPDATE SET
             has_named_attachment = excluded.has_named_attachment,
             filename = excluded.filename,
             checked_at = excluded.checked_at`,
		rawURL,
		result.HasNamedAttachment,
		nullableString(result.Filename),
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("save probe result: %w", err)
	}
	return nil
}

// Stats reports entry counts and the age range of the cache.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	var oldest, newest sql.NullString
	var named sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1), SUM(has_named_attachment), MIN(checked_at), MAX(checked_at) FROM probe_results`,
	).Scan(&stats.Entries, &named, &oldest, &newest)
	if err != nil {
		return stats, fmt.Errorf("probe cache stats: %w", err)
	}
	stats.Named = int(named.Int64)
	if oldest.Valid {
		stats.Oldest, _ = time.Parse(timestampLayout, oldest.String)
	}
	if newest.Valid {
		stats.Newest, _ = time.Parse(timestampLayout, newest.String)
	}
	return stats, nil
}

// Clear removes every cached outcome and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM probe_results`)
	if err != nil {
		return 0, fmt.Errorf("clear probe cache: %w", err)
	}
	return res.RowsAffected()
}

// Prune removes outcomes older than ttl.
func (s *Store) Prune(ctx context.Context, ttl time.Duration) (int64, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-ttl).UTC().Format(timestampLayout)
	res, err := s.db.ExecContext(ctx, `DELETE FROM probe_results WHERE checked_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune probe cache: %w", err)
	}
	return res.RowsAffected()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
