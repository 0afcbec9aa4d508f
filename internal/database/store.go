package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/privacylens/internal/model"
)

// FileName is the name of the database file inside the data directory.
const FileName = "privacylens.db"

// keyPrefix prefixes the storage key of every per-host record.
const keyPrefix = "PRIVACY_DATA_"

// Key returns the storage key for hostname.
func Key(hostname string) string {
	return keyPrefix + hostname
}

// Store persists snapshots and their scores per hostname.
type Store struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if needed.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// Now overrides the clock used for saved-at timestamps.
	Now func() time.Time
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the store inside dbDir.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	} else {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
		now:    opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	schema := `
	-- Current snapshot per host
	CREATE TABLE IF NOT EXISTS privacy_data (
		key TEXT PRIMARY KEY,
		hostname TEXT NOT NULL,
		url TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		score_json TEXT,
		updated_at TEXT NOT NULL
	);

	-- Every saved snapshot, newest last
	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		hostname TEXT NOT NULL,
		url TEXT NOT NULL,
		score INTEGER,
		rating TEXT,
		summary_json TEXT NOT NULL,
		captured_at TEXT,
		saved_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_hostname ON history(hostname);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Record is the stored state of one host.
type Record struct {
	Snapshot  *model.Snapshot
	Result    *model.ScoreResult
	UpdatedAt time.Time
}

// Save upserts the current record for the snapshot's hostname and appends a
// history row. result may be nil when the snapshot has not been scored.
func (s *Store) Save(ctx context.Context, snap *model.Snapshot, result *model.ScoreResult) error {
	if snap == nil {
		return ErrNilSnapshot
	}
	if snap.Hostname == "" {
		return ErrMissingHostname
	}

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to serialize snapshot: %w", err)
	}
	summaryJSON, err := json.Marshal(snap.Summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	var (
		scoreJSON sql.NullString
		score     sql.NullInt64
		rating    sql.NullString
	)
	if result != nil {
		b, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to serialize score: %w", err)
		}
		scoreJSON = sql.NullString{String: string(b), Valid: true}
		score = sql.NullInt64{Int64: int64(result.Score), Valid: true}
		rating = sql.NullString{String: result.Rating, Valid: true}
	}

	savedAt := s.now().UTC().Format(time.RFC3339Nano)
	var capturedAt sql.NullString
	if !snap.CapturedAt.IsZero() {
		capturedAt = sql.NullString{String: snap.CapturedAt.UTC().Format(time.RFC3339Nano), Valid: true}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	upsert := `
	INSERT INTO privacy_data (key, hostname, url, snapshot_json, score_json, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET
		url = excluded.url,
		snapshot_json = excluded.snapshot_json,
		score_json = excluded.score_json,
		updated_at = excluded.updated_at
	`
	if _, err := tx.ExecContext(ctx, upsert,
		Key(snap.Hostname), snap.Hostname, snap.URL, string(snapJSON), scoreJSON, savedAt,
	); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}

	insert := `
	INSERT INTO history (hostname, url, score, rating, summary_json, captured_at, saved_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insert,
		snap.Hostname, snap.URL, score, rating, string(summaryJSON), capturedAt, savedAt,
	); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Load returns the current snapshot for hostname, or nil when none is stored.
func (s *Store) Load(ctx context.Context, hostname string) (*model.Snapshot, error) {
	rec, err := s.LoadRecord(ctx, hostname)
	if err != nil || rec == nil {
		return nil, err
	}
	return rec.Snapshot, nil
}

// LoadRecord returns the current record for hostname, or nil when none is
// stored.
func (s *Store) LoadRecord(ctx context.Context, hostname string) (*Record, error) {
	query := `
	SELECT snapshot_json, score_json, updated_at
	FROM privacy_data
	WHERE key = ?
	`

	var (
		snapJSON  string
		scoreJSON sql.NullString
		updatedAt string
	)
	err := s.db.QueryRowContext(ctx, query, Key(hostname)).Scan(&snapJSON, &scoreJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	rec := &Record{UpdatedAt: parseTimestamp(updatedAt)}
	var snap model.Snapshot
	if err := json.Unmarshal([]byte(snapJSON), &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	rec.Snapshot = &snap

	if scoreJSON.Valid && scoreJSON.String != "" {
		var result model.ScoreResult
		if err := json.Unmarshal([]byte(scoreJSON.String), &result); err != nil {
			return nil, fmt.Errorf("failed to parse score: %w", err)
		}
		rec.Result = &result
	}
	return rec, nil
}

// HistoryEntry summarizes one saved snapshot.
type HistoryEntry struct {
	ID         int64
	Hostname   string
	URL        string
	Score      int
	Rating     string
	Summary    model.Summary
	CapturedAt time.Time
	SavedAt    time.Time
}

// History returns the saved snapshots of hostname, newest first. A limit of
// zero or less returns all of them.
func (s *Store) History(ctx context.Context, hostname string, limit int) ([]HistoryEntry, error) {
	query := `
	SELECT id, hostname, url, score, rating, summary_json, captured_at, saved_at
	FROM history
	WHERE hostname = ?
	ORDER BY id DESC
	`
	args := []any{hostname}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := make([]HistoryEntry, 0)
	for rows.Next() {
		var (
			e           HistoryEntry
			score       sql.NullInt64
			rating      sql.NullString
			summaryJSON string
			capturedAt  sql.NullString
			savedAt     string
		)
		if err := rows.Scan(&e.ID, &e.Hostname, &e.URL, &score, &rating, &summaryJSON, &capturedAt, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		e.Score = int(score.Int64)
		e.Rating = rating.String
		if capturedAt.Valid {
			e.CapturedAt = parseTimestamp(capturedAt.String)
		}
		e.SavedAt = parseTimestamp(savedAt)
		if err := json.Unmarshal([]byte(summaryJSON), &e.Summary); err != nil {
			continue // Skip malformed rows
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Hosts returns every hostname with a current record, sorted.
func (s *Store) Hosts(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT hostname FROM privacy_data ORDER BY hostname`)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	hosts := make([]string, 0)
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}
	return hosts, rows.Err()
}

// Delete removes the current record and the history of hostname. Deleting
// an unknown host is not an error.
func (s *Store) Delete(ctx context.Context, hostname string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM privacy_data WHERE key = ?`, Key(hostname)); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM history WHERE hostname = ?`, hostname); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return tx.Commit()
}

// timestampFormats are the formats timestamps may come back in.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses s with the known formats, returning the zero time
// when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
