package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// SQLiteStore implements Store using SQLite in WAL mode.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Verify interface implementation at compile time
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the index database at path.
// If path is empty, an in-memory store is created for testing.
// WAL mode plus a busy timeout gives concurrent readers and row-atomic
// writes without explicit table locks.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection: modernc.org/sqlite serializes writers anyway and
	// this keeps the busy-timeout path out of the hot loop.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL must be set via PRAGMA for modernc.org/sqlite; DSN params are ignored.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// migrate creates the schema, applying a drop/recreate migration when the
// stored schema version differs from CurrentSchemaVersion.
func (s *SQLiteStore) migrate() error {
	const stateSchema = `
	CREATE TABLE IF NOT EXISTS index_state (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	INSERT OR IGNORE INTO index_state (key, value) VALUES ('rebuild_started', '0');
	INSERT OR IGNORE INTO index_state (key, value) VALUES ('generation', '0');
	`
	if _, err := s.db.Exec(stateSchema); err != nil {
		return fmt.Errorf("create state schema: %w", err)
	}

	stored, err := s.getState(context.Background(), stateKeySchemaVersion)
	if err != nil {
		return err
	}

	if stored != "" && stored != strconv.Itoa(CurrentSchemaVersion) {
		// Structural migration: drop and recreate, then require a full
		// rebuild including the settings pass.
		slog.Warn("index_schema_migration",
			slog.String("from", stored),
			slog.Int("to", CurrentSchemaVersion))
		if _, err := s.db.Exec(`DROP TABLE IF EXISTS search_index`); err != nil {
			return fmt.Errorf("drop index table: %w", err)
		}
		if err := s.setState(context.Background(), stateKeySettingsReindex, "1"); err != nil {
			return err
		}
	}

	const indexSchema = `
	CREATE TABLE IF NOT EXISTS search_index (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		item_id INTEGER NOT NULL,
		item_type TEXT NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		edit_url TEXT NOT NULL,
		thumbnail_url TEXT NOT NULL DEFAULT '',
		date_modified INTEGER,
		date_created INTEGER
	);
	-- Uniqueness of (item_id, item_type) holds for content-backed entries.
	-- Synthetic entries share item_id = 0 and are exempt.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_item_key
		ON search_index(item_id, item_type) WHERE item_id != 0;
	CREATE INDEX IF NOT EXISTS idx_title ON search_index(title);
	CREATE INDEX IF NOT EXISTS idx_content ON search_index(content);
	`
	if _, err := s.db.Exec(indexSchema); err != nil {
		return fmt.Errorf("create index schema: %w", err)
	}

	return s.setState(context.Background(), stateKeySchemaVersion, strconv.Itoa(CurrentSchemaVersion))
}

// Upsert inserts or replaces the row keyed by (item_id, item_type) using the
// engine's native conflict clause, never read-check-insert.
func (s *SQLiteStore) Upsert(ctx context.Context, e *Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_index
			(item_id, item_type, title, content, edit_url, thumbnail_url, date_modified, date_created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(item_id, item_type) WHERE item_id != 0 DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			edit_url = excluded.edit_url,
			thumbnail_url = excluded.thumbnail_url,
			date_modified = excluded.date_modified,
			date_created = excluded.date_created
	`, e.ItemID, e.ItemType, e.Title, e.Content, e.EditURL, e.ThumbnailURL,
		unixOrNil(e.DateModified), unixOrNil(e.DateCreated))
	if err != nil {
		return fmt.Errorf("upsert entry (%d, %s): %w", e.ItemID, e.ItemType, err)
	}
	return s.bumpGeneration(ctx)
}

// Insert force-inserts without the duplicate check. Only valid when the
// caller just cleared the table for this entry's type (rebuild path).
func (s *SQLiteStore) Insert(ctx context.Context, e *Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_index
			(item_id, item_type, title, content, edit_url, thumbnail_url, date_modified, date_created)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ItemID, e.ItemType, e.Title, e.Content, e.EditURL, e.ThumbnailURL,
		unixOrNil(e.DateModified), unixOrNil(e.DateCreated))
	if err != nil {
		return fmt.Errorf("insert entry (%d, %s): %w", e.ItemID, e.ItemType, err)
	}
	return s.bumpGeneration(ctx)
}

// DeleteByItemID removes all entries for the item id, across all types.
func (s *SQLiteStore) DeleteByItemID(ctx context.Context, itemID int64) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM search_index WHERE item_id = ?`, itemID); err != nil {
		return fmt.Errorf("delete entries for item %d: %w", itemID, err)
	}
	return s.bumpGeneration(ctx)
}

// DeleteWhereTypeNot removes all entries whose type differs from typ.
func (s *SQLiteStore) DeleteWhereTypeNot(ctx context.Context, typ string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM search_index WHERE item_type != ?`, typ); err != nil {
		return fmt.Errorf("delete entries where type != %s: %w", typ, err)
	}
	return s.bumpGeneration(ctx)
}

// DeleteByType removes all entries of the given type.
func (s *SQLiteStore) DeleteByType(ctx context.Context, typ string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM search_index WHERE item_type = ?`, typ); err != nil {
		return fmt.Errorf("delete entries of type %s: %w", typ, err)
	}
	return s.bumpGeneration(ctx)
}

// Search runs the ranked LIKE lookup. The pattern must already be
// wildcard-escaped by the caller; backslash is the escape character.
// Title matches rank above content-only matches, then recency, then title.
func (s *SQLiteStore) Search(ctx context.Context, pattern string, limit int) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, item_type, title, content, edit_url, thumbnail_url,
		       date_modified, date_created
		FROM search_index
		WHERE title LIKE ?1 ESCAPE '\' OR content LIKE ?1 ESCAPE '\'
		ORDER BY
			CASE WHEN title LIKE ?1 ESCAPE '\' THEN 1 ELSE 2 END,
			COALESCE(date_modified, date_created) DESC,
			title COLLATE NOCASE ASC
		LIMIT ?2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", pattern, err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var modified, created sql.NullInt64
		if err := rows.Scan(&e.ItemID, &e.ItemType, &e.Title, &e.Content,
			&e.EditURL, &e.ThumbnailURL, &modified, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.DateModified = timeOrNil(modified)
		e.DateCreated = timeOrNil(created)
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Count returns the total number of entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM search_index`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// CountByType returns the number of entries of the given type.
func (s *SQLiteStore) CountByType(ctx context.Context, typ string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM search_index WHERE item_type = ?`, typ).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries of type %s: %w", typ, err)
	}
	return n, nil
}

// TryStartRebuild flips the rebuild flag from idle to running in a single
// conditional UPDATE. Two racing invocations cannot both observe idle: the
// statement is atomic and only one caller sees a row affected.
func (s *SQLiteStore) TryStartRebuild(ctx context.Context, startedAt time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE index_state SET value = ?
		WHERE key = ? AND value = '0'
	`, strconv.FormatInt(startedAt.Unix(), 10), stateKeyRebuildStarted)
	if err != nil {
		return false, fmt.Errorf("start rebuild: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("start rebuild rows: %w", err)
	}
	return n == 1, nil
}

// FinishRebuild clears the rebuild flag unconditionally. Safe to call from
// every exit path, including fault handling.
func (s *SQLiteStore) FinishRebuild(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO index_state (key, value) VALUES (?, '0')
		ON CONFLICT(key) DO UPDATE SET value = '0'
	`, stateKeyRebuildStarted); err != nil {
		return fmt.Errorf("finish rebuild: %w", err)
	}
	return nil
}

// RebuildState reads the persisted rebuild flag.
func (s *SQLiteStore) RebuildState(ctx context.Context) (RebuildState, error) {
	value, err := s.getState(ctx, stateKeyRebuildStarted)
	if err != nil {
		return RebuildState{}, err
	}
	if value == "" || value == "0" {
		return RebuildState{}, nil
	}
	epoch, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return RebuildState{}, fmt.Errorf("parse rebuild timestamp %q: %w", value, err)
	}
	return RebuildState{InProgress: true, StartedAt: time.Unix(epoch, 0)}, nil
}

// RequestSettingsReindex sets the one-shot settings re-enumeration flag.
func (s *SQLiteStore) RequestSettingsReindex(ctx context.Context) error {
	return s.setState(ctx, stateKeySettingsReindex, "1")
}

// ConsumeSettingsReindex clears the one-shot flag, reporting whether it was
// set. The DELETE is atomic, so concurrent consumers cannot both observe it.
func (s *SQLiteStore) ConsumeSettingsReindex(ctx context.Context) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM index_state WHERE key = ?`, stateKeySettingsReindex)
	if err != nil {
		return false, fmt.Errorf("consume settings flag: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("consume settings flag rows: %w", err)
	}
	return n == 1, nil
}

// Generation returns the mutation counter used for query-cache keys. The
// counter lives in index_state so mutations from other processes sharing the
// database file also advance it.
func (s *SQLiteStore) Generation(ctx context.Context) (uint64, error) {
	value, err := s.getState(ctx, stateKeyGeneration)
	if err != nil {
		return 0, err
	}
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse generation %q: %w", value, err)
	}
	return n, nil
}

// bumpGeneration advances the persisted mutation counter.
func (s *SQLiteStore) bumpGeneration(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		UPDATE index_state SET value = CAST(value AS INTEGER) + 1 WHERE key = ?
	`, stateKeyGeneration); err != nil {
		return fmt.Errorf("bump generation: %w", err)
	}
	return nil
}

// Purge drops the index tables and state. Used by the purge command
// (uninstall parity).
func (s *SQLiteStore) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `
		DROP TABLE IF EXISTS search_index;
		DROP TABLE IF EXISTS index_state;
	`); err != nil {
		return fmt.Errorf("purge index: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) getState(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM index_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get state %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) setState(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO index_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value); err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

// unixOrNil converts an optional time to a nullable epoch value.
func unixOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

// timeOrNil converts a nullable epoch value back to an optional time.
func timeOrNil(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0)
	return &t
}
