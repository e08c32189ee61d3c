// Package store implements the search index store backing compass.
package store

import (
	"context"
	"time"
)

// TypeSettings is the item type of synthetic, non-content-backed entries
// representing navigable admin destinations. Settings entries are wholesale
// deleted and regenerated on rebuild and never touched by the single-item
// upsert path.
const TypeSettings = "settings"

// Well-known item types for content-backed entries. The set is open:
// callers may index any type tag.
const (
	TypeContent = "content"
	TypeAsset   = "asset"
	TypeOrder   = "order"
)

// Entry is one row of the search index: a denormalized searchable unit.
type Entry struct {
	// ItemID is the backing content id, 0 for synthetic entries.
	ItemID int64

	// ItemType is the caller-defined type tag.
	ItemType string

	// Title is the short display string.
	Title string

	// Content is the searchable body text, with auxiliary fields
	// (alt text, SKU, billing fields) concatenated at index time.
	Content string

	// EditURL is the destination used on selection. Never empty for
	// content-backed entries.
	EditURL string

	// ThumbnailURL is an optional preview image URL.
	ThumbnailURL string

	// DateModified and DateCreated order results; they play no part in
	// uniqueness. Nil when the source record carries no timestamp.
	DateModified *time.Time
	DateCreated  *time.Time
}

// RebuildState reports the persisted rebuild flag.
type RebuildState struct {
	InProgress bool
	StartedAt  time.Time
}

// Store is the index store contract. All operations are atomic with respect
// to a single caller; the store implements no multi-row transactions across
// calls.
type Store interface {
	// Upsert inserts the entry or replaces all fields of the existing row
	// with the same (item_id, item_type). Uses the storage engine's native
	// upsert primitive, not read-then-write.
	Upsert(ctx context.Context, e *Entry) error

	// Insert force-inserts without the duplicate check. Used by the rebuild
	// path after the table has been cleared for the entry's type.
	Insert(ctx context.Context, e *Entry) error

	// DeleteByItemID removes all entries for the item id, across all types.
	// No-op when nothing matches.
	DeleteByItemID(ctx context.Context, itemID int64) error

	// DeleteWhereTypeNot removes all entries whose type differs from typ.
	DeleteWhereTypeNot(ctx context.Context, typ string) error

	// DeleteByType removes all entries of the given type.
	DeleteByType(ctx context.Context, typ string) error

	// Search runs a ranked LIKE lookup with the given escaped pattern.
	// Title matches rank above content-only matches, then recency
	// (modified falling back to created), then title, ascending.
	Search(ctx context.Context, pattern string, limit int) ([]*Entry, error)

	// Count returns the total number of entries.
	Count(ctx context.Context) (int, error)

	// CountByType returns the number of entries of the given type.
	CountByType(ctx context.Context, typ string) (int, error)

	// TryStartRebuild atomically flips the persisted rebuild flag from idle
	// to running. Returns false when a rebuild is already running.
	TryStartRebuild(ctx context.Context, startedAt time.Time) (bool, error)

	// FinishRebuild unconditionally clears the rebuild flag.
	FinishRebuild(ctx context.Context) error

	// RebuildState reads the persisted rebuild flag.
	RebuildState(ctx context.Context) (RebuildState, error)

	// RequestSettingsReindex sets the one-shot settings re-enumeration flag.
	RequestSettingsReindex(ctx context.Context) error

	// ConsumeSettingsReindex atomically reads and clears the one-shot flag.
	// Returns true at most once per request.
	ConsumeSettingsReindex(ctx context.Context) (bool, error)

	// Generation returns a counter incremented on every index mutation,
	// by any process sharing the backing database. Query caches key on it
	// so writes invalidate stale results.
	Generation(ctx context.Context) (uint64, error)

	// Purge drops every entry and all persisted index state. Mirrors
	// uninstall: a later open recreates an empty index.
	Purge(ctx context.Context) error

	// Close releases the store.
	Close() error
}

// State keys persisted outside the index rows.
const (
	stateKeyRebuildStarted  = "rebuild_started"
	stateKeySettingsReindex = "settings_reindex"
	stateKeySchemaVersion   = "schema_version"
	stateKeyGeneration      = "generation"
)

// CurrentSchemaVersion is the structural version of the index schema.
// A mismatch on open triggers a drop/recreate migration and a full rebuild.
const CurrentSchemaVersion = 1
