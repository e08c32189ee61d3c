package index

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tagconcierge/compass/internal/errors"
	"github.com/tagconcierge/compass/internal/store"
)

// Indexer applies single-item add, update and remove operations triggered by
// content mutation events. It keeps the index consistent with live content
// between full rebuilds.
type Indexer struct {
	store store.Store

	unavailableOnce sync.Once
}

// NewIndexer creates an Indexer over the given store.
func NewIndexer(s store.Store) *Indexer {
	return &Indexer{store: s}
}

// ItemSaved indexes a freshly created or updated item. Any existing entry for
// the id is removed first, across all types: an item's type can change
// between saves and the old row must not linger.
func (ix *Indexer) ItemSaved(ctx context.Context, it Item) error {
	if it.ID <= 0 {
		return errors.New(errors.ErrCodeInvalidInput,
			fmt.Sprintf("item id must be positive, got %d", it.ID), nil)
	}
	if it.Type == store.TypeSettings {
		return errors.New(errors.ErrCodeInvalidInput,
			"settings entries are owned by the rebuild engine", nil)
	}

	if err := ix.store.DeleteByItemID(ctx, it.ID); err != nil {
		return ix.degrade("delete stale entries", err)
	}

	entry := entryFromItem(it)
	if err := ix.store.Upsert(ctx, entry); err != nil {
		return ix.degrade("upsert entry", err)
	}

	slog.Debug("index_item_saved",
		slog.Int64("item_id", it.ID),
		slog.String("item_type", it.Type))
	return nil
}

// ItemDeleted removes all entries for the item id. Silent no-op when the
// item was never indexed.
func (ix *Indexer) ItemDeleted(ctx context.Context, itemID int64) error {
	if err := ix.store.DeleteByItemID(ctx, itemID); err != nil {
		return ix.degrade("delete entries", err)
	}

	slog.Debug("index_item_deleted", slog.Int64("item_id", itemID))
	return nil
}

// degrade downgrades a store-unavailable fault to a skipped operation,
// warning the operator once rather than per request. Other faults propagate.
func (ix *Indexer) degrade(op string, err error) error {
	if stderrors.Is(err, errors.ErrStoreUnavailable) {
		ix.unavailableOnce.Do(func() {
			slog.Warn("index_store_unavailable",
				slog.String("note", "indexing disabled until the store is reachable"))
		})
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// entryFromItem builds the denormalized index entry for an item.
func entryFromItem(it Item) *store.Entry {
	return &store.Entry{
		ItemID:       it.ID,
		ItemType:     it.Type,
		Title:        it.Title,
		Content:      it.SearchableContent(),
		EditURL:      it.EditURL,
		ThumbnailURL: it.ThumbnailURL,
		DateModified: it.ModifiedAt,
		DateCreated:  it.CreatedAt,
	}
}
