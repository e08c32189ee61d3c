package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagconcierge/compass/internal/store"
)

func newTestIndexStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestIndexer_ItemSaved_Idempotent(t *testing.T) {
	s := newTestIndexStore(t)
	ix := NewIndexer(s)
	ctx := context.Background()

	modified := time.Now().Truncate(time.Second)
	item := Item{ID: 1, Type: store.TypeContent, Title: "Hello World",
		Content: "lorem ipsum", EditURL: "https://example.test/edit/1", ModifiedAt: &modified}

	// Saving the same item twice leaves exactly one entry with those fields.
	require.NoError(t, ix.ItemSaved(ctx, item))
	require.NoError(t, ix.ItemSaved(ctx, item))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	results, err := s.Search(ctx, "%hello%", 15)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Hello World", results[0].Title)
	assert.Equal(t, "lorem ipsum", results[0].Content)
}

func TestIndexer_ItemSaved_TypeChangeRemovesOldRow(t *testing.T) {
	s := newTestIndexStore(t)
	ix := NewIndexer(s)
	ctx := context.Background()

	require.NoError(t, ix.ItemSaved(ctx, Item{ID: 5, Type: store.TypeContent,
		Title: "Draft", EditURL: "u"}))
	require.NoError(t, ix.ItemSaved(ctx, Item{ID: 5, Type: store.TypeAsset,
		Title: "Promoted", EditURL: "u"}))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "old row with the previous type must not linger")

	assets, err := s.CountByType(ctx, store.TypeAsset)
	require.NoError(t, err)
	assert.Equal(t, 1, assets)
}

func TestIndexer_ItemSaved_ConcatenatesExtraContent(t *testing.T) {
	s := newTestIndexStore(t)
	ix := NewIndexer(s)
	ctx := context.Background()

	require.NoError(t, ix.ItemSaved(ctx, Item{ID: 9, Type: store.TypeOrder,
		Title: "Order #9", Content: "two widgets",
		Extra: "SKU-42 Jane Doe jane@example.test", EditURL: "u"}))

	results, err := s.Search(ctx, "%sku-42%", 15)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, int64(9), results[0].ItemID)
}

func TestIndexer_ItemSaved_RejectsInvalid(t *testing.T) {
	ix := NewIndexer(newTestIndexStore(t))
	ctx := context.Background()

	assert.Error(t, ix.ItemSaved(ctx, Item{ID: 0, Type: store.TypeContent, Title: "x"}))
	assert.Error(t, ix.ItemSaved(ctx, Item{ID: 1, Type: store.TypeSettings, Title: "x"}))
}

func TestIndexer_ItemDeleted(t *testing.T) {
	s := newTestIndexStore(t)
	ix := NewIndexer(s)
	ctx := context.Background()

	require.NoError(t, ix.ItemSaved(ctx, Item{ID: 1, Type: store.TypeContent,
		Title: "Hello World", Content: "lorem ipsum", EditURL: "u"}))

	require.NoError(t, ix.ItemDeleted(ctx, 1))

	results, err := s.Search(ctx, "%hello%", 15)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Deleting an unindexed item fails silently.
	require.NoError(t, ix.ItemDeleted(ctx, 42))
}

func TestIndexer_StoreUnavailable_DowngradesToNoOp(t *testing.T) {
	ix := NewIndexer(store.NewUnavailable())
	ctx := context.Background()

	assert.NoError(t, ix.ItemSaved(ctx, Item{ID: 1, Type: store.TypeContent, Title: "x", EditURL: "u"}))
	assert.NoError(t, ix.ItemDeleted(ctx, 1))
}
