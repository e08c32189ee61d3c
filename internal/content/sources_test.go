package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagconcierge/compass/internal/index"
	"github.com/tagconcierge/compass/internal/store"
)

func sourceByType(t *testing.T, repo *Repo, typ string) index.Source {
	t.Helper()
	for _, src := range repo.Sources(0) {
		if src.Type() == typ {
			return src
		}
	}
	t.Fatalf("no source for type %q", typ)
	return nil
}

func TestSources_Categories(t *testing.T) {
	repo, _ := newTestRepo(t)

	sources := repo.Sources(0)
	require.Len(t, sources, 3)

	types := make([]string, 0, len(sources))
	for _, src := range sources {
		types = append(types, src.Type())
	}
	assert.ElementsMatch(t, []string{store.TypeContent, store.TypeAsset, store.TypeOrder}, types)
}

func TestDocumentSource_PagesInIDOrder(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	var ids []int64
	for i := 0; i < 5; i++ {
		id, err := repo.CreateDocument(ctx, "Doc", "body")
		require.NoError(t, err)
		ids = append(ids, id)
	}

	src := sourceByType(t, repo, store.TypeContent)
	assert.Zero(t, src.BatchSize(), "documents use the rebuild default page size")
	assert.False(t, src.TracksSeen())

	page, err := src.Page(ctx, 0, 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, ids[:3], []int64{page[0].ID, page[1].ID, page[2].ID})

	page, err = src.Page(ctx, 3, 3)
	require.NoError(t, err)
	require.Len(t, page, 2)

	page, err = src.Page(ctx, 5, 3)
	require.NoError(t, err)
	assert.Empty(t, page, "an empty page ends the scan")
}

func TestOrderSource_SmallerBatchAndSeenTracking(t *testing.T) {
	repo, _ := newTestRepo(t)

	src := sourceByType(t, repo, store.TypeOrder)
	assert.Equal(t, OrderBatchSize, src.BatchSize())
	assert.True(t, src.TracksSeen(), "status changes reorder the listing mid-scan")
}

func TestOrderSource_CustomBatchSize(t *testing.T) {
	repo, _ := newTestRepo(t)

	for _, src := range repo.Sources(7) {
		if src.Type() == store.TypeOrder {
			assert.Equal(t, 7, src.BatchSize())
		}
	}
}

func TestAssetSource_ExtractsAltText(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.CreateAsset(ctx, "Diagram", "flow chart of the pipeline",
		"https://cdn/d.png", "https://cdn/d-thumb.png")
	require.NoError(t, err)

	src := sourceByType(t, repo, store.TypeAsset)
	page, err := src.Page(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "flow chart of the pipeline", page[0].Extra)
	assert.Equal(t, "https://cdn/d-thumb.png", page[0].ThumbnailURL)
}

func TestRebuild_FullPassOverRepo(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.CreateDocument(ctx, "Doc", "body text")
		require.NoError(t, err)
	}
	_, err := repo.CreateAsset(ctx, "Asset", "alt", "url", "")
	require.NoError(t, err)
	_, err = repo.CreateOrder(ctx, Order{Number: "00009", CustomerName: "Sam Okafor"})
	require.NoError(t, err)

	s, err := store.NewSQLiteStore("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	rebuilder := index.NewRebuilder(s, index.RebuilderConfig{
		Sources:    repo.Sources(0),
		TimeBudget: time.Minute,
	})
	result, err := rebuilder.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, result.Indexed)
	assert.False(t, result.Partial)

	for typ, want := range map[string]int{
		store.TypeContent: 3,
		store.TypeAsset:   1,
		store.TypeOrder:   1,
	} {
		n, err := s.CountByType(ctx, typ)
		require.NoError(t, err)
		assert.Equal(t, want, n, "type %s", typ)
	}
}

func TestGenerator_Reproducible(t *testing.T) {
	ctx := context.Background()

	corpus := func() []index.Item {
		repo, hooks := newTestRepo(t)
		gen := NewGenerator(repo, 42)
		require.NoError(t, gen.All(ctx, 5))
		return hooks.saved
	}

	first := corpus()
	second := corpus()
	require.Len(t, first, 15)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Title, second[i].Title)
	}
}

func TestGenerator_QueryTermsDrawFromVocabulary(t *testing.T) {
	repo, _ := newTestRepo(t)
	gen := NewGenerator(repo, 1)

	terms := gen.QueryTerms(20)
	require.Len(t, terms, 20)
	for _, term := range terms {
		assert.Contains(t, generatorContentWords, term)
	}
}
