// Package search implements the ranked substring query engine.
package search

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tagconcierge/compass/internal/errors"
	"github.com/tagconcierge/compass/internal/store"
)

// DefaultMaxResults caps the result list.
const DefaultMaxResults = 15

// DefaultPreviewLength is the plain-text excerpt length in characters.
const DefaultPreviewLength = 120

// Result is one ranked search hit.
type Result struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	EditURL      string `json:"edit_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Preview      string `json:"preview"`
}

// Config configures the query engine.
type Config struct {
	// MaxResults caps the result list (DefaultMaxResults when zero).
	MaxResults int

	// PreviewLength is the excerpt length (DefaultPreviewLength when zero).
	PreviewLength int

	// CacheSize is the number of cached result lists. Zero disables the
	// cache.
	CacheSize int
}

// Engine executes ranked substring queries against the index store.
// Queries never block on rebuild state; a query during a rebuild may see a
// partially repopulated index.
type Engine struct {
	store      store.Store
	maxResults int
	previewLen int
	cache      *lru.Cache[string, []Result]

	unavailableOnce sync.Once
}

// NewEngine creates a query engine.
func NewEngine(s store.Store, cfg Config) (*Engine, error) {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = DefaultPreviewLength
	}

	e := &Engine{
		store:      s,
		maxResults: cfg.MaxResults,
		previewLen: cfg.PreviewLength,
	}

	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, []Result](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create query cache: %w", err)
		}
		e.cache = cache
	}

	return e, nil
}

// Search returns the ranked result list for term, capped at MaxResults.
// An empty or whitespace-only term returns an empty list without touching
// the store. Store faults degrade to an empty list.
func (e *Engine) Search(ctx context.Context, term string) ([]Result, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return []Result{}, nil
	}

	// Cache keys carry the persisted store generation: any index mutation,
	// from this process or another one sharing the database, moves the
	// generation forward and strands stale entries. When the generation
	// cannot be read the cache is bypassed rather than risk serving stale
	// results.
	var key string
	useCache := false
	if e.cache != nil {
		if gen, err := e.store.Generation(ctx); err == nil {
			useCache = true
			key = fmt.Sprintf("%d:%s", gen, strings.ToLower(trimmed))
			if cached, ok := e.cache.Get(key); ok {
				return cached, nil
			}
		}
	}

	entries, err := e.store.Search(ctx, likePattern(trimmed), e.maxResults)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.warnStoreFault(err)
		return []Result{}, nil
	}

	results := make([]Result, 0, len(entries))
	for _, entry := range entries {
		results = append(results, Result{
			ID:           entry.ItemID,
			Title:        entry.Title,
			Type:         entry.ItemType,
			EditURL:      entry.EditURL,
			ThumbnailURL: entry.ThumbnailURL,
			Preview:      Preview(entry.Content, e.previewLen),
		})
	}

	if useCache {
		e.cache.Add(key, results)
	}

	slog.Debug("search_executed",
		slog.String("term", trimmed),
		slog.Int("results", len(results)))

	return results, nil
}

// warnStoreFault downgrades store faults to empty results, warning the
// operator once for an unavailable backend rather than per request.
func (e *Engine) warnStoreFault(err error) {
	if stderrors.Is(err, errors.ErrStoreUnavailable) {
		e.unavailableOnce.Do(func() {
			slog.Warn("search_store_unavailable",
				slog.String("note", "search disabled until the store is reachable"))
		})
		return
	}
	slog.Warn("search_failed", slog.String("error", err.Error()))
}

// likePattern builds the LIKE pattern for a raw term. The term is treated as
// a literal substring: store wildcard metacharacters are escaped with a
// backslash. Spaces become wildcards so multi-word terms match across
// intervening text.
func likePattern(term string) string {
	var b strings.Builder
	b.Grow(len(term) + 8)
	b.WriteByte('%')
	for _, r := range term {
		switch r {
		case '\\', '%', '_':
			b.WriteByte('\\')
			b.WriteRune(r)
		case ' ':
			b.WriteByte('%')
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('%')
	return b.String()
}
