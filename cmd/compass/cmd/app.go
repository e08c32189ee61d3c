package cmd

import (
	"log/slog"

	"github.com/tagconcierge/compass/internal/config"
	"github.com/tagconcierge/compass/internal/content"
	"github.com/tagconcierge/compass/internal/index"
	"github.com/tagconcierge/compass/internal/search"
	"github.com/tagconcierge/compass/internal/store"
)

// app wires the store, content repository, indexer, rebuilder, coordinator
// and query engine from configuration. Commands share this assembly.
type app struct {
	cfg         *config.Config
	store       store.Store
	repo        *content.Repo
	engine      *search.Engine
	indexer     *index.Indexer
	rebuilder   *index.Rebuilder
	coordinator *index.Coordinator

	closers []func() error
}

// newApp assembles the application. An unreachable index store degrades to
// the unavailable stub instead of failing: search returns empty results and
// indexing becomes a no-op until the store recovers.
func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	s, err := store.NewSQLiteStore(cfg.IndexPath())
	if err != nil {
		slog.Warn("index_store_unavailable",
			slog.String("path", cfg.IndexPath()),
			slog.String("error", err.Error()))
		a.store = store.NewUnavailable()
	} else {
		a.store = s
		a.closers = append(a.closers, s.Close)
	}

	repo, err := content.Open(cfg.ContentPath(), cfg.Content.BaseURL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.repo = repo
	a.closers = append(a.closers, repo.Close)

	a.indexer = index.NewIndexer(a.store)
	repo.SetHooks(a.indexer)

	a.engine, err = search.NewEngine(a.store, search.Config{
		MaxResults:    cfg.Index.MaxResults,
		PreviewLength: cfg.Index.PreviewLength,
		CacheSize:     cfg.Index.CacheSize,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.rebuilder = index.NewRebuilder(a.store, index.RebuilderConfig{
		Sources:    repo.Sources(cfg.Index.OrderBatchSize),
		Menu:       menuFromConfig(cfg.Menu),
		BatchSize:  cfg.Index.BatchSize,
		TimeBudget: cfg.TimeBudget(),
	})
	a.coordinator = index.NewCoordinator(a.store, a.rebuilder, cfg.RebuildInterval())

	return a, nil
}

// Close releases resources in reverse acquisition order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close_failed", slog.String("error", err.Error()))
		}
	}
}

// menuFromConfig converts configured menu entries to the index menu type.
func menuFromConfig(entries []config.MenuEntry) index.StaticMenu {
	menu := make(index.StaticMenu, 0, len(entries))
	for _, e := range entries {
		menu = append(menu, index.MenuEntry{
			Label:    e.Label,
			URL:      e.URL,
			Children: childMenu(e.Children),
		})
	}
	return menu
}

func childMenu(entries []config.MenuEntry) []index.MenuEntry {
	if len(entries) == 0 {
		return nil
	}
	children := make([]index.MenuEntry, 0, len(entries))
	for _, e := range entries {
		children = append(children, index.MenuEntry{Label: e.Label, URL: e.URL})
	}
	return children
}
