package index

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tagconcierge/compass/internal/errors"
	"github.com/tagconcierge/compass/internal/store"
)

// DefaultBatchSize is the rebuild page size when a source does not request
// its own.
const DefaultBatchSize = 100

// RebuilderConfig configures the batch rebuild engine.
type RebuilderConfig struct {
	// Sources are walked in order on every rebuild. The order is fixed and
	// deterministic.
	Sources []Source

	// Menu supplies the settings entries. Optional; without it the
	// settings pass is skipped.
	Menu MenuProvider

	// BatchSize is the default page size (DefaultBatchSize when zero).
	BatchSize int

	// TimeBudget bounds one rebuild invocation. When exhausted, the scan
	// stops at the next page boundary and the remaining sources are left
	// for the next scheduled rebuild. Zero means unbounded.
	TimeBudget time.Duration

	// EditURLFallback builds a synthetic edit URL for items whose resolver
	// yielded none. Defaults to defaultEditURL.
	EditURLFallback func(Item) string
}

// RebuildResult is the outcome of one rebuild invocation.
type RebuildResult struct {
	// Indexed is the number of content entries inserted.
	Indexed int

	// Settings is the number of settings entries regenerated, or -1 when
	// the settings pass did not run.
	Settings int

	// Partial reports that the time budget ran out (or the context was
	// cancelled) before all sources were scanned. Not an error; the next
	// scheduled rebuild completes the index.
	Partial bool

	// Duration is the total rebuild time.
	Duration time.Duration
}

// Rebuilder repopulates the index from the full corpus in bounded pages,
// surviving external time constraints and never leaving the index without
// its settings entries.
type Rebuilder struct {
	store store.Store
	cfg   RebuilderConfig
}

// NewRebuilder creates a Rebuilder.
func NewRebuilder(s store.Store, cfg RebuilderConfig) *Rebuilder {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.EditURLFallback == nil {
		cfg.EditURLFallback = defaultEditURL
	}
	return &Rebuilder{store: s, cfg: cfg}
}

// Run executes one full rebuild. If a rebuild is already in progress it
// aborts immediately with errors.ErrRebuildRunning without touching the
// store; callers treat that as a no-op, not a failure.
//
// The in-progress flag is cleared on every exit path: completion, early
// termination on budget exhaustion, error, or panic.
func (r *Rebuilder) Run(ctx context.Context) (result *RebuildResult, err error) {
	start := time.Now()

	ok, err := r.store.TryStartRebuild(ctx, start)
	if err != nil {
		return nil, fmt.Errorf("acquire rebuild flag: %w", err)
	}
	if !ok {
		return nil, errors.ErrRebuildRunning
	}

	// The finish transition must survive cancellation and panics.
	defer func() {
		finishCtx := context.WithoutCancel(ctx)
		if ferr := r.store.FinishRebuild(finishCtx); ferr != nil {
			slog.Error("rebuild_finish_flag_failed", slog.String("error", ferr.Error()))
			if err == nil {
				err = ferr
			}
		}
	}()

	result = &RebuildResult{Settings: -1}

	// Settings pass first: the one-shot flag is consumed exactly once and
	// settings entries are regenerated wholesale, so the index is never
	// briefly empty of them during the corpus scan below.
	requested, err := r.store.ConsumeSettingsReindex(ctx)
	if err != nil {
		return nil, fmt.Errorf("consume settings flag: %w", err)
	}
	if requested {
		n, serr := r.reindexSettings(ctx)
		if serr != nil {
			slog.Warn("rebuild_settings_failed", slog.String("error", serr.Error()))
		} else {
			result.Settings = n
		}
	}

	// Clear everything except settings entries, then repopulate.
	if err := r.store.DeleteWhereTypeNot(ctx, store.TypeSettings); err != nil {
		return nil, fmt.Errorf("clear index: %w", err)
	}

	budget := newBudget(start, r.cfg.TimeBudget)

	for _, src := range r.cfg.Sources {
		n, partial, err := r.scanSource(ctx, src, budget)
		result.Indexed += n
		if err != nil {
			slog.Warn("rebuild_source_failed",
				slog.String("source", src.Type()),
				slog.String("error", err.Error()))
			continue
		}
		if partial {
			result.Partial = true
			break
		}
	}

	result.Duration = time.Since(start)

	slog.Info("rebuild_complete",
		slog.Int("indexed", result.Indexed),
		slog.Int("settings", result.Settings),
		slog.Bool("partial", result.Partial),
		slog.Int64("duration_ms", result.Duration.Milliseconds()))

	return result, nil
}

// scanSource pages through one source, force-inserting entries. Returns the
// inserted count and whether the scan stopped early on the budget signal.
func (r *Rebuilder) scanSource(ctx context.Context, src Source, budget *budget) (int, bool, error) {
	limit := src.BatchSize()
	if limit <= 0 {
		limit = r.cfg.BatchSize
	}

	var seen map[int64]struct{}
	if src.TracksSeen() {
		seen = make(map[int64]struct{})
	}

	var indexed int
	for offset := 0; ; offset += limit {
		// Budget check at page boundaries only, never mid-page.
		if budget.exhausted() || ctx.Err() != nil {
			slog.Info("rebuild_budget_exhausted",
				slog.String("source", src.Type()),
				slog.Int("indexed", indexed))
			return indexed, true, nil
		}

		items, err := src.Page(ctx, offset, limit)
		if err != nil {
			return indexed, false, errors.Wrap(errors.ErrCodeSourceFailed, err).
				WithDetail("source", src.Type())
		}
		if len(items) == 0 {
			return indexed, false, nil
		}

		for _, it := range items {
			if seen != nil {
				if _, dup := seen[it.ID]; dup {
					continue
				}
				seen[it.ID] = struct{}{}
			}

			entry := entryFromItem(it)
			if entry.EditURL == "" {
				entry.EditURL = r.cfg.EditURLFallback(it)
			}
			// The table was just cleared for this type: force-insert,
			// skipping the duplicate-check upsert path.
			if err := r.store.Insert(ctx, entry); err != nil {
				slog.Warn("rebuild_insert_failed",
					slog.Int64("item_id", it.ID),
					slog.String("item_type", it.Type),
					slog.String("error", err.Error()))
				continue
			}
			indexed++
		}

		if len(items) < limit {
			return indexed, false, nil
		}
	}
}

// reindexSettings wholesale regenerates the settings entries from the menu
// collaborator: one entry per top-level destination and one per child.
func (r *Rebuilder) reindexSettings(ctx context.Context) (int, error) {
	if r.cfg.Menu == nil {
		return 0, nil
	}

	menu, err := r.cfg.Menu.Menu(ctx)
	if err != nil {
		return 0, fmt.Errorf("enumerate menu: %w", err)
	}

	if err := r.store.DeleteByType(ctx, store.TypeSettings); err != nil {
		return 0, fmt.Errorf("clear settings entries: %w", err)
	}

	var indexed int
	for _, entry := range menu {
		if entry.Label == "" {
			continue
		}
		if err := r.store.Insert(ctx, &store.Entry{
			ItemID:   0,
			ItemType: store.TypeSettings,
			Title:    entry.Label,
			Content:  settingsContent(entry.Label),
			EditURL:  entry.URL,
		}); err != nil {
			return indexed, fmt.Errorf("insert settings entry %q: %w", entry.Label, err)
		}
		indexed++

		for _, child := range entry.Children {
			if child.Label == "" {
				continue
			}
			if err := r.store.Insert(ctx, &store.Entry{
				ItemID:   0,
				ItemType: store.TypeSettings,
				Title:    entry.Label + " - " + child.Label,
				Content:  settingsChildContent(entry.Label, child.Label),
				EditURL:  child.URL,
			}); err != nil {
				return indexed, fmt.Errorf("insert settings entry %q: %w", child.Label, err)
			}
			indexed++
		}
	}

	slog.Info("rebuild_settings_complete", slog.Int("entries", indexed))
	return indexed, nil
}

// budget is the per-run time budget checked at page boundaries.
type budget struct {
	start time.Time
	limit time.Duration
}

func newBudget(start time.Time, limit time.Duration) *budget {
	return &budget{start: start, limit: limit}
}

func (b *budget) exhausted() bool {
	return b.limit > 0 && time.Since(b.start) >= b.limit
}

// defaultEditURL is the synthetic destination for items without a resolvable
// edit URL.
func defaultEditURL(it Item) string {
	return fmt.Sprintf("compass://items/%d?type=%s", it.ID, it.Type)
}
