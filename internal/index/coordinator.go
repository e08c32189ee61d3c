package index

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tagconcierge/compass/internal/errors"
	"github.com/tagconcierge/compass/internal/store"
)

// Status reports the rebuild state to callers.
type Status struct {
	// Running is true while a rebuild holds the in-progress flag.
	Running bool `json:"isIndexing"`

	// StartedAt is the rebuild start in epoch seconds, 0 when idle.
	StartedAt int64 `json:"startedAt"`

	// ElapsedSeconds is now - startedAt, 0 when idle.
	ElapsedSeconds int64 `json:"elapsedSeconds"`
}

// Coordinator guards rebuild exclusivity and exposes the rebuild state.
// State machine: Idle -> Running -> Idle. The Idle -> Running transition is a
// single atomic compare-and-set against the persisted flag (in the store);
// Running -> Idle always succeeds and runs on every rebuild exit path.
//
// Both the manual "schedule rebuild" request and the recurring timer route
// through the same trigger; rebuilds execute serially on the Run loop.
type Coordinator struct {
	store     store.Store
	rebuilder *Rebuilder
	interval  time.Duration
	trigger   chan struct{}

	// now is swappable for tests.
	now func() time.Time
}

// NewCoordinator creates a Coordinator. interval is the recurring rebuild
// period; zero disables the timer.
func NewCoordinator(s store.Store, r *Rebuilder, interval time.Duration) *Coordinator {
	return &Coordinator{
		store:     s,
		rebuilder: r,
		interval:  interval,
		trigger:   make(chan struct{}, 1),
		now:       time.Now,
	}
}

// Status computes the current rebuild status from the persisted flag.
func (c *Coordinator) Status(ctx context.Context) (Status, error) {
	state, err := c.store.RebuildState(ctx)
	if err != nil {
		return Status{}, fmt.Errorf("read rebuild state: %w", err)
	}
	if !state.InProgress {
		return Status{}, nil
	}
	elapsed := int64(c.now().Sub(state.StartedAt).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return Status{
		Running:        true,
		StartedAt:      state.StartedAt.Unix(),
		ElapsedSeconds: elapsed,
	}, nil
}

// Schedule enqueues one rebuild as soon as possible and returns immediately.
// The manual path also requests the settings re-enumeration pass by setting
// the one-shot flag consumed by the next rebuild. Scheduling while a rebuild
// is running or already queued is a no-op.
func (c *Coordinator) Schedule(ctx context.Context) error {
	if err := c.store.RequestSettingsReindex(ctx); err != nil {
		return fmt.Errorf("request settings reindex: %w", err)
	}

	select {
	case c.trigger <- struct{}{}:
		slog.Info("rebuild_scheduled")
	default:
		// Already queued.
	}
	return nil
}

// Run executes rebuilds serially until ctx is cancelled: one per trigger and
// one per interval tick. It owns the only goroutine that invokes the
// rebuilder in a serving process.
func (c *Coordinator) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if c.interval > 0 {
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.trigger:
			c.runOne(ctx, "manual")
		case <-tick:
			c.runOne(ctx, "timer")
		}
	}
}

// RunOnce executes one rebuild synchronously. Used by the rebuild command.
func (c *Coordinator) RunOnce(ctx context.Context) (*RebuildResult, error) {
	return c.rebuilder.Run(ctx)
}

// runOne invokes the rebuilder, downgrading "already running" to a log line.
func (c *Coordinator) runOne(ctx context.Context, trigger string) {
	result, err := c.rebuilder.Run(ctx)
	switch {
	case stderrors.Is(err, errors.ErrRebuildRunning):
		slog.Info("rebuild_skipped_already_running", slog.String("trigger", trigger))
	case err != nil:
		slog.Error("rebuild_failed",
			slog.String("trigger", trigger),
			slog.String("error", err.Error()))
	default:
		slog.Info("rebuild_done",
			slog.String("trigger", trigger),
			slog.Int("indexed", result.Indexed),
			slog.Bool("partial", result.Partial))
	}
}

// DefaultStaleFlagAge is how long the rebuild flag may be held before it is
// treated as left behind by a dead process. Rebuilds are budget-bounded to
// seconds, so a flag this old cannot belong to a live run.
const DefaultStaleFlagAge = time.Hour

// ClearStaleFlag unconditionally clears a lingering rebuild flag. Only valid
// when no other process can be mid-rebuild, such as at shutdown after this
// process's run loop has stopped.
func (c *Coordinator) ClearStaleFlag(ctx context.Context) {
	state, err := c.store.RebuildState(ctx)
	if err != nil || !state.InProgress {
		return
	}
	c.clearFlag(ctx, state)
}

// ClearFlagIfStale clears the rebuild flag only when it has been held longer
// than maxAge. Used at startup, where a young flag may belong to a rebuild
// legitimately running in another process sharing the data directory.
func (c *Coordinator) ClearFlagIfStale(ctx context.Context, maxAge time.Duration) {
	state, err := c.store.RebuildState(ctx)
	if err != nil || !state.InProgress {
		return
	}
	if age := c.now().Sub(state.StartedAt); age < maxAge {
		slog.Info("rebuild_flag_held_elsewhere",
			slog.Int64("started_at", state.StartedAt.Unix()),
			slog.Int64("age_s", int64(age.Seconds())))
		return
	}
	c.clearFlag(ctx, state)
}

func (c *Coordinator) clearFlag(ctx context.Context, state store.RebuildState) {
	slog.Warn("rebuild_flag_stale_cleared",
		slog.Int64("started_at", state.StartedAt.Unix()))
	if err := c.store.FinishRebuild(ctx); err != nil {
		slog.Error("rebuild_flag_clear_failed", slog.String("error", err.Error()))
	}
}
