package index

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagconcierge/compass/internal/store"
)

func newTestCoordinator(t *testing.T, s store.Store, sources ...Source) *Coordinator {
	t.Helper()
	r := NewRebuilder(s, RebuilderConfig{Sources: sources, Menu: testMenu})
	return NewCoordinator(s, r, 0)
}

func TestCoordinator_StatusIdle(t *testing.T) {
	s := newTestIndexStore(t)
	c := newTestCoordinator(t, s)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
	assert.Zero(t, status.StartedAt)
	assert.Zero(t, status.ElapsedSeconds)
}

func TestCoordinator_StatusRunning(t *testing.T) {
	s := newTestIndexStore(t)
	c := newTestCoordinator(t, s)
	ctx := context.Background()

	started := time.Now().Add(-42 * time.Second)
	ok, err := s.TryStartRebuild(ctx, started)
	require.NoError(t, err)
	require.True(t, ok)

	c.now = func() time.Time { return started.Add(42 * time.Second) }

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Running)
	assert.Equal(t, started.Unix(), status.StartedAt)
	assert.Equal(t, int64(42), status.ElapsedSeconds)
}

func TestCoordinator_ScheduleSetsSettingsFlagAndQueuesOnce(t *testing.T) {
	s := newTestIndexStore(t)
	c := newTestCoordinator(t, s)
	ctx := context.Background()

	// Scheduling twice queues a single rebuild and sets the one-shot flag.
	require.NoError(t, c.Schedule(ctx))
	require.NoError(t, c.Schedule(ctx))

	flagged, err := s.ConsumeSettingsReindex(ctx)
	require.NoError(t, err)
	assert.True(t, flagged)

	assert.Len(t, c.trigger, 1)
}

func TestCoordinator_RunExecutesScheduledRebuild(t *testing.T) {
	s := newTestIndexStore(t)
	src := &fakeSource{typ: store.TypeContent, pages: [][]Item{items(store.TypeContent, 1, 2)}}
	c := newTestCoordinator(t, s, src)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, c.Schedule(ctx))

	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool {
		n, err := s.CountByType(ctx, store.TypeContent)
		require.NoError(t, err)
		return n == 2
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Running)
}

func TestCoordinator_RunOnce(t *testing.T) {
	s := newTestIndexStore(t)
	src := &fakeSource{typ: store.TypeContent, pages: [][]Item{items(store.TypeContent, 1)}}
	c := newTestCoordinator(t, s, src)

	result, err := c.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Indexed)
}

func TestCoordinator_ClearStaleFlag(t *testing.T) {
	s := newTestIndexStore(t)
	c := newTestCoordinator(t, s)
	ctx := context.Background()

	ok, err := s.TryStartRebuild(ctx, time.Now())
	require.NoError(t, err)
	require.True(t, ok)

	c.ClearStaleFlag(ctx)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Running)
}

func TestCoordinator_ClearFlagIfStale_KeepsYoungFlag(t *testing.T) {
	s := newTestIndexStore(t)
	c := newTestCoordinator(t, s)
	ctx := context.Background()

	// A flag held for seconds may belong to a rebuild running in another
	// process; startup must leave it alone.
	started := time.Now()
	ok, err := s.TryStartRebuild(ctx, started)
	require.NoError(t, err)
	require.True(t, ok)

	c.now = func() time.Time { return started.Add(30 * time.Second) }
	c.ClearFlagIfStale(ctx, DefaultStaleFlagAge)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Running, "a live rebuild's flag must survive startup")
}

func TestCoordinator_ClearFlagIfStale_ClearsOldFlag(t *testing.T) {
	s := newTestIndexStore(t)
	c := newTestCoordinator(t, s)
	ctx := context.Background()

	started := time.Now().Add(-2 * DefaultStaleFlagAge)
	ok, err := s.TryStartRebuild(ctx, started)
	require.NoError(t, err)
	require.True(t, ok)

	c.ClearFlagIfStale(ctx, DefaultStaleFlagAge)

	status, err := c.Status(ctx)
	require.NoError(t, err)
	assert.False(t, status.Running)
}
