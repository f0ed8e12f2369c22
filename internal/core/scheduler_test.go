package core

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(name string, at time.Time) HistoryEntry {
	return HistoryEntry{ID: uuid.New(), Filename: name, CreatedAt: at}
}

func filenames(entries []HistoryEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Filename
	}
	return out
}

func TestMemoryHistory_Prune(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	h := NewMemoryHistory(3)
	for i, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, h.Record(ctx, entryAt(name, base.Add(time.Duration(i)*time.Hour))))
	}

	// "a" already fell out of the ring; "b" is older than the cutoff.
	n, err := h.Prune(ctx, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, _ := h.Recent(ctx, 0)
	assert.Equal(t, []string{"d", "c"}, filenames(got))

	// The ring keeps working after a prune.
	require.NoError(t, h.Record(ctx, entryAt("e", base.Add(4*time.Hour))))
	require.NoError(t, h.Record(ctx, entryAt("f", base.Add(5*time.Hour))))
	got, _ = h.Recent(ctx, 0)
	assert.Equal(t, []string{"f", "e", "d"}, filenames(got))
}

func TestMemoryHistory_PruneNothing(t *testing.T) {
	ctx := context.Background()
	h := NewMemoryHistory(2)
	now := time.Now()
	require.NoError(t, h.Record(ctx, entryAt("a", now)))
	require.NoError(t, h.Record(ctx, entryAt("b", now)))

	n, err := h.Prune(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)

	got, _ := h.Recent(ctx, 0)
	assert.Equal(t, []string{"b", "a"}, filenames(got))
}

type failingPruner struct{}

func (*failingPruner) Prune(context.Context, time.Time) (int64, error) {
	return 0, errors.New("connection refused")
}

func TestService_StartHistoryPruner(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Retention = time.Hour
	cfg.History.PruneInterval = 10 * time.Millisecond

	history := NewMemoryHistory(10)
	svc, logs := newTestService(t, cfg, history)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	ctx := context.Background()
	require.NoError(t, history.Record(ctx, entryAt("old", now.Add(-2*time.Hour))))
	require.NoError(t, history.Record(ctx, entryAt("new", now.Add(-time.Minute))))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		svc.StartHistoryPruner(runCtx)
	}()

	require.Eventually(t, func() bool {
		got, _ := history.Recent(ctx, 0)
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	got, _ := history.Recent(ctx, 0)
	assert.Equal(t, []string{"new"}, filenames(got))
	assert.Contains(t, logs.String(), "history pruner stopped")
}

func TestService_StartHistoryPruner_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.History.Retention = 0
	svc, logs := newTestService(t, cfg, nil)

	// Returns without blocking.
	svc.StartHistoryPruner(context.Background())
	assert.Contains(t, logs.String(), "history pruning disabled")
}

func TestService_PruneHistoryFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	svc := NewService(testConfig(t), nil, slog.New(slog.NewTextHandler(&buf, nil)))

	svc.pruneHistory(context.Background(), &failingPruner{}, time.Hour)
	assert.Contains(t, buf.String(), "history prune failed")
	assert.Contains(t, buf.String(), "connection refused")
}
