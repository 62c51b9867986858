package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func newKV(t *testing.T) *KV {
	t.Helper()
	kv, err := OpenKV(filepath.Join(t.TempDir(), "taskr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return kv
}

func TestKVRoundTrip(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, KeyTasks)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, KeyTasks, []byte(`[1]`)))
	require.NoError(t, kv.Set(ctx, KeyTasks, []byte(`[2]`)))
	v, ok, err := kv.Get(ctx, KeyTasks)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[2]`, string(v))
}

func TestLoadNormalizesLegacyTrash(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()

	require.NoError(t, kv.Set(ctx, KeyProjectTrash, []byte(`["old", {"value":"kept","deletedAt":1736499000000}]`)))
	require.NoError(t, kv.Set(ctx, KeyDoneTrash, []byte(`[{"id":"t1","todo":"bare","done":true}]`)))
	require.NoError(t, kv.Set(ctx, KeyTodos, []byte(`["a", 3, "b"]`)))

	clk := clock.NewFake(t0)
	store := NewStore(kv, clk, nil)
	c, err := store.Load(ctx)
	require.NoError(t, err)

	require.Len(t, c.ProjectTrash, 2)
	assert.Equal(t, "old", c.ProjectTrash[0].Value)
	assert.True(t, c.ProjectTrash[0].DeletedAt.Equal(t0))
	assert.Equal(t, int64(1736499000000), c.ProjectTrash[1].DeletedAt.UnixMilli())

	require.Len(t, c.DoneTrash, 1)
	assert.Equal(t, "t1", c.DoneTrash[0].Task.ID)
	assert.True(t, c.DoneTrash[0].DeletedAt.Equal(t0))

	assert.Equal(t, []string{"a", "b"}, c.Todos)

	// The upgrade is persisted, so a later load keeps the first timestamp.
	clk.Advance(time.Minute)
	again, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, again.ProjectTrash[0].DeletedAt.Equal(t0))
	assert.True(t, again.DoneTrash[0].DeletedAt.Equal(t0))
}

func TestLoadMalformedFallsBackToEmpty(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, KeyTasks, []byte(`{not json`)))

	c, err := NewStore(kv, clock.NewFake(t0), nil).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.Tasks)
}

func TestSaveCollections(t *testing.T) {
	kv := newKV(t)
	ctx := context.Background()
	store := NewStore(kv, clock.NewFake(t0), nil)

	task := model.NewTask("id1", model.TypePrivate, "P", "T", t0)
	require.NoError(t, store.SaveTasks(ctx, []model.Task{task}))
	require.NoError(t, store.SaveHistory(ctx, model.HistoryTodo, []string{"T"}, nil))
	require.NoError(t, store.SaveDoneTrash(ctx, nil))

	c, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, c.Tasks, 1)
	assert.Equal(t, model.TypePrivate, c.Tasks[0].Type)
	assert.True(t, c.Tasks[0].CreatedAt.Equal(t0))
	list, trash := c.History(model.HistoryTodo)
	assert.Equal(t, []string{"T"}, list)
	assert.Empty(t, trash)
}

func TestSnapshotDebouncesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	snap, err := OpenSnapshot(path, nil)
	require.NoError(t, err)
	snap.delay = 20 * time.Millisecond
	ctx := context.Background()

	require.NoError(t, snap.Set(ctx, KeyTodos, []byte(`["a"]`)))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "write happens after the delay")
	assert.True(t, snap.Pending())

	assert.Eventually(t, func() bool { return !snap.Pending() }, time.Second, 5*time.Millisecond)

	res, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.JSONEq(t, `["a"]`, string(res.Data[KeyTodos]))
}

func TestSnapshotCloseFlushes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	snap, err := OpenSnapshot(path, nil)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, snap.Set(ctx, KeyProjects, []byte(`["p"]`)))
	require.NoError(t, snap.Close())
	assert.Error(t, snap.Set(ctx, KeyProjects, []byte(`[]`)))

	reopened, err := OpenSnapshot(path, nil)
	require.NoError(t, err)
	v, ok, err := reopened.Get(ctx, KeyProjects)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `["p"]`, string(v))
}

func TestSnapshotCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0600))

	res, err := ReadSnapshot(path)
	assert.Error(t, err)
	assert.False(t, res.OK)

	snap, err := OpenSnapshot(path, nil)
	require.NoError(t, err)
	_, ok, err := snap.Get(context.Background(), KeyTasks)
	require.NoError(t, err)
	assert.False(t, ok)
}
