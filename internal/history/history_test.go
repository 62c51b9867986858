package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/retention"
	"github.com/existflow/taskr/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func TestRecord(t *testing.T) {
	list := Record(nil, "Alpha")
	list = Record(list, "beta")
	list = Record(list, "ALPHA")
	list = Record(list, "   ")
	assert.Equal(t, []string{"beta", "Alpha"}, list)
}

func TestEdit(t *testing.T) {
	list := []string{"a", "b"}
	out, err := Edit(list, 1, " c ")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, out)
	assert.Equal(t, []string{"a", "b"}, list)

	out, err = Edit(list, 0, "  ")
	assert.ErrorIs(t, err, ErrEmptyValue)
	assert.Equal(t, list, out)

	_, err = Edit(list, 5, "x")
	assert.ErrorIs(t, err, retention.ErrIndexOutOfRange)
}

func TestDeletePrependsBatch(t *testing.T) {
	old := []model.HistoryTrashEntry{{Value: "old", DeletedAt: t0.Add(-time.Minute)}}
	list, trash := Delete([]string{"a", "b", "c"}, old, []int{2, 0, 9}, t0)
	assert.Equal(t, []string{"b"}, list)
	require.Len(t, trash, 3)
	assert.Equal(t, "a", trash[0].Value)
	assert.Equal(t, "c", trash[1].Value)
	assert.Equal(t, "old", trash[2].Value)
	assert.True(t, trash[0].DeletedAt.Equal(t0))
}

func TestRestoreDeduplicates(t *testing.T) {
	trash := []model.HistoryTrashEntry{{Value: "A"}, {Value: "z"}}
	list, rest, err := Restore([]string{"a"}, trash, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, list)
	assert.Len(t, rest, 1)

	list, rest, err = Restore(list, rest, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "a"}, list)
	assert.Empty(t, rest)
}

func newRepo(t *testing.T) (*Repository, *storage.Store, *clock.Fake) {
	t.Helper()
	kv, err := storage.OpenKV(filepath.Join(t.TempDir(), "taskr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	clk := clock.NewFake(t0)
	store := storage.NewStore(kv, clk, nil)
	return NewRepository(model.HistoryProject, store, clk, nil, nil, nil), store, clk
}

func TestRepositoryLifecycle(t *testing.T) {
	repo, store, clk := newRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Record(ctx, "one"))
	require.NoError(t, repo.Record(ctx, "two"))
	n, err := repo.Delete(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"one"}, repo.Values())

	next, ok := repo.NextExpiry()
	require.True(t, ok)
	assert.True(t, next.Equal(t0.Add(retention.HistoryTTL)))

	c, err := store.Load(ctx)
	require.NoError(t, err)
	values, trash := c.History(model.HistoryProject)
	assert.Equal(t, []string{"one"}, values)
	require.Len(t, trash, 1)
	assert.Equal(t, "two", trash[0].Value)

	value, err := repo.Restore(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "two", value)
	assert.Equal(t, []string{"two", "one"}, repo.Values())

	_, err = repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, repo.Values())
	assert.Len(t, repo.Trash(), 2)

	clk.Advance(retention.HistoryTTL)
	changed, err := repo.PurgeTrash(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, repo.Trash())
}

func TestRepositoryEditRejectsEmpty(t *testing.T) {
	repo, _, _ := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Record(ctx, "keep"))

	assert.ErrorIs(t, repo.Edit(ctx, 0, " "), ErrEmptyValue)
	assert.Equal(t, []string{"keep"}, repo.Values())

	require.NoError(t, repo.Edit(ctx, 0, "renamed"))
	assert.Equal(t, []string{"renamed"}, repo.Values())
}
