package task

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/taskr/internal/attachment"
	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/retention"
	"github.com/existflow/taskr/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.Local)

type fixture struct {
	repo  *Repository
	store *storage.Store
	att   *attachment.Service
	clock *clock.Fake
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv, err := storage.OpenKV(filepath.Join(t.TempDir(), "taskr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	clk := clock.NewFake(t0)
	store := storage.NewStore(kv, clk, nil)
	att := attachment.NewServiceWith(attachment.NewSQLBackend(kv.DB()), clk, nil)
	return &fixture{
		repo:  NewRepository(store, att, clk, nil, nil, nil),
		store: store,
		att:   att,
		clock: clk,
	}
}

func pdfs(n int) []attachment.Upload {
	files := make([]attachment.Upload, n)
	for i := range files {
		files[i] = attachment.NewUpload("f.pdf", "application/pdf", []byte{byte(i)})
	}
	return files
}

func (f *fixture) reload(t *testing.T) *storage.Collections {
	t.Helper()
	c, err := f.store.Load(context.Background())
	require.NoError(t, err)
	return c
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.repo.Create(ctx, Input{Type: model.TypePrivate, Project: " P ", Todo: "T", DueTime: "09:00"}, pdfs(2))
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, "P", task.Project)
	assert.Empty(t, task.DueTime, "time requires a date")
	assert.False(t, task.Done)
	assert.Nil(t, task.CompletedAt)
	assert.Len(t, task.Attachments, 2)

	c := f.reload(t)
	require.Len(t, c.Tasks, 1)
	assert.Equal(t, task.ID, c.Tasks[0].ID)
}

func TestCreateRejectsInvalidAttachments(t *testing.T) {
	f := newFixture(t)

	_, err := f.repo.Create(context.Background(), Input{Todo: "x"}, pdfs(6))
	var verr *attachment.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, f.repo.All())
}

func TestCompleteAndRestore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.repo.Create(ctx, Input{Todo: "x"}, nil)
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	done, err := f.repo.Complete(ctx, task.ID)
	require.NoError(t, err)
	assert.True(t, done.Done)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(t0.Add(time.Minute)))

	active, err := f.repo.Restore(ctx, task.ID)
	require.NoError(t, err)
	assert.False(t, active.Done)
	assert.Nil(t, active.CompletedAt)

	_, err = f.repo.Complete(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReschedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	undated, err := f.repo.Create(ctx, Input{Todo: "a"}, nil)
	require.NoError(t, err)
	got, ok, err := f.repo.Reschedule(ctx, undated.ID, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2025-01-11", got.DueDate)

	dated, err := f.repo.Create(ctx, Input{Todo: "b", DueDate: "2025-03-01", DueTime: "10:30"}, nil)
	require.NoError(t, err)
	got, _, err = f.repo.Reschedule(ctx, dated.ID, -1)
	require.NoError(t, err)
	assert.Equal(t, "2025-02-28", got.DueDate)
	assert.Equal(t, "10:30", got.DueTime)

	_, ok, err = f.repo.Reschedule(ctx, "missing", 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	src, err := f.repo.Create(ctx, Input{Todo: "x", Project: "P"}, pdfs(2))
	require.NoError(t, err)
	_, err = f.repo.Complete(ctx, src.ID)
	require.NoError(t, err)
	require.NoError(t, f.att.Delete(ctx, src.Attachments[0].ID))

	f.clock.Advance(time.Hour)
	cp, res, err := f.repo.Duplicate(ctx, src.ID)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, cp.ID)
	assert.False(t, cp.Done)
	assert.Nil(t, cp.CompletedAt)
	assert.True(t, cp.CreatedAt.Equal(t0.Add(time.Hour)))
	assert.Equal(t, 2, res.Attempted)
	assert.Equal(t, 1, res.Produced)
	assert.Len(t, cp.Attachments, 1)

	orig, ok := f.repo.Get(src.ID)
	require.True(t, ok)
	assert.True(t, orig.Done)
	assert.Len(t, orig.Attachments, 2)
}

func TestDeleteMovesDoneTaskToTrash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.repo.Create(ctx, Input{Todo: "x"}, pdfs(2))
	require.NoError(t, err)

	assert.ErrorIs(t, f.repo.Delete(ctx, task.ID), ErrNotDone)

	_, err = f.repo.Complete(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, f.repo.Delete(ctx, task.ID))

	records, err := f.att.List(ctx, task.ID)
	require.NoError(t, err)
	assert.Empty(t, records)

	trash := f.repo.Trash()
	require.Len(t, trash, 1)
	assert.Equal(t, task.ID, trash[0].Task.ID)
	assert.Len(t, trash[0].Task.Attachments, 2, "snapshot keeps dangling metadata")
	assert.Empty(t, f.repo.All())

	c := f.reload(t)
	assert.Len(t, c.DoneTrash, 1)
	assert.Empty(t, c.Tasks)
}

func TestDeleteBatchOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var ids []string
	for _, todo := range []string{"a", "b", "c"} {
		task, err := f.repo.Create(ctx, Input{Todo: todo}, nil)
		require.NoError(t, err)
		_, err = f.repo.Complete(ctx, task.ID)
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	require.NoError(t, f.repo.Delete(ctx, ids[2], ids[0]))
	require.NoError(t, f.repo.Delete(ctx, ids[1]))

	trash := f.repo.Trash()
	require.Len(t, trash, 3)
	assert.Equal(t, "b", trash[0].Task.Todo)
	assert.Equal(t, "c", trash[1].Task.Todo)
	assert.Equal(t, "a", trash[2].Task.Todo)
}

type failingBackend struct {
	storage.Backend
	failKey string
}

func (b *failingBackend) Set(ctx context.Context, key string, value []byte) error {
	if key == b.failKey {
		return errors.New("disk full")
	}
	return b.Backend.Set(ctx, key, value)
}

func TestDeleteRollsBackTrashWhenTaskWriteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.repo.Create(ctx, Input{Todo: "x"}, nil)
	require.NoError(t, err)
	_, err = f.repo.Complete(ctx, task.ID)
	require.NoError(t, err)

	kv, err := storage.OpenKV(filepath.Join(t.TempDir(), "broken.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	store := storage.NewStore(&failingBackend{Backend: kv, failKey: storage.KeyTasks}, f.clock, nil)
	repo := NewRepository(store, f.att, f.clock, nil, f.repo.All(), nil)

	assert.Error(t, repo.Delete(ctx, task.ID))
	assert.Empty(t, repo.Trash())
	assert.Len(t, repo.All(), 1)

	c, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, c.DoneTrash)
}

func TestRestoreFromTrash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.repo.Create(ctx, Input{Todo: "x"}, pdfs(1))
	require.NoError(t, err)
	_, err = f.repo.Complete(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, f.repo.Delete(ctx, task.ID))

	restored, err := f.repo.RestoreFromTrash(ctx, 0)
	require.NoError(t, err)
	assert.True(t, restored.Done)
	assert.Empty(t, restored.Attachments)
	assert.Empty(t, f.repo.Trash())

	_, err = f.repo.RestoreFromTrash(ctx, 0)
	assert.ErrorIs(t, err, retention.ErrIndexOutOfRange)
}

func TestPurgeTrash(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.repo.Create(ctx, Input{Todo: "x"}, nil)
	require.NoError(t, err)
	_, err = f.repo.Complete(ctx, task.ID)
	require.NoError(t, err)
	require.NoError(t, f.repo.Delete(ctx, task.ID))

	next, ok := f.repo.NextExpiry()
	require.True(t, ok)
	assert.True(t, next.Equal(t0.Add(retention.DoneTTL)))

	f.clock.Advance(retention.DoneTTL - time.Millisecond)
	changed, err := f.repo.PurgeTrash(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	f.clock.Advance(time.Millisecond)
	changed, err = f.repo.PurgeTrash(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, f.repo.Trash())
}

func TestEditAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.repo.Create(ctx, Input{Todo: "x"}, pdfs(3))
	require.NoError(t, err)

	keep := []string{task.Attachments[0].ID}
	_, err = f.repo.Edit(ctx, task.ID, Input{Todo: "y"}, keep, pdfs(5))
	var verr *attachment.ValidationError
	require.ErrorAs(t, err, &verr)
	unchanged, _ := f.repo.Get(task.ID)
	assert.Equal(t, "x", unchanged.Todo)
	assert.Len(t, unchanged.Attachments, 3)

	edited, err := f.repo.Edit(ctx, task.ID, Input{Todo: "y", DueDate: "2025-02-01"}, keep, pdfs(1))
	require.NoError(t, err)
	assert.Equal(t, "y", edited.Todo)
	assert.Len(t, edited.Attachments, 2)
	assert.Equal(t, keep[0], edited.Attachments[0].ID)

	records, err := f.att.List(ctx, task.ID)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	removed, err := f.repo.RemoveAttachment(ctx, task.ID, keep[0])
	require.NoError(t, err)
	assert.Len(t, removed.Attachments, 1)
	_, err = f.repo.RemoveAttachment(ctx, task.ID, keep[0])
	assert.ErrorIs(t, err, attachment.ErrNotFound)
}

func TestStripAttachmentsWithSweeper(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.repo.Create(ctx, Input{Todo: "x"}, pdfs(1))
	require.NoError(t, err)

	sw := attachment.NewSweeper(f.att, f.repo, nil)
	f.clock.Advance(attachment.TTL)
	changed, err := sw.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	got, _ := f.repo.Get(task.ID)
	assert.Empty(t, got.Attachments)
	assert.Empty(t, f.reload(t).Tasks[0].Attachments)

	changed, err = sw.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestResolvePrefix(t *testing.T) {
	f := newFixture(t)
	task, err := f.repo.Create(context.Background(), Input{Todo: "x"}, nil)
	require.NoError(t, err)

	got, err := f.repo.Resolve(task.ID[:8])
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = f.repo.Resolve("zzzz")
	assert.ErrorIs(t, err, ErrNotFound)
}
