package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/taskr/internal/attachment"
	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/config"
	"github.com/existflow/taskr/internal/model"
	"github.com/existflow/taskr/internal/retention"
	"github.com/existflow/taskr/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.Local)

func testConfig(t *testing.T, storageKind string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage = storageKind
	cfg.AttachmentDSN = ""
	return cfg
}

func openApp(t *testing.T, cfg *config.Config, clk clock.Clock) *App {
	t.Helper()
	a, err := Open(context.Background(), cfg, Options{Clock: clk})
	require.NoError(t, err)
	return a
}

func TestCreateTaskRecordsHistory(t *testing.T) {
	clk := clock.NewFake(t0)
	a := openApp(t, testConfig(t, config.StorageSQLite), clk)
	defer a.Close()
	ctx := context.Background()

	_, err := a.CreateTask(ctx, task.Input{Project: "Alpha", Todo: "Write"}, nil)
	require.NoError(t, err)
	_, err = a.CreateTask(ctx, task.Input{Project: "alpha", Todo: "Review"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Alpha"}, a.Projects.Values())
	assert.Equal(t, []string{"Review", "Write"}, a.Todos.Values())
}

func TestReopenPersists(t *testing.T) {
	for _, kind := range []string{config.StorageSQLite, config.StorageFile} {
		t.Run(kind, func(t *testing.T) {
			cfg := testConfig(t, kind)
			clk := clock.NewFake(t0)
			ctx := context.Background()

			a := openApp(t, cfg, clk)
			created, err := a.CreateTask(ctx, task.Input{Todo: "persist me"}, []attachment.Upload{
				attachment.NewUpload("a.png", "image/png", []byte("png")),
			})
			require.NoError(t, err)
			_, err = a.UpdateView(ctx, func(v *ViewState) { v.ProjectFilter = "P" })
			require.NoError(t, err)
			require.NoError(t, a.Close())

			b := openApp(t, cfg, clk)
			defer b.Close()
			got, ok := b.Tasks.Get(created.ID)
			require.True(t, ok)
			assert.Equal(t, "persist me", got.Todo)
			assert.Equal(t, "P", b.View().ProjectFilter)

			rec, err := b.Attachments().Get(ctx, got.Attachments[0].ID)
			require.NoError(t, err)
			require.NotNil(t, rec)
			assert.Equal(t, []byte("png"), rec.Blob)
		})
	}
}

func TestRefreshPurgesAndArmsTimer(t *testing.T) {
	clk := clock.NewFake(t0)
	a := openApp(t, testConfig(t, config.StorageSQLite), clk)
	defer a.Close()
	ctx := context.Background()

	created, err := a.CreateTask(ctx, task.Input{Project: "P", Todo: "T"}, nil)
	require.NoError(t, err)
	_, err = a.Tasks.Complete(ctx, created.ID)
	require.NoError(t, err)
	require.NoError(t, a.Tasks.Delete(ctx, created.ID))

	clk.Advance(time.Minute)
	_, err = a.Projects.Delete(ctx, 0)
	require.NoError(t, err)

	changed, err := a.Refresh(ctx)
	require.NoError(t, err)
	assert.False(t, changed)

	deadline, ok := a.NextExpiry()
	require.True(t, ok)
	assert.True(t, deadline.Equal(t0.Add(retention.DoneTTL)))

	clk.Advance(retention.DoneTTL)
	changed, err = a.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, a.Tasks.Trash())
	assert.Empty(t, a.Projects.Trash())
}

func TestRefreshSweepsAttachments(t *testing.T) {
	clk := clock.NewFake(t0)
	a := openApp(t, testConfig(t, config.StorageSQLite), clk)
	defer a.Close()
	ctx := context.Background()

	created, err := a.CreateTask(ctx, task.Input{Todo: "T"}, []attachment.Upload{
		attachment.NewUpload("a.pdf", "", []byte("%PDF")),
	})
	require.NoError(t, err)

	clk.Advance(attachment.TTL)
	changed, err := a.Refresh(ctx)
	require.NoError(t, err)
	assert.True(t, changed)

	got, _ := a.Tasks.Get(created.ID)
	assert.Empty(t, got.Attachments)
}

func TestViewQueries(t *testing.T) {
	clk := clock.NewFake(t0)
	a := openApp(t, testConfig(t, config.StorageSQLite), clk)
	defer a.Close()
	ctx := context.Background()

	_, err := a.CreateTask(ctx, task.Input{Type: model.TypeWork, Project: "P", Todo: "w", DueDate: "2025-01-20"}, nil)
	require.NoError(t, err)
	_, err = a.CreateTask(ctx, task.Input{Type: model.TypePrivate, Project: "Q", Todo: "p", DueDate: "2025-01-15"}, nil)
	require.NoError(t, err)

	active := a.ActiveTasks()
	require.Len(t, active, 2)
	assert.Equal(t, "p", active[0].Todo)

	_, err = a.UpdateView(ctx, func(v *ViewState) {
		v.Filters.Active.Private = false
	})
	require.NoError(t, err)
	assert.Len(t, a.ActiveTasks(), 1)

	_, err = a.UpdateView(ctx, func(v *ViewState) {
		v.Filters.Active = task.AllTypes
		v.ProjectFilter = "Q"
	})
	require.NoError(t, err)
	require.Len(t, a.ActiveTasks(), 1)
	assert.Equal(t, "p", a.ActiveTasks()[0].Todo)

	grid := a.Month()
	assert.Equal(t, 2025, grid.Year)
	assert.Equal(t, time.January, grid.Month)

	v, err := a.ShiftMonth(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, 2024, v.CalendarYear)
	assert.Equal(t, time.December, v.CalendarMonth)
}

func TestViewStateNormalize(t *testing.T) {
	v := ViewState{NewType: "x", SortActive: task.SortCompleted, SortDone: task.SortDue, View: "grid"}
	v.normalize(t0)
	assert.Equal(t, model.TypeWork, v.NewType)
	assert.Equal(t, task.SortDue, v.SortActive)
	assert.Equal(t, task.SortCompleted, v.SortDone)
	assert.Equal(t, ViewList, v.View)
	assert.Equal(t, 2025, v.CalendarYear)
}

func TestClearTrash(t *testing.T) {
	clk := clock.NewFake(t0)
	a := openApp(t, testConfig(t, config.StorageSQLite), clk)
	defer a.Close()
	ctx := context.Background()

	_, err := a.CreateTask(ctx, task.Input{Project: "P", Todo: "T"}, nil)
	require.NoError(t, err)
	_, err = a.Todos.DeleteAll(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, a.Todos.Trash())

	require.NoError(t, a.ClearTrash(ctx))
	assert.Empty(t, a.Todos.Trash())
	_, armed := a.NextExpiry()
	assert.False(t, armed)
}

func TestOpenUsesSnapshotFile(t *testing.T) {
	cfg := testConfig(t, config.StorageFile)
	a := openApp(t, cfg, clock.NewFake(t0))
	_, err := a.CreateTask(context.Background(), task.Input{Todo: "x"}, nil)
	require.NoError(t, err)
	require.NoError(t, a.Close())

	assert.FileExists(t, filepath.Join(cfg.DataDir, "data.json"))
}
