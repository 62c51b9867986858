package attachment

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/existflow/taskr/internal/clock"
	"github.com/existflow/taskr/internal/db"
	"github.com/existflow/taskr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *clock.Fake) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "taskr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	clk := clock.NewFake(t0)
	return NewServiceWith(NewSQLBackend(database), clk, nil), clk
}

func pdf(name string, size int) Upload {
	return NewUpload(name, "application/pdf", make([]byte, size))
}

type stubReferrer struct {
	tasks []model.Task
	calls int
	err   error
}

func (r *stubReferrer) StripAttachments(_ context.Context, ids map[string]struct{}) (bool, error) {
	r.calls++
	if r.err != nil {
		return false, r.err
	}
	changed := false
	for i := range r.tasks {
		kept := r.tasks[i].Attachments[:0]
		for _, a := range r.tasks[i].Attachments {
			if _, gone := ids[a.ID]; gone {
				changed = true
				continue
			}
			kept = append(kept, a)
		}
		r.tasks[i].Attachments = kept
	}
	return changed, nil
}

func TestValidate(t *testing.T) {
	var verr *ValidationError

	err := Validate([]Upload{pdf("a.pdf", 10), pdf("b.pdf", 10)}, 4)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonTooMany, verr.Reason)
	assert.Equal(t, "添付は最大5件までです。", err.Error())

	assert.NoError(t, Validate([]Upload{pdf("a.pdf", 10)}, 4))

	err = Validate([]Upload{NewUpload("notes.txt", "text/plain", []byte("x"))}, 0)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonType, verr.Reason)
	assert.Equal(t, "notes.txt", verr.File)

	err = Validate([]Upload{pdf("big.pdf", MaxSize+1)}, 0)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonSize, verr.Reason)

	assert.NoError(t, Validate([]Upload{pdf("edge.pdf", MaxSize)}, 0))
}

func TestValidateCountBeforeType(t *testing.T) {
	files := []Upload{NewUpload("a.txt", "", nil), NewUpload("b.txt", "", nil)}
	var verr *ValidationError
	require.ErrorAs(t, Validate(files, 4), &verr)
	assert.Equal(t, ReasonTooMany, verr.Reason)
}

func TestAllowedByExtensionOrType(t *testing.T) {
	assert.True(t, Allowed(NewUpload("PHOTO.JPG", "", nil)))
	assert.True(t, Allowed(NewUpload("scan", "image/png", nil)))
	assert.True(t, Allowed(NewUpload("logo.svg", "application/octet-stream", nil)))
	assert.False(t, Allowed(NewUpload("archive.zip", "application/zip", nil)))
}

func TestSaveAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	metas, err := svc.Save(ctx, "task-1", []Upload{NewUpload("a.pdf", "application/pdf", []byte("hello"))})
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, int64(5), metas[0].Size)
	assert.True(t, metas[0].CreatedAt.Equal(t0))
	assert.True(t, metas[0].ExpiresAt.Equal(t0.Add(TTL)))

	r, err := svc.Get(ctx, metas[0].ID)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "task-1", r.TaskID)
	assert.Equal(t, []byte("hello"), r.Blob)

	missing, err := svc.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetDetectsCorruption(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Put(ctx, &Record{
		ID: "x", TaskID: "t", Name: "a.png", CreatedAt: t0, ExpiresAt: t0.Add(TTL),
		Digest: Digest([]byte("original")), Blob: []byte("tampered"),
	}))
	_, err := svc.Get(ctx, "x")
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestDuplicateSkipsMissing(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	metas, err := svc.Save(ctx, "src", []Upload{pdf("a.pdf", 3), pdf("b.pdf", 4)})
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, metas[1].ID))

	clk.Advance(time.Hour)
	res, err := svc.Duplicate(ctx, metas, "copy")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempted)
	assert.Equal(t, 1, res.Produced)
	require.Len(t, res.Metas, 1)

	cp := res.Metas[0]
	assert.NotEqual(t, metas[0].ID, cp.ID)
	assert.Equal(t, "a.pdf", cp.Name)
	assert.True(t, cp.ExpiresAt.Equal(t0.Add(time.Hour).Add(TTL)))
	assert.True(t, cp.CreatedAt.Equal(t0.Add(time.Hour)))

	owned, err := svc.List(ctx, "copy")
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestDuplicateStartsFreshExpiry(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	metas, err := svc.Save(ctx, "src", []Upload{pdf("old.pdf", 2)})
	require.NoError(t, err)

	clk.Advance(19 * 24 * time.Hour)
	res, err := svc.Duplicate(ctx, metas, "copy")
	require.NoError(t, err)
	require.Len(t, res.Metas, 1)
	assert.True(t, res.Metas[0].ExpiresAt.Equal(t0.Add(19*24*time.Hour).Add(TTL)))

	clk.Advance(2 * 24 * time.Hour)
	ids, err := svc.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{metas[0].ID}, ids)

	owned, err := svc.List(ctx, "copy")
	require.NoError(t, err)
	assert.Len(t, owned, 1)
}

func TestDeleteAllForTask(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Save(ctx, "a", []Upload{pdf("1.pdf", 1), pdf("2.pdf", 1)})
	require.NoError(t, err)
	kept, err := svc.Save(ctx, "b", []Upload{pdf("3.pdf", 1)})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAllForTask(ctx, "a"))
	require.NoError(t, svc.DeleteAllForTask(ctx, "a"))

	left, err := svc.List(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, left)

	r, err := svc.Get(ctx, kept[0].ID)
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestUnavailableStore(t *testing.T) {
	boom := errors.New("disk gone")
	opens := 0
	svc := NewService(func(context.Context) (Backend, error) {
		opens++
		return nil, boom
	}, clock.NewFake(t0), nil)

	_, err := svc.Save(context.Background(), "t", []Upload{pdf("a.pdf", 1)})
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = svc.Get(context.Background(), "x")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, opens)
}

func TestCleanupExpired(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	metas, err := svc.Save(ctx, "t1", []Upload{pdf("a.pdf", 1)})
	require.NoError(t, err)
	refs := &stubReferrer{tasks: []model.Task{{ID: "t1", Attachments: metas}}}
	sw := NewSweeper(svc, refs, nil)

	changed, err := sw.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 0, refs.calls)

	clk.Advance(TTL)
	changed, err = sw.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, refs.tasks[0].Attachments)

	changed, err = sw.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestCleanupRetriesFailedStrip(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	metas, err := svc.Save(ctx, "t1", []Upload{pdf("a.pdf", 1)})
	require.NoError(t, err)
	refs := &stubReferrer{tasks: []model.Task{{ID: "t1", Attachments: metas}}, err: errors.New("write failed")}
	sw := NewSweeper(svc, refs, nil)

	clk.Advance(TTL)
	_, err = sw.CleanupExpired(ctx)
	require.Error(t, err)
	records, err := svc.List(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Len(t, refs.tasks[0].Attachments, 1)

	refs.err = nil
	changed, err := sw.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, refs.tasks[0].Attachments)

	changed, err = sw.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, 2, refs.calls)
}

func TestCleanupSkipsWhileRunning(t *testing.T) {
	svc, _ := newTestService(t)
	sw := NewSweeper(svc, &stubReferrer{}, nil)

	sw.running.Store(true)
	changed, err := sw.CleanupExpired(context.Background())
	assert.NoError(t, err)
	assert.False(t, changed)
}

func TestSweeperLoopNotifies(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	metas, err := svc.Save(ctx, "t1", []Upload{pdf("a.pdf", 1)})
	require.NoError(t, err)
	clk.Advance(TTL + time.Minute)

	notified := make(chan struct{}, 1)
	refs := &stubReferrer{tasks: []model.Task{{ID: "t1", Attachments: metas}}}
	sw := NewSweeper(svc, refs, func() {
		select {
		case notified <- struct{}{}:
		default:
		}
	})
	sw.interval = 10 * time.Millisecond
	sw.Start()
	defer sw.Stop()

	select {
	case <-notified:
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not report a change")
	}
}

func TestValidationMessages(t *testing.T) {
	for _, r := range []Reason{ReasonTooMany, ReasonType, ReasonSize} {
		msg := (&ValidationError{Reason: r}).Error()
		assert.True(t, strings.HasSuffix(msg, "。"), msg)
	}
}
