package task

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/existflow/taskr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportShape(t *testing.T) {
	task := mk("a", "P", "2025-01-01", "09:00", 0)
	task.MarkDone(t0)
	raw, err := json.Marshal(BuildExport([]model.Task{task}, t0))
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, float64(1), doc["version"])
	assert.Equal(t, ExportNote, doc["note"])
	tasks := doc["tasks"].([]any)
	require.Len(t, tasks, 1)
	entry := tasks[0].(map[string]any)
	assert.Equal(t, "a", entry["id"])
	assert.NotContains(t, entry, "done")
	assert.NotContains(t, entry, "attachments")
}

func TestTimestampEncodings(t *testing.T) {
	task := mk("a", "P", "", "", 0)
	raw, err := json.Marshal(BuildExport([]model.Task{task}, t0))
	require.NoError(t, err)

	var doc struct {
		Tasks []map[string]any `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	require.Len(t, doc.Tasks, 1)
	assert.IsType(t, "", doc.Tasks[0]["createdAt"])

	back, err := ParseImport(raw, nil, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.True(t, back[0].CreatedAt.Equal(task.CreatedAt))

	legacy := `[{"id":"b","todo":"old","createdAt":1735689600000,"updatedAt":1735689600000}]`
	back, err = ParseImport([]byte(legacy), nil, t0)
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.True(t, back[0].CreatedAt.Equal(time.UnixMilli(1735689600000)))
}

func TestParseImport(t *testing.T) {
	existing := []model.Task{mk("taken", "", "", "", 0)}

	bare := `[{"id":"taken","todo":"one","done":true,"attachments":[{"id":"x"}]},
		{"todo":"two","type":"private","dueDate":"2025-13-40","dueTime":"10:00"},
		{"id":"new","todo":"three","dueDate":"2025-02-01","dueTime":"25:99"}]`
	tasks, err := ParseImport([]byte(bare), existing, t0)
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.NotEqual(t, "taken", tasks[0].ID)
	assert.False(t, tasks[0].Done)
	assert.Nil(t, tasks[0].CompletedAt)
	assert.Empty(t, tasks[0].Attachments)

	assert.NotEmpty(t, tasks[1].ID)
	assert.Equal(t, model.TypePrivate, tasks[1].Type)
	assert.Empty(t, tasks[1].DueDate)
	assert.Empty(t, tasks[1].DueTime)

	assert.Equal(t, "new", tasks[2].ID)
	assert.Equal(t, "2025-02-01", tasks[2].DueDate)
	assert.Empty(t, tasks[2].DueTime)
}

func TestParseImportWrapped(t *testing.T) {
	doc := `{"version":1,"note":"attachments_not_included","tasks":[{"id":"a","todo":"x","createdAt":"2025-01-01T00:00:00Z"}]}`
	tasks, err := ParseImport([]byte(doc), nil, t0)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, 2025, tasks[0].CreatedAt.Year())
	assert.Equal(t, 1, tasks[0].CreatedAt.YearDay())
}

func TestParseImportErrors(t *testing.T) {
	for _, in := range []string{"", "nope", `{"tasks":3}`, `[1,2]`, `[{"id":`} {
		_, err := ParseImport([]byte(in), nil, t0)
		assert.ErrorIs(t, err, ErrImportParse, in)
	}
}

func TestImportIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.repo.Import(ctx, []byte(`[{"todo":"ok"}, "bad"]`))
	assert.ErrorIs(t, err, ErrImportParse)
	assert.Empty(t, f.repo.All())

	added, err := f.repo.Import(ctx, []byte(`[{"todo":"ok"}]`))
	require.NoError(t, err)
	assert.Len(t, added, 1)
	assert.Len(t, f.repo.All(), 1)
}
