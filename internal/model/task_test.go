package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_MarkDoneAndActive(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.Local)
	task := NewTask("t1", TypeWork, "proj", "todo", now)

	later := now.Add(time.Hour)
	task.MarkDone(later)
	assert.True(t, task.Done)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, later, *task.CompletedAt)
	assert.Equal(t, later, task.UpdatedAt)

	task.MarkActive(later.Add(time.Minute))
	assert.False(t, task.Done)
	assert.Nil(t, task.CompletedAt)
}

func TestTask_NormalizeRepairsInvariants(t *testing.T) {
	completed := time.Now()
	task := Task{ID: "x", Type: "bogus", DueTime: "09:00", CompletedAt: &completed}
	task.Normalize()

	assert.Equal(t, TypeWork, task.Type)
	assert.Nil(t, task.CompletedAt)
	assert.Empty(t, task.DueTime)
	assert.NotNil(t, task.Attachments)
}

func TestTask_CloneIsDeep(t *testing.T) {
	task := NewTask("t1", TypePrivate, "p", "t", time.Now())
	task.Attachments = append(task.Attachments, AttachmentMeta{ID: "a1"})
	task.MarkDone(time.Now())

	c := task.Clone()
	c.Attachments[0].ID = "changed"
	*c.CompletedAt = time.Time{}

	assert.Equal(t, "a1", task.Attachments[0].ID)
	assert.False(t, task.CompletedAt.IsZero())
}

func TestAttachmentMeta_Expired(t *testing.T) {
	now := time.Now()
	assert.True(t, AttachmentMeta{ExpiresAt: now}.Expired(now))
	assert.False(t, AttachmentMeta{ExpiresAt: now.Add(time.Millisecond)}.Expired(now))
}
