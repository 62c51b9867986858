package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/existflow/taskr/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for in, want := range map[string]model.TaskType{
		"": model.TypeWork, "w": model.TypeWork, "Work": model.TypeWork,
		"p": model.TypePrivate, "private": model.TypePrivate,
	} {
		got, err := parseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := parseType("other")
	assert.Error(t, err)
}

func TestParseDue(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2025, 12, 31, 23, 0, 0, 0, time.Local) }
	defer func() { now = orig }()

	got, err := parseDue("today")
	require.NoError(t, err)
	assert.Equal(t, "2025-12-31", got)

	got, err = parseDue("tomorrow")
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", got)

	got, err = parseDue("")
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = parseDue("2025-13-01")
	assert.Error(t, err)
}

func TestParseTime(t *testing.T) {
	got, err := parseTime("09:30")
	require.NoError(t, err)
	assert.Equal(t, "09:30", got)

	_, err = parseTime("9:30pm")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "会議資…", truncate("会議資料の準備", 4))
}

func TestParseIndices(t *testing.T) {
	got, err := parseIndices([]string{"0", "3", "1"})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 1}, got)

	_, err = parseIndices([]string{"x"})
	assert.Error(t, err)
}

func TestReadUploads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scan.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))

	files, err := readUploads([]string{path})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "scan.pdf", files[0].Name)
	assert.Equal(t, "application/pdf", files[0].Type)
	assert.Equal(t, int64(8), files[0].Size)

	_, err = readUploads([]string{filepath.Join(dir, "missing.png")})
	assert.Error(t, err)
}
