package runlog

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestAppendAndListNewestFirst(t *testing.T) {
	j := openTestJournal(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, j.Append(Run{ID: "a", Repo: "alpha", StartedAt: start}))
	require.NoError(t, j.Append(Run{ID: "b", Repo: "alpha", StartedAt: start.Add(time.Second), Reason: "NonZeroExit", ExitCode: 2}))
	require.NoError(t, j.Append(Run{ID: "c", Repo: "beta", StartedAt: start}))

	runs, err := j.List("alpha", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].ID)
	assert.False(t, runs[0].Succeeded())
	assert.Equal(t, 2, runs[0].ExitCode)
	assert.True(t, runs[1].Succeeded())

	runs, err = j.List("alpha", 1)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListUnknownRepo(t *testing.T) {
	j := openTestJournal(t)
	runs, err := j.List("nobody", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestAppendTruncatesStderr(t *testing.T) {
	j := openTestJournal(t)
	long := strings.Repeat("e", maxStderr*2)

	require.NoError(t, j.Append(Run{ID: "a", Repo: "alpha", StartedAt: time.Now(), Stderr: long}))

	runs, err := j.List("alpha", 0)
	require.NoError(t, err)
	assert.Len(t, runs[0].Stderr, maxStderr)
}
