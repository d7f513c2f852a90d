package analysis

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/just-nibble/srs-tracker/internal/runlog"
	"github.com/just-nibble/srs-tracker/pkg/config"
	"github.com/just-nibble/srs-tracker/pkg/errcodes"
	"github.com/just-nibble/srs-tracker/pkg/log"
)

type fakeJournal struct {
	mu   sync.Mutex
	runs []runlog.Run
}

func (j *fakeJournal) Append(run runlog.Run) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs = append(j.runs, run)
	return nil
}

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func newTestInvoker(journal Journal, timeout time.Duration, maxConcurrent int64) *Invoker {
	return NewInvoker(config.AnalysisConfig{
		Interpreter:   "/bin/sh",
		Timeout:       timeout,
		MaxConcurrent: maxConcurrent,
	}, journal, log.Discard())
}

func TestRunSuccess(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.csv")
	script := writeScript(t, dir, "ok.sh", `echo working; printf 'Requirement Text\nA\n' > "$1"`)

	journal := &fakeJournal{}
	outcome := newTestInvoker(journal, time.Minute, 2).Run(context.Background(), Invocation{
		Repo: "alpha", Kind: KindRequirements, Script: script, Args: []string{out}, OutputPath: out, Format: FormatCSV,
	})

	require.True(t, outcome.Succeeded(), "failure: %v", outcome.Err())
	assert.Equal(t, 0, outcome.ExitCode)
	assert.Equal(t, out, outcome.OutputPath)
	assert.Contains(t, outcome.Stdout, "working")

	require.Len(t, journal.runs, 1)
	assert.Equal(t, "alpha", journal.runs[0].Repo)
	assert.True(t, journal.runs[0].Succeeded())
}

func TestRunFailureReasons(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		format Format
		reason Reason
	}{
		{"non zero exit", `echo boom >&2; exit 3`, FormatJSON, ReasonNonZeroExit},
		{"missing output", `exit 0`, FormatJSON, ReasonMissingOutput},
		{"malformed json", `echo 'not json' > "$1"`, FormatJSON, ReasonMalformedOutput},
		{"json array", `echo '[1,2]' > "$1"`, FormatJSON, ReasonMalformedOutput},
		{"csv without header", `: > "$1"`, FormatCSV, ReasonMalformedOutput},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			dir := t.TempDir()
			out := filepath.Join(dir, "out")
			script := writeScript(t, dir, "s.sh", c.body)

			journal := &fakeJournal{}
			outcome := newTestInvoker(journal, time.Minute, 1).Run(context.Background(), Invocation{
				Script: script, Args: []string{out}, OutputPath: out, Format: c.format,
			})

			require.NotNil(t, outcome.Failure)
			assert.Equal(t, c.reason, outcome.Failure.Reason)
			assert.ErrorIs(t, outcome.Err(), errcodes.ErrAnalysis)
			assert.Equal(t, string(c.reason), journal.runs[0].Reason)
		})
	}
}

func TestRunNonZeroExitKeepsDiagnostics(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "s.sh", `echo boom >&2; exit 3`)

	outcome := newTestInvoker(nil, time.Minute, 1).Run(context.Background(), Invocation{
		Script: script, OutputPath: filepath.Join(dir, "out"), Format: FormatJSON,
	})

	require.NotNil(t, outcome.Failure)
	assert.Equal(t, 3, outcome.ExitCode)
	assert.Equal(t, 3, outcome.Failure.ExitCode)
	assert.Contains(t, outcome.Failure.Stderr, "boom")
	assert.Equal(t, ReasonNonZeroExit, outcome.Failure.Details()["reason"])
}

func TestRunStaleOutputIsNotSuccess(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(out, []byte(`{"files_analyzed": 1}`), 0o644))
	script := writeScript(t, dir, "s.sh", `exit 0`)

	outcome := newTestInvoker(nil, time.Minute, 1).Run(context.Background(), Invocation{
		Script: script, OutputPath: out, Format: FormatJSON,
	})

	require.NotNil(t, outcome.Failure)
	assert.Equal(t, ReasonMissingOutput, outcome.Failure.Reason)
}

func TestRunTimeout(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, "slow.sh", `exec sleep 5`)

	outcome := newTestInvoker(nil, 200*time.Millisecond, 1).Run(context.Background(), Invocation{
		Script: script, OutputPath: filepath.Join(dir, "out"), Format: FormatJSON,
	})

	require.NotNil(t, outcome.Failure)
	assert.Equal(t, ReasonTimeout, outcome.Failure.Reason)
	assert.Less(t, outcome.Duration, 5*time.Second)
}

func TestRunSpawnError(t *testing.T) {
	inv := NewInvoker(config.AnalysisConfig{
		Interpreter:   filepath.Join(t.TempDir(), "no-such-interpreter"),
		Timeout:       time.Minute,
		MaxConcurrent: 1,
	}, nil, log.Discard())

	outcome := inv.Run(context.Background(), Invocation{Script: "x.py", OutputPath: "out"})

	require.NotNil(t, outcome.Failure)
	assert.Equal(t, ReasonSpawnError, outcome.Failure.Reason)
	assert.Equal(t, -1, outcome.ExitCode)
}

func TestRunRespectsConcurrencyCeiling(t *testing.T) {
	dir := t.TempDir()
	trace := filepath.Join(dir, "trace")
	script := writeScript(t, dir, "s.sh", `echo start >> "$1"; sleep 0.2; echo end >> "$1"; echo '{}' > "$2"`)

	inv := newTestInvoker(nil, time.Minute, 1)

	var futures []*Future
	for i := 0; i < 3; i++ {
		out := filepath.Join(dir, "out"+string(rune('a'+i)))
		futures = append(futures, inv.Start(context.Background(), Invocation{
			Script: script, Args: []string{trace, out}, OutputPath: out, Format: FormatJSON,
		}))
	}
	for _, f := range futures {
		outcome, err := f.Wait(context.Background())
		require.NoError(t, err)
		assert.True(t, outcome.Succeeded())
	}

	data, err := os.ReadFile(trace)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("start\nend\n", 3), string(data))
}

func TestFutureWaitCanBeAbandoned(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.json")
	script := writeScript(t, dir, "s.sh", `sleep 0.3; echo '{}' > "$1"`)

	f := newTestInvoker(nil, time.Minute, 1).Start(context.Background(), Invocation{
		Script: script, Args: []string{out}, OutputPath: out, Format: FormatJSON,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// the process still runs to completion
	outcome, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, outcome.Succeeded())

	again, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, outcome.RunID, again.RunID)
}

func TestFutureResolvesOnce(t *testing.T) {
	f := newFuture()
	f.resolve(Outcome{RunID: "first"})
	f.resolve(Outcome{RunID: "second"})

	<-f.done
	outcome, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", outcome.RunID)
}

func TestTailBufferKeepsEnd(t *testing.T) {
	b := newTailBuffer(4)
	_, _ = b.Write([]byte("abc"))
	_, _ = b.Write([]byte("defg"))
	assert.Equal(t, "defg", b.String())
}
