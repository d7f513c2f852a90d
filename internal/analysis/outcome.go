package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/just-nibble/srs-tracker/pkg/errcodes"
)

// Reason says why an analysis run failed. Each reason is reported as-is to
// clients and in logs.
type Reason string

const (
	ReasonSpawnError      Reason = "SpawnError"
	ReasonNonZeroExit     Reason = "NonZeroExit"
	ReasonMissingOutput   Reason = "MissingOutput"
	ReasonMalformedOutput Reason = "MalformedOutput"
	ReasonTimeout         Reason = "Timeout"
)

// Failure is the error form of an unsuccessful run.
type Failure struct {
	Reason   Reason
	ExitCode int
	Stderr   string
	Err      error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("analysis failed (%s): %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("analysis failed (%s)", f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// Is lets errors.Is(err, errcodes.ErrAnalysis) match any Failure.
func (f *Failure) Is(target error) bool {
	return target == errcodes.ErrAnalysis
}

// Details is the diagnostic payload attached to HTTP error responses.
func (f *Failure) Details() map[string]interface{} {
	return map[string]interface{}{
		"reason":   f.Reason,
		"exitCode": f.ExitCode,
		"stderr":   f.Stderr,
	}
}

// Outcome is the single result of one invocation. Failure is nil on success.
type Outcome struct {
	RunID      string
	OutputPath string
	Stdout     string
	Stderr     string
	ExitCode   int
	StartedAt  time.Time
	Duration   time.Duration
	Failure    *Failure
}

func (o Outcome) Succeeded() bool { return o.Failure == nil }

// Err returns the failure as an error, or nil.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return o.Failure
}

// Future resolves exactly once with the outcome of a started invocation.
type Future struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future that already holds o.
func Resolved(o Outcome) *Future {
	f := newFuture()
	f.resolve(o)
	return f
}

// Go runs fn in the background and resolves the returned future with its
// result.
func Go(fn func() Outcome) *Future {
	f := newFuture()
	go func() {
		f.resolve(fn())
	}()
	return f
}

func (f *Future) resolve(o Outcome) {
	f.once.Do(func() {
		f.outcome = o
		close(f.done)
	})
}

// Wait blocks until the outcome is available or ctx ends. Giving up on
// the wait does not stop the process; its outcome is still delivered to
// anyone else waiting.
func (f *Future) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-f.done:
		return f.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}
