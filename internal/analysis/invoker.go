package analysis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/just-nibble/srs-tracker/internal/runlog"
	"github.com/just-nibble/srs-tracker/pkg/config"
	"github.com/just-nibble/srs-tracker/pkg/log"
)

const (
	maxCapture = 64 * 1024
	waitDelay  = 5 * time.Second
)

// Invocation describes one run of an external analysis script.
type Invocation struct {
	Repo       string
	Kind       string
	Script     string
	Args       []string
	OutputPath string
	Format     Format
}

// Journal receives a record of every finished run.
type Journal interface {
	Append(run runlog.Run) error
}

// Invoker runs analysis scripts as child processes. At most MaxConcurrent
// run at once and each is bounded by Timeout.
type Invoker struct {
	interpreter string
	timeout     time.Duration
	sem         *semaphore.Weighted
	journal     Journal
	log         *log.Log
}

func NewInvoker(cfg config.AnalysisConfig, journal Journal, logger *log.Log) *Invoker {
	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Invoker{
		interpreter: cfg.Interpreter,
		timeout:     cfg.Timeout,
		sem:         semaphore.NewWeighted(maxConcurrent),
		journal:     journal,
		log:         logger,
	}
}

// Start launches call in the background and returns its future.
func (inv *Invoker) Start(ctx context.Context, call Invocation) *Future {
	return Go(func() Outcome { return inv.Run(ctx, call) })
}

// Run executes call and blocks until it has an outcome. A run succeeds only
// when the process exits 0 and leaves well formed output at OutputPath.
func (inv *Invoker) Run(ctx context.Context, call Invocation) Outcome {
	out := Outcome{RunID: uuid.NewString(), OutputPath: call.OutputPath, StartedAt: time.Now()}
	logger := inv.log.WithFields(logrus.Fields{"repo": call.Repo, "kind": call.Kind, "run_id": out.RunID})

	if err := inv.sem.Acquire(ctx, 1); err != nil {
		out.Failure = &Failure{Reason: ReasonSpawnError, ExitCode: -1, Err: fmt.Errorf("waiting for analysis slot: %w", err)}
		inv.finish(logger, call, &out)
		return out
	}
	defer inv.sem.Release(1)

	runCtx := ctx
	var cancel context.CancelFunc = func() {}
	if inv.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, inv.timeout)
	}
	defer cancel()

	args := call.Args
	if call.Script != "" {
		args = append([]string{call.Script}, call.Args...)
	}
	cmd := exec.CommandContext(runCtx, inv.interpreter, args...)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1", "GIT_TERMINAL_PROMPT=0")
	cmd.WaitDelay = waitDelay

	stdout, stderr := newTailBuffer(maxCapture), newTailBuffer(maxCapture)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	// a stale file from an earlier run must not pass for this run's output
	_ = os.Remove(call.OutputPath)

	logger.WithField("script", call.Script).Info("starting analysis")
	out.StartedAt = time.Now()

	if err := cmd.Start(); err != nil {
		out.ExitCode = -1
		out.Failure = &Failure{Reason: ReasonSpawnError, ExitCode: -1, Err: err}
		inv.finish(logger, call, &out)
		return out
	}

	waitErr := cmd.Wait()
	out.Duration = time.Since(out.StartedAt)
	out.Stdout = stdout.String()
	out.Stderr = stderr.String()
	out.ExitCode = -1
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		out.Failure = &Failure{Reason: ReasonTimeout, Err: fmt.Errorf("exceeded %s", inv.timeout)}
	case waitErr != nil:
		out.Failure = &Failure{Reason: ReasonNonZeroExit, Err: waitErr}
	default:
		if _, err := os.Stat(call.OutputPath); err != nil {
			out.Failure = &Failure{Reason: ReasonMissingOutput, Err: fmt.Errorf("no output at %s", call.OutputPath)}
		} else if err := checkOutput(call.OutputPath, call.Format); err != nil {
			out.Failure = &Failure{Reason: ReasonMalformedOutput, Err: err}
		}
	}
	if out.Failure != nil {
		out.Failure.ExitCode = out.ExitCode
		out.Failure.Stderr = out.Stderr
	}

	inv.finish(logger, call, &out)
	return out
}

func (inv *Invoker) finish(logger *logrus.Entry, call Invocation, out *Outcome) {
	fields := logrus.Fields{"exit_code": out.ExitCode, "duration": out.Duration.String()}
	if !out.Succeeded() {
		logger.WithFields(fields).WithField("reason", out.Failure.Reason).
			WithField("stderr", out.Stderr).Error(out.Failure.Error())
	} else {
		logger.WithFields(fields).Info("analysis finished")
	}
	if out.Stdout != "" {
		logger.Debug(out.Stdout)
	}

	if inv.journal == nil {
		return
	}
	run := runlog.Run{
		ID:         out.RunID,
		Repo:       call.Repo,
		Kind:       call.Kind,
		Script:     call.Script,
		Args:       call.Args,
		StartedAt:  out.StartedAt,
		Duration:   out.Duration,
		ExitCode:   out.ExitCode,
		Stderr:     out.Stderr,
		OutputPath: call.OutputPath,
	}
	if !out.Succeeded() {
		run.Reason = string(out.Failure.Reason)
	}
	if err := inv.journal.Append(run); err != nil {
		logger.WithError(err).Warn("failed to journal analysis run")
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if len(b.buf) > b.max {
		b.buf = b.buf[len(b.buf)-b.max:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
