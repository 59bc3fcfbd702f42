package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"fan_controller/internal/clock"
	"fan_controller/internal/logger"
)

const (
	// DefaultTimeout bounds one attempt when the caller passes a non-positive timeout.
	DefaultTimeout = 15 * time.Second
	// waitDelay bounds pipe draining after a timed-out process was killed.
	waitDelay = 2 * time.Second
)

var (
	// ErrTimeout marks an attempt that exceeded its per-attempt timeout.
	ErrTimeout = errors.New("command timed out")

	errEmptyCommand = errors.New("empty command")
)

// ExecutionError is returned once every attempt of a command failed.
type ExecutionError struct {
	Command  string
	Attempts int
	Err      error // last attempt failure
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command %s failed after %d attempt(s): %v", e.Command, e.Attempts, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Runner starts one process and waits for it to exit.
// The process must be killed when ctx is done.
type Runner interface {
	Run(ctx context.Context, argv []string) (stdout, stderr []byte, err error)
}

// Observer receives per-attempt outcomes.
type Observer interface {
	ObserveCommandAttempt(command string, ok bool)
}

type nopObserver struct{}

func (nopObserver) ObserveCommandAttempt(string, bool) {}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, argv []string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay
	// Run waits for the process, so a killed child is always reaped.
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Executor runs external management commands with a timeout per attempt
// and exponential backoff between attempts.
type Executor struct {
	runner   Runner
	sleep    clock.SleepFunc
	log      *logger.Logger
	observer Observer
}

// Option customises an Executor.
type Option func(*Executor)

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option { return func(e *Executor) { e.runner = r } }

// WithSleep replaces the backoff sleep.
func WithSleep(fn clock.SleepFunc) Option { return func(e *Executor) { e.sleep = fn } }

// WithObserver reports attempt outcomes to o.
func WithObserver(o Observer) Option { return func(e *Executor) { e.observer = o } }

// New builds an Executor backed by os/exec.
func New(log *logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		runner:   execRunner{},
		sleep:    clock.Sleep,
		log:      log,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backoff is the pause after the failed attempt with the given 0-based index.
func Backoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// Execute runs argv up to maxRetries times and returns its stdout.
// Arguments are never logged because they carry controller credentials.
func (e *Executor) Execute(ctx context.Context, argv []string, timeout time.Duration, maxRetries int) (string, error) {
	if len(argv) == 0 {
		return "", errEmptyCommand
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	name := argv[0]

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		out, err := e.attempt(ctx, argv, timeout)
		e.observer.ObserveCommandAttempt(name, err == nil)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
		e.log.Warnw("command_attempt_failed",
			"command", name, "attempt", attempt+1, "max_attempts", maxRetries, "err", err)

		if attempt < maxRetries-1 {
			if err := e.sleep(ctx, Backoff(attempt)); err != nil {
				return "", err
			}
		}
	}

	return "", &ExecutionError{Command: name, Attempts: maxRetries, Err: lastErr}
}

func (e *Executor) attempt(ctx context.Context, argv []string, timeout time.Duration) (string, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout, stderr, err := e.runner.Run(attemptCtx, argv)
	if err == nil {
		return string(stdout), nil
	}
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return "", fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if detail := strings.TrimSpace(string(stderr)); detail != "" {
		return "", fmt.Errorf("%w: %s", err, detail)
	}
	return "", err
}
