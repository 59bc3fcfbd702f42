package executor

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"fan_controller/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner fails the first failures calls, then succeeds with out.
type scriptedRunner struct {
	failures int
	out      string
	stderr   string
	calls    int
	argv     [][]string
}

func (r *scriptedRunner) Run(_ context.Context, argv []string) ([]byte, []byte, error) {
	r.calls++
	r.argv = append(r.argv, argv)
	if r.calls <= r.failures {
		return nil, []byte(r.stderr), errors.New("exit status 1")
	}
	return []byte(r.out), nil, nil
}

// hangingRunner blocks until its context is done, like a stuck process.
type hangingRunner struct{ calls int }

func (r *hangingRunner) Run(ctx context.Context, _ []string) ([]byte, []byte, error) {
	r.calls++
	<-ctx.Done()
	return nil, nil, errors.New("signal: killed")
}

type recordedSleeps struct{ total []time.Duration }

func (s *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	s.total = append(s.total, d)
	return ctx.Err()
}

func sum(ds []time.Duration) time.Duration {
	var t time.Duration
	for _, d := range ds {
		t += d
	}
	return t
}

type countingObserver struct{ ok, failed int }

func (o *countingObserver) ObserveCommandAttempt(_ string, ok bool) {
	if ok {
		o.ok++
	} else {
		o.failed++
	}
}

func TestExecute_SucceedsAfterRetries(t *testing.T) {
	for _, maxRetries := range []int{1, 2, 3, 5} {
		runner := &scriptedRunner{failures: maxRetries - 1, out: "sensor table"}
		sleeps := &recordedSleeps{}
		obs := &countingObserver{}
		ex := New(logger.Nop(), WithRunner(runner), WithSleep(sleeps.sleep), WithObserver(obs))

		out, err := ex.Execute(context.Background(), []string{"racadm", "getsensorinfo"}, time.Second, maxRetries)
		require.NoError(t, err)
		assert.Equal(t, "sensor table", out)
		assert.Equal(t, maxRetries, runner.calls)

		var want time.Duration
		for i := 0; i <= maxRetries-2; i++ {
			want += time.Duration(1<<i) * time.Second
		}
		assert.Equal(t, want, sum(sleeps.total), "maxRetries=%d", maxRetries)
		assert.Equal(t, 1, obs.ok)
		assert.Equal(t, maxRetries-1, obs.failed)
	}
}

func TestExecute_ExhaustsRetries(t *testing.T) {
	runner := &scriptedRunner{failures: 10, stderr: "  Unable to establish IPMI v2 session \n"}
	sleeps := &recordedSleeps{}
	ex := New(logger.Nop(), WithRunner(runner), WithSleep(sleeps.sleep))

	_, err := ex.Execute(context.Background(), []string{"ipmitool", "raw"}, time.Second, 3)
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "ipmitool", execErr.Command)
	assert.Equal(t, 3, execErr.Attempts)
	assert.Contains(t, err.Error(), "Unable to establish IPMI v2 session")
	assert.Equal(t, 3, runner.calls)
	// no sleep after the final attempt
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.total)
}

func TestExecute_TimeoutPerAttempt(t *testing.T) {
	runner := &hangingRunner{}
	sleeps := &recordedSleeps{}
	ex := New(logger.Nop(), WithRunner(runner), WithSleep(sleeps.sleep))

	_, err := ex.Execute(context.Background(), []string{"racadm"}, 10*time.Millisecond, 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 2, runner.calls)
}

func TestExecute_ParentCancelledStopsRetrying(t *testing.T) {
	runner := &scriptedRunner{failures: 10}
	ctx, cancel := context.WithCancel(context.Background())
	ex := New(logger.Nop(), WithRunner(runner), WithSleep(func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}))

	_, err := ex.Execute(ctx, []string{"racadm"}, time.Second, 5)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, runner.calls)
}

func TestExecute_EmptyCommand(t *testing.T) {
	ex := New(logger.Nop())
	_, err := ex.Execute(context.Background(), nil, time.Second, 1)
	assert.Error(t, err)
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, Backoff(0))
	assert.Equal(t, 2*time.Second, Backoff(1))
	assert.Equal(t, 8*time.Second, Backoff(3))
}

func TestExecRunner_KillsTimedOutProcess(t *testing.T) {
	if _, err := exec.LookPath("sleep"); err != nil {
		t.Skip("sleep binary not available")
	}
	ex := New(logger.Nop(), WithSleep(func(context.Context, time.Duration) error { return nil }))

	start := time.Now()
	_, err := ex.Execute(context.Background(), []string{"sleep", "30"}, 50*time.Millisecond, 1)
	require.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestExecRunner_NonZeroExitCarriesStderr(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	ex := New(logger.Nop())

	_, err := ex.Execute(context.Background(), []string{"sh", "-c", "echo bad creds >&2; exit 3"}, 5*time.Second, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad creds")

	out, err := ex.Execute(context.Background(), []string{"sh", "-c", "echo ok"}, 5*time.Second, 1)
	require.NoError(t, err)
	assert.Equal(t, "ok\n", out)
}
