package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"fan_controller/internal/models"
)

// fakeSettings serves successive snapshots; the last one repeats.
type fakeSettings struct {
	mu      sync.Mutex
	values  []map[string]string
	err     error
	calls   int
	written []map[string]string
	setErr  error
}

func (f *fakeSettings) GetAll(context.Context) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	i := f.calls - 1
	if i >= len(f.values) {
		i = len(f.values) - 1
	}
	out := make(map[string]string, len(f.values[i]))
	for k, v := range f.values[i] {
		out[k] = v
	}
	return out, nil
}

func (f *fakeSettings) Set(_ context.Context, values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.setErr != nil {
		return f.setErr
	}
	f.written = append(f.written, values)
	return nil
}

type fakeCurves struct {
	points   []models.CurvePoint
	err      error
	lists    int
	replaced []models.CurvePoint
}

func (f *fakeCurves) List(context.Context) ([]models.CurvePoint, error) {
	f.lists++
	return f.points, f.err
}

func (f *fakeCurves) Replace(_ context.Context, points []models.CurvePoint) error {
	f.replaced = points
	return f.err
}

type fakeHistory struct {
	mu        sync.Mutex
	appended  []models.TelemetryReading
	appendErr error
	from, to  time.Time
	cutoffs   []time.Time
	deleteErr []error
	deleted   int64
}

func (f *fakeHistory) Append(_ context.Context, r models.TelemetryReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, r)
	return nil
}

func (f *fakeHistory) Range(_ context.Context, from, to time.Time) ([]models.TelemetryReading, error) {
	f.from, f.to = from, to
	return f.appended, nil
}

func (f *fakeHistory) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs = append(f.cutoffs, cutoff)
	if len(f.deleteErr) > 0 {
		err := f.deleteErr[0]
		f.deleteErr = f.deleteErr[1:]
		if err != nil {
			return 0, err
		}
	}
	return f.deleted, nil
}

type fakeClient struct {
	mu         sync.Mutex
	host       string
	reading    models.TelemetryReading
	readErr    error
	setErr     error
	speeds     []int
	enables    int
	disables   int
	disableErr error
}

func (c *fakeClient) ReadTelemetry(context.Context) (models.TelemetryReading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reading, c.readErr
}

func (c *fakeClient) SetFanSpeed(_ context.Context, p int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.speeds = append(c.speeds, p)
	return nil
}

func (c *fakeClient) EnableManualControl(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enables++
	return nil
}

func (c *fakeClient) DisableManualControl(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	c.disables++
	return c.disableErr
}

type fakeSink struct {
	mu     sync.Mutex
	events []models.Event
}

func (s *fakeSink) Broadcast(ev models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

// scriptedSleep records requested durations and cancels the run after limit sleeps.
type scriptedSleep struct {
	slept  []time.Duration
	limit  int
	cancel context.CancelFunc
	onCall func(n int)
}

func (s *scriptedSleep) sleep(ctx context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	if s.onCall != nil {
		s.onCall(len(s.slept))
	}
	if len(s.slept) >= s.limit {
		s.cancel()
		return ctx.Err()
	}
	return ctx.Err()
}

var errBMC = errors.New("racadm: connection refused")

func configured(host string) map[string]string {
	return map[string]string{
		models.KeyHost:     host,
		models.KeyUsername: "root",
		models.KeyPassword: "calvin",
		models.KeyInterval: "30",
	}
}
