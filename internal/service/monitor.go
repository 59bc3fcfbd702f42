package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"fan_controller/internal/clock"
	"fan_controller/internal/control"
	"fan_controller/internal/curve"
	"fan_controller/internal/logger"
	"fan_controller/internal/models"
	"fan_controller/internal/repository"
)

// Loop timing.
const (
	configPollInterval     = 30 * time.Second
	maxErrorBackoff        = 60 * time.Second
	errorThreshold         = 10
	cooldownPause          = 300 * time.Second
	shutdownRestoreTimeout = 30 * time.Second
)

// HardwareClient is what one monitor cycle needs from the management controller.
type HardwareClient interface {
	control.Commander
	ReadTelemetry(ctx context.Context) (models.TelemetryReading, error)
	SetFanSpeed(ctx context.Context, percent int) error
}

// ClientFactory builds a hardware client for a validated config. It must not do I/O.
type ClientFactory func(cfg models.ControlConfig) HardwareClient

// EventSink receives live events.
type EventSink interface {
	Broadcast(ev models.Event) error
}

// MonitorRecorder receives loop metrics.
type MonitorRecorder interface {
	ObserveCycle(ok bool, took time.Duration, consecutiveErrors int)
	ObserveCooldown()
	ObserveReading(r models.TelemetryReading)
}

type nopMonitorRecorder struct{}

func (nopMonitorRecorder) ObserveCycle(bool, time.Duration, int) {}
func (nopMonitorRecorder) ObserveCooldown() {}
func (nopMonitorRecorder) ObserveReading(models.TelemetryReading) {}

// MonitorDeps groups what NewMonitor needs.
type MonitorDeps struct {
	Settings repository.SettingsRepo
	Curves   repository.CurveRepo
	History  repository.HistoryRepo
	Events   EventSink
	Clients  ClientFactory
	Metrics  MonitorRecorder
	Log      *logger.Logger

	// Sleep and Now default to the real clock.
	Sleep clock.SleepFunc
	Now   clock.NowFunc
}

// Monitor runs the closed control loop: read telemetry, evaluate the curve,
// apply the fan speed, publish status and record history.
type Monitor struct {
	settings repository.SettingsRepo
	curves   repository.CurveRepo
	history  repository.HistoryRepo
	events   EventSink
	clients  ClientFactory
	rec      MonitorRecorder
	log      *logger.Logger
	sleep    clock.SleepFunc
	now      clock.NowFunc

	machine *control.Machine
	status  atomic.Pointer[models.Status]

	mu     sync.Mutex
	client HardwareClient
	cfg    models.ControlConfig

	// rearm asks the loop to reissue the manual override after a reload.
	rearm atomic.Bool
	// invalidate is drained by the loop; the curve cache below belongs to Run.
	invalidate  chan struct{}
	curve       []models.CurvePoint
	curveLoaded bool
}

func NewMonitor(d MonitorDeps) *Monitor {
	m := &Monitor{
		settings:   d.Settings,
		curves:     d.Curves,
		history:    d.History,
		events:     d.Events,
		clients:    d.Clients,
		rec:        d.Metrics,
		log:        d.Log,
		sleep:      d.Sleep,
		now:        d.Now,
		machine:    control.NewMachine(nil, d.Log),
		invalidate: make(chan struct{}, 1),
	}
	if m.rec == nil {
		m.rec = nopMonitorRecorder{}
	}
	if m.sleep == nil {
		m.sleep = clock.Sleep
	}
	if m.now == nil {
		m.now = clock.UTCNow
	}
	m.status.Store(&models.Status{ControlMode: models.ModeAuto})
	return m
}

// Status returns the latest snapshot without blocking on the loop.
func (m *Monitor) Status() models.Status {
	return *m.status.Load()
}

// InvalidateCurveCache makes the next cycle refetch the curve.
func (m *Monitor) InvalidateCurveCache() {
	select {
	case m.invalidate <- struct{}{}:
	default:
	}
	m.log.Infow("curve_cache_invalidated")
}

// ReloadConfig re-reads the stored settings and swaps in a new hardware
// client. The loop keeps its cadence; a new interval applies from the next sleep.
// The manual override is reissued on the new client only while the loop holds
// manual control or when the host changed; an operator's restore to auto
// survives a settings update for the same host.
func (m *Monitor) ReloadConfig(ctx context.Context) error {
	cfg, err := m.loadConfig(ctx)
	if err != nil {
		return err
	}
	prevHost := m.install(cfg)
	if m.machine.Mode() == models.ModeManual || (prevHost != "" && prevHost != cfg.Host) {
		m.rearm.Store(true)
	}
	m.log.Infow("monitor_config_reloaded", "host", cfg.Host, "interval_s", cfg.PollIntervalSeconds)
	return nil
}

// RestoreAutoControl hands fan control back to the BMC.
func (m *Monitor) RestoreAutoControl(ctx context.Context) error {
	if m.hardware() == nil {
		return ErrNotConfigured
	}
	if err := m.machine.DisableManual(ctx); err != nil {
		return fmt.Errorf("restore auto control: %w", err)
	}
	m.updateStatus(func(s *models.Status) { s.ControlMode = m.machine.Mode() })
	return nil
}

// Run blocks until ctx is cancelled. On the way out it restores automatic
// fan control if a client was ever configured.
func (m *Monitor) Run(ctx context.Context) {
	cfg, ok := m.waitForConfig(ctx)
	if !ok {
		return
	}
	m.install(cfg)
	defer m.restoreOnShutdown(ctx)

	// a reload during warm-up is covered by this first takeover
	m.rearm.Store(false)
	m.takeControl(ctx)
	m.log.Infow("monitor_started", "host", cfg.Host, "interval_s", cfg.PollIntervalSeconds)

	consecutive := 0
	for {
		if m.rearm.Swap(false) {
			m.takeControl(ctx)
		}
		m.dropCurveIfInvalidated()

		started := m.now()
		err := m.cycle(ctx)
		if ctx.Err() != nil {
			return
		}

		var wait time.Duration
		if err == nil {
			consecutive = 0
			m.rec.ObserveCycle(true, m.now().Sub(started), 0)
			wait = m.interval()
		} else {
			consecutive++
			m.rec.ObserveCycle(false, 0, consecutive)
			m.log.Errorw("monitor_cycle_failed", "consecutive_errors", consecutive, "err", err)
			if consecutive >= errorThreshold {
				m.log.Criticalw("monitor_paused", "consecutive_errors", consecutive, "pause", cooldownPause)
				m.rec.ObserveCooldown()
				consecutive = 0
				wait = cooldownPause
			} else {
				wait = errorBackoff(consecutive)
			}
		}

		if err := m.sleep(ctx, wait); err != nil {
			return
		}
	}
}

// errorBackoff is min(60s, 2^n s).
func errorBackoff(n int) time.Duration {
	if n >= 6 {
		return maxErrorBackoff
	}
	d := time.Duration(1<<uint(n)) * time.Second
	if d > maxErrorBackoff {
		return maxErrorBackoff
	}
	return d
}

// cycle performs one read/evaluate/apply/record pass.
func (m *Monitor) cycle(ctx context.Context) error {
	client := m.hardware()
	if client == nil {
		return ErrNotConfigured
	}

	reading, err := client.ReadTelemetry(ctx)
	if err != nil {
		return fmt.Errorf("read telemetry: %w", err)
	}

	points, err := m.curvePoints(ctx)
	if err != nil {
		return fmt.Errorf("load fan curve: %w", err)
	}
	target := curve.Evaluate(reading.CPUTemp, points)

	if err := client.SetFanSpeed(ctx, target); err != nil {
		return fmt.Errorf("set fan speed %d%%: %w", target, err)
	}
	reading.FanSpeed = target
	if reading.ObservedAt.IsZero() {
		reading.ObservedAt = m.now()
	}

	at := reading.ObservedAt
	snapshot := m.updateStatus(func(s *models.Status) {
		s.CPUTemp = reading.CPUTemp
		s.FanSpeed = target
		s.PowerWatts = reading.PowerWatts
		s.ControlMode = m.machine.Mode()
		s.LastUpdate = &at
	})
	m.rec.ObserveReading(reading)

	if err := m.history.Append(ctx, reading); err != nil {
		return fmt.Errorf("record history: %w", err)
	}

	if err := m.events.Broadcast(models.Event{Type: models.EventStatusUpdate, Data: snapshot}); err != nil {
		m.log.Warnw("status_broadcast_failed", "err", err)
	}

	m.log.Infow("monitor_cycle",
		"cpu_temp", reading.CPUTemp,
		"fan_speed", target,
		"power_w", reading.PowerWatts,
	)
	return nil
}

func (m *Monitor) dropCurveIfInvalidated() {
	select {
	case <-m.invalidate:
		m.curve = nil
		m.curveLoaded = false
	default:
	}
}

func (m *Monitor) curvePoints(ctx context.Context) ([]models.CurvePoint, error) {
	if m.curveLoaded {
		return m.curve, nil
	}
	points, err := m.curves.List(ctx)
	if err != nil {
		return nil, err
	}
	m.curve = points
	m.curveLoaded = true
	return points, nil
}

// waitForConfig polls the settings store until a host is configured.
// It performs no hardware I/O.
func (m *Monitor) waitForConfig(ctx context.Context) (models.ControlConfig, bool) {
	warned := false
	for {
		cfg, err := m.loadConfig(ctx)
		if err == nil {
			return cfg, true
		}
		if !warned {
			if errors.Is(err, ErrConfigMissing) {
				m.log.Warnw("monitor_waiting_for_config", "retry_in", configPollInterval)
			} else {
				m.log.Errorw("monitor_config_load_failed", "err", err, "retry_in", configPollInterval)
			}
			warned = true
		}
		if err := m.sleep(ctx, configPollInterval); err != nil {
			return models.ControlConfig{}, false
		}
	}
}

func (m *Monitor) loadConfig(ctx context.Context) (models.ControlConfig, error) {
	values, err := m.settings.GetAll(ctx)
	if err != nil {
		return models.ControlConfig{}, fmt.Errorf("load settings: %w", err)
	}
	return parseControlConfig(values)
}

// install swaps in a client for cfg and returns the previously configured host.
func (m *Monitor) install(cfg models.ControlConfig) string {
	client := m.clients(cfg)
	m.mu.Lock()
	prev := m.cfg.Host
	m.client = client
	m.cfg = cfg
	m.mu.Unlock()
	m.machine.SetCommander(client)
	return prev
}

func (m *Monitor) hardware() HardwareClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.client
}

func (m *Monitor) interval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Duration(m.cfg.PollIntervalSeconds) * time.Second
}

func (m *Monitor) takeControl(ctx context.Context) {
	if m.machine.EnableManual(ctx) {
		m.updateStatus(func(s *models.Status) { s.ControlMode = m.machine.Mode() })
	}
}

func (m *Monitor) restoreOnShutdown(parent context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), shutdownRestoreTimeout)
	defer cancel()
	if err := m.machine.DisableManual(ctx); err != nil {
		m.log.Errorw("monitor_stop_restore_failed", "err", err)
	} else {
		m.updateStatus(func(s *models.Status) { s.ControlMode = m.machine.Mode() })
	}
	m.log.Infow("monitor_stopped")
}

// updateStatus applies fn to a copy of the snapshot and publishes it.
// fn may run more than once and must read shared state afresh each time.
func (m *Monitor) updateStatus(fn func(*models.Status)) models.Status {
	for {
		old := m.status.Load()
		next := *old
		fn(&next)
		if m.status.CompareAndSwap(old, &next) {
			return next
		}
	}
}
