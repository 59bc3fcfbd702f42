package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"fan_controller/internal/logger"
	"fan_controller/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCurve = []models.CurvePoint{
	{Temperature: 50, Speed: 15},
	{Temperature: 60, Speed: 15},
	{Temperature: 70, Speed: 20},
	{Temperature: 80, Speed: 40},
}

type monitorFixture struct {
	settings *fakeSettings
	curves   *fakeCurves
	history  *fakeHistory
	sink     *fakeSink
	clients  []*fakeClient
	sleep    *scriptedSleep
	monitor  *Monitor
	ctx      context.Context
}

func newMonitorFixture(t *testing.T, client *fakeClient, sleepLimit int, settings ...map[string]string) *monitorFixture {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	f := &monitorFixture{
		settings: &fakeSettings{values: settings},
		curves:   &fakeCurves{points: testCurve},
		history:  &fakeHistory{},
		sink:     &fakeSink{},
		sleep:    &scriptedSleep{limit: sleepLimit, cancel: cancel},
		ctx:      ctx,
	}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	f.monitor = NewMonitor(MonitorDeps{
		Settings: f.settings,
		Curves:   f.curves,
		History:  f.history,
		Events:   f.sink,
		Clients: func(cfg models.ControlConfig) HardwareClient {
			c := client
			if len(f.clients) > 0 {
				// every rebuild gets a fresh client with the same behaviour
				c = &fakeClient{reading: client.reading, readErr: client.readErr}
			}
			c.host = cfg.Host
			f.clients = append(f.clients, c)
			return c
		},
		Log:   logger.Nop(),
		Sleep: f.sleep.sleep,
		Now:   func() time.Time { return now },
	})
	return f
}

func TestMonitor_CircuitBreaker(t *testing.T) {
	client := &fakeClient{readErr: errBMC}
	f := newMonitorFixture(t, client, 11, configured("10.0.0.2"))

	f.monitor.Run(f.ctx)

	want := []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second, 32 * time.Second,
		60 * time.Second, 60 * time.Second, 60 * time.Second, 60 * time.Second,
		300 * time.Second,
		2 * time.Second, // counter was reset by the cooldown
	}
	assert.Equal(t, want, f.sleep.slept)
	assert.Empty(t, client.speeds)
	assert.Empty(t, f.history.appended)
	assert.Equal(t, 1, client.disables, "shutdown restores auto control")
}

func TestMonitor_SuccessfulCycle(t *testing.T) {
	client := &fakeClient{reading: models.TelemetryReading{CPUTemp: 65, PowerWatts: 180}}
	f := newMonitorFixture(t, client, 1, configured("10.0.0.2"))

	f.monitor.Run(f.ctx)

	assert.Equal(t, 1, client.enables)
	assert.Equal(t, []int{17}, client.speeds)
	assert.Equal(t, []time.Duration{30 * time.Second}, f.sleep.slept)

	require.Len(t, f.history.appended, 1)
	assert.Equal(t, 17, f.history.appended[0].FanSpeed)
	assert.False(t, f.history.appended[0].ObservedAt.IsZero())

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, models.EventStatusUpdate, f.sink.events[0].Type)
	st, ok := f.sink.events[0].Data.(models.Status)
	require.True(t, ok)
	assert.Equal(t, models.ModeManual, st.ControlMode)
	assert.Equal(t, 65.0, st.CPUTemp)

	// after shutdown the snapshot keeps the last reading but shows auto mode
	final := f.monitor.Status()
	assert.Equal(t, 17, final.FanSpeed)
	assert.Equal(t, 180, final.PowerWatts)
	require.NotNil(t, final.LastUpdate)
	assert.Equal(t, models.ModeAuto, final.ControlMode)
}

func TestMonitor_SuccessResetsCounter(t *testing.T) {
	client := &fakeClient{readErr: errBMC}
	f := newMonitorFixture(t, client, 4, configured("10.0.0.2"))
	f.sleep.onCall = func(n int) {
		client.mu.Lock()
		defer client.mu.Unlock()
		switch n {
		case 2:
			client.readErr = nil
			client.reading = models.TelemetryReading{CPUTemp: 40}
		case 3:
			client.readErr = errBMC
		}
	}

	f.monitor.Run(f.ctx)

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 30 * time.Second, 2 * time.Second}, f.sleep.slept)
}

func TestMonitor_WarmUpWaitsForHost(t *testing.T) {
	client := &fakeClient{reading: models.TelemetryReading{CPUTemp: 50}}
	f := newMonitorFixture(t, client, 3, configured(""), configured(""), configured("10.0.0.9"))

	f.monitor.Run(f.ctx)

	assert.Equal(t, []time.Duration{30 * time.Second, 30 * time.Second, 30 * time.Second}, f.sleep.slept)
	require.Len(t, f.clients, 1)
	assert.Equal(t, "10.0.0.9", f.clients[0].host)
	assert.Equal(t, []int{15}, client.speeds)
}

func TestMonitor_WarmUpCancelled(t *testing.T) {
	client := &fakeClient{}
	f := newMonitorFixture(t, client, 1, configured(""))

	f.monitor.Run(f.ctx)

	assert.Empty(t, f.clients, "no hardware client before a host exists")
	assert.Equal(t, 0, client.enables)
	assert.Equal(t, 0, client.disables)
}

func TestMonitor_CurveCache(t *testing.T) {
	client := &fakeClient{reading: models.TelemetryReading{CPUTemp: 75}}
	f := newMonitorFixture(t, client, 4, configured("10.0.0.2"))
	f.sleep.onCall = func(n int) {
		if n == 2 {
			f.curves.points = []models.CurvePoint{{Temperature: 0, Speed: 100}, {Temperature: 100, Speed: 100}}
			f.monitor.InvalidateCurveCache()
			f.monitor.InvalidateCurveCache() // coalesced
		}
	}

	f.monitor.Run(f.ctx)

	assert.Equal(t, 2, f.curves.lists)
	assert.Equal(t, []int{30, 30, 100, 100}, client.speeds)
}

func TestMonitor_ReloadConfigKeepsCadence(t *testing.T) {
	client := &fakeClient{reading: models.TelemetryReading{CPUTemp: 55}}
	reloaded := configured("10.0.0.3")
	reloaded[models.KeyInterval] = "10"
	f := newMonitorFixture(t, client, 3, configured("10.0.0.2"), reloaded)
	f.sleep.onCall = func(n int) {
		if n == 1 {
			require.NoError(t, f.monitor.ReloadConfig(context.Background()))
		}
	}

	f.monitor.Run(f.ctx)

	assert.Equal(t, []time.Duration{30 * time.Second, 10 * time.Second, 10 * time.Second}, f.sleep.slept)
	require.Len(t, f.clients, 2)
	assert.Equal(t, "10.0.0.3", f.clients[1].host)
	assert.Equal(t, 1, f.clients[1].enables, "manual override reissued on the new client")
	assert.Len(t, f.clients[1].speeds, 2)
}

func TestMonitor_ReloadConfigRejectsMissingHost(t *testing.T) {
	f := newMonitorFixture(t, &fakeClient{}, 1, configured(""))
	assert.ErrorIs(t, f.monitor.ReloadConfig(context.Background()), ErrConfigMissing)
	assert.Empty(t, f.clients)
}

func TestMonitor_ReloadAfterRestoreKeepsAuto(t *testing.T) {
	client := &fakeClient{reading: models.TelemetryReading{CPUTemp: 55}}
	f := newMonitorFixture(t, client, 3, configured("10.0.0.2"))
	f.sleep.onCall = func(n int) {
		if n == 1 {
			require.NoError(t, f.monitor.RestoreAutoControl(context.Background()))
			require.NoError(t, f.monitor.ReloadConfig(context.Background()))
		}
	}

	f.monitor.Run(f.ctx)

	require.Len(t, f.clients, 2)
	assert.Equal(t, 0, f.clients[1].enables, "restore to auto survives a reload for the same host")
	require.Len(t, f.sink.events, 3)
	for _, ev := range f.sink.events[1:] {
		assert.Equal(t, models.ModeAuto, ev.Data.(models.Status).ControlMode)
	}
}

func TestMonitor_ReloadToNewHostRearms(t *testing.T) {
	client := &fakeClient{reading: models.TelemetryReading{CPUTemp: 55}}
	f := newMonitorFixture(t, client, 2, configured("10.0.0.2"), configured("10.0.0.3"))
	f.sleep.onCall = func(n int) {
		if n == 1 {
			require.NoError(t, f.monitor.RestoreAutoControl(context.Background()))
			require.NoError(t, f.monitor.ReloadConfig(context.Background()))
		}
	}

	f.monitor.Run(f.ctx)

	require.Len(t, f.clients, 2)
	assert.Equal(t, "10.0.0.3", f.clients[1].host)
	assert.Equal(t, 1, f.clients[1].enables)
	require.Len(t, f.sink.events, 2)
	assert.Equal(t, models.ModeManual, f.sink.events[1].Data.(models.Status).ControlMode)
}

func TestMonitor_ReloadDuringWarmUpTakesControlOnce(t *testing.T) {
	client := &fakeClient{reading: models.TelemetryReading{CPUTemp: 55}}
	f := newMonitorFixture(t, client, 2, configured(""), configured("10.0.0.2"), configured("10.0.0.3"))
	f.sleep.onCall = func(n int) {
		if n == 1 {
			// two reloads with different hosts leave a pending rearm
			require.NoError(t, f.monitor.ReloadConfig(context.Background()))
			require.NoError(t, f.monitor.ReloadConfig(context.Background()))
		}
	}

	f.monitor.Run(f.ctx)

	require.Len(t, f.clients, 3)
	assert.Equal(t, 1, f.clients[2].enables)
	assert.Len(t, f.clients[2].speeds, 1)
}

func TestMonitor_CycleKeepsConcurrentRestore(t *testing.T) {
	client := &fakeClient{reading: models.TelemetryReading{CPUTemp: 65}}
	f := newMonitorFixture(t, client, 1, configured("10.0.0.2"))
	ctx := context.Background()
	require.NoError(t, f.monitor.ReloadConfig(ctx))
	f.monitor.takeControl(ctx)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			_ = f.monitor.cycle(ctx)
		}
	}()
	go func() {
		defer wg.Done()
		time.Sleep(time.Millisecond)
		assert.NoError(t, f.monitor.RestoreAutoControl(ctx))
	}()
	wg.Wait()

	assert.Equal(t, models.ModeAuto, f.monitor.machine.Mode())
	assert.Equal(t, models.ModeAuto, f.monitor.Status().ControlMode)
}

func TestMonitor_SetFanSpeedFailureIsCycleError(t *testing.T) {
	client := &fakeClient{reading: models.TelemetryReading{CPUTemp: 65}, setErr: errBMC}
	f := newMonitorFixture(t, client, 1, configured("10.0.0.2"))

	f.monitor.Run(f.ctx)

	assert.Equal(t, []time.Duration{2 * time.Second}, f.sleep.slept)
	assert.Empty(t, f.history.appended)
	assert.Empty(t, f.sink.events)
}

func TestMonitor_RestoreAutoControl(t *testing.T) {
	f := newMonitorFixture(t, &fakeClient{}, 1, configured("10.0.0.2"))
	assert.ErrorIs(t, f.monitor.RestoreAutoControl(context.Background()), ErrNotConfigured)

	require.NoError(t, f.monitor.ReloadConfig(context.Background()))
	f.monitor.takeControl(context.Background())
	require.Equal(t, models.ModeManual, f.monitor.Status().ControlMode)

	require.NoError(t, f.monitor.RestoreAutoControl(context.Background()))
	assert.Equal(t, models.ModeAuto, f.monitor.Status().ControlMode)

	f.clients[0].disableErr = errBMC
	f.monitor.takeControl(context.Background())
	assert.Error(t, f.monitor.RestoreAutoControl(context.Background()))
	assert.Equal(t, models.ModeManual, f.monitor.Status().ControlMode)
}

func TestErrorBackoff(t *testing.T) {
	for n, want := range map[int]time.Duration{
		1: 2 * time.Second, 2: 4 * time.Second, 5: 32 * time.Second,
		6: 60 * time.Second, 9: 60 * time.Second, 40: 60 * time.Second,
	} {
		assert.Equal(t, want, errorBackoff(n), "n=%d", n)
	}
}
