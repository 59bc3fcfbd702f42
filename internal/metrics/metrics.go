package metrics

import (
	"time"

	"fan_controller/internal/models"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "fanctl"

// Metrics holds the service collectors. A nil *Metrics records nothing.
type Metrics struct {
	cycles            *prometheus.CounterVec
	cycleDuration     prometheus.Histogram
	consecutiveErrors prometheus.Gauge
	cooldowns         prometheus.Counter
	cpuTemp           prometheus.Gauge
	fanSpeed          prometheus.Gauge
	power             prometheus.Gauge
	commandAttempts   *prometheus.CounterVec
	cleanupDeleted    prometheus.Counter
	subscribers       prometheus.Gauge
}

// New builds the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_cycles_total",
			Help:      "Monitor cycles by result.",
		}, []string{"result"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "monitor_cycle_duration_seconds",
			Help:      "Time from telemetry read to history append.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
		consecutiveErrors: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "monitor_consecutive_errors",
			Help:      "Failed cycles since the last success.",
		}),
		cooldowns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "monitor_cooldowns_total",
			Help:      "Times the error threshold forced a long pause.",
		}),
		cpuTemp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cpu_temperature_celsius",
			Help:      "Average CPU temperature of the last reading.",
		}),
		fanSpeed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fan_speed_percent",
			Help:      "Fan speed applied in the last cycle.",
		}),
		power: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "power_consumption_watts",
			Help:      "System board power draw of the last reading.",
		}),
		commandAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_attempts_total",
			Help:      "External command attempts by command and result.",
		}, []string{"command", "result"}),
		cleanupDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deleted_readings_total",
			Help:      "Readings removed by retention cleanup.",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_subscribers",
			Help:      "Connected live event subscribers.",
		}),
	}

	reg.MustRegister(
		m.cycles, m.cycleDuration, m.consecutiveErrors, m.cooldowns,
		m.cpuTemp, m.fanSpeed, m.power,
		m.commandAttempts, m.cleanupDeleted, m.subscribers,
	)
	return m
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}

// ObserveCommandAttempt counts one executor attempt.
func (m *Metrics) ObserveCommandAttempt(command string, ok bool) {
	if m == nil {
		return
	}
	m.commandAttempts.WithLabelValues(command, result(ok)).Inc()
}

// ObserveCycle records the outcome of a monitor cycle and the error streak after it.
func (m *Metrics) ObserveCycle(ok bool, took time.Duration, consecutiveErrors int) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(result(ok)).Inc()
	if ok {
		m.cycleDuration.Observe(took.Seconds())
	}
	m.consecutiveErrors.Set(float64(consecutiveErrors))
}

// ObserveCooldown counts a forced pause and clears the error streak.
func (m *Metrics) ObserveCooldown() {
	if m == nil {
		return
	}
	m.cooldowns.Inc()
	m.consecutiveErrors.Set(0)
}

func (m *Metrics) ObserveReading(r models.TelemetryReading) {
	if m == nil {
		return
	}
	m.cpuTemp.Set(r.CPUTemp)
	m.fanSpeed.Set(float64(r.FanSpeed))
	m.power.Set(float64(r.PowerWatts))
}

func (m *Metrics) ObserveCleanup(deleted int64) {
	if m == nil {
		return
	}
	m.cleanupDeleted.Add(float64(deleted))
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}
