package handlers

import (
	"context"
	"sync"

	"fan_controller/internal/broadcast"
	"fan_controller/internal/models"
	"fan_controller/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// ---- Service Mocks ----

type mockDashboard struct {
	status      models.Status
	history     []models.TelemetryReading
	historyErr  error
	restoreErr  error
	lastRange   string
	restoreCall int
}

func (m *mockDashboard) Status() models.Status { return m.status }
func (m *mockDashboard) History(ctx context.Context, rangeKey string) ([]models.TelemetryReading, error) {
	m.lastRange = rangeKey
	return m.history, m.historyErr
}
func (m *mockDashboard) RestoreAutoControl(ctx context.Context) error {
	m.restoreCall++
	return m.restoreErr
}

type mockCurve struct {
	points     []models.CurvePoint
	getErr     error
	replaceErr error
	replaced   []models.CurvePoint
}

func (m *mockCurve) GetCurve(ctx context.Context) ([]models.CurvePoint, error) {
	return m.points, m.getErr
}
func (m *mockCurve) ReplaceCurve(ctx context.Context, points []models.CurvePoint) error {
	m.replaced = points
	return m.replaceErr
}

type mockSettings struct {
	cfg       models.ControlConfig
	getErr    error
	updateErr error
	last      service.SettingsUpdate
	updates   int
}

func (m *mockSettings) GetSettings(ctx context.Context) (models.ControlConfig, error) {
	return m.cfg, m.getErr
}
func (m *mockSettings) UpdateSettings(ctx context.Context, u service.SettingsUpdate) error {
	m.updates++
	m.last = u
	return m.updateErr
}

type mockRetention struct {
	days   int
	setErr error
	set    []int
}

func (m *mockRetention) RetentionDays() int { return m.days }
func (m *mockRetention) SetRetentionDays(ctx context.Context, days int) error {
	m.set = append(m.set, days)
	if m.setErr != nil {
		return m.setErr
	}
	m.days = days
	return nil
}

// mockHub records subscribers so tests can push events through them.
type mockHub struct {
	mu   sync.Mutex
	subs []broadcast.Subscriber
	gone int
}

func (m *mockHub) Connect(s broadcast.Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subs = append(m.subs, s)
}
func (m *mockHub) Disconnect(s broadcast.Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gone++
}
func (m *mockHub) connected() []broadcast.Subscriber {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]broadcast.Subscriber(nil), m.subs...)
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, &mockHub{}, prometheus.NewRegistry(), nil)
	return h.InitRoutes()
}
