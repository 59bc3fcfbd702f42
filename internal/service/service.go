package service

import (
	"context"

	"fan_controller/internal/logger"
	"fan_controller/internal/models"
	"fan_controller/internal/repository"
)

// Dashboard exposes the live status, recent history and the auto restore action.
type Dashboard interface {
	Status() models.Status
	History(ctx context.Context, rangeKey string) ([]models.TelemetryReading, error)
	RestoreAutoControl(ctx context.Context) error
}

// Curve reads and replaces the fan curve.
type Curve interface {
	GetCurve(ctx context.Context) ([]models.CurvePoint, error)
	ReplaceCurve(ctx context.Context, points []models.CurvePoint) error
}

// Settings reads and updates the controller connection settings.
type Settings interface {
	GetSettings(ctx context.Context) (models.ControlConfig, error)
	UpdateSettings(ctx context.Context, u SettingsUpdate) error
}

// Retention reads and updates the history retention policy.
type Retention interface {
	RetentionDays() int
	SetRetentionDays(ctx context.Context, days int) error
}

// Runner is a background loop stopped via context cancellation.
type Runner interface {
	Run(ctx context.Context)
}

// Service aggregates the API services and the background loops.
type Service struct {
	Dashboard
	Curve
	Settings
	Retention

	Monitor Runner
	Cleanup Runner

	cleanup *Cleanup
}

// LoadPersisted adopts state stored by a previous run, currently the retention policy.
func (s *Service) LoadPersisted(ctx context.Context) error {
	if s.cleanup == nil {
		return nil
	}
	return s.cleanup.LoadRetention(ctx)
}

// Deps carries the collaborators NewService cannot build from repositories.
type Deps struct {
	Log            *logger.Logger
	Events         EventSink
	Clients        ClientFactory
	MonitorMetrics MonitorRecorder
	CleanupMetrics CleanupRecorder
	RetentionDays  int
}

// NewService wires the repository layer into concrete services.
func NewService(repos *repository.Repository, d Deps) *Service {
	monitor := NewMonitor(MonitorDeps{
		Settings: repos.Settings,
		Curves:   repos.Curve,
		History:  repos.History,
		Events:   d.Events,
		Clients:  d.Clients,
		Metrics:  d.MonitorMetrics,
		Log:      d.Log,
	})
	cleanup := NewCleanup(CleanupDeps{
		History:       repos.History,
		Settings:      repos.Settings,
		RetentionDays: d.RetentionDays,
		Metrics:       d.CleanupMetrics,
		Log:           d.Log,
	})

	return &Service{
		Dashboard: NewDashboardService(monitor, repos.History),
		Curve:     NewCurveService(repos.Curve, monitor),
		Settings:  NewSettingsService(repos.Settings, monitor, d.Log),
		Retention: cleanup,
		Monitor:   monitor,
		Cleanup:   cleanup,
		cleanup:   cleanup,
	}
}
