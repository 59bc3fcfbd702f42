package service

import (
	"context"

	"fan_controller/internal/clock"
	"fan_controller/internal/models"
	"fan_controller/internal/repository"
)

// StatusSource is the live view the dashboard reads; Monitor implements it.
type StatusSource interface {
	Status() models.Status
	RestoreAutoControl(ctx context.Context) error
}

type DashboardService struct {
	monitor StatusSource
	history repository.HistoryRepo
	now     clock.NowFunc
}

func NewDashboardService(monitor StatusSource, history repository.HistoryRepo) *DashboardService {
	return &DashboardService{monitor: monitor, history: history, now: clock.UTCNow}
}

// Status returns the current snapshot.
func (s *DashboardService) Status() models.Status {
	return s.monitor.Status()
}

// History returns readings within the window named by rangeKey, oldest first.
// Unknown keys fall back to the last hour.
func (s *DashboardService) History(ctx context.Context, rangeKey string) ([]models.TelemetryReading, error) {
	window, ok := HistoryWindows[rangeKey]
	if !ok {
		window = HistoryWindows[DefaultHistoryRange]
	}
	to := s.now()
	return s.history.Range(ctx, to.Add(-window), to)
}

func (s *DashboardService) RestoreAutoControl(ctx context.Context) error {
	return s.monitor.RestoreAutoControl(ctx)
}
