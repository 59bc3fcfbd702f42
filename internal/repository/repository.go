package repository

import (
	"context"
	"database/sql"
	"time"

	"fan_controller/internal/models"
)

// SettingsRepo is the key-value settings table.
type SettingsRepo interface {
	GetAll(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
}

// CurveRepo holds the single active fan curve.
type CurveRepo interface {
	List(ctx context.Context) ([]models.CurvePoint, error)
	Replace(ctx context.Context, points []models.CurvePoint) error
}

// HistoryRepo is the append-only telemetry history.
type HistoryRepo interface {
	Append(ctx context.Context, r models.TelemetryReading) error
	Range(ctx context.Context, from, to time.Time) ([]models.TelemetryReading, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Repository struct {
	Settings SettingsRepo
	Curve    CurveRepo
	History  HistoryRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		Settings: NewSettingsSQLite(db),
		Curve:    NewCurveSQLite(db),
		History:  NewHistorySQLite(db),
	}
}
