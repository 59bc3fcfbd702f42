package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fan_controller/internal/models"
)

// HistorySQLite stores telemetry readings. observed_at is unix milliseconds (UTC).
type HistorySQLite struct {
	db *sql.DB
}

func NewHistorySQLite(db *sql.DB) *HistorySQLite { return &HistorySQLite{db: db} }

var _ HistoryRepo = (*HistorySQLite)(nil)

const (
	insertReadingSQL = `
		INSERT INTO sensor_history (observed_at, cpu_temp, fan_speed, power)
		VALUES (?, ?, ?, ?)
	`
	selectReadingsSQL = `
		SELECT observed_at, cpu_temp, fan_speed, power
		FROM sensor_history
		WHERE observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC
	`
	deleteReadingsBeforeSQL = `DELETE FROM sensor_history WHERE observed_at < ?`
)

func toMillis(t time.Time) int64 { return t.UTC().UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

// Append inserts one reading; a zero ObservedAt is stamped with the current time.
func (r *HistorySQLite) Append(ctx context.Context, reading models.TelemetryReading) error {
	at := reading.ObservedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertReadingSQL,
		toMillis(at),
		reading.CPUTemp,
		reading.FanSpeed,
		reading.PowerWatts,
	)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// Range returns readings in [from, to], oldest first.
func (r *HistorySQLite) Range(ctx context.Context, from, to time.Time) ([]models.TelemetryReading, error) {
	rows, err := r.db.QueryContext(ctx, selectReadingsSQL, toMillis(from), toMillis(to))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := make([]models.TelemetryReading, 0, 64)
	for rows.Next() {
		var (
			rd models.TelemetryReading
			ms int64
		)
		if err := rows.Scan(&ms, &rd.CPUTemp, &rd.FanSpeed, &rd.PowerWatts); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		rd.ObservedAt = fromMillis(ms)
		out = append(out, rd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteBefore removes readings strictly older than cutoff and reports how many.
func (r *HistorySQLite) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, deleteReadingsBeforeSQL, toMillis(cutoff))
	if err != nil {
		return 0, fmt.Errorf("delete old readings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
