package repository

import (
	"context"
	"database/sql"
	"fmt"

	"fan_controller/internal/models"
)

type CurveSQLite struct {
	db *sql.DB
}

func NewCurveSQLite(db *sql.DB) *CurveSQLite { return &CurveSQLite{db: db} }

var _ CurveRepo = (*CurveSQLite)(nil)

const (
	selectCurveSQL = `SELECT temperature, speed FROM fan_curve ORDER BY temperature ASC`
	deleteCurveSQL = `DELETE FROM fan_curve`
	insertPointSQL = `INSERT INTO fan_curve (temperature, speed) VALUES (?, ?)`
)

// List returns the stored curve ordered by temperature.
func (r *CurveSQLite) List(ctx context.Context) ([]models.CurvePoint, error) {
	rows, err := r.db.QueryContext(ctx, selectCurveSQL)
	if err != nil {
		return nil, fmt.Errorf("query fan curve: %w", err)
	}
	defer rows.Close()

	out := make([]models.CurvePoint, 0, 8)
	for rows.Next() {
		var p models.CurvePoint
		if err := rows.Scan(&p.Temperature, &p.Speed); err != nil {
			return nil, fmt.Errorf("scan curve point: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Replace swaps the whole curve atomically.
func (r *CurveSQLite) Replace(ctx context.Context, points []models.CurvePoint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin curve transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteCurveSQL); err != nil {
		return fmt.Errorf("clear fan curve: %w", err)
	}
	for _, p := range points {
		if _, err := tx.ExecContext(ctx, insertPointSQL, p.Temperature, p.Speed); err != nil {
			return fmt.Errorf("insert curve point %d: %w", p.Temperature, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit fan curve: %w", err)
	}
	return nil
}
