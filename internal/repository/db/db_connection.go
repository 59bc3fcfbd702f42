package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fan_controller/internal/models"

	_ "modernc.org/sqlite"
)

const sqliteDriverName = "sqlite"

// Defaults seeds a fresh database.
type Defaults struct {
	RetentionDays int
}

// DefaultCurve is stored when the curve table is empty.
var DefaultCurve = []models.CurvePoint{
	{Temperature: 50, Speed: 15},
	{Temperature: 60, Speed: 15},
	{Temperature: 70, Speed: 20},
	{Temperature: 80, Speed: 40},
}

// InitDB opens/creates a SQLite DB file, ensures tables exist and seeds
// default settings and curve. Existing values are never overwritten.
func InitDB(path string, d Defaults) (*sql.DB, error) {
	if err := ensureDir(path); err != nil {
		return nil, err
	}

	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// SQLite is not great with many writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set %s: %w", strings.TrimSuffix(pragma, ";"), err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := seed(db, d); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

func ensureDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db directory %q: %w", dir, err)
	}
	return nil
}

const schemaSettings = `
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

const schemaFanCurve = `
CREATE TABLE IF NOT EXISTS fan_curve (
    temperature INTEGER PRIMARY KEY,
    speed INTEGER NOT NULL
);
`

const schemaSensorHistory = `
CREATE TABLE IF NOT EXISTS sensor_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    observed_at INTEGER NOT NULL,
    cpu_temp REAL NOT NULL,
    fan_speed INTEGER NOT NULL,
    power INTEGER NOT NULL
);
`

const indexSensorHistoryTime = `
CREATE INDEX IF NOT EXISTS idx_sensor_history_observed_at ON sensor_history (observed_at);
`

// Schema lists the DDL statements applied by InitDB, in order.
var Schema = []string{
	schemaSettings,
	schemaFanCurve,
	schemaSensorHistory,
	indexSensorHistoryTime,
}

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range Schema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}

func defaultSettings(d Defaults) map[string]string {
	retention := d.RetentionDays
	if !models.IsAllowedRetention(retention) {
		retention = models.DefaultRetentionDays
	}
	return map[string]string{
		models.KeyHost:          "",
		models.KeyUsername:      "root",
		models.KeyPassword:      "",
		models.KeyInterval:      strconv.Itoa(models.DefaultPollIntervalSeconds),
		models.KeyRetentionDays: strconv.Itoa(retention),
	}
}

func seed(db *sql.DB, d Defaults) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for k, v := range defaultSettings(d) {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, k, v); err != nil {
			return fmt.Errorf("seed setting %q: %w", k, err)
		}
	}

	var points int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM fan_curve`).Scan(&points); err != nil {
		return fmt.Errorf("count curve points: %w", err)
	}
	if points == 0 {
		for _, p := range DefaultCurve {
			if _, err := tx.Exec(`INSERT INTO fan_curve (temperature, speed) VALUES (?, ?)`, p.Temperature, p.Speed); err != nil {
				return fmt.Errorf("seed curve point %d: %w", p.Temperature, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	return nil
}
