package service

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"fan_controller/internal/clock"
	"fan_controller/internal/logger"
	"fan_controller/internal/models"
	"fan_controller/internal/repository"
)

const (
	cleanupHourUTC    = 3
	cleanupRetryDelay = time.Hour
)

// CleanupRecorder counts deleted readings.
type CleanupRecorder interface {
	ObserveCleanup(deleted int64)
}

type nopCleanupRecorder struct{}

func (nopCleanupRecorder) ObserveCleanup(int64) {}

// CleanupDeps groups what NewCleanup needs.
type CleanupDeps struct {
	History       repository.HistoryRepo
	Settings      repository.SettingsRepo
	RetentionDays int
	Metrics       CleanupRecorder
	Log           *logger.Logger
	Sleep         clock.SleepFunc
	Now           clock.NowFunc
}

// Cleanup deletes expired readings once a day at 03:00 UTC.
type Cleanup struct {
	history  repository.HistoryRepo
	settings repository.SettingsRepo
	days     atomic.Int64
	rec      CleanupRecorder
	log      *logger.Logger
	sleep    clock.SleepFunc
	now      clock.NowFunc
}

func NewCleanup(d CleanupDeps) *Cleanup {
	c := &Cleanup{
		history:  d.History,
		settings: d.Settings,
		rec:      d.Metrics,
		log:      d.Log,
		sleep:    d.Sleep,
		now:      d.Now,
	}
	if c.rec == nil {
		c.rec = nopCleanupRecorder{}
	}
	if c.sleep == nil {
		c.sleep = clock.Sleep
	}
	if c.now == nil {
		c.now = clock.UTCNow
	}
	days := d.RetentionDays
	if !models.IsAllowedRetention(days) {
		days = models.DefaultRetentionDays
	}
	c.days.Store(int64(days))
	return c
}

// NextRun returns the first 03:00 UTC strictly after now.
func NextRun(now time.Time) time.Time {
	n := now.UTC()
	next := time.Date(n.Year(), n.Month(), n.Day(), cleanupHourUTC, 0, 0, 0, time.UTC)
	if !next.After(n) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// LoadRetention adopts the persisted retention policy, if any.
func (c *Cleanup) LoadRetention(ctx context.Context) error {
	values, err := c.settings.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load retention: %w", err)
	}
	raw, ok := values[models.KeyRetentionDays]
	if !ok {
		return nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || !models.IsAllowedRetention(days) {
		return &ConfigError{Key: models.KeyRetentionDays, Value: raw, Err: models.NewValidationError("retention_days", "must be one of %v", models.AllowedRetentionDays)}
	}
	c.days.Store(int64(days))
	return nil
}

// RetentionDays returns the active retention period.
func (c *Cleanup) RetentionDays() int {
	return int(c.days.Load())
}

// SetRetentionDays validates and persists days. The running schedule picks
// it up on its next pass.
func (c *Cleanup) SetRetentionDays(ctx context.Context, days int) error {
	if !models.IsAllowedRetention(days) {
		return models.NewValidationError("retention_days", "must be one of %v, got %d", models.AllowedRetentionDays, days)
	}
	if err := c.settings.Set(ctx, map[string]string{models.KeyRetentionDays: strconv.Itoa(days)}); err != nil {
		return fmt.Errorf("store retention: %w", err)
	}
	c.days.Store(int64(days))
	c.log.Infow("retention_updated", "retention_days", days)
	return nil
}

// Cleanup deletes readings older than the retention period and returns the count.
func (c *Cleanup) Cleanup(ctx context.Context) (int64, error) {
	days := c.RetentionDays()
	cutoff := c.now().Add(-time.Duration(days) * 24 * time.Hour)

	n, err := c.history.DeleteBefore(ctx, cutoff)
	if err != nil {
		c.log.Errorw("retention_cleanup_failed", "err", err)
		return 0, err
	}
	c.rec.ObserveCleanup(n)
	c.log.Infow("retention_cleanup_done", "deleted", n, "retention_days", days)
	return n, nil
}

// Run sleeps until the next scheduled pass and cleans up, forever.
// A failed pass is retried hourly until it succeeds.
func (c *Cleanup) Run(ctx context.Context) {
	c.log.Infow("retention_scheduler_started", "retention_days", c.RetentionDays())
	for {
		now := c.now()
		if err := c.sleep(ctx, NextRun(now).Sub(now)); err != nil {
			return
		}
		for {
			if _, err := c.Cleanup(ctx); err == nil {
				break
			}
			if err := c.sleep(ctx, cleanupRetryDelay); err != nil {
				return
			}
		}
	}
}
