package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fan_controller/internal/logger"
	"fan_controller/internal/models"
	"fan_controller/internal/repository"
)

// PasswordMask replaces a stored password in API responses.
const PasswordMask = "******"

// ConfigReloader is told when the stored control settings change.
type ConfigReloader interface {
	ReloadConfig(ctx context.Context) error
}

type SettingsService struct {
	repo     repository.SettingsRepo
	reloader ConfigReloader
	log      *logger.Logger
}

func NewSettingsService(repo repository.SettingsRepo, reloader ConfigReloader, log *logger.Logger) *SettingsService {
	return &SettingsService{repo: repo, reloader: reloader, log: log}
}

// GetSettings returns the control settings with the password masked.
func (s *SettingsService) GetSettings(ctx context.Context) (models.ControlConfig, error) {
	values, err := s.repo.GetAll(ctx)
	if err != nil {
		return models.ControlConfig{}, err
	}
	cfg, err := parseControlConfig(values)
	if err != nil && !errors.Is(err, ErrConfigMissing) {
		return models.ControlConfig{}, err
	}
	if cfg.Password != "" {
		cfg.Password = PasswordMask
	}
	return cfg, nil
}

// UpdateSettings stores the provided fields and asks the monitor to reload.
// Sending the mask back as the password leaves the stored password untouched.
func (s *SettingsService) UpdateSettings(ctx context.Context, u SettingsUpdate) error {
	values, err := u.values()
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	if err := s.repo.Set(ctx, values); err != nil {
		return fmt.Errorf("store settings: %w", err)
	}

	if err := s.reloader.ReloadConfig(ctx); err != nil {
		// settings are saved; the monitor keeps its previous client until a valid host arrives
		s.log.Warnw("settings_reload_failed", "err", err)
	}
	return nil
}

func (u SettingsUpdate) values() (map[string]string, error) {
	values := make(map[string]string, 4)
	if u.Host != nil {
		values[models.KeyHost] = strings.TrimSpace(*u.Host)
	}
	if u.Username != nil {
		values[models.KeyUsername] = *u.Username
	}
	if u.Password != nil && *u.Password != PasswordMask {
		values[models.KeyPassword] = *u.Password
	}
	if u.Interval != nil {
		if err := validateInterval(*u.Interval); err != nil {
			return nil, err
		}
		values[models.KeyInterval] = strconv.Itoa(*u.Interval)
	}
	return values, nil
}

func validateInterval(seconds int) error {
	if seconds < models.MinPollIntervalSeconds || seconds > models.MaxPollIntervalSeconds {
		return models.NewValidationError("interval", "must be between %d and %d seconds, got %d",
			models.MinPollIntervalSeconds, models.MaxPollIntervalSeconds, seconds)
	}
	return nil
}

// parseControlConfig turns the settings table into a ControlConfig.
// A missing host yields the parsed config together with ErrConfigMissing.
func parseControlConfig(values map[string]string) (models.ControlConfig, error) {
	cfg := models.ControlConfig{
		Host:                strings.TrimSpace(values[models.KeyHost]),
		Username:            values[models.KeyUsername],
		Password:            values[models.KeyPassword],
		PollIntervalSeconds: models.DefaultPollIntervalSeconds,
	}

	if raw, ok := values[models.KeyInterval]; ok && raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return models.ControlConfig{}, &ConfigError{Key: models.KeyInterval, Value: raw, Err: err}
		}
		if err := validateInterval(n); err != nil {
			return models.ControlConfig{}, &ConfigError{Key: models.KeyInterval, Value: raw, Err: err}
		}
		cfg.PollIntervalSeconds = n
	}

	if cfg.Host == "" {
		return cfg, ErrConfigMissing
	}
	return cfg, nil
}
