package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. FANCTL_DB_PATH.
const EnvPrefix = "FANCTL"

// Config is the process bootstrap configuration. Controller credentials and
// the poll interval live in the database and are edited at runtime.
type Config struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	DB              DBConfig      `mapstructure:"db"`
	Log             LogConfig     `mapstructure:"log"`
	IPMI            IPMIConfig    `mapstructure:"ipmi"`
	Retention       Retention     `mapstructure:"retention"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// IPMIConfig tunes every racadm and ipmitool invocation.
type IPMIConfig struct {
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
}

// Retention seeds the retention policy on a fresh database.
type Retention struct {
	Days int `mapstructure:"days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8000")
	v.SetDefault("shutdown_timeout", 10*time.Second)
	v.SetDefault("db.path", "data/fan_controller.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("ipmi.command_timeout", 15*time.Second)
	v.SetDefault("ipmi.max_retries", 3)
	v.SetDefault("retention.days", 30)
}

// Load reads config.yml from dir (a missing file is fine), applies
// FANCTL_* environment overrides and validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.IPMI.CommandTimeout <= 0 {
		return fmt.Errorf("ipmi.command_timeout must be positive, got %s", c.IPMI.CommandTimeout)
	}
	if c.IPMI.MaxRetries < 1 {
		return fmt.Errorf("ipmi.max_retries must be at least 1, got %d", c.IPMI.MaxRetries)
	}
	if c.DB.Path == "" {
		return errors.New("db.path is empty")
	}
	return nil
}
