// Package config loads runtime settings from defaults, an optional .env
// file, an optional config file and SQUADXP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment key: db.path -> SQUADXP_DB_PATH.
const EnvPrefix = "SQUADXP"

// Config is the full runtime configuration.
type Config struct {
	Env           string        `mapstructure:"env" validate:"oneof=development production test"`
	Addr          string        `mapstructure:"addr" validate:"required"`
	Timezone      string        `mapstructure:"timezone" validate:"required"`
	SlowQueryMs   int           `mapstructure:"slow_query_ms" validate:"gte=0"`
	SlowRequestMs int           `mapstructure:"slow_request_ms" validate:"gte=0"`
	DB            DBConfig      `mapstructure:"db"`
	Log           LogConfig     `mapstructure:"log"`
	XP            XPConfig      `mapstructure:"xp"`
	Audit         AuditConfig   `mapstructure:"audit"`
	Session       SessionConfig `mapstructure:"session"`
	Snapshot      SnapshotCfg   `mapstructure:"snapshot"`
	Mirror        MirrorConfig  `mapstructure:"mirror"`
	CSRF          CSRFConfig    `mapstructure:"csrf"`
}

type DBConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Path       string `mapstructure:"path"` // empty logs to stdout only
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

type XPConfig struct {
	DailyCap      int `mapstructure:"daily_cap" validate:"gt=0"`
	PresenceBonus int `mapstructure:"presence_bonus" validate:"gte=0"`
	ShoutoutBonus int `mapstructure:"shoutout_bonus" validate:"gte=0"`
}

type AuditConfig struct {
	MaxEntries int `mapstructure:"max_entries" validate:"gt=0"`
}

type SessionConfig struct {
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout" validate:"gt=0"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

type SnapshotCfg struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
}

// MirrorConfig selects the remote mirror. An empty RedisAddr disables it.
type MirrorConfig struct {
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db" validate:"gte=0"`
	Prefix        string `mapstructure:"prefix" validate:"required"`
	Buffer        int    `mapstructure:"buffer" validate:"gt=0"`
	RatePerSecond int    `mapstructure:"rate_per_second" validate:"gt=0"`
}

type CSRFConfig struct {
	Key string `mapstructure:"key"` // 32 bytes; empty generates one per process
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")
	v.SetDefault("addr", ":8080")
	v.SetDefault("timezone", "Local")
	v.SetDefault("slow_query_ms", 50)
	v.SetDefault("slow_request_ms", 500)
	v.SetDefault("db.path", "squadxp.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("xp.daily_cap", 150)
	v.SetDefault("xp.presence_bonus", 5)
	v.SetDefault("xp.shoutout_bonus", 10)
	v.SetDefault("audit.max_entries", 200)
	v.SetDefault("session.inactivity_timeout", 90*time.Minute)
	v.SetDefault("session.sweep_interval", time.Minute)
	v.SetDefault("snapshot.interval", time.Hour)
	v.SetDefault("mirror.redis_addr", "")
	v.SetDefault("mirror.redis_password", "")
	v.SetDefault("mirror.redis_db", 0)
	v.SetDefault("mirror.prefix", "squadxp")
	v.SetDefault("mirror.buffer", 256)
	v.SetDefault("mirror.rate_per_second", 20)
	v.SetDefault("csrf.key", "")
}

// Options points Load at optional files.
type Options struct {
	EnvFile    string // .env style file; missing is not an error
	ConfigFile string // yaml/json/toml file; missing is an error when set
}

// Load builds a Config from defaults, files and the environment.
// PRE: none
// POST: Returned Config passed validation and has a loadable timezone
func Load(opts Options) (Config, error) {
	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", opts.ConfigFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", c.Timezone, err)
	}
	if c.CSRF.Key != "" && len(c.CSRF.Key) != 32 {
		return fmt.Errorf("invalid config: csrf.key must be 32 bytes, got %d", len(c.CSRF.Key))
	}
	return nil
}

// Location resolves Timezone. "Local" is the host zone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// IsProduction reports whether Env is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}
