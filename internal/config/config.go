// Package config loads application configuration from config.yaml and the
// OWNERDATA_* environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	SideFile     SideFileConfig     `yaml:"side_file" mapstructure:"side_file"`
	PropertyData PropertyDataConfig `yaml:"property_data" mapstructure:"property_data"`
	PeopleSearch PeopleSearchConfig `yaml:"people_search" mapstructure:"people_search"`
	Resolve      ResolveConfig      `yaml:"resolve" mapstructure:"resolve"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Batch        BatchConfig        `yaml:"batch" mapstructure:"batch"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the listing store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	SchemaFile  string `yaml:"schema_file" mapstructure:"schema_file"` // per-platform column overrides
}

// SideFileConfig configures the flat-file fallback.
type SideFileConfig struct {
	Source    string `yaml:"source" mapstructure:"source"` // path, http(s), or ftp URL; empty disables
	Delimiter string `yaml:"delimiter" mapstructure:"delimiter"`
	Encoding  string `yaml:"encoding" mapstructure:"encoding"` // "" or "windows-1252"
}

// PropertyDataConfig holds the property provider credentials and limits.
type PropertyDataConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst    int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxAttempts  int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// PeopleSearchConfig holds the people-search provider credentials and limits.
type PeopleSearchConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst    int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxAttempts  int     `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ResolveConfig tunes the cascade.
type ResolveConfig struct {
	AnchorCities         []string `yaml:"anchor_cities" mapstructure:"anchor_cities"`
	WritebackTimeoutSecs int      `yaml:"writeback_timeout_secs" mapstructure:"writeback_timeout_secs"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port               int `yaml:"port" mapstructure:"port"`
	RequestTimeoutSecs int `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// BatchConfig configures batch resolution runs.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OWNERDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sqlite_path", "ownerdata.db")
	v.SetDefault("side_file.delimiter", ",")
	v.SetDefault("property_data.rate_per_sec", 5)
	v.SetDefault("property_data.rate_burst", 5)
	v.SetDefault("property_data.max_attempts", 3)
	v.SetDefault("people_search.rate_per_sec", 2)
	v.SetDefault("people_search.rate_burst", 2)
	v.SetDefault("people_search.max_attempts", 3)
	v.SetDefault("resolve.anchor_cities", []string{"Chicago"})
	v.SetDefault("resolve.writeback_timeout_secs", 10)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_secs", 30)
	v.SetDefault("batch.max_concurrent", 5)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
