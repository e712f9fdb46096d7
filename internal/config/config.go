// Package config provides configuration management for clipforge using
// Viper. It supports configuration from files, environment variables, and
// defaults.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 8080
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultJobRetention    = time.Hour
	defaultSampleRate      = 48000
	defaultAudioChannels   = 2
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Render   RenderConfig   `mapstructure:"render"`
	FFmpeg   FFmpegConfig   `mapstructure:"ffmpeg"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds the job history database configuration.
type DatabaseConfig struct {
	// Path is the sqlite database file.
	Path string `mapstructure:"path"`
}

// StorageConfig holds file storage configuration.
type StorageConfig struct {
	// OutputDir is the default directory for rendered output files.
	OutputDir string `mapstructure:"output_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// RenderConfig holds render pipeline configuration.
type RenderConfig struct {
	// MaxConcurrentJobs bounds simultaneously rendering jobs.
	// Zero derives the bound from the physical CPU count.
	MaxConcurrentJobs int `mapstructure:"max_concurrent_jobs"`
	// JobRetention is how long terminal jobs stay queryable.
	JobRetention time.Duration `mapstructure:"job_retention"`
	// SampleRate is the working audio sample rate in Hz.
	SampleRate int `mapstructure:"sample_rate"`
	// AudioChannels is the working channel count.
	AudioChannels int `mapstructure:"audio_channels"`
}

// FFmpegConfig holds FFmpeg binary configuration.
type FFmpegConfig struct {
	// BinaryPath is the ffmpeg binary (empty = resolve from PATH).
	BinaryPath string `mapstructure:"binary_path"`
}

// SetDefaults registers default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)

	v.SetDefault("database.path", "clipforge.db")
	v.SetDefault("storage.output_dir", "output")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)

	v.SetDefault("render.max_concurrent_jobs", 0)
	v.SetDefault("render.job_retention", defaultJobRetention)
	v.SetDefault("render.sample_rate", defaultSampleRate)
	v.SetDefault("render.audio_channels", defaultAudioChannels)

	v.SetDefault("ffmpeg.binary_path", "")
}

// Load unmarshals the effective configuration and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Render.MaxConcurrentJobs < 0 {
		return fmt.Errorf("render.max_concurrent_jobs must be non-negative, got %d", c.Render.MaxConcurrentJobs)
	}
	if c.Render.SampleRate <= 0 {
		return fmt.Errorf("render.sample_rate must be positive, got %d", c.Render.SampleRate)
	}
	if c.Render.AudioChannels < 1 || c.Render.AudioChannels > 8 {
		return fmt.Errorf("render.audio_channels must be between 1 and 8, got %d", c.Render.AudioChannels)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}
