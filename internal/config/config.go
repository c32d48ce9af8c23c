// Package config provides configuration management using Viper.
// It loads configuration from environment variables, .env files, and config files.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultLogLevel         = "info"
	defaultLogPretty        = false
	defaultSampleRate       = 44100
	defaultBufferLength     = 100 * time.Millisecond
	defaultTickInterval     = 100 * time.Millisecond
	defaultOffsetStepMillis = 100
	envPrefix               = "KARAOKE"
)

// Config holds all application configuration
type Config struct {
	Logging  LoggingConfig
	Audio    AudioConfig
	Playback PlaybackConfig
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Pretty bool
}

// AudioConfig holds audio output configuration
type AudioConfig struct {
	// SampleRate is the speaker sample rate in Hz. Decoded streams at other
	// rates are resampled to it.
	SampleRate int
	// BufferLength is the speaker buffer length. Larger values survive
	// scheduling hiccups at the cost of control latency.
	BufferLength time.Duration
}

// PlaybackConfig holds playback engine configuration
type PlaybackConfig struct {
	// TickInterval is how often the active resource reports its position.
	TickInterval time.Duration
	// OffsetStepMillis is the increment applied per user timing-offset
	// adjustment step.
	OffsetStepMillis int64
}

// Load reads configuration from .env file, config files, environment variables, and defaults
func Load() (*Config, error) {
	// .env files are optional in production where env vars are set directly
	_ = godotenv.Load() // nolint:errcheck // .env file is optional

	v := viper.New()

	setDefaults(v)

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/karaoke")

	// Environment variable settings
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults configures default values for all configuration options
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", defaultLogLevel)
	v.SetDefault("logging.pretty", defaultLogPretty)

	v.SetDefault("audio.samplerate", defaultSampleRate)
	v.SetDefault("audio.bufferlength", defaultBufferLength)

	v.SetDefault("playback.tickinterval", defaultTickInterval)
	v.SetDefault("playback.offsetstepmillis", defaultOffsetStepMillis)
}

// Validate checks that configuration values are valid
func (c *Config) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.Logging.Level, strings.Join(validLevels, ", "))
	}

	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d (must be > 0)", c.Audio.SampleRate)
	}
	if c.Audio.BufferLength <= 0 {
		return fmt.Errorf("invalid buffer length: %v (must be > 0)", c.Audio.BufferLength)
	}

	if c.Playback.TickInterval <= 0 {
		return fmt.Errorf("invalid tick interval: %v (must be > 0)", c.Playback.TickInterval)
	}
	if c.Playback.OffsetStepMillis <= 0 {
		return fmt.Errorf("invalid offset step: %d (must be > 0)", c.Playback.OffsetStepMillis)
	}

	return nil
}

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
