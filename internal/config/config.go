// Package config manages application configuration from a YAML file,
// CITYGUIDE_* environment variables and default values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfiguration is returned for any failure to load or validate configuration.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is the prefix of environment variables overriding configuration keys.
const EnvPrefix = "CITYGUIDE"

// LoadConfig loads and validates configuration from:
//  1. Default values
//  2. the YAML file at path (optional)
//  3. CITYGUIDE_* environment variables (e.g. CITYGUIDE_GEMINI_API_KEY)
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("gemini.api_key", EnvPrefix+"_GEMINI_API_KEY", "GOOGLE_AI_API_KEY"); err != nil {
		return nil, fmt.Errorf("%w: failed to bind env: %v", ErrConfiguration, err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, path, err)
			}
			slog.Info("Configuration file not found, using defaults and environment", "path", path)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration against its struct constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}

// setDefaults sets default values for all configuration keys. Every key must
// have a default for environment overrides to be picked up on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)
	v.SetDefault("logger.buffer_capacity", DefaultLogBufferCapacity)

	v.SetDefault("server.addr", DefaultServerAddr)
	v.SetDefault("server.static_dir", DefaultServerStaticDir)
	v.SetDefault("server.allowed_origins", DefaultAllowedOrigins)
	v.SetDefault("server.read_timeout", DefaultServerReadTimeout)
	v.SetDefault("server.write_timeout", DefaultServerWriteTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultServerShutdownTimeout)
	v.SetDefault("server.request_timeout", DefaultServerRequestTimeout)

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.models", DefaultGeminiModels)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.max_retries", DefaultGeminiMaxRetries)
	v.SetDefault("gemini.retry_delay_seconds", DefaultGeminiRetryDelaySeconds)

	v.SetDefault("assistant.city", DefaultAssistantCity)
	v.SetDefault("assistant.max_results", DefaultAssistantMaxResults)
	v.SetDefault("assistant.greeting_msg", DefaultGreetingMsg)
	v.SetDefault("assistant.introduction_msg", DefaultIntroductionMsg)
	v.SetDefault("assistant.smalltalk_msg", DefaultSmalltalkMsg)
	v.SetDefault("assistant.gratitude_msg", DefaultGratitudeMsg)
	v.SetDefault("assistant.unknown_msg", DefaultUnknownMsg)
	v.SetDefault("assistant.no_results_msg", DefaultNoResultsMsg)

	v.SetDefault("conversation.ttl", DefaultConversationTTL)
	v.SetDefault("conversation.max_history", DefaultConversationMaxHistory)

	v.SetDefault("dataset.dir", DefaultDatasetDir)

	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.retention", DefaultDatabaseRetention)

	v.SetDefault("scheduler.tasks", DefaultSchedulerTasks)

	v.SetDefault("telegram.token", "")
}
