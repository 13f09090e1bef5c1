// Copyright 2025 Prompt Enhancer Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	// ErrMissingRequiredField is returned when a required configuration field is missing
	ErrMissingRequiredField = errors.New("missing required configuration field")
	// ErrInvalidConfigValue is returned when a configuration value is invalid
	ErrInvalidConfigValue = errors.New("invalid configuration value")
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Session   SessionConfig   `mapstructure:"session"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// ProvidersConfig contains per-provider API credentials and model overrides.
// A provider without an API key is simply unavailable; the server starts
// regardless.
type ProvidersConfig struct {
	OpenAI      ProviderConfig    `mapstructure:"openai"`
	Groq        ProviderConfig    `mapstructure:"groq"`
	Gemini      ProviderConfig    `mapstructure:"gemini"`
	HuggingFace HuggingFaceConfig `mapstructure:"huggingface"`
}

// ProviderConfig contains a single provider's credentials
type ProviderConfig struct {
	APIKey string `mapstructure:"apikey"`
	Model  string `mapstructure:"model"`
}

// HuggingFaceConfig contains HuggingFace Inference API configuration
type HuggingFaceConfig struct {
	APIKey   string `mapstructure:"apikey"`
	Model    string `mapstructure:"model"`
	Endpoint string `mapstructure:"endpoint"`
}

// SessionConfig contains in-memory session store configuration
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	MaxSessions     int           `mapstructure:"max_sessions"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// StorageConfig contains persistence configuration
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("configuration validation failed for field '%s': %s", e.Field, e.Message)
}

// LoadOptions contains options for configuration loading
type LoadOptions struct {
	ConfigPath       string
	ValidateRequired bool
}

// Load loads configuration from file and environment variables.
// Environment variables take precedence over config file values.
func Load(configPath string) (*Config, error) {
	return LoadWithOptions(LoadOptions{
		ConfigPath:       configPath,
		ValidateRequired: true,
	})
}

// LoadWithOptions loads configuration with additional options
func LoadWithOptions(opts LoadOptions) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := setConfigFile(v, opts.ConfigPath); err != nil {
		return nil, fmt.Errorf("failed to set config file: %w", err)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("PROMPT_ENHANCER")

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is not an error; env vars and defaults suffice
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	setEnvironmentMappings(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if opts.ValidateRequired {
		if err := validateConfig(&config); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)

	// Session defaults
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("session.max_sessions", 1000)
	v.SetDefault("session.cleanup_interval", 5*time.Minute)

	// Storage defaults
	v.SetDefault("storage.db_path", "./prompt_enhancer.db")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stdout")
}

// setConfigFile sets the configuration file path with fallback logic.
// A missing file in the default locations is tolerated since every setting
// has a default or an environment override.
func setConfigFile(v *viper.Viper, configPath string) error {
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return fmt.Errorf("config file specified by CONFIG_PATH does not exist: %s", envPath)
		}
		v.SetConfigFile(envPath)
		return nil
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return fmt.Errorf("config file does not exist: %s", configPath)
		}
		v.SetConfigFile(configPath)
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	return nil
}

// setEnvironmentMappings sets explicit environment variable mappings
func setEnvironmentMappings(v *viper.Viper) {
	envMappings := map[string]string{
		"OPENAI_API_KEY":       "providers.openai.apikey",
		"OPENAI_MODEL":         "providers.openai.model",
		"GROQ_API_KEY":         "providers.groq.apikey",
		"GROQ_MODEL":           "providers.groq.model",
		"GEMINI_API_KEY":       "providers.gemini.apikey",
		"GEMINI_MODEL":         "providers.gemini.model",
		"HUGGINGFACE_API_KEY":  "providers.huggingface.apikey",
		"HUGGINGFACE_MODEL":    "providers.huggingface.model",
		"HUGGINGFACE_ENDPOINT": "providers.huggingface.endpoint",
		"PORT":                 "server.port",
		"PROMPT_ENHANCER_DB":   "storage.db_path",
		"LOG_LEVEL":            "logging.level",
		"LOG_FORMAT":           "logging.format",
		"LOG_OUTPUT":           "logging.output",
	}

	for envVar, configKey := range envMappings {
		if value := os.Getenv(envVar); value != "" {
			v.Set(configKey, value)
		}
	}
}

// validateConfig validates the configuration for valid values. Provider keys
// are deliberately not required here: a key missing at request time surfaces
// as an authentication error on that request only.
func validateConfig(config *Config) error {
	var errors []ValidationError

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "server.port",
			Message: "port must be between 1 and 65535",
		})
	}

	if config.Session.TTL <= 0 {
		errors = append(errors, ValidationError{
			Field:   "session.ttl",
			Message: "ttl must be greater than 0",
		})
	}

	if config.Session.MaxSessions <= 0 {
		errors = append(errors, ValidationError{
			Field:   "session.max_sessions",
			Message: "max_sessions must be greater than 0",
		})
	}

	if config.Session.CleanupInterval <= 0 {
		errors = append(errors, ValidationError{
			Field:   "session.cleanup_interval",
			Message: "cleanup_interval must be greater than 0",
		})
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLogLevels, config.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("log level must be one of: %s", strings.Join(validLogLevels, ", ")),
		})
	}

	validLogFormats := []string{"json", "text"}
	if !contains(validLogFormats, config.Logging.Format) {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("log format must be one of: %s", strings.Join(validLogFormats, ", ")),
		})
	}

	if config.Storage.DBPath == "" {
		errors = append(errors, ValidationError{
			Field:   "storage.db_path",
			Message: "database path is required",
		})
	}

	if config.Storage.DBPath != "" && config.Storage.DBPath != ":memory:" {
		if err := validateDirectoryExists(filepath.Dir(config.Storage.DBPath)); err != nil {
			errors = append(errors, ValidationError{
				Field:   "storage.db_path",
				Message: fmt.Sprintf("database directory does not exist: %s", filepath.Dir(config.Storage.DBPath)),
			})
		}
	}

	if len(errors) > 0 {
		var errorMessages []string
		for _, err := range errors {
			errorMessages = append(errorMessages, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errorMessages, "\n"))
	}

	return nil
}

// MaskSensitiveValues returns a copy of the config with API keys masked
func (c *Config) MaskSensitiveValues() *Config {
	masked := *c

	masked.Providers.OpenAI.APIKey = maskValue(masked.Providers.OpenAI.APIKey)
	masked.Providers.Groq.APIKey = maskValue(masked.Providers.Groq.APIKey)
	masked.Providers.Gemini.APIKey = maskValue(masked.Providers.Gemini.APIKey)
	masked.Providers.HuggingFace.APIKey = maskValue(masked.Providers.HuggingFace.APIKey)

	return &masked
}

// maskValue masks sensitive values, showing only the first 8 characters
func maskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:8] + strings.Repeat("*", len(value)-8)
}

// contains checks if a slice contains a specific string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// validateDirectoryExists checks if a directory exists
func validateDirectoryExists(path string) error {
	if path == "" || path == "." {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	return nil
}

// WatchConfig enables configuration hot-reloading for development
func WatchConfig(configPath string, callback func(*Config)) error {
	v := viper.New()

	if err := setConfigFile(v, configPath); err != nil {
		return err
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		fmt.Printf("Config file changed: %s\n", e.Name)

		config, err := LoadWithOptions(LoadOptions{
			ConfigPath:       configPath,
			ValidateRequired: true,
		})
		if err != nil {
			fmt.Printf("Failed to reload config: %v\n", err)
			return
		}

		callback(config)
	})

	return nil
}
