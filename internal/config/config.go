/*
Copyright 2026 The Sentinelguard Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads sentinelguard's configuration from an optional YAML
// file, applies environment variable overrides, and validates the result.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuthConfig controls bearer-token issuance and bootstrap admin seeding.
type AuthConfig struct {
	JWTSecret              string `yaml:"jwt_secret"`
	BootstrapAdminUsername string `yaml:"bootstrap_admin_username"`
	BootstrapAdminPassword string `yaml:"bootstrap_admin_password"`
}

// DataConfig controls where the persistence layer's four JSON files live.
type DataConfig struct {
	Directory string `yaml:"directory"`
}

// NotifyConfig controls the notify_operator action's Slack integration. An
// empty SlackToken disables Slack and leaves notify_operator a no-op beyond
// the audit log entry.
type NotifyConfig struct {
	SlackToken   string `yaml:"slack_token"`
	SlackChannel string `yaml:"slack_channel"`
}

// Config is the fully-resolved configuration for one sentinelguard process.
type Config struct {
	Server      ServerConfig  `yaml:"server"`
	Logging     LoggingConfig `yaml:"logging"`
	Auth        AuthConfig    `yaml:"auth"`
	Data        DataConfig    `yaml:"data"`
	Notify      NotifyConfig  `yaml:"notify"`
	UseMockData bool          `yaml:"use_mock_data"`
}

func defaults() *Config {
	return &Config{
		Server:  ServerConfig{Port: "5000"},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Data:    DataConfig{Directory: "./data"},
	}
}

// Load reads path if it exists, applies environment overrides on top, and
// validates the result. A missing file is not an error: defaults plus
// environment variables are enough to start in USE_MOCK_DATA mode.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv overlays recognized environment variables onto cfg. Unset
// variables leave the existing value untouched.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("BOOTSTRAP_ADMIN_USERNAME"); v != "" {
		cfg.Auth.BootstrapAdminUsername = v
	}
	if v := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"); v != "" {
		cfg.Auth.BootstrapAdminPassword = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Data.Directory = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SLACK_TOKEN"); v != "" {
		cfg.Notify.SlackToken = v
	}
	if v := os.Getenv("SLACK_CHANNEL"); v != "" {
		cfg.Notify.SlackChannel = v
	}
	if v := os.Getenv("USE_MOCK_DATA"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("failed to parse USE_MOCK_DATA: %w", err)
		}
		cfg.UseMockData = b
	}
	return nil
}

// validate enforces the one hard startup requirement: a real JWT secret is
// mandatory outside mock-data mode, since an ephemeral per-process secret
// would invalidate every token on restart.
func validate(cfg *Config) error {
	if !cfg.UseMockData && cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required when use_mock_data is false")
	}
	if cfg.Data.Directory == "" {
		return fmt.Errorf("data directory is required")
	}
	return nil
}
