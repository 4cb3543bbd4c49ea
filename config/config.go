// Copyright (C) 2026 vynaura
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package config loads the handshake driver's configuration: which suites
// are enabled by default, which keystore backend to use, which PSK
// callback version the listener should speak, and logging/metrics
// settings. It mirrors the teacher's config package: a plain struct with
// yaml/json tags, a file loader that falls back through a search path, and
// an environment-variable override layer applied last.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for a peerauth driver process.
type Config struct {
	Environment string          `yaml:"environment" json:"environment"`
	Suites      *SuitesConfig   `yaml:"suites" json:"suites"`
	KeyStore    *KeyStoreConfig `yaml:"keystore" json:"keystore"`
	Listener    *ListenerConfig `yaml:"listener" json:"listener"`
	Logging     *LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     *MetricsConfig  `yaml:"metrics" json:"metrics"`
}

// SuitesConfig lists which key-authentication suites a Bus should enable
// at startup, and the minimum protocol version the process will speak.
type SuitesConfig struct {
	EnableNull         bool   `yaml:"enable_null" json:"enable_null"`
	EnablePSK          bool   `yaml:"enable_psk" json:"enable_psk"`
	EnableECDSA        bool   `yaml:"enable_ecdsa" json:"enable_ecdsa"`
	MinProtocolVersion uint32 `yaml:"min_protocol_version" json:"min_protocol_version"`
}

// KeyStoreConfig selects and parameterises the KeyStore backend.
type KeyStoreConfig struct {
	// Type is "memory" or "onchain".
	Type string `yaml:"type" json:"type"`
	// Directory holds PEM-encoded signing key/cert chain for the memory backend.
	Directory string `yaml:"directory" json:"directory"`
	// RPCEndpoint and RegistryAddress configure the onchain backend's CA registry.
	RPCEndpoint     string `yaml:"rpc_endpoint" json:"rpc_endpoint"`
	RegistryAddress string `yaml:"registry_address" json:"registry_address"`
}

// ListenerConfig selects the PSK/ECDSA credential callback protocol and its
// timeout.
type ListenerConfig struct {
	// CallbackVersion is 1 (legacy PasswordCallback) or 2 (structured AuthListener).
	CallbackVersion int           `yaml:"callback_version" json:"callback_version"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig configures whether handshake Prometheus metrics are exposed.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoadFromFile reads a YAML (falling back to JSON) configuration file and
// applies defaults to any unset field.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jsonErr := json.Unmarshal(data, cfg); jsonErr != nil {
			return nil, fmt.Errorf("config: parse %s (tried YAML and JSON): %w", path, err)
		}
	}
	setDefaults(cfg)
	return cfg, nil
}

// setDefaults fills in zero-valued fields with the process's default
// configuration, the same shape the teacher's setDefaults applies.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Suites == nil {
		cfg.Suites = &SuitesConfig{}
	}
	if cfg.Suites.MinProtocolVersion == 0 {
		cfg.Suites.MinProtocolVersion = 3 << 16
	}
	if cfg.KeyStore == nil {
		cfg.KeyStore = &KeyStoreConfig{}
	}
	if cfg.KeyStore.Type == "" {
		cfg.KeyStore.Type = "memory"
	}
	if cfg.KeyStore.Directory == "" {
		cfg.KeyStore.Directory = ".peerauth/keys"
	}
	if cfg.Listener == nil {
		cfg.Listener = &ListenerConfig{}
	}
	if cfg.Listener.CallbackVersion == 0 {
		cfg.Listener.CallbackVersion = 2
	}
	if cfg.Listener.Timeout == 0 {
		cfg.Listener.Timeout = 5 * time.Second
	}
	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

// normalizeType lower-cases a backend/level string so config values are
// case-insensitive the way the teacher's env overrides are.
func normalizeType(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
