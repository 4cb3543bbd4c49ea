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

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoaderOptions configures Load, mirroring the teacher's LoaderOptions.
type LoaderOptions struct {
	// ConfigDir is the directory holding environment-named config files
	// (default: "config").
	ConfigDir string
	// Environment overrides PEERAUTH_ENV/ENVIRONMENT auto-detection.
	Environment string
	// DotEnvFile, if non-empty, is loaded via godotenv before environment
	// overrides are applied, for local-development convenience.
	DotEnvFile string
}

// DefaultLoaderOptions returns the loader's default options.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{ConfigDir: "config"}
}

// Load resolves configuration in the teacher's precedence order: an
// environment-named YAML file (falling back to "default.yaml" then
// "config.yaml"), then a .env file if requested, then process environment
// variable overrides, which win over everything else.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	env := options.Environment
	if env == "" {
		env = GetEnvironment()
	}

	cfg, err := loadConfigFile(filepath.Join(options.ConfigDir, env+".yaml"))
	if err != nil {
		cfg, err = loadConfigFile(filepath.Join(options.ConfigDir, "default.yaml"))
		if err != nil {
			cfg, err = loadConfigFile(filepath.Join(options.ConfigDir, "config.yaml"))
			if err != nil {
				cfg = &Config{}
				setDefaults(cfg)
			}
		}
	}
	if cfg.Environment == "" {
		cfg.Environment = env
	}

	if options.DotEnvFile != "" {
		_ = godotenv.Load(options.DotEnvFile)
	}

	applyEnvironmentOverrides(cfg)
	return cfg, nil
}

func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config: file not found: %s", path)
	}
	return LoadFromFile(path)
}

// applyEnvironmentOverrides lets PEERAUTH_* environment variables win over
// whatever the config file set, the same override layer the teacher's
// applyEnvironmentOverrides implements for its own SAGE_* variables.
func applyEnvironmentOverrides(cfg *Config) {
	if ks := os.Getenv("PEERAUTH_KEYSTORE_TYPE"); ks != "" {
		cfg.KeyStore.Type = normalizeType(ks)
	}
	if dir := os.Getenv("PEERAUTH_KEYSTORE_DIR"); dir != "" {
		cfg.KeyStore.Directory = dir
	}
	if rpc := os.Getenv("PEERAUTH_ONCHAIN_RPC"); rpc != "" {
		cfg.KeyStore.RPCEndpoint = rpc
	}
	if addr := os.Getenv("PEERAUTH_ONCHAIN_REGISTRY"); addr != "" {
		cfg.KeyStore.RegistryAddress = addr
	}
	if level := os.Getenv("PEERAUTH_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = normalizeType(level)
	}
	switch os.Getenv("PEERAUTH_METRICS_ENABLED") {
	case "true":
		cfg.Metrics.Enabled = true
	case "false":
		cfg.Metrics.Enabled = false
	}
}

// MustLoad loads configuration or panics, for callers (mainly cmd/) that
// have no sensible recovery from a broken config.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: load failed: %v", err))
	}
	return cfg
}
