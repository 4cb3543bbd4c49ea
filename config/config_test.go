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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("environment: staging\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "staging", cfg.Environment)
	require.Equal(t, "memory", cfg.KeyStore.Type)
	require.Equal(t, 2, cfg.Listener.CallbackVersion)
	require.Equal(t, uint32(3<<16), cfg.Suites.MinProtocolVersion)
}

func TestLoadFallsBackToDefaultsWhenNoFileFound(t *testing.T) {
	cfg, err := Load(LoaderOptions{ConfigDir: t.TempDir(), Environment: "development"})
	require.NoError(t, err)
	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestEnvironmentOverridesWinOverFile(t *testing.T) {
	t.Setenv("PEERAUTH_KEYSTORE_TYPE", "onchain")
	t.Setenv("PEERAUTH_LOG_LEVEL", "DEBUG")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "development.yaml"), []byte("keystore:\n  type: memory\nlogging:\n  level: warn\n"), 0o644))

	cfg, err := Load(LoaderOptions{ConfigDir: dir, Environment: "development"})
	require.NoError(t, err)
	require.Equal(t, "onchain", cfg.KeyStore.Type)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestGetEnvironmentDefaultsToDevelopment(t *testing.T) {
	require.Equal(t, "development", GetEnvironment())
}
