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

import "os"

// GetEnvironment returns the active environment name from PEERAUTH_ENV,
// falling back to ENVIRONMENT, defaulting to "development".
func GetEnvironment() string {
	if env := os.Getenv("PEERAUTH_ENV"); env != "" {
		return normalizeType(env)
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return normalizeType(env)
	}
	return "development"
}

// IsProduction reports whether GetEnvironment is "production".
func IsProduction() bool {
	return GetEnvironment() == "production"
}
