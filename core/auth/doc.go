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

// Package auth implements the peer-authentication handshake core: ECDHE
// key exchange followed by NULL, PSK or ECDSA key authentication, driven
// through an AuthContext shared by both roles of a single handshake.
//
// The package owns the wire-level marshal/unmarshal logic and the
// cryptographic derivations (transcript hash, PRF, master secret,
// verifiers). It does not own transport, suite negotiation or session
// storage — those are external collaborators reached through the Bus
// struct and the KeyStore and AuthListener interfaces defined here.
package auth
