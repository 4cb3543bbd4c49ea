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

package auth

import (
	"crypto/subtle"

	"github.com/vynaura/peerauth/wire"
)

// NULLMarshal computes this role's finished verifier and writes it as a
// plain "ay" argument. NULL authentication proves nothing beyond
// possession of the shared ECDHE secret: both sides exchange verifiers
// and compare.
func (c *AuthContext) NULLMarshal() ([]byte, error) {
	digest := c.transcript.snapshot()
	verifier := computeVerifier(c.masterSecret, c.Role.finishedLabel(), digest)
	w := wire.NewWriter()
	w.PutRaw(verifier)
	out := w.Bytes()
	c.transcript.update(out)
	return out, nil
}

// NULLUnmarshal verifies the peer's finished verifier against the value
// this side independently derives, in constant time.
func (c *AuthContext) NULLUnmarshal(data []byte) error {
	if len(data) != VerifierLen {
		return securityErrf("null.unmarshal", "bad verifier length %d", len(data))
	}
	digest := c.transcript.snapshot()
	expect := computeVerifier(c.masterSecret, c.Role.peerLabel(), digest)
	c.transcript.update(data)
	if subtle.ConstantTimeCompare(expect, data) != 1 {
		return securityErrf("null.unmarshal", "verifier mismatch")
	}
	return nil
}
