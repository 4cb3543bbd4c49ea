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

// anonymousPSKHint is the conventional hint used by the legacy v1
// callback, which carries no hint negotiation of its own.
const anonymousPSKHint = "<anonymous>"

// MaxLegacyPSKLen is the fixed buffer size the legacy v1 PSK callback is
// allowed to fill. A callback reporting more is treated as a resource
// failure, not a security one: the caller misconfigured a PSK too large
// for the legacy API, nothing attacker-controlled is at fault.
const MaxLegacyPSKLen = 128

// pskCredential resolves the (hint, psk) pair to use, dispatching to the
// v2 structured listener if one is configured, else the legacy v1
// callback, else failing. peerHint is nil when this side is originating
// the hint (the client's first PSK message); otherwise it is the hint
// just received from the peer, which the callback should resolve to a
// matching PSK value. The returned expiration is the listener-reported
// credential expiry (spec §4.5, "the returned credential also carries an
// expiration"); the legacy v1 path has none, so it reports NeverExpires.
func (c *AuthContext) pskCredential(peerHint []byte) (hint, psk []byte, expiration uint32, err error) {
	bus := c.Bus
	switch {
	case bus.Listener != nil:
		if peerHint == nil {
			hc := &Credential{Direction: CredentialRequest, Field: CredentialFieldHint}
			if err := bus.Listener.Credential(c.Suite, hc); err != nil {
				return nil, nil, 0, keystoreErr("psk.hint", err)
			}
			hint = hc.Data
		} else {
			hint = peerHint
			rc := &Credential{Direction: CredentialResponse, Field: CredentialFieldHint, Data: peerHint}
			if err := bus.Listener.Credential(c.Suite, rc); err != nil {
				return nil, nil, 0, keystoreErr("psk.hint", err)
			}
		}
		vc := &Credential{Direction: CredentialRequest, Field: CredentialFieldValue, Data: hint}
		if err := bus.Listener.Credential(c.Suite, vc); err != nil {
			return nil, nil, 0, keystoreErr("psk.value", err)
		}
		return hint, vc.Data, vc.Expiration, nil

	case bus.PasswordCallback != nil:
		buf := make([]byte, MaxLegacyPSKLen)
		n, cbErr := bus.PasswordCallback(buf)
		if cbErr != nil {
			return nil, nil, 0, keystoreErr("psk.legacy", cbErr)
		}
		if n > MaxLegacyPSKLen {
			return nil, nil, 0, resourcesErrf("psk.legacy", "psk exceeds legacy buffer (%d > %d)", n, MaxLegacyPSKLen)
		}
		return []byte(anonymousPSKHint), buf[:n], NeverExpires, nil

	default:
		return nil, nil, 0, securityErrf("psk.credential", "no PSK listener or legacy callback configured")
	}
}

// PSKMarshal writes a "(ayay)" argument of hint and finished verifier.
// The client originates a fresh credential here (spec §4.5's client flow:
// request hint, then request value); the server has none of its own to
// originate — it already bound its hint/PSK pair while unmarshaling the
// client's message (spec §4.5's server flow runs entirely inside
// PSKUnmarshal) — so it just reuses c.psk, matching the original
// PSKMarshal's server branch, which calls no callback at all.
func (c *AuthContext) PSKMarshal() ([]byte, error) {
	if c.Role == RoleClient {
		hint, psk, expiration, err := c.pskCredential(nil)
		if err != nil {
			return nil, err
		}
		c.Expiration = expiration
		c.psk.hint, c.psk.key, c.psk.set = hint, psk, true
		c.transcript.update(hint, psk)
	}
	if !c.psk.set {
		return nil, securityErrf("psk.marshal", "no PSK credential bound")
	}

	digest := c.transcript.snapshot()
	verifier := computeVerifier(c.masterSecret, c.Role.finishedLabel(), digest)
	c.transcript.update(verifier)

	w := wire.NewWriter()
	w.PutBytes(c.psk.hint)
	w.PutBytes(verifier)
	return w.Bytes(), nil
}

// PSKUnmarshal parses the peer's "(ayay)" hint+verifier argument and
// verifies the peer's finished verifier in constant time. The server
// resolves and binds its hint/PSK pair here, the first and only time it
// sees the client's hint (spec §4.5's server flow: respond with the
// received hint, then request the PSK value); the client already bound
// its own pair in PSKMarshal and reuses it rather than looking it up
// again.
func (c *AuthContext) PSKUnmarshal(data []byte) error {
	r := wire.NewReader(data)
	hint, err := r.GetBytes()
	if err != nil {
		return frameworkErr("psk.unmarshal", err)
	}
	verifier, err := r.GetBytes()
	if err != nil {
		return frameworkErr("psk.unmarshal", err)
	}
	if err := r.ExpectDone(); err != nil {
		return frameworkErr("psk.unmarshal", err)
	}
	if len(verifier) != VerifierLen {
		return securityErrf("psk.unmarshal", "bad verifier length %d", len(verifier))
	}

	if c.Role == RoleServer {
		_, psk, expiration, err := c.pskCredential(hint)
		if err != nil {
			return err
		}
		c.Expiration = expiration
		c.psk.hint, c.psk.key, c.psk.set = hint, psk, true
		c.transcript.update(hint, psk)
	}
	if !c.psk.set {
		return securityErrf("psk.unmarshal", "no PSK credential bound")
	}

	digest := c.transcript.snapshot()
	expect := computeVerifier(c.masterSecret, c.Role.peerLabel(), digest)
	c.transcript.update(verifier)

	if subtle.ConstantTimeCompare(expect, verifier) != 1 {
		return securityErrf("psk.unmarshal", "verifier mismatch")
	}
	return nil
}
