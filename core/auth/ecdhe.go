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
	"crypto/ecdh"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"math/big"

	"github.com/vynaura/peerauth/wire"
)

// CurveNISTP256 is the only curve identifier this handshake core
// understands. The original assigns curve ids from its own registry; this
// value is this implementation's canonical choice, stable across the
// module, not a value shared with any external registry.
const CurveNISTP256 byte = 0x00

const eccPointLen = 2 * FieldBytes // uncompressed X‖Y, no format byte

func (c *AuthContext) ensureEphemeral() (*ecdh.PrivateKey, error) {
	if c.kex.priv != nil {
		return c.kex.priv, nil
	}
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, resourcesErrf("ecdhe", "generate ephemeral key: %w", err)
	}
	c.kex.priv = priv
	return priv, nil
}

// publicXY returns the 64-byte X‖Y encoding of priv's public key: P-256
// ecdh.PublicKey.Bytes() already returns the SEC1 uncompressed point
// (0x04 ‖ X ‖ Y), so stripping the leading format byte is enough.
func publicXY(priv *ecdh.PrivateKey) []byte {
	raw := priv.PublicKey().Bytes()
	return raw[1:]
}

// ECDHEMarshalV1 writes the legacy (pre-version-3) ECDHE public value:
// a single "ay" argument holding curve-id ‖ X ‖ Y.
func (c *AuthContext) ECDHEMarshalV1() ([]byte, error) {
	priv, err := c.ensureEphemeral()
	if err != nil {
		return nil, err
	}
	w := wire.NewWriter()
	w.PutByte(CurveNISTP256)
	w.PutRaw(publicXY(priv))
	out := w.Bytes()
	c.transcript.update(out)
	return out, nil
}

// ECDHEMarshalV2 writes the version-3+ ECDHE public value: a "(yay)"
// struct of curve-id and X‖Y.
func (c *AuthContext) ECDHEMarshalV2() ([]byte, error) {
	priv, err := c.ensureEphemeral()
	if err != nil {
		return nil, err
	}
	curve := []byte{CurveNISTP256}
	xy := publicXY(priv)
	c.transcript.update(curve, xy)
	w := wire.NewWriter()
	w.PutByte(CurveNISTP256)
	w.PutRaw(xy)
	return w.Bytes(), nil
}

// ECDHEMarshal dispatches to the legacy or current wire layout based on
// the context's negotiated version, generating this side's ephemeral key
// pair if it has not already been generated (the client always marshals
// first).
func (c *AuthContext) ECDHEMarshal() ([]byte, error) {
	if c.usesLegacyECDHELayout() {
		return c.ECDHEMarshalV1()
	}
	return c.ECDHEMarshalV2()
}

// ECDHEUnmarshalV1 parses a legacy ECDHE public value, derives the shared
// ECDH point directly (the legacy layout needs both coordinates of the
// resulting point, not just X, so it uses crypto/elliptic's raw scalar
// multiplication rather than crypto/ecdh), and sets the context's master
// secret from the big-endian X‖Y encoding of that point.
func (c *AuthContext) ECDHEUnmarshalV1(data []byte) error {
	if len(data) != 1+eccPointLen {
		return securityErrf("ecdhe.unmarshal.v1", "bad public value length %d", len(data))
	}
	if data[0] != CurveNISTP256 {
		return securityErrf("ecdhe.unmarshal.v1", "unsupported curve id %d", data[0])
	}
	priv, err := c.ensureEphemeral()
	if err != nil {
		return err
	}
	c.transcript.update(data)

	peerX := new(big.Int).SetBytes(data[1 : 1+FieldBytes])
	peerY := new(big.Int).SetBytes(data[1+FieldBytes:])
	curve := elliptic.P256()
	if !curve.IsOnCurve(peerX, peerY) {
		return securityErrf("ecdhe.unmarshal.v1", "peer public point not on curve")
	}

	sx, sy := curve.ScalarMult(peerX, peerY, priv.Bytes())
	pms := make([]byte, eccPointLen)
	sx.FillBytes(pms[:FieldBytes])
	sy.FillBytes(pms[FieldBytes:])

	c.masterSecret = computeMasterSecret(pms)
	return nil
}

// ECDHEUnmarshalV2 parses a version-3+ ECDHE public value, derives the
// shared secret via crypto/ecdh (which performs the on-curve validation),
// hashes only the X coordinate per the current wire layout, and sets the
// context's master secret.
func (c *AuthContext) ECDHEUnmarshalV2(data []byte) error {
	if len(data) != 1+eccPointLen {
		return securityErrf("ecdhe.unmarshal.v2", "bad public value length %d", len(data))
	}
	if data[0] != CurveNISTP256 {
		return securityErrf("ecdhe.unmarshal.v2", "unsupported curve id %d", data[0])
	}
	priv, err := c.ensureEphemeral()
	if err != nil {
		return err
	}
	c.transcript.update(data[:1], data[1:])

	full := append([]byte{0x04}, data[1:]...)
	peerPub, err := ecdh.P256().NewPublicKey(full)
	if err != nil {
		return securityErrf("ecdhe.unmarshal.v2", "invalid peer public key: %v", err)
	}
	shared, err := priv.ECDH(peerPub)
	if err != nil {
		return securityErrf("ecdhe.unmarshal.v2", "ecdh failed: %v", err)
	}
	sum := sha256.Sum256(shared)
	c.masterSecret = computeMasterSecret(sum[:])
	return nil
}

// ECDHEUnmarshal dispatches to the legacy or current wire layout based on
// the context's negotiated version, generating this side's ephemeral key
// pair if it has not already been generated (the server always unmarshals
// first, before marshaling its own public value).
func (c *AuthContext) ECDHEUnmarshal(data []byte) error {
	if c.usesLegacyECDHELayout() {
		return c.ECDHEUnmarshalV1(data)
	}
	return c.ECDHEUnmarshalV2(data)
}
