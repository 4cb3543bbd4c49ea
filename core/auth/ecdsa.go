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
	"crypto/ecdsa"
	"crypto/rand"
	"math/big"

	"github.com/vynaura/peerauth/certchain"
	"github.com/vynaura/peerauth/wire"
)

// sigFmtRaw is the only signature container format this core produces:
// a raw (r, s) pair, not an ASN.1 DER-encoded signature.
const sigFmtRaw byte = 0

// ECDSAMarshal signs this side's finished verifier with the keystore's
// signing key and writes the "(vyv)" proof: (sigFmt, r, s), a certificate
// format byte, and the certificate chain, leaf first.
func (c *AuthContext) ECDSAMarshal() ([]byte, error) {
	if c.Version>>16 < 3 {
		return nil, securityErrf("ecdsa.marshal", "ECDSA suite requires protocol version >= 3")
	}
	ks := c.Bus.KeyStore
	if ks == nil {
		return nil, securityErrf("ecdsa.marshal", "no keystore configured")
	}
	priv, err := ks.SigningKey()
	if err != nil {
		return nil, keystoreErr("ecdsa.marshal.signingkey", err)
	}

	digest := c.transcript.snapshot()
	verifier := computeVerifier(c.masterSecret, c.Role.finishedLabel(), digest)

	rBig, sBig, err := ecdsa.Sign(rand.Reader, priv, verifier)
	if err != nil {
		return nil, resourcesErrf("ecdsa.marshal", "sign verifier: %w", err)
	}
	r := make([]byte, FieldBytes)
	s := make([]byte, FieldBytes)
	rBig.FillBytes(r)
	sBig.FillBytes(s)
	c.transcript.update(r, s)

	stored, err := ks.CertificateChain()
	if err != nil {
		return nil, keystoreErr("ecdsa.marshal.certchain", err)
	}
	if len(stored) == 0 {
		return nil, securityErrf("ecdsa.marshal", "keystore returned empty certificate chain")
	}
	chainDER := make([][]byte, 0, len(stored))
	for _, sc := range stored {
		if sc.Format != CertFormatX509DER {
			return nil, securityErrf("ecdsa.marshal", "unsupported stored certificate format %d", sc.Format)
		}
		chainDER = append(chainDER, sc.DER)
	}
	certFmt := byte(CertFormatX509DER)
	c.transcript.update([]byte{certFmt})
	for _, der := range chainDER {
		c.transcript.update(der)
	}

	w := wire.NewWriter()
	w.PutByte(sigFmtRaw)
	w.PutBytes(r)
	w.PutBytes(s)
	w.PutByte(certFmt)
	w.PutArray(chainDER)

	// Certificate lifetime governs trust here, not a listener-reported
	// expiry (spec §4.6 step 6).
	c.Expiration = NeverExpires
	return w.Bytes(), nil
}

// ECDSAUnmarshal parses the peer's "(vyv)" proof, verifies the embedded
// signature against the leaf certificate, verifies the certificate chain
// against a CA public key looked up by the root's Authority Key
// Identifier, and records the leaf's manifest digest extension on
// success. Any failure along the way — malformed proof, bad signature,
// untrusted chain — is a security failure: nothing here is retried or
// partially trusted.
func (c *AuthContext) ECDSAUnmarshal(data []byte) error {
	if c.Version>>16 < 3 {
		return securityErrf("ecdsa.unmarshal", "ECDSA suite requires protocol version >= 3")
	}
	ks := c.Bus.KeyStore
	if ks == nil {
		return securityErrf("ecdsa.unmarshal", "no keystore configured")
	}
	if c.Bus.Listener == nil {
		return securityErrf("ecdsa.unmarshal", "no auth listener configured")
	}

	digest := c.transcript.snapshot()

	r := wire.NewReader(data)
	sigFmt, err := r.GetByte()
	if err != nil {
		return frameworkErr("ecdsa.unmarshal", err)
	}
	if sigFmt != sigFmtRaw {
		return securityErrf("ecdsa.unmarshal", "unsupported signature format %d", sigFmt)
	}
	rBytes, err := r.GetBytes()
	if err != nil {
		return frameworkErr("ecdsa.unmarshal", err)
	}
	sBytes, err := r.GetBytes()
	if err != nil {
		return frameworkErr("ecdsa.unmarshal", err)
	}
	if len(rBytes) != FieldBytes || len(sBytes) != FieldBytes {
		return securityErrf("ecdsa.unmarshal", "bad signature field length")
	}
	c.transcript.update(rBytes, sBytes)

	certFmt, err := r.GetByte()
	if err != nil {
		return frameworkErr("ecdsa.unmarshal", err)
	}
	if certFmt != byte(CertFormatX509DER) {
		return securityErrf("ecdsa.unmarshal", "unsupported certificate format %d", certFmt)
	}
	c.transcript.update([]byte{certFmt})

	chainDER, err := r.GetArray()
	if err != nil {
		return frameworkErr("ecdsa.unmarshal", err)
	}
	if len(chainDER) == 0 {
		return securityErrf("ecdsa.unmarshal", "empty certificate chain")
	}
	for _, der := range chainDER {
		c.transcript.update(der)
	}
	if err := r.ExpectDone(); err != nil {
		return frameworkErr("ecdsa.unmarshal", err)
	}

	expectedVerifier := computeVerifier(c.masterSecret, c.Role.peerLabel(), digest)

	chain, err := certchain.Decode(chainDER)
	if err != nil {
		return securityErrf("ecdsa.unmarshal", "decode certificate chain: %v", err)
	}
	leafPub, err := chain.LeafPublicKey()
	if err != nil {
		return securityErrf("ecdsa.unmarshal", "leaf public key: %v", err)
	}
	rBig := new(big.Int).SetBytes(rBytes)
	sBig := new(big.Int).SetBytes(sBytes)
	if !ecdsa.Verify(leafPub, expectedVerifier, rBig, sBig) {
		return securityErrf("ecdsa.unmarshal", "leaf signature verification failed")
	}

	manifest, err := chain.LeafManifestDigest()
	if err != nil {
		return securityErrf("ecdsa.unmarshal", "manifest digest: %v", err)
	}

	aki, err := chain.RootAuthorityKeyID()
	if err != nil {
		return securityErrf("ecdsa.unmarshal", "root authority key id: %v", err)
	}
	caKey, err := ks.CAPublicKey(aki)
	if err != nil {
		return keystoreErr("ecdsa.unmarshal.calookup", err)
	}
	if err := chain.Verify(caKey); err != nil {
		return securityErrf("ecdsa.unmarshal", "chain verification failed: %v", err)
	}

	c.manifestDigest = manifest
	c.manifestDigestSet = true
	c.Expiration = NeverExpires
	return nil
}
