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
	"crypto/ecdsa"

	"github.com/google/uuid"
)

// Role identifies which side of the handshake an AuthContext is driving.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// finishedLabel returns the PRF label this role uses for its own
// finished-message verifier.
func (r Role) finishedLabel() string {
	if r == RoleServer {
		return "server finished"
	}
	return "client finished"
}

// peerLabel returns the PRF label this role expects from its peer.
func (r Role) peerLabel() string {
	if r == RoleServer {
		return "client finished"
	}
	return "server finished"
}

// CredentialDirection tells an AuthListener whether it is being asked to
// supply a credential (Request) or is being informed of one the peer sent
// (Response).
type CredentialDirection int

const (
	CredentialRequest CredentialDirection = iota
	CredentialResponse
)

// CredentialField selects which part of a PSK credential is in play.
type CredentialField int

const (
	CredentialFieldHint CredentialField = iota
	CredentialFieldValue
)

// NeverExpires is the sentinel Expiration value meaning the credential has
// no expiration, matching the original's 0xFFFFFFFF "never" marker.
const NeverExpires uint32 = 0xFFFFFFFF

// Credential is the unit of exchange with an AuthListener: on a Request
// call the listener must populate Data (and Expiration); on a Response
// call Data already holds what the peer supplied.
type Credential struct {
	Direction  CredentialDirection
	Field      CredentialField
	Data       []byte
	Expiration uint32
}

// AuthListener is the v2 structured credential callback, modelled on the
// original's authListenerCallback(suite, mask, *cred) signature.
type AuthListener interface {
	Credential(suite uint32, cred *Credential) error
}

// PasswordCallback is the legacy v1 PSK callback: it writes at most
// len(buf) bytes of PSK material into buf and returns how many it wrote.
type PasswordCallback func(buf []byte) (n int, err error)

// CertFormat identifies the encoding of a stored certificate.
type CertFormat byte

// CertFormatX509DER is the only certificate format this handshake core
// understands, matching AJ_CERTIFICATE_FORMAT_X509_DER.
const CertFormatX509DER CertFormat = 0

// StoredCertificate pairs a certificate's format with its encoded bytes,
// the keystore's on-disk representation before it is transcoded onto the
// wire.
type StoredCertificate struct {
	Format CertFormat
	DER    []byte
}

// KeyStore is the external collaborator holding long-term key material:
// the local ECDSA signing key, this peer's certificate chain, and the set
// of trusted CA public keys indexed by Authority Key Identifier.
type KeyStore interface {
	SigningKey() (*ecdsa.PrivateKey, error)
	CertificateChain() ([]StoredCertificate, error)
	CAPublicKey(aki []byte) (*ecdsa.PublicKey, error)
}

// suiteFamilyECDHE is the upper bits of a suite identifier that name the key
// exchange family. Only ECDHE is defined, matching the original source
// (AUTH_KEYX_ECDHE is the only key-exchange family implemented).
const suiteFamilyECDHE uint32 = 0x00400000

const (
	// SuiteECDHENull authenticates the ECDHE exchange with nothing beyond
	// the exchange itself (mutual verifier exchange only).
	SuiteECDHENull uint32 = suiteFamilyECDHE | 0x0001
	// SuiteECDHEPSK authenticates with a pre-shared key.
	SuiteECDHEPSK uint32 = suiteFamilyECDHE | 0x0002
	// SuiteECDHEECDSA authenticates with an ECDSA certificate chain.
	SuiteECDHEECDSA uint32 = suiteFamilyECDHE | 0x0004
)

// Bus is the small, caller-owned piece of shared state spec'd as living
// outside the handshake core: which suites are enabled, and the listener
// callbacks used to reach PSK/ECDSA credential material. It is not an
// interface because the core only ever needs to read/flip three bits and
// hold onto a couple of optional callbacks — there is no meaningful
// alternate implementation to abstract over.
type Bus struct {
	flags map[uint32]bool

	Listener         AuthListener
	PasswordCallback PasswordCallback
	KeyStore         KeyStore
}

// NewBus returns a Bus with every suite disabled.
func NewBus() *Bus {
	return &Bus{flags: make(map[uint32]bool)}
}

// IsSuiteEnabled reports whether suite is enabled for the given protocol
// version. ECDSA is unconditionally rejected below version 3: both the
// enable-check and the marshal/unmarshal dispatch enforce this, closing
// the asymmetry the original C implementation had (it only checked at
// enable-time).
func (b *Bus) IsSuiteEnabled(suite uint32, version uint32) bool {
	if suite == SuiteECDHEECDSA && version>>16 < 3 {
		return false
	}
	return b.flags[suite]
}

// EnableSuite flips the suite's enabled bit on.
func (b *Bus) EnableSuite(suite uint32) {
	b.flags[suite] = true
}

// AuthContext drives one handshake, for exactly one role, from ECDHE
// through key authentication. It is not safe for concurrent use; callers
// run one handshake per context the way the original ran one per AJ_AuthContext.
type AuthContext struct {
	ID      string
	Role    Role
	Version uint32
	Suite   uint32
	Bus     *Bus

	// Expiration is the credential expiry reported by the PSK listener or,
	// for ECDSA, NeverExpires (certificate lifetime governs trust instead).
	// It is informational only, propagated upward for the embedding
	// session layer to act on; zero means no credential-bearing suite has
	// run yet (e.g. the NULL suite, which carries no expiry of its own).
	Expiration uint32

	transcript *transcript

	kex struct {
		priv *ecdh.PrivateKey
	}

	// kactx.psk mirrors spec §3's documented PSK branch of the
	// authentication union: the hint and resolved PSK value bound during
	// KeyAuthenticationUnmarshal, held here so the server's subsequent
	// KeyAuthenticationMarshal can reuse them instead of resolving a
	// second, possibly different, credential (spec §4.5: the server
	// "respond[s] with the received hint ... to let the application
	// identify the peer, then request[s] the PSK value" exactly once).
	psk struct {
		hint []byte
		key  []byte
		set  bool
	}

	masterSecret []byte

	manifestDigest    [32]byte
	manifestDigestSet bool
}

// NewAuthContext creates a fresh context for one handshake. version
// follows the original's encoding: the ECDHE wire layout switches at
// version 3 (the upper 16 bits carry the major protocol version, and every
// version check in this package compares that major number, so version 3
// is 3<<16).
func NewAuthContext(role Role, version uint32, bus *Bus) *AuthContext {
	return &AuthContext{
		ID:         uuid.NewString(),
		Role:       role,
		Version:    version,
		Bus:        bus,
		transcript: newTranscript(),
	}
}

// usesLegacyECDHELayout reports whether this context's negotiated version
// uses the v1 ("ay", X‖Y shared point) ECDHE wire layout instead of v2.
func (c *AuthContext) usesLegacyECDHELayout() bool {
	return (c.Version>>16)&0xFFFF < 3
}

// ManifestDigest returns the 32-byte manifest digest extracted from the
// peer's leaf certificate during ECDSA key authentication, if any.
func (c *AuthContext) ManifestDigest() ([32]byte, bool) {
	return c.manifestDigest, c.manifestDigestSet
}

// Reset clears all derived secrets and per-handshake state so the context
// can be reused for a fresh attempt. It does not change Role, Version,
// Suite or Bus.
func (c *AuthContext) Reset() {
	c.transcript = newTranscript()
	c.masterSecret = nil
	c.kex.priv = nil
	c.psk.hint = nil
	c.psk.key = nil
	c.psk.set = false
	c.manifestDigest = [32]byte{}
	c.manifestDigestSet = false
	c.Expiration = 0
}
