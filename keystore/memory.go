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

// Package keystore provides implementations of core/auth.KeyStore: an
// in-memory backend for tests and single-process deployments, and an
// Ethereum-backed CA registry lookup adapted from the teacher's
// did/ethereum client for deployments that keep trust anchors on-chain.
package keystore

import (
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/vynaura/peerauth/core/auth"
)

// Memory is a KeyStore backed entirely by in-process state: a signing
// key, a certificate chain, and a map of CA public keys indexed by
// Authority Key Identifier. It is safe for concurrent read access once
// populated; Set* methods are meant to be called during setup, not
// concurrently with handshakes.
type Memory struct {
	mu       sync.RWMutex
	signing  *ecdsa.PrivateKey
	chain    []auth.StoredCertificate
	caByAKI  map[string]*ecdsa.PublicKey
}

// NewMemory returns an empty Memory keystore.
func NewMemory() *Memory {
	return &Memory{caByAKI: make(map[string]*ecdsa.PublicKey)}
}

// SetSigningKey installs the local ECDSA signing key ECDSAMarshal uses.
func (m *Memory) SetSigningKey(priv *ecdsa.PrivateKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signing = priv
}

// SetCertificateChain installs the local certificate chain ECDSAMarshal
// transcodes onto the wire, leaf first.
func (m *Memory) SetCertificateChain(chain []auth.StoredCertificate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chain = chain
}

// AddTrustedCA registers a CA public key under the given Authority Key
// Identifier, the key ECDSAUnmarshal looks up once it knows the peer
// chain's root AKI.
func (m *Memory) AddTrustedCA(aki []byte, pub *ecdsa.PublicKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caByAKI[string(aki)] = pub
}

// SigningKey implements auth.KeyStore.
func (m *Memory) SigningKey() (*ecdsa.PrivateKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.signing == nil {
		return nil, fmt.Errorf("keystore: no signing key configured")
	}
	return m.signing, nil
}

// CertificateChain implements auth.KeyStore.
func (m *Memory) CertificateChain() ([]auth.StoredCertificate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.chain) == 0 {
		return nil, fmt.Errorf("keystore: no certificate chain configured")
	}
	out := make([]auth.StoredCertificate, len(m.chain))
	for i, sc := range m.chain {
		der := make([]byte, len(sc.DER))
		copy(der, sc.DER)
		out[i] = auth.StoredCertificate{Format: sc.Format, DER: der}
	}
	return out, nil
}

// CAPublicKey implements auth.KeyStore.
func (m *Memory) CAPublicKey(aki []byte) (*ecdsa.PublicKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pub, ok := m.caByAKI[string(aki)]
	if !ok {
		return nil, fmt.Errorf("keystore: no trusted CA for authority key id %x", aki)
	}
	return pub, nil
}

var _ auth.KeyStore = (*Memory)(nil)
