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

// Package certchain decodes and verifies the DER certificate chains
// exchanged during ECDSA key authentication, and extracts the two pieces
// of custom data the handshake needs from the leaf certificate: its
// manifest digest extension and (on root certificates) the Authority Key
// Identifier used to look up the trusting CA.
//
// It mirrors the original's X509CertificateChain linked list: certificates
// are decoded leaf-first and the chain is only ever walked or freed as a
// whole, never mutated in place. This is expressed here as a plain Go
// slice rather than a linked list; a chain that fails to decode or verify
// is simply dropped, with no explicit free step.
package certchain

import (
	"crypto/ecdsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
)

// manifestDigestOID is a private-use extension OID carrying the 32-byte
// manifest digest on a leaf certificate. It is not registered with any
// external authority; it only needs to be stable within this module.
var manifestDigestOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 55734, 1, 1}

// ManifestDigestLen is the required length of the manifest digest
// extension's contents.
const ManifestDigestLen = 32

// Chain is a leaf-first sequence of decoded DER certificates.
type Chain struct {
	certs []*x509.Certificate
}

// Decode parses a leaf-first sequence of raw DER certificates. Each
// certificate is decoded independently; Decode does not yet verify any
// signature or chain relationship. It mirrors the original's "prepend
// before decode" discipline by building the slice incrementally as each
// blob is parsed, so a decode failure partway through still reports how
// far the chain got instead of discarding everything silently.
func Decode(der [][]byte) (*Chain, error) {
	c := &Chain{certs: make([]*x509.Certificate, 0, len(der))}
	for i, blob := range der {
		cert, err := x509.ParseCertificate(blob)
		if err != nil {
			return nil, fmt.Errorf("certchain: decode certificate %d: %w", i, err)
		}
		c.certs = append(c.certs, cert)
	}
	return c, nil
}

// Len reports how many certificates were decoded.
func (c *Chain) Len() int { return len(c.certs) }

// Leaf returns the first (leaf) certificate, or nil if the chain is empty.
func (c *Chain) Leaf() *x509.Certificate {
	if len(c.certs) == 0 {
		return nil
	}
	return c.certs[0]
}

// Root returns the last certificate in the chain, or nil if empty.
func (c *Chain) Root() *x509.Certificate {
	if len(c.certs) == 0 {
		return nil
	}
	return c.certs[len(c.certs)-1]
}

// RootAuthorityKeyID returns the Authority Key Identifier carried by the
// root certificate, used to look up the CA public key that should trust
// this chain.
func (c *Chain) RootAuthorityKeyID() ([]byte, error) {
	root := c.Root()
	if root == nil {
		return nil, errors.New("certchain: empty chain")
	}
	if len(root.AuthorityKeyId) == 0 {
		return nil, errors.New("certchain: root certificate carries no Authority Key Identifier")
	}
	return root.AuthorityKeyId, nil
}

// LeafManifestDigest extracts the 32-byte manifest digest extension from
// the leaf certificate.
func (c *Chain) LeafManifestDigest() ([32]byte, error) {
	var out [32]byte
	leaf := c.Leaf()
	if leaf == nil {
		return out, errors.New("certchain: empty chain")
	}
	for _, ext := range leaf.Extensions {
		if !ext.Id.Equal(manifestDigestOID) {
			continue
		}
		if len(ext.Value) != ManifestDigestLen {
			return out, fmt.Errorf("certchain: manifest digest extension has length %d, want %d", len(ext.Value), ManifestDigestLen)
		}
		copy(out[:], ext.Value)
		return out, nil
	}
	return out, errors.New("certchain: leaf certificate carries no manifest digest extension")
}

// caCertificate wraps a bare CA public key in just enough of an
// x509.Certificate for CheckSignatureFrom to accept it as an issuer: a
// well-formed chain's trust anchor here is a public key from the
// keystore's CA registry, not a full certificate.
func caCertificate(pub *ecdsa.PublicKey) *x509.Certificate {
	return &x509.Certificate{
		PublicKey:             pub,
		PublicKeyAlgorithm:    x509.ECDSA,
		Version:               3,
		BasicConstraintsValid: true,
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
	}
}

// Verify checks every signature link in the chain, leaf to root, and
// finally that the root is signed by caKey. It returns an error on the
// first broken link; the caller must treat any error as a security
// failure and discard all derived key material, since Verify does not
// itself decide trust-on-partial-success.
func (c *Chain) Verify(caKey *ecdsa.PublicKey) error {
	if len(c.certs) == 0 {
		return errors.New("certchain: empty chain")
	}
	for i := 0; i < len(c.certs)-1; i++ {
		if err := c.certs[i].CheckSignatureFrom(c.certs[i+1]); err != nil {
			return fmt.Errorf("certchain: certificate %d not signed by certificate %d: %w", i, i+1, err)
		}
	}
	root := c.certs[len(c.certs)-1]
	if err := root.CheckSignatureFrom(caCertificate(caKey)); err != nil {
		return fmt.Errorf("certchain: root certificate not signed by trusted CA: %w", err)
	}
	return nil
}

// LeafPublicKey returns the leaf certificate's ECDSA public key, the key
// the handshake verifier's signature must check against.
func (c *Chain) LeafPublicKey() (*ecdsa.PublicKey, error) {
	leaf := c.Leaf()
	if leaf == nil {
		return nil, errors.New("certchain: empty chain")
	}
	pub, ok := leaf.PublicKey.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certchain: leaf public key is %T, want *ecdsa.PublicKey", leaf.PublicKey)
	}
	return pub, nil
}

// ManifestDigestOID exposes the extension OID this package recognizes,
// for callers that mint their own test certificates.
func ManifestDigestOID() asn1.ObjectIdentifier {
	return append(asn1.ObjectIdentifier{}, manifestDigestOID...)
}

// NewManifestDigestExtension builds the pkix.Extension a certificate
// template should carry in ExtraExtensions to embed a manifest digest.
func NewManifestDigestExtension(digest [32]byte) pkix.Extension {
	return pkix.Extension{
		Id:    manifestDigestOID,
		Value: append([]byte{}, digest[:]...),
	}
}
