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

package certchain

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func mintCA(t *testing.T) (*ecdsa.PrivateKey, *x509.Certificate) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "root CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		SubjectKeyId:          []byte("ca-key"),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return priv, cert
}

func mintLeaf(t *testing.T, issuerPriv *ecdsa.PrivateKey, issuerCert *x509.Certificate, manifest [32]byte) (*ecdsa.PrivateKey, []byte) {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:    big.NewInt(2),
		Subject:         pkix.Name{CommonName: "leaf"},
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(time.Hour),
		KeyUsage:        x509.KeyUsageDigitalSignature,
		AuthorityKeyId:  issuerCert.SubjectKeyId,
		ExtraExtensions: []pkix.Extension{NewManifestDigestExtension(manifest)},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, issuerCert, &priv.PublicKey, issuerPriv)
	require.NoError(t, err)
	return priv, der
}

func TestDecodeAndVerifyHappyPath(t *testing.T) {
	caPriv, caCert := mintCA(t)
	var manifest [32]byte
	copy(manifest[:], "abcdefghijklmnopqrstuvwxyz012345")
	_, leafDER := mintLeaf(t, caPriv, caCert, manifest)

	chain, err := Decode([][]byte{leafDER})
	require.NoError(t, err)
	require.Equal(t, 1, chain.Len())

	got, err := chain.LeafManifestDigest()
	require.NoError(t, err)
	require.Equal(t, manifest, got)

	aki, err := chain.RootAuthorityKeyID()
	require.NoError(t, err)
	require.Equal(t, caCert.SubjectKeyId, aki)

	require.NoError(t, chain.Verify(&caPriv.PublicKey))
}

func TestVerifyFailsForWrongCA(t *testing.T) {
	caPriv, caCert := mintCA(t)
	var manifest [32]byte
	_, leafDER := mintLeaf(t, caPriv, caCert, manifest)

	chain, err := Decode([][]byte{leafDER})
	require.NoError(t, err)

	otherPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	require.Error(t, chain.Verify(&otherPriv.PublicKey))
}

func TestLeafManifestDigestRejectsWrongLength(t *testing.T) {
	caPriv, caCert := mintCA(t)
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber:    big.NewInt(3),
		Subject:         pkix.Name{CommonName: "short-manifest leaf"},
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(time.Hour),
		ExtraExtensions: []pkix.Extension{{Id: ManifestDigestOID(), Value: []byte("too-short")}},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, caCert, &priv.PublicKey, caPriv)
	require.NoError(t, err)

	chain, err := Decode([][]byte{der})
	require.NoError(t, err)
	_, err = chain.LeafManifestDigest()
	require.Error(t, err)
}

func TestDecodeFailsOnGarbageDER(t *testing.T) {
	_, err := Decode([][]byte{[]byte("not a certificate")})
	require.Error(t, err)
}

func TestLeafPublicKeyReturnsECDSAKey(t *testing.T) {
	caPriv, caCert := mintCA(t)
	var manifest [32]byte
	leafPriv, leafDER := mintLeaf(t, caPriv, caCert, manifest)

	chain, err := Decode([][]byte{leafDER})
	require.NoError(t, err)
	pub, err := chain.LeafPublicKey()
	require.NoError(t, err)
	require.Equal(t, &leafPriv.PublicKey, pub)
}
