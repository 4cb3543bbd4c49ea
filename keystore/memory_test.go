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

package keystore

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vynaura/peerauth/core/auth"
)

func TestMemoryKeyStoreRoundTrip(t *testing.T) {
	ks := NewMemory()

	_, err := ks.SigningKey()
	require.Error(t, err)
	_, err = ks.CertificateChain()
	require.Error(t, err)
	_, err = ks.CAPublicKey([]byte("aki"))
	require.Error(t, err)

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	ks.SetSigningKey(priv)

	got, err := ks.SigningKey()
	require.NoError(t, err)
	require.Equal(t, priv, got)

	chain := []auth.StoredCertificate{{Format: auth.CertFormatX509DER, DER: []byte("leaf")}}
	ks.SetCertificateChain(chain)
	gotChain, err := ks.CertificateChain()
	require.NoError(t, err)
	require.Equal(t, chain, gotChain)

	caPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	ks.AddTrustedCA([]byte("root-aki"), &caPriv.PublicKey)

	gotCA, err := ks.CAPublicKey([]byte("root-aki"))
	require.NoError(t, err)
	require.Equal(t, &caPriv.PublicKey, gotCA)
}

func TestMemoryCertificateChainIsCopiedOnRead(t *testing.T) {
	ks := NewMemory()
	ks.SetCertificateChain([]auth.StoredCertificate{{Format: auth.CertFormatX509DER, DER: []byte("leaf")}})

	got, err := ks.CertificateChain()
	require.NoError(t, err)
	got[0].DER[0] = 'X'

	got2, err := ks.CertificateChain()
	require.NoError(t, err)
	require.Equal(t, byte('l'), got2[0].DER[0])
}
