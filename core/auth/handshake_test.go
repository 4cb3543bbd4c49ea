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
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vynaura/peerauth/certchain"
)

// newPair returns client and server contexts wired to the same bus kind
// and negotiated version, ready to run a handshake against each other.
func newPair(t *testing.T, version uint32, suite uint32, configure func(clientBus, serverBus *Bus)) (*AuthContext, *AuthContext) {
	t.Helper()
	clientBus := NewBus()
	serverBus := NewBus()
	clientBus.EnableSuite(suite)
	serverBus.EnableSuite(suite)
	if configure != nil {
		configure(clientBus, serverBus)
	}
	client := NewAuthContext(RoleClient, version, clientBus)
	client.Suite = suite
	server := NewAuthContext(RoleServer, version, serverBus)
	server.Suite = suite
	return client, server
}

func runKeyExchange(t *testing.T, client, server *AuthContext) {
	t.Helper()
	out, err := client.KeyExchangeMarshal()
	require.NoError(t, err)
	require.NoError(t, server.KeyExchangeUnmarshal(out))
	out2, err := server.KeyExchangeMarshal()
	require.NoError(t, err)
	require.NoError(t, client.KeyExchangeUnmarshal(out2))
}

func TestECDHERoundTripV2AgreesOnMasterSecret(t *testing.T) {
	client, server := newPair(t, 3<<16, SuiteECDHENull, nil)
	runKeyExchange(t, client, server)

	require.NotEmpty(t, client.masterSecret)
	require.Equal(t, client.masterSecret, server.masterSecret)
	require.Len(t, client.masterSecret, MasterSecretLen)
}

func TestECDHERoundTripV1LegacyLayout(t *testing.T) {
	client, server := newPair(t, 1<<16, SuiteECDHENull, nil)
	runKeyExchange(t, client, server)

	require.Equal(t, client.masterSecret, server.masterSecret)
}

func TestECDHEWrongCurveByteFailsBeforeDerivation(t *testing.T) {
	client, server := newPair(t, 3<<16, SuiteECDHENull, nil)

	out, err := client.KeyExchangeMarshal()
	require.NoError(t, err)
	out[0] = 0x01 // corrupt the curve id

	err = server.KeyExchangeUnmarshal(out)
	require.Error(t, err)
	require.True(t, IsSecurity(err))
	require.Nil(t, server.masterSecret)
}

func TestECDHETamperedPublicKeyFailsSecurity(t *testing.T) {
	client, server := newPair(t, 3<<16, SuiteECDHENull, nil)

	out, err := client.KeyExchangeMarshal()
	require.NoError(t, err)
	out[len(out)-1] ^= 0xFF

	err = server.KeyExchangeUnmarshal(out)
	require.Error(t, err)
	require.True(t, IsSecurity(err))
}

func runFullHandshake(t *testing.T, client, server *AuthContext) (clientErr, serverErr error) {
	t.Helper()
	runKeyExchange(t, client, server)

	out, err := client.KeyAuthenticationMarshal()
	if err != nil {
		return err, nil
	}
	if err := server.KeyAuthenticationUnmarshal(out); err != nil {
		return nil, err
	}
	out2, err := server.KeyAuthenticationMarshal()
	if err != nil {
		return nil, err
	}
	if err := client.KeyAuthenticationUnmarshal(out2); err != nil {
		return err, nil
	}
	return nil, nil
}

func TestNullSuiteHandshakeRoundTrip(t *testing.T) {
	client, server := newPair(t, 3<<16, SuiteECDHENull, nil)
	clientErr, serverErr := runFullHandshake(t, client, server)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)
}

func TestPSKSuiteIdenticalSecretsSucceed(t *testing.T) {
	client, server := newPair(t, 3<<16, SuiteECDHEPSK, func(clientBus, serverBus *Bus) {
		clientBus.Listener = &staticPSKListener{hint: []byte("dev-1"), psk: []byte("sharedsecret")}
		serverBus.Listener = &staticPSKListener{hint: []byte("dev-1"), psk: []byte("sharedsecret")}
	})
	clientErr, serverErr := runFullHandshake(t, client, server)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)
	require.Equal(t, NeverExpires, client.Expiration)
	require.Equal(t, NeverExpires, server.Expiration)
}

func TestPSKSuiteMismatchFailsSecurity(t *testing.T) {
	client, server := newPair(t, 3<<16, SuiteECDHEPSK, func(clientBus, serverBus *Bus) {
		clientBus.Listener = &staticPSKListener{hint: []byte("dev-1"), psk: []byte("sharedsecret")}
		serverBus.Listener = &staticPSKListener{hint: []byte("dev-1"), psk: []byte("different-secret")}
	})
	clientErr, serverErr := runFullHandshake(t, client, server)
	require.NoError(t, clientErr)
	require.Error(t, serverErr)
	require.True(t, IsSecurity(serverErr))
}

// oneShotPSKListener fails any second PSK-value request for a given
// hint, so a test using it only passes if PSKMarshal's server branch
// reuses the credential PSKUnmarshal already bound instead of issuing a
// second lookup (spec §4.5's server flow resolves the PSK exactly once).
type oneShotPSKListener struct {
	byHint map[string][]byte
	looked map[string]bool
}

func newOneShotPSKListener(byHint map[string][]byte) *oneShotPSKListener {
	return &oneShotPSKListener{byHint: byHint, looked: map[string]bool{}}
}

func (s *oneShotPSKListener) Credential(suite uint32, cred *Credential) error {
	switch cred.Field {
	case CredentialFieldHint:
		if cred.Direction == CredentialRequest {
			for h := range s.byHint {
				cred.Data = []byte(h)
				break
			}
		}
		return nil
	case CredentialFieldValue:
		key := string(cred.Data)
		if s.looked[key] {
			return fmt.Errorf("oneShotPSKListener: hint %q already resolved once", key)
		}
		s.looked[key] = true
		psk, ok := s.byHint[key]
		if !ok {
			return fmt.Errorf("oneShotPSKListener: no PSK for hint %q", key)
		}
		cred.Data = psk
		cred.Expiration = NeverExpires
		return nil
	default:
		return nil
	}
}

func TestPSKServerReusesResolvedCredentialOnMarshal(t *testing.T) {
	secrets := map[string][]byte{"dev-1": []byte("sharedsecret")}
	client, server := newPair(t, 3<<16, SuiteECDHEPSK, func(clientBus, serverBus *Bus) {
		clientBus.Listener = newOneShotPSKListener(secrets)
		serverBus.Listener = newOneShotPSKListener(secrets)
	})
	clientErr, serverErr := runFullHandshake(t, client, server)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)
}

func TestPSKLegacyCallbackPath(t *testing.T) {
	client, server := newPair(t, 1<<16, SuiteECDHEPSK, func(clientBus, serverBus *Bus) {
		clientBus.PasswordCallback = func(buf []byte) (int, error) { return copy(buf, []byte("legacy-psk")), nil }
		serverBus.PasswordCallback = func(buf []byte) (int, error) { return copy(buf, []byte("legacy-psk")), nil }
	})
	clientErr, serverErr := runFullHandshake(t, client, server)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)
}

// staticPSKListener is a minimal auth.AuthListener for tests that
// always returns the same (hint, psk) pair regardless of direction.
type staticPSKListener struct {
	hint []byte
	psk  []byte
}

func (s *staticPSKListener) Credential(suite uint32, cred *Credential) error {
	switch cred.Field {
	case CredentialFieldHint:
		if cred.Direction == CredentialRequest {
			cred.Data = s.hint
		}
		return nil
	case CredentialFieldValue:
		cred.Data = s.psk
		cred.Expiration = NeverExpires
		return nil
	default:
		return nil
	}
}

// --- ECDSA suite fixtures ---

type testKeyStore struct {
	signing *ecdsa.PrivateKey
	chain   []StoredCertificate
	caByAKI map[string]*ecdsa.PublicKey
}

func (k *testKeyStore) SigningKey() (*ecdsa.PrivateKey, error) { return k.signing, nil }
func (k *testKeyStore) CertificateChain() ([]StoredCertificate, error) { return k.chain, nil }
func (k *testKeyStore) CAPublicKey(aki []byte) (*ecdsa.PublicKey, error) {
	pub, ok := k.caByAKI[string(aki)]
	if !ok {
		return nil, errNoSuchCA
	}
	return pub, nil
}

var errNoSuchCA = &testError{"no such CA"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

// buildCertChain mints a throwaway CA + leaf certificate pair (skipping an
// intermediate for test speed) carrying a manifest digest extension on
// the leaf, returning the leaf's signing key, the DER chain to present on
// the wire, and the CA's public key plus AKI for the verifier side.
func buildCertChain(t *testing.T, manifest [32]byte) (leafPriv *ecdsa.PrivateKey, chainDER [][]byte, caPub *ecdsa.PublicKey, caAKI []byte) {
	t.Helper()
	caPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	caTmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
		IsCA:                  true,
		SubjectKeyId:          []byte("ca-key-id"),
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTmpl, caTmpl, &caPriv.PublicKey, caPriv)
	require.NoError(t, err)
	caCert, err := x509.ParseCertificate(caDER)
	require.NoError(t, err)

	leafPriv, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	leafTmpl := &x509.Certificate{
		SerialNumber:    big.NewInt(2),
		Subject:         pkix.Name{CommonName: "test leaf"},
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(time.Hour),
		KeyUsage:        x509.KeyUsageDigitalSignature,
		AuthorityKeyId:  caCert.SubjectKeyId,
		ExtraExtensions: []pkix.Extension{certchain.NewManifestDigestExtension(manifest)},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTmpl, caCert, &leafPriv.PublicKey, caPriv)
	require.NoError(t, err)

	return leafPriv, [][]byte{leafDER}, &caPriv.PublicKey, caCert.SubjectKeyId
}

func TestECDSAHappyPath(t *testing.T) {
	var manifest [32]byte
	copy(manifest[:], "0123456789abcdef0123456789abcdef")
	leafPriv, chainDER, caPub, caAKI := buildCertChain(t, manifest)

	// ECDSA authentication is mutual: each side signs its verifier and
	// presents a chain, and each side checks the peer's chain against its
	// trusted CAs. Both sides present the same test identity here.
	clientKS := &testKeyStore{signing: leafPriv, chain: []StoredCertificate{{Format: CertFormatX509DER, DER: chainDER[0]}}, caByAKI: map[string]*ecdsa.PublicKey{string(caAKI): caPub}}
	serverKS := &testKeyStore{signing: leafPriv, chain: []StoredCertificate{{Format: CertFormatX509DER, DER: chainDER[0]}}, caByAKI: map[string]*ecdsa.PublicKey{string(caAKI): caPub}}

	client, server := newPair(t, 3<<16, SuiteECDHEECDSA, func(clientBus, serverBus *Bus) {
		clientBus.KeyStore = clientKS
		serverBus.KeyStore = serverKS
		clientBus.Listener = &staticPSKListener{}
		serverBus.Listener = &staticPSKListener{}
	})

	clientErr, serverErr := runFullHandshake(t, client, server)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)

	got, ok := server.ManifestDigest()
	require.True(t, ok)
	require.Equal(t, manifest, got)
	require.Equal(t, NeverExpires, client.Expiration)
	require.Equal(t, NeverExpires, server.Expiration)
}

func TestECDSAWrongCAFailsSecurity(t *testing.T) {
	var manifest [32]byte
	copy(manifest[:], "0123456789abcdef0123456789abcdef")
	leafPriv, chainDER, _, caAKI := buildCertChain(t, manifest)

	wrongCAPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	clientKS := &testKeyStore{signing: leafPriv, chain: []StoredCertificate{{Format: CertFormatX509DER, DER: chainDER[0]}}}
	serverKS := &testKeyStore{caByAKI: map[string]*ecdsa.PublicKey{string(caAKI): &wrongCAPriv.PublicKey}}

	client, server := newPair(t, 3<<16, SuiteECDHEECDSA, func(clientBus, serverBus *Bus) {
		clientBus.KeyStore = clientKS
		serverBus.KeyStore = serverKS
		clientBus.Listener = &staticPSKListener{}
		serverBus.Listener = &staticPSKListener{}
	})

	_, serverErr := runFullHandshake(t, client, server)
	require.Error(t, serverErr)
	require.True(t, IsSecurity(serverErr))
}

func TestECDSAForgedSignatureFailsSecurity(t *testing.T) {
	var manifest [32]byte
	copy(manifest[:], "0123456789abcdef0123456789abcdef")
	_, chainDER, caPub, caAKI := buildCertChain(t, manifest)

	// Sign with an unrelated key instead of the leaf's own key.
	forgedPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	clientKS := &testKeyStore{signing: forgedPriv, chain: []StoredCertificate{{Format: CertFormatX509DER, DER: chainDER[0]}}}
	serverKS := &testKeyStore{caByAKI: map[string]*ecdsa.PublicKey{string(caAKI): caPub}}

	client, server := newPair(t, 3<<16, SuiteECDHEECDSA, func(clientBus, serverBus *Bus) {
		clientBus.KeyStore = clientKS
		serverBus.KeyStore = serverKS
		clientBus.Listener = &staticPSKListener{}
		serverBus.Listener = &staticPSKListener{}
	})

	_, serverErr := runFullHandshake(t, client, server)
	require.Error(t, serverErr)
	require.True(t, IsSecurity(serverErr))
}

func TestECDSARejectedBelowVersion3(t *testing.T) {
	bus := NewBus()
	bus.EnableSuite(SuiteECDHEECDSA)
	require.False(t, bus.IsSuiteEnabled(SuiteECDHEECDSA, 2<<16))
	require.True(t, bus.IsSuiteEnabled(SuiteECDHEECDSA, 3<<16))
}

func TestResetClearsDerivedState(t *testing.T) {
	client, server := newPair(t, 3<<16, SuiteECDHENull, nil)
	runKeyExchange(t, client, server)
	require.NotNil(t, client.masterSecret)

	client.Reset()
	require.Nil(t, client.masterSecret)
	require.Nil(t, client.kex.priv)
}
