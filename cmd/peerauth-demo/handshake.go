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

package main

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/spf13/cobra"

	"github.com/vynaura/peerauth/certchain"
	"github.com/vynaura/peerauth/core/auth"
	"github.com/vynaura/peerauth/internal/logger"
	"github.com/vynaura/peerauth/keystore"
	"github.com/vynaura/peerauth/listener"
)

var (
	flagSuite   string
	flagVersion uint32
)

func init() {
	cmd := &cobra.Command{
		Use:   "handshake",
		Short: "run a single in-process client/server handshake and report the outcome",
		RunE:  runHandshake,
	}
	cmd.Flags().StringVar(&flagSuite, "suite", "null", "key-authentication suite: null, psk, or ecdsa")
	cmd.Flags().Uint32Var(&flagVersion, "version", 3<<16, "negotiated protocol version (upper 16 bits are the major version)")
	rootCmd.AddCommand(cmd)
}

func runHandshake(cmd *cobra.Command, args []string) error {
	suite, err := suiteFromFlag(flagSuite)
	if err != nil {
		return err
	}

	clientBus := auth.NewBus()
	serverBus := auth.NewBus()
	clientBus.EnableSuite(suite)
	serverBus.EnableSuite(suite)

	if suite == auth.SuiteECDHEPSK {
		psk := &listener.StaticPSK{HintValue: []byte("demo-peer"), Value: []byte("correct horse battery staple"), Expiration: auth.NeverExpires}
		clientBus.Listener = listener.NewInMemory(psk)
		serverBus.Listener = listener.NewInMemory(psk)
	}
	if suite == auth.SuiteECDHEECDSA {
		clientKS, serverKS, err := demoECDSAKeystores()
		if err != nil {
			return fmt.Errorf("build demo keystores: %w", err)
		}
		clientBus.KeyStore = clientKS
		serverBus.KeyStore = serverKS
		clientBus.Listener = listener.NewInMemory(&listener.StaticPSK{})
		serverBus.Listener = listener.NewInMemory(&listener.StaticPSK{})
	}

	client := auth.NewAuthContext(auth.RoleClient, flagVersion, clientBus)
	client.Suite = suite
	server := auth.NewAuthContext(auth.RoleServer, flagVersion, serverBus)
	server.Suite = suite

	clientTransport, serverTransport := newPipeTransportPair()

	auth.Log = logger.NewLogger(cmd.OutOrStdout(), logger.InfoLevel)

	clientErrCh := make(chan error, 1)
	serverErrCh := make(chan error, 1)
	go func() { clientErrCh <- client.Run(clientTransport) }()
	go func() { serverErrCh <- server.Run(serverTransport) }()

	clientErr, serverErr := <-clientErrCh, <-serverErrCh

	if clientErr != nil || serverErr != nil {
		return fmt.Errorf("handshake failed: client=%v server=%v", clientErr, serverErr)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "handshake complete: suite=%s version=%#x\n", flagSuite, flagVersion)
	if digest, ok := server.ManifestDigest(); ok {
		fmt.Fprintf(cmd.OutOrStdout(), "server observed manifest digest: %x\n", digest)
	}
	return nil
}

func suiteFromFlag(s string) (uint32, error) {
	switch s {
	case "null":
		return auth.SuiteECDHENull, nil
	case "psk":
		return auth.SuiteECDHEPSK, nil
	case "ecdsa":
		return auth.SuiteECDHEECDSA, nil
	default:
		return 0, fmt.Errorf("unknown suite %q (want null, psk, or ecdsa)", s)
	}
}

// pipeTransport is a minimal in-process auth.Transport implementation
// connecting a client and server context over buffered Go channels.
type pipeTransport struct {
	send chan []byte
	recv chan []byte
}

func newPipeTransportPair() (client, server *pipeTransport) {
	a := make(chan []byte, 1)
	b := make(chan []byte, 1)
	client = &pipeTransport{send: a, recv: b}
	server = &pipeTransport{send: b, recv: a}
	return client, server
}

func (p *pipeTransport) Send(data []byte) error {
	p.send <- append([]byte(nil), data...)
	return nil
}

func (p *pipeTransport) Receive() ([]byte, error) {
	return <-p.recv, nil
}

// demoECDSAKeystores mints a throwaway CA, intermediate and leaf
// certificate so the ecdsa suite demo has a complete chain to exchange,
// without requiring the operator to supply real credentials. ECDSA
// authentication is mutual, so both keystores hold the same signing key,
// chain and trusted CA.
func demoECDSAKeystores() (client, server *keystore.Memory, err error) {
	caPriv, caCert, err := selfSignedCA("peerauth-demo CA")
	if err != nil {
		return nil, nil, err
	}
	interPriv, interCert, err := signedIntermediate("peerauth-demo Intermediate", caPriv, caCert)
	if err != nil {
		return nil, nil, err
	}
	leafPriv, leafCert, err := signedLeaf("peerauth-demo Leaf", interPriv, interCert)
	if err != nil {
		return nil, nil, err
	}

	chain := []auth.StoredCertificate{
		{Format: auth.CertFormatX509DER, DER: leafCert.Raw},
		{Format: auth.CertFormatX509DER, DER: interCert.Raw},
	}

	clientKS := keystore.NewMemory()
	clientKS.SetSigningKey(leafPriv)
	clientKS.SetCertificateChain(chain)
	clientKS.AddTrustedCA(interCert.AuthorityKeyId, &caPriv.PublicKey)

	serverKS := keystore.NewMemory()
	serverKS.SetSigningKey(leafPriv)
	serverKS.SetCertificateChain(chain)
	serverKS.AddTrustedCA(interCert.AuthorityKeyId, &caPriv.PublicKey)

	return clientKS, serverKS, nil
}

func selfSignedCA(cn string) (*ecdsa.PrivateKey, *x509.Certificate, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		SubjectKeyId:          []byte(cn),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &priv.PublicKey, priv)
	if err != nil {
		return nil, nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, err
	}
	return priv, cert, nil
}

func signedIntermediate(cn string, caPriv *ecdsa.PrivateKey, caCert *x509.Certificate) (*ecdsa.PrivateKey, *x509.Certificate, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	tmpl := &x509.Certificate{
		SerialNumber:          big.NewInt(2),
		Subject:               pkix.Name{CommonName: cn},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
		AuthorityKeyId:        caCert.SubjectKeyId,
		SubjectKeyId:          []byte(cn),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, caCert, &priv.PublicKey, caPriv)
	if err != nil {
		return nil, nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, err
	}
	return priv, cert, nil
}

func signedLeaf(cn string, interPriv *ecdsa.PrivateKey, interCert *x509.Certificate) (*ecdsa.PrivateKey, *x509.Certificate, error) {
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	var manifest [32]byte
	copy(manifest[:], "peerauth-demo manifest digest!!")
	tmpl := &x509.Certificate{
		SerialNumber:    big.NewInt(3),
		Subject:         pkix.Name{CommonName: cn},
		NotBefore:       time.Now().Add(-time.Hour),
		NotAfter:        time.Now().Add(24 * time.Hour),
		KeyUsage:        x509.KeyUsageDigitalSignature,
		AuthorityKeyId:  interCert.SubjectKeyId,
		ExtraExtensions: []pkix.Extension{certchain.NewManifestDigestExtension(manifest)},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, interCert, &priv.PublicKey, interPriv)
	if err != nil {
		return nil, nil, err
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, nil, err
	}
	return priv, cert, nil
}
