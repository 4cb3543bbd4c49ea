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
	"context"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/elliptic"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// caRegistryABI is the minimal ABI this package needs from a CA registry
// contract: a single view function mapping an Authority Key Identifier to
// the uncompressed SEC1 bytes (0x04 ‖ X ‖ Y) of the trusted CA's P-256
// public key, adapted from the teacher's did/ethereum client's pattern of
// parsing a small hand-written ABI string rather than a generated binding.
const caRegistryABI = `[
  {"constant":true,"inputs":[{"name":"aki","type":"bytes32"}],"name":"caPublicKey","outputs":[{"name":"","type":"bytes"}],"stateMutability":"view","type":"function"}
]`

// OnChain is a KeyStore.CAPublicKey-only backend: it resolves trusted CA
// public keys from a smart-contract registry instead of a local map,
// mirroring did/ethereum.EthereumClient's read path (dial, parse ABI,
// bind contract, call). It does not implement SigningKey or
// CertificateChain — those remain local secrets a chain registry has no
// business holding — so deployments wrap it alongside a Memory keystore
// for those two methods.
type OnChain struct {
	client   *ethclient.Client
	contract *bind.BoundContract
}

// NewOnChain dials rpcEndpoint and binds the CA registry contract at
// registryAddress.
func NewOnChain(rpcEndpoint, registryAddress string) (*OnChain, error) {
	client, err := ethclient.Dial(rpcEndpoint)
	if err != nil {
		return nil, fmt.Errorf("keystore: dial %s: %w", rpcEndpoint, err)
	}
	parsedABI, err := abi.JSON(strings.NewReader(caRegistryABI))
	if err != nil {
		return nil, fmt.Errorf("keystore: parse CA registry ABI: %w", err)
	}
	addr := common.HexToAddress(registryAddress)
	contract := bind.NewBoundContract(addr, parsedABI, client, client, client)
	return &OnChain{client: client, contract: contract}, nil
}

// CAPublicKey calls the registry's caPublicKey(aki) view function and
// decodes the returned bytes as an uncompressed P-256 public key.
func (o *OnChain) CAPublicKey(aki []byte) (*ecdsa.PublicKey, error) {
	var akiWord [32]byte
	copy(akiWord[32-len(aki):], aki)

	results := make([]any, 0, 1)
	opts := &bind.CallOpts{Context: context.Background()}
	raw, err := o.callCAPublicKey(opts, akiWord, &results)
	if err != nil {
		return nil, fmt.Errorf("keystore: on-chain CA lookup for %x: %w", aki, err)
	}
	return decodeP256PublicKey(raw)
}

func (o *OnChain) callCAPublicKey(opts *bind.CallOpts, aki [32]byte, out *[]any) ([]byte, error) {
	if err := o.contract.Call(opts, out, "caPublicKey", aki); err != nil {
		return nil, err
	}
	if len(*out) != 1 {
		return nil, fmt.Errorf("unexpected return arity %d", len(*out))
	}
	raw, ok := (*out)[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected return type %T", (*out)[0])
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no CA registered for this authority key id")
	}
	return raw, nil
}

// decodeP256PublicKey parses an uncompressed SEC1 point (0x04‖X‖Y) into an
// *ecdsa.PublicKey on NIST P-256, the same encoding the ECDHE exchange
// uses for ephemeral keys.
func decodeP256PublicKey(raw []byte) (*ecdsa.PublicKey, error) {
	pub, err := ecdh.P256().NewPublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid on-chain CA public key encoding: %w", err)
	}
	xy := pub.Bytes()[1:]
	x := new(big.Int).SetBytes(xy[:32])
	y := new(big.Int).SetBytes(xy[32:])
	return &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}, nil
}
