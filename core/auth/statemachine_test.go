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
	"testing"

	"github.com/stretchr/testify/require"
)

type chanTransport struct {
	send chan []byte
	recv chan []byte
}

func newChanTransportPair() (client, server Transport) {
	a := make(chan []byte, 1)
	b := make(chan []byte, 1)
	return &chanTransport{send: a, recv: b}, &chanTransport{send: b, recv: a}
}

func (c *chanTransport) Send(data []byte) error {
	c.send <- append([]byte(nil), data...)
	return nil
}

func (c *chanTransport) Receive() ([]byte, error) {
	return <-c.recv, nil
}

func TestRunDrivesNullSuiteHandshakeToCompletion(t *testing.T) {
	client, server := newPair(t, 3<<16, SuiteECDHENull, nil)
	clientT, serverT := newChanTransportPair()

	errCh := make(chan error, 2)
	go func() { errCh <- client.Run(clientT) }()
	go func() { errCh <- server.Run(serverT) }()

	require.NoError(t, <-errCh)
	require.NoError(t, <-errCh)
}

func TestRunSurfacesKeyExchangeFailureWithoutHanging(t *testing.T) {
	_, server := newPair(t, 3<<16, SuiteECDHENull, nil)
	clientT, serverT := newChanTransportPair()

	// No client is run: a malformed one-byte key-exchange value is put
	// straight onto the server's receive channel, forcing
	// KeyExchangeUnmarshal to fail on the server before it sends anything.
	serverT.(*chanTransport).recv <- []byte{0xFF}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run(serverT) }()

	err := <-errCh
	require.Error(t, err)
	require.True(t, IsSecurity(err))

	// The client's half is never used; no client goroutine was started.
	_ = clientT
}
