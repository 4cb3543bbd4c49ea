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
	"time"

	"github.com/vynaura/peerauth/internal/logger"
	"github.com/vynaura/peerauth/internal/metrics"
)

// Transport is the minimal blocking send/receive pair the state machine
// needs. It carries one opaque argument buffer per call; framing,
// retries and retransmission belong to the surrounding protocol stack,
// not to this core (spec Non-goals).
type Transport interface {
	Send(data []byte) error
	Receive() ([]byte, error)
}

// Log is the logger used by Run; it defaults to a no-op sink so callers
// that don't care about handshake logging pay nothing for it.
var Log logger.Logger = logger.NewLogger(discard{}, logger.ErrorLevel+1)

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func timePhase(phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	return err
}

// Run drives one full handshake — key exchange followed by key
// authentication — to completion, in the wire order this context's Role
// requires: the client marshals its key-exchange value first and its
// key-authentication proof first; the server always unmarshals before it
// marshals its own side of each phase.
func (c *AuthContext) Run(t Transport) error {
	log := Log.WithFields(logger.String("handshake_id", c.ID), logger.String("role", c.Role.String()), logger.Uint32Hex("suite", c.Suite))
	metrics.HandshakesStarted.WithLabelValues(c.Role.String()).Inc()

	var err error
	if c.Role == RoleClient {
		err = c.runClient(t, log)
	} else {
		err = c.runServer(t, log)
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if ae, ok := err.(*AuthError); ok {
			outcome = ae.Kind().String()
		}
		log.Warn("handshake failed", logger.Error(err))
	} else {
		log.Info("handshake completed")
		metrics.SuiteUsage.WithLabelValues(suiteName(c.Suite)).Inc()
	}
	metrics.HandshakesCompleted.WithLabelValues(outcome).Inc()
	return err
}

func (c *AuthContext) runClient(t Transport, log logger.Logger) error {
	var out, in []byte
	var err error

	if err = timePhase("keyexchange", func() error {
		out, err = c.KeyExchangeMarshal()
		if err != nil {
			return err
		}
		if sErr := t.Send(out); sErr != nil {
			return frameworkErr("handshake.client.keyexchange", sErr)
		}
		in, err = t.Receive()
		if err != nil {
			return frameworkErr("handshake.client.keyexchange", err)
		}
		return c.KeyExchangeUnmarshal(in)
	}); err != nil {
		return err
	}
	log.Debug("key exchange complete")

	return timePhase("keyauthentication", func() error {
		out, err = c.KeyAuthenticationMarshal()
		if err != nil {
			return err
		}
		if sErr := t.Send(out); sErr != nil {
			return frameworkErr("handshake.client.keyauthentication", sErr)
		}
		in, err = t.Receive()
		if err != nil {
			return frameworkErr("handshake.client.keyauthentication", err)
		}
		return c.KeyAuthenticationUnmarshal(in)
	})
}

func (c *AuthContext) runServer(t Transport, log logger.Logger) error {
	var out, in []byte
	var err error

	if err = timePhase("keyexchange", func() error {
		in, err = t.Receive()
		if err != nil {
			return frameworkErr("handshake.server.keyexchange", err)
		}
		if uErr := c.KeyExchangeUnmarshal(in); uErr != nil {
			return uErr
		}
		out, err = c.KeyExchangeMarshal()
		if err != nil {
			return err
		}
		if sErr := t.Send(out); sErr != nil {
			return frameworkErr("handshake.server.keyexchange", sErr)
		}
		return nil
	}); err != nil {
		return err
	}
	log.Debug("key exchange complete")

	return timePhase("keyauthentication", func() error {
		in, err = t.Receive()
		if err != nil {
			return frameworkErr("handshake.server.keyauthentication", err)
		}
		if uErr := c.KeyAuthenticationUnmarshal(in); uErr != nil {
			return uErr
		}
		out, err = c.KeyAuthenticationMarshal()
		if err != nil {
			return err
		}
		if sErr := t.Send(out); sErr != nil {
			return frameworkErr("handshake.server.keyauthentication", sErr)
		}
		return nil
	})
}

func suiteName(suite uint32) string {
	switch suite {
	case SuiteECDHENull:
		return "ecdhe_null"
	case SuiteECDHEPSK:
		return "ecdhe_psk"
	case SuiteECDHEECDSA:
		return "ecdhe_ecdsa"
	default:
		return "unknown"
	}
}
