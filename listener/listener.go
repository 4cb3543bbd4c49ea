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

// Package listener provides implementations of core/auth.AuthListener and
// core/auth.PasswordCallback: the two credential callback contracts the
// authentication core dispatches PSK lookups through (spec §4.5, §9 "two
// callback contracts must coexist").
package listener

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/vynaura/peerauth/core/auth"
)

// PSKSource resolves a PSK hint to its shared-secret value. The client
// side calls Hint for the hint it advertises and then Lookup with that
// hint; the server side calls Lookup with the hint the client sent.
type PSKSource interface {
	// Hint returns the hint this side should advertise (client only).
	Hint() []byte
	// Lookup returns the PSK value and expiration for hint.
	Lookup(hint []byte) (psk []byte, expiration uint32, err error)
}

// StaticPSK is the simplest PSKSource: one hint, one PSK value and one
// expiration, returned whatever hint is looked up.
type StaticPSK struct {
	HintValue  []byte
	Value      []byte
	Expiration uint32
}

func (s *StaticPSK) Hint() []byte { return s.HintValue }

func (s *StaticPSK) Lookup(hint []byte) ([]byte, uint32, error) {
	return s.Value, s.Expiration, nil
}

// InMemory implements auth.AuthListener (the v2 structured credential
// protocol) over a PSKSource, collapsing concurrent value requests for the
// same suite+hint into one PSKSource call with singleflight.Group, the same
// pattern the teacher's pkg/agent/handshake/server.go uses to collapse
// concurrent peer-resolution calls.
type InMemory struct {
	mu     sync.Mutex
	source PSKSource
	sf     singleflight.Group

	lastHint []byte
}

// NewInMemory returns an AuthListener backed by source.
func NewInMemory(source PSKSource) *InMemory {
	return &InMemory{source: source}
}

// Credential implements auth.AuthListener.
func (l *InMemory) Credential(suite uint32, cred *auth.Credential) error {
	switch {
	case cred.Direction == auth.CredentialRequest && cred.Field == auth.CredentialFieldHint:
		cred.Data = l.source.Hint()
		l.mu.Lock()
		l.lastHint = cred.Data
		l.mu.Unlock()
		return nil

	case cred.Direction == auth.CredentialResponse && cred.Field == auth.CredentialFieldHint:
		l.mu.Lock()
		l.lastHint = cred.Data
		l.mu.Unlock()
		return nil

	case cred.Direction == auth.CredentialRequest && cred.Field == auth.CredentialFieldValue:
		l.mu.Lock()
		hint := cred.Data
		if hint == nil {
			hint = l.lastHint
		}
		l.mu.Unlock()

		key := fmt.Sprintf("%#x:%x", suite, hint)
		v, err, _ := l.sf.Do(key, func() (any, error) {
			psk, exp, lookupErr := l.source.Lookup(hint)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return credentialResult{psk: psk, expiration: exp}, nil
		})
		if err != nil {
			return err
		}
		result := v.(credentialResult)
		cred.Data = result.psk
		cred.Expiration = result.expiration
		return nil

	default:
		return fmt.Errorf("listener: unsupported credential request (direction=%d field=%d)", cred.Direction, cred.Field)
	}
}

type credentialResult struct {
	psk        []byte
	expiration uint32
}

// LegacyCallback adapts a PSKSource to the v1 auth.PasswordCallback
// contract: a single call returning the PSK bytes, with no hint
// negotiation and expiration fixed to "never" by the core itself.
func LegacyCallback(source PSKSource) auth.PasswordCallback {
	return func(buf []byte) (int, error) {
		psk, _, err := source.Lookup(nil)
		if err != nil {
			return 0, err
		}
		if len(psk) > len(buf) {
			return 0, fmt.Errorf("listener: psk value (%d bytes) exceeds legacy buffer (%d bytes)", len(psk), len(buf))
		}
		return copy(buf, psk), nil
	}
}

var _ auth.AuthListener = (*InMemory)(nil)
