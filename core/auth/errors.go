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
	"errors"
	"fmt"
)

// ErrorKind classifies an AuthError the way the handshake's error taxonomy
// requires: callers branch on kind, never on the wrapped message text.
type ErrorKind int

const (
	// ErrSecurity covers any failure that must abort the handshake and
	// discard all derived key material: malformed wire data, a verifier
	// mismatch, an untrusted certificate chain, a disabled suite.
	ErrSecurity ErrorKind = iota
	// ErrResources covers allocation/capacity failures that are not
	// attacker-controlled, e.g. a legacy PSK callback overflowing its
	// fixed-size buffer.
	ErrResources
	// ErrKeystore covers failures reaching the signing key, certificate
	// chain or CA registry. It is re-labelled ErrSecurity by Kind() once
	// it crosses the package boundary, per the error-handling design.
	ErrKeystore
	// ErrFramework covers failures in the surrounding message framework
	// (malformed argument encoding) rather than in the authentication
	// semantics themselves.
	ErrFramework
)

func (k ErrorKind) String() string {
	switch k {
	case ErrSecurity:
		return "security"
	case ErrResources:
		return "resources"
	case ErrKeystore:
		return "keystore"
	case ErrFramework:
		return "framework"
	default:
		return "unknown"
	}
}

// AuthError is the error type every exported auth operation returns.
type AuthError struct {
	kind ErrorKind
	op   string
	err  error
}

func (e *AuthError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("auth: %s: %s", e.op, e.kind)
	}
	return fmt.Sprintf("auth: %s: %s: %v", e.op, e.kind, e.err)
}

func (e *AuthError) Unwrap() error { return e.err }

// Kind reports the error's taxonomy kind. Keystore failures are reported
// as ErrSecurity here: the distinction between "my keystore is broken"
// and "the peer sent garbage" never needs to leak past this boundary.
func (e *AuthError) Kind() ErrorKind {
	if e.kind == ErrKeystore {
		return ErrSecurity
	}
	return e.kind
}

func newErr(kind ErrorKind, op string, err error) *AuthError {
	return &AuthError{kind: kind, op: op, err: err}
}

func securityErrf(op, format string, args ...any) *AuthError {
	return newErr(ErrSecurity, op, fmt.Errorf(format, args...))
}

func resourcesErrf(op, format string, args ...any) *AuthError {
	return newErr(ErrResources, op, fmt.Errorf(format, args...))
}

func keystoreErr(op string, err error) *AuthError {
	return newErr(ErrKeystore, op, err)
}

func frameworkErr(op string, err error) *AuthError {
	return newErr(ErrFramework, op, err)
}

// IsSecurity reports whether err is an AuthError whose Kind is ErrSecurity
// (which, per Kind's contract, also covers keystore failures).
func IsSecurity(err error) bool {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind() == ErrSecurity
	}
	return false
}

func errUnknownKeyExchange(suite uint32) error {
	return fmt.Errorf("unknown key-exchange family in suite %#x", suite)
}

func errUnknownSuite(suite uint32) error {
	return fmt.Errorf("unknown key-authentication suite %#x", suite)
}
