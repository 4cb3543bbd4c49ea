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

// KeyExchangeMarshal dispatches key-exchange marshaling on the suite's
// key-exchange family. Only ECDHE is defined; any other family is a
// framework-level misconfiguration, not something a peer can trigger over
// the wire.
func (c *AuthContext) KeyExchangeMarshal() ([]byte, error) {
	switch c.Suite & suiteFamilyECDHE {
	case suiteFamilyECDHE:
		return c.ECDHEMarshal()
	default:
		return nil, frameworkErr("keyexchange.marshal", errUnknownKeyExchange(c.Suite))
	}
}

// KeyExchangeUnmarshal is the receive-side counterpart of
// KeyExchangeMarshal.
func (c *AuthContext) KeyExchangeUnmarshal(data []byte) error {
	switch c.Suite & suiteFamilyECDHE {
	case suiteFamilyECDHE:
		return c.ECDHEUnmarshal(data)
	default:
		return frameworkErr("keyexchange.unmarshal", errUnknownKeyExchange(c.Suite))
	}
}

// KeyAuthenticationMarshal dispatches key-authentication marshaling on the
// full suite identifier, after confirming the suite is enabled on the bus
// for this context's negotiated version.
func (c *AuthContext) KeyAuthenticationMarshal() ([]byte, error) {
	if !c.Bus.IsSuiteEnabled(c.Suite, c.Version) {
		return nil, securityErrf("keyauthentication.marshal", "suite %#x not enabled for version %#x", c.Suite, c.Version)
	}
	switch c.Suite {
	case SuiteECDHENull:
		return c.NULLMarshal()
	case SuiteECDHEPSK:
		return c.PSKMarshal()
	case SuiteECDHEECDSA:
		return c.ECDSAMarshal()
	default:
		return nil, frameworkErr("keyauthentication.marshal", errUnknownSuite(c.Suite))
	}
}

// KeyAuthenticationUnmarshal is the receive-side counterpart of
// KeyAuthenticationMarshal.
func (c *AuthContext) KeyAuthenticationUnmarshal(data []byte) error {
	if !c.Bus.IsSuiteEnabled(c.Suite, c.Version) {
		return securityErrf("keyauthentication.unmarshal", "suite %#x not enabled for version %#x", c.Suite, c.Version)
	}
	switch c.Suite {
	case SuiteECDHENull:
		return c.NULLUnmarshal(data)
	case SuiteECDHEPSK:
		return c.PSKUnmarshal(data)
	case SuiteECDHEECDSA:
		return c.ECDSAUnmarshal(data)
	default:
		return frameworkErr("keyauthentication.unmarshal", errUnknownSuite(c.Suite))
	}
}
