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

package listener

import (
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// credentialClaims is the JWT envelope an application layer can use to
// hand a PSK hint and its expiration to a remote credential-issuance
// service, the way oidc/auth0.Agent wraps claims in a signed JWT rather
// than passing them as bare values. The handshake core itself never sees
// this envelope — it is resolved into a plain PSKSource.Lookup call
// before reaching PSKMarshal/PSKUnmarshal.
type credentialClaims struct {
	jwt.RegisteredClaims
	Hint string `json:"hint"`
}

// EncodeCredentialToken signs a JWT carrying hint (base64-encoded, since
// PSK hints are arbitrary bytes) and an expiration time, using HMAC-SHA256
// over signingKey.
func EncodeCredentialToken(hint []byte, expiration time.Time, signingKey []byte) (string, error) {
	claims := credentialClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Hint: base64.StdEncoding.EncodeToString(hint),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(signingKey)
	if err != nil {
		return "", fmt.Errorf("listener: sign credential token: %w", err)
	}
	return signed, nil
}

// DecodeCredentialToken verifies and decodes a token minted by
// EncodeCredentialToken, returning the hint bytes and its expiration as
// the AuthContext.Expiration-compatible uint32 the original's "never" /
// Unix-seconds encoding uses (AuthError-free here: the caller, not the
// handshake core, is responsible for a clean error path).
func DecodeCredentialToken(tokenString string, signingKey []byte) (hint []byte, expiration uint32, err error) {
	var claims credentialClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return signingKey, nil
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listener: parse credential token: %w", err)
	}
	if !token.Valid {
		return nil, 0, fmt.Errorf("listener: credential token is not valid")
	}

	hint, err = base64.StdEncoding.DecodeString(claims.Hint)
	if err != nil {
		return nil, 0, fmt.Errorf("listener: decode hint: %w", err)
	}
	if claims.ExpiresAt == nil {
		return hint, 0xFFFFFFFF, nil
	}
	return hint, uint32(claims.ExpiresAt.Unix()), nil
}
