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
	"crypto/sha256"
	"hash"
)

// transcript incrementally hashes every handshake byte both roles agree to
// feed it, in identical order, over the life of an AuthContext. snapshot
// reads the running digest without disturbing it, mirroring the original
// AJ_SHA256_GetDigest(..., keepAlive=1) semantics: hash.Hash.Sum(nil)
// returns the digest of everything written so far without resetting state,
// which is exactly the "peek without advancing" operation verifiers need.
type transcript struct {
	h hash.Hash
}

func newTranscript() *transcript {
	return &transcript{h: sha256.New()}
}

// update feeds one or more byte slices into the running hash, in order.
func (t *transcript) update(chunks ...[]byte) {
	for _, c := range chunks {
		if len(c) == 0 {
			continue
		}
		t.h.Write(c)
	}
}

// snapshot returns the digest of every byte fed so far without advancing
// the running hash state.
func (t *transcript) snapshot() [32]byte {
	var out [32]byte
	copy(out[:], t.h.Sum(nil))
	return out
}
