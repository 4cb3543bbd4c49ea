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

package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripScalarFields(t *testing.T) {
	w := NewWriter()
	w.PutByte(0x2a)
	w.PutRaw([]byte{1, 2, 3, 4})
	w.PutBytes([]byte("hint"))
	w.PutArray([][]byte{[]byte("a"), []byte("bb"), {}})

	r := NewReader(w.Bytes())
	b, err := r.GetByte()
	require.NoError(t, err)
	require.Equal(t, byte(0x2a), b)

	raw, err := r.GetRaw(4)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, raw)

	hint, err := r.GetBytes()
	require.NoError(t, err)
	require.Equal(t, "hint", string(hint))

	arr, err := r.GetArray()
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("a"), []byte("bb"), {}}, arr)

	require.NoError(t, r.ExpectDone())
}

func TestTruncatedReadsFail(t *testing.T) {
	w := NewWriter()
	w.PutBytes([]byte("abc"))
	full := w.Bytes()

	r := NewReader(full[:len(full)-1])
	_, err := r.GetBytes()
	require.Error(t, err)
}

func TestExpectDoneCatchesTrailingBytes(t *testing.T) {
	w := NewWriter()
	w.PutByte(1)
	w.PutByte(2)

	r := NewReader(w.Bytes())
	_, err := r.GetByte()
	require.NoError(t, err)
	require.Error(t, r.ExpectDone())
}
