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

// Package wire is a minimal stand-in for the surrounding message
// framework's argument codec. The handshake core only ever needs to
// marshal a handful of argument shapes (a raw byte string, a
// byte-plus-byte-string struct, an array of byte strings, a struct of two
// byte strings, and the nested variant/struct ECDSA proof) so this package
// implements exactly those, as a simple length-prefixed byte encoding,
// rather than a general signature-string codec.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Writer accumulates marshaled argument bytes in call order.
type Writer struct {
	buf bytes.Buffer
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// PutByte appends a single byte with no framing.
func (w *Writer) PutByte(b byte) { w.buf.WriteByte(b) }

// PutRaw appends b with no length prefix; used for fields whose length is
// already fixed and known to both sides (e.g. a 32-byte field element).
func (w *Writer) PutRaw(b []byte) { w.buf.Write(b) }

// PutBytes appends a 4-byte big-endian length prefix followed by b.
func (w *Writer) PutBytes(b []byte) {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
	w.buf.Write(lenBuf[:])
	w.buf.Write(b)
}

// PutArray writes count as a 4-byte prefix followed by each element via
// PutBytes, modelling an "array of byte-array" argument.
func (w *Writer) PutArray(elems [][]byte) {
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(elems)))
	w.buf.Write(countBuf[:])
	for _, e := range elems {
		w.PutBytes(e)
	}
}

// Bytes returns the accumulated wire bytes.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

// Reader parses bytes produced by Writer, enforcing exact consumption.
type Reader struct {
	b   []byte
	off int
}

// NewReader wraps b for sequential reads.
func NewReader(b []byte) *Reader { return &Reader{b: b} }

// GetByte reads one byte.
func (r *Reader) GetByte() (byte, error) {
	if r.off >= len(r.b) {
		return 0, io.ErrUnexpectedEOF
	}
	v := r.b[r.off]
	r.off++
	return v, nil
}

// GetRaw reads exactly n unframed bytes.
func (r *Reader) GetRaw(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.b) {
		return nil, io.ErrUnexpectedEOF
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v, nil
}

// GetBytes reads a 4-byte big-endian length prefix followed by that many
// bytes.
func (r *Reader) GetBytes() ([]byte, error) {
	if r.off+4 > len(r.b) {
		return nil, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(r.b[r.off : r.off+4])
	r.off += 4
	return r.GetRaw(int(n))
}

// GetArray reads a count-prefixed array of length-prefixed byte strings.
func (r *Reader) GetArray() ([][]byte, error) {
	if r.off+4 > len(r.b) {
		return nil, io.ErrUnexpectedEOF
	}
	n := binary.BigEndian.Uint32(r.b[r.off : r.off+4])
	r.off += 4
	out := make([][]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		elem, err := r.GetBytes()
		if err != nil {
			return nil, err
		}
		out = append(out, elem)
	}
	return out, nil
}

// Remaining reports how many bytes have not yet been consumed.
func (r *Reader) Remaining() int { return len(r.b) - r.off }

// Done reports whether every byte has been consumed.
func (r *Reader) Done() bool { return r.off >= len(r.b) }

// ExpectDone returns an error if the reader has unconsumed trailing bytes.
func (r *Reader) ExpectDone() error {
	if !r.Done() {
		return fmt.Errorf("wire: %d trailing byte(s)", r.Remaining())
	}
	return nil
}
