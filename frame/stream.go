/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package frame

import (
	"encoding/binary"
	"io"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// ReadFrame reads exactly one frame from r: the fixed prefix first, then
// the header-block-plus-body it declares. Reassembly across short reads
// is io.ReadFull's job; a frame split across TCP segments is invisible
// to the caller.
func ReadFrame(r io.Reader) (Frame, liberr.Error) {
	prefix := make([]byte, headerPrefixLen)
	if _, err := io.ReadFull(r, prefix); err != nil {
		return Frame{}, ErrTruncated.Error(err)
	}
	if string(prefix[0:4]) != string(Magic[:]) {
		return Frame{}, ErrBadMagic.Error()
	}

	bodyLen := binary.LittleEndian.Uint32(prefix[8:12])
	hdrsLen := binary.LittleEndian.Uint32(prefix[12:16])

	rest := make([]byte, int(hdrsLen)+int(bodyLen))
	if len(rest) > 0 {
		if _, err := io.ReadFull(r, rest); err != nil {
			return Frame{}, ErrTruncated.Error(err)
		}
	}

	full := make([]byte, len(prefix)+len(rest))
	copy(full, prefix)
	copy(full[len(prefix):], rest)

	return Decode(full)
}

// WriteFrame encodes f and writes it to w in a single call.
func WriteFrame(w io.Writer, f Frame) liberr.Error {
	buf := make([]byte, f.EncodedLen())
	if _, err := Encode(f, buf); err != nil {
		return err
	}
	if _, e := w.Write(buf); e != nil {
		return ErrTruncated.Error(e)
	}
	return nil
}
