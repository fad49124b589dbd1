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

	liberr "github.com/nabbar/edge-sdk/errors"
)

// Magic identifies the start of an edge frame on the wire.
var Magic = [4]byte{'e', 'd', 'g', 'e'}

// MaxMTU bounds a single frame's total encoded size; the buffer pool's
// cells are sized to this.
const MaxMTU = 32 * 1024

const headerPrefixLen = 4 + 4 + 4 + 4 + 4 // magic + content + body_len + hdrs_len + seq
const tlvPrefixLen = 4 + 4                // type + len

// Header is one TLV entry in a frame's header block.
type Header struct {
	Type  HeaderType
	Value []byte
}

// Frame is a decoded edge wire message.
type Frame struct {
	Content Content
	Seq     uint32
	Headers []Header
	Body    []byte
}

// Uint32Header encodes v as a little-endian 4-byte header value, the
// shape every conn-id, reply-for, and seq header carries.
func Uint32Header(t HeaderType, v uint32) Header {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return Header{Type: t, Value: b}
}

// Get returns the first header of the given type, if present.
func (f Frame) Get(t HeaderType) ([]byte, bool) {
	for _, h := range f.Headers {
		if h.Type == t {
			return h.Value, true
		}
	}
	return nil, false
}

// EncodedLen returns the exact number of bytes Encode will produce for f.
func (f Frame) EncodedLen() int {
	n := headerPrefixLen
	for _, h := range f.Headers {
		n += tlvPrefixLen + len(h.Value)
	}
	n += len(f.Body)
	return n
}

// Encode writes f into dst, which must be at least f.EncodedLen() bytes,
// and returns the number of bytes written. Encode performs no allocation.
func Encode(f Frame, dst []byte) (int, liberr.Error) {
	total := f.EncodedLen()
	if total > MaxMTU {
		return 0, ErrTooLarge.Error()
	}
	if len(dst) < total {
		return 0, ErrTooLarge.Error()
	}

	hdrBlock := total - headerPrefixLen - len(f.Body)

	copy(dst[0:4], Magic[:])
	binary.LittleEndian.PutUint32(dst[4:8], uint32(f.Content))
	binary.LittleEndian.PutUint32(dst[8:12], uint32(len(f.Body)))
	binary.LittleEndian.PutUint32(dst[12:16], uint32(hdrBlock))
	binary.LittleEndian.PutUint32(dst[16:20], f.Seq)

	off := headerPrefixLen
	for _, h := range f.Headers {
		binary.LittleEndian.PutUint32(dst[off:off+4], uint32(h.Type))
		binary.LittleEndian.PutUint32(dst[off+4:off+8], uint32(len(h.Value)))
		off += tlvPrefixLen
		copy(dst[off:off+len(h.Value)], h.Value)
		off += len(h.Value)
	}
	copy(dst[off:off+len(f.Body)], f.Body)

	return total, nil
}

// Decode parses one complete frame from src. src must hold exactly one
// frame's worth of bytes (the caller is responsible for reassembling a
// byte stream into frame-sized chunks before calling Decode); partial
// input returns ErrTruncated.
func Decode(src []byte) (Frame, liberr.Error) {
	if len(src) < headerPrefixLen {
		return Frame{}, ErrTruncated.Error()
	}
	if string(src[0:4]) != string(Magic[:]) {
		return Frame{}, ErrBadMagic.Error()
	}

	content := Content(binary.LittleEndian.Uint32(src[4:8]))
	bodyLen := binary.LittleEndian.Uint32(src[8:12])
	hdrsLen := binary.LittleEndian.Uint32(src[12:16])
	seq := binary.LittleEndian.Uint32(src[16:20])

	need := headerPrefixLen + int(hdrsLen) + int(bodyLen)
	if len(src) < need {
		return Frame{}, ErrTruncated.Error()
	}

	hdrs, err := decodeHeaders(src[headerPrefixLen : headerPrefixLen+int(hdrsLen)])
	if err != nil {
		return Frame{}, err
	}

	bodyStart := headerPrefixLen + int(hdrsLen)
	body := src[bodyStart : bodyStart+int(bodyLen)]

	return Frame{Content: content, Seq: seq, Headers: hdrs, Body: body}, nil
}

func decodeHeaders(block []byte) ([]Header, liberr.Error) {
	var hdrs []Header
	off := 0
	for off < len(block) {
		if off+tlvPrefixLen > len(block) {
			return nil, ErrTruncated.Error()
		}
		t := HeaderType(binary.LittleEndian.Uint32(block[off : off+4]))
		l := binary.LittleEndian.Uint32(block[off+4 : off+8])
		off += tlvPrefixLen
		if off+int(l) > len(block) {
			return nil, ErrTruncated.Error()
		}
		hdrs = append(hdrs, Header{Type: t, Value: block[off : off+int(l)]})
		off += int(l)
	}
	return hdrs, nil
}
