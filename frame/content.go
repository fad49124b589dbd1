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

// Package frame implements the edge wire protocol: a fixed binary frame
// layout, TLV headers, content codes, and a fixed-capacity buffer pool.
// Encode writes into a caller-supplied buffer; ReadFrame and WriteFrame
// allocate a fresh buffer for every frame and do not draw on the pool.
package frame

// Content is the frame's content code, identifying what the channel or
// connection layer should do with it.
type Content uint32

const (
	ContentHello Content = iota + 1
	ContentHelloReply
	ContentPing
	ContentPingReply
	ContentConnect
	ContentStateConnected
	ContentDial
	ContentDialSuccess
	ContentDialFailed
	ContentBind
	ContentUnbind
	ContentStateClosed
	ContentData
	ContentLatency
	ContentLatencyResponse
)

func (c Content) String() string {
	switch c {
	case ContentHello:
		return "HELLO"
	case ContentHelloReply:
		return "HELLO_REPLY"
	case ContentPing:
		return "PING"
	case ContentPingReply:
		return "PING_REPLY"
	case ContentConnect:
		return "CONNECT"
	case ContentStateConnected:
		return "STATE_CONNECTED"
	case ContentDial:
		return "DIAL"
	case ContentDialSuccess:
		return "DIAL_SUCCESS"
	case ContentDialFailed:
		return "DIAL_FAILED"
	case ContentBind:
		return "BIND"
	case ContentUnbind:
		return "UNBIND"
	case ContentStateClosed:
		return "STATE_CLOSED"
	case ContentData:
		return "DATA"
	case ContentLatency:
		return "LATENCY"
	case ContentLatencyResponse:
		return "LATENCY_RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// HeaderType identifies a recognized TLV header.
type HeaderType uint32

const (
	HeaderConnId HeaderType = iota + 1
	HeaderReplyFor
	HeaderSeq
	HeaderFin
	HeaderPubKey
	HeaderRouterInfo
	HeaderCallerId
)
