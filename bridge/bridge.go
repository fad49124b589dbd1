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

// Package bridge couples a logical connection's encrypted byte stream to an
// external io.ReadWriteCloser (a local socket, pipe, or fd pair), pumping
// plaintext in both directions and propagating half-close in each.
package bridge

import (
	"io"
	"sync"

	"github.com/nabbar/edge-sdk/conn"
	"github.com/nabbar/edge-sdk/frame"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// Sender ships one outbound ciphertext payload over the edge-router
// channel, fin marking the final frame of a half-close.
type Sender func(payload []byte, fin bool) liberr.Error

type halfCloser interface {
	CloseWrite() error
}

// Bridge owns the pooled buffers used to pump one logical connection's
// traffic and guarantees they return to the pool on every exit path.
type Bridge struct {
	conn *conn.Connection
	ext  io.ReadWriteCloser
	pool *frame.Pool
	send Sender

	mu     sync.Mutex
	closed bool
}

// New couples conn to ext. pool supplies the read buffers used while
// pumping ext -> conn; it is sized independently from any channel frame
// pool so one slow bridge cannot starve frame I/O.
func New(c *conn.Connection, ext io.ReadWriteCloser, pool *frame.Pool, send Sender) *Bridge {
	return &Bridge{conn: c, ext: ext, pool: pool, send: send}
}

// PumpOut reads ext until EOF or error, encrypting and shipping each chunk
// over send. On ext EOF it marks the fin-sent half-close and ships an
// empty fin frame, then returns nil. It never leaks a pool cell: every
// branch that returns also releases the cell it checked out.
func (b *Bridge) PumpOut() liberr.Error {
	for {
		cell, idx, err := b.pool.Get()
		if err != nil {
			return err
		}

		n, rerr := b.ext.Read(cell)
		if n > 0 {
			ct, eerr := b.conn.EncryptOutbound(cell[:n])
			if eerr != nil {
				b.pool.Put(idx)
				return eerr
			}
			if serr := b.send(ct, false); serr != nil {
				b.pool.Put(idx)
				return serr
			}
		}
		b.pool.Put(idx)

		if rerr == io.EOF {
			b.conn.SetFinSent()
			return b.send(nil, true)
		}
		if rerr != nil {
			return ErrReadExternal.Error(rerr)
		}
	}
}

// Deliver decrypts one inbound ciphertext payload and writes the plaintext
// to ext. When fin is set it marks the fin-received half-close and, if ext
// supports it, shuts down its write side.
func (b *Bridge) Deliver(ciphertext []byte, fin bool) liberr.Error {
	if len(ciphertext) > 0 {
		pt, err := b.conn.DecryptInbound(ciphertext)
		if err != nil {
			return err
		}
		if _, werr := b.ext.Write(pt); werr != nil {
			return ErrWriteExternal.Error(werr)
		}
	}

	if fin {
		b.conn.SetFinRecv()
		if hc, ok := b.ext.(halfCloser); ok {
			_ = hc.CloseWrite()
		}
	}
	return nil
}

// Close closes the external stream. Idempotent.
func (b *Bridge) Close() liberr.Error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if err := b.ext.Close(); err != nil {
		return ErrWriteExternal.Error(err)
	}
	return nil
}
