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

package conn

import (
	"sync"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// Connection is one logical, context-unique connection multiplexed over
// an edge-router channel.
type Connection struct {
	mu sync.Mutex

	id          uint32
	service     string
	sourceIdent string

	state State

	finSent bool
	finRecv bool

	outboundSeq   uint32
	dialReqSeq    uint32
	writeInFlight int

	encrypted bool
	keys      EphemeralKeyPair
	peerKeys  [32]byte
	hs        *Handshake

	inbound [][]byte
}

// New builds a connection in its Initial state.
func New(id uint32, service string) *Connection {
	return &Connection{id: id, service: service, state: StateInitial}
}

func (c *Connection) Id() uint32 { return c.id }

func (c *Connection) Service() string { return c.service }

func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// transition moves the connection to next, failing if the table in
// state.go doesn't allow it from the current state.
func (c *Connection) transition(next State) liberr.Error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == next {
		return nil
	}
	if allowed, ok := transitions[c.state]; !ok || !allowed[next] {
		return ErrInvalidState.Errorf("%s -> %s", c.state, next)
	}
	c.state = next
	return nil
}

func (c *Connection) Connecting() liberr.Error   { return c.transition(StateConnecting) }
func (c *Connection) Connected() liberr.Error    { return c.transition(StateConnected) }
func (c *Connection) Binding() liberr.Error      { return c.transition(StateBinding) }
func (c *Connection) Bound() liberr.Error        { return c.transition(StateBound) }
func (c *Connection) Accepting() liberr.Error    { return c.transition(StateAccepting) }
func (c *Connection) Timedout() liberr.Error     { return c.transition(StateTimedout) }
func (c *Connection) Disconnected() liberr.Error { return c.transition(StateDisconnected) }

// CloseWrite records the local half-close. If the peer's fin already
// moved the connection to Disconnected, both directions are done and
// CloseWrite closes the connection instead (subject to Close's
// in-flight write check).
func (c *Connection) CloseWrite() liberr.Error {
	c.mu.Lock()
	st, finRecv := c.state, c.finRecv
	c.mu.Unlock()

	if st == StateDisconnected && finRecv {
		return c.Close()
	}
	return c.transition(StateCloseWrite)
}

// BeginEncryption records this connection's ephemeral keypair, generated
// before the Connect/Bind frame carrying its public key is sent.
func (c *Connection) BeginEncryption(kp EphemeralKeyPair) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.encrypted = true
	c.keys = kp
}

// CompleteEncryption finishes the secret-stream handshake once the
// peer's public key has arrived, deriving the (rx, tx) keys.
func (c *Connection) CompleteEncryption(peerPub [32]byte, dialer bool) liberr.Error {
	c.mu.Lock()
	kp := c.keys
	c.mu.Unlock()

	hs, err := CompleteHandshake(kp, peerPub, dialer)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.peerKeys = peerPub
	c.hs = hs
	c.mu.Unlock()
	return nil
}

// Encrypted reports whether this connection negotiated a secret stream.
func (c *Connection) Encrypted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.encrypted
}

// EncryptOutbound encrypts plaintext for transmission. It is an error to
// call this before CompleteEncryption finished.
func (c *Connection) EncryptOutbound(plaintext []byte) ([]byte, liberr.Error) {
	c.mu.Lock()
	hs := c.hs
	c.mu.Unlock()

	if hs == nil {
		return nil, ErrHandshakeIncomplete.Error()
	}
	return hs.Encrypt(plaintext), nil
}

// DecryptInbound decrypts a received ciphertext frame. A decryption
// failure is fatal to the connection: it is moved to Closed before the
// ErrCryptoFailure error is returned.
func (c *Connection) DecryptInbound(ciphertext []byte) ([]byte, liberr.Error) {
	c.mu.Lock()
	hs := c.hs
	c.mu.Unlock()

	if hs == nil {
		return nil, ErrHandshakeIncomplete.Error()
	}
	pt, err := hs.Decrypt(ciphertext)
	if err != nil {
		_ = c.transition(StateClosed)
		return nil, err
	}
	return pt, nil
}

// NextOutboundSeq returns the next edge-sequence for an outbound DATA
// frame, advancing the counter.
func (c *Connection) NextOutboundSeq() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outboundSeq++
	return c.outboundSeq
}

// BeginWrite increments the in-flight write counter; the connection
// cannot transition to Closed while any write is outstanding.
func (c *Connection) BeginWrite() liberr.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed || c.state == StateDisconnected {
		return ErrWriteAfterClose.Error()
	}
	c.writeInFlight++
	return nil
}

// EndWrite decrements the in-flight write counter, regardless of whether
// the write succeeded or failed — both outcomes retire the write.
func (c *Connection) EndWrite() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeInFlight > 0 {
		c.writeInFlight--
	}
}

func (c *Connection) WritesInFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writeInFlight
}

// SetFinSent/SetFinRecv record half-close. CloseWrite is entered the
// first time either the local side sends fin or the state machine is
// otherwise told writes are done; Close only succeeds once both the
// application requested it and any in-flight writes have drained.
func (c *Connection) SetFinSent() {
	c.mu.Lock()
	c.finSent = true
	st := c.state
	c.mu.Unlock()

	if st == StateConnected {
		_ = c.transition(StateCloseWrite)
	}
}

// SetFinRecv records the peer's half-close and drives the state machine:
// a FIN received while still Connected or already CloseWrite (our own
// half-close already sent) both resolve to Disconnected. Any other
// current state (e.g. Closed) leaves finRecv recorded with no transition.
func (c *Connection) SetFinRecv() {
	c.mu.Lock()
	c.finRecv = true
	st := c.state
	c.mu.Unlock()

	if st == StateConnected || st == StateCloseWrite {
		_ = c.transition(StateDisconnected)
	}
}

func (c *Connection) FinSent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finSent
}

func (c *Connection) FinRecv() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finRecv
}

// Close transitions to Closed, refusing to do so while writes are still
// in flight. Close is idempotent.
func (c *Connection) Close() liberr.Error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	if c.writeInFlight > 0 {
		c.mu.Unlock()
		return ErrInvalidState.Errorf("close with %d writes in flight", c.writeInFlight)
	}
	c.mu.Unlock()

	return c.transition(StateClosed)
}

// ForceClose closes the connection unconditionally, discarding any
// in-flight write accounting — used on fatal I/O or decryption errors
// where no further acknowledgement will ever arrive.
func (c *Connection) ForceClose() {
	c.mu.Lock()
	c.state = StateClosed
	c.writeInFlight = 0
	c.mu.Unlock()
}
