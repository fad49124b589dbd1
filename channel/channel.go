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

// Package channel implements the per-edge-router multiplexed transport: a
// single TLS stream carrying many logical connections' frames, demuxed
// by conn-id header, plus the send_for_reply correlation, keepalive
// latency probe, and reconnect-with-backoff behavior a context's channel
// fleet relies on.
package channel

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/nabbar/edge-sdk/frame"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// State is a channel's connection lifecycle stage.
type State uint8

const (
	StateInitial State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Dialer opens the underlying byte stream to an edge router. Production
// callers pass a function that dials TLS; tests pass an in-memory pipe.
type Dialer func(ctx context.Context, host string, port int) (io.ReadWriteCloser, error)

// Channel multiplexes one TLS connection to one edge router.
type Channel struct {
	Name string
	Host string
	Port int

	id    uint64
	token uuid.UUID

	dial Dialer

	mu    sync.Mutex
	conn  io.ReadWriteCloser
	state State

	latency        time.Duration
	latencyLimiter *rate.Limiter

	reconnectCount int
	backoff        Backoff

	writeMu sync.Mutex
	seq     uint32

	receiversMu sync.Mutex
	receivers   map[uint32]func(frame.Frame)

	waiters *waiterTable

	onStateChange func(State)
	onUnrouted    func(frame.Frame)

	probeInterval    time.Duration
	probeTimeout     time.Duration
	missedProbeLimit int
	connEpoch        uint64
}

const (
	defaultProbeInterval  = 15 * time.Second
	defaultProbeTimeout   = 5 * time.Second
	defaultMissedProbeCap = 2
)

// New builds a channel for the router at host:port, not yet connected.
func New(id uint64, name, host string, port int, dial Dialer) *Channel {
	return &Channel{
		id:             id,
		Name:           name,
		Host:           host,
		Port:           port,
		token:          uuid.New(),
		dial:           dial,
		state:          StateInitial,
		backoff:        DefaultBackoff(),
		latencyLimiter: rate.NewLimiter(rate.Every(10*time.Second), 1),
		receivers:      make(map[uint32]func(frame.Frame)),
		waiters:        newWaiterTable(),

		probeInterval:    defaultProbeInterval,
		probeTimeout:     defaultProbeTimeout,
		missedProbeLimit: defaultMissedProbeCap,
	}
}

func (c *Channel) Id() uint64      { return c.id }
func (c *Channel) Token() uuid.UUID { return c.token }

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) setState(s State) {
	c.mu.Lock()
	c.state = s
	cb := c.onStateChange
	c.mu.Unlock()
	if cb != nil {
		cb(s)
	}
}

// OnStateChange registers a callback invoked on every state transition.
func (c *Channel) OnStateChange(fn func(State)) {
	c.mu.Lock()
	c.onStateChange = fn
	c.mu.Unlock()
}

// OnUnrouted registers a callback for inbound frames that match neither a
// pending SendForReply waiter nor a registered connection receiver, such
// as a fresh DIAL addressed to a bound service.
func (c *Channel) OnUnrouted(fn func(frame.Frame)) {
	c.mu.Lock()
	c.onUnrouted = fn
	c.mu.Unlock()
}

// Latency returns the most recently measured round-trip latency.
func (c *Channel) Latency() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latency
}

func (c *Channel) ReconnectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnectCount
}

// Connect dials the router and performs the HELLO handshake. On success
// the channel is Connected; on failure it is Disconnected and the caller
// decides whether to retry (see Reconnect).
func (c *Channel) Connect(ctx context.Context) liberr.Error {
	c.setState(StateConnecting)

	conn, err := c.dial(ctx, c.Host, c.Port)
	if err != nil {
		c.setState(StateDisconnected)
		return ErrNotConnected.Error(err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	if e := frame.WriteFrame(conn, frame.Frame{Content: frame.ContentHello}); e != nil {
		c.setState(StateDisconnected)
		return e
	}

	reply, e := frame.ReadFrame(conn)
	if e != nil || reply.Content != frame.ContentHelloReply {
		c.setState(StateDisconnected)
		if e != nil {
			return e
		}
		return ErrNotConnected.Errorf("unexpected reply content %s", reply.Content)
	}

	c.mu.Lock()
	c.connEpoch++
	epoch := c.connEpoch
	c.reconnectCount = 0
	c.mu.Unlock()

	c.setState(StateConnected)
	go c.keepalive(epoch)
	return nil
}

// keepalive arms the latency probe once Connect completes the HELLO
// handshake. It exits as soon as epoch no longer names the channel's
// current connection attempt, which happens on Close or any later
// successful Connect/Reconnect.
func (c *Channel) keepalive(epoch uint64) {
	ticker := time.NewTicker(c.probeInterval)
	defer ticker.Stop()

	missed := 0
	for range ticker.C {
		c.mu.Lock()
		current := c.connEpoch
		st := c.state
		c.mu.Unlock()
		if current != epoch || st != StateConnected {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), c.probeTimeout)
		err := c.Probe(ctx, c.probeTimeout)
		cancel()

		if err != nil {
			missed++
			if missed >= c.missedProbeLimit {
				c.forceDisconnect(epoch)
				return
			}
			continue
		}
		missed = 0
	}
}

// forceDisconnect closes the underlying connection for epoch so that
// Serve's blocked read errors out and runs the single disconnect path.
// It never mutates state itself.
func (c *Channel) forceDisconnect(epoch uint64) {
	c.mu.Lock()
	if c.connEpoch != epoch {
		c.mu.Unlock()
		return
	}
	conn := c.conn
	c.mu.Unlock()

	if conn != nil {
		_ = conn.Close()
	}
}

// Reconnect retries Connect with exponential backoff, blocking until
// success or ctx is done.
func (c *Channel) Reconnect(ctx context.Context) liberr.Error {
	for {
		c.mu.Lock()
		c.reconnectCount++
		n := c.reconnectCount
		backoff := c.backoff
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ErrNotConnected.Error(ctx.Err())
		case <-time.After(backoff.Delay(n)):
		}

		if err := c.Connect(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ErrNotConnected.Error(ctx.Err())
		}
	}
}

// Serve runs the channel's read loop until Close is called, ctx ends, or
// Reconnect gives up. A read error on a channel that was not closed runs
// handleDisconnect and then Reconnect. Each decoded frame is demuxed:
// frames whose reply-for header matches a waiter resolve it, frames
// bearing a conn-id header go to their registered receiver, a PING is
// answered with PING_REPLY, an unmatched DIAL goes to the OnUnrouted
// callback, and everything else is dropped.
func (c *Channel) Serve(ctx context.Context) liberr.Error {
	for {
		c.mu.Lock()
		conn := c.conn
		epoch := c.connEpoch
		c.mu.Unlock()
		if conn == nil {
			return ErrNotConnected.Error()
		}

		f, err := frame.ReadFrame(conn)
		if err != nil {
			c.mu.Lock()
			closing := c.state == StateClosed
			c.mu.Unlock()
			if closing {
				return err
			}

			c.handleDisconnect(epoch)

			if rerr := c.Reconnect(ctx); rerr != nil {
				return rerr
			}
			continue
		}

		c.dispatch(f)

		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

// handleDisconnect transitions to Disconnected, fires every outstanding
// waiter, and delivers a synthetic closed-connection frame to every
// registered receiver, so a dropped transport looks like every
// multiplexed connection it carried saw a close.
func (c *Channel) handleDisconnect(epoch uint64) {
	c.mu.Lock()
	if c.connEpoch != epoch {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	c.setState(StateDisconnected)
	c.waiters.CloseAll()

	c.receiversMu.Lock()
	recvs := make([]func(frame.Frame), 0, len(c.receivers))
	for _, fn := range c.receivers {
		recvs = append(recvs, fn)
	}
	c.receiversMu.Unlock()

	closed := frame.Frame{Content: frame.ContentStateClosed}
	for _, fn := range recvs {
		fn(closed)
	}
}

func (c *Channel) dispatch(f frame.Frame) {
	if v, ok := f.Get(frame.HeaderReplyFor); ok && len(v) == 4 {
		replySeq := binary.LittleEndian.Uint32(v)
		if c.waiters.Resolve(replySeq, f) {
			return
		}
	}
	if v, ok := f.Get(frame.HeaderConnId); ok && len(v) == 4 {
		connId := binary.LittleEndian.Uint32(v)
		c.receiversMu.Lock()
		recv := c.receivers[connId]
		c.receiversMu.Unlock()
		if recv != nil {
			recv(f)
			return
		}
	}
	if f.Content == frame.ContentPing {
		_ = c.send(frame.ContentPingReply, nil, nil)
		return
	}
	if f.Content == frame.ContentDial {
		c.mu.Lock()
		cb := c.onUnrouted
		c.mu.Unlock()
		if cb != nil {
			cb(f)
		}
	}
}

// RegisterReceiver associates connId with a handler for every frame
// addressed to it until Unregister is called.
func (c *Channel) RegisterReceiver(connId uint32, fn func(frame.Frame)) {
	c.receiversMu.Lock()
	defer c.receiversMu.Unlock()
	c.receivers[connId] = fn
}

func (c *Channel) UnregisterReceiver(connId uint32) {
	c.receiversMu.Lock()
	defer c.receiversMu.Unlock()
	delete(c.receivers, connId)
}

// Send writes a framed message and returns its assigned sequence.
func (c *Channel) Send(content frame.Content, headers []frame.Header, body []byte) (uint32, liberr.Error) {
	return c.send(content, headers, body)
}

func (c *Channel) send(content frame.Content, headers []frame.Header, body []byte) (uint32, liberr.Error) {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return 0, ErrNotConnected.Error()
	}
	conn := c.conn
	c.mu.Unlock()

	c.writeMu.Lock()
	c.seq++
	seq := c.seq
	c.writeMu.Unlock()

	f := frame.Frame{Content: content, Seq: seq, Headers: headers, Body: body}
	if err := frame.WriteFrame(conn, f); err != nil {
		return 0, ErrSendFailed.Error(err)
	}
	return seq, nil
}

// SendForReply sends a frame and invokes cb exactly once: either with
// the inbound frame whose reply-for matches this send's sequence, or
// with ErrWaiterTimeout after timeout, or with ErrAlreadyClosed if the
// channel closes first.
func (c *Channel) SendForReply(content frame.Content, headers []frame.Header, body []byte, timeout time.Duration, cb func(frame.Frame, liberr.Error)) liberr.Error {
	seq, err := c.send(content, headers, body)
	if err != nil {
		return err
	}
	c.waiters.Register(seq, timeout, cb)
	return nil
}

// Probe sends a LATENCY frame and measures the round trip, rate-limited
// so a busy caller can't flood the router with probes. Callers should
// treat a returned ErrWaiterTimeout as a disconnect signal.
func (c *Channel) Probe(ctx context.Context, timeout time.Duration) liberr.Error {
	if !c.latencyLimiter.Allow() {
		return nil
	}

	start := time.Now()
	done := make(chan liberr.Error, 1)

	err := c.SendForReply(frame.ContentLatency, nil, nil, timeout, func(_ frame.Frame, e liberr.Error) {
		if e == nil {
			c.mu.Lock()
			c.latency = time.Since(start)
			c.mu.Unlock()
		}
		done <- e
	})
	if err != nil {
		return err
	}

	select {
	case e := <-done:
		return e
	case <-ctx.Done():
		return ErrWaiterTimeout.Error(ctx.Err())
	}
}

// Close closes the underlying connection, fires every outstanding
// waiter with ErrAlreadyClosed, and transitions to Closed. Close is
// idempotent.
func (c *Channel) Close() liberr.Error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	c.state = StateClosed
	cb := c.onStateChange
	c.mu.Unlock()

	if cb != nil {
		cb(StateClosed)
	}

	c.waiters.CloseAll()

	if conn != nil {
		_ = conn.Close()
	}
	return nil
}
