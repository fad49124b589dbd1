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

package edge

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"io"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/nabbar/edge-sdk/bridge"
	"github.com/nabbar/edge-sdk/channel"
	"github.com/nabbar/edge-sdk/conn"
	"github.com/nabbar/edge-sdk/frame"
	"github.com/nabbar/edge-sdk/model"

	liberr "github.com/nabbar/edge-sdk/errors"
)

const sendForReplyTimeout = 10 * time.Second

// Conn is the byte stream handed back by Dial and Accept: a plain
// io.ReadWriteCloser whose bytes are end-to-end encrypted between this
// process and the far edge router's peer, independent of any transport
// TLS in between.
type Conn struct {
	ctx    *Context
	cn     *conn.Connection
	ch     *channel.Channel
	br     *bridge.Bridge
	local  io.ReadWriteCloser
	closed bool
}

func (c *Conn) Read(p []byte) (int, error)  { return c.local.Read(p) }
func (c *Conn) Write(p []byte) (int, error) { return c.local.Write(p) }

// Close tears down the logical connection: it unregisters the frame
// receiver, closes the bridge (releasing its pooled buffers), and
// transitions the underlying connection to Closed.
func (c *Conn) Close() error {
	c.ctx.mu.Lock()
	if c.closed {
		c.ctx.mu.Unlock()
		return nil
	}
	c.closed = true
	delete(c.ctx.conns, c.cn.Id())
	c.ctx.mu.Unlock()

	if c.ctx.met != nil {
		c.ctx.met.DecConnections(c.cn.Service())
	}

	c.ch.UnregisterReceiver(c.cn.Id())
	_ = c.br.Close()
	_ = c.local.Close()
	return c.cn.Close()
}

// CloseWrite half-closes the outbound direction: it flushes a final
// empty DATA frame carrying the fin header and marks no further bytes
// will be sent from this side.
func (c *Conn) CloseWrite() error {
	c.cn.SetFinSent()
	if cerr := c.cn.CloseWrite(); cerr != nil {
		return cerr
	}
	_, err := c.ch.Send(frame.ContentData,
		[]frame.Header{
			frame.Uint32Header(frame.HeaderConnId, c.cn.Id()),
			{Type: frame.HeaderFin, Value: []byte{1}},
		}, nil)
	if err != nil {
		return err
	}
	return nil
}

func parseRouterAddr(raw string) (host string, port int, lerr liberr.Error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, ErrNoRouterAvailable.Errorf("%s", err)
	}
	host = u.Hostname()
	p := u.Port()
	if p == "" {
		return "", 0, ErrNoRouterAvailable.Errorf("router address %q has no port", raw)
	}
	port, err = strconv.Atoi(p)
	if err != nil {
		return "", 0, ErrNoRouterAvailable.Errorf("%s", err)
	}
	return host, port, nil
}

// channelFor returns a connected channel to one of session's edge
// routers advertising the tls protocol, reusing a cached channel when
// one is already connected to that router.
func (c *Context) channelFor(ctx context.Context, session model.NetworkSession) (*channel.Channel, liberr.Error) {
	router, ok := session.RouterFor("tls")
	if !ok {
		return nil, ErrNoRouterAvailable.Error()
	}
	addr, _ := router.URLFor("tls")
	host, port, err := parseRouterAddr(addr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	ch, exists := c.channels[router.Name]
	var once *sync.Once
	if !exists {
		c.nextConnID++
		ch = channel.New(uint64(c.nextConnID), router.Name, host, port, c.dialer())
		c.channels[router.Name] = ch
		once = &sync.Once{}
		c.chConnect[ch] = once
	} else {
		once = c.chConnect[ch]
	}
	c.mu.Unlock()

	var connErr liberr.Error
	once.Do(func() {
		if cerr := ch.Connect(ctx); cerr != nil {
			connErr = cerr
			return
		}
		go func() { _ = ch.Serve(context.Background()) }()
	})
	if connErr != nil {
		return nil, connErr
	}
	if ch.State() != channel.StateConnected {
		return nil, ErrNoRouterAvailable.Errorf("router %s is not connected", router.Name)
	}
	return ch, nil
}

func (c *Context) dialer() channel.Dialer {
	if c.opts.Dial != nil {
		return c.opts.Dial
	}
	tlsCfg, _ := c.cfg.TLSConfig()
	return func(ctx context.Context, host string, port int) (io.ReadWriteCloser, error) {
		d := tls.Dialer{Config: tlsCfg}
		return d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	}
}

func (c *Context) nextID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextConnID++
	return c.nextConnID
}

// Dial opens an encrypted byte stream to service through whichever edge
// router its network session advertises. Concurrent dials for the same
// service collapse onto a single controller round trip via the session
// minter.
func (c *Context) Dial(ctx context.Context, service string) (*Conn, liberr.Error) {
	c.mu.RLock()
	enabled := c.enabled
	c.mu.RUnlock()
	if !enabled {
		return nil, ErrNotEnabled.Error()
	}

	svc, ok := c.serviceByName(service)
	if !ok {
		return nil, ErrServiceNotFound.Error()
	}
	if !svc.Available(true) {
		return nil, ErrServiceNotFound.Error()
	}

	session, err := c.minter.Mint(ctx, svc.Id, "Dial")
	if err != nil {
		return nil, err
	}

	ch, err := c.channelFor(ctx, session)
	if err != nil {
		return nil, err
	}

	kp, err := conn.NewEphemeralKeyPair()
	if err != nil {
		return nil, err
	}

	id := c.nextID()
	cn := conn.New(id, service)
	cn.BeginEncryption(kp)

	replyCh := make(chan frame.Frame, 1)
	errCh := make(chan liberr.Error, 1)

	headers := []frame.Header{
		frame.Uint32Header(frame.HeaderConnId, id),
		{Type: frame.HeaderPubKey, Value: kp.Public[:]},
		{Type: frame.HeaderCallerId, Value: []byte(session.Token)},
	}

	sendErr := ch.SendForReply(frame.ContentDial, headers, []byte(session.Token), sendForReplyTimeout,
		func(f frame.Frame, cberr liberr.Error) {
			if cberr != nil {
				errCh <- cberr
				return
			}
			replyCh <- f
		})
	if sendErr != nil {
		return nil, sendErr
	}
	if cerr := cn.Connecting(); cerr != nil {
		return nil, cerr
	}

	var reply frame.Frame
	select {
	case reply = <-replyCh:
	case cerr := <-errCh:
		_ = cn.Timedout()
		return nil, cerr
	case <-ctx.Done():
		return nil, ErrDialFailed.Errorf("%s", ctx.Err())
	}

	if reply.Content == frame.ContentDialFailed {
		_ = cn.Timedout()
		return nil, ErrDialFailed.Error()
	}

	var peerPub [32]byte
	if v, has := reply.Get(frame.HeaderPubKey); has && len(v) == 32 {
		copy(peerPub[:], v)
	}
	if cerr := cn.CompleteEncryption(peerPub, true); cerr != nil {
		return nil, cerr
	}
	if cerr := cn.Connected(); cerr != nil {
		return nil, cerr
	}

	return c.wireConn(cn, ch, service), nil
}

// wireConn builds the local net.Pipe-backed bridge, registers its frame
// receiver on the channel, and starts the outbound pump.
func (c *Context) wireConn(cn *conn.Connection, ch *channel.Channel, service string) *Conn {
	local, remote := net.Pipe()
	pool := frame.NewPool(64, frame.MaxMTU)

	br := bridge.New(cn, remote, pool, func(payload []byte, fin bool) liberr.Error {
		headers := []frame.Header{
			frame.Uint32Header(frame.HeaderConnId, cn.Id()),
			frame.Uint32Header(frame.HeaderSeq, cn.NextOutboundSeq()),
		}
		if fin {
			headers = append(headers, frame.Header{Type: frame.HeaderFin, Value: []byte{1}})
		}
		_, err := ch.Send(frame.ContentData, headers, payload)
		if err == nil && c.met != nil {
			c.met.AddBytesUp(service, len(payload))
		}
		return err
	})

	ch.RegisterReceiver(cn.Id(), func(f frame.Frame) {
		if f.Content == frame.ContentStateClosed {
			// Synthetic notification from the channel's own disconnect
			// handling: the transport dropped, so this connection's
			// bytes are gone too. Drive the state machine and tear
			// down the local side the same way an explicit FIN would.
			cn.SetFinRecv()
			_ = br.Close()
			return
		}
		if f.Content != frame.ContentData {
			return
		}
		fin := false
		if v, has := f.Get(frame.HeaderFin); has && len(v) == 1 && v[0] == 1 {
			fin = true
		}
		if derr := br.Deliver(f.Body, fin); derr == nil && c.met != nil {
			c.met.AddBytesDown(service, len(f.Body))
		}
	})

	go func() { _ = br.PumpOut() }()

	c.mu.Lock()
	c.conns[cn.Id()] = cn
	c.mu.Unlock()

	if c.met != nil {
		c.met.IncConnections(service)
	}

	return &Conn{ctx: c, cn: cn, ch: ch, br: br, local: local}
}

// binding tracks one listener registered with Bind: an accept channel
// receiving newly dialed-in Conns until Unbind closes it.
type binding struct {
	service string
	accept  chan *Conn
	done    chan struct{}
}

// Bind registers this identity as able to accept inbound dials for
// service. Accept blocks until a peer dials in or ctx is done.
func (c *Context) Bind(ctx context.Context, service string) (*Listener, liberr.Error) {
	svc, ok := c.serviceByName(service)
	if !ok {
		return nil, ErrServiceNotFound.Error()
	}
	if !svc.Available(false) {
		return nil, ErrServiceNotFound.Error()
	}

	session, err := c.minter.Mint(ctx, svc.Id, "Bind")
	if err != nil {
		return nil, err
	}
	ch, err := c.channelFor(ctx, session)
	if err != nil {
		return nil, err
	}

	b := &binding{service: service, accept: make(chan *Conn, 8), done: make(chan struct{})}

	c.mu.Lock()
	c.binds[ch] = b
	c.mu.Unlock()

	ch.OnUnrouted(func(f frame.Frame) { c.acceptDial(ch, f) })

	if _, err := ch.Send(frame.ContentBind, []frame.Header{
		{Type: frame.HeaderCallerId, Value: []byte(session.Token)},
	}, []byte(session.Token)); err != nil {
		return nil, err
	}

	return &Listener{ctx: c, ch: ch, session: session, bind: b}, nil
}

// acceptDial handles an inbound DIAL frame the router routed to a bound
// channel: it completes the accepting side of the handshake and hands
// the resulting Conn to whichever binding is listening on that channel.
func (c *Context) acceptDial(ch *channel.Channel, f frame.Frame) {
	c.mu.RLock()
	b := c.binds[ch]
	c.mu.RUnlock()
	if b == nil {
		return
	}

	peerId, ok := connIdOf(f)
	if !ok {
		return
	}
	var peerPub [32]byte
	if v, has := f.Get(frame.HeaderPubKey); has && len(v) == 32 {
		copy(peerPub[:], v)
	}

	kp, err := conn.NewEphemeralKeyPair()
	if err != nil {
		return
	}

	// The peer's dial-assigned id becomes this side's key too: the edge
	// router relays frames verbatim, so both ends must agree on one id
	// space for a given logical connection.
	cn := conn.New(peerId, b.service)
	cn.BeginEncryption(kp)
	if cerr := cn.Binding(); cerr != nil {
		return
	}
	if cerr := cn.Bound(); cerr != nil {
		return
	}
	if cerr := cn.Accepting(); cerr != nil {
		return
	}
	if cerr := cn.CompleteEncryption(peerPub, false); cerr != nil {
		return
	}
	if cerr := cn.Connected(); cerr != nil {
		return
	}

	if _, serr := ch.Send(frame.ContentDialSuccess, []frame.Header{
		frame.Uint32Header(frame.HeaderConnId, peerId),
		frame.Uint32Header(frame.HeaderReplyFor, f.Seq),
		{Type: frame.HeaderPubKey, Value: kp.Public[:]},
	}, nil); serr != nil {
		return
	}

	newConn := c.wireConn(cn, ch, b.service)
	select {
	case b.accept <- newConn:
	default:
		_ = newConn.Close()
	}
}

// Listener is the accept-side handle returned by Bind.
type Listener struct {
	ctx     *Context
	ch      *channel.Channel
	session model.NetworkSession
	bind    *binding
}

// Accept blocks until an inbound dial arrives for this binding.
func (l *Listener) Accept(ctx context.Context) (*Conn, liberr.Error) {
	select {
	case cn := <-l.bind.accept:
		return cn, nil
	case <-l.bind.done:
		return nil, ErrNotBound.Error()
	case <-ctx.Done():
		return nil, ErrNotBound.Errorf("%s", ctx.Err())
	}
}

// Unbind stops accepting new inbound dials for this listener.
func (l *Listener) Unbind() liberr.Error {
	close(l.bind.done)
	_, err := l.ch.Send(frame.ContentUnbind, nil, []byte(l.session.Token))
	return err
}

func connIdOf(f frame.Frame) (uint32, bool) {
	v, ok := f.Get(frame.HeaderConnId)
	if !ok || len(v) != 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint32(v), true
}
