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

// Package edge is the public API of the edge SDK client runtime: it
// authenticates against a controller, keeps a synchronized service
// catalog, multiplexes edge-router channels, and exposes dial/bind byte
// streams end-to-end encrypted independent of transport TLS.
package edge

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/nabbar/edge-sdk/channel"
	"github.com/nabbar/edge-sdk/config"
	"github.com/nabbar/edge-sdk/conn"
	"github.com/nabbar/edge-sdk/controller"
	"github.com/nabbar/edge-sdk/logger"
	"github.com/nabbar/edge-sdk/metrics"
	"github.com/nabbar/edge-sdk/model"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// Options tunes behavior New does not have to guess: refresh cadence,
// per-operation deadlines, and the dialer the channel fleet uses to open
// TLS connections to edge routers.
type Options struct {
	RefreshInterval time.Duration
	DialTimeout     time.Duration
	AuthMethod      string
	Credentials     interface{}
	Dial            channel.Dialer
	Log             logger.Logger
	Metrics         *metrics.Collector

	// Ctrl overrides the controller client New would otherwise build
	// from cfg, for tests and for callers wiring an already-authenticated
	// client in from elsewhere.
	Ctrl controller.Client
}

func (o *Options) setDefaults() {
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = 30 * time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.AuthMethod == "" {
		o.AuthMethod = "cert"
	}
	if o.Log == nil {
		o.Log = logger.New()
	}
}

// Context is one identity's view of the overlay: one controller session,
// one service catalog, a fleet of edge-router channels, and the logical
// connections dialed or bound through them.
type Context struct {
	cfg  config.Config
	opts Options

	ctrl   controller.Client
	minter *controller.SessionMinter
	met    *metrics.Collector
	log    logger.Logger

	loop  *runner
	queue *workQueue

	mu                 sync.RWMutex
	enabled            bool
	ctrlStatus         CtrlStatus
	services           map[string]model.Service
	netSessions        map[string]model.NetworkSession
	channels           map[string]*channel.Channel
	chConnect          map[*channel.Channel]*sync.Once
	conns              map[uint32]*conn.Connection
	nextConnID         uint32
	binds              map[*channel.Channel]*binding
	lastChange         string
	catalogSeeded      bool
	servicesUpdateless bool

	subsMu    sync.Mutex
	subs      map[int]chan<- Event
	nextSubID int
}

// New builds a Context from a loaded configuration. It does not contact
// the controller until Enable is called.
func New(cfg config.Config, opts Options) (*Context, liberr.Error) {
	opts.setDefaults()

	ctrl := opts.Ctrl
	if ctrl == nil {
		tlsCfg, err := cfg.TLSConfig()
		if err != nil {
			return nil, err
		}
		var cerr liberr.Error
		ctrl, cerr = controller.New(cfg.ControllerURL, tlsCfg, nil)
		if cerr != nil {
			return nil, cerr
		}
	}

	return &Context{
		cfg:         cfg,
		opts:        opts,
		ctrl:        ctrl,
		minter:      controller.NewSessionMinter(ctrl),
		met:         opts.Metrics,
		log:         opts.Log,
		loop:        newRunner(),
		queue:       newWorkQueue(),
		services:    map[string]model.Service{},
		netSessions: map[string]model.NetworkSession{},
		channels:    map[string]*channel.Channel{},
		chConnect:   map[*channel.Channel]*sync.Once{},
		conns:       map[uint32]*conn.Connection{},
		binds:       map[*channel.Channel]*binding{},
		subs:        map[int]chan<- Event{},
	}, nil
}

// Subscribe registers ch to receive every event this context emits.
// Delivery is best-effort: a full channel's event is dropped rather than
// blocking the loop. The returned func unsubscribes.
func (c *Context) Subscribe(ch chan<- Event) func() {
	c.subsMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = ch
	c.subsMu.Unlock()

	return func() {
		c.subsMu.Lock()
		delete(c.subs, id)
		c.subsMu.Unlock()
	}
}

func (c *Context) emit(ev Event) {
	c.subsMu.Lock()
	defer c.subsMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (c *Context) setCtrlStatus(s CtrlStatus, err liberr.Error) {
	c.mu.Lock()
	changed := c.ctrlStatus != s
	c.ctrlStatus = s
	c.mu.Unlock()

	if changed {
		c.emit(Event{Context: &ContextEvent{CtrlStatus: s, Err: err}})
	}
}

// Enable authenticates against the controller and starts the control
// loop: periodic service-catalog synchronization and cross-thread work
// queue draining.
func (c *Context) Enable(ctx context.Context) liberr.Error {
	c.mu.Lock()
	if c.enabled {
		c.mu.Unlock()
		return ErrAlreadyEnabled.Error()
	}
	c.enabled = true
	c.mu.Unlock()

	if _, err := c.ctrl.Version(ctx); err != nil {
		c.setCtrlStatus(CtrlStatusUnavailable, err)
		return err
	}

	if err := c.authenticate(ctx); err != nil {
		return err
	}

	c.loop.Start(ctx, c.runLoop)
	return nil
}

func (c *Context) authenticate(ctx context.Context) liberr.Error {
	_, err := c.ctrl.Authenticate(ctx, c.opts.AuthMethod, c.opts.Credentials)
	if err != nil {
		if err.Kind() == liberr.KindNotAuthorized {
			c.setCtrlStatus(CtrlStatusNotAuthorized, err)
			c.emit(Event{Auth: &AuthEvent{Action: AuthActionNone, Err: err}})
		} else {
			c.setCtrlStatus(CtrlStatusUnavailable, err)
		}
		return err
	}
	c.setCtrlStatus(CtrlStatusAvailable, nil)
	c.emit(Event{Auth: &AuthEvent{Action: AuthActionNone}})
	return nil
}

func (c *Context) runLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.refreshServices(ctx)
		case <-c.queue.wakeup:
			for _, fn := range c.queue.drain() {
				fn()
			}
		}
		c.reapClosedConns()
	}
}

// reapClosedConns sweeps c.conns for connections that reached Closed
// through a path other than Conn.Close — the FIN/half-close state
// machine drives a connection to Closed without ever calling it — so
// the map never accumulates terminal entries.
func (c *Context) reapClosedConns() {
	c.mu.Lock()
	for id, cn := range c.conns {
		if cn.State() == conn.StateClosed {
			delete(c.conns, id)
		}
	}
	c.mu.Unlock()
}

// refreshServices synchronizes the cached service catalog. If the
// controller supports the services-update marker, it is polled first and a
// full ListServices fetch only follows a changed last_change; once the
// marker endpoint answers not-found, this context stops polling it until
// the next Disable and fetches the list every tick instead.
func (c *Context) refreshServices(ctx context.Context) {
	c.mu.RLock()
	updateless := c.servicesUpdateless
	c.mu.RUnlock()

	if !updateless {
		change, err := c.ctrl.ServicesUpdate(ctx)
		switch {
		case err == nil:
			c.mu.Lock()
			unchanged := c.catalogSeeded && change == c.lastChange
			c.lastChange = change
			c.mu.Unlock()
			if unchanged {
				c.setCtrlStatus(CtrlStatusAvailable, nil)
				return
			}
		case err.Kind() == liberr.KindServiceUnavailable:
			c.mu.Lock()
			c.servicesUpdateless = true
			c.mu.Unlock()
		case err.Kind() == liberr.KindNotAuthorized:
			_ = c.authenticate(ctx)
			return
		default:
			c.setCtrlStatus(CtrlStatusUnavailable, err)
			return
		}
	}

	fresh, err := c.ctrl.ListServices(ctx)
	if err != nil {
		if err.Kind() == liberr.KindNotAuthorized {
			_ = c.authenticate(ctx)
		} else {
			c.setCtrlStatus(CtrlStatusUnavailable, err)
		}
		return
	}
	c.setCtrlStatus(CtrlStatusAvailable, nil)

	c.mu.Lock()
	oldCatalog := c.services
	newCatalog := catalogById(fresh)
	added, changed, removed := diffServices(oldCatalog, newCatalog)
	c.services = newCatalog
	c.catalogSeeded = true
	for _, r := range removed {
		delete(c.netSessions, r.Id)
	}
	c.mu.Unlock()

	if len(added) > 0 || len(changed) > 0 || len(removed) > 0 {
		c.emit(Event{Service: &ServiceEvent{Added: added, Changed: changed, Removed: removed}})
	}
}

// Disable stops the control loop, closes every channel, clears the
// service and network-session caches, logs out, and
// only then emits ContextEvent{DISABLED}: no timer remains armed and both
// maps are empty before that event is observed by a subscriber.
func (c *Context) Disable(ctx context.Context) liberr.Error {
	c.mu.Lock()
	if !c.enabled {
		c.mu.Unlock()
		return nil
	}
	c.enabled = false
	c.mu.Unlock()

	// Join the loop goroutine before touching any cache it might still be
	// writing to: clearing the maps first would race a ticker fire still
	// in flight and risks the catalog reappearing after this call returns.
	c.loop.Stop()

	c.mu.Lock()
	channels := c.channels
	conns := c.conns
	c.channels = map[string]*channel.Channel{}
	c.conns = map[uint32]*conn.Connection{}
	c.binds = map[*channel.Channel]*binding{}
	c.chConnect = map[*channel.Channel]*sync.Once{}
	c.services = map[string]model.Service{}
	c.netSessions = map[string]model.NetworkSession{}
	c.lastChange = ""
	c.catalogSeeded = false
	c.servicesUpdateless = false
	c.mu.Unlock()

	for _, cn := range conns {
		cn.ForceClose()
	}
	var errs error
	for _, ch := range channels {
		if e := ch.Close(); e != nil {
			errs = multierr.Append(errs, e)
		}
	}
	if e := c.ctrl.Logout(ctx); e != nil {
		errs = multierr.Append(errs, e)
	}

	c.setCtrlStatus(CtrlStatusDisabled, nil)

	if errs != nil {
		return liberr.New(liberr.KindWTF, errs.Error())
	}
	return nil
}

// Shutdown disables the context, closing every channel concurrently (one
// goroutine per channel, no limit) and combining their errors.
func (c *Context) Shutdown(ctx context.Context) liberr.Error {
	c.mu.Lock()
	channels := make([]*channel.Channel, 0, len(c.channels))
	for _, ch := range c.channels {
		channels = append(channels, ch)
	}
	c.mu.Unlock()

	g, _ := errgroup.WithContext(ctx)
	for _, ch := range channels {
		ch := ch
		g.Go(func() error {
			if e := ch.Close(); e != nil {
				return e
			}
			return nil
		})
	}
	fanErr := g.Wait()

	disErr := c.Disable(ctx)

	combined := multierr.Append(fanErr, disErr)
	if combined != nil {
		return liberr.New(liberr.KindWTF, combined.Error())
	}
	return nil
}

// Dump writes a diagnostic snapshot of context/channel/connection state.
func (c *Context) Dump(w io.Writer) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if _, err := fmt.Fprintf(w, "controller status: %s\n", c.ctrlStatus); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "services: %d\n", len(c.services)); err != nil {
		return err
	}
	for _, ch := range c.channels {
		if _, err := fmt.Fprintf(w, "channel %q: state=%s latency=%s reconnects=%d\n",
			ch.Name, ch.State(), ch.Latency(), ch.ReconnectCount()); err != nil {
			return err
		}
	}
	for id, cn := range c.conns {
		if _, err := fmt.Fprintf(w, "conn %d: service=%s state=%s\n", id, cn.Service(), cn.State()); err != nil {
			return err
		}
	}
	return nil
}

// ServiceAvailable reports whether name is in the cached catalog and
// authorizes the requested permission (dial or bind).
func (c *Context) ServiceAvailable(name string, dial bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.services {
		if s.Name == name {
			return s.Available(dial)
		}
	}
	return false
}

// GetTransferRates returns the current byte-counter snapshot for service.
func (c *Context) GetTransferRates(service string) metrics.Rates {
	return c.met.Snapshot(service)
}

func (c *Context) serviceByName(name string) (model.Service, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.services {
		if s.Name == name {
			return s, true
		}
	}
	return model.Service{}, false
}
