package edge_test

import (
	"context"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/edge-sdk/channel"
	econn "github.com/nabbar/edge-sdk/conn"
	"github.com/nabbar/edge-sdk/config"
	"github.com/nabbar/edge-sdk/edge"
	"github.com/nabbar/edge-sdk/frame"
	"github.com/nabbar/edge-sdk/model"
)

// routerDialer builds a channel.Dialer that performs the HELLO handshake
// and auto-answers every DIAL with a DIAL_SUCCESS carrying a fresh peer
// public key, standing in for a real edge router.
func routerDialer() channel.Dialer {
	return func(ctx context.Context, host string, port int) (io.ReadWriteCloser, error) {
		client, server := net.Pipe()
		go serveFakeRouter(server)
		return client, nil
	}
}

func serveFakeRouter(server net.Conn) {
	f, err := frame.ReadFrame(server)
	if err != nil || f.Content != frame.ContentHello {
		return
	}
	if err := frame.WriteFrame(server, frame.Frame{Content: frame.ContentHelloReply}); err != nil {
		return
	}

	for {
		f, err := frame.ReadFrame(server)
		if err != nil {
			return
		}
		switch f.Content {
		case frame.ContentDial:
			connId, _ := f.Get(frame.HeaderConnId)
			kp, _ := econn.NewEphemeralKeyPair()
			_ = frame.WriteFrame(server, frame.Frame{
				Content: frame.ContentDialSuccess,
				Headers: []frame.Header{
					{Type: frame.HeaderConnId, Value: connId},
					frame.Uint32Header(frame.HeaderReplyFor, f.Seq),
					{Type: frame.HeaderPubKey, Value: kp.Public[:]},
				},
			})
		case frame.ContentPing:
			_ = frame.WriteFrame(server, frame.Frame{Content: frame.ContentPingReply})
		}
	}
}

func dialableService(id string) model.Service {
	return model.Service{Id: id, Name: id, Permission: model.Permission{Dial: true, Bind: true}}
}

func sessionFor(serviceId string) model.NetworkSession {
	return model.NetworkSession{
		Id:        "sess-" + serviceId,
		Token:     "tok-" + serviceId,
		ServiceId: serviceId,
		EdgeRouters: []model.EdgeRouterRef{
			{Name: "er1", Hostname: "er1.example.net", Protocols: map[string]string{"tls": "tls://er1.example.net:443"}},
		},
	}
}

var _ = Describe("Context lifecycle", func() {
	var (
		ctrl *fakeController
		ctx  *edge.Context
	)

	BeforeEach(func() {
		ctrl = &fakeController{
			services: []model.Service{dialableService("svc1")},
			session:  sessionFor("svc1"),
		}
		var err error
		ctx, err = edge.New(config.Config{ControllerURL: "https://ctrl.example.net"}, edge.Options{
			Ctrl:            ctrl,
			Dial:            routerDialer(),
			RefreshInterval: 20 * time.Millisecond,
		})
		Expect(err).To(BeNil())
	})

	It("authenticates and starts the loop on Enable", func() {
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Expect(ctrl.SessionToken()).To(Equal("api-token"))
	})

	It("rejects a second Enable while already enabled", func() {
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Expect(ctx.Enable(context.Background())).ToNot(BeNil())
	})

	It("picks up the service catalog after one refresh tick", func() {
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Eventually(func() bool { return ctx.ServiceAvailable("svc1", true) }, time.Second, 5*time.Millisecond).Should(BeTrue())
	})

	It("stops polling the full catalog once the change marker is unchanged", func() {
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Eventually(func() bool { return ctx.ServiceAvailable("svc1", true) }, time.Second, 5*time.Millisecond).Should(BeTrue())

		Eventually(func() int { return ctrl.UpdateCalls() }, time.Second, 5*time.Millisecond).Should(BeNumerically(">=", 2))
		Expect(ctrl.ListCalls()).To(Equal(1))
	})

	It("falls back to polling the full catalog every tick when the marker endpoint is unsupported", func() {
		ctrl.SetUpdateUnsupported(true)
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Eventually(func() bool { return ctx.ServiceAvailable("svc1", true) }, time.Second, 5*time.Millisecond).Should(BeTrue())

		Eventually(func() int { return ctrl.ListCalls() }, time.Second, 5*time.Millisecond).Should(BeNumerically(">=", 2))
	})

	It("clears timers and caches before emitting the DISABLED event, in that order", func() {
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Eventually(func() bool { return ctx.ServiceAvailable("svc1", true) }, time.Second, 5*time.Millisecond).Should(BeTrue())

		events := make(chan edge.Event, 4)
		unsub := ctx.Subscribe(events)
		defer unsub()

		var sawDisabled atomic.Bool
		var mapsEmptyAtEvent atomic.Bool
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range events {
				if ev.Context != nil && ev.Context.CtrlStatus == edge.CtrlStatusDisabled {
					mapsEmptyAtEvent.Store(!ctx.ServiceAvailable("svc1", true))
					sawDisabled.Store(true)
					return
				}
			}
		}()

		Expect(ctx.Disable(context.Background())).To(BeNil())

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			Fail("timed out waiting for DISABLED event")
		}

		Expect(sawDisabled.Load()).To(BeTrue())
		Expect(mapsEmptyAtEvent.Load()).To(BeTrue())
	})

	It("is idempotent on a second Disable", func() {
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Expect(ctx.Disable(context.Background())).To(BeNil())
		Expect(ctx.Disable(context.Background())).To(BeNil())
	})
})

var _ = Describe("Dial", func() {
	It("opens a logical connection through the router once authenticated", func() {
		ctrl := &fakeController{
			services: []model.Service{dialableService("svc1")},
			session:  sessionFor("svc1"),
		}
		ctx, err := edge.New(config.Config{ControllerURL: "https://ctrl.example.net"}, edge.Options{
			Ctrl:            ctrl,
			Dial:            routerDialer(),
			RefreshInterval: 20 * time.Millisecond,
		})
		Expect(err).To(BeNil())
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Eventually(func() bool { return ctx.ServiceAvailable("svc1", true) }, time.Second, 5*time.Millisecond).Should(BeTrue())

		dctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		conn, derr := ctx.Dial(dctx, "svc1")
		Expect(derr).To(BeNil())
		Expect(conn).ToNot(BeNil())
		_ = conn.Close()
	})

	It("collapses concurrent dials for the same service into one session mint", func() {
		ctrl := &fakeController{
			services: []model.Service{dialableService("svc1")},
			session:  sessionFor("svc1"),
		}
		ctx, err := edge.New(config.Config{ControllerURL: "https://ctrl.example.net"}, edge.Options{
			Ctrl:            ctrl,
			Dial:            routerDialer(),
			RefreshInterval: 20 * time.Millisecond,
		})
		Expect(err).To(BeNil())
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Eventually(func() bool { return ctx.ServiceAvailable("svc1", true) }, time.Second, 5*time.Millisecond).Should(BeTrue())

		const n = 8
		start := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(n)
		for i := 0; i < n; i++ {
			go func() {
				defer wg.Done()
				<-start
				dctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				conn, derr := ctx.Dial(dctx, "svc1")
				if derr == nil {
					_ = conn.Close()
				}
			}()
		}
		close(start)
		wg.Wait()

		Expect(ctrl.createCalls).To(BeNumerically("<", n))
	})

	It("ships a fin frame to the router on CloseWrite", func() {
		ctrl := &fakeController{
			services: []model.Service{dialableService("svc1")},
			session:  sessionFor("svc1"),
		}

		finSeen := make(chan struct{}, 1)
		dialer := func(ctx context.Context, host string, port int) (io.ReadWriteCloser, error) {
			client, server := net.Pipe()
			go func() {
				serveFakeRouterWithFinWatch(server, finSeen)
			}()
			return client, nil
		}

		ctx, err := edge.New(config.Config{ControllerURL: "https://ctrl.example.net"}, edge.Options{
			Ctrl:            ctrl,
			Dial:            dialer,
			RefreshInterval: 20 * time.Millisecond,
		})
		Expect(err).To(BeNil())
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Eventually(func() bool { return ctx.ServiceAvailable("svc1", true) }, time.Second, 5*time.Millisecond).Should(BeTrue())

		dctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		conn, derr := ctx.Dial(dctx, "svc1")
		Expect(derr).To(BeNil())

		Expect(conn.CloseWrite()).To(BeNil())

		select {
		case <-finSeen:
		case <-time.After(2 * time.Second):
			Fail("timed out waiting for the router to see the fin frame")
		}
	})
})

// serveFakeRouterWithFinWatch behaves like serveFakeRouter but signals
// finSeen the first time it sees a DATA frame carrying the fin header.
func serveFakeRouterWithFinWatch(server net.Conn, finSeen chan struct{}) {
	f, err := frame.ReadFrame(server)
	if err != nil || f.Content != frame.ContentHello {
		return
	}
	if err := frame.WriteFrame(server, frame.Frame{Content: frame.ContentHelloReply}); err != nil {
		return
	}

	for {
		f, err := frame.ReadFrame(server)
		if err != nil {
			return
		}
		switch f.Content {
		case frame.ContentDial:
			connId, _ := f.Get(frame.HeaderConnId)
			kp, _ := econn.NewEphemeralKeyPair()
			_ = frame.WriteFrame(server, frame.Frame{
				Content: frame.ContentDialSuccess,
				Headers: []frame.Header{
					{Type: frame.HeaderConnId, Value: connId},
					frame.Uint32Header(frame.HeaderReplyFor, f.Seq),
					{Type: frame.HeaderPubKey, Value: kp.Public[:]},
				},
			})
		case frame.ContentData:
			if v, has := f.Get(frame.HeaderFin); has && len(v) == 1 && v[0] == 1 {
				select {
				case finSeen <- struct{}{}:
				default:
				}
			}
		case frame.ContentPing:
			_ = frame.WriteFrame(server, frame.Frame{Content: frame.ContentPingReply})
		}
	}
}
