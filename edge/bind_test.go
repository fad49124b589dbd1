package edge_test

import (
	"context"
	"io"
	"net"
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

// bindingRouterDialer behaves like routerDialer but, once it has seen a
// BIND frame, synthesizes one inbound DIAL against the bound channel so
// Bind/Accept can be exercised without a real edge router.
func bindingRouterDialer() channel.Dialer {
	return func(ctx context.Context, host string, port int) (io.ReadWriteCloser, error) {
		client, server := net.Pipe()
		go serveBindingFakeRouter(server)
		return client, nil
	}
}

func serveBindingFakeRouter(server net.Conn) {
	f, err := frame.ReadFrame(server)
	if err != nil || f.Content != frame.ContentHello {
		return
	}
	if err := frame.WriteFrame(server, frame.Frame{Content: frame.ContentHelloReply}); err != nil {
		return
	}

	dialSent := false
	for {
		f, err := frame.ReadFrame(server)
		if err != nil {
			return
		}
		switch f.Content {
		case frame.ContentBind:
			if dialSent {
				continue
			}
			dialSent = true
			kp, _ := econn.NewEphemeralKeyPair()
			go func() {
				_ = frame.WriteFrame(server, frame.Frame{
					Content: frame.ContentDial,
					Headers: []frame.Header{
						frame.Uint32Header(frame.HeaderConnId, 9001),
						{Type: frame.HeaderPubKey, Value: kp.Public[:]},
					},
				})
			}()
		case frame.ContentDialSuccess:
			// the accept side's reply to the synthesized dial; nothing to do.
		case frame.ContentPing:
			_ = frame.WriteFrame(server, frame.Frame{Content: frame.ContentPingReply})
		}
	}
}

var _ = Describe("Bind", func() {
	It("accepts an inbound dial routed to a bound channel", func() {
		ctrl := &fakeController{
			services: []model.Service{dialableService("svc1")},
			session:  sessionFor("svc1"),
		}
		ctx, err := edge.New(config.Config{ControllerURL: "https://ctrl.example.net"}, edge.Options{
			Ctrl:            ctrl,
			Dial:            bindingRouterDialer(),
			RefreshInterval: 20 * time.Millisecond,
		})
		Expect(err).To(BeNil())
		Expect(ctx.Enable(context.Background())).To(BeNil())
		Eventually(func() bool { return ctx.ServiceAvailable("svc1", false) }, time.Second, 5*time.Millisecond).Should(BeTrue())

		bctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		listener, berr := ctx.Bind(bctx, "svc1")
		Expect(berr).To(BeNil())
		Expect(listener).ToNot(BeNil())

		actx, acancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer acancel()
		conn, aerr := listener.Accept(actx)
		Expect(aerr).To(BeNil())
		Expect(conn).ToNot(BeNil())
		_ = conn.Close()

		Expect(listener.Unbind()).To(BeNil())
	})
})
