package channel_test

import (
	"context"
	"io"
	"net"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/edge-sdk/channel"
	"github.com/nabbar/edge-sdk/frame"

	liberr "github.com/nabbar/edge-sdk/errors"
)

func pipeDialer(serverConn *net.Conn) channel.Dialer {
	return func(ctx context.Context, host string, port int) (io.ReadWriteCloser, error) {
		client, server := net.Pipe()
		*serverConn = server
		return client, nil
	}
}

var _ = Describe("Channel", func() {
	var server net.Conn

	It("completes the HELLO handshake on Connect", func() {
		dialer := pipeDialer(&server)
		ch := channel.New(1, "er1", "er1.example.net", 443, dialer)

		go func() {
			f, _ := frame.ReadFrame(server)
			if f.Content == frame.ContentHello {
				_ = frame.WriteFrame(server, frame.Frame{Content: frame.ContentHelloReply})
			}
		}()

		Expect(ch.Connect(context.Background())).To(BeNil())
		Expect(ch.State()).To(Equal(channel.StateConnected))
	})

	It("disconnects when the handshake reply is wrong", func() {
		dialer := pipeDialer(&server)
		ch := channel.New(2, "er1", "er1.example.net", 443, dialer)

		go func() {
			_, _ = frame.ReadFrame(server)
			_ = frame.WriteFrame(server, frame.Frame{Content: frame.ContentPing})
		}()

		Expect(ch.Connect(context.Background())).ToNot(BeNil())
		Expect(ch.State()).To(Equal(channel.StateDisconnected))
	})

	It("resolves SendForReply when a matching reply-for frame arrives", func() {
		dialer := pipeDialer(&server)
		ch := channel.New(3, "er1", "er1.example.net", 443, dialer)

		go func() {
			_, _ = frame.ReadFrame(server)
			_ = frame.WriteFrame(server, frame.Frame{Content: frame.ContentHelloReply})
			for {
				f, err := frame.ReadFrame(server)
				if err != nil {
					return
				}
				if f.Content == frame.ContentLatency {
					_ = frame.WriteFrame(server, frame.Frame{
						Content: frame.ContentLatencyResponse,
						Headers: []frame.Header{frame.Uint32Header(frame.HeaderReplyFor, f.Seq)},
					})
				}
			}
		}()

		Expect(ch.Connect(context.Background())).To(BeNil())
		go func() { _ = ch.Serve(context.Background()) }()

		done := make(chan liberr.Error, 1)
		err := ch.SendForReply(frame.ContentLatency, nil, nil, time.Second, func(_ frame.Frame, e liberr.Error) {
			done <- e
		})
		Expect(err).To(BeNil())

		select {
		case e := <-done:
			Expect(e).To(BeNil())
		case <-time.After(2 * time.Second):
			Fail("timed out waiting for reply")
		}
	})

	It("fires SendForReply with a timeout error when nothing replies", func() {
		dialer := pipeDialer(&server)
		ch := channel.New(4, "er1", "er1.example.net", 443, dialer)

		go func() {
			_, _ = frame.ReadFrame(server)
			_ = frame.WriteFrame(server, frame.Frame{Content: frame.ContentHelloReply})
			for {
				if _, err := frame.ReadFrame(server); err != nil {
					return
				}
			}
		}()

		Expect(ch.Connect(context.Background())).To(BeNil())
		go func() { _ = ch.Serve(context.Background()) }()

		done := make(chan liberr.Error, 1)
		err := ch.SendForReply(frame.ContentLatency, nil, nil, 50*time.Millisecond, func(_ frame.Frame, e liberr.Error) {
			done <- e
		})
		Expect(err).To(BeNil())

		select {
		case e := <-done:
			Expect(e).ToNot(BeNil())
		case <-time.After(2 * time.Second):
			Fail("timed out waiting for timeout callback")
		}
	})

	It("demuxes a conn-id frame to its registered receiver", func() {
		dialer := pipeDialer(&server)
		ch := channel.New(5, "er1", "er1.example.net", 443, dialer)

		go func() {
			_, _ = frame.ReadFrame(server)
			_ = frame.WriteFrame(server, frame.Frame{Content: frame.ContentHelloReply})
			_ = frame.WriteFrame(server, frame.Frame{
				Content: frame.ContentData,
				Headers: []frame.Header{frame.Uint32Header(frame.HeaderConnId, 99)},
				Body:    []byte("payload"),
			})
		}()

		Expect(ch.Connect(context.Background())).To(BeNil())

		received := make(chan frame.Frame, 1)
		ch.RegisterReceiver(99, func(f frame.Frame) { received <- f })

		go func() { _ = ch.Serve(context.Background()) }()

		select {
		case f := <-received:
			Expect(f.Body).To(Equal([]byte("payload")))
		case <-time.After(2 * time.Second):
			Fail("timed out waiting for demuxed frame")
		}
	})

	It("fires outstanding waiters with an error on Close", func() {
		dialer := pipeDialer(&server)
		ch := channel.New(6, "er1", "er1.example.net", 443, dialer)

		go func() {
			_, _ = frame.ReadFrame(server)
			_ = frame.WriteFrame(server, frame.Frame{Content: frame.ContentHelloReply})
		}()

		Expect(ch.Connect(context.Background())).To(BeNil())

		done := make(chan liberr.Error, 1)
		err := ch.SendForReply(frame.ContentLatency, nil, nil, 5*time.Second, func(_ frame.Frame, e liberr.Error) {
			done <- e
		})
		Expect(err).To(BeNil())

		Expect(ch.Close()).To(BeNil())

		select {
		case e := <-done:
			Expect(e).ToNot(BeNil())
		case <-time.After(2 * time.Second):
			Fail("timed out waiting for close to fire the waiter")
		}
	})

	It("delivers a synthetic close to receivers and reconnects after an unexpected drop", func() {
		var mu sync.Mutex
		attempt := 0

		dialer := func(ctx context.Context, host string, port int) (io.ReadWriteCloser, error) {
			client, srv := net.Pipe()
			mu.Lock()
			attempt++
			n := attempt
			mu.Unlock()

			go func() {
				f, err := frame.ReadFrame(srv)
				if err != nil || f.Content != frame.ContentHello {
					return
				}
				if werr := frame.WriteFrame(srv, frame.Frame{Content: frame.ContentHelloReply}); werr != nil {
					return
				}
				if n == 1 {
					_ = srv.Close()
					return
				}
				for {
					if _, rerr := frame.ReadFrame(srv); rerr != nil {
						return
					}
				}
			}()
			return client, nil
		}

		ch := channel.New(7, "er1", "er1.example.net", 443, dialer)

		received := make(chan frame.Frame, 1)
		ch.RegisterReceiver(42, func(f frame.Frame) { received <- f })

		Expect(ch.Connect(context.Background())).To(BeNil())
		go func() { _ = ch.Serve(context.Background()) }()

		select {
		case f := <-received:
			Expect(f.Content).To(Equal(frame.ContentStateClosed))
		case <-time.After(2 * time.Second):
			Fail("timed out waiting for the synthetic close frame")
		}

		Eventually(func() channel.State { return ch.State() }, 2*time.Second, 10*time.Millisecond).
			Should(Equal(channel.StateConnected))
	})
})

var _ = Describe("Backoff", func() {
	It("grows geometrically and caps at Ceiling", func() {
		b := channel.Backoff{Initial: 100 * time.Millisecond, Ceiling: time.Second, Jitter: 0}
		Expect(b.Delay(1)).To(Equal(100 * time.Millisecond))
		Expect(b.Delay(2)).To(Equal(200 * time.Millisecond))
		Expect(b.Delay(10)).To(Equal(time.Second))
	})

	It("keeps jittered delays within bounds", func() {
		b := channel.Backoff{Initial: time.Second, Ceiling: time.Second, Jitter: 0.2}
		d := b.Delay(1)
		Expect(d).To(BeNumerically(">=", 800*time.Millisecond))
		Expect(d).To(BeNumerically("<=", 1200*time.Millisecond))
	})
})
