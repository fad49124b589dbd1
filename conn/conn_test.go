package conn_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/edge-sdk/conn"
)

var _ = Describe("Connection state machine", func() {
	It("starts Initial and allows Connecting -> Connected", func() {
		c := conn.New(1, "echo")
		Expect(c.State()).To(Equal(conn.StateInitial))
		Expect(c.Connecting()).To(BeNil())
		Expect(c.Connected()).To(BeNil())
		Expect(c.State()).To(Equal(conn.StateConnected))
	})

	It("allows Binding -> Bound -> Accepting -> Connected for a child connection", func() {
		c := conn.New(2, "echo")
		Expect(c.Binding()).To(BeNil())
		Expect(c.Bound()).To(BeNil())
		Expect(c.Accepting()).To(BeNil())
		Expect(c.Connected()).To(BeNil())
	})

	It("rejects an illegal transition", func() {
		c := conn.New(3, "echo")
		Expect(c.Bound()).ToNot(BeNil())
	})

	It("is idempotent for a repeated identical transition", func() {
		c := conn.New(4, "echo")
		Expect(c.Connecting()).To(BeNil())
		Expect(c.Connecting()).To(BeNil())
	})

	It("refuses Close while a write is in flight, then allows it once drained", func() {
		c := conn.New(5, "echo")
		Expect(c.BeginWrite()).To(BeNil())
		Expect(c.Close()).ToNot(BeNil())
		c.EndWrite()
		Expect(c.Close()).To(BeNil())
	})

	It("is idempotent for a repeated Close", func() {
		c := conn.New(6, "echo")
		Expect(c.Close()).To(BeNil())
		Expect(c.Close()).To(BeNil())
	})

	It("refuses writes after close", func() {
		c := conn.New(7, "echo")
		Expect(c.Close()).To(BeNil())
		Expect(c.BeginWrite()).ToNot(BeNil())
	})

	It("ForceClose clears in-flight writes unconditionally", func() {
		c := conn.New(8, "echo")
		Expect(c.BeginWrite()).To(BeNil())
		c.ForceClose()
		Expect(c.State()).To(Equal(conn.StateClosed))
		Expect(c.WritesInFlight()).To(Equal(0))
	})

	It("assigns strictly increasing outbound sequence numbers", func() {
		c := conn.New(9, "echo")
		a := c.NextOutboundSeq()
		b := c.NextOutboundSeq()
		Expect(b).To(Equal(a + 1))
	})

	It("tracks half-close flags independently", func() {
		c := conn.New(10, "echo")
		Expect(c.FinSent()).To(BeFalse())
		c.SetFinSent()
		Expect(c.FinSent()).To(BeTrue())
		Expect(c.FinRecv()).To(BeFalse())
	})

	It("enters CloseWrite on local half-close", func() {
		c := conn.New(11, "echo")
		Expect(c.Connecting()).To(BeNil())
		Expect(c.Connected()).To(BeNil())
		Expect(c.CloseWrite()).To(BeNil())
		Expect(c.State()).To(Equal(conn.StateCloseWrite))
	})

	It("drives Connected -> Disconnected when a fin is received", func() {
		c := conn.New(12, "echo")
		Expect(c.Connecting()).To(BeNil())
		Expect(c.Connected()).To(BeNil())
		c.SetFinRecv()
		Expect(c.FinRecv()).To(BeTrue())
		Expect(c.State()).To(Equal(conn.StateDisconnected))
	})

	It("drives CloseWrite -> Disconnected when a fin arrives after local half-close", func() {
		c := conn.New(13, "echo")
		Expect(c.Connecting()).To(BeNil())
		Expect(c.Connected()).To(BeNil())
		Expect(c.CloseWrite()).To(BeNil())
		c.SetFinRecv()
		Expect(c.State()).To(Equal(conn.StateDisconnected))
	})
})

var _ = Describe("Secret-stream handshake", func() {
	It("round-trips a plaintext payload once both sides complete the handshake", func() {
		dialerKP, err := conn.NewEphemeralKeyPair()
		Expect(err).To(BeNil())
		acceptorKP, err := conn.NewEphemeralKeyPair()
		Expect(err).To(BeNil())

		dialerSide := conn.New(1, "echo")
		acceptorSide := conn.New(2, "echo")

		dialerSide.BeginEncryption(dialerKP)
		acceptorSide.BeginEncryption(acceptorKP)

		Expect(dialerSide.CompleteEncryption(acceptorKP.Public, true)).To(BeNil())
		Expect(acceptorSide.CompleteEncryption(dialerKP.Public, false)).To(BeNil())

		plaintext := []byte("hello over the overlay")
		ct, err := dialerSide.EncryptOutbound(plaintext)
		Expect(err).To(BeNil())

		pt, err := acceptorSide.DecryptInbound(ct)
		Expect(err).To(BeNil())
		Expect(pt).To(Equal(plaintext))
	})

	It("forces the connection Closed on a single-bit ciphertext alteration", func() {
		dialerKP, _ := conn.NewEphemeralKeyPair()
		acceptorKP, _ := conn.NewEphemeralKeyPair()

		dialerSide := conn.New(1, "echo")
		acceptorSide := conn.New(2, "echo")
		dialerSide.BeginEncryption(dialerKP)
		acceptorSide.BeginEncryption(acceptorKP)
		_ = dialerSide.CompleteEncryption(acceptorKP.Public, true)
		_ = acceptorSide.CompleteEncryption(dialerKP.Public, false)

		ct, _ := dialerSide.EncryptOutbound([]byte("hello"))
		ct[0] ^= 0x01

		_, err := acceptorSide.DecryptInbound(ct)
		Expect(err).ToNot(BeNil())
		Expect(acceptorSide.State()).To(Equal(conn.StateClosed))
	})

	It("rejects EncryptOutbound before the handshake completes", func() {
		c := conn.New(1, "echo")
		_, err := c.EncryptOutbound([]byte("x"))
		Expect(err).ToNot(BeNil())
	})
})
