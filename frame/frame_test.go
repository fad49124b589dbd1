package frame_test

import (
	"io"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nabbar/edge-sdk/frame"
)

var _ = Describe("Encode/Decode", func() {
	It("round-trips a frame with headers and a body", func() {
		f := frame.Frame{
			Content: frame.ContentData,
			Seq:     42,
			Headers: []frame.Header{
				{Type: frame.HeaderConnId, Value: []byte{1, 2, 3, 4}},
				{Type: frame.HeaderFin, Value: []byte{1}},
			},
			Body: []byte("hello edge"),
		}

		buf := make([]byte, f.EncodedLen())
		n, err := frame.Encode(f, buf)
		Expect(err).To(BeNil())
		Expect(n).To(Equal(len(buf)))

		got, derr := frame.Decode(buf)
		Expect(derr).To(BeNil())
		Expect(got.Content).To(Equal(frame.ContentData))
		Expect(got.Seq).To(Equal(uint32(42)))
		Expect(got.Body).To(Equal(f.Body))

		v, ok := got.Get(frame.HeaderConnId)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal([]byte{1, 2, 3, 4}))
	})

	It("round-trips a frame with no headers and an empty body", func() {
		f := frame.Frame{Content: frame.ContentPing, Seq: 1}
		buf := make([]byte, f.EncodedLen())
		_, err := frame.Encode(f, buf)
		Expect(err).To(BeNil())

		got, derr := frame.Decode(buf)
		Expect(derr).To(BeNil())
		Expect(got.Content).To(Equal(frame.ContentPing))
		Expect(got.Body).To(BeEmpty())
		Expect(got.Headers).To(BeEmpty())
	})

	It("rejects a truncated buffer", func() {
		f := frame.Frame{Content: frame.ContentData, Body: []byte("x")}
		buf := make([]byte, f.EncodedLen())
		_, _ = frame.Encode(f, buf)

		_, derr := frame.Decode(buf[:len(buf)-1])
		Expect(derr).ToNot(BeNil())
	})

	It("rejects a bad magic", func() {
		buf := make([]byte, 20)
		_, derr := frame.Decode(buf)
		Expect(derr).ToNot(BeNil())
	})

	It("rejects a destination buffer too small for Encode", func() {
		f := frame.Frame{Content: frame.ContentData, Body: []byte("hello")}
		_, err := frame.Encode(f, make([]byte, 2))
		Expect(err).ToNot(BeNil())
	})

	It("reports Get false for an absent header", func() {
		f := frame.Frame{}
		_, ok := f.Get(frame.HeaderFin)
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("ReadFrame/WriteFrame", func() {
	It("round-trips over a byte-pipe reader/writer", func() {
		r, w := io.Pipe()
		f := frame.Frame{Content: frame.ContentDial, Seq: 7, Body: []byte("dial body")}

		go func() {
			_ = frame.WriteFrame(w, f)
			_ = w.Close()
		}()

		got, err := frame.ReadFrame(r)
		Expect(err).To(BeNil())
		Expect(got.Content).To(Equal(frame.ContentDial))
		Expect(got.Body).To(Equal(f.Body))
	})

	It("reads two consecutive frames off the same stream", func() {
		r, w := io.Pipe()
		go func() {
			_ = frame.WriteFrame(w, frame.Frame{Content: frame.ContentPing, Seq: 1})
			_ = frame.WriteFrame(w, frame.Frame{Content: frame.ContentPingReply, Seq: 2})
			_ = w.Close()
		}()

		f1, err := frame.ReadFrame(r)
		Expect(err).To(BeNil())
		Expect(f1.Content).To(Equal(frame.ContentPing))

		f2, err := frame.ReadFrame(r)
		Expect(err).To(BeNil())
		Expect(f2.Content).To(Equal(frame.ContentPingReply))
	})

	It("surfaces truncation when the stream closes mid-frame", func() {
		r, w := io.Pipe()
		go func() {
			_, _ = w.Write([]byte{'e', 'd', 'g'})
			_ = w.Close()
		}()

		_, err := frame.ReadFrame(r)
		Expect(err).ToNot(BeNil())
	})
})

var _ = Describe("Content", func() {
	It("names every recognized content code", func() {
		Expect(frame.ContentHello.String()).To(Equal("HELLO"))
		Expect(frame.ContentDialFailed.String()).To(Equal("DIAL_FAILED"))
		Expect(frame.Content(9999).String()).To(Equal("UNKNOWN"))
	})
})

var _ = Describe("Pool", func() {
	It("checks cells out and back in", func() {
		p := frame.NewPool(2, 64)
		Expect(p.Available()).To(Equal(2))

		b1, i1, err := p.Get()
		Expect(err).To(BeNil())
		Expect(len(b1)).To(Equal(64))
		Expect(p.Available()).To(Equal(1))

		_, _, err = p.Get()
		Expect(err).To(BeNil())
		Expect(p.Available()).To(Equal(0))

		p.Put(i1)
		Expect(p.Available()).To(Equal(1))
	})

	It("signals exhaustion instead of growing", func() {
		p := frame.NewPool(1, 16)
		_, _, err := p.Get()
		Expect(err).To(BeNil())

		_, _, err = p.Get()
		Expect(err).ToNot(BeNil())
	})

	It("tolerates a double Put", func() {
		p := frame.NewPool(1, 16)
		_, idx, _ := p.Get()
		p.Put(idx)
		p.Put(idx)
		Expect(p.Available()).To(Equal(1))
	})
})
