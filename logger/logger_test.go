/*
MIT License

Copyright (c) 2019 Nicolas JUHEL

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/
package logger_test

import (
	"os"

	liblog "github.com/nabbar/edge-sdk/logger"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LevelFromEnv", func() {
	AfterEach(func() {
		_ = os.Unsetenv("ZITI_LOG")
	})

	It("defaults to InfoLevel when unset", func() {
		_ = os.Unsetenv("ZITI_LOG")
		Expect(liblog.LevelFromEnv()).To(Equal(liblog.InfoLevel))
	})

	It("parses a valid numeric level", func() {
		_ = os.Setenv("ZITI_LOG", "5")
		Expect(liblog.LevelFromEnv()).To(Equal(liblog.DebugLevel))
	})

	It("falls back to InfoLevel on garbage", func() {
		_ = os.Setenv("ZITI_LOG", "not-a-number")
		Expect(liblog.LevelFromEnv()).To(Equal(liblog.InfoLevel))
	})
})

var _ = Describe("Fields", func() {
	It("With returns a new map without mutating the receiver", func() {
		base := liblog.Fields{"a": 1}
		next := base.With("b", 2)

		Expect(base).To(HaveLen(1))
		Expect(next).To(HaveLen(2))
		Expect(next["a"]).To(Equal(1))
		Expect(next["b"]).To(Equal(2))
	})
})

var _ = Describe("New", func() {
	It("builds a working Logger that does not panic on use", func() {
		l := liblog.New()
		Expect(func() {
			l.Info(liblog.Fields{"k": "v"}, "hello %s", "world")
			l.SetLevel(liblog.WarnLevel)
			Expect(l.Level()).To(Equal(liblog.WarnLevel))
		}).ToNot(Panic())
	})

	It("adapts to hclog.Logger without panicking", func() {
		l := liblog.New()
		h := liblog.AsHCLog(l)
		Expect(func() {
			h.Info("hello", "k", "v")
			h.With("x", 1).Debug("nested")
		}).ToNot(Panic())
	})
})
