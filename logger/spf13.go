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
package logger

import (
	"io"

	jww "github.com/spf13/jwalterweatherman"
)

// ioSink adapts Logger to io.Writer, the shape jww.Notepad wants for its
// log/stdout handles.
type ioSink struct {
	l   Logger
	lvl Level
}

func (s *ioSink) Write(p []byte) (int, error) {
	switch s.lvl {
	case DebugLevel, TraceLevel:
		s.l.Debug(nil, "%s", string(p))
	case WarnLevel:
		s.l.Warn(nil, "%s", string(p))
	case ErrorLevel, FatalLevel, PanicLevel:
		s.l.Error(nil, "%s", string(p))
	default:
		s.l.Info(nil, "%s", string(p))
	}
	return len(p), nil
}

// AsIOWriter exposes l as an io.Writer at a fixed level, for the stdlib
// log.Logger / jwalterweatherman compatibility shim.
func AsIOWriter(l Logger, lvl Level) io.Writer {
	return &ioSink{l: l, lvl: lvl}
}

// NotepadFor wires a jwalterweatherman Notepad so packages that still speak
// jww log through the same sink as everything else.
func NotepadFor(l Logger) *jww.Notepad {
	out := AsIOWriter(l, InfoLevel)
	logOut := AsIOWriter(l, DebugLevel)
	return jww.NewNotepad(jww.LevelInfo, jww.LevelDebug, out, logOut, "", 0)
}
