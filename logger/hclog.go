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
	"log"

	"github.com/hashicorp/go-hclog"
)

// AsHCLog adapts a Logger to hclog.Logger, for code that expects one.
func AsHCLog(l Logger) hclog.Logger {
	return &hcLogger{l: l}
}

type hcLogger struct {
	l    Logger
	name string
	args []interface{}
}

func (h *hcLogger) fields() Fields {
	if len(h.args) == 0 {
		return nil
	}
	return Fields{"args": h.args}
}

func (h *hcLogger) Log(level hclog.Level, msg string, args ...interface{}) {
	switch level {
	case hclog.Off, hclog.NoLevel:
		return
	case hclog.Trace, hclog.Debug:
		h.l.Debug(h.fields(), msg, args...)
	case hclog.Info:
		h.l.Info(h.fields(), msg, args...)
	case hclog.Warn:
		h.l.Warn(h.fields(), msg, args...)
	case hclog.Error:
		h.l.Error(h.fields(), msg, args...)
	}
}

func (h *hcLogger) Trace(msg string, args ...interface{}) {
	h.l.Debug(h.fields(), msg, args...)
}

func (h *hcLogger) Debug(msg string, args ...interface{}) {
	h.l.Debug(h.fields(), msg, args...)
}

func (h *hcLogger) Info(msg string, args ...interface{}) {
	h.l.Info(h.fields(), msg, args...)
}

func (h *hcLogger) Warn(msg string, args ...interface{}) {
	h.l.Warn(h.fields(), msg, args...)
}

func (h *hcLogger) Error(msg string, args ...interface{}) {
	h.l.Error(h.fields(), msg, args...)
}

func (h *hcLogger) IsTrace() bool { return h.l.Level() >= TraceLevel }
func (h *hcLogger) IsDebug() bool { return h.l.Level() >= DebugLevel }
func (h *hcLogger) IsInfo() bool  { return h.l.Level() >= InfoLevel }
func (h *hcLogger) IsWarn() bool  { return h.l.Level() >= WarnLevel }
func (h *hcLogger) IsError() bool { return h.l.Level() >= ErrorLevel }

func (h *hcLogger) ImpliedArgs() []interface{} {
	if h.args == nil {
		return []interface{}{}
	}
	return h.args
}

func (h *hcLogger) With(args ...interface{}) hclog.Logger {
	return &hcLogger{l: h.l, name: h.name, args: append(append([]interface{}{}, h.args...), args...)}
}

func (h *hcLogger) Name() string {
	return h.name
}

func (h *hcLogger) Named(name string) hclog.Logger {
	return &hcLogger{l: h.l, name: name, args: h.args}
}

func (h *hcLogger) ResetNamed(name string) hclog.Logger {
	return h.Named(name)
}

func (h *hcLogger) SetLevel(level hclog.Level) {
	switch level {
	case hclog.Off, hclog.NoLevel:
		h.l.SetLevel(PanicLevel)
	case hclog.Trace:
		h.l.SetLevel(TraceLevel)
	case hclog.Debug:
		h.l.SetLevel(DebugLevel)
	case hclog.Info:
		h.l.SetLevel(InfoLevel)
	case hclog.Warn:
		h.l.SetLevel(WarnLevel)
	case hclog.Error:
		h.l.SetLevel(ErrorLevel)
	}
}

func (h *hcLogger) GetLevel() hclog.Level {
	switch h.l.Level() {
	case TraceLevel:
		return hclog.Trace
	case DebugLevel:
		return hclog.Debug
	case InfoLevel:
		return hclog.Info
	case WarnLevel:
		return hclog.Warn
	case ErrorLevel, FatalLevel, PanicLevel:
		return hclog.Error
	default:
		return hclog.NoLevel
	}
}

func (h *hcLogger) StandardLogger(opts *hclog.StandardLoggerOptions) *log.Logger {
	return log.New(io.Discard, "", 0)
}

func (h *hcLogger) StandardWriter(opts *hclog.StandardLoggerOptions) io.Writer {
	return io.Discard
}
