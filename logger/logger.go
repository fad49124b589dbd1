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

// Package logger is the structured-logging façade shared by every edge SDK
// component. It wraps logrus, reads its level from ZITI_LOG, and formats
// timestamps per ZITI_TIME_FORMAT.
*/
package logger

import (
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
)

// Level mirrors logrus' level ordering but is declared locally so the rest
// of the SDK never imports logrus directly.
type Level uint32

const (
	PanicLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

func (l Level) toLogrus() logrus.Level {
	return logrus.Level(l)
}

// LevelFromEnv parses ZITI_LOG (an integer, 0=Panic .. 6=Trace) and falls
// back to InfoLevel if unset or unparsable.
func LevelFromEnv() Level {
	v := os.Getenv("ZITI_LOG")
	if v == "" {
		return InfoLevel
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > int(TraceLevel) {
		return InfoLevel
	}
	return Level(n)
}

// Fields is a chainable set of structured key/value pairs attached to a log
// entry.
type Fields map[string]interface{}

// With returns a copy of f with key/val merged in, leaving f untouched.
func (f Fields) With(key string, val interface{}) Fields {
	n := make(Fields, len(f)+1)
	for k, v := range f {
		n[k] = v
	}
	n[key] = val
	return n
}

// Logger is the interface every component depends on instead of logrus
// directly, so tests can substitute a recording implementation.
type Logger interface {
	Debug(fields Fields, msg string, args ...interface{})
	Info(fields Fields, msg string, args ...interface{})
	Warn(fields Fields, msg string, args ...interface{})
	Error(fields Fields, msg string, args ...interface{})
	SetLevel(lvl Level)
	Level() Level
}

type logger struct {
	l *logrus.Logger
}

// New builds a Logger sinking to logrus, with level and timestamp format
// taken from the process environment (ZITI_LOG, ZITI_TIME_FORMAT).
func New() Logger {
	l := logrus.New()
	l.SetLevel(LevelFromEnv().toLogrus())

	if os.Getenv("ZITI_TIME_FORMAT") == "utc" {
		l.SetFormatter(&logrus.TextFormatter{
			TimestampFormat: time.RFC3339,
			FullTimestamp:   true,
		})
	} else {
		l.SetFormatter(&elapsedFormatter{start: time.Now(), inner: &logrus.TextFormatter{}})
	}

	return &logger{l: l}
}

func (g *logger) entry(f Fields) *logrus.Entry {
	return g.l.WithFields(logrus.Fields(f))
}

func (g *logger) Debug(f Fields, msg string, args ...interface{}) {
	g.entry(f).Debugf(msg, args...)
}

func (g *logger) Info(f Fields, msg string, args ...interface{}) {
	g.entry(f).Infof(msg, args...)
}

func (g *logger) Warn(f Fields, msg string, args ...interface{}) {
	g.entry(f).Warnf(msg, args...)
}

func (g *logger) Error(f Fields, msg string, args ...interface{}) {
	g.entry(f).Errorf(msg, args...)
}

func (g *logger) SetLevel(lvl Level) {
	g.l.SetLevel(lvl.toLogrus())
}

func (g *logger) Level() Level {
	return Level(g.l.GetLevel())
}

// elapsedFormatter replaces the timestamp with time elapsed since process
// start, used when ZITI_TIME_FORMAT is unset or not "utc".
type elapsedFormatter struct {
	start time.Time
	inner *logrus.TextFormatter
}

func (f *elapsedFormatter) Format(e *logrus.Entry) ([]byte, error) {
	elapsed := e.Time.Sub(f.start).Truncate(time.Millisecond)
	cp := *e
	cp.Message = "+" + elapsed.String() + " " + e.Message
	return f.inner.Format(&cp)
}
