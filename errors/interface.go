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

// Package errors provides the numeric-coded error taxonomy shared by every
// component of the edge SDK (controller, channel, connection, frame, and
// the root context package).
//
// Every error carries a CodeError (an HTTP-status-like uint16), an optional
// chain of parent errors, and the file:line it was created at. Packages
// register their own code range and message table at init() time so that
// Code().Message() and Error() never depend on an import cycle back to the
// owning package.
package errors

import (
	"fmt"
	"runtime"
)

// Kind is the closed taxonomy of error classes. Every CodeError a
// component registers maps to exactly one Kind via Register.
type Kind uint8

const (
	KindOK Kind = iota
	KindConfigNotFound
	KindInvalidConfig
	KindNotAuthorized
	KindControllerUnavailable
	KindGatewayUnavailable
	KindServiceUnavailable
	KindEOF
	KindTimeout
	KindConnClosed
	KindInvalidState
	KindCryptoFailure
	KindDisabled
	KindWTF
)

func (k Kind) String() string {
	switch k {
	case KindOK:
		return "OK"
	case KindConfigNotFound:
		return "CONFIG_NOT_FOUND"
	case KindInvalidConfig:
		return "INVALID_CONFIG"
	case KindNotAuthorized:
		return "NOT_AUTHORIZED"
	case KindControllerUnavailable:
		return "CONTROLLER_UNAVAILABLE"
	case KindGatewayUnavailable:
		return "GATEWAY_UNAVAILABLE"
	case KindServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	case KindEOF:
		return "EOF"
	case KindTimeout:
		return "TIMEOUT"
	case KindConnClosed:
		return "CONN_CLOSED"
	case KindInvalidState:
		return "INVALID_STATE"
	case KindCryptoFailure:
		return "CRYPTO_FAILURE"
	case KindDisabled:
		return "DISABLED"
	default:
		return "WTF"
	}
}

// CodeError is a package-scoped numeric error code, similar in spirit to an
// HTTP status code: packages reserve a contiguous range via MinPkgCode and
// register human messages for the codes they raise.
type CodeError uint16

// Message renders a CodeError's registered text, or "unregistered error
// code" if nothing registered it.
func (c CodeError) Message() string {
	if f, ok := registry[c]; ok {
		return f.text
	}
	return "unregistered error code"
}

// Kind returns the taxonomy Kind a code was registered under, or KindWTF if
// the code was never registered.
func (c CodeError) Kind() Kind {
	if f, ok := registry[c]; ok {
		return f.kind
	}
	return KindWTF
}

// Error builds a new Error value from this code, optionally wrapping one or
// more parent errors.
func (c CodeError) Error(parents ...error) Error {
	return newErr(c, parents...)
}

// Errorf is Error with a fmt.Sprintf-formatted message appended to the
// registered one.
func (c CodeError) Errorf(format string, args ...interface{}) Error {
	e := newErr(c)
	e.msg = e.msg + ": " + fmt.Sprintf(format, args...)
	return e
}

// Error is the edge SDK's error type: a CodeError, a message, a capture
// site, and zero or more parent errors.
type Error interface {
	error

	// Code returns the numeric code this error was created with.
	Code() CodeError
	// Kind returns the taxonomy class this error's code belongs to.
	Kind() Kind
	// Is reports whether this error matches err either by identical code
	// or, for plain errors, by message equality. Parents are not checked
	// here; errors.Is reaches them through Unwrap.
	Is(err error) bool
	// IsCode reports whether this error's own code equals code.
	IsCode(code CodeError) bool
	// HasCode reports whether this error or any parent has code.
	HasCode(code CodeError) bool
	// Add appends parent errors to this error's chain.
	Add(parents ...error)
	// Parents returns the direct parent chain in the order it was added.
	Parents() []error
	// Trace returns "file:line" of the call site that created this error.
	Trace() string
	// Unwrap supports errors.Is / errors.As against the parent chain.
	Unwrap() []error
}

type msgEntry struct {
	text string
	kind Kind
}

var registry = make(map[CodeError]msgEntry)

// nextPkgBase is bumped by 1000 each time a component calls MinPkgCode, so
// packages never collide on numeric ranges without having to coordinate.
var nextPkgBase uint16 = 1000

// MinPkgCode reserves the next 1000-wide code range for a calling package
// and returns its base. Call once from a package-level var initializer,
// e.g. `var base = errors.MinPkgCode()` then `const FooFailed = base + 1`.
func MinPkgCode() CodeError {
	b := nextPkgBase
	nextPkgBase += 1000
	return CodeError(b)
}

// Register associates a CodeError with display text and a taxonomy Kind.
// Intended to be called from a package init() for every code it raises.
func Register(code CodeError, kind Kind, text string) {
	registry[code] = msgEntry{text: text, kind: kind}
}

func newErr(code CodeError, parents ...error) *ers {
	e := &ers{
		code: code,
		msg:  code.Message(),
		kind: code.Kind(),
	}
	if pc, file, line, ok := runtime.Caller(2); ok {
		e.file = file
		e.line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			e.fn = fn.Name()
		}
	}
	e.Add(parents...)
	return e
}

// New builds a bare Error from a Kind with no registered CodeError — used
// by callers that only know the taxonomy Kind (e.g. mapping a controller
// error string, see the controller package).
func New(kind Kind, msg string, parents ...error) Error {
	e := &ers{code: 0, kind: kind, msg: msg}
	if pc, file, line, ok := runtime.Caller(1); ok {
		e.file = file
		e.line = line
		if fn := runtime.FuncForPC(pc); fn != nil {
			e.fn = fn.Name()
		}
	}
	e.Add(parents...)
	return e
}
