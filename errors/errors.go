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

package errors

import (
	"fmt"
	"strings"
)

type ers struct {
	code CodeError
	kind Kind
	msg  string
	file string
	line int
	fn   string
	p    []error
}

func (e *ers) Code() CodeError {
	return e.code
}

func (e *ers) Kind() Kind {
	return e.kind
}

func (e *ers) IsCode(code CodeError) bool {
	return e.code == code
}

func (e *ers) HasCode(code CodeError) bool {
	if e.IsCode(code) {
		return true
	}
	for _, p := range e.p {
		if er, ok := p.(Error); ok && er.HasCode(code) {
			return true
		}
	}
	return false
}

func (e *ers) Is(err error) bool {
	if err == nil {
		return false
	}
	if er, ok := err.(Error); ok {
		if e.code != 0 && er.Code() != 0 {
			return e.code == er.Code()
		}
		return strings.EqualFold(e.msg, er.Error())
	}
	return strings.EqualFold(e.msg, err.Error())
}

func (e *ers) Add(parents ...error) {
	for _, p := range parents {
		if p == nil {
			continue
		}
		e.p = append(e.p, p)
	}
}

func (e *ers) Parents() []error {
	return e.p
}

func (e *ers) Trace() string {
	if e.file != "" {
		return fmt.Sprintf("%s:%d", e.file, e.line)
	}
	return e.fn
}

func (e *ers) Unwrap() []error {
	if len(e.p) < 1 {
		return nil
	}
	return e.p
}

func (e *ers) Error() string {
	if len(e.p) == 0 {
		return e.msg
	}
	parts := make([]string, 0, len(e.p)+1)
	parts = append(parts, e.msg)
	for _, p := range e.p {
		parts = append(parts, p.Error())
	}
	return strings.Join(parts, ": ")
}
