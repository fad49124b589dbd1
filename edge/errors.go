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

package edge

import liberr "github.com/nabbar/edge-sdk/errors"

var base = liberr.MinPkgCode()

const (
	ErrNotEnabled = base + iota + 1
	ErrAlreadyEnabled
	ErrServiceNotFound
	ErrNoRouterAvailable
	ErrDialFailed
	ErrNotBound
	ErrUnknownConn
)

func init() {
	liberr.Register(ErrNotEnabled, liberr.KindDisabled, "context is not enabled")
	liberr.Register(ErrAlreadyEnabled, liberr.KindInvalidState, "context is already enabled")
	liberr.Register(ErrServiceNotFound, liberr.KindServiceUnavailable, "service not found in catalog")
	liberr.Register(ErrNoRouterAvailable, liberr.KindGatewayUnavailable, "no edge router available for network session")
	liberr.Register(ErrDialFailed, liberr.KindServiceUnavailable, "dial rejected by edge router")
	liberr.Register(ErrNotBound, liberr.KindInvalidState, "connection is not a bound listener")
	liberr.Register(ErrUnknownConn, liberr.KindInvalidState, "unknown connection id")
}
