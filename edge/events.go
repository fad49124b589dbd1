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

import (
	"github.com/nabbar/edge-sdk/model"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// CtrlStatus is the last-observed reachability of the controller, as
// distinct from per-request errors: it only changes, and is only ever
// reported, on a genuine status transition.
type CtrlStatus uint8

const (
	CtrlStatusUnknown CtrlStatus = iota
	CtrlStatusAvailable
	CtrlStatusUnavailable
	CtrlStatusNotAuthorized
	CtrlStatusDisabled
)

func (s CtrlStatus) String() string {
	switch s {
	case CtrlStatusAvailable:
		return "AVAILABLE"
	case CtrlStatusUnavailable:
		return "UNAVAILABLE"
	case CtrlStatusNotAuthorized:
		return "NOT_AUTHORIZED"
	case CtrlStatusDisabled:
		return "DISABLED"
	default:
		return "UNKNOWN"
	}
}

// ContextEvent reports a controller-reachability status transition.
type ContextEvent struct {
	CtrlStatus CtrlStatus
	Err        liberr.Error
}

// ServiceEvent reports one round of service-catalog synchronization. The
// three slices are disjoint and their union is the symmetric difference of
// the old and new catalogs.
type ServiceEvent struct {
	Added   []model.Service
	Changed []model.Service
	Removed []model.Service
}

// RouterEvent reports an edge-router channel's connectivity status.
type RouterEvent struct {
	Name    string
	Address string
	Version string
	Status  channelStatus
}

type channelStatus uint8

const (
	RouterStatusConnecting channelStatus = iota
	RouterStatusConnected
	RouterStatusDisconnected
	RouterStatusClosed
)

func (s channelStatus) String() string {
	switch s {
	case RouterStatusConnecting:
		return "CONNECTING"
	case RouterStatusConnected:
		return "CONNECTED"
	case RouterStatusDisconnected:
		return "DISCONNECTED"
	case RouterStatusClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// AuthAction distinguishes a hard authentication failure from a pending
// additional-factor requirement the controller envelope's error.code can
// signal. Only AuthActionNone is emitted today; the others are reserved.
type AuthAction uint8

const (
	AuthActionNone AuthAction = iota
	AuthActionPartial
	AuthActionRequired
)

// AuthEvent reports the outcome of an authentication attempt.
type AuthEvent struct {
	Action AuthAction
	Err    liberr.Error
}

// Event is the union every subscriber channel receives; exactly one of
// the typed fields is non-nil per delivery.
type Event struct {
	Context *ContextEvent
	Service *ServiceEvent
	Router  *RouterEvent
	Auth    *AuthEvent
}
