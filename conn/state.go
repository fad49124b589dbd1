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

// Package conn implements the per-logical-connection state machine
// multiplexed over an edge-router channel: dial/bind/accept lifecycle,
// half-close tracking, and an optional AEAD secret-stream layered over
// the connection's data frames.
package conn

// State is a logical connection's lifecycle stage.
type State uint8

const (
	StateInitial State = iota
	StateConnecting
	StateConnected
	StateBinding
	StateBound
	StateAccepting
	StateTimedout
	StateCloseWrite
	StateDisconnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateInitial:
		return "Initial"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Connected"
	case StateBinding:
		return "Binding"
	case StateBound:
		return "Bound"
	case StateAccepting:
		return "Accepting"
	case StateTimedout:
		return "Timedout"
	case StateCloseWrite:
		return "CloseWrite"
	case StateDisconnected:
		return "Disconnected"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// terminal reports whether no further transitions leave this state.
func (s State) terminal() bool {
	return s == StateClosed
}

// transitions enumerates every state's legal successor set. A
// Connection.transition call outside this table fails with
// ErrInvalidState.
var transitions = map[State]map[State]bool{
	StateInitial:      {StateConnecting: true, StateBinding: true, StateClosed: true},
	StateConnecting:   {StateConnected: true, StateTimedout: true, StateDisconnected: true, StateClosed: true},
	StateConnected:    {StateCloseWrite: true, StateDisconnected: true, StateClosed: true},
	StateBinding:      {StateBound: true, StateDisconnected: true, StateClosed: true},
	StateBound:        {StateAccepting: true, StateDisconnected: true, StateClosed: true},
	StateAccepting:    {StateConnected: true, StateCloseWrite: true, StateDisconnected: true, StateClosed: true},
	StateTimedout:     {StateClosed: true},
	StateCloseWrite:   {StateDisconnected: true, StateClosed: true},
	StateDisconnected: {StateClosed: true},
	StateClosed:       {},
}
