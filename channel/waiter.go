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

package channel

import (
	"sync"
	"time"

	"github.com/nabbar/edge-sdk/frame"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// waiter is a registered send_for_reply callback, fired exactly once
// either by a matching inbound reply, by its own deadline, or by the
// channel closing.
type waiter struct {
	fired    bool
	cb       func(frame.Frame, liberr.Error)
	deadline time.Time
	timer    *time.Timer
}

type waiterTable struct {
	mu sync.Mutex
	m  map[uint32]*waiter
}

func newWaiterTable() *waiterTable {
	return &waiterTable{m: make(map[uint32]*waiter)}
}

// Register adds a waiter for replySeq, arming a timer that fires the
// callback with ErrWaiterTimeout once timeout elapses.
func (t *waiterTable) Register(replySeq uint32, timeout time.Duration, cb func(frame.Frame, liberr.Error)) {
	w := &waiter{cb: cb, deadline: time.Now().Add(timeout)}

	t.mu.Lock()
	t.m[replySeq] = w
	t.mu.Unlock()

	w.timer = time.AfterFunc(timeout, func() {
		t.fire(replySeq, frame.Frame{}, ErrWaiterTimeout.Error())
	})
}

// Resolve fires the waiter registered for f's reply-for sequence, if
// any, with a nil error.
func (t *waiterTable) Resolve(replySeq uint32, f frame.Frame) bool {
	return t.fire(replySeq, f, nil)
}

func (t *waiterTable) fire(replySeq uint32, f frame.Frame, err liberr.Error) bool {
	t.mu.Lock()
	w, ok := t.m[replySeq]
	if ok {
		delete(t.m, replySeq)
	}
	t.mu.Unlock()

	if !ok || w.fired {
		return false
	}
	w.fired = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.cb(f, err)
	return true
}

// CloseAll fires every outstanding waiter with ErrAlreadyClosed, exactly
// once each, then empties the table.
func (t *waiterTable) CloseAll() {
	t.mu.Lock()
	waiters := t.m
	t.m = make(map[uint32]*waiter)
	t.mu.Unlock()

	for seq, w := range waiters {
		if w.fired {
			continue
		}
		w.fired = true
		if w.timer != nil {
			w.timer.Stop()
		}
		w.cb(frame.Frame{}, ErrAlreadyClosed.Error())
		_ = seq
	}
}
