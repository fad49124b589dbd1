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
	"math/rand"
	"time"
)

// Backoff computes reconnect delays: exponential growth from Initial,
// doubling on every attempt, capped at Ceiling, with up to ±Jitter
// fraction of randomness layered on top so a fleet of channels
// reconnecting to the same router don't all retry in lockstep.
type Backoff struct {
	Initial time.Duration
	Ceiling time.Duration
	Jitter  float64
}

// DefaultBackoff is the reconnect schedule New gives every channel:
// 250ms initial, doubling, 30s ceiling, ±20% jitter. Channel has no
// option to replace it.
func DefaultBackoff() Backoff {
	return Backoff{Initial: 250 * time.Millisecond, Ceiling: 30 * time.Second, Jitter: 0.2}
}

// Delay returns the delay before reconnect attempt number n (1-indexed).
func (b Backoff) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := b.Initial
	for i := 1; i < n; i++ {
		d *= 2
		if d > b.Ceiling {
			d = b.Ceiling
			break
		}
	}
	if d > b.Ceiling {
		d = b.Ceiling
	}

	if b.Jitter <= 0 {
		return d
	}
	spread := float64(d) * b.Jitter
	delta := (rand.Float64()*2 - 1) * spread
	out := time.Duration(float64(d) + delta)
	if out < 0 {
		out = 0
	}
	return out
}
