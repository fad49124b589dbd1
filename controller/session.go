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

package controller

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/nabbar/edge-sdk/model"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// SessionMinter collapses concurrent CreateNetworkSession calls for the same
// service into a single controller round trip, so N goroutines dialing the
// same service at once produce one POST /sessions rather than N.
type SessionMinter struct {
	c  Client
	sf singleflight.Group
}

func NewSessionMinter(c Client) *SessionMinter {
	return &SessionMinter{c: c}
}

func (m *SessionMinter) Mint(ctx context.Context, serviceId, sessionType string) (model.NetworkSession, liberr.Error) {
	key := sessionType + ":" + serviceId

	v, err, _ := m.sf.Do(key, func() (interface{}, error) {
		n, e := m.c.CreateNetworkSession(ctx, serviceId, sessionType)
		if e != nil {
			return n, e
		}
		return n, nil
	})

	if err != nil {
		if le, ok := err.(liberr.Error); ok {
			return model.NetworkSession{}, le
		}
		return model.NetworkSession{}, ErrSendRequest.Error(err)
	}
	return v.(model.NetworkSession), nil
}
