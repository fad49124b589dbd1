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

package model

import (
	"encoding/json"
	"sort"
)

// NetworkSession is the controller-issued token authorizing a dial or bind
// against one service, plus the set of edge routers that will honor it.
type NetworkSession struct {
	Id          string          `json:"id"`
	Token       string          `json:"token"`
	Type        string          `json:"type"`
	ServiceId   string          `json:"serviceId"`
	EdgeRouters []EdgeRouterRef `json:"edgeRouters"`
}

// RouterFor picks the first listed router advertising the given protocol.
// Network sessions may list several routers; callers needing fan-out or
// latency-based selection should range over EdgeRouters directly.
func (n NetworkSession) RouterFor(protocol string) (EdgeRouterRef, bool) {
	for _, r := range n.EdgeRouters {
		if _, ok := r.URLFor(protocol); ok {
			return r, true
		}
	}
	return EdgeRouterRef{}, false
}

func (n NetworkSession) Compare(o NetworkSession) int {
	if c := strCompare(n.Id, o.Id); c != 0 {
		return c
	}
	if c := strCompare(n.Token, o.Token); c != 0 {
		return c
	}
	if c := strCompare(n.Type, o.Type); c != 0 {
		return c
	}
	if c := strCompare(n.ServiceId, o.ServiceId); c != 0 {
		return c
	}
	if len(n.EdgeRouters) != len(o.EdgeRouters) {
		return len(n.EdgeRouters) - len(o.EdgeRouters)
	}
	a := append([]EdgeRouterRef(nil), n.EdgeRouters...)
	b := append([]EdgeRouterRef(nil), o.EdgeRouters...)
	sort.Slice(a, func(i, j int) bool { return a[i].Name < a[j].Name })
	sort.Slice(b, func(i, j int) bool { return b[i].Name < b[j].Name })
	for i := range a {
		if c := a[i].Compare(b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (n NetworkSession) Clone() NetworkSession {
	c := n
	if n.EdgeRouters != nil {
		c.EdgeRouters = make([]EdgeRouterRef, len(n.EdgeRouters))
		for i, r := range n.EdgeRouters {
			c.EdgeRouters[i] = r.Clone()
		}
	}
	return c
}

func (n NetworkSession) Serialize() ([]byte, error) {
	return json.Marshal(n)
}

func ParseNetworkSession(data []byte) (NetworkSession, error) {
	var n NetworkSession
	err := json.Unmarshal(data, &n)
	return n, err
}
