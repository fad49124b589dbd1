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

// EdgeRouterRef describes one edge router a network session may be dialed
// or bound through.
type EdgeRouterRef struct {
	Name      string            `json:"name"`
	Hostname  string            `json:"hostname"`
	Protocols map[string]string `json:"protocols"`
}

// URLFor returns the dial URL for the given protocol (e.g. "tls") and
// whether the router advertises it.
func (r EdgeRouterRef) URLFor(protocol string) (string, bool) {
	u, ok := r.Protocols[protocol]
	return u, ok
}

func (r EdgeRouterRef) Compare(o EdgeRouterRef) int {
	if c := strCompare(r.Name, o.Name); c != 0 {
		return c
	}
	if c := strCompare(r.Hostname, o.Hostname); c != 0 {
		return c
	}
	return compareStringMaps(r.Protocols, o.Protocols)
}

func compareStringMaps(a, b map[string]string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		bv, ok := b[k]
		if !ok {
			return 1
		}
		if a[k] != bv {
			return strCompare(a[k], bv)
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			return -1
		}
	}
	return 0
}

func (r EdgeRouterRef) Clone() EdgeRouterRef {
	c := r
	if r.Protocols != nil {
		c.Protocols = make(map[string]string, len(r.Protocols))
		for k, v := range r.Protocols {
			c.Protocols[k] = v
		}
	}
	return c
}

func (r EdgeRouterRef) Serialize() ([]byte, error) {
	return json.Marshal(r)
}

func ParseEdgeRouterRef(data []byte) (EdgeRouterRef, error) {
	var r EdgeRouterRef
	err := json.Unmarshal(data, &r)
	return r, err
}
