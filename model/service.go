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
	"bytes"
	"encoding/json"
	"sort"
)

// Permission is the dial/bind authorization bit-set a Service carries.
type Permission struct {
	Dial bool `json:"dial"`
	Bind bool `json:"bind"`
}

// Service is a catalog entry a context dials or binds against.
type Service struct {
	Id                 string                     `json:"id"`
	Name               string                     `json:"name"`
	Permission         Permission                 `json:"permission"`
	EncryptionRequired bool                       `json:"encryptionRequired"`
	Config             map[string]json.RawMessage `json:"config,omitempty"`
	PostureQuerySets   []PostureQuerySet          `json:"postureQueries,omitempty"`
}

// Available reports whether the service grants the requested permission
// (dial or bind), backing the public ServiceAvailable operation.
func (s Service) Available(dial bool) bool {
	if dial {
		return s.Permission.Dial
	}
	return s.Permission.Bind
}

// Compare returns 0 iff every field compares structurally equal. Map and
// slice fields are compared independent of iteration/declaration order,
// since JSON object key order and controller-returned slice order are not
// semantically meaningful.
func (s Service) Compare(o Service) int {
	if c := strCompare(s.Id, o.Id); c != 0 {
		return c
	}
	if c := strCompare(s.Name, o.Name); c != 0 {
		return c
	}
	if s.Permission != o.Permission {
		return boolPairCompare(s.Permission, o.Permission)
	}
	if s.EncryptionRequired != o.EncryptionRequired {
		if !s.EncryptionRequired {
			return -1
		}
		return 1
	}
	if c := compareConfigMaps(s.Config, o.Config); c != 0 {
		return c
	}
	return comparePostureSets(s.PostureQuerySets, o.PostureQuerySets)
}

func boolPairCompare(a, b Permission) int {
	if a.Dial != b.Dial {
		if !a.Dial {
			return -1
		}
		return 1
	}
	if !a.Bind {
		return -1
	}
	return 1
}

func compareConfigMaps(a, b map[string]json.RawMessage) int {
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
		if !bytes.Equal(canonicalize(a[k]), canonicalize(bv)) {
			return strCompare(string(a[k]), string(bv))
		}
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			return -1
		}
	}
	return 0
}

func canonicalize(raw json.RawMessage) []byte {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return raw
	}
	out, err := json.Marshal(v)
	if err != nil {
		return raw
	}
	return out
}

func comparePostureSets(a, b []PostureQuerySet) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	sa := append([]PostureQuerySet(nil), a...)
	sb := append([]PostureQuerySet(nil), b...)
	sort.Slice(sa, func(i, j int) bool { return sa[i].PolicyId < sa[j].PolicyId })
	sort.Slice(sb, func(i, j int) bool { return sb[i].PolicyId < sb[j].PolicyId })
	for i := range sa {
		if c := sa[i].Compare(sb[i]); c != 0 {
			return c
		}
	}
	return 0
}

func (s Service) Clone() Service {
	c := s
	if s.Config != nil {
		c.Config = make(map[string]json.RawMessage, len(s.Config))
		for k, v := range s.Config {
			cp := make(json.RawMessage, len(v))
			copy(cp, v)
			c.Config[k] = cp
		}
	}
	if s.PostureQuerySets != nil {
		c.PostureQuerySets = make([]PostureQuerySet, len(s.PostureQuerySets))
		for i, p := range s.PostureQuerySets {
			c.PostureQuerySets[i] = p.Clone()
		}
	}
	return c
}

func (s Service) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

func ParseService(data []byte) (Service, error) {
	var s Service
	err := json.Unmarshal(data, &s)
	return s, err
}
