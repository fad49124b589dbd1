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
	"sort"

	"github.com/fxamacker/cbor/v2"
)

// PostureQuery is a single named posture signal the controller may require
// for continued authorization on a service (e.g. "process-running",
// "os-version"). Running the underlying posture checks is the host
// application's job; this only carries the query shape for
// display/diagnostics.
type PostureQuery struct {
	Id        string `cbor:"id" json:"id"`
	QueryType string `cbor:"queryType" json:"queryType"`
	IsPassing bool   `cbor:"isPassing" json:"isPassing"`
}

// PostureQuerySet is the set of posture queries gating one service.
type PostureQuerySet struct {
	PolicyId string         `cbor:"policyId" json:"policyId"`
	Queries  []PostureQuery `cbor:"queries" json:"queries"`
}

// Serialize encodes the set with CBOR, a compact binary form. Service
// itself holds its sets as PostureQuerySet values and JSON-encodes them.
func (p PostureQuerySet) Serialize() ([]byte, error) {
	return cbor.Marshal(p)
}

// ParsePostureQuerySet decodes a CBOR-encoded PostureQuerySet.
func ParsePostureQuerySet(data []byte) (PostureQuerySet, error) {
	var p PostureQuerySet
	err := cbor.Unmarshal(data, &p)
	return p, err
}

// Compare reports 0 iff both sets carry the same policy id and query set,
// independent of query order.
func (p PostureQuerySet) Compare(o PostureQuerySet) int {
	if c := strCompare(p.PolicyId, o.PolicyId); c != 0 {
		return c
	}
	if len(p.Queries) != len(o.Queries) {
		return len(p.Queries) - len(o.Queries)
	}

	a := append([]PostureQuery(nil), p.Queries...)
	b := append([]PostureQuery(nil), o.Queries...)
	sortQueries(a)
	sortQueries(b)

	for i := range a {
		if c := strCompare(a[i].Id, b[i].Id); c != 0 {
			return c
		}
		if c := strCompare(a[i].QueryType, b[i].QueryType); c != 0 {
			return c
		}
		if a[i].IsPassing != b[i].IsPassing {
			if !a[i].IsPassing {
				return -1
			}
			return 1
		}
	}
	return 0
}

func (p PostureQuerySet) Clone() PostureQuerySet {
	c := PostureQuerySet{PolicyId: p.PolicyId, Queries: append([]PostureQuery(nil), p.Queries...)}
	return c
}

func sortQueries(q []PostureQuery) {
	sort.Slice(q, func(i, j int) bool { return q[i].Id < q[j].Id })
}
