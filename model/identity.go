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

import "encoding/json"

// Identity is the controller's `current-identity` record, as referenced by
// a Session.
type Identity struct {
	Id              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	DefaultHostname string `json:"defaultHostingPrecedence,omitempty"`
}

func (i Identity) Compare(o Identity) int {
	if i.Id != o.Id {
		return strCompare(i.Id, o.Id)
	}
	if i.Name != o.Name {
		return strCompare(i.Name, o.Name)
	}
	if i.Type != o.Type {
		return strCompare(i.Type, o.Type)
	}
	return 0
}

func (i Identity) Clone() Identity {
	return i
}

func (i Identity) Serialize() ([]byte, error) {
	return json.Marshal(i)
}

func ParseIdentity(data []byte) (Identity, error) {
	var i Identity
	err := json.Unmarshal(data, &i)
	return i, err
}

func strCompare(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
