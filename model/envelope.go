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

// Package model carries the typed controller entities and their
// parse/serialize/compare/clone operations. Every entity round-trips
// through the controller's JSON envelope; PostureQuerySet additionally
// has a CBOR Serialize/Parse pair.
package model

import "encoding/json"

// APIError is the `error` member of the controller's response envelope.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Envelope is the generic `{meta, data, error}` wrapper every controller
// response is shaped as.
type Envelope struct {
	Meta  json.RawMessage `json:"meta"`
	Data  json.RawMessage `json:"data"`
	Error *APIError       `json:"error,omitempty"`
}

// ParseEnvelope decodes the outer envelope without touching Data, leaving
// the caller to unmarshal Data into whatever type the request expected.
func ParseEnvelope(body []byte) (*Envelope, error) {
	e := &Envelope{}
	if err := json.Unmarshal(body, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Into unmarshals the envelope's Data member into v.
func (e *Envelope) Into(v interface{}) error {
	if e.Data == nil {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}
