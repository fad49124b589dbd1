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

package config

import (
	"encoding/json"

	"github.com/mitchellh/mapstructure"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// DecodeServiceType decodes the raw JSON of a single service config_types
// entry into out, which must be a pointer to a struct tagged with
// `mapstructure`. This is how a caller turns the free-form, per-service-type
// config blob (e.g. an "intercept.v1" or "host.v1" entry) into a concrete
// type without the SDK needing to know its shape up front.
func DecodeServiceType(raw json.RawMessage, out interface{}) liberr.Error {
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return ErrMapType.Error(err)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return ErrMapType.Error(err)
	}
	if err := dec.Decode(generic); err != nil {
		return ErrMapType.Error(err)
	}
	return nil
}
