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

// Package certs builds a *tls.Config from the identity block of a
// configuration file: ca/cert/key, each given as inline PEM, a
// filesystem reference, or (key only) a PKCS#11 token reference.
package certs

import (
	"net/url"
	"os"
	"strings"

	liberr "github.com/nabbar/edge-sdk/errors"
)

func cleanPEM(s string) []byte {
	return []byte(strings.TrimSpace(s))
}

// resolveSource returns the raw bytes a `pem:` or `file://` reference
// points to.
func resolveSource(raw string) ([]byte, liberr.Error) {
	switch {
	case strings.HasPrefix(raw, "pem:"):
		return cleanPEM(strings.TrimPrefix(raw, "pem:")), nil

	case strings.HasPrefix(raw, "file://"):
		u, err := url.Parse(raw)
		if err != nil {
			return nil, ErrReadSource.Error(err)
		}
		b, err := os.ReadFile(u.Path)
		if err != nil {
			return nil, ErrReadSource.Error(err)
		}
		return cleanPEM(string(b)), nil

	default:
		// bare strings are treated as inline PEM after trying the value as
		// a file path first and falling back to the value itself.
		if b, err := os.ReadFile(raw); err == nil {
			return cleanPEM(string(b)), nil
		}
		return cleanPEM(raw), nil
	}
}

// PKCS11Ref is a parsed `pkcs11://path?pin=…&slot=…&id=…` key reference.
type PKCS11Ref struct {
	Path string
	Pin  string
	Slot string
	Id   string
}

func parsePKCS11(raw string) (PKCS11Ref, liberr.Error) {
	u, err := url.Parse(raw)
	if err != nil {
		return PKCS11Ref{}, ErrInvalidScheme.Error(err)
	}
	q := u.Query()
	return PKCS11Ref{
		Path: u.Host + u.Path,
		Pin:  q.Get("pin"),
		Slot: q.Get("slot"),
		Id:   q.Get("id"),
	}, nil
}
