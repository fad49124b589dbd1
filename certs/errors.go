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

package certs

import liberr "github.com/nabbar/edge-sdk/errors"

var base = liberr.MinPkgCode()

const (
	ErrInvalidScheme = base + iota + 1
	ErrReadSource
	ErrDecodePEM
	ErrKeyPair
	ErrPKCS11Unsupported
	ErrParseCA
)

func init() {
	liberr.Register(ErrInvalidScheme, liberr.KindInvalidConfig, "unrecognized identity source scheme")
	liberr.Register(ErrReadSource, liberr.KindInvalidConfig, "unable to read identity source")
	liberr.Register(ErrDecodePEM, liberr.KindInvalidConfig, "unable to decode PEM block")
	liberr.Register(ErrKeyPair, liberr.KindInvalidConfig, "invalid certificate/key pair")
	liberr.Register(ErrPKCS11Unsupported, liberr.KindDisabled, "pkcs11 key source not built into this binary")
	liberr.Register(ErrParseCA, liberr.KindInvalidConfig, "unable to parse CA bundle")
}
