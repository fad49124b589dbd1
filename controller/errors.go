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

import liberr "github.com/nabbar/edge-sdk/errors"

var base = liberr.MinPkgCode()

const (
	ErrInvalidURL = base + iota + 1
	ErrBuildRequest
	ErrSendRequest
	ErrReadBody
	ErrDecodeBody
	ErrUnexpectedStatus
	ErrEnvelopeError
	ErrNotAuthorized
	ErrUnavailable
)

func init() {
	liberr.Register(ErrInvalidURL, liberr.KindInvalidConfig, "invalid controller URL")
	liberr.Register(ErrBuildRequest, liberr.KindWTF, "unable to build controller request")
	liberr.Register(ErrSendRequest, liberr.KindControllerUnavailable, "controller request failed")
	liberr.Register(ErrReadBody, liberr.KindControllerUnavailable, "unable to read controller response body")
	liberr.Register(ErrDecodeBody, liberr.KindWTF, "unable to decode controller response body")
	liberr.Register(ErrUnexpectedStatus, liberr.KindControllerUnavailable, "unexpected controller response status")
	liberr.Register(ErrEnvelopeError, liberr.KindWTF, "controller returned an error envelope")
	liberr.Register(ErrNotAuthorized, liberr.KindNotAuthorized, "controller rejected the API session")
	liberr.Register(ErrUnavailable, liberr.KindControllerUnavailable, "controller unavailable")
}

// codeForEnvelope maps the controller's string error code to a taxonomy
// Kind, grouping the subset of codes the SDK reacts to and falling back to
// KindWTF for anything it doesn't recognize.
func codeForEnvelope(code string) liberr.Kind {
	switch code {
	case "UNAUTHORIZED", "INVALID_AUTHENTICATION", "INVALID_AUTH", "EXPIRED_API_SESSION", "COULD_NOT_VALIDATE":
		return liberr.KindNotAuthorized
	case "NOT_FOUND", "SERVICE_NOT_FOUND", "NETWORK_SESSION_NOT_FOUND":
		return liberr.KindServiceUnavailable
	case "NO_EDGE_ROUTERS_AVAILABLE":
		return liberr.KindGatewayUnavailable
	case "UNAVAILABLE":
		return liberr.KindControllerUnavailable
	default:
		return liberr.KindWTF
	}
}
