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

// Package controller implements the typed REST operations a context uses
// to authenticate, enumerate services, and mint network sessions against
// an overlay controller. Every operation builds a Request, sends it, and
// decodes the {meta,data,error} envelope into a typed model value.
package controller

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nabbar/edge-sdk/model"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// FctHTTPClient lazily resolves the *http.Client a Client sends requests
// with, letting callers swap transports (e.g. after a TLS config reload)
// without recreating the Client.
type FctHTTPClient func() *http.Client

// Client is the controller-facing REST surface.
type Client interface {
	BaseURL() *url.URL
	SetSessionToken(token string)
	SessionToken() string

	Version(ctx context.Context) (version string, err liberr.Error)
	Authenticate(ctx context.Context, method string, creds interface{}) (model.Session, liberr.Error)
	CurrentAPISession(ctx context.Context) (model.Session, liberr.Error)
	Logout(ctx context.Context) liberr.Error
	CurrentIdentity(ctx context.Context) (model.Identity, liberr.Error)

	ListServices(ctx context.Context) ([]model.Service, liberr.Error)
	GetService(ctx context.Context, idOrName string) (model.Service, liberr.Error)
	ServicesUpdate(ctx context.Context) (lastChange string, err liberr.Error)

	CreateNetworkSession(ctx context.Context, serviceId, sessionType string) (model.NetworkSession, liberr.Error)
	ListNetworkSessions(ctx context.Context) ([]model.NetworkSession, liberr.Error)
	ListCurrentEdgeRouters(ctx context.Context) ([]model.EdgeRouterRef, liberr.Error)
}

type client struct {
	m sync.RWMutex

	base  *url.URL
	fct   FctHTTPClient
	token string
}

// New builds a Client against baseURL, sending requests through the
// *http.Client fct returns. tlsCfg, when non-nil, is used to build the
// default client if fct is nil.
func New(baseURL string, tlsCfg *tls.Config, fct FctHTTPClient) (Client, liberr.Error) {
	u, e := url.Parse(baseURL)
	if e != nil || u.Host == "" {
		return nil, ErrInvalidURL.Error(e)
	}

	if fct == nil {
		tr := &http.Transport{TLSClientConfig: tlsCfg}
		hc := &http.Client{Transport: tr, Timeout: 30 * time.Second}
		fct = func() *http.Client { return hc }
	}

	return &client{base: u, fct: fct}, nil
}

func (c *client) BaseURL() *url.URL {
	c.m.RLock()
	defer c.m.RUnlock()
	u := *c.base
	return &u
}

func (c *client) SetSessionToken(token string) {
	c.m.Lock()
	defer c.m.Unlock()
	c.token = token
}

func (c *client) SessionToken() string {
	c.m.RLock()
	defer c.m.RUnlock()
	return c.token
}

func (c *client) endpoint(path string) *url.URL {
	c.m.RLock()
	base := *c.base
	c.m.RUnlock()

	u := base
	u.Path = u.Path + path
	return &u
}

func (c *client) do(ctx context.Context, method, path string, body interface{}, out interface{}, validStatus ...int) liberr.Error {
	var rdr io.Reader
	if body != nil {
		b, e := json.Marshal(body)
		if e != nil {
			return ErrBuildRequest.Error(e)
		}
		rdr = bytes.NewReader(b)
	}

	req, e := http.NewRequestWithContext(ctx, method, c.endpoint(path).String(), rdr)
	if e != nil {
		return ErrBuildRequest.Error(e)
	}
	req.Header.Set("Content-Type", "application/json")
	if tok := c.SessionToken(); tok != "" {
		req.Header.Set("zt-session", tok)
	}

	rsp, e := c.fct().Do(req)
	if e != nil {
		return ErrSendRequest.Error(e)
	}
	defer func() { _ = rsp.Body.Close() }()

	buf := bytes.NewBuffer(nil)
	if _, e = io.Copy(buf, rsp.Body); e != nil {
		return ErrReadBody.Error(e)
	}

	if !isValidStatus(validStatus, rsp.StatusCode) {
		return ErrUnexpectedStatus.Errorf("status %d: %s", rsp.StatusCode, buf.String())
	}

	env, e := model.ParseEnvelope(buf.Bytes())
	if e != nil {
		return ErrDecodeBody.Error(e)
	}
	if env.Error != nil {
		return liberr.New(codeForEnvelope(env.Error.Code), env.Error.Message)
	}
	if out == nil {
		return nil
	}
	if e = env.Into(out); e != nil {
		return ErrDecodeBody.Error(e)
	}
	return nil
}

func isValidStatus(valid []int, got int) bool {
	if len(valid) == 0 {
		return got >= 200 && got < 300
	}
	for _, v := range valid {
		if v == got {
			return true
		}
	}
	return false
}
