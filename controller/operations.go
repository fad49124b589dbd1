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

import (
	"context"

	"github.com/nabbar/edge-sdk/model"

	liberr "github.com/nabbar/edge-sdk/errors"
)

type versionBody struct {
	Version string `json:"version"`
}

func (c *client) Version(ctx context.Context) (string, liberr.Error) {
	var v versionBody
	if err := c.do(ctx, "GET", "/version", nil, &v); err != nil {
		return "", err
	}
	return v.Version, nil
}

func (c *client) Authenticate(ctx context.Context, method string, creds interface{}) (model.Session, liberr.Error) {
	var s model.Session
	path := "/authenticate?method=" + method
	if err := c.do(ctx, "POST", path, creds, &s, 200); err != nil {
		return model.Session{}, err
	}
	c.SetSessionToken(s.Token)
	return s, nil
}

func (c *client) CurrentAPISession(ctx context.Context) (model.Session, liberr.Error) {
	var s model.Session
	err := c.do(ctx, "GET", "/current-api-session", nil, &s)
	return s, err
}

func (c *client) Logout(ctx context.Context) liberr.Error {
	err := c.do(ctx, "DELETE", "/current-api-session", nil, nil, 200)
	c.SetSessionToken("")
	return err
}

func (c *client) CurrentIdentity(ctx context.Context) (model.Identity, liberr.Error) {
	var i model.Identity
	err := c.do(ctx, "GET", "/current-identity", nil, &i)
	return i, err
}

func (c *client) ListServices(ctx context.Context) ([]model.Service, liberr.Error) {
	var s []model.Service
	err := c.do(ctx, "GET", "/services", nil, &s)
	return s, err
}

func (c *client) GetService(ctx context.Context, idOrName string) (model.Service, liberr.Error) {
	var s model.Service
	err := c.do(ctx, "GET", "/services/"+idOrName, nil, &s)
	return s, err
}

type servicesUpdateBody struct {
	LastChangeAt string `json:"lastChangeAt"`
}

// ServicesUpdate polls the cheap service-catalog change marker. Controllers
// that predate this endpoint answer 404 with a NOT_FOUND envelope, which
// codeForEnvelope maps to KindServiceUnavailable; callers use that to fall
// back to an unconditional ListServices poll instead of treating it as a
// hard failure.
func (c *client) ServicesUpdate(ctx context.Context) (string, liberr.Error) {
	var u servicesUpdateBody
	err := c.do(ctx, "GET", "/current-api-session/service-updates", nil, &u, 200, 404)
	return u.LastChangeAt, err
}

type createNetSessionBody struct {
	ServiceId string `json:"serviceId"`
	Type      string `json:"type"`
}

func (c *client) CreateNetworkSession(ctx context.Context, serviceId, sessionType string) (model.NetworkSession, liberr.Error) {
	var n model.NetworkSession
	body := createNetSessionBody{ServiceId: serviceId, Type: sessionType}
	err := c.do(ctx, "POST", "/sessions", body, &n, 200, 201)
	return n, err
}

func (c *client) ListNetworkSessions(ctx context.Context) ([]model.NetworkSession, liberr.Error) {
	var n []model.NetworkSession
	err := c.do(ctx, "GET", "/sessions", nil, &n)
	return n, err
}

func (c *client) ListCurrentEdgeRouters(ctx context.Context) ([]model.EdgeRouterRef, liberr.Error) {
	var r []model.EdgeRouterRef
	err := c.do(ctx, "GET", "/current-api-session/edge-routers", nil, &r)
	return r, err
}
