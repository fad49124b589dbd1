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
	"encoding/json"
	"time"
)

// Session is the controller's API session: the authentication token and
// its lifetime.
type Session struct {
	Id                 string     `json:"id"`
	Token              string     `json:"token"`
	ExpiresAt          time.Time  `json:"expiresAt"`
	Identity           Identity   `json:"identity"`
	CachedLastActivity *time.Time `json:"cachedLastActivityAt,omitempty"`
	Updated            time.Time  `json:"updatedAt"`
}

// Expired reports whether the session's expiry has passed as of now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

func (s Session) Compare(o Session) int {
	if c := strCompare(s.Id, o.Id); c != 0 {
		return c
	}
	if c := strCompare(s.Token, o.Token); c != 0 {
		return c
	}
	if c := s.Identity.Compare(o.Identity); c != 0 {
		return c
	}
	if !s.ExpiresAt.Equal(o.ExpiresAt) {
		if s.ExpiresAt.Before(o.ExpiresAt) {
			return -1
		}
		return 1
	}
	return 0
}

func (s Session) Clone() Session {
	c := s
	if s.CachedLastActivity != nil {
		t := *s.CachedLastActivity
		c.CachedLastActivity = &t
	}
	return c
}

func (s Session) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

func ParseSession(data []byte) (Session, error) {
	var s Session
	err := json.Unmarshal(data, &s)
	return s, err
}
