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

// Package config loads and validates the JSON document an edge SDK context
// is initialized from: the controller URL, the identity (ca/cert/key), and
// the list of service config_types the caller wants decoded.
package config

import (
	"bytes"
	"crypto/tls"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/nabbar/edge-sdk/certs"
	liberr "github.com/nabbar/edge-sdk/errors"
)

// Config is the top-level shape of the configuration file: controller_url,
// id{ca,cert,key}, and the optional config_types allow-list.
type Config struct {
	ControllerURL string         `mapstructure:"controller_url" json:"controller_url" validate:"required,url"`
	Id            certs.Identity `mapstructure:"id" json:"id" validate:"required"`
	ConfigTypes   []string       `mapstructure:"config_types" json:"config_types,omitempty"`
}

var validate = validator.New()

// Load reads a JSON configuration document from r and validates it.
func Load(r io.Reader) (Config, liberr.Error) {
	v := viper.New()
	v.SetConfigType("json")

	if err := v.ReadConfig(r); err != nil {
		return Config{}, ErrDecode.Error(err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, ErrDecode.Error(err)
	}

	if err := validate.Struct(cfg); err != nil {
		return Config{}, ErrValidate.Error(err)
	}

	return cfg, nil
}

// LoadBytes is a convenience wrapper around Load for already-loaded bytes.
func LoadBytes(b []byte) (Config, liberr.Error) {
	return Load(bytes.NewReader(b))
}

// TLSConfig resolves the identity block into a client *tls.Config.
func (c Config) TLSConfig() (*tls.Config, liberr.Error) {
	return c.Id.TLSConfig()
}

// WantsConfigType reports whether name is present in ConfigTypes, or true
// if ConfigTypes is empty (no filtering configured).
func (c Config) WantsConfigType(name string) bool {
	if len(c.ConfigTypes) == 0 {
		return true
	}
	for _, t := range c.ConfigTypes {
		if t == name {
			return true
		}
	}
	return false
}
