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

import (
	"crypto/tls"
	"crypto/x509"
	"strings"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// Identity is the `id` block of a configuration file: CA bundle, leaf
// certificate, and private key, each a `pem:`/`file://`/(key-only)
// `pkcs11://` reference.
type Identity struct {
	CA   string `mapstructure:"ca" json:"ca"`
	Cert string `mapstructure:"cert" json:"cert"`
	Key  string `mapstructure:"key" json:"key"`
}

// TLSConfig resolves CA/Cert/Key into a ready-to-use client *tls.Config.
func (i Identity) TLSConfig() (*tls.Config, liberr.Error) {
	pool := x509.NewCertPool()
	if i.CA != "" {
		ca, err := resolveSource(i.CA)
		if err != nil {
			return nil, err
		}
		if !pool.AppendCertsFromPEM(ca) {
			return nil, ErrParseCA.Error()
		}
	}

	cert, err := i.keyPair()
	if err != nil {
		return nil, err
	}

	return &tls.Config{
		RootCAs:      pool,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (i Identity) keyPair() (tls.Certificate, liberr.Error) {
	if strings.HasPrefix(i.Key, "pkcs11://") {
		return tls.Certificate{}, ErrPKCS11Unsupported.Error()
	}

	certPEM, err := resolveSource(i.Cert)
	if err != nil {
		return tls.Certificate{}, err
	}
	keyPEM, err := resolveSource(i.Key)
	if err != nil {
		return tls.Certificate{}, err
	}

	crt, e := tls.X509KeyPair(certPEM, keyPEM)
	if e != nil {
		return tls.Certificate{}, ErrKeyPair.Error(e)
	}
	return crt, nil
}
