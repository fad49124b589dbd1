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

package conn

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"

	liberr "github.com/nabbar/edge-sdk/errors"
)

// EphemeralKeyPair is the per-connection X25519 key exchange material
// generated before the Connect frame is sent.
type EphemeralKeyPair struct {
	Private [32]byte
	Public  [32]byte
}

// NewEphemeralKeyPair generates a fresh X25519 keypair.
func NewEphemeralKeyPair() (EphemeralKeyPair, liberr.Error) {
	var kp EphemeralKeyPair
	if _, err := io.ReadFull(rand.Reader, kp.Private[:]); err != nil {
		return kp, ErrCryptoFailure.Error(err)
	}

	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return kp, ErrCryptoFailure.Error(err)
	}
	copy(kp.Public[:], pub)
	return kp, nil
}

// deriveKeys runs X25519 against the peer's public key, then HKDF-SHA256
// over the shared secret to produce independent rx/tx keys. dialer
// distinguishes the dialing side from the accepting side: both ends read
// the same two keys and assign them in opposite (rx, tx) order.
func deriveKeys(priv EphemeralKeyPair, peerPub [32]byte, dialer bool) (rx, tx [chacha20poly1305.KeySize]byte, cerr liberr.Error) {
	shared, err := curve25519.X25519(priv.Private[:], peerPub[:])
	if err != nil {
		return rx, tx, ErrCryptoFailure.Error(err)
	}

	r := hkdf.New(sha256.New, shared, nil, []byte("edge-sdk secret-stream v1"))

	var a, b [chacha20poly1305.KeySize]byte
	if _, err = io.ReadFull(r, a[:]); err != nil {
		return rx, tx, ErrCryptoFailure.Error(err)
	}
	if _, err = io.ReadFull(r, b[:]); err != nil {
		return rx, tx, ErrCryptoFailure.Error(err)
	}

	// The dialer's tx key is the acceptor's rx key and vice versa: both
	// sides read the same two derived keys off the HKDF stream, just
	// assigned to opposite roles.
	if dialer {
		return a, b, nil
	}
	return b, a, nil
}

// secretStream wraps one direction (encrypt-only or decrypt-only) of an
// established AEAD channel. The nonce is a counter that starts at zero
// and advances by one for every sealed or opened frame; no separate
// stream header is exchanged before the first data frame.
type secretStream struct {
	aead    cipher.AEAD
	counter uint64
}

func newSecretStream(key [chacha20poly1305.KeySize]byte) (*secretStream, liberr.Error) {
	a, err := chacha20poly1305.New(key[:])
	if err != nil {
		return nil, ErrCryptoFailure.Error(err)
	}
	return &secretStream{aead: a}, nil
}

func (s *secretStream) nonce() []byte {
	n := make([]byte, s.aead.NonceSize())
	binary.LittleEndian.PutUint64(n, s.counter)
	s.counter++
	return n
}

// Seal encrypts plaintext and advances the stream's nonce.
func (s *secretStream) Seal(plaintext []byte) []byte {
	return s.aead.Seal(nil, s.nonce(), plaintext, nil)
}

// Open decrypts ciphertext and advances the stream's nonce. A failure
// here is fatal to the owning connection: the nonce counters on the two
// sides are now out of sync and further frames cannot be decrypted
// either.
func (s *secretStream) Open(ciphertext []byte) ([]byte, liberr.Error) {
	pt, err := s.aead.Open(nil, s.nonce(), ciphertext, nil)
	if err != nil {
		return nil, ErrCryptoFailure.Error(err)
	}
	return pt, nil
}

// Handshake holds both directions of a connection's secret stream once
// both halves of the key exchange have completed.
type Handshake struct {
	rx *secretStream
	tx *secretStream
}

// CompleteHandshake derives rx/tx keys from the local keypair and the
// peer's public key and builds both directional streams.
func CompleteHandshake(local EphemeralKeyPair, peerPub [32]byte, dialer bool) (*Handshake, liberr.Error) {
	rxKey, txKey, err := deriveKeys(local, peerPub, dialer)
	if err != nil {
		return nil, err
	}
	rx, err := newSecretStream(rxKey)
	if err != nil {
		return nil, err
	}
	tx, err := newSecretStream(txKey)
	if err != nil {
		return nil, err
	}
	return &Handshake{rx: rx, tx: tx}, nil
}

func (h *Handshake) Encrypt(plaintext []byte) []byte {
	return h.tx.Seal(plaintext)
}

func (h *Handshake) Decrypt(ciphertext []byte) ([]byte, liberr.Error) {
	return h.rx.Open(ciphertext)
}
