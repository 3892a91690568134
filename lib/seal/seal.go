/*
Copyright 2015-2021 Gravitational, Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package seal provides a generic authenticated-encryption envelope for
// opaque tokens (auth tokens, and in the original this repo is adapted
// from, OIDC auth-request handles and auth codes). Unsealing never reveals
// which check failed: a bad key, a truncated ciphertext, a tag mismatch and
// mismatched associated data all collapse to the single ErrOpaque error, so
// a client probing the endpoint learns nothing useful.
package seal

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"github.com/gravitational/trace"
	"golang.org/x/crypto/chacha20poly1305"
)

// KeySize is the required length of a sealing key, in bytes.
const KeySize = chacha20poly1305.KeySize

// ErrOpaque is returned for every Unseal failure, regardless of cause.
var ErrOpaque = trace.AccessDenied("seal: could not open sealed value")

// Key is a symmetric key used to seal and unseal tokens. Each constellation
// member holds its own sealing key(s); they are never derived from the PEP
// master-share scalars, so compromising one does not compromise the other.
type Key [KeySize]byte

// Seal authenticated-encrypts obj (marshaled as JSON) under key, binding
// the ciphertext to aad (e.g. a purpose string like "auth-token" so a
// sealed value can't be replayed into the wrong endpoint), and returns a
// URL-safe base64 string: a random 24-byte XChaCha20-Poly1305 nonce
// prepended to the ciphertext.
func Seal(obj interface{}, key Key, aad []byte) (string, error) {
	plaintext, err := json.Marshal(obj)
	if err != nil {
		return "", trace.Wrap(err)
	}

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return "", trace.Wrap(err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", trace.Wrap(err)
	}

	sealed := aead.Seal(nonce, nonce, plaintext, aad)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Unseal reverses Seal, decoding into obj. Any failure - malformed base64,
// truncated ciphertext, wrong key, wrong aad, or corrupted JSON - returns
// ErrOpaque and nothing else, by design (see package doc).
func Unseal(token string, key Key, aad []byte, obj interface{}) error {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return trace.Wrap(ErrOpaque)
	}

	aead, err := chacha20poly1305.NewX(key[:])
	if err != nil {
		return trace.Wrap(ErrOpaque)
	}

	if len(raw) < aead.NonceSize() {
		return trace.Wrap(ErrOpaque)
	}
	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return trace.Wrap(ErrOpaque)
	}

	if err := json.Unmarshal(plaintext, obj); err != nil {
		return trace.Wrap(ErrOpaque)
	}
	return nil
}

// GenerateKey returns a fresh random sealing key.
func GenerateKey() (Key, error) {
	var k Key
	if _, err := rand.Read(k[:]); err != nil {
		return k, trace.Wrap(err)
	}
	return k, nil
}
