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

package config

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"os"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"gopkg.in/square/go-jose.v2"

	"github.com/pubhubs/pubhubs/lib/pepjwt"
)

// LoadSignKey builds a *pepjwt.Key able to sign, reading a PEM-encoded
// ed25519 private key (Algorithm "EdDSA") or a raw hex-encoded HMAC secret
// (Algorithm "HS256") from kc.File.
func LoadSignKey(clock clockwork.Clock, kc KeyConfig) (*pepjwt.Key, error) {
	alg, err := algorithm(kc.Algorithm)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	raw, err := os.ReadFile(kc.File)
	if err != nil {
		return nil, trace.Wrap(err, "reading sign key file %q", kc.File)
	}

	switch alg {
	case jose.EdDSA:
		priv, err := parseEd25519Private(raw)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return pepjwt.New(pepjwt.Config{Clock: clock, Algorithm: alg, SignKey: priv})
	case jose.HS256:
		secret, err := decodeHexSecret(raw)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return pepjwt.New(pepjwt.Config{Clock: clock, Algorithm: alg, SignKey: secret, VerifyKey: secret})
	default:
		return nil, trace.BadParameter("config: signing with %q is not supported", kc.Algorithm)
	}
}

// LoadVerifyKey builds a *pepjwt.Key able to verify, reading a PEM-encoded
// ed25519 public key (Algorithm "EdDSA") or a raw hex-encoded HMAC secret
// (Algorithm "HS256") from kc.File.
func LoadVerifyKey(clock clockwork.Clock, kc KeyConfig) (*pepjwt.Key, error) {
	alg, err := algorithm(kc.Algorithm)
	if err != nil {
		return nil, trace.Wrap(err)
	}

	raw, err := os.ReadFile(kc.File)
	if err != nil {
		return nil, trace.Wrap(err, "reading verify key file %q", kc.File)
	}

	switch alg {
	case jose.EdDSA:
		pub, err := parseEd25519Public(raw)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return pepjwt.New(pepjwt.Config{Clock: clock, Algorithm: alg, VerifyKey: pub})
	case jose.HS256:
		secret, err := decodeHexSecret(raw)
		if err != nil {
			return nil, trace.Wrap(err)
		}
		return pepjwt.New(pepjwt.Config{Clock: clock, Algorithm: alg, VerifyKey: secret})
	default:
		return nil, trace.BadParameter("config: verifying with %q is not supported", kc.Algorithm)
	}
}

func algorithm(name string) (jose.SignatureAlgorithm, error) {
	switch name {
	case "EdDSA", "":
		return jose.EdDSA, nil
	case "HS256":
		return jose.HS256, nil
	case "RS256":
		return jose.RS256, nil
	default:
		return "", trace.BadParameter("config: unknown algorithm %q", name)
	}
}

func parseEd25519Private(pemBytes []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, trace.BadParameter("config: no PEM block found in private key file")
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, trace.Wrap(err, "parsing ed25519 private key")
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, trace.BadParameter("config: private key file does not hold an ed25519 key")
	}
	return priv, nil
}

func parseEd25519Public(pemBytes []byte) (ed25519.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, trace.BadParameter("config: no PEM block found in public key file")
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, trace.Wrap(err, "parsing ed25519 public key")
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, trace.BadParameter("config: public key file does not hold an ed25519 key")
	}
	return pub, nil
}

func decodeHexSecret(raw []byte) ([]byte, error) {
	secret, err := hex.DecodeString(string(trimTrailingNewline(raw)))
	if err != nil {
		return nil, trace.Wrap(err, "decoding hex-encoded HMAC secret")
	}
	return secret, nil
}

func trimTrailingNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
