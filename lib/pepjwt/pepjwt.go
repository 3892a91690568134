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

// Package pepjwt signs and opens the short-lived JWT envelopes that carry
// pseudonyms and attributes through the constellation (PPP, EHPP, HHPP, and
// the Attr carrier). It generalizes lib/jwt's EdDSA/RS256/HS256 signing to
// an opening API that forces every claim to be consumed - via Take or the
// explicit Ignore - before a token is accepted, so a claim nobody checked
// can never silently slip through (see spec design note in SPEC_FULL.md).
package pepjwt

import (
	"crypto"
	"crypto/ed25519"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"gopkg.in/square/go-jose.v2"
	josejwt "gopkg.in/square/go-jose.v2/jwt"
)

// Key signs and/or verifies tokens for one constellation member.
type Key struct {
	clock clockwork.Clock
	alg   jose.SignatureAlgorithm

	signer   jose.Signer
	verifier crypto.PublicKey
}

// Config configures a Key. Exactly one of PrivateKey (for signing) or
// VerifyKey (for opening) must be set; a key used for both sets both.
type Config struct {
	Clock clockwork.Clock

	// Algorithm selects EdDSA, RS256 or HS256, matching spec section 4.1.
	Algorithm jose.SignatureAlgorithm

	// SignKey is an ed25519.PrivateKey, *rsa.PrivateKey, or []byte (HMAC),
	// matching Algorithm.
	SignKey interface{}

	// VerifyKey is an ed25519.PublicKey, *rsa.PublicKey, or []byte (HMAC).
	VerifyKey interface{}
}

// New builds a Key from Config.
func New(cfg Config) (*Key, error) {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.Algorithm == "" {
		return nil, trace.BadParameter("pepjwt: algorithm is required")
	}

	k := &Key{clock: cfg.Clock, alg: cfg.Algorithm, verifier: cfg.VerifyKey}

	if cfg.SignKey != nil {
		signingKey := jose.SigningKey{Algorithm: cfg.Algorithm, Key: signerFor(cfg.Algorithm, cfg.SignKey)}
		signer, err := jose.NewSigner(signingKey, (&jose.SignerOptions{}).WithType("JWT"))
		if err != nil {
			return nil, trace.Wrap(err)
		}
		k.signer = signer
		if cfg.VerifyKey == nil && cfg.Algorithm == jose.EdDSA {
			if priv, ok := cfg.SignKey.(ed25519.PrivateKey); ok {
				k.verifier = priv.Public()
			}
		}
	}
	if k.signer == nil && k.verifier == nil {
		return nil, trace.BadParameter("pepjwt: sign key or verify key is required")
	}
	return k, nil
}

func signerFor(alg jose.SignatureAlgorithm, key interface{}) interface{} {
	if alg == jose.EdDSA {
		// go-jose's EdDSA signer expects an ed25519.PrivateKey directly.
		return key
	}
	return key
}

// Sign marshals claims (a plain map, or anything json-serializable as an
// object) into a compact-serialized, signed JWT.
func (k *Key) Sign(claims interface{}) (string, error) {
	if k.signer == nil {
		return "", trace.BadParameter("pepjwt: key cannot sign")
	}
	tok, err := josejwt.Signed(k.signer).Claims(claims).CompactSerialize()
	if err != nil {
		return "", trace.Wrap(err)
	}
	return tok, nil
}

// OpenError distinguishes the reasons opening a token can fail, because
// these (unlike seal.Unseal's failures) drive client-visible retry logic
// per spec section 3 ("Attr signed carrier. ... distinct errors").
type OpenError int

const (
	// OpenErrorInvalidSignature covers malformed tokens and signature
	// verification failures.
	OpenErrorInvalidSignature OpenError = iota
	// OpenErrorExpired means the token parsed and verified but its exp
	// claim is in the past (or nbf is in the future).
	OpenErrorExpired
	// OpenErrorOtherConstellation means the token verified but carries a
	// constellation_id claim that doesn't match the expected one.
	OpenErrorOtherConstellation
	// OpenErrorOtherwiseInvalid covers anything else: missing required
	// claims, or claims left unconsumed when Finish is called.
	OpenErrorOtherwiseInvalid
)

func (e OpenError) Error() string {
	switch e {
	case OpenErrorInvalidSignature:
		return "pepjwt: invalid signature"
	case OpenErrorExpired:
		return "pepjwt: expired"
	case OpenErrorOtherConstellation:
		return "pepjwt: other constellation"
	default:
		return "pepjwt: otherwise invalid"
	}
}

// Reader exposes a parsed, signature-verified token's claims one at a time,
// requiring every claim present to be explicitly Take()n or Ignore()d
// before Finish() will succeed. This is the exhaustiveness guarantee spec
// section 9 calls for.
type Reader struct {
	claims    map[string]interface{}
	consumed  map[string]bool
}

// Open parses rawToken, verifies its signature, and checks the standard
// exp/nbf claims against clock. It does not check constellation_id -
// callers call RequireConstellation via the returned Reader so that check
// also participates in the exhaustiveness accounting.
func (k *Key) Open(rawToken string) (*Reader, error) {
	if k.verifier == nil {
		return nil, OpenErrorOtherwiseInvalid
	}
	tok, err := josejwt.ParseSigned(rawToken)
	if err != nil {
		return nil, OpenErrorInvalidSignature
	}

	var raw map[string]interface{}
	if err := tok.Claims(k.verifier, &raw); err != nil {
		return nil, OpenErrorInvalidSignature
	}

	var std josejwt.Claims
	if err := tok.UnsafeClaimsWithoutVerification(&std); err == nil {
		now := k.clock.Now()
		if std.Expiry != nil && !now.Before(std.Expiry.Time()) {
			return nil, OpenErrorExpired
		}
		if std.NotBefore != nil && now.Before(std.NotBefore.Time()) {
			return nil, OpenErrorExpired
		}
	}

	r := &Reader{claims: raw, consumed: make(map[string]bool, len(raw))}
	// standard registered claims are implicitly checked above; mark them
	// consumed so Finish doesn't demand the caller re-handle them.
	for _, std := range []string{"exp", "nbf", "iat", "iss", "aud", "sub", "jti"} {
		if _, ok := raw[std]; ok {
			r.consumed[std] = true
		}
	}
	return r, nil
}

// Take reads claim name into dst (via a JSON round-trip, so dst can be any
// JSON-compatible type) and marks it consumed. Returns OpenErrorOtherwiseInvalid
// if the claim is missing or doesn't unmarshal into dst.
func (r *Reader) Take(name string, dst interface{}) error {
	v, ok := r.claims[name]
	if !ok {
		return OpenErrorOtherwiseInvalid
	}
	if err := remarshal(v, dst); err != nil {
		return OpenErrorOtherwiseInvalid
	}
	r.consumed[name] = true
	return nil
}

// RequireConstellation takes the constellation_id claim and compares it to
// expected, returning OpenErrorOtherConstellation on mismatch.
func (r *Reader) RequireConstellation(expected string) error {
	var got string
	if err := r.Take("constellation_id", &got); err != nil {
		return err
	}
	if got != expected {
		return OpenErrorOtherConstellation
	}
	return nil
}

// Ignore marks a claim as deliberately unconsumed (e.g. an envelope carries
// a claim this verifier doesn't care about).
func (r *Reader) Ignore(name string) {
	r.consumed[name] = true
}

// Finish returns OpenErrorOtherwiseInvalid if any claim present on the
// token was never Take()n or Ignore()d.
func (r *Reader) Finish() error {
	for name := range r.claims {
		if !r.consumed[name] {
			return OpenErrorOtherwiseInvalid
		}
	}
	return nil
}
