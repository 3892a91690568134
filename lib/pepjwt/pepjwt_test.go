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

package pepjwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"
	josejwt "gopkg.in/square/go-jose.v2/jwt"
)

func newTestKey(t *testing.T, clock clockwork.Clock) (*Key, ed25519.PublicKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	k, err := New(Config{Clock: clock, Algorithm: jose.EdDSA, SignKey: priv, VerifyKey: pub})
	require.NoError(t, err)
	return k, pub
}

func TestSignOpenRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClock()
	k, _ := newTestKey(t, clock)

	claims := map[string]interface{}{
		"constellation_id": "c1",
		"iat":              josejwt.NewNumericDate(clock.Now()),
		"exp":              josejwt.NewNumericDate(clock.Now().Add(time.Minute)),
		"hub_id":           "hub-a",
	}
	tok, err := k.Sign(claims)
	require.NoError(t, err)

	r, err := k.Open(tok)
	require.NoError(t, err)
	require.NoError(t, r.RequireConstellation("c1"))

	var hubID string
	require.NoError(t, r.Take("hub_id", &hubID))
	require.Equal(t, "hub-a", hubID)

	require.NoError(t, r.Finish())
}

func TestFinishFailsOnUnconsumedClaim(t *testing.T) {
	clock := clockwork.NewFakeClock()
	k, _ := newTestKey(t, clock)

	claims := map[string]interface{}{
		"constellation_id": "c1",
		"exp":              josejwt.NewNumericDate(clock.Now().Add(time.Minute)),
		"hub_id":           "hub-a",
	}
	tok, err := k.Sign(claims)
	require.NoError(t, err)

	r, err := k.Open(tok)
	require.NoError(t, err)
	require.NoError(t, r.RequireConstellation("c1"))
	// hub_id never Take()n or Ignore()d.
	require.Equal(t, OpenErrorOtherwiseInvalid, r.Finish())
}

func TestOpenDetectsExpired(t *testing.T) {
	clock := clockwork.NewFakeClock()
	k, _ := newTestKey(t, clock)

	claims := map[string]interface{}{
		"constellation_id": "c1",
		"exp":              josejwt.NewNumericDate(clock.Now().Add(time.Second)),
	}
	tok, err := k.Sign(claims)
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = k.Open(tok)
	require.Equal(t, OpenErrorExpired, err)
}

func TestOpenDetectsOtherConstellation(t *testing.T) {
	clock := clockwork.NewFakeClock()
	k, _ := newTestKey(t, clock)

	claims := map[string]interface{}{
		"constellation_id": "other",
		"exp":              josejwt.NewNumericDate(clock.Now().Add(time.Minute)),
	}
	tok, err := k.Sign(claims)
	require.NoError(t, err)

	r, err := k.Open(tok)
	require.NoError(t, err)
	require.Equal(t, OpenErrorOtherConstellation, r.RequireConstellation("c1"))
}

func TestOpenDetectsInvalidSignature(t *testing.T) {
	clock := clockwork.NewFakeClock()
	k, _ := newTestKey(t, clock)
	_, otherPub := newTestKey(t, clock)
	_ = otherPub

	other, err := New(Config{Clock: clock, Algorithm: jose.EdDSA, SignKey: ed25519GenKey(t)})
	require.NoError(t, err)

	tok, err := other.Sign(map[string]interface{}{
		"constellation_id": "c1",
		"exp":              josejwt.NewNumericDate(clock.Now().Add(time.Minute)),
	})
	require.NoError(t, err)

	_, err = k.Open(tok)
	require.Equal(t, OpenErrorInvalidSignature, err)
}

func ed25519GenKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return priv
}
