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

package seal

import (
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
)

const authTokenAAD = "pubhubs-auth-token-v1"

// AuthTokenInner is the plaintext sealed inside a client's auth-token
// header. It is opaque to the client: the client only ever sees the sealed
// string, never these fields directly.
type AuthTokenInner struct {
	UserID string    `json:"user_id"`
	IssuedAt time.Time `json:"iat"`
	Expires  time.Time `json:"exp"`
}

// SealAuthToken seals a fresh auth token for userID, valid for window,
// starting slightly before now to tolerate clock skew between the issuing
// server and whichever server verifies it first (mirrors the small nbf
// slack the original implementation applies).
func SealAuthToken(key Key, clock clockwork.Clock, userID string, window time.Duration) (string, error) {
	now := clock.Now()
	inner := AuthTokenInner{
		UserID:   userID,
		IssuedAt: now.Add(-10 * time.Second),
		Expires:  now.Add(window),
	}
	return Seal(inner, key, []byte(authTokenAAD))
}

// OpenAuthToken unseals and validates an auth-token header value. Expiry is
// the only condition checked after unsealing succeeds; any unseal failure
// is the single opaque error from Unseal.
func OpenAuthToken(token string, key Key, clock clockwork.Clock) (AuthTokenInner, error) {
	var inner AuthTokenInner
	if err := Unseal(token, key, []byte(authTokenAAD), &inner); err != nil {
		return AuthTokenInner{}, trace.Wrap(err)
	}
	if !clock.Now().Before(inner.Expires) {
		return AuthTokenInner{}, trace.Wrap(ErrOpaque)
	}
	return inner, nil
}
