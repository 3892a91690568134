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
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Foo string
	Bar int
}

func TestSealUnsealRoundTrip(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	in := payload{Foo: "hello", Bar: 42}
	token, err := Seal(in, key, []byte("aad"))
	require.NoError(t, err)

	var out payload
	require.NoError(t, Unseal(token, key, []byte("aad"), &out))
	require.Equal(t, in, out)
}

func TestUnsealWrongAADIsOpaque(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)

	token, err := Seal(payload{Foo: "x"}, key, []byte("aad-a"))
	require.NoError(t, err)

	var out payload
	err = Unseal(token, key, []byte("aad-b"), &out)
	require.ErrorIs(t, err, ErrOpaque)
}

func TestUnsealWrongKeyIsOpaque(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	other, err := GenerateKey()
	require.NoError(t, err)

	token, err := Seal(payload{Foo: "x"}, key, []byte("aad"))
	require.NoError(t, err)

	var out payload
	err = Unseal(token, other, []byte("aad"), &out)
	require.ErrorIs(t, err, ErrOpaque)
}

func TestAuthTokenExpiryBoundary(t *testing.T) {
	key, err := GenerateKey()
	require.NoError(t, err)
	clock := clockwork.NewFakeClock()

	token, err := SealAuthToken(key, clock, "user-1", time.Hour)
	require.NoError(t, err)

	inner, err := OpenAuthToken(token, key, clock)
	require.NoError(t, err)
	require.Equal(t, "user-1", inner.UserID)

	clock.Advance(time.Hour)
	_, err = OpenAuthToken(token, key, clock)
	require.ErrorIs(t, err, ErrOpaque, "token must be invalid exactly at exp")
}
