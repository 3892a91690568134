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

package attributes

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"

	"github.com/pubhubs/pubhubs/lib/pepjwt"
)

func TestDeriveIDIsPureFunction(t *testing.T) {
	secret := []byte("attr-id-secret")
	id1 := DeriveID("email", "alice@x", secret)
	id2 := DeriveID("email", "alice@x", secret)
	require.Equal(t, id1, id2)

	id3 := DeriveID("email", "bob@x", secret)
	require.NotEqual(t, id1, id3)

	other := DeriveID("email", "alice@x", []byte("different-secret"))
	require.NotEqual(t, id1, other)
}

func TestCatalogBindIgnoresCallerSuppliedFlags(t *testing.T) {
	cat := Catalog{"email": {Identifying: true, Bannable: true}}
	v, err := cat.Bind("email", "alice@x")
	require.NoError(t, err)
	require.True(t, v.Identifying)
	require.True(t, v.Bannable)

	_, err = cat.Bind("unknown", "x")
	require.Error(t, err)
}

func TestAttrStateBanPropagation(t *testing.T) {
	s := NewState(DeriveID("phone", "+1", []byte("secret")))
	s.AddBanUser("user-1")
	require.False(t, s.EffectivelyBans("user-1"))

	s.Banned = true
	require.True(t, s.EffectivelyBans("user-1"))
	require.False(t, s.EffectivelyBans("user-2"))
}

func TestCarrierSignOpenRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	key, err := pepjwt.New(pepjwt.Config{Clock: clock, Algorithm: jose.EdDSA, SignKey: priv, VerifyKey: pub})
	require.NoError(t, err)

	v := Value{AttrType: "email", Value: "alice@x", Identifying: true, Bannable: true}
	tok, err := SignCarrier(key, v, "const-1", clock.Now(), clock.Now().Add(time.Minute))
	require.NoError(t, err)

	got, err := OpenCarrier(key, tok, "const-1")
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestCarrierOpenOtherConstellation(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	key, err := pepjwt.New(pepjwt.Config{Clock: clock, Algorithm: jose.EdDSA, SignKey: priv, VerifyKey: pub})
	require.NoError(t, err)

	v := Value{AttrType: "email", Value: "alice@x", Identifying: true}
	tok, err := SignCarrier(key, v, "const-1", clock.Now(), clock.Now().Add(time.Minute))
	require.NoError(t, err)

	_, err = OpenCarrier(key, tok, "const-2")
	require.Equal(t, pepjwt.OpenErrorOtherConstellation, err)
}
