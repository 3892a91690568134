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

package transcryptor

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/constellation"
	"github.com/pubhubs/pubhubs/lib/pep"
	"github.com/pubhubs/pubhubs/lib/pepjwt"
)

func genKey(t *testing.T, clock clockwork.Clock) *pepjwt.Key {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	k, err := pepjwt.New(pepjwt.Config{Clock: clock, Algorithm: jose.EdDSA, SignKey: priv, VerifyKey: pub})
	require.NoError(t, err)
	return k
}

func TestEhppHappyPath(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pppKey := genKey(t, clock)
	ehppKey := genKey(t, clock)
	masterShare := pep.RandomScalar()

	registry := NewStaticRegistry(masterShare)
	registry.Set("hub-1", "decrypt-hub-1")

	srv := NewServer(Config{
		Clock:        clock,
		MasterShare:  masterShare,
		PPPVerifyKey: pppKey,
		EHPPSignKey:  ehppKey,
		Hubs:         registry,
		Constellation: constellation.Info{ID: "const-1"},
	})

	m := pep.RandomPoint()
	y := pep.RandomScalar().PublicKey()
	triple := pep.Encrypt(m, y, pep.RandomScalar())

	ppp := types.PPP{
		PolymorphicPseudonym: types.FromTriple(triple),
		ConstellationID:      "const-1",
		IssuedAt:             clock.Now(),
		Expires:              clock.Now().Add(time.Minute),
	}
	pppToken, err := ppp.Sign(pppKey)
	require.NoError(t, err)

	resp, err := srv.Ehpp(types.EhppReq{PPP: pppToken, Hub: "hub-1", HubNonce: "nonce-1"})
	require.NoError(t, err)
	require.Equal(t, types.EhppOutcomeSuccess, resp.Outcome)
	require.NotEmpty(t, resp.EHPP)

	ehpp, err := types.OpenEHPP(ehppKey, resp.EHPP, "const-1")
	require.NoError(t, err)
	require.Equal(t, "hub-1", ehpp.HubID)
	require.Equal(t, "nonce-1", ehpp.HubNonce)
}

func TestEhppRetriesOnExpiredPpp(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pppKey := genKey(t, clock)
	ehppKey := genKey(t, clock)
	masterShare := pep.RandomScalar()
	registry := NewStaticRegistry(masterShare)
	registry.Set("hub-1", "decrypt-hub-1")

	srv := NewServer(Config{
		Clock: clock, MasterShare: masterShare, PPPVerifyKey: pppKey, EHPPSignKey: ehppKey,
		Hubs: registry, Constellation: constellation.Info{ID: "const-1"},
	})

	triple := pep.Encrypt(pep.RandomPoint(), pep.RandomScalar().PublicKey(), pep.RandomScalar())
	ppp := types.PPP{
		PolymorphicPseudonym: types.FromTriple(triple),
		ConstellationID:      "const-1",
		IssuedAt:             clock.Now().Add(-time.Hour),
		Expires:              clock.Now().Add(-time.Minute),
	}
	pppToken, err := ppp.Sign(pppKey)
	require.NoError(t, err)

	resp, err := srv.Ehpp(types.EhppReq{PPP: pppToken, Hub: "hub-1"})
	require.NoError(t, err)
	require.Equal(t, types.EhppOutcomeRetryWithNewPpp, resp.Outcome)
}

func TestEhppUnknownHub(t *testing.T) {
	clock := clockwork.NewFakeClock()
	pppKey := genKey(t, clock)
	ehppKey := genKey(t, clock)
	masterShare := pep.RandomScalar()
	registry := NewStaticRegistry(masterShare)

	srv := NewServer(Config{
		Clock: clock, MasterShare: masterShare, PPPVerifyKey: pppKey, EHPPSignKey: ehppKey,
		Hubs: registry, Constellation: constellation.Info{ID: "const-1"},
	})

	triple := pep.Encrypt(pep.RandomPoint(), pep.RandomScalar().PublicKey(), pep.RandomScalar())
	ppp := types.PPP{
		PolymorphicPseudonym: types.FromTriple(triple),
		ConstellationID:      "const-1",
		IssuedAt:             clock.Now(),
		Expires:              clock.Now().Add(time.Minute),
	}
	pppToken, err := ppp.Sign(pppKey)
	require.NoError(t, err)

	_, err = srv.Ehpp(types.EhppReq{PPP: pppToken, Hub: "no-such-hub"})
	require.Error(t, err)
}
