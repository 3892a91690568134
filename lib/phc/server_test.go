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

package phc

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"gopkg.in/square/go-jose.v2"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/attributes"
	"github.com/pubhubs/pubhubs/lib/backend"
	"github.com/pubhubs/pubhubs/lib/backend/memory"
	"github.com/pubhubs/pubhubs/lib/constellation"
	"github.com/pubhubs/pubhubs/lib/pep"
	"github.com/pubhubs/pubhubs/lib/pepjwt"
	"github.com/pubhubs/pubhubs/lib/seal"
)

var ctxBG = context.Background()

func genTestKey(t *testing.T, clock clockwork.Clock) *pepjwt.Key {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	k, err := pepjwt.New(pepjwt.Config{Clock: clock, Algorithm: jose.EdDSA, SignKey: priv, VerifyKey: pub})
	require.NoError(t, err)
	return k
}

// testServer bundles a Server with the keys/secrets needed to mint the
// attribute carriers and tokens its own handlers expect to open.
type testServer struct {
	srv          *Server
	clock        clockwork.FakeClock
	authVerify   *pepjwt.Key
	ehppVerify   *pepjwt.Key
	attrIDSecret []byte
	masterShare  pep.Scalar
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	clock := clockwork.NewFakeClock()

	authKey := genTestKey(t, clock)
	pppKey := genTestKey(t, clock)
	hhppKey := genTestKey(t, clock)
	ehppKey := genTestKey(t, clock)

	authTokenKey, err := seal.GenerateKey()
	require.NoError(t, err)

	masterShare := pep.RandomScalar()
	masterPublicKey := masterShare.PublicKey()

	srv := NewServer(Config{
		Clock:                clock,
		Store:                memory.New(),
		AuthTokenKey:         authTokenKey,
		AuthWindow:           time.Hour,
		PPPSignKey:           pppKey,
		HHPPSignKey:          hhppKey,
		EHPPVerifyKey:        ehppKey,
		AuthVerifyKey:        authKey,
		MasterShare:          masterShare,
		MasterPublicKey:      masterPublicKey,
		AttrIDSecret:         []byte("test-attr-id-secret"),
		UserObjectHMACSecret: []byte("test-user-object-hmac-secret"),
		Catalog: attributes.Catalog{
			"email": {Identifying: true, Bannable: false},
			"phone": {Identifying: false, Bannable: true},
		},
		Quota:         types.Quota{ObjectCount: 10, ObjectBytesTotal: 1 << 20},
		Constellation: constellation.Info{ID: "const-1"},
	})

	return &testServer{
		srv:          srv,
		clock:        clock,
		authVerify:   authKey,
		ehppVerify:   ehppKey,
		attrIDSecret: []byte("test-attr-id-secret"),
		masterShare:  masterShare,
	}
}

func (ts *testServer) signCarrier(t *testing.T, v attributes.Value) string {
	t.Helper()
	now := ts.clock.Now()
	carrier, err := attributes.SignCarrier(ts.authVerify, v, ts.srv.constellation.ID, now, now.Add(time.Hour))
	require.NoError(t, err)
	return carrier
}

// registerUser drives a full fresh registration through Enter, returning
// the issued auth token.
func (ts *testServer) registerUser(t *testing.T, emailValue, phoneValue string) string {
	t.Helper()
	identCarrier := ts.signCarrier(t, attributes.Value{AttrType: "email", Value: emailValue, Identifying: true})
	addCarrier := ts.signCarrier(t, attributes.Value{AttrType: "phone", Value: phoneValue, Bannable: true})

	resp, err := ts.srv.Enter(ctxBG, types.EnterReq{
		Mode:            types.EnterRegister,
		IdentifyingAttr: identCarrier,
		AddAttrs:        []string{addCarrier},
	})
	require.NoError(t, err)
	require.Equal(t, types.EnterOutcomeSuccess, resp.Outcome)
	require.NotEmpty(t, resp.AuthToken)
	return resp.AuthToken
}

// putUser writes back a UserState the test has mutated directly (e.g. to
// simulate an admin ban), bypassing the normal enter/add-attrs procedure.
func putUser(t *testing.T, ts *testServer, user types.UserState, version backend.Version) (backend.Version, error) {
	t.Helper()
	return backend.PutJSON(ctxBG, ts.srv.store, ts.srv.userKey(user.ID), user, &version)
}
