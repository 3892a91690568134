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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pubhubs/pubhubs/api/types"
)

func TestPppHappyPath(t *testing.T) {
	ts := newTestServer(t)
	authToken := ts.registerUser(t, "alice@example.com", "+31600000000")

	resp, err := ts.srv.Ppp(ctxBG, authToken)
	require.NoError(t, err)
	require.Equal(t, types.PppOutcomeSuccess, resp.Outcome)
	require.NotEmpty(t, resp.PPP)
}

func TestPppRejectsBadAuthToken(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.srv.Ppp(ctxBG, "not-a-real-token")
	require.Error(t, err)
}

// TestPppRerandomizesWithoutPersisting calls Ppp twice for the same user
// and checks the two signed PPPs carry different ciphertexts for the same
// underlying pseudonym - each call rerandomizes fresh rather than reusing
// or persisting a rerandomized copy.
func TestPppRerandomizesWithoutPersisting(t *testing.T) {
	ts := newTestServer(t)
	authToken := ts.registerUser(t, "alice@example.com", "+31600000000")

	first, err := ts.srv.Ppp(ctxBG, authToken)
	require.NoError(t, err)
	second, err := ts.srv.Ppp(ctxBG, authToken)
	require.NoError(t, err)

	require.NotEqual(t, first.PPP, second.PPP)

	firstPPP, err := types.OpenPPP(ts.srv.pppSignKey, first.PPP, "const-1")
	require.NoError(t, err)
	secondPPP, err := types.OpenPPP(ts.srv.pppSignKey, second.PPP, "const-1")
	require.NoError(t, err)
	require.NotEqual(t, firstPPP.PolymorphicPseudonym.CT, secondPPP.PolymorphicPseudonym.CT)
}

func TestPppRejectsBannedUser(t *testing.T) {
	ts := newTestServer(t)
	authToken := ts.registerUser(t, "eve@example.com", "+31644444444")

	inner, err := ts.srv.authenticate(authToken)
	require.NoError(t, err)
	user, version, err := ts.srv.loadUser(ctxBG, inner.UserID)
	require.NoError(t, err)
	user.Banned = true
	_, err = putUser(t, ts, user, version)
	require.NoError(t, err)

	_, err = ts.srv.Ppp(ctxBG, authToken)
	require.Error(t, err)
}
