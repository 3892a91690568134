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
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/constellation"
	"github.com/pubhubs/pubhubs/lib/pep"
	"github.com/pubhubs/pubhubs/lib/transcryptor"
)

// hhppFixture wires a PHC testServer to an in-process Transcryptor that
// shares the same PPP-verify/EHPP-sign keys and the same hub roster, the
// minimum needed to drive a real PPP -> EHPP -> HHPP chain end to end.
type hhppFixture struct {
	*testServer
	tr  *transcryptor.Server
	hub types.Hub
}

func newHhppFixture(t *testing.T) *hhppFixture {
	t.Helper()
	ts := newTestServer(t)

	hub, err := ts.srv.RegisterHub(RegisterHubReq{Name: "chat.example.com"})
	require.NoError(t, err)

	registry := transcryptor.NewStaticRegistry(pep.RandomScalar())
	registry.Set(hub.ID, hub.DecryptionID)

	tr := transcryptor.NewServer(transcryptor.Config{
		Clock:         ts.clock,
		MasterShare:   pep.RandomScalar(),
		PPPVerifyKey:  ts.srv.pppSignKey,
		EHPPSignKey:   ts.ehppVerify,
		Hubs:          registry,
		Constellation: constellation.Info{ID: "const-1"},
	})

	return &hhppFixture{testServer: ts, tr: tr, hub: hub}
}

// fetchEHPP drives ppp -> ehpp for authToken against hub, the same two
// calls a hub-entry client would make.
func (f *hhppFixture) fetchEHPP(t *testing.T, authToken, hubID, nonce string) string {
	t.Helper()
	pppResp, err := f.srv.Ppp(ctxBG, authToken)
	require.NoError(t, err)
	require.Equal(t, types.PppOutcomeSuccess, pppResp.Outcome)

	ehppResp, err := f.tr.Ehpp(types.EhppReq{PPP: pppResp.PPP, Hub: hubID, HubNonce: nonce})
	require.NoError(t, err)
	require.Equal(t, types.EhppOutcomeSuccess, ehppResp.Outcome)
	return ehppResp.EHPP
}

func TestHhppHappyPath(t *testing.T) {
	f := newHhppFixture(t)
	authToken := f.registerUser(t, "alice@example.com", "+31600000000")
	ehpp := f.fetchEHPP(t, authToken, f.hub.ID, "nonce-1")

	resp, err := f.srv.Hhpp(ctxBG, authToken, types.HhppReq{EHPP: ehpp})
	require.NoError(t, err)
	require.Equal(t, types.HhppOutcomeSuccess, resp.Outcome)
	require.NotEmpty(t, resp.HHPP)

	hhpp, err := types.OpenHHPP(f.srv.hhppSignKey, resp.HHPP)
	require.NoError(t, err)
	require.Equal(t, f.hub.ID, hhpp.HubID)
	require.Equal(t, "nonce-1", hhpp.HubNonce)
	require.NotEmpty(t, hhpp.LocalHubPseudonym)
}

func TestHhppRejectsUnknownHub(t *testing.T) {
	f := newHhppFixture(t)
	authToken := f.registerUser(t, "bob@example.com", "+31611111111")

	pppResp, err := f.srv.Ppp(ctxBG, authToken)
	require.NoError(t, err)

	// A different transcryptor registry that never learned this hub: Ehpp
	// itself refuses (mirrors what an attacker targeting an unregistered
	// hub id would hit).
	registry := transcryptor.NewStaticRegistry(pep.RandomScalar())
	tr := transcryptor.NewServer(transcryptor.Config{
		Clock: f.clock, MasterShare: pep.RandomScalar(),
		PPPVerifyKey: f.srv.pppSignKey, EHPPSignKey: f.ehppVerify,
		Hubs: registry, Constellation: constellation.Info{ID: "const-1"},
	})
	_, err = tr.Ehpp(types.EhppReq{PPP: pppResp.PPP, Hub: "no-such-hub"})
	require.Error(t, err)
}

func TestHhppRejectsBadAuthToken(t *testing.T) {
	f := newHhppFixture(t)
	authToken := f.registerUser(t, "carol@example.com", "+31622222222")
	ehpp := f.fetchEHPP(t, authToken, f.hub.ID, "nonce-2")

	_, err := f.srv.Hhpp(ctxBG, "garbage-token", types.HhppReq{EHPP: ehpp})
	require.Error(t, err)
}

func TestHhppRejectsExpiredEhpp(t *testing.T) {
	f := newHhppFixture(t)
	authToken := f.registerUser(t, "dave@example.com", "+31633333333")
	ehpp := f.fetchEHPP(t, authToken, f.hub.ID, "nonce-3")

	f.clock.Advance(2 * time.Hour)
	_, err := f.srv.Hhpp(ctxBG, authToken, types.HhppReq{EHPP: ehpp})
	require.Error(t, err)
}

func TestHhppRejectsUnregisteredHubID(t *testing.T) {
	f := newHhppFixture(t)
	authToken := f.registerUser(t, "erin@example.com", "+31644444444")

	// Sign an EHPP naming a hub id PHC itself never registered (as if the
	// Transcryptor's roster and PHC's roster had drifted apart).
	pppResp, err := f.srv.Ppp(ctxBG, authToken)
	require.NoError(t, err)
	registry := transcryptor.NewStaticRegistry(pep.RandomScalar())
	registry.Set("ghost-hub", "ghost-decryption-id")
	tr := transcryptor.NewServer(transcryptor.Config{
		Clock: f.clock, MasterShare: pep.RandomScalar(),
		PPPVerifyKey: f.srv.pppSignKey, EHPPSignKey: f.ehppVerify,
		Hubs: registry, Constellation: constellation.Info{ID: "const-1"},
	})
	ehppResp, err := tr.Ehpp(types.EhppReq{PPP: pppResp.PPP, Hub: "ghost-hub"})
	require.NoError(t, err)

	_, err = f.srv.Hhpp(ctxBG, authToken, types.HhppReq{EHPP: ehppResp.EHPP})
	require.Error(t, err)
}
