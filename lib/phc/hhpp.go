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

	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/defaults"
	"github.com/pubhubs/pubhubs/lib/pep"
	"github.com/pubhubs/pubhubs/lib/pepjwt"
)

const hhppHubParamsLabel = "phc"

// Hhpp implements POST /phc/user/hhpp: finishes the pseudonym pipeline by
// taking the Transcryptor's EHPP, applying PHC's own RSK step, and
// decrypting the result into the user's local hub pseudonym point (spec
// section 4.5.4).
//
// The auth_token presented here is what binds this call to userID; it is
// also what bound the earlier ppp call that produced the PPP the caller
// fed to the Transcryptor to get this very EHPP. Since a PPP is fresh and
// short-lived, and the Transcryptor's RSK is a deterministic function of
// the triple it is handed, an EHPP can only be the image of one user's
// polymorphic pseudonym - there is no separate user_id claim to check
// against because the cryptographic chain from auth_token to ppp to ehpp
// already pins it (spec section 4.5.4's "crucial invariant" note).
func (s *Server) Hhpp(ctx context.Context, authToken string, req types.HhppReq) (types.HhppResp, error) {
	inner, err := s.authenticate(authToken)
	if err != nil {
		return types.HhppResp{}, trace.Wrap(err)
	}
	if _, _, err := s.loadUser(ctx, inner.UserID); err != nil {
		return types.HhppResp{}, trace.Wrap(err)
	}

	ehpp, err := types.OpenEHPP(s.ehppVerifyKey, req.EHPP, s.constellation.ID)
	if err != nil {
		switch err {
		case pepjwt.OpenErrorExpired, pepjwt.OpenErrorOtherConstellation:
			return types.HhppResp{}, trace.BadParameter("phc: ehpp is expired or signed for a different constellation")
		default:
			return types.HhppResp{}, trace.Wrap(err)
		}
	}

	s.mu.RLock()
	hub, ok := s.hubs[ehpp.HubID]
	s.mu.RUnlock()
	if !ok {
		return types.HhppResp{}, trace.NotFound("phc: unknown hub %q", ehpp.HubID)
	}

	triple, err := ehpp.Triple.Triple()
	if err != nil {
		return types.HhppResp{}, trace.BadParameter("phc: invalid triple in ehpp: %v", err)
	}

	hubParams := pep.DeriveHubParams(s.masterShare, hub.DecryptionID, hhppHubParamsLabel)
	final := pep.RSK(triple, hubParams.S, hubParams.K, pep.RandomScalar())
	localPseudonym := pep.Decrypt(final, s.masterShare.Mul(hubParams.K))

	now := s.clock.Now()
	hhpp := types.HHPP{
		LocalHubPseudonym: localPseudonym.Hex(),
		HubID:             ehpp.HubID,
		HubNonce:          ehpp.HubNonce,
		IssuedAt:          now,
		Expires:           now.Add(defaults.HHPPLifetime),
	}
	signed, err := hhpp.Sign(s.hhppSignKey)
	if err != nil {
		return types.HhppResp{}, trace.Wrap(err)
	}
	return types.HhppResp{Outcome: types.HhppOutcomeSuccess, HHPP: signed}, nil
}
