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
)

// Ppp implements GET /phc/user/ppp: authenticate the caller by its sealed
// auth-token header, rerandomize the user's polymorphic pseudonym (never
// persisting the rerandomized copy - every call gets an unlinkable fresh
// encoding of the same underlying point, spec section 4.5.3), and sign it
// into a short-lived PPP.
func (s *Server) Ppp(ctx context.Context, authToken string) (types.PppResp, error) {
	inner, err := s.authenticate(authToken)
	if err != nil {
		return types.PppResp{}, trace.Wrap(err)
	}

	user, _, err := s.loadUser(ctx, inner.UserID)
	if err != nil {
		return types.PppResp{}, trace.Wrap(err)
	}

	triple, err := user.PolymorphicPseudonym.Triple()
	if err != nil {
		return types.PppResp{}, trace.Wrap(err, "phc: stored polymorphic pseudonym is corrupt")
	}
	fresh := pep.Rerandomize(triple, pep.RandomScalar())

	now := s.clock.Now()
	ppp := types.PPP{
		PolymorphicPseudonym: types.FromTriple(fresh),
		ConstellationID:      s.constellation.ID,
		IssuedAt:             now,
		Expires:              now.Add(defaults.PPPLifetime),
	}
	signed, err := ppp.Sign(s.pppSignKey)
	if err != nil {
		return types.PppResp{}, trace.Wrap(err)
	}
	return types.PppResp{Outcome: types.PppOutcomeSuccess, PPP: signed}, nil
}
