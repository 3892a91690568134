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

// Package authserver implements the Authentication Server's contract: it
// drives an issuer (e.g. a Yivi disclosure session) to collect attributes,
// re-signs disclosed fields as Attr carriers under the catalog's policy,
// and owns the chained-session bookkeeping described in spec section 4.3.
package authserver

import (
	"time"

	"github.com/google/uuid"
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/seal"
)

const authStateAAD = "pubhubs-auth-state-v1"

// sealState seals an AuthStateInner with srv's state key, binding its
// lifetime to authWindow the same way seal.SealAuthToken does.
func (s *Server) sealState(inner types.AuthStateInner) (string, error) {
	return seal.Seal(inner, s.stateKey, []byte(authStateAAD))
}

// openState unseals and validates a state token's lifetime against
// authWindow, collapsing every failure - unseal failure or staleness -
// into the single PleaseRestartAuth signal the wire contract uses (spec
// section 4.3: "PleaseRestartAuth on stale/invalid state").
func (s *Server) openState(token string) (types.AuthStateInner, error) {
	var inner types.AuthStateInner
	if err := seal.Unseal(token, s.stateKey, []byte(authStateAAD), &inner); err != nil {
		return types.AuthStateInner{}, errRestartAuth
	}
	if time.Since(inner.StartedAt) > s.authWindow {
		return types.AuthStateInner{}, errRestartAuth
	}
	return inner, nil
}

// errRestartAuth is the sentinel the public methods map onto
// PleaseRestartAuth; it's never surfaced to a client directly (spec
// section 4.7: clients see a wire outcome, not a raw error).
var errRestartAuth = trace.AccessDenied("authserver: state is stale or invalid")

func newSessionID() string {
	return uuid.NewString()
}

func newClock() clockwork.Clock {
	return clockwork.NewRealClock()
}
