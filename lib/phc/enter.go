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

	"github.com/google/uuid"
	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/attributes"
	"github.com/pubhubs/pubhubs/lib/backend"
	"github.com/pubhubs/pubhubs/lib/pep"
	"github.com/pubhubs/pubhubs/lib/pepjwt"
)

// openAttr opens an attribute carrier and maps pepjwt's OpenError onto the
// three outcomes spec section 4.5.2 assigns it. retryOutcome names the
// specific retry variant this slot should report (RetryWithNewIdentifyingAttr
// or RetryWithNewAddAttr{index}) since that differs by which slot in the
// request the carrier came from.
func (s *Server) openAttr(carrier string, retryOutcome types.EnterOutcome, retryIndex *int) (attributes.Value, types.EnterResp, error) {
	v, err := attributes.OpenCarrier(s.authVerifyKey, carrier, s.constellation.ID)
	if err == nil {
		return v, types.EnterResp{}, nil
	}
	switch err {
	case pepjwt.OpenErrorOtherConstellation:
		return attributes.Value{}, types.EnterResp{}, trace.Wrap(err, "phc: attribute carrier signed for a different constellation")
	case pepjwt.OpenErrorExpired, pepjwt.OpenErrorInvalidSignature:
		return attributes.Value{}, types.EnterResp{Outcome: retryOutcome, RetryAddAttrIndex: retryIndex}, nil
	default:
		return attributes.Value{}, types.EnterResp{}, trace.BadParameter("phc: attribute carrier is otherwise invalid")
	}
}

// Enter implements POST /phc/user/enter (spec section 4.5.2).
func (s *Server) Enter(ctx context.Context, req types.EnterReq) (types.EnterResp, error) {
	identAttr, retry, err := s.openAttr(req.IdentifyingAttr, types.EnterOutcomeRetryWithNewIdentAttr, nil)
	if err != nil {
		return types.EnterResp{}, trace.Wrap(err)
	}
	if retry.Outcome != "" {
		return retry, nil
	}
	if !identAttr.Identifying {
		return types.EnterResp{}, trace.BadParameter("phc: identifying_attr is not an identifying attribute")
	}

	addAttrs := make([]attributes.Value, len(req.AddAttrs))
	seen := map[attributes.ID]bool{}
	identID := attributes.DeriveID(identAttr.AttrType, identAttr.Value, s.attrIDSecret)
	seen[identID] = true
	for i, carrier := range req.AddAttrs {
		idx := i
		v, retry, err := s.openAttr(carrier, "", &idx)
		if err != nil {
			return types.EnterResp{}, trace.Wrap(err)
		}
		if retry.Outcome != "" {
			outcome, index := types.RetryWithNewAddAttrOutcome(idx)
			return types.EnterResp{Outcome: outcome, RetryAddAttrIndex: index}, nil
		}
		id := attributes.DeriveID(v.AttrType, v.Value, s.attrIDSecret)
		if seen[id] {
			return types.EnterResp{}, trace.BadParameter("phc: duplicate attribute in enter request")
		}
		seen[id] = true
		addAttrs[i] = v
	}

	switch req.Mode {
	case types.EnterLogin, types.EnterLoginOrRegister:
		identState, _, err := backend.GetJSON[attributes.State](ctx, s.store, s.attrKey(identID))
		switch {
		case err == nil:
			return s.loginAndAddAttrs(ctx, *identState.MayIdentifyUser, addAttrs)
		case backend.IsNotFound(err) && req.Mode == types.EnterLogin:
			return types.EnterResp{Outcome: types.EnterOutcomeAccountDoesNotExist}, nil
		case backend.IsNotFound(err):
			// LoginOrRegister: fall through to registration below.
		default:
			return types.EnterResp{}, trace.Wrap(err)
		}
	}

	return s.register(ctx, identAttr, identID, addAttrs)
}

// register implements the strict registration ordering of spec section
// 4.5.2.
func (s *Server) register(ctx context.Context, identAttr attributes.Value, identID attributes.ID, addAttrs []attributes.Value) (types.EnterResp, error) {
	if state, _, err := backend.GetJSON[attributes.State](ctx, s.store, s.attrKey(identID)); err == nil {
		if state.Banned {
			return types.EnterResp{Outcome: types.EnterOutcomeAttributeBanned}, nil
		}
		return types.EnterResp{Outcome: types.EnterOutcomeAttributeAlreadyTaken}, nil
	} else if !backend.IsNotFound(err) {
		return types.EnterResp{}, trace.Wrap(err)
	}

	hasBannable := identAttr.Bannable
	for _, a := range addAttrs {
		if a.Bannable {
			hasBannable = true
		}
		state, _, err := backend.GetJSON[attributes.State](ctx, s.store, s.attrKey(attributes.DeriveID(a.AttrType, a.Value, s.attrIDSecret)))
		if err == nil {
			if state.Banned {
				return types.EnterResp{Outcome: types.EnterOutcomeAttributeBanned}, nil
			}
			if state.MayIdentifyUser != nil {
				return types.EnterResp{Outcome: types.EnterOutcomeAttributeAlreadyTaken}, nil
			}
		} else if !backend.IsNotFound(err) {
			return types.EnterResp{}, trace.Wrap(err)
		}
	}
	if !hasBannable {
		return types.EnterResp{Outcome: types.EnterOutcomeNoBannableAttribute}, nil
	}

	// Step 1: PUT fresh UserState.
	userID := uuid.New().String()
	pp := pep.Encrypt(pep.RandomPoint(), s.masterPublicKey, pep.RandomScalar())
	user := types.NewUserState(userID, types.FromTriple(pp), identID.Hex())
	if _, err := backend.PutJSON(ctx, s.store, s.userKey(userID), user, nil); err != nil {
		return types.EnterResp{}, trace.Wrap(err, "phc: fresh user id collided")
	}

	// Step 2: PUT the identifying AttrState.
	identState := attributes.NewState(identID)
	identState.MayIdentifyUser = &userID
	if _, err := backend.PutJSON(ctx, s.store, s.attrKey(identID), identState, nil); err != nil {
		// The user account is now orphaned; acceptable per spec section
		// 4.5.2's note that this is an accepted failure mode.
		return types.EnterResp{Outcome: types.EnterOutcomeAttributeAlreadyTaken}, nil
	}

	// Step 3: the shared add-attributes procedure.
	return s.addAttributes(ctx, userID, addAttrs, true)
}

// loginAndAddAttrs is the login-mode path: the identifying attribute
// already resolved to userID, so we only need to run the shared
// add-attributes procedure and re-issue an auth token.
func (s *Server) loginAndAddAttrs(ctx context.Context, userID string, addAttrs []attributes.Value) (types.EnterResp, error) {
	return s.addAttributes(ctx, userID, addAttrs, false)
}
