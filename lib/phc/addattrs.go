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
	"github.com/pubhubs/pubhubs/lib/attributes"
	"github.com/pubhubs/pubhubs/lib/backend"
)

// addAttributes runs the shared add-attributes procedure of spec section
// 4.5.2 against an already-resolved userID, then issues a fresh auth token
// (or explains why none was issued). isFreshRegistration is only used to
// decide whether a failure mid-procedure is itself fatal: a brand new user
// just created in register() has nothing to lose by limping out of this
// step with a partial Attrs map, exactly like an existing user would.
func (s *Server) addAttributes(ctx context.Context, userID string, attrs []attributes.Value, isFreshRegistration bool) (types.EnterResp, error) {
	statuses := make(map[string]types.AttrAddStatus, len(attrs))

	for _, a := range attrs {
		id := attributes.DeriveID(a.AttrType, a.Value, s.attrIDSecret)
		status := s.addOneAttribute(ctx, userID, id, a)
		statuses[id.Hex()] = status
	}

	user, version, err := s.loadUser(ctx, userID)
	if err != nil {
		if err == errBanned {
			return types.EnterResp{Outcome: types.EnterOutcomeBanned}, nil
		}
		return types.EnterResp{}, trace.Wrap(err)
	}

	changed := false
	for idHex, status := range statuses {
		if status != types.AttrAdded {
			continue
		}
		if _, ok := user.AllowLoginBy[idHex]; !ok {
			user.AllowLoginBy[idHex] = struct{}{}
			changed = true
		}
		if _, ok := user.CouldBeBannedBy[idHex]; !ok {
			user.CouldBeBannedBy[idHex] = struct{}{}
			changed = true
		}
	}
	if changed {
		if _, err := backend.PutJSON(ctx, s.store, s.userKey(userID), user, &version); err != nil {
			// Someone else updated this user concurrently; the newly added
			// attributes' AttrStates already point at userID, so the next
			// enter/add-attrs call for this user will fold them in.
			for idHex, status := range statuses {
				if status == types.AttrAdded {
					statuses[idHex] = types.AttrPleaseTryAgain
				}
			}
		}
	}

	if len(user.CouldBeBannedBy) == 0 {
		return types.EnterResp{Outcome: types.EnterOutcomeAuthTokenDeniedNoBan, Attrs: statuses}, nil
	}

	authToken, err := s.sealAuthToken(userID)
	if err != nil {
		return types.EnterResp{}, trace.Wrap(err)
	}

	return types.EnterResp{Outcome: types.EnterOutcomeSuccess, AuthToken: authToken, Attrs: statuses}, nil
}

// addOneAttribute implements steps (a) and (b) of the add-attributes
// procedure for a single attribute: ensure its AttrState exists and, if
// bannable, that it records userID in BansUsers.
func (s *Server) addOneAttribute(ctx context.Context, userID string, id attributes.ID, a attributes.Value) types.AttrAddStatus {
	key := s.attrKey(id)
	state, version, err := backend.GetJSON[attributes.State](ctx, s.store, key)
	if err != nil {
		if !backend.IsNotFound(err) {
			return types.AttrPleaseTryAgain
		}
		fresh := attributes.NewState(id)
		if a.Identifying {
			fresh.MayIdentifyUser = &userID
		}
		if a.Bannable {
			fresh.AddBanUser(userID)
		}
		if _, err := backend.PutJSON(ctx, s.store, key, fresh, nil); err != nil {
			return types.AttrPleaseTryAgain
		}
		return types.AttrAdded
	}

	if !a.Bannable || state.BansUser(userID) {
		return types.AttrAlreadyThere
	}
	state.AddBanUser(userID)
	if _, err := backend.PutJSON(ctx, s.store, key, state, &version); err != nil {
		return types.AttrPleaseTryAgain
	}
	return types.AttrAdded
}
