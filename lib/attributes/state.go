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

// State is the policy record PHC keeps per AttrID, invariant-checked by
// callers on every read (spec section 3/8):
//   - Banned implies every user in BansUsers is treated as banned, even if
//     that user's own UserState.Banned is still false (propagation is a
//     read-time invariant, not an atomic write - see spec section 5).
//   - MayIdentifyUser is Some(u) only if the attribute is Identifying.
//   - The AttrID a State is keyed by is never deleted; only the State's
//     fields change, and only via explicit user/admin action.
type State struct {
	ID ID `json:"id"`

	Banned bool `json:"banned"`

	// MayIdentifyUser is the user this identifying attribute currently
	// lets log in as, if any.
	MayIdentifyUser *string `json:"may_identify_user,omitempty"`

	// BansUsers is the set of user IDs that would be banned if this
	// attribute is marked Banned. Append-only from the perspective of
	// normal operation: users are added here when they register/add the
	// attribute, never removed by the user themselves.
	BansUsers map[string]struct{} `json:"bans_users"`
}

// NewState returns a fresh, unbanned State with an empty BansUsers set.
func NewState(id ID) *State {
	return &State{ID: id, BansUsers: make(map[string]struct{})}
}

// BansUser reports whether u is a member of BansUsers.
func (s *State) BansUser(u string) bool {
	_, ok := s.BansUsers[u]
	return ok
}

// AddBanUser adds u to BansUsers, returning whether it was already
// present (idempotent: callers can retry freely).
func (s *State) AddBanUser(u string) (added bool) {
	if s.BansUsers == nil {
		s.BansUsers = make(map[string]struct{})
	}
	if _, ok := s.BansUsers[u]; ok {
		return false
	}
	s.BansUsers[u] = struct{}{}
	return true
}

// EffectivelyBans reports whether this attribute's current state bans
// user u: either the attribute itself is marked Banned and u is in
// BansUsers, per the read-time propagation invariant.
func (s *State) EffectivelyBans(u string) bool {
	return s.Banned && s.BansUser(u)
}
