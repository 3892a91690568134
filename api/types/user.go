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

// Package types holds the wire-level request/response/record shapes
// shared between PHC, the Transcryptor, Auth and the hub-entry client -
// the JSON everyone on the other end of an HTTP call actually sees.
package types

// UserState is PHC's master account record, keyed by a random 32-byte Id
// (stored hex-encoded). PolymorphicPseudonym never changes once set;
// AllowLoginBy may shrink (the user can deregister a login handle) but
// CouldBeBannedBy is append-only (spec section 3).
type UserState struct {
	ID                   string                     `json:"id"`
	PolymorphicPseudonym Triple                     `json:"polymorphic_pseudonym"`
	Banned               bool                       `json:"banned"`
	AllowLoginBy         map[string]struct{}        `json:"allow_login_by"`
	CouldBeBannedBy      map[string]struct{}        `json:"could_be_banned_by"`
	StoredObjects        map[string]UserObjectDetails `json:"stored_objects"`
}

// NewUserState returns a freshly-registered account: a fresh polymorphic
// pseudonym, one allowed login attribute, and empty everything else.
func NewUserState(id string, pp Triple, identifyingAttrID string) UserState {
	return UserState{
		ID:                   id,
		PolymorphicPseudonym: pp,
		AllowLoginBy:         map[string]struct{}{identifyingAttrID: {}},
		CouldBeBannedBy:      map[string]struct{}{},
		StoredObjects:        map[string]UserObjectDetails{},
	}
}

// UserObjectDetails is what UserState.StoredObjects records per handle:
// the content-addressed object id and its size, enough to compute a quota
// and to detect a stale overwrite_hash (spec section 4.5.5).
type UserObjectDetails struct {
	ID   string `json:"id"`
	Size int64  `json:"size"`
}

// Quota is the per-user cap on the blob store, configured server-side.
type Quota struct {
	ObjectCount      int   `json:"object_count"`
	ObjectBytesTotal int64 `json:"object_bytes_total"`
}

// QuotumKind names which half of a Quota a write would exceed.
type QuotumKind string

const (
	QuotumObjectCount      QuotumKind = "ObjectCount"
	QuotumObjectBytesTotal QuotumKind = "ObjectBytesTotal"
)

// CheckWrite reports which quotum (if any) a write of newSize bytes under
// handle would exceed, given the user's current StoredObjects. replacing
// is true when handle already has a stored object being overwritten (so
// the count doesn't increase).
func (q Quota) CheckWrite(current map[string]UserObjectDetails, handle string, newSize int64) (QuotumKind, bool) {
	_, replacing := current[handle]

	count := len(current)
	if !replacing {
		count++
	}
	if count > q.ObjectCount {
		return QuotumObjectCount, true
	}

	var total int64
	for h, d := range current {
		if h == handle {
			continue
		}
		total += d.Size
	}
	total += newSize
	if total > q.ObjectBytesTotal {
		return QuotumObjectBytesTotal, true
	}
	return "", false
}
