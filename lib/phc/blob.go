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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/api/constants"
	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/backend"
)

// objectID derives the content-addressed id of a blob: a hash of the
// owning user (so two users uploading byte-identical payloads never
// collide on one stored object) and the payload itself (spec section
// 4.5.5's "Compute object_id").
func objectID(userID string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte{1}) // version byte, bumped if the hash construction ever changes
	h.Write([]byte(userID))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Server) objectKey(id string) string {
	return backend.Key(constants.PrefixUserObj, id)
}

func (s *Server) objectHMAC(id string) string {
	mac := hmac.New(sha256.New, s.userObjectHMACSecret)
	mac.Write([]byte(id))
	return hex.EncodeToString(mac.Sum(nil))
}

// PutObject implements POST /phc/user/obj/{handle}[/{overwrite_hash}] (spec
// section 4.5.5).
func (s *Server) PutObject(ctx context.Context, authToken, handle string, overwriteHash *string, payload []byte) (types.PutObjectResp, error) {
	inner, err := s.authenticate(authToken)
	if err != nil {
		return types.PutObjectResp{}, trace.Wrap(err)
	}
	user, version, err := s.loadUser(ctx, inner.UserID)
	if err != nil {
		if err == errBanned {
			return types.PutObjectResp{Outcome: types.PutObjectOutcomeBanned}, nil
		}
		return types.PutObjectResp{}, trace.Wrap(err)
	}

	existing, replacing := user.StoredObjects[handle]
	switch {
	case overwriteHash != nil && (!replacing || *overwriteHash != existing.ID):
		return types.PutObjectResp{Outcome: types.PutObjectOutcomeHashDidNotMatch}, nil
	case overwriteHash == nil && replacing:
		return types.PutObjectResp{Outcome: types.PutObjectOutcomeMissingHash}, nil
	}

	if kind, exceeded := s.quota.CheckWrite(user.StoredObjects, handle, int64(len(payload))); exceeded {
		return types.PutObjectResp{Outcome: types.PutObjectOutcomeQuotumReached, Quotum: kind}, nil
	}

	id := objectID(user.ID, payload)
	if _, err := s.store.Put(ctx, s.objectKey(id), payload, nil); err != nil && !trace.IsAlreadyExists(err) {
		return types.PutObjectResp{}, trace.Wrap(err)
	}

	if user.StoredObjects == nil {
		user.StoredObjects = map[string]types.UserObjectDetails{}
	}
	user.StoredObjects[handle] = types.UserObjectDetails{ID: id, Size: int64(len(payload))}
	if _, err := backend.PutJSON(ctx, s.store, s.userKey(user.ID), user, &version); err != nil {
		return types.PutObjectResp{Outcome: types.PutObjectOutcomePleaseRetry}, nil
	}

	if replacing && existing.ID != id {
		// Best-effort: a stale replaced object left behind costs storage,
		// never correctness.
		_, _ = s.store.Delete(ctx, s.objectKey(existing.ID))
	}

	return types.PutObjectResp{Outcome: types.PutObjectOutcomeSuccess, Hash: id, HMAC: s.objectHMAC(id)}, nil
}

// GetObject implements GET /phc/user/obj/{hash}/{hmac}: a capability-style
// read that needs no auth token, only proof of the hmac handed back from
// the matching PutObject call (spec section 4.5.5).
func (s *Server) GetObject(ctx context.Context, hash, suppliedHMAC string) ([]byte, types.GetObjectOutcome, error) {
	expected := s.objectHMAC(hash)
	if !hmac.Equal([]byte(expected), []byte(suppliedHMAC)) {
		return nil, types.GetObjectOutcomeRetryWithNewHmac, nil
	}

	item, err := s.store.Get(ctx, s.objectKey(hash))
	if err != nil {
		if backend.IsNotFound(err) {
			return nil, types.GetObjectOutcomeNotFound, nil
		}
		return nil, "", trace.Wrap(err)
	}
	return item.Value, types.GetObjectOutcomeSuccess, nil
}
