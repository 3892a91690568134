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

package transcryptor

import (
	"sync"

	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/lib/pep"
)

const hubParamsLabel = "transcryptor"

// StaticRegistry is a HubRegistry backed by an in-memory map of hub ->
// decryption_id, refreshed wholesale whenever PHC pushes a new hub roster
// over the admin channel (spec section 4.5.6: "delivered to the hub via an
// authenticated admin channel" - the same push updates the Transcryptor's
// copy of decryption_id per hub).
type StaticRegistry struct {
	mu          sync.RWMutex
	masterShare pep.Scalar
	decryptionIDs map[string]string
}

func NewStaticRegistry(masterShare pep.Scalar) *StaticRegistry {
	return &StaticRegistry{masterShare: masterShare, decryptionIDs: make(map[string]string)}
}

// Set records or updates a hub's decryption_id.
func (r *StaticRegistry) Set(hubID, decryptionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decryptionIDs[hubID] = decryptionID
}

// ParamsFor implements HubRegistry.
func (r *StaticRegistry) ParamsFor(hubID string) (pep.Scalar, pep.Scalar, error) {
	r.mu.RLock()
	decryptionID, ok := r.decryptionIDs[hubID]
	r.mu.RUnlock()
	if !ok {
		return pep.Scalar{}, pep.Scalar{}, trace.BadParameter("transcryptor: unknown hub %q", hubID)
	}
	params := pep.DeriveHubParams(r.masterShare, decryptionID, hubParamsLabel)
	return params.S, params.K, nil
}
