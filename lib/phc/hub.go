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
	"github.com/google/uuid"
	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/api/types"
)

// RegisterHubReq is the admin-only request to add a hub to the
// constellation's roster (spec section 4.5.6).
type RegisterHubReq struct {
	Name            string
	Description     string
	OIDCRedirectURI string
	ClientURI       string
}

// RegisterHub creates a fresh Hub record with freshly generated id and
// decryption_id, rejecting a name collision.
func (s *Server) RegisterHub(req RegisterHubReq) (types.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range s.hubs {
		if h.Name == req.Name {
			return types.Hub{}, trace.AlreadyExists("phc: hub name %q is already registered", req.Name)
		}
	}

	hub := types.Hub{
		ID:              uuid.New().String(),
		DecryptionID:    uuid.New().String(),
		Name:            req.Name,
		Description:     req.Description,
		OIDCRedirectURI: req.OIDCRedirectURI,
		ClientURI:       req.ClientURI,
		Active:          true,
	}
	s.hubs[hub.ID] = hub
	return hub, nil
}

// RotateDecryptionID replaces a hub's decryption_id, letting it recover
// from a compromised local decryption key without any user's per-hub
// pseudonym for other hubs changing (spec section 4.5.6). The hub's own
// local pseudonyms do change: they are derived from decryption_id.
func (s *Server) RotateDecryptionID(hubID string) (types.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hub, ok := s.hubs[hubID]
	if !ok {
		return types.Hub{}, trace.NotFound("phc: unknown hub %q", hubID)
	}
	hub.DecryptionID = uuid.New().String()
	s.hubs[hubID] = hub
	return hub, nil
}

// SetHubActive flips a hub's Active flag, controlling whether it is
// advertised in GET /phc/user/welcome.
func (s *Server) SetHubActive(hubID string, active bool) (types.Hub, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hub, ok := s.hubs[hubID]
	if !ok {
		return types.Hub{}, trace.NotFound("phc: unknown hub %q", hubID)
	}
	hub.Active = active
	s.hubs[hubID] = hub
	return hub, nil
}

// Hub returns a registered hub's record by ID.
func (s *Server) Hub(hubID string) (types.Hub, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hub, ok := s.hubs[hubID]
	if !ok {
		return types.Hub{}, trace.NotFound("phc: unknown hub %q", hubID)
	}
	return hub, nil
}
