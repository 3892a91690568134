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

// Package phc implements PubHubs Central: the master account store, the
// login/register entrypoint, pseudonym minting and finalization, the user
// blob store, and hub registration (spec section 4.5).
package phc

import (
	"context"
	"sync"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"

	"github.com/pubhubs/pubhubs/api/constants"
	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/attributes"
	"github.com/pubhubs/pubhubs/lib/backend"
	"github.com/pubhubs/pubhubs/lib/constellation"
	"github.com/pubhubs/pubhubs/lib/defaults"
	"github.com/pubhubs/pubhubs/lib/pep"
	"github.com/pubhubs/pubhubs/lib/pepjwt"
	"github.com/pubhubs/pubhubs/lib/seal"
)

// Config configures a Server.
type Config struct {
	Clock clockwork.Clock

	Store backend.Backend

	// AuthTokenKey seals/unseals the PHC-Auth header value.
	AuthTokenKey seal.Key
	AuthWindow   time.Duration

	// PPPSignKey signs PPP tokens; HHPPSignKey signs HHPP tokens. They may
	// be the same *pepjwt.Key.
	PPPSignKey  *pepjwt.Key
	HHPPSignKey *pepjwt.Key

	// EHPPVerifyKey verifies EHPP tokens from the Transcryptor.
	EHPPVerifyKey *pepjwt.Key
	// AuthVerifyKey verifies Attr carrier tokens from Auth.
	AuthVerifyKey *pepjwt.Key

	// MasterShare is y_PHC; MasterPublicKey is Y = y_PHC*G + y_T*G, the
	// constellation's published master public key fresh registrations
	// encrypt under.
	MasterShare     pep.Scalar
	MasterPublicKey pep.Point

	AttrIDSecret         []byte
	UserObjectHMACSecret []byte

	Catalog attributes.Catalog
	Quota   types.Quota

	Constellation constellation.Info
}

// Server implements PHC's wire contract.
type Server struct {
	clock clockwork.Clock
	store backend.Backend

	authTokenKey seal.Key
	authWindow   time.Duration

	pppSignKey    *pepjwt.Key
	hhppSignKey   *pepjwt.Key
	ehppVerifyKey *pepjwt.Key
	authVerifyKey *pepjwt.Key

	masterShare     pep.Scalar
	masterPublicKey pep.Point

	attrIDSecret         []byte
	userObjectHMACSecret []byte

	catalog attributes.Catalog
	quota   types.Quota

	constellation constellation.Info

	mu   sync.RWMutex
	hubs map[string]types.Hub
}

func NewServer(cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.AuthWindow == 0 {
		cfg.AuthWindow = defaults.AuthWindow
	}
	if cfg.Quota == (types.Quota{}) {
		cfg.Quota = types.Quota{ObjectCount: defaults.DefaultObjectCount, ObjectBytesTotal: defaults.DefaultObjectBytesTotal}
	}
	return &Server{
		clock:                cfg.Clock,
		store:                cfg.Store,
		authTokenKey:         cfg.AuthTokenKey,
		authWindow:           cfg.AuthWindow,
		pppSignKey:           cfg.PPPSignKey,
		hhppSignKey:          cfg.HHPPSignKey,
		ehppVerifyKey:        cfg.EHPPVerifyKey,
		authVerifyKey:        cfg.AuthVerifyKey,
		masterShare:          cfg.MasterShare,
		masterPublicKey:      cfg.MasterPublicKey,
		attrIDSecret:         cfg.AttrIDSecret,
		userObjectHMACSecret: cfg.UserObjectHMACSecret,
		catalog:              cfg.Catalog,
		quota:                cfg.Quota,
		constellation:        cfg.Constellation,
		hubs:                 make(map[string]types.Hub),
	}
}

// Welcome implements GET /phc/user/welcome.
func (s *Server) Welcome() types.WelcomeResp {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hubs := make(map[string]types.BasicHubInfo, len(s.hubs))
	for handle, h := range s.hubs {
		if !h.Active {
			continue
		}
		hubs[handle] = types.BasicHubInfo{Name: h.Name, Description: h.Description, ClientURI: h.ClientURI}
	}
	return types.WelcomeResp{Constellation: s.constellation, Hubs: hubs}
}

// authenticate opens the PHC-Auth header value, collapsing any failure
// into the single opaque seal.ErrOpaque (spec section 7: "Sealed-token
// open failures are opaque").
func (s *Server) authenticate(authToken string) (seal.AuthTokenInner, error) {
	return seal.OpenAuthToken(authToken, s.authTokenKey, s.clock)
}

func (s *Server) userKey(userID string) string {
	return backend.Key(constants.PrefixUser, userID)
}

func (s *Server) attrKey(attrID attributes.ID) string {
	return backend.Key(constants.PrefixAttr, attrID.Hex())
}

// UserState implements GET /phc/user/state: the subset of a user's record
// they are allowed to see about themselves.
func (s *Server) UserState(ctx context.Context, authToken string) (types.UserStateResp, error) {
	inner, err := s.authenticate(authToken)
	if err != nil {
		return types.UserStateResp{}, trace.Wrap(err)
	}
	user, _, err := s.loadUser(ctx, inner.UserID)
	if err != nil {
		return types.UserStateResp{}, trace.Wrap(err)
	}
	allowLoginBy := make([]string, 0, len(user.AllowLoginBy))
	for attrIDHex := range user.AllowLoginBy {
		allowLoginBy = append(allowLoginBy, attrIDHex)
	}
	couldBeBannedBy := make([]string, 0, len(user.CouldBeBannedBy))
	for attrIDHex := range user.CouldBeBannedBy {
		couldBeBannedBy = append(couldBeBannedBy, attrIDHex)
	}
	return types.UserStateResp{
		AllowLoginBy:    allowLoginBy,
		CouldBeBannedBy: couldBeBannedBy,
		StoredObjects:   user.StoredObjects,
	}, nil
}

// sealAuthToken issues a fresh sealed auth-token header value for userID.
func (s *Server) sealAuthToken(userID string) (string, error) {
	return seal.SealAuthToken(s.authTokenKey, s.clock, userID, s.authWindow)
}

// loadUser fetches and validates that userID exists and is not banned,
// either directly (UserState.Banned) or via attribute-ban propagation
// (spec section 8: "the system treats u as banned on every read path").
func (s *Server) loadUser(ctx context.Context, userID string) (types.UserState, backend.Version, error) {
	user, version, err := backend.GetJSON[types.UserState](ctx, s.store, s.userKey(userID))
	if err != nil {
		return types.UserState{}, "", trace.Wrap(err)
	}
	banned, err := s.isBanned(ctx, user)
	if err != nil {
		return types.UserState{}, "", trace.Wrap(err)
	}
	if banned {
		return types.UserState{}, "", errBanned
	}
	return user, version, nil
}

var errBanned = trace.AccessDenied("phc: user is banned")

// isBanned applies the read-time ban propagation invariant: a user is
// banned if their own record says so, or if any attribute in
// CouldBeBannedBy is itself marked Banned (spec section 8).
func (s *Server) isBanned(ctx context.Context, user types.UserState) (bool, error) {
	if user.Banned {
		return true, nil
	}
	for attrIDHex := range user.CouldBeBannedBy {
		state, _, err := backend.GetJSON[attributes.State](ctx, s.store, backend.Key(constants.PrefixAttr, attrIDHex))
		if err != nil {
			if backend.IsNotFound(err) {
				continue
			}
			return false, trace.Wrap(err)
		}
		if state.EffectivelyBans(user.ID) {
			return true, nil
		}
	}
	return false, nil
}
