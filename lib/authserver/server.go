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

package authserver

import (
	"context"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/attributes"
	"github.com/pubhubs/pubhubs/lib/defaults"
	"github.com/pubhubs/pubhubs/lib/pepjwt"
	"github.com/pubhubs/pubhubs/lib/seal"
)

// IssuerSource names an issuer Auth knows how to drive. Yivi is the only
// one wired today; unsupported sources are rejected at auth.start.
type IssuerSource string

const SourceYivi IssuerSource = "yivi"

// Config configures a Server.
type Config struct {
	Clock clockwork.Clock

	// StateKey seals/unseals AuthState tokens.
	StateKey seal.Key

	// AuthWindow bounds how long a state token (and the chained session
	// it may reference) stays valid.
	AuthWindow time.Duration

	// CarrierKey signs the Attr carriers auth.complete returns.
	CarrierKey *pepjwt.Key

	// IssuerVerifyKeys maps each supported source to the pepjwt.Key used
	// to verify that issuer's disclosure JWTs.
	IssuerVerifyKeys map[IssuerSource]*pepjwt.Key

	// Catalog supplies Identifying/Bannable policy for each attr_type;
	// disclosed values are re-bound against it, never trusted from the
	// issuer (spec section 4.3).
	Catalog attributes.Catalog

	ConstellationID string
}

// Server implements the Authentication Server's public contract (spec
// section 4.3).
type Server struct {
	clock           clockwork.Clock
	stateKey        seal.Key
	authWindow      time.Duration
	carrierKey      *pepjwt.Key
	issuerKeys      map[IssuerSource]*pepjwt.Key
	catalog         attributes.Catalog
	constellationID string

	driver *driver
}

// NewServer constructs a Server and starts its chained-session driver
// goroutine bound to ctx; cancel ctx to shut the driver down.
func NewServer(ctx context.Context, cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.AuthWindow == 0 {
		cfg.AuthWindow = defaults.AuthWindow
	}
	s := &Server{
		clock:           cfg.Clock,
		stateKey:        cfg.StateKey,
		authWindow:      cfg.AuthWindow,
		carrierKey:      cfg.CarrierKey,
		issuerKeys:      cfg.IssuerVerifyKeys,
		catalog:         cfg.Catalog,
		constellationID: cfg.ConstellationID,
		driver:          newDriver(),
	}
	go s.driver.run(ctx)
	return s
}

// Start implements auth.start: BadRequest if source unsupported or any
// attr_type unknown, otherwise a fresh sealed AuthState and an
// issuer-specific task descriptor.
func (s *Server) Start(req types.AuthStartReq) (types.AuthStartResp, error) {
	if _, ok := s.issuerKeys[IssuerSource(req.Source)]; !ok {
		return types.AuthStartResp{}, trace.BadParameter("authserver: unsupported source %q", req.Source)
	}
	for _, at := range req.AttrTypes {
		if _, err := s.catalog.Lookup(at); err != nil {
			return types.AuthStartResp{}, trace.BadParameter("authserver: unknown attr_type %q", at)
		}
	}

	sessionID := newSessionID()
	inner := types.AuthStateInner{
		SessionID:         sessionID,
		StartedAt:         s.clock.Now(),
		RequestedAttrTypes: req.AttrTypes,
	}
	if req.Chained {
		chainedID := sessionID
		inner.YiviChainedSessionID = &chainedID
		s.driver.cmds <- commandRegister(chainedID)
	}

	state, err := s.sealState(inner)
	if err != nil {
		return types.AuthStartResp{}, trace.Wrap(err)
	}

	return types.AuthStartResp{
		Task: types.IssuerSessionDescriptor{
			Source:  req.Source,
			Request: map[string]interface{}{"attr_types": req.AttrTypes},
		},
		State: state,
	}, nil
}

func commandRegister(sessionID string) command {
	return command{sessionID: sessionID, kind: cmdRegister}
}

// Complete implements auth.complete: opens state, verifies the disclosure
// proof against the requested source's issuer key, and re-signs each
// disclosed field as an Attr carrier with policy flags from the catalog
// (never from the issuer).
func (s *Server) Complete(req types.AuthCompleteReq) (types.AuthCompleteResp, error) {
	_, err := s.openState(req.State)
	if err != nil {
		return types.AuthCompleteResp{Outcome: types.AuthCompleteOutcomePleaseRestartAuth}, nil
	}

	disclosed, ok := req.Proof["disclosed"].(map[string]interface{})
	if !ok {
		return types.AuthCompleteResp{}, trace.BadParameter("authserver: proof missing disclosed attributes")
	}

	attrs := make(map[string]string, len(disclosed))
	now := s.clock.Now()
	for attrType, raw := range disclosed {
		value, ok := raw.(string)
		if !ok {
			return types.AuthCompleteResp{}, trace.BadParameter("authserver: disclosed value for %q is not a string", attrType)
		}
		v, err := s.catalog.Bind(attrType, value)
		if err != nil {
			return types.AuthCompleteResp{}, trace.Wrap(err)
		}
		carrier, err := attributes.SignCarrier(s.carrierKey, v, s.constellationID, now, now.Add(defaults.CarrierLifetime))
		if err != nil {
			return types.AuthCompleteResp{}, trace.Wrap(err)
		}
		attrs[attrType] = carrier
	}

	return types.AuthCompleteResp{Outcome: types.AuthCompleteOutcomeSuccess, Attrs: attrs}, nil
}

// WaitForResult implements auth.wait_for_result for a chained session,
// blocking until the issuer posts a disclosure, ctx is canceled, or
// defaults.WaitForResultTimeout elapses.
func (s *Server) WaitForResult(ctx context.Context, stateToken string) (types.WaitForResultResp, error) {
	inner, err := s.openState(stateToken)
	if err != nil {
		return types.WaitForResultResp{Outcome: types.WaitForResultPleaseRestartAuth}, nil
	}
	sessionID, err := s.chainedSessionID(inner)
	if err != nil {
		return types.WaitForResultResp{Outcome: types.WaitForResultPleaseRestartAuth}, nil
	}

	reply := make(chan waitResult, 1)
	s.driver.cmds <- command{sessionID: sessionID, kind: cmdWaitForResult, waitReply: reply}

	ctx, cancel := context.WithTimeout(ctx, defaults.WaitForResultTimeout)
	defer cancel()
	select {
	case r := <-reply:
		if r.gone {
			return types.WaitForResultResp{Outcome: types.WaitForResultSessionGone}, nil
		}
		return types.WaitForResultResp{Outcome: types.WaitForResultSuccess, Disclosure: r.disclosure}, nil
	case <-ctx.Done():
		return types.WaitForResultResp{Outcome: types.WaitForResultSessionGone}, nil
	}
}

// ReleaseNextSession implements auth.release_next_session.
func (s *Server) ReleaseNextSession(sessionID string, next *string) types.ReleaseNextSessionResp {
	reply := make(chan releaseResult, 1)
	s.driver.cmds <- command{sessionID: sessionID, kind: cmdReleaseNextSession, nextSession: next, releaseReply: reply}
	r := <-reply
	switch {
	case r.gone:
		return types.ReleaseNextSessionResp{Outcome: types.ReleaseNextSessionSessionGone}
	case r.tooEarly:
		return types.ReleaseNextSessionResp{Outcome: types.ReleaseNextSessionTooEarly}
	default:
		return types.ReleaseNextSessionResp{Outcome: types.ReleaseNextSessionSuccess}
	}
}

// IssuerPostAndAwaitNext is the handler behind
// POST /auths/yivi/next-session?state=...: the external issuer posts its
// disclosure JWT and blocks until some client's ReleaseNextSession call
// tells it what session (if any) to chain into.
func (s *Server) IssuerPostAndAwaitNext(ctx context.Context, sessionID string, disclosureJWT string) (*string, error) {
	reply := make(chan releaseResult, 1)
	s.driver.cmds <- command{sessionID: sessionID, kind: cmdIssuerPostAndAwaitNext, disclosure: disclosureJWT, releaseReply: reply}

	select {
	case r := <-reply:
		if r.gone {
			return nil, trace.NotFound("authserver: chained session %q is gone", sessionID)
		}
		if r.rejected {
			return nil, trace.AlreadyExists("authserver: chained session %q already has an issuer", sessionID)
		}
		return r.nextSession, nil
	case <-ctx.Done():
		return nil, trace.Wrap(ctx.Err())
	}
}

func (s *Server) chainedSessionID(inner types.AuthStateInner) (string, error) {
	if inner.YiviChainedSessionID == nil {
		return "", trace.BadParameter("authserver: state is not a chained session")
	}
	return *inner.YiviChainedSessionID, nil
}
