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

// Package transcryptor implements the Transcryptor's single real
// operation: turning a PHC-issued PPP into a hub-targeted EHPP via one RSK
// step, without ever learning which user is acting (spec section 4.4).
package transcryptor

import (
	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/constellation"
	"github.com/pubhubs/pubhubs/lib/defaults"
	"github.com/pubhubs/pubhubs/lib/pep"
	"github.com/pubhubs/pubhubs/lib/pepjwt"
)

// HubRegistry resolves a hub handle to this server's decryption_id-derived
// RSK parameters. The Transcryptor keeps its own small hub roster (just
// enough to look up decryption_id) rather than sharing PHC's full Hub
// record.
type HubRegistry interface {
	ParamsFor(hubID string) (s, k pep.Scalar, err error)
}

// Config configures a Server.
type Config struct {
	Clock clockwork.Clock

	// MasterShare is y_T, the Transcryptor's ElGamal master-key share,
	// used to derive per-hub (s, k) via hub_params.DeriveHubParams.
	MasterShare pep.Scalar

	// PPPVerifyKey verifies PHC-signed PPP tokens.
	PPPVerifyKey *pepjwt.Key
	// EHPPSignKey signs the EHPP tokens this server issues.
	EHPPSignKey *pepjwt.Key

	Hubs HubRegistry

	Constellation constellation.Info
}

// Server implements tr.welcome and tr.ehpp.
type Server struct {
	clock         clockwork.Clock
	masterShare   pep.Scalar
	pppVerifyKey  *pepjwt.Key
	ehppSignKey   *pepjwt.Key
	hubs          HubRegistry
	constellation constellation.Info
}

func NewServer(cfg Config) *Server {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	return &Server{
		clock:         cfg.Clock,
		masterShare:   cfg.MasterShare,
		pppVerifyKey:  cfg.PPPVerifyKey,
		ehppSignKey:   cfg.EHPPSignKey,
		hubs:          cfg.Hubs,
		constellation: cfg.Constellation,
	}
}

// Welcome implements tr.welcome.
func (s *Server) Welcome() constellation.Info {
	return s.constellation
}

// Ehpp implements tr.ehpp (spec section 4.4's five-step algorithm).
func (s *Server) Ehpp(req types.EhppReq) (types.EhppResp, error) {
	ppp, err := types.OpenPPP(s.pppVerifyKey, req.PPP, s.constellation.ID)
	switch err {
	case nil:
	case pepjwt.OpenErrorExpired, pepjwt.OpenErrorOtherConstellation:
		return types.EhppResp{Outcome: types.EhppOutcomeRetryWithNewPpp}, nil
	default:
		return types.EhppResp{}, trace.Wrap(err)
	}

	triple, err := ppp.PolymorphicPseudonym.Triple()
	if err != nil {
		return types.EhppResp{}, trace.BadParameter("transcryptor: invalid triple in ppp: %v", err)
	}

	sH, kH, err := s.hubs.ParamsFor(req.Hub)
	if err != nil {
		return types.EhppResp{}, trace.Wrap(err)
	}

	r := pep.RandomScalar()
	triplePrime := pep.RSK(triple, sH, kH, r)

	now := s.clock.Now()
	ehpp := types.EHPP{
		Triple:          types.FromTriple(triplePrime),
		HubID:           req.Hub,
		HubNonce:        req.HubNonce,
		ConstellationID: s.constellation.ID,
		IssuedAt:        now,
		Expires:         now.Add(defaults.EHPPLifetime),
	}
	signed, err := ehpp.Sign(s.ehppSignKey)
	if err != nil {
		return types.EhppResp{}, trace.Wrap(err)
	}

	return types.EhppResp{Outcome: types.EhppOutcomeSuccess, EHPP: signed}, nil
}
