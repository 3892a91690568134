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
	"encoding/json"

	"github.com/gravitational/trace"

	"github.com/pubhubs/pubhubs/api/types"
	"github.com/pubhubs/pubhubs/lib/attributes"
	"github.com/pubhubs/pubhubs/lib/defaults"
)

// cardPseudPackage is what a physical-card issuance terminal sends as
// CardPseudPackage: a JSON blob naming the one attribute the card
// discloses. Unlike the Yivi flow, there is no chained-session bookkeeping
// here - it's a single-shot issuance.
type cardPseudPackage struct {
	AttrType string `json:"attr_type"`
	Value    string `json:"value"`
}

// Card implements auth.card: a degenerate, single-shot issuer flow for a
// proof already validated out of band by a physical-card terminal (spec
// section 4.3).
func (s *Server) Card(req types.AuthCardReq) (types.AuthCardResp, error) {
	var pkg cardPseudPackage
	if err := json.Unmarshal([]byte(req.CardPseudPackage), &pkg); err != nil {
		return types.AuthCardResp{}, trace.BadParameter("authserver: invalid card_pseud_package: %v", err)
	}

	v, err := s.catalog.Bind(pkg.AttrType, pkg.Value)
	if err != nil {
		return types.AuthCardResp{}, trace.Wrap(err)
	}

	now := s.clock.Now()
	carrier, err := attributes.SignCarrier(s.carrierKey, v, s.constellationID, now, now.Add(defaults.CarrierLifetime))
	if err != nil {
		return types.AuthCardResp{}, trace.Wrap(err)
	}

	return types.AuthCardResp{
		Attr:            carrier,
		IssuanceRequest: req.Comment,
	}, nil
}
