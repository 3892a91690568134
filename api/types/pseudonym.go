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

package types

import (
	"time"

	josejwt "gopkg.in/square/go-jose.v2/jwt"

	"github.com/pubhubs/pubhubs/lib/pepjwt"
)

// PPP is "PHC Pseudonym Packet": PHC's signed envelope carrying a user's
// (rerandomized) polymorphic pseudonym to the hub-entry client, which
// forwards it unopened to the Transcryptor (spec section 3).
type PPP struct {
	PolymorphicPseudonym Triple
	ConstellationID      string
	IssuedAt             time.Time
	Expires              time.Time
}

// Sign produces the compact-serialized PPP JWT.
func (p PPP) Sign(key *pepjwt.Key) (string, error) {
	return key.Sign(map[string]interface{}{
		"polymorphic_pseudonym": p.PolymorphicPseudonym,
		"constellation_id":      p.ConstellationID,
		"iat":                   josejwt.NewNumericDate(p.IssuedAt),
		"exp":                   josejwt.NewNumericDate(p.Expires),
	})
}

// OpenPPP opens and fully consumes a PPP token signed by PHC's key.
func OpenPPP(key *pepjwt.Key, token string, expectedConstellation string) (PPP, error) {
	r, err := key.Open(token)
	if err != nil {
		return PPP{}, err
	}
	if err := r.RequireConstellation(expectedConstellation); err != nil {
		return PPP{}, err
	}
	var p PPP
	p.ConstellationID = expectedConstellation
	if err := r.Take("polymorphic_pseudonym", &p.PolymorphicPseudonym); err != nil {
		return PPP{}, err
	}
	if err := r.Finish(); err != nil {
		return PPP{}, err
	}
	return p, nil
}

// EHPP is "Encrypted Hub Pseudonym Packet": the Transcryptor's signed
// envelope carrying PHC's triple after one RSK step scaled/switched toward
// hub H (spec section 3/4.4).
type EHPP struct {
	Triple          Triple
	HubID           string
	HubNonce        string
	ConstellationID string
	IssuedAt        time.Time
	Expires         time.Time
}

// Sign produces the compact-serialized EHPP JWT.
func (e EHPP) Sign(key *pepjwt.Key) (string, error) {
	return key.Sign(map[string]interface{}{
		"triple":           e.Triple,
		"hub_id":           e.HubID,
		"hub_nonce":        e.HubNonce,
		"constellation_id": e.ConstellationID,
		"iat":              josejwt.NewNumericDate(e.IssuedAt),
		"exp":              josejwt.NewNumericDate(e.Expires),
	})
}

// OpenEHPP opens and fully consumes an EHPP token signed by the
// Transcryptor's key.
func OpenEHPP(key *pepjwt.Key, token string, expectedConstellation string) (EHPP, error) {
	r, err := key.Open(token)
	if err != nil {
		return EHPP{}, err
	}
	if err := r.RequireConstellation(expectedConstellation); err != nil {
		return EHPP{}, err
	}
	var e EHPP
	e.ConstellationID = expectedConstellation
	if err := r.Take("triple", &e.Triple); err != nil {
		return EHPP{}, err
	}
	if err := r.Take("hub_id", &e.HubID); err != nil {
		return EHPP{}, err
	}
	if err := r.Take("hub_nonce", &e.HubNonce); err != nil {
		return EHPP{}, err
	}
	if err := r.Finish(); err != nil {
		return EHPP{}, err
	}
	return e, nil
}

// HHPP is "Hub Hub-Pseudonym Packet": PHC's final signed envelope carrying
// the user's decrypted local pseudonym point for hub H, handed to the hub
// itself by the user-agent (spec section 3/4.5.4).
type HHPP struct {
	LocalHubPseudonym string
	HubID             string
	HubNonce          string
	IssuedAt          time.Time
	Expires           time.Time
}

// Sign produces the compact-serialized HHPP JWT. HHPP carries no
// constellation_id: it is consumed by the hub, which is not itself a
// constellation member and has no notion of constellation identity.
func (h HHPP) Sign(key *pepjwt.Key) (string, error) {
	return key.Sign(map[string]interface{}{
		"local_hub_pseudonym": h.LocalHubPseudonym,
		"hub_id":              h.HubID,
		"hub_nonce":           h.HubNonce,
		"iat":                 josejwt.NewNumericDate(h.IssuedAt),
		"exp":                 josejwt.NewNumericDate(h.Expires),
	})
}

// OpenHHPP opens and fully consumes an HHPP token signed by PHC's key.
func OpenHHPP(key *pepjwt.Key, token string) (HHPP, error) {
	r, err := key.Open(token)
	if err != nil {
		return HHPP{}, err
	}
	var h HHPP
	if err := r.Take("local_hub_pseudonym", &h.LocalHubPseudonym); err != nil {
		return HHPP{}, err
	}
	if err := r.Take("hub_id", &h.HubID); err != nil {
		return HHPP{}, err
	}
	if err := r.Take("hub_nonce", &h.HubNonce); err != nil {
		return HHPP{}, err
	}
	if err := r.Finish(); err != nil {
		return HHPP{}, err
	}
	return h, nil
}
