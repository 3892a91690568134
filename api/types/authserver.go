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

import "time"

// AuthStateInner is the plaintext of Auth's sealed AuthState token (spec
// section 4.3). The wire-level "state" string a client passes around is
// the sealed, opaque encoding of this - see lib/seal.
type AuthStateInner struct {
	SessionID            string    `json:"session_id"`
	StartedAt            time.Time `json:"started_at"`
	RequestedAttrTypes    []string  `json:"requested_attr_types"`
	YiviChainedSessionID *string   `json:"yivi_chained_session_id,omitempty"`
}

// IssuerSessionDescriptor describes the issuer-specific task a client must
// complete to satisfy auth.start - e.g. a Yivi disclosure request. Kept
// opaque here (a JSON blob) since its shape is entirely issuer-defined;
// Auth only needs to hand it back unmodified.
type IssuerSessionDescriptor struct {
	Source  string                 `json:"source"`
	Request map[string]interface{} `json:"request"`
}

// AuthStartReq is POST /auths/start's body.
type AuthStartReq struct {
	Source     string   `json:"source"`
	AttrTypes  []string `json:"attr_types"`
	Chained    bool     `json:"chained"`
}

// AuthStartResp is POST /auths/start's response.
type AuthStartResp struct {
	Task  IssuerSessionDescriptor `json:"task"`
	State string                  `json:"state"`
}

// AuthCompleteReq is POST /auths/complete's body: the sealed state from
// auth.start plus an issuer-specific disclosure proof (opaque here).
type AuthCompleteReq struct {
	State string                 `json:"state"`
	Proof map[string]interface{} `json:"proof"`
}

// AuthCompleteOutcome distinguishes auth.complete's results (spec section
// 4.3).
type AuthCompleteOutcome string

const (
	AuthCompleteOutcomeSuccess          AuthCompleteOutcome = "Success"
	AuthCompleteOutcomePleaseRestartAuth AuthCompleteOutcome = "PleaseRestartAuth"
)

// AuthCompleteResp is POST /auths/complete's response: on success, one
// signed Attr carrier JWT per requested attr_type that was actually
// disclosed.
type AuthCompleteResp struct {
	Outcome AuthCompleteOutcome `json:"outcome"`
	Attrs   map[string]string   `json:"attrs,omitempty"`
}

// WaitForResultOutcome distinguishes auth.wait_for_result's results (spec
// section 4.3): the chained-session driver either has a disclosure ready,
// has lost track of the session, or the caller's state has gone stale.
type WaitForResultOutcome string

const (
	WaitForResultSuccess           WaitForResultOutcome = "Success"
	WaitForResultSessionGone       WaitForResultOutcome = "SessionGone"
	WaitForResultPleaseRestartAuth WaitForResultOutcome = "PleaseRestartAuth"
)

// WaitForResultResp is POST /auths/wait_for_result's response.
type WaitForResultResp struct {
	Outcome    WaitForResultOutcome `json:"outcome"`
	Disclosure string               `json:"disclosure,omitempty"`
}

// ReleaseNextSessionReq is POST /auths/release_next_session's body: the
// issuer's own state plus, optionally, the next chained ESR to hand to the
// waiting client.
type ReleaseNextSessionReq struct {
	State       string  `json:"state"`
	NextSession *string `json:"next_session,omitempty"`
}

// ReleaseNextSessionOutcome distinguishes auth.release_next_session's
// results (spec section 4.3).
type ReleaseNextSessionOutcome string

const (
	ReleaseNextSessionSuccess           ReleaseNextSessionOutcome = "Success"
	ReleaseNextSessionTooEarly          ReleaseNextSessionOutcome = "TooEarly"
	ReleaseNextSessionSessionGone       ReleaseNextSessionOutcome = "SessionGone"
	ReleaseNextSessionPleaseRestartAuth ReleaseNextSessionOutcome = "PleaseRestartAuth"
)

// ReleaseNextSessionResp is POST /auths/release_next_session's response.
type ReleaseNextSessionResp struct {
	Outcome ReleaseNextSessionOutcome `json:"outcome"`
}

// AuthCardReq is POST /auths/card's body: a pseudonym carrier bound to a
// physical-card-issued proof, plus an operator-facing comment (spec
// section 4.3's auth.card, a degenerate single-shot issuer flow for
// physical-card-based proofs).
type AuthCardReq struct {
	CardPseudPackage string `json:"card_pseud_package"`
	Comment          string `json:"comment"`
}

// AuthCardResp is POST /auths/card's response.
type AuthCardResp struct {
	Attr             string `json:"attr"`
	IssuanceRequest  string `json:"issuance_request"`
}

// AuthWelcomeResp is GET /auths/welcome's response.
type AuthWelcomeResp struct {
	AttrTypes []string `json:"attr_types"`
}
