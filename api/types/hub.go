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

// Hub is PHC's registration record for a hub, keyed by ID. DecryptionID is
// independently rotatable: rotating it lets a hub recover from a
// compromised local decryption key without changing the per-hub
// pseudonyms any other hub sees (spec section 4.5.6).
type Hub struct {
	ID               string `json:"id"`
	DecryptionID     string `json:"decryption_id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	OIDCRedirectURI  string `json:"oidc_redirect_uri"`
	ClientURI        string `json:"client_uri"`
	Active           bool   `json:"active"`
}

// BasicHubInfo is the subset of Hub exposed in /phc/user/welcome - enough
// for a user-agent to pick a hub, nothing it shouldn't see (no
// decryption_id).
type BasicHubInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	ClientURI   string `json:"client_uri"`
}

// WelcomeResp is the shared shape of GET .../welcome across PHC and the
// Transcryptor (the Transcryptor's omits Hubs).
type WelcomeResp struct {
	Constellation interface{}             `json:"constellation"`
	Hubs          map[string]BasicHubInfo `json:"hubs,omitempty"`
}

// HubInfoResp is GET {hub}/.ph/info's response (spec section 6.1).
type HubInfoResp struct {
	HubClientURL string `json:"hub_client_url"`
}

// HubEnterStartResp is GET {hub}/enter/start's response: an opaque state
// token the user-agent must echo back with its HHPP, plus a nonce the hub
// expects to see reflected in that HHPP's hub_nonce claim.
type HubEnterStartResp struct {
	State string `json:"state"`
	Nonce string `json:"nonce"`
}

// HubEnterCompleteReq is POST {hub}/enter/complete's body.
type HubEnterCompleteReq struct {
	State string `json:"state"`
	HHPP  string `json:"hhpp"`
}

// HubEnterCompleteResp is POST {hub}/enter/complete's response, and also
// the terminal payload of the whole hub-entry state machine (spec section
// 4.6).
type HubEnterCompleteResp struct {
	AccessToken  string `json:"access_token"`
	DeviceID     string `json:"device_id"`
	NewUser      bool   `json:"new_user"`
	MXID         string `json:"mxid"`
	HubClientURL string `json:"hub_client_url,omitempty"`
}

// EhppReq is POST /tr/ehpp's body (spec section 4.4).
type EhppReq struct {
	PPP      string `json:"ppp"`
	Hub      string `json:"hub"`
	HubNonce string `json:"hub_nonce"`
}

// EhppOutcome distinguishes tr.ehpp's two possible results: a signed EHPP,
// or a request to retry with a fresh PPP (the presented one was expired or
// signed for a different constellation - spec section 4.4).
type EhppOutcome string

const (
	EhppOutcomeSuccess         EhppOutcome = "Success"
	EhppOutcomeRetryWithNewPpp EhppOutcome = "RetryWithNewPpp"
)

// EhppResp is POST /tr/ehpp's response.
type EhppResp struct {
	Outcome EhppOutcome `json:"outcome"`
	EHPP    string      `json:"ehpp,omitempty"`
}

// HhppReq is POST /phc/user/hhpp's body (spec section 4.5.4).
type HhppReq struct {
	EHPP string `json:"ehpp"`
}

// HhppOutcome distinguishes phc.hhpp's results.
type HhppOutcome string

const (
	HhppOutcomeSuccess HhppOutcome = "Success"
)

// HhppResp is POST /phc/user/hhpp's response.
type HhppResp struct {
	Outcome HhppOutcome `json:"outcome"`
	HHPP    string      `json:"hhpp,omitempty"`
}

// PppOutcome distinguishes GET /phc/user/ppp's results.
type PppOutcome string

const (
	PppOutcomeSuccess PppOutcome = "Success"
)

// PppResp is GET /phc/user/ppp's response.
type PppResp struct {
	Outcome PppOutcome `json:"outcome"`
	PPP     string     `json:"ppp,omitempty"`
}

// UserStateResp is GET /phc/user/state's response: the subset of
// UserState a user is allowed to see about themself.
type UserStateResp struct {
	AllowLoginBy    []string                     `json:"allow_login_by"`
	CouldBeBannedBy []string                     `json:"could_be_banned_by"`
	StoredObjects   map[string]UserObjectDetails `json:"stored_objects"`
}
